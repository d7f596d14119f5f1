// Copyright (c) 2025 Justin Cranford

package worker_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	paporgCategorizer "github.com/iperka/paporg-sub000/internal/categorizer"
	paporgJobstore "github.com/iperka/paporg-sub000/internal/jobstore"
	paporgPipeline "github.com/iperka/paporg-sub000/internal/pipeline"
	paporgProcessor "github.com/iperka/paporg-sub000/internal/processor"
	paporgWorker "github.com/iperka/paporg-sub000/internal/worker"
)

func setupDirs(t *testing.T) (input, output string) {
	t.Helper()
	tmp := t.TempDir()
	input = filepath.Join(tmp, "input")
	output = filepath.Join(tmp, "output")
	require.NoError(t, os.MkdirAll(input, 0o755))
	require.NoError(t, os.MkdirAll(output, 0o755))
	return input, output
}

func newPipelineFactory(t *testing.T, input, output string) func() *paporgPipeline.Pipeline {
	t.Helper()
	cat, err := paporgCategorizer.New(nil, paporgCategorizer.Defaults{
		Category: "unsorted", OutputDirectory: "unsorted", OutputFilename: "$original",
	})
	require.NoError(t, err)

	reg := paporgProcessor.NewRegistry()
	reg.Register(&paporgProcessor.TextProcessor{}, "txt")

	cfg := paporgPipeline.Config{InputDirectory: input, OutputDirectory: output}
	return func() *paporgPipeline.Pipeline {
		return paporgPipeline.New(cfg, reg, cat, nil)
	}
}

func TestPool_ProcessesSubmittedJobsAndReportsResults(t *testing.T) {
	t.Parallel()
	input, output := setupDirs(t)

	pool := paporgWorker.New(2, newPipelineFactory(t, input, output), nil)
	defer pool.Shutdown()

	const jobCount = 5
	for i := 0; i < jobCount; i++ {
		path := filepath.Join(input, filepathName(i))
		require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))
		require.NoError(t, pool.Submit(paporgPipeline.NewJob(path)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	seen := 0
	for seen < jobCount {
		result, ok := pool.RecvResult(ctx)
		require.True(t, ok, "expected a result before the timeout")
		require.True(t, result.Success, "error: %v", result.Error)
		seen++
	}
}

func filepathName(i int) string {
	return "doc" + string(rune('a'+i)) + ".txt"
}

func TestPool_SubmitAfterShutdownReturnsError(t *testing.T) {
	t.Parallel()
	input, output := setupDirs(t)

	pool := paporgWorker.New(1, newPipelineFactory(t, input, output), nil)
	pool.Shutdown()

	err := pool.Submit(paporgPipeline.NewJob(filepath.Join(input, "doc.txt")))
	require.ErrorIs(t, err, paporgWorker.ErrPoolStopped)
}

func TestPool_ShutdownIsIdempotent(t *testing.T) {
	t.Parallel()
	input, output := setupDirs(t)

	pool := paporgWorker.New(1, newPipelineFactory(t, input, output), nil)
	pool.Shutdown()
	require.NotPanics(t, pool.Shutdown)
}

func TestPool_ConcurrentSubmitAndShutdownNeverPanics(t *testing.T) {
	t.Parallel()
	input, output := setupDirs(t)

	pool := paporgWorker.New(2, newPipelineFactory(t, input, output), nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// A send-on-closed-channel panic inside Submit would crash
			// the goroutine (and the test binary); ErrPoolStopped is
			// the only acceptable error once Shutdown has started.
			err := pool.Submit(paporgPipeline.NewJob(filepath.Join(input, "doc.txt")))
			if err != nil {
				require.ErrorIs(t, err, paporgWorker.ErrPoolStopped)
			}
		}()
	}

	pool.Shutdown()
	wg.Wait()
}

func TestPool_TryRecvResultReturnsFalseWhenEmpty(t *testing.T) {
	t.Parallel()
	input, output := setupDirs(t)

	pool := paporgWorker.New(1, newPipelineFactory(t, input, output), nil)
	defer pool.Shutdown()

	_, ok := pool.TryRecvResult()
	require.False(t, ok)
}

func TestPool_ReporterReceivesJobEvents(t *testing.T) {
	t.Parallel()
	input, output := setupDirs(t)

	var eventCount int64
	reporter := paporgPipeline.ReporterFunc(func(paporgJobstore.Event) {
		atomic.AddInt64(&eventCount, 1)
	})

	pool := paporgWorker.New(3, newPipelineFactory(t, input, output), reporter)
	defer pool.Shutdown()

	path := filepath.Join(input, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	require.NoError(t, pool.Submit(paporgPipeline.NewJob(path)))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, ok := pool.RecvResult(ctx)
	require.True(t, ok)

	require.Positive(t, atomic.LoadInt64(&eventCount))
}

func TestPool_DefaultsToOneWorkerWhenCountIsInvalid(t *testing.T) {
	t.Parallel()
	input, output := setupDirs(t)

	pool := paporgWorker.New(0, newPipelineFactory(t, input, output), nil)
	defer pool.Shutdown()

	path := filepath.Join(input, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	require.NoError(t, pool.Submit(paporgPipeline.NewJob(path)))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, ok := pool.RecvResult(ctx)
	require.True(t, ok)
	require.True(t, result.Success)
}
