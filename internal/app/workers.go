// Copyright (c) 2025 Justin Cranford

package app

import (
	"context"
	"errors"
	"time"

	paporgEmail "github.com/iperka/paporg-sub000/internal/email"
	paporgMagic "github.com/iperka/paporg-sub000/internal/magic"
	paporgScanner "github.com/iperka/paporg-sub000/internal/scanner"
	paporgWorker "github.com/iperka/paporg-sub000/internal/worker"
)

// ErrWorkersAlreadyRunning is returned by StartWorkers when called
// while a pool is already active; callers must StopWorkers first.
var ErrWorkersAlreadyRunning = errors.New("app: workers already running")

// StartWorkers builds a worker.Pool sized from the active config (or
// Options.WorkerCount when positive), a MultiSourceScanner over its
// enabled sources, and two background goroutines: one draining
// pool results, one running the scan loop (initial scan, then a
// periodic/triggered scan every ScanInterval) — the Go equivalent of
// TauriAppState::start_workers's two spawned std::thread tasks.
func (a *App) StartWorkers(ctx context.Context) error {
	a.lifecycleMu.Lock()
	defer a.lifecycleMu.Unlock()

	if a.workersRunning {
		return ErrWorkersAlreadyRunning
	}

	cfg := a.Config()
	workerCount := cfg.Settings.WorkerCount
	if a.opts.WorkerCount > 0 {
		workerCount = a.opts.WorkerCount
	}

	registry := newRegistry(cfg)
	reporter := newJobReporter(a.cache, a.store, a.jobEvents, a.telemetry.Slogger)
	pool := paporgWorker.New(workerCount, newPipelineFactory(cfg, registry), reporter)

	emailScanner := paporgEmail.NewScanner(a.store, "")
	multi := paporgScanner.New(cfg.Sources, registry, emailScanner)

	scanCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	a.pool = pool
	a.scanCancel = cancel
	a.scanDone = done
	a.processTrigger = make(chan struct{}, 1)
	a.workersRunning = true

	go a.drainResults(scanCtx, pool)
	go a.scanLoop(scanCtx, multi, pool, done)

	return nil
}

// drainResults consumes every Result the pool produces so the bounded
// results channel never fills and stalls processing (spec §4.8);
// successes/failures are logged at info/warn, mirroring the original's
// result-consumer thread.
func (a *App) drainResults(ctx context.Context, pool *paporgWorker.Pool) {
	for {
		result, ok := pool.RecvResult(ctx)
		if !ok {
			return
		}
		if result.Success {
			a.telemetry.Slogger.Info("job completed", "job_id", result.JobID, "source_path", result.SourcePath, "output_path", derefOrEmpty(result.OutputPath))
		} else {
			a.telemetry.Slogger.Warn("job failed", "job_id", result.JobID, "source_path", result.SourcePath, "error", derefOrEmpty(result.Error))
		}
	}
}

// scanLoop performs an initial scan, then alternates between periodic
// scans (every ScanInterval) and manual triggers (via TriggerProcessing),
// checked every ScanCheckInterval, until ctx is canceled (mirrors
// state.rs's scanner thread loop).
func (a *App) scanLoop(ctx context.Context, multi *paporgScanner.MultiSourceScanner, pool *paporgWorker.Pool, done chan struct{}) {
	defer close(done)

	if !multi.HasSources() {
		a.telemetry.Slogger.Info("no import sources configured, scanner idle")
		<-ctx.Done()
		return
	}

	a.runScan(ctx, multi, pool, "initial")

	ticker := time.NewTicker(paporgMagic.ScanCheckInterval)
	defer ticker.Stop()
	sinceLastScan := time.Duration(0)

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.processTrigger:
			a.runScan(ctx, multi, pool, "triggered")
			sinceLastScan = 0
		case <-ticker.C:
			sinceLastScan += paporgMagic.ScanCheckInterval
			if sinceLastScan >= paporgMagic.ScanInterval {
				a.runScan(ctx, multi, pool, "periodic")
				sinceLastScan = 0
			}
		}
	}
}

func (a *App) runScan(ctx context.Context, multi *paporgScanner.MultiSourceScanner, pool *paporgWorker.Pool, reason string) {
	jobs, err := multi.Scan(ctx)
	if err != nil {
		a.telemetry.Slogger.Warn("scan failed", "reason", reason, "error", err)
		return
	}
	if len(jobs) == 0 {
		return
	}
	a.telemetry.Slogger.Info("scan found documents", "reason", reason, "count", len(jobs))
	for _, job := range jobs {
		if err := pool.Submit(job); err != nil {
			a.telemetry.Slogger.Error("failed to submit job", "source_path", job.SourcePath, "error", err)
		}
	}
}

// TriggerProcessing requests an out-of-cycle scan. Non-blocking: a
// trigger already pending is coalesced with this one.
func (a *App) TriggerProcessing() {
	a.lifecycleMu.Lock()
	trigger := a.processTrigger
	a.lifecycleMu.Unlock()
	if trigger == nil {
		return
	}
	select {
	case trigger <- struct{}{}:
	default:
	}
}

// IsWorkersRunning reports whether StartWorkers has been called
// without a matching StopWorkers.
func (a *App) IsWorkersRunning() bool {
	a.lifecycleMu.Lock()
	defer a.lifecycleMu.Unlock()
	return a.workersRunning
}

// StopWorkers signals the scan loop to stop, waits for it to exit,
// then shuts the pool down (signal-then-join, spec §4.8). Safe to
// call when workers aren't running.
func (a *App) StopWorkers() {
	a.lifecycleMu.Lock()
	if !a.workersRunning {
		a.lifecycleMu.Unlock()
		return
	}
	cancel := a.scanCancel
	done := a.scanDone
	pool := a.pool
	a.workersRunning = false
	a.lifecycleMu.Unlock()

	cancel()
	<-done
	pool.Shutdown()
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
