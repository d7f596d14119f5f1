// Copyright (c) 2025 Justin Cranford

package jobstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	paporgJobstore "github.com/iperka/paporg-sub000/internal/jobstore"
)

func TestCache_Update_CreatesRowForUnknownJobID(t *testing.T) {
	t.Parallel()
	cache := paporgJobstore.NewCache()

	job := cache.Update(paporgJobstore.Event{
		JobID:      "job-1",
		Filename:   "a.pdf",
		SourcePath: "/tmp/a.pdf",
		Status:     paporgJobstore.StatusProcessing,
		Phase:      "Queued",
	})
	require.Equal(t, "job-1", job.ID)
	require.Equal(t, 1, cache.Len())
}

func TestCache_Update_PreservesNonNullFieldsWhenEventFieldIsNil(t *testing.T) {
	t.Parallel()
	cache := paporgJobstore.NewCache()

	category := "invoices"
	cache.Update(paporgJobstore.Event{
		JobID: "job-2", SourcePath: "/tmp/b.pdf", Status: paporgJobstore.StatusProcessing,
		Phase: "Categorizing", Category: &category,
	})

	job := cache.Update(paporgJobstore.Event{
		JobID: "job-2", SourcePath: "/tmp/b.pdf", Status: paporgJobstore.StatusProcessing,
		Phase: "Substituting",
	})
	require.Equal(t, "invoices", job.Category)
}

func TestCache_Update_TerminalEventSetsCompletedAt(t *testing.T) {
	t.Parallel()
	cache := paporgJobstore.NewCache()

	job := cache.Update(paporgJobstore.Event{
		JobID: "job-3", SourcePath: "/tmp/c.pdf", Status: paporgJobstore.StatusCompleted,
		Phase: "Completed", Terminal: true,
	})
	require.NotNil(t, job.CompletedAt)
}

func TestCache_Remove(t *testing.T) {
	t.Parallel()
	cache := paporgJobstore.NewCache()
	cache.Update(paporgJobstore.Event{JobID: "job-4", SourcePath: "/tmp/d.pdf", Status: paporgJobstore.StatusProcessing, Phase: "Queued"})

	cache.Remove("job-4")
	_, ok := cache.Get("job-4")
	require.False(t, ok)
}

func TestCache_WarmLoad_LoadsProcessingAndRecentRows(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	processing := sampleJob("job-p")
	processing.Status = string(paporgJobstore.StatusProcessing)
	completed := sampleJob("job-c")
	completed.Status = string(paporgJobstore.StatusCompleted)
	require.NoError(t, store.Insert(ctx, processing))
	require.NoError(t, store.Insert(ctx, completed))

	cache := paporgJobstore.NewCache()
	require.NoError(t, cache.WarmLoad(ctx, store, 10))

	_, ok := cache.Get("job-p")
	require.True(t, ok)
	_, ok = cache.Get("job-c")
	require.True(t, ok)
}

func TestCache_UpdateAndPersist_InsertsThenUpdates(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()
	cache := paporgJobstore.NewCache()

	require.NoError(t, cache.UpdateAndPersist(ctx, store, paporgJobstore.Event{
		JobID: "job-5", Filename: "e.pdf", SourcePath: "/tmp/e.pdf",
		Status: paporgJobstore.StatusProcessing, Phase: "Queued",
	}))

	found, err := store.FindByID(ctx, "job-5")
	require.NoError(t, err)
	require.NotNil(t, found)

	require.NoError(t, cache.UpdateAndPersist(ctx, store, paporgJobstore.Event{
		JobID: "job-5", Filename: "e.pdf", SourcePath: "/tmp/e.pdf",
		Status: paporgJobstore.StatusCompleted, Phase: "Completed", Terminal: true,
	}))

	found, err = store.FindByID(ctx, "job-5")
	require.NoError(t, err)
	require.Equal(t, string(paporgJobstore.StatusCompleted), found.Status)
}
