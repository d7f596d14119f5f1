// Copyright (c) 2025 Justin Cranford

package jobstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	paporgDatabase "github.com/iperka/paporg-sub000/internal/database"
	paporgJobstore "github.com/iperka/paporg-sub000/internal/jobstore"
	paporgTelemetry "github.com/iperka/paporg-sub000/internal/telemetry"
)

func newTestStore(t *testing.T) *paporgJobstore.Store {
	t.Helper()
	telemetry := paporgTelemetry.RequireNewForTest("jobstore_test")
	t.Cleanup(func() { telemetry.Shutdown(context.Background()) })

	provider, err := paporgDatabase.Open(context.Background(), telemetry, paporgDatabase.DBTypeSQLite, "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { provider.Shutdown() })

	require.NoError(t, provider.DB.AutoMigrate(&paporgJobstore.Job{}, &paporgJobstore.ProcessingStat{}, &paporgJobstore.EmailState{}))

	return paporgJobstore.New(provider)
}

func sampleJob(id string) *paporgJobstore.Job {
	now := time.Now().UTC()
	return &paporgJobstore.Job{
		ID:         id,
		Filename:   "test.pdf",
		SourcePath: "/tmp/test.pdf",
		Category:   "unsorted",
		Status:     string(paporgJobstore.StatusProcessing),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestStore_InsertAndFindByID(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	job := sampleJob("job-1")
	require.NoError(t, store.Insert(ctx, job))

	found, err := store.FindByID(ctx, "job-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "test.pdf", found.Filename)
}

func TestStore_FindByID_NotFound(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	found, err := store.FindByID(context.Background(), "nope")
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestStore_UpdateStatus(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	job := sampleJob("job-2")
	require.NoError(t, store.Insert(ctx, job))
	require.NoError(t, store.UpdateStatus(ctx, "job-2", paporgJobstore.StatusCompleted))

	found, err := store.FindByID(ctx, "job-2")
	require.NoError(t, err)
	require.Equal(t, string(paporgJobstore.StatusCompleted), found.Status)
}

func TestStore_Query_FiltersByStatus(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	j1 := sampleJob("job-a")
	j1.Status = string(paporgJobstore.StatusCompleted)
	j2 := sampleJob("job-b")
	j2.Status = string(paporgJobstore.StatusFailed)
	require.NoError(t, store.Insert(ctx, j1))
	require.NoError(t, store.Insert(ctx, j2))

	completed := string(paporgJobstore.StatusCompleted)
	jobs, total, err := store.Query(ctx, paporgJobstore.Filter{Status: &completed})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, jobs, 1)
	require.Equal(t, "job-a", jobs[0].ID)
}

func TestStore_Query_ExcludesSupersededByDefault(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	j1 := sampleJob("job-sup")
	j1.Status = string(paporgJobstore.StatusSuperseded)
	j2 := sampleJob("job-live")
	require.NoError(t, store.Insert(ctx, j1))
	require.NoError(t, store.Insert(ctx, j2))

	jobs, total, err := store.Query(ctx, paporgJobstore.Filter{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, jobs, 1)
	require.Equal(t, "job-live", jobs[0].ID)
}

func TestStore_Rerun_SupersedesPriorAndCreatesFreshJob(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	job := sampleJob("job-3")
	job.Status = string(paporgJobstore.StatusFailed)
	errMsg := "boom"
	job.Error = &errMsg
	require.NoError(t, store.Insert(ctx, job))

	fresh, err := store.Rerun(ctx, "job-3", "job-3-rerun")
	require.NoError(t, err)
	require.Equal(t, "job-3-rerun", fresh.ID)
	require.Equal(t, string(paporgJobstore.StatusProcessing), fresh.Status)
	require.Equal(t, job.SourcePath, fresh.SourcePath)

	prior, err := store.FindByID(ctx, "job-3")
	require.NoError(t, err)
	require.Equal(t, string(paporgJobstore.StatusSuperseded), prior.Status)
}

func TestStore_Rerun_NotFoundErrors(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	_, err := store.Rerun(context.Background(), "missing", "new-id")
	require.Error(t, err)
}

func TestStore_RecordCompletion_RunningAverage(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	category := "invoices"
	require.NoError(t, store.RecordCompletion(ctx, "2026-07-30", &category, nil, nil, true, 100))
	require.NoError(t, store.RecordCompletion(ctx, "2026-07-30", &category, nil, nil, true, 200))

	rows, err := store.QueryStats(ctx, nil, nil, &category, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.EqualValues(t, 2, rows[0].TotalProcessed)
	require.EqualValues(t, 2, rows[0].TotalSucceeded)
	require.EqualValues(t, 150, rows[0].AvgDurationMs)
}

func TestStore_EmailCursor_DefaultsWhenMissing(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	state, err := store.EmailCursor(context.Background(), "inbox")
	require.NoError(t, err)
	require.Equal(t, "inbox", state.SourceName)
	require.Zero(t, state.LastUID)
}

func TestStore_SaveEmailCursor_RoundTrip(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmailCursor(ctx, paporgJobstore.EmailState{SourceName: "inbox", UIDValidity: 42, LastUID: 10}))
	state, err := store.EmailCursor(ctx, "inbox")
	require.NoError(t, err)
	require.EqualValues(t, 42, state.UIDValidity)
	require.EqualValues(t, 10, state.LastUID)

	require.NoError(t, store.SaveEmailCursor(ctx, paporgJobstore.EmailState{SourceName: "inbox", UIDValidity: 42, LastUID: 20}))
	state, err = store.EmailCursor(ctx, "inbox")
	require.NoError(t, err)
	require.EqualValues(t, 20, state.LastUID)
}

func TestSymlinks_EncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	encoded, err := paporgJobstore.EncodeSymlinks([]string{"/a", "/b"})
	require.NoError(t, err)
	require.NotNil(t, encoded)

	decoded, err := paporgJobstore.DecodeSymlinks(encoded)
	require.NoError(t, err)
	require.Equal(t, []string{"/a", "/b"}, decoded)
}

func TestSymlinks_EmptyEncodesToNil(t *testing.T) {
	t.Parallel()

	encoded, err := paporgJobstore.EncodeSymlinks(nil)
	require.NoError(t, err)
	require.Nil(t, encoded)

	decoded, err := paporgJobstore.DecodeSymlinks(nil)
	require.NoError(t, err)
	require.Nil(t, decoded)
}
