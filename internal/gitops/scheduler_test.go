// Copyright (c) 2025 Justin Cranford

package gitops

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	paporgConfig "github.com/iperka/paporg-sub000/internal/config"
)

func TestSyncScheduler_Run_ReturnsOnCancelAfterTrigger(t *testing.T) {
	t.Parallel()
	dir := t.TempDir() // not a git repo: Reconcile fails fast, which is fine for this test
	repo := NewRepository(dir, paporgConfig.GitSyncSpec{})
	reconciler := NewGitReconciler(repo, paporgConfig.GitSyncSpec{Branch: "main"}, nil, nil)
	s := NewSyncScheduler(reconciler, 0, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	s.Trigger()
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestSyncScheduler_Trigger_NonBlockingWhenAlreadyPending(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	repo := NewRepository(dir, paporgConfig.GitSyncSpec{})
	reconciler := NewGitReconciler(repo, paporgConfig.GitSyncSpec{Branch: "main"}, nil, nil)
	s := NewSyncScheduler(reconciler, 0, nil)

	require.NotPanics(t, func() {
		s.Trigger()
		s.Trigger()
		s.Trigger()
	})
}
