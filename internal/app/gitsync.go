// Copyright (c) 2025 Justin Cranford

package app

import (
	"context"

	paporgBroadcast "github.com/iperka/paporg-sub000/internal/broadcast"
	paporgGitops "github.com/iperka/paporg-sub000/internal/gitops"
)

// SetupGitSync builds the git reconciler for the active config's
// GitSync spec (a nil spec — the Go stand-in for the original's
// GitSettings.enabled=false — simply means git sync isn't started) and,
// when SyncInterval is positive, starts a background SyncScheduler plus
// a config-change listener that reloads the configuration whenever the
// reconciler reports a pull changed files (mirrors
// TauriAppState::setup_git_sync / start_config_change_listener). Any
// previously running scheduler/listener is stopped first so calling
// this again after Reload picks up new git settings without leaking
// goroutines.
func (a *App) SetupGitSync(ctx context.Context) error {
	cfg := a.Config()

	a.lifecycleMu.Lock()
	defer a.lifecycleMu.Unlock()

	a.stopGitSyncLocked()

	gitSync := cfg.Settings.GitSync
	if gitSync == nil {
		a.telemetry.Slogger.Info("git sync not started: no gitSync settings configured")
		return nil
	}

	repo := paporgGitops.NewRepository(a.configDir, *gitSync)
	if !repo.IsGitRepo() {
		if err := repo.Init(ctx); err != nil {
			return err
		}
	}
	reconciler := paporgGitops.NewGitReconciler(repo, *gitSync, a.gitProgress, a.configChanges)
	a.repo = repo
	a.reconciler = reconciler

	if gitSync.SyncInterval > 0 {
		scheduler := paporgGitops.NewSyncScheduler(reconciler, gitSync.SyncInterval, a.telemetry.Slogger)
		schedCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		a.scheduler = scheduler
		a.schedulerCancel = cancel
		a.schedulerDone = done
		go func() {
			defer close(done)
			scheduler.Run(schedCtx)
		}()
	}

	listenCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.changeListenerCancel = cancel
	a.changeListenerDone = done
	sub := a.configChanges.Subscribe()
	go a.configChangeListener(listenCtx, sub, done)

	return nil
}

// TriggerGitSync requests an out-of-cycle reconciliation, a no-op when
// git sync isn't configured with a background scheduler.
func (a *App) TriggerGitSync() {
	a.lifecycleMu.Lock()
	scheduler := a.scheduler
	a.lifecycleMu.Unlock()
	if scheduler != nil {
		scheduler.Trigger()
	}
}

// configChangeListener reloads the configuration every time the
// reconciler publishes a ConfigChangeEvent, until ctx is canceled or
// the subscription is closed (mirrors start_config_change_listener's
// tokio::spawn loop).
func (a *App) configChangeListener(ctx context.Context, sub *paporgBroadcast.Subscription[paporgGitops.ConfigChangeEvent], done chan struct{}) {
	defer close(done)
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub.Events:
			if !ok {
				return
			}
			a.telemetry.Slogger.Info("config change detected", "branch", event.Branch, "files_changed", event.FilesChanged)
			if err := a.Reload(); err != nil {
				a.telemetry.Slogger.Error("failed to reload config after git sync", "error", err)
			}
		}
	}
}

// StopGitSync stops the scheduler and config-change listener started
// by SetupGitSync, if any. Safe to call when git sync isn't running.
func (a *App) StopGitSync() {
	a.lifecycleMu.Lock()
	defer a.lifecycleMu.Unlock()
	a.stopGitSyncLocked()
}

func (a *App) stopGitSyncLocked() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		<-a.schedulerDone
		a.schedulerCancel = nil
		a.schedulerDone = nil
		a.scheduler = nil
	}
	if a.changeListenerCancel != nil {
		a.changeListenerCancel()
		<-a.changeListenerDone
		a.changeListenerCancel = nil
		a.changeListenerDone = nil
	}
	a.reconciler = nil
	a.repo = nil
}
