// Copyright (c) 2025 Justin Cranford

package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	paporgMigrations "github.com/iperka/paporg-sub000/database"
	paporgBroadcast "github.com/iperka/paporg-sub000/internal/broadcast"
	paporgConfig "github.com/iperka/paporg-sub000/internal/config"
	paporgDatabase "github.com/iperka/paporg-sub000/internal/database"
	paporgGitops "github.com/iperka/paporg-sub000/internal/gitops"
	paporgJobstore "github.com/iperka/paporg-sub000/internal/jobstore"
	paporgMagic "github.com/iperka/paporg-sub000/internal/magic"
	paporgTelemetry "github.com/iperka/paporg-sub000/internal/telemetry"
	paporgWorker "github.com/iperka/paporg-sub000/internal/worker"
)

// App is the long-lived handle every entry point (cmd/paporg, tests)
// builds once and holds for the process lifetime. It owns every
// mutable collaborator (database connection, worker pool, git
// reconciler) and exposes lifecycle methods instead of free functions,
// the same shape as the original's TauriAppState minus anything
// Tauri-specific.
type App struct {
	opts      Options
	telemetry *paporgTelemetry.Service
	configDir string

	db    *paporgDatabase.Provider
	store *paporgJobstore.Store
	cache *paporgJobstore.Cache

	jobEvents     *paporgBroadcast.Broadcaster[paporgJobstore.Event]
	gitProgress   *paporgBroadcast.Broadcaster[paporgGitops.ProgressEvent]
	configChanges *paporgBroadcast.Broadcaster[paporgGitops.ConfigChangeEvent]

	loadedConfig atomic.Pointer[paporgConfig.LoadedConfig]

	lifecycleMu    sync.Mutex
	pool           *paporgWorker.Pool
	processTrigger chan struct{}
	scanCancel     context.CancelFunc
	scanDone       chan struct{}
	workersRunning bool

	repo                 *paporgGitops.Repository
	reconciler           *paporgGitops.GitReconciler
	scheduler            *paporgGitops.SyncScheduler
	schedulerCancel      context.CancelFunc
	schedulerDone        chan struct{}
	changeListenerCancel context.CancelFunc
	changeListenerDone   chan struct{}
}

// New opens the job database, runs migrations, warm-loads the job
// cache, and loads the configuration resource tree from
// opts.ConfigDir. It does not start the worker pool, scanner, or git
// sync — call StartWorkers and SetupGitSync explicitly once New
// succeeds (mirrors TauriAppState::new followed by set_config_dir,
// kept as separate steps so callers can inspect a loaded-but-idle
// App, e.g. in tests).
func New(ctx context.Context, telemetry *paporgTelemetry.Service, opts Options) (*App, error) {
	opts = opts.Resolve()
	if opts.ConfigDir == "" {
		return nil, errors.New("app: Options.ConfigDir is required")
	}

	db, err := paporgDatabase.Open(ctx, telemetry, paporgDatabase.DBType(opts.DBType), opts.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("app: opening database: %w", err)
	}
	if err := db.Migrate(paporgMigrations.Migrations, "migrations"); err != nil {
		_ = db.Shutdown()
		return nil, fmt.Errorf("app: running migrations: %w", err)
	}

	store := paporgJobstore.New(db)
	cache := paporgJobstore.NewCache()
	if err := cache.WarmLoad(ctx, store, paporgMagic.JobCacheWarmLoadLimit); err != nil {
		telemetry.Slogger.Warn("job cache warm load failed", "error", err)
	}

	a := &App{
		opts:           opts,
		telemetry:      telemetry,
		configDir:      opts.ConfigDir,
		db:             db,
		store:          store,
		cache:          cache,
		jobEvents:      paporgBroadcast.New[paporgJobstore.Event](paporgBroadcast.DefaultCapacity),
		gitProgress:    paporgBroadcast.New[paporgGitops.ProgressEvent](paporgBroadcast.DefaultCapacity),
		configChanges:  paporgBroadcast.New[paporgGitops.ConfigChangeEvent](paporgBroadcast.DefaultCapacity),
	}

	if err := a.Reload(); err != nil {
		_ = db.Shutdown()
		return nil, err
	}

	return a, nil
}

// Config returns the currently active LoadedConfig. Safe to call
// concurrently with Reload: the pointer swap is atomic, so a caller
// always sees either the old or the new config in its entirety, never
// a partially-updated one (spec §5's "reload atomically swaps the
// entire LoadedConfig reference").
func (a *App) Config() *paporgConfig.LoadedConfig {
	return a.loadedConfig.Load()
}

// Reload re-reads and re-validates the configuration tree from
// a.configDir and atomically swaps it in. It does not restart the
// worker pool or scanner; callers that need the new WorkerCount or
// sources to take effect should call StopWorkers/StartWorkers again.
func (a *App) Reload() error {
	tree, err := paporgConfig.Load(a.configDir)
	if err != nil {
		return fmt.Errorf("app: loading config: %w", err)
	}
	if err := paporgConfig.Validate(tree); err != nil {
		return fmt.Errorf("app: validating config: %w", err)
	}
	lc, err := paporgConfig.ToLoadedConfig(tree)
	if err != nil {
		return fmt.Errorf("app: converting config: %w", err)
	}
	a.loadedConfig.Store(lc)
	return nil
}

// JobEvents returns the job-progress Broadcaster for subscribers.
func (a *App) JobEvents() *paporgBroadcast.Broadcaster[paporgJobstore.Event] {
	return a.jobEvents
}

// GitProgress returns the git-operation-progress Broadcaster.
func (a *App) GitProgress() *paporgBroadcast.Broadcaster[paporgGitops.ProgressEvent] {
	return a.gitProgress
}

// Store returns the durable job store, for callers (e.g. a future
// query surface) that need direct read access beyond the cache.
func (a *App) Store() *paporgJobstore.Store { return a.store }

// Cache returns the in-memory job cache.
func (a *App) Cache() *paporgJobstore.Cache { return a.cache }

// Shutdown stops every background goroutine (scheduler, config-change
// listener, scanner, workers) and releases the database connection
// and broadcasters, in the reverse order New/StartWorkers/SetupGitSync
// acquired them (mirrors TauriAppState::shutdown).
func (a *App) Shutdown(ctx context.Context) error {
	a.StopGitSync()
	a.StopWorkers()

	a.jobEvents.Close()
	a.gitProgress.Close()
	a.configChanges.Close()

	var errs []error
	if err := a.db.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("app: closing database: %w", err))
	}
	if err := a.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("app: shutting down telemetry: %w", err))
	}
	return errors.Join(errs...)
}
