// Copyright (c) 2025 Justin Cranford

// Command paporg is the process entry point: it binds the
// process-level flags (distinct from the YAML resource tree itself,
// spec §4.10), builds the logging service, and runs the App until an
// interrupt or terminate signal arrives.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	paporgApp "github.com/iperka/paporg-sub000/internal/app"
	paporgMagic "github.com/iperka/paporg-sub000/internal/magic"
	paporgTelemetry "github.com/iperka/paporg-sub000/internal/telemetry"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paporg",
		Short: "Document-organization service",
		Long: `paporg ingests files from local directories and IMAP mailboxes, runs them
through a text-extraction/categorization/storage pipeline, and reconciles
its configuration from a git-backed tree of YAML resources.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}

	flags := cmd.PersistentFlags()
	flags.String(paporgMagic.FlagConfigDir, "", "configuration directory (default: OS-specific user config dir)/paporg")
	flags.String(paporgMagic.FlagDBDSN, "", "job database DSN (default: <config-dir>/paporg.db)")
	flags.String(paporgMagic.FlagDBType, paporgMagic.DefaultDBType, "job database type: sqlite or postgres")
	flags.String(paporgMagic.FlagLogLevel, paporgMagic.DefaultLogLevel, "log level: debug, info, warn, error")
	flags.Int(paporgMagic.FlagWorkerCount, 0, "worker count override (0: use configured workerCount)")

	v := viper.New()
	v.SetEnvPrefix(paporgMagic.EnvPrefix)
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		panic(fmt.Sprintf("cmd/paporg: binding flags: %v", err))
	}
	cmd.SetContext(context.WithValue(context.Background(), viperKey{}, v))

	return cmd
}

type viperKey struct{}

func viperFrom(ctx context.Context) *viper.Viper {
	return ctx.Value(viperKey{}).(*viper.Viper)
}

func run(ctx context.Context) error {
	v := viperFrom(ctx)

	configDir := v.GetString(paporgMagic.FlagConfigDir)
	if configDir == "" {
		dir, err := paporgApp.DefaultConfigDir()
		if err != nil {
			return fmt.Errorf("cmd/paporg: resolving default config dir: %w", err)
		}
		configDir = dir
	}
	if err := paporgApp.EnsureConfigInitialized(configDir); err != nil {
		return fmt.Errorf("cmd/paporg: initializing config dir: %w", err)
	}

	logDir := configDir + string(os.PathSeparator) + "logs"
	telemetry, err := paporgTelemetry.New(paporgTelemetry.Options{
		Level:  v.GetString(paporgMagic.FlagLogLevel),
		LogDir: logDir,
	})
	if err != nil {
		return fmt.Errorf("cmd/paporg: initializing telemetry: %w", err)
	}

	dbDSN := v.GetString(paporgMagic.FlagDBDSN)
	if dbDSN == "" {
		dbDSN = configDir + string(os.PathSeparator) + "paporg.db"
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := paporgApp.New(runCtx, telemetry, paporgApp.Options{
		ConfigDir:   configDir,
		DBType:      v.GetString(paporgMagic.FlagDBType),
		DBDSN:       dbDSN,
		WorkerCount: v.GetInt(paporgMagic.FlagWorkerCount),
		LogLevel:    v.GetString(paporgMagic.FlagLogLevel),
		LogDir:      logDir,
	})
	if err != nil {
		return fmt.Errorf("cmd/paporg: starting application: %w", err)
	}

	if err := application.StartWorkers(runCtx); err != nil {
		return fmt.Errorf("cmd/paporg: starting workers: %w", err)
	}
	if err := application.SetupGitSync(runCtx); err != nil {
		telemetry.Slogger.Warn("git sync not started", "error", err)
	}

	telemetry.Slogger.Info("paporg started", "config_dir", configDir)
	<-runCtx.Done()
	telemetry.Slogger.Info("shutting down")

	return application.Shutdown(context.Background())
}
