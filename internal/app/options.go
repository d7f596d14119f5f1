// Copyright (c) 2025 Justin Cranford

// Package app wires every other package into a running paporg
// service: it loads the configuration resource tree, opens the job
// database, builds the worker pool and scanner, and (when configured)
// the git reconciler and sync scheduler — the Go counterpart of the
// teacher's long-lived, by-reference application-state struct
// (grounded on original_source/src-tauri/src/state.rs's
// TauriAppState, adapted from a Tauri-managed struct to a plain Go
// value with no UI-framework dependency).
package app

import (
	paporgMagic "github.com/iperka/paporg-sub000/internal/magic"
)

// Options configures New. Every field has a zero-value-safe default
// applied by Resolve.
type Options struct {
	// ConfigDir is the directory holding settings.yaml, rules/,
	// variables/, sources/ (spec §4.10). Required.
	ConfigDir string

	// DBType selects the job-store SQL engine ("sqlite" | "postgres").
	DBType string
	// DBDSN is the connection string/path for DBType.
	DBDSN string

	// WorkerCount overrides config.Settings.WorkerCount when positive.
	WorkerCount int

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string
	// LogDir receives a JSON log file (paporg.log, appended to and not
	// rotated) in addition to stdout when non-empty.
	LogDir string
}

// Resolve fills unset fields with the magic package's documented
// defaults, mirroring the cobra/pflag/viper layer's flag defaults.
func (o Options) Resolve() Options {
	if o.DBType == "" {
		o.DBType = paporgMagic.DefaultDBType
	}
	if o.LogLevel == "" {
		o.LogLevel = paporgMagic.DefaultLogLevel
	}
	return o
}
