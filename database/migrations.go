// Copyright (c) 2025 Justin Cranford

// Package database holds the embedded golang-migrate migration files
// for the job-record store, consumed by internal/database.Provider.Migrate.
package database

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
