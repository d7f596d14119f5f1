// Copyright (c) 2025 Justin Cranford

// Package database wires the job-record store's SQL connection: a
// DBType enum (sqlite/postgres), a Provider wrapping *gorm.DB, and
// schema migrations run through golang-migrate.
package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratedatabase "github.com/golang-migrate/migrate/v4/database"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	paporgTelemetry "github.com/iperka/paporg-sub000/internal/telemetry"
)

// DBType selects the backing SQL engine, mirroring the teacher's
// SqlProvider DBType enum (internal/repository/sqlprovider).
type DBType string

const (
	DBTypeSQLite   DBType = "sqlite"
	DBTypePostgres DBType = "postgres"
)

// Provider owns the *gorm.DB handle used by internal/jobstore. It is
// long-lived, built once at process start, and threaded through by
// reference the same way the teacher's SqlProvider is.
type Provider struct {
	DB     *gorm.DB
	dbType DBType
}

// Open dials dsn with the given DBType and returns a ready Provider.
// It deliberately does not run migrations itself — call Migrate with
// an fs.FS of migration files once the connection is confirmed live.
func Open(ctx context.Context, telemetry *paporgTelemetry.Service, dbType DBType, dsn string) (*Provider, error) {
	var dialector gorm.Dialector
	switch dbType {
	case DBTypeSQLite:
		dialector = sqlite.Open(dsn)
	case DBTypePostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("database: unsupported db type %q", dbType)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormSlogAdapter{telemetry: telemetry},
	})
	if err != nil {
		return nil, fmt.Errorf("database: opening %s: %w", dbType, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("database: extracting *sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database: ping %s: %w", dbType, err)
	}

	return &Provider{DB: gdb, dbType: dbType}, nil
}

// Migrate runs every up migration in fsys (an embedded migrations
// directory) against the provider's connection.
func (p *Provider) Migrate(fsys fs.FS, subdir string) error {
	src, err := iofs.New(fsys, subdir)
	if err != nil {
		return fmt.Errorf("database: reading migrations: %w", err)
	}

	sqlDB, err := p.DB.DB()
	if err != nil {
		return fmt.Errorf("database: extracting *sql.DB for migration: %w", err)
	}

	var driver migratedatabase.Driver
	switch p.dbType {
	case DBTypeSQLite:
		driver, err = migratesqlite.WithInstance(sqlDB, &migratesqlite.Config{})
	case DBTypePostgres:
		driver, err = migratepostgres.WithInstance(sqlDB, &migratepostgres.Config{})
	default:
		return fmt.Errorf("database: unsupported db type %q", p.dbType)
	}
	if err != nil {
		return fmt.Errorf("database: building migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(p.dbType), driver)
	if err != nil {
		return fmt.Errorf("database: building migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("database: running migrations: %w", err)
	}
	return nil
}

// Shutdown closes the underlying connection pool.
func (p *Provider) Shutdown() error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type gormSlogAdapter struct {
	telemetry *paporgTelemetry.Service
}

func (a gormSlogAdapter) LogMode(gormlogger.LogLevel) gormlogger.Interface { return a }

func (a gormSlogAdapter) Info(ctx context.Context, msg string, args ...any) {
	a.telemetry.Slogger.InfoContext(ctx, fmt.Sprintf(msg, args...))
}

func (a gormSlogAdapter) Warn(ctx context.Context, msg string, args ...any) {
	a.telemetry.Slogger.WarnContext(ctx, fmt.Sprintf(msg, args...))
}

func (a gormSlogAdapter) Error(ctx context.Context, msg string, args ...any) {
	a.telemetry.Slogger.ErrorContext(ctx, fmt.Sprintf(msg, args...))
}

func (a gormSlogAdapter) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	sql, rows := fc()
	elapsed := time.Since(begin)
	if err != nil {
		a.telemetry.Slogger.ErrorContext(ctx, "gorm query failed", "error", err, "sql", sql, "rows", rows, "elapsed", elapsed)
		return
	}
	a.telemetry.Slogger.DebugContext(ctx, "gorm query", "sql", sql, "rows", rows, "elapsed", elapsed)
}
