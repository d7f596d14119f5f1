// Copyright (c) 2025 Justin Cranford

// Package jobstore persists Job records, processing statistics, and
// per-mailbox email cursor state (spec §4.9), backed by gorm over the
// internal/database.Provider connection.
package jobstore

import "time"

// Status is the StoredJob top-level status (spec §4). It is distinct
// from CurrentPhase: phase tracks the pipeline state machine
// (Queued..Completed), while Status is the coarse outcome used for
// filtering/counting.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusIgnored    Status = "ignored"
	StatusSuperseded Status = "superseded"
)

// Job is the gorm model backing the "jobs" table. Field names follow
// the original Rust JobRow (db/job_repo.rs) column-for-column.
type Job struct {
	ID           string  `gorm:"primaryKey"`
	Filename     string
	SourcePath   string
	ArchivePath  *string
	OutputPath   *string
	Category     string  `gorm:"index"`
	SourceName   *string `gorm:"index"`
	Status       string  `gorm:"index"`
	Error        *string
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
	CompletedAt  *time.Time
	Symlinks     *string // JSON-encoded []string
	CurrentPhase *string
	Message      *string
	MimeType     *string
	OCRText      *string
}

func (Job) TableName() string { return "jobs" }

// ProcessingStat is the gorm model backing "processing_stats": a
// running-average rollup keyed by (date, category, source, mime).
type ProcessingStat struct {
	Date           string  `gorm:"primaryKey"`
	Category       *string `gorm:"primaryKey"`
	SourceName     *string `gorm:"primaryKey"`
	MimeType       *string `gorm:"primaryKey"`
	TotalProcessed int64
	TotalSucceeded int64
	TotalFailed    int64
	AvgDurationMs  int64
}

func (ProcessingStat) TableName() string { return "processing_stats" }

// EmailState is the gorm model backing "email_state": the IMAP
// UIDVALIDITY/last-seen-UID cursor per configured mailbox source,
// so a restart resumes scanning instead of re-importing everything.
type EmailState struct {
	SourceName  string `gorm:"primaryKey"`
	UIDValidity uint32
	LastUID     uint32
	UpdatedAt   time.Time
}

func (EmailState) TableName() string { return "email_state" }
