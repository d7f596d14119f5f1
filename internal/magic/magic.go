// Copyright (c) 2025 Justin Cranford

// Package magic centralizes constants shared across packages so that
// directory layout, file permissions, and the resource-tree contract
// are defined exactly once.
package magic

import (
	"os"
	"time"
)

// Resource tree.
const (
	APIVersion = "paporg.io/v1"

	KindSettings     = "Settings"
	KindVariable     = "Variable"
	KindRule         = "Rule"
	KindImportSource = "ImportSource"

	SettingsFileName = "settings.yaml"
	VariablesDirName = "variables"
	RulesDirName     = "rules"
	SourcesDirName   = "sources"

	SchemaCommentPrefix = "# yaml-language-server: $schema="
)

// Built-in template variable names. Reserved: user ExtractedVariable
// names may not collide with these.
const (
	VarYear      = "y"
	VarMonth     = "m"
	VarDay       = "d"
	VarHour      = "h"
	VarMinute    = "i"
	VarSecond    = "s"
	VarLiteralL  = "l"
	VarOriginal  = "original"
	VarTimestamp = "timestamp"
	VarUUID      = "uuid"
)

// Job/pipeline.
const (
	DefaultCategory    = "unsorted"
	ArchiveDirName     = "archive"
	OutputLinksDirName = "links"
	MaxNameConflicts   = 1000
)

// Filesystem permissions, mirroring the teacher's
// internal/shared/magic permission constants (referenced by
// internal/shared/util/files tests as cryptoutilSharedMagic.*FilePermissions).
const (
	DefaultDirPermissions  os.FileMode = 0o755
	DefaultFilePermissions os.FileMode = 0o644
	AskpassFilePermissions os.FileMode = 0o700
	CacheFilePermissions   os.FileMode = 0o600
)

// OCR heuristic thresholds (spec §4.3).
const (
	OCRMinCharsForRatioCheck = 50
	OCRMinAlnumRatioPercent  = 10
	DefaultOCRDPI            = 300
)

// Environment/flag names for the process-level config layer
// (distinct from the YAML resource tree it locates).
const (
	EnvPrefix        = "PAPORG"
	FlagConfigDir    = "config-dir"
	FlagDBDSN        = "db-dsn"
	FlagDBType       = "db-type"
	FlagLogLevel     = "log-level"
	FlagWorkerCount  = "workers"
	DefaultLogLevel  = "info"
	DefaultDBType    = "sqlite"
	DefaultWorkerCnt = 4
)

// OTLP/service naming kept for parity with the teacher's
// magic.OTLPService* constants, used only in log attributes.
const (
	ServiceName = "paporg"
)

// Pipeline phase names (spec §4.5's state machine). Queued is the
// phase a job sits in before a worker picks it up; Failed is the sink
// state for any step that returns an error.
const (
	PhaseQueued            = "Queued"
	PhaseProcessing        = "Processing"
	PhaseExtractVariables  = "ExtractVariables"
	PhaseCategorizing      = "Categorizing"
	PhaseSubstituting      = "Substituting"
	PhaseStoring           = "Storing"
	PhaseCreatingSymlinks  = "CreatingSymlinks"
	PhaseArchiving         = "Archiving"
	PhaseCompleted         = "Completed"
	PhaseFailed            = "Failed"
)

// EmailMetadataHeaderBlock delimiters, prepended to matching text so
// categorizer rules can match against email headers (spec §4.5 step 2).
const (
	EmailMetadataHeader = "=== EMAIL METADATA ==="
	EmailMetadataFooter = "======================"
)

// Scan-loop cadence (spec §4.9's background scan thread): an initial
// scan on startup, then a periodic scan every ScanInterval, checked
// every ScanCheckInterval so a manual trigger is picked up promptly
// without busy-waiting.
const (
	ScanInterval      = 60 * time.Second
	ScanCheckInterval = 500 * time.Millisecond
)

// JobCacheWarmLoadLimit bounds how many most-recent non-superseded
// jobs WarmLoad pulls into the cache at startup, in addition to every
// processing job (spec §4.6).
const JobCacheWarmLoadLimit = 200
