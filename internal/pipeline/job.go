// Copyright (c) 2025 Justin Cranford

// Package pipeline implements the eight-step per-document pipeline
// (spec §4.5): Processing -> PrepareText -> ExtractVariables ->
// Categorize -> ResolveAndStore -> CreateSymlinks -> ArchiveSource ->
// Completed, with Failed as the sink state for any step that errors.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	paporgMagic "github.com/iperka/paporg-sub000/internal/magic"
)

// EmailMetadata carries the subset of email headers that, when
// present, get prepended to the matching text so categorizer rules
// can match against sender/subject (spec §4.5 step 2).
type EmailMetadata struct {
	Subject   *string
	From      *string
	To        *string
	Date      *string
	MessageID *string
}

// HasContent reports whether any header field was actually captured.
func (m *EmailMetadata) HasContent() bool {
	if m == nil {
		return false
	}
	return m.Subject != nil || m.From != nil || m.To != nil || m.Date != nil || m.MessageID != nil
}

// HeaderBlock renders the metadata as a delimited text block, matching
// the original's to_header_block layout field-for-field.
func (m *EmailMetadata) HeaderBlock() string {
	var sb strings.Builder
	sb.WriteString(paporgMagic.EmailMetadataHeader)
	sb.WriteByte('\n')
	if m.From != nil {
		fmt.Fprintf(&sb, "From: %s\n", *m.From)
	}
	if m.To != nil {
		fmt.Fprintf(&sb, "To: %s\n", *m.To)
	}
	if m.Subject != nil {
		fmt.Fprintf(&sb, "Subject: %s\n", *m.Subject)
	}
	if m.Date != nil {
		fmt.Fprintf(&sb, "Date: %s\n", *m.Date)
	}
	if m.MessageID != nil {
		fmt.Fprintf(&sb, "Message-ID: %s\n", *m.MessageID)
	}
	sb.WriteString(paporgMagic.EmailMetadataFooter)
	sb.WriteString("\n\n")
	return sb.String()
}

// Job is the unit of work a worker pulls off the queue: a discovered
// source file plus everything known about its origin (spec §4.8).
type Job struct {
	ID            string
	SourcePath    string
	SourceName    *string
	MimeType      *string
	EmailMetadata *EmailMetadata
}

// NewJob builds a Job for a locally-discovered file with no known
// source name or MIME type; MimeType is sniffed from the file itself.
func NewJob(sourcePath string) Job {
	return newJob(sourcePath, nil, nil, nil)
}

// NewJobWithSource builds a Job discovered by a named ImportSource.
func NewJobWithSource(sourcePath, sourceName string) Job {
	return newJob(sourcePath, &sourceName, nil, nil)
}

// NewJobWithSourceAndMime builds a Job with an explicit, already-known
// MIME type (e.g. supplied by an email attachment's Content-Type).
func NewJobWithSourceAndMime(sourcePath, sourceName, mimeType string) Job {
	return newJob(sourcePath, &sourceName, &mimeType, nil)
}

// NewJobFromEmail builds a Job discovered via an IMAP source, carrying
// the parsed email headers alongside the attachment's MIME type.
func NewJobFromEmail(sourcePath, sourceName, mimeType string, metadata EmailMetadata) Job {
	return newJob(sourcePath, &sourceName, &mimeType, &metadata)
}

func newJob(sourcePath string, sourceName, mimeType *string, email *EmailMetadata) Job {
	if mimeType == nil {
		if detected := detectMimeType(sourcePath); detected != "" {
			mimeType = &detected
		}
	}
	return Job{
		ID:            uuid.NewString(),
		SourcePath:    sourcePath,
		SourceName:    sourceName,
		MimeType:      mimeType,
		EmailMetadata: email,
	}
}

// detectMimeType sniffs sourcePath's content, returning "" when the
// file can't be read (the caller tolerates an unknown MIME type).
func detectMimeType(sourcePath string) string {
	mtype, err := mimetype.DetectFile(sourcePath)
	if err != nil {
		return ""
	}
	return mtype.String()
}

// Result is JobResult: the terminal outcome of running a Job through
// the Pipeline.
type Result struct {
	JobID       string
	SourcePath  string
	Success     bool
	OutputPath  *string
	ArchivePath *string
	Symlinks    []string
	Category    string
	Error       *string
}

func successResult(job Job, outputPath, archivePath string, symlinks []string, category string) Result {
	return Result{
		JobID:       job.ID,
		SourcePath:  job.SourcePath,
		Success:     true,
		OutputPath:  &outputPath,
		ArchivePath: &archivePath,
		Symlinks:    symlinks,
		Category:    category,
	}
}

func failureResult(job Job, err error) Result {
	msg := err.Error()
	return Result{
		JobID:      job.ID,
		SourcePath: job.SourcePath,
		Success:    false,
		Error:      &msg,
	}
}
