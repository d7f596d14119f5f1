// Copyright (c) 2025 Justin Cranford

package pipeline

import (
	"path/filepath"

	paporgJobstore "github.com/iperka/paporg-sub000/internal/jobstore"
	paporgMagic "github.com/iperka/paporg-sub000/internal/magic"
)

// Reporter receives a JobProgressEvent for every phase transition the
// Pipeline makes, so a caller can fan it out to the job-progress
// Broadcaster and the JobStore cache (spec §4.6/§4.7). The Pipeline
// itself has no dependency on broadcast or jobstore's Store/Cache
// directly — only on this seam.
type Reporter interface {
	Report(event paporgJobstore.Event)
}

// NoopReporter discards every event; useful for tests that only care
// about the Pipeline's return value.
type NoopReporter struct{}

func (NoopReporter) Report(paporgJobstore.Event) {}

// ReporterFunc adapts a plain function to Reporter.
type ReporterFunc func(event paporgJobstore.Event)

func (f ReporterFunc) Report(event paporgJobstore.Event) { f(event) }

func phaseEvent(job Job, phase, message string) paporgJobstore.Event {
	return paporgJobstore.Event{
		JobID:      job.ID,
		Filename:   filepath.Base(job.SourcePath),
		SourcePath: job.SourcePath,
		SourceName: job.SourceName,
		Status:     paporgJobstore.StatusProcessing,
		Phase:      phase,
		Message:    &message,
		MimeType:   job.MimeType,
	}
}

func failedEvent(job Job, errMsg string) paporgJobstore.Event {
	return paporgJobstore.Event{
		JobID:      job.ID,
		Filename:   filepath.Base(job.SourcePath),
		SourcePath: job.SourcePath,
		SourceName: job.SourceName,
		Status:     paporgJobstore.StatusFailed,
		Phase:      paporgMagic.PhaseFailed,
		Error:      &errMsg,
		MimeType:   job.MimeType,
		Terminal:   true,
	}
}

func completedEvent(job Job, category, outputPath, archivePath string, symlinks []string, ocrText string) (paporgJobstore.Event, error) {
	encoded, err := paporgJobstore.EncodeSymlinks(symlinks)
	if err != nil {
		return paporgJobstore.Event{}, err
	}
	return paporgJobstore.Event{
		JobID:       job.ID,
		Filename:    filepath.Base(job.SourcePath),
		SourcePath:  job.SourcePath,
		SourceName:  job.SourceName,
		Status:      paporgJobstore.StatusCompleted,
		Phase:       paporgMagic.PhaseCompleted,
		Category:    &category,
		OutputPath:  &outputPath,
		ArchivePath: &archivePath,
		Symlinks:    encoded,
		MimeType:    job.MimeType,
		OCRText:     &ocrText,
		Terminal:    true,
	}, nil
}
