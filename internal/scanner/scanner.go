// Copyright (c) 2025 Justin Cranford

// Package scanner implements MultiSourceScanner (spec §4.9): discovery
// of candidate documents across every enabled local and email
// ImportSource, producing pipeline.Job values ready for submission to
// the worker pool.
package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	paporgConfig "github.com/iperka/paporg-sub000/internal/config"
	paporgMagic "github.com/iperka/paporg-sub000/internal/magic"
	paporgPipeline "github.com/iperka/paporg-sub000/internal/pipeline"
)

// SupportChecker reports whether a file extension has a registered
// document processor; satisfied by *processor.Registry without this
// package importing it, keeping the dependency direction shallow.
type SupportChecker interface {
	Supports(ext string) bool
}

// EmailScanner is the seam a concrete internal/email client implements
// (spec §4.9); MultiSourceScanner depends only on this interface so it
// never imports IMAP/OAuth2 machinery directly.
type EmailScanner interface {
	ScanEmailSource(ctx context.Context, source paporgConfig.EmailSourceSpec, sourceName string) ([]paporgPipeline.Job, error)
}

type localSource struct {
	name string
	path string
	spec paporgConfig.LocalSourceSpec
}

type emailSource struct {
	name string
	spec paporgConfig.EmailSourceSpec
}

// MultiSourceScanner discovers files across every enabled ImportSource
// (spec §4.9).
type MultiSourceScanner struct {
	locals  []localSource
	emails  []emailSource
	formats SupportChecker
	email   EmailScanner
}

// New builds a MultiSourceScanner from the engine-ready ImportSource
// list (disabled sources are already filtered out by
// config.ToLoadedConfig). formats decides which discovered files are
// document candidates; email may be nil when no email source is
// configured or email scanning isn't wired up yet.
func New(sources []paporgConfig.ImportSource, formats SupportChecker, email EmailScanner) *MultiSourceScanner {
	s := &MultiSourceScanner{formats: formats, email: email}
	for _, src := range sources {
		if src.Local != nil {
			s.locals = append(s.locals, localSource{name: src.Name, path: expandTilde(src.Local.Path), spec: *src.Local})
		}
		if src.Email != nil {
			s.emails = append(s.emails, emailSource{name: src.Name, spec: *src.Email})
		}
	}
	return s
}

// HasSources reports whether any source, local or email, is enabled.
func (s *MultiSourceScanner) HasSources() bool {
	return len(s.locals) > 0 || len(s.emails) > 0
}

// SourceCount is the total number of enabled sources.
func (s *MultiSourceScanner) SourceCount() int {
	return len(s.locals) + len(s.emails)
}

// HasLocalSources reports whether any local source is enabled.
func (s *MultiSourceScanner) HasLocalSources() bool {
	return len(s.locals) > 0
}

// HasEmailSources reports whether any email source is enabled.
func (s *MultiSourceScanner) HasEmailSources() bool {
	return len(s.emails) > 0
}

// Scan walks every local source synchronously and, when an
// EmailScanner is wired, scans every email source too (spec §4.9: the
// original's scan/scan_async split collapses here since Go's IMAP
// fetch is already blocking on a single goroutine).
func (s *MultiSourceScanner) Scan(ctx context.Context) ([]paporgPipeline.Job, error) {
	var jobs []paporgPipeline.Job

	for _, src := range s.locals {
		found, err := s.scanLocalSource(src)
		if err != nil {
			continue
		}
		jobs = append(jobs, found...)
	}

	if s.email != nil {
		for _, src := range s.emails {
			found, err := s.email.ScanEmailSource(ctx, src.spec, src.name)
			if err != nil {
				continue
			}
			jobs = append(jobs, found...)
		}
	}

	return jobs, nil
}

func (s *MultiSourceScanner) scanLocalSource(src localSource) ([]paporgPipeline.Job, error) {
	var jobs []paporgPipeline.Job

	info, err := os.Stat(src.path)
	if err != nil || !info.IsDir() {
		return nil, nil
	}

	maxDepth := -1
	if !src.spec.Recursive {
		maxDepth = 1
	}

	err = filepath.WalkDir(src.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable entries are skipped, not fatal to the scan
		}
		if d.IsDir() {
			return nil
		}
		if maxDepth > 0 && depthBelow(src.path, path) > maxDepth {
			return nil
		}
		if isInArchiveDir(path) {
			return nil
		}
		if !s.matchesFilters(filepath.Base(path), src.spec) {
			return nil
		}
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		if s.formats != nil && !s.formats.Supports(ext) {
			return nil
		}
		jobs = append(jobs, paporgPipeline.NewJobWithSource(path, src.name))
		return nil
	})
	if err != nil {
		return jobs, err
	}
	return jobs, nil
}

func (s *MultiSourceScanner) matchesFilters(filename string, spec paporgConfig.LocalSourceSpec) bool {
	for _, pattern := range spec.Exclude {
		if matched, _ := doublestar.Match(pattern, filename); matched {
			return false
		}
	}
	if len(spec.Include) == 0 {
		return true
	}
	for _, pattern := range spec.Include {
		if matched, _ := doublestar.Match(pattern, filename); matched {
			return true
		}
	}
	return false
}

func isInArchiveDir(path string) bool {
	dir := filepath.Dir(path)
	for {
		if filepath.Base(dir) == paporgMagic.ArchiveDirName {
			return true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return false
		}
		dir = parent
	}
}

func depthBelow(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return 0
	}
	return len(strings.Split(rel, string(filepath.Separator)))
}

func expandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
