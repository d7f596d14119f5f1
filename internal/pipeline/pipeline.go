// Copyright (c) 2025 Justin Cranford

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	paporgCategorizer "github.com/iperka/paporg-sub000/internal/categorizer"
	paporgConfig "github.com/iperka/paporg-sub000/internal/config"
	paporgMagic "github.com/iperka/paporg-sub000/internal/magic"
	paporgProcessor "github.com/iperka/paporg-sub000/internal/processor"
	paporgStorage "github.com/iperka/paporg-sub000/internal/storage"
	paporgTemplate "github.com/iperka/paporg-sub000/internal/template"
)

// Config is everything the Pipeline needs beyond its sub-components,
// pulled from config.Settings (spec §4.5/§4.10).
type Config struct {
	InputDirectory  string
	OutputDirectory string
}

// Pipeline runs the eight-step per-document flow against a single
// Job. A Pipeline is stateless across jobs — every worker owns its
// own instance (spec §4.8) — so Run takes no mutable receiver state.
type Pipeline struct {
	config      Config
	processor   *paporgProcessor.Registry
	categorizer *paporgCategorizer.Categorizer
	variables   []paporgConfig.ExtractedVariable
	storage     *paporgStorage.FileStorage
	symlinks    *paporgStorage.SymlinkManager
}

// New builds a Pipeline from its sub-components.
func New(cfg Config, registry *paporgProcessor.Registry, categorizer *paporgCategorizer.Categorizer, variables []paporgConfig.ExtractedVariable) *Pipeline {
	return &Pipeline{
		config:      cfg,
		processor:   registry,
		categorizer: categorizer,
		variables:   variables,
		storage:     paporgStorage.New(cfg.OutputDirectory),
		symlinks:    paporgStorage.NewSymlinkManager(cfg.OutputDirectory),
	}
}

// Run executes every step for job, reporting phase transitions to
// reporter as it goes, and returns the terminal Result alongside the
// Context accumulated along the way (spec §4.5).
func (p *Pipeline) Run(ctx context.Context, job Job, reporter Reporter) (Result, Context) {
	pctx := NewContext(job)

	reporter.Report(phaseEvent(job, paporgMagic.PhaseProcessing, "Running OCR and text extraction..."))
	if err := p.stepProcessDocument(ctx, &pctx); err != nil {
		reporter.Report(failedEvent(job, err.Error()))
		return failureResult(job, err), pctx
	}

	p.stepPrepareText(&pctx)

	reporter.Report(phaseEvent(job, paporgMagic.PhaseExtractVariables, "Extracting variables from document..."))
	p.stepExtractVariables(&pctx)

	reporter.Report(phaseEvent(job, paporgMagic.PhaseCategorizing, "Categorizing document..."))
	p.stepCategorize(&pctx)

	reporter.Report(phaseEvent(job, paporgMagic.PhaseSubstituting, "Substituting variables in path..."))
	if err := p.stepResolveAndStore(&pctx, reporter); err != nil {
		reporter.Report(failedEvent(job, err.Error()))
		return failureResult(job, err), pctx
	}

	reporter.Report(phaseEvent(job, paporgMagic.PhaseCreatingSymlinks, "Creating symlinks..."))
	p.stepCreateSymlinks(&pctx)

	reporter.Report(phaseEvent(job, paporgMagic.PhaseArchiving, "Archiving source file..."))
	if err := p.stepArchiveSource(&pctx); err != nil {
		reporter.Report(failedEvent(job, err.Error()))
		return failureResult(job, err), pctx
	}

	category := paporgMagic.DefaultCategory
	if pctx.Categorization != nil {
		category = pctx.Categorization.Category
	}

	ocrText := ""
	if pctx.Processed != nil {
		ocrText = pctx.Processed.Text
	}
	event, err := completedEvent(job, category, pctx.OutputPath, pctx.ArchivePath, pctx.SymlinkPaths, ocrText)
	if err != nil {
		reporter.Report(failedEvent(job, err.Error()))
		return failureResult(job, err), pctx
	}
	reporter.Report(event)

	return successResult(job, pctx.OutputPath, pctx.ArchivePath, pctx.SymlinkPaths, category), pctx
}

// stepProcessDocument is step 1: extract text (and canonical PDF
// bytes) via the DocumentProcessor registry.
func (p *Pipeline) stepProcessDocument(ctx context.Context, pctx *Context) error {
	content, err := p.processor.Process(ctx, pctx.Job.SourcePath)
	if err != nil {
		return err
	}
	pctx.Processed = &content
	return nil
}

// stepPrepareText is step 2: prepend the email header block (when
// present) to the extracted text, forming the text rules/variables
// actually match against.
func (p *Pipeline) stepPrepareText(pctx *Context) {
	text := pctx.Processed.Text
	if pctx.Job.EmailMetadata.HasContent() {
		text = pctx.Job.EmailMetadata.HeaderBlock() + text
	}
	pctx.MatchingText = text
}

// stepExtractVariables is step 3.
func (p *Pipeline) stepExtractVariables(pctx *Context) {
	pctx.ExtractedVariables = extractVariables(pctx.MatchingText, p.variables)
}

// stepCategorize is step 4.
func (p *Pipeline) stepCategorize(pctx *Context) {
	result := p.categorizer.Categorize(pctx.MatchingText)
	pctx.Categorization = &result
}

// stepResolveAndStore is step 5: substitute the matched rule's
// directory/filename templates, validate the result stays within the
// output root both before and after substitution, then write the
// canonical PDF bytes (spec §4.5/§4.9).
func (p *Pipeline) stepResolveAndStore(pctx *Context, reporter Reporter) error {
	categorization := pctx.Categorization
	processed := pctx.Processed

	dirTemplate := categorization.OutputDirectory
	nameTemplate := categorization.OutputFilename

	// Pre-substitution checks: catch traversal/absolute paths in the
	// raw template before Substitute's sanitization could mask them.
	if filepath.IsAbs(dirTemplate) {
		return fmt.Errorf("%w: directory template is an absolute path: %s", ErrInvalidOutputPath, dirTemplate)
	}
	if strings.Contains(dirTemplate, "..") {
		return fmt.Errorf("%w: directory template contains path traversal: %s", ErrInvalidOutputPath, dirTemplate)
	}
	if strings.ContainsAny(nameTemplate, "/\\") {
		return fmt.Errorf("%w: filename template contains path separators: %s", ErrInvalidOutputPath, nameTemplate)
	}

	tctx := paporgTemplate.Context{
		OriginalFilename: processed.Metadata.Filename,
		Variables:        pctx.ExtractedVariables,
	}
	outputDirectory := paporgTemplate.Substitute(dirTemplate, tctx)
	outputFilename := paporgTemplate.Substitute(nameTemplate, tctx)

	// Post-substitution checks: defense in depth after sanitization.
	if filepath.IsAbs(outputDirectory) {
		return fmt.Errorf("%w: resolved directory is an absolute path: %s", ErrInvalidOutputPath, outputDirectory)
	}
	if strings.Contains(outputDirectory, "..") {
		return fmt.Errorf("%w: resolved directory contains path traversal: %s", ErrInvalidOutputPath, outputDirectory)
	}
	if strings.Trim(outputFilename, ".") == "" {
		return fmt.Errorf("%w: resolved filename is empty or dots-only: %q", ErrInvalidOutputPath, outputFilename)
	}

	if err := p.assertWithinOutputRoot(outputDirectory); err != nil {
		return err
	}

	reporter.Report(phaseEvent(pctx.Job, paporgMagic.PhaseStoring, "Storing document..."))
	outputPath, err := p.storage.Store(processed.PDFBytes, outputDirectory, outputFilename, "pdf")
	if err != nil {
		return err
	}
	pctx.OutputPath = outputPath
	return nil
}

// assertWithinOutputRoot creates outputDirectory under the
// configured output root if absent, then canonicalizes both and
// asserts the candidate still resolves inside the root — a
// symlink-resolving containment check that plain "../" string
// matching cannot provide (spec §4.9).
func (p *Pipeline) assertWithinOutputRoot(outputDirectory string) error {
	candidate := filepath.Join(p.config.OutputDirectory, outputDirectory)
	if err := os.MkdirAll(candidate, paporgMagic.DefaultDirPermissions); err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrInvalidOutputPath, candidate, err)
	}

	canonicalRoot, err := filepath.EvalSymlinks(p.config.OutputDirectory)
	if err != nil {
		return nil //nolint:nilerr // root itself not yet resolvable; nothing more we can assert here
	}
	canonicalCandidate, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		return nil //nolint:nilerr
	}

	if canonicalCandidate != canonicalRoot && !strings.HasPrefix(canonicalCandidate, canonicalRoot+string(filepath.Separator)) {
		return fmt.Errorf("%w: resolved path escapes output directory: %s", ErrInvalidOutputPath, canonicalCandidate)
	}
	return nil
}

// stepCreateSymlinks is step 6: mirror the stored artifact under
// every symlink template the matched rule declares. A failure here is
// recorded as a Warning, never a pipeline failure (spec §4.4/§4.5).
func (p *Pipeline) stepCreateSymlinks(pctx *Context) {
	categorization := pctx.Categorization
	tctx := paporgTemplate.Context{
		OriginalFilename: pctx.Processed.Metadata.Filename,
		Variables:        pctx.ExtractedVariables,
	}

	for _, symlinkTemplate := range categorization.SymlinkTemplates {
		symlinkDir := paporgTemplate.Substitute(symlinkTemplate, tctx)

		symlinkPath, err := p.symlinks.CreateSymlink(pctx.OutputPath, symlinkDir)
		if err != nil {
			pctx.Warnings = append(pctx.Warnings, Warning{Target: symlinkDir, Error: err.Error()})
			continue
		}
		pctx.SymlinkPaths = append(pctx.SymlinkPaths, symlinkPath)
	}
}

// stepArchiveSource is step 7.
func (p *Pipeline) stepArchiveSource(pctx *Context) error {
	archivePath, err := p.storage.ArchiveSource(pctx.Job.SourcePath, p.config.InputDirectory)
	if err != nil {
		return err
	}
	pctx.ArchivePath = archivePath
	return nil
}
