// Copyright (c) 2025 Justin Cranford

// Package processor implements the DocumentProcessor contract (spec
// §4.3): format-dispatching extraction of ProcessedContent from a
// file path, with a PDF-specific OCR fallback heuristic. Per spec's
// explicit non-goal ("format-specific text extraction... is
// specified only by the DocumentProcessor contract"), the extraction
// internals stay intentionally thin; the heuristic and the
// registry/dispatch contract are what's load-bearing.
package processor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a DocumentFormat the registry dispatches on.
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatDOCX  Format = "docx"
	FormatText  Format = "text"
	FormatImage Format = "image"
)

// Metadata carries the filename/format pair attached to every result.
type Metadata struct {
	Filename string
	Format   Format
}

// Content is ProcessedContent: the text extracted, the canonical PDF
// bytes (the file's own bytes for PDFs, a PDF rendered from the text
// for the other formats), and its metadata.
type Content struct {
	Text     string
	PDFBytes []byte
	Metadata Metadata
}

// Error taxonomy members: UnsupportedFormat, ReadError, PdfProcessing, OcrFailed.
var (
	ErrUnsupportedFormat = errors.New("processor: unsupported format")
	ErrRead              = errors.New("processor: read error")
	ErrPDFProcessing     = errors.New("processor: pdf processing error")
	ErrOCRFailed         = errors.New("processor: ocr failed")
)

// Processor is the DocumentProcessor contract.
type Processor interface {
	Format() Format
	Process(ctx context.Context, path string) (Content, error)
}

// Registry dispatches to a Processor by file extension (case-insensitive).
type Registry struct {
	byExt map[string]Processor
}

// NewRegistry builds an empty Registry; Register adds extension ->
// Processor mappings.
func NewRegistry() *Registry {
	return &Registry{byExt: map[string]Processor{}}
}

// Register associates every extension in exts (with or without a
// leading dot) with proc, case-insensitively.
func (r *Registry) Register(proc Processor, exts ...string) {
	for _, ext := range exts {
		r.byExt[normalizeExt(ext)] = proc
	}
}

// Process dispatches on path's extension.
func (r *Registry) Process(ctx context.Context, path string) (Content, error) {
	ext := normalizeExt(filepath.Ext(path))
	proc, ok := r.byExt[ext]
	if !ok {
		return Content{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return proc.Process(ctx, path)
}

// Supports reports whether ext (with or without a leading dot) has a
// registered Processor.
func (r *Registry) Supports(ext string) bool {
	_, ok := r.byExt[normalizeExt(ext)]
	return ok
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
