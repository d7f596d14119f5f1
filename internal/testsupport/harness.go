// Copyright (c) 2025 Justin Cranford

package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	paporgCategorizer "github.com/iperka/paporg-sub000/internal/categorizer"
	paporgConfig "github.com/iperka/paporg-sub000/internal/config"
	paporgJobstore "github.com/iperka/paporg-sub000/internal/jobstore"
	paporgPipeline "github.com/iperka/paporg-sub000/internal/pipeline"
	paporgProcessor "github.com/iperka/paporg-sub000/internal/processor"
)

// Harness provides an isolated input/output directory pair plus a
// ready-to-run Pipeline, for integration tests that don't want to
// hand-wire a Registry/Categorizer/Pipeline themselves (grounded on
// original_source/tests/common/harness.rs's TestHarness, minus OCR
// knobs since this pack carries no concrete OCRProvider).
type Harness struct {
	t         *testing.T
	InputDir  string
	OutputDir string

	registry    *paporgProcessor.Registry
	categorizer *paporgCategorizer.Categorizer
	variables   []paporgConfig.ExtractedVariable
	pipeline    *paporgPipeline.Pipeline
}

// NewHarness builds a Harness with temp input/output directories and
// the given rules/variables, registering text, DOCX, PDF and image
// processors with no OCRProvider (so PDFs always take the no-OCR path
// and images yield empty text).
func NewHarness(t *testing.T, rules []paporgCategorizer.Rule, variables []paporgConfig.ExtractedVariable) *Harness {
	t.Helper()

	tmp := t.TempDir()
	inputDir := filepath.Join(tmp, "input")
	outputDir := filepath.Join(tmp, "output")
	require.NoError(t, os.MkdirAll(inputDir, 0o755))
	require.NoError(t, os.MkdirAll(outputDir, 0o755))

	registry := paporgProcessor.NewRegistry()
	registry.Register(&paporgProcessor.TextProcessor{}, "txt", "text", "md")
	registry.Register(&paporgProcessor.DOCXProcessor{}, "docx")
	registry.Register(&paporgProcessor.PDFProcessor{}, "pdf")
	registry.Register(&paporgProcessor.ImageProcessor{}, "png", "jpg", "jpeg")

	cat, err := paporgCategorizer.New(rules, paporgCategorizer.Defaults{
		Category:        "unsorted",
		OutputDirectory: "$y/unsorted",
		OutputFilename:  "$original",
	})
	require.NoError(t, err)

	p := paporgPipeline.New(
		paporgPipeline.Config{InputDirectory: inputDir, OutputDirectory: outputDir},
		registry, cat, variables,
	)

	return &Harness{
		t:           t,
		InputDir:    inputDir,
		OutputDir:   outputDir,
		registry:    registry,
		categorizer: cat,
		variables:   variables,
		pipeline:    p,
	}
}

// WriteInput writes content to filename under the harness's input
// directory and returns the full path.
func (h *Harness) WriteInput(filename string, content []byte) string {
	h.t.Helper()
	path := filepath.Join(h.InputDir, filename)
	require.NoError(h.t, os.WriteFile(path, content, 0o644))
	return path
}

// WriteTextInput is WriteInput for string content.
func (h *Harness) WriteTextInput(filename, content string) string {
	return h.WriteInput(filename, []byte(content))
}

// recordingReporter captures every Event Report publishes, for tests
// that want to assert on the phase-transition sequence.
type recordingReporter struct {
	Events []paporgJobstore.Event
}

func (r *recordingReporter) Report(event paporgJobstore.Event) {
	r.Events = append(r.Events, event)
}

// Run processes sourcePath through the harness's pipeline and returns
// the terminal Result, the accumulated Context, and every Event the
// pipeline reported along the way.
func (h *Harness) Run(sourcePath string) (paporgPipeline.Result, paporgPipeline.Context, []paporgJobstore.Event) {
	h.t.Helper()
	reporter := &recordingReporter{}
	result, pctx := h.pipeline.Run(context.Background(), paporgPipeline.NewJob(sourcePath), reporter)
	return result, pctx, reporter.Events
}

// RunAndRequireSuccess is Run, failing the test immediately if the job
// didn't succeed.
func (h *Harness) RunAndRequireSuccess(sourcePath string) (paporgPipeline.Result, paporgPipeline.Context) {
	h.t.Helper()
	result, pctx, _ := h.Run(sourcePath)
	require.True(h.t, result.Success, "pipeline run failed: %s", derefOrEmpty(result.Error))
	return result, pctx
}

// AssertOutputExists fails the test unless relativePath exists under
// the harness's output directory.
func (h *Harness) AssertOutputExists(relativePath string) {
	h.t.Helper()
	path := filepath.Join(h.OutputDir, relativePath)
	_, err := os.Stat(path)
	require.NoError(h.t, err, "expected output file does not exist: %s", path)
}

// ReadOutput reads relativePath's content from under the harness's
// output directory.
func (h *Harness) ReadOutput(relativePath string) []byte {
	h.t.Helper()
	content, err := os.ReadFile(filepath.Join(h.OutputDir, relativePath))
	require.NoError(h.t, err)
	return content
}

// ListOutputs returns every regular file under the output directory,
// relative to it.
func (h *Harness) ListOutputs() []string {
	h.t.Helper()
	var paths []string
	err := filepath.Walk(h.OutputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(h.OutputDir, path)
		if err != nil {
			return err
		}
		paths = append(paths, rel)
		return nil
	})
	require.NoError(h.t, err)
	return paths
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
