// Copyright (c) 2025 Justin Cranford

package app

import (
	paporgConfig "github.com/iperka/paporg-sub000/internal/config"
	paporgPipeline "github.com/iperka/paporg-sub000/internal/pipeline"
	paporgProcessor "github.com/iperka/paporg-sub000/internal/processor"
)

// newRegistry builds a processor.Registry covering every format the
// spec names, wiring the OCR collaborator seam to nil: OCR engines are
// an explicit Non-goal ("format-specific text extraction... OCR
// engines... specified only by the DocumentProcessor contract"), so
// no concrete OCRProvider ships here — PDFProcessor/ImageProcessor
// fall back to their extracted/empty text whenever OCR would have been
// invoked.
func newRegistry(cfg *paporgConfig.LoadedConfig) *paporgProcessor.Registry {
	reg := paporgProcessor.NewRegistry()
	reg.Register(&paporgProcessor.PDFProcessor{OCRDPI: cfg.Settings.OCRDPI}, "pdf")
	reg.Register(&paporgProcessor.DOCXProcessor{}, "docx")
	reg.Register(&paporgProcessor.TextProcessor{}, "txt", "text", "md")
	reg.Register(&paporgProcessor.ImageProcessor{}, "png", "jpg", "jpeg", "gif", "bmp", "tiff", "tif")
	return reg
}

// newPipelineFactory returns a closure suitable for worker.New's
// newPipeline parameter: every worker goroutine calls it exactly once
// to build its own *pipeline.Pipeline instance sharing cfg's
// categorizer/variables and registry, which is stateless dispatch
// safe to share across workers (spec §4.8's "one pipeline instance
// per worker").
func newPipelineFactory(cfg *paporgConfig.LoadedConfig, registry *paporgProcessor.Registry) func() *paporgPipeline.Pipeline {
	pcfg := paporgPipeline.Config{InputDirectory: cfg.Settings.InputDir, OutputDirectory: cfg.Settings.OutputDir}
	return func() *paporgPipeline.Pipeline {
		return paporgPipeline.New(pcfg, registry, cfg.Categorizer, cfg.Variables)
	}
}
