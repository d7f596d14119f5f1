// Copyright (c) 2025 Justin Cranford

package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ImageProcessor implements Processor for raster images: there is no
// embedded text, so every image is handed straight to the OCR
// collaborator.
type ImageProcessor struct {
	OCR OCRProvider
}

func (p *ImageProcessor) Format() Format { return FormatImage }

func (p *ImageProcessor) Process(ctx context.Context, path string) (Content, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Content{}, fmt.Errorf("%w: %s: %v", ErrRead, path, err)
	}

	var text string
	if p.OCR != nil {
		text, err = p.OCR.RecognizeImage(ctx, b)
		if err != nil {
			return Content{}, fmt.Errorf("%w: %s: %v", ErrOCRFailed, path, err)
		}
	}

	pdfBytes, err := renderTextToPDF(text)
	if err != nil {
		return Content{}, fmt.Errorf("%w: %s: %v", ErrPDFProcessing, path, err)
	}

	return Content{
		Text:     text,
		PDFBytes: pdfBytes,
		Metadata: Metadata{Filename: filepath.Base(path), Format: FormatImage},
	}, nil
}
