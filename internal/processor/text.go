// Copyright (c) 2025 Justin Cranford

package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// TextProcessor implements Processor for plain-text files: the
// content *is* the text, read verbatim.
type TextProcessor struct{}

func (p *TextProcessor) Format() Format { return FormatText }

func (p *TextProcessor) Process(_ context.Context, path string) (Content, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Content{}, fmt.Errorf("%w: %s: %v", ErrRead, path, err)
	}
	text := string(b)

	pdfBytes, err := renderTextToPDF(text)
	if err != nil {
		return Content{}, fmt.Errorf("%w: %s: %v", ErrPDFProcessing, path, err)
	}

	return Content{
		Text:     text,
		PDFBytes: pdfBytes,
		Metadata: Metadata{Filename: filepath.Base(path), Format: FormatText},
	}, nil
}
