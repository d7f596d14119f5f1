// Copyright (c) 2025 Justin Cranford

package processor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	paporgMagic "github.com/iperka/paporg-sub000/internal/magic"
)

// showTextOperator matches literal-string operands of the PDF
// content-stream show-text operators "(...) Tj" and "(...) '". Hex
// string operands ("<...> Tj") and TJ arrays are not matched.
var showTextOperator = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*Tj|\(((?:[^()\\]|\\.)*)\)\s*'`)

// PDFProcessor implements Processor for application/pdf. It validates
// the PDF with pdfcpu, scans content streams for literal show-text
// operands, and defers to an OCRProvider when the result looks like
// garbage per shouldUseOCR (spec §4.3).
type PDFProcessor struct {
	OCR    OCRProvider
	OCRDPI int
}

func (p *PDFProcessor) Format() Format { return FormatPDF }

func (p *PDFProcessor) Process(ctx context.Context, path string) (Content, error) {
	pdfBytes, err := os.ReadFile(path)
	if err != nil {
		return Content{}, fmt.Errorf("%w: %s: %v", ErrRead, path, err)
	}

	text, parseErr := p.extractText(pdfBytes)
	if parseErr != nil {
		text = ""
	}

	if parseErr != nil || shouldUseOCR(text) {
		if p.OCR == nil {
			if parseErr != nil {
				return Content{}, fmt.Errorf("%w: %s: %v", ErrPDFProcessing, path, parseErr)
			}
			// No OCR collaborator configured: keep the low-quality text
			// rather than failing the job outright.
		} else {
			ocrText, ocrErr := p.OCR.Recognize(ctx, pdfBytes, p.ocrDPI())
			if ocrErr != nil {
				return Content{}, fmt.Errorf("%w: %s: %v", ErrOCRFailed, path, ocrErr)
			}
			text = ocrText
		}
	}

	return Content{
		Text:     text,
		PDFBytes: pdfBytes,
		Metadata: Metadata{Filename: filepath.Base(path), Format: FormatPDF},
	}, nil
}

func (p *PDFProcessor) ocrDPI() int {
	if p.OCRDPI > 0 {
		return p.OCRDPI
	}
	return paporgMagic.DefaultOCRDPI
}

// extractText validates the PDF with pdfcpu then scans its
// (decompressed) content streams for literal show-text operands.
func (p *PDFProcessor) extractText(pdfBytes []byte) (string, error) {
	rs := bytes.NewReader(pdfBytes)
	if err := api.Validate(rs, nil); err != nil {
		return "", fmt.Errorf("pdfcpu validate: %w", err)
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	readers, err := api.ExtractContent(rs, nil)
	if err != nil {
		return "", fmt.Errorf("pdfcpu extract content: %w", err)
	}

	var buf bytes.Buffer
	for _, r := range readers {
		if r == nil {
			continue
		}
		stream, readErr := io.ReadAll(r)
		if readErr != nil {
			continue
		}
		for _, m := range showTextOperator.FindAllStringSubmatch(string(stream), -1) {
			if m[1] != "" {
				buf.WriteString(m[1])
			} else if m[2] != "" {
				buf.WriteString(m[2])
			}
			buf.WriteByte(' ')
		}
	}
	return buf.String(), nil
}
