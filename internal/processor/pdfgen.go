// Copyright (c) 2025 Justin Cranford

package processor

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

// renderTextToPDF lays extracted text out as a simple multi-page PDF:
// every DocumentProcessor that doesn't already have a native PDF
// representation (docx, text, image/OCR) still has to produce
// "canonical PDF bytes" per spec §1, so the plain text gets wrapped in
// one rather than persisting the original bytes under a lying ".pdf"
// extension.
func renderTextToPDF(text string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 11)

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		pdf.MultiCell(0, 5, scanner.Text(), "", "L", false)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("processor: scanning text for pdf render: %w", err)
	}

	var buf strings.Builder
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("processor: rendering pdf: %w", err)
	}
	return []byte(buf.String()), nil
}
