// Copyright (c) 2025 Justin Cranford

package processor

import (
	"context"
	"strings"
	"unicode"

	paporgMagic "github.com/iperka/paporg-sub000/internal/magic"
)

// identityHPattern is the CID-font "Identity-H unimplemented" marker
// lopdf-style extractors leave behind for glyphs they can't map; when
// stripping it empties the text, the PDF is effectively unreadable
// without OCR.
const identityHPattern = "?Identity-H Unimplemented?"

// OCRProvider is the external collaborator that rasterizes a PDF (or
// an image) and returns recognized text. It is deliberately an
// interface with no library dependency: spec's non-goals place OCR
// engines out of scope, so paporg only defines the seam.
type OCRProvider interface {
	Recognize(ctx context.Context, pdfBytes []byte, dpi int) (string, error)
	RecognizeImage(ctx context.Context, imageBytes []byte) (string, error)
}

// shouldUseOCR implements spec §4.3's three-way heuristic exactly:
// empty/whitespace text, CID-font-residue-only text, or a low
// alphanumeric ratio over a long-enough sample.
func shouldUseOCR(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}

	cleaned := strings.ReplaceAll(trimmed, identityHPattern, "")
	cleaned = strings.Map(func(r rune) rune {
		if r == '\n' || r == ' ' {
			return -1
		}
		return r
	}, cleaned)
	if cleaned == "" {
		return true
	}

	totalChars := 0
	alnumChars := 0
	for _, r := range trimmed {
		totalChars++
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnumChars++
		}
	}

	if totalChars > paporgMagic.OCRMinCharsForRatioCheck && alnumChars*100 < totalChars*paporgMagic.OCRMinAlnumRatioPercent {
		return true
	}
	return false
}
