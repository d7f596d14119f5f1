// Copyright (c) 2025 Justin Cranford

package processor

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// DOCXProcessor implements Processor for application/vnd...wordprocessingml.
// DOCX is a zip of XML parts; the visible document text lives in
// word/document.xml as a sequence of <w:t> run-text elements. No
// library in the example pack parses OOXML, so this stays on the
// standard library (archive/zip + encoding/xml) by design, per
// DESIGN.md's grounding ledger.
type DOCXProcessor struct{}

func (p *DOCXProcessor) Format() Format { return FormatDOCX }

func (p *DOCXProcessor) Process(_ context.Context, path string) (Content, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return Content{}, fmt.Errorf("%w: %s: %v", ErrRead, path, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return Content{}, fmt.Errorf("%w: %s: %v", ErrRead, path, err)
		}
		text, err := extractDocxRunText(rc)
		rc.Close()
		if err != nil {
			return Content{}, fmt.Errorf("%w: %s: %v", ErrPDFProcessing, path, err)
		}

		pdfBytes, err := renderTextToPDF(text)
		if err != nil {
			return Content{}, fmt.Errorf("%w: %s: %v", ErrPDFProcessing, path, err)
		}

		return Content{
			Text:     text,
			PDFBytes: pdfBytes,
			Metadata: Metadata{Filename: filepath.Base(path), Format: FormatDOCX},
		}, nil
	}
	return Content{}, fmt.Errorf("%w: %s: missing word/document.xml", ErrRead, path)
}

// extractDocxRunText walks document.xml's token stream, collecting
// character data nested inside <w:t> elements (paragraph/run text
// runs) and inserting a newline at each </w:p> (paragraph end).
func extractDocxRunText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
			if t.Name.Local == "p" {
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
