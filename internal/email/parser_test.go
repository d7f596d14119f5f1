// Copyright (c) 2025 Justin Cranford

package email

import (
	"strings"
	"testing"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/require"
)

func TestMimeMatches(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name, pattern, mimeType string
		want                    bool
	}{
		{"exact match", "application/pdf", "application/pdf", true},
		{"type wildcard matches", "image/*", "image/png", true},
		{"type wildcard rejects other type", "image/*", "application/pdf", false},
		{"full wildcard matches anything", "*/*", "application/zip", true},
		{"case insensitive", "APPLICATION/PDF", "application/pdf", true},
		{"mismatched subtype", "application/pdf", "application/zip", false},
		{"parameters are ignored", "text/plain", "text/plain; charset=utf-8", true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, mimeMatches(tc.pattern, tc.mimeType))
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name, input, want string
	}{
		{"plain name unchanged", "report.pdf", "report.pdf"},
		{"spaces preserved", "my report.pdf", "my report.pdf"},
		{"unsafe chars replaced", "report:final?.pdf", "report_final_.pdf"},
		{"leading/trailing dots and spaces trimmed", "  .report.pdf.  ", "report.pdf"},
		{"empty after sanitizing falls back", " . . ", "attachment"},
		{"path separators replaced", "../../etc/passwd", "_.._etc_passwd"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, sanitizeFilename(tc.input))
		})
	}
}

func TestSanitizeFilename_TruncatesPreservingExtension(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("a", 300) + ".pdf"
	got := sanitizeFilename(long)
	require.LessOrEqual(t, len(got), maxFilenameLength)
	require.True(t, strings.HasSuffix(got, ".pdf"))
}

func TestMimeToExtension(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"application/pdf":   "pdf",
		"image/png":         "png",
		"image/jpeg":        "jpg",
		"text/plain":        "txt",
		"application/zip":   "zip",
		"application/x-foo": "bin",
	}
	for mimeType, want := range cases {
		require.Equal(t, want, mimeToExtension(mimeType))
	}
}

func TestParser_PassesFilters_SizeBounds(t *testing.T) {
	t.Parallel()
	p := NewParser(nil, nil, 100, 1000)
	require.False(t, p.passesFilters("application/pdf", "a.pdf", 50))
	require.False(t, p.passesFilters("application/pdf", "a.pdf", 2000))
	require.True(t, p.passesFilters("application/pdf", "a.pdf", 500))
}

func TestParser_PassesFilters_MIMEInclude(t *testing.T) {
	t.Parallel()
	p := NewParser([]string{"image/*"}, nil, 0, 0)
	require.True(t, p.passesFilters("image/png", "a.png", 10))
	require.False(t, p.passesFilters("application/pdf", "a.pdf", 10))
}

func TestParser_PassesFilters_FilenameInclude(t *testing.T) {
	t.Parallel()
	p := NewParser(nil, []string{"*.pdf"}, 0, 0)
	require.True(t, p.passesFilters("application/pdf", "report.pdf", 10))
	require.False(t, p.passesFilters("application/pdf", "report.docx", 10))
}

func TestFormatAddress(t *testing.T) {
	t.Parallel()
	require.Equal(t, "Jane Doe <jane@example.com>", formatAddress(&mail.Address{Name: "Jane Doe", Address: "jane@example.com"}))
	require.Equal(t, "jane@example.com", formatAddress(&mail.Address{Address: "jane@example.com"}))
}
