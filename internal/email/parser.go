// Copyright (c) 2025 Justin Cranford

package email

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/emersion/go-message/mail"

	paporgPipeline "github.com/iperka/paporg-sub000/internal/pipeline"
)

// EmailInfo carries the headers categorizer rules match against,
// mirroring parser.rs's EmailInfo and pipeline.EmailMetadata's shape.
type EmailInfo struct {
	MessageID *string
	Subject   *string
	From      *string
	To        *string
	Date      *string
}

// ToMetadata adapts an EmailInfo into the pipeline's EmailMetadata.
func (e EmailInfo) ToMetadata() paporgPipeline.EmailMetadata {
	return paporgPipeline.EmailMetadata{
		Subject:   e.Subject,
		From:      e.From,
		To:        e.To,
		Date:      e.Date,
		MessageID: e.MessageID,
	}
}

// ExtractedAttachment is one attachment pulled from a raw message,
// surviving EmailParser's size/MIME/filename filters.
type ExtractedAttachment struct {
	UID       uint32
	Filename  string
	MimeType  string
	Content   []byte
	EmailInfo EmailInfo
}

// Parser extracts and filters attachments from raw RFC 5322 messages
// (spec §4.6, mirroring parser.rs's EmailParser).
type Parser struct {
	mimeFilters     []string
	filenameFilters []string
	minSize         int64
	maxSize         int64
}

// NewParser builds a Parser from an EmailSourceSpec's filter fields.
// mimeFilters and filenameFilters are include-only glob/wildcard
// patterns: empty means "accept everything" (spec §4.6).
func NewParser(mimeFilters, filenameFilters []string, minSize, maxSize int64) *Parser {
	return &Parser{mimeFilters: mimeFilters, filenameFilters: filenameFilters, minSize: minSize, maxSize: maxSize}
}

// ExtractAttachments walks raw's MIME structure, returning every part
// that looks like an attachment and passes the configured filters.
func (p *Parser) ExtractAttachments(raw []byte, uid uint32) ([]ExtractedAttachment, error) {
	reader, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("email: parsing message UID %d: %w", uid, err)
	}

	info := extractEmailInfo(&reader.Header)

	var attachments []ExtractedAttachment
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		content, filename, mimeType, ok := readAttachmentPart(part)
		if !ok {
			continue
		}
		if !p.passesFilters(mimeType, filename, int64(len(content))) {
			continue
		}
		attachments = append(attachments, ExtractedAttachment{
			UID:       uid,
			Filename:  sanitizeFilename(filename),
			MimeType:  mimeType,
			Content:   content,
			EmailInfo: info,
		})
	}

	return attachments, nil
}

func extractEmailInfo(h *mail.Header) EmailInfo {
	var info EmailInfo
	if subject, err := h.Subject(); err == nil && subject != "" {
		info.Subject = &subject
	}
	if messageID, err := h.MessageID(); err == nil && messageID != "" {
		info.MessageID = &messageID
	}
	if from, err := h.AddressList("From"); err == nil && len(from) > 0 {
		formatted := formatAddressList(from)
		info.From = &formatted
	}
	if to, err := h.AddressList("To"); err == nil && len(to) > 0 {
		formatted := formatAddressList(to)
		info.To = &formatted
	}
	if date, err := h.Date(); err == nil && !date.IsZero() {
		formatted := date.Format("02-Jan-2006 15:04:05 -0700")
		info.Date = &formatted
	}
	return info
}

func formatAddressList(addrs []*mail.Address) string {
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = formatAddress(a)
	}
	return strings.Join(parts, ", ")
}

// formatAddress renders "Name <addr>" when a display name is present,
// else the bare address.
func formatAddress(a *mail.Address) string {
	if a.Name != "" {
		return fmt.Sprintf("%s <%s>", a.Name, a.Address)
	}
	return a.Address
}

// readAttachmentPart decides whether part is an attachment (explicit
// Content-Disposition: attachment, or a non-text/non-multipart body,
// mirroring parser.rs's is_attachment) and, if so, reads its content
// and derives a filename.
func readAttachmentPart(part *mail.Part) (content []byte, filename, mimeType string, ok bool) {
	switch h := part.Header.(type) {
	case *mail.AttachmentHeader:
		name, _ := h.Filename()
		ctype, _, _ := h.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			return nil, "", "", false
		}
		if name == "" {
			name = "attachment." + mimeToExtension(ctype)
		}
		return body, name, ctype, true
	case *mail.InlineHeader:
		ctype, _, _ := h.ContentType()
		if isTextOrMultipart(ctype) {
			return nil, "", "", false
		}
		body, err := io.ReadAll(part.Body)
		if err != nil {
			return nil, "", "", false
		}
		name := "attachment." + mimeToExtension(ctype)
		return body, name, ctype, true
	default:
		return nil, "", "", false
	}
}

func isTextOrMultipart(ctype string) bool {
	ctype = strings.ToLower(ctype)
	return strings.HasPrefix(ctype, "text/") || strings.HasPrefix(ctype, "multipart/") || ctype == "message/rfc822"
}

func (p *Parser) passesFilters(mimeType, filename string, size int64) bool {
	if p.minSize > 0 && size < p.minSize {
		return false
	}
	if p.maxSize > 0 && size > p.maxSize {
		return false
	}
	if len(p.mimeFilters) > 0 && !p.passesMIMEFilter(mimeType) {
		return false
	}
	if len(p.filenameFilters) > 0 && !p.passesFilenameFilter(filename) {
		return false
	}
	return true
}

func (p *Parser) passesMIMEFilter(mimeType string) bool {
	for _, pattern := range p.mimeFilters {
		if mimeMatches(pattern, mimeType) {
			return true
		}
	}
	return false
}

func (p *Parser) passesFilenameFilter(filename string) bool {
	for _, pattern := range p.filenameFilters {
		if matched, _ := doublestar.Match(pattern, filename); matched {
			return true
		}
	}
	return false
}

// mimeMatches supports the "type/*" and "*/*" wildcard forms used by
// mimeFilters alongside exact "type/subtype" matches.
func mimeMatches(pattern, mimeType string) bool {
	pattern = strings.ToLower(pattern)
	mimeType = strings.ToLower(strings.SplitN(mimeType, ";", 2)[0])
	if pattern == "*/*" {
		return true
	}
	patParts := strings.SplitN(pattern, "/", 2)
	typeParts := strings.SplitN(mimeType, "/", 2)
	if len(patParts) != 2 || len(typeParts) != 2 {
		return pattern == mimeType
	}
	if patParts[0] != typeParts[0] {
		return false
	}
	return patParts[1] == "*" || patParts[1] == typeParts[1]
}

// maxFilenameLength bounds sanitizeFilename's output, matching
// parser.rs's 255-byte ceiling (a common filesystem limit).
const maxFilenameLength = 255

// sanitizeFilename replaces characters outside a safe whitelist with
// "_", trims stray leading/trailing dots and spaces, and truncates to
// maxFilenameLength while preserving the extension (spec §4.6).
func sanitizeFilename(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_', r == ' ':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	name = strings.Trim(sb.String(), ". ")
	if name == "" {
		return "attachment"
	}
	if len(name) <= maxFilenameLength {
		return name
	}

	ext := ""
	if idx := strings.LastIndex(name, "."); idx > 0 {
		ext = name[idx:]
	}
	keep := maxFilenameLength - len(ext)
	if keep < 1 {
		return name[:maxFilenameLength]
	}
	return name[:keep] + ext
}

// mimeToExtension maps a MIME type to a file extension for attachment
// parts that don't carry an explicit filename (parser.rs's
// mime_to_extension table).
func mimeToExtension(mimeType string) string {
	mimeType = strings.ToLower(strings.SplitN(mimeType, ";", 2)[0])
	switch mimeType {
	case "application/pdf":
		return "pdf"
	case "application/msword":
		return "doc"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return "docx"
	case "application/vnd.ms-excel":
		return "xls"
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return "xlsx"
	case "application/vnd.ms-powerpoint":
		return "ppt"
	case "application/vnd.openxmlformats-officedocument.presentationml.presentation":
		return "pptx"
	case "application/zip":
		return "zip"
	case "application/gzip", "application/x-gzip":
		return "gz"
	case "application/x-tar":
		return "tar"
	case "application/json":
		return "json"
	case "application/xml", "text/xml":
		return "xml"
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "image/svg+xml":
		return "svg"
	case "image/tiff":
		return "tiff"
	case "image/bmp":
		return "bmp"
	case "text/plain":
		return "txt"
	case "text/html":
		return "html"
	case "text/csv":
		return "csv"
	default:
		return "bin"
	}
}
