// Copyright (c) 2025 Justin Cranford

package email

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	paporgConfig "github.com/iperka/paporg-sub000/internal/config"
	paporgJobstore "github.com/iperka/paporg-sub000/internal/jobstore"
	paporgPipeline "github.com/iperka/paporg-sub000/internal/pipeline"
)

// CursorStore is the slice of *jobstore.Store the Scanner needs: the
// persisted UIDVALIDITY/last-UID cursor per mailbox (spec §4.6),
// abstracted so tests don't need a real database.
type CursorStore interface {
	EmailCursor(ctx context.Context, sourceName string) (paporgJobstore.EmailState, error)
	SaveEmailCursor(ctx context.Context, state paporgJobstore.EmailState) error
}

// mailClient is the subset of *Client a Scanner drives, seamed out
// for tests.
type mailClient interface {
	Connect(ctx context.Context) error
	ExamineFolder() (uint32, error)
	UIDValidity() uint32
	SearchSinceUID(lastUID uint32) ([]uint32, error)
	SearchSinceDate(since time.Time) ([]uint32, error)
	FetchEmailPeek(uid uint32) ([]byte, error)
	Disconnect() error
}

// newClientFunc constructs the IMAP client for a source; overridden
// in tests to avoid real network connections.
type newClientFunc func(paporgConfig.EmailSourceSpec) mailClient

// Scanner implements scanner.EmailScanner: for a given EmailSourceSpec
// it connects, resumes from (or starts) the persisted UID cursor,
// fetches and parses new messages, stages each surviving attachment to
// disk, and returns a pipeline.Job per attachment (spec §4.6/§4.9).
type Scanner struct {
	cursors    CursorStore
	stagingDir string
	newClient  newClientFunc
}

// defaultStagingDir mirrors multi_scanner.rs's temp_dir default of
// std::env::temp_dir().join("paporg_email_attachments").
func defaultStagingDir() string {
	return filepath.Join(os.TempDir(), "paporg_email_attachments")
}

// NewScanner builds a Scanner persisting cursors through cursors and
// staging attachments under stagingDir (defaultStagingDir() if empty).
func NewScanner(cursors CursorStore, stagingDir string) *Scanner {
	if stagingDir == "" {
		stagingDir = defaultStagingDir()
	}
	return &Scanner{
		cursors:    cursors,
		stagingDir: stagingDir,
		newClient:  func(spec paporgConfig.EmailSourceSpec) mailClient { return NewClient(spec) },
	}
}

// ScanEmailSource implements scanner.EmailScanner.
func (s *Scanner) ScanEmailSource(ctx context.Context, source paporgConfig.EmailSourceSpec, sourceName string) ([]paporgPipeline.Job, error) {
	cli := s.newClient(source)
	if err := cli.Connect(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = cli.Disconnect() }()

	uidValidity, err := cli.ExamineFolder()
	if err != nil {
		return nil, err
	}

	cursor, err := s.cursors.EmailCursor(ctx, sourceName)
	if err != nil {
		return nil, err
	}

	uids, err := s.searchUIDs(cli, cursor, uidValidity, source)
	if err != nil {
		return nil, err
	}
	if len(uids) == 0 {
		return nil, nil
	}
	if source.BatchSize > 0 && len(uids) > source.BatchSize {
		uids = uids[:source.BatchSize]
	}

	parser := NewParser(source.MIMEFilters, source.FilenameFilters, source.MinSizeBytes, source.MaxSizeBytes)

	var jobs []paporgPipeline.Job
	highestUID := cursor.LastUID
	for _, uid := range uids {
		raw, err := cli.FetchEmailPeek(uid)
		if err != nil {
			continue
		}
		attachments, err := parser.ExtractAttachments(raw, uid)
		if err != nil {
			continue
		}
		for _, att := range attachments {
			path, err := s.stageAttachment(sourceName, att)
			if err != nil {
				continue
			}
			metadata := att.EmailInfo.ToMetadata()
			jobs = append(jobs, paporgPipeline.NewJobFromEmail(path, sourceName, att.MimeType, metadata))
		}
		if uid > highestUID {
			highestUID = uid
		}
	}

	return jobs, s.cursors.SaveEmailCursor(ctx, paporgJobstore.EmailState{
		SourceName:  sourceName,
		UIDValidity: uidValidity,
		LastUID:     highestUID,
	})
}

// searchUIDs resumes from the persisted cursor when the mailbox's
// UIDVALIDITY hasn't changed; a changed UIDVALIDITY or a never-scanned
// source falls back to sinceDate (or the dawn of time) per spec §4.6.
func (s *Scanner) searchUIDs(cli mailClient, cursor paporgJobstore.EmailState, uidValidity uint32, source paporgConfig.EmailSourceSpec) ([]uint32, error) {
	if cursor.UIDValidity == uidValidity && cursor.LastUID > 0 {
		uids, err := cli.SearchSinceUID(cursor.LastUID)
		if err != nil {
			return nil, err
		}
		return uids, nil
	}

	since := time.Unix(0, 0)
	if source.SinceDate != nil {
		since = *source.SinceDate
	}
	uids, err := cli.SearchSinceDate(since)
	if err != nil {
		return nil, err
	}
	return uids, nil
}

// stageAttachment writes an extracted attachment to disk under
// stagingDir/sourceName/ so the pipeline can process and archive it
// like any locally-discovered file.
func (s *Scanner) stageAttachment(sourceName string, att ExtractedAttachment) (string, error) {
	dir := filepath.Join(s.stagingDir, sourceName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("email: creating staging dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%d_%s", att.UID, att.Filename))
	if err := os.WriteFile(path, att.Content, 0o644); err != nil {
		return "", fmt.Errorf("email: staging attachment: %w", err)
	}
	return path, nil
}
