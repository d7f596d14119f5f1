// Copyright (c) 2025 Justin Cranford

package jobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	paporgDatabase "github.com/iperka/paporg-sub000/internal/database"
)

// Store wraps a *gorm.DB with the job/stats/email-cursor operations
// the pipeline and scanner need. It is long-lived, built once from a
// database.Provider, and shared (gorm.DB is safe for concurrent use).
type Store struct {
	db *gorm.DB
}

// New wraps an already-open, already-migrated database.Provider.
func New(provider *paporgDatabase.Provider) *Store {
	return &Store{db: provider.DB}
}

// Filter narrows Query's result set (spec §4.9's job listing filters).
type Filter struct {
	Status        *string
	Category      *string
	SourceName    *string
	FromDate      *time.Time
	ToDate        *time.Time
	ExcludeStatus *string
	Limit         int
	Offset        int
}

// Insert creates a new job row.
func (s *Store) Insert(ctx context.Context, job *Job) error {
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("jobstore: insert %s: %w", job.ID, err)
	}
	return nil
}

// Update overwrites every field of an existing job row except ID/CreatedAt.
func (s *Store) Update(ctx context.Context, job *Job) error {
	if err := s.db.WithContext(ctx).Model(&Job{}).Where("id = ?", job.ID).Omit("id", "created_at").Updates(job).Error; err != nil {
		return fmt.Errorf("jobstore: update %s: %w", job.ID, err)
	}
	return nil
}

// UpdateStatus updates only status/updated_at, used by the pipeline's
// phase transitions to avoid clobbering concurrently-written fields.
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status) error {
	res := s.db.WithContext(ctx).Model(&Job{}).Where("id = ?", id).Updates(map[string]any{
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return fmt.Errorf("jobstore: update status %s: %w", id, res.Error)
	}
	return nil
}

// FindByID returns nil, nil when no row matches.
func (s *Store) FindByID(ctx context.Context, id string) (*Job, error) {
	var job Job
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("jobstore: find %s: %w", id, err)
	}
	return &job, nil
}

// Query lists jobs matching filter, newest first, returning the page
// and the total matching count. Superseded rows are excluded unless
// the caller explicitly filters for them (spec §4.9: "superseded rows
// are excluded by default").
func (s *Store) Query(ctx context.Context, filter Filter) ([]Job, int64, error) {
	if filter.Status == nil && filter.ExcludeStatus == nil {
		superseded := string(StatusSuperseded)
		filter.ExcludeStatus = &superseded
	}

	scope := s.db.WithContext(ctx).Model(&Job{})
	scope = applyFilter(scope, filter)

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("jobstore: count: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var jobs []Job
	q := s.db.WithContext(ctx).Model(&Job{})
	q = applyFilter(q, filter)
	if err := q.Order("created_at DESC").Limit(limit).Offset(filter.Offset).Find(&jobs).Error; err != nil {
		return nil, 0, fmt.Errorf("jobstore: query: %w", err)
	}
	return jobs, total, nil
}

func applyFilter(scope *gorm.DB, filter Filter) *gorm.DB {
	if filter.Status != nil {
		scope = scope.Where("status = ?", *filter.Status)
	}
	if filter.Category != nil {
		scope = scope.Where("category = ?", *filter.Category)
	}
	if filter.SourceName != nil {
		scope = scope.Where("source_name = ?", *filter.SourceName)
	}
	if filter.FromDate != nil {
		scope = scope.Where("created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		scope = scope.Where("created_at <= ?", *filter.ToDate)
	}
	if filter.ExcludeStatus != nil {
		scope = scope.Where("status != ?", *filter.ExcludeStatus)
	}
	return scope
}

// CountByStatus is a narrow helper for dashboard/progress summaries.
func (s *Store) CountByStatus(ctx context.Context, status Status) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Job{}).Where("status = ?", string(status)).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("jobstore: count by status: %w", err)
	}
	return count, nil
}

// Rerun creates a fresh job row for the same source path and marks
// the prior row superseded (spec §4.9: "a re-run action creates a
// fresh job id for the same source path, marks the prior row
// superseded, and removes it from the live cache"). The returned Job
// is queued for pickup by the pipeline; cache eviction of the old id
// is the caller's responsibility (Store holds no reference to the
// in-memory Cache; see Cache.Remove).
func (s *Store) Rerun(ctx context.Context, id string, newID string) (*Job, error) {
	var fresh *Job
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prior Job
		if err := tx.Where("id = ?", id).First(&prior).Error; err != nil {
			return fmt.Errorf("finding prior job: %w", err)
		}

		now := time.Now().UTC()
		if err := tx.Model(&Job{}).Where("id = ?", id).Updates(map[string]any{
			"status":     string(StatusSuperseded),
			"updated_at": now,
		}).Error; err != nil {
			return fmt.Errorf("superseding prior job: %w", err)
		}

		fresh = &Job{
			ID:         newID,
			Filename:   prior.Filename,
			SourcePath: prior.SourcePath,
			Category:   prior.Category,
			SourceName: prior.SourceName,
			Status:     string(StatusProcessing),
			CreatedAt:  now,
			UpdatedAt:  now,
			MimeType:   prior.MimeType,
		}
		return tx.Create(fresh).Error
	})
	if err != nil {
		return nil, fmt.Errorf("jobstore: rerun %s: %w", id, err)
	}
	return fresh, nil
}

// Ignore marks a job ignored so it is excluded from future retries
// and default listings (spec §4.9's operator "ignore" action).
func (s *Store) Ignore(ctx context.Context, id string) error {
	return s.UpdateStatus(ctx, id, StatusIgnored)
}

// RecordCompletion upserts one processing_stats row for (date,
// category, sourceName, mimeType), maintaining a running average of
// duration_ms without reading the prior value back into Go (spec's
// original SQLite ON CONFLICT formula, reproduced via gorm's OnConflict
// with a raw expression so the read-modify-write stays atomic
// in the database, not in application code).
func (s *Store) RecordCompletion(ctx context.Context, date string, category, sourceName, mimeType *string, succeeded bool, durationMs int64) error {
	success, failure := int64(0), int64(1)
	if succeeded {
		success, failure = 1, 0
	}
	stat := ProcessingStat{
		Date: date, Category: category, SourceName: sourceName, MimeType: mimeType,
		TotalProcessed: 1, TotalSucceeded: success, TotalFailed: failure, AvgDurationMs: durationMs,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}, {Name: "category"}, {Name: "source_name"}, {Name: "mime_type"}},
		DoUpdates: clause.Assignments(map[string]any{
			"total_processed": gorm.Expr("processing_stats.total_processed + 1"),
			"total_succeeded": gorm.Expr("processing_stats.total_succeeded + ?", success),
			"total_failed":    gorm.Expr("processing_stats.total_failed + ?", failure),
			"avg_duration_ms": gorm.Expr("(processing_stats.avg_duration_ms * processing_stats.total_processed + ?) / (processing_stats.total_processed + 1)", durationMs),
		}),
	}).Create(&stat).Error
	if err != nil {
		return fmt.Errorf("jobstore: record completion: %w", err)
	}
	return nil
}

// QueryStats lists processing_stats rows with optional date/category/source filters.
func (s *Store) QueryStats(ctx context.Context, fromDate, toDate, category, sourceName *string) ([]ProcessingStat, error) {
	scope := s.db.WithContext(ctx).Model(&ProcessingStat{})
	if fromDate != nil {
		scope = scope.Where("date >= ?", *fromDate)
	}
	if toDate != nil {
		scope = scope.Where("date <= ?", *toDate)
	}
	if category != nil {
		scope = scope.Where("category = ?", *category)
	}
	if sourceName != nil {
		scope = scope.Where("source_name = ?", *sourceName)
	}
	var rows []ProcessingStat
	if err := scope.Order("date DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("jobstore: query stats: %w", err)
	}
	return rows, nil
}

// EmailCursor returns the persisted UIDVALIDITY/last-UID cursor for a
// mailbox source, or zero values if none has been recorded yet.
func (s *Store) EmailCursor(ctx context.Context, sourceName string) (EmailState, error) {
	var state EmailState
	err := s.db.WithContext(ctx).Where("source_name = ?", sourceName).First(&state).Error
	if err == gorm.ErrRecordNotFound {
		return EmailState{SourceName: sourceName}, nil
	}
	if err != nil {
		return EmailState{}, fmt.Errorf("jobstore: email cursor %s: %w", sourceName, err)
	}
	return state, nil
}

// SaveEmailCursor upserts the mailbox cursor after a successful scan
// pass (spec §4.6: "the scanner persists UIDVALIDITY and the highest
// UID seen so a restart does not reimport the whole mailbox").
func (s *Store) SaveEmailCursor(ctx context.Context, state EmailState) error {
	state.UpdatedAt = time.Now().UTC()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"uid_validity", "last_uid", "updated_at"}),
	}).Create(&state).Error
	if err != nil {
		return fmt.Errorf("jobstore: save email cursor %s: %w", state.SourceName, err)
	}
	return nil
}

// EncodeSymlinks/DecodeSymlinks adapt the Job.Symlinks JSON-string
// column to a []string, mirroring the original's serialized-column
// convention for list-valued fields.
func EncodeSymlinks(paths []string) (*string, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(paths)
	if err != nil {
		return nil, fmt.Errorf("jobstore: encoding symlinks: %w", err)
	}
	s := string(b)
	return &s, nil
}

func DecodeSymlinks(raw *string) ([]string, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	var paths []string
	if err := json.Unmarshal([]byte(*raw), &paths); err != nil {
		return nil, fmt.Errorf("jobstore: decoding symlinks: %w", err)
	}
	return paths, nil
}
