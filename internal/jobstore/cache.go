// Copyright (c) 2025 Justin Cranford

package jobstore

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Event is a JobProgressEvent: a partial update to a job's record.
// Only non-nil fields overwrite the prior value (spec §4.6's
// partial-update upsert semantics); Status/Phase are always applied
// since every event carries them.
type Event struct {
	JobID       string
	Filename    string
	SourcePath  string
	SourceName  *string
	Status      Status
	Phase       string
	Message     *string
	Error       *string
	Category    *string
	OutputPath  *string
	ArchivePath *string
	Symlinks    *string
	MimeType    *string
	OCRText     *string
	Terminal    bool
}

// Cache is the in-memory map keyed by job id that mirrors the
// persistent store (spec §4.6). It is safe for concurrent use: reads
// take a read lock, writes take a write lock (spec §5's "JobStore
// cache writes are linearized via a per-store lock").
type Cache struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

// NewCache builds an empty Cache.
func NewCache() *Cache {
	return &Cache{jobs: map[string]Job{}}
}

// Update applies event to the cache: creates a row if JobID is
// unknown (spec §4.6 invariant), otherwise merges non-nil fields over
// the existing row. Terminal events set CompletedAt unconditionally.
func (c *Cache) Update(event Event) Job {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC()
	job, exists := c.jobs[event.JobID]
	if !exists {
		job = Job{
			ID:         event.JobID,
			Filename:   event.Filename,
			SourcePath: event.SourcePath,
			Status:     string(event.Status),
			CreatedAt:  now,
		}
	}

	job.Status = string(event.Status)
	phase := event.Phase
	job.CurrentPhase = &phase
	job.UpdatedAt = now

	if event.SourceName != nil {
		job.SourceName = event.SourceName
	}
	if event.Message != nil {
		job.Message = event.Message
	}
	if event.Error != nil {
		job.Error = event.Error
	}
	if event.Category != nil {
		job.Category = *event.Category
	}
	if event.OutputPath != nil {
		job.OutputPath = event.OutputPath
	}
	if event.ArchivePath != nil {
		job.ArchivePath = event.ArchivePath
	}
	if event.Symlinks != nil {
		job.Symlinks = event.Symlinks
	}
	if event.MimeType != nil {
		job.MimeType = event.MimeType
	}
	if event.OCRText != nil {
		job.OCRText = event.OCRText
	}
	if event.Terminal {
		job.CompletedAt = &now
	}

	c.jobs[event.JobID] = job
	return job
}

// Get returns a cached job, or false when not present.
func (c *Cache) Get(id string) (Job, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	job, ok := c.jobs[id]
	return job, ok
}

// Remove evicts a job from the cache (used by Rerun's supersede path).
func (c *Cache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.jobs, id)
}

// Len reports the number of cached jobs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.jobs)
}

// WarmLoad populates the cache at startup with every "processing" job
// plus up to limit most-recent non-superseded rows (spec §4.6).
func (c *Cache) WarmLoad(ctx context.Context, store *Store, limit int) error {
	processingStatus := string(StatusProcessing)
	processing, _, err := store.Query(ctx, Filter{Status: &processingStatus, Limit: 1 << 30})
	if err != nil {
		return fmt.Errorf("jobstore: warm load processing rows: %w", err)
	}

	recent, _, err := store.Query(ctx, Filter{Limit: limit})
	if err != nil {
		return fmt.Errorf("jobstore: warm load recent rows: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, job := range processing {
		c.jobs[job.ID] = job
	}
	for _, job := range recent {
		c.jobs[job.ID] = job
	}
	return nil
}

// UpdateAndPersist applies event to the cache, then upserts the
// result to the durable store (spec §4.6's update_and_persist).
func (c *Cache) UpdateAndPersist(ctx context.Context, store *Store, event Event) error {
	job := c.Update(event)

	existing, err := store.FindByID(ctx, job.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return store.Insert(ctx, &job)
	}
	return store.Update(ctx, &job)
}
