// Copyright (c) 2025 Justin Cranford

package app

import (
	"context"
	"log/slog"

	paporgBroadcast "github.com/iperka/paporg-sub000/internal/broadcast"
	paporgJobstore "github.com/iperka/paporg-sub000/internal/jobstore"
)

// jobReporter implements pipeline.Reporter: every phase-transition
// event is applied to the in-memory cache and persisted to the
// durable store, then fanned out to every job-progress subscriber
// (spec §4.6/§4.7). This is the bridge original's TauriAppState built
// implicitly via its job_broadcaster/job_store pair; here it is one
// small seam-implementing type instead of inline closures.
type jobReporter struct {
	cache       *paporgJobstore.Cache
	store       *paporgJobstore.Store
	broadcaster *paporgBroadcast.Broadcaster[paporgJobstore.Event]
	logger      *slog.Logger
}

func newJobReporter(cache *paporgJobstore.Cache, store *paporgJobstore.Store, broadcaster *paporgBroadcast.Broadcaster[paporgJobstore.Event], logger *slog.Logger) *jobReporter {
	return &jobReporter{cache: cache, store: store, broadcaster: broadcaster, logger: logger}
}

// Report applies event to the cache/store and republishes it. Persist
// failures are logged, not returned: a Reporter has no error return
// (spec's Reporter seam is fire-and-forget so pipeline stages never
// block on storage latency), matching the original's "log and
// continue" handling of job-result persistence errors.
func (r *jobReporter) Report(event paporgJobstore.Event) {
	if err := r.cache.UpdateAndPersist(context.Background(), r.store, event); err != nil {
		r.logger.Error("job persistence failed", "job_id", event.JobID, "phase", event.Phase, "error", err)
	}
	if r.broadcaster != nil {
		r.broadcaster.Publish(event)
	}
}
