// Copyright (c) 2025 Justin Cranford

// Package worker implements the fixed-size document-processing pool
// (spec §4.8): a shared FIFO job queue drained by N goroutines, each
// running its own stateless *pipeline.Pipeline instance, feeding a
// results channel buffered to DefaultQueueCapacity that a caller
// drains independently; workers block once that buffer is full.
package worker

import (
	"context"
	"fmt"
	"sync"

	paporgPipeline "github.com/iperka/paporg-sub000/internal/pipeline"
)

// DefaultQueueCapacity bounds how many submitted jobs can sit in the
// queue before Submit blocks; it mirrors the results channel capacity
// so a burst of scanned documents can't grow without limit.
const DefaultQueueCapacity = 256

// ErrPoolStopped is returned by Submit once Shutdown has been called.
var ErrPoolStopped = fmt.Errorf("worker: pool is shut down")

// Pool runs Jobs through a shared *pipeline.Pipeline blueprint across
// a fixed number of worker goroutines (spec §4.8's "N workers, one
// pipeline instance per worker, no per-job allocation of pipeline
// state").
type Pool struct {
	newPipeline func() *paporgPipeline.Pipeline
	reporter    paporgPipeline.Reporter

	jobs    chan paporgPipeline.Job
	results chan paporgPipeline.Result

	wg      sync.WaitGroup
	closeMu sync.Mutex
	closed  bool
}

// New starts a Pool of workerCount goroutines, each built from
// newPipeline — called once per worker so every worker owns an
// independent *pipeline.Pipeline instance even though all instances
// share the same configuration (spec §4.8). reporter receives every
// phase-transition event from every worker; pass pipeline.NoopReporter
// when progress reporting isn't needed (e.g. in tests).
func New(workerCount int, newPipeline func() *paporgPipeline.Pipeline, reporter paporgPipeline.Reporter) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	if reporter == nil {
		reporter = paporgPipeline.NoopReporter{}
	}

	p := &Pool{
		newPipeline: newPipeline,
		reporter:    reporter,
		jobs:        make(chan paporgPipeline.Job, DefaultQueueCapacity),
		results:     make(chan paporgPipeline.Result, DefaultQueueCapacity),
	}

	for i := 0; i < workerCount; i++ {
		p.wg.Add(1)
		go p.runWorker()
	}

	return p
}

func (p *Pool) runWorker() {
	defer p.wg.Done()
	pipe := p.newPipeline()
	for job := range p.jobs {
		result, _ := pipe.Run(context.Background(), job, p.reporter)
		p.results <- result
	}
}

// Submit enqueues job for processing. It blocks once the queue is
// full and returns ErrPoolStopped if the pool has already been shut
// down. closeMu is held for the whole check-then-send so a concurrent
// Shutdown can't close p.jobs between the check and the send (which
// would otherwise panic with "send on closed channel").
func (p *Pool) Submit(job paporgPipeline.Job) error {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()

	if p.closed {
		return ErrPoolStopped
	}

	p.jobs <- job
	return nil
}

// TryRecvResult returns the next available Result without blocking,
// or (Result{}, false) when none is ready yet — the non-blocking
// drainer shape the original's result-consumer thread relies on to
// avoid filling the results channel.
func (p *Pool) TryRecvResult() (paporgPipeline.Result, bool) {
	select {
	case result, ok := <-p.results:
		return result, ok
	default:
		return paporgPipeline.Result{}, false
	}
}

// RecvResult blocks until a Result is available or ctx is done.
func (p *Pool) RecvResult(ctx context.Context) (paporgPipeline.Result, bool) {
	select {
	case result, ok := <-p.results:
		return result, ok
	case <-ctx.Done():
		return paporgPipeline.Result{}, false
	}
}

// Shutdown signals every worker to stop accepting new jobs by closing
// the job queue, then blocks until every in-flight job has finished
// and every worker goroutine has exited (spec §4.8's two-phase
// shutdown: signal, then join). It is safe to call Shutdown more than
// once.
func (p *Pool) Shutdown() {
	p.closeMu.Lock()
	if p.closed {
		p.closeMu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.closeMu.Unlock()

	p.wg.Wait()
	close(p.results)
}
