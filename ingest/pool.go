package ingest

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/klipworks/kliping/config"
	"github.com/klipworks/kliping/models"
)

// Job is one submitted scrape run. Done is closed when the run
// finishes; Outcome and Err are valid only after that. A caller may
// await Done (sync mode) or ignore it (fire-and-forget). Either way
// the worker logs the result, so detached failures are never silent.
type Job struct {
	ID      string
	Request models.ScrapeRequest

	Outcome *Outcome
	Err     error

	done chan struct{}
}

// Done is closed when the job's run has completed.
func (j *Job) Done() <-chan struct{} { return j.done }

// Pool runs scrape jobs on a fixed set of workers over a bounded
// queue. The bound is the explicit concurrency cap on simultaneous
// browser sessions and store writes.
type Pool struct {
	orch    *Orchestrator
	jobs    chan *Job
	workers int

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewPool starts the worker goroutines immediately.
func NewPool(orch *Orchestrator, cfg config.WorkerConfig) *Pool {
	workers := cfg.PoolSize
	if workers <= 0 {
		workers = 1
	}
	queue := cfg.QueueSize
	if queue < 0 {
		queue = 0
	}

	p := &Pool{
		orch:    orch,
		jobs:    make(chan *Job, queue),
		workers: workers,
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	slog.Info("worker pool started", "workers", workers, "queue", queue)

	return p
}

// Submit enqueues a scrape run without blocking. When the queue is at
// capacity it fails fast with QUEUE_FULL rather than stalling the
// caller.
func (p *Pool) Submit(req models.ScrapeRequest) (*Job, error) {
	job := &Job{
		ID:      uuid.NewString(),
		Request: req,
		done:    make(chan struct{}),
	}

	select {
	case p.jobs <- job:
		return job, nil
	default:
		return nil, models.NewScrapeError(
			models.ErrCodeQueueFull,
			"scrape queue is full, retry later",
			nil,
		)
	}
}

// QueueDepth reports the number of jobs waiting for a worker.
func (p *Pool) QueueDepth() int { return len(p.jobs) }

// Workers reports the worker count.
func (p *Pool) Workers() int { return p.workers }

// Close stops accepting jobs and waits for in-flight runs to finish.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.jobs)
	})
	p.wg.Wait()
	slog.Info("worker pool drained")
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		// Runs deliberately outlive the originating request: once
		// started, a run proceeds to completion or internal failure.
		job.Outcome, job.Err = p.orch.Run(context.Background(), job.ID, job.Request)
		if job.Err != nil {
			slog.Error("scrape job failed",
				"run_id", job.ID,
				"site", job.Request.Site,
				"query", job.Request.Query,
				"error", job.Err,
			)
		}
		close(job.done)
	}
}
