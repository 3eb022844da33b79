package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/AUX01-gsconsig/Consultas-CLT/internal/repository"
)

// Poller periodically claims eligible jobs and hands them to the run queue.
// Claiming is atomic at the store, so multiple pollers or manual HTTP runs
// never pick up the same job twice.
type Poller struct {
	jobs         repository.JobRepository
	queue        *RunQueue
	interval     time.Duration
	attemptLimit int
	logger       *slog.Logger
}

func NewPoller(jobs repository.JobRepository, queue *RunQueue, interval time.Duration, attemptLimit int, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		jobs:         jobs,
		queue:        queue,
		interval:     interval,
		attemptLimit: attemptLimit,
		logger:       logger,
	}
}

// Run blocks until ctx is cancelled, draining eligible jobs every interval.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("poller started", "interval", p.interval)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return
		case <-ticker.C:
			p.drain(ctx)
		}
	}
}

// drain claims jobs until none qualify, enqueueing each for processing.
func (p *Poller) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		job, err := p.jobs.ClaimNextPending(ctx, p.attemptLimit)
		if err != nil {
			p.logger.Error("poller.claim.failed", "error", err)
			return
		}
		if job == nil {
			return
		}
		p.queue.Enqueue(Task{Job: job})
	}
}
