package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/AUX01-gsconsig/Consultas-CLT/internal/entity"
)

// Task is one queued pipeline run. Jobs are claimed before they are
// enqueued, so a task is already exclusively owned.
type Task struct {
	Job         *entity.Job
	Reprocess   bool
	SubmittedAt time.Time
}

// RunQueue fans claimed jobs out to a bounded set of workers. Each run stays
// sequential internally; the queue only bounds how many jobs run at once.
type RunQueue struct {
	ctrl    *Controller
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Task
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type QueueOption func(*RunQueue)

func WithWorkers(n int) QueueOption {
	return func(q *RunQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithRunTimeout(d time.Duration) QueueOption {
	return func(q *RunQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewRunQueue(ctrl *Controller, logger *slog.Logger, opts ...QueueOption) *RunQueue {
	q := &RunQueue{
		ctrl:    ctrl,
		logger:  logger,
		workers: 1,
		timeout: 5 * time.Minute,
		ch:      make(chan Task, 64),
	}
	if logger == nil {
		q.logger = slog.Default()
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *RunQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for task := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					res := q.ctrl.Run(ctx, task.Job, task.Reprocess)
					cancel()

					if res.Status != "ok" {
						q.logger.Error("run failed",
							"worker_id", workerID, "job_id", task.Job.ID,
							"stage", res.Stage, "detail", res.Message,
							"limit_reached", res.AttemptLimitReached)
					} else {
						q.logger.Info("run finished",
							"worker_id", workerID, "job_id", task.Job.ID)
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue hands a claimed job to the workers, blocking when the queue is
// saturated. Submissions after shutdown are dropped with a warning.
func (q *RunQueue) Enqueue(task Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "job_id", task.Job.ID)
		return
	}
	task.SubmittedAt = time.Now()
	select {
	case q.ch <- task:
		q.logger.Info("queued job for processing", "job_id", task.Job.ID)
	default:
		q.logger.Warn("queue full, applying backpressure", "job_id", task.Job.ID)
		q.ch <- task
	}
}

// Shutdown stops intake and waits for in-flight runs, bounded by ctx.
func (q *RunQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
