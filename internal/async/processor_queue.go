package async

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
)

// FileProcessor is the part of core.Processor the workers need.
type FileProcessor interface {
	ProcessFile(ctx context.Context, invoiceID uuid.UUID, path string) (*entity.Invoice, error)
}

// Stats is a point-in-time view of the queue.
type Stats struct {
	Workers   int   `json:"workers"`
	Pending   int   `json:"pending"`
	InFlight  int64 `json:"inFlight"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// ProcessorQueue runs invoice extraction on a fixed pool of workers. Each job
// gets its own deadline so one stuck document cannot hold a worker forever.
type ProcessorQueue struct {
	proc    FileProcessor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	jobs chan Job
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	inFlight  atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.jobs = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// NewProcessorQueue starts the workers immediately.
func NewProcessorQueue(proc FileProcessor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		jobs:    make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	for i := 1; i <= q.workers; i++ {
		q.wg.Add(1)
		go q.work(i)
	}
	q.logger.Info("queue.started", "workers", q.workers, "capacity", cap(q.jobs), "timeout", q.timeout)
	return q
}

func (q *ProcessorQueue) work(workerID int) {
	defer q.wg.Done()
	for job := range q.jobs {
		q.run(workerID, job)
	}
	q.logger.Debug("queue.worker.stopped", "worker_id", workerID)
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	q.inFlight.Add(1)
	defer q.inFlight.Add(-1)

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	start := time.Now()
	inv, err := q.proc.ProcessFile(ctx, job.InvoiceID, job.Path)
	log := q.logger.With("worker_id", workerID, "invoice_id", job.InvoiceID, "elapsed_ms", time.Since(start).Milliseconds())
	if !job.SubmittedAt.IsZero() {
		log = log.With("since_submit_ms", time.Since(job.SubmittedAt).Milliseconds())
	}

	// ProcessFile reports extraction failures as a failed invoice; err alone may be a persistence error
	if err != nil || inv == nil || inv.Status == constants.StatusFailed {
		q.failed.Add(1)
		log.Warn("queue.job.failed", "error", err)
		return
	}
	q.completed.Add(1)
	log.Info("queue.job.completed", "status", inv.Status)
}

// Enqueue blocks when the buffer is full until a worker frees a slot or ctx ends.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.closed", "invoice_id", job.InvoiceID)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.jobs <- job:
		q.logger.Debug("queue.enqueued", "invoice_id", job.InvoiceID, "path", job.Path)
		return nil
	default:
	}
	q.logger.Warn("queue.full", "invoice_id", job.InvoiceID, "capacity", cap(q.jobs))
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats reports pending, running and finished job counts.
func (q *ProcessorQueue) Stats() Stats {
	return Stats{
		Workers:   q.workers,
		Pending:   len(q.jobs),
		InFlight:  q.inFlight.Load(),
		Completed: q.completed.Load(),
		Failed:    q.failed.Load(),
	}
}

// Shutdown stops intake and waits for queued jobs to drain or ctx to end.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted", "pending", len(q.jobs), "in_flight", q.inFlight.Load())
	case <-done:
		q.logger.Info("queue.shutdown.drained", "completed", q.completed.Load(), "failed", q.failed.Load())
	}
}
