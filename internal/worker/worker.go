package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rongsox/dashboard/internal/metrics"
	"github.com/rongsox/dashboard/internal/repository"
)

// Worker polls the jobs table and runs registered handlers. It carries the
// dashboard's receipt thumbnails and session cleanup off the request path.
type Worker struct {
	db        *sql.DB
	queries   *repository.Queries
	handlers  map[string]JobHandler
	schedules []schedule
	config    Config
	logger    *slog.Logger

	// jobCtx outlives the caller's context so a SIGTERM lets running jobs
	// finish; cancelJobs aborts them once ShutdownTimeout passes.
	jobCtx     context.Context
	cancelJobs context.CancelFunc

	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a Worker. Start it with Start and stop it with Stop.
func New(db *sql.DB, queries *repository.Queries, config Config, logger *slog.Logger) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	jobCtx, cancel := context.WithCancel(context.Background())
	return &Worker{
		db:         db,
		queries:    queries,
		handlers:   make(map[string]JobHandler),
		config:     config,
		logger:     logger.With("component", "worker"),
		jobCtx:     jobCtx,
		cancelJobs: cancel,
		stopCh:     make(chan struct{}),
	}, nil
}

// Register adds a job handler. Call this before Start().
func (w *Worker) Register(handler JobHandler) {
	jobType := handler.Type()
	if _, exists := w.handlers[jobType]; exists {
		w.logger.Warn("Overwriting existing handler", "job_type", jobType)
	}
	w.handlers[jobType] = handler
	w.logger.Debug("Registered job handler", "job_type", jobType)
}

// Start recovers jobs orphaned by a crashed process, then launches the
// pollers and schedules. ctx only bounds the recovery step.
func (w *Worker) Start(ctx context.Context) {
	if err := w.recoverStaleJobs(ctx); err != nil {
		w.logger.Error("Failed to recover stale jobs", "error", err)
	}

	for i := 0; i < w.config.Concurrency; i++ {
		w.wg.Add(1)
		go w.runWorker(i + 1)
	}

	for _, s := range w.schedules {
		w.wg.Add(1)
		go w.runSchedule(w.jobCtx, s)
	}

	w.logger.Info("Worker started", "concurrency", w.config.Concurrency, "schedules", len(w.schedules))
}

// Stop stops polling and waits up to ShutdownTimeout for running jobs.
// Jobs still running after that have their context canceled. Stop is safe
// to call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("Stopping worker...")
		close(w.stopCh)

		done := make(chan struct{})
		go func() {
			w.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			w.logger.Info("Worker stopped gracefully")
		case <-time.After(w.config.ShutdownTimeout):
			w.logger.Warn("Worker shutdown timeout exceeded, canceling running jobs")
		}
		w.cancelJobs()
	})
}

func (w *Worker) recoverStaleJobs(ctx context.Context) error {
	count, err := w.queries.RecoverStaleJobs(ctx, w.config.StaleJobThreshold.Seconds())
	if err != nil {
		return fmt.Errorf("recover stale jobs: %w", err)
	}
	if count > 0 {
		w.logger.Warn("Recovered stale jobs", "count", count, "threshold", w.config.StaleJobThreshold)
	}
	return nil
}

// runWorker polls until stopCh is closed. After a job runs it polls again
// straight away so a burst of withdrawals drains without waiting a tick per
// receipt.
func (w *Worker) runWorker(workerID int) {
	defer w.wg.Done()

	logger := w.logger.With("worker_id", workerID)
	logger.Debug("Worker started")

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			logger.Debug("Worker stopping")
			return
		case <-ticker.C:
		}

		for {
			err := w.processNextJob(w.jobCtx, logger)
			if errors.Is(err, sql.ErrNoRows) {
				break
			}
			if err != nil {
				logger.Error("Failed to process job", "error", err)
				break
			}
			select {
			case <-w.stopCh:
				return
			default:
			}
		}
	}
}

// processNextJob dequeues and runs one job. Returns sql.ErrNoRows when the
// queue is empty.
func (w *Worker) processNextJob(ctx context.Context, logger *slog.Logger) error {
	job, err := w.dequeue(ctx)
	if err != nil {
		return err
	}

	logger = logger.With("job_id", job.ID, "job_type", job.JobType, "attempt", job.Attempts+1)
	logger.Info("Processing job")

	start := time.Now()
	done := metrics.TrackJob(job.JobType, job.Attempts > 0)
	if err := w.executeJob(ctx, job); err != nil {
		outcome := metrics.JobFailed
		if IsPermanent(err) || job.Attempts+1 >= job.MaxAttempts {
			outcome = metrics.JobDead
		}
		done(outcome)
		logger.Error("Job failed", "error", err, "duration", time.Since(start))
		w.markJobFailed(ctx, job.ID, err)
		return nil
	}
	done(metrics.JobCompleted)

	logger.Info("Job completed", "duration", time.Since(start))
	return w.markJobCompleted(ctx, job.ID)
}

// dequeue claims the next pending job and marks it running in one
// transaction so two pollers never take the same row.
func (w *Worker) dequeue(ctx context.Context) (repository.Job, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return repository.Job{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := w.queries.WithTx(tx)

	job, err := qtx.DequeueJob(ctx)
	if err != nil {
		return repository.Job{}, err
	}
	if err := qtx.UpdateJobStarted(ctx, job.ID); err != nil {
		return repository.Job{}, fmt.Errorf("mark job started: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return repository.Job{}, fmt.Errorf("commit dequeue: %w", err)
	}
	return job, nil
}

// executeJob runs the handler for job under JobTimeout. A handler panic is
// reported as a permanent failure instead of killing the poller.
func (w *Worker) executeJob(ctx context.Context, job repository.Job) (err error) {
	handler, ok := w.handlers[job.JobType]
	if !ok {
		return NewPermanentError(fmt.Errorf("no handler registered for job type: %s", job.JobType))
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.config.JobTimeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			err = NewPermanentError(fmt.Errorf("job handler panicked: %v", rec))
		}
	}()

	return handler.Handle(jobCtx, job.Payload)
}

func (w *Worker) markJobCompleted(ctx context.Context, jobID uuid.UUID) error {
	if err := w.queries.UpdateJobCompleted(ctx, jobID); err != nil {
		return fmt.Errorf("update job completed: %w", err)
	}
	return nil
}

// markJobFailed records the failure. Permanent errors and exhausted attempts
// end the job; anything else is retried with backoff by the query.
func (w *Worker) markJobFailed(ctx context.Context, jobID uuid.UUID, jobErr error) {
	permanent := IsPermanent(jobErr)
	if permanent {
		w.logger.Warn("Job failed with permanent error, will not retry", "job_id", jobID, "error", jobErr)
	}

	params := repository.UpdateJobFailedParams{
		ID:           jobID,
		ErrorMessage: sql.NullString{String: jobErr.Error(), Valid: true},
		Permanent:    permanent,
	}
	if err := w.queries.UpdateJobFailed(ctx, params); err != nil {
		w.logger.Error("Failed to mark job as failed", "job_id", jobID, "error", err)
	}
}
