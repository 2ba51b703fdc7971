package worker

import (
	"context"
	"time"
)

// schedule is a job enqueued on a fixed interval.
type schedule struct {
	every   time.Duration
	enqueue func(ctx context.Context) error
	jobType string
}

// Every enqueues jobType with payload once per interval while the worker runs.
// Call this before Start().
func (w *Worker) Every(interval time.Duration, jobType string, payload interface{}, opts ...EnqueueOption) {
	w.schedules = append(w.schedules, schedule{
		every:   interval,
		jobType: jobType,
		enqueue: func(ctx context.Context) error {
			_, err := EnqueueJob(ctx, w.queries, jobType, payload, opts...)
			return err
		},
	})
}

// runSchedule enqueues s until stopCh is closed.
func (w *Worker) runSchedule(ctx context.Context, s schedule) {
	defer w.wg.Done()

	ticker := time.NewTicker(s.every)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			if err := s.enqueue(ctx); err != nil {
				w.logger.Error("Failed to enqueue scheduled job", "job_type", s.jobType, "error", err)
			}
		}
	}
}
