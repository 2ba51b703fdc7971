package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rongsox/dashboard/internal/repository"
)

// Job type constants - these must match the JobHandler.Type() values
const (
	JobTypeGenerateReceiptThumbnail = "generate_receipt_thumbnail"
	JobTypePurgeExpiredSessions     = "purge_expired_sessions"
)

// Priority constants for job scheduling
const (
	PriorityLow    = 0
	PriorityNormal = 10
	PriorityHigh   = 20
)

// GenerateReceiptThumbnailPayload is the payload for receipt thumbnail jobs.
type GenerateReceiptThumbnailPayload struct {
	ReceiptID uuid.UUID `json:"receipt_id"`
}

// PurgeExpiredSessionsPayload is the payload for session cleanup jobs.
type PurgeExpiredSessionsPayload struct{}

// EnqueueOption is a functional option for customizing job enqueue parameters.
type EnqueueOption func(*repository.EnqueueJobParams)

// WithPriority sets the job priority.
func WithPriority(priority int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.Priority = priority
	}
}

// WithMaxAttempts sets the maximum number of retry attempts.
func WithMaxAttempts(attempts int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.MaxAttempts = attempts
	}
}

// WithDelay schedules the job to run after a delay.
func WithDelay(delay time.Duration) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.ScheduledAt = time.Now().Add(delay)
	}
}

// EnqueueJob is a generic helper for enqueuing jobs with custom options.
func EnqueueJob(
	ctx context.Context,
	queries *repository.Queries,
	jobType string,
	payload interface{},
	opts ...EnqueueOption,
) (repository.Job, error) {
	// Marshal the payload to JSON
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return repository.Job{}, fmt.Errorf("marshal payload: %w", err)
	}

	// Default parameters
	params := repository.EnqueueJobParams{
		JobType:     jobType,
		Payload:     payloadJSON,
		Priority:    PriorityNormal,
		MaxAttempts: 3,
		ScheduledAt: time.Now(),
	}

	// Apply options
	for _, opt := range opts {
		opt(&params)
	}

	// Enqueue the job
	job, err := queries.EnqueueJob(ctx, params)
	if err != nil {
		return repository.Job{}, fmt.Errorf("enqueue job: %w", err)
	}

	return job, nil
}

// EnqueueGenerateReceiptThumbnail enqueues a thumbnail job for an archived
// withdrawal receipt.
func EnqueueGenerateReceiptThumbnail(
	ctx context.Context,
	queries *repository.Queries,
	receiptID uuid.UUID,
	opts ...EnqueueOption,
) (repository.Job, error) {
	payload := GenerateReceiptThumbnailPayload{ReceiptID: receiptID}
	return EnqueueJob(ctx, queries, JobTypeGenerateReceiptThumbnail, payload, opts...)
}

// EnqueuePurgeExpiredSessions enqueues a cleanup of expired sessions.
func EnqueuePurgeExpiredSessions(
	ctx context.Context,
	queries *repository.Queries,
	opts ...EnqueueOption,
) (repository.Job, error) {
	opts = append([]EnqueueOption{WithPriority(PriorityLow), WithMaxAttempts(1)}, opts...)
	return EnqueueJob(ctx, queries, JobTypePurgeExpiredSessions, PurgeExpiredSessionsPayload{}, opts...)
}
