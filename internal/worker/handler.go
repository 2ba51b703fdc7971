package worker

import (
	"context"
	"errors"
)

// JobHandler runs one job type. Type must match the job_type stored by the
// Enqueue helpers; Handle receives the stored JSON payload as is.
type JobHandler interface {
	Type() string
	Handle(ctx context.Context, payload []byte) error
}

// PermanentError marks a failure that retrying cannot fix, such as a payload
// naming a receipt that no longer exists. The job is failed at once.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "permanent: " + e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// NewPermanentError wraps err so the worker does not retry the job.
func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err or anything it wraps is a PermanentError.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
