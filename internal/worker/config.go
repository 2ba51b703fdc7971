package worker

import (
	"fmt"
	"time"
)

// Config tunes the job poller. The dashboard runs two kinds of job: receipt
// thumbnails after a withdrawal is saved, and the hourly session purge.
type Config struct {
	// Concurrency is the number of pollers. Thumbnails decode whole images
	// in memory, so one poller is enough for a single dashboard instance.
	Concurrency int

	// PollInterval is how long an idle poller sleeps. Keep it short: the
	// operator is usually looking at the receipt they just uploaded.
	PollInterval time.Duration

	// JobTimeout bounds one job, covering a receipt download, a resize and
	// the upload of the thumbnail.
	JobTimeout time.Duration

	// ShutdownTimeout is how long Stop waits for running jobs before their
	// context is canceled.
	ShutdownTimeout time.Duration

	// StaleJobThreshold is the age after which a job still marked running is
	// put back in the queue on startup. It must exceed JobTimeout or a slow
	// but live job could be claimed twice.
	StaleJobThreshold time.Duration
}

// DefaultConfig returns the settings used when no WORKER_* variables are set.
func DefaultConfig() Config {
	return Config{
		Concurrency:       1,
		PollInterval:      2 * time.Second,
		JobTimeout:        time.Minute,
		ShutdownTimeout:   15 * time.Second,
		StaleJobThreshold: 5 * time.Minute,
	}
}

// Validate reports the first setting that is out of range.
func (c Config) Validate() error {
	switch {
	case c.Concurrency < 1:
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	case c.Concurrency > 16:
		return fmt.Errorf("concurrency too high (max 16), got %d", c.Concurrency)
	case c.PollInterval < 500*time.Millisecond:
		return fmt.Errorf("poll interval must be at least 500ms, got %v", c.PollInterval)
	case c.JobTimeout < time.Second:
		return fmt.Errorf("job timeout must be at least 1s, got %v", c.JobTimeout)
	case c.ShutdownTimeout < time.Second:
		return fmt.Errorf("shutdown timeout must be at least 1s, got %v", c.ShutdownTimeout)
	case c.StaleJobThreshold <= c.JobTimeout:
		return fmt.Errorf("stale job threshold %v must exceed job timeout %v", c.StaleJobThreshold, c.JobTimeout)
	}
	return nil
}
