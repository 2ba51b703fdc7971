package metrics

import "time"

// Job outcomes recorded in the status label of jobs_total.
const (
	JobCompleted = "completed"
	JobFailed    = "failed" // will be retried
	JobDead      = "dead"   // permanent error or attempts exhausted
)

// TrackJob marks a job as running and returns the function that records how
// it ended. retry is true from the second attempt on.
func TrackJob(jobType string, retry bool) func(outcome string) {
	if retry {
		JobRetriesTotal.WithLabelValues(jobType).Inc()
	}
	JobsInFlight.WithLabelValues(jobType).Inc()
	start := time.Now()

	return func(outcome string) {
		JobsInFlight.WithLabelValues(jobType).Dec()
		JobsTotal.WithLabelValues(jobType, outcome).Inc()
		JobDuration.WithLabelValues(jobType).Observe(time.Since(start).Seconds())
	}
}
