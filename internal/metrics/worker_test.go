package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackJob(t *testing.T) {
	const jobType = "generate_receipt_thumbnail"
	dead := JobsTotal.WithLabelValues(jobType, JobDead)
	retries := JobRetriesTotal.WithLabelValues(jobType)
	deadBefore, retriesBefore := testutil.ToFloat64(dead), testutil.ToFloat64(retries)

	done := TrackJob(jobType, true)
	assert.Equal(t, float64(1), testutil.ToFloat64(JobsInFlight.WithLabelValues(jobType)))
	done(JobDead)

	assert.Equal(t, float64(0), testutil.ToFloat64(JobsInFlight.WithLabelValues(jobType)))
	assert.Equal(t, deadBefore+1, testutil.ToFloat64(dead))
	assert.Equal(t, retriesBefore+1, testutil.ToFloat64(retries))
}
