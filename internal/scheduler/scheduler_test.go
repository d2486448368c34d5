package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name  string
	calls atomic.Int32
	fail  bool
}

func (j *countingJob) Name() string { return j.name }
func (j *countingJob) Run() error {
	j.calls.Add(1)
	if j.fail {
		return errors.New("job failed")
	}
	return nil
}

func TestScheduler_AddJobRunsOnSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "tick"}

	require.NoError(t, s.AddJob("@every 10ms", job))
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return job.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_FailingJobDoesNotStopScheduler(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "flaky", fail: true}

	require.NoError(t, s.AddJob("@every 10ms", job))
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return job.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_RunNowExecutesImmediately(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "once"}

	require.NoError(t, s.RunNow(job))
	assert.Equal(t, int32(1), job.calls.Load())
}

func TestScheduler_AddJobRejectsInvalidSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	err := s.AddJob("not a cron expression", &countingJob{name: "bad"})
	assert.Error(t, err)
}
