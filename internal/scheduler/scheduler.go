// Package scheduler runs recurring jobs — periodic opportunity scans
// (ScanJob) — on cron schedules, logging each run's outcome.
package scheduler

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is one schedulable unit of work. Name identifies it in logs;
// Run executes it and reports failure.
type Job interface {
	Run() error
	Name() string
}

// Scheduler wraps a cron.Cron with structured logging around every job
// run. It is not safe to AddJob concurrently with Start/Stop.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New constructs a Scheduler with second-resolution cron expressions,
// matching the granularity a scanner cadence of "every 30 seconds"
// needs that a minute-resolution standard cron spec can't express.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// Start begins running registered jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop blocks until any in-flight job finishes, then returns.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}

// AddJob registers job on the given cron schedule. Schedule examples:
//   - "0 */5 * * * *"   every 5 minutes
//   - "@hourly"         every hour
//   - "0 30 9 * * MON-FRI" 9:30am weekdays
//   - "@every 30s"      every 30 seconds
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		jobLog := s.log.With().Str("job", job.Name()).Logger()
		jobLog.Debug().Msg("job starting")

		if err := job.Run(); err != nil {
			jobLog.Error().Err(err).Msg("job failed")
			return
		}
		jobLog.Debug().Msg("job completed")
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("schedule", schedule).Str("job", job.Name()).Msg("job registered")
	return nil
}

// RunNow executes job immediately, outside its schedule.
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("running job on demand")
	return job.Run()
}
