package scheduler

import (
	"context"
	"fmt"
	"sync"

	"sportsdata/ingestion/internal/config"
	"sportsdata/ingestion/internal/ingest"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Runner executes a named sync job. *ingest.Syncer implements it.
type Runner interface {
	Run(ctx context.Context, job string) (ingest.Report, error)
}

// Entry binds a job to a cron expression.
type Entry struct {
	Job      string
	Schedule string
}

// EntriesFromConfig returns the cron entries of the worker.
func EntriesFromConfig(cfg *config.Config) []Entry {
	return []Entry{
		{Job: ingest.JobFixtures, Schedule: cfg.FixturesCron},
		{Job: ingest.JobReferenceData, Schedule: cfg.ReferenceDataCron},
		{Job: ingest.JobTeams, Schedule: cfg.TeamsCron},
	}
}

// Scheduler manages background collection jobs.
// A job still running when its next tick fires is skipped, not queued.
type Scheduler struct {
	runner  Runner
	entries []Entry
	cron    *cron.Cron

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewScheduler creates a new scheduler instance
func NewScheduler(runner Runner, entries []Entry) *Scheduler {
	logger := cronLogger{}
	return &Scheduler{
		runner:  runner,
		entries: entries,
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// Start registers every entry and starts the cron loop. Jobs run with a
// context derived from ctx that Stop cancels.
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	jobCtx, cancel := context.WithCancel(ctx)
	for _, entry := range s.entries {
		entry := entry
		if _, err := s.cron.AddFunc(entry.Schedule, func() {
			s.RunNow(jobCtx, entry.Job)
		}); err != nil {
			cancel()
			return fmt.Errorf("failed to schedule %s: %w", entry.Job, err)
		}
		log.Info().
			Str("job", entry.Job).
			Str("schedule", entry.Schedule).
			Msg("Job scheduled")
	}

	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.cron.Start()
	return nil
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	log.Info().Msg("Scheduler stopped")
}

// RunNow runs job synchronously and logs its outcome.
func (s *Scheduler) RunNow(ctx context.Context, job string) (ingest.Report, error) {
	log.Info().Str("job", job).Msg("Running sync job")

	report, err := s.runner.Run(ctx, job)
	if err != nil {
		log.Error().
			Err(err).
			Str("job", job).
			Str("priority", report.Tier.String()).
			Str("outcome", report.Outcome.String()).
			Msg("Sync job failed")
		return report, err
	}

	log.Info().
		Str("job", job).
		Str("priority", report.Tier.String()).
		Str("outcome", report.Outcome.String()).
		Int("records", report.Records).
		Int("upserted", report.Upserted).
		Msg("Sync job complete")
	return report, nil
}

// cronLogger routes cron's own messages to zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
