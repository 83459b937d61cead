package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sportsdata/ingestion/internal/config"
	"sportsdata/ingestion/internal/ingest"
	"sportsdata/ingestion/internal/priority"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu    sync.Mutex
	runs  map[string]int
	err   error
	block chan struct{}
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{runs: make(map[string]int)}
}

func (r *fakeRunner) Run(ctx context.Context, job string) (ingest.Report, error) {
	r.mu.Lock()
	r.runs[job]++
	block := r.block
	r.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ingest.Report{}, ctx.Err()
		}
	}
	return ingest.Report{CollectionType: job, Tier: priority.TierHigh, Records: 3}, r.err
}

func (r *fakeRunner) count(job string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[job]
}

func TestEntriesFromConfig(t *testing.T) {
	cfg := &config.Config{
		FixturesCron:      "*/5 * * * *",
		ReferenceDataCron: "0 3 * * *",
		TeamsCron:         "30 3 * * *",
	}

	entries := EntriesFromConfig(cfg)
	assert.Equal(t, []Entry{
		{Job: ingest.JobFixtures, Schedule: "*/5 * * * *"},
		{Job: ingest.JobReferenceData, Schedule: "0 3 * * *"},
		{Job: ingest.JobTeams, Schedule: "30 3 * * *"},
	}, entries)
}

func TestRunNow(t *testing.T) {
	runner := newFakeRunner()
	s := NewScheduler(runner, nil)

	report, err := s.RunNow(context.Background(), ingest.JobFixtures)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Records)
	assert.Equal(t, 1, runner.count(ingest.JobFixtures))

	runner.err = errors.New("upstream down")
	_, err = s.RunNow(context.Background(), ingest.JobFixtures)
	assert.EqualError(t, err, "upstream down")
}

func TestStart_RejectsInvalidSchedule(t *testing.T) {
	s := NewScheduler(newFakeRunner(), []Entry{{Job: ingest.JobTeams, Schedule: "not a cron"}})

	err := s.Start(context.Background())
	assert.ErrorContains(t, err, ingest.JobTeams)
}

func TestStart_RunsScheduledJobs(t *testing.T) {
	runner := newFakeRunner()
	s := NewScheduler(runner, []Entry{{Job: ingest.JobFixtures, Schedule: "@every 1s"}})

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return runner.count(ingest.JobFixtures) >= 1
	}, 3*time.Second, 50*time.Millisecond)
}

func TestStop_CancelsRunningJob(t *testing.T) {
	runner := newFakeRunner()
	runner.block = make(chan struct{})
	s := NewScheduler(runner, []Entry{{Job: ingest.JobReferenceData, Schedule: "@every 1s"}})

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool {
		return runner.count(ingest.JobReferenceData) >= 1
	}, 3*time.Second, 50*time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after cancelling the running job")
	}
}
