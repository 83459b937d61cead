// Command manualfetch runs one collection job outside the worker schedule,
// e.g. to backfill a date range after an outage.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sportsdata/ingestion/internal/app"
	"sportsdata/ingestion/internal/collector"
	"sportsdata/ingestion/internal/config"
	"sportsdata/ingestion/internal/ingest"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "manualfetch",
		Short:         "Run a SportMonks collection job once",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newFixturesCmd(), newSyncCmd())
	return root
}

func newFixturesCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Collect fixtures, odds and events for a date range",
		Long: "Collect fixtures for every date in [--from, --to] (inclusive, UTC).\n" +
			"Both flags default to today; --to defaults to --from.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, end, err := parseRange(from, to, time.Now())
			if err != nil {
				return err
			}
			return withSyncer(cmd.Context(), func(ctx context.Context, s *ingest.Syncer) (ingest.Report, error) {
				return s.SyncFixtures(ctx, start, end)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first date to collect (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last date to collect (YYYY-MM-DD)")
	return cmd
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync JOB",
		Short: "Run one named sync job",
		Long: "Run one sync job: " + ingest.JobLeagues + ", " + ingest.JobSeasons + ", " +
			ingest.JobTeams + ", " + ingest.JobStates + ", " + ingest.JobBookmakers + ", " +
			ingest.JobMarkets + ", " + ingest.JobFixtures + " or " + ingest.JobReferenceData + ".",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job := args[0]
			return withSyncer(cmd.Context(), func(ctx context.Context, s *ingest.Syncer) (ingest.Report, error) {
				return s.Run(ctx, job)
			})
		},
	}
}

// parseRange resolves the --from/--to flags against now.
func parseRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	start := now.UTC()
	if from != "" {
		t, err := time.Parse(collector.DateLayout, from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from %q: expected YYYY-MM-DD", from)
		}
		start = t
	}

	end := start
	if to != "" {
		t, err := time.Parse(collector.DateLayout, to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to %q: expected YYYY-MM-DD", to)
		}
		end = t
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s",
			end.Format(collector.DateLayout), start.Format(collector.DateLayout))
	}
	return start, end, nil
}

func withSyncer(parent context.Context, run func(context.Context, *ingest.Syncer) (ingest.Report, error)) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	app.SetupLogger(cfg.AppEnv, cfg.LogLevel)

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := run(ctx, a.Syncer)
	log.Info().
		Str("collection_type", report.CollectionType).
		Str("priority", report.Tier.String()).
		Int("units", report.Units).
		Int("pages", report.Pages).
		Int("records", report.Records).
		Int("skipped", report.Skipped).
		Int("upserted", report.Upserted).
		Int("failed", report.Failed).
		Str("outcome", report.Outcome.String()).
		Msg("Manual fetch finished")
	return err
}
