// Package ingest turns collected SportMonks records into stored rows.
//
// Each sync job owns one collector whose collection type decides its
// priority tier. All collectors share the limiter handed to NewSyncer.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"sportsdata/ingestion/internal/collector"
	"sportsdata/ingestion/internal/metrics"
	"sportsdata/ingestion/internal/models"
	"sportsdata/ingestion/internal/priority"
	"sportsdata/ingestion/internal/ratelimit"

	"github.com/rs/zerolog/log"
)

// Job names accepted by Run.
const (
	JobLeagues       = priority.Leagues
	JobSeasons       = priority.Seasons
	JobTeams         = priority.Teams
	JobStates        = priority.States
	JobBookmakers    = priority.Bookmakers
	JobMarkets       = priority.Markets
	JobFixtures      = "fixtures"
	JobReferenceData = "reference_data"
)

// DefaultFixturesInclude is requested with every fixtures page unless
// overridden.
const DefaultFixturesInclude = "participants;scores;referees;odds;events;translations"

// ErrUnknownJob is returned by Run for names it does not know.
var ErrUnknownJob = errors.New("unknown sync job")

// Config controls page sizes and the fixtures window.
type Config struct {
	PageSize int

	// FixturesCollectionType is the priority key of the fixtures job.
	FixturesCollectionType string
	FixturesInclude        string
	LookaheadDays          int
}

// Report summarises one sync job run.
type Report struct {
	CollectionType string
	Tier           priority.Tier
	Units          int
	Pages          int
	Records        int
	Skipped        int
	Upserted       int
	Failed         int
	Outcome        collector.Outcome
}

func (r *Report) addUnit(u collector.UnitResult) {
	r.Units++
	r.Pages += u.Pages
	r.Records += len(u.Records)
	r.Outcome = u.Outcome
}

func (r *Report) addWrite(success, failure int) {
	r.Upserted += success
	r.Failed += failure
}

// Syncer runs the collection jobs of the worker.
type Syncer struct {
	cfg        Config
	stores     Stores
	priorities *priority.Manager
	collectors map[string]*collector.Collector
	now        func() time.Time
}

// NewSyncer builds one collector per job. opts are applied to every
// collector.
func NewSyncer(
	cfg Config,
	fetcher collector.Fetcher,
	limiter ratelimit.Limiter,
	priorities *priority.Manager,
	stores Stores,
	opts ...collector.Option,
) (*Syncer, error) {
	if err := stores.validate(); err != nil {
		return nil, err
	}
	if priorities == nil {
		priorities = priority.NewManager(nil)
	}
	if cfg.FixturesCollectionType == "" {
		cfg.FixturesCollectionType = priority.DynamicFixtures
	}
	if cfg.FixturesInclude == "" {
		cfg.FixturesInclude = DefaultFixturesInclude
	}
	if cfg.LookaheadDays < 0 {
		cfg.LookaheadDays = 0
	}

	configs := []collector.Config{
		{CollectionType: JobLeagues, Endpoint: collector.StaticEndpoint("leagues"), Include: "translations"},
		{CollectionType: JobSeasons, Endpoint: collector.StaticEndpoint("seasons")},
		{CollectionType: JobTeams, Endpoint: func(seasonID string) string { return "teams/seasons/" + seasonID }, Include: "venue;translations"},
		{CollectionType: JobStates, Endpoint: collector.StaticEndpoint("states"), Include: "translations"},
		{CollectionType: JobBookmakers, Endpoint: collector.StaticEndpoint("bookmakers")},
		{CollectionType: JobMarkets, Endpoint: collector.StaticEndpoint("markets")},
		{CollectionType: cfg.FixturesCollectionType, Endpoint: func(date string) string { return "fixtures/date/" + date }, Include: cfg.FixturesInclude},
	}

	s := &Syncer{
		cfg:        cfg,
		stores:     stores,
		priorities: priorities,
		collectors: make(map[string]*collector.Collector, len(configs)),
		now:        time.Now,
	}
	for _, cc := range configs {
		cc.PageSize = cfg.PageSize
		c, err := collector.New(cc, fetcher, limiter, priorities, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s collector: %w", cc.CollectionType, err)
		}
		s.collectors[cc.CollectionType] = c
	}

	return s, nil
}

// Run executes the named job. JobFixtures covers today through the
// configured lookahead.
func (s *Syncer) Run(ctx context.Context, job string) (Report, error) {
	switch job {
	case JobLeagues:
		return s.SyncLeagues(ctx)
	case JobSeasons:
		return s.SyncSeasons(ctx)
	case JobTeams:
		return s.SyncTeams(ctx)
	case JobStates:
		return s.SyncStates(ctx)
	case JobBookmakers:
		return s.SyncBookmakers(ctx)
	case JobMarkets:
		return s.SyncMarkets(ctx)
	case JobFixtures:
		return s.SyncUpcomingFixtures(ctx)
	case JobReferenceData:
		reports, err := s.SyncReferenceData(ctx)
		return mergeReports(JobReferenceData, reports), err
	default:
		return Report{}, fmt.Errorf("%w: %q", ErrUnknownJob, job)
	}
}

// SyncReferenceData refreshes the slow-changing tables in dependency
// order. A failing job does not stop the ones after it.
func (s *Syncer) SyncReferenceData(ctx context.Context) ([]Report, error) {
	jobs := []func(context.Context) (Report, error){
		s.SyncLeagues,
		s.SyncSeasons,
		s.SyncStates,
		s.SyncBookmakers,
		s.SyncMarkets,
	}

	var (
		reports []Report
		errs    []error
	)
	for _, job := range jobs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		report, err := job(ctx)
		reports = append(reports, report)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return reports, errors.Join(errs...)
}

// SyncLeagues stores every league with its translations.
func (s *Syncer) SyncLeagues(ctx context.Context) (Report, error) {
	return s.run(ctx, JobLeagues, func(ctx context.Context, c *collector.Collector, r *Report) error {
		unit, err := c.FetchAllPages(ctx, "")
		r.addUnit(unit)

		inputs := decodeAll[models.LeagueInput](c.CollectionType(), unit.Records, r)
		leagues := make([]*models.League, 0, len(inputs))
		var translations []*models.Translation
		for _, in := range inputs {
			leagues = append(leagues, in.ToLeague())
			translations = append(translations, in.ToTranslations()...)
		}
		r.addWrite(s.stores.Leagues.Upsert(ctx, leagues))
		r.addWrite(s.stores.Leagues.UpsertTranslations(ctx, translations))
		return err
	})
}

// SyncSeasons stores every season.
func (s *Syncer) SyncSeasons(ctx context.Context) (Report, error) {
	return s.run(ctx, JobSeasons, func(ctx context.Context, c *collector.Collector, r *Report) error {
		unit, err := c.FetchAllPages(ctx, "")
		r.addUnit(unit)

		inputs := decodeAll[models.SeasonInput](c.CollectionType(), unit.Records, r)
		seasons := make([]*models.Season, 0, len(inputs))
		for _, in := range inputs {
			seasons = append(seasons, in.ToSeason())
		}
		r.addWrite(s.stores.Seasons.Upsert(ctx, seasons))
		return err
	})
}

// SyncTeams stores the teams of every current season, one season per unit.
func (s *Syncer) SyncTeams(ctx context.Context) (Report, error) {
	return s.run(ctx, JobTeams, func(ctx context.Context, c *collector.Collector, r *Report) error {
		seasonIDs, err := s.stores.Seasons.CurrentSeasonIDs(ctx)
		if err != nil {
			return fmt.Errorf("failed to load current seasons: %w", err)
		}
		if len(seasonIDs) == 0 {
			log.Warn().Msg("No current seasons stored, skipping team sync")
			return nil
		}

		for _, id := range seasonIDs {
			unit, err := c.FetchAllPages(ctx, strconv.FormatInt(id, 10))
			r.addUnit(unit)

			inputs := decodeAll[models.TeamInput](c.CollectionType(), unit.Records, r)
			teams := make([]*models.Team, 0, len(inputs))
			var translations []*models.Translation
			for _, in := range inputs {
				teams = append(teams, in.ToTeam())
				translations = append(translations, in.ToTranslations()...)
			}
			r.addWrite(s.stores.Teams.Upsert(ctx, teams))
			r.addWrite(s.stores.Teams.UpsertTranslations(ctx, translations))

			if err != nil {
				return err
			}
		}
		return nil
	})
}

// SyncStates stores the fixture state catalogue.
func (s *Syncer) SyncStates(ctx context.Context) (Report, error) {
	return s.run(ctx, JobStates, func(ctx context.Context, c *collector.Collector, r *Report) error {
		unit, err := c.FetchAllPages(ctx, "")
		r.addUnit(unit)

		inputs := decodeAll[models.MatchStateInput](c.CollectionType(), unit.Records, r)
		states := make([]*models.MatchState, 0, len(inputs))
		var translations []*models.Translation
		for _, in := range inputs {
			states = append(states, in.ToMatchState())
			translations = append(translations, in.ToTranslations()...)
		}
		r.addWrite(s.stores.States.Upsert(ctx, states))
		r.addWrite(s.stores.States.UpsertTranslations(ctx, translations))
		return err
	})
}

// SyncBookmakers stores every bookmaker.
func (s *Syncer) SyncBookmakers(ctx context.Context) (Report, error) {
	return s.run(ctx, JobBookmakers, func(ctx context.Context, c *collector.Collector, r *Report) error {
		unit, err := c.FetchAllPages(ctx, "")
		r.addUnit(unit)

		inputs := decodeAll[models.BookmakerInput](c.CollectionType(), unit.Records, r)
		bookmakers := make([]*models.Bookmaker, 0, len(inputs))
		for _, in := range inputs {
			bookmakers = append(bookmakers, in.ToBookmaker())
		}
		r.addWrite(s.stores.Bookmakers.Upsert(ctx, bookmakers))
		return err
	})
}

// SyncMarkets stores every betting market.
func (s *Syncer) SyncMarkets(ctx context.Context) (Report, error) {
	return s.run(ctx, JobMarkets, func(ctx context.Context, c *collector.Collector, r *Report) error {
		unit, err := c.FetchAllPages(ctx, "")
		r.addUnit(unit)

		inputs := decodeAll[models.MarketInput](c.CollectionType(), unit.Records, r)
		markets := make([]*models.Market, 0, len(inputs))
		for _, in := range inputs {
			markets = append(markets, in.ToMarket())
		}
		r.addWrite(s.stores.Markets.Upsert(ctx, markets))
		return err
	})
}

// SyncUpcomingFixtures collects today through today plus the lookahead.
func (s *Syncer) SyncUpcomingFixtures(ctx context.Context) (Report, error) {
	today := s.now().UTC()
	return s.SyncFixtures(ctx, today, today.AddDate(0, 0, s.cfg.LookaheadDays))
}

// SyncFixtures collects every date in [from, to] and stores fixtures
// together with their translations, pre-match odds and events.
func (s *Syncer) SyncFixtures(ctx context.Context, from, to time.Time) (Report, error) {
	ct := s.cfg.FixturesCollectionType
	return s.run(ctx, ct, func(ctx context.Context, c *collector.Collector, r *Report) error {
		units, err := c.FetchRange(ctx, from, to)
		for _, unit := range units {
			r.addUnit(unit)
			s.storeFixtures(ctx, ct, unit.Records, r)
		}
		return err
	})
}

func (s *Syncer) storeFixtures(ctx context.Context, collectionType string, records []json.RawMessage, r *Report) {
	inputs := decodeAll[models.FixtureInput](collectionType, records, r)

	fixtures := make([]*models.Fixture, 0, len(inputs))
	var (
		translations []*models.Translation
		odds         []*models.FixtureOdd
		events       []*models.FixtureEvent
	)
	for _, in := range inputs {
		fixture, err := in.ToFixture()
		if err != nil {
			r.Skipped++
			log.Warn().
				Err(err).
				Str("collection_type", collectionType).
				Int64("fixture_id", in.ID).
				Msg("Skipping fixture")
			continue
		}
		fixtures = append(fixtures, fixture)
		translations = append(translations, in.ToTranslations()...)
		odds = append(odds, in.ToOdds(false)...)
		events = append(events, in.ToEvents()...)
	}

	r.addWrite(s.stores.Fixtures.Upsert(ctx, fixtures))
	r.addWrite(s.stores.Fixtures.UpsertTranslations(ctx, translations))
	r.addWrite(s.stores.Odds.Upsert(ctx, odds))
	r.addWrite(s.stores.Events.Upsert(ctx, events))
}

func (s *Syncer) run(
	ctx context.Context,
	collectionType string,
	job func(ctx context.Context, c *collector.Collector, r *Report) error,
) (Report, error) {
	start := time.Now()
	report := Report{
		CollectionType: collectionType,
		Tier:           s.priorities.Priority(collectionType),
	}

	c, ok := s.collectors[collectionType]
	if !ok {
		return report, fmt.Errorf("%w: %q", ErrUnknownJob, collectionType)
	}

	err := job(ctx, c, &report)
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
		metrics.RecordError("ingest", collectionType)
	}
	metrics.RecordSync(collectionType, status, duration.Seconds())

	event := log.Info()
	if err != nil {
		event = log.Error().Err(err)
	}
	event.
		Str("collection_type", collectionType).
		Str("priority", report.Tier.String()).
		Int("units", report.Units).
		Int("pages", report.Pages).
		Int("records", report.Records).
		Int("skipped", report.Skipped).
		Int("upserted", report.Upserted).
		Int("failed", report.Failed).
		Str("outcome", report.Outcome.String()).
		Dur("duration", duration).
		Msg("Sync finished")

	if err != nil {
		return report, fmt.Errorf("%s sync: %w", collectionType, err)
	}
	return report, nil
}

// decodeAll decodes every record into T. Records that do not decode are
// counted as skipped.
func decodeAll[T any](collectionType string, records []json.RawMessage, r *Report) []*T {
	out := make([]*T, 0, len(records))
	for _, raw := range records {
		v, err := models.Decode[T](raw)
		if err != nil {
			r.Skipped++
			log.Warn().
				Err(err).
				Str("collection_type", collectionType).
				Msg("Skipping undecodable record")
			continue
		}
		out = append(out, v)
	}
	return out
}

func mergeReports(name string, reports []Report) Report {
	merged := Report{CollectionType: name, Tier: priority.TierLow}
	for i, r := range reports {
		if i == 0 || r.Tier > merged.Tier {
			merged.Tier = r.Tier
		}
		merged.Units += r.Units
		merged.Pages += r.Pages
		merged.Records += r.Records
		merged.Skipped += r.Skipped
		merged.Upserted += r.Upserted
		merged.Failed += r.Failed
		merged.Outcome = r.Outcome
	}
	return merged
}
