// Package collector walks paginated SportMonks endpoints under a shared
// request budget.
//
// Every page request is admitted by a ratelimit.Limiter before it reaches
// the network. A denied page ends the current unit early and the records
// gathered so far are returned without error; callers retry the unit on a
// later run.
package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sportsdata/ingestion/internal/client"
	"sportsdata/ingestion/internal/metrics"
	"sportsdata/ingestion/internal/priority"
	"sportsdata/ingestion/internal/ratelimit"
	"sportsdata/ingestion/internal/retry"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DateLayout is the unit format used by FetchRange.
const DateLayout = "2006-01-02"

var (
	// ErrMalformedResponse marks a page whose data member could not be read
	// as a list of records.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrInvalidRange is returned by FetchRange when to is before from.
	ErrInvalidRange = errors.New("invalid date range")

	errAdmissionDenied = errors.New("admission denied by rate limiter")
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Fetcher performs one upstream call. *client.Client implements it.
type Fetcher interface {
	GetData(ctx context.Context, endpoint string, params client.Params) (*client.Envelope, error)
}

// Outcome tags the result of a single page request.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeDenied
	OutcomeEndOfData
	OutcomeMalformed
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeDenied:
		return "denied"
	case OutcomeEndOfData:
		return "end_of_data"
	case OutcomeMalformed:
		return "malformed"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PageResult is the outcome of one page request.
type PageResult struct {
	Outcome Outcome
	Records []json.RawMessage
	HasMore bool
	Err     error
}

// UnitResult holds everything collected for one unit. Outcome is the
// outcome of the last page requested.
type UnitResult struct {
	Unit    string
	Records []json.RawMessage
	Pages   int
	Outcome Outcome
	Err     error
}

// Config describes one collection type.
type Config struct {
	// CollectionType is the key used for priority lookup, logs and metrics.
	CollectionType string

	// Endpoint maps a unit (a date for FetchRange, "" for single-unit
	// endpoints) to the API path.
	Endpoint func(unit string) string

	PageSize int
	Include  string

	// Params are sent with every request of this collection type.
	Params client.Params
}

// StaticEndpoint returns an Endpoint that ignores the unit.
func StaticEndpoint(path string) func(string) string {
	return func(string) string { return path }
}

// Collector fetches pages for one collection type.
type Collector struct {
	cfg        Config
	fetcher    Fetcher
	limiter    ratelimit.Limiter
	priorities *priority.Manager
	admission  priority.AdmissionPolicy
	retry      *retry.Policy
	executor   *retry.Executor
}

// Option configures a Collector.
type Option func(*Collector)

// WithAdmissionPolicy reserves part of the request budget for higher tiers.
func WithAdmissionPolicy(p priority.AdmissionPolicy) Option {
	return func(c *Collector) { c.admission = p }
}

// WithRetry retries recoverable page failures under policy. Each attempt
// is admitted by the limiter again.
func WithRetry(policy retry.Policy) Option {
	return func(c *Collector) { c.retry = &policy }
}

// WithExecutor replaces the retry executor, mainly for tests.
func WithExecutor(e *retry.Executor) Option {
	return func(c *Collector) { c.executor = e }
}

// New creates a Collector. A nil priorities manager means built-in defaults.
func New(cfg Config, fetcher Fetcher, limiter ratelimit.Limiter, priorities *priority.Manager, opts ...Option) (*Collector, error) {
	if cfg.CollectionType == "" {
		return nil, errors.New("collector: collection type is required")
	}
	if cfg.Endpoint == nil {
		return nil, errors.New("collector: endpoint is required")
	}
	if fetcher == nil || limiter == nil {
		return nil, errors.New("collector: fetcher and limiter are required")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if priorities == nil {
		priorities = priority.NewManager(nil)
	}

	c := &Collector{
		cfg:        cfg,
		fetcher:    fetcher,
		limiter:    limiter,
		priorities: priorities,
		executor:   retry.NewExecutor(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CollectionType returns the configured collection type.
func (c *Collector) CollectionType() string {
	return c.cfg.CollectionType
}

// FetchPage requests one page of unit.
func (c *Collector) FetchPage(ctx context.Context, unit string, page int) PageResult {
	logger := loggerFrom(ctx)
	tier := c.priorities.Priority(c.cfg.CollectionType)
	endpoint := c.cfg.Endpoint(unit)

	logger.Debug().
		Str("collection_type", c.cfg.CollectionType).
		Str("priority", tier.String()).
		Str("unit", unit).
		Int("page", page).
		Msg("Fetching page")

	attempt := func(ctx context.Context) (*client.Envelope, error) {
		if !c.admit(ctx, tier) {
			return nil, errAdmissionDenied
		}
		return c.fetcher.GetData(ctx, endpoint, c.params(page))
	}

	var (
		env *client.Envelope
		err error
	)
	if c.retry != nil {
		name := c.cfg.CollectionType + ":" + endpoint
		env, err = retry.DoWith(ctx, c.executor, *c.retry, name, attempt)
	} else {
		env, err = attempt(ctx)
	}

	result := c.classify(env, err)
	metrics.RecordPage(c.cfg.CollectionType, result.Outcome.String())

	switch result.Outcome {
	case OutcomeDenied:
		logger.Warn().
			Str("collection_type", c.cfg.CollectionType).
			Str("priority", tier.String()).
			Str("unit", unit).
			Int("page", page).
			Msg("Rate limit reached, skipping page")
	case OutcomeMalformed:
		logger.Warn().
			Err(result.Err).
			Str("collection_type", c.cfg.CollectionType).
			Str("unit", unit).
			Int("page", page).
			Msg("Malformed page, ending unit")
	case OutcomeFailed:
		logger.Error().
			Err(result.Err).
			Str("collection_type", c.cfg.CollectionType).
			Str("unit", unit).
			Int("page", page).
			Msg("Failed to fetch page")
	}
	return result
}

// FetchAllPages collects every page of unit in ascending page order.
//
// Denied, empty and malformed pages end the unit and return what was
// gathered with a nil error. An upstream failure is returned together with
// the partial result.
func (c *Collector) FetchAllPages(ctx context.Context, unit string) (UnitResult, error) {
	ctx = withRunLogger(ctx)
	logger := loggerFrom(ctx)

	result := UnitResult{Unit: unit}
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			result.Err = err
			return result, err
		}

		res := c.FetchPage(ctx, unit, page)
		result.Outcome = res.Outcome

		switch res.Outcome {
		case OutcomeOK:
			result.Records = append(result.Records, res.Records...)
			result.Pages++
			metrics.RecordRecords(c.cfg.CollectionType, len(res.Records))
			if res.HasMore {
				continue
			}
		case OutcomeFailed:
			result.Err = res.Err
			return result, fmt.Errorf("collect %s unit %q page %d: %w", c.cfg.CollectionType, unit, page, res.Err)
		}

		logger.Info().
			Str("collection_type", c.cfg.CollectionType).
			Str("unit", unit).
			Int("pages", result.Pages).
			Int("records", len(result.Records)).
			Str("outcome", result.Outcome.String()).
			Msg("Unit collection finished")
		return result, nil
	}
}

// FetchRange runs FetchAllPages for every date in [from, to], one date at
// a time. An upstream failure stops the range and is returned with the
// units completed before it.
func (c *Collector) FetchRange(ctx context.Context, from, to time.Time) ([]UnitResult, error) {
	start := truncateDay(from)
	end := truncateDay(to)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %s is before %s", ErrInvalidRange, end.Format(DateLayout), start.Format(DateLayout))
	}

	ctx = withRunLogger(ctx)
	logger := loggerFrom(ctx)

	logger.Info().
		Str("collection_type", c.cfg.CollectionType).
		Str("from", start.Format(DateLayout)).
		Str("to", end.Format(DateLayout)).
		Msg("Starting range collection")

	var results []UnitResult
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		res, err := c.FetchAllPages(ctx, day.Format(DateLayout))
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (c *Collector) admit(ctx context.Context, tier priority.Tier) bool {
	if len(c.admission.Reserve) > 0 && !c.admission.Permit(tier, c.limiter.Remaining(ctx)) {
		metrics.RecordAdmission(c.cfg.CollectionType, false)
		return false
	}
	admitted := c.limiter.Allow(ctx)
	metrics.RecordAdmission(c.cfg.CollectionType, admitted)
	return admitted
}

func (c *Collector) params(page int) client.Params {
	params := make(client.Params, len(c.cfg.Params)+3)
	for k, v := range c.cfg.Params {
		params[k] = v
	}
	params["page"] = strconv.Itoa(page)
	params["per_page"] = strconv.Itoa(c.cfg.PageSize)
	if c.cfg.Include != "" {
		params["include"] = c.cfg.Include
	}
	return params
}

func (c *Collector) classify(env *client.Envelope, err error) PageResult {
	switch {
	case errors.Is(err, errAdmissionDenied):
		return PageResult{Outcome: OutcomeDenied}
	case errors.Is(err, client.ErrMalformedBody):
		return PageResult{Outcome: OutcomeMalformed, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	case err != nil:
		return PageResult{Outcome: OutcomeFailed, Err: err}
	case !env.HasData():
		return PageResult{Outcome: OutcomeEndOfData}
	}

	records, err := decodeRecords(env.Data)
	if err != nil {
		return PageResult{Outcome: OutcomeMalformed, Err: err}
	}
	return PageResult{Outcome: OutcomeOK, Records: records, HasMore: env.HasMore()}
}

// decodeRecords reads data as a list of records. A single object counts as
// a one-record list.
func decodeRecords(data json.RawMessage) ([]json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case strings.HasPrefix(trimmed, "["):
		var records []json.RawMessage
		if err := jsonAPI.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return records, nil
	case strings.HasPrefix(trimmed, "{"):
		if !jsonAPI.Valid(data) {
			return nil, fmt.Errorf("%w: invalid object", ErrMalformedResponse)
		}
		return []json.RawMessage{data}, nil
	default:
		return nil, fmt.Errorf("%w: data is not a list", ErrMalformedResponse)
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// withRunLogger attaches a logger carrying a fresh run_id unless ctx
// already has one.
func withRunLogger(ctx context.Context) context.Context {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return ctx
	}
	logger := log.With().Str("run_id", uuid.NewString()).Logger()
	return logger.WithContext(ctx)
}

func loggerFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
