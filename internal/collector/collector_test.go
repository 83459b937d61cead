package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"sportsdata/ingestion/internal/client"
	"sportsdata/ingestion/internal/priority"
	"sportsdata/ingestion/internal/ratelimit"
	"sportsdata/ingestion/internal/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedFetcher replays canned responses keyed by endpoint, one per call.
type scriptedFetcher struct {
	mu        sync.Mutex
	responses map[string][]scriptedResponse
	calls     []fetchCall
}

type scriptedResponse struct {
	body string
	err  error
}

type fetchCall struct {
	endpoint string
	params   client.Params
}

func newScriptedFetcher() *scriptedFetcher {
	return &scriptedFetcher{responses: make(map[string][]scriptedResponse)}
}

func (f *scriptedFetcher) page(endpoint, body string) *scriptedFetcher {
	f.responses[endpoint] = append(f.responses[endpoint], scriptedResponse{body: body})
	return f
}

func (f *scriptedFetcher) fail(endpoint string, err error) *scriptedFetcher {
	f.responses[endpoint] = append(f.responses[endpoint], scriptedResponse{err: err})
	return f
}

func (f *scriptedFetcher) GetData(_ context.Context, endpoint string, params client.Params) (*client.Envelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, fetchCall{endpoint: endpoint, params: params})
	queue := f.responses[endpoint]
	if len(queue) == 0 {
		return nil, fmt.Errorf("unexpected call to %s", endpoint)
	}
	next := queue[0]
	f.responses[endpoint] = queue[1:]
	if next.err != nil {
		return nil, next.err
	}

	var env client.Envelope
	if err := json.Unmarshal([]byte(next.body), &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// countingLimiter admits the first n requests.
type countingLimiter struct {
	mu      sync.Mutex
	budget  int
	allowed int
	denied  int
}

func (l *countingLimiter) Allow(context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.allowed >= l.budget {
		l.denied++
		return false
	}
	l.allowed++
	return true
}

func (l *countingLimiter) Remaining(context.Context) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.budget - l.allowed
}

func fixturesConfig() Config {
	return Config{
		CollectionType: priority.DynamicFixtures,
		Endpoint:       func(unit string) string { return "fixtures/date/" + unit },
		PageSize:       2,
		Include:        "participants;state",
	}
}

func newTestCollector(t *testing.T, fetcher Fetcher, limiter ratelimit.Limiter, opts ...Option) *Collector {
	t.Helper()
	c, err := New(fixturesConfig(), fetcher, limiter, nil, opts...)
	require.NoError(t, err)
	return c
}

func ids(records []json.RawMessage) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		var v struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(r, &v)
		out = append(out, v.ID)
	}
	return out
}

const day = "2024-03-01"

func TestFetchAllPages_AccumulatesInOrder(t *testing.T) {
	fetcher := newScriptedFetcher().
		page("fixtures/date/"+day, `{"data":[{"id":"a"},{"id":"b"}],"pagination":{"has_more":true}}`).
		page("fixtures/date/"+day, `{"data":[{"id":"c"}],"pagination":{"has_more":false}}`)
	limiter := &countingLimiter{budget: 10}

	c := newTestCollector(t, fetcher, limiter)
	res, err := c.FetchAllPages(context.Background(), day)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(res.Records))
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, OutcomeOK, res.Outcome)
	require.Len(t, fetcher.calls, 2)
	assert.Equal(t, "1", fetcher.calls[0].params["page"])
	assert.Equal(t, "2", fetcher.calls[1].params["page"])
	assert.Equal(t, "2", fetcher.calls[1].params["per_page"])
	assert.Equal(t, "participants;state", fetcher.calls[1].params["include"])
	assert.Equal(t, 2, limiter.allowed, "every page is charged")
}

func TestFetchAllPages_DeniedMidUnitReturnsPartial(t *testing.T) {
	fetcher := newScriptedFetcher().
		page("fixtures/date/"+day, `{"data":[{"id":"a"},{"id":"b"}],"pagination":{"has_more":true}}`).
		page("fixtures/date/"+day, `{"data":[{"id":"c"}],"pagination":{"has_more":false}}`)
	limiter := &countingLimiter{budget: 1}

	c := newTestCollector(t, fetcher, limiter)
	res, err := c.FetchAllPages(context.Background(), day)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(res.Records))
	assert.Equal(t, OutcomeDenied, res.Outcome)
	assert.Len(t, fetcher.calls, 1, "denied page never reaches the fetcher")
	assert.Equal(t, 1, limiter.denied)
}

func TestFetchAllPages_MissingDataEndsUnit(t *testing.T) {
	fetcher := newScriptedFetcher().
		page("fixtures/date/"+day, `{"data":[{"id":"a"}],"pagination":{"has_more":true}}`).
		page("fixtures/date/"+day, `{"message":"No result(s) found"}`)

	c := newTestCollector(t, fetcher, &countingLimiter{budget: 10})
	res, err := c.FetchAllPages(context.Background(), day)

	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(res.Records))
	assert.Equal(t, OutcomeEndOfData, res.Outcome)
}

func TestFetchAllPages_MissingPaginationStops(t *testing.T) {
	fetcher := newScriptedFetcher().
		page("fixtures/date/"+day, `{"data":[{"id":"a"}]}`)

	c := newTestCollector(t, fetcher, &countingLimiter{budget: 10})
	res, err := c.FetchAllPages(context.Background(), day)

	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(res.Records))
	assert.Len(t, fetcher.calls, 1)
}

func TestFetchAllPages_MalformedEndsUnitWithoutError(t *testing.T) {
	fetcher := newScriptedFetcher().
		page("fixtures/date/"+day, `{"data":[{"id":"a"}],"pagination":{"has_more":true}}`).
		page("fixtures/date/"+day, `{"data":"oops","pagination":{"has_more":true}}`)

	c := newTestCollector(t, fetcher, &countingLimiter{budget: 10})
	res, err := c.FetchAllPages(context.Background(), day)

	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(res.Records))
	assert.Equal(t, OutcomeMalformed, res.Outcome)
}

func TestFetchAllPages_MalformedBodyEndsUnit(t *testing.T) {
	malformed := retry.Permanent(fmt.Errorf("%w: html", client.ErrMalformedBody))
	fetcher := newScriptedFetcher().fail("fixtures/date/"+day, malformed)

	c := newTestCollector(t, fetcher, &countingLimiter{budget: 10})
	res, err := c.FetchAllPages(context.Background(), day)

	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Equal(t, OutcomeMalformed, res.Outcome)
}

func TestFetchAllPages_APIErrorPropagates(t *testing.T) {
	apiErr := &client.APIError{Endpoint: "fixtures/date/" + day, StatusCode: 401, Body: "unauthorized"}
	fetcher := newScriptedFetcher().
		page("fixtures/date/"+day, `{"data":[{"id":"a"}],"pagination":{"has_more":true}}`).
		fail("fixtures/date/"+day, apiErr)

	c := newTestCollector(t, fetcher, &countingLimiter{budget: 10})
	res, err := c.FetchAllPages(context.Background(), day)

	require.Error(t, err)
	assert.ErrorIs(t, err, apiErr)
	assert.Equal(t, []string{"a"}, ids(res.Records), "partial records are kept")
	assert.Equal(t, OutcomeFailed, res.Outcome)
}

func TestFetchPage_RetriesAreChargedAgainstLimiter(t *testing.T) {
	blip := &client.APIError{StatusCode: 503, Body: "busy"}
	fetcher := newScriptedFetcher().
		fail("fixtures/date/"+day, blip).
		fail("fixtures/date/"+day, blip).
		page("fixtures/date/"+day, `{"data":[{"id":"a"}],"pagination":{"has_more":false}}`)
	limiter := &countingLimiter{budget: 10}

	exec := retry.NewExecutor(retry.WithSleeper(func(context.Context, time.Duration) error { return nil }))
	policy := retry.Policy{MaxRetries: 3, InitialDelay: time.Millisecond, BackoffFactor: 2}
	c := newTestCollector(t, fetcher, limiter, WithRetry(policy), WithExecutor(exec))

	res := c.FetchPage(context.Background(), day, 1)

	assert.Equal(t, OutcomeOK, res.Outcome)
	assert.Equal(t, []string{"a"}, ids(res.Records))
	assert.Equal(t, 3, limiter.allowed, "each attempt is admitted separately")
}

func TestFetchPage_RetryStopsWhenBudgetRunsOut(t *testing.T) {
	blip := &client.APIError{StatusCode: 503, Body: "busy"}
	fetcher := newScriptedFetcher().
		fail("fixtures/date/"+day, blip).
		fail("fixtures/date/"+day, blip)
	limiter := &countingLimiter{budget: 2}

	exec := retry.NewExecutor(retry.WithSleeper(func(context.Context, time.Duration) error { return nil }))
	policy := retry.Policy{MaxRetries: 5, InitialDelay: time.Millisecond, BackoffFactor: 2}
	c := newTestCollector(t, fetcher, limiter, WithRetry(policy), WithExecutor(exec))

	res := c.FetchPage(context.Background(), day, 1)

	assert.Equal(t, OutcomeDenied, res.Outcome)
	assert.Len(t, fetcher.calls, 2)
}

func TestFetchPage_RetryExhausted(t *testing.T) {
	blip := &client.APIError{StatusCode: 500, Body: "boom"}
	fetcher := newScriptedFetcher().
		fail("fixtures/date/"+day, blip).
		fail("fixtures/date/"+day, blip)

	exec := retry.NewExecutor(retry.WithSleeper(func(context.Context, time.Duration) error { return nil }))
	policy := retry.Policy{MaxRetries: 1, InitialDelay: time.Millisecond}
	c := newTestCollector(t, fetcher, &countingLimiter{budget: 10}, WithRetry(policy), WithExecutor(exec))

	res := c.FetchPage(context.Background(), day, 1)

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, retry.ErrRetryExhausted)
}

func TestFetchPage_AdmissionReserveProtectsHigherTiers(t *testing.T) {
	fetcher := newScriptedFetcher()
	limiter := &countingLimiter{budget: 3}

	cfg := Config{CollectionType: priority.Bookmakers, Endpoint: StaticEndpoint("bookmakers")}
	c, err := New(cfg, fetcher, limiter, nil,
		WithAdmissionPolicy(priority.AdmissionPolicy{Reserve: map[priority.Tier]int{priority.TierLow: 3}}))
	require.NoError(t, err)

	res := c.FetchPage(context.Background(), "", 1)

	assert.Equal(t, OutcomeDenied, res.Outcome)
	assert.Equal(t, 0, limiter.allowed, "reserve denial does not consume budget")
	assert.Empty(t, fetcher.calls)
}

func TestFetchRange_IteratesEveryDate(t *testing.T) {
	fetcher := newScriptedFetcher().
		page("fixtures/date/2024-03-01", `{"data":[{"id":"a"}],"pagination":{"has_more":true}}`).
		page("fixtures/date/2024-03-01", `{"data":[{"id":"b"}],"pagination":{"has_more":false}}`).
		page("fixtures/date/2024-03-02", `{"data":[],"pagination":{"has_more":false}}`).
		page("fixtures/date/2024-03-03", `{"data":[{"id":"c"}],"pagination":{"has_more":false}}`)

	c := newTestCollector(t, fetcher, &countingLimiter{budget: 10})
	from := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)
	to := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)

	results, err := c.FetchRange(context.Background(), from, to)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "2024-03-01", results[0].Unit)
	assert.Equal(t, []string{"a", "b"}, ids(results[0].Records))
	assert.Empty(t, results[1].Records)
	assert.Equal(t, []string{"c"}, ids(results[2].Records))

	endpoints := make([]string, 0, len(fetcher.calls))
	for _, call := range fetcher.calls {
		endpoints = append(endpoints, call.endpoint)
	}
	assert.Equal(t, []string{
		"fixtures/date/2024-03-01",
		"fixtures/date/2024-03-01",
		"fixtures/date/2024-03-02",
		"fixtures/date/2024-03-03",
	}, endpoints, "units are not interleaved")
}

func TestFetchRange_MalformedUnitDoesNotAbortRange(t *testing.T) {
	fetcher := newScriptedFetcher().
		page("fixtures/date/2024-03-01", `{"data":42}`).
		page("fixtures/date/2024-03-02", `{"data":[{"id":"z"}]}`)

	c := newTestCollector(t, fetcher, &countingLimiter{budget: 10})
	results, err := c.FetchRange(context.Background(),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, OutcomeMalformed, results[0].Outcome)
	assert.Equal(t, []string{"z"}, ids(results[1].Records))
}

func TestFetchRange_APIErrorAbortsRange(t *testing.T) {
	fetcher := newScriptedFetcher().
		page("fixtures/date/2024-03-01", `{"data":[{"id":"a"}]}`).
		fail("fixtures/date/2024-03-02", &client.APIError{StatusCode: 403, Body: "plan"})

	c := newTestCollector(t, fetcher, &countingLimiter{budget: 10})
	results, err := c.FetchRange(context.Background(),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))

	require.Error(t, err)
	require.Len(t, results, 1, "completed units are returned")
	assert.Len(t, fetcher.calls, 2, "no unit after the failure is requested")
}

func TestFetchRange_InvalidRange(t *testing.T) {
	c := newTestCollector(t, newScriptedFetcher(), &countingLimiter{budget: 10})

	_, err := c.FetchRange(context.Background(),
		time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestFetchAllPages_RespectsSlidingWindow(t *testing.T) {
	fetcher := newScriptedFetcher()
	for i := 0; i < 5; i++ {
		fetcher.page("fixtures/date/"+day, fmt.Sprintf(`{"data":[{"id":"%d"}],"pagination":{"has_more":true}}`, i))
	}
	limiter, err := ratelimit.NewSlidingWindow(3, time.Minute)
	require.NoError(t, err)

	c := newTestCollector(t, fetcher, limiter)
	res, err := c.FetchAllPages(context.Background(), day)

	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2"}, ids(res.Records))
	assert.Equal(t, OutcomeDenied, res.Outcome)
}

func TestNew_Validation(t *testing.T) {
	limiter := &countingLimiter{budget: 1}
	fetcher := newScriptedFetcher()

	_, err := New(Config{Endpoint: StaticEndpoint("x")}, fetcher, limiter, nil)
	assert.Error(t, err)

	_, err = New(Config{CollectionType: "x"}, fetcher, limiter, nil)
	assert.Error(t, err)

	_, err = New(Config{CollectionType: "x", Endpoint: StaticEndpoint("x")}, nil, limiter, nil)
	assert.Error(t, err)

	c, err := New(Config{CollectionType: "x", Endpoint: StaticEndpoint("x")}, fetcher, limiter, nil)
	require.NoError(t, err)
	assert.Equal(t, 50, c.cfg.PageSize)
}

func TestDecodeRecords(t *testing.T) {
	records, err := decodeRecords(json.RawMessage(`{"id":1}`))
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = decodeRecords(json.RawMessage(`"text"`))
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}
