package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sportsdata/ingestion/internal/metrics"
	"sportsdata/ingestion/internal/retry"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the SportMonks v3 football API root.
	DefaultBaseURL = "https://api.sportmonks.com/v3/football"

	maxBodyBytes = 6 << 20
)

// ErrMalformedBody is returned when a 2xx response is not a JSON envelope.
var ErrMalformedBody = errors.New("malformed response body")

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Params are the query parameters of one request.
type Params map[string]string

// Pagination is the paging block SportMonks attaches to list endpoints.
type Pagination struct {
	Count       int    `json:"count"`
	PerPage     int    `json:"per_page"`
	CurrentPage int    `json:"current_page"`
	NextPage    string `json:"next_page"`
	HasMore     bool   `json:"has_more"`
}

// Envelope is the top-level shape of every SportMonks response.
type Envelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagination,omitempty"`
}

// HasData reports whether the response carried a non-null data member.
func (e *Envelope) HasData() bool {
	if e == nil {
		return false
	}
	trimmed := strings.TrimSpace(string(e.Data))
	return trimmed != "" && trimmed != "null"
}

// HasMore reports whether the provider announced a further page.
func (e *Envelope) HasMore() bool {
	return e != nil && e.Pagination != nil && e.Pagination.HasMore
}

// APIError is a non-2xx response from the provider.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("sportmonks %s: status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// RetryKind marks throttling and server errors as recoverable.
func (e *APIError) RetryKind() retry.Kind {
	if isRetryableStatus(e.StatusCode) {
		return retry.KindRecoverable
	}
	return retry.KindNonRecoverable
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	RateLimit  float64 // requests per second; <= 0 disables pacing
	Burst      int
	HTTPClient *http.Client
}

// Client is the SportMonks API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new SportMonks API client.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		baseURL:    baseURL,
		token:      strings.TrimSpace(cfg.Token),
		httpClient: httpClient,
		limiter:    limiter,
	}
}

// GetData performs one GET against endpoint and decodes the envelope.
//
// Transport failures and 429/5xx responses come back as recoverable errors,
// any other non-2xx status as a non-recoverable *APIError. The call is not
// retried here; retry policy belongs to the caller.
func (c *Client) GetData(ctx context.Context, endpoint string, params Params) (*Envelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for outbound slot: %w", err)
	}

	fullURL := c.buildURL(endpoint, params)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "sportsdata-ingestion/1.0")

	log.Debug().
		Str("url", redactAPIURL(fullURL)).
		Msg("Making API request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAPICall(endpointLabel(endpoint), "error", time.Since(start).Seconds())
		if ctx.Err() != nil {
			return nil, fmt.Errorf("API request cancelled: %w", ctx.Err())
		}
		return nil, retry.Recoverable(fmt.Errorf("API request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	metrics.RecordAPICall(endpointLabel(endpoint), strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())
	if err != nil {
		return nil, retry.Recoverable(fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: abbreviateBody(body)}
		log.Warn().
			Str("url", redactAPIURL(fullURL)).
			Int("status", resp.StatusCode).
			Str("kind", apiErr.RetryKind().String()).
			Msg("API returned error status")
		return nil, apiErr
	}

	var env Envelope
	if err := jsonAPI.Unmarshal(body, &env); err != nil {
		return nil, retry.Permanent(fmt.Errorf("%w: %s: %v", ErrMalformedBody, endpoint, err))
	}

	log.Debug().
		Str("endpoint", endpoint).
		Int("size", len(body)).
		Bool("has_more", env.HasMore()).
		Msg("API request successful")

	return &env, nil
}

func (c *Client) buildURL(endpoint string, params Params) string {
	values := url.Values{}
	for key, value := range params {
		values.Set(key, value)
	}
	if c.token != "" {
		values.Set("api_token", c.token)
	}

	fullURL := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}
	return fullURL
}

// endpointLabel keeps metric cardinality bounded by dropping path segments
// that start with a digit (ids and dates).
func endpointLabel(endpoint string) string {
	parts := strings.Split(strings.Trim(endpoint, "/"), "/")
	for i, p := range parts {
		if p != "" && p[0] >= '0' && p[0] <= '9' {
			parts[i] = ":param"
		}
	}
	return strings.Join(parts, "/")
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func redactAPIURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	if query.Has("api_token") {
		query.Set("api_token", "REDACTED")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
