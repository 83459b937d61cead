package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sportsdata/ingestion/internal/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, Token: "secret", Timeout: 5 * time.Second})
}

func TestGetData_DecodesEnvelope(t *testing.T) {
	var gotPath, gotToken, gotPage, gotInclude string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("api_token")
		gotPage = r.URL.Query().Get("page")
		gotInclude = r.URL.Query().Get("include")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":1},{"id":2}],"pagination":{"count":2,"per_page":50,"current_page":1,"has_more":true}}`))
	})

	env, err := c.GetData(context.Background(), "fixtures/date/2024-03-01", Params{"page": "1", "include": "participants"})
	require.NoError(t, err)

	assert.Equal(t, "/fixtures/date/2024-03-01", gotPath)
	assert.Equal(t, "secret", gotToken)
	assert.Equal(t, "1", gotPage)
	assert.Equal(t, "participants", gotInclude)

	assert.True(t, env.HasData())
	assert.True(t, env.HasMore())
	assert.JSONEq(t, `[{"id":1},{"id":2}]`, string(env.Data))
	assert.Equal(t, 1, env.Pagination.CurrentPage)
}

func TestGetData_MissingDataAndPagination(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"No result(s) found"}`))
	})

	env, err := c.GetData(context.Background(), "leagues", nil)
	require.NoError(t, err)
	assert.False(t, env.HasData())
	assert.False(t, env.HasMore())
}

func TestGetData_StatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   retry.Kind
	}{
		{http.StatusTooManyRequests, retry.KindRecoverable},
		{http.StatusInternalServerError, retry.KindRecoverable},
		{http.StatusBadGateway, retry.KindRecoverable},
		{http.StatusBadRequest, retry.KindNonRecoverable},
		{http.StatusUnauthorized, retry.KindNonRecoverable},
		{http.StatusForbidden, retry.KindNonRecoverable},
		{http.StatusNotFound, retry.KindNonRecoverable},
		{http.StatusUnprocessableEntity, retry.KindNonRecoverable},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			})

			_, err := c.GetData(context.Background(), "fixtures", nil)
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.want, retry.KindOf(err))
		})
	}
}

func TestGetData_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway</html>`))
	})

	_, err := c.GetData(context.Background(), "leagues", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedBody)
	assert.Equal(t, retry.KindNonRecoverable, retry.KindOf(err))
}

func TestGetData_NetworkErrorIsRecoverable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	c := NewClient(Config{BaseURL: baseURL, Token: "secret", Timeout: time.Second})
	_, err := c.GetData(context.Background(), "leagues", nil)
	require.Error(t, err)
	assert.Equal(t, retry.KindRecoverable, retry.KindOf(err))
}

func TestGetData_CancelledContextIsNotRetried(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetData(ctx, "leagues", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, retry.KindUnknown, retry.KindOf(err))
}

func TestRedactAPIURL(t *testing.T) {
	got := redactAPIURL("https://api.sportmonks.com/v3/football/leagues?api_token=abc&page=2")
	assert.NotContains(t, got, "abc")
	assert.Contains(t, got, "api_token=REDACTED")
	assert.Contains(t, got, "page=2")
}

func TestEndpointLabel(t *testing.T) {
	assert.Equal(t, "fixtures/date/:param", endpointLabel("fixtures/date/2024-03-01"))
	assert.Equal(t, "teams/seasons/:param", endpointLabel("/teams/seasons/21646"))
	assert.Equal(t, "leagues", endpointLabel("leagues"))
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{BaseURL: "  https://example.test/v3/football/ "})
	assert.Equal(t, "https://example.test/v3/football", c.baseURL)
	assert.Equal(t, "https://example.test/v3/football/leagues?page=1", c.buildURL("leagues", Params{"page": "1"}))

	c = NewClient(Config{})
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}
