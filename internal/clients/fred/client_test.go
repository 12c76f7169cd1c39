package fred

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient("test-key", WithBaseURL(server.URL))
}

func TestGetLatest_SkipsMissingReadings(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/series/observations", r.URL.Path)
		assert.Equal(t, "DGS10", r.URL.Query().Get("series_id"))
		assert.Equal(t, "desc", r.URL.Query().Get("sort_order"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		// Weekend/holiday rows come back as "." and must be skipped.
		w.Write([]byte(`{"observations": [
			{"date": "2024-03-17", "value": "."},
			{"date": "2024-03-16", "value": "."},
			{"date": "2024-03-15", "value": "4.31"}
		]}`))
	})

	obs := client.GetLatest(context.Background(), SeriesTreasury10Y)
	require.NotNil(t, obs)
	assert.Equal(t, "2024-03-15", obs.Date)
	assert.Equal(t, 4.31, obs.Value)
}

func TestGetLatest_AllMissingReturnsNil(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"observations": [{"date": "2024-03-17", "value": "."}]}`))
	})

	assert.Nil(t, client.GetLatest(context.Background(), SeriesFedFunds))
}

func TestGetLatest_ServerErrorReturnsNil(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	assert.Nil(t, client.GetLatest(context.Background(), SeriesCPI))
}

func TestGetHistory(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "asc", r.URL.Query().Get("sort_order"))
		assert.NotEmpty(t, r.URL.Query().Get("observation_start"))
		w.Write([]byte(`{"observations": [
			{"date": "2024-01-02", "value": "3.95"},
			{"date": "2024-01-03", "value": "."},
			{"date": "2024-01-04", "value": "4.00"}
		]}`))
	})

	points := client.GetHistory(context.Background(), SeriesTreasury10Y)
	require.Len(t, points, 2)
	assert.Equal(t, "2024-01-02", points[0].Date)
	assert.Equal(t, 4.00, points[1].Value)
}
