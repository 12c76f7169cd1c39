package ecos

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
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

func TestGetLatest_TakesLastRow(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/StatisticSearch/test-key/json/kr/"))
		assert.Contains(t, r.URL.Path, "/722Y001/DD/")
		// Rows come back ascending; the latest reading is the last row.
		w.Write([]byte(`{"StatisticSearch": {"row": [
			{"TIME": "20240311", "DATA_VALUE": "3.5"},
			{"TIME": "20240312", "DATA_VALUE": "3.5"},
			{"TIME": "20240313", "DATA_VALUE": "3.25"}
		]}}`))
	})

	obs := client.GetLatest(context.Background(), SeriesBaseRate)
	require.NotNil(t, obs)
	assert.Equal(t, "20240313", obs.Date)
	assert.Equal(t, 3.25, obs.Value)
}

func TestGetLatest_ErrorEnvelopeReturnsNil(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"RESULT": {"CODE": "INFO-200", "MESSAGE": "해당하는 데이터가 없습니다."}}`))
	})

	assert.Nil(t, client.GetLatest(context.Background(), SeriesBaseRate))
}

func TestGetHistory_MonthlyPeriods(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		// .../901Y009/MM/{from}/{to}/0 — monthly bounds use YYYYMM.
		require.GreaterOrEqual(t, len(parts), 3)
		from := parts[len(parts)-3]
		assert.Len(t, from, 6)
		w.Write([]byte(`{"StatisticSearch": {"row": [
			{"TIME": "202401", "DATA_VALUE": "113.1"},
			{"TIME": "202402", "DATA_VALUE": "113.8"}
		]}}`))
	})

	points := client.GetHistory(context.Background(), SeriesKoreaCPI)
	require.Len(t, points, 2)
	assert.Equal(t, "202401", points[0].Date)
	assert.Equal(t, 113.8, points[1].Value)
}
