// Package ecos provides a client for the Bank of Korea ECOS statistics
// API, used for Korean macro indicators (base rate, CPI, KOSPI-related
// aggregates). The API encodes everything in the URL path:
//
//	/StatisticSearch/{key}/json/kr/{start}/{end}/{stat}/{freq}/{from}/{to}/{item}
package ecos

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kofin/finboard/internal/cache"
	"github.com/kofin/finboard/internal/common"
	"github.com/kofin/finboard/internal/models"
)

const (
	DefaultBaseURL   = "https://ecos.bok.or.kr/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5
)

// Series identifies one ECOS statistic: the table code, cycle, and item.
type Series struct {
	StatCode string
	Freq     string // "DD", "MM", or "A"
	ItemCode string
}

// Series used by the macro dashboard.
var (
	SeriesBaseRate = Series{StatCode: "722Y001", Freq: "DD", ItemCode: "0101000"}
	SeriesKoreaCPI = Series{StatCode: "901Y009", Freq: "MM", ItemCode: "0"}
)

// Client wraps the ECOS statistics API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	cache      cache.Cache
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithCache sets the response cache
func WithCache(cc cache.Cache) ClientOption {
	return func(c *Client) {
		c.cache = cc
	}
}

// NewClient creates a new ECOS client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type searchResponse struct {
	StatisticSearch struct {
		Row []searchRow `json:"row"`
	} `json:"StatisticSearch"`
}

type searchRow struct {
	Time  string `json:"TIME"`
	Value string `json:"DATA_VALUE"`
}

// timeRange formats the period bounds for a cycle: daily series use
// YYYYMMDD, monthly YYYYMM, annual YYYY.
func timeRange(freq string, from, to time.Time) (string, string) {
	switch freq {
	case "DD":
		return from.Format("20060102"), to.Format("20060102")
	case "MM":
		return from.Format("200601"), to.Format("200601")
	default:
		return from.Format("2006"), to.Format("2006")
	}
}

func (c *Client) search(ctx context.Context, s Series, from, to time.Time, rows int, ttl time.Duration) ([]searchRow, error) {
	start, end := timeRange(s.Freq, from, to)
	path := fmt.Sprintf("/StatisticSearch/%%s/json/kr/1/%d/%s/%s/%s/%s/%s",
		rows, s.StatCode, s.Freq, start, end, s.ItemCode)

	key := "ecos:" + fmt.Sprintf(path, "-")
	if c.cache != nil && ttl > 0 {
		if body, ok := c.cache.Get(ctx, key); ok {
			var cached searchResponse
			if err := json.Unmarshal(body, &cached); err == nil {
				return cached.StatisticSearch.Row, nil
			}
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + fmt.Sprintf(path, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("stat", s.StatCode).Msg("ECOS API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ECOS API status %d for %s", resp.StatusCode, s.StatCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// ECOS reports errors as a RESULT envelope instead of StatisticSearch.
	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(decoded.StatisticSearch.Row) == 0 {
		return nil, fmt.Errorf("ECOS returned no rows for %s", s.StatCode)
	}

	if c.cache != nil && ttl > 0 {
		c.cache.Set(ctx, key, body, ttl)
	}

	return decoded.StatisticSearch.Row, nil
}

// lookback picks how far back to search for a single latest reading; daily
// series publish with a lag, monthly and annual with a longer one.
func lookback(freq string) time.Duration {
	switch freq {
	case "DD":
		return 14 * 24 * time.Hour
	case "MM":
		return 90 * 24 * time.Hour
	default:
		return 2 * 365 * 24 * time.Hour
	}
}

// GetLatest retrieves the most recent reading of a series. Returns nil on
// failure or when the window holds no rows.
func (c *Client) GetLatest(ctx context.Context, s Series) *models.MacroObservation {
	now := time.Now()
	rows, err := c.search(ctx, s, now.Add(-lookback(s.Freq)), now, 100, common.FreshnessMacroLatest)
	if err != nil {
		c.logger.Warn().Err(err).Str("stat", s.StatCode).Msg("ECOS latest fetch failed")
		return nil
	}

	last := rows[len(rows)-1]
	return &models.MacroObservation{
		SeriesID: s.StatCode,
		Date:     last.Time,
		Value:    common.ParseLocaleNumber(last.Value),
	}
}

// GetHistory retrieves one year of readings ascending by period.
func (c *Client) GetHistory(ctx context.Context, s Series) []models.TimeSeriesPoint {
	now := time.Now()
	rows, err := c.search(ctx, s, now.AddDate(-1, 0, 0), now, 1000, common.FreshnessMacroSeries)
	if err != nil {
		c.logger.Warn().Err(err).Str("stat", s.StatCode).Msg("ECOS history fetch failed")
		return nil
	}

	points := make([]models.TimeSeriesPoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, models.TimeSeriesPoint{
			Date:  row.Time,
			Value: common.ParseLocaleNumber(row.Value),
		})
	}
	return points
}
