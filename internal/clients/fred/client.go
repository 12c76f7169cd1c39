// Package fred provides a client for the St. Louis Fed FRED series API,
// used for US macro indicators (policy rate, treasury yields, CPI,
// unemployment).
package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kofin/finboard/internal/cache"
	"github.com/kofin/finboard/internal/common"
	"github.com/kofin/finboard/internal/models"
)

const (
	DefaultBaseURL   = "https://api.stlouisfed.org/fred"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5
)

// Well-known series IDs used by the macro dashboard.
const (
	SeriesFedFunds     = "DFF"
	SeriesTreasury10Y  = "DGS10"
	SeriesTreasury2Y   = "DGS2"
	SeriesCPI          = "CPIAUCSL"
	SeriesUnemployment = "UNRATE"
)

// Client wraps the FRED series API.
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

// NewClient creates a new FRED client
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

type observationsResponse struct {
	Observations []observation `json:"observations"`
}

type observation struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Value string `json:"value"`
}

func (c *Client) getObservations(ctx context.Context, seriesID string, params url.Values, ttl time.Duration) ([]observation, error) {
	params.Set("series_id", seriesID)
	params.Set("file_type", "json")

	key := "fred:/series/observations?" + params.Encode()
	if c.cache != nil && ttl > 0 {
		if body, ok := c.cache.Get(ctx, key); ok {
			var cached observationsResponse
			if err := json.Unmarshal(body, &cached); err == nil {
				return cached.Observations, nil
			}
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params.Set("api_key", c.apiKey)
	reqURL := fmt.Sprintf("%s/series/observations?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("series", seriesID).Msg("FRED API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("FRED API status %d for %s", resp.StatusCode, seriesID)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var decoded observationsResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if c.cache != nil && ttl > 0 {
		c.cache.Set(ctx, key, body, ttl)
	}

	return decoded.Observations, nil
}

// GetLatest retrieves the most recent observation of a series. FRED encodes
// a missing reading as the literal value "."; those are skipped. Returns
// nil when the series is empty or the request fails.
func (c *Client) GetLatest(ctx context.Context, seriesID string) *models.MacroObservation {
	params := url.Values{}
	params.Set("sort_order", "desc")
	params.Set("limit", "5")

	observations, err := c.getObservations(ctx, seriesID, params, common.FreshnessMacroLatest)
	if err != nil {
		c.logger.Warn().Err(err).Str("series", seriesID).Msg("FRED latest fetch failed")
		return nil
	}

	for _, obs := range observations {
		if obs.Value == "." {
			continue
		}
		return &models.MacroObservation{
			SeriesID: seriesID,
			Date:     obs.Date,
			Value:    common.ParseLocaleNumber(obs.Value),
		}
	}
	return nil
}

// GetHistory retrieves one year of observations ascending by date, with
// missing readings skipped. Returns nil on failure.
func (c *Client) GetHistory(ctx context.Context, seriesID string) []models.TimeSeriesPoint {
	params := url.Values{}
	params.Set("sort_order", "asc")
	params.Set("observation_start", time.Now().AddDate(-1, 0, 0).Format("2006-01-02"))

	observations, err := c.getObservations(ctx, seriesID, params, common.FreshnessMacroSeries)
	if err != nil {
		c.logger.Warn().Err(err).Str("series", seriesID).Msg("FRED history fetch failed")
		return nil
	}

	points := make([]models.TimeSeriesPoint, 0, len(observations))
	for _, obs := range observations {
		if obs.Value == "." {
			continue
		}
		points = append(points, models.TimeSeriesPoint{
			Date:  obs.Date,
			Value: common.ParseLocaleNumber(obs.Value),
		})
	}
	return points
}
