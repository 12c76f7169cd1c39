// Package feargreed provides a client for the alternative.me Fear & Greed
// index, the sentiment reading on the macro dashboard.
package feargreed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kofin/finboard/internal/cache"
	"github.com/kofin/finboard/internal/common"
	"github.com/kofin/finboard/internal/models"
)

const (
	DefaultBaseURL   = "https://api.alternative.me"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 2
)

// Client wraps the alternative.me fng API.
type Client struct {
	baseURL    string
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

// NewClient creates a new Fear & Greed client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
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

type fngResponse struct {
	Data []fngEntry `json:"data"`
}

type fngEntry struct {
	Value          string `json:"value"`
	Classification string `json:"value_classification"`
	Timestamp      string `json:"timestamp"`
}

func (c *Client) fetch(ctx context.Context, limit int, ttl time.Duration) ([]fngEntry, error) {
	key := "fng:limit=" + strconv.Itoa(limit)
	if c.cache != nil && ttl > 0 {
		if body, ok := c.cache.Get(ctx, key); ok {
			var cached fngResponse
			if err := json.Unmarshal(body, &cached); err == nil {
				return cached.Data, nil
			}
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s/fng/?limit=%d", c.baseURL, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Int("limit", limit).Msg("Fear & Greed request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Fear & Greed API status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var decoded fngResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(decoded.Data) == 0 {
		return nil, fmt.Errorf("Fear & Greed returned no data")
	}

	if c.cache != nil && ttl > 0 {
		c.cache.Set(ctx, key, body, ttl)
	}

	return decoded.Data, nil
}

// GetCurrent retrieves the latest reading. Returns nil on failure.
func (c *Client) GetCurrent(ctx context.Context) *models.FearGreed {
	entries, err := c.fetch(ctx, 1, common.FreshnessMacroLatest)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Fear & Greed fetch failed")
		return nil
	}

	entry := entries[0]
	return &models.FearGreed{
		Value:          int(common.ParseLocaleNumber(entry.Value)),
		Classification: entry.Classification,
		Timestamp:      entry.Timestamp,
	}
}

// GetHistory retrieves the last n daily readings ascending by date. The
// upstream returns newest first, so the series is reversed.
func (c *Client) GetHistory(ctx context.Context, n int) []models.TimeSeriesPoint {
	entries, err := c.fetch(ctx, n, common.FreshnessMacroSeries)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Fear & Greed history fetch failed")
		return nil
	}

	points := make([]models.TimeSeriesPoint, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		date := entry.Timestamp
		if secs, err := strconv.ParseInt(entry.Timestamp, 10, 64); err == nil {
			date = time.Unix(secs, 0).UTC().Format("2006-01-02")
		}
		points = append(points, models.TimeSeriesPoint{
			Date:  date,
			Value: common.ParseLocaleNumber(entry.Value),
		})
	}
	return points
}
