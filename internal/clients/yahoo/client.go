// Package yahoo provides a client for the Yahoo Finance chart API. It
// serves global index quotes and acts as the history fallback for Korean
// listings (6-digit symbols are queried as SYMBOL.KS / SYMBOL.KQ).
package yahoo

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
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

// Tickers used by the macro dashboard.
const (
	TickerSP500  = "^GSPC"
	TickerNasdaq = "^IXIC"
	TickerDow    = "^DJI"
	TickerVIX    = "^VIX"
	TickerWTI    = "CL=F"
	TickerGold   = "GC=F"
	TickerUSDKRW = "KRW=X"
)

// Client wraps the Yahoo Finance chart API.
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

// NewClient creates a new Yahoo Finance client
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

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
		PreviousClose      float64 `json:"chartPreviousClose"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

func (c *Client) getChart(ctx context.Context, ticker, rng, interval string) (*chartResult, error) {
	params := url.Values{}
	params.Set("range", rng)
	params.Set("interval", interval)

	path := "/v8/finance/chart/" + url.PathEscape(ticker)
	key := "yahoo:" + path + "?" + params.Encode()
	ttl := common.FreshnessChart

	if c.cache != nil {
		if body, ok := c.cache.Get(ctx, key); ok {
			var cached chartResponse
			if err := json.Unmarshal(body, &cached); err == nil && len(cached.Chart.Result) > 0 {
				return &cached.Chart.Result[0], nil
			}
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug().Str("ticker", ticker).Msg("Yahoo chart request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Yahoo API status %d for %s", resp.StatusCode, ticker)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var decoded chartResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(decoded.Chart.Result) == 0 {
		return nil, fmt.Errorf("Yahoo returned no result for %s", ticker)
	}

	if c.cache != nil {
		c.cache.Set(ctx, key, body, ttl)
	}

	return &decoded.Chart.Result[0], nil
}

// GetCandles retrieves daily candles for a ticker over a range such as
// "1y" or "3mo". Rows with a nil close (halted sessions) are skipped.
// Returns nil on failure.
func (c *Client) GetCandles(ctx context.Context, ticker, rng string) []models.Candle {
	result, err := c.getChart(ctx, ticker, rng, "1d")
	if err != nil {
		c.logger.Warn().Err(err).Str("ticker", ticker).Msg("Yahoo candles fetch failed")
		return nil
	}
	if len(result.Indicators.Quote) == 0 {
		return nil
	}

	quote := result.Indicators.Quote[0]
	candles := make([]models.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		candle := models.Candle{
			Date:  time.Unix(ts, 0).UTC().Format(common.DateStampLayout),
			Close: *quote.Close[i],
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			candle.Open = *quote.Open[i]
		}
		if i < len(quote.High) && quote.High[i] != nil {
			candle.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			candle.Low = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			candle.Volume = *quote.Volume[i]
		}
		candles = append(candles, candle)
	}
	return candles
}

// GetHistory retrieves one year of daily closes as a macro time series.
func (c *Client) GetHistory(ctx context.Context, ticker string) []models.TimeSeriesPoint {
	candles := c.GetCandles(ctx, ticker, "1y")
	if candles == nil {
		return nil
	}

	points := make([]models.TimeSeriesPoint, 0, len(candles))
	for _, candle := range candles {
		points = append(points, models.TimeSeriesPoint{Date: candle.Date, Value: candle.Close})
	}
	return points
}

// GetIndexQuote retrieves the latest level of a global index or futures
// ticker from the chart metadata. Returns nil on failure.
func (c *Client) GetIndexQuote(ctx context.Context, ticker, name string) *models.IndexQuote {
	result, err := c.getChart(ctx, ticker, "5d", "1d")
	if err != nil {
		c.logger.Warn().Err(err).Str("ticker", ticker).Msg("Yahoo quote fetch failed")
		return nil
	}

	price := result.Meta.RegularMarketPrice
	prev := result.Meta.PreviousClose
	quote := &models.IndexQuote{
		Symbol: ticker,
		Name:   name,
		Value:  price,
	}
	if prev != 0 {
		quote.Change = price - prev
		quote.ChangePercent = (price - prev) / prev * 100
	}
	return quote
}
