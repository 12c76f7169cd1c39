// Package naver provides a client for the Naver Finance mobile API, the
// primary source for Korean quotes, stock metadata, search, charts, market
// indices, and ranking lists, plus the marketIndex FX/commodity endpoints.
//
// The API is undocumented and numeric fields arrive as comma-separated
// strings, plain strings, or numbers depending on the endpoint. All public
// methods fail soft: transport errors, non-2xx statuses, and malformed
// payloads are logged and reported as nil/empty results.
package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kofin/finboard/internal/cache"
	"github.com/kofin/finboard/internal/common"
	"github.com/kofin/finboard/internal/models"
)

const (
	DefaultBaseURL   = "https://m.stock.naver.com"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 10 // requests per second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// flexFloat64 handles JSON values that may be a number, a plain numeric
// string, or a comma-separated numeric string.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexFloat64(common.ParseLocaleNumber(s))
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

// Client wraps the Naver Finance mobile API.
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

// WithCache sets the response cache used for revalidation windows
func WithCache(cc cache.Cache) ClientOption {
	return func(c *Client) {
		c.cache = cc
	}
}

// NewClient creates a new Naver Finance client
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

// get performs a rate-limited GET request, serving and populating the
// response cache keyed by path+query when a positive TTL is given.
func (c *Client) get(ctx context.Context, path string, params url.Values, ttl time.Duration, result interface{}) error {
	key := "naver:" + path
	if len(params) > 0 {
		key += "?" + params.Encode()
	}

	if c.cache != nil && ttl > 0 {
		if body, ok := c.cache.Get(ctx, key); ok {
			return json.Unmarshal(body, result)
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug().Str("path", path).Msg("Naver API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("naver API status %d for %s", resp.StatusCode, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if c.cache != nil && ttl > 0 {
		c.cache.Set(ctx, key, body, ttl)
	}

	return nil
}

// stockBasicResponse is the /api/stock/{symbol}/basic payload. Prices are
// comma-separated strings, ratios are plain numbers or strings.
type stockBasicResponse struct {
	StockName                    string      `json:"stockName"`
	SectorName                   string      `json:"sectorName"`
	IndustryName                 string      `json:"industryName"`
	ClosePrice                   string      `json:"closePrice"`
	CompareToPreviousClosePrice  string      `json:"compareToPreviousClosePrice"`
	FluctuationsRatio            flexFloat64 `json:"fluctuationsRatio"`
	AccumulatedTradingVolume     string      `json:"accumulatedTradingVolume"`
	HighPrice                    string      `json:"highPrice"`
	LowPrice                     string      `json:"lowPrice"`
	OpenPrice                    string      `json:"openPrice"`
	PreviousClosePrice           string      `json:"previousClosePrice"`
	MarketCap                    string      `json:"marketCap"`
}

// GetQuote retrieves the current price snapshot for one symbol. Returns nil
// when the upstream is unreachable or the symbol is unknown.
func (c *Client) GetQuote(ctx context.Context, symbol string) *models.Quote {
	var resp stockBasicResponse
	if err := c.get(ctx, "/api/stock/"+url.PathEscape(symbol)+"/basic", nil, common.FreshnessQuote, &resp); err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("Quote fetch failed")
		return nil
	}
	if resp.ClosePrice == "" {
		return nil
	}

	return &models.Quote{
		Symbol:        symbol,
		Price:         common.ParseLocaleNumber(resp.ClosePrice),
		Change:        common.ParseLocaleNumber(resp.CompareToPreviousClosePrice),
		ChangePercent: float64(resp.FluctuationsRatio),
		Volume:        common.ParseLocaleInt(resp.AccumulatedTradingVolume),
		High:          common.ParseLocaleNumber(resp.HighPrice),
		Low:           common.ParseLocaleNumber(resp.LowPrice),
		Open:          common.ParseLocaleNumber(resp.OpenPrice),
		PrevClose:     common.ParseLocaleNumber(resp.PreviousClosePrice),
		MarketCap:     common.ParseLocaleNumber(resp.MarketCap),
		ObservedAt:    time.Now(),
	}
}

// GetStockInfo retrieves instrument metadata for one symbol.
func (c *Client) GetStockInfo(ctx context.Context, symbol string) *models.Instrument {
	var resp stockBasicResponse
	if err := c.get(ctx, "/api/stock/"+url.PathEscape(symbol)+"/basic", nil, common.FreshnessCompany, &resp); err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("Stock info fetch failed")
		return nil
	}
	if resp.StockName == "" {
		return nil
	}

	return &models.Instrument{
		Symbol:   symbol,
		Name:     resp.StockName,
		Sector:   resp.SectorName,
		Industry: resp.IndustryName,
	}
}

// searchResponse tolerates both observed shapes of the search payload:
// result.d and result.items, with per-item field names that vary.
type searchResponse struct {
	Result struct {
		D     []searchItem `json:"d"`
		Items []searchItem `json:"items"`
	} `json:"result"`
}

type searchItem struct {
	Code       string `json:"code"`
	ItemCode   string `json:"itemCode"`
	Name       string `json:"name"`
	StockName  string `json:"stockName"`
	Nation     string `json:"nation"`
	MarketType string `json:"marketType"`
	SectorName string `json:"sectorName"`
}

// Search queries the remote instrument search, keeping only Korean listed
// stocks and capping the result at limit.
func (c *Client) Search(ctx context.Context, query string, limit int) []models.Instrument {
	params := url.Values{}
	params.Set("query", query)

	var resp searchResponse
	if err := c.get(ctx, "/api/search", params, common.FreshnessSearch, &resp); err != nil {
		c.logger.Warn().Err(err).Str("query", query).Msg("Search failed")
		return nil
	}

	items := resp.Result.D
	if len(items) == 0 {
		items = resp.Result.Items
	}

	results := make([]models.Instrument, 0, limit)
	for _, item := range items {
		if item.Nation != "KOR" && item.MarketType != "stock" {
			continue
		}
		symbol := item.Code
		if symbol == "" {
			symbol = item.ItemCode
		}
		name := item.Name
		if name == "" {
			name = item.StockName
		}
		if symbol == "" || name == "" {
			continue
		}
		results = append(results, models.Instrument{
			Symbol: symbol,
			Name:   name,
			Sector: item.SectorName,
		})
		if len(results) >= limit {
			break
		}
	}
	return results
}

// chartBar is one bar of the /api/stock/{symbol}/chart payload.
type chartBar struct {
	LocalDate                string      `json:"localDate"`
	OpenPrice                flexFloat64 `json:"openPrice"`
	HighPrice                flexFloat64 `json:"highPrice"`
	LowPrice                 flexFloat64 `json:"lowPrice"`
	ClosePrice               flexFloat64 `json:"closePrice"`
	AccumulatedTradingVolume flexFloat64 `json:"accumulatedTradingVolume"`
}

// GetChart retrieves up to count OHLCV bars at the given granularity,
// ascending by date as the upstream returns them.
func (c *Client) GetChart(ctx context.Context, symbol string, period models.ChartPeriod, count int) []models.Candle {
	timeframe := "day"
	switch period {
	case models.ChartWeek:
		timeframe = "week"
	case models.ChartMonth:
		timeframe = "month"
	}

	params := url.Values{}
	params.Set("timeframe", timeframe)
	params.Set("count", strconv.Itoa(count))

	var bars []chartBar
	if err := c.get(ctx, "/api/stock/"+url.PathEscape(symbol)+"/chart", params, common.FreshnessChart, &bars); err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("Chart fetch failed")
		return nil
	}

	candles := make([]models.Candle, 0, len(bars))
	for _, b := range bars {
		if b.LocalDate == "" {
			continue
		}
		candles = append(candles, models.Candle{
			Date:   b.LocalDate,
			Open:   float64(b.OpenPrice),
			High:   float64(b.HighPrice),
			Low:    float64(b.LowPrice),
			Close:  float64(b.ClosePrice),
			Volume: int64(b.AccumulatedTradingVolume),
		})
	}
	return candles
}

// GetIndex retrieves the current level of a market index ("KOSPI"/"KOSDAQ").
func (c *Client) GetIndex(ctx context.Context, code string) *models.IndexQuote {
	var resp stockBasicResponse
	if err := c.get(ctx, "/api/index/"+url.PathEscape(code)+"/basic", nil, common.FreshnessMarketIndex, &resp); err != nil {
		c.logger.Warn().Err(err).Str("index", code).Msg("Index fetch failed")
		return nil
	}
	if resp.ClosePrice == "" {
		return nil
	}

	return &models.IndexQuote{
		Value:         common.ParseLocaleNumber(resp.ClosePrice),
		Change:        common.ParseLocaleNumber(resp.CompareToPreviousClosePrice),
		ChangePercent: float64(resp.FluctuationsRatio),
	}
}

// rankingResponse is the /api/domestic/stock/ranking/{sort} payload.
type rankingResponse struct {
	Stocks []rankingItem `json:"stocks"`
}

type rankingItem struct {
	ItemCode                    string      `json:"itemCode"`
	Code                        string      `json:"code"`
	StockName                   string      `json:"stockName"`
	Name                        string      `json:"name"`
	ClosePrice                  string      `json:"closePrice"`
	CompareToPreviousClosePrice string      `json:"compareToPreviousClosePrice"`
	FluctuationsRatio           flexFloat64 `json:"fluctuationsRatio"`
	AccumulatedTradingVolume    string      `json:"accumulatedTradingVolume"`
}

// GetRanking retrieves the top movers of one market in the given direction.
func (c *Client) GetRanking(ctx context.Context, market models.Market, direction models.RankDirection, count int) []models.RankedInstrument {
	sortType := "rise"
	if direction == models.RankFall {
		sortType = "fall"
	}

	params := url.Values{}
	params.Set("sospiCategory", string(market))

	var resp rankingResponse
	if err := c.get(ctx, "/api/domestic/stock/ranking/"+sortType, params, common.FreshnessMarketIndex, &resp); err != nil {
		c.logger.Warn().Err(err).Str("market", string(market)).Msg("Ranking fetch failed")
		return nil
	}

	ranked := make([]models.RankedInstrument, 0, count)
	for _, item := range resp.Stocks {
		symbol := item.ItemCode
		if symbol == "" {
			symbol = item.Code
		}
		name := item.StockName
		if name == "" {
			name = item.Name
		}
		if symbol == "" {
			continue
		}
		ranked = append(ranked, models.RankedInstrument{
			Instrument: models.Instrument{
				Symbol: symbol,
				Name:   name,
				Market: market,
			},
			Price:         common.ParseLocaleNumber(item.ClosePrice),
			Change:        common.ParseLocaleNumber(item.CompareToPreviousClosePrice),
			ChangePercent: float64(item.FluctuationsRatio),
			Volume:        common.ParseLocaleInt(item.AccumulatedTradingVolume),
		})
		if len(ranked) >= count {
			break
		}
	}
	return ranked
}
