// Package datagokr provides a client for the data.go.kr public-data portal
// services published by the Financial Services Commission: the KRX listed
// instrument registry, daily price rankings, and short-selling balances.
//
// All three services are keyed by a YYYYMMDD settlement date (basDt) and
// publish each trading day's data with a lag, so callers probe recent
// business days until one yields rows.
package datagokr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kofin/finboard/internal/cache"
	"github.com/kofin/finboard/internal/common"
	"github.com/kofin/finboard/internal/models"
)

const (
	DefaultBaseURL   = "https://apis.data.go.kr/1160100/service"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5

	pathListedInfo   = "/GetKrxListedInfoService/getItemInfo"
	pathPriceInfo    = "/GetStockSecuritiesInfoService/getStockPriceInfo"
	pathShortSelling = "/GetShortSellingInfoService/getShortSellingInfo"

	// The KRX lists roughly 2,700 companies; one page covers the registry.
	listedInfoRows = 3000
)

// Client wraps the data.go.kr FSC services.
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

// NewClient creates a new data.go.kr client
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

// envelope is the portal's common response wrapper.
type envelope struct {
	Response struct {
		Body struct {
			TotalCount int `json:"totalCount"`
			Items      struct {
				Item []map[string]string `json:"item"`
			} `json:"items"`
		} `json:"body"`
	} `json:"response"`
}

// get fetches one page from a portal service for a settlement date. It
// returns the raw item maps and the service's total row count; an empty
// item list is not an error (the date may simply have no data yet).
func (c *Client) get(ctx context.Context, path string, params url.Values, ttl time.Duration) ([]map[string]string, int, error) {
	params.Set("resultType", "json")

	key := "datagokr:" + path + "?" + params.Encode()
	if c.cache != nil && ttl > 0 {
		if body, ok := c.cache.Get(ctx, key); ok {
			var cached envelope
			if err := json.Unmarshal(body, &cached); err == nil {
				return cached.Response.Body.Items.Item, cached.Response.Body.TotalCount, nil
			}
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limit wait: %w", err)
	}

	params.Set("serviceKey", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("path", path).Str("basDt", params.Get("basDt")).Msg("data.go.kr request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("data.go.kr status %d for %s", resp.StatusCode, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	// Quota and key errors come back as an XML fault document.
	var decoded envelope
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, 0, fmt.Errorf("failed to decode response: %w", err)
	}

	if c.cache != nil && ttl > 0 && len(decoded.Response.Body.Items.Item) > 0 {
		c.cache.Set(ctx, key, body, ttl)
	}

	return decoded.Response.Body.Items.Item, decoded.Response.Body.TotalCount, nil
}

// GetListedInstruments retrieves the full KRX listing for a settlement
// date, restricted to KOSPI and KOSDAQ (KONEX is excluded), deduplicated by
// symbol. The registry prefixes short codes with "A"; that prefix is
// stripped so symbols match the 6-digit exchange form. Unlike the
// per-request methods this returns an error: the reference cache needs to
// distinguish a failed refresh from an empty trading day.
func (c *Client) GetListedInstruments(ctx context.Context, date string) ([]models.Instrument, error) {
	params := url.Values{}
	params.Set("basDt", date)
	params.Set("numOfRows", strconv.Itoa(listedInfoRows))
	params.Set("pageNo", "1")

	items, _, err := c.get(ctx, pathListedInfo, params, common.FreshnessReference)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no listed instruments for %s", date)
	}

	seen := make(map[string]bool, len(items))
	instruments := make([]models.Instrument, 0, len(items))
	for _, item := range items {
		market := models.Market(item["mrktCtg"])
		if market != models.MarketKOSPI && market != models.MarketKOSDAQ {
			continue
		}
		symbol := strings.TrimPrefix(strings.TrimSpace(item["srtnCd"]), "A")
		name := strings.TrimSpace(item["itmsNm"])
		if symbol == "" || name == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		instruments = append(instruments, models.Instrument{
			Symbol: symbol,
			Name:   name,
			Market: market,
		})
	}

	if len(instruments) == 0 {
		return nil, fmt.Errorf("listed instruments for %s held no KOSPI/KOSDAQ rows", date)
	}
	return instruments, nil
}

// rankedFromItem maps one price-info row. Symbols may carry the registry's
// "A" prefix depending on the service revision.
func rankedFromItem(item map[string]string) models.RankedInstrument {
	return models.RankedInstrument{
		Instrument: models.Instrument{
			Symbol: strings.TrimPrefix(strings.TrimSpace(item["srtnCd"]), "A"),
			Name:   strings.TrimSpace(item["itmsNm"]),
			Market: models.Market(item["mrktCtg"]),
		},
		Date:          item["basDt"],
		Price:         common.ParseLocaleNumber(item["clpr"]),
		Change:        common.ParseLocaleNumber(item["vs"]),
		ChangePercent: common.ParseLocaleNumber(item["fltRt"]),
		Volume:        common.ParseLocaleInt(item["trqu"]),
		TradingValue:  common.ParseLocaleInt(item["trPrc"]),
		MarketCap:     common.ParseLocaleNumber(item["mrktTotAmt"]),
	}
}

// GetPriceRanking retrieves one page of daily price rows for a market on a
// settlement date, sorted by the requested metric descending. The second
// return is the service's total row count for the query, which callers use
// for pagination. Returns nil rows on failure or when the date has no data.
func (c *Client) GetPriceRanking(ctx context.Context, date string, market models.Market, sortBy models.RankSort, page, size int) ([]models.RankedInstrument, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}

	params := url.Values{}
	params.Set("basDt", date)
	params.Set("mrktCtg", string(market))
	params.Set("numOfRows", strconv.Itoa(size))
	params.Set("pageNo", strconv.Itoa(page))

	items, total, err := c.get(ctx, pathPriceInfo, params, common.FreshnessRanking)
	if err != nil {
		c.logger.Warn().Err(err).Str("market", string(market)).Str("basDt", date).Msg("Price ranking fetch failed")
		return nil, 0
	}
	if len(items) == 0 {
		return nil, 0
	}

	ranked := make([]models.RankedInstrument, 0, len(items))
	for _, item := range items {
		ranked = append(ranked, rankedFromItem(item))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if sortBy == models.RankByTradingValue {
			return ranked[i].TradingValue > ranked[j].TradingValue
		}
		return ranked[i].Volume > ranked[j].Volume
	})

	return ranked, total
}

// GetShortSelling retrieves the short-selling balance rows for a settlement
// date, sorted by short ratio descending and truncated to limit. Rows with
// zero short volume are dropped. Returns nil on failure or when the date
// has no data.
func (c *Client) GetShortSelling(ctx context.Context, date string, limit int) []models.ShortInterest {
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{}
	params.Set("basDt", date)
	params.Set("numOfRows", "100")
	params.Set("pageNo", "1")

	items, _, err := c.get(ctx, pathShortSelling, params, common.FreshnessRanking)
	if err != nil {
		c.logger.Warn().Err(err).Str("basDt", date).Msg("Short selling fetch failed")
		return nil
	}
	if len(items) == 0 {
		return nil
	}

	rows := make([]models.ShortInterest, 0, len(items))
	for _, item := range items {
		shortVolume := common.ParseLocaleInt(item["cvsrtnDlQty"])
		if shortVolume == 0 {
			continue
		}
		totalVolume := common.ParseLocaleInt(item["trdQty"])
		row := models.ShortInterest{
			Instrument: models.Instrument{
				Symbol: strings.TrimPrefix(strings.TrimSpace(item["srtnCd"]), "A"),
				Name:   strings.TrimSpace(item["itmsNm"]),
				Market: models.Market(item["mrktCtg"]),
			},
			Date:        item["basDt"],
			ShortVolume: shortVolume,
			ShortAmount: common.ParseLocaleInt(item["cvsrtnDlAmt"]),
			TotalVolume: totalVolume,
		}
		if totalVolume > 0 {
			row.ShortRatio = float64(shortVolume) / float64(totalVolume) * 100
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ShortRatio > rows[j].ShortRatio
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
