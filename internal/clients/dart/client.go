// Package dart provides a client for the DART OpenAPI (Financial
// Supervisory Service corporate disclosure registry). The registry is keyed
// by an 8-digit corp code, not the 6-digit exchange symbol; the symbol→corp
// code mapping comes from the bulk corpCode.xml archive (see corpcode.go)
// because the registry has no symbol lookup of its own.
package dart

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
	DefaultBaseURL   = "https://opendart.fss.or.kr/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second

	// statusOK is DART's in-band success code; anything else is an error
	// or an empty result ("013" = no data).
	statusOK     = "000"
	statusNoData = "013"

	filingViewerURL = "https://dart.fss.or.kr/dsaf001/main.do?rcpNo="
)

// Report codes for fnlttSinglAcnt and friends.
const (
	ReportQ1     = "11013"
	ReportHalf   = "11012"
	ReportQ3     = "11014"
	ReportAnnual = "11011"
)

// Client wraps the DART OpenAPI.
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

// WithCache sets the response cache used for revalidation windows
func WithCache(cc cache.Cache) ClientOption {
	return func(c *Client) {
		c.cache = cc
	}
}

// NewClient creates a new DART client
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

// get performs a rate-limited GET request. The cache key excludes the
// credential; the request URL includes it.
func (c *Client) get(ctx context.Context, path string, params url.Values, ttl time.Duration, result interface{}) error {
	if params == nil {
		params = url.Values{}
	}

	key := "dart:" + path + "?" + params.Encode()
	if c.cache != nil && ttl > 0 {
		if body, ok := c.cache.Get(ctx, key); ok {
			return json.Unmarshal(body, result)
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	params.Set("crtfc_key", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("path", path).Msg("DART API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("DART API status %d for %s", resp.StatusCode, path)
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

// companyResponse is the /company.json payload.
type companyResponse struct {
	Status     string `json:"status"`
	CorpCode   string `json:"corp_code"`
	CorpName   string `json:"corp_name"`
	StockCode  string `json:"stock_code"`
	CEOName    string `json:"ceo_nm"`
	CorpClass  string `json:"corp_cls"`
	Address    string `json:"adres"`
	Homepage   string `json:"hm_url"`
	EstDate    string `json:"est_dt"`
	AccMonth   string `json:"acc_mt"`
}

// GetCompany retrieves company metadata for a corp code. Returns nil when
// the registry has no record or the request fails.
func (c *Client) GetCompany(ctx context.Context, corpCode string) *models.CompanyProfile {
	params := url.Values{}
	params.Set("corp_code", corpCode)

	var resp companyResponse
	if err := c.get(ctx, "/company.json", params, common.FreshnessCompany, &resp); err != nil {
		c.logger.Warn().Err(err).Str("corp_code", corpCode).Msg("Company fetch failed")
		return nil
	}
	if resp.Status != statusOK {
		return nil
	}

	return &models.CompanyProfile{
		CorpCode:      resp.CorpCode,
		Name:          resp.CorpName,
		Symbol:        resp.StockCode,
		CEO:           resp.CEOName,
		CorpClass:     resp.CorpClass,
		Address:       resp.Address,
		Homepage:      resp.Homepage,
		EstablishDate: resp.EstDate,
		AccountMonth:  resp.AccMonth,
	}
}

// financialsResponse is the /fnlttSinglAcnt.json payload.
type financialsResponse struct {
	Status string          `json:"status"`
	List   []financialItem `json:"list"`
}

type financialItem struct {
	AccountName  string `json:"account_nm"`
	FSDiv        string `json:"fs_div"` // CFS: consolidated, OFS: separate
	ThstrmAmount string `json:"thstrm_amount"`
}

// accountAliases maps each statement line to the ordered account-name
// labels observed upstream; the first label present wins.
var accountAliases = map[string][]string{
	"revenue":         {"매출액", "수익(매출액)"},
	"operatingIncome": {"영업이익", "영업이익(손실)"},
	"netIncome":       {"당기순이익", "당기순이익(손실)"},
	"assets":          {"자산총계"},
	"liabilities":     {"부채총계"},
	"equity":          {"자본총계"},
}

func amountFor(items []financialItem, aliases []string) float64 {
	for _, alias := range aliases {
		for _, item := range items {
			if item.AccountName != alias {
				continue
			}
			if item.FSDiv != "CFS" && item.FSDiv != "OFS" {
				continue
			}
			if v := common.ParseLocaleNumber(item.ThstrmAmount); v != 0 {
				return v
			}
		}
	}
	return 0
}

func periodLabel(year, reportCode string) (string, models.PeriodType) {
	switch reportCode {
	case ReportQ1:
		return year + "Q1", models.PeriodQuarterly
	case ReportHalf:
		return year + "Q2", models.PeriodQuarterly
	case ReportQ3:
		return year + "Q3", models.PeriodQuarterly
	default:
		return year, models.PeriodAnnual
	}
}

// GetFinancials retrieves the headline statement lines for one period.
// Consolidated figures win over separate; alternate upstream account labels
// for the same line are tried in order.
func (c *Client) GetFinancials(ctx context.Context, corpCode, year, reportCode string) *models.FinancialPeriod {
	params := url.Values{}
	params.Set("corp_code", corpCode)
	params.Set("bsns_year", year)
	params.Set("reprt_code", reportCode)

	var resp financialsResponse
	if err := c.get(ctx, "/fnlttSinglAcnt.json", params, common.FreshnessFinancials, &resp); err != nil {
		c.logger.Warn().Err(err).Str("corp_code", corpCode).Str("year", year).Msg("Financials fetch failed")
		return nil
	}
	if resp.Status != statusOK || len(resp.List) == 0 {
		return nil
	}

	label, periodType := periodLabel(year, reportCode)

	return &models.FinancialPeriod{
		Period:          label,
		PeriodType:      periodType,
		Revenue:         amountFor(resp.List, accountAliases["revenue"]),
		OperatingIncome: amountFor(resp.List, accountAliases["operatingIncome"]),
		NetIncome:       amountFor(resp.List, accountAliases["netIncome"]),
		Assets:          amountFor(resp.List, accountAliases["assets"]),
		Liabilities:     amountFor(resp.List, accountAliases["liabilities"]),
		Equity:          amountFor(resp.List, accountAliases["equity"]),
	}
}

// GetMultiYearFinancials retrieves annual statements for the most recent
// years, ascending by period. Years with no published report are absent.
func (c *Client) GetMultiYearFinancials(ctx context.Context, corpCode string, years int) []models.FinancialPeriod {
	currentYear := time.Now().Year()
	periods := make([]models.FinancialPeriod, 0, years)

	for y := currentYear - years; y < currentYear; y++ {
		if f := c.GetFinancials(ctx, corpCode, strconv.Itoa(y), ReportAnnual); f != nil {
			periods = append(periods, *f)
		}
	}

	models.SortFinancialPeriods(periods)
	return periods
}

// filingsResponse is the /list.json payload.
type filingsResponse struct {
	Status string       `json:"status"`
	List   []filingItem `json:"list"`
}

type filingItem struct {
	RceptNo  string `json:"rcept_no"`
	ReportNm string `json:"report_nm"`
	PblntfTy string `json:"pblntf_ty"`
	RceptDt  string `json:"rcept_dt"`
}

// FilingQuery bounds a filing search. Zero values get defaults: the last
// 90 days, 20 rows, all filing types.
type FilingQuery struct {
	From  string // YYYYMMDD
	To    string // YYYYMMDD
	Type  string // A: periodic, B: material, C: issuance, ...
	Count int
}

// GetFilings retrieves recent disclosures for a corp code, newest first as
// the registry returns them.
func (c *Client) GetFilings(ctx context.Context, corpCode string, q FilingQuery) []models.FilingRecord {
	now := time.Now()
	if q.To == "" {
		q.To = now.Format(common.DateStampLayout)
	}
	if q.From == "" {
		q.From = now.AddDate(0, 0, -90).Format(common.DateStampLayout)
	}
	if q.Count <= 0 {
		q.Count = 20
	}

	params := url.Values{}
	params.Set("corp_code", corpCode)
	params.Set("bgn_de", q.From)
	params.Set("end_de", q.To)
	params.Set("page_count", strconv.Itoa(q.Count))
	if q.Type != "" {
		params.Set("pblntf_ty", q.Type)
	}

	var resp filingsResponse
	if err := c.get(ctx, "/list.json", params, common.FreshnessFilings, &resp); err != nil {
		c.logger.Warn().Err(err).Str("corp_code", corpCode).Msg("Filings fetch failed")
		return nil
	}
	if resp.Status != statusOK {
		return nil
	}

	filings := make([]models.FilingRecord, 0, len(resp.List))
	for _, item := range resp.List {
		filingType := item.PblntfTy
		if filingType == "" {
			filingType = "기타"
		}
		filings = append(filings, models.FilingRecord{
			ID:    item.RceptNo,
			Title: item.ReportNm,
			Type:  filingType,
			Date:  item.RceptDt,
			URL:   filingViewerURL + item.RceptNo,
		})
	}
	return filings
}
