package naver

import (
	"context"
	"net/url"
	"strings"

	"github.com/kofin/finboard/internal/common"
	"github.com/kofin/finboard/internal/fallback"
	"github.com/kofin/finboard/internal/models"
)

// Reuters codes for the marketIndex endpoints.
var (
	fxCodes = []struct{ currency, reuters string }{
		{"USD", "FX_USDKRW"},
		{"EUR", "FX_EURKRW"},
		{"JPY", "FX_JPYKRW"},
		{"CNY", "FX_CNYKRW"},
	}

	commodityCodes = []struct{ code, name, unit string }{
		{"OILCL1", "WTI Crude", "USD/bbl"},
		{"CMDT_GC", "Gold", "USD/oz"},
		{"CMDT_SI", "Silver", "USD/oz"},
	}
)

// productItem is one row of the marketIndex productList/productDetail
// payloads. Prices arrive as numeric strings.
type productItem struct {
	ReutersCode                 string      `json:"reutersCode"`
	Name                        string      `json:"name"`
	ClosePrice                  string      `json:"closePrice"`
	CompareToPreviousClosePrice string      `json:"compareToPreviousClosePrice"`
	FluctuationsRatio           flexFloat64 `json:"fluctuationsRatio"`
}

type productListResponse struct {
	Result []productItem `json:"result"`
}

type productDetailResponse struct {
	Result *productItem `json:"result"`
}

func (c *Client) productList(ctx context.Context, category string, reutersCodes []string) ([]productItem, error) {
	params := url.Values{}
	params.Set("category", category)
	params.Set("reutersCode", strings.Join(reutersCodes, ","))

	var resp productListResponse
	if err := c.get(ctx, "/front-api/marketIndex/productList", params, common.FreshnessFX, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

func (c *Client) productDetail(ctx context.Context, reutersCode string) (*productItem, error) {
	params := url.Values{}
	params.Set("reutersCode", reutersCode)

	var resp productDetailResponse
	if err := c.get(ctx, "/front-api/marketIndex/productDetail", params, common.FreshnessFX, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// productDetails fans one productDetail call per code, keeping whatever
// succeeds. It is the per-code fallback when the batch list endpoint fails
// or returns nothing.
func (c *Client) productDetails(ctx context.Context, codes []string) ([]productItem, error) {
	items := make([]productItem, 0, len(codes))
	for _, code := range codes {
		item, err := c.productDetail(ctx, code)
		if err != nil || item == nil {
			continue
		}
		if item.ReutersCode == "" {
			item.ReutersCode = code
		}
		items = append(items, *item)
	}
	return items, nil
}

// GetExchangeRates retrieves the KRW currency pairs, trying the batch list
// endpoint first and falling back to one productDetail call per pair.
func (c *Client) GetExchangeRates(ctx context.Context) []models.ExchangeRate {
	codes := make([]string, len(fxCodes))
	for i, fx := range fxCodes {
		codes[i] = fx.reuters
	}

	items, ok := fallback.Resolve(ctx, fallback.NonEmpty[productItem],
		func(ctx context.Context) ([]productItem, error) {
			return c.productList(ctx, "exchange", codes)
		},
		func(ctx context.Context) ([]productItem, error) {
			return c.productDetails(ctx, codes)
		},
	)
	if !ok {
		c.logger.Warn().Msg("Exchange rate fetch failed on all endpoints")
		return nil
	}

	rates := make([]models.ExchangeRate, 0, len(items))
	for _, item := range items {
		currency := strings.TrimSuffix(strings.TrimPrefix(item.ReutersCode, "FX_"), "KRW")
		if currency == "" {
			currency = item.Name
		}
		rates = append(rates, models.ExchangeRate{
			Currency:      currency,
			Rate:          common.ParseLocaleNumber(item.ClosePrice),
			Change:        common.ParseLocaleNumber(item.CompareToPreviousClosePrice),
			ChangePercent: float64(item.FluctuationsRatio),
		})
	}
	return rates
}

// GetCommodities retrieves global commodity quotes with the same
// list-then-per-code fallback as GetExchangeRates.
func (c *Client) GetCommodities(ctx context.Context) []models.CommodityPrice {
	codes := make([]string, len(commodityCodes))
	names := make(map[string]string, len(commodityCodes))
	units := make(map[string]string, len(commodityCodes))
	for i, cc := range commodityCodes {
		codes[i] = cc.code
		names[cc.code] = cc.name
		units[cc.code] = cc.unit
	}

	items, ok := fallback.Resolve(ctx, fallback.NonEmpty[productItem],
		func(ctx context.Context) ([]productItem, error) {
			return c.productList(ctx, "worldCommodity", codes)
		},
		func(ctx context.Context) ([]productItem, error) {
			return c.productDetails(ctx, codes)
		},
	)
	if !ok {
		c.logger.Warn().Msg("Commodity fetch failed on all endpoints")
		return nil
	}

	prices := make([]models.CommodityPrice, 0, len(items))
	for _, item := range items {
		name := names[item.ReutersCode]
		if name == "" {
			name = item.Name
		}
		prices = append(prices, models.CommodityPrice{
			Name:          name,
			Price:         common.ParseLocaleNumber(item.ClosePrice),
			Change:        common.ParseLocaleNumber(item.CompareToPreviousClosePrice),
			ChangePercent: float64(item.FluctuationsRatio),
			Unit:          units[item.ReutersCode],
		})
	}
	return prices
}
