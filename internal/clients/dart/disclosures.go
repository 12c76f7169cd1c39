package dart

import (
	"context"
	"net/url"
	"strings"

	"github.com/kofin/finboard/internal/common"
	"github.com/kofin/finboard/internal/models"
)

// dividendsResponse is the /alotMatter.json payload. Each list item is one
// labeled row of the dividend table; the label lives in the "se" field.
type dividendsResponse struct {
	Status string         `json:"status"`
	List   []dividendItem `json:"list"`
}

type dividendItem struct {
	Label        string `json:"se"`
	StockKind    string `json:"stock_knd"`
	ThstrmAmount string `json:"thstrm"`
}

func dividendRow(items []dividendItem, labelPart string) float64 {
	for _, item := range items {
		if !strings.Contains(item.Label, labelPart) {
			continue
		}
		// Rows for preferred stock carry a stock kind; take the common row.
		if item.StockKind != "" && !strings.Contains(item.StockKind, "보통") {
			continue
		}
		if v := common.ParseLocaleNumber(item.ThstrmAmount); v != 0 {
			return v
		}
	}
	return 0
}

// GetDividends retrieves one fiscal year's dividend summary. Returns nil
// when the year has no dividend disclosure.
func (c *Client) GetDividends(ctx context.Context, corpCode, year string) *models.DividendRecord {
	params := url.Values{}
	params.Set("corp_code", corpCode)
	params.Set("bsns_year", year)
	params.Set("reprt_code", ReportAnnual)

	var resp dividendsResponse
	if err := c.get(ctx, "/alotMatter.json", params, common.FreshnessFinancials, &resp); err != nil {
		c.logger.Warn().Err(err).Str("corp_code", corpCode).Str("year", year).Msg("Dividends fetch failed")
		return nil
	}
	if resp.Status != statusOK || len(resp.List) == 0 {
		return nil
	}

	record := &models.DividendRecord{
		Year:             year,
		DividendPerShare: dividendRow(resp.List, "주당 현금배당금"),
		DividendYield:    dividendRow(resp.List, "현금배당수익률"),
		TotalDividend:    dividendRow(resp.List, "현금배당금총액"),
		PayoutRatio:      dividendRow(resp.List, "현금배당성향"),
	}
	if record.DividendPerShare == 0 && record.TotalDividend == 0 {
		return nil
	}
	return record
}

// shareholdersResponse is the /hyslrSttus.json payload.
type shareholdersResponse struct {
	Status string            `json:"status"`
	List   []shareholderItem `json:"list"`
}

type shareholderItem struct {
	Name          string `json:"nm"`
	Relation      string `json:"relate"`
	TrmendShares  string `json:"trmend_posesn_stock_co"`
	TrmendPercent string `json:"trmend_posesn_stock_qota_rt"`
}

// GetShareholders retrieves the largest-shareholder table for a fiscal
// year. The "계" (total) row is dropped; holders with zero end-of-term
// shares are kept out as well.
func (c *Client) GetShareholders(ctx context.Context, corpCode, year string) []models.Shareholder {
	params := url.Values{}
	params.Set("corp_code", corpCode)
	params.Set("bsns_year", year)
	params.Set("reprt_code", ReportAnnual)

	var resp shareholdersResponse
	if err := c.get(ctx, "/hyslrSttus.json", params, common.FreshnessFinancials, &resp); err != nil {
		c.logger.Warn().Err(err).Str("corp_code", corpCode).Str("year", year).Msg("Shareholders fetch failed")
		return nil
	}
	if resp.Status != statusOK {
		return nil
	}

	holders := make([]models.Shareholder, 0, len(resp.List))
	for _, item := range resp.List {
		if item.Name == "계" {
			continue
		}
		shares := common.ParseLocaleInt(item.TrmendShares)
		if shares == 0 {
			continue
		}
		holders = append(holders, models.Shareholder{
			Name:         item.Name,
			Relation:     item.Relation,
			ShareCount:   shares,
			SharePercent: common.ParseLocaleNumber(item.TrmendPercent),
		})
	}
	return holders
}
