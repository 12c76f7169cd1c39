package models

import "sort"

// FilingRecord is one corporate disclosure from the filing registry.
// ID is the registry receipt number and the record is immutable once fetched.
type FilingRecord struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol,omitempty"`
	Title  string `json:"title"`
	Type   string `json:"type"`
	Date   string `json:"date"` // YYYYMMDD
	URL    string `json:"url"`
}

// PeriodType distinguishes annual from quarterly statements.
type PeriodType string

const (
	PeriodAnnual    PeriodType = "annual"
	PeriodQuarterly PeriodType = "quarterly"
)

// FinancialPeriod holds the headline statement lines for one reporting
// period. Period is a label like "2024" or "2024Q1"; amounts are KRW.
type FinancialPeriod struct {
	Symbol          string     `json:"symbol"`
	Period          string     `json:"period"`
	PeriodType      PeriodType `json:"periodType"`
	Revenue         float64    `json:"revenue"`
	OperatingIncome float64    `json:"operatingIncome"`
	NetIncome       float64    `json:"netIncome"`
	Assets          float64    `json:"assets"`
	Liabilities     float64    `json:"liabilities"`
	Equity          float64    `json:"equity"`
}

// OperatingMargin returns operating income over revenue as a percentage,
// or 0 when revenue is zero.
func (f *FinancialPeriod) OperatingMargin() float64 {
	if f.Revenue == 0 {
		return 0
	}
	return f.OperatingIncome / f.Revenue * 100
}

// NetMargin returns net income over revenue as a percentage.
func (f *FinancialPeriod) NetMargin() float64 {
	if f.Revenue == 0 {
		return 0
	}
	return f.NetIncome / f.Revenue * 100
}

// ROE returns net income over equity as a percentage.
func (f *FinancialPeriod) ROE() float64 {
	if f.Equity == 0 {
		return 0
	}
	return f.NetIncome / f.Equity * 100
}

// DebtRatio returns liabilities over equity as a percentage.
func (f *FinancialPeriod) DebtRatio() float64 {
	if f.Equity == 0 {
		return 0
	}
	return f.Liabilities / f.Equity * 100
}

// SortFinancialPeriods orders a multi-period collection ascending by period
// label. Labels sort lexicographically: "2021" < "2022" and within a year
// "2024" < "2024Q1" < "2024Q3", which matches presentation order.
func SortFinancialPeriods(periods []FinancialPeriod) {
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Period < periods[j].Period
	})
}

// CompanyProfile is the registry's company metadata.
type CompanyProfile struct {
	CorpCode      string `json:"corpCode"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	CEO           string `json:"ceo,omitempty"`
	CorpClass     string `json:"corpClass,omitempty"` // Y: KOSPI, K: KOSDAQ
	Address       string `json:"address,omitempty"`
	Homepage      string `json:"homepage,omitempty"`
	EstablishDate string `json:"establishDate,omitempty"`
	AccountMonth  string `json:"accountMonth,omitempty"`
}

// Shareholder is one major-shareholder line from the registry.
type Shareholder struct {
	Name         string  `json:"name"`
	Relation     string  `json:"relation,omitempty"`
	ShareCount   int64   `json:"shareCount"`
	SharePercent float64 `json:"sharePercent"`
}

// DividendRecord is one year's dividend summary.
type DividendRecord struct {
	Year               string  `json:"year"`
	DividendPerShare   float64 `json:"dividendPerShare"`
	DividendYield      float64 `json:"dividendYield"`
	TotalDividend      float64 `json:"totalDividend"`
	PayoutRatio        float64 `json:"payoutRatio"`
}

// CompanyDetail aggregates everything the company page needs in one payload.
// Any member may be zero-valued when its upstream fetch failed — partial
// data is expected, not an error.
type CompanyDetail struct {
	Symbol       string            `json:"symbol"`
	Info         *CompanyProfile   `json:"info"`
	Financials   []FinancialPeriod `json:"financials"`
	Shareholders []Shareholder     `json:"shareholders"`
	Dividends    []DividendRecord  `json:"dividends"`
}
