package models

// MacroObservation is the latest value of one macroeconomic series.
type MacroObservation struct {
	SeriesID string  `json:"seriesId"`
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Date     string  `json:"date"`
	Unit     string  `json:"unit,omitempty"`
}

// TimeSeriesPoint is one observation in a macro series history. Histories
// are ascending by date.
type TimeSeriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// FearGreed is the alternative.me market sentiment reading.
type FearGreed struct {
	Value          int    `json:"value"`
	Classification string `json:"classification"`
	Timestamp      string `json:"timestamp"`
}

// MacroCategory groups the indicator sets the dashboard exposes.
type MacroCategory string

const (
	MacroSentiment   MacroCategory = "sentiment"
	MacroRates       MacroCategory = "rates"
	MacroExchange    MacroCategory = "exchange"
	MacroCommodities MacroCategory = "commodities"
	MacroUSEconomy   MacroCategory = "us_economy"
	MacroKorea       MacroCategory = "korea"
)

// MacroCategoryData is the payload for one macro category. Only the members
// relevant to the category are populated.
type MacroCategoryData struct {
	Category    MacroCategory      `json:"category"`
	Indicators  []MacroObservation `json:"indicators,omitempty"`
	FearGreed   *FearGreed         `json:"fearGreed,omitempty"`
	Exchange    []ExchangeRate     `json:"exchange,omitempty"`
	Commodities []CommodityPrice   `json:"commodities,omitempty"`
}
