// Package models defines the internal data model shared by clients,
// services, and the HTTP layer.
package models

import "time"

// Market identifies the exchange an instrument trades on.
type Market string

const (
	MarketKOSPI  Market = "KOSPI"
	MarketKOSDAQ Market = "KOSDAQ"
)

// Instrument is a tradable security. Symbol is the exchange-local code
// (fixed-width numeric string, e.g. "005930") and is the identity key for
// all merge and dedup steps.
type Instrument struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Market   Market `json:"market"`
	Sector   string `json:"sector,omitempty"`
	Industry string `json:"industry,omitempty"`
}

// Quote is a point-in-time price snapshot for one instrument. Change and
// ChangePercent come from the upstream as-is and are not recomputed.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Volume        int64     `json:"volume"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Open          float64   `json:"open"`
	PrevClose     float64   `json:"prevClose"`
	MarketCap     float64   `json:"marketCap,omitempty"`
	ObservedAt    time.Time `json:"observedAt"`
}

// IndexQuote is the current level of a market index.
type IndexQuote struct {
	Symbol        string  `json:"symbol,omitempty"`
	Name          string  `json:"name,omitempty"`
	Value         float64 `json:"value"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// Candle is one OHLCV bar. Date is YYYY-MM-DD (or the upstream's local date
// string for sub-daily granularities). Sequences are ascending by date with
// no gap-filling — missing trading days are simply absent.
type Candle struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// ChartPeriod is the granularity of a candle series.
type ChartPeriod string

const (
	ChartDay   ChartPeriod = "day"
	ChartWeek  ChartPeriod = "week"
	ChartMonth ChartPeriod = "month"
	ChartYear  ChartPeriod = "year"
)

// RankedInstrument is an instrument row in a ranking list together with the
// metrics the ranking can be keyed on. Produced only by merge/rank
// aggregation, never persisted.
type RankedInstrument struct {
	Instrument
	Date          string  `json:"date,omitempty"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Volume        int64   `json:"volume,omitempty"`
	TradingValue  int64   `json:"tradingValue,omitempty"`
	MarketCap     float64 `json:"marketCap,omitempty"`
}

// ShortInterest is one short-selling ranking row. ShortRatio is the short
// volume as a percentage of total traded volume on the stamp date.
type ShortInterest struct {
	Instrument
	Date        string  `json:"date"`
	ShortVolume int64   `json:"shortVolume"`
	ShortAmount int64   `json:"shortAmount"`
	TotalVolume int64   `json:"totalVolume"`
	ShortRatio  float64 `json:"shortRatio"`
}

// RankSort selects the ranking metric for paginated ranking queries.
type RankSort string

const (
	RankByVolume       RankSort = "volume"
	RankByTradingValue RankSort = "trading_value"
)

// RankDirection orders a merged ranking list.
type RankDirection string

const (
	RankRise RankDirection = "rise"
	RankFall RankDirection = "fall"
)

// ExchangeRate is one KRW currency pair.
type ExchangeRate struct {
	Currency      string  `json:"currency"`
	Rate          float64 `json:"rate"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// CommodityPrice is one global commodity quote.
type CommodityPrice struct {
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Unit          string  `json:"unit,omitempty"`
}
