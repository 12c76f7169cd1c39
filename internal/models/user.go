package models

import "time"

// User-domain records. Declared for API compatibility with the dashboard
// frontend; no persistence or handlers exist for them yet.

// WatchlistItem is a user-pinned instrument.
type WatchlistItem struct {
	Symbol  string    `json:"symbol"`
	Name    string    `json:"name"`
	AddedAt time.Time `json:"addedAt"`
}

// PortfolioItem is a user holding with cost basis.
type PortfolioItem struct {
	Symbol   string    `json:"symbol"`
	Name     string    `json:"name"`
	Quantity float64   `json:"quantity"`
	AvgPrice float64   `json:"avgPrice"`
	AddedAt  time.Time `json:"addedAt"`
}

// StockMemo is a free-form user note attached to an instrument.
type StockMemo struct {
	Symbol    string    `json:"symbol"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updatedAt"`
}
