// Package stock serves instrument metadata, quotes, search, and charts.
package stock

import (
	"context"

	"github.com/kofin/finboard/internal/clients/naver"
	"github.com/kofin/finboard/internal/clients/yahoo"
	"github.com/kofin/finboard/internal/common"
	"github.com/kofin/finboard/internal/fallback"
	"github.com/kofin/finboard/internal/models"
	"github.com/kofin/finboard/internal/reference"
)

// NaverClient is the primary quote/search/chart source.
type NaverClient interface {
	GetQuote(ctx context.Context, symbol string) *models.Quote
	GetStockInfo(ctx context.Context, symbol string) *models.Instrument
	Search(ctx context.Context, query string, limit int) []models.Instrument
	GetChart(ctx context.Context, symbol string, period models.ChartPeriod, count int) []models.Candle
}

// YahooClient is the chart fallback source.
type YahooClient interface {
	GetCandles(ctx context.Context, ticker, rng string) []models.Candle
}

// ReferenceIndex is the instrument universe used for search fallback and
// market classification.
type ReferenceIndex interface {
	Instruments(ctx context.Context) []models.Instrument
	InstrumentsWithSource(ctx context.Context) ([]models.Instrument, string)
	Search(ctx context.Context, query string) []models.Instrument
}

// Detail is the stock page payload.
type Detail struct {
	Stock *models.Instrument `json:"stock"`
	Price *models.Quote      `json:"price"`
}

// Service aggregates the stock-domain sources.
type Service struct {
	naver  NaverClient
	yahoo  YahooClient
	ref    ReferenceIndex
	logger *common.Logger
}

// NewService creates the stock service.
func NewService(naverClient NaverClient, yahooClient YahooClient, ref ReferenceIndex, logger *common.Logger) *Service {
	return &Service{
		naver:  naverClient,
		yahoo:  yahooClient,
		ref:    ref,
		logger: logger,
	}
}

var _ NaverClient = (*naver.Client)(nil)
var _ YahooClient = (*yahoo.Client)(nil)
var _ ReferenceIndex = (*reference.Service)(nil)

// lookupUniverse finds a symbol in the reference universe.
func (s *Service) lookupUniverse(ctx context.Context, symbol string) *models.Instrument {
	for _, inst := range s.ref.Instruments(ctx) {
		if inst.Symbol == symbol {
			found := inst
			return &found
		}
	}
	return nil
}

// GetStock returns the stock page payload. Metadata falls back from the
// live source to the reference universe; the quote has no fallback. Returns
// nil only when no source knows the symbol at all.
func (s *Service) GetStock(ctx context.Context, symbol string) *Detail {
	info, _ := fallback.Resolve(ctx, fallback.NotNil[models.Instrument],
		func(ctx context.Context) (*models.Instrument, error) {
			return s.naver.GetStockInfo(ctx, symbol), nil
		},
		func(ctx context.Context) (*models.Instrument, error) {
			return s.lookupUniverse(ctx, symbol), nil
		},
	)

	quote := s.naver.GetQuote(ctx, symbol)
	if info == nil && quote == nil {
		return nil
	}
	return &Detail{Stock: info, Price: quote}
}

// Search resolves a query through the live search first and the reference
// universe second. The reference layer already ends in a built-in listing,
// so the chain never errors, only empties.
func (s *Service) Search(ctx context.Context, query string, limit int) []models.Instrument {
	if limit <= 0 {
		limit = 15
	}

	results, _ := fallback.Resolve(ctx, fallback.NonEmpty[models.Instrument],
		func(ctx context.Context) ([]models.Instrument, error) {
			return s.naver.Search(ctx, query, limit), nil
		},
		func(ctx context.Context) ([]models.Instrument, error) {
			return s.ref.Search(ctx, query), nil
		},
	)
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// yahooRange maps a chart period to the Yahoo range string wide enough to
// cover the same window of daily candles.
func yahooRange(period models.ChartPeriod) string {
	switch period {
	case models.ChartWeek:
		return "2y"
	case models.ChartMonth:
		return "10y"
	case models.ChartYear:
		return "max"
	default:
		return "1y"
	}
}

// yahooTickers returns the Yahoo ticker candidates for a Korean symbol.
// When the market is known from the reference universe only the matching
// suffix is tried; otherwise both exchanges are probed.
func (s *Service) yahooTickers(ctx context.Context, symbol string) []string {
	if inst := s.lookupUniverse(ctx, symbol); inst != nil {
		if inst.Market == models.MarketKOSDAQ {
			return []string{symbol + ".KQ"}
		}
		return []string{symbol + ".KS"}
	}
	return []string{symbol + ".KS", symbol + ".KQ"}
}

// GetChart returns candles for a symbol, primary source first and Yahoo
// second. Yahoo only serves daily bars, so the fallback returns the most
// recent count of them regardless of the requested granularity.
func (s *Service) GetChart(ctx context.Context, symbol string, period models.ChartPeriod, count int) []models.Candle {
	if count <= 0 {
		count = 90
	}

	attempts := []fallback.Attempt[[]models.Candle]{
		func(ctx context.Context) ([]models.Candle, error) {
			return s.naver.GetChart(ctx, symbol, period, count), nil
		},
	}
	for _, ticker := range s.yahooTickers(ctx, symbol) {
		tk := ticker
		attempts = append(attempts, func(ctx context.Context) ([]models.Candle, error) {
			return s.yahoo.GetCandles(ctx, tk, yahooRange(period)), nil
		})
	}

	candles, _ := fallback.Resolve(ctx, fallback.NonEmpty[models.Candle], attempts...)
	if len(candles) > count {
		candles = candles[len(candles)-count:]
	}
	return candles
}

// ListAll returns the full instrument universe and which source produced
// it: "krx" for the live registry, "static" for the built-in fallback.
func (s *Service) ListAll(ctx context.Context) ([]models.Instrument, string) {
	return s.ref.InstrumentsWithSource(ctx)
}
