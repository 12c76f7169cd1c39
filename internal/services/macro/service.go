// Package macro serves the macro dashboard: indicator sets grouped by
// category and per-series histories, each category drawing from the source
// that publishes it.
package macro

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/kofin/finboard/internal/clients/ecos"
	"github.com/kofin/finboard/internal/clients/feargreed"
	"github.com/kofin/finboard/internal/clients/fred"
	"github.com/kofin/finboard/internal/clients/naver"
	"github.com/kofin/finboard/internal/clients/yahoo"
	"github.com/kofin/finboard/internal/common"
	"github.com/kofin/finboard/internal/models"
)

// Dispatch errors. ErrNoCredential short-circuits to a 500; the others are
// client errors.
var (
	ErrNoCredential    = errors.New("macro source API key is not configured")
	ErrUnknownCategory = errors.New("unknown macro category")
	ErrUnknownSource   = errors.New("unknown macro history source")
	ErrUnknownSeries   = errors.New("unknown macro series")
)

const fearGreedHistoryDays = 90

// FredClient serves US series.
type FredClient interface {
	GetLatest(ctx context.Context, seriesID string) *models.MacroObservation
	GetHistory(ctx context.Context, seriesID string) []models.TimeSeriesPoint
}

// EcosClient serves Korean series.
type EcosClient interface {
	GetLatest(ctx context.Context, s ecos.Series) *models.MacroObservation
	GetHistory(ctx context.Context, s ecos.Series) []models.TimeSeriesPoint
}

// YahooClient serves global index and futures tickers.
type YahooClient interface {
	GetIndexQuote(ctx context.Context, ticker, name string) *models.IndexQuote
	GetHistory(ctx context.Context, ticker string) []models.TimeSeriesPoint
}

// FearGreedClient serves the sentiment index.
type FearGreedClient interface {
	GetCurrent(ctx context.Context) *models.FearGreed
	GetHistory(ctx context.Context, n int) []models.TimeSeriesPoint
}

// FXSource serves KRW exchange rates and commodity quotes.
type FXSource interface {
	GetExchangeRates(ctx context.Context) []models.ExchangeRate
	GetCommodities(ctx context.Context) []models.CommodityPrice
}

// Service dispatches macro categories and histories to their sources.
type Service struct {
	fred      FredClient
	ecosc     EcosClient
	yahoo     YahooClient
	feargreed FearGreedClient
	fx        FXSource
	logger    *common.Logger

	fredEnabled bool
	ecosEnabled bool
}

// NewService creates the macro service. The enabled flags reflect which
// credentials are configured; categories that depend only on a disabled
// source reject with ErrNoCredential.
func NewService(fredClient FredClient, ecosClient EcosClient, yahooClient YahooClient, fg FearGreedClient, fx FXSource, fredEnabled, ecosEnabled bool, logger *common.Logger) *Service {
	return &Service{
		fred:        fredClient,
		ecosc:       ecosClient,
		yahoo:       yahooClient,
		feargreed:   fg,
		fx:          fx,
		logger:      logger,
		fredEnabled: fredEnabled,
		ecosEnabled: ecosEnabled,
	}
}

var _ FredClient = (*fred.Client)(nil)
var _ EcosClient = (*ecos.Client)(nil)
var _ YahooClient = (*yahoo.Client)(nil)
var _ FearGreedClient = (*feargreed.Client)(nil)
var _ FXSource = (*naver.Client)(nil)

// named relabels an observation for presentation; nil passes through.
func named(obs *models.MacroObservation, name, unit string) *models.MacroObservation {
	if obs == nil {
		return nil
	}
	obs.Name = name
	obs.Unit = unit
	return obs
}

// indexAsObservation flattens an index-quote into an indicator row.
func indexAsObservation(q *models.IndexQuote) *models.MacroObservation {
	if q == nil {
		return nil
	}
	return &models.MacroObservation{
		SeriesID: q.Symbol,
		Name:     q.Name,
		Value:    q.Value,
	}
}

// collect runs the fetches concurrently and keeps the non-nil results in
// input order.
func collect(ctx context.Context, fetches ...func(ctx context.Context) *models.MacroObservation) []models.MacroObservation {
	results := make([]*models.MacroObservation, len(fetches))

	g, gctx := errgroup.WithContext(ctx)
	for i, fetch := range fetches {
		i, fetch := i, fetch
		g.Go(func() error {
			results[i] = fetch(gctx)
			return nil
		})
	}
	g.Wait()

	indicators := make([]models.MacroObservation, 0, len(results))
	for _, obs := range results {
		if obs != nil {
			indicators = append(indicators, *obs)
		}
	}
	return indicators
}

// Category returns one macro category's payload. Individual indicator
// fetches fail soft; a category whose only sources lack credentials fails
// with ErrNoCredential.
func (s *Service) Category(ctx context.Context, category models.MacroCategory) (*models.MacroCategoryData, error) {
	data := &models.MacroCategoryData{Category: category}

	switch category {
	case models.MacroSentiment:
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			data.FearGreed = s.feargreed.GetCurrent(gctx)
			return nil
		})
		g.Go(func() error {
			data.Indicators = collect(gctx, func(ctx context.Context) *models.MacroObservation {
				return indexAsObservation(s.yahoo.GetIndexQuote(ctx, yahoo.TickerVIX, "VIX"))
			})
			return nil
		})
		g.Wait()

	case models.MacroRates:
		if !s.fredEnabled {
			return nil, ErrNoCredential
		}
		fetches := []func(ctx context.Context) *models.MacroObservation{
			func(ctx context.Context) *models.MacroObservation {
				return named(s.fred.GetLatest(ctx, fred.SeriesFedFunds), "미국 기준금리", "%")
			},
			func(ctx context.Context) *models.MacroObservation {
				return named(s.fred.GetLatest(ctx, fred.SeriesTreasury10Y), "미국 국채 10년", "%")
			},
			func(ctx context.Context) *models.MacroObservation {
				return named(s.fred.GetLatest(ctx, fred.SeriesTreasury2Y), "미국 국채 2년", "%")
			},
		}
		if s.ecosEnabled {
			fetches = append(fetches, func(ctx context.Context) *models.MacroObservation {
				return named(s.ecosc.GetLatest(ctx, ecos.SeriesBaseRate), "한국 기준금리", "%")
			})
		}
		data.Indicators = collect(ctx, fetches...)

	case models.MacroExchange:
		data.Exchange = s.fx.GetExchangeRates(ctx)

	case models.MacroCommodities:
		data.Commodities = s.fx.GetCommodities(ctx)

	case models.MacroUSEconomy:
		if !s.fredEnabled {
			return nil, ErrNoCredential
		}
		data.Indicators = collect(ctx,
			func(ctx context.Context) *models.MacroObservation {
				return named(s.fred.GetLatest(ctx, fred.SeriesCPI), "미국 CPI", "index")
			},
			func(ctx context.Context) *models.MacroObservation {
				return named(s.fred.GetLatest(ctx, fred.SeriesUnemployment), "미국 실업률", "%")
			},
			func(ctx context.Context) *models.MacroObservation {
				return indexAsObservation(s.yahoo.GetIndexQuote(ctx, yahoo.TickerSP500, "S&P 500"))
			},
			func(ctx context.Context) *models.MacroObservation {
				return indexAsObservation(s.yahoo.GetIndexQuote(ctx, yahoo.TickerNasdaq, "나스닥"))
			},
		)

	case models.MacroKorea:
		if !s.ecosEnabled {
			return nil, ErrNoCredential
		}
		data.Indicators = collect(ctx,
			func(ctx context.Context) *models.MacroObservation {
				return named(s.ecosc.GetLatest(ctx, ecos.SeriesBaseRate), "기준금리", "%")
			},
			func(ctx context.Context) *models.MacroObservation {
				return named(s.ecosc.GetLatest(ctx, ecos.SeriesKoreaCPI), "소비자물가지수", "index")
			},
			func(ctx context.Context) *models.MacroObservation {
				return indexAsObservation(s.yahoo.GetIndexQuote(ctx, yahoo.TickerUSDKRW, "원/달러"))
			},
		)

	default:
		return nil, ErrUnknownCategory
	}

	return data, nil
}

// ecosSeriesByID maps the public series names accepted by the history
// endpoint to ECOS statistic coordinates.
var ecosSeriesByID = map[string]ecos.Series{
	"base_rate": ecos.SeriesBaseRate,
	"cpi":       ecos.SeriesKoreaCPI,
}

// History returns one year of a series, dispatched by source: "fred" and
// "ecos" take their native series IDs, "yahoo" a ticker, "fng" ignores the
// ID.
func (s *Service) History(ctx context.Context, source, seriesID string) ([]models.TimeSeriesPoint, error) {
	switch source {
	case "fred":
		if !s.fredEnabled {
			return nil, ErrNoCredential
		}
		if seriesID == "" {
			return nil, ErrUnknownSeries
		}
		return s.fred.GetHistory(ctx, seriesID), nil

	case "ecos":
		if !s.ecosEnabled {
			return nil, ErrNoCredential
		}
		series, ok := ecosSeriesByID[seriesID]
		if !ok {
			return nil, ErrUnknownSeries
		}
		return s.ecosc.GetHistory(ctx, series), nil

	case "yahoo":
		if seriesID == "" {
			return nil, ErrUnknownSeries
		}
		return s.yahoo.GetHistory(ctx, seriesID), nil

	case "fng":
		return s.feargreed.GetHistory(ctx, fearGreedHistoryDays), nil

	default:
		return nil, ErrUnknownSource
	}
}
