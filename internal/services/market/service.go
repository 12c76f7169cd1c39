// Package market serves the market overview, paginated rankings, and
// short-selling lists that span both exchanges.
package market

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/kofin/finboard/internal/clients/datagokr"
	"github.com/kofin/finboard/internal/clients/naver"
	"github.com/kofin/finboard/internal/common"
	"github.com/kofin/finboard/internal/fallback"
	"github.com/kofin/finboard/internal/models"
)

// IndexSource serves index levels and per-market rise/fall lists.
type IndexSource interface {
	GetIndex(ctx context.Context, code string) *models.IndexQuote
	GetRanking(ctx context.Context, market models.Market, direction models.RankDirection, count int) []models.RankedInstrument
}

// RankingSource serves the date-stamped ranking and short-selling rows.
type RankingSource interface {
	GetPriceRanking(ctx context.Context, date string, market models.Market, sortBy models.RankSort, page, size int) ([]models.RankedInstrument, int)
	GetShortSelling(ctx context.Context, date string, limit int) []models.ShortInterest
}

// IndexLevels holds both exchange index quotes; either side may be nil
// when its source is unavailable.
type IndexLevels struct {
	Kospi  *models.IndexQuote `json:"kospi"`
	Kosdaq *models.IndexQuote `json:"kosdaq"`
}

// Overview is the market overview payload.
type Overview struct {
	Index   IndexLevels               `json:"index"`
	TopRise []models.RankedInstrument `json:"topRise"`
	TopFall []models.RankedInstrument `json:"topFall"`
}

// RankingPage is one page of the merged two-market ranking.
type RankingPage struct {
	Items   []models.RankedInstrument `json:"items"`
	Date    string                    `json:"date"`
	Page    int                       `json:"page"`
	HasMore bool                      `json:"hasMore"`
}

// ShortSellingList is the short-selling ranking with its settlement date.
type ShortSellingList struct {
	Items []models.ShortInterest `json:"items"`
	Date  string                 `json:"date"`
}

const (
	overviewListSize = 10
	dateFallbackDays = 5
)

// Service aggregates the market-domain sources.
type Service struct {
	index   IndexSource
	ranking RankingSource
	logger  *common.Logger
}

// NewService creates the market service.
func NewService(index IndexSource, ranking RankingSource, logger *common.Logger) *Service {
	return &Service{
		index:   index,
		ranking: ranking,
		logger:  logger,
	}
}

var _ IndexSource = (*naver.Client)(nil)
var _ RankingSource = (*datagokr.Client)(nil)

// mergeRanked concatenates both markets' lists, drops later duplicates of a
// symbol (the first occurrence wins), and orders by change percent:
// descending for rise, ascending for fall. The sort is stable so upstream
// ordering breaks ties.
func mergeRanked(a, b []models.RankedInstrument, direction models.RankDirection) []models.RankedInstrument {
	seen := make(map[string]bool, len(a)+len(b))
	merged := make([]models.RankedInstrument, 0, len(a)+len(b))
	for _, row := range append(append([]models.RankedInstrument{}, a...), b...) {
		if row.Symbol == "" || seen[row.Symbol] {
			continue
		}
		seen[row.Symbol] = true
		merged = append(merged, row)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if direction == models.RankFall {
			return merged[i].ChangePercent < merged[j].ChangePercent
		}
		return merged[i].ChangePercent > merged[j].ChangePercent
	})
	return merged
}

// Overview fans out to both index levels and both directions' merged lists.
// Every branch fails soft, so a partial overview is a normal result.
func (s *Service) Overview(ctx context.Context) *Overview {
	overview := &Overview{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		overview.Index.Kospi = s.index.GetIndex(gctx, "KOSPI")
		return nil
	})
	g.Go(func() error {
		overview.Index.Kosdaq = s.index.GetIndex(gctx, "KOSDAQ")
		return nil
	})
	g.Go(func() error {
		overview.TopRise = s.topMoved(gctx, models.RankRise)
		return nil
	})
	g.Go(func() error {
		overview.TopFall = s.topMoved(gctx, models.RankFall)
		return nil
	})
	g.Wait()

	return overview
}

// topMoved merges one direction's per-market lists.
func (s *Service) topMoved(ctx context.Context, direction models.RankDirection) []models.RankedInstrument {
	var kospi, kosdaq []models.RankedInstrument

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		kospi = s.index.GetRanking(gctx, models.MarketKOSPI, direction, overviewListSize)
		return nil
	})
	g.Go(func() error {
		kosdaq = s.index.GetRanking(gctx, models.MarketKOSDAQ, direction, overviewListSize)
		return nil
	})
	g.Wait()

	merged := mergeRanked(kospi, kosdaq, direction)
	if len(merged) > overviewListSize {
		merged = merged[:overviewListSize]
	}
	return merged
}

// rankingDay is one settlement day's two-market query result.
type rankingDay struct {
	kospi       []models.RankedInstrument
	kosdaq      []models.RankedInstrument
	kospiTotal  int
	kosdaqTotal int
	date        string
}

// Ranking returns one merged page of the volume or trading-value ranking.
// Both markets are queried at the same page index and size, merged, sorted
// by the ranking metric, and truncated back to one page; hasMore is true
// when either market has rows beyond this page. The most recent business
// days are probed until one has data.
func (s *Service) Ranking(ctx context.Context, sortBy models.RankSort, page, size int) *RankingPage {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}

	dates := common.RecentBusinessDays(dateFallbackDays)
	day, ok := fallback.Resolve(ctx,
		func(d *rankingDay) bool { return d != nil && (len(d.kospi) > 0 || len(d.kosdaq) > 0) },
		fallback.OverDates(dates, func(ctx context.Context, date string) (*rankingDay, error) {
			day := &rankingDay{date: date}
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				day.kospi, day.kospiTotal = s.ranking.GetPriceRanking(gctx, date, models.MarketKOSPI, sortBy, page, size)
				return nil
			})
			g.Go(func() error {
				day.kosdaq, day.kosdaqTotal = s.ranking.GetPriceRanking(gctx, date, models.MarketKOSDAQ, sortBy, page, size)
				return nil
			})
			g.Wait()
			return day, nil
		})...,
	)
	if !ok {
		return &RankingPage{Items: []models.RankedInstrument{}, Page: page}
	}

	merged := mergeByMetric(day.kospi, day.kosdaq, sortBy)
	if len(merged) > size {
		merged = merged[:size]
	}

	return &RankingPage{
		Items:   merged,
		Date:    day.date,
		Page:    page,
		HasMore: day.kospiTotal > page*size || day.kosdaqTotal > page*size,
	}
}

// mergeByMetric merges two ranking lists by the paginated metric rather
// than change percent. Dedup rule matches mergeRanked.
func mergeByMetric(a, b []models.RankedInstrument, sortBy models.RankSort) []models.RankedInstrument {
	seen := make(map[string]bool, len(a)+len(b))
	merged := make([]models.RankedInstrument, 0, len(a)+len(b))
	for _, row := range append(append([]models.RankedInstrument{}, a...), b...) {
		if row.Symbol == "" || seen[row.Symbol] {
			continue
		}
		seen[row.Symbol] = true
		merged = append(merged, row)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if sortBy == models.RankByTradingValue {
			return merged[i].TradingValue > merged[j].TradingValue
		}
		return merged[i].Volume > merged[j].Volume
	})
	return merged
}

// ShortSelling returns the short-ratio ranking for the most recent business
// day that has data.
func (s *Service) ShortSelling(ctx context.Context, count int) *ShortSellingList {
	if count <= 0 {
		count = 20
	}

	dates := common.RecentBusinessDays(dateFallbackDays)
	for _, date := range dates {
		if ctx.Err() != nil {
			break
		}
		rows := s.ranking.GetShortSelling(ctx, date, count)
		if len(rows) > 0 {
			return &ShortSellingList{Items: rows, Date: date}
		}
	}
	return &ShortSellingList{Items: []models.ShortInterest{}}
}
