package market

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kofin/finboard/internal/common"
	"github.com/kofin/finboard/internal/models"
)

func ranked(symbol string, changePercent float64) models.RankedInstrument {
	return models.RankedInstrument{
		Instrument:    models.Instrument{Symbol: symbol, Name: symbol},
		ChangePercent: changePercent,
	}
}

func TestMergeRanked_RiseDedupesAndOrders(t *testing.T) {
	kospi := []models.RankedInstrument{ranked("AAA", 5), ranked("BBB", 3)}
	kosdaq := []models.RankedInstrument{ranked("BBB", 4), ranked("CCC", 2)}

	merged := mergeRanked(kospi, kosdaq, models.RankRise)

	// BBB's first occurrence (the KOSPI row at +3) wins over the KOSDAQ +4 row.
	require.Len(t, merged, 3)
	assert.Equal(t, "AAA", merged[0].Symbol)
	assert.Equal(t, "BBB", merged[1].Symbol)
	assert.Equal(t, 3.0, merged[1].ChangePercent)
	assert.Equal(t, "CCC", merged[2].Symbol)
}

func TestMergeRanked_FallOrdersAscending(t *testing.T) {
	kospi := []models.RankedInstrument{ranked("AAA", -2)}
	kosdaq := []models.RankedInstrument{ranked("BBB", -8), ranked("CCC", -5)}

	merged := mergeRanked(kospi, kosdaq, models.RankFall)

	require.Len(t, merged, 3)
	assert.Equal(t, "BBB", merged[0].Symbol)
	assert.Equal(t, "CCC", merged[1].Symbol)
	assert.Equal(t, "AAA", merged[2].Symbol)
}

func TestMergeRanked_SkipsEmptySymbols(t *testing.T) {
	merged := mergeRanked([]models.RankedInstrument{ranked("", 9), ranked("AAA", 1)}, nil, models.RankRise)
	require.Len(t, merged, 1)
	assert.Equal(t, "AAA", merged[0].Symbol)
}

type stubIndexSource struct {
	indexes  map[string]*models.IndexQuote
	rankings map[models.Market]map[models.RankDirection][]models.RankedInstrument
}

func (s *stubIndexSource) GetIndex(_ context.Context, code string) *models.IndexQuote {
	return s.indexes[code]
}

func (s *stubIndexSource) GetRanking(_ context.Context, market models.Market, direction models.RankDirection, _ int) []models.RankedInstrument {
	return s.rankings[market][direction]
}

type stubRankingSource struct {
	// keyed by date
	rankings map[string]map[models.Market][]models.RankedInstrument
	totals   map[string]map[models.Market]int
	shorts   map[string][]models.ShortInterest
}

func (s *stubRankingSource) GetPriceRanking(_ context.Context, date string, market models.Market, _ models.RankSort, _, _ int) ([]models.RankedInstrument, int) {
	return s.rankings[date][market], s.totals[date][market]
}

func (s *stubRankingSource) GetShortSelling(_ context.Context, date string, _ int) []models.ShortInterest {
	return s.shorts[date]
}

func TestOverview_PartialUpstreamFailure(t *testing.T) {
	// KOSDAQ index and rankings are down; the overview still returns the
	// KOSPI side.
	index := &stubIndexSource{
		indexes: map[string]*models.IndexQuote{
			"KOSPI": {Value: 2650.5, Change: 12.3, ChangePercent: 0.47},
		},
		rankings: map[models.Market]map[models.RankDirection][]models.RankedInstrument{
			models.MarketKOSPI: {
				models.RankRise: {ranked("AAA", 5)},
				models.RankFall: {ranked("ZZZ", -7)},
			},
		},
	}
	svc := NewService(index, &stubRankingSource{}, common.NewSilentLogger())

	overview := svc.Overview(context.Background())
	require.NotNil(t, overview.Index.Kospi)
	assert.Nil(t, overview.Index.Kosdaq)
	require.Len(t, overview.TopRise, 1)
	assert.Equal(t, "AAA", overview.TopRise[0].Symbol)
	require.Len(t, overview.TopFall, 1)
}

func rankedVolume(symbol string, volume, tradingValue int64) models.RankedInstrument {
	return models.RankedInstrument{
		Instrument:   models.Instrument{Symbol: symbol, Name: symbol},
		Volume:       volume,
		TradingValue: tradingValue,
	}
}

func TestRanking_MergesBothMarketsAndPaginates(t *testing.T) {
	today := common.RecentBusinessDays(1)[0]
	source := &stubRankingSource{
		rankings: map[string]map[models.Market][]models.RankedInstrument{
			today: {
				models.MarketKOSPI:  {rankedVolume("AAA", 900, 0), rankedVolume("BBB", 300, 0)},
				models.MarketKOSDAQ: {rankedVolume("CCC", 600, 0), rankedVolume("DDD", 100, 0)},
			},
		},
		totals: map[string]map[models.Market]int{
			today: {models.MarketKOSPI: 950, models.MarketKOSDAQ: 2},
		},
	}
	svc := NewService(&stubIndexSource{}, source, common.NewSilentLogger())

	page := svc.Ranking(context.Background(), models.RankByVolume, 1, 3)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "AAA", page.Items[0].Symbol)
	assert.Equal(t, "CCC", page.Items[1].Symbol)
	assert.Equal(t, "BBB", page.Items[2].Symbol)
	assert.Equal(t, today, page.Date)
	assert.True(t, page.HasMore, "KOSPI reports 950 total rows")
}

func TestRanking_DateFallback(t *testing.T) {
	dates := common.RecentBusinessDays(3)
	source := &stubRankingSource{
		rankings: map[string]map[models.Market][]models.RankedInstrument{
			// Most recent two days have no data yet.
			dates[2]: {models.MarketKOSPI: {rankedVolume("AAA", 100, 0)}},
		},
		totals: map[string]map[models.Market]int{},
	}
	svc := NewService(&stubIndexSource{}, source, common.NewSilentLogger())

	page := svc.Ranking(context.Background(), models.RankByVolume, 1, 20)
	require.Len(t, page.Items, 1)
	assert.Equal(t, dates[2], page.Date)
	assert.False(t, page.HasMore)
}

func TestRanking_NoDataAnywhere(t *testing.T) {
	svc := NewService(&stubIndexSource{}, &stubRankingSource{}, common.NewSilentLogger())

	page := svc.Ranking(context.Background(), models.RankByTradingValue, 2, 20)
	assert.Empty(t, page.Items)
	assert.Empty(t, page.Date)
	assert.Equal(t, 2, page.Page)
	assert.False(t, page.HasMore)
}

func TestShortSelling_DateFallback(t *testing.T) {
	dates := common.RecentBusinessDays(2)
	source := &stubRankingSource{
		shorts: map[string][]models.ShortInterest{
			dates[1]: {{Instrument: models.Instrument{Symbol: "000660"}, ShortRatio: 5}},
		},
	}
	svc := NewService(&stubIndexSource{}, source, common.NewSilentLogger())

	list := svc.ShortSelling(context.Background(), 20)
	require.Len(t, list.Items, 1)
	assert.Equal(t, dates[1], list.Date)
}
