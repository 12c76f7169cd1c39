package macro

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kofin/finboard/internal/clients/ecos"
	"github.com/kofin/finboard/internal/common"
	"github.com/kofin/finboard/internal/models"
)

type stubFred struct {
	latest  map[string]*models.MacroObservation
	history map[string][]models.TimeSeriesPoint
}

func (s *stubFred) GetLatest(_ context.Context, id string) *models.MacroObservation {
	return s.latest[id]
}

func (s *stubFred) GetHistory(_ context.Context, id string) []models.TimeSeriesPoint {
	return s.history[id]
}

type stubEcos struct {
	latest  map[string]*models.MacroObservation
	history map[string][]models.TimeSeriesPoint
}

func (s *stubEcos) GetLatest(_ context.Context, series ecos.Series) *models.MacroObservation {
	return s.latest[series.StatCode]
}

func (s *stubEcos) GetHistory(_ context.Context, series ecos.Series) []models.TimeSeriesPoint {
	return s.history[series.StatCode]
}

type stubYahoo struct {
	quotes  map[string]*models.IndexQuote
	history map[string][]models.TimeSeriesPoint
}

func (s *stubYahoo) GetIndexQuote(_ context.Context, ticker, name string) *models.IndexQuote {
	return s.quotes[ticker]
}

func (s *stubYahoo) GetHistory(_ context.Context, ticker string) []models.TimeSeriesPoint {
	return s.history[ticker]
}

type stubFearGreed struct {
	current *models.FearGreed
	points  []models.TimeSeriesPoint
}

func (s *stubFearGreed) GetCurrent(context.Context) *models.FearGreed {
	return s.current
}

func (s *stubFearGreed) GetHistory(context.Context, int) []models.TimeSeriesPoint {
	return s.points
}

type stubFX struct {
	rates       []models.ExchangeRate
	commodities []models.CommodityPrice
}

func (s *stubFX) GetExchangeRates(context.Context) []models.ExchangeRate {
	return s.rates
}

func (s *stubFX) GetCommodities(context.Context) []models.CommodityPrice {
	return s.commodities
}

func newTestService(fredc *stubFred, ecosc *stubEcos, yahooc *stubYahoo, fg *stubFearGreed, fx *stubFX) *Service {
	return NewService(fredc, ecosc, yahooc, fg, fx, true, true, common.NewSilentLogger())
}

func obs(id string, value float64) *models.MacroObservation {
	return &models.MacroObservation{SeriesID: id, Value: value}
}

func TestCategory_Rates(t *testing.T) {
	svc := newTestService(
		&stubFred{latest: map[string]*models.MacroObservation{
			"DFF":   obs("DFF", 5.33),
			"DGS10": obs("DGS10", 4.31),
			// DGS2 upstream is down.
		}},
		&stubEcos{latest: map[string]*models.MacroObservation{
			"722Y001": obs("722Y001", 3.5),
		}},
		&stubYahoo{}, &stubFearGreed{}, &stubFX{},
	)

	data, err := svc.Category(context.Background(), models.MacroRates)
	require.NoError(t, err)
	// Input order is preserved and the failed branch is simply absent.
	require.Len(t, data.Indicators, 3)
	assert.Equal(t, "DFF", data.Indicators[0].SeriesID)
	assert.Equal(t, "미국 기준금리", data.Indicators[0].Name)
	assert.Equal(t, "DGS10", data.Indicators[1].SeriesID)
	assert.Equal(t, "722Y001", data.Indicators[2].SeriesID)
}

func TestCategory_RatesWithoutFredKey(t *testing.T) {
	svc := NewService(&stubFred{}, &stubEcos{}, &stubYahoo{}, &stubFearGreed{}, &stubFX{},
		false, true, common.NewSilentLogger())

	_, err := svc.Category(context.Background(), models.MacroRates)
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestCategory_Sentiment(t *testing.T) {
	svc := newTestService(&stubFred{}, &stubEcos{},
		&stubYahoo{quotes: map[string]*models.IndexQuote{
			"^VIX": {Symbol: "^VIX", Name: "VIX", Value: 14.2},
		}},
		&stubFearGreed{current: &models.FearGreed{Value: 25, Classification: "Extreme Fear"}},
		&stubFX{},
	)

	data, err := svc.Category(context.Background(), models.MacroSentiment)
	require.NoError(t, err)
	require.NotNil(t, data.FearGreed)
	assert.Equal(t, 25, data.FearGreed.Value)
	require.Len(t, data.Indicators, 1)
	assert.Equal(t, 14.2, data.Indicators[0].Value)
}

func TestCategory_Exchange(t *testing.T) {
	svc := newTestService(&stubFred{}, &stubEcos{}, &stubYahoo{}, &stubFearGreed{},
		&stubFX{rates: []models.ExchangeRate{{Currency: "USD", Rate: 1390.5}}})

	data, err := svc.Category(context.Background(), models.MacroExchange)
	require.NoError(t, err)
	require.Len(t, data.Exchange, 1)
	assert.Equal(t, "USD", data.Exchange[0].Currency)
}

func TestCategory_Unknown(t *testing.T) {
	svc := newTestService(&stubFred{}, &stubEcos{}, &stubYahoo{}, &stubFearGreed{}, &stubFX{})

	_, err := svc.Category(context.Background(), models.MacroCategory("crypto"))
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestHistory_Dispatch(t *testing.T) {
	fredc := &stubFred{history: map[string][]models.TimeSeriesPoint{
		"DGS10": {{Date: "2024-01-02", Value: 3.95}},
	}}
	ecosc := &stubEcos{history: map[string][]models.TimeSeriesPoint{
		"722Y001": {{Date: "20240102", Value: 3.5}},
	}}
	yahooc := &stubYahoo{history: map[string][]models.TimeSeriesPoint{
		"^GSPC": {{Date: "20240102", Value: 4742.8}},
	}}
	fg := &stubFearGreed{points: []models.TimeSeriesPoint{{Date: "2024-01-02", Value: 30}}}
	svc := newTestService(fredc, ecosc, yahooc, fg, &stubFX{})
	ctx := context.Background()

	points, err := svc.History(ctx, "fred", "DGS10")
	require.NoError(t, err)
	assert.Equal(t, 3.95, points[0].Value)

	points, err = svc.History(ctx, "ecos", "base_rate")
	require.NoError(t, err)
	assert.Equal(t, 3.5, points[0].Value)

	points, err = svc.History(ctx, "yahoo", "^GSPC")
	require.NoError(t, err)
	assert.Equal(t, 4742.8, points[0].Value)

	points, err = svc.History(ctx, "fng", "")
	require.NoError(t, err)
	assert.Equal(t, 30.0, points[0].Value)
}

func TestHistory_Errors(t *testing.T) {
	svc := newTestService(&stubFred{}, &stubEcos{}, &stubYahoo{}, &stubFearGreed{}, &stubFX{})
	ctx := context.Background()

	_, err := svc.History(ctx, "bloomberg", "X")
	assert.ErrorIs(t, err, ErrUnknownSource)

	_, err = svc.History(ctx, "ecos", "gdp")
	assert.ErrorIs(t, err, ErrUnknownSeries)

	_, err = svc.History(ctx, "fred", "")
	assert.ErrorIs(t, err, ErrUnknownSeries)

	disabled := NewService(&stubFred{}, &stubEcos{}, &stubYahoo{}, &stubFearGreed{}, &stubFX{},
		false, false, common.NewSilentLogger())
	_, err = disabled.History(ctx, "fred", "DGS10")
	assert.ErrorIs(t, err, ErrNoCredential)
}
