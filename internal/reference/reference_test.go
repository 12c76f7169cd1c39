package reference

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kofin/finboard/internal/common"
	"github.com/kofin/finboard/internal/models"
)

type stubInstrumentLoader struct {
	calls     atomic.Int32
	delay     time.Duration
	err       error
	emptyDays map[string]bool
	result    []models.Instrument
}

func (s *stubInstrumentLoader) GetListedInstruments(ctx context.Context, date string) ([]models.Instrument, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.emptyDays[date] {
		return nil, errors.New("no data for " + date)
	}
	return s.result, nil
}

type stubCorpCodeLoader struct {
	calls atomic.Int32
	err   error
	codes map[string]string
}

func (s *stubCorpCodeLoader) DownloadCorpCodes(ctx context.Context) (map[string]string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.codes, nil
}

func newTestService(instruments *stubInstrumentLoader, codes *stubCorpCodeLoader) *Service {
	return NewService(instruments, codes, nil, common.NewSilentLogger())
}

// fakeClock is a mutex-guarded clock safe to advance while background
// refresh goroutines read it.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

var sampleUniverse = []models.Instrument{
	{Symbol: "005930", Name: "삼성전자", Market: models.MarketKOSPI},
	{Symbol: "035720", Name: "카카오", Market: models.MarketKOSPI},
	{Symbol: "247540", Name: "에코프로비엠", Market: models.MarketKOSDAQ},
}

func TestInstruments_ConcurrentCallersShareOneLoad(t *testing.T) {
	loader := &stubInstrumentLoader{result: sampleUniverse, delay: 20 * time.Millisecond}
	svc := newTestService(loader, &stubCorpCodeLoader{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := svc.Instruments(context.Background())
			assert.Len(t, got, 3)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), loader.calls.Load(), "concurrent callers must collapse to one load")
}

func TestInstruments_DateFallbackProbesEarlierDays(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) // Friday
	dates := common.RecentBusinessDaysFrom(now, 7)

	loader := &stubInstrumentLoader{
		result:    sampleUniverse,
		emptyDays: map[string]bool{dates[0]: true, dates[1]: true},
	}
	svc := newTestService(loader, &stubCorpCodeLoader{})
	svc.now = func() time.Time { return now }

	got := svc.Instruments(context.Background())
	assert.Len(t, got, 3)
	assert.Equal(t, int32(3), loader.calls.Load())
}

func TestInstruments_AllSourcesDownServesFallbackListing(t *testing.T) {
	loader := &stubInstrumentLoader{err: errors.New("registry down")}
	svc := newTestService(loader, &stubCorpCodeLoader{})

	got := svc.Instruments(context.Background())
	require.NotEmpty(t, got)
	assert.Equal(t, "005930", got[0].Symbol)
}

func TestInstruments_StaleCacheServedWhileRefreshRuns(t *testing.T) {
	loader := &stubInstrumentLoader{result: sampleUniverse}
	svc := newTestService(loader, &stubCorpCodeLoader{})

	clock := &fakeClock{t: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}
	svc.now = clock.Now
	svc.Instruments(context.Background())
	require.Equal(t, int32(1), loader.calls.Load())

	// Jump past the TTL; the stale copy must come back immediately.
	clock.Advance(25 * time.Hour)
	got := svc.Instruments(context.Background())
	assert.Len(t, got, 3)

	// The background refresh eventually reloads.
	assert.Eventually(t, func() bool {
		return loader.calls.Load() >= 2
	}, time.Second, 10*time.Millisecond)
}

func TestCorpCode(t *testing.T) {
	codes := &stubCorpCodeLoader{codes: map[string]string{"005930": "00126380"}}
	svc := newTestService(&stubInstrumentLoader{result: sampleUniverse}, codes)

	code, ok := svc.CorpCode(context.Background(), "005930")
	require.True(t, ok)
	assert.Equal(t, "00126380", code)

	_, ok = svc.CorpCode(context.Background(), "999999")
	assert.False(t, ok)

	// Second lookup serves the cached mapping.
	svc.CorpCode(context.Background(), "005930")
	assert.Equal(t, int32(1), codes.calls.Load())
}

func TestCorpCode_LoaderFailure(t *testing.T) {
	codes := &stubCorpCodeLoader{err: errors.New("archive down")}
	svc := newTestService(&stubInstrumentLoader{result: sampleUniverse}, codes)

	_, ok := svc.CorpCode(context.Background(), "005930")
	assert.False(t, ok)
}

func TestSearch(t *testing.T) {
	svc := newTestService(&stubInstrumentLoader{result: sampleUniverse}, &stubCorpCodeLoader{})
	ctx := context.Background()

	byName := svc.Search(ctx, "카카오")
	require.Len(t, byName, 1)
	assert.Equal(t, "035720", byName[0].Symbol)

	bySymbol := svc.Search(ctx, "0059")
	require.Len(t, bySymbol, 1)
	assert.Equal(t, "삼성전자", bySymbol[0].Name)

	assert.Empty(t, svc.Search(ctx, ""))
	assert.Empty(t, svc.Search(ctx, "zzz"))
}

func TestSearch_CapsResults(t *testing.T) {
	many := make([]models.Instrument, 40)
	for i := range many {
		many[i] = models.Instrument{Symbol: "100000", Name: "테스트종목", Market: models.MarketKOSDAQ}
	}
	svc := newTestService(&stubInstrumentLoader{result: many}, &stubCorpCodeLoader{})

	got := svc.Search(context.Background(), "테스트")
	assert.Len(t, got, searchLimit)
}
