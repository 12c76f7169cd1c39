// Package reference maintains the slow-moving reference data the rest of
// the server depends on: the KOSPI/KOSDAQ instrument universe and the
// symbol→corp code mapping for the filing registry. Both are expensive
// bulk loads, so they are cached in memory with a 24h TTL, collapsed under
// singleflight, served stale while a background refresh runs, and
// snapshotted to disk so a restart does not need the upstreams.
package reference

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kofin/finboard/internal/common"
	"github.com/kofin/finboard/internal/fallback"
	"github.com/kofin/finboard/internal/models"
	"github.com/kofin/finboard/internal/storage/badger"
)

// InstrumentLoader loads the full listing for a settlement date.
type InstrumentLoader interface {
	GetListedInstruments(ctx context.Context, date string) ([]models.Instrument, error)
}

// CorpCodeLoader loads the bulk symbol→corp code mapping.
type CorpCodeLoader interface {
	DownloadCorpCodes(ctx context.Context) (map[string]string, error)
}

// Snapshots persists loaded reference data across restarts. May be nil.
type Snapshots interface {
	SaveInstruments(ctx context.Context, instruments []models.Instrument, loadedAt time.Time) error
	LoadInstruments(ctx context.Context) (*badger.InstrumentSnapshot, error)
	SaveCorpCodes(ctx context.Context, codes map[string]string, loadedAt time.Time) error
	LoadCorpCodes(ctx context.Context) (*badger.CorpCodeSnapshot, error)
}

const searchLimit = 15

// Instrument universe origins reported by InstrumentsWithSource.
const (
	SourceRegistry = "krx"
	SourceStatic   = "static"
)

var errUniverseUnavailable = errors.New("instrument universe unavailable from every source")

// Service is the reference-data cache.
type Service struct {
	instruments InstrumentLoader
	corpCodes   CorpCodeLoader
	snapshots   Snapshots
	logger      *common.Logger

	sf  singleflight.Group
	ttl time.Duration
	now func() time.Time

	mu         sync.RWMutex
	universe   []models.Instrument
	universeAt time.Time
	codes      map[string]string
	codesAt    time.Time
	refreshing map[string]bool
}

// NewService creates the reference cache. snapshots may be nil to disable
// persistence.
func NewService(instruments InstrumentLoader, corpCodes CorpCodeLoader, snapshots Snapshots, logger *common.Logger) *Service {
	s := &Service{
		instruments: instruments,
		corpCodes:   corpCodes,
		snapshots:   snapshots,
		logger:      logger,
		ttl:         common.FreshnessReference,
		now:         time.Now,
		refreshing:  make(map[string]bool),
	}
	s.restore()
	return s
}

// restore seeds the in-memory state from persisted snapshots. A stale
// snapshot is still seeded: stale data plus a background refresh beats an
// empty universe at startup.
func (s *Service) restore() {
	if s.snapshots == nil {
		return
	}
	ctx := context.Background()

	if snap, err := s.snapshots.LoadInstruments(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Instrument snapshot restore failed")
	} else if snap != nil && len(snap.Instruments) > 0 {
		s.universe = snap.Instruments
		s.universeAt = snap.LoadedAt
		s.logger.Info().Int("count", len(snap.Instruments)).Msg("Instrument universe restored from snapshot")
	}

	if snap, err := s.snapshots.LoadCorpCodes(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Corp code snapshot restore failed")
	} else if snap != nil && len(snap.Codes) > 0 {
		s.codes = snap.Codes
		s.codesAt = snap.LoadedAt
		s.logger.Info().Int("count", len(snap.Codes)).Msg("Corp codes restored from snapshot")
	}
}

// fresh mirrors common.IsFresh against the service's injectable clock.
func (s *Service) fresh(loadedAt time.Time) bool {
	if loadedAt.IsZero() {
		return false
	}
	return s.now().Sub(loadedAt) < s.ttl
}

// loadUniverse fetches the listing, probing recent business days until one
// has data.
func (s *Service) loadUniverse(ctx context.Context) ([]models.Instrument, bool) {
	dates := common.RecentBusinessDaysFrom(s.now(), 7)
	return fallback.Resolve(ctx, fallback.NonEmpty[models.Instrument],
		fallback.OverDates(dates, s.instruments.GetListedInstruments)...)
}

// Instruments returns the instrument universe. A fresh cache is returned
// directly; a stale cache is returned immediately while one background
// refresh runs; an empty cache blocks on a singleflight load. When every
// source fails the built-in fallback listing is returned so search never
// goes completely dark.
func (s *Service) Instruments(ctx context.Context) []models.Instrument {
	instruments, _ := s.InstrumentsWithSource(ctx)
	return instruments
}

// InstrumentsWithSource is Instruments plus the origin of the data:
// SourceRegistry for the listing registry (live or snapshot), SourceStatic
// for the built-in fallback.
func (s *Service) InstrumentsWithSource(ctx context.Context) ([]models.Instrument, string) {
	s.mu.RLock()
	universe, loadedAt := s.universe, s.universeAt
	s.mu.RUnlock()

	if len(universe) > 0 {
		if !s.fresh(loadedAt) {
			s.refreshUniverse()
		}
		return universe, SourceRegistry
	}

	result, err, _ := s.sf.Do("universe", func() (interface{}, error) {
		loaded, ok := s.loadUniverse(ctx)
		if !ok {
			return nil, errUniverseUnavailable
		}
		s.storeUniverse(loaded)
		return loaded, nil
	})
	if err != nil {
		s.logger.Warn().Msg("Instrument universe unavailable, serving fallback listing")
		return fallbackUniverse, SourceStatic
	}
	return result.([]models.Instrument), SourceRegistry
}

// refreshUniverse kicks one background reload; concurrent callers while a
// refresh is in flight keep serving the stale copy.
func (s *Service) refreshUniverse() {
	s.mu.Lock()
	if s.refreshing["universe"] {
		s.mu.Unlock()
		return
	}
	s.refreshing["universe"] = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.refreshing["universe"] = false
			s.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		loaded, ok := s.loadUniverse(ctx)
		if !ok {
			// Keep the stale copy; it is better than nothing.
			s.logger.Warn().Msg("Instrument universe refresh failed, retaining stale data")
			return
		}
		s.storeUniverse(loaded)
	}()
}

func (s *Service) storeUniverse(instruments []models.Instrument) {
	at := s.now()
	s.mu.Lock()
	s.universe = instruments
	s.universeAt = at
	s.mu.Unlock()

	s.logger.Info().Int("count", len(instruments)).Msg("Instrument universe loaded")

	if s.snapshots != nil {
		if err := s.snapshots.SaveInstruments(context.Background(), instruments, at); err != nil {
			s.logger.Warn().Err(err).Msg("Instrument snapshot save failed")
		}
	}
}

// CorpCode resolves an exchange symbol to its filing-registry corp code.
func (s *Service) CorpCode(ctx context.Context, symbol string) (string, bool) {
	codes := s.corpCodeMap(ctx)
	code, ok := codes[symbol]
	return code, ok
}

func (s *Service) corpCodeMap(ctx context.Context) map[string]string {
	s.mu.RLock()
	codes, loadedAt := s.codes, s.codesAt
	s.mu.RUnlock()

	if len(codes) > 0 {
		if !s.fresh(loadedAt) {
			s.refreshCorpCodes()
		}
		return codes
	}

	result, err, _ := s.sf.Do("corpcodes", func() (interface{}, error) {
		loaded, err := s.corpCodes.DownloadCorpCodes(ctx)
		if err != nil {
			return nil, err
		}
		s.storeCorpCodes(loaded)
		return loaded, nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Corp code mapping unavailable")
		return nil
	}
	return result.(map[string]string)
}

func (s *Service) refreshCorpCodes() {
	s.mu.Lock()
	if s.refreshing["corpcodes"] {
		s.mu.Unlock()
		return
	}
	s.refreshing["corpcodes"] = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.refreshing["corpcodes"] = false
			s.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		loaded, err := s.corpCodes.DownloadCorpCodes(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Corp code refresh failed, retaining stale data")
			return
		}
		s.storeCorpCodes(loaded)
	}()
}

func (s *Service) storeCorpCodes(codes map[string]string) {
	at := s.now()
	s.mu.Lock()
	s.codes = codes
	s.codesAt = at
	s.mu.Unlock()

	s.logger.Info().Int("count", len(codes)).Msg("Corp codes loaded")

	if s.snapshots != nil {
		if err := s.snapshots.SaveCorpCodes(context.Background(), codes, at); err != nil {
			s.logger.Warn().Err(err).Msg("Corp code snapshot save failed")
		}
	}
}

// Search matches instruments whose name or symbol contains the query,
// case-insensitively, capped at 15 rows. An empty query matches nothing.
func (s *Service) Search(ctx context.Context, query string) []models.Instrument {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	matches := make([]models.Instrument, 0, searchLimit)
	for _, inst := range s.Instruments(ctx) {
		if strings.Contains(strings.ToLower(inst.Name), q) || strings.Contains(inst.Symbol, q) {
			matches = append(matches, inst)
			if len(matches) == searchLimit {
				break
			}
		}
	}
	return matches
}

// Warm loads both assets if they are missing or stale. Used by the startup
// warmer and the daily cron; errors are already logged by the loaders.
func (s *Service) Warm(ctx context.Context) {
	s.Instruments(ctx)
	s.corpCodeMap(ctx)
}
