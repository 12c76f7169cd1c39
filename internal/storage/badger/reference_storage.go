package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/kofin/finboard/internal/common"
	"github.com/kofin/finboard/internal/models"
)

const (
	keyInstruments = "instruments"
	keyCorpCodes   = "corpcodes"
)

// InstrumentSnapshot is one persisted copy of the listed-instrument
// universe together with the time it was loaded from upstream.
type InstrumentSnapshot struct {
	Key         string `badgerhold:"key"`
	LoadedAt    time.Time
	Instruments []models.Instrument
}

// CorpCodeSnapshot is one persisted copy of the symbol→corp code mapping.
type CorpCodeSnapshot struct {
	Key      string `badgerhold:"key"`
	LoadedAt time.Time
	Codes    map[string]string
}

// ReferenceStorage persists reference-data snapshots.
type ReferenceStorage struct {
	store  *Store
	logger *common.Logger
}

// NewReferenceStorage creates a ReferenceStorage backed by BadgerHold.
func NewReferenceStorage(store *Store, logger *common.Logger) *ReferenceStorage {
	return &ReferenceStorage{store: store, logger: logger}
}

// SaveInstruments replaces the persisted instrument snapshot.
func (s *ReferenceStorage) SaveInstruments(_ context.Context, instruments []models.Instrument, loadedAt time.Time) error {
	snapshot := InstrumentSnapshot{
		Key:         keyInstruments,
		LoadedAt:    loadedAt,
		Instruments: instruments,
	}
	if err := s.store.db.Upsert(keyInstruments, &snapshot); err != nil {
		return fmt.Errorf("failed to save instrument snapshot: %w", err)
	}
	s.logger.Debug().Int("count", len(instruments)).Msg("Instrument snapshot saved")
	return nil
}

// LoadInstruments returns the persisted instrument snapshot, or nil when
// none has been saved yet.
func (s *ReferenceStorage) LoadInstruments(_ context.Context) (*InstrumentSnapshot, error) {
	var snapshot InstrumentSnapshot
	err := s.store.db.Get(keyInstruments, &snapshot)
	if err == badgerhold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load instrument snapshot: %w", err)
	}
	return &snapshot, nil
}

// SaveCorpCodes replaces the persisted corp-code snapshot.
func (s *ReferenceStorage) SaveCorpCodes(_ context.Context, codes map[string]string, loadedAt time.Time) error {
	snapshot := CorpCodeSnapshot{
		Key:      keyCorpCodes,
		LoadedAt: loadedAt,
		Codes:    codes,
	}
	if err := s.store.db.Upsert(keyCorpCodes, &snapshot); err != nil {
		return fmt.Errorf("failed to save corp code snapshot: %w", err)
	}
	s.logger.Debug().Int("count", len(codes)).Msg("Corp code snapshot saved")
	return nil
}

// LoadCorpCodes returns the persisted corp-code snapshot, or nil when none
// has been saved yet.
func (s *ReferenceStorage) LoadCorpCodes(_ context.Context) (*CorpCodeSnapshot, error) {
	var snapshot CorpCodeSnapshot
	err := s.store.db.Get(keyCorpCodes, &snapshot)
	if err == badgerhold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load corp code snapshot: %w", err)
	}
	return &snapshot, nil
}
