// Package corp serves the filing-registry company data: profile, financial
// statements, filings, dividends, and major shareholders.
package corp

import (
	"context"
	"errors"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kofin/finboard/internal/clients/dart"
	"github.com/kofin/finboard/internal/common"
	"github.com/kofin/finboard/internal/models"
	"github.com/kofin/finboard/internal/reference"
)

// ErrNoCredential is returned when the filing-registry API key is not
// configured. It is the only error class that short-circuits a request
// instead of degrading to a partial payload.
var ErrNoCredential = errors.New("DART API key is not configured")

// ErrUnknownSymbol is returned when a symbol has no corp code in the
// registry mapping.
var ErrUnknownSymbol = errors.New("symbol has no filing-registry entry")

const financialYears = 5

// RegistryClient is the filing-registry client surface the service needs.
type RegistryClient interface {
	GetCompany(ctx context.Context, corpCode string) *models.CompanyProfile
	GetFinancials(ctx context.Context, corpCode, year, reportCode string) *models.FinancialPeriod
	GetMultiYearFinancials(ctx context.Context, corpCode string, years int) []models.FinancialPeriod
	GetFilings(ctx context.Context, corpCode string, q dart.FilingQuery) []models.FilingRecord
	GetDividends(ctx context.Context, corpCode, year string) *models.DividendRecord
	GetShareholders(ctx context.Context, corpCode, year string) []models.Shareholder
}

// CorpCodeResolver maps exchange symbols to registry corp codes.
type CorpCodeResolver interface {
	CorpCode(ctx context.Context, symbol string) (string, bool)
}

// Service aggregates registry data per symbol.
type Service struct {
	registry RegistryClient
	resolver CorpCodeResolver
	logger   *common.Logger
	enabled  bool
	now      func() time.Time
}

// NewService creates the corp service. enabled reflects whether a registry
// credential is configured; a disabled service rejects every call with
// ErrNoCredential.
func NewService(registry RegistryClient, resolver CorpCodeResolver, enabled bool, logger *common.Logger) *Service {
	return &Service{
		registry: registry,
		resolver: resolver,
		logger:   logger,
		enabled:  enabled,
		now:      time.Now,
	}
}

var _ RegistryClient = (*dart.Client)(nil)
var _ CorpCodeResolver = (*reference.Service)(nil)

func (s *Service) corpCode(ctx context.Context, symbol string) (string, error) {
	if !s.enabled {
		return "", ErrNoCredential
	}
	code, ok := s.resolver.CorpCode(ctx, symbol)
	if !ok {
		return "", ErrUnknownSymbol
	}
	return code, nil
}

// Company returns the aggregate company payload: profile, five years of
// annual statements, the latest shareholder table, and three years of
// dividends. The branches fan out concurrently and fail soft, so partial
// data is a normal result.
func (s *Service) Company(ctx context.Context, symbol string) (*models.CompanyDetail, error) {
	code, err := s.corpCode(ctx, symbol)
	if err != nil {
		return nil, err
	}

	detail := &models.CompanyDetail{Symbol: symbol}
	lastYear := strconv.Itoa(s.now().Year() - 1)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		detail.Info = s.registry.GetCompany(gctx, code)
		return nil
	})
	g.Go(func() error {
		detail.Financials = s.registry.GetMultiYearFinancials(gctx, code, financialYears)
		return nil
	})
	g.Go(func() error {
		detail.Shareholders = s.registry.GetShareholders(gctx, code, lastYear)
		return nil
	})
	g.Go(func() error {
		detail.Dividends = s.dividendHistory(gctx, code, 3)
		return nil
	})
	g.Wait()

	return detail, nil
}

// dividendHistory collects the last n years' dividend summaries, most
// recent first; years without a disclosure are absent.
func (s *Service) dividendHistory(ctx context.Context, corpCode string, n int) []models.DividendRecord {
	currentYear := s.now().Year()
	records := make([]models.DividendRecord, 0, n)
	for y := currentYear - 1; y >= currentYear-n; y-- {
		if rec := s.registry.GetDividends(ctx, corpCode, strconv.Itoa(y)); rec != nil {
			records = append(records, *rec)
		}
	}
	return records
}

// Financials returns one reporting period's statement. Defaults: last
// year's annual report. Returns nil (no error) when the registry has no
// report for the period.
func (s *Service) Financials(ctx context.Context, symbol, year, reportCode string) (*models.FinancialPeriod, error) {
	code, err := s.corpCode(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if year == "" {
		year = strconv.Itoa(s.now().Year() - 1)
	}
	if reportCode == "" {
		reportCode = dart.ReportAnnual
	}

	period := s.registry.GetFinancials(ctx, code, year, reportCode)
	if period != nil {
		period.Symbol = symbol
	}
	return period, nil
}

// Filings returns the symbol's recent disclosures.
func (s *Service) Filings(ctx context.Context, symbol string, q dart.FilingQuery) ([]models.FilingRecord, error) {
	code, err := s.corpCode(ctx, symbol)
	if err != nil {
		return nil, err
	}

	filings := s.registry.GetFilings(ctx, code, q)
	for i := range filings {
		filings[i].Symbol = symbol
	}
	return filings, nil
}
