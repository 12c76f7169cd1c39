// Package app wires configuration, clients, caches, and services into one
// initialized application core shared by cmd/finboard-server and tests.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kofin/finboard/internal/cache"
	"github.com/kofin/finboard/internal/clients/dart"
	"github.com/kofin/finboard/internal/clients/datagokr"
	"github.com/kofin/finboard/internal/clients/ecos"
	"github.com/kofin/finboard/internal/clients/feargreed"
	"github.com/kofin/finboard/internal/clients/fred"
	"github.com/kofin/finboard/internal/clients/naver"
	"github.com/kofin/finboard/internal/clients/yahoo"
	"github.com/kofin/finboard/internal/common"
	"github.com/kofin/finboard/internal/reference"
	"github.com/kofin/finboard/internal/services/corp"
	"github.com/kofin/finboard/internal/services/macro"
	"github.com/kofin/finboard/internal/services/market"
	"github.com/kofin/finboard/internal/services/stock"
	"github.com/kofin/finboard/internal/storage/badger"
)

// App holds all initialized clients and services.
type App struct {
	Config *common.Config
	Logger *common.Logger
	Cache  cache.Cache

	Reference     *reference.Service
	StockService  *stock.Service
	MarketService *market.Service
	CorpService   *corp.Service
	MacroService  *macro.Service

	StartupTime time.Time

	store           *badger.Store
	schedulerCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes clients, caches, reference data, and services.
// configPath may be empty, in which case the default resolution logic is
// used: FINBOARD_CONFIG, then finboard.toml next to the binary, then the
// development config directory.
func NewApp(configPath string) (*App, error) {
	startupTime := time.Now()

	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("FINBOARD_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "finboard.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/finboard.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative snapshot path to binary directory
	if config.Storage.ReferencePath != "" && !filepath.IsAbs(config.Storage.ReferencePath) {
		config.Storage.ReferencePath = filepath.Join(binDir, config.Storage.ReferencePath)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	responseCache := cache.New(config.Cache, logger)

	// Upstream clients. Keyless upstreams are always constructed; keyed
	// upstreams are constructed regardless but their services are flagged
	// disabled when the key is missing.
	naverClient := naver.NewClient(
		naver.WithBaseURL(config.Clients.Naver.BaseURL),
		naver.WithLogger(logger),
		naver.WithRateLimit(config.Clients.Naver.RateLimit),
		naver.WithTimeout(config.Clients.Naver.GetTimeout()),
		naver.WithCache(responseCache),
	)

	yahooClient := yahoo.NewClient(
		yahoo.WithBaseURL(config.Clients.Yahoo.BaseURL),
		yahoo.WithLogger(logger),
		yahoo.WithRateLimit(config.Clients.Yahoo.RateLimit),
		yahoo.WithTimeout(config.Clients.Yahoo.GetTimeout()),
		yahoo.WithCache(responseCache),
	)

	fearGreedClient := feargreed.NewClient(
		feargreed.WithBaseURL(config.Clients.FearGreed.BaseURL),
		feargreed.WithLogger(logger),
		feargreed.WithTimeout(config.Clients.FearGreed.GetTimeout()),
		feargreed.WithCache(responseCache),
	)

	dartClient := dart.NewClient(config.Clients.Dart.APIKey,
		dart.WithBaseURL(config.Clients.Dart.BaseURL),
		dart.WithLogger(logger),
		dart.WithRateLimit(config.Clients.Dart.RateLimit),
		dart.WithTimeout(config.Clients.Dart.GetTimeout()),
		dart.WithCache(responseCache),
	)

	fredClient := fred.NewClient(config.Clients.Fred.APIKey,
		fred.WithBaseURL(config.Clients.Fred.BaseURL),
		fred.WithLogger(logger),
		fred.WithRateLimit(config.Clients.Fred.RateLimit),
		fred.WithTimeout(config.Clients.Fred.GetTimeout()),
		fred.WithCache(responseCache),
	)

	ecosClient := ecos.NewClient(config.Clients.Ecos.APIKey,
		ecos.WithBaseURL(config.Clients.Ecos.BaseURL),
		ecos.WithLogger(logger),
		ecos.WithRateLimit(config.Clients.Ecos.RateLimit),
		ecos.WithTimeout(config.Clients.Ecos.GetTimeout()),
		ecos.WithCache(responseCache),
	)

	dataGoKrClient := datagokr.NewClient(config.Clients.DataGoKr.APIKey,
		datagokr.WithBaseURL(config.Clients.DataGoKr.BaseURL),
		datagokr.WithLogger(logger),
		datagokr.WithRateLimit(config.Clients.DataGoKr.RateLimit),
		datagokr.WithTimeout(config.Clients.DataGoKr.GetTimeout()),
		datagokr.WithCache(responseCache),
	)

	// Snapshot store is best-effort: without it the reference cache just
	// starts cold.
	var store *badger.Store
	var snapshots reference.Snapshots
	if config.Storage.ReferencePath != "" {
		store, err = badger.NewStore(logger, config.Storage.ReferencePath)
		if err != nil {
			logger.Warn().Err(err).Str("path", config.Storage.ReferencePath).Msg("Snapshot store unavailable, reference cache starts cold")
			store = nil
		} else {
			snapshots = badger.NewReferenceStorage(store, logger)
		}
	}

	referenceService := reference.NewService(dataGoKrClient, dartClient, snapshots, logger)

	dartEnabled := config.Clients.Dart.APIKey != ""
	fredEnabled := config.Clients.Fred.APIKey != ""
	ecosEnabled := config.Clients.Ecos.APIKey != ""

	if !dartEnabled {
		logger.Warn().Msg("DART_API_KEY not set; corporate registry endpoints disabled")
	}
	if config.Clients.DataGoKr.APIKey == "" {
		logger.Warn().Msg("DATA_GO_KR_API_KEY not set; rankings and instrument registry will fall back")
	}

	a := &App{
		Config:        config,
		Logger:        logger,
		Cache:         responseCache,
		Reference:     referenceService,
		StockService:  stock.NewService(naverClient, yahooClient, referenceService, logger),
		MarketService: market.NewService(naverClient, dataGoKrClient, logger),
		CorpService:   corp.NewService(dartClient, referenceService, dartEnabled, logger),
		MacroService: macro.NewService(fredClient, ecosClient, yahooClient, fearGreedClient, naverClient,
			fredEnabled, ecosEnabled, logger),
		StartupTime: startupTime,
		store:       store,
	}

	logger.Info().
		Str("environment", config.Environment).
		Str("version", common.GetVersion()).
		Dur("startup", time.Since(startupTime)).
		Msg("Application initialized")

	return a, nil
}

// Close releases held resources.
func (a *App) Close() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Snapshot store close failed")
		}
	}
	a.Logger.Info().Msg("Application closed")
}
