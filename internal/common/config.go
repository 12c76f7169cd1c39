// Package common provides shared utilities for finboard
package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for finboard
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Cache       CacheConfig   `toml:"cache"`
	Clients     ClientsConfig `toml:"clients"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the on-disk snapshot path for reference data.
type StorageConfig struct {
	ReferencePath string `toml:"reference_path"`
}

// CacheConfig selects the response-cache backend. When Address is empty the
// in-process memory cache is used.
type CacheConfig struct {
	Address  string `toml:"address"` // redis host:port
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Naver     NaverConfig    `toml:"naver"`
	Dart      DartConfig     `toml:"dart"`
	Fred      FredConfig     `toml:"fred"`
	Ecos      EcosConfig     `toml:"ecos"`
	DataGoKr  DataGoKrConfig `toml:"data_go_kr"`
	Yahoo     EndpointConfig `toml:"yahoo"`
	FearGreed EndpointConfig `toml:"fear_greed"`
}

// EndpointConfig is the minimal configuration for keyless upstreams.
type EndpointConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EndpointConfig) GetTimeout() time.Duration {
	return parseTimeout(c.Timeout)
}

// NaverConfig holds Naver Finance client configuration
type NaverConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *NaverConfig) GetTimeout() time.Duration {
	return parseTimeout(c.Timeout)
}

// DartConfig holds DART OpenAPI configuration
type DartConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *DartConfig) GetTimeout() time.Duration {
	return parseTimeout(c.Timeout)
}

// FredConfig holds FRED API configuration
type FredConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *FredConfig) GetTimeout() time.Duration {
	return parseTimeout(c.Timeout)
}

// EcosConfig holds Bank of Korea ECOS API configuration
type EcosConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EcosConfig) GetTimeout() time.Duration {
	return parseTimeout(c.Timeout)
}

// DataGoKrConfig holds data.go.kr (FSC open data) configuration
type DataGoKrConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *DataGoKrConfig) GetTimeout() time.Duration {
	return parseTimeout(c.Timeout)
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func parseTimeout(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// IsProduction returns true when the environment is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			ReferencePath: "data/reference",
		},
		Clients: ClientsConfig{
			Naver: NaverConfig{
				BaseURL:   "https://m.stock.naver.com",
				RateLimit: 10,
				Timeout:   "15s",
			},
			Dart: DartConfig{
				BaseURL:   "https://opendart.fss.or.kr/api",
				RateLimit: 5,
				Timeout:   "30s",
			},
			Fred: FredConfig{
				BaseURL:   "https://api.stlouisfed.org/fred",
				RateLimit: 5,
				Timeout:   "15s",
			},
			Ecos: EcosConfig{
				BaseURL:   "https://ecos.bok.or.kr/api",
				RateLimit: 5,
				Timeout:   "15s",
			},
			DataGoKr: DataGoKrConfig{
				BaseURL:   "https://apis.data.go.kr/1160100/service",
				RateLimit: 5,
				Timeout:   "30s",
			},
			Yahoo: EndpointConfig{
				BaseURL:   "https://query1.finance.yahoo.com",
				RateLimit: 5,
				Timeout:   "15s",
			},
			FearGreed: EndpointConfig{
				BaseURL:   "https://api.alternative.me",
				RateLimit: 5,
				Timeout:   "15s",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Missing files are skipped; later files override earlier ones.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FINBOARD_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("FINBOARD_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("FINBOARD_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("FINBOARD_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("FINBOARD_REFERENCE_PATH"); path != "" {
		config.Storage.ReferencePath = path
	}

	if addr := os.Getenv("FINBOARD_REDIS_ADDR"); addr != "" {
		config.Cache.Address = addr
	}

	if key := os.Getenv("DART_API_KEY"); key != "" {
		config.Clients.Dart.APIKey = key
	}

	if key := os.Getenv("FRED_API_KEY"); key != "" {
		config.Clients.Fred.APIKey = key
	}

	if key := os.Getenv("ECOS_API_KEY"); key != "" {
		config.Clients.Ecos.APIKey = key
	}

	if key := os.Getenv("DATA_GO_KR_API_KEY"); key != "" {
		config.Clients.DataGoKr.APIKey = key
	}
}
