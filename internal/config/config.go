package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	ListenAddr     string        `env:"LISTEN_ADDR" envDefault:":8080"`
	BinanceBaseURL string        `env:"BINANCE_BASE_URL" envDefault:"https://api.binance.com"`
	StaleTime      time.Duration `env:"STALE_TIME" envDefault:"15m"`
	GCTime         time.Duration `env:"GC_TIME" envDefault:"1h"`
	QueryRetry     int           `env:"QUERY_RETRY" envDefault:"3"`
	RequestTimeout int           `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds
	RequestsPerSec int           `env:"REQUESTS_PER_SEC" envDefault:"5"`
	RenderCacheMB  int64         `env:"RENDER_CACHE_MB" envDefault:"16"`
	PrefetchPairs  []string      `env:"PREFETCH_PAIRS" envDefault:"BTCUSDT"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.ListenAddr = getEnvWithDefault("LISTEN_ADDR", ":8080")
	cfg.BinanceBaseURL = getEnvWithDefault("BINANCE_BASE_URL", "https://api.binance.com")
	cfg.StaleTime = getEnvDurationWithDefault("STALE_TIME", 15*time.Minute)
	cfg.GCTime = getEnvDurationWithDefault("GC_TIME", time.Hour)
	cfg.QueryRetry = getEnvIntWithDefault("QUERY_RETRY", 3)
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.RequestsPerSec = getEnvIntWithDefault("REQUESTS_PER_SEC", 5)
	cfg.RenderCacheMB = int64(getEnvIntWithDefault("RENDER_CACHE_MB", 16))
	cfg.PrefetchPairs = getEnvListWithDefault("PREFETCH_PAIRS", []string{"BTCUSDT"})
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")

	return &cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

// getEnvListWithDefault splits a comma separated value. An explicit "-" yields an empty list.
func getEnvListWithDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if value == "-" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
