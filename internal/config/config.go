package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds runtime configuration for both the API and the worker
// binaries.
type AppConfig struct {
	// Redis backs the profile cache, the job queue, and the metrics store.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// CacheTTL is the retention window for monthly profiles.
	CacheTTL time.Duration

	// External data source settings.
	GeocodingURL    string
	ArchiveURL      string
	APICallInterval time.Duration
	HTTPTimeout     time.Duration

	// Aggregation window and fan-out.
	ReferenceYear   int
	HistoricalYears int
	PoolSize        int

	// Cities pre-populated at startup and on the re-warm schedule.
	WarmCities     []string
	RewarmInterval time.Duration

	// Job queue boundary.
	JobQueueKey      string
	JobStatusTTL     time.Duration
	JobTimeout       time.Duration
	JobPollInterval  time.Duration
	RetryMaxAttempts int
	RetryBackoff     time.Duration

	Port     string
	LogLevel string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		RedisAddr:     getenvDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getenvInt("REDIS_DB", 0),

		GeocodingURL: getenvDefault("GEOCODING_URL", ""),
		ArchiveURL:   getenvDefault("ARCHIVE_URL", ""),

		ReferenceYear:   getenvInt("REFERENCE_YEAR", 2023),
		HistoricalYears: getenvInt("HISTORICAL_YEARS", 4),
		PoolSize:        getenvInt("POOL_SIZE", 4),

		JobQueueKey:      getenvDefault("JOB_QUEUE_KEY", "climate:jobs"),
		RetryMaxAttempts: getenvInt("RETRY_MAX_ATTEMPTS", 3),

		Port:     getenvDefault("PORT", "8080"),
		LogLevel: getenvDefault("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.APICallInterval, err = getenvDuration("API_CALL_INTERVAL", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RewarmInterval, err = getenvDuration("REWARM_INTERVAL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.JobStatusTTL, err = getenvDuration("JOB_STATUS_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.JobTimeout, err = getenvDuration("JOB_TIMEOUT", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.JobPollInterval, err = getenvDuration("JOB_POLL_INTERVAL", 100*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.RetryBackoff, err = getenvDuration("RETRY_BACKOFF", 500*time.Millisecond); err != nil {
		return nil, err
	}

	cfg.WarmCities = splitList(getenvDefault("WARM_CITIES", "New York,London"))

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
