// Package config provides configuration management for Notelink.
// It loads settings from environment variables with the NOTELINK_ prefix
// and provides sensible defaults for all configuration options.
//
// The ranking and feedback thresholds are empirically tuned values. They
// are deliberately exposed here as named, overridable parameters so a
// deployment can recalibrate them against its own corpus.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration settings for the Notelink core.
type Config struct {
	Storage  StorageConfig
	Vault    VaultConfig
	Ranking  RankingConfig
	Feedback FeedbackConfig
	Watcher  WatcherConfig
}

// StorageConfig contains feedback-persistence configuration.
type StorageConfig struct {
	StorageEngine string // Storage engine: sqlite, postgres (default: sqlite)
	DataPath      string // Path to data directory for sqlite (default: ./data)
	PostgresDSN   string // Postgres connection string (used when engine is postgres)
}

// VaultConfig locates the note corpus.
type VaultConfig struct {
	Path string // Vault root directory (default: ./vault)
}

// RankingConfig contains the composite-score weights and the per-policy
// minimum score floors.
type RankingConfig struct {
	MatchWeight        float64 // Weight of the match-quality component (default: 0.6)
	PopularityWeight   float64 // Weight of normalized popularity (default: 0.2)
	CoOccurrenceWeight float64 // Weight of co-occurrence strength (default: 0.2)

	// PopularityMargin is the factor by which the most popular collision
	// candidate must exceed the runner-up to win without context (default: 1.5).
	PopularityMargin float64

	ConservativeMinScore float64 // Score floor under the conservative policy (default: 0.50)
	BalancedMinScore     float64 // Score floor under the balanced policy (default: 0.35)
	AggressiveMinScore   float64 // Score floor under the aggressive policy (default: 0.15)

	SuggestionCacheSize int // LRU entries for per-generation suggestion caching (default: 256)
}

// FeedbackConfig contains the suppression-learner thresholds.
type FeedbackConfig struct {
	// MinSamples is the number of feedback events required before the
	// boost/penalty adjustment activates (default: 5).
	MinSamples int

	// SuppressionThreshold is the cumulative negative count at which a
	// key is promoted to the suppression list (default: 2).
	SuppressionThreshold int

	// Boost is added to the composite score once the accept ratio is at
	// least HighAcceptRatio with MinSamples samples (default: 0.15).
	Boost float64

	// Penalty is subtracted once the accept ratio is at most
	// LowAcceptRatio with MinSamples samples (default: 0.15).
	Penalty float64

	HighAcceptRatio float64 // Accept ratio required for the boost (default: 0.8)
	LowAcceptRatio  float64 // Accept ratio triggering the penalty (default: 0.2)
}

// WatcherConfig tunes rebuild-trigger coalescing.
type WatcherConfig struct {
	// QuietPeriod is how long the vault must stay quiet before a
	// coalesced rebuild fires (default: 500ms).
	QuietPeriod time.Duration

	// MaxInterval forces a rebuild after this long even under a steady
	// stream of changes (default: 10s).
	MaxInterval time.Duration

	// MinRebuildGap rate-limits rebuild triggers (default: 2s).
	MinRebuildGap time.Duration
}

// LoadConfig loads configuration from environment variables with
// sensible defaults. All environment variables use the NOTELINK_ prefix.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Storage: StorageConfig{
			StorageEngine: getEnv("NOTELINK_STORAGE_ENGINE", "sqlite"),
			DataPath:      getEnv("NOTELINK_DATA_PATH", "./data"),
			PostgresDSN:   getEnv("NOTELINK_POSTGRES_DSN", ""),
		},
		Vault: VaultConfig{
			Path: getEnv("NOTELINK_VAULT_PATH", "./vault"),
		},
		Ranking: RankingConfig{
			MatchWeight:          getEnvFloat("NOTELINK_MATCH_WEIGHT", 0.6),
			PopularityWeight:     getEnvFloat("NOTELINK_POPULARITY_WEIGHT", 0.2),
			CoOccurrenceWeight:   getEnvFloat("NOTELINK_COOCCURRENCE_WEIGHT", 0.2),
			PopularityMargin:     getEnvFloat("NOTELINK_POPULARITY_MARGIN", 1.5),
			ConservativeMinScore: getEnvFloat("NOTELINK_CONSERVATIVE_MIN_SCORE", 0.50),
			BalancedMinScore:     getEnvFloat("NOTELINK_BALANCED_MIN_SCORE", 0.35),
			AggressiveMinScore:   getEnvFloat("NOTELINK_AGGRESSIVE_MIN_SCORE", 0.15),
			SuggestionCacheSize:  getEnvInt("NOTELINK_SUGGESTION_CACHE_SIZE", 256),
		},
		Feedback: FeedbackConfig{
			MinSamples:           getEnvInt("NOTELINK_MIN_FEEDBACK_SAMPLES", 5),
			SuppressionThreshold: getEnvInt("NOTELINK_SUPPRESSION_THRESHOLD", 2),
			Boost:                getEnvFloat("NOTELINK_FEEDBACK_BOOST", 0.15),
			Penalty:              getEnvFloat("NOTELINK_FEEDBACK_PENALTY", 0.15),
			HighAcceptRatio:      getEnvFloat("NOTELINK_HIGH_ACCEPT_RATIO", 0.8),
			LowAcceptRatio:       getEnvFloat("NOTELINK_LOW_ACCEPT_RATIO", 0.2),
		},
		Watcher: WatcherConfig{
			QuietPeriod:   getEnvDuration("NOTELINK_WATCH_QUIET_PERIOD", 500*time.Millisecond),
			MaxInterval:   getEnvDuration("NOTELINK_WATCH_MAX_INTERVAL", 10*time.Second),
			MinRebuildGap: getEnvDuration("NOTELINK_MIN_REBUILD_GAP", 2*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the core cannot serve with.
func (c *Config) Validate() error {
	switch c.Storage.StorageEngine {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unknown storage engine %q", c.Storage.StorageEngine)
	}
	if c.Storage.StorageEngine == "postgres" && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("config: NOTELINK_POSTGRES_DSN is required for the postgres engine")
	}
	if c.Feedback.SuppressionThreshold < 1 {
		return fmt.Errorf("config: suppression threshold must be at least 1")
	}
	if c.Ranking.PopularityMargin < 1.0 {
		return fmt.Errorf("config: popularity margin must be at least 1.0")
	}
	if c.Ranking.SuggestionCacheSize < 1 {
		return fmt.Errorf("config: suggestion cache size must be at least 1")
	}
	return nil
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable (Go duration
// syntax, e.g. "500ms") or returns a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
