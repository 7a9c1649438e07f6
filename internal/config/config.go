// Package config provides configuration management for the engine.
//
// Configuration Loading Order:
// 1. Load from .env file (if present)
// 2. Read environment variables, falling back to documented defaults
// 3. Resolve the data directory to an absolute path and ensure it exists
//
// Data Directory Priority (highest to lowest):
// 1. dataDirOverride argument to Load (if non-empty)
// 2. ENGINE_DATA_DIR environment variable
// 3. ./data (default)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/arkinlabs/engine/internal/utils"
)

// Config holds application configuration.
type Config struct {
	DataDir        string   // base directory for the ledger store and archive staging (always absolute)
	LogLevel       string   // zerolog level name: debug, info, warn, error
	Port           int      // HTTP server listen port
	DevMode        bool     // enables pretty console logging instead of JSON
	VenueAllowlist []string // venue symbols to subscribe to; empty means all configured venues

	FeatureStore FeatureStoreConfig
	Graph        GraphConfig
	Executor     ExecutorConfig
	Venue        VenueConfig
	Scheduler    SchedulerConfig
	Archive      ArchiveConfig
}

// FeatureStoreConfig governs the retention and grid behavior of the
// per-(instrument, feature) insight store (§4.4).
type FeatureStoreConfig struct {
	RetentionWindow time.Duration // span of history replayed into the store at startup; nothing evicts cells during the run
	GridInterval    time.Duration // tick spacing g that featurestore Range steps by, default 1s
}

// GraphConfig governs feature-graph evaluation cadence (§4.5).
type GraphConfig struct {
	WarmupSteps int // ticks during which InsightsUpdate is emitted as WarmupInsightsUpdate instead
}

// ExecutorConfig governs the Simulated Executor's fill economics (§4.9).
type ExecutorConfig struct {
	CommissionRate decimal.Decimal // fraction of notional charged per matched fill
}

// VenueConfig governs real venue-provider connection maintenance (§4.9/§6).
type VenueConfig struct {
	ListenKeyKeepalive time.Duration // cadence for refreshing the venue listen key
	RequestTimeout     time.Duration // per-operation timeout for venue calls
}

// SchedulerConfig governs cron-driven background cadences.
type SchedulerConfig struct {
	InsightsTickInterval time.Duration // cadence of the synthetic InsightsTick trigger
	LedgerReconcileCron  string        // cron expression for the ledger/store reconciliation job
}

// ArchiveConfig governs periodic snapshot archival to object storage.
type ArchiveConfig struct {
	Enabled  bool
	Bucket   string
	Endpoint string // S3-compatible endpoint override (R2, MinIO, ...); empty uses AWS S3
	Prefix   string
	Interval time.Duration
}

// Load reads configuration from environment variables.
//
// dataDirOverride, if non-empty, takes priority over ENGINE_DATA_DIR and the
// default data directory.
func Load(dataDirOverride ...string) (*Config, error) {
	_ = godotenv.Load()

	var dataDir string
	if len(dataDirOverride) > 0 && dataDirOverride[0] != "" {
		dataDir = dataDirOverride[0]
	} else {
		dataDir = getEnv("ENGINE_DATA_DIR", "")
		if dataDir == "" {
			dataDir = "./data"
		}
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	commissionRate, err := decimal.NewFromString(getEnv("ENGINE_COMMISSION_RATE", "0.0005"))
	if err != nil {
		return nil, fmt.Errorf("invalid ENGINE_COMMISSION_RATE: %w", err)
	}

	cfg := &Config{
		DataDir:        absDataDir,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Port:           getEnvAsInt("ENGINE_PORT", 8080),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		VenueAllowlist: utils.ParseCSV(getEnv("ENGINE_VENUE_ALLOWLIST", "")),

		FeatureStore: FeatureStoreConfig{
			RetentionWindow: getEnvAsDuration("FEATURE_STORE_RETENTION", 6*time.Hour),
			GridInterval:    getEnvAsDuration("FEATURE_STORE_GRID_INTERVAL", time.Second),
		},
		Graph: GraphConfig{
			WarmupSteps: getEnvAsInt("GRAPH_WARMUP_STEPS", 60),
		},
		Executor: ExecutorConfig{
			CommissionRate: commissionRate,
		},
		Venue: VenueConfig{
			ListenKeyKeepalive: getEnvAsDuration("VENUE_LISTEN_KEY_KEEPALIVE", 30*time.Minute),
			RequestTimeout:     getEnvAsDuration("VENUE_REQUEST_TIMEOUT", 10*time.Second),
		},
		Scheduler: SchedulerConfig{
			InsightsTickInterval: getEnvAsDuration("SCHEDULER_INSIGHTS_TICK_INTERVAL", time.Second),
			LedgerReconcileCron:  getEnv("SCHEDULER_LEDGER_RECONCILE_CRON", "0 0 */6 * * *"),
		},
		Archive: ArchiveConfig{
			Enabled:  getEnvAsBool("ARCHIVE_ENABLED", false),
			Bucket:   getEnv("ARCHIVE_BUCKET", ""),
			Endpoint: getEnv("ARCHIVE_ENDPOINT", ""),
			Prefix:   getEnv("ARCHIVE_PREFIX", "engine"),
			Interval: getEnvAsDuration("ARCHIVE_INTERVAL", time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.FeatureStore.GridInterval <= 0 {
		return fmt.Errorf("feature store grid interval must be positive")
	}
	if c.FeatureStore.RetentionWindow <= 0 {
		return fmt.Errorf("feature store retention window must be positive")
	}
	if c.Graph.WarmupSteps < 0 {
		return fmt.Errorf("graph warmup steps must not be negative")
	}
	if c.Executor.CommissionRate.IsNegative() {
		return fmt.Errorf("commission rate must not be negative")
	}
	if c.Archive.Enabled && c.Archive.Bucket == "" {
		return fmt.Errorf("archive bucket required when archiving is enabled")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
