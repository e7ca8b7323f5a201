package caseloader

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/xerrors"
)

// Defaults used when the environment leaves a setting unset.
const (
	DefaultSourceFile = "~/Documents/WorkSafetyIndex/Raw_Files/ITA Case Data 2024.csv"
	DefaultTable      = "case_details"
	DefaultBatchSize  = 1000
	DefaultThrottle   = 500 * time.Millisecond
	DefaultLogLevel   = "info"
)

// Environment variables read by LoadConfig.
const (
	EnvSourceFile   = "SOURCE_FILE"
	EnvTable        = "TABLE_NAME"
	EnvBatchSize    = "CHUNK_SIZE"
	EnvStoreURL     = "SUPABASE_URL"
	EnvStoreKey     = "SUPABASE_SERVICE_KEY"
	EnvThrottle     = "THROTTLE"
	EnvLogLevel     = "LOG_LEVEL"
	EnvSlackToken   = "SLACK_TOKEN"
	EnvSlackChannel = "SLACK_CHANNEL"
)

// Config holds everything a run needs. Build it once with LoadConfig and pass it to New.
type Config struct {
	// SourceFile is a local path, "~/" relative path or gs://bucket/object.
	SourceFile string

	// Table is the destination table name.
	Table string

	// BatchSize is the maximum number of records per insert request.
	BatchSize int

	// StoreURL selects and locates the destination store. See OpenStore.
	StoreURL string

	// StoreKey is the secret key for http(s) stores.
	StoreKey string

	// Throttle is the pause after every chunk attempt.
	Throttle time.Duration

	LogLevel string

	SlackToken   string
	SlackChannel string
}

// DefaultConfig returns a Config populated with defaults only.
func DefaultConfig() Config {
	return Config{
		SourceFile: DefaultSourceFile,
		Table:      DefaultTable,
		BatchSize:  DefaultBatchSize,
		Throttle:   DefaultThrottle,
		LogLevel:   DefaultLogLevel,
	}
}

// LoadConfig reads configuration from the process environment.
// Variables found in envFiles are loaded first without overriding ones already set.
// With no envFiles, a .env file in the working directory is loaded if present.
func LoadConfig(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return Config{}, xerrors.Errorf("failed to load env files: %w", err)
	}

	cfg := DefaultConfig()

	if v := os.Getenv(EnvSourceFile); v != "" {
		cfg.SourceFile = v
	}
	if v := os.Getenv(EnvTable); v != "" {
		cfg.Table = v
	}
	if v := os.Getenv(EnvBatchSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, xerrors.Errorf("%s=%q is not an integer: %w", EnvBatchSize, v, ErrInvalidConfig)
		}
		cfg.BatchSize = n
	}
	if v := os.Getenv(EnvThrottle); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, xerrors.Errorf("%s=%q is not a duration: %w", EnvThrottle, v, ErrInvalidConfig)
		}
		cfg.Throttle = d
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}

	cfg.StoreURL = os.Getenv(EnvStoreURL)
	cfg.StoreKey = os.Getenv(EnvStoreKey)
	cfg.SlackToken = os.Getenv(EnvSlackToken)
	cfg.SlackChannel = os.Getenv(EnvSlackChannel)

	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.SourceFile == "":
		return xerrors.Errorf("source file is required: %w", ErrInvalidConfig)
	case c.Table == "":
		return xerrors.Errorf("table name is required: %w", ErrInvalidConfig)
	case c.BatchSize <= 0:
		return xerrors.Errorf("batch size must be positive, got %d: %w", c.BatchSize, ErrInvalidConfig)
	case c.Throttle < 0:
		return xerrors.Errorf("throttle must not be negative: %w", ErrInvalidConfig)
	}

	return nil
}

// validateStore checks settings needed only when the store is built from the config.
func (c Config) validateStore() error {
	if c.StoreURL == "" {
		return xerrors.Errorf("%s is required: %w", EnvStoreURL, ErrInvalidConfig)
	}

	return nil
}
