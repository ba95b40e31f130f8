package config

import (
	"strings"
	"time"

	"github.com/david-YJ-Kim/notesvc/internal/bytesize"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/store"
)

// DefaultDataDir is the storage base directory used when neither the config
// file nor DATA_DIR names one.
const DefaultDataDir = "./data"

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyStorageDefaults(&cfg.Storage)
	applyDatabaseDefaults(&cfg.Database, &cfg.Storage)
	applyIndexDefaults(&cfg.Index)
	applyServiceDefaults(&cfg.Service)
	cfg.API.ApplyDefaults()
	applyTelemetryDefaults(&cfg.Telemetry)
	applyProfilingDefaults(&cfg.Profiling)
	applyShutdownTimeoutDefaults(cfg)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyStorageDefaults sets the storage base directory and note size cap.
func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	if cfg.MaxNoteSize == 0 {
		cfg.MaxNoteSize = bytesize.MiB
	}
}

// applyDatabaseDefaults sets database defaults. The SQLite file defaults to
// living under the storage base directory, so a single data_dir setting moves
// everything together.
func applyDatabaseDefaults(cfg *DatabaseConfig, storage *StorageConfig) {
	if cfg.Type == "" {
		cfg.Type = store.DatabaseTypeSQLite
	}
	if cfg.Type == store.DatabaseTypeSQLite && cfg.SQLite.Path == "" {
		cfg.SQLite.Path = storage.DatabasePath()
	}
	if cfg.Type == DatabaseTypePgx {
		// The pgx backend shares the postgres connection settings; the GORM
		// defaults below do not apply to it.
		return
	}
	cfg.Config.ApplyDefaults()
}

// applyIndexDefaults sets search index defaults. An empty synonym section is
// left empty here; the built-in table is substituted when the index opens.
func applyIndexDefaults(cfg *IndexConfig) {
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 1000
	}
}

// applyServiceDefaults sets coordinator defaults.
func applyServiceDefaults(cfg *ServiceConfig) {
	if cfg.SearchLimit == 0 {
		cfg.SearchLimit = 100
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	// Enabled defaults to false (opt-in for telemetry)
	// No need to set, zero value is false

	// Default endpoint is localhost:4317 (standard OTLP gRPC port)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}

	// Default sample rate is 1.0 (sample all traces)
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	// Enabled defaults to false (opt-in for profiling)
	// No need to set, zero value is false

	// Default endpoint is localhost:4040 (standard Pyroscope port)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}

	// Default profile types include CPU, memory allocation, and goroutines
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

// applyShutdownTimeoutDefaults sets shutdown timeout defaults.
func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Database: DatabaseConfig{
			Config: store.Config{
				Type: store.DatabaseTypeSQLite, // Default to SQLite for single-node
			},
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
