package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/david-YJ-Kim/notesvc/internal/api"
	"github.com/david-YJ-Kim/notesvc/internal/bytesize"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/store"
)

// Config represents the notesvc configuration.
//
// This structure captures the static configuration of the note service:
//   - Logging configuration
//   - Storage layout (base data directory and the stores derived from it)
//   - Database connection (note metadata persistence)
//   - Search index settings (synonym table, write queue)
//   - Coordinator tuning (conflict merge, search limit)
//   - HTTP API server settings
//   - Metrics, telemetry and profiling
//
// The note content itself is never configured here: it lives in the git
// repository under the storage base directory and is managed through the
// save API.
//
// Configuration sources (in order of precedence):
//  1. DATA_DIR (bare override for storage.data_dir, kept for parity with
//     the container image which exports it for the mounted volume)
//  2. Environment variables (NOTESVC_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Storage describes the base data directory. The git content repository,
	// the SQLite database and the search index all live underneath it unless
	// individually overridden.
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`

	// Database configures the note metadata database (SQLite or PostgreSQL).
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`

	// Index configures the full-text search index.
	Index IndexConfig `mapstructure:"index" yaml:"index"`

	// Service tunes the note coordinator.
	Service ServiceConfig `mapstructure:"service" yaml:"service"`

	// API contains HTTP API server configuration
	API api.APIConfig `mapstructure:"api" yaml:"api"`

	// Metrics contains Prometheus metrics configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path.
	// 'notesvc logs' can only follow a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// StorageConfig describes where notesvc keeps its persisted state.
//
// Everything hangs off DataDir:
//
//	<data>/note/          git repository holding the note markdown files
//	<data>/db/notesvc.db  SQLite database (when database.type is sqlite)
//	<data>/index/         search index
//
// The database path can be overridden through database.sqlite.path; the
// repository and index paths are always derived.
type StorageConfig struct {
	// DataDir is the base directory for all persisted state.
	// Default: ./data. The DATA_DIR environment variable overrides it.
	DataDir string `mapstructure:"data_dir" validate:"required" yaml:"data_dir"`

	// MaxNoteSize caps the size of a single note's content on save.
	// Supports human-readable formats: "1Mi", "512Ki", "2MB".
	// Default: 1Mi. Zero disables the cap.
	MaxNoteSize bytesize.ByteSize `mapstructure:"max_note_size" yaml:"max_note_size,omitempty"`
}

// RepoPath returns the directory of the git repository holding note content.
func (c *StorageConfig) RepoPath() string {
	return filepath.Join(c.DataDir, "note")
}

// IndexPath returns the directory of the search index.
func (c *StorageConfig) IndexPath() string {
	return filepath.Join(c.DataDir, "index")
}

// DatabasePath returns the default SQLite database file path.
func (c *StorageConfig) DatabasePath() string {
	return filepath.Join(c.DataDir, "db", "notesvc.db")
}

// DatabaseTypePgx selects the native pgx metadata store instead of the GORM
// one. It shares the postgres connection settings; the native store adds
// embedded schema migrations and tighter pool control for HA deployments.
const DatabaseTypePgx store.DatabaseType = "pgx"

// DatabaseConfig configures the note metadata database.
//
// Three backends are supported:
//
//	sqlite    GORM over a local file (single-node, default)
//	postgres  GORM over PostgreSQL
//	pgx       native pgx/v5 store with embedded migrations
//
// The sqlite/postgres connection settings come from the embedded store
// config; pgx reuses the postgres settings.
type DatabaseConfig struct {
	store.Config `mapstructure:",squash" yaml:",inline"`

	// AutoMigrate applies the embedded schema migrations at startup when the
	// pgx backend is selected. golang-migrate takes an advisory lock, so
	// concurrent instances are safe.
	// Default: true
	AutoMigrate *bool `mapstructure:"auto_migrate" yaml:"auto_migrate,omitempty"`
}

// AutoMigrateEnabled returns whether the pgx backend should run migrations
// at startup, defaulting to true when unset.
func (c *DatabaseConfig) AutoMigrateEnabled() bool {
	return c.AutoMigrate == nil || *c.AutoMigrate
}

// IndexConfig configures the full-text search index.
type IndexConfig struct {
	// Synonyms maps a token to the tokens it should also match, applied at
	// index and query time. Mutually exclusive with SynonymsFile. When both
	// are empty the built-in table is used.
	Synonyms map[string][]string `mapstructure:"synonyms" yaml:"synonyms,omitempty"`

	// SynonymsFile is the path of a YAML file holding the synonym table
	// (a mapping of token to token list). Mutually exclusive with Synonyms.
	SynonymsFile string `mapstructure:"synonyms_file" yaml:"synonyms_file,omitempty"`

	// QueueSize is the capacity of the asynchronous index write queue.
	// Saves never block on indexing; writes beyond the queue capacity are
	// dropped and repaired by the next reconcile.
	// Default: 1000
	QueueSize int `mapstructure:"queue_size" validate:"omitempty,min=1" yaml:"queue_size,omitempty"`
}

// ServiceConfig tunes the note coordinator.
type ServiceConfig struct {
	// MergeOnConflict makes a save attempt a three-way text merge before
	// reporting a conflict: when both edits touch disjoint regions the save
	// goes through with the merged text.
	// Default: true
	MergeOnConflict *bool `mapstructure:"merge_on_conflict" yaml:"merge_on_conflict,omitempty"`

	// SearchLimit caps how many titles the search index contributes to one
	// keyword search.
	// Default: 100
	SearchLimit int `mapstructure:"search_limit" validate:"omitempty,min=1" yaml:"search_limit,omitempty"`
}

// MergeEnabled returns whether conflicting saves should attempt a three-way
// merge, defaulting to true when unset.
func (c *ServiceConfig) MergeEnabled() bool {
	return c.MergeOnConflict == nil || *c.MergeOnConflict
}

// MetricsConfig configures Prometheus metrics collection. The /metrics
// endpoint is served by the API listener, so there is no separate port.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and /metrics is mounted.
	// Default: true
	Enabled *bool `mapstructure:"enabled" yaml:"enabled,omitempty"`
}

// IsEnabled returns whether metrics are enabled, defaulting to true when
// unset.
func (c *MetricsConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
// When enabled, trace data is exported to an OTLP-compatible collector
// (e.g., Jaeger, Tempo, or any OTLP receiver).
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	// Default: false (opt-in for telemetry)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317" (standard OTLP gRPC port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use insecure (non-TLS) connection
	// Default: true (for local development)
	// Set to false in production with a TLS-enabled collector
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	// 1.0 = sample all traces, 0.5 = sample 50%, 0.0 = no sampling
	// Default: 1.0 (sample all)
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
// When enabled, CPU and memory profiles are continuously sent to a Pyroscope
// server for flame graph visualization and performance analysis.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled
	// Default: false (opt-in for profiling)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server endpoint (URL)
	// Default: "http://localhost:4040" (standard Pyroscope port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	// Valid values: cpu, alloc_objects, alloc_space, inuse_objects, inuse_space,
	//               goroutines, mutex_count, mutex_duration, block_count, block_duration
	// Default: ["cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines"]
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. DATA_DIR (bare override for the storage base directory)
//  2. Environment variables (NOTESVC_*)
//  3. Configuration file
//  4. Default values
//
// A missing configuration file is not an error: the service runs with
// defaults, which keeps quick local testing to a single command.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default locations)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Configure viper
	setupViper(v, configPath)

	// Read configuration file if it exists
	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	// Unmarshal into config struct with custom decode hooks
	var cfg Config
	if configFileFound {
		if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	// The bare DATA_DIR override comes before defaults so that derived paths
	// (database file, index directory) follow the moved base directory.
	applyEnvOverrides(&cfg)

	// Apply defaults for any missing values
	ApplyDefaults(&cfg)

	// Validate configuration
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
// It checks if an explicitly requested config file exists and provides
// user-friendly instructions if not.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default locations)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: User-friendly error with instructions if config not found
func MustLoad(configPath string) (*Config, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  notesvc config init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path.
// The configuration is saved in YAML format using proper yaml tags.
func SaveConfig(cfg *Config, path string) error {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Use yaml.Marshal directly to respect yaml tags
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with restricted permissions (0600 = owner read/write only).
	// Config files may contain database credentials.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Set up environment variable support
	// Environment variables use NOTESVC_ prefix and underscores
	// Example: NOTESVC_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("NOTESVC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Configure config file search
	if configPath != "" {
		// Use explicitly specified config file
		v.SetConfigFile(configPath)
	} else {
		// Default locations: $XDG_CONFIG_HOME/notesvc/notesvc.yaml, then
		// /etc/notesvc/notesvc.yaml
		v.AddConfigPath(getConfigDir())
		v.AddConfigPath("/etc/notesvc")
		v.SetConfigName("notesvc")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		// Check if error is "config file not found"
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is acceptable - use defaults
			return false, nil
		}
		// Also check for os.PathError when explicit config file doesn't exist
		if os.IsNotExist(err) {
			// Config file not found is acceptable - use defaults
			return false, nil
		}
		// Other errors are problems
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// applyEnvOverrides applies the bare environment overrides that bypass the
// NOTESVC_ prefix scheme. DATA_DIR wins over both storage.data_dir and
// NOTESVC_STORAGE_DATA_DIR.
func applyEnvOverrides(cfg *Config) {
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		cfg.Storage.DataDir = dir
	}
}

// configDecodeHooks returns a combined decode hook for all custom types.
// This includes ByteSize and time.Duration parsing.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook returns a mapstructure decode hook that converts strings
// and integers to bytesize.ByteSize. This enables config files to use
// human-readable sizes like "1Mi", "512Ki", "2MB", or plain numbers.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		// Only handle conversion to ByteSize
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			// Parse human-readable string like "1Mi", "512Ki", "2MB"
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook returns a mapstructure decode hook that converts strings
// to time.Duration. This enables config files to use human-readable durations
// like "30s", "5m", "1h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		// Only handle conversion to time.Duration
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			// Parse duration string like "30s", "5m", "1h"
			return time.ParseDuration(v)
		case int:
			// Assume nanoseconds for raw integers
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	// Check XDG_CONFIG_HOME
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "notesvc")
	}

	// Fall back to ~/.config
	home, err := os.UserHomeDir()
	if err != nil {
		// If we can't get home dir, use current directory as last resort
		return "."
	}

	return filepath.Join(home, ".config", "notesvc")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "notesvc.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for the
// config init command).
func GetConfigDir() string {
	return getConfigDir()
}
