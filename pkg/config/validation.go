package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	notespg "github.com/david-YJ-Kim/notesvc/pkg/notes/store/postgres"
)

// validate performs struct-tag validation for the whole configuration tree.
// Nested sections are validated through their own tags.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for errors.
//
// Struct tags cover shapes (required fields, ranges, enums); the checks below
// cover the cross-field rules tags cannot express. Validation never mutates
// the config: normalization belongs to ApplyDefaults.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := validateDatabase(&cfg.Database); err != nil {
		return fmt.Errorf("invalid database configuration: %w", err)
	}

	if cfg.Index.SynonymsFile != "" && len(cfg.Index.Synonyms) > 0 {
		return fmt.Errorf("index: synonyms and synonyms_file are mutually exclusive")
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry is enabled but no endpoint is configured")
	}

	if cfg.Profiling.Enabled && cfg.Profiling.Endpoint == "" {
		return fmt.Errorf("profiling is enabled but no endpoint is configured")
	}

	return nil
}

// validateDatabase validates the selected backend's connection settings.
// The pgx backend reuses the postgres section, so it is checked through the
// native store's config rules rather than the GORM ones.
func validateDatabase(cfg *DatabaseConfig) error {
	if cfg.Type == DatabaseTypePgx {
		pgxCfg := PgxConfig(cfg)
		return pgxCfg.Validate()
	}
	return cfg.Config.Validate()
}

// PgxConfig projects the database section onto the native pgx store's
// configuration. Defaults are applied so the result is ready to open.
func PgxConfig(cfg *DatabaseConfig) *notespg.Config {
	pgxCfg := &notespg.Config{
		Host:        cfg.Postgres.Host,
		Port:        cfg.Postgres.Port,
		Database:    cfg.Postgres.Database,
		User:        cfg.Postgres.User,
		Password:    cfg.Postgres.Password,
		SSLMode:     cfg.Postgres.SSLMode,
		AutoMigrate: cfg.AutoMigrateEnabled(),
	}
	if cfg.Postgres.MaxOpenConns > 0 {
		pgxCfg.MaxConns = int32(cfg.Postgres.MaxOpenConns)
	}
	if cfg.Postgres.MaxIdleConns > 0 {
		pgxCfg.MinConns = int32(cfg.Postgres.MaxIdleConns)
	}
	pgxCfg.ApplyDefaults()
	return pgxCfg
}
