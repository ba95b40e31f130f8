package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/david-YJ-Kim/notesvc/internal/bytesize"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/store"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
// On Windows, backslashes in double-quoted YAML strings are interpreted as
// escape sequences (e.g. \U -> Unicode escape), causing parse errors.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notesvc.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	// A minimal config file gets the remaining settings filled with defaults.
	tmpDir := t.TempDir()
	configPath := writeConfigFile(t, `
logging:
  level: "INFO"

storage:
  data_dir: "`+yamlSafePath(tmpDir)+`/data"

database:
  type: sqlite

api:
  port: 9900
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.API.Port != 9900 {
		t.Errorf("Expected API port 9900, got %d", cfg.API.Port)
	}
	if cfg.Index.QueueSize != 1000 {
		t.Errorf("Expected default index queue size 1000, got %d", cfg.Index.QueueSize)
	}

	// The SQLite file derives from the configured data directory.
	wantDB := filepath.Join(tmpDir, "data", "db", "notesvc.db")
	if cfg.Database.SQLite.Path != wantDB {
		t.Errorf("Expected derived sqlite path %q, got %q", wantDB, cfg.Database.SQLite.Path)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Loading with no config file returns a valid default config.
	// This allows running the service without a config file for quick testing.
	tmpDir := t.TempDir()
	nonExistentPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}

	if cfg == nil {
		t.Fatal("Expected default config to be returned")
	}
	if cfg.API.Port != 9900 {
		t.Errorf("Expected default API port 9900, got %d", cfg.API.Port)
	}
	if cfg.Storage.DataDir != DefaultDataDir {
		t.Errorf("Expected default data dir %q, got %q", DefaultDataDir, cfg.Storage.DataDir)
	}
	if cfg.Database.Type != store.DatabaseTypeSQLite {
		t.Errorf("Expected default database type sqlite, got %q", cfg.Database.Type)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfigFile(t, `
logging:
  level: INFO
  invalid yaml here [[[
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	// File values that fail validation surface as load errors.
	configPath := writeConfigFile(t, `
logging:
  level: "LOUD"
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected validation error for invalid log level, got nil")
	}
}

func TestLoad_MaxNoteSizeString(t *testing.T) {
	configPath := writeConfigFile(t, `
storage:
  data_dir: "/tmp/notesvc-test"
  max_note_size: "2Mi"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Storage.MaxNoteSize != 2*bytesize.MiB {
		t.Errorf("Expected max_note_size 2Mi, got %d", cfg.Storage.MaxNoteSize)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("NOTESVC_LOGGING_LEVEL", "ERROR")
	t.Setenv("NOTESVC_API_PORT", "19900")

	configPath := writeConfigFile(t, `
logging:
  level: "INFO"

api:
  port: 9900
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Environment variables override config file values
	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
	if cfg.API.Port != 19900 {
		t.Errorf("Expected port 19900 from env var, got %d", cfg.API.Port)
	}
}

func TestLoad_DataDirEnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	override := filepath.Join(tmpDir, "volume")
	t.Setenv("DATA_DIR", override)

	t.Run("WithoutConfigFile", func(t *testing.T) {
		cfg, err := Load(filepath.Join(tmpDir, "nonexistent.yaml"))
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}

		if cfg.Storage.DataDir != override {
			t.Errorf("Expected DATA_DIR override %q, got %q", override, cfg.Storage.DataDir)
		}
		// Derived paths follow the moved base directory.
		wantDB := filepath.Join(override, "db", "notesvc.db")
		if cfg.Database.SQLite.Path != wantDB {
			t.Errorf("Expected derived sqlite path %q, got %q", wantDB, cfg.Database.SQLite.Path)
		}
	})

	t.Run("WinsOverConfigFile", func(t *testing.T) {
		configPath := writeConfigFile(t, `
storage:
  data_dir: "/from-file"
`)

		cfg, err := Load(configPath)
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}

		if cfg.Storage.DataDir != override {
			t.Errorf("Expected DATA_DIR to win over the file, got %q", cfg.Storage.DataDir)
		}
	})
}

func TestLoad_DatabaseBackends(t *testing.T) {
	t.Run("Postgres", func(t *testing.T) {
		configPath := writeConfigFile(t, `
database:
  type: postgres
  postgres:
    host: db.internal
    database: notes
    user: svc
    password: secret
`)

		cfg, err := Load(configPath)
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}

		if cfg.Database.Type != store.DatabaseTypePostgres {
			t.Errorf("Expected postgres type, got %q", cfg.Database.Type)
		}
		if cfg.Database.Postgres.Port != 5432 {
			t.Errorf("Expected default postgres port 5432, got %d", cfg.Database.Postgres.Port)
		}
	})

	t.Run("Pgx", func(t *testing.T) {
		configPath := writeConfigFile(t, `
database:
  type: pgx
  auto_migrate: false
  postgres:
    host: db.internal
    database: notes
    user: svc
    password: secret
`)

		cfg, err := Load(configPath)
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}

		if cfg.Database.Type != DatabaseTypePgx {
			t.Errorf("Expected pgx type, got %q", cfg.Database.Type)
		}
		if cfg.Database.AutoMigrateEnabled() {
			t.Error("Expected auto_migrate false to be honored")
		}
	})
}

func TestSynonymTable(t *testing.T) {
	t.Run("DefaultsWhenEmpty", func(t *testing.T) {
		table, err := SynonymTable(&IndexConfig{})
		if err != nil {
			t.Fatalf("SynonymTable failed: %v", err)
		}
		if len(table["휴대폰"]) == 0 {
			t.Error("Expected built-in synonym table to be used")
		}
	})

	t.Run("Inline", func(t *testing.T) {
		cfg := &IndexConfig{Synonyms: map[string][]string{"golang": {"go"}}}
		table, err := SynonymTable(cfg)
		if err != nil {
			t.Fatalf("SynonymTable failed: %v", err)
		}
		if len(table) != 1 || table["golang"][0] != "go" {
			t.Errorf("Expected inline table, got %v", table)
		}
	})

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "synonyms.yaml")
		if err := os.WriteFile(path, []byte("golang:\n  - go\n  - gopher\n"), 0644); err != nil {
			t.Fatalf("Failed to write synonyms file: %v", err)
		}

		table, err := SynonymTable(&IndexConfig{SynonymsFile: path})
		if err != nil {
			t.Fatalf("SynonymTable failed: %v", err)
		}
		if len(table["golang"]) != 2 {
			t.Errorf("Expected 2 synonyms for golang, got %v", table["golang"])
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := SynonymTable(&IndexConfig{SynonymsFile: "/nonexistent/synonyms.yaml"})
		if err == nil {
			t.Fatal("Expected error for missing synonyms file")
		}
	})
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()

	if filepath.Base(path) != "notesvc.yaml" {
		t.Errorf("Expected filename 'notesvc.yaml', got %q", filepath.Base(path))
	}
}

func TestGetConfigDir(t *testing.T) {
	dir := GetConfigDir()

	if filepath.Base(dir) != "notesvc" {
		t.Errorf("Expected directory name 'notesvc', got %q", filepath.Base(dir))
	}
}
