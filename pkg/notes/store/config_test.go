package store

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestApplyDefaults_SQLitePath(t *testing.T) {
	t.Run("UsesXDGDataHome", func(t *testing.T) {
		tmpDir := t.TempDir()
		t.Setenv("XDG_DATA_HOME", tmpDir)

		cfg := &Config{Type: DatabaseTypeSQLite}
		cfg.ApplyDefaults()

		expected := filepath.Join(tmpDir, "notesvc", "notesvc.db")
		if cfg.SQLite.Path != expected {
			t.Errorf("SQLite.Path = %q, expected %q", cfg.SQLite.Path, expected)
		}
	})

	t.Run("FallbackWithoutXDG", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", "")

		cfg := &Config{Type: DatabaseTypeSQLite}
		cfg.ApplyDefaults()

		if filepath.Base(cfg.SQLite.Path) != "notesvc.db" {
			t.Errorf("SQLite.Path = %q, expected filename 'notesvc.db'", cfg.SQLite.Path)
		}
	})

	t.Run("ExplicitPathPreserved", func(t *testing.T) {
		cfg := &Config{
			Type:   DatabaseTypeSQLite,
			SQLite: SQLiteConfig{Path: "/custom/notes.db"},
		}
		cfg.ApplyDefaults()

		if cfg.SQLite.Path != "/custom/notes.db" {
			t.Errorf("SQLite.Path = %q, expected explicit path to survive", cfg.SQLite.Path)
		}
	})
}

func TestApplyDefaults_Postgres(t *testing.T) {
	cfg := &Config{Type: DatabaseTypePostgres}
	cfg.ApplyDefaults()

	if cfg.Postgres.Port != 5432 {
		t.Errorf("Port = %d, expected 5432", cfg.Postgres.Port)
	}
	if cfg.Postgres.SSLMode != "disable" {
		t.Errorf("SSLMode = %q, expected 'disable'", cfg.Postgres.SSLMode)
	}
	if cfg.Postgres.MaxOpenConns != 25 {
		t.Errorf("MaxOpenConns = %d, expected 25", cfg.Postgres.MaxOpenConns)
	}
	if cfg.Postgres.MaxIdleConns != 5 {
		t.Errorf("MaxIdleConns = %d, expected 5", cfg.Postgres.MaxIdleConns)
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db.internal",
		Port:     5433,
		Database: "notes",
		User:     "svc",
		Password: "secret",
		SSLMode:  "require",
	}

	dsn := cfg.DSN()
	for _, part := range []string{"host=db.internal", "port=5433", "dbname=notes", "user=svc", "sslmode=require"} {
		if !strings.Contains(dsn, part) {
			t.Errorf("DSN missing %q: %s", part, dsn)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "valid sqlite",
			cfg:     Config{Type: DatabaseTypeSQLite, SQLite: SQLiteConfig{Path: "/tmp/x.db"}},
			wantErr: false,
		},
		{
			name:    "sqlite without path",
			cfg:     Config{Type: DatabaseTypeSQLite},
			wantErr: true,
		},
		{
			name: "valid postgres",
			cfg: Config{
				Type:     DatabaseTypePostgres,
				Postgres: PostgresConfig{Host: "localhost", Database: "notes", User: "svc"},
			},
			wantErr: false,
		},
		{
			name:    "postgres without host",
			cfg:     Config{Type: DatabaseTypePostgres, Postgres: PostgresConfig{Database: "notes", User: "svc"}},
			wantErr: true,
		},
		{
			name:    "unsupported type",
			cfg:     Config{Type: "oracle"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
