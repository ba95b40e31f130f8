package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestInitConfig_Success(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	path, err := InitConfig(false)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}

	wantPath := filepath.Join(tmpDir, "notesvc", "notesvc.yaml")
	if path != wantPath {
		t.Errorf("Expected config at %q, got %q", wantPath, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read generated config: %v", err)
	}
	content := string(data)

	if !strings.HasPrefix(content, "# notesvc configuration file") {
		t.Error("Expected generated config to start with the header comment")
	}
	for _, section := range []string{"logging:", "storage:", "database:", "api:"} {
		if !strings.Contains(content, section) {
			t.Errorf("Expected generated config to contain %q section", section)
		}
	}

	// The generated file must parse back into a config.
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("Generated config is not valid YAML: %v", err)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected generated level 'INFO', got %q", cfg.Logging.Level)
	}
}

func TestInitConfig_AlreadyExists(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	if _, err := InitConfig(false); err != nil {
		t.Fatalf("First InitConfig failed: %v", err)
	}

	_, err := InitConfig(false)
	if err == nil {
		t.Fatal("Expected error when config already exists")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestInitConfig_Force(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	path, err := InitConfig(false)
	if err != nil {
		t.Fatalf("First InitConfig failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("mangled: true\n"), 0600); err != nil {
		t.Fatalf("Failed to mangle config: %v", err)
	}

	if _, err := InitConfig(true); err != nil {
		t.Fatalf("InitConfig with force failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}
	if !strings.Contains(string(data), "logging:") {
		t.Error("Expected force to overwrite the mangled config")
	}
}

func TestInitConfigToPath(t *testing.T) {
	// Parent directories are created as needed.
	path := filepath.Join(t.TempDir(), "nested", "dir", "notesvc.yaml")

	if err := InitConfigToPath(path, false); err != nil {
		t.Fatalf("InitConfigToPath failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Expected config file to exist: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected file mode 0600, got %v", info.Mode().Perm())
	}

	if err := InitConfigToPath(path, false); err == nil {
		t.Fatal("Expected error when target already exists")
	}
	if err := InitConfigToPath(path, true); err != nil {
		t.Fatalf("InitConfigToPath with force failed: %v", err)
	}
}

func TestInitConfig_GeneratedConfigIsLoadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notesvc.yaml")
	if err := InitConfigToPath(path, false); err != nil {
		t.Fatalf("InitConfigToPath failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load generated config: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.API.Port != 9900 {
		t.Errorf("Expected port 9900, got %d", cfg.API.Port)
	}
	if cfg.Storage.DataDir != DefaultDataDir {
		t.Errorf("Expected data dir %q, got %q", DefaultDataDir, cfg.Storage.DataDir)
	}
}

func TestInitConfig_GeneratedConfigHasDerivedDatabasePath(t *testing.T) {
	// The default sqlite location is written out explicitly so operators see
	// where the database lives without reading the defaults code.
	path := filepath.Join(t.TempDir(), "notesvc.yaml")
	if err := InitConfigToPath(path, false); err != nil {
		t.Fatalf("InitConfigToPath failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}

	want := filepath.Join(DefaultDataDir, "db", "notesvc.db")
	if !strings.Contains(string(data), want) {
		t.Errorf("Expected generated config to contain sqlite path %q", want)
	}
}
