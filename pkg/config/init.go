package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// configFileHeader is prepended to generated configuration files.
const configFileHeader = `# notesvc configuration file
#
# Generated by 'notesvc config init'. Every value below is the default;
# settings left at their default may be removed, notesvc re-applies the
# same defaults at startup.
#
# Environment variables with the NOTESVC_ prefix override file values,
# e.g. NOTESVC_LOGGING_LEVEL=DEBUG. The bare DATA_DIR variable overrides
# storage.data_dir.

`

// InitConfig creates a default configuration file at the default location
// ($XDG_CONFIG_HOME/notesvc/notesvc.yaml) and returns its path.
//
// Returns an error if the file already exists, unless force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath creates a default configuration file at the given path.
//
// Returns an error if the file already exists, unless force is set.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	content := append([]byte(configFileHeader), data...)
	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
