package config

import (
	"fmt"

	"github.com/david-YJ-Kim/notesvc/pkg/config"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/store"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the notesvc configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  notesvc config validate

  # Validate specific config file
  notesvc config validate --config /etc/notesvc/notesvc.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// Get config path from parent's persistent flag
	configPath, _ := cmd.Flags().GetString("config")

	// Load and validate configuration
	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	// Determine path for display
	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	// Additional validation checks
	var warnings []string

	// 'notesvc logs' tails the log file, so stdout/stderr output makes it
	// unusable
	if cfg.Logging.Output == "stdout" || cfg.Logging.Output == "stderr" {
		warnings = append(warnings, fmt.Sprintf("logging.output is %q - 'notesvc logs' needs a file path", cfg.Logging.Output))
	}

	// Postgres backends usually take the password from the environment; an
	// empty one in the file is worth flagging before the first connect fails
	if cfg.Database.Type != store.DatabaseTypeSQLite && cfg.Database.Postgres.Password == "" {
		warnings = append(warnings, "postgres password is empty - set NOTESVC_DATABASE_POSTGRES_PASSWORD or database.postgres.password")
	}

	if !cfg.API.IsEnabled() {
		warnings = append(warnings, "api.enabled is false - the server will refuse to start")
	}

	// Print results
	fmt.Printf("Configuration file: %s\n", displayPath)
	fmt.Println("Validation: OK")

	if len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nConfiguration summary:\n")
	fmt.Printf("  Data directory:  %s\n", cfg.Storage.DataDir)
	fmt.Printf("  Database type:   %s\n", cfg.Database.Type)
	fmt.Printf("  API port:        %d\n", cfg.API.Port)
	fmt.Printf("  Log level:       %s\n", cfg.Logging.Level)

	return nil
}
