package config

import (
	"fmt"

	"github.com/david-YJ-Kim/notesvc/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample notesvc configuration file.

By default, the configuration file is created at
$XDG_CONFIG_HOME/notesvc/notesvc.yaml. Use --config to specify a
custom path.

The generated file lists every setting at its default value, so it
doubles as documentation; settings left at their default may be
removed.

Examples:
  # Initialize with default location
  notesvc config init

  # Initialize with custom path
  notesvc config init --config /etc/notesvc/notesvc.yaml

  # Force overwrite existing config
  notesvc config init --force`,
	RunE: runConfigInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")

	var configPath string
	var err error

	if configFile != "" {
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		configPath, err = config.InitConfig(initForce)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Start the server with: notesvc start")
	fmt.Printf("  3. Or specify custom config: notesvc start --config %s\n", configPath)

	return nil
}
