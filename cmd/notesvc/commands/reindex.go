package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/david-YJ-Kim/notesvc/internal/cli/prompt"
	"github.com/david-YJ-Kim/notesvc/pkg/config"
	"github.com/spf13/cobra"
)

var reindexYes bool

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Reconcile metadata and rebuild the search index",
	Long: `Reconcile the metadata database and the search index against the
note repository.

The repository is ground truth: files added, moved or deleted directly on
disk are registered, followed or disabled in the metadata database, and the
full-text index is rebuilt from the current file contents. The same pass
runs automatically at server startup; this command runs it on demand, for
example after editing note files by hand or restoring a database backup.

The server does not need to be stopped: metadata changes commit in one
transaction and the index swap is atomic.

Examples:
  # Reconcile with confirmation prompt
  notesvc reindex

  # Skip the prompt (for scripts)
  notesvc reindex --yes`,
	RunE: runReindex,
}

func init() {
	reindexCmd.Flags().BoolVarP(&reindexYes, "yes", "y", false, "Skip confirmation prompt")
}

func runReindex(cmd *cobra.Command, args []string) error {
	ok, err := prompt.ConfirmWithForce("Reconcile metadata and rebuild the search index?", reindexYes)
	if err != nil {
		if prompt.IsAborted(err) {
			return fmt.Errorf("reindex cancelled")
		}
		return err
	}
	if !ok {
		return fmt.Errorf("reindex cancelled")
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	// Initialize the structured logger
	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx := context.Background()

	rt, err := config.InitializeRuntime(ctx, cfg, config.RuntimeMetrics{})
	if err != nil {
		return fmt.Errorf("failed to initialize runtime: %w", err)
	}
	defer func() { _ = rt.Close() }()

	start := time.Now()
	stats, err := rt.Service.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	fmt.Printf("Reconciliation completed successfully\n")
	fmt.Printf("  Files:      %d\n", stats.Files)
	fmt.Printf("  Inserted:   %d\n", stats.Inserted)
	fmt.Printf("  Updated:    %d\n", stats.Updated)
	fmt.Printf("  Disabled:   %d\n", stats.Disabled)
	fmt.Printf("  Duplicates: %d\n", stats.Duplicates)
	fmt.Printf("  Indexed:    %d\n", stats.Indexed)
	fmt.Printf("  Duration:   %s\n", time.Since(start).Round(time.Millisecond))

	return nil
}
