// Package restore implements restore subcommands for notesvc.
package restore

import (
	"github.com/spf13/cobra"
)

// Cmd is the restore subcommand.
var Cmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore operations",
	Long: `Restore notesvc data stores from backups.

Subcommands:
  db  Restore the note metadata database from backup`,
}

func init() {
	Cmd.AddCommand(dbCmd)
}
