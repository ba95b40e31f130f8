// Package backup implements backup subcommands for notesvc.
package backup

import (
	"github.com/spf13/cobra"
)

// Cmd is the backup subcommand.
var Cmd = &cobra.Command{
	Use:   "backup",
	Short: "Backup operations",
	Long: `Backup notesvc data stores.

The note content itself lives in the git repository under the data
directory and carries its own full history; cloning or archiving that
directory is a complete content backup. These subcommands cover the
stores git does not: the metadata database. The search index is
derived state and is rebuilt by 'notesvc reindex'.

Subcommands:
  db  Backup the note metadata database`,
}

func init() {
	Cmd.AddCommand(dbCmd)
}
