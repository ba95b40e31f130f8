package restore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/david-YJ-Kim/notesvc/cmd/notesvc/commands/backup"
	"github.com/david-YJ-Kim/notesvc/internal/cli/prompt"
	"github.com/david-YJ-Kim/notesvc/internal/logger"
	"github.com/david-YJ-Kim/notesvc/pkg/config"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/store"
	"github.com/spf13/cobra"
)

var (
	dbInput      string
	dbYes        bool
	dbS3Region   string
	dbS3Endpoint string
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Restore the note metadata database from backup",
	Long: `Restore the note metadata database from a backup file.

IMPORTANT: The notesvc server must be stopped before restoring.

Supported backup formats:
  - SQLite database files (.db) - restored by replacing the database file
  - PostgreSQL SQL dumps (.sql) - restored using psql
  - JSON exports (.json) - restored by recreating all metadata rows

The restore command auto-detects the backup format based on file
content. The input path may be an s3:// URI, in which case the backup
is downloaded first.

The restored metadata must agree with the git repository; run
'notesvc reindex' afterwards to reconcile and rebuild the search index.

Examples:
  # Restore from SQLite backup
  notesvc restore db --input /tmp/notesvc.db

  # Restore from JSON backup
  notesvc restore db --input /tmp/notesvc.json

  # Restore from S3 without prompting
  notesvc restore db --input s3://backups/notesvc/notesvc.db --yes`,
	RunE: runDBRestore,
}

func init() {
	dbCmd.Flags().StringVarP(&dbInput, "input", "i", "", "Input backup file path or s3:// URI (required)")
	dbCmd.Flags().BoolVarP(&dbYes, "yes", "y", false, "Skip the confirmation prompt")
	dbCmd.Flags().StringVar(&dbS3Region, "s3-region", "", "AWS region for s3:// inputs (default: SDK config)")
	dbCmd.Flags().StringVar(&dbS3Endpoint, "s3-endpoint", "", "S3 endpoint URL for s3:// inputs (for S3-compatible services)")
	_ = dbCmd.MarkFlagRequired("input")
}

func runDBRestore(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Load configuration
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	// Store-open chatter would interleave with the restore progress; keep
	// the command output clean.
	cfg.Logging.Level = "ERROR"
	cfg.Logging.Output = "stderr"
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// An s3:// input is downloaded to a temporary file first
	localInput := dbInput
	if backup.IsS3URI(dbInput) {
		tmp, err := os.CreateTemp("", "notesvc-restore-*")
		if err != nil {
			return fmt.Errorf("failed to create temporary file: %w", err)
		}
		localInput = tmp.Name()
		_ = tmp.Close()
		defer func() { _ = os.Remove(localInput) }()

		fmt.Printf("Downloading %s...\n", dbInput)
		if err := backup.DownloadFromS3(ctx, dbInput, localInput, dbS3Region, dbS3Endpoint); err != nil {
			return err
		}
	} else if _, err := os.Stat(localInput); os.IsNotExist(err) {
		return fmt.Errorf("backup file not found: %s", localInput)
	}

	// Detect backup format
	format, err := detectBackupFormat(localInput)
	if err != nil {
		return fmt.Errorf("failed to detect backup format: %w", err)
	}

	// Confirmation prompt
	fmt.Printf("WARNING: This will replace the current note metadata database.\n")
	fmt.Printf("  Database: %s (%s)\n", cfg.Database.Type, databaseLocation(cfg))
	fmt.Printf("  Backup:   %s (%s format)\n", dbInput, format)
	fmt.Printf("\nMake sure the notesvc server is stopped before proceeding.\n\n")

	confirmed, err := prompt.ConfirmWithForce("Replace the current database?", dbYes)
	if err != nil {
		if prompt.IsAborted(err) {
			return fmt.Errorf("restore cancelled")
		}
		return err
	}
	if !confirmed {
		return fmt.Errorf("restore cancelled")
	}

	startTime := time.Now()

	switch format {
	case "sqlite":
		if cfg.Database.Type != store.DatabaseTypeSQLite {
			return fmt.Errorf("cannot restore SQLite backup to %s database", cfg.Database.Type)
		}
		if err := restoreSQLite(localInput, cfg.Database.SQLite.Path); err != nil {
			return err
		}
	case "sql":
		if cfg.Database.Type != store.DatabaseTypePostgres && cfg.Database.Type != config.DatabaseTypePgx {
			return fmt.Errorf("cannot restore PostgreSQL SQL dump to %s database", cfg.Database.Type)
		}
		if err := restorePostgresSQL(ctx, &cfg.Database.Postgres, localInput); err != nil {
			return err
		}
	case "json":
		if err := restoreJSON(ctx, cfg, localInput); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported backup format: %s", format)
	}

	duration := time.Since(startTime)
	fmt.Printf("\nRestore completed successfully\n")
	fmt.Printf("  Source:   %s\n", dbInput)
	fmt.Printf("  Format:   %s\n", format)
	fmt.Printf("  Target:   %s\n", databaseLocation(cfg))
	fmt.Printf("  Duration: %s\n", duration.Round(time.Millisecond))
	fmt.Printf("\nRun 'notesvc reindex' to reconcile the metadata with the git\n")
	fmt.Printf("repository and rebuild the search index.\n")

	return nil
}

// detectBackupFormat determines the format of the backup file.
func detectBackupFormat(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	// Read first few bytes to detect format
	header := make([]byte, 16)
	n, err := file.Read(header)
	if err != nil && err != io.EOF {
		return "", err
	}
	header = header[:n]

	// SQLite database starts with "SQLite format 3"
	if strings.HasPrefix(string(header), "SQLite format 3") {
		return "sqlite", nil
	}

	// JSON starts with { or [
	if len(header) > 0 && (header[0] == '{' || header[0] == '[') {
		return "json", nil
	}

	// PostgreSQL dump starts with "-- PostgreSQL" or similar SQL comments
	if strings.HasPrefix(string(header), "--") || strings.HasPrefix(string(header), "/*") {
		return "sql", nil
	}

	// Check file extension as fallback
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite", nil
	case ".sql":
		return "sql", nil
	case ".json":
		return "json", nil
	}

	return "", fmt.Errorf("unable to detect backup format for: %s", path)
}

// restoreSQLite restores a SQLite database by replacing the file.
func restoreSQLite(backupPath, targetPath string) error {
	// Ensure target directory exists
	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	// Remove existing database and related files
	for _, ext := range []string{"", "-wal", "-shm", "-journal"} {
		_ = os.Remove(targetPath + ext)
	}

	// Copy backup to target
	return copyFile(backupPath, targetPath)
}

// restorePostgresSQL restores a PostgreSQL database using psql.
func restorePostgresSQL(_ context.Context, cfg *store.PostgresConfig, backupPath string) error {
	// Check if psql is available
	if _, err := exec.LookPath("psql"); err != nil {
		return fmt.Errorf("psql not found in PATH: please install PostgreSQL client tools")
	}

	// Build psql command
	args := []string{
		"-h", cfg.Host,
		"-p", fmt.Sprintf("%d", cfg.Port),
		"-U", cfg.User,
		"-d", cfg.Database,
		"-f", backupPath,
		"--no-password",
	}

	cmd := exec.Command("psql", args...)
	cmd.Env = append(os.Environ(), fmt.Sprintf("PGPASSWORD=%s", cfg.Password))

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("psql restore failed: %w\nOutput: %s", err, string(output))
	}

	return nil
}

// restoreJSON restores the database from a JSON backup by recreating
// every metadata row. The target schema is created fresh: for SQLite
// the database file is replaced, for PostgreSQL the rows are inserted
// into the configured database, which must be empty.
func restoreJSON(ctx context.Context, cfg *config.Config, backupPath string) error {
	// Read backup file
	file, err := os.Open(backupPath)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var backupData backup.NotesBackup
	if err := json.NewDecoder(file).Decode(&backupData); err != nil {
		return fmt.Errorf("failed to parse JSON backup: %w", err)
	}

	fmt.Printf("Restoring from JSON backup (version %s, created %s)\n", backupData.Version, backupData.Timestamp)

	// For SQLite, remove existing database first so the schema starts fresh
	if cfg.Database.Type == store.DatabaseTypeSQLite {
		for _, ext := range []string{"", "-wal", "-shm", "-journal"} {
			_ = os.Remove(cfg.Database.SQLite.Path + ext)
		}
	}

	// Opening the store creates the schema
	ms, err := config.OpenMetadataStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = ms.Close() }()

	fmt.Printf("  Restoring %d notes...\n", len(backupData.Notes))
	for _, note := range backupData.Notes {
		if _, err := ms.CreateNote(ctx, note); err != nil {
			return fmt.Errorf("failed to restore note %q: %w", note.Title, err)
		}
	}

	return nil
}

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer func() { _ = source.Close() }()

	dest, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() { _ = dest.Close() }()

	if _, err := io.Copy(dest, source); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}

	return dest.Sync()
}

// databaseLocation returns a human-readable location for the database.
func databaseLocation(cfg *config.Config) string {
	switch cfg.Database.Type {
	case store.DatabaseTypeSQLite:
		return cfg.Database.SQLite.Path
	case store.DatabaseTypePostgres, config.DatabaseTypePgx:
		pg := &cfg.Database.Postgres
		return fmt.Sprintf("%s@%s:%d/%s", pg.User, pg.Host, pg.Port, pg.Database)
	default:
		return string(cfg.Database.Type)
	}
}
