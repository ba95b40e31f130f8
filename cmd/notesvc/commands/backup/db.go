package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/david-YJ-Kim/notesvc/internal/bytesize"
	"github.com/david-YJ-Kim/notesvc/internal/logger"
	"github.com/david-YJ-Kim/notesvc/pkg/config"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/model"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/store"
	"github.com/spf13/cobra"
)

var (
	dbOutput     string
	dbFormat     string
	dbS3Region   string
	dbS3Endpoint string
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Backup the note metadata database",
	Long: `Backup the note metadata database.

For SQLite databases:
  Creates a backup using VACUUM INTO (pure Go, no external tools needed).
  Can optionally use sqlite3 CLI with --format=native-cli for hot backups.

For PostgreSQL databases:
  Uses pg_dump if available, otherwise falls back to JSON export.

Formats:
  native      Use VACUUM INTO for SQLite (pure Go), pg_dump for PostgreSQL
  native-cli  Use sqlite3/pg_dump CLI tools (requires tools to be installed)
  json        Export all metadata rows as JSON (portable, works for all backends)

The output path may be an s3:// URI, in which case the backup is
written to a temporary file and uploaded. Credentials come from the
default AWS chain, or from NOTESVC_S3_ACCESS_KEY/NOTESVC_S3_SECRET_KEY
for S3-compatible services.

Examples:
  # Backup SQLite database (pure Go, recommended)
  notesvc backup db --output /tmp/notesvc.db

  # Backup using native CLI tools
  notesvc backup db --format native-cli --output /tmp/notesvc.db

  # Backup as JSON (works for all backends)
  notesvc backup db --format json --output /tmp/notesvc.json

  # Upload the backup to S3
  notesvc backup db --output s3://backups/notesvc/notesvc.db`,
	RunE: runDBBackup,
}

func init() {
	dbCmd.Flags().StringVarP(&dbOutput, "output", "o", "", "Output file path or s3:// URI (required)")
	dbCmd.Flags().StringVar(&dbFormat, "format", "native", "Backup format: native, native-cli, or json")
	dbCmd.Flags().StringVar(&dbS3Region, "s3-region", "", "AWS region for s3:// outputs (default: SDK config)")
	dbCmd.Flags().StringVar(&dbS3Endpoint, "s3-endpoint", "", "S3 endpoint URL for s3:// outputs (for S3-compatible services)")
	_ = dbCmd.MarkFlagRequired("output")
}

func runDBBackup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Validate format
	switch dbFormat {
	case "native", "native-cli", "json":
		// valid
	default:
		return fmt.Errorf("invalid format: %s (valid: native, native-cli, json)", dbFormat)
	}

	// Load configuration
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	// Store-open chatter would interleave with the result block; keep the
	// command output clean.
	cfg.Logging.Level = "ERROR"
	cfg.Logging.Output = "stderr"
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// An s3:// output goes through a temporary local file first
	localPath := dbOutput
	if IsS3URI(dbOutput) {
		tmp, err := os.CreateTemp("", "notesvc-backup-*")
		if err != nil {
			return fmt.Errorf("failed to create temporary file: %w", err)
		}
		localPath = tmp.Name()
		_ = tmp.Close()
		// VACUUM INTO refuses to overwrite an existing file
		_ = os.Remove(localPath)
		defer func() { _ = os.Remove(localPath) }()
	} else {
		if err := os.MkdirAll(filepath.Dir(dbOutput), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	startTime := time.Now()
	actualFormat := dbFormat

	switch dbFormat {
	case "json":
		if err := backupJSON(ctx, cfg, localPath); err != nil {
			return err
		}
	case "native-cli":
		switch cfg.Database.Type {
		case store.DatabaseTypeSQLite:
			if err := backupSQLiteCLI(cfg.Database.SQLite.Path, localPath); err != nil {
				return err
			}
			actualFormat = "sqlite-cli"
		default:
			// Check pg_dump availability before backup to set correct format
			if _, err := exec.LookPath("pg_dump"); err != nil {
				actualFormat = "json"
			} else {
				actualFormat = "pg_dump"
			}
			if err := backupPostgresCLI(ctx, cfg, localPath); err != nil {
				return err
			}
		}
	case "native":
		switch cfg.Database.Type {
		case store.DatabaseTypeSQLite:
			if err := backupSQLiteNative(ctx, &cfg.Database.Config, localPath); err != nil {
				return err
			}
			actualFormat = "sqlite"
		case store.DatabaseTypePostgres, config.DatabaseTypePgx:
			// PostgreSQL has no pure Go backup method, fall back to pg_dump or JSON
			if _, err := exec.LookPath("pg_dump"); err == nil {
				if err := backupPostgresCLI(ctx, cfg, localPath); err != nil {
					return err
				}
				actualFormat = "pg_dump"
			} else {
				fmt.Println("Note: pg_dump not found, using JSON export")
				if err := backupJSON(ctx, cfg, localPath); err != nil {
					return err
				}
				actualFormat = "json"
			}
		default:
			return fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
		}
	}

	// Get file size
	stat, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("failed to stat output file: %w", err)
	}

	if IsS3URI(dbOutput) {
		if err := uploadToS3(ctx, dbOutput, localPath, dbS3Region, dbS3Endpoint); err != nil {
			return err
		}
	}

	duration := time.Since(startTime)
	fmt.Printf("Backup completed successfully\n")
	fmt.Printf("  Output:   %s\n", dbOutput)
	fmt.Printf("  Type:     %s\n", cfg.Database.Type)
	fmt.Printf("  Format:   %s\n", actualFormat)
	fmt.Printf("  Size:     %s\n", bytesize.ByteSize(stat.Size()))
	fmt.Printf("  Duration: %s\n", duration.Round(time.Millisecond))

	return nil
}

// backupSQLiteNative creates a backup using VACUUM INTO (pure Go, no CLI needed).
func backupSQLiteNative(_ context.Context, cfg *store.Config, outputPath string) error {
	// Check if source database exists before attempting backup.
	// This prevents store.New() from creating a new empty database.
	if _, err := os.Stat(cfg.SQLite.Path); os.IsNotExist(err) {
		return fmt.Errorf("source database not found: %s", cfg.SQLite.Path)
	}

	// store.New mutates its config applying defaults; hand it a copy
	dbCfg := *cfg
	ms, err := store.New(&dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = ms.Close() }()

	// VACUUM INTO creates a consistent copy (available since SQLite 3.27.0)
	// and is safe to run while the database is in use
	sql := fmt.Sprintf("VACUUM INTO '%s'", outputPath)
	if err := ms.DB().Exec(sql).Error; err != nil {
		return fmt.Errorf("VACUUM INTO failed: %w", err)
	}

	return nil
}

// backupSQLiteCLI creates a backup using sqlite3 CLI for hot backup.
func backupSQLiteCLI(dbPath, outputPath string) error {
	// Check if source database exists
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("source database not found: %s", dbPath)
	}

	// Check if sqlite3 CLI is available
	if _, err := exec.LookPath("sqlite3"); err != nil {
		return fmt.Errorf("sqlite3 CLI not found: please install sqlite3 or use --format=native")
	}

	cmd := exec.Command("sqlite3", dbPath, fmt.Sprintf(".backup '%s'", outputPath))
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("sqlite3 backup failed: %w\nOutput: %s", err, string(output))
	}

	return nil
}

// backupPostgresCLI creates a backup using pg_dump, falls back to JSON if not available.
func backupPostgresCLI(ctx context.Context, cfg *config.Config, outputPath string) error {
	// Check if pg_dump is available
	if _, err := exec.LookPath("pg_dump"); err != nil {
		fmt.Println("Warning: pg_dump not found, falling back to JSON export")
		return backupJSON(ctx, cfg, outputPath)
	}

	pg := &cfg.Database.Postgres

	// Build pg_dump command
	args := []string{
		"-h", pg.Host,
		"-p", fmt.Sprintf("%d", pg.Port),
		"-U", pg.User,
		"-d", pg.Database,
		"-f", outputPath,
		"--no-password", // Expect PGPASSWORD env var or .pgpass
	}

	cmd := exec.Command("pg_dump", args...)
	cmd.Env = append(os.Environ(), fmt.Sprintf("PGPASSWORD=%s", pg.Password))

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("pg_dump failed: %w\nOutput: %s", err, string(output))
	}

	return nil
}

// NotesBackup represents a full export of the note metadata database.
// DISABLED rows are included: a backup is not the place to lose them.
type NotesBackup struct {
	Timestamp    string        `json:"timestamp"`
	Version      string        `json:"version"`
	DatabaseType string        `json:"database_type"`
	Notes        []*model.Note `json:"notes"`
}

// backupJSON creates a JSON export of the note metadata.
// This is portable and works without external database tools.
func backupJSON(ctx context.Context, cfg *config.Config, outputPath string) error {
	ms, err := config.OpenMetadataStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = ms.Close() }()

	notes, err := ms.AllNotes(ctx)
	if err != nil {
		return fmt.Errorf("failed to export notes: %w", err)
	}

	backup := &NotesBackup{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Version:      "1.0",
		DatabaseType: string(cfg.Database.Type),
		Notes:        notes,
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}

	return nil
}
