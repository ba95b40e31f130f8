// Package postgres implements the note metadata store directly on
// PostgreSQL via pgx, without going through GORM. Schema management is
// handled by embedded golang-migrate migrations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/david-YJ-Kim/notesvc/internal/logger"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/model"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/store"
)

const noteColumns = "id, title, file_path, last_commit_hash, last_modified_by, created_at, updated_at, use_status"

// PostgresStore implements the store.Store interface using pgx.
type PostgresStore struct {
	pool   *pgxpool.Pool
	config *Config
	logger *slog.Logger
}

// NewPostgresStore creates a PostgreSQL-backed metadata store.
// When cfg.AutoMigrate is set, embedded schema migrations are applied first.
func NewPostgresStore(ctx context.Context, cfg *Config) (*PostgresStore, error) {
	log := logger.With("component", "postgres_note_store")

	pool, err := createConnectionPool(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if cfg.AutoMigrate {
		if err := runMigrations(ctx, cfg.ConnectionString(), log); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &PostgresStore{
		pool:   pool,
		config: cfg,
		logger: log,
	}, nil
}

func (s *PostgresStore) GetNote(ctx context.Context, title string) (*model.Note, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+noteColumns+" FROM note_metadata WHERE title = $1", title)

	note, err := scanNote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNoteNotFound
		}
		return nil, err
	}
	return note, nil
}

func (s *PostgresStore) ListNotes(ctx context.Context, page, size int) ([]*model.Note, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}

	var total int64
	if err := s.pool.QueryRow(ctx,
		"SELECT count(*) FROM note_metadata WHERE use_status = $1",
		string(model.StatusUsable)).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx,
		"SELECT "+noteColumns+` FROM note_metadata
		 WHERE use_status = $1
		 ORDER BY updated_at DESC
		 LIMIT $2 OFFSET $3`,
		string(model.StatusUsable), size, (page-1)*size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	notes, err := collectNotes(rows)
	if err != nil {
		return nil, 0, err
	}
	return notes, total, nil
}

func (s *PostgresStore) SearchNotes(ctx context.Context, keyword string, titles []string, page, size int) ([]*model.Note, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}
	if titles == nil {
		titles = []string{}
	}
	pattern := "%" + store.EscapeLike(keyword) + "%"

	var total int64
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM note_metadata
		 WHERE use_status = $1
		   AND (title LIKE $2 ESCAPE '\' OR title = ANY($3))`,
		string(model.StatusUsable), pattern, titles).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx,
		"SELECT "+noteColumns+` FROM note_metadata
		 WHERE use_status = $1
		   AND (title LIKE $2 ESCAPE '\' OR title = ANY($3))
		 ORDER BY updated_at DESC
		 LIMIT $4 OFFSET $5`,
		string(model.StatusUsable), pattern, titles, size, (page-1)*size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	notes, err := collectNotes(rows)
	if err != nil {
		return nil, 0, err
	}
	return notes, total, nil
}

func (s *PostgresStore) AllNotes(ctx context.Context) ([]*model.Note, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+noteColumns+" FROM note_metadata ORDER BY file_path ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectNotes(rows)
}

func (s *PostgresStore) CreateNote(ctx context.Context, note *model.Note) (string, error) {
	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	if note.UseStatus == "" {
		note.UseStatus = string(model.StatusUsable)
	}
	now := time.Now()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	if note.UpdatedAt.IsZero() {
		note.UpdatedAt = now
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO note_metadata (id, title, file_path, last_commit_hash, last_modified_by, created_at, updated_at, use_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		note.ID, note.Title, note.FilePath, note.LastCommitHash,
		note.LastModifiedBy, note.CreatedAt, note.UpdatedAt, note.UseStatus)
	if err != nil {
		if isUniqueViolation(err) {
			return "", model.ErrDuplicateNote
		}
		return "", err
	}
	return note.ID, nil
}

func (s *PostgresStore) UpdateCommit(ctx context.Context, id, expectedHash, newHash, modifiedBy string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE note_metadata
		 SET last_commit_hash = $3, last_modified_by = $4, updated_at = now()
		 WHERE id = $1 AND last_commit_hash = $2`,
		id, expectedHash, newHash, modifiedBy)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		var count int64
		if err := s.pool.QueryRow(ctx,
			"SELECT count(*) FROM note_metadata WHERE id = $1", id).Scan(&count); err != nil {
			return err
		}
		if count == 0 {
			return model.ErrNoteNotFound
		}
		return model.ErrHashMismatch
	}
	return nil
}

func (s *PostgresStore) ApplyReconciliation(ctx context.Context, inserts, updates []*model.Note) error {
	if len(inserts) == 0 && len(updates) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // No-op if committed

	for _, note := range inserts {
		if note.ID == "" {
			note.ID = uuid.New().String()
		}
		if note.UseStatus == "" {
			note.UseStatus = string(model.StatusUsable)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO note_metadata (id, title, file_path, last_commit_hash, last_modified_by, created_at, updated_at, use_status)
			 VALUES ($1, $2, $3, $4, $5, now(), now(), $6)`,
			note.ID, note.Title, note.FilePath, note.LastCommitHash,
			note.LastModifiedBy, note.UseStatus); err != nil {
			if isUniqueViolation(err) {
				return model.ErrDuplicateNote
			}
			return err
		}
	}

	for _, note := range updates {
		if _, err := tx.Exec(ctx,
			`UPDATE note_metadata
			 SET title = $2, file_path = $3, last_commit_hash = $4, last_modified_by = $5, use_status = $6, updated_at = now()
			 WHERE id = $1`,
			note.ID, note.Title, note.FilePath, note.LastCommitHash,
			note.LastModifiedBy, note.UseStatus); err != nil {
			if isUniqueViolation(err) {
				return model.ErrDuplicateNote
			}
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) Healthcheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// scanNote scans a single note row in noteColumns order.
func scanNote(row pgx.Row) (*model.Note, error) {
	var note model.Note
	err := row.Scan(
		&note.ID,
		&note.Title,
		&note.FilePath,
		&note.LastCommitHash,
		&note.LastModifiedBy,
		&note.CreatedAt,
		&note.UpdatedAt,
		&note.UseStatus,
	)
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func collectNotes(rows pgx.Rows) ([]*model.Note, error) {
	notes := make([]*model.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// isUniqueViolation checks for PostgreSQL error 23505 (unique_violation).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Compile-time interface check
var _ store.Store = (*PostgresStore)(nil)
