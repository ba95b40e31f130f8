// Package store provides the note metadata persistence layer.
//
// The metadata table is the relational half of the note service: one row per
// note carrying its title, repository file path, last commit hash and
// lifecycle status. Content itself lives in the git-backed content store.
//
// Two backends are supported:
//   - SQLite (single-node, default)
//   - PostgreSQL (HA-capable)
package store

import (
	"context"

	"github.com/david-YJ-Kim/notesvc/pkg/notes/model"
)

// Store provides the note metadata persistence interface.
//
// Thread Safety: Implementations must be safe for concurrent use from multiple
// goroutines.
type Store interface {
	// GetNote returns the metadata row for a title, regardless of its
	// lifecycle status.
	// Returns model.ErrNoteNotFound if no row exists.
	GetNote(ctx context.Context, title string) (*model.Note, error)

	// ListNotes returns one page of USABLE notes ordered by updated_at
	// descending, together with the total USABLE count. Page numbering is
	// 1-based.
	ListNotes(ctx context.Context, page, size int) ([]*model.Note, int64, error)

	// SearchNotes returns one page of USABLE notes whose title contains
	// keyword as a substring, or whose title is in titles, together with the
	// total match count. Ordering and pagination follow ListNotes.
	SearchNotes(ctx context.Context, keyword string, titles []string, page, size int) ([]*model.Note, int64, error)

	// AllNotes returns every metadata row, including DISABLED ones, ordered
	// by file path. Used by the startup reconciler.
	AllNotes(ctx context.Context) ([]*model.Note, error)

	// CreateNote inserts a new metadata row. The note ID is generated if
	// empty; the generated ID is returned.
	// Returns model.ErrDuplicateNote if the title or file path is taken.
	CreateNote(ctx context.Context, note *model.Note) (string, error)

	// UpdateCommit advances a note's commit pointer, conditional on the hash
	// currently stored. The row is updated only if last_commit_hash still
	// equals expectedHash; otherwise another writer got there first.
	// Returns model.ErrHashMismatch if the hash moved, model.ErrNoteNotFound
	// if the row is gone.
	UpdateCommit(ctx context.Context, id, expectedHash, newHash, modifiedBy string) error

	// ApplyReconciliation applies a reconciliation plan in a single
	// transaction: inserts are new rows for files discovered on disk, updates
	// are full-row rewrites of drifted entries.
	ApplyReconciliation(ctx context.Context, inserts, updates []*model.Note) error

	// Healthcheck verifies the database connection is alive.
	Healthcheck(ctx context.Context) error

	// Close releases the underlying database connection.
	Close() error
}
