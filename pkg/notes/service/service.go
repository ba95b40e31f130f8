// Package service implements the note coordinator: the orchestration layer
// between the git-backed content repository, the metadata store and the
// full-text search index.
//
// The three stores are deliberately not transactional with each other. The
// save pipeline orders its writes so that the content repository always leads
// (a commit exists before metadata references it), metadata follows, and the
// search index trails asynchronously. Reconcile converges the metadata store
// and the index back onto the repository after crashes or out-of-band edits.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/david-YJ-Kim/notesvc/internal/logger"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/index"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/model"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/store"
)

// ContentStore is the slice of the content repository the coordinator
// consumes. *content.Store satisfies it.
type ContentStore interface {
	WriteAndCommit(ctx context.Context, path, content, user, message string) (string, error)
	ReadCurrent(ctx context.Context, path string) (string, error)
	ReadAtCommit(ctx context.Context, hash, path string) (string, error)
	ListNoteFiles(ctx context.Context) ([]string, error)
	FileHistory(ctx context.Context, path string) ([]model.Commit, error)
	LastCommitHash(ctx context.Context, path string) (string, error)
	DiffText(ctx context.Context, hash, path string) string
	Root() string
}

// SearchIndex is the synchronous surface of the full-text index. *index.Index
// satisfies it.
type SearchIndex interface {
	Search(keyword string, limit int) ([]string, error)
	Rebuild(ctx context.Context, docs []index.Document) error
}

// IndexQueue accepts asynchronous index writes. *index.Indexer satisfies it.
// Enqueue methods must never block; a false return means the write was
// dropped and will be repaired by the next save or reconcile.
type IndexQueue interface {
	EnqueueUpdate(title, content string) bool
	EnqueueDelete(title string) bool
}

// SaveMetrics records save pipeline outcomes. May be nil.
type SaveMetrics interface {
	RecordSave(action string)
	RecordConflict()
}

// Options configures a Service.
type Options struct {
	Content  ContentStore
	Metadata store.Store
	Search   SearchIndex
	Queue    IndexQueue

	// MergeOnConflict makes the save pipeline attempt a three-way text merge
	// before surfacing a conflict: when the client's base revision is known
	// and both edits touch disjoint regions, the save goes through with the
	// merged text instead of failing.
	MergeOnConflict bool

	// SearchLimit caps how many titles the search index contributes to one
	// hybrid search. Default: 100.
	SearchLimit int

	// MaxNoteSize caps the byte size of a note's content on save. Zero means
	// no cap.
	MaxNoteSize int64

	// Metrics is optional.
	Metrics SaveMetrics
}

// Service coordinates saves, listings, search, history and the folder tree
// across the three stores. Methods are safe for concurrent use; per-title
// write races are resolved optimistically via the commit hash token, not by
// locking.
type Service struct {
	content ContentStore
	meta    store.Store
	search  SearchIndex
	queue   IndexQueue
	metrics SaveMetrics

	mergeOnConflict bool
	searchLimit     int
	maxNoteSize     int64

	logger *slog.Logger
}

// New creates a Service. Content, Metadata and Search are required; Queue may
// be nil when asynchronous indexing is disabled (saves then skip indexing and
// rely on reconcile).
func New(opts Options) (*Service, error) {
	if opts.Content == nil {
		return nil, fmt.Errorf("content store is required")
	}
	if opts.Metadata == nil {
		return nil, fmt.Errorf("metadata store is required")
	}
	if opts.Search == nil {
		return nil, fmt.Errorf("search index is required")
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = 100
	}

	return &Service{
		content:         opts.Content,
		meta:            opts.Metadata,
		search:          opts.Search,
		queue:           opts.Queue,
		metrics:         opts.Metrics,
		mergeOnConflict: opts.MergeOnConflict,
		searchLimit:     opts.SearchLimit,
		maxNoteSize:     opts.MaxNoteSize,
		logger:          logger.With("component", "note_service"),
	}, nil
}
