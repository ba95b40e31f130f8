package service

import (
	"context"
	"fmt"
	"time"

	"github.com/david-YJ-Kim/notesvc/internal/logger"
	"github.com/david-YJ-Kim/notesvc/internal/telemetry"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/index"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/model"
)

// ReconcileStats summarizes what one reconcile run changed.
type ReconcileStats struct {
	Files      int `json:"files"`
	Inserted   int `json:"inserted"`
	Updated    int `json:"updated"`
	Disabled   int `json:"disabled"`
	Duplicates int `json:"duplicates"`
	Indexed    int `json:"indexed"`
}

// Reconcile converges the metadata store and the search index onto the
// repository. It runs at startup and on demand: out-of-band edits (files
// added, moved or deleted directly on disk), crashes between a commit and its
// metadata write, and lost index updates are all repaired here.
//
// The repository is ground truth. Rows gain the hash of the last commit that
// touched their file, rows whose title reappeared under a new path follow the
// file, rows whose file vanished are soft-disabled, and unknown files are
// registered under the SYSTEM user. The index is rebuilt from scratch. All
// metadata changes commit in one transaction, so a second run over an
// unchanged repository is a no-op.
func (s *Service) Reconcile(ctx context.Context) (stats *ReconcileStats, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanNoteReconcile)
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	start := time.Now()
	stats = &ReconcileStats{}

	files, err := s.content.ListNoteFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: enumerating note files: %v", model.ErrIO, err)
	}
	stats.Files = len(files)

	// Two files can share a title from different directories. The
	// lexicographically smallest path wins; the others stay on disk but are
	// not registered. ListNoteFiles returns sorted paths, so first seen wins.
	type repoFile struct {
		path  string
		title string
		hash  string
	}
	var keep []repoFile
	seenTitle := make(map[string]string, len(files))
	for _, path := range files {
		title := model.TitleFromPath(path)
		if kept, dup := seenTitle[title]; dup {
			s.logger.WarnContext(ctx, "duplicate title in repository, skipping",
				logger.Title(title),
				logger.FilePath(path),
				"registered_path", kept)
			stats.Duplicates++
			continue
		}
		seenTitle[title] = path

		hash, err := s.content.LastCommitHash(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("%w: resolving last commit of %q: %v", model.ErrIO, path, err)
		}
		keep = append(keep, repoFile{path: path, title: title, hash: hash})
	}

	// Load every row, disabled ones included: a disabled row whose file
	// reappeared must be re-enabled in place, not duplicated.
	rows, err := s.meta.AllNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: loading metadata rows: %v", model.ErrIO, err)
	}

	byPath := make(map[string]*model.Note, len(rows))
	byTitle := make(map[string]*model.Note, len(rows))
	for _, row := range rows {
		byPath[row.FilePath] = row
		byTitle[row.Title] = row
	}

	var inserts, updates []*model.Note
	claimed := make(map[string]struct{}, len(rows))

	for _, f := range keep {
		if row, ok := byPath[f.path]; ok {
			claimed[row.ID] = struct{}{}

			changed := false
			if row.LastCommitHash != f.hash {
				row.LastCommitHash = f.hash
				changed = true
			}
			if !row.IsUsable() {
				row.UseStatus = string(model.StatusUsable)
				changed = true
			}
			if changed {
				updates = append(updates, row)
				stats.Updated++
			}
			continue
		}

		if row, ok := byTitle[f.title]; ok {
			if _, taken := claimed[row.ID]; taken {
				// The row already belongs to another file this run; treat
				// this one like a duplicate.
				s.logger.WarnContext(ctx, "title already claimed this run, skipping",
					logger.Title(f.title),
					logger.FilePath(f.path))
				stats.Duplicates++
				continue
			}
			claimed[row.ID] = struct{}{}

			// Same title, new path: the file moved. The row follows it.
			s.logger.InfoContext(ctx, "note file moved, updating path",
				logger.Title(f.title),
				"old_path", row.FilePath,
				"new_path", f.path)
			row.FilePath = f.path
			row.LastCommitHash = f.hash
			row.UseStatus = string(model.StatusUsable)
			updates = append(updates, row)
			stats.Updated++
			continue
		}

		inserts = append(inserts, &model.Note{
			Title:          f.title,
			FilePath:       f.path,
			LastCommitHash: f.hash,
			LastModifiedBy: model.SystemUser,
			UseStatus:      string(model.StatusUsable),
		})
		stats.Inserted++
	}

	// Rows no file claimed lost their backing content; soft-disable them so
	// they drop out of listings and search but keep their identity for a
	// possible return.
	for _, row := range rows {
		if _, ok := claimed[row.ID]; ok {
			continue
		}
		if !row.IsUsable() {
			continue
		}
		s.logger.InfoContext(ctx, "note file gone, disabling",
			logger.Title(row.Title),
			logger.FilePath(row.FilePath))
		row.UseStatus = string(model.StatusDisabled)
		updates = append(updates, row)
		stats.Disabled++
	}

	// Rebuild the index from the repository. Dropping it wholesale also
	// clears entries for disabled titles. Unreadable files are logged and
	// skipped, matching the per-document behavior inside the rebuild.
	docs := make([]index.Document, 0, len(keep))
	for _, f := range keep {
		text, err := s.content.ReadCurrent(ctx, f.path)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to read note for indexing",
				logger.FilePath(f.path),
				logger.Err(err))
			continue
		}
		docs = append(docs, index.Document{Title: f.title, Content: text})
	}
	if err := s.search.Rebuild(ctx, docs); err != nil {
		return nil, fmt.Errorf("%w: rebuilding search index: %v", model.ErrIO, err)
	}
	stats.Indexed = len(docs)

	if err := s.meta.ApplyReconciliation(ctx, inserts, updates); err != nil {
		return nil, fmt.Errorf("%w: committing metadata changes: %v", model.ErrIO, err)
	}

	telemetry.SetAttributes(ctx,
		telemetry.ReconcileScanned(stats.Files),
		telemetry.ReconcileCreated(stats.Inserted),
		telemetry.ReconcileUpdated(stats.Updated),
		telemetry.ReconcileDisabled(stats.Disabled))
	s.logger.InfoContext(ctx, "reconcile finished",
		"files", stats.Files,
		"inserted", stats.Inserted,
		"updated", stats.Updated,
		"disabled", stats.Disabled,
		"duplicates", stats.Duplicates,
		"indexed", stats.Indexed,
		logger.DurationMs(start))

	return stats, nil
}
