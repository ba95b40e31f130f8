package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/david-YJ-Kim/notesvc/internal/logger"
	"github.com/david-YJ-Kim/notesvc/internal/telemetry"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/content"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/model"
	"github.com/david-YJ-Kim/notesvc/pkg/textmerge"
)

// SaveRequest is one client save.
type SaveRequest struct {
	Title    string
	Content  string
	UserName string

	// LastHash is the commit hash the client observed when it began editing.
	// Empty means the client opts out of conflict detection and overwrites.
	LastHash string
}

// Save runs the optimistic-concurrency save pipeline: conflict check against
// the metadata row, optional three-way merge, commit to the content
// repository, conditional metadata update, asynchronous index update.
//
// A lost race surfaces as *model.ConflictError carrying the full server-side
// state. The content commit is never rolled back: if the metadata write loses
// a race after the commit, the repository leads the metadata store until the
// next save or reconcile.
func (s *Service) Save(ctx context.Context, req SaveRequest) (result *model.SaveResult, err error) {
	ctx, span := telemetry.StartNoteSpan(ctx, "save", req.Title,
		telemetry.NoteUser(req.UserName),
		telemetry.NoteSize(len(req.Content)))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	if err := model.ValidateTitle(req.Title); err != nil {
		return nil, err
	}
	if s.maxNoteSize > 0 && int64(len(req.Content)) > s.maxNoteSize {
		return nil, fmt.Errorf("%w: content exceeds the %d byte limit", model.ErrValidation, s.maxNoteSize)
	}

	fileName := model.FileName(req.Title)

	// Look up the existing row by exact title.
	row, err := s.meta.GetNote(ctx, req.Title)
	if err != nil && !errors.Is(err, model.ErrNoteNotFound) {
		return nil, fmt.Errorf("%w: reading metadata for %q: %v", model.ErrIO, req.Title, err)
	}

	text := req.Content

	// Conflict check: the client's token must match the row's current hash.
	if row != nil && req.LastHash != "" && row.LastCommitHash != req.LastHash {
		merged, ok := s.tryMerge(ctx, row, req)
		if !ok {
			return nil, s.conflict(ctx, req.Title, row)
		}
		text = merged
	}

	// Commit to the repository. Updates write to the row's registered path so
	// notes moved into folders keep their location; creates start flat.
	path := fileName
	if row != nil {
		path = row.FilePath
	}
	newHash, err := s.content.WriteAndCommit(ctx, path, text, req.UserName,
		"Save/Update note: "+req.Title)
	if err != nil {
		return nil, fmt.Errorf("%w: committing %q: %v", model.ErrIO, path, err)
	}

	action := model.ActionUpdated
	if row == nil {
		action = model.ActionCreated
		_, err = s.meta.CreateNote(ctx, &model.Note{
			Title:          req.Title,
			FilePath:       path,
			LastCommitHash: newHash,
			LastModifiedBy: req.UserName,
			UseStatus:      string(model.StatusUsable),
		})
		if errors.Is(err, model.ErrDuplicateNote) {
			// Two clients created the same title at once and this one lost.
			// The commit stands; reconcile will point the row at the latest
			// repository state.
			return nil, s.conflict(ctx, req.Title, nil)
		}
		if err != nil {
			s.logger.ErrorContext(ctx, "metadata insert failed after commit",
				logger.Title(req.Title),
				logger.CommitHash(newHash),
				logger.Err(err))
			return nil, fmt.Errorf("%w: registering %q: %v", model.ErrIO, req.Title, err)
		}
	} else {
		// Conditional update: only applies while the row still carries the
		// hash observed above. Losing this check means another writer got in
		// between the read and here.
		err = s.meta.UpdateCommit(ctx, row.ID, row.LastCommitHash, newHash, req.UserName)
		if errors.Is(err, model.ErrHashMismatch) {
			return nil, s.conflict(ctx, req.Title, nil)
		}
		if err != nil {
			s.logger.ErrorContext(ctx, "metadata update failed after commit",
				logger.Title(req.Title),
				logger.CommitHash(newHash),
				logger.Err(err))
			return nil, fmt.Errorf("%w: updating metadata for %q: %v", model.ErrIO, req.Title, err)
		}
	}

	// Index asynchronously. A full queue is only logged; the index catches up
	// on the next save of this title or at the next reconcile.
	if s.queue != nil {
		s.queue.EnqueueUpdate(req.Title, text)
	}

	if s.metrics != nil {
		s.metrics.RecordSave(action)
	}
	telemetry.SetAttributes(ctx,
		telemetry.NoteAction(string(action)),
		telemetry.NoteRev(newHash))
	s.logger.InfoContext(ctx, "note saved",
		logger.Title(req.Title),
		logger.CommitHash(newHash),
		logger.User(req.UserName),
		"action", action)

	return &model.SaveResult{
		Action:     action,
		CommitHash: newHash,
		FileName:   fileName,
		AuthorName: req.UserName,
	}, nil
}

// tryMerge attempts a three-way merge of a conflicting save: ancestor is the
// content at the client's base revision, ours is the client text, theirs is
// the server's current text. Returns the merged text and true only when the
// merge is clean.
func (s *Service) tryMerge(ctx context.Context, row *model.Note, req SaveRequest) (string, bool) {
	if !s.mergeOnConflict {
		return "", false
	}
	telemetry.SetAttributes(ctx,
		telemetry.MergeAttempted(true),
		telemetry.NoteBaseRev(req.LastHash))

	base, err := s.content.ReadAtCommit(ctx, req.LastHash, row.FilePath)
	if err != nil {
		// The client's token does not resolve to a revision of this file, so
		// there is no common ancestor to merge from.
		s.logger.DebugContext(ctx, "no merge base for conflicting save",
			logger.Title(req.Title),
			logger.CommitHash(req.LastHash),
			logger.Err(err))
		return "", false
	}

	server, err := s.content.ReadCurrent(ctx, row.FilePath)
	if err != nil {
		return "", false
	}

	merged, conflicted := textmerge.Merge(base, req.Content, server, req.UserName, row.LastModifiedBy)
	telemetry.SetAttributes(ctx, telemetry.MergeClean(!conflicted))
	if conflicted {
		return "", false
	}

	s.logger.InfoContext(ctx, "merged concurrent edits",
		logger.Title(req.Title),
		logger.User(req.UserName),
		"server_user", row.LastModifiedBy)
	return merged, true
}

// conflict builds the ConflictError for a title, reading the server's current
// content fresh from the repository. Passing a nil row re-reads the metadata
// first (used when the conditional update lost a race and the observed row is
// stale). The detail is always fully populated.
func (s *Service) conflict(ctx context.Context, title string, row *model.Note) error {
	if s.metrics != nil {
		s.metrics.RecordConflict()
	}

	if row == nil {
		fresh, err := s.meta.GetNote(ctx, title)
		if err != nil {
			return fmt.Errorf("%w: reading metadata for conflict detail on %q: %v", model.ErrIO, title, err)
		}
		row = fresh
	}

	text, err := s.content.ReadCurrent(ctx, row.FilePath)
	if err != nil && !errors.Is(err, content.ErrFileNotFound) {
		return fmt.Errorf("%w: reading %q for conflict detail: %v", model.ErrIO, row.FilePath, err)
	}

	return &model.ConflictError{Detail: model.ConflictDetail{
		ServerLastHash: row.LastCommitHash,
		ServerContent:  text,
		ModifiedBy:     row.LastModifiedBy,
		UpdatedAt:      row.UpdatedAt,
	}}
}
