package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/david-YJ-Kim/notesvc/internal/telemetry"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/model"
)

// diffWorkers bounds the concurrent diff extractions per history request.
const diffWorkers = 8

// History returns the metadata row and the full commit log of a note, newest
// first, with each commit's diff against its parent. Diffs are extracted
// concurrently; the order of the log is preserved. A commit whose diff cannot
// be extracted reports the failure inside its diff payload instead of failing
// the whole history.
func (s *Service) History(ctx context.Context, title string) (history *model.History, err error) {
	ctx, span := telemetry.StartNoteSpan(ctx, "history", title)
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	row, err := s.meta.GetNote(ctx, title)
	if err != nil {
		if errors.Is(err, model.ErrNoteNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: reading metadata for %q: %v", model.ErrIO, title, err)
	}

	commits, err := s.content.FileHistory(ctx, row.FilePath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading history of %q: %v", model.ErrIO, row.FilePath, err)
	}
	telemetry.SetAttributes(ctx, telemetry.HistoryCount(len(commits)))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(diffWorkers)

	for i := range commits {
		g.Go(func() error {
			commits[i].Diff = s.content.DiffText(gCtx, commits[i].Hash, row.FilePath)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: extracting diffs for %q: %v", model.ErrIO, title, err)
	}

	return &model.History{
		Metadata:   row,
		GitHistory: commits,
	}, nil
}
