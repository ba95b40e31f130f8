package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/david-YJ-Kim/notesvc/internal/telemetry"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/model"
)

// List returns one page of notes plus the total match count. With an empty
// keyword it pages through every usable note, newest first. With a keyword it
// runs the hybrid search: rows whose title contains the keyword, unioned with
// rows whose body matched in the search index, so a body-only match still
// surfaces even when the title gives no hint.
func (s *Service) List(ctx context.Context, keyword string, page, size int) (notes []*model.Note, total int64, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanNoteSearch)
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()
	telemetry.SetAttributes(ctx, telemetry.Page(page), telemetry.PageSize(size))

	if page < 1 {
		return nil, 0, fmt.Errorf("%w: page must be >= 1", model.ErrValidation)
	}
	if size < 1 {
		return nil, 0, fmt.Errorf("%w: size must be >= 1", model.ErrValidation)
	}

	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		notes, total, err = s.meta.ListNotes(ctx, page, size)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: listing notes: %v", model.ErrIO, err)
		}
		return notes, total, nil
	}
	telemetry.SetAttributes(ctx, telemetry.SearchKeyword(keyword))

	titles, err := s.search.Search(keyword, s.searchLimit)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: searching index for %q: %v", model.ErrIO, keyword, err)
	}
	telemetry.SetAttributes(ctx, telemetry.SearchHits(len(titles)))

	notes, total, err = s.meta.SearchNotes(ctx, keyword, titles, page, size)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: searching notes for %q: %v", model.ErrIO, keyword, err)
	}
	return notes, total, nil
}
