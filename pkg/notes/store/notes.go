package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/david-YJ-Kim/notesvc/pkg/notes/model"
)

// ============================================
// NOTE OPERATIONS
// ============================================

func (s *GORMStore) GetNote(ctx context.Context, title string) (*model.Note, error) {
	return getByField[model.Note](s.db, ctx, "title", title, model.ErrNoteNotFound)
}

func (s *GORMStore) ListNotes(ctx context.Context, page, size int) ([]*model.Note, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}

	var total int64
	if err := s.db.WithContext(ctx).
		Model(&model.Note{}).
		Where("use_status = ?", string(model.StatusUsable)).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notes []*model.Note
	if err := s.db.WithContext(ctx).
		Where("use_status = ?", string(model.StatusUsable)).
		Order("updated_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&notes).Error; err != nil {
		return nil, 0, err
	}

	return notes, total, nil
}

func (s *GORMStore) SearchNotes(ctx context.Context, keyword string, titles []string, page, size int) ([]*model.Note, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}

	// Condition groups accumulate state, so each query gets a fresh build.
	query := func() *gorm.DB {
		match := s.db.Where(`title LIKE ? ESCAPE '\'`, "%"+EscapeLike(keyword)+"%")
		if len(titles) > 0 {
			match = match.Or("title IN ?", titles)
		}
		return s.db.WithContext(ctx).
			Model(&model.Note{}).
			Where("use_status = ?", string(model.StatusUsable)).
			Where(match)
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notes []*model.Note
	if err := query().
		Order("updated_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&notes).Error; err != nil {
		return nil, 0, err
	}
	return notes, total, nil
}

func (s *GORMStore) AllNotes(ctx context.Context) ([]*model.Note, error) {
	var notes []*model.Note
	if err := s.db.WithContext(ctx).
		Order("file_path ASC").
		Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (s *GORMStore) CreateNote(ctx context.Context, note *model.Note) (string, error) {
	if note.UseStatus == "" {
		note.UseStatus = string(model.StatusUsable)
	}
	return createWithID(s.db, ctx, note, func(n *model.Note, id string) { n.ID = id }, note.ID, model.ErrDuplicateNote)
}

// UpdateCommit is the optimistic half of the save pipeline: the WHERE clause
// pins the hash the caller observed, so a concurrent save that already moved
// the pointer makes this a no-op instead of a lost update.
func (s *GORMStore) UpdateCommit(ctx context.Context, id, expectedHash, newHash, modifiedBy string) error {
	result := s.db.WithContext(ctx).
		Model(&model.Note{}).
		Where("id = ? AND last_commit_hash = ?", id, expectedHash).
		Updates(map[string]any{
			"last_commit_hash": newHash,
			"last_modified_by": modifiedBy,
			"updated_at":       time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Zero rows means either the hash moved under us or the row is gone.
		var count int64
		if err := s.db.WithContext(ctx).
			Model(&model.Note{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return model.ErrNoteNotFound
		}
		return model.ErrHashMismatch
	}
	return nil
}

func (s *GORMStore) ApplyReconciliation(ctx context.Context, inserts, updates []*model.Note) error {
	if len(inserts) == 0 && len(updates) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, note := range inserts {
			if note.ID == "" {
				note.ID = uuid.New().String()
			}
			if note.UseStatus == "" {
				note.UseStatus = string(model.StatusUsable)
			}
			if err := tx.Create(note).Error; err != nil {
				if isUniqueConstraintError(err) {
					return model.ErrDuplicateNote
				}
				return err
			}
		}

		for _, note := range updates {
			if err := tx.Save(note).Error; err != nil {
				if isUniqueConstraintError(err) {
					return model.ErrDuplicateNote
				}
				return err
			}
		}

		return nil
	})
}
