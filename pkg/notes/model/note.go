package model

import (
	"fmt"
	"strings"
	"time"
)

// UseStatus represents the lifecycle state of a note's metadata row.
type UseStatus string

const (
	// StatusUsable marks a note that is backed by a file in the content repository.
	StatusUsable UseStatus = "USABLE"
	// StatusDisabled marks a note whose file disappeared from the content
	// repository. Disabled notes are excluded from listings and search and
	// can be re-enabled by the reconciler when the file reappears.
	StatusDisabled UseStatus = "DISABLED"
)

// IsValid checks if the status is a valid UseStatus.
func (s UseStatus) IsValid() bool {
	return s == StatusUsable || s == StatusDisabled
}

// SystemUser is recorded as last_modified_by when the reconciler registers a
// note it discovered on disk rather than through a save.
const SystemUser = "SYSTEM"

// NoteExtension is the file extension every note carries in the content
// repository.
const NoteExtension = ".md"

// Note is the metadata record for a single note.
//
// The note's content lives in the content repository under FilePath; this row
// holds the index-style facts about it. LastCommitHash is the optimistic
// concurrency token: a client must present the hash it last observed when
// saving, and a mismatch means somebody else saved in between.
type Note struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	Title          string    `gorm:"uniqueIndex;not null;size:255" json:"title"`
	FilePath       string    `gorm:"uniqueIndex;not null;size:500" json:"file_path"`
	LastCommitHash string    `gorm:"size:100" json:"last_commit_hash"`
	LastModifiedBy string    `gorm:"not null;size:255" json:"last_modified_by"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	UseStatus      string    `gorm:"default:USABLE;size:20" json:"use_status"`
}

// TableName returns the table name for Note.
func (Note) TableName() string {
	return "note_metadata"
}

// FileName derives the repository file name for a title.
func FileName(title string) string {
	return title + NoteExtension
}

// TitleFromPath derives the note title from a repository-relative path
// (the file stem, directories stripped).
func TitleFromPath(path string) string {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, NoteExtension)
}

// IsUsable reports whether the note is in the USABLE state.
func (n *Note) IsUsable() bool {
	return n.UseStatus == string(StatusUsable)
}

// Validate checks that the note row satisfies the metadata invariants.
func (n *Note) Validate() error {
	if err := ValidateTitle(n.Title); err != nil {
		return err
	}
	if n.FilePath == "" {
		return fmt.Errorf("%w: file_path is required", ErrValidation)
	}
	if n.UseStatus != "" && !UseStatus(n.UseStatus).IsValid() {
		return fmt.Errorf("%w: invalid use_status %q", ErrValidation, n.UseStatus)
	}
	return nil
}

// ValidateTitle rejects titles that are empty or would escape the repository
// directory once ".md" is appended.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.ContainsAny(title, `/\`) {
		return fmt.Errorf("%w: title must not contain path separators", ErrValidation)
	}
	if title == "." || title == ".." || strings.HasPrefix(title, "..") {
		return fmt.Errorf("%w: title must not be a relative path element", ErrValidation)
	}
	return nil
}
