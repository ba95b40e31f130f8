package model

import "errors"

// Common errors for note metadata and coordination operations.
var (
	// ErrNoteNotFound is returned when no metadata row exists for a title.
	ErrNoteNotFound = errors.New("note not found")
	// ErrDuplicateNote is returned when an insert collides with an existing
	// title or file path.
	ErrDuplicateNote = errors.New("note already exists")
	// ErrValidation wraps client-input problems (empty title, unsafe path
	// characters, bad pagination values).
	ErrValidation = errors.New("validation failed")
	// ErrHashMismatch is returned by the conditional metadata update when the
	// row's commit hash moved between the conflict check and the write.
	ErrHashMismatch = errors.New("commit hash changed concurrently")
	// ErrIO wraps content repository, metadata store and search index failures
	// at the coordinator boundary.
	ErrIO = errors.New("storage operation failed")
)

// ConflictError signals an optimistic-concurrency failure on save. It carries
// the full server-side state the client needs to resolve the conflict.
type ConflictError struct {
	Detail ConflictDetail
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return "note conflict: server is at " + e.Detail.ServerLastHash
}

// AsConflict unwraps err into a ConflictError if it is one.
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
