package content

import "errors"

var (
	// ErrFileNotFound is returned when the requested file exists neither in
	// the worktree nor in the referenced commit.
	ErrFileNotFound = errors.New("file not found in note repository")

	// ErrCommitNotFound is returned when a commit hash does not resolve to a
	// commit in the repository. Stale concurrency tokens produce this.
	ErrCommitNotFound = errors.New("commit not found in note repository")
)
