// Package content manages the git repository that holds every note file.
//
// The repository is the source of truth for note bodies. Each save writes the
// file into the worktree and records a commit, so the full revision history of
// a note is the git log of its file. Metadata (titles, status, the optimistic
// concurrency token) lives in the metadata store and references commits made
// here by hash.
//
// All worktree mutations are serialized through an internal lock; reads of
// committed objects are safe concurrently.
package content

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/david-YJ-Kim/notesvc/internal/logger"
)

// Store is a git-backed content store rooted at a single repository.
type Store struct {
	repo *git.Repository
	root string

	// mu serializes worktree writes. go-git worktrees are not safe for
	// concurrent mutation.
	mu sync.RWMutex
}

// Open opens the note repository at root, initializing a fresh repository if
// none exists yet.
func Open(root string) (*Store, error) {
	repo, err := git.PlainOpen(root)
	if err != nil {
		if !errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("opening note repository at %s: %w", root, err)
		}
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, fmt.Errorf("creating note repository directory: %w", err)
		}
		repo, err = git.PlainInit(root, false)
		if err != nil {
			return nil, fmt.Errorf("initializing note repository at %s: %w", root, err)
		}
		logger.Info("Initialized note repository", "path", root)
	}

	return &Store{repo: repo, root: root}, nil
}

// Root returns the absolute path of the repository worktree.
func (s *Store) Root() string {
	return s.root
}

// signature builds the commit identity recorded for a user. The email is
// synthesized from the user name.
func signature(user string) *object.Signature {
	return &object.Signature{
		Name:  user,
		Email: user + "@company.com",
		When:  time.Now(),
	}
}
