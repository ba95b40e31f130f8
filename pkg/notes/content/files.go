package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/david-YJ-Kim/notesvc/internal/logger"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/model"
)

// WriteAndCommit writes content to the given repository-relative path, stages
// it and commits it authored by user. Saving identical content still produces
// a new commit so the returned hash always identifies this save.
func (s *Store) WriteAndCommit(ctx context.Context, path, content, user, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wt, err := s.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("opening worktree: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "/" {
		if err := wt.Filesystem.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	f, err := wt.Filesystem.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return "", fmt.Errorf("opening %s for writing: %w", path, err)
	}
	if _, err := f.Write([]byte(content)); err != nil {
		f.Close()
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}

	if _, err := wt.Add(path); err != nil {
		return "", fmt.Errorf("staging %s: %w", path, err)
	}

	hash, err := wt.Commit(message, &git.CommitOptions{
		Author:            signature(user),
		AllowEmptyCommits: true,
	})
	if err != nil {
		return "", fmt.Errorf("committing %s: %w", path, err)
	}

	logger.DebugCtx(ctx, "Committed note file",
		logger.FilePath(path),
		logger.CommitHash(hash.String()),
		logger.User(user))

	return hash.String(), nil
}

// ReadCurrent returns the current worktree content of the file at path.
func (s *Store) ReadCurrent(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	wt, err := s.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("opening worktree: %w", err)
	}

	f, err := wt.Filesystem.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrFileNotFound
		}
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// ReadAtCommit returns the content of the file at path as recorded by the
// given commit.
func (s *Store) ReadAtCommit(ctx context.Context, hash, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c, err := s.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return "", ErrCommitNotFound
		}
		return "", fmt.Errorf("resolving commit %s: %w", hash, err)
	}

	f, err := c.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return "", ErrFileNotFound
		}
		return "", fmt.Errorf("reading %s at %s: %w", path, hash, err)
	}
	return f.Contents()
}

// ListNoteFiles walks the worktree and returns the repository-relative paths
// of every note file, sorted lexicographically. Hidden directories (the .git
// directory included) and hidden files are skipped.
func (s *Store) ListNoteFiles(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	wt, err := s.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("opening worktree: %w", err)
	}

	var files []string
	err = util.Walk(wt.Filesystem, "/", func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if fi.IsDir() {
			if path != "/" && strings.HasPrefix(fi.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(fi.Name(), ".") || !strings.HasSuffix(fi.Name(), model.NoteExtension) {
			return nil
		}
		files = append(files, strings.TrimPrefix(path, "/"))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking worktree: %w", err)
	}

	sort.Strings(files)
	return files, nil
}
