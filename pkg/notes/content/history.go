package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/david-YJ-Kim/notesvc/pkg/notes/model"
)

const commitDateLayout = "2006-01-02 15:04:05"

// FileHistory returns the commits that touched the file at path, newest
// first. Diffs are not populated; use DiffText per commit. A repository with
// no commits yields an empty history.
func (s *Store) FileHistory(ctx context.Context, path string) ([]model.Commit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	iter, err := s.repo.Log(&git.LogOptions{FileName: &path})
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading log for %s: %w", path, err)
	}
	defer iter.Close()

	var commits []model.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		commits = append(commits, model.Commit{
			Hash:    c.Hash.String(),
			Author:  c.Author.Name,
			Date:    c.Committer.When.Format(commitDateLayout),
			Message: strings.TrimSpace(c.Message),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterating log for %s: %w", path, err)
	}
	return commits, nil
}

// LastCommitHash returns the hash of the most recent commit that touched the
// file at path, or an empty string when no commit did.
func (s *Store) LastCommitHash(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	iter, err := s.repo.Log(&git.LogOptions{FileName: &path})
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading log for %s: %w", path, err)
	}
	defer iter.Close()

	c, err := iter.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		return "", fmt.Errorf("reading log for %s: %w", path, err)
	}
	return c.Hash.String(), nil
}

// DiffText renders the unified diff the given commit introduced for the file
// at path. The commit that created the file reports a fixed placeholder
// instead of a diff, and failures are folded into the returned text so one
// broken commit cannot sink a whole history listing.
func (s *Store) DiffText(ctx context.Context, hash, path string) string {
	c, err := s.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return diffFailure(err)
	}
	if c.NumParents() == 0 {
		return model.InitialCommitDiff
	}

	parent, err := c.Parent(0)
	if err != nil {
		return diffFailure(err)
	}
	parentTree, err := parent.Tree()
	if err != nil {
		return diffFailure(err)
	}
	commitTree, err := c.Tree()
	if err != nil {
		return diffFailure(err)
	}

	changes, err := object.DiffTreeContext(ctx, parentTree, commitTree)
	if err != nil {
		return diffFailure(err)
	}

	var relevant object.Changes
	for _, ch := range changes {
		if ch.From.Name == path || ch.To.Name == path {
			relevant = append(relevant, ch)
		}
	}
	if len(relevant) == 0 {
		return ""
	}

	patch, err := relevant.PatchContext(ctx)
	if err != nil {
		return diffFailure(err)
	}
	return patch.String()
}

func diffFailure(err error) string {
	return "Diff extraction failed: " + err.Error()
}
