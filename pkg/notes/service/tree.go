package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/david-YJ-Kim/notesvc/internal/telemetry"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/model"
)

// Tree returns the folder view of the repository's working directory: one
// node per directory and per note file, folders sorted before notes and each
// kind alphabetical. Hidden directories and __pycache__ are elided. The
// repository's own .git directory falls under the hidden rule.
func (s *Service) Tree(ctx context.Context) (nodes []model.TreeNode, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanNoteTree)
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	nodes, err = s.walkTree(ctx, s.content.Root(), "", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building folder tree: %v", model.ErrIO, err)
	}
	return nodes, nil
}

// walkTree builds the child nodes of one directory. relDir is the
// POSIX-separated path of the directory relative to the repository root,
// empty for the root itself.
func (s *Service) walkTree(ctx context.Context, absDir, relDir string, parentID *string) ([]model.TreeNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, err
	}

	var folders, notes []os.DirEntry
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			if strings.HasPrefix(name, ".") || name == "__pycache__" {
				continue
			}
			folders = append(folders, entry)
			continue
		}
		if strings.HasSuffix(name, model.NoteExtension) {
			notes = append(notes, entry)
		}
	}

	sort.Slice(folders, func(i, j int) bool { return folders[i].Name() < folders[j].Name() })
	sort.Slice(notes, func(i, j int) bool { return notes[i].Name() < notes[j].Name() })

	nodes := make([]model.TreeNode, 0, len(folders)+len(notes))

	for _, entry := range folders {
		relPath := joinRel(relDir, entry.Name())
		id := nodeID(relPath)

		children, err := s.walkTree(ctx, filepath.Join(absDir, entry.Name()), relPath, &id)
		if err != nil {
			return nil, err
		}

		nodes = append(nodes, model.TreeNode{
			ID:       id,
			Name:     entry.Name(),
			Type:     model.NodeFolder,
			ParentID: parentID,
			Path:     relPath,
			Order:    len(nodes),
			Children: children,
		})
	}

	for _, entry := range notes {
		relPath := joinRel(relDir, entry.Name())

		nodes = append(nodes, model.TreeNode{
			ID:       nodeID(relPath),
			Name:     strings.TrimSuffix(entry.Name(), model.NoteExtension),
			Type:     model.NodeNote,
			ParentID: parentID,
			Path:     relPath,
			Order:    len(nodes),
		})
	}

	return nodes, nil
}

func joinRel(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

// nodeID derives the stable tree node identifier from a relative path:
// lowercased, whitespace replaced by hyphens.
func nodeID(relPath string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '-'
		}
		return unicode.ToLower(r)
	}, relPath)
}
