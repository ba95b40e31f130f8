package model

// NodeType distinguishes the two kinds of folder-tree entries.
type NodeType string

const (
	// NodeFolder is a directory in the content repository.
	NodeFolder NodeType = "FOLDER"
	// NodeNote is a single note file.
	NodeNote NodeType = "NOTE"
)

// TreeNode is one entry of the hierarchical folder view over the content
// repository's working directory.
//
// IDs are derived from the relative path: lowercased, whitespace replaced by
// hyphens, POSIX separators. Children is nil for notes and non-nil (possibly
// empty) for folders. Order is the node's position among its siblings after
// sorting folders first, then notes, each alphabetically.
type TreeNode struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Type     NodeType   `json:"type"`
	ParentID *string    `json:"parent_id"`
	Path     string     `json:"path"`
	Order    int        `json:"order"`
	Children []TreeNode `json:"children"`
}
