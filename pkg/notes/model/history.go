package model

import "time"

// InitialCommitDiff is the diff payload reported for a parentless commit,
// which has nothing to diff against.
const InitialCommitDiff = "Initial Commit (New File)"

// Commit is one entry of a note's revision history, derived from the content
// repository.
type Commit struct {
	Hash    string `json:"hash"`
	Author  string `json:"author"`
	Date    string `json:"date"`
	Message string `json:"message"`
	Diff    string `json:"diff,omitempty"`
}

// History pairs the current metadata row with the full commit log of the
// note's file.
type History struct {
	Metadata   *Note    `json:"metadata"`
	GitHistory []Commit `json:"git_history"`
}

// ConflictDetail captures the server-side state handed to a client whose save
// lost the optimistic concurrency race. It is always fully populated.
type ConflictDetail struct {
	ServerLastHash string    `json:"server_last_hash"`
	ServerContent  string    `json:"server_content"`
	ModifiedBy     string    `json:"modified_by"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SaveResult reports the outcome of a successful save.
type SaveResult struct {
	Action     string `json:"action"`
	CommitHash string `json:"commit_hash"`
	FileName   string `json:"file_name"`
	AuthorName string `json:"author_name"`
}

const (
	// ActionCreated means the save inserted a brand new note.
	ActionCreated = "created"
	// ActionUpdated means the save revised an existing note.
	ActionUpdated = "updated"
)
