package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/david-YJ-Kim/notesvc/internal/logger"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/model"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/service"
)

// NoteService is the coordinator surface the note handlers drive.
type NoteService interface {
	Save(ctx context.Context, req service.SaveRequest) (*model.SaveResult, error)
	List(ctx context.Context, keyword string, page, size int) ([]*model.Note, int64, error)
	History(ctx context.Context, title string) (*model.History, error)
	Tree(ctx context.Context) ([]model.TreeNode, error)
}

// NoteHandler handles the note endpoints.
type NoteHandler struct {
	service NoteService
}

// NewNoteHandler creates a new note handler.
func NewNoteHandler(service NoteService) *NoteHandler {
	return &NoteHandler{service: service}
}

// saveRequest is the body of POST /notes/save.
type saveRequest struct {
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content"`
	UserName string `json:"user_name" validate:"required"`
	LastHash string `json:"last_hash"`
}

// saveResponse spreads the save result under a top-level status field.
type saveResponse struct {
	Status string `json:"status"`
	*model.SaveResult
}

// listMetadata carries the pagination block of the listing response.
type listMetadata struct {
	TotalCount  int64   `json:"total_count"`
	TotalPages  int     `json:"total_pages"`
	CurrentPage int     `json:"current_page"`
	Size        int     `json:"size"`
	NextLink    *string `json:"next_link"`
	PrevLink    *string `json:"prev_link"`
}

// listResponse is the body of GET /notes.
type listResponse struct {
	Status   string        `json:"status"`
	Metadata listMetadata  `json:"metadata"`
	Items    []*model.Note `json:"items"`
}

// treeResponse is the body of GET /notes/folder-tree.
type treeResponse struct {
	Success bool             `json:"success"`
	Data    []model.TreeNode `json:"data"`
	Message string           `json:"message"`
}

const (
	treeFetchedMessage = "폴더 트리 조회 성공"
	treeFailedMessage  = "폴더 트리 조회 실패"
)

// List handles GET /notes - paginated note listing.
//
// Query parameters:
//   - keyword: optional hybrid search term (title substring or body token)
//   - page: 1-based page number, default 1
//   - size: page size, default 20
//
// The metadata block carries relative next/prev links; next_link is null on
// the last page, prev_link on the first.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")

	page, ok := queryInt(w, r, "page", 1)
	if !ok {
		return
	}
	size, ok := queryInt(w, r, "size", 20)
	if !ok {
		return
	}

	items, total, err := h.service.List(r.Context(), keyword, page, size)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	if items == nil {
		items = []*model.Note{}
	}

	totalPages := int((total + int64(size) - 1) / int64(size))

	meta := listMetadata{
		TotalCount:  total,
		TotalPages:  totalPages,
		CurrentPage: page,
		Size:        size,
	}
	if page < totalPages {
		meta.NextLink = pageLink(page+1, size, keyword)
	}
	if page > 1 {
		meta.PrevLink = pageLink(page-1, size, keyword)
	}

	writeJSON(w, http.StatusOK, listResponse{
		Status:   "success",
		Metadata: meta,
		Items:    items,
	})
}

// Save handles POST /notes/save - create or update a note.
//
// The optional last_hash field is the commit hash the client observed when it
// began editing; a mismatch with the server's current hash yields 409 with
// the full conflict detail. Omitting last_hash overwrites unconditionally.
func (h *NoteHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	result, err := h.service.Save(r.Context(), service.SaveRequest{
		Title:    req.Title,
		Content:  req.Content,
		UserName: req.UserName,
		LastHash: req.LastHash,
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, saveResponse{
		Status:     "success",
		SaveResult: result,
	})
}

// History handles GET /notes/{title}/history - metadata plus the full commit
// log of the note's file, newest first, with per-commit diffs.
func (h *NoteHandler) History(w http.ResponseWriter, r *http.Request) {
	title := chi.URLParam(r, "title")
	// Titles with spaces or Hangul arrive percent-encoded
	if decoded, err := url.PathUnescape(title); err == nil {
		title = decoded
	}

	detail, err := h.service.History(r.Context(), title)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// Tree handles GET /notes/folder-tree - the hierarchical folder view over
// the content repository's working directory.
//
// Failures keep the same envelope with success=false so tree consumers only
// ever parse one shape.
func (h *NoteHandler) Tree(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.service.Tree(r.Context())
	if err != nil {
		logger.ErrorCtx(r.Context(), "Folder tree build failed", logger.Err(err))
		writeJSON(w, http.StatusInternalServerError, treeResponse{
			Success: false,
			Data:    []model.TreeNode{},
			Message: treeFailedMessage,
		})
		return
	}
	if nodes == nil {
		nodes = []model.TreeNode{}
	}

	writeJSON(w, http.StatusOK, treeResponse{
		Success: true,
		Data:    nodes,
		Message: treeFetchedMessage,
	})
}

// pageLink renders a relative pagination link for the notes listing.
func pageLink(page, size int, keyword string) *string {
	link := fmt.Sprintf("/notes?page=%d&size=%d", page, size)
	if keyword != "" {
		link += "&keyword=" + url.QueryEscape(keyword)
	}
	return &link
}
