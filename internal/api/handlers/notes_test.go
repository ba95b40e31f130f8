//go:build integration

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/david-YJ-Kim/notesvc/pkg/notes/content"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/index"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/model"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/service"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/store"
)

func setupNoteTest(t *testing.T) (*NoteHandler, *service.Service, *content.Store) {
	t.Helper()

	root := t.TempDir()

	repo, err := content.Open(filepath.Join(root, "note"))
	if err != nil {
		t.Fatalf("Failed to open content store: %v", err)
	}

	meta, err := store.New(&store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: ":memory:"},
	})
	if err != nil {
		t.Fatalf("Failed to create metadata store: %v", err)
	}
	t.Cleanup(func() { _ = meta.Close() })

	ix, err := index.Open(filepath.Join(root, "index"), index.NewAnalyzer(index.DefaultSynonyms()))
	if err != nil {
		t.Fatalf("Failed to open search index: %v", err)
	}
	t.Cleanup(func() { _ = ix.Close() })

	svc, err := service.New(service.Options{
		Content:  repo,
		Metadata: meta,
		Search:   ix,
	})
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}

	return NewNoteHandler(svc), svc, repo
}

func saveNote(t *testing.T, svc *service.Service, title, text, user, lastHash string) *model.SaveResult {
	t.Helper()

	result, err := svc.Save(context.Background(), service.SaveRequest{
		Title:    title,
		Content:  text,
		UserName: user,
		LastHash: lastHash,
	})
	if err != nil {
		t.Fatalf("Failed to save note %q: %v", title, err)
	}
	return result
}

func postSave(t *testing.T, handler *NoteHandler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/notes/save", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.Save(w, req)
	return w
}

func TestNoteHandler_Save(t *testing.T) {
	handler, _, _ := setupNoteTest(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantDetail string
	}{
		{
			name:       "valid create",
			body:       `{"title":"Meeting","content":"hello","user_name":"alice"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "empty content allowed",
			body:       `{"title":"Blank","content":"","user_name":"alice"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing title",
			body:       `{"content":"x","user_name":"alice"}`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "title is required",
		},
		{
			name:       "missing user name",
			body:       `{"title":"NoUser","content":"x"}`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "user_name is required",
		},
		{
			name:       "title with path separator",
			body:       `{"title":"a/b","content":"x","user_name":"alice"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid json",
			body:       `{"title":`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "Invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postSave(t, handler, tt.body)

			if w.Code != tt.wantStatus {
				t.Errorf("Save() status = %d, want %d, body = %s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantDetail != "" {
				var resp errorBody
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("Failed to unmarshal error body: %v", err)
				}
				if resp.Detail != tt.wantDetail {
					t.Errorf("detail = %q, want %q", resp.Detail, tt.wantDetail)
				}
			}
		})
	}
}

func TestNoteHandler_SaveResponseShape(t *testing.T) {
	handler, _, _ := setupNoteTest(t)

	w := postSave(t, handler, `{"title":"Meeting","content":"hello","user_name":"alice"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Save() status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Status     string `json:"status"`
		Action     string `json:"action"`
		CommitHash string `json:"commit_hash"`
		FileName   string `json:"file_name"`
		AuthorName string `json:"author_name"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if resp.Status != "success" {
		t.Errorf("status = %q, want %q", resp.Status, "success")
	}
	if resp.Action != model.ActionCreated {
		t.Errorf("action = %q, want %q", resp.Action, model.ActionCreated)
	}
	if resp.CommitHash == "" {
		t.Error("commit_hash is empty")
	}
	if resp.FileName != "Meeting.md" {
		t.Errorf("file_name = %q, want %q", resp.FileName, "Meeting.md")
	}
	if resp.AuthorName != "alice" {
		t.Errorf("author_name = %q, want %q", resp.AuthorName, "alice")
	}
}

func TestNoteHandler_SaveConflict(t *testing.T) {
	handler, svc, _ := setupNoteTest(t)

	created := saveNote(t, svc, "Meeting", "hello", "alice", "")

	w := postSave(t, handler, `{"title":"Meeting","content":"hi","user_name":"bob","last_hash":"deadbeef"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("Save() status = %d, want %d, body = %s", w.Code, http.StatusConflict, w.Body.String())
	}

	var resp conflictResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal conflict response: %v", err)
	}

	if resp.ErrorCode != "NOTE_CONFLICT" {
		t.Errorf("error_code = %q, want %q", resp.ErrorCode, "NOTE_CONFLICT")
	}
	if resp.Message == "" {
		t.Error("message is empty")
	}
	if resp.ConflictData.ServerLastHash != created.CommitHash {
		t.Errorf("server_last_hash = %q, want %q", resp.ConflictData.ServerLastHash, created.CommitHash)
	}
	if resp.ConflictData.ServerContent != "hello" {
		t.Errorf("server_content = %q, want %q", resp.ConflictData.ServerContent, "hello")
	}
	if resp.ConflictData.ModifiedBy != "alice" {
		t.Errorf("modified_by = %q, want %q", resp.ConflictData.ModifiedBy, "alice")
	}

	// Saving with the real hash succeeds as an update.
	w = postSave(t, handler,
		`{"title":"Meeting","content":"hi","user_name":"bob","last_hash":"`+created.CommitHash+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Save() with matching hash status = %d, body = %s", w.Code, w.Body.String())
	}

	var updated struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if updated.Action != model.ActionUpdated {
		t.Errorf("action = %q, want %q", updated.Action, model.ActionUpdated)
	}
}

func getNotes(t *testing.T, handler *NoteHandler, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()

	handler.List(w, req)
	return w
}

func TestNoteHandler_List(t *testing.T) {
	handler, svc, _ := setupNoteTest(t)

	saveNote(t, svc, "alpha", "first", "alice", "")
	saveNote(t, svc, "bravo", "second", "alice", "")
	saveNote(t, svc, "charlie", "third", "alice", "")

	t.Run("first page", func(t *testing.T) {
		w := getNotes(t, handler, "/notes?page=1&size=2")
		if w.Code != http.StatusOK {
			t.Fatalf("List() status = %d, body = %s", w.Code, w.Body.String())
		}

		var resp listResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if resp.Status != "success" {
			t.Errorf("status = %q, want %q", resp.Status, "success")
		}
		if resp.Metadata.TotalCount != 3 {
			t.Errorf("total_count = %d, want 3", resp.Metadata.TotalCount)
		}
		if resp.Metadata.TotalPages != 2 {
			t.Errorf("total_pages = %d, want 2", resp.Metadata.TotalPages)
		}
		if resp.Metadata.CurrentPage != 1 {
			t.Errorf("current_page = %d, want 1", resp.Metadata.CurrentPage)
		}
		if len(resp.Items) != 2 {
			t.Errorf("items length = %d, want 2", len(resp.Items))
		}
		if resp.Metadata.NextLink == nil || *resp.Metadata.NextLink != "/notes?page=2&size=2" {
			t.Errorf("next_link = %v, want /notes?page=2&size=2", resp.Metadata.NextLink)
		}
		if resp.Metadata.PrevLink != nil {
			t.Errorf("prev_link = %v, want null", *resp.Metadata.PrevLink)
		}
	})

	t.Run("last page", func(t *testing.T) {
		w := getNotes(t, handler, "/notes?page=2&size=2")
		if w.Code != http.StatusOK {
			t.Fatalf("List() status = %d, body = %s", w.Code, w.Body.String())
		}

		var resp listResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if len(resp.Items) != 1 {
			t.Errorf("items length = %d, want 1", len(resp.Items))
		}
		if resp.Metadata.NextLink != nil {
			t.Errorf("next_link = %v, want null", *resp.Metadata.NextLink)
		}
		if resp.Metadata.PrevLink == nil || *resp.Metadata.PrevLink != "/notes?page=1&size=2" {
			t.Errorf("prev_link = %v, want /notes?page=1&size=2", resp.Metadata.PrevLink)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		w := getNotes(t, handler, "/notes")
		if w.Code != http.StatusOK {
			t.Fatalf("List() status = %d, body = %s", w.Code, w.Body.String())
		}

		var resp listResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if resp.Metadata.CurrentPage != 1 || resp.Metadata.Size != 20 {
			t.Errorf("defaults = page %d size %d, want page 1 size 20",
				resp.Metadata.CurrentPage, resp.Metadata.Size)
		}
		if len(resp.Items) != 3 {
			t.Errorf("items length = %d, want 3", len(resp.Items))
		}
	})
}

func TestNoteHandler_ListKeywordLinks(t *testing.T) {
	handler, svc, _ := setupNoteTest(t)

	saveNote(t, svc, "휴대폰 요금제", "요금 비교", "alice", "")
	saveNote(t, svc, "휴대폰 가이드", "기초 사용법", "alice", "")

	w := getNotes(t, handler, "/notes?page=1&size=1&keyword="+
		"%ED%9C%B4%EB%8C%80%ED%8F%B0") // 휴대폰
	if w.Code != http.StatusOK {
		t.Fatalf("List() status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp listResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if resp.Metadata.TotalCount != 2 {
		t.Errorf("total_count = %d, want 2", resp.Metadata.TotalCount)
	}
	want := "/notes?page=2&size=1&keyword=%ED%9C%B4%EB%8C%80%ED%8F%B0"
	if resp.Metadata.NextLink == nil || *resp.Metadata.NextLink != want {
		t.Errorf("next_link = %v, want %s", resp.Metadata.NextLink, want)
	}
}

func TestNoteHandler_ListEmpty(t *testing.T) {
	handler, _, _ := setupNoteTest(t)

	w := getNotes(t, handler, "/notes")
	if w.Code != http.StatusOK {
		t.Fatalf("List() status = %d, body = %s", w.Code, w.Body.String())
	}

	// items must be [] on an empty store, not null
	if !bytes.Contains(w.Body.Bytes(), []byte(`"items":[]`)) {
		t.Errorf("expected empty items array, body = %s", w.Body.String())
	}

	var resp listResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if resp.Metadata.TotalCount != 0 || resp.Metadata.TotalPages != 0 {
		t.Errorf("metadata = %+v, want zero counts", resp.Metadata)
	}
}

func TestNoteHandler_ListValidation(t *testing.T) {
	handler, _, _ := setupNoteTest(t)

	tests := []struct {
		name   string
		target string
	}{
		{"non-numeric page", "/notes?page=abc"},
		{"non-numeric size", "/notes?size=ten"},
		{"zero page", "/notes?page=0"},
		{"negative size", "/notes?size=-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := getNotes(t, handler, tt.target)
			if w.Code != http.StatusBadRequest {
				t.Errorf("List(%s) status = %d, want %d", tt.target, w.Code, http.StatusBadRequest)
			}
		})
	}
}

func getHistory(t *testing.T, handler *NoteHandler, title string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/notes/"+title+"/history", nil)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("title", title)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	handler.History(w, req)
	return w
}

func TestNoteHandler_History(t *testing.T) {
	handler, svc, _ := setupNoteTest(t)

	first := saveNote(t, svc, "Draft", "one", "alice", "")
	second := saveNote(t, svc, "Draft", "two", "bob", first.CommitHash)

	w := getHistory(t, handler, "Draft")
	if w.Code != http.StatusOK {
		t.Fatalf("History() status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp model.History
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if resp.Metadata == nil || resp.Metadata.Title != "Draft" {
		t.Fatalf("metadata = %+v, want title Draft", resp.Metadata)
	}
	if len(resp.GitHistory) != 2 {
		t.Fatalf("git_history length = %d, want 2", len(resp.GitHistory))
	}
	if resp.GitHistory[0].Hash != second.CommitHash {
		t.Errorf("newest hash = %q, want %q", resp.GitHistory[0].Hash, second.CommitHash)
	}
	if resp.GitHistory[0].Author != "bob" {
		t.Errorf("newest author = %q, want bob", resp.GitHistory[0].Author)
	}
	if resp.GitHistory[1].Diff != model.InitialCommitDiff {
		t.Errorf("oldest diff = %q, want %q", resp.GitHistory[1].Diff, model.InitialCommitDiff)
	}
}

func TestNoteHandler_HistoryNotFound(t *testing.T) {
	handler, _, _ := setupNoteTest(t)

	w := getHistory(t, handler, "missing")
	if w.Code != http.StatusNotFound {
		t.Fatalf("History() status = %d, want %d", w.Code, http.StatusNotFound)
	}

	var resp errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal error body: %v", err)
	}
	if resp.Detail != "Not Found" {
		t.Errorf("detail = %q, want %q", resp.Detail, "Not Found")
	}
}

func TestNoteHandler_Tree(t *testing.T) {
	handler, _, repo := setupNoteTest(t)

	ctx := context.Background()
	if _, err := repo.WriteAndCommit(ctx, "work/alpha.md", "a", "alice", "seed"); err != nil {
		t.Fatalf("Failed to seed file: %v", err)
	}
	if _, err := repo.WriteAndCommit(ctx, "root.md", "r", "alice", "seed"); err != nil {
		t.Fatalf("Failed to seed file: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/notes/folder-tree", nil)
	w := httptest.NewRecorder()
	handler.Tree(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Tree() status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp treeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if !resp.Success {
		t.Error("success = false, want true")
	}
	if resp.Message == "" {
		t.Error("message is empty")
	}
	if len(resp.Data) != 2 {
		t.Fatalf("data length = %d, want 2, body = %s", len(resp.Data), w.Body.String())
	}

	// Folders sort before notes.
	if resp.Data[0].Type != model.NodeFolder || resp.Data[0].Name != "work" {
		t.Errorf("first node = %+v, want folder work", resp.Data[0])
	}
	if resp.Data[1].Type != model.NodeNote || resp.Data[1].Name != "root" {
		t.Errorf("second node = %+v, want note root", resp.Data[1])
	}
	if len(resp.Data[0].Children) != 1 || resp.Data[0].Children[0].Name != "alpha" {
		t.Errorf("folder children = %+v, want [alpha]", resp.Data[0].Children)
	}
}
