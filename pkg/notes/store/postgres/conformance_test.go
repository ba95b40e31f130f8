//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/david-YJ-Kim/notesvc/pkg/notes/model"
)

// startPostgres starts a disposable PostgreSQL container and returns a store
// config pointing at it.
func startPostgres(t *testing.T) *Config {
	t.Helper()
	ctx := context.Background()

	// PostgreSQL logs "ready to accept connections" twice during startup
	// (bootstrap, then fully ready), so wait for the second occurrence.
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("notesvc_test"),
		tcpostgres.WithUsername("notesvc_test"),
		tcpostgres.WithPassword("notesvc_test"),
		testcontainers.WithWaitStrategyAndDeadline(5*time.Minute,
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}

	return &Config{
		Host:        host,
		Port:        port.Int(),
		Database:    "notesvc_test",
		User:        "notesvc_test",
		Password:    "notesvc_test",
		SSLMode:     "disable",
		AutoMigrate: true,
	}
}

func TestPostgresStoreConformance(t *testing.T) {
	ctx := context.Background()
	cfg := startPostgres(t)

	s, err := NewPostgresStore(ctx, cfg)
	if err != nil {
		t.Fatalf("NewPostgresStore() failed: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	t.Run("healthcheck", func(t *testing.T) {
		if err := s.Healthcheck(ctx); err != nil {
			t.Errorf("healthcheck failed: %v", err)
		}
	})

	t.Run("create and get", func(t *testing.T) {
		note := &model.Note{
			Title:          "postgres-note",
			FilePath:       "postgres-note.md",
			LastCommitHash: "hash-1",
			LastModifiedBy: "alice",
		}
		id, err := s.CreateNote(ctx, note)
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if id == "" {
			t.Error("expected generated ID")
		}

		got, err := s.GetNote(ctx, "postgres-note")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.FilePath != "postgres-note.md" || got.LastCommitHash != "hash-1" {
			t.Errorf("unexpected row: %+v", got)
		}
	})

	t.Run("duplicate title", func(t *testing.T) {
		_, err := s.CreateNote(ctx, &model.Note{
			Title:          "postgres-note",
			FilePath:       "elsewhere.md",
			LastModifiedBy: "bob",
		})
		if !errors.Is(err, model.ErrDuplicateNote) {
			t.Errorf("expected ErrDuplicateNote, got %v", err)
		}
	})

	t.Run("missing note", func(t *testing.T) {
		_, err := s.GetNote(ctx, "nope")
		if !errors.Is(err, model.ErrNoteNotFound) {
			t.Errorf("expected ErrNoteNotFound, got %v", err)
		}
	})

	t.Run("list and search", func(t *testing.T) {
		for _, title := range []string{"list-a", "list-b", "list-c"} {
			if _, err := s.CreateNote(ctx, &model.Note{
				Title:          title,
				FilePath:       title + ".md",
				LastModifiedBy: "alice",
			}); err != nil {
				t.Fatalf("create %s failed: %v", title, err)
			}
		}
		if _, err := s.CreateNote(ctx, &model.Note{
			Title:          "list-hidden",
			FilePath:       "list-hidden.md",
			LastModifiedBy: "alice",
			UseStatus:      string(model.StatusDisabled),
		}); err != nil {
			t.Fatalf("create disabled failed: %v", err)
		}

		notes, total, err := s.ListNotes(ctx, 1, 2)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if total != 4 { // postgres-note + list-a/b/c, disabled excluded
			t.Errorf("expected total 4, got %d", total)
		}
		if len(notes) != 2 {
			t.Errorf("expected page of 2, got %d", len(notes))
		}

		found, matchTotal, err := s.SearchNotes(ctx, "list-", []string{"postgres-note"}, 1, 10)
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if matchTotal != 4 || len(found) != 4 { // 3 substring matches + 1 index title, disabled excluded
			t.Errorf("expected 4 results, got %d (total %d)", len(found), matchTotal)
		}

		for _, n := range found {
			if n.Title == "list-hidden" {
				t.Error("disabled note leaked into search")
			}
		}
	})

	t.Run("conditional commit update", func(t *testing.T) {
		note, err := s.GetNote(ctx, "postgres-note")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}

		if err := s.UpdateCommit(ctx, note.ID, "hash-1", "hash-2", "bob"); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		err = s.UpdateCommit(ctx, note.ID, "hash-1", "hash-3", "carol")
		if !errors.Is(err, model.ErrHashMismatch) {
			t.Errorf("expected ErrHashMismatch, got %v", err)
		}

		err = s.UpdateCommit(ctx, "00000000-0000-0000-0000-000000000000", "x", "y", "z")
		if !errors.Is(err, model.ErrNoteNotFound) {
			t.Errorf("expected ErrNoteNotFound, got %v", err)
		}
	})

	t.Run("reconciliation transaction", func(t *testing.T) {
		note, err := s.GetNote(ctx, "list-a")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		note.UseStatus = string(model.StatusDisabled)
		note.LastModifiedBy = model.SystemUser

		inserts := []*model.Note{
			{Title: "recon-new", FilePath: "recon-new.md", LastCommitHash: "head", LastModifiedBy: model.SystemUser},
		}
		if err := s.ApplyReconciliation(ctx, inserts, []*model.Note{note}); err != nil {
			t.Fatalf("reconciliation failed: %v", err)
		}

		got, err := s.GetNote(ctx, "list-a")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.IsUsable() {
			t.Error("expected list-a disabled")
		}
		if _, err := s.GetNote(ctx, "recon-new"); err != nil {
			t.Errorf("insert not applied: %v", err)
		}

		// Constraint violation rolls the whole batch back.
		bad := []*model.Note{
			{Title: "recon-two", FilePath: "recon-two.md", LastModifiedBy: model.SystemUser},
			{Title: "recon-new", FilePath: "clash.md", LastModifiedBy: model.SystemUser},
		}
		if err := s.ApplyReconciliation(ctx, bad, nil); !errors.Is(err, model.ErrDuplicateNote) {
			t.Fatalf("expected ErrDuplicateNote, got %v", err)
		}
		if _, err := s.GetNote(ctx, "recon-two"); !errors.Is(err, model.ErrNoteNotFound) {
			t.Errorf("expected rollback, got %v", err)
		}
	})

	t.Run("all notes includes disabled", func(t *testing.T) {
		notes, err := s.AllNotes(ctx)
		if err != nil {
			t.Fatalf("all notes failed: %v", err)
		}
		var disabled int
		for _, n := range notes {
			if !n.IsUsable() {
				disabled++
			}
		}
		if disabled == 0 {
			t.Error("expected disabled rows in full scan")
		}
	})
}
