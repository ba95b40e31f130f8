//go:build integration

package index_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/david-YJ-Kim/notesvc/pkg/notes/index"
)

func openTestIndex(t *testing.T) *index.Index {
	t.Helper()

	path := filepath.Join(t.TempDir(), "index")
	ix, err := index.Open(path, index.NewAnalyzer(index.DefaultSynonyms()))
	require.NoError(t, err, "Open() failed")

	t.Cleanup(func() {
		ix.Close()
	})
	return ix
}

func TestSearch(t *testing.T) {
	ix := openTestIndex(t)

	require.NoError(t, ix.UpdateDocument(index.Document{
		Title:   "meeting-notes",
		Content: "회의 내용 정리. action items for the backend team",
	}))
	require.NoError(t, ix.UpdateDocument(index.Document{
		Title:   "phone-plans",
		Content: "휴대폰 요금제 비교",
	}))
	require.NoError(t, ix.UpdateDocument(index.Document{
		Title:   "api-design",
		Content: "FastAPI 서버 구조",
	}))

	t.Run("single term", func(t *testing.T) {
		titles, err := ix.Search("회의", 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"meeting-notes"}, titles)
	})

	t.Run("title tokens are indexed", func(t *testing.T) {
		titles, err := ix.Search("plans", 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"phone-plans"}, titles)
	})

	t.Run("all terms must match", func(t *testing.T) {
		titles, err := ix.Search("회의 backend", 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"meeting-notes"}, titles)

		titles, err = ix.Search("회의 요금제", 0)
		require.NoError(t, err)
		assert.Empty(t, titles)
	})

	t.Run("synonym matches document term", func(t *testing.T) {
		// 스마트폰 is a synonym of 휴대폰; the document only says 휴대폰.
		titles, err := ix.Search("스마트폰", 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"phone-plans"}, titles)
	})

	t.Run("document synonym matches query term", func(t *testing.T) {
		// 백엔드 is a synonym of fastapi. The note never says 백엔드, but the
		// index-time expansion posted it alongside fastapi.
		titles, err := ix.Search("백엔드", 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"api-design"}, titles)
	})

	t.Run("results sorted and limited", func(t *testing.T) {
		require.NoError(t, ix.UpdateDocument(index.Document{Title: "zz-api", Content: "fastapi"}))

		titles, err := ix.Search("fastapi", 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"api-design", "zz-api"}, titles)

		titles, err = ix.Search("fastapi", 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"api-design"}, titles)
	})

	t.Run("no match", func(t *testing.T) {
		titles, err := ix.Search("nonexistent", 0)
		require.NoError(t, err)
		assert.Empty(t, titles)
	})

	t.Run("keyword with no tokens", func(t *testing.T) {
		titles, err := ix.Search("!!!", 0)
		require.NoError(t, err)
		assert.Empty(t, titles)
	})
}

func TestUpdateDocumentReplacesPostings(t *testing.T) {
	ix := openTestIndex(t)

	require.NoError(t, ix.UpdateDocument(index.Document{Title: "draft", Content: "alpha beta"}))
	require.NoError(t, ix.UpdateDocument(index.Document{Title: "draft", Content: "beta gamma"}))

	titles, err := ix.Search("alpha", 0)
	require.NoError(t, err)
	assert.Empty(t, titles, "stale posting should be removed")

	titles, err = ix.Search("gamma", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"draft"}, titles)

	titles, err = ix.Search("beta", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"draft"}, titles)
}

func TestDeleteByTitle(t *testing.T) {
	ix := openTestIndex(t)

	require.NoError(t, ix.UpdateDocument(index.Document{Title: "doomed", Content: "alpha beta"}))
	require.NoError(t, ix.UpdateDocument(index.Document{Title: "kept", Content: "alpha"}))

	require.NoError(t, ix.DeleteByTitle("doomed"))

	titles, err := ix.Search("alpha", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, titles)

	titles, err = ix.Search("beta", 0)
	require.NoError(t, err)
	assert.Empty(t, titles)

	// Deleting a title that was never indexed is a no-op.
	require.NoError(t, ix.DeleteByTitle("never-indexed"))
}

func TestRebuild(t *testing.T) {
	ix := openTestIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.UpdateDocument(index.Document{Title: "old", Content: "legacy"}))

	err := ix.Rebuild(ctx, []index.Document{
		{Title: "fresh-one", Content: "rebuilt content"},
		{Title: "fresh-two", Content: "rebuilt content"},
	})
	require.NoError(t, err)

	titles, err := ix.Search("legacy", 0)
	require.NoError(t, err)
	assert.Empty(t, titles, "rebuild should drop documents not in the new set")

	titles, err = ix.Search("rebuilt", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh-one", "fresh-two"}, titles)

	t.Run("rebuild to empty clears everything", func(t *testing.T) {
		require.NoError(t, ix.Rebuild(ctx, nil))

		titles, err := ix.Search("rebuilt", 0)
		require.NoError(t, err)
		assert.Empty(t, titles)
	})
}

func TestHealthcheck(t *testing.T) {
	ix := openTestIndex(t)
	require.NoError(t, ix.Healthcheck(context.Background()))
}

func TestIndexer(t *testing.T) {
	t.Run("processes queued writes", func(t *testing.T) {
		ix := openTestIndex(t)

		indexer := index.NewIndexer(ix, index.DefaultIndexerConfig(), nil)
		indexer.Start(context.Background())
		defer indexer.Stop(5 * time.Second)

		require.True(t, indexer.EnqueueUpdate("async-note", "searchable text"))

		require.Eventually(t, func() bool {
			_, completed, _ := indexer.Stats()
			return completed == 1
		}, 5*time.Second, 10*time.Millisecond)

		titles, err := ix.Search("searchable", 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"async-note"}, titles)
	})

	t.Run("delete after update removes the note", func(t *testing.T) {
		ix := openTestIndex(t)

		indexer := index.NewIndexer(ix, index.DefaultIndexerConfig(), nil)
		indexer.Start(context.Background())
		defer indexer.Stop(5 * time.Second)

		require.True(t, indexer.EnqueueUpdate("transient", "here today"))
		require.True(t, indexer.EnqueueDelete("transient"))

		require.Eventually(t, func() bool {
			_, completed, _ := indexer.Stats()
			return completed == 2
		}, 5*time.Second, 10*time.Millisecond)

		titles, err := ix.Search("today", 0)
		require.NoError(t, err)
		assert.Empty(t, titles)
	})

	t.Run("full queue drops without blocking", func(t *testing.T) {
		ix := openTestIndex(t)

		// Not started, so nothing drains the queue.
		indexer := index.NewIndexer(ix, index.IndexerConfig{QueueSize: 1}, nil)

		assert.True(t, indexer.EnqueueUpdate("first", "fits"))
		assert.False(t, indexer.EnqueueUpdate("second", "dropped"))
		assert.Equal(t, 1, indexer.Pending())
	})

	t.Run("stop drains pending writes", func(t *testing.T) {
		ix := openTestIndex(t)

		indexer := index.NewIndexer(ix, index.DefaultIndexerConfig(), nil)
		indexer.Start(context.Background())

		for i := 0; i < 10; i++ {
			require.True(t, indexer.EnqueueUpdate("drain-note", "drain me"))
		}
		indexer.Stop(5 * time.Second)

		titles, err := ix.Search("drain", 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"drain-note"}, titles)
	})
}
