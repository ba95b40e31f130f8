// Package index implements the full-text search index for notes: an inverted
// index over analyzer tokens, persisted in BadgerDB. Lookups resolve a keyword
// to the set of note titles whose title or content contains every query term
// (or a synonym of it).
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/david-YJ-Kim/notesvc/internal/logger"
)

// Key namespaces. Tokens never contain ':' (the analyzer only emits Hangul
// and ASCII alphanumeric runs), so the posting prefix "t:<token>:" is
// unambiguous and the remainder of the key is the title verbatim.
//
//	t:<token>:<title> -> nil          posting: token appears in note <title>
//	d:<title>         -> JSON tokens  tokens posted for <title>, for updates/deletes
const (
	postingPrefix = "t:"
	docPrefix     = "d:"
)

// Document is a unit of indexable content.
type Document struct {
	Title   string
	Content string
}

// Index is the persistent inverted index. All methods are safe for concurrent
// use; Badger transactions provide the isolation.
type Index struct {
	db       *badger.DB
	analyzer Analyzer
	logger   *slog.Logger
}

// Open opens (or creates) the index at path.
func Open(path string, analyzer Analyzer) (*Index, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open search index at %s: %w", path, err)
	}

	return &Index{
		db:       db,
		analyzer: analyzer,
		logger:   logger.With("component", "search_index"),
	}, nil
}

// UpdateDocument replaces the postings for doc.Title with tokens extracted
// from the title and content. Postings for tokens no longer present are
// removed, so repeated updates never leak stale entries.
func (ix *Index) UpdateDocument(doc Document) error {
	tokens := ix.analyzer.Tokens(doc.Title + "\n" + doc.Content)

	return ix.db.Update(func(txn *badger.Txn) error {
		old, err := readDocTokens(txn, doc.Title)
		if err != nil {
			return err
		}

		current := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			current[tok] = struct{}{}
		}

		for _, tok := range old {
			if _, ok := current[tok]; ok {
				continue
			}
			if err := txn.Delete(postingKey(tok, doc.Title)); err != nil {
				return fmt.Errorf("failed to delete stale posting %q: %w", tok, err)
			}
		}

		for _, tok := range tokens {
			if err := txn.Set(postingKey(tok, doc.Title), nil); err != nil {
				return fmt.Errorf("failed to write posting %q: %w", tok, err)
			}
		}

		encoded, err := json.Marshal(tokens)
		if err != nil {
			return fmt.Errorf("failed to encode token list: %w", err)
		}
		if err := txn.Set(docKey(doc.Title), encoded); err != nil {
			return fmt.Errorf("failed to write token list: %w", err)
		}
		return nil
	})
}

// DeleteByTitle removes every posting for the given title. Deleting a title
// that was never indexed is a no-op.
func (ix *Index) DeleteByTitle(title string) error {
	return ix.db.Update(func(txn *badger.Txn) error {
		tokens, err := readDocTokens(txn, title)
		if err != nil {
			return err
		}

		for _, tok := range tokens {
			if err := txn.Delete(postingKey(tok, title)); err != nil {
				return fmt.Errorf("failed to delete posting %q: %w", tok, err)
			}
		}
		if err := txn.Delete(docKey(title)); err != nil {
			return fmt.Errorf("failed to delete token list: %w", err)
		}
		return nil
	})
}

// Search returns the titles matching keyword, sorted lexicographically. Every
// query term must match (AND); within a term, the term and its synonyms are
// interchangeable (OR). A limit <= 0 means no limit. A keyword that yields no
// terms matches nothing.
func (ix *Index) Search(keyword string, limit int) ([]string, error) {
	groups := ix.analyzer.QueryTerms(keyword)
	if len(groups) == 0 {
		return nil, nil
	}

	var result map[string]struct{}

	err := ix.db.View(func(txn *badger.Txn) error {
		for _, group := range groups {
			titles := make(map[string]struct{})
			for _, tok := range group {
				if err := scanPostings(txn, tok, titles); err != nil {
					return err
				}
			}

			if result == nil {
				result = titles
				continue
			}
			for title := range result {
				if _, ok := titles[title]; !ok {
					delete(result, title)
				}
			}
			if len(result) == 0 {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	matches := make([]string, 0, len(result))
	for title := range result {
		matches = append(matches, title)
	}
	sort.Strings(matches)

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Rebuild drops the entire index and re-indexes the given documents. A
// document that fails to index is logged and skipped so one bad note cannot
// block the rest of a rebuild.
func (ix *Index) Rebuild(ctx context.Context, docs []Document) error {
	if err := ix.clear(); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}

	indexed := 0
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ix.UpdateDocument(doc); err != nil {
			ix.logger.Error("failed to index document during rebuild",
				"title", doc.Title,
				"error", err)
			continue
		}
		indexed++
	}

	ix.logger.Info("search index rebuilt", "documents", indexed, "total", len(docs))
	return nil
}

// clear deletes every key in the index. Keys are collected first and deleted
// in batches to stay within transaction size limits.
func (ix *Index) clear() error {
	var keys [][]byte

	err := ix.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}

	const batchSize = 1000
	for start := 0; start < len(keys); start += batchSize {
		end := start + batchSize
		if end > len(keys) {
			end = len(keys)
		}

		err := ix.db.Update(func(txn *badger.Txn) error {
			for _, key := range keys[start:end] {
				if err := txn.Delete(key); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Healthcheck verifies the index is open and readable.
func (ix *Index) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ix.db.IsClosed() {
		return fmt.Errorf("search index is closed")
	}

	err := ix.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(docPrefix))
		if err != nil && err != badger.ErrKeyNotFound {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("search index healthcheck failed: %w", err)
	}
	return nil
}

// Close closes the underlying Badger database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

func postingKey(token, title string) []byte {
	return []byte(postingPrefix + token + ":" + title)
}

func docKey(title string) []byte {
	return []byte(docPrefix + title)
}

// readDocTokens returns the tokens last posted for title, or nil when the
// title has never been indexed.
func readDocTokens(txn *badger.Txn, title string) ([]string, error) {
	item, err := txn.Get(docKey(title))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token list: %w", err)
	}

	var tokens []string
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &tokens)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode token list: %w", err)
	}
	return tokens, nil
}

// scanPostings adds every title posted under token into out.
func scanPostings(txn *badger.Txn, token string, out map[string]struct{}) error {
	prefix := []byte(postingPrefix + token + ":")

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		title := string(it.Item().Key()[len(prefix):])
		out[title] = struct{}{}
	}
	return nil
}
