package config

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/david-YJ-Kim/notesvc/pkg/notes/content"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/index"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/store"
	notespg "github.com/david-YJ-Kim/notesvc/pkg/notes/store/postgres"
)

// OpenContentStore opens the git-backed note repository, initializing it on
// first run.
func OpenContentStore(cfg *Config) (*content.Store, error) {
	cs, err := content.Open(cfg.Storage.RepoPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open content repository: %w", err)
	}
	return cs, nil
}

// OpenMetadataStore opens the note metadata store selected by the database
// section: GORM over SQLite or PostgreSQL, or the native pgx store.
func OpenMetadataStore(ctx context.Context, cfg *Config) (store.Store, error) {
	if cfg.Database.Type == DatabaseTypePgx {
		ms, err := notespg.NewPostgresStore(ctx, PgxConfig(&cfg.Database))
		if err != nil {
			return nil, fmt.Errorf("failed to open pgx metadata store: %w", err)
		}
		return ms, nil
	}

	// store.New mutates its config while applying defaults; hand it a copy so
	// the loaded configuration stays what the user wrote.
	dbCfg := cfg.Database.Config
	ms, err := store.New(&dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}
	return ms, nil
}

// OpenSearchIndex opens the full-text index with the configured synonym
// table.
func OpenSearchIndex(cfg *Config) (*index.Index, error) {
	synonyms, err := SynonymTable(&cfg.Index)
	if err != nil {
		return nil, err
	}

	ix, err := index.Open(cfg.Storage.IndexPath(), index.NewAnalyzer(synonyms))
	if err != nil {
		return nil, fmt.Errorf("failed to open search index: %w", err)
	}
	return ix, nil
}

// NewIndexer creates the background index writer sized by the index section.
// The metrics sink may be nil.
func NewIndexer(ix *index.Index, cfg *Config, metrics index.IndexerMetrics) *index.Indexer {
	return index.NewIndexer(ix, index.IndexerConfig{QueueSize: cfg.Index.QueueSize}, metrics)
}

// SynonymTable resolves the synonym table from the index section: a synonyms
// file is read as YAML, an inline table is used as-is, and an empty section
// falls back to the built-in table.
func SynonymTable(cfg *IndexConfig) (map[string][]string, error) {
	if cfg.SynonymsFile != "" {
		data, err := os.ReadFile(cfg.SynonymsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read synonyms file: %w", err)
		}
		var table map[string][]string
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("failed to parse synonyms file %s: %w", cfg.SynonymsFile, err)
		}
		return table, nil
	}

	if len(cfg.Synonyms) > 0 {
		return cfg.Synonyms, nil
	}

	return index.DefaultSynonyms(), nil
}
