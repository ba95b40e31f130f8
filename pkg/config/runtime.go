package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/david-YJ-Kim/notesvc/internal/logger"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/content"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/index"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/service"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/store"
)

// RuntimeMetrics carries the optional metric sinks wired into the runtime.
// The zero value disables metrics.
type RuntimeMetrics struct {
	Save    service.SaveMetrics
	Indexer index.IndexerMetrics
}

// Runtime bundles the opened stores and the coordinator built on top of
// them. Commands that need only part of it (reindex, notes list) still go
// through InitializeRuntime so every entry point opens the stores the same
// way.
type Runtime struct {
	Service  *service.Service
	Content  *content.Store
	Metadata store.Store
	Index    *index.Index
	Indexer  *index.Indexer
}

// InitializeRuntime opens the three stores from the provided configuration
// and wires the note coordinator.
//
// The initialization order mirrors the save pipeline's write order: content
// repository first, then the metadata database, then the search index. The
// background indexer is created but not started; callers that serve traffic
// start it themselves and the one-shot commands never need it running.
//
// On error, everything opened so far is closed.
//
// Example:
//
//	cfg, _ := config.Load("notesvc.yaml")
//	rt, err := config.InitializeRuntime(ctx, cfg, config.RuntimeMetrics{})
//	if err != nil {
//	    log.Fatalf("Failed to initialize runtime: %v", err)
//	}
//	defer rt.Close()
func InitializeRuntime(ctx context.Context, cfg *Config, metrics RuntimeMetrics) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is nil")
	}

	logger.Debug("Initializing runtime from configuration", "data_dir", cfg.Storage.DataDir)

	cs, err := OpenContentStore(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Content repository ready", "path", cfg.Storage.RepoPath())

	ms, err := OpenMetadataStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Metadata store ready", "type", cfg.Database.Type)

	ix, err := OpenSearchIndex(cfg)
	if err != nil {
		_ = ms.Close()
		return nil, err
	}
	logger.Info("Search index ready", "path", cfg.Storage.IndexPath())

	indexer := NewIndexer(ix, cfg, metrics.Indexer)

	svc, err := service.New(service.Options{
		Content:         cs,
		Metadata:        ms,
		Search:          ix,
		Queue:           indexer,
		MergeOnConflict: cfg.Service.MergeEnabled(),
		SearchLimit:     cfg.Service.SearchLimit,
		MaxNoteSize:     cfg.Storage.MaxNoteSize.Int64(),
		Metrics:         metrics.Save,
	})
	if err != nil {
		_ = ix.Close()
		_ = ms.Close()
		return nil, fmt.Errorf("failed to create note service: %w", err)
	}

	return &Runtime{
		Service:  svc,
		Content:  cs,
		Metadata: ms,
		Index:    ix,
		Indexer:  indexer,
	}, nil
}

// Close releases the metadata database and the search index. The indexer, if
// started, must be stopped first so no writes race the closing index.
func (r *Runtime) Close() error {
	var errs []error
	if err := r.Index.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close search index: %w", err))
	}
	if err := r.Metadata.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close metadata store: %w", err))
	}
	return errors.Join(errs...)
}
