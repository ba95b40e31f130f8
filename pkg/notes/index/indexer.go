package index

import (
	"context"
	"sync"
	"time"

	"github.com/david-YJ-Kim/notesvc/internal/logger"
)

const (
	taskUpdate = "update"
	taskDelete = "delete"
)

// task represents a pending index write.
type task struct {
	op      string
	title   string
	content string
}

// IndexerMetrics records background indexing activity. A nil implementation
// is allowed; every method must then be a no-op.
type IndexerMetrics interface {
	RecordIndexTask(status string)
	SetIndexQueueDepth(pending int)
}

// Indexer applies index writes asynchronously. Save requests enqueue work and
// return immediately; a single worker drains the queue so writes for the same
// title apply in enqueue order. Search reads are served directly from the
// Index and never wait on the queue.
type Indexer struct {
	index   *Index
	metrics IndexerMetrics

	// Write queue with bounded capacity
	queue chan task

	// Worker management
	wg        sync.WaitGroup
	stopCh    chan struct{}
	stoppedCh chan struct{}
	started   bool // tracks whether Start() was called

	// Stats
	mu          sync.Mutex
	pending     int
	completed   int
	failed      int
	lastError   error
	lastErrorAt time.Time
}

// IndexerConfig holds configuration for the background indexer.
type IndexerConfig struct {
	// QueueSize is the maximum number of pending index writes.
	// Default: 1000
	QueueSize int
}

// DefaultIndexerConfig returns sensible defaults.
func DefaultIndexerConfig() IndexerConfig {
	return IndexerConfig{
		QueueSize: 1000,
	}
}

// NewIndexer creates a new background indexer writing to ix.
func NewIndexer(ix *Index, cfg IndexerConfig, metrics IndexerMetrics) *Indexer {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}

	return &Indexer{
		index:     ix,
		metrics:   metrics,
		queue:     make(chan task, cfg.QueueSize),
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Start begins processing index writes.
func (b *Indexer) Start(ctx context.Context) {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.mu.Unlock()

	logger.Info("Starting background indexer", "queue_size", cap(b.queue))

	b.wg.Add(1)
	go b.worker(ctx)

	// Monitor goroutine to close stoppedCh when the worker exits
	go func() {
		b.wg.Wait()
		close(b.stoppedCh)
	}()
}

// Stop gracefully shuts down the indexer.
// It waits for pending writes to complete (with timeout).
func (b *Indexer) Stop(timeout time.Duration) {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		// Never started - nothing to stop
		return
	}
	b.mu.Unlock()

	logger.Info("Stopping background indexer", "pending", b.Pending())

	// Signal the worker to stop
	close(b.stopCh)

	// Wait with timeout
	select {
	case <-b.stoppedCh:
		logger.Info("Background indexer stopped gracefully")
	case <-time.After(timeout):
		logger.Warn("Background indexer stop timed out", "pending", b.Pending())
	}
}

// EnqueueUpdate queues an index update for a saved note.
// Returns false if the queue is full (non-blocking).
func (b *Indexer) EnqueueUpdate(title, content string) bool {
	return b.enqueue(task{op: taskUpdate, title: title, content: content})
}

// EnqueueDelete queues removal of a note from the index.
// Returns false if the queue is full (non-blocking).
func (b *Indexer) EnqueueDelete(title string) bool {
	return b.enqueue(task{op: taskDelete, title: title})
}

func (b *Indexer) enqueue(t task) bool {
	select {
	case b.queue <- t:
		b.mu.Lock()
		b.pending++
		pending := b.pending
		b.mu.Unlock()

		if b.metrics != nil {
			b.metrics.SetIndexQueueDepth(pending)
		}
		return true
	default:
		// Queue full
		logger.Warn("Index write queue full, dropping task",
			"op", t.op,
			"title", t.title)
		if b.metrics != nil {
			b.metrics.RecordIndexTask("dropped")
		}
		return false
	}
}

// Pending returns the number of queued index writes.
func (b *Indexer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending
}

// Stats returns indexing statistics.
func (b *Indexer) Stats() (pending, completed, failed int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending, b.completed, b.failed
}

// worker processes index writes from the queue.
func (b *Indexer) worker(ctx context.Context) {
	defer b.wg.Done()

	for {
		select {
		case <-b.stopCh:
			// Drain remaining tasks before exiting
			b.drainQueue()
			return

		case <-ctx.Done():
			return

		case t, ok := <-b.queue:
			if !ok {
				return
			}
			b.processTask(t)
		}
	}
}

// drainQueue processes remaining tasks in the queue during shutdown.
func (b *Indexer) drainQueue() {
	for {
		select {
		case t, ok := <-b.queue:
			if !ok {
				return
			}
			b.processTask(t)
		default:
			return
		}
	}
}

// processTask applies a single index write.
func (b *Indexer) processTask(t task) {
	var err error
	switch t.op {
	case taskUpdate:
		err = b.index.UpdateDocument(Document{Title: t.title, Content: t.content})
	case taskDelete:
		err = b.index.DeleteByTitle(t.title)
	}

	b.mu.Lock()
	b.pending--
	pending := b.pending
	if err != nil {
		b.failed++
		b.lastError = err
		b.lastErrorAt = time.Now()
		logger.Error("Index write failed",
			"op", t.op,
			"title", t.title,
			"error", err)
	} else {
		b.completed++
		logger.Debug("Index write completed", "op", t.op, "title", t.title)
	}
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.SetIndexQueueDepth(pending)
		if err != nil {
			b.metrics.RecordIndexTask("failed")
		} else {
			b.metrics.RecordIndexTask("completed")
		}
	}
}
