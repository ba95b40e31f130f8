package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for note operations.
// These follow OpenTelemetry semantic conventions where applicable.
// Note-level keys use "note.", store-level keys use their component prefix.
const (
	// ========================================================================
	// Client attributes
	// ========================================================================
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"

	// ========================================================================
	// Note attributes
	// ========================================================================
	AttrNoteTitle   = "note.title"
	AttrNoteUser    = "note.user"     // Last-modifying user
	AttrNoteAction  = "note.action"   // created, updated, merged
	AttrNoteRev     = "note.revision" // Content revision (commit hash)
	AttrNoteBaseRev = "note.base_revision"
	AttrNotePath    = "note.path" // Repository-relative file path
	AttrNoteSize    = "note.size" // Content size in bytes
	AttrNoteCount   = "note.count"

	// ========================================================================
	// Search attributes
	// ========================================================================
	AttrSearchKeyword = "search.keyword"
	AttrSearchLimit   = "search.limit"
	AttrSearchHits    = "search.hits"
	AttrPage          = "page.number"
	AttrPageSize      = "page.size"

	// ========================================================================
	// History attributes
	// ========================================================================
	AttrHistoryLimit = "history.limit"
	AttrHistoryCount = "history.count"

	// ========================================================================
	// Merge attributes
	// ========================================================================
	AttrMergeAttempted = "merge.attempted"
	AttrMergeClean     = "merge.clean"

	// ========================================================================
	// Index attributes
	// ========================================================================
	AttrIndexOp         = "index.operation"
	AttrIndexQueueDepth = "index.queue_depth"

	// ========================================================================
	// Store attributes
	// ========================================================================
	AttrStoreName = "store.name" // content, metadata, index
	AttrStoreType = "store.type" // git, sqlite, postgres, pgx

	// ========================================================================
	// Reconcile attributes
	// ========================================================================
	AttrReconcileScanned  = "reconcile.scanned"
	AttrReconcileCreated  = "reconcile.created"
	AttrReconcileUpdated  = "reconcile.updated"
	AttrReconcileMoved    = "reconcile.moved"
	AttrReconcileDisabled = "reconcile.disabled"
)

// Span names for operations.
// Format: <component>.<operation>
const (
	// ========================================================================
	// Coordinator spans (one per public service operation)
	// ========================================================================
	SpanNoteSave      = "note.save"
	SpanNoteGet       = "note.get"
	SpanNoteSearch    = "note.search"
	SpanNoteTree      = "note.tree"
	SpanNoteHistory   = "note.history"
	SpanNoteReconcile = "note.reconcile"

	// ========================================================================
	// Content repository spans
	// ========================================================================
	SpanContentCommit = "content.commit"
	SpanContentRead   = "content.read"
	SpanContentLog    = "content.log"
	SpanContentDiff   = "content.diff"
	SpanContentScan   = "content.scan"

	// ========================================================================
	// Metadata store spans
	// ========================================================================
	SpanMetaGet    = "metadata.get"
	SpanMetaList   = "metadata.list"
	SpanMetaUpsert = "metadata.upsert"
	SpanMetaTouch  = "metadata.touch"

	// ========================================================================
	// Search index spans
	// ========================================================================
	SpanIndexSearch  = "index.search"
	SpanIndexUpdate  = "index.update"
	SpanIndexDelete  = "index.delete"
	SpanIndexRebuild = "index.rebuild"
)

// ClientIP returns an attribute for client IP address
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// ClientAddr returns an attribute for full client address
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// NoteTitle returns an attribute for the note title
func NoteTitle(title string) attribute.KeyValue {
	return attribute.String(AttrNoteTitle, title)
}

// NoteUser returns an attribute for the acting user
func NoteUser(user string) attribute.KeyValue {
	return attribute.String(AttrNoteUser, user)
}

// NoteAction returns an attribute for the save outcome (created, updated, merged)
func NoteAction(action string) attribute.KeyValue {
	return attribute.String(AttrNoteAction, action)
}

// NoteRev returns an attribute for a content revision hash
func NoteRev(rev string) attribute.KeyValue {
	return attribute.String(AttrNoteRev, rev)
}

// NoteBaseRev returns an attribute for the client's base revision on save
func NoteBaseRev(rev string) attribute.KeyValue {
	return attribute.String(AttrNoteBaseRev, rev)
}

// NotePath returns an attribute for the repository-relative file path
func NotePath(path string) attribute.KeyValue {
	return attribute.String(AttrNotePath, path)
}

// NoteSize returns an attribute for the note content size in bytes
func NoteSize(size int) attribute.KeyValue {
	return attribute.Int(AttrNoteSize, size)
}

// NoteCount returns an attribute for a number of notes
func NoteCount(n int) attribute.KeyValue {
	return attribute.Int(AttrNoteCount, n)
}

// SearchKeyword returns an attribute for the search keyword
func SearchKeyword(keyword string) attribute.KeyValue {
	return attribute.String(AttrSearchKeyword, keyword)
}

// SearchLimit returns an attribute for the index result cap
func SearchLimit(limit int) attribute.KeyValue {
	return attribute.Int(AttrSearchLimit, limit)
}

// SearchHits returns an attribute for the number of index hits
func SearchHits(hits int) attribute.KeyValue {
	return attribute.Int(AttrSearchHits, hits)
}

// Page returns an attribute for the page number
func Page(page int) attribute.KeyValue {
	return attribute.Int(AttrPage, page)
}

// PageSize returns an attribute for the page size
func PageSize(size int) attribute.KeyValue {
	return attribute.Int(AttrPageSize, size)
}

// HistoryLimit returns an attribute for the history entry cap
func HistoryLimit(limit int) attribute.KeyValue {
	return attribute.Int(AttrHistoryLimit, limit)
}

// HistoryCount returns an attribute for the number of history entries
func HistoryCount(n int) attribute.KeyValue {
	return attribute.Int(AttrHistoryCount, n)
}

// MergeAttempted returns an attribute marking that a conflicting save tried a merge
func MergeAttempted(attempted bool) attribute.KeyValue {
	return attribute.Bool(AttrMergeAttempted, attempted)
}

// MergeClean returns an attribute for the merge outcome
func MergeClean(clean bool) attribute.KeyValue {
	return attribute.Bool(AttrMergeClean, clean)
}

// IndexOp returns an attribute for an index operation name
func IndexOp(op string) attribute.KeyValue {
	return attribute.String(AttrIndexOp, op)
}

// IndexQueueDepth returns an attribute for the index write queue depth
func IndexQueueDepth(depth int) attribute.KeyValue {
	return attribute.Int(AttrIndexQueueDepth, depth)
}

// ReconcileScanned returns an attribute for the number of files scanned
func ReconcileScanned(n int) attribute.KeyValue {
	return attribute.Int(AttrReconcileScanned, n)
}

// ReconcileCreated returns an attribute for the number of rows created
func ReconcileCreated(n int) attribute.KeyValue {
	return attribute.Int(AttrReconcileCreated, n)
}

// ReconcileUpdated returns an attribute for the number of rows updated
func ReconcileUpdated(n int) attribute.KeyValue {
	return attribute.Int(AttrReconcileUpdated, n)
}

// ReconcileDisabled returns an attribute for the number of rows disabled
func ReconcileDisabled(n int) attribute.KeyValue {
	return attribute.Int(AttrReconcileDisabled, n)
}

// StoreName returns an attribute for store name
func StoreName(name string) attribute.KeyValue {
	return attribute.String(AttrStoreName, name)
}

// StoreType returns an attribute for store type
func StoreType(t string) attribute.KeyValue {
	return attribute.String(AttrStoreType, t)
}

// StartNoteSpan starts a span for a coordinator operation on a single note.
// This is a convenience function that sets common attributes.
func StartNoteSpan(ctx context.Context, operation, title string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		NoteTitle(title),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "note."+operation, trace.WithAttributes(allAttrs...))
}

// StartContentSpan starts a span for a content repository operation.
func StartContentSpan(ctx context.Context, operation, path string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		StoreName("content"),
	}
	if path != "" {
		allAttrs = append(allAttrs, NotePath(path))
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "content."+operation, trace.WithAttributes(allAttrs...))
}

// StartMetadataSpan starts a span for a metadata store operation.
func StartMetadataSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		StoreName("metadata"),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "metadata."+operation, trace.WithAttributes(allAttrs...))
}

// StartIndexSpan starts a span for a search index operation.
func StartIndexSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		StoreName("index"),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "index."+operation, trace.WithAttributes(allAttrs...))
}
