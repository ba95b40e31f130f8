package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "notesvc", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Enabled = false

	shutdown, err := Init(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	// Should be able to call shutdown without error
	err = shutdown(ctx)
	assert.NoError(t, err)

	// Should not be enabled
	assert.False(t, IsEnabled())
}

func TestTracerReturnsNoOp(t *testing.T) {
	// Reset state
	tracer = nil
	enabled = false

	// Without initialization, should return no-op tracer
	tr := Tracer()
	require.NotNil(t, tr)
}

func TestStartSpan(t *testing.T) {
	ctx := context.Background()

	// Even without initialization, StartSpan should work (no-op)
	newCtx, span := StartSpan(ctx, "test.operation")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)

	// Should be able to end the span
	span.End()
}

func TestSpanFromContext(t *testing.T) {
	ctx := context.Background()

	// Should return a span even without active span
	span := SpanFromContext(ctx)
	require.NotNil(t, span)
}

func TestAddEvent(t *testing.T) {
	ctx := context.Background()

	// Should not panic with no active span
	require.NotPanics(t, func() {
		AddEvent(ctx, "test.event")
	})
}

func TestRecordError(t *testing.T) {
	ctx := context.Background()

	// Should not panic with nil error
	require.NotPanics(t, func() {
		RecordError(ctx, nil)
	})

	// Should not panic with error
	require.NotPanics(t, func() {
		RecordError(ctx, errors.New("test error"))
	})
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()

	// Should not panic
	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Ok, "success")
	})

	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Error, "failed")
	})
}

func TestSetAttributes(t *testing.T) {
	ctx := context.Background()

	// Should not panic
	require.NotPanics(t, func() {
		SetAttributes(ctx, ClientIP("192.168.1.1"))
	})
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()

	// Without active span, should return empty string
	traceID := TraceID(ctx)
	assert.Equal(t, "", traceID)
}

func TestSpanID(t *testing.T) {
	ctx := context.Background()

	// Without active span, should return empty string
	spanID := SpanID(ctx)
	assert.Equal(t, "", spanID)
}

func TestAttributeHelpers(t *testing.T) {
	t.Run("ClientIP", func(t *testing.T) {
		attr := ClientIP("192.168.1.100")
		assert.Equal(t, AttrClientIP, string(attr.Key))
		assert.Equal(t, "192.168.1.100", attr.Value.AsString())
	})

	t.Run("NoteTitle", func(t *testing.T) {
		attr := NoteTitle("회의록")
		assert.Equal(t, AttrNoteTitle, string(attr.Key))
		assert.Equal(t, "회의록", attr.Value.AsString())
	})

	t.Run("NoteUser", func(t *testing.T) {
		attr := NoteUser("alice")
		assert.Equal(t, AttrNoteUser, string(attr.Key))
		assert.Equal(t, "alice", attr.Value.AsString())
	})

	t.Run("NoteAction", func(t *testing.T) {
		attr := NoteAction("created")
		assert.Equal(t, AttrNoteAction, string(attr.Key))
		assert.Equal(t, "created", attr.Value.AsString())
	})

	t.Run("NoteRev", func(t *testing.T) {
		attr := NoteRev("0123abcd")
		assert.Equal(t, AttrNoteRev, string(attr.Key))
		assert.Equal(t, "0123abcd", attr.Value.AsString())
	})

	t.Run("NotePath", func(t *testing.T) {
		attr := NotePath("meetings/회의록.md")
		assert.Equal(t, AttrNotePath, string(attr.Key))
		assert.Equal(t, "meetings/회의록.md", attr.Value.AsString())
	})

	t.Run("NoteSize", func(t *testing.T) {
		attr := NoteSize(4096)
		assert.Equal(t, AttrNoteSize, string(attr.Key))
		assert.Equal(t, int64(4096), attr.Value.AsInt64())
	})

	t.Run("SearchKeyword", func(t *testing.T) {
		attr := SearchKeyword("fastapi")
		assert.Equal(t, AttrSearchKeyword, string(attr.Key))
		assert.Equal(t, "fastapi", attr.Value.AsString())
	})

	t.Run("SearchHits", func(t *testing.T) {
		attr := SearchHits(42)
		assert.Equal(t, AttrSearchHits, string(attr.Key))
		assert.Equal(t, int64(42), attr.Value.AsInt64())
	})

	t.Run("HistoryLimit", func(t *testing.T) {
		attr := HistoryLimit(10)
		assert.Equal(t, AttrHistoryLimit, string(attr.Key))
		assert.Equal(t, int64(10), attr.Value.AsInt64())
	})

	t.Run("MergeClean", func(t *testing.T) {
		attr := MergeClean(true)
		assert.Equal(t, AttrMergeClean, string(attr.Key))
		assert.True(t, attr.Value.AsBool())
	})

	t.Run("IndexQueueDepth", func(t *testing.T) {
		attr := IndexQueueDepth(17)
		assert.Equal(t, AttrIndexQueueDepth, string(attr.Key))
		assert.Equal(t, int64(17), attr.Value.AsInt64())
	})

	t.Run("StoreName", func(t *testing.T) {
		attr := StoreName("metadata")
		assert.Equal(t, AttrStoreName, string(attr.Key))
		assert.Equal(t, "metadata", attr.Value.AsString())
	})
}

func TestStartNoteSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartNoteSpan(ctx, "save", "회의록")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	// With additional attributes
	newCtx2, span2 := StartNoteSpan(ctx, "save", "회의록", NoteUser("alice"), NoteSize(1024))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}

func TestStartContentSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartContentSpan(ctx, "commit", "회의록.md")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	// Path may be empty for repository-wide operations
	newCtx2, span2 := StartContentSpan(ctx, "scan", "")
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}

func TestStartMetadataSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartMetadataSpan(ctx, "upsert", NoteTitle("회의록"))
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}

func TestStartIndexSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartIndexSpan(ctx, "search", SearchKeyword("휴대폰"))
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}
