package logger

import (
	"log/slog"
	"time"
)

// Standard field keys for structured logging. Use these consistently across
// all log statements so log aggregation and querying stay uniform.
const (
	// Tracing
	KeyTraceID   = "trace_id"   // OpenTelemetry trace ID for request correlation
	KeySpanID    = "span_id"    // OpenTelemetry span ID
	KeyRequestID = "request_id" // per-request ID from the HTTP middleware

	// HTTP
	KeyMethod   = "method"
	KeyPath     = "path"
	KeyStatus   = "status"
	KeyClientIP = "client_ip"

	// Notes domain
	KeyTitle      = "title"
	KeyFilePath   = "file_path"
	KeyCommitHash = "commit_hash"
	KeyAction     = "action"
	KeyUser       = "user"
	KeyKeyword    = "keyword"

	// Timing & errors
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
)

// Attr helpers so call sites stay terse and keys stay consistent.

// Err returns an error attribute; a nil error yields an empty string value.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// Title returns a note title attribute.
func Title(title string) slog.Attr {
	return slog.String(KeyTitle, title)
}

// FilePath returns a repository-relative path attribute.
func FilePath(path string) slog.Attr {
	return slog.String(KeyFilePath, path)
}

// CommitHash returns a commit hash attribute.
func CommitHash(hash string) slog.Attr {
	return slog.String(KeyCommitHash, hash)
}

// User returns a user attribute.
func User(name string) slog.Attr {
	return slog.String(KeyUser, name)
}

// DurationMs returns an elapsed-time attribute in milliseconds.
func DurationMs(start time.Time) slog.Attr {
	return slog.Float64(KeyDurationMs, Duration(start))
}
