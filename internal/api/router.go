package api

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/david-YJ-Kim/notesvc/internal/api/handlers"
	"github.com/david-YJ-Kim/notesvc/internal/logger"
)

// RequestMetrics records one observation per completed HTTP request.
// Implementations must tolerate being called on a nil receiver.
type RequestMetrics interface {
	ObserveRequest(method, route string, status int, duration time.Duration)
}

// Deps carries everything the HTTP surface serves.
type Deps struct {
	// Notes is the coordinator behind the /notes endpoints.
	Notes handlers.NoteService

	// Health names each backing store to probe from /health/ready.
	Health map[string]handlers.Checker

	// Metrics serves GET /metrics. Nil leaves the route unmounted.
	Metrics http.Handler

	// HTTPMetrics observes completed requests. May be nil.
	HTTPMetrics RequestMetrics
}

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Per-request metrics observation
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - GET /metrics - Prometheus metrics (when enabled)
//   - GET /notes - Paginated listing with hybrid search
//   - GET /notes/folder-tree - Folder tree view
//   - POST /notes/save - Create or update a note
//   - GET /notes/{title}/history - Revision history with diffs
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(requestMetrics(deps.HTTPMetrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Health routes - unauthenticated
	healthHandler := handlers.NewHealthHandler(deps.Health)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	// Note routes
	noteHandler := handlers.NewNoteHandler(deps.Notes)
	r.Route("/notes", func(r chi.Router) {
		r.Get("/", noteHandler.List)
		r.Get("/folder-tree", noteHandler.Tree)
		r.Post("/save", noteHandler.Save)
		r.Get("/{title}/history", noteHandler.History)
	})

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// isHealthPath returns true if the request path is a healthcheck endpoint.
func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}

// requestLogger is a custom middleware that logs requests using the internal logger.
//
// It seeds the request context with a LogContext so downstream log lines carry
// the request ID, method, path and client IP, then logs:
//   - Request start (DEBUG level)
//   - Request completion (INFO level): status, bytes, duration
//   - Healthcheck requests are logged at DEBUG level to reduce noise
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		lc := logger.NewLogContext(requestID, r.Method, r.URL.Path, clientIP(r.RemoteAddr))
		ctx := logger.WithContext(r.Context(), lc)
		r = r.WithContext(ctx)

		logger.DebugCtx(ctx, "API request started")

		// Wrap response writer to capture status code
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logArgs := []any{
			logger.KeyStatus, ww.Status(),
			"bytes", ww.BytesWritten(),
			logger.KeyDurationMs, logger.Duration(start),
		}

		// Log healthcheck requests at DEBUG to avoid polluting logs in k8s
		if isHealthPath(r.URL.Path) {
			logger.DebugCtx(ctx, "API request completed", logArgs...)
		} else {
			logger.InfoCtx(ctx, "API request completed", logArgs...)
		}
	})
}

// requestMetrics observes method, matched route pattern, status and duration
// for every completed request. Sits outside Recoverer so panics are recorded
// as the 500 they produce.
func requestMetrics(m RequestMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(r.Method, route, ww.Status(), time.Since(start))
		})
	}
}

// clientIP strips the port from a RemoteAddr, tolerating bare IPs.
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
