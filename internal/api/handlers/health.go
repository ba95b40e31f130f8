package handlers

import (
	"context"
	"net/http"
	"time"
)

// Checker reports whether one backing store is reachable.
type Checker interface {
	Healthcheck(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the server process running?
//   - Readiness probe: Are the backing stores reachable?
type HealthHandler struct {
	checkers map[string]Checker
	started  time.Time
}

// NewHealthHandler creates a new health handler.
//
// The checkers map names each backing store ("metadata", "index") to its
// health probe. It may be empty, in which case readiness always succeeds.
func NewHealthHandler(checkers map[string]Checker) *HealthHandler {
	return &HealthHandler{checkers: checkers, started: time.Now()}
}

// LivenessData is the payload of the liveness probe. The uptime fields let
// 'notesvc status' report how long the server has been up without a second
// endpoint.
type LivenessData struct {
	Service   string `json:"service"`
	StartedAt string `json:"started_at"`
	Uptime    string `json:"uptime"`
	UptimeSec int64  `json:"uptime_sec"`
}

// Liveness handles GET /health - simple liveness probe.
//
// Returns 200 OK if the server process is running. This endpoint is designed
// for Kubernetes liveness probes and should always succeed as long as the
// HTTP server is responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	up := time.Since(h.started)
	writeJSON(w, http.StatusOK, healthyResponse(LivenessData{
		Service:   "notesvc",
		StartedAt: h.started.UTC().Format(time.RFC3339),
		Uptime:    up.String(),
		UptimeSec: int64(up.Seconds()),
	}))
}

// ComponentHealth represents the health status of a single backing store.
type ComponentHealth struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Readiness handles GET /health/ready - readiness probe.
//
// Runs every registered store healthcheck with a shared timeout. Returns 200
// OK with per-component status when all pass, 503 Service Unavailable when
// any fails.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	components := make(map[string]ComponentHealth, len(h.checkers))
	allHealthy := true

	for name, checker := range h.checkers {
		start := time.Now()
		err := checker.Healthcheck(ctx)
		latency := time.Since(start)

		health := ComponentHealth{
			Status:  "healthy",
			Latency: latency.String(),
		}
		if err != nil {
			health.Status = "unhealthy"
			health.Error = err.Error()
			allHealthy = false
		}

		components[name] = health
	}

	if allHealthy {
		writeJSON(w, http.StatusOK, healthyResponse(components))
	} else {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponseWithData(components))
	}
}
