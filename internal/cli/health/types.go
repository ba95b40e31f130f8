// Package health provides shared types for health check responses.
package health

// Response represents the liveness response from GET /health.
type Response struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Data      struct {
		Service   string `json:"service"`
		StartedAt string `json:"started_at"`
		Uptime    string `json:"uptime"`
		UptimeSec int64  `json:"uptime_sec"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}

// Component represents the status of one backing store inside a readiness
// response.
type Component struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// ReadyResponse represents the readiness response from GET /health/ready.
// Data carries one entry per backing store ("metadata", "index").
type ReadyResponse struct {
	Status    string               `json:"status"`
	Timestamp string               `json:"timestamp"`
	Data      map[string]Component `json:"data,omitempty"`
	Error     string               `json:"error,omitempty"`
}

// Healthy reports whether every backing store passed its probe.
func (r *ReadyResponse) Healthy() bool {
	return r.Status == "healthy"
}
