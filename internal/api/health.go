package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse reports the relay's overall and per-component health.
type HealthResponse struct {
	Status     string            `json:"status"` // "ok" or "degraded"
	Version    string            `json:"version"`
	Timestamp  string            `json:"timestamp"`
	Components map[string]string `json:"components"`
}

// StatsResponse reports pipeline throughput counters.
type StatsResponse struct {
	MessagesProcessed uint64 `json:"messages_processed"`
	MessagesDropped   uint64 `json:"messages_dropped"`
}

// handleHealth runs every registered component check and reports the
// aggregate. A degraded relay answers 503 so probes fail over.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:     "ok",
		Version:    s.version,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: make(map[string]string, len(s.checks)),
	}

	for name, check := range s.checks {
		if err := check.HealthCheck(ctx); err != nil {
			resp.Status = "degraded"
			resp.Components[name] = err.Error()
			continue
		}
		resp.Components[name] = "ok"
	}

	code := http.StatusOK
	if resp.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// handleStats reports how many messages were published and dropped.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	var resp StatsResponse
	if s.stats != nil {
		resp.MessagesProcessed, resp.MessagesDropped = s.stats()
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client gone, nothing to do
}
