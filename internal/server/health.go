package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
)

// HealthChecker serves liveness and readiness checks.
type HealthChecker struct {
	ready         atomic.Bool
	serverContext *ServerContext
	startTime     time.Time
}

// NewHealthChecker creates a HealthChecker. sc may be nil.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{
		serverContext: sc,
		startTime:     time.Now(),
	}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the server is ready to receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// HealthResponse is the JSON body of the health endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Uptime string            `json:"uptime,omitempty"`
	Checks map[string]string `json:"checks,omitempty"`
}

// checks evaluates every readiness condition.
func (h *HealthChecker) checks() (map[string]string, bool) {
	checks := map[string]string{
		"ready":     healthStatusOK,
		"shutdown":  healthStatusOK,
		"extractor": healthStatusOK,
	}
	ok := true
	if !h.ready.Load() {
		checks["ready"] = healthStatusNotReady
		ok = false
	}
	if h.serverContext != nil && h.serverContext.IsShutdown() {
		checks["shutdown"] = healthStatusShuttingDown
		ok = false
	}
	if h.serverContext != nil && h.serverContext.Extractor() == nil {
		checks["extractor"] = healthStatusNotReady
		ok = false
	}
	return checks, ok
}

// LivenessHandler answers /healthz while the process is running.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler answers /readyz with the individual checks.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		checks, ok := h.checks()
		if !ok {
			writeHealth(w, http.StatusServiceUnavailable, HealthResponse{Status: healthStatusNotReady, Checks: checks})
			return
		}
		writeHealth(w, http.StatusOK, HealthResponse{Status: healthStatusOK, Checks: checks})
	})
}

// DetailedHealthHandler adds the uptime to the readiness result.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		checks, ok := h.checks()
		resp := HealthResponse{
			Status: healthStatusOK,
			Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
			Checks: checks,
		}
		status := http.StatusOK
		if !ok {
			resp.Status = healthStatusNotReady
			status = http.StatusServiceUnavailable
		}
		writeHealth(w, status, resp)
	})
}

// RegisterHealthEndpoints registers the health endpoints on mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}

func writeHealth(w http.ResponseWriter, status int, resp HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
