package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noted-app/noted-api/internal/queue"
	"github.com/noted-app/noted-api/internal/storage"
)

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthChecker serves the health endpoint. The plain mode answers
// immediately; extended mode probes storage and, when configured, the job
// queue.
type HealthChecker struct {
	store    storage.Store
	jobQueue queue.JobQueue
	logger   *zap.Logger
}

// NewHealthChecker creates a health checker. jobQueue may be nil when no
// broker is configured.
func NewHealthChecker(store storage.Store, jobQueue queue.JobQueue, log *zap.Logger) *HealthChecker {
	if log == nil {
		log = zap.NewNop()
	}
	return &HealthChecker{store: store, jobQueue: jobQueue, logger: log}
}

// Health handles GET /healthz. With ?mode=extended it runs the dependency
// probes and answers 503 when any fails.
func (h *HealthChecker) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if r.URL.Query().Get("mode") == "extended" {
		response.Checks = make(map[string]string)
		healthy := true

		if pinger, ok := h.store.(storage.Pinger); ok {
			if err := pinger.Ping(r.Context()); err != nil {
				h.logger.Warn("health_storage_check_failed", zap.Error(err))
				response.Checks["storage"] = "unhealthy"
				healthy = false
			} else {
				response.Checks["storage"] = "ok"
			}
		} else {
			// File-backed stores have nothing to probe.
			response.Checks["storage"] = "ok"
		}

		if h.jobQueue != nil {
			if err := h.jobQueue.HealthCheck(r.Context()); err != nil {
				h.logger.Warn("health_queue_check_failed", zap.Error(err))
				response.Checks["queue"] = "unhealthy"
				healthy = false
			} else {
				response.Checks["queue"] = "ok"
			}
		}

		if !healthy {
			response.Status = "unhealthy"
			respondJSON(w, http.StatusServiceUnavailable, response)
			return
		}
	}

	respondJSON(w, http.StatusOK, response)
}
