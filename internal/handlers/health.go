package handlers

import (
	"context"
	"net/http"
	"time"

	"meeting-search/internal/contextutil"
)

// HealthChecker reports whether an optional dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	vectorStore        HealthChecker
	healthCheckTimeout time.Duration
	now                func() time.Time
}

// NewHealthHandler creates a new HealthHandler. vectorStore may be nil when
// the Qdrant mirror is disabled.
func NewHealthHandler(vectorStore HealthChecker) *HealthHandler {
	return &HealthHandler{
		vectorStore:        vectorStore,
		healthCheckTimeout: 5 * time.Second,
		now:                time.Now,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy" or "degraded"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is degraded)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// The in-process index is always available, so the endpoint answers 200.
// An unreachable Qdrant mirror marks the service degraded.
//
// swagger:route GET /api/v1/health healthCheck
//
// responses:
//
//	'200':
//	  description: Health status
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	checks := map[string]string{"index": "ok"}
	var issues []string

	switch {
	case h.vectorStore == nil:
		checks["vector_store"] = "disabled"
	default:
		checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
		err := h.vectorStore.HealthCheck(checkCtx)
		cancel()
		if err != nil {
			logger.WarnContext(ctx, "vector store health check failed", "error", err)
			checks["vector_store"] = "error"
			issues = append(issues, "vector_store_unavailable")
		} else {
			checks["vector_store"] = "ok"
		}
	}

	status := "healthy"
	if len(issues) > 0 {
		status = "degraded"
	}

	writeJSON(ctx, w, http.StatusOK, HealthResponse{
		Status:    status,
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	})
}
