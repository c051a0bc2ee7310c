package handlers

import (
	"net/http"

	"meeting-search/internal/analytics"
	"meeting-search/internal/service"
)

// AnalyticsHandler serves session analytics and index statistics.
type AnalyticsHandler struct {
	service service.MeetingService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(svc service.MeetingService) *AnalyticsHandler {
	return &AnalyticsHandler{service: svc}
}

// AnalyticsResponse wraps an analytics snapshot.
//
// swagger:model AnalyticsResponse
type AnalyticsResponse struct {
	analytics.Snapshot
	SessionID string `json:"session_id"`
}

// StatisticsResponse wraps index statistics.
//
// swagger:model StatisticsResponse
type StatisticsResponse struct {
	analytics.Statistics
	SessionID string `json:"session_id"`
}

// Analytics handles GET /api/v1/analytics.
func (h *AnalyticsHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(r)

	snapshot, err := h.service.GetAnalytics(ctx, sid)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to compute analytics")
		return
	}
	writeJSON(ctx, w, http.StatusOK, AnalyticsResponse{Snapshot: snapshot, SessionID: sid})
}

// Statistics handles GET /api/v1/statistics.
func (h *AnalyticsHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(r)

	stats, err := h.service.Statistics(ctx, sid)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to compute statistics")
		return
	}
	writeJSON(ctx, w, http.StatusOK, StatisticsResponse{Statistics: stats, SessionID: sid})
}
