package handlers

import (
	"net/http"

	"meeting-search/internal/service"
	"meeting-search/internal/session"
)

// SessionsHandler serves session administration endpoints.
type SessionsHandler struct {
	service service.MeetingService
}

// NewSessionsHandler creates a new SessionsHandler.
func NewSessionsHandler(svc service.MeetingService) *SessionsHandler {
	return &SessionsHandler{service: svc}
}

// SessionsInfoResponse describes the loaded sessions.
//
// swagger:model SessionsInfoResponse
type SessionsInfoResponse struct {
	CurrentSession string         `json:"current_session"`
	Sessions       []session.Info `json:"sessions"`
	Total          int            `json:"total"`
}

// EvictResponse reports a session eviction.
//
// swagger:model EvictResponse
type EvictResponse struct {
	SessionID string `json:"session_id"`
	Evicted   bool   `json:"evicted"`
}

// ClearResponse reports how many sessions were cleared.
//
// swagger:model ClearResponse
type ClearResponse struct {
	Cleared int `json:"cleared"`
}

// Info handles GET /api/v1/sessions/info.
func (h *SessionsHandler) Info(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	infos := h.service.SessionsInfo(ctx)
	if infos == nil {
		infos = []session.Info{}
	}
	writeJSON(ctx, w, http.StatusOK, SessionsInfoResponse{
		CurrentSession: sessionID(r),
		Sessions:       infos,
		Total:          len(infos),
	})
}

// EvictCurrent handles DELETE /api/v1/sessions/current.
func (h *SessionsHandler) EvictCurrent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(r)

	if err := h.service.EvictSession(ctx, sid); err != nil {
		handleServiceError(ctx, w, err, "Failed to evict session")
		return
	}
	writeJSON(ctx, w, http.StatusOK, EvictResponse{SessionID: sid, Evicted: true})
}

// ClearAll handles POST /api/v1/sessions/clear-all.
func (h *SessionsHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	n, err := h.service.ClearSessions(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to clear sessions")
		return
	}
	writeJSON(ctx, w, http.StatusOK, ClearResponse{Cleared: n})
}
