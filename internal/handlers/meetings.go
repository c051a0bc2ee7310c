package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"meeting-search/internal/meeting"
	"meeting-search/internal/search"
	"meeting-search/internal/service"
)

// MeetingsHandler serves meeting-level lookups within a session.
type MeetingsHandler struct {
	service service.MeetingService
}

// NewMeetingsHandler creates a new MeetingsHandler.
func NewMeetingsHandler(svc service.MeetingService) *MeetingsHandler {
	return &MeetingsHandler{service: svc}
}

// MeetingListResponse lists the meetings of a session.
//
// swagger:model MeetingListResponse
type MeetingListResponse struct {
	Meetings  []search.MeetingSummary `json:"meetings"`
	Total     int                     `json:"total"`
	SessionID string                  `json:"session_id"`
}

// SimilarMeetingsResponse lists meetings similar to a reference meeting.
//
// swagger:model SimilarMeetingsResponse
type SimilarMeetingsResponse struct {
	MeetingID string                  `json:"meeting_id"`
	Similar   []search.SimilarMeeting `json:"similar_meetings"`
	Total     int                     `json:"total"`
}

// DeleteMeetingResponse reports a meeting deletion.
//
// swagger:model DeleteMeetingResponse
type DeleteMeetingResponse struct {
	MeetingID     string `json:"meeting_id"`
	ChunksDeleted int    `json:"chunks_deleted"`
}

// List handles GET /api/v1/meetings.
func (h *MeetingsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(r)

	meetings, err := h.service.ListMeetings(ctx, sid)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list meetings")
		return
	}
	writeJSON(ctx, w, http.StatusOK, MeetingListResponse{Meetings: meetings, Total: len(meetings), SessionID: sid})
}

// Get handles GET /api/v1/meetings/{id}.
func (h *MeetingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	content, err := h.service.GetMeeting(ctx, sessionID(r), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to get meeting")
		return
	}
	writeJSON(ctx, w, http.StatusOK, content)
}

// Similar handles GET /api/v1/meetings/{id}/similar?top_k=N.
func (h *MeetingsHandler) Similar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	meetingID := chi.URLParam(r, "id")

	topK := search.DefaultSimilarMeetings
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			handleServiceError(ctx, w, &meeting.ValidationError{Field: "top_k", Message: "must be an integer"}, "Failed to find similar meetings")
			return
		}
		topK = n
	}

	similar, err := h.service.SimilarMeetings(ctx, sessionID(r), meetingID, topK)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to find similar meetings")
		return
	}
	writeJSON(ctx, w, http.StatusOK, SimilarMeetingsResponse{MeetingID: meetingID, Similar: similar, Total: len(similar)})
}

// Delete handles DELETE /api/v1/meetings/{id}.
func (h *MeetingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	meetingID := chi.URLParam(r, "id")

	n, err := h.service.DeleteMeeting(ctx, sessionID(r), meetingID)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to delete meeting")
		return
	}
	writeJSON(ctx, w, http.StatusOK, DeleteMeetingResponse{MeetingID: meetingID, ChunksDeleted: n})
}
