package handlers

import (
	"encoding/json"
	"net/http"

	"meeting-search/internal/contextutil"
	"meeting-search/internal/ingest"
	"meeting-search/internal/meeting"
	"meeting-search/internal/service"
)

// IngestHandler handles HTTP requests that index a single fragment.
type IngestHandler struct {
	service service.MeetingService
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(svc service.MeetingService) *IngestHandler {
	return &IngestHandler{service: svc}
}

// MeetingMetadata describes the meeting a fragment belongs to.
//
// swagger:model MeetingMetadata
type MeetingMetadata struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Date         string   `json:"date,omitempty"`
	Participants []string `json:"participants,omitempty"`
	Language     string   `json:"language,omitempty"`
}

// IngestRequest represents the HTTP request payload for ingestion.
//
// swagger:model IngestRequest
type IngestRequest struct {
	ContentType string          `json:"content_type"`
	Text        string          `json:"text"`
	Meeting     MeetingMetadata `json:"meeting"`
}

// IngestResponse represents the HTTP response payload for ingestion.
//
// swagger:model IngestResponse
type IngestResponse struct {
	ChunkID     string              `json:"chunk_id"`
	MeetingID   string              `json:"meeting_id"`
	ContentType meeting.ContentType `json:"content_type"`
	SessionID   string              `json:"session_id"`
}

// ServeHTTP handles POST /api/v1/ingest.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	contentType, err := meeting.ParseContentType(req.ContentType)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to ingest fragment")
		return
	}
	date, err := parseDate("meeting.date", req.Meeting.Date)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to ingest fragment")
		return
	}

	meta := meeting.Metadata{
		ID:           req.Meeting.ID,
		Title:        req.Meeting.Title,
		Participants: req.Meeting.Participants,
		Language:     req.Meeting.Language,
	}
	if date != nil {
		meta.Date = *date
	}

	sid := sessionID(r)
	chunk, err := h.service.Ingest(ctx, sid, meeting.Fragment{Type: contentType, Text: req.Text}, meta)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to ingest fragment")
		return
	}

	writeJSON(ctx, w, http.StatusCreated, IngestResponse{
		ChunkID:     chunk.ID,
		MeetingID:   chunk.MeetingID,
		ContentType: chunk.ContentType,
		SessionID:   sid,
	})
}

// UploadHandler handles multipart meeting file uploads.
type UploadHandler struct {
	service   service.MeetingService
	maxMemory int64
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(svc service.MeetingService) *UploadHandler {
	return &UploadHandler{service: svc, maxMemory: 32 << 20}
}

// UploadResponse represents the HTTP response payload for uploads.
//
// swagger:model UploadResponse
type UploadResponse struct {
	ingest.UploadResult
	SessionID string `json:"session_id"`
}

// ServeHTTP handles POST /api/v1/upload. The file is read from the "file"
// form field; title, date, participants (comma-separated), language and
// meeting_id are optional form fields.
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if err := r.ParseMultipartForm(h.maxMemory); err != nil {
		logger.WarnContext(ctx, "invalid multipart form", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		logger.WarnContext(ctx, "missing upload file", "error", err)
		writeError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	date, err := parseDate("date", r.FormValue("date"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to process upload")
		return
	}

	upload := ingest.Upload{
		Filename:     header.Filename,
		MeetingID:    r.FormValue("meeting_id"),
		Title:        r.FormValue("title"),
		Participants: splitList(r.FormValue("participants")),
		Language:     r.FormValue("language"),
	}
	if date != nil {
		upload.Date = *date
	}

	sid := sessionID(r)
	result, err := h.service.Upload(ctx, sid, upload, file)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to process upload")
		return
	}

	writeJSON(ctx, w, http.StatusCreated, UploadResponse{UploadResult: result, SessionID: sid})
}
