package handlers

import (
	"encoding/json"
	"net/http"

	"meeting-search/internal/contextutil"
	"meeting-search/internal/search"
	"meeting-search/internal/service"
)

// SearchHandler handles HTTP requests for meeting search.
type SearchHandler struct {
	service service.MeetingService
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(svc service.MeetingService) *SearchHandler {
	return &SearchHandler{service: svc}
}

// SearchRequest represents the HTTP request payload for search.
//
// swagger:model SearchRequest
type SearchRequest struct {
	Query string `json:"query"`
	// TopK defaults to 10 when omitted. An explicit zero or negative value is rejected.
	TopK         *int     `json:"top_k,omitempty"`
	ContentTypes []string `json:"content_types,omitempty"`
	DateFrom     string   `json:"date_from,omitempty"`
	DateTo       string   `json:"date_to,omitempty"`
	Participants []string `json:"participants,omitempty"`
	MinRelevance *float64 `json:"min_relevance,omitempty"`
}

// SearchResponse represents the HTTP response payload for search.
//
// swagger:model SearchResponse
type SearchResponse struct {
	Query     string          `json:"query"`
	Results   []search.Result `json:"results"`
	Total     int             `json:"total"`
	SessionID string          `json:"session_id"`
}

// ServeHTTP handles POST /api/v1/search.
//
// responses:
//
//	'200': SearchResponse
//	'400': invalid query
//	'502': embedding service unavailable
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	q, err := req.toQuery()
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to search")
		return
	}

	sid := sessionID(r)
	results, err := h.service.Search(ctx, sid, q)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to search")
		return
	}

	writeJSON(ctx, w, http.StatusOK, SearchResponse{
		Query:     q.Text,
		Results:   results,
		Total:     len(results),
		SessionID: sid,
	})
}

func (req SearchRequest) toQuery() (search.Query, error) {
	q := search.Query{
		Text:         req.Query,
		TopK:         search.DefaultTopK,
		Participants: req.Participants,
		MinRelevance: req.MinRelevance,
	}
	if req.TopK != nil {
		q.TopK = *req.TopK
	}

	var err error
	if q.ContentTypes, err = parseContentTypes(req.ContentTypes); err != nil {
		return search.Query{}, err
	}
	if q.DateFrom, err = parseDate("date_from", req.DateFrom); err != nil {
		return search.Query{}, err
	}
	if q.DateTo, err = parseDate("date_to", req.DateTo); err != nil {
		return search.Query{}, err
	}
	return q, nil
}
