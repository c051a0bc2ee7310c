// Package service exposes the meeting search operations behind one facade
// keyed by session id.
package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_meeting_service.go -package=mocks -mock_names=MeetingService=MockMeetingService meeting-search/internal/service MeetingService

import (
	"context"
	"io"
	"time"

	"meeting-search/internal/analytics"
	"meeting-search/internal/contextutil"
	"meeting-search/internal/ingest"
	"meeting-search/internal/meeting"
	"meeting-search/internal/search"
	"meeting-search/internal/session"
)

// DefaultSearchTimeout bounds a single search call.
const DefaultSearchTimeout = 30 * time.Second

// MeetingService provides session-scoped ingestion, search and analytics.
// Sessions are created on first use.
type MeetingService interface {
	// Ingest builds, embeds and inserts one fragment.
	Ingest(ctx context.Context, sessionID string, fragment meeting.Fragment, meta meeting.Metadata) (meeting.Chunk, error)
	// Upload transcribes or reads an uploaded file, analyzes it and indexes every fragment.
	Upload(ctx context.Context, sessionID string, upload ingest.Upload, r io.Reader) (ingest.UploadResult, error)
	// Search runs a query against the session.
	Search(ctx context.Context, sessionID string, q search.Query) ([]search.Result, error)
	// GetAnalytics aggregates the session's metadata.
	GetAnalytics(ctx context.Context, sessionID string) (analytics.Snapshot, error)
	// Statistics describes the session's index.
	Statistics(ctx context.Context, sessionID string) (analytics.Statistics, error)
	// ListMeetings lists the meetings in the session.
	ListMeetings(ctx context.Context, sessionID string) ([]search.MeetingSummary, error)
	// GetMeeting returns one meeting's content.
	GetMeeting(ctx context.Context, sessionID, meetingID string) (search.MeetingContent, error)
	// SimilarMeetings ranks other meetings by similarity to meetingID.
	SimilarMeetings(ctx context.Context, sessionID, meetingID string, topK int) ([]search.SimilarMeeting, error)
	// DeleteMeeting removes every chunk of a meeting and returns how many were removed.
	DeleteMeeting(ctx context.Context, sessionID, meetingID string) (int, error)
	// EvictSession drops the session and its persisted data.
	EvictSession(ctx context.Context, sessionID string) error
	// SessionsInfo describes every loaded session.
	SessionsInfo(ctx context.Context) []session.Info
	// ClearSessions evicts every session and returns how many were dropped.
	ClearSessions(ctx context.Context) (int, error)
}

// Options configures a MeetingService.
type Options struct {
	// SearchTimeout bounds each search. Zero uses DefaultSearchTimeout;
	// a negative value disables the bound.
	SearchTimeout time.Duration
}

// meetingService implements MeetingService.
type meetingService struct {
	registry      *session.Registry
	pipeline      *ingest.Pipeline
	engine        search.Engine
	aggregator    *analytics.Aggregator
	searchTimeout time.Duration
}

// NewMeetingService creates a new MeetingService.
func NewMeetingService(
	registry *session.Registry,
	pipeline *ingest.Pipeline,
	engine search.Engine,
	aggregator *analytics.Aggregator,
	opts Options,
) MeetingService {
	timeout := opts.SearchTimeout
	if timeout == 0 {
		timeout = DefaultSearchTimeout
	}
	return &meetingService{
		registry:      registry,
		pipeline:      pipeline,
		engine:        engine,
		aggregator:    aggregator,
		searchTimeout: timeout,
	}
}

func (s *meetingService) Ingest(ctx context.Context, sessionID string, fragment meeting.Fragment, meta meeting.Metadata) (meeting.Chunk, error) {
	sess, err := s.registry.GetOrCreate(ctx, sessionID)
	if err != nil {
		return meeting.Chunk{}, err
	}
	return s.pipeline.Ingest(ctx, sess, fragment, meta)
}

func (s *meetingService) Upload(ctx context.Context, sessionID string, upload ingest.Upload, r io.Reader) (ingest.UploadResult, error) {
	sess, err := s.registry.GetOrCreate(ctx, sessionID)
	if err != nil {
		return ingest.UploadResult{}, err
	}
	return s.pipeline.ProcessUpload(ctx, sess, upload, r)
}

// Search validates the query before touching the registry, then runs it
// under the configured time budget.
func (s *meetingService) Search(ctx context.Context, sessionID string, q search.Query) ([]search.Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := search.Validate(q); err != nil {
		logger.WarnContext(ctx, "invalid search query", "error", err)
		return nil, err
	}

	sess, err := s.registry.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if s.searchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.searchTimeout)
		defer cancel()
	}

	start := time.Now()
	results, err := s.engine.Search(ctx, sess, q)
	if err != nil {
		logger.ErrorContext(ctx, "search failed", "session_id", sessionID, "error", err)
		return nil, err
	}

	logger.InfoContext(ctx, "search completed",
		"session_id", sessionID,
		"top_k", q.TopK,
		"results", len(results),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return results, nil
}

func (s *meetingService) GetAnalytics(ctx context.Context, sessionID string) (analytics.Snapshot, error) {
	sess, err := s.registry.GetOrCreate(ctx, sessionID)
	if err != nil {
		return analytics.Snapshot{}, err
	}
	return s.aggregator.Aggregate(ctx, sess)
}

func (s *meetingService) Statistics(ctx context.Context, sessionID string) (analytics.Statistics, error) {
	sess, err := s.registry.GetOrCreate(ctx, sessionID)
	if err != nil {
		return analytics.Statistics{}, err
	}
	return s.aggregator.Statistics(ctx, sess)
}

func (s *meetingService) ListMeetings(ctx context.Context, sessionID string) ([]search.MeetingSummary, error) {
	sess, err := s.registry.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.engine.ListMeetings(ctx, sess)
}

func (s *meetingService) GetMeeting(ctx context.Context, sessionID, meetingID string) (search.MeetingContent, error) {
	sess, err := s.registry.GetOrCreate(ctx, sessionID)
	if err != nil {
		return search.MeetingContent{}, err
	}
	return s.engine.GetMeeting(ctx, sess, meetingID)
}

func (s *meetingService) SimilarMeetings(ctx context.Context, sessionID, meetingID string, topK int) ([]search.SimilarMeeting, error) {
	sess, err := s.registry.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.engine.SimilarMeetings(ctx, sess, meetingID, topK)
}

func (s *meetingService) DeleteMeeting(ctx context.Context, sessionID, meetingID string) (int, error) {
	sess, err := s.registry.GetOrCreate(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	ids, err := s.pipeline.RemoveMeeting(ctx, sess, meetingID)
	if err != nil {
		return 0, err
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "deleted meeting", "session_id", sessionID, "meeting_id", meetingID, "chunks", len(ids))
	return len(ids), nil
}

func (s *meetingService) EvictSession(ctx context.Context, sessionID string) error {
	return s.registry.Evict(ctx, sessionID)
}

func (s *meetingService) SessionsInfo(_ context.Context) []session.Info {
	return s.registry.Infos()
}

func (s *meetingService) ClearSessions(ctx context.Context) (int, error) {
	n, err := s.registry.ClearAll(ctx)
	if err != nil {
		return n, err
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "cleared sessions", "count", n)
	return n, nil
}
