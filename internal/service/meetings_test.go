package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meeting-search/internal/analytics"
	"meeting-search/internal/ingest"
	"meeting-search/internal/llm"
	"meeting-search/internal/meeting"
	"meeting-search/internal/search"
	"meeting-search/internal/service"
	"meeting-search/internal/session"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var vocabulary = []string{"budget", "report", "vendor", "roadmap"}

// keywordEmbedder counts vocabulary words, with a constant last component
// so that no vector is zero.
type keywordEmbedder struct{}

func (keywordEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, len(vocabulary)+1)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			for j, v := range vocabulary {
				if strings.Trim(word, ".,") == v {
					vec[j]++
				}
			}
		}
		vec[len(vocabulary)] = 0.01
		out[i] = vec
	}
	return out, nil
}

// stallingEmbedder blocks until the caller's context ends.
type stallingEmbedder struct{}

func (stallingEmbedder) EmbedTexts(ctx context.Context, _ []string) ([][]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// lateEmbedder answers only after the caller's context has ended, as a
// backend that ignores cancellation would.
type lateEmbedder struct{}

func (lateEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	<-ctx.Done()
	return keywordEmbedder{}.EmbedTexts(context.Background(), texts)
}

func newService(t *testing.T, embedder llm.Embedder, opts service.Options) service.MeetingService {
	t.Helper()
	registry := session.NewRegistry(session.Options{IdleTimeout: -1})
	t.Cleanup(func() { _ = registry.Close() })
	return service.NewMeetingService(
		registry,
		ingest.NewPipeline(embedder, ingest.Options{}),
		search.NewEngine(embedder, search.Options{}),
		analytics.NewAggregator(analytics.Options{EmbeddingModel: "test-embed"}),
		opts,
	)
}

func ingestScenario(t *testing.T, svc service.MeetingService, sessionID string) {
	t.Helper()
	ctx := context.Background()
	jan := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	inputs := []struct {
		fragment meeting.Fragment
		meta     meeting.Metadata
	}{
		{
			meeting.Fragment{Type: meeting.ContentSummary, Text: "approved budget increase"},
			meeting.Metadata{ID: "m1", Title: "Budget", Date: jan, Participants: []string{"A", "B"}},
		},
		{
			meeting.Fragment{Type: meeting.ContentActionItem, Text: "A to send report"},
			meeting.Metadata{ID: "m1", Title: "Budget", Date: jan, Participants: []string{"A"}},
		},
		{
			meeting.Fragment{Type: meeting.ContentDecision, Text: "migrate to new vendor"},
			meeting.Metadata{ID: "m2", Title: "Vendors", Date: feb, Participants: []string{"B", "C"}},
		},
	}
	for _, in := range inputs {
		_, err := svc.Ingest(ctx, sessionID, in.fragment, in.meta)
		require.NoError(t, err)
	}
}

func TestMeetingService_IngestSearchAnalytics(t *testing.T) {
	svc := newService(t, keywordEmbedder{}, service.Options{})
	ctx := context.Background()
	ingestScenario(t, svc, "s1")

	results, err := svc.Search(ctx, "s1", search.Query{Text: "budget", TopK: 5})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "approved budget increase", results[0].Snippet)
	assert.Equal(t, meeting.ContentSummary, results[0].ContentType)

	decisions, err := svc.Search(ctx, "s1", search.Query{
		Text:         "budget",
		TopK:         5,
		ContentTypes: []meeting.ContentType{meeting.ContentDecision},
	})
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, "m2", decisions[0].MeetingID)

	snapshot, err := svc.GetAnalytics(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, snapshot.TotalChunks)
	assert.Equal(t, 1, snapshot.ContentDistribution[meeting.ContentSummary])
	assert.Equal(t, 1, snapshot.ParticipantActivity["A"])
	assert.Equal(t, 2, snapshot.ParticipantActivity["B"])
	assert.Equal(t, map[string]int{"2025-01": 1, "2025-02": 1}, snapshot.MonthlyActivity)

	stats, err := svc.Statistics(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalDocuments)
	assert.Equal(t, len(vocabulary)+1, stats.EmbeddingDimension)
	assert.Equal(t, "test-embed", stats.EmbeddingModel)
}

func TestMeetingService_SessionsAreIsolated(t *testing.T) {
	svc := newService(t, keywordEmbedder{}, service.Options{})
	ctx := context.Background()
	ingestScenario(t, svc, "s1")

	results, err := svc.Search(ctx, "s2", search.Query{Text: "budget", TopK: 5})
	require.NoError(t, err)
	assert.Empty(t, results)

	snapshot, err := svc.GetAnalytics(ctx, "s2")
	require.NoError(t, err)
	assert.Zero(t, snapshot.TotalChunks)
}

func TestMeetingService_MeetingOperations(t *testing.T) {
	svc := newService(t, keywordEmbedder{}, service.Options{})
	ctx := context.Background()
	ingestScenario(t, svc, "s1")

	meetings, err := svc.ListMeetings(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, meetings, 2)

	content, err := svc.GetMeeting(ctx, "s1", "m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"approved budget increase"}, content.Content[meeting.ContentSummary])

	similar, err := svc.SimilarMeetings(ctx, "s1", "m1", 5)
	require.NoError(t, err)
	for _, m := range similar {
		assert.NotEqual(t, "m1", m.MeetingID)
	}

	removed, err := svc.DeleteMeeting(ctx, "s1", "m1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = svc.GetMeeting(ctx, "s1", "m1")
	assert.ErrorIs(t, err, meeting.ErrNotFound)

	_, err = svc.DeleteMeeting(ctx, "s1", "m1")
	assert.ErrorIs(t, err, meeting.ErrNotFound)
}

func TestMeetingService_EvictAndClear(t *testing.T) {
	svc := newService(t, keywordEmbedder{}, service.Options{})
	ctx := context.Background()
	ingestScenario(t, svc, "s1")
	ingestScenario(t, svc, "s2")

	infos := svc.SessionsInfo(ctx)
	require.Len(t, infos, 2)
	assert.Equal(t, "s1", infos[0].ID)
	assert.Equal(t, 3, infos[0].Chunks)

	require.NoError(t, svc.EvictSession(ctx, "s1"))
	assert.ErrorIs(t, svc.EvictSession(ctx, "s1"), meeting.ErrNotFound)

	results, err := svc.Search(ctx, "s1", search.Query{Text: "budget", TopK: 5})
	require.NoError(t, err)
	assert.Empty(t, results, "an evicted session starts over empty")

	n, err := svc.ClearSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, svc.SessionsInfo(ctx))
}

func TestMeetingService_SearchValidation(t *testing.T) {
	svc := newService(t, keywordEmbedder{}, service.Options{})
	ctx := context.Background()

	tests := []struct {
		name      string
		sessionID string
		query     search.Query
	}{
		{"empty query", "s1", search.Query{Text: "  ", TopK: 5}},
		{"non-positive top_k", "s1", search.Query{Text: "budget", TopK: 0}},
		{"invalid session id", "../etc", search.Query{Text: "budget", TopK: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Search(ctx, tt.sessionID, tt.query)
			assert.ErrorIs(t, err, meeting.ErrInvalidInput)
		})
	}
	assert.Empty(t, svc.SessionsInfo(ctx), "rejected queries must not create sessions")
}

func TestMeetingService_SearchTimeout(t *testing.T) {
	tests := []struct {
		name     string
		embedder llm.Embedder
	}{
		{name: "embedder honours cancellation", embedder: stallingEmbedder{}},
		{name: "embedder answers after deadline", embedder: lateEmbedder{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := session.NewRegistry(session.Options{IdleTimeout: -1})
			ctx := context.Background()

			// Ingest through a working embedder, then search through the slow one.
			pipeline := ingest.NewPipeline(keywordEmbedder{}, ingest.Options{})
			s, err := registry.GetOrCreate(ctx, "s1")
			require.NoError(t, err)
			_, err = pipeline.Ingest(ctx, s, meeting.Fragment{Type: meeting.ContentSummary, Text: "budget"}, meeting.Metadata{ID: "m1"})
			require.NoError(t, err)

			svc := service.NewMeetingService(
				registry,
				pipeline,
				search.NewEngine(tt.embedder, search.Options{}),
				analytics.NewAggregator(analytics.Options{}),
				service.Options{SearchTimeout: 20 * time.Millisecond},
			)

			start := time.Now()
			_, err = svc.Search(ctx, "s1", search.Query{Text: "budget", TopK: 5})
			require.Error(t, err)
			assert.ErrorIs(t, err, meeting.ErrExternalService)
			assert.True(t, errors.Is(err, context.DeadlineExceeded))
			assert.Less(t, time.Since(start), 5*time.Second)

			// The session is still usable after the abandoned search.
			info := registry.Infos()
			require.Len(t, info, 1)
			assert.Equal(t, 1, info[0].Chunks)
		})
	}
}
