package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	llm_mocks "meeting-search/internal/llm/mocks"
	"meeting-search/internal/meeting"
	"meeting-search/internal/session"
)

// bagOfWords embeds text as term counts over a fixed vocabulary, plus a
// small constant component so no vector is zero.
type bagOfWords struct {
	vocab []string
	calls int
}

func newBagOfWords(vocab ...string) *bagOfWords {
	return &bagOfWords{vocab: vocab}
}

func (b *bagOfWords) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	b.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, len(b.vocab)+1)
		for _, token := range tokenize(text) {
			for j, word := range b.vocab {
				if token == word {
					vec[j]++
				}
			}
		}
		vec[len(b.vocab)] = 0.01
		out[i] = vec
	}
	return out, nil
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }

var created = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func chunk(id, meetingID string, ct meeting.ContentType, day string, participants []string, text string) meeting.Chunk {
	return meeting.Chunk{
		ID:           id,
		MeetingID:    meetingID,
		MeetingTitle: "Title " + meetingID,
		MeetingDate:  date(day),
		ContentType:  ct,
		Text:         text,
		Participants: participants,
		Language:     "en",
		CreatedAt:    created,
	}
}

// scenarioSession loads the three-chunk corpus used across these tests.
func scenarioSession(t *testing.T, embedder *bagOfWords) *session.Session {
	t.Helper()
	chunks := []meeting.Chunk{
		chunk("c1", "m1", meeting.ContentSummary, "2025-01-10", []string{"A", "B"}, "approved budget increase"),
		chunk("c2", "m1", meeting.ContentActionItem, "2025-01-10", []string{"A"}, "A to send report"),
		chunk("c3", "m2", meeting.ContentDecision, "2025-02-01", []string{"B", "C"}, "migrate to new vendor"),
	}
	return sessionWith(t, embedder, chunks...)
}

func sessionWith(t *testing.T, embedder *bagOfWords, chunks ...meeting.Chunk) *session.Session {
	t.Helper()
	ctx := context.Background()
	registry := session.NewRegistry(session.Options{})
	s, err := registry.GetOrCreate(ctx, "test")
	require.NoError(t, err)

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := embedder.EmbedTexts(ctx, texts)
	require.NoError(t, err)

	entries := make([]session.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = session.Entry{Chunk: c, Vector: vectors[i]}
	}
	require.NoError(t, s.Insert(ctx, entries...))
	embedder.calls = 0
	return s
}

func scenarioEmbedder() *bagOfWords {
	return newBagOfWords("budget", "approved", "increase", "report", "send", "vendor", "migrate", "new")
}

func ids(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ChunkID
	}
	return out
}

func TestSearch_Scenario(t *testing.T) {
	embedder := scenarioEmbedder()
	s := scenarioSession(t, embedder)
	engine := NewEngine(embedder, Options{})
	ctx := context.Background()

	t.Run("budget query ranks the summary first", func(t *testing.T) {
		results, err := engine.Search(ctx, s, Query{Text: "budget", TopK: 5})
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, "c1", results[0].ChunkID)
		assert.LessOrEqual(t, len(results), 5)
	})

	t.Run("content type filter ignores relevance", func(t *testing.T) {
		results, err := engine.Search(ctx, s, Query{
			Text:         "budget",
			TopK:         5,
			ContentTypes: []meeting.ContentType{meeting.ContentDecision},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"c3"}, ids(results))
	})

	t.Run("date_from excludes earlier meetings", func(t *testing.T) {
		results, err := engine.Search(ctx, s, Query{Text: "budget", TopK: 5, DateFrom: ptr(date("2025-02-01"))})
		require.NoError(t, err)
		assert.Equal(t, []string{"c3"}, ids(results))
	})

	t.Run("date_to is inclusive", func(t *testing.T) {
		results, err := engine.Search(ctx, s, Query{Text: "budget", TopK: 5, DateTo: ptr(date("2025-01-10"))})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"c1", "c2"}, ids(results))
	})

	t.Run("participants intersect", func(t *testing.T) {
		results, err := engine.Search(ctx, s, Query{Text: "report", TopK: 5, Participants: []string{"C"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"c3"}, ids(results))
	})

	t.Run("min_relevance is exclusive", func(t *testing.T) {
		all, err := engine.Search(ctx, s, Query{Text: "budget", TopK: 5})
		require.NoError(t, err)
		top := all[0].RelevanceScore

		results, err := engine.Search(ctx, s, Query{Text: "budget", TopK: 5, MinRelevance: ptr(top)})
		require.NoError(t, err)
		assert.Empty(t, results)

		results, err = engine.Search(ctx, s, Query{Text: "budget", TopK: 5, MinRelevance: ptr(top - 0.01)})
		require.NoError(t, err)
		assert.Equal(t, []string{"c1"}, ids(results))
	})

	t.Run("top_k bound", func(t *testing.T) {
		results, err := engine.Search(ctx, s, Query{Text: "budget", TopK: 1})
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})
}

func TestSearch_ResultProperties(t *testing.T) {
	embedder := scenarioEmbedder()
	s := scenarioSession(t, embedder)
	engine := NewEngine(embedder, Options{})

	first, err := engine.Search(context.Background(), s, Query{Text: "new budget report", TopK: 10})
	require.NoError(t, err)
	second, err := engine.Search(context.Background(), s, Query{Text: "new budget report", TopK: 10})
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical queries return identical results")
	for _, r := range first {
		assert.GreaterOrEqual(t, r.RelevanceScore, 0.0)
		assert.LessOrEqual(t, r.RelevanceScore, 1.0)
		assert.Equal(t, "en", r.Language)
		assert.NotEmpty(t, r.Snippet)
	}
}

func TestSearch_TieBreaks(t *testing.T) {
	embedder := newBagOfWords("alpha")
	older := chunk("b-old", "m1", meeting.ContentTranscript, "2025-01-01", nil, "alpha")
	newer := chunk("z-new", "m1", meeting.ContentTranscript, "2025-01-01", nil, "alpha")
	newer.CreatedAt = created.Add(time.Hour)
	sameTime := chunk("a-old", "m1", meeting.ContentTranscript, "2025-01-01", nil, "alpha")

	s := sessionWith(t, embedder, older, newer, sameTime)
	engine := NewEngine(embedder, Options{})

	results, err := engine.Search(context.Background(), s, Query{Text: "alpha", TopK: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"z-new", "a-old", "b-old"}, ids(results))
}

func TestSearch_EmptySessionSkipsEmbedder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	embedder := llm_mocks.NewMockEmbedder(ctrl)
	registry := session.NewRegistry(session.Options{})
	s, err := registry.GetOrCreate(context.Background(), "empty")
	require.NoError(t, err)

	results, err := NewEngine(embedder, Options{}).Search(context.Background(), s, Query{Text: "anything", TopK: 5})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearch_EmbedderFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := scenarioSession(t, scenarioEmbedder())
	embedder := llm_mocks.NewMockEmbedder(ctrl)
	embedder.EXPECT().
		EmbedTexts(gomock.Any(), []string{"budget"}).
		Return(nil, fmt.Errorf("connection refused"))

	results, err := NewEngine(embedder, Options{}).Search(context.Background(), s, Query{Text: "budget", TopK: 5})
	assert.Nil(t, results)

	var searchErr *meeting.SearchFailedError
	require.ErrorAs(t, err, &searchErr)
	assert.ErrorIs(t, err, meeting.ErrExternalService)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSearch_EmbedderWrongDimension(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := scenarioSession(t, scenarioEmbedder())
	embedder := llm_mocks.NewMockEmbedder(ctrl)
	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return([][]float32{{1, 0}}, nil)

	_, err := NewEngine(embedder, Options{}).Search(context.Background(), s, Query{Text: "budget", TopK: 5})
	var searchErr *meeting.SearchFailedError
	assert.ErrorAs(t, err, &searchErr)
}

func TestSearch_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := scenarioSession(t, scenarioEmbedder())
	// No EXPECT: invalid queries never reach the embedder.
	engine := NewEngine(llm_mocks.NewMockEmbedder(ctrl), Options{})

	tests := []struct {
		name  string
		query Query
		field string
	}{
		{"empty text", Query{Text: "", TopK: 5}, "query"},
		{"whitespace text", Query{Text: " \t\n", TopK: 5}, "query"},
		{"zero top_k", Query{Text: "budget", TopK: 0}, "top_k"},
		{"negative top_k", Query{Text: "budget", TopK: -1}, "top_k"},
		{"min_relevance above one", Query{Text: "budget", TopK: 5, MinRelevance: ptr(1.5)}, "min_relevance"},
		{"min_relevance below zero", Query{Text: "budget", TopK: 5, MinRelevance: ptr(-0.1)}, "min_relevance"},
		{"unknown content type", Query{Text: "budget", TopK: 5, ContentTypes: []meeting.ContentType{"memo"}}, "content_types"},
		{"inverted dates", Query{Text: "budget", TopK: 5, DateFrom: ptr(date("2025-02-01")), DateTo: ptr(date("2025-01-01"))}, "date_to"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Search(context.Background(), s, tt.query)
			var vErr *meeting.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestSearch_EvictedSession(t *testing.T) {
	ctx := context.Background()
	registry := session.NewRegistry(session.Options{})
	s, err := registry.GetOrCreate(ctx, "gone")
	require.NoError(t, err)
	require.NoError(t, registry.Evict(ctx, "gone"))

	_, err = NewEngine(scenarioEmbedder(), Options{}).Search(ctx, s, Query{Text: "budget", TopK: 5})
	var notFound *meeting.SessionNotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestSearch_CancelledContext(t *testing.T) {
	embedder := scenarioEmbedder()
	s := scenarioSession(t, embedder)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(embedder, Options{}).Search(ctx, s, Query{Text: "budget", TopK: 5})
	assert.ErrorIs(t, err, context.Canceled)
	var failed *meeting.SearchFailedError
	assert.ErrorAs(t, err, &failed)
	assert.ErrorIs(t, err, meeting.ErrExternalService)
}

func TestSearch_OverfetchBoundsCandidates(t *testing.T) {
	embedder := newBagOfWords("budget", "other")
	var chunks []meeting.Chunk
	// Sixty decisions sit closer to the query than the only summary.
	for i := 0; i < 60; i++ {
		chunks = append(chunks, chunk(fmt.Sprintf("d%02d", i), "m1", meeting.ContentDecision, "2025-01-01", nil, "budget budget"))
	}
	chunks = append(chunks, chunk("s1", "m2", meeting.ContentSummary, "2025-01-01", nil, strings.Repeat("other ", 10)+"budget"))
	s := sessionWith(t, embedder, chunks...)

	engine := NewEngine(embedder, Options{})
	results, err := engine.Search(context.Background(), s, Query{
		Text:         "budget",
		TopK:         5,
		ContentTypes: []meeting.ContentType{meeting.ContentSummary},
	})
	require.NoError(t, err)
	// The summary is not among the first max(5*3, 50) candidates, and the
	// engine does not re-query to top up.
	assert.Empty(t, results)
}

func TestEngine_DefaultsClampToMinimums(t *testing.T) {
	e := NewEngine(nil, Options{Overfetch: 1, MinCandidates: 10}).(*queryEngine)
	assert.Equal(t, DefaultOverfetch, e.opts.Overfetch)
	assert.Equal(t, DefaultMinCandidates, e.opts.MinCandidates)
	assert.Equal(t, DefaultSnippetLength, e.opts.SnippetLength)
	assert.Equal(t, 50, e.candidateCount(5))
	assert.Equal(t, 60, e.candidateCount(20))
}
