// Package search answers natural-language queries against one session's
// vector index and metadata store.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"meeting-search/internal/contextutil"
	"meeting-search/internal/llm"
	"meeting-search/internal/meeting"
	"meeting-search/internal/metadata"
	"meeting-search/internal/session"
	"meeting-search/internal/vectorindex"
)

const (
	// DefaultOverfetch multiplies top_k when fetching candidates.
	DefaultOverfetch = 3
	// DefaultMinCandidates is the smallest candidate set fetched.
	DefaultMinCandidates = 50
	// DefaultSimilarMeetings is the default result count for SimilarMeetings.
	DefaultSimilarMeetings = 5
)

// Engine provides query operations over a session.
type Engine interface {
	// Search ranks the session's chunks against q.
	Search(ctx context.Context, s *session.Session, q Query) ([]Result, error)
	// SimilarMeetings ranks other meetings by similarity to meetingID.
	SimilarMeetings(ctx context.Context, s *session.Session, meetingID string, topK int) ([]SimilarMeeting, error)
	// ListMeetings describes every meeting in the session, most recently
	// updated first.
	ListMeetings(ctx context.Context, s *session.Session) ([]MeetingSummary, error)
	// GetMeeting returns the texts of one meeting grouped by content type.
	GetMeeting(ctx context.Context, s *session.Session, meetingID string) (MeetingContent, error)
}

// Options tunes candidate retrieval and snippets. Zero values use defaults.
type Options struct {
	Overfetch     int
	MinCandidates int
	SnippetLength int
}

// queryEngine implements the Engine interface.
type queryEngine struct {
	embedder llm.Embedder
	opts     Options
}

// NewEngine creates a new query engine.
func NewEngine(embedder llm.Embedder, opts Options) Engine {
	if opts.Overfetch < DefaultOverfetch {
		opts.Overfetch = DefaultOverfetch
	}
	if opts.MinCandidates < DefaultMinCandidates {
		opts.MinCandidates = DefaultMinCandidates
	}
	if opts.SnippetLength <= 0 {
		opts.SnippetLength = DefaultSnippetLength
	}
	return &queryEngine{embedder: embedder, opts: opts}
}

// Validate checks a query without running it.
func Validate(q Query) error {
	if strings.TrimSpace(q.Text) == "" {
		return &meeting.ValidationError{Field: "query", Message: "cannot be empty"}
	}
	if q.TopK <= 0 {
		return &meeting.ValidationError{Field: "top_k", Message: "must be a positive integer"}
	}
	if q.MinRelevance != nil && (*q.MinRelevance < 0 || *q.MinRelevance > 1) {
		return &meeting.ValidationError{Field: "min_relevance", Message: "must be between 0 and 1"}
	}
	for _, ct := range q.ContentTypes {
		if !ct.Valid() {
			return &meeting.ValidationError{Field: "content_types", Message: "unknown content type " + string(ct)}
		}
	}
	if q.DateFrom != nil && q.DateTo != nil && q.DateFrom.After(*q.DateTo) {
		return &meeting.ValidationError{Field: "date_to", Message: "must not be before date_from"}
	}
	return nil
}

// relevance maps cosine similarity onto [0,1]. Negative similarity means
// no relevance.
func relevance(similarity float32) float64 {
	score := float64(similarity)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func (e *queryEngine) candidateCount(topK int) int {
	k := topK * e.opts.Overfetch
	if k < e.opts.MinCandidates {
		k = e.opts.MinCandidates
	}
	return k
}

// Search runs q against s.
func (e *queryEngine) Search(ctx context.Context, s *session.Session, q Query) ([]Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := Validate(q); err != nil {
		return nil, err
	}

	empty := false
	if err := s.Read(ctx, func(index *vectorindex.Index, _ *metadata.Store) error {
		empty = index.Len() == 0
		return nil
	}); err != nil {
		return nil, contextFailure(err)
	}
	if empty {
		return []Result{}, nil
	}

	// The embedder is called without holding the session lock.
	vectors, err := e.embedder.EmbedTexts(ctx, []string{q.Text})
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed query", "session_id", s.ID(), "error", err)
		return nil, &meeting.SearchFailedError{Err: err}
	}
	if len(vectors) != 1 {
		return nil, &meeting.SearchFailedError{Err: fmt.Errorf("expected 1 query embedding, got %d", len(vectors))}
	}

	filter := metadata.Filter{
		ContentTypes: q.ContentTypes,
		DateFrom:     q.DateFrom,
		DateTo:       q.DateTo,
		Participants: q.Participants,
	}
	k := e.candidateCount(q.TopK)

	var results []Result
	var candidates int
	err = s.Read(ctx, func(index *vectorindex.Index, store *metadata.Store) error {
		matches, err := index.Search(ctx, vectors[0], k)
		if err != nil {
			return err
		}
		candidates = len(matches)

		allowed, filtered := store.Filter(filter)
		results = make([]Result, 0, len(matches))
		for _, m := range matches {
			if filtered {
				if _, ok := allowed[m.ID]; !ok {
					continue
				}
			}
			score := relevance(m.Similarity)
			if q.MinRelevance != nil && score <= *q.MinRelevance {
				continue
			}
			chunk, ok := store.Get(m.ID)
			if !ok {
				continue
			}
			results = append(results, Result{
				ChunkID:        chunk.ID,
				MeetingID:      chunk.MeetingID,
				MeetingTitle:   chunk.MeetingTitle,
				MeetingDate:    chunk.MeetingDate,
				ContentType:    chunk.ContentType,
				Participants:   append([]string(nil), chunk.Participants...),
				Language:       chunk.LanguageOrUnknown(),
				Snippet:        chunk.Text,
				RelevanceScore: score,
				CreatedAt:      chunk.CreatedAt,
			})
		}
		return nil
	})
	if errors.Is(err, meeting.ErrInvalidInput) {
		// The query was validated above, so a rejected vector came from the embedder.
		return nil, &meeting.SearchFailedError{Err: err}
	}
	if err != nil {
		return nil, contextFailure(err)
	}

	sortResults(results)
	if len(results) > q.TopK {
		results = results[:q.TopK]
	}
	for i := range results {
		if err := ctx.Err(); err != nil {
			return nil, contextFailure(err)
		}
		results[i].Snippet = buildSnippet(results[i].Snippet, q.Text, e.opts.SnippetLength)
	}

	logger.InfoContext(ctx, "search completed",
		"session_id", s.ID(),
		"candidates", candidates,
		"results", len(results),
		"top_k", q.TopK,
	)
	return results, nil
}

// contextFailure reports a deadline or cancellation hit mid-search as a
// failed search. Other errors pass through unchanged.
func contextFailure(err error) error {
	var failed *meeting.SearchFailedError
	if errors.As(err, &failed) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &meeting.SearchFailedError{Err: err}
	}
	return err
}

// sortResults orders by relevance, then newest chunk, then id.
func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ChunkID < b.ChunkID
	})
}
