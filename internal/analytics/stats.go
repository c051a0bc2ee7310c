package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	"meeting-search/internal/meeting"
	"meeting-search/internal/metadata"
	"meeting-search/internal/session"
	"meeting-search/internal/vectorindex"
)

// DateRange spans the meeting dates of a session.
type DateRange struct {
	Earliest time.Time `json:"earliest"`
	Latest   time.Time `json:"latest"`
}

// Statistics describes the size and makeup of a session's index.
type Statistics struct {
	TotalDocuments     int                         `json:"total_documents"`
	TotalMeetings      int                         `json:"total_meetings"`
	ContentTypes       map[meeting.ContentType]int `json:"content_types"`
	IndexSizeMB        float64                     `json:"index_size_mb"`
	EmbeddingDimension int                         `json:"embedding_dimension"`
	EmbeddingModel     string                      `json:"embedding_model"`
	TokenStats         TokenStats                  `json:"token_stats"`
	Participants       []string                    `json:"participants"`
	DateRange          *DateRange                  `json:"date_range,omitempty"`
}

// Statistics computes index statistics under one read lock.
func (a *Aggregator) Statistics(ctx context.Context, s *session.Session) (Statistics, error) {
	var (
		chunks    []meeting.Chunk
		sizeBytes int64
		dim       int
	)
	err := s.Read(ctx, func(index *vectorindex.Index, store *metadata.Store) error {
		chunks = store.Scan()
		sizeBytes = index.SizeBytes()
		dim = index.Dim()
		return nil
	})
	if err != nil {
		return Statistics{}, err
	}

	stats := Statistics{
		TotalDocuments:     len(chunks),
		ContentTypes:       make(map[meeting.ContentType]int, len(meeting.ContentTypes)),
		IndexSizeMB:        math.Round(float64(sizeBytes)/(1024*1024)*100) / 100,
		EmbeddingDimension: dim,
		EmbeddingModel:     a.embeddingModel,
		Participants:       []string{},
	}
	for _, ct := range meeting.ContentTypes {
		stats.ContentTypes[ct] = 0
	}

	meetings := make(map[string]struct{})
	participants := make(map[string]struct{})
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		stats.ContentTypes[c.ContentType]++
		meetings[c.MeetingID] = struct{}{}
		for _, p := range c.Participants {
			participants[p] = struct{}{}
		}
		texts = append(texts, c.Text)

		if c.MeetingDate.IsZero() {
			continue
		}
		if stats.DateRange == nil {
			stats.DateRange = &DateRange{Earliest: c.MeetingDate, Latest: c.MeetingDate}
			continue
		}
		if c.MeetingDate.Before(stats.DateRange.Earliest) {
			stats.DateRange.Earliest = c.MeetingDate
		}
		if c.MeetingDate.After(stats.DateRange.Latest) {
			stats.DateRange.Latest = c.MeetingDate
		}
	}
	stats.TotalMeetings = len(meetings)

	for p := range participants {
		stats.Participants = append(stats.Participants, p)
	}
	sort.Strings(stats.Participants)

	stats.TokenStats = tokenStats(texts)
	return stats, nil
}
