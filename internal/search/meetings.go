package search

import (
	"context"
	"fmt"
	"sort"

	"meeting-search/internal/meeting"
	"meeting-search/internal/metadata"
	"meeting-search/internal/session"
	"meeting-search/internal/vectorindex"
)

// referenceChunk picks the chunk that stands for a whole meeting: its
// summary, or else its earliest transcript segment.
func referenceChunk(chunks []meeting.Chunk) (meeting.Chunk, bool) {
	for _, c := range chunks {
		if c.ContentType == meeting.ContentSummary {
			return c, true
		}
	}
	for _, c := range chunks {
		if c.ContentType == meeting.ContentTranscript {
			return c, true
		}
	}
	return meeting.Chunk{}, false
}

func meetingNotFound(meetingID string) error {
	return fmt.Errorf("meeting %q: %w", meetingID, meeting.ErrNotFound)
}

// SimilarMeetings reuses the stored vector of the reference chunk, so it
// never calls the embedder.
func (e *queryEngine) SimilarMeetings(ctx context.Context, s *session.Session, meetingID string, topK int) ([]SimilarMeeting, error) {
	if topK <= 0 {
		return nil, &meeting.ValidationError{Field: "top_k", Message: "must be a positive integer"}
	}

	type group struct {
		similar SimilarMeeting
		total   float64
		count   int
		types   map[meeting.ContentType]struct{}
	}
	groups := make(map[string]*group)

	err := s.Read(ctx, func(index *vectorindex.Index, store *metadata.Store) error {
		chunks := store.MeetingChunks(meetingID)
		if len(chunks) == 0 {
			return meetingNotFound(meetingID)
		}
		ref, ok := referenceChunk(chunks)
		if !ok {
			return nil
		}
		vec, ok := index.Vector(ref.ID)
		if !ok {
			return nil
		}

		matches, err := index.Search(ctx, vec, topK*3)
		if err != nil {
			return err
		}
		for _, m := range matches {
			chunk, ok := store.Get(m.ID)
			if !ok || chunk.MeetingID == meetingID {
				continue
			}
			g, ok := groups[chunk.MeetingID]
			if !ok {
				g = &group{
					similar: SimilarMeeting{
						MeetingID:    chunk.MeetingID,
						MeetingTitle: chunk.MeetingTitle,
						MeetingDate:  chunk.MeetingDate,
						Participants: append([]string(nil), chunk.Participants...),
					},
					types: make(map[meeting.ContentType]struct{}),
				}
				groups[chunk.MeetingID] = g
			}
			g.total += relevance(m.Similarity)
			g.count++
			g.types[chunk.ContentType] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	similar := make([]SimilarMeeting, 0, len(groups))
	for _, g := range groups {
		g.similar.AverageSimilarity = g.total / float64(g.count)
		for _, ct := range meeting.ContentTypes {
			if _, ok := g.types[ct]; ok {
				g.similar.MatchingContentTypes = append(g.similar.MatchingContentTypes, ct)
			}
		}
		similar = append(similar, g.similar)
	}
	sort.Slice(similar, func(i, j int) bool {
		if similar[i].AverageSimilarity != similar[j].AverageSimilarity {
			return similar[i].AverageSimilarity > similar[j].AverageSimilarity
		}
		return similar[i].MeetingID < similar[j].MeetingID
	})
	if len(similar) > topK {
		similar = similar[:topK]
	}
	return similar, nil
}

func summarize(chunks []meeting.Chunk) MeetingSummary {
	first := chunks[0]
	summary := MeetingSummary{
		MeetingID:    first.MeetingID,
		Title:        first.MeetingTitle,
		Date:         first.MeetingDate,
		Participants: append([]string(nil), first.Participants...),
		Language:     first.LanguageOrUnknown(),
		Chunks:       len(chunks),
	}
	for _, c := range chunks {
		if c.CreatedAt.After(summary.LastUpdated) {
			summary.LastUpdated = c.CreatedAt
		}
	}
	return summary
}

func (e *queryEngine) ListMeetings(ctx context.Context, s *session.Session) ([]MeetingSummary, error) {
	var meetings []MeetingSummary
	err := s.Read(ctx, func(_ *vectorindex.Index, store *metadata.Store) error {
		ids := store.MeetingIDs()
		meetings = make([]MeetingSummary, 0, len(ids))
		for _, id := range ids {
			meetings = append(meetings, summarize(store.MeetingChunks(id)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(meetings, func(i, j int) bool {
		if !meetings[i].LastUpdated.Equal(meetings[j].LastUpdated) {
			return meetings[i].LastUpdated.After(meetings[j].LastUpdated)
		}
		return meetings[i].MeetingID < meetings[j].MeetingID
	})
	return meetings, nil
}

func (e *queryEngine) GetMeeting(ctx context.Context, s *session.Session, meetingID string) (MeetingContent, error) {
	var content MeetingContent
	err := s.Read(ctx, func(_ *vectorindex.Index, store *metadata.Store) error {
		chunks := store.MeetingChunks(meetingID)
		if len(chunks) == 0 {
			return meetingNotFound(meetingID)
		}
		content.MeetingSummary = summarize(chunks)
		content.Content = make(map[meeting.ContentType][]string)
		for _, c := range chunks {
			content.Content[c.ContentType] = append(content.Content[c.ContentType], c.Text)
		}
		return nil
	})
	if err != nil {
		return MeetingContent{}, err
	}
	return content, nil
}
