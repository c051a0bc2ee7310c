package search

import (
	"time"

	"meeting-search/internal/meeting"
)

// DefaultTopK is the number of results returned when a caller does not ask
// for a specific count.
const DefaultTopK = 10

// Query is a natural-language search against one session.
type Query struct {
	Text         string                `json:"query"`
	TopK         int                   `json:"top_k"`
	ContentTypes []meeting.ContentType `json:"content_types,omitempty"`
	DateFrom     *time.Time            `json:"date_from,omitempty"`
	DateTo       *time.Time            `json:"date_to,omitempty"`
	Participants []string              `json:"participants,omitempty"`
	// MinRelevance is an exclusive lower bound on RelevanceScore.
	MinRelevance *float64 `json:"min_relevance,omitempty"`
}

// Result is one ranked chunk.
type Result struct {
	ChunkID        string              `json:"chunk_id"`
	MeetingID      string              `json:"meeting_id"`
	MeetingTitle   string              `json:"meeting_title"`
	MeetingDate    time.Time           `json:"meeting_date"`
	ContentType    meeting.ContentType `json:"content_type"`
	Participants   []string            `json:"participants"`
	Language       string              `json:"language"`
	Snippet        string              `json:"snippet"`
	RelevanceScore float64             `json:"relevance_score"`
	CreatedAt      time.Time           `json:"created_at"`
}

// SimilarMeeting is a meeting ranked by its average similarity to a
// reference meeting.
type SimilarMeeting struct {
	MeetingID            string                `json:"meeting_id"`
	MeetingTitle         string                `json:"meeting_title"`
	MeetingDate          time.Time             `json:"meeting_date"`
	Participants         []string              `json:"participants"`
	AverageSimilarity    float64               `json:"average_similarity"`
	MatchingContentTypes []meeting.ContentType `json:"matching_content_types"`
}

// MeetingSummary describes one indexed meeting.
type MeetingSummary struct {
	MeetingID    string    `json:"meeting_id"`
	Title        string    `json:"title"`
	Date         time.Time `json:"date"`
	Participants []string  `json:"participants"`
	Language     string    `json:"language"`
	Chunks       int       `json:"chunks"`
	LastUpdated  time.Time `json:"last_updated"`
}

// MeetingContent is every indexed text of a meeting grouped by content type.
type MeetingContent struct {
	MeetingSummary
	Content map[meeting.ContentType][]string `json:"content"`
}
