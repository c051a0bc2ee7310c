// Package analytics derives read-only statistics from a session's metadata.
package analytics

import (
	"context"
	"sort"
	"time"

	"meeting-search/internal/meeting"
	"meeting-search/internal/metadata"
	"meeting-search/internal/session"
	"meeting-search/internal/vectorindex"
)

const (
	// DefaultRecentLimit is how many meetings recent activity lists.
	DefaultRecentLimit = 5
	unknownMonth       = "unknown"
)

// Snapshot is the analytics view of one session.
type Snapshot struct {
	TotalChunks          int                         `json:"total_chunks"`
	TotalMeetings        int                         `json:"total_meetings"`
	ContentDistribution  map[meeting.ContentType]int `json:"content_distribution"`
	ParticipantActivity  map[string]int              `json:"participant_activity"`
	LanguageDistribution map[string]int              `json:"language_distribution"`
	MonthlyActivity      map[string]int              `json:"monthly_activity"`
	RecentActivity       []RecentMeeting             `json:"recent_activity"`
}

// RecentMeeting summarizes a meeting in the recent activity feed.
type RecentMeeting struct {
	MeetingID        string    `json:"meeting_id"`
	Title            string    `json:"title"`
	Date             time.Time `json:"date"`
	ParticipantCount int       `json:"participant_count"`
	Language         string    `json:"language"`
	LanguageName     string    `json:"language_name"`
	LastActivity     time.Time `json:"last_activity"`
}

// Options configures an Aggregator.
type Options struct {
	RecentLimit    int
	EmbeddingModel string
}

// Aggregator computes analytics and statistics for sessions.
type Aggregator struct {
	recentLimit    int
	embeddingModel string
}

// NewAggregator creates an Aggregator.
func NewAggregator(opts Options) *Aggregator {
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = DefaultRecentLimit
	}
	return &Aggregator{recentLimit: opts.RecentLimit, embeddingModel: opts.EmbeddingModel}
}

// Aggregate computes a Snapshot from one consistent scan of the session.
func (a *Aggregator) Aggregate(ctx context.Context, s *session.Session) (Snapshot, error) {
	var chunks []meeting.Chunk
	err := s.Read(ctx, func(_ *vectorindex.Index, store *metadata.Store) error {
		chunks = store.Scan()
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return Compute(chunks, a.recentLimit), nil
}

type meetingAggregate struct {
	id           string
	title        string
	date         time.Time
	language     string
	participants map[string]struct{}
	lastActivity time.Time
}

// Compute builds a Snapshot from chunks. Every content type is present in
// the distribution, with zero counts for absent types.
func Compute(chunks []meeting.Chunk, recentLimit int) Snapshot {
	snap := Snapshot{
		TotalChunks:          len(chunks),
		ContentDistribution:  make(map[meeting.ContentType]int, len(meeting.ContentTypes)),
		ParticipantActivity:  make(map[string]int),
		LanguageDistribution: make(map[string]int),
		MonthlyActivity:      make(map[string]int),
		RecentActivity:       []RecentMeeting{},
	}
	for _, ct := range meeting.ContentTypes {
		snap.ContentDistribution[ct] = 0
	}

	meetings := make(map[string]*meetingAggregate)
	participantMeetings := make(map[string]map[string]struct{})
	for _, c := range chunks {
		snap.ContentDistribution[c.ContentType]++
		snap.LanguageDistribution[c.LanguageOrUnknown()]++

		m, ok := meetings[c.MeetingID]
		if !ok {
			m = &meetingAggregate{
				id:           c.MeetingID,
				title:        c.MeetingTitle,
				date:         c.MeetingDate,
				language:     c.LanguageOrUnknown(),
				participants: make(map[string]struct{}),
			}
			meetings[c.MeetingID] = m
		}
		if c.CreatedAt.After(m.lastActivity) {
			m.lastActivity = c.CreatedAt
		}

		for _, p := range c.Participants {
			m.participants[p] = struct{}{}
			set, ok := participantMeetings[p]
			if !ok {
				set = make(map[string]struct{})
				participantMeetings[p] = set
			}
			set[c.MeetingID] = struct{}{}
		}
	}
	snap.TotalMeetings = len(meetings)

	for p, set := range participantMeetings {
		snap.ParticipantActivity[p] = len(set)
	}

	for _, m := range meetings {
		snap.MonthlyActivity[monthKey(m.date)]++
	}

	recent := make([]*meetingAggregate, 0, len(meetings))
	for _, m := range meetings {
		recent = append(recent, m)
	}
	sort.Slice(recent, func(i, j int) bool {
		if !recent[i].lastActivity.Equal(recent[j].lastActivity) {
			return recent[i].lastActivity.After(recent[j].lastActivity)
		}
		return recent[i].id < recent[j].id
	})
	if recentLimit > 0 && len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	for _, m := range recent {
		snap.RecentActivity = append(snap.RecentActivity, RecentMeeting{
			MeetingID:        m.id,
			Title:            m.title,
			Date:             m.date,
			ParticipantCount: len(m.participants),
			Language:         m.language,
			LanguageName:     meeting.LanguageName(m.language),
			LastActivity:     m.lastActivity,
		})
	}
	return snap
}

func monthKey(t time.Time) string {
	if t.IsZero() {
		return unknownMonth
	}
	return t.UTC().Format("2006-01")
}
