package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"meeting-search/internal/meeting"
)

// ChunkRecord is the row form of a chunk in a session's metadata database.
type ChunkRecord struct {
	ID           string
	MeetingID    string
	MeetingTitle string
	MeetingDate  string // RFC 3339, empty when unknown
	ContentType  string
	Text         string
	Participants string // JSON array
	Language     string
	CreatedAt    string // RFC 3339 with nanoseconds
}

// NewChunkRecord converts a chunk to its row form.
func NewChunkRecord(c meeting.Chunk) (*ChunkRecord, error) {
	participants := c.Participants
	if participants == nil {
		participants = []string{}
	}
	raw, err := json.Marshal(participants)
	if err != nil {
		return nil, fmt.Errorf("failed to encode participants: %w", err)
	}

	var meetingDate string
	if !c.MeetingDate.IsZero() {
		meetingDate = c.MeetingDate.UTC().Format(time.RFC3339Nano)
	}

	return &ChunkRecord{
		ID:           c.ID,
		MeetingID:    c.MeetingID,
		MeetingTitle: c.MeetingTitle,
		MeetingDate:  meetingDate,
		ContentType:  string(c.ContentType),
		Text:         c.Text,
		Participants: string(raw),
		Language:     c.Language,
		CreatedAt:    c.CreatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

// Chunk converts the row back to a chunk.
func (r *ChunkRecord) Chunk() (meeting.Chunk, error) {
	var participants []string
	if r.Participants != "" {
		if err := json.Unmarshal([]byte(r.Participants), &participants); err != nil {
			return meeting.Chunk{}, fmt.Errorf("chunk %s: failed to decode participants: %w", r.ID, err)
		}
	}

	var meetingDate time.Time
	if r.MeetingDate != "" {
		t, err := time.Parse(time.RFC3339Nano, r.MeetingDate)
		if err != nil {
			return meeting.Chunk{}, fmt.Errorf("chunk %s: bad meeting_date: %w", r.ID, err)
		}
		meetingDate = t
	}

	createdAt, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return meeting.Chunk{}, fmt.Errorf("chunk %s: bad created_at: %w", r.ID, err)
	}

	return meeting.Chunk{
		ID:           r.ID,
		MeetingID:    r.MeetingID,
		MeetingTitle: r.MeetingTitle,
		MeetingDate:  meetingDate,
		ContentType:  meeting.ContentType(r.ContentType),
		Text:         r.Text,
		Participants: participants,
		Language:     r.Language,
		CreatedAt:    createdAt,
	}, nil
}
