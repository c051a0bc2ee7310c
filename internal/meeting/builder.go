package meeting

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Builder turns fragments into chunks ready for embedding.
type Builder struct {
	newID func() string
	now   func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithIDFunc overrides chunk id generation.
func WithIDFunc(fn func() string) BuilderOption {
	return func(b *Builder) { b.newID = fn }
}

// WithClock overrides the creation timestamp source.
func WithClock(fn func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = fn }
}

// NewBuilder creates a Builder that assigns random UUIDs as chunk ids.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		newID: uuid.NewString,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build normalizes a fragment and stamps it with the meeting's metadata.
// Participants, date and language are copied as given.
func (b *Builder) Build(fragment Fragment, meta Metadata) (Chunk, error) {
	if !fragment.Type.Valid() {
		return Chunk{}, &ValidationError{Field: "content_type", Message: "unknown content type " + string(fragment.Type)}
	}
	if strings.TrimSpace(meta.ID) == "" {
		return Chunk{}, &ValidationError{Field: "meeting_id", Message: "cannot be empty"}
	}

	text := NormalizeText(fragment.Text)
	if text == "" {
		return Chunk{}, &ValidationError{Field: "text", Message: "cannot be empty"}
	}

	participants := make([]string, len(meta.Participants))
	copy(participants, meta.Participants)

	return Chunk{
		ID:           b.newID(),
		MeetingID:    meta.ID,
		MeetingTitle: meta.Title,
		MeetingDate:  meta.Date,
		ContentType:  fragment.Type,
		Text:         text,
		Participants: participants,
		Language:     meta.Language,
		CreatedAt:    b.now(),
	}, nil
}

// BuildAll builds every fragment, failing on the first invalid one.
func (b *Builder) BuildAll(fragments []Fragment, meta Metadata) ([]Chunk, error) {
	chunks := make([]Chunk, 0, len(fragments))
	for _, fragment := range fragments {
		chunk, err := b.Build(fragment, meta)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// NormalizeText trims the text and collapses runs of whitespace to one space.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
