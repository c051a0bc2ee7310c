package meeting

import (
	"strings"
	"time"
)

// ContentType identifies the kind of meeting content a chunk was built from.
type ContentType string

const (
	ContentTranscript ContentType = "transcript"
	ContentSummary    ContentType = "summary"
	ContentActionItem ContentType = "action_item"
	ContentDecision   ContentType = "decision"
	ContentTimeline   ContentType = "timeline"
)

// ContentTypes lists every known content type in display order.
var ContentTypes = []ContentType{
	ContentTranscript,
	ContentSummary,
	ContentActionItem,
	ContentDecision,
	ContentTimeline,
}

// Valid reports whether c is one of the known content types.
func (c ContentType) Valid() bool {
	switch c {
	case ContentTranscript, ContentSummary, ContentActionItem, ContentDecision, ContentTimeline:
		return true
	}
	return false
}

// ParseContentType parses a content type name. Matching is case-insensitive
// and accepts the plural forms used by older clients ("decisions", "timelines").
func ParseContentType(s string) (ContentType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "action_items", "action-item", "action-items":
		name = string(ContentActionItem)
	case "decisions":
		name = string(ContentDecision)
	case "timelines":
		name = string(ContentTimeline)
	case "transcripts":
		name = string(ContentTranscript)
	case "summaries":
		name = string(ContentSummary)
	}
	ct := ContentType(name)
	if !ct.Valid() {
		return "", &ValidationError{Field: "content_types", Message: "unknown content type " + s}
	}
	return ct, nil
}

// UnknownLanguage is the language sentinel for chunks without a detected language.
const UnknownLanguage = "unknown"

// Fragment is one piece of meeting content before normalization.
type Fragment struct {
	Type ContentType `json:"type"`
	Text string      `json:"text"`
}

// Metadata describes the meeting a fragment belongs to.
type Metadata struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Date         time.Time `json:"date"`
	Participants []string  `json:"participants"`
	Language     string    `json:"language"`
}

// Chunk is the indexed unit of a session. The vector lives in the vector
// index under the same ID.
type Chunk struct {
	ID           string      `json:"id"`
	MeetingID    string      `json:"meeting_id"`
	MeetingTitle string      `json:"meeting_title"`
	MeetingDate  time.Time   `json:"meeting_date"`
	ContentType  ContentType `json:"content_type"`
	Text         string      `json:"text"`
	Participants []string    `json:"participants"`
	Language     string      `json:"language"`
	CreatedAt    time.Time   `json:"created_at"`
}

// LanguageOrUnknown returns the chunk language, or UnknownLanguage when unset.
func (c Chunk) LanguageOrUnknown() string {
	if strings.TrimSpace(c.Language) == "" {
		return UnknownLanguage
	}
	return c.Language
}

// TimelineEntry is a dated item extracted from a transcript.
type TimelineEntry struct {
	When    string `json:"when"`
	Context string `json:"context,omitempty"`
}

// Text formats the entry the way it is indexed.
func (e TimelineEntry) Text() string {
	when := strings.TrimSpace(e.When)
	ctx := strings.TrimSpace(e.Context)
	switch {
	case ctx == "":
		return when
	case when == "":
		return ctx
	default:
		return when + " - " + ctx
	}
}

// Analysis is the structured output of the text-analysis collaborator.
type Analysis struct {
	Summary     string          `json:"summary"`
	ActionItems []string        `json:"action_items"`
	Decisions   []string        `json:"decisions"`
	Timeline    []TimelineEntry `json:"timeline"`

	// Participants are names mentioned in the transcript. They are used only
	// when the caller supplies no participants of its own.
	Participants []string `json:"participants,omitempty"`
}

// FragmentsFromAnalysis expands a transcript and its analysis into fragments,
// in indexing order. Blank entries are dropped.
func FragmentsFromAnalysis(transcript string, analysis Analysis) []Fragment {
	var fragments []Fragment
	for _, segment := range SegmentTranscript(transcript) {
		fragments = append(fragments, Fragment{Type: ContentTranscript, Text: segment})
	}

	add := func(ct ContentType, text string) {
		if strings.TrimSpace(text) == "" {
			return
		}
		fragments = append(fragments, Fragment{Type: ct, Text: text})
	}

	add(ContentSummary, analysis.Summary)
	for _, item := range analysis.ActionItems {
		add(ContentActionItem, item)
	}
	for _, decision := range analysis.Decisions {
		add(ContentDecision, decision)
	}
	for _, entry := range analysis.Timeline {
		add(ContentTimeline, entry.Text())
	}
	return fragments
}
