package metadata

import (
	"time"

	"meeting-search/internal/meeting"
)

// Filter is a conjunctive predicate over chunk metadata. Zero-valued fields
// always pass. Chunks without a meeting date fail any date bound.
type Filter struct {
	ContentTypes []meeting.ContentType
	// DateFrom and DateTo bound the meeting date inclusively, compared at
	// calendar-day granularity in UTC.
	DateFrom *time.Time
	DateTo   *time.Time
	// Participants passes chunks sharing at least one name with the list.
	Participants []string
}

// IsEmpty reports whether the filter passes every chunk.
func (f Filter) IsEmpty() bool {
	return len(f.ContentTypes) == 0 && f.DateFrom == nil && f.DateTo == nil && len(f.Participants) == 0
}

// compiled is a Filter with set lookups prepared once per evaluation.
type compiled struct {
	types        map[meeting.ContentType]struct{}
	from, to     *time.Time
	participants map[string]struct{}
}

func (f Filter) compile() compiled {
	c := compiled{}
	if len(f.ContentTypes) > 0 {
		c.types = make(map[meeting.ContentType]struct{}, len(f.ContentTypes))
		for _, ct := range f.ContentTypes {
			c.types[ct] = struct{}{}
		}
	}
	if f.DateFrom != nil {
		d := day(*f.DateFrom)
		c.from = &d
	}
	if f.DateTo != nil {
		d := day(*f.DateTo)
		c.to = &d
	}
	if len(f.Participants) > 0 {
		c.participants = make(map[string]struct{}, len(f.Participants))
		for _, p := range f.Participants {
			c.participants[p] = struct{}{}
		}
	}
	return c
}

func (c compiled) match(chunk *meeting.Chunk) bool {
	if c.types != nil {
		if _, ok := c.types[chunk.ContentType]; !ok {
			return false
		}
	}
	if c.from != nil || c.to != nil {
		if chunk.MeetingDate.IsZero() {
			return false
		}
		d := day(chunk.MeetingDate)
		if c.from != nil && d.Before(*c.from) {
			return false
		}
		if c.to != nil && d.After(*c.to) {
			return false
		}
	}
	if c.participants != nil {
		found := false
		for _, p := range chunk.Participants {
			if _, ok := c.participants[p]; ok {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Match reports whether chunk satisfies the filter.
func (f Filter) Match(chunk meeting.Chunk) bool {
	return f.compile().match(&chunk)
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
