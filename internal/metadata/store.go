// Package metadata holds the filterable attributes of a session's chunks.
package metadata

import (
	"sort"
	"time"

	"meeting-search/internal/meeting"
)

// Store maps chunk ids to chunk metadata, with a secondary index by meeting.
// It is not safe for concurrent mutation; callers hold the owning session's
// lock.
type Store struct {
	chunks    map[string]meeting.Chunk
	byMeeting map[string]map[string]struct{}
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		chunks:    make(map[string]meeting.Chunk),
		byMeeting: make(map[string]map[string]struct{}),
	}
}

// Put stores chunk under its id, replacing any previous entry.
func (s *Store) Put(chunk meeting.Chunk) {
	if old, ok := s.chunks[chunk.ID]; ok {
		s.unlinkMeeting(old)
	}
	s.chunks[chunk.ID] = chunk
	ids, ok := s.byMeeting[chunk.MeetingID]
	if !ok {
		ids = make(map[string]struct{})
		s.byMeeting[chunk.MeetingID] = ids
	}
	ids[chunk.ID] = struct{}{}
}

// Get returns the chunk stored under id.
func (s *Store) Get(id string) (meeting.Chunk, bool) {
	chunk, ok := s.chunks[id]
	return chunk, ok
}

// Delete removes id. Absent ids are ignored.
func (s *Store) Delete(id string) {
	chunk, ok := s.chunks[id]
	if !ok {
		return
	}
	delete(s.chunks, id)
	s.unlinkMeeting(chunk)
}

func (s *Store) unlinkMeeting(chunk meeting.Chunk) {
	ids := s.byMeeting[chunk.MeetingID]
	delete(ids, chunk.ID)
	if len(ids) == 0 {
		delete(s.byMeeting, chunk.MeetingID)
	}
}

// Len returns the number of stored chunks.
func (s *Store) Len() int { return len(s.chunks) }

// MeetingCount returns the number of distinct meetings.
func (s *Store) MeetingCount() int { return len(s.byMeeting) }

// Filter returns the ids of every chunk satisfying f. A nil set with ok=false
// means the filter is empty and every chunk passes.
func (s *Store) Filter(f Filter) (ids map[string]struct{}, ok bool) {
	if f.IsEmpty() {
		return nil, false
	}
	c := f.compile()
	ids = make(map[string]struct{})
	for id := range s.chunks {
		chunk := s.chunks[id]
		if c.match(&chunk) {
			ids[id] = struct{}{}
		}
	}
	return ids, true
}

// Scan returns a copy of every chunk, ordered by creation time then id.
func (s *Store) Scan() []meeting.Chunk {
	out := make([]meeting.Chunk, 0, len(s.chunks))
	for _, chunk := range s.chunks {
		out = append(out, chunk)
	}
	sortChunks(out)
	return out
}

// MeetingChunks returns the chunks of one meeting ordered by creation time
// then id.
func (s *Store) MeetingChunks(meetingID string) []meeting.Chunk {
	ids := s.byMeeting[meetingID]
	out := make([]meeting.Chunk, 0, len(ids))
	for id := range ids {
		out = append(out, s.chunks[id])
	}
	sortChunks(out)
	return out
}

// MeetingIDs returns the distinct meeting ids in lexical order.
func (s *Store) MeetingIDs() []string {
	out := make([]string, 0, len(s.byMeeting))
	for id := range s.byMeeting {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// LatestCreatedAt returns the newest chunk creation time in the store.
func (s *Store) LatestCreatedAt() time.Time {
	var latest time.Time
	for _, chunk := range s.chunks {
		if chunk.CreatedAt.After(latest) {
			latest = chunk.CreatedAt
		}
	}
	return latest
}

func sortChunks(chunks []meeting.Chunk) {
	sort.Slice(chunks, func(i, j int) bool {
		if !chunks[i].CreatedAt.Equal(chunks[j].CreatedAt) {
			return chunks[i].CreatedAt.Before(chunks[j].CreatedAt)
		}
		return chunks[i].ID < chunks[j].ID
	})
}
