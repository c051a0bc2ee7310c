// Package session owns the per-session vector index and metadata store pair
// and the registry that creates, reloads and evicts them.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"meeting-search/internal/contextutil"
	"meeting-search/internal/meeting"
	"meeting-search/internal/metadata"
	"meeting-search/internal/storage"
	"meeting-search/internal/vectorindex"
)

// Entry is a chunk paired with its embedding.
type Entry struct {
	Chunk  meeting.Chunk
	Vector []float32
}

// Info summarizes a session for administration endpoints.
type Info struct {
	ID           string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	Chunks       int       `json:"chunks"`
	Meetings     int       `json:"meetings"`
	Dimension    int       `json:"embedding_dimension"`
	Persisted    bool      `json:"persisted"`
}

// disk is the on-disk backing of a persisted session.
type disk struct {
	layout storage.Layout
	db     *sql.DB
	repo   storage.ChunkStore
}

// Session is one isolated corpus. Its index and store are guarded by a single
// read-write lock and change only together.
type Session struct {
	id         string
	createdAt  time.Time
	lastActive atomic.Int64
	now        func() time.Time

	mu      sync.RWMutex
	index   *vectorindex.Index
	store   *metadata.Store
	evicted bool

	disk    *disk
	flushMu sync.Mutex
}

func newSession(id string, now func() time.Time) *Session {
	s := &Session{
		id:        id,
		createdAt: now(),
		now:       now,
		index:     vectorindex.New(),
		store:     metadata.New(),
	}
	s.touch()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// LastActivity returns the time of the most recent operation.
func (s *Session) LastActivity() time.Time {
	return time.Unix(0, s.lastActive.Load()).UTC()
}

func (s *Session) touch() {
	s.lastActive.Store(s.now().UnixNano())
}

// Read runs fn under the read lock. fn must not mutate the index or store.
func (s *Session) Read(ctx context.Context, fn func(index *vectorindex.Index, store *metadata.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.evicted {
		return &meeting.SessionNotFoundError{SessionID: s.id}
	}
	s.touch()
	return fn(s.index, s.store)
}

// Insert adds entries to both stores atomically. Every vector is validated
// against the session dimensionality before anything is written; a failure
// leaves the session unchanged. For a persisted session the index file is
// rewritten before Insert returns, and a failed write rolls the batch back.
// Once the write has started it runs to completion even if ctx is cancelled.
func (s *Session) Insert(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.insertLocked(ctx, entries)
}

func (s *Session) insertLocked(ctx context.Context, entries []Entry) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evicted {
		return &meeting.SessionNotFoundError{SessionID: s.id}
	}

	if err := s.validate(entries); err != nil {
		return err
	}

	writeCtx := context.WithoutCancel(ctx)
	if s.disk != nil {
		records := make([]*storage.ChunkRecord, 0, len(entries))
		for _, e := range entries {
			rec, err := storage.NewChunkRecord(e.Chunk)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		if err := s.disk.repo.InsertBatch(writeCtx, records); err != nil {
			return fmt.Errorf("failed to persist chunks: %w", err)
		}
	}

	inserted := make([]string, 0, len(entries))
	for _, e := range entries {
		if err := s.index.Insert(e.Chunk.ID, e.Vector); err != nil {
			s.rollback(writeCtx, inserted, entries)
			return err
		}
		s.store.Put(e.Chunk)
		inserted = append(inserted, e.Chunk.ID)
	}
	s.touch()

	if s.disk != nil {
		if err := s.saveIndexLocked(); err != nil {
			s.rollback(writeCtx, inserted, entries)
			return fmt.Errorf("failed to persist index: %w", err)
		}
		s.writeManifestLocked(writeCtx)
	}
	return nil
}

// validate checks a batch against the current state without mutating it.
func (s *Session) validate(entries []Entry) error {
	dim := s.index.Dim()
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		id := e.Chunk.ID
		if id == "" {
			return &meeting.ValidationError{Field: "id", Message: "cannot be empty"}
		}
		if _, dup := seen[id]; dup || s.index.Contains(id) {
			return &meeting.ValidationError{Field: "id", Message: fmt.Sprintf("chunk %s already exists", id)}
		}
		seen[id] = struct{}{}
		if !e.Chunk.ContentType.Valid() {
			return &meeting.ValidationError{Field: "content_type", Message: "unknown content type " + string(e.Chunk.ContentType)}
		}
		if err := vectorindex.Validate(e.Vector, dim); err != nil {
			return err
		}
		if dim == 0 {
			dim = len(e.Vector)
		}
	}
	return nil
}

// rollback undoes a partially applied batch in memory and on disk.
func (s *Session) rollback(ctx context.Context, inserted []string, entries []Entry) {
	for _, id := range inserted {
		s.index.Remove(id)
		s.store.Delete(id)
	}
	if s.disk != nil {
		ids := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.Chunk.ID
		}
		if err := s.disk.repo.DeleteByIDs(ctx, ids); err != nil {
			contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to roll back persisted chunks", "session_id", s.id, "error", err)
		}
	}
}

// RemoveMeeting deletes every chunk of a meeting from both stores and
// returns the removed chunk ids.
func (s *Session) RemoveMeeting(ctx context.Context, meetingID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.removeMeetingLocked(ctx, meetingID)
}

func (s *Session) removeMeetingLocked(ctx context.Context, meetingID string) ([]string, error) {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evicted {
		return nil, &meeting.SessionNotFoundError{SessionID: s.id}
	}

	chunks := s.store.MeetingChunks(meetingID)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("meeting %q: %w", meetingID, meeting.ErrNotFound)
	}
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}

	if s.disk != nil {
		if err := s.disk.repo.DeleteByIDs(context.WithoutCancel(ctx), ids); err != nil {
			return nil, fmt.Errorf("failed to delete persisted chunks: %w", err)
		}
	}
	for _, id := range ids {
		s.index.Remove(id)
		s.store.Delete(id)
	}
	s.touch()

	if s.disk != nil {
		// The rows are already gone, so a stale index file only carries
		// vectors that the next load discards.
		if err := s.saveIndexLocked(); err != nil {
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to persist index after delete", "session_id", s.id, "error", err)
		}
		s.writeManifestLocked(ctx)
	}
	return ids, nil
}

// Info returns a snapshot of the session's size and activity.
func (s *Session) Info() (Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.evicted {
		return Info{}, &meeting.SessionNotFoundError{SessionID: s.id}
	}
	return Info{
		ID:           s.id,
		CreatedAt:    s.createdAt,
		LastActivity: s.LastActivity(),
		Chunks:       s.store.Len(),
		Meetings:     s.store.MeetingCount(),
		Dimension:    s.index.Dim(),
		Persisted:    s.disk != nil,
	}, nil
}

// flushLocked writes the index file and manifest. Callers hold flushMu and mu.
func (s *Session) flushLocked() error {
	if err := s.saveIndexLocked(); err != nil {
		return err
	}
	return s.manifestLocked()
}

func (s *Session) saveIndexLocked() error {
	return s.index.Save(s.disk.layout.IndexPath(s.id))
}

// writeManifestLocked refreshes the manifest after a mutation. The manifest
// only feeds expiry and listings and is rebuilt on load, so failures are logged.
func (s *Session) writeManifestLocked(ctx context.Context) {
	if err := s.manifestLocked(); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to write session manifest", "session_id", s.id, "error", err)
	}
}

func (s *Session) manifestLocked() error {
	return storage.WriteManifest(s.disk.layout.ManifestPath(s.id), storage.Manifest{
		SessionID:    s.id,
		CreatedAt:    s.createdAt,
		LastActivity: s.LastActivity(),
		Dimension:    s.index.Dim(),
		Chunks:       s.store.Len(),
		Meetings:     s.store.MeetingCount(),
	})
}

// close marks the session evicted and releases its structures. When purge
// is set the on-disk files are deleted; otherwise they are flushed.
func (s *Session) close(purge bool) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evicted {
		return nil
	}
	s.evicted = true

	var errs []error
	if s.disk != nil {
		if !purge {
			errs = append(errs, s.flushLocked())
		}
		errs = append(errs, s.disk.db.Close())
		if purge {
			errs = append(errs, s.disk.layout.Remove(s.id))
		}
	}
	s.index = nil
	s.store = nil
	return errors.Join(errs...)
}
