package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"meeting-search/internal/contextutil"
	"meeting-search/internal/meeting"
	"meeting-search/internal/storage"
)

// DefaultIdleTimeout is how long a session may go unused before it is evicted.
const DefaultIdleTimeout = time.Hour

// Options configures a Registry.
type Options struct {
	// DataDir enables persistence under the given root. Empty keeps every
	// session in memory only.
	DataDir string
	// IdleTimeout evicts sessions unused for longer than this. Zero uses
	// DefaultIdleTimeout; a negative value disables idle eviction.
	IdleTimeout time.Duration
	// OnEvict is called after a session has been torn down.
	OnEvict func(ctx context.Context, sessionID string)
	// Now overrides the clock.
	Now func() time.Time
}

// Registry maps session ids to sessions. Its lock guards only the map, so
// creating or loading one session never blocks operations on another.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	layout      *storage.Layout
	idleTimeout time.Duration
	onEvict     func(ctx context.Context, sessionID string)
	now         func() time.Time
	loads       singleflight.Group
	lifecycle   idLocks
	logger      *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(opts Options) *Registry {
	r := &Registry{
		sessions:    make(map[string]*Session),
		idleTimeout: opts.IdleTimeout,
		onEvict:     opts.OnEvict,
		now:         opts.Now,
		logger:      slog.Default(),
	}
	if r.idleTimeout == 0 {
		r.idleTimeout = DefaultIdleTimeout
	}
	if r.now == nil {
		r.now = func() time.Time { return time.Now().UTC() }
	}
	if opts.DataDir != "" {
		r.layout = &storage.Layout{Root: opts.DataDir}
	}
	return r
}

// Persistent reports whether sessions are backed by disk.
func (r *Registry) Persistent() bool { return r.layout != nil }

func validateID(id string) error {
	if !storage.ValidSessionID(id) {
		return &meeting.ValidationError{Field: "session_id", Message: "must be 1-128 letters, digits, '-' or '_'"}
	}
	return nil
}

// GetOrCreate returns the session for id, loading it from disk or creating
// it on first use. Concurrent first calls for the same id share one session.
func (r *Registry) GetOrCreate(ctx context.Context, id string) (*Session, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if s, ok := r.sessions[id]; ok {
		s.touch()
		r.mu.Unlock()
		return s, nil
	}
	if r.layout == nil {
		s := newSession(id, r.now)
		r.sessions[id] = s
		r.mu.Unlock()
		contextutil.LoggerFromContext(ctx).InfoContext(ctx, "created session", "session_id", id)
		return s, nil
	}
	r.mu.Unlock()

	return r.open(ctx, id)
}

// Get returns an existing session, reloading it from disk if needed.
// Unknown ids fail with SessionNotFoundError.
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if s, ok := r.sessions[id]; ok {
		s.touch()
		r.mu.Unlock()
		return s, nil
	}
	r.mu.Unlock()

	if r.layout == nil || !r.layout.Exists(id) {
		return nil, &meeting.SessionNotFoundError{SessionID: id}
	}
	return r.open(ctx, id)
}

// open loads or creates a persisted session outside the registry lock.
// Concurrent opens of the same id are collapsed into one.
func (r *Registry) open(ctx context.Context, id string) (*Session, error) {
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := r.loads.Do(id, func() (interface{}, error) {
		unlock := r.lifecycle.lock(id)
		defer unlock()

		r.mu.Lock()
		if s, ok := r.sessions[id]; ok {
			r.mu.Unlock()
			return s, nil
		}
		r.mu.Unlock()

		s, err := openPersisted(loadCtx, *r.layout, id, r.now)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if existing, ok := r.sessions[id]; ok {
			_ = s.close(false)
			return existing, nil
		}
		r.sessions[id] = s
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	s := v.(*Session)
	s.touch()
	return s, nil
}

// Evict tears down a session and deletes its persisted files. In-flight
// operations on it fail with SessionNotFoundError.
func (r *Registry) Evict(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := r.teardown(ctx, id); err != nil {
		return err
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "evicted session", "session_id", id)
	if r.onEvict != nil {
		r.onEvict(ctx, id)
	}
	return nil
}

// teardown unloads id and purges its files while holding the id's lifecycle
// lock, so no concurrent load can reopen the directory mid-purge.
func (r *Registry) teardown(ctx context.Context, id string) error {
	unlock := r.lifecycle.lock(id)
	defer unlock()

	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	switch {
	case ok:
		if err := s.close(true); err != nil {
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "error while closing evicted session", "session_id", id, "error", err)
		}
		return nil
	case r.layout != nil && r.layout.Exists(id):
		return r.layout.Remove(id)
	default:
		return &meeting.SessionNotFoundError{SessionID: id}
	}
}

// Sweep evicts every session idle for longer than the idle timeout and
// returns their ids.
func (r *Registry) Sweep(ctx context.Context) []string {
	if r.idleTimeout < 0 {
		return nil
	}
	cutoff := r.now().Add(-r.idleTimeout)

	r.mu.Lock()
	var candidates []string
	for id, s := range r.sessions {
		if s.LastActivity().Before(cutoff) {
			candidates = append(candidates, id)
		}
	}
	r.mu.Unlock()

	ids := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if r.sweepOne(ctx, id, cutoff) {
			ids = append(ids, id)
		}
	}
	if len(ids) > 0 {
		r.logger.InfoContext(ctx, "evicted idle sessions", "count", len(ids))
	}
	sort.Strings(ids)
	return ids
}

// sweepOne evicts id if it is still loaded and still idle once its
// lifecycle lock is held.
func (r *Registry) sweepOne(ctx context.Context, id string, cutoff time.Time) bool {
	unlock := r.lifecycle.lock(id)
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok || !s.LastActivity().Before(cutoff) {
		r.mu.Unlock()
		unlock()
		return false
	}
	delete(r.sessions, id)
	r.mu.Unlock()

	if err := s.close(true); err != nil {
		r.logger.WarnContext(ctx, "error while closing idle session", "session_id", id, "error", err)
	}
	unlock()

	if r.onEvict != nil {
		r.onEvict(ctx, id)
	}
	return true
}

// StartJanitor sweeps idle sessions every interval until ctx is done.
func (r *Registry) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 || r.idleTimeout < 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Sweep(ctx)
			}
		}
	}()
}

// CleanupExpired deletes persisted sessions whose manifest shows no activity
// within the idle timeout. It is meant to run once at startup.
func (r *Registry) CleanupExpired(ctx context.Context) (int, error) {
	if r.layout == nil || r.idleTimeout < 0 {
		return 0, nil
	}
	ids, err := r.layout.SessionIDs()
	if err != nil {
		return 0, err
	}
	cutoff := r.now().Add(-r.idleTimeout)

	removed := 0
	for _, id := range ids {
		ok, err := r.removeIfExpired(ctx, id, cutoff)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	if removed > 0 {
		r.logger.InfoContext(ctx, "removed expired sessions", "count", removed)
	}
	return removed, nil
}

func (r *Registry) removeIfExpired(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	unlock := r.lifecycle.lock(id)
	defer unlock()

	r.mu.Lock()
	_, loaded := r.sessions[id]
	r.mu.Unlock()
	if loaded {
		return false, nil
	}

	m, err := storage.ReadManifest(r.layout.ManifestPath(id))
	if err != nil {
		r.logger.WarnContext(ctx, "skipping session without readable manifest", "session_id", id, "error", err)
		return false, nil
	}
	if !m.LastActivity.Before(cutoff) {
		return false, nil
	}
	if err := r.layout.Remove(id); err != nil {
		return false, err
	}
	return true, nil
}

// Infos describes every session currently held in memory, ordered by id.
func (r *Registry) Infos() []Info {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	infos := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		info, err := s.Info()
		if err != nil {
			continue
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// ClearAll evicts every session, in memory and on disk, and returns how many
// were removed.
func (r *Registry) ClearAll(ctx context.Context) (int, error) {
	seen := make(map[string]struct{})

	r.mu.Lock()
	for id := range r.sessions {
		seen[id] = struct{}{}
	}
	r.mu.Unlock()

	if r.layout != nil {
		ids, err := r.layout.SessionIDs()
		if err != nil {
			return 0, err
		}
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}

	var errs []error
	cleared := 0
	for id := range seen {
		err := r.Evict(ctx, id)
		var notFound *meeting.SessionNotFoundError
		if errors.As(err, &notFound) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		cleared++
	}
	return cleared, errors.Join(errs...)
}

// Close flushes and releases every loaded session, keeping persisted files.
func (r *Registry) Close() error {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		sessions = append(sessions, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		errs = append(errs, s.close(false))
	}
	return errors.Join(errs...)
}
