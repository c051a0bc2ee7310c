package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meeting-search/internal/meeting"
	"meeting-search/internal/metadata"
	"meeting-search/internal/storage"
	"meeting-search/internal/vectorindex"
)

func TestRegistry_GetOrCreate_ConcurrentCallsShareSession(t *testing.T) {
	for _, persistent := range []bool{false, true} {
		name := "memory"
		opts := Options{}
		if persistent {
			name = "persistent"
			opts.DataDir = t.TempDir()
		}
		t.Run(name, func(t *testing.T) {
			r := NewRegistry(opts)
			defer func() { _ = r.Close() }()

			const callers = 16
			got := make([]*Session, callers)
			var wg sync.WaitGroup
			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					s, err := r.GetOrCreate(context.Background(), "shared")
					assert.NoError(t, err)
					got[i] = s
				}(i)
			}
			wg.Wait()

			for i := 1; i < callers; i++ {
				assert.Same(t, got[0], got[i])
			}
			assert.Len(t, r.Infos(), 1)
		})
	}
}

func TestRegistry_RejectsInvalidSessionID(t *testing.T) {
	r := NewRegistry(Options{})
	for _, id := range []string{"", "../escape", "has space", "-leading"} {
		_, err := r.GetOrCreate(context.Background(), id)
		var vErr *meeting.ValidationError
		assert.ErrorAs(t, err, &vErr, "id %q", id)
	}
}

func TestRegistry_SessionsAreIsolated(t *testing.T) {
	r := NewRegistry(Options{})
	ctx := context.Background()

	a, err := r.GetOrCreate(ctx, "a")
	require.NoError(t, err)
	b, err := r.GetOrCreate(ctx, "b")
	require.NoError(t, err)

	require.NoError(t, a.Insert(ctx, testEntry("c1", "m1", 1, 0, 0)))
	// b fixes its own dimensionality.
	require.NoError(t, b.Insert(ctx, testEntry("c1", "m1", 1, 0)))

	_, chunks := counts(t, a)
	assert.Equal(t, 1, chunks)
	info, err := b.Info()
	require.NoError(t, err)
	assert.Equal(t, 2, info.Dimension)
}

func TestRegistry_Evict(t *testing.T) {
	ctx := context.Background()
	var evicted []string
	r := NewRegistry(Options{OnEvict: func(_ context.Context, id string) { evicted = append(evicted, id) }})

	s, err := r.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, testEntry("c1", "m1", 1, 0)))

	require.NoError(t, r.Evict(ctx, "s1"))
	assert.Equal(t, []string{"s1"}, evicted)

	var notFound *meeting.SessionNotFoundError
	err = s.Read(ctx, func(*vectorindex.Index, *metadata.Store) error { return nil })
	assert.ErrorAs(t, err, &notFound, "stale handle must fail")

	_, err = r.Get(ctx, "s1")
	assert.ErrorAs(t, err, &notFound)

	assert.ErrorAs(t, r.Evict(ctx, "s1"), &notFound)

	fresh, err := r.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	assert.NotSame(t, s, fresh)
	_, chunks := counts(t, fresh)
	assert.Equal(t, 0, chunks)
}

func TestRegistry_PersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	r := NewRegistry(Options{DataDir: dir})
	s, err := r.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx,
		testEntry("c1", "m1", 1, 0, 0),
		testEntry("c2", "m2", 0, 1, 0),
	))
	require.NoError(t, r.Close())

	layout := storage.Layout{Root: dir}
	for _, path := range []string{layout.IndexPath("s1"), layout.MetadataPath("s1"), layout.ManifestPath("s1")} {
		_, err := os.Stat(path)
		assert.NoError(t, err, path)
	}

	reopened := NewRegistry(Options{DataDir: dir})
	defer func() { _ = reopened.Close() }()

	s2, err := reopened.Get(ctx, "s1")
	require.NoError(t, err)

	err = s2.Read(ctx, func(index *vectorindex.Index, store *metadata.Store) error {
		assert.Equal(t, 2, index.Len())
		assert.Equal(t, 2, store.Len())

		chunk, ok := store.Get("c2")
		require.True(t, ok)
		assert.Equal(t, "m2", chunk.MeetingID)
		assert.Equal(t, []string{"Alice"}, chunk.Participants)
		assert.True(t, chunk.MeetingDate.Equal(baseTime))

		matches, err := index.Search(ctx, []float32{0, 2, 0}, 1)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "c2", matches[0].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestRegistry_ReloadDropsOrphanedRows(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	r := NewRegistry(Options{DataDir: dir})
	s, err := r.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, testEntry("c1", "m1", 1, 0)))
	require.NoError(t, r.Close())

	// Losing the index file leaves metadata rows without vectors.
	require.NoError(t, os.Remove(filepath.Join(dir, "s1", "index.bin")))

	reopened := NewRegistry(Options{DataDir: dir})
	defer func() { _ = reopened.Close() }()
	s2, err := reopened.GetOrCreate(ctx, "s1")
	require.NoError(t, err)

	vectors, chunks := counts(t, s2)
	assert.Equal(t, 0, vectors)
	assert.Equal(t, 0, chunks)
}

func TestRegistry_FailedIndexWriteRollsBackInsert(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	layout := storage.Layout{Root: dir}

	r := NewRegistry(Options{DataDir: dir})
	s, err := r.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, testEntry("c1", "m1", 1, 0)))

	// A directory in place of the index file makes the atomic rename fail.
	indexPath := layout.IndexPath("s1")
	require.NoError(t, os.Remove(indexPath))
	require.NoError(t, os.MkdirAll(filepath.Join(indexPath, "blocker"), 0o755))

	err = s.Insert(ctx, testEntry("c2", "m2", 0, 1))
	require.Error(t, err)

	vectors, chunks := counts(t, s)
	assert.Equal(t, 1, vectors)
	assert.Equal(t, 1, chunks)

	require.NoError(t, os.RemoveAll(indexPath))
	require.NoError(t, r.Close())

	reopened := NewRegistry(Options{DataDir: dir})
	defer func() { _ = reopened.Close() }()
	s2, err := reopened.Get(ctx, "s1")
	require.NoError(t, err)

	err = s2.Read(ctx, func(index *vectorindex.Index, store *metadata.Store) error {
		assert.True(t, index.Contains("c1"))
		_, ok := store.Get("c1")
		assert.True(t, ok, "acknowledged chunk must survive a restart")
		assert.False(t, index.Contains("c2"))
		_, ok = store.Get("c2")
		assert.False(t, ok, "rejected chunk must not reappear")
		return nil
	})
	require.NoError(t, err)
}

func TestRegistry_InsertIsDurableWithoutClose(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	r := NewRegistry(Options{DataDir: dir})
	s, err := r.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, testEntry("c1", "m1", 1, 0)))

	// A second registry sees the files as they stand, without a graceful close.
	other := NewRegistry(Options{DataDir: dir})
	defer func() { _ = other.Close() }()
	s2, err := other.Get(ctx, "s1")
	require.NoError(t, err)
	vectors, chunks := counts(t, s2)
	assert.Equal(t, 1, vectors)
	assert.Equal(t, 1, chunks)

	require.NoError(t, r.Close())
}

func TestRegistry_EvictPurgesDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	layout := storage.Layout{Root: dir}

	r := NewRegistry(Options{DataDir: dir})
	s, err := r.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, testEntry("c1", "m1", 1, 0)))
	require.True(t, layout.Exists("s1"))

	require.NoError(t, r.Evict(ctx, "s1"))
	assert.False(t, layout.Exists("s1"))
	_, err = os.Stat(layout.Dir("s1"))
	assert.True(t, os.IsNotExist(err))
}

func TestRegistry_EvictRacingReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	layout := storage.Layout{Root: dir}

	r := NewRegistry(Options{DataDir: dir})
	defer func() { _ = r.Close() }()

	for i := 0; i < 25; i++ {
		s, err := r.GetOrCreate(ctx, "s1")
		require.NoError(t, err)
		require.NoError(t, s.Insert(ctx, testEntry("seed", "m1", 1, 0)))

		var (
			wg       sync.WaitGroup
			reopened *Session
			openErr  error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Evict(ctx, "s1"))
		}()
		go func() {
			defer wg.Done()
			reopened, openErr = r.GetOrCreate(ctx, "s1")
		}()
		wg.Wait()
		require.NoError(t, openErr)

		// Whichever side won, a live handle must be backed by files on disk.
		err = reopened.Insert(ctx, testEntry("after", "m2", 0, 1))
		var notFound *meeting.SessionNotFoundError
		if errors.As(err, &notFound) {
			continue
		}
		require.NoError(t, err, "iteration %d", i)
		assert.True(t, layout.Exists("s1"), "iteration %d", i)

		require.NoError(t, r.Evict(ctx, "s1"))
	}
}

func TestRegistry_EvictUnloadedPersistedSession(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	r := NewRegistry(Options{DataDir: dir})
	_, err := r.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, r.Close())

	other := NewRegistry(Options{DataDir: dir})
	require.NoError(t, other.Evict(ctx, "s1"))
	assert.False(t, storage.Layout{Root: dir}.Exists("s1"))
}

func TestRegistry_Sweep(t *testing.T) {
	clock := newFakeClock()
	ctx := context.Background()
	var evicted []string
	r := NewRegistry(Options{
		IdleTimeout: 10 * time.Minute,
		Now:         clock.Now,
		OnEvict:     func(_ context.Context, id string) { evicted = append(evicted, id) },
	})

	_, err := r.GetOrCreate(ctx, "idle")
	require.NoError(t, err)
	clock.Advance(11 * time.Minute)
	_, err = r.GetOrCreate(ctx, "busy")
	require.NoError(t, err)

	assert.Equal(t, []string{"idle"}, r.Sweep(ctx))
	assert.Equal(t, []string{"idle"}, evicted)

	infos := r.Infos()
	require.Len(t, infos, 1)
	assert.Equal(t, "busy", infos[0].ID)

	assert.Empty(t, r.Sweep(ctx))
}

func TestRegistry_SweepDisabled(t *testing.T) {
	clock := newFakeClock()
	r := NewRegistry(Options{IdleTimeout: -1, Now: clock.Now})

	_, err := r.GetOrCreate(context.Background(), "s1")
	require.NoError(t, err)
	clock.Advance(48 * time.Hour)

	assert.Empty(t, r.Sweep(context.Background()))
	assert.Len(t, r.Infos(), 1)
}

func TestRegistry_CleanupExpired(t *testing.T) {
	dir := t.TempDir()
	clock := newFakeClock()
	ctx := context.Background()

	r := NewRegistry(Options{DataDir: dir, Now: clock.Now})
	old, err := r.GetOrCreate(ctx, "old")
	require.NoError(t, err)
	require.NoError(t, old.Insert(ctx, testEntry("c1", "m1", 1, 0)))
	clock.Advance(2 * time.Hour)
	recent, err := r.GetOrCreate(ctx, "recent")
	require.NoError(t, err)
	require.NoError(t, recent.Insert(ctx, testEntry("c1", "m1", 1, 0)))

	// Close flushes manifests with each session's own last activity.
	require.NoError(t, r.Close())

	clock.Advance(30 * time.Minute)
	startup := NewRegistry(Options{DataDir: dir, Now: clock.Now})
	removed, err := startup.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	layout := storage.Layout{Root: dir}
	assert.False(t, layout.Exists("old"))
	assert.True(t, layout.Exists("recent"))
}

func TestRegistry_ClearAll(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	seed := NewRegistry(Options{DataDir: dir})
	_, err := seed.GetOrCreate(ctx, "on-disk")
	require.NoError(t, err)
	require.NoError(t, seed.Close())

	r := NewRegistry(Options{DataDir: dir})
	_, err = r.GetOrCreate(ctx, "loaded")
	require.NoError(t, err)

	cleared, err := r.ClearAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, cleared)
	assert.Empty(t, r.Infos())

	ids, err := storage.Layout{Root: dir}.SessionIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRegistry_StartJanitor(t *testing.T) {
	clock := newFakeClock()
	evicted := make(chan string, 1)
	r := NewRegistry(Options{
		IdleTimeout: time.Minute,
		Now:         clock.Now,
		OnEvict:     func(_ context.Context, id string) { evicted <- id },
	})

	_, err := r.GetOrCreate(context.Background(), "s1")
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.StartJanitor(ctx, 5*time.Millisecond)

	select {
	case id := <-evicted:
		assert.Equal(t, "s1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not evict idle session")
	}
}
