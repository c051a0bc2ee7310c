package session

import (
	"context"
	"fmt"
	"time"

	"meeting-search/internal/contextutil"
	"meeting-search/internal/storage"
	"meeting-search/internal/vectorindex"
)

// openPersisted opens or creates the on-disk session id. Chunks present in
// only one of the two files are dropped so both stores hold the same ids.
func openPersisted(ctx context.Context, layout storage.Layout, id string, now func() time.Time) (*Session, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := layout.Create(id); err != nil {
		return nil, err
	}
	db, err := storage.New(layout.MetadataPath(id))
	if err != nil {
		return nil, fmt.Errorf("failed to open session metadata: %w", err)
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate session metadata: %w", err)
	}
	repo := storage.NewChunkRepo(db)

	s := newSession(id, now)
	s.disk = &disk{layout: layout, db: db, repo: repo}

	m, err := storage.ReadManifest(layout.ManifestPath(id))
	hasManifest := err == nil
	if hasManifest && !m.CreatedAt.IsZero() {
		s.createdAt = m.CreatedAt
	}

	index, err := vectorindex.Load(layout.IndexPath(id))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	records, err := repo.ListAll(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var orphanRows []string
	for _, rec := range records {
		chunk, err := rec.Chunk()
		if err != nil {
			logger.WarnContext(ctx, "dropping undecodable chunk row", "session_id", id, "chunk_id", rec.ID, "error", err)
			orphanRows = append(orphanRows, rec.ID)
			continue
		}
		if !index.Contains(chunk.ID) {
			orphanRows = append(orphanRows, chunk.ID)
			continue
		}
		s.store.Put(chunk)
	}

	orphanVectors := 0
	for _, vid := range index.IDs() {
		if _, ok := s.store.Get(vid); !ok {
			index.Remove(vid)
			orphanVectors++
		}
	}
	s.index = index

	if len(orphanRows) > 0 {
		if err := repo.DeleteByIDs(ctx, orphanRows); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to drop orphaned chunk rows: %w", err)
		}
	}
	if len(orphanRows) > 0 || orphanVectors > 0 {
		logger.WarnContext(ctx, "reconciled session stores", "session_id", id, "orphan_rows", len(orphanRows), "orphan_vectors", orphanVectors)
	}
	if len(orphanRows) > 0 || orphanVectors > 0 || !hasManifest {
		if err := s.flushLocked(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	logger.InfoContext(ctx, "opened session", "session_id", id, "chunks", s.store.Len(), "dimension", s.index.Dim())
	return s, nil
}
