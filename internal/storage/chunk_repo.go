package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks meeting-search/internal/storage ChunkStore

import (
	"context"
	"database/sql"
	"fmt"
)

// ChunkStore defines the interface for chunk storage operations.
type ChunkStore interface {
	// InsertBatch inserts chunks in one transaction; either all rows are
	// written or none are.
	InsertBatch(ctx context.Context, chunks []*ChunkRecord) error
	// DeleteByIDs deletes the given chunk rows in one transaction.
	// Missing ids are ignored.
	DeleteByIDs(ctx context.Context, ids []string) error
	// ListAll returns every chunk row ordered by created_at, id.
	ListAll(ctx context.Context) ([]*ChunkRecord, error)
}

// ChunkRepo provides methods for chunk operations.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// DB returns the underlying database handle.
func (r *ChunkRepo) DB() *sql.DB {
	return r.db
}

// InsertBatch inserts chunks in one transaction.
func (r *ChunkRepo) InsertBatch(ctx context.Context, chunks []*ChunkRecord) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, meeting_id, meeting_title, meeting_date, content_type, text, participants, language, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.MeetingID, c.MeetingTitle, c.MeetingDate, c.ContentType, c.Text, c.Participants, c.Language, c.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	return nil
}

// DeleteByIDs deletes chunk rows by id in one transaction.
func (r *ChunkRepo) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete chunk %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunk deletion: %w", err)
	}
	return nil
}

// ListAll returns every chunk row ordered by created_at, id.
// Returns an empty slice if the table is empty (not an error).
func (r *ChunkRepo) ListAll(ctx context.Context) ([]*ChunkRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, meeting_id, meeting_title, meeting_date, content_type, text, participants, language, created_at
		 FROM chunks ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	chunks := []*ChunkRecord{}
	for rows.Next() {
		var c ChunkRecord
		if err := rows.Scan(&c.ID, &c.MeetingID, &c.MeetingTitle, &c.MeetingDate, &c.ContentType, &c.Text, &c.Participants, &c.Language, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return chunks, nil
}
