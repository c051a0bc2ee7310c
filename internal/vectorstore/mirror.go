package vectorstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"meeting-search/internal/contextutil"
	"meeting-search/internal/meeting"
)

// CollectionPrefix is prepended to a session id to name its mirror collection.
const CollectionPrefix = "meetings_"

// CollectionName returns the mirror collection for a session.
func CollectionName(sessionID string) string {
	return CollectionPrefix + sessionID
}

// PointID maps a chunk id to a Qdrant point id. Qdrant accepts only UUIDs
// and integers, so ids that are not UUIDs are hashed into a name-based UUID.
func PointID(chunkID string) string {
	if id, err := uuid.Parse(chunkID); err == nil {
		return id.String()
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
}

// Mirror copies session chunks into one Qdrant collection per session.
// The local index stays authoritative; the mirror is never read for search.
type Mirror struct {
	store   VectorStore
	ensured sync.Map
}

// NewMirror creates a mirror writing to store.
func NewMirror(store VectorStore) *Mirror {
	return &Mirror{store: store}
}

// Index upserts chunks and their vectors into the session collection,
// creating it on first use. chunks and vectors are parallel slices.
func (m *Mirror) Index(ctx context.Context, sessionID string, chunks []meeting.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mirror: %d chunks but %d vectors", len(chunks), len(vectors))
	}

	collection := CollectionName(sessionID)
	if _, ok := m.ensured.Load(collection); !ok {
		if err := m.store.EnsureCollection(ctx, collection, len(vectors[0])); err != nil {
			return fmt.Errorf("mirror: %w", err)
		}
		m.ensured.Store(collection, struct{}{})
	}

	points := make([]Point, 0, len(chunks))
	for i, c := range chunks {
		points = append(points, Point{
			ID:   PointID(c.ID),
			Vec:  vectors[i],
			Meta: payload(c),
		})
	}
	if err := m.store.Upsert(ctx, collection, points); err != nil {
		return fmt.Errorf("mirror: %w", err)
	}
	return nil
}

// Remove deletes chunk ids from the session collection.
func (m *Mirror) Remove(ctx context.Context, sessionID string, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	ids := make([]string, len(chunkIDs))
	for i, id := range chunkIDs {
		ids[i] = PointID(id)
	}
	if err := m.store.Delete(ctx, CollectionName(sessionID), ids); err != nil {
		return fmt.Errorf("mirror: %w", err)
	}
	return nil
}

// Drop deletes the session collection. It is used as the registry eviction hook,
// so failures are logged rather than returned.
func (m *Mirror) Drop(ctx context.Context, sessionID string) {
	collection := CollectionName(sessionID)
	m.ensured.Delete(collection)
	if err := m.store.DropCollection(ctx, collection); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to drop mirror collection", "collection", collection, "error", err)
	}
}

// HealthCheck reports whether the mirror backend is reachable.
func (m *Mirror) HealthCheck(ctx context.Context) error {
	return m.store.HealthCheck(ctx)
}

func payload(c meeting.Chunk) map[string]any {
	participants := make([]any, len(c.Participants))
	for i, p := range c.Participants {
		participants[i] = p
	}
	meta := map[string]any{
		"chunk_id":      c.ID,
		"meeting_id":    c.MeetingID,
		"meeting_title": c.MeetingTitle,
		"content_type":  string(c.ContentType),
		"text":          c.Text,
		"participants":  participants,
		"language":      c.LanguageOrUnknown(),
		"created_at":    c.CreatedAt.UTC().Format(time.RFC3339),
	}
	if !c.MeetingDate.IsZero() {
		meta["meeting_date"] = c.MeetingDate.UTC().Format("2006-01-02")
	}
	return meta
}
