// Package ingest turns meeting content into indexed chunks: it builds
// fragments, embeds them in one batch and inserts them atomically into a
// session, optionally mirroring them to an external vector store.
package ingest

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_ingest.go -package=mocks meeting-search/internal/ingest Transcriber,Analyzer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"meeting-search/internal/contextutil"
	"meeting-search/internal/llm"
	"meeting-search/internal/meeting"
	"meeting-search/internal/session"
	"meeting-search/internal/vectorstore"
)

// Transcriber converts audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (llm.Transcription, error)
}

// Analyzer extracts a summary, action items, decisions and a timeline from a transcript.
type Analyzer interface {
	Analyze(ctx context.Context, transcript string) (meeting.Analysis, error)
}

// DefaultMaxUploadBytes bounds the size of a single uploaded file.
const DefaultMaxUploadBytes = 50 << 20

// Options configures a Pipeline. Nil collaborators disable the features
// that need them.
type Options struct {
	Transcriber    Transcriber
	Analyzer       Analyzer
	Mirror         *vectorstore.Mirror
	Builder        *meeting.Builder
	MaxUploadBytes int64
	Now            func() time.Time
	NewID          func() string
}

// Pipeline orchestrates building, embedding and inserting meeting chunks.
type Pipeline struct {
	embedder    llm.Embedder
	transcriber Transcriber
	analyzer    Analyzer
	mirror      *vectorstore.Mirror
	builder     *meeting.Builder
	markdown    *MarkdownConverter
	maxUpload   int64
	now         func() time.Time
	newID       func() string
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(embedder llm.Embedder, opts Options) *Pipeline {
	p := &Pipeline{
		embedder:    embedder,
		transcriber: opts.Transcriber,
		analyzer:    opts.Analyzer,
		mirror:      opts.Mirror,
		builder:     opts.Builder,
		markdown:    NewMarkdownConverter(),
		maxUpload:   opts.MaxUploadBytes,
		now:         opts.Now,
		newID:       opts.NewID,
	}
	if p.builder == nil {
		p.builder = meeting.NewBuilder()
	}
	if p.maxUpload <= 0 {
		p.maxUpload = DefaultMaxUploadBytes
	}
	if p.now == nil {
		p.now = func() time.Time { return time.Now().UTC() }
	}
	if p.newID == nil {
		p.newID = uuid.NewString
	}
	return p
}

// Ingest builds, embeds and inserts a single fragment.
func (p *Pipeline) Ingest(ctx context.Context, s *session.Session, fragment meeting.Fragment, meta meeting.Metadata) (meeting.Chunk, error) {
	chunk, err := p.builder.Build(fragment, meta)
	if err != nil {
		return meeting.Chunk{}, err
	}
	if err := p.insert(ctx, s, []meeting.Chunk{chunk}); err != nil {
		return meeting.Chunk{}, err
	}
	return chunk, nil
}

// IngestMeeting indexes a transcript and its analysis as one all-or-nothing
// batch. Analysis participants are used when meta names none.
func (p *Pipeline) IngestMeeting(ctx context.Context, s *session.Session, transcript string, analysis meeting.Analysis, meta meeting.Metadata) ([]meeting.Chunk, error) {
	if len(meta.Participants) == 0 {
		meta.Participants = analysis.Participants
	}

	fragments := meeting.FragmentsFromAnalysis(transcript, analysis)
	if len(fragments) == 0 {
		return nil, &meeting.ValidationError{Field: "text", Message: "meeting has no content"}
	}

	chunks, err := p.builder.BuildAll(fragments, meta)
	if err != nil {
		return nil, err
	}
	if err := p.insert(ctx, s, chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

// RemoveMeeting deletes every chunk of a meeting from the session and the mirror.
func (p *Pipeline) RemoveMeeting(ctx context.Context, s *session.Session, meetingID string) ([]string, error) {
	ids, err := s.RemoveMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if p.mirror != nil {
		if err := p.mirror.Remove(ctx, s.ID(), ids); err != nil {
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to remove chunks from mirror", "session_id", s.ID(), "meeting_id", meetingID, "error", err)
		}
	}
	return ids, nil
}

// insert embeds chunk texts in one call and writes the batch to the session.
func (p *Pipeline) insert(ctx context.Context, s *session.Session, chunks []meeting.Chunk) error {
	logger := contextutil.LoggerFromContext(ctx)

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return &meeting.IngestionFailedError{Stage: "embed", Err: err}
	}
	if len(vectors) != len(chunks) {
		return &meeting.IngestionFailedError{
			Stage: "embed",
			Err:   fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(chunks)),
		}
	}

	entries := make([]session.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = session.Entry{Chunk: c, Vector: vectors[i]}
	}
	if err := s.Insert(ctx, entries...); err != nil {
		return err
	}

	logger.InfoContext(ctx, "ingested chunks", "session_id", s.ID(), "meeting_id", chunks[0].MeetingID, "count", len(chunks))

	if p.mirror != nil {
		if err := p.mirror.Index(context.WithoutCancel(ctx), s.ID(), chunks, vectors); err != nil {
			logger.WarnContext(ctx, "failed to mirror chunks", "session_id", s.ID(), "count", len(chunks), "error", err)
		}
	}
	return nil
}
