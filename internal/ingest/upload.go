package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"meeting-search/internal/contextutil"
	"meeting-search/internal/meeting"
	"meeting-search/internal/session"
)

type fileKind int

const (
	kindUnsupported fileKind = iota
	kindAudio
	kindText
	kindMarkdown
)

var extensionKinds = map[string]fileKind{
	".mp3":  kindAudio,
	".wav":  kindAudio,
	".m4a":  kindAudio,
	".ogg":  kindAudio,
	".flac": kindAudio,
	".webm": kindAudio,
	".txt":  kindText,
	".rtf":  kindText,
	".md":   kindMarkdown,
}

// SupportedExtensions lists the accepted upload file extensions.
func SupportedExtensions() []string {
	return []string{".mp3", ".wav", ".m4a", ".ogg", ".flac", ".webm", ".txt", ".rtf", ".md"}
}

func classify(filename string) fileKind {
	return extensionKinds[strings.ToLower(filepath.Ext(filename))]
}

// Upload describes an uploaded meeting file. Empty fields are defaulted:
// the title from the filename, the date to now, participants from the
// analysis and the language from the transcription.
type Upload struct {
	Filename     string
	MeetingID    string
	Title        string
	Date         time.Time
	Participants []string
	Language     string
}

// UploadResult reports what an upload produced.
type UploadResult struct {
	MeetingID     string                      `json:"meeting_id"`
	Title         string                      `json:"title"`
	Date          time.Time                   `json:"date"`
	Language      string                      `json:"language"`
	Participants  []string                    `json:"participants"`
	ChunksCreated int                         `json:"chunks_created"`
	ContentTypes  map[meeting.ContentType]int `json:"content_types"`
	Duration      float64                     `json:"duration_seconds,omitempty"`
}

// ProcessUpload converts an uploaded file to a transcript, analyzes it and
// indexes the result. Audio goes through the Transcriber, markdown is
// flattened to text and plain text is used as is. A collaborator failure
// leaves the session untouched.
func (p *Pipeline) ProcessUpload(ctx context.Context, s *session.Session, upload Upload, r io.Reader) (UploadResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	kind := classify(upload.Filename)
	if kind == kindUnsupported {
		return UploadResult{}, &meeting.ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("unsupported file type %q; supported: %s", filepath.Ext(upload.Filename), strings.Join(SupportedExtensions(), ", ")),
		}
	}

	data, err := io.ReadAll(io.LimitReader(r, p.maxUpload+1))
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > p.maxUpload {
		return UploadResult{}, &meeting.ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("exceeds the %d MB upload limit", p.maxUpload>>20),
		}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return UploadResult{}, &meeting.ValidationError{Field: "file", Message: "cannot be empty"}
	}

	var (
		transcript string
		language   string
		duration   float64
	)
	switch kind {
	case kindAudio:
		if p.transcriber == nil {
			return UploadResult{}, &meeting.IngestionFailedError{Stage: "transcribe", Err: errors.New("no transcription service configured")}
		}
		result, err := p.transcriber.Transcribe(ctx, upload.Filename, bytes.NewReader(data))
		if err != nil {
			return UploadResult{}, &meeting.IngestionFailedError{Stage: "transcribe", Err: err}
		}
		transcript, language, duration = result.Text, result.Language, result.Duration
	case kindMarkdown:
		transcript = p.markdown.Text(data)
	default:
		transcript = string(data)
	}

	if strings.TrimSpace(transcript) == "" {
		return UploadResult{}, &meeting.IngestionFailedError{Stage: "transcribe", Err: errors.New("transcript is empty")}
	}

	var analysis meeting.Analysis
	if p.analyzer != nil {
		analysis, err = p.analyzer.Analyze(ctx, transcript)
		if err != nil {
			return UploadResult{}, &meeting.IngestionFailedError{Stage: "analyze", Err: err}
		}
	}

	meta := p.uploadMetadata(upload, language)
	chunks, err := p.IngestMeeting(ctx, s, transcript, analysis, meta)
	if err != nil {
		return UploadResult{}, err
	}

	result := UploadResult{
		MeetingID:     meta.ID,
		Title:         meta.Title,
		Date:          meta.Date,
		Language:      meta.Language,
		Participants:  chunks[0].Participants,
		ChunksCreated: len(chunks),
		ContentTypes:  make(map[meeting.ContentType]int),
		Duration:      duration,
	}
	for _, c := range chunks {
		result.ContentTypes[c.ContentType]++
	}

	logger.InfoContext(ctx, "processed upload",
		"session_id", s.ID(),
		"filename", upload.Filename,
		"meeting_id", meta.ID,
		"chunks", len(chunks),
	)
	return result, nil
}

func (p *Pipeline) uploadMetadata(upload Upload, detectedLanguage string) meeting.Metadata {
	meta := meeting.Metadata{
		ID:           strings.TrimSpace(upload.MeetingID),
		Title:        strings.TrimSpace(upload.Title),
		Date:         upload.Date,
		Participants: upload.Participants,
		Language:     meeting.NormalizeLanguage(upload.Language),
	}
	if meta.ID == "" {
		meta.ID = p.newID()
	}
	if meta.Title == "" {
		meta.Title = "Meeting - " + filepath.Base(upload.Filename)
	}
	if meta.Date.IsZero() {
		meta.Date = p.now()
	}
	if meta.Language == meeting.UnknownLanguage {
		meta.Language = meeting.NormalizeLanguage(detectedLanguage)
	}
	return meta
}
