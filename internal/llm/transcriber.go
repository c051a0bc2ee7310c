package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"meeting-search/internal/meeting"
)

// Transcription is the output of a speech-to-text request.
type Transcription struct {
	Text     string
	Language string
	Duration float64
}

// TranscriptionClient is a client for an OpenAI-compatible audio
// transcription API (/v1/audio/transcriptions).
type TranscriptionClient struct {
	BaseURL string
	APIKey  string
	Model   string
	client  *http.Client
}

// NewTranscriptionClient creates a new speech-to-text client.
func NewTranscriptionClient(baseURL, apiKey, model string) *TranscriptionClient {
	return &TranscriptionClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		client:  http.DefaultClient,
	}
}

// transcriptionResponse is the verbose_json response body.
type transcriptionResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
}

// Transcribe uploads audio and returns its text and detected language code.
func (c *TranscriptionClient) Transcribe(ctx context.Context, filename string, audio io.Reader) (Transcription, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return Transcription{}, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return Transcription{}, fmt.Errorf("failed to read audio: %w", err)
	}
	if c.Model != "" {
		if err := writer.WriteField("model", c.Model); err != nil {
			return Transcription{}, fmt.Errorf("failed to write model field: %w", err)
		}
	}
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return Transcription{}, fmt.Errorf("failed to write format field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Transcription{}, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	url := fmt.Sprintf("%s/v1/audio/transcriptions", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, &body)
	if err != nil {
		return Transcription{}, fmt.Errorf("failed to create request: %w", err)
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return Transcription{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return Transcription{}, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var tr transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return Transcription{}, fmt.Errorf("failed to decode response: %w", err)
	}

	return Transcription{
		Text:     strings.TrimSpace(tr.Text),
		Language: meeting.NormalizeLanguage(tr.Language),
		Duration: tr.Duration,
	}, nil
}
