package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTranscriptionClient_Transcribe(t *testing.T) {
	tests := []struct {
		name         string
		serverResp   func(w http.ResponseWriter, r *http.Request)
		wantText     string
		wantLanguage string
		wantErr      bool
	}{
		{
			name: "verbose json with language name",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/audio/transcriptions" {
					t.Errorf("expected /v1/audio/transcriptions, got %s", r.URL.Path)
				}
				if err := r.ParseMultipartForm(1 << 20); err != nil {
					t.Errorf("ParseMultipartForm() error = %v", err)
					return
				}
				if got := r.FormValue("model"); got != "whisper-1" {
					t.Errorf("model = %q, want whisper-1", got)
				}
				if got := r.FormValue("response_format"); got != "verbose_json" {
					t.Errorf("response_format = %q, want verbose_json", got)
				}
				file, header, err := r.FormFile("file")
				if err != nil {
					t.Errorf("FormFile() error = %v", err)
					return
				}
				defer func() { _ = file.Close() }()
				if header.Filename != "standup.wav" {
					t.Errorf("filename = %q, want standup.wav", header.Filename)
				}
				data, _ := io.ReadAll(file)
				if string(data) != "RIFF" {
					t.Errorf("file body = %q", data)
				}
				_ = json.NewEncoder(w).Encode(map[string]any{
					"text":     " Good morning everyone. ",
					"language": "english",
					"duration": 12.5,
				})
			},
			wantText:     "Good morning everyone.",
			wantLanguage: "en",
		},
		{
			name: "missing language",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"text": "hola"})
			},
			wantText:     "hola",
			wantLanguage: "unknown",
		},
		{
			name: "server error",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte("unsupported format"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResp))
			defer server.Close()

			client := NewTranscriptionClient(server.URL, "", "whisper-1")
			got, err := client.Transcribe(context.Background(), "/tmp/uploads/standup.wav", strings.NewReader("RIFF"))

			if tt.wantErr {
				if err == nil {
					t.Error("Transcribe() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Transcribe() unexpected error: %v", err)
			}
			if got.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", got.Text, tt.wantText)
			}
			if got.Language != tt.wantLanguage {
				t.Errorf("Language = %q, want %q", got.Language, tt.wantLanguage)
			}
		})
	}
}
