package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	LogLevel  slog.Level
	LogFormat string

	// DataDir is the session persistence root. Empty when PersistSessions is false.
	DataDir              string
	PersistSessions      bool
	SessionIdleTimeout   time.Duration
	SessionSweepInterval time.Duration

	EmbeddingBaseURL    string
	EmbeddingModelName  string
	EmbeddingAPIKey     string
	EmbeddingVectorSize int
	// EmbeddingRateLimit is requests per second; 0 means unlimited.
	EmbeddingRateLimit float64

	LLMBaseURL   string
	LLMModelName string
	LLMAPIKey    string

	TranscribeBaseURL string
	TranscribeModel   string

	// QdrantURL enables the vector store mirror. Empty disables it.
	QdrantURL string

	SearchOverfetch     int
	SearchMinCandidates int
	SearchTimeout       time.Duration
	SnippetLength       int
	RecentActivityLimit int
	MaxUploadBytes      int64
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or one of its parents, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load() // Try current directory

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	llmBaseURL := getEnv("LLM_BASE_URL", "")

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "9000"),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		DataDir:            getEnv("DATA_DIR", "./data/sessions"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "granite-embedding-278m-multilingual"),
		EmbeddingAPIKey:    getEnv("EMBEDDING_API_KEY", "dummy-key"),
		LLMBaseURL:         llmBaseURL,
		LLMModelName:       getEnv("LLM_MODEL", "Llama-3.1-8B-Instruct"),
		LLMAPIKey:          getEnv("LLM_API_KEY", "dummy-key"),
		// Transcription defaults to the LLM server, which usually exposes
		// the OpenAI-compatible audio endpoint as well.
		TranscribeBaseURL: getEnv("TRANSCRIBE_BASE_URL", llmBaseURL),
		TranscribeModel:   getEnv("TRANSCRIBE_MODEL", "whisper-1"),
		QdrantURL:         getEnv("QDRANT_URL", ""),
	}

	if cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json")
	}

	if cfg.PersistSessions, err = getBool("PERSIST_SESSIONS", true); err != nil {
		return nil, err
	}
	if cfg.SessionIdleTimeout, err = getDuration("SESSION_IDLE_TIMEOUT", time.Hour); err != nil {
		return nil, err
	}
	if cfg.SessionSweepInterval, err = getDuration("SESSION_SWEEP_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.SessionSweepInterval <= 0 {
		return nil, fmt.Errorf("SESSION_SWEEP_INTERVAL must be greater than 0")
	}

	// EMBEDDING_VECTOR_SIZE must match the output size of the embeddings
	// model. Persisted sessions built with another size fail to load.
	vectorSizeStr := getEnv("EMBEDDING_VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE is required")
	}
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE must be a valid integer: %w", err)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE must be greater than 0")
	}
	cfg.EmbeddingVectorSize = vectorSize

	if cfg.EmbeddingRateLimit, err = getFloat("EMBEDDING_RATE_LIMIT", 0); err != nil {
		return nil, err
	}
	if cfg.EmbeddingRateLimit < 0 {
		return nil, fmt.Errorf("EMBEDDING_RATE_LIMIT must not be negative")
	}

	if cfg.SearchOverfetch, err = getInt("SEARCH_OVERFETCH", 3); err != nil {
		return nil, err
	}
	if cfg.SearchOverfetch < 3 {
		return nil, fmt.Errorf("SEARCH_OVERFETCH must be at least 3")
	}
	if cfg.SearchMinCandidates, err = getInt("SEARCH_MIN_CANDIDATES", 50); err != nil {
		return nil, err
	}
	if cfg.SearchMinCandidates < 50 {
		return nil, fmt.Errorf("SEARCH_MIN_CANDIDATES must be at least 50")
	}
	if cfg.SearchTimeout, err = getDuration("SEARCH_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SnippetLength, err = getInt("SNIPPET_LENGTH", 200); err != nil {
		return nil, err
	}
	if cfg.SnippetLength <= 0 {
		return nil, fmt.Errorf("SNIPPET_LENGTH must be greater than 0")
	}
	if cfg.RecentActivityLimit, err = getInt("RECENT_ACTIVITY_LIMIT", 5); err != nil {
		return nil, err
	}
	if cfg.RecentActivityLimit <= 0 {
		return nil, fmt.Errorf("RECENT_ACTIVITY_LIMIT must be greater than 0")
	}

	maxUploadMB, err := getInt("MAX_UPLOAD_MB", 50)
	if err != nil {
		return nil, err
	}
	if maxUploadMB <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be greater than 0")
	}
	cfg.MaxUploadBytes = int64(maxUploadMB) << 20

	if !cfg.PersistSessions {
		cfg.DataDir = ""
		return cfg, nil
	}

	// Create the data directory if it doesn't exist
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return v, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false: %w", key, err)
	}
	return v, nil
}

// getDuration accepts Go durations ("90s", "1h") and bare integers as seconds.
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration such as 3600s: %w", key, err)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}
	return level, nil
}
