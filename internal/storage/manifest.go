package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Manifest is the human-readable summary written next to a session's data.
// It is read at startup to expire idle sessions without opening their databases.
type Manifest struct {
	SessionID    string    `yaml:"session_id"`
	CreatedAt    time.Time `yaml:"created_at"`
	LastActivity time.Time `yaml:"last_activity"`
	Dimension    int       `yaml:"dimension"`
	Chunks       int       `yaml:"chunks"`
	Meetings     int       `yaml:"meetings"`
}

// WriteManifest writes m to path through a temporary file.
func WriteManifest(path string, m Manifest) error {
	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace manifest: %w", err)
	}
	return nil
}

// ReadManifest reads a manifest file.
func ReadManifest(path string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return m, fmt.Errorf("failed to read manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return m, nil
}
