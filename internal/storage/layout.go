package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

const (
	indexFileName    = "index.bin"
	metadataFileName = "metadata.db"
	manifestFileName = "session.yaml"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,127}$`)

// ValidSessionID reports whether id can be used as a session directory name.
func ValidSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

// Layout maps session ids to their on-disk files under Root:
//
//	<root>/<session_id>/index.bin
//	<root>/<session_id>/metadata.db
//	<root>/<session_id>/session.yaml
type Layout struct {
	Root string
}

// Dir returns the directory holding a session's files.
func (l Layout) Dir(sessionID string) string {
	return filepath.Join(l.Root, sessionID)
}

// IndexPath returns the vector index file of a session.
func (l Layout) IndexPath(sessionID string) string {
	return filepath.Join(l.Dir(sessionID), indexFileName)
}

// MetadataPath returns the SQLite metadata file of a session.
func (l Layout) MetadataPath(sessionID string) string {
	return filepath.Join(l.Dir(sessionID), metadataFileName)
}

// ManifestPath returns the manifest file of a session.
func (l Layout) ManifestPath(sessionID string) string {
	return filepath.Join(l.Dir(sessionID), manifestFileName)
}

// Exists reports whether a session has been persisted.
func (l Layout) Exists(sessionID string) bool {
	_, err := os.Stat(l.MetadataPath(sessionID))
	return err == nil
}

// Create makes the session directory.
func (l Layout) Create(sessionID string) error {
	if err := os.MkdirAll(l.Dir(sessionID), 0o755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	return nil
}

// Remove deletes every file of a session. Missing sessions are ignored.
func (l Layout) Remove(sessionID string) error {
	if err := os.RemoveAll(l.Dir(sessionID)); err != nil {
		return fmt.Errorf("failed to remove session directory: %w", err)
	}
	return nil
}

// SessionIDs lists the persisted sessions.
func (l Layout) SessionIDs() ([]string, error) {
	entries, err := os.ReadDir(l.Root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() && ValidSessionID(e.Name()) {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}
