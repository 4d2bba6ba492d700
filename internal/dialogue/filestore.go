package dialogue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// FileStore keeps the snapshot in a single JSON file, fully overwritten on
// every save. Writes go through a temp file and rename so a crash never
// leaves a half-written snapshot behind.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore creates the parent directory for path if needed.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("filestore path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{path: path, logger: logger}, nil
}

// Load reads the snapshot file. A missing file, a decode error, or any I/O
// failure yields empty maps and a warning: cold start is always safe.
func (s *FileStore) Load() (map[string]*ConversationContext, map[string]*UserProfile) {
	contexts := make(map[string]*ConversationContext)
	profiles := make(map[string]*UserProfile)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.warn("read snapshot", err)
		}
		return contexts, profiles
	}
	if len(data) == 0 {
		return contexts, profiles
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.warn("decode snapshot", err)
		return contexts, profiles
	}

	if snap.Contexts != nil {
		contexts = snap.Contexts
	}
	if snap.Profiles != nil {
		profiles = snap.Profiles
	}
	return contexts, profiles
}

// Save overwrites the snapshot file with the full in-memory state and a
// fresh last_updated stamp.
func (s *FileStore) Save(contexts map[string]*ConversationContext, profiles map[string]*UserProfile) error {
	snap := Snapshot{
		Contexts:    contexts,
		Profiles:    profiles,
		LastUpdated: time.Now().UTC(),
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal snapshot: %v", ErrPersistence, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create store dir: %v", ErrPersistence, err)
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrPersistence, err)
	}

	tmpName := tmpFile.Name()
	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: write temp file: %v", ErrPersistence, err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: sync temp file: %v", ErrPersistence, err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: close temp file: %v", ErrPersistence, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: rename temp file: %v", ErrPersistence, err)
	}

	return nil
}

func (s *FileStore) warn(msg string, err error) {
	if s.logger != nil {
		s.logger.Warn("filestore: "+msg, slog.String("path", s.path), slog.String("error", err.Error()))
	}
}
