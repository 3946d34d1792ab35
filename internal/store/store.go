package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LocationStore holds the single durable value of the system: the last known
// "lat,lon" location, written after a successful geolocation-triggered fetch
// and read at mount. Injected into the search controller so tests can
// substitute an in-memory store.
type LocationStore interface {
	Get(ctx context.Context) (string, bool, error)
	Set(ctx context.Context, location string) error
}

// MemoryStore implements LocationStore in memory. Used in tests and as the
// fallback when no store path is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	location string
	set      bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(ctx context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.location, s.set, nil
}

func (s *MemoryStore) Set(ctx context.Context, location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = location
	s.set = true
	return nil
}

// FileStore persists the location to a small JSON file, the server-side
// counterpart of the browser's single localStorage key.
type FileStore struct {
	mu   sync.Mutex
	path string
}

type fileState struct {
	Location string `json:"location"`
}

func NewFileStore(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store: path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create directory: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Get(ctx context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("store: read: %w", err)
	}

	var st fileState
	if err := json.Unmarshal(data, &st); err != nil {
		return "", false, fmt.Errorf("store: parse: %w", err)
	}
	if strings.TrimSpace(st.Location) == "" {
		return "", false, nil
	}
	return st.Location, true, nil
}

func (s *FileStore) Set(ctx context.Context, location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(fileState{Location: location})
	if err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}

	// Write-then-rename keeps a crashed write from corrupting the stored value.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("store: write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("store: rename: %w", err)
	}
	return nil
}
