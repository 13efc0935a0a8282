package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store is a whole-value key-value store backing the beat index. Values are
// read and written at full granularity: the snapshot under "beats" is always
// one array, never individual records.
type Store interface {
	// Get decodes the value stored under key into out. The second return is
	// false when the key is absent.
	Get(key string, out any) (bool, error)
	// Set replaces the value stored under key. The value is not durable
	// until Save is called.
	Set(key string, value any) error
	// Save flushes the store to its backing medium.
	Save() error
}

// FileStore persists the store as a single JSON document on disk. The file is
// loaded lazily on first access; a missing or unreadable file behaves as an
// empty store.
type FileStore struct {
	path   string
	mu     sync.Mutex
	loaded bool
	data   map[string]json.RawMessage
}

// NewFileStore creates a file store backed by the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) load() {
	if s.loaded {
		return
	}
	s.loaded = true
	s.data = make(map[string]json.RawMessage)

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		// A corrupt snapshot degrades to an empty store; the next Save
		// rewrites it.
		return
	}
	s.data = data
}

// Get implements Store.
func (s *FileStore) Get(key string, out any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()

	raw, ok := s.data[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("store: decode %q: %w", key, err)
	}
	return true, nil
}

// Set implements Store.
func (s *FileStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encode %q: %w", key, err)
	}
	s.data[key] = raw
	return nil
}

// Save implements Store.
func (s *FileStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode document: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("store: create data dir: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0644); err != nil {
		return fmt.Errorf("store: write %s: %w", s.path, err)
	}
	return nil
}

// MemoryStore is an in-memory Store used by tests and dry runs.
type MemoryStore struct {
	mu        sync.Mutex
	data      map[string]json.RawMessage
	saveCount int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]json.RawMessage)}
}

// Get implements Store.
func (s *MemoryStore) Get(key string, out any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.data[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

// Set implements Store.
func (s *MemoryStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.data[key] = raw
	return nil
}

// Save implements Store.
func (s *MemoryStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCount++
	return nil
}

// SaveCount reports how many times Save was called.
func (s *MemoryStore) SaveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveCount
}
