package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// MemoryStore keeps chunks in memory. When a snapshot path is set the store loads
// it on creation and rewrites it after every change.
type MemoryStore struct {
	mu           sync.RWMutex
	sources      map[string][]Chunk
	snapshotPath string
}

// NewMemoryStore creates an in-memory store. snapshotPath may be empty.
func NewMemoryStore(snapshotPath string) (*MemoryStore, error) {
	s := &MemoryStore{
		sources:      make(map[string][]Chunk),
		snapshotPath: snapshotPath,
	}
	if snapshotPath == "" {
		return s, nil
	}

	data, err := os.ReadFile(snapshotPath)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &s.sources); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge snapshot %s: %w", snapshotPath, err)
	}
	return s, nil
}

func (s *MemoryStore) Add(_ context.Context, source string, chunks []Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[source] = append(s.sources[source], chunks...)
	return s.saveLocked()
}

func (s *MemoryStore) All(_ context.Context, source string) ([]Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Chunk(nil), s.sources[source]...), nil
}

func (s *MemoryStore) Count(_ context.Context, source string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sources[source]), nil
}

func (s *MemoryStore) Delete(_ context.Context, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sources, source)
	return s.saveLocked()
}

func (s *MemoryStore) Close() error {
	return nil
}

// saveLocked writes the snapshot through a temp file and rename
func (s *MemoryStore) saveLocked() error {
	if s.snapshotPath == "" {
		return nil
	}

	data, err := json.Marshal(s.sources)
	if err != nil {
		return fmt.Errorf("failed to encode knowledge snapshot: %w", err)
	}

	if dir := filepath.Dir(s.snapshotPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create snapshot dir: %w", err)
		}
	}

	tmp := s.snapshotPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write knowledge snapshot: %w", err)
	}
	return os.Rename(tmp, s.snapshotPath)
}
