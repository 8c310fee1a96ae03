// Package store provides keyed storage for per-caller state such as cached
// generation records and dialogue sessions.
package store

import (
	"context"
	"sync"
)

// Store is a keyed get/put/delete abstraction. Puts for the same key follow
// last-writer-wins semantics.
type Store[T any] interface {
	Get(ctx context.Context, key string) (T, bool, error)
	Put(ctx context.Context, key string, value T) error
	Delete(ctx context.Context, key string) error
}

// Memory is a process-wide in-memory Store. It starts empty and is never persisted.
type Memory[T any] struct {
	mu      sync.RWMutex
	entries map[string]T
}

func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{entries: make(map[string]T)}
}

func (m *Memory[T]) Get(_ context.Context, key string) (T, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *Memory[T]) Put(_ context.Context, key string, value T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *Memory[T]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Len returns the number of live entries.
func (m *Memory[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
