package state

import (
	"context"
	"sync"
)

type memoryBackend[S any] struct {
	mu       sync.RWMutex
	sessions map[int64]S
}

// NewMemoryBackend keeps sessions in process memory for the process lifetime.
func NewMemoryBackend[S any]() Backend[S] {
	return &memoryBackend[S]{sessions: make(map[int64]S)}
}

func (b *memoryBackend[S]) Load(_ context.Context, userID int64) (S, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.sessions[userID]
	return s, ok, nil
}

func (b *memoryBackend[S]) Save(_ context.Context, userID int64, s S) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[userID] = s
	return nil
}

func (b *memoryBackend[S]) Delete(_ context.Context, userID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, userID)
	return nil
}
