package catalog

import (
	"context"
	"strings"
	"sync"
)

// Memory is a process-local Store for tests and database-less runs.
type Memory struct {
	mu     sync.RWMutex
	nextID int64
	rows   []Product
}

// NewMemory returns a Memory pre-filled with seed, normalized and in order.
func NewMemory(seed ...Product) *Memory {
	m := &Memory{}
	for _, p := range seed {
		_, _ = m.Insert(context.Background(), p)
	}
	return m
}

// Search implements Store.
func (m *Memory) Search(ctx context.Context, query string) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := NormalizeName(query)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Product
	for _, p := range m.rows {
		if strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Insert implements Store.
func (m *Memory) Insert(ctx context.Context, p Product) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, err
	}
	p.Name = NormalizeName(p.Name)
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	m.rows = append(m.rows, p)
	return p, nil
}

// DeleteByName implements Store.
func (m *Memory) DeleteByName(ctx context.Context, name string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	target := NormalizeName(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	var n int64
	for _, p := range m.rows {
		if strings.ToLower(p.Name) == target {
			n++
			continue
		}
		kept = append(kept, p)
	}
	m.rows = kept
	return n, nil
}

// All returns a copy of every row in insertion order.
func (m *Memory) All() []Product {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Product(nil), m.rows...)
}
