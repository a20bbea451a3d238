package store

import (
	"context"
	"sync"

	"github.com/samber/lo"
)

// Memory keeps articles in process memory.
type Memory struct {
	mu       sync.RWMutex
	articles []Article
	byID     map[string]int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{byID: map[string]int{}}
}

// Replace replaces all stored articles.
func (m *Memory) Replace(_ context.Context, articles []Article) error {
	cp := lo.Map(articles, func(a Article, _ int) Article { return a.clone() })

	idx := make(map[string]int, len(cp))
	for i, a := range cp {
		idx[a.ID] = i
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.articles, m.byID = cp, idx
	return nil
}

// Get returns article by its id.
func (m *Memory) Get(_ context.Context, id string) (Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.byID[id]
	if !ok {
		return Article{}, ErrNotFound
	}
	return m.articles[i].clone(), nil
}

// List returns stored articles in their stored order.
func (m *Memory) List(_ context.Context, req ListRequest) ([]Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := lo.Filter(m.articles, func(a Article, _ int) bool { return req.matches(a) })
	return lo.Map(res, func(a Article, _ int) Article { return a.clone() }), nil
}
