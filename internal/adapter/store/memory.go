package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/layrfelipe/hotmart-challenge/internal/port"
)

// MemoryVectorStore keeps vectors in process memory only.
type MemoryVectorStore struct {
	mu        sync.RWMutex
	dimension int
	vectors   map[string]vectorEntry
}

func NewMemoryVectorStore() *MemoryVectorStore {
	return &MemoryVectorStore{vectors: make(map[string]vectorEntry)}
}

func (s *MemoryVectorStore) Upsert(ctx context.Context, items []port.VectorItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dimension := s.dimension
	if dimension == 0 {
		dimension = len(items[0].Vector)
	}
	// validate the whole batch before touching the map
	for _, item := range items {
		if len(item.Vector) != dimension || dimension == 0 {
			return 0, fmt.Errorf("vector dimension mismatch: expected %d, got %d", dimension, len(item.Vector))
		}
	}

	s.dimension = dimension
	for _, item := range items {
		s.vectors[item.ID] = vectorEntry{
			vector:   item.Vector,
			text:     item.Text,
			metadata: item.Metadata,
		}
	}
	return len(items), nil
}

func (s *MemoryVectorStore) Search(ctx context.Context, query []float32, k int) ([]port.VectorResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.vectors) == 0 {
		return nil, nil
	}
	if len(query) != s.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", s.dimension, len(query))
	}
	return topK(s.vectors, query, k), nil
}

func (s *MemoryVectorStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors), nil
}
