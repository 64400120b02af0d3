package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/layrfelipe/hotmart-challenge/internal/port"
)

var (
	bucketSegments = []byte("segments")
	bucketMeta     = []byte("meta")
	keyDimension   = []byte("dimension")
)

// BoltVectorStore persists segments in a bbolt file and searches them from an
// in-memory copy by brute force.
type BoltVectorStore struct {
	db        *bbolt.DB
	mu        sync.RWMutex
	dimension int
	vectors   map[string]vectorEntry
}

type storedVector struct {
	Vector   []float32         `json:"v"`
	Text     string            `json:"t"`
	Metadata map[string]string `json:"m,omitempty"`
}

// OpenBoltVectorStore opens or creates the store file at path.
func OpenBoltVectorStore(path string) (*BoltVectorStore, error) {
	// The file is locked while a server holds it open.
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketSegments, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &BoltVectorStore{
		db:      db,
		vectors: make(map[string]vectorEntry),
	}
	if err := s.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load vectors: %w", err)
	}

	return s, nil
}

func (s *BoltVectorStore) load() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketMeta).Get(keyDimension); v != nil {
			dim, err := strconv.Atoi(string(v))
			if err != nil {
				return fmt.Errorf("corrupt dimension %q: %w", v, err)
			}
			s.dimension = dim
		}

		return tx.Bucket(bucketSegments).ForEach(func(k, v []byte) error {
			var stored storedVector
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("corrupt segment %s: %w", k, err)
			}
			s.vectors[string(k)] = vectorEntry{
				vector:   stored.Vector,
				text:     stored.Text,
				metadata: stored.Metadata,
			}
			return nil
		})
	})
}

// Upsert writes all items in one transaction. Either every item is persisted or none is.
func (s *BoltVectorStore) Upsert(ctx context.Context, items []port.VectorItem) (int, error) {
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

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSegments)
		for _, item := range items {
			if len(item.Vector) != dimension || dimension == 0 {
				return fmt.Errorf("vector dimension mismatch: expected %d, got %d", dimension, len(item.Vector))
			}

			data, err := json.Marshal(storedVector{
				Vector:   item.Vector,
				Text:     item.Text,
				Metadata: item.Metadata,
			})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(item.ID), data); err != nil {
				return err
			}
		}

		if s.dimension == 0 {
			return tx.Bucket(bucketMeta).Put(keyDimension, []byte(strconv.Itoa(dimension)))
		}
		return nil
	})
	if err != nil {
		return 0, err
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

// Search finds the k nearest vectors to the query using cosine similarity.
func (s *BoltVectorStore) Search(ctx context.Context, query []float32, k int) ([]port.VectorResult, error) {
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

// Count returns the number of vectors in the store.
func (s *BoltVectorStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors), nil
}

// Dimension is the vector size fixed by the first write, or 0 for a fresh store.
func (s *BoltVectorStore) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

// Clear removes every segment and forgets the dimension and schema info.
func (s *BoltVectorStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketSegments, bucketMeta} {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}

	s.dimension = 0
	s.vectors = make(map[string]vectorEntry)
	return nil
}

func (s *BoltVectorStore) Close() error {
	return s.db.Close()
}
