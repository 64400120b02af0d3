package port

import "context"

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension, or 0 if not known yet.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorStore stores and searches embedding vectors.
type VectorStore interface {
	// Upsert writes items as one batch and returns how many were persisted.
	Upsert(ctx context.Context, items []VectorItem) (int, error)

	// Search finds the k nearest vectors to the query, highest score first.
	// An empty store yields an empty result.
	Search(ctx context.Context, query []float32, k int) ([]VectorResult, error)

	// Count returns the number of vectors in the store.
	Count(ctx context.Context) (int, error)
}

// VectorItem represents a vector to be stored.
type VectorItem struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata map[string]string
}

// VectorResult represents a search result.
type VectorResult struct {
	ID       string
	Score    float64 // cosine similarity, higher is better
	Text     string
	Metadata map[string]string
}
