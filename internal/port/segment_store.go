package port

import (
	"context"

	"github.com/layrfelipe/hotmart-challenge/internal/domain"
)

// SegmentStore is the contract the pipelines use to persist and retrieve segments.
type SegmentStore interface {
	// Write persists segments with their embeddings and returns the acknowledged count.
	Write(ctx context.Context, segments []domain.Segment, embeddings [][]float32, source string) (int, error)

	// Query returns at most k segments by descending similarity. Empty store, empty result.
	Query(ctx context.Context, embedding []float32, k int) (domain.RetrievedContext, error)

	Count(ctx context.Context) (int, error)
}
