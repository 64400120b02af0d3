package port

import "github.com/layrfelipe/hotmart-challenge/internal/domain"

// Segmenter decides window parameters for a text and splits it.
type Segmenter interface {
	ChunkParams(text string) (domain.ChunkParams, error)
	Split(text string, params domain.ChunkParams) ([]domain.Segment, error)
}
