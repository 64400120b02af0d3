package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/layrfelipe/hotmart-challenge/internal/domain"
	"github.com/layrfelipe/hotmart-challenge/internal/port"
)

const (
	metaSource     = "source"
	metaSequence   = "sequence_index"
	metaOffset     = "offset"
	metaIngestedAt = "ingested_at"
)

// SegmentStore maps domain segments onto a VectorStore.
type SegmentStore struct {
	vectors port.VectorStore
	newID   func() string
	now     func() time.Time
}

func NewSegmentStore(vectors port.VectorStore) *SegmentStore {
	return &SegmentStore{
		vectors: vectors,
		newID:   func() string { return uuid.NewString() },
		now:     time.Now,
	}
}

// Write stores segments with their embeddings as one batch. It only succeeds
// when the backend acknowledges every segment.
func (s *SegmentStore) Write(ctx context.Context, segments []domain.Segment, embeddings [][]float32, source string) (int, error) {
	if len(segments) != len(embeddings) {
		return 0, fmt.Errorf("got %d embeddings for %d segments", len(embeddings), len(segments))
	}
	if len(segments) == 0 {
		return 0, nil
	}

	ingestedAt := s.now().UTC().Format(time.RFC3339)
	items := make([]port.VectorItem, len(segments))
	for i, seg := range segments {
		items[i] = port.VectorItem{
			ID:     s.newID(),
			Vector: embeddings[i],
			Text:   seg.Text,
			Metadata: map[string]string{
				metaSource:     source,
				metaSequence:   strconv.Itoa(seg.SequenceIndex),
				metaOffset:     strconv.Itoa(seg.Offset),
				metaIngestedAt: ingestedAt,
			},
		}
	}

	acked, err := s.vectors.Upsert(ctx, items)
	if err != nil {
		return acked, err
	}
	if acked != len(items) {
		return acked, fmt.Errorf("store acknowledged %d of %d segments", acked, len(items))
	}
	return acked, nil
}

// Query returns at most k segments ordered by descending similarity.
func (s *SegmentStore) Query(ctx context.Context, embedding []float32, k int) (domain.RetrievedContext, error) {
	results, err := s.vectors.Search(ctx, embedding, k)
	if err != nil {
		return nil, err
	}

	out := make(domain.RetrievedContext, 0, len(results))
	for _, r := range results {
		out = append(out, domain.ScoredSegment{
			ID:     r.ID,
			Text:   r.Text,
			Score:  r.Score,
			Source: r.Metadata[metaSource],
		})
	}
	return out, nil
}

func (s *SegmentStore) Count(ctx context.Context) (int, error) {
	return s.vectors.Count(ctx)
}
