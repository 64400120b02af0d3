package store

import (
	"math"
	"sort"

	"github.com/layrfelipe/hotmart-challenge/internal/port"
)

type vectorEntry struct {
	vector   []float32
	text     string
	metadata map[string]string
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// topK scores every entry against query by brute force and returns the best k.
// Ties are broken by ID so results are stable.
func topK(entries map[string]vectorEntry, query []float32, k int) []port.VectorResult {
	if len(entries) == 0 || k <= 0 {
		return nil
	}

	results := make([]port.VectorResult, 0, len(entries))
	for id, entry := range entries {
		results = append(results, port.VectorResult{
			ID:       id,
			Score:    cosineSimilarity(query, entry.vector),
			Text:     entry.text,
			Metadata: entry.metadata,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k]
}
