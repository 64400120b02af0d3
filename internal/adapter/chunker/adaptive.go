package chunker

import (
	"fmt"
	"unicode/utf8"

	"github.com/layrfelipe/hotmart-challenge/internal/domain"
)

const (
	// ShortTextLimit is the length below which a text is kept as a single window.
	ShortTextLimit = 2000
	// MaxTextLength is the smallest length rejected with domain.ErrInputTooLarge.
	MaxTextLength = 50000

	DefaultChunkSize    = 1250
	DefaultChunkOverlap = 250
	MinChunkOverlap     = 100
)

// Adaptive sizes windows from the text length and splits on structural boundaries.
type Adaptive struct {
	separators []string
}

func NewAdaptive() *Adaptive {
	return &Adaptive{separators: defaultSeparators}
}

// ComputeChunkParams maps a text length in characters to window parameters.
//
// Short texts get overlap floor(L*0.1) without the MinChunkOverlap floor, so
// anything under 10 characters has no overlap at all.
func ComputeChunkParams(length int) (domain.ChunkParams, error) {
	switch {
	case length < 0:
		return domain.ChunkParams{}, fmt.Errorf("%w: negative length %d", domain.ErrInvalidChunkParams, length)
	case length < ShortTextLimit:
		return domain.ChunkParams{Size: length, Overlap: length / 10}, nil
	case length < MaxTextLength:
		return domain.ChunkParams{Size: DefaultChunkSize, Overlap: max(DefaultChunkOverlap, MinChunkOverlap)}, nil
	default:
		return domain.ChunkParams{}, domain.ErrInputTooLarge
	}
}

// ChunkParams returns the parameters for text, counting characters rather than bytes.
func (a *Adaptive) ChunkParams(text string) (domain.ChunkParams, error) {
	return ComputeChunkParams(utf8.RuneCountInString(text))
}

// Split windows text using params and this chunker's separators.
func (a *Adaptive) Split(text string, params domain.ChunkParams) ([]domain.Segment, error) {
	return split(text, params, a.separators)
}

// Split windows text with the default separators.
func Split(text string, params domain.ChunkParams) ([]domain.Segment, error) {
	return split(text, params, defaultSeparators)
}

func split(text string, params domain.ChunkParams, separators []string) ([]domain.Segment, error) {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil, nil
	}
	if params.Size <= 0 || params.Overlap < 0 {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", domain.ErrInvalidChunkParams, params.Size, params.Overlap)
	}

	size := params.Size
	overlap := params.Overlap
	if overlap >= size {
		overlap = size - 1
	}

	var segments []domain.Segment
	cursor, prevEnd := 0, 0

	for {
		end := cursor + size
		if end >= n {
			end = n
		} else {
			end = boundary(runes, cursor, end, overlap, separators)
		}

		segments = append(segments, domain.Segment{
			Text:            string(runes[cursor:end]),
			SequenceIndex:   len(segments),
			OverlapWithPrev: prevEnd - cursor,
			Offset:          cursor,
		})

		if end == n {
			break
		}

		// end > cursor+overlap, so the cursor always advances
		prevEnd = end
		cursor = end - overlap
	}

	return segments, nil
}
