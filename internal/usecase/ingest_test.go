package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/layrfelipe/hotmart-challenge/internal/adapter/chunker"
	"github.com/layrfelipe/hotmart-challenge/internal/domain"
)

func newIngest(e *fakeEmbedder, s *fakeStore) *IngestUseCase {
	return NewIngestUseCase(chunker.NewAdaptive(), e, s, IngestOptions{}, nil)
}

func assertStage(t *testing.T, err error, stage domain.Stage) *domain.IngestionError {
	t.Helper()
	var ie *domain.IngestionError
	if !errors.As(err, &ie) {
		t.Fatalf("expected IngestionError, got %v", err)
	}
	if ie.Stage != stage {
		t.Fatalf("expected stage %s, got %s (%v)", stage, ie.Stage, ie.Cause)
	}
	return ie
}

func TestIngestShortText(t *testing.T) {
	e, s := &fakeEmbedder{}, &fakeStore{}
	text := "Hotmart is a digital product platform."

	result, err := newIngest(e, s).Ingest(context.Background(), domain.RawDocument{Text: text, Source: "inline"})
	if err != nil {
		t.Fatal(err)
	}
	if result.ChunksWritten != 1 {
		t.Errorf("expected 1 chunk, got %d", result.ChunksWritten)
	}
	if result.Params.Overlap != 3 {
		t.Errorf("expected overlap 3, got %d", result.Params.Overlap)
	}
	if len(s.written) != 1 || s.written[0].Text != text {
		t.Errorf("unexpected stored segments %+v", s.written)
	}
	if s.sources[0] != "inline" {
		t.Errorf("source not forwarded, got %q", s.sources[0])
	}
}

func TestIngestLongTextWritesEverySegment(t *testing.T) {
	e, s := &fakeEmbedder{}, &fakeStore{}
	text := strings.Repeat("A Hotmart conecta produtores e afiliados. ", 200)

	result, err := newIngest(e, s).Ingest(context.Background(), domain.RawDocument{Text: text})
	if err != nil {
		t.Fatal(err)
	}
	if result.ChunksWritten < 2 || result.ChunksWritten != len(s.written) {
		t.Errorf("ChunksWritten=%d, stored=%d", result.ChunksWritten, len(s.written))
	}
	if result.Params.Size != 1250 || result.Params.Overlap != 250 {
		t.Errorf("unexpected params %+v", result.Params)
	}
	if s.writes != 1 {
		t.Errorf("segments should be written as one batch, got %d writes", s.writes)
	}
	if e.calls != 1 || len(e.inputs) != result.ChunksWritten {
		t.Errorf("expected one embed call for %d segments, got %d calls, %d inputs", result.ChunksWritten, e.calls, len(e.inputs))
	}
}

func TestIngestValidation(t *testing.T) {
	for name, text := range map[string]string{
		"empty":   "",
		"blank":   " \n\t ",
		"invalid": string([]byte{0xff, 0xfe}),
	} {
		t.Run(name, func(t *testing.T) {
			e, s := &fakeEmbedder{}, &fakeStore{}
			_, err := newIngest(e, s).Ingest(context.Background(), domain.RawDocument{Text: text})

			assertStage(t, err, domain.StageValidation)
			if !domain.IsClientError(err) {
				t.Error("validation failures are client errors")
			}
			if e.calls != 0 || s.writes != 0 {
				t.Errorf("no collaborator should be called, embed=%d writes=%d", e.calls, s.writes)
			}
		})
	}
}

func TestIngestTooLarge(t *testing.T) {
	e, s := &fakeEmbedder{}, &fakeStore{}
	_, err := newIngest(e, s).Ingest(context.Background(), domain.RawDocument{Text: strings.Repeat("x", 60000)})

	ie := assertStage(t, err, domain.StageSizing)
	if !errors.Is(ie, domain.ErrInputTooLarge) {
		t.Errorf("cause should be ErrInputTooLarge, got %v", ie.Cause)
	}
	if e.calls != 0 || s.writes != 0 {
		t.Error("oversized input must not reach the embedder or the store")
	}
}

func TestIngestEmbeddingFailure(t *testing.T) {
	e, s := &fakeEmbedder{err: errors.New("model unavailable")}, &fakeStore{}
	_, err := newIngest(e, s).Ingest(context.Background(), domain.RawDocument{Text: "algum texto"})

	assertStage(t, err, domain.StageEmbedding)
	if s.writes != 0 {
		t.Error("store must not be written after an embedding failure")
	}
}

func TestIngestEmbeddingCountMismatch(t *testing.T) {
	e, s := &fakeEmbedder{short: true}, &fakeStore{}
	_, err := newIngest(e, s).Ingest(context.Background(), domain.RawDocument{Text: "algum texto"})

	assertStage(t, err, domain.StageEmbedding)
	if s.writes != 0 {
		t.Error("store must not be written after a count mismatch")
	}
}

func TestIngestStorageFailure(t *testing.T) {
	e, s := &fakeEmbedder{}, &fakeStore{writeErr: errors.New("disk full")}
	_, err := newIngest(e, s).Ingest(context.Background(), domain.RawDocument{Text: "algum texto"})

	ie := assertStage(t, err, domain.StageStorage)
	if ie.Cause.Error() != "disk full" {
		t.Errorf("cause should be preserved, got %v", ie.Cause)
	}
	if domain.IsClientError(err) {
		t.Error("storage failure is not a client error")
	}
}

type failingSegmenter struct{ *chunker.Adaptive }

func (failingSegmenter) Split(string, domain.ChunkParams) ([]domain.Segment, error) {
	return nil, domain.ErrInvalidChunkParams
}

func TestIngestSegmentationFailure(t *testing.T) {
	e, s := &fakeEmbedder{}, &fakeStore{}
	u := NewIngestUseCase(failingSegmenter{chunker.NewAdaptive()}, e, s, IngestOptions{}, nil)

	_, err := u.Ingest(context.Background(), domain.RawDocument{Text: "texto"})
	assertStage(t, err, domain.StageSegmentation)
}

func TestIngestFrom(t *testing.T) {
	e, s := &fakeEmbedder{}, &fakeStore{}
	src := &fakeSource{name: "https://example.com/blog", text: "\n\nTítulo\nParágrafo.\n"}

	result, err := newIngest(e, s).IngestFrom(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	if result.Source != src.name || s.sources[0] != src.name {
		t.Errorf("source not propagated: %+v", result)
	}
}

func TestIngestFromFetchFailure(t *testing.T) {
	e, s := &fakeEmbedder{}, &fakeStore{}
	src := &fakeSource{name: "blog", err: &domain.ScrapeError{URL: "blog", Err: errors.New("timeout")}}

	_, err := newIngest(e, s).IngestFrom(context.Background(), src)
	ie := assertStage(t, err, domain.StageFetch)

	var se *domain.ScrapeError
	if !errors.As(ie, &se) {
		t.Error("ScrapeError should be reachable through the ingestion error")
	}
	if e.calls != 0 || s.writes != 0 {
		t.Error("nothing should run after a fetch failure")
	}
}
