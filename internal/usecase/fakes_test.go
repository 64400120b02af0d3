package usecase

import (
	"context"
	"sync"

	"github.com/layrfelipe/hotmart-challenge/internal/domain"
)

type fakeEmbedder struct {
	mu     sync.Mutex
	calls  int
	err    error
	short  bool // return one vector fewer than asked
	inputs []string
}

func (e *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	e.inputs = append(e.inputs, texts...)
	if e.err != nil {
		return nil, e.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := len(texts)
	if e.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{1, float32(i)}
	}
	return out, nil
}

func (e *fakeEmbedder) Dimension() int   { return 2 }
func (e *fakeEmbedder) ModelName() string { return "fake" }

type fakeStore struct {
	mu         sync.Mutex
	writes     int
	written    []domain.Segment
	sources    []string
	queries    int
	lastK      int
	writeErr   error
	queryErr   error
	retrieved  domain.RetrievedContext
	blockUntil bool // wait for ctx cancellation on Query
}

func (s *fakeStore) Write(ctx context.Context, segments []domain.Segment, embeddings [][]float32, source string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	s.written = append(s.written, segments...)
	s.sources = append(s.sources, source)
	return len(segments), nil
}

func (s *fakeStore) Query(ctx context.Context, embedding []float32, k int) (domain.RetrievedContext, error) {
	s.mu.Lock()
	s.queries++
	s.lastK = k
	block := s.blockUntil
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	if len(s.retrieved) > k {
		return s.retrieved[:k], nil
	}
	return s.retrieved, nil
}

func (s *fakeStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.written), nil
}

type fakeLLM struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	output  string
	err     error
}

func (l *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	l.prompts = append(l.prompts, prompt)
	if l.err != nil {
		return "", l.err
	}
	return l.output, nil
}

func (l *fakeLLM) ModelName() string { return "fake-llm" }

type fakeSource struct {
	name string
	text string
	err  error
}

func (s *fakeSource) Fetch(ctx context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func (s *fakeSource) Name() string { return s.name }
