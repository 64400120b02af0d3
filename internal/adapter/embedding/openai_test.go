package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

func newEmbeddingServer(t *testing.T, dim int, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		*calls++

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}

		data := make([]map[string]any, len(req.Input))
		// reversed order checks that Index is honored
		for i := range req.Input {
			vec := make([]float64, dim)
			vec[0] = float64(len(req.Input[i]))
			data[len(req.Input)-1-i] = map[string]any{"object": "embedding", "index": i, "embedding": vec}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
}

func TestOpenAIEmbedderEmbed(t *testing.T) {
	calls := 0
	server := newEmbeddingServer(t, 4, &calls)
	defer server.Close()

	e := NewOpenAICompatibleEmbedder(Options{
		BaseURL:   server.URL + "/v1",
		APIKey:    "test",
		Model:     "nomic-embed-text",
		BatchSize: 2,
	})

	vectors, err := e.Embed(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vectors))
	}
	for i, v := range vectors {
		if v[0] != float32(i+1) {
			t.Errorf("vector %d out of order: %v", i, v)
		}
	}
	if calls != 2 {
		t.Errorf("expected 2 batched calls, got %d", calls)
	}
	if e.Dimension() != 4 {
		t.Errorf("expected learned dimension 4, got %d", e.Dimension())
	}
}

func TestOpenAIEmbedderDimensionMismatch(t *testing.T) {
	calls := 0
	server := newEmbeddingServer(t, 4, &calls)
	defer server.Close()

	e := NewOpenAICompatibleEmbedder(Options{BaseURL: server.URL + "/v1/", APIKey: "test", Model: "m", Dimension: 8})
	if _, err := e.Embed(context.Background(), []string{"x"}); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestOpenAIEmbedderConcurrentEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		json.NewDecoder(r.Body).Decode(&req)

		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			data[i] = map[string]any{"object": "embedding", "index": i, "embedding": []float64{1, 0, 0}}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": req.Model})
	}))
	defer server.Close()

	// dimension is learned from whichever response arrives first
	e := NewOllamaEmbedder("nomic-embed-text", server.URL+"/v1", Options{})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Embed(context.Background(), []string{"hotmart"}); err != nil {
				errs <- err
			}
			_ = e.Dimension()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Embed() error: %v", err)
	}
	if e.Dimension() != 3 {
		t.Errorf("expected dimension 3, got %d", e.Dimension())
	}
}

func TestOpenAIEmbedderServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"model not loaded","type":"server_error"}}`))
	}))
	defer server.Close()

	e := NewOllamaEmbedder("nomic-embed-text", server.URL+"/v1", Options{})
	if _, err := e.Embed(context.Background(), []string{"x"}); err == nil {
		t.Error("expected error from failing server")
	}
}

func TestNewOpenAIEmbedderRequiresKey(t *testing.T) {
	t.Setenv("RAG_TEST_MISSING_KEY", "")
	if _, err := NewOpenAIEmbedder("RAG_TEST_MISSING_KEY", "", "", Options{}); err == nil {
		t.Error("expected missing key error")
	}
}

func TestOpenAIEmbedderEmptyInput(t *testing.T) {
	e := NewOpenAICompatibleEmbedder(Options{BaseURL: "http://127.0.0.1:1", APIKey: "x", Model: "m"})
	vectors, err := e.Embed(context.Background(), nil)
	if err != nil || vectors != nil {
		t.Errorf("Embed(nil) = %v, %v", vectors, err)
	}
}
