package embedding

import (
	"context"
	"math"
	"testing"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestHashEmbedderDeterministicAndNormalized(t *testing.T) {
	e := NewHashEmbedder(128)
	vectors, err := e.Embed(context.Background(), []string{"Hotmart é uma plataforma", "Hotmart é uma plataforma"})
	if err != nil {
		t.Fatal(err)
	}

	if len(vectors[0]) != 128 {
		t.Fatalf("expected dimension 128, got %d", len(vectors[0]))
	}
	var norm float64
	for i := range vectors[0] {
		if vectors[0][i] != vectors[1][i] {
			t.Fatal("same text should give the same vector")
		}
		norm += float64(vectors[0][i]) * float64(vectors[0][i])
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("expected unit norm, got %f", norm)
	}
}

func TestHashEmbedderSimilarity(t *testing.T) {
	e := NewHashEmbedder(384)
	vectors, err := e.Embed(context.Background(), []string{
		"Como funciona a comissão de afiliados na Hotmart?",
		"A comissão dos afiliados é paga pela Hotmart a cada venda.",
		"Receita de bolo de cenoura com cobertura de chocolate.",
	})
	if err != nil {
		t.Fatal(err)
	}

	related := cosine(vectors[0], vectors[1])
	unrelated := cosine(vectors[0], vectors[2])
	if related <= unrelated {
		t.Errorf("related similarity %f should exceed unrelated %f", related, unrelated)
	}
}

func TestHashEmbedderEmptyText(t *testing.T) {
	e := NewHashEmbedder(16)
	vectors, err := e.Embed(context.Background(), []string{""})
	if err != nil {
		t.Fatal(err)
	}
	for _, x := range vectors[0] {
		if x != 0 {
			t.Fatal("empty text should embed to the zero vector")
		}
	}
}

func TestHashEmbedderCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewHashEmbedder(16).Embed(ctx, []string{"x"}); err == nil {
		t.Error("expected context error")
	}
}
