package chunker

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/layrfelipe/hotmart-challenge/internal/domain"
)

func TestComputeChunkParams(t *testing.T) {
	tests := []struct {
		length  int
		size    int
		overlap int
	}{
		{0, 0, 0},
		{9, 9, 0},
		{39, 39, 3},
		{1999, 1999, 199},
		{2000, 1250, 250},
		{30000, 1250, 250},
		{49999, 1250, 250},
	}

	for _, tt := range tests {
		params, err := ComputeChunkParams(tt.length)
		if err != nil {
			t.Fatalf("ComputeChunkParams(%d) error: %v", tt.length, err)
		}
		if params.Size != tt.size || params.Overlap != tt.overlap {
			t.Errorf("ComputeChunkParams(%d) = %+v, want (%d, %d)", tt.length, params, tt.size, tt.overlap)
		}
	}
}

func TestComputeChunkParamsTooLarge(t *testing.T) {
	for _, length := range []int{50000, 60000} {
		if _, err := ComputeChunkParams(length); !errors.Is(err, domain.ErrInputTooLarge) {
			t.Errorf("ComputeChunkParams(%d) err = %v, want ErrInputTooLarge", length, err)
		}
	}
}

func TestChunkParamsCountsCharacters(t *testing.T) {
	a := NewAdaptive()
	// 1500 two-byte characters: 3000 bytes but still the short branch
	text := strings.Repeat("é", 1500)

	params, err := a.ChunkParams(text)
	if err != nil {
		t.Fatal(err)
	}
	if params.Size != 1500 || params.Overlap != 150 {
		t.Errorf("got %+v, want (1500, 150)", params)
	}
}

func TestSplitShortText(t *testing.T) {
	text := "Hotmart is a digital product platform."

	a := NewAdaptive()
	params, err := a.ChunkParams(text)
	if err != nil {
		t.Fatal(err)
	}
	if params.Size != utf8.RuneCountInString(text) || params.Overlap != 3 {
		t.Errorf("got %+v for a %d character text", params, utf8.RuneCountInString(text))
	}
	segments, err := a.Split(text, params)
	if err != nil {
		t.Fatal(err)
	}
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	if segments[0].Text != text {
		t.Errorf("segment text = %q", segments[0].Text)
	}
	if segments[0].SequenceIndex != 0 || segments[0].OverlapWithPrev != 0 {
		t.Errorf("unexpected first segment metadata: %+v", segments[0])
	}
}

func TestSplitReconstructs(t *testing.T) {
	paragraph := "A Hotmart é uma plataforma de produtos digitais. Criadores vendem cursos online! " +
		"Afiliados promovem produtos? Sim.\nCada venda gera comissão.\n\n"
	texts := []string{
		strings.Repeat(paragraph, 40),
		strings.Repeat("x", 7000),
		strings.Repeat("palavra ", 900),
	}

	for i, text := range texts {
		params, err := ComputeChunkParams(utf8.RuneCountInString(text))
		if err != nil {
			t.Fatal(err)
		}
		segments, err := Split(text, params)
		if err != nil {
			t.Fatal(err)
		}
		if len(segments) < 2 {
			t.Fatalf("text %d: expected multiple segments, got %d", i, len(segments))
		}

		var b strings.Builder
		for j, seg := range segments {
			if seg.SequenceIndex != j {
				t.Errorf("text %d: segment %d has index %d", i, j, seg.SequenceIndex)
			}
			n := utf8.RuneCountInString(seg.Text)
			if n > params.Size {
				t.Errorf("text %d: segment %d has %d characters, size is %d", i, j, n, params.Size)
			}
			if j == 0 {
				b.WriteString(seg.Text)
				continue
			}
			if seg.OverlapWithPrev > params.Overlap {
				t.Errorf("text %d: segment %d overlap %d exceeds %d", i, j, seg.OverlapWithPrev, params.Overlap)
			}
			b.WriteString(string([]rune(seg.Text)[seg.OverlapWithPrev:]))
		}
		if b.String() != text {
			t.Errorf("text %d: reconstruction does not match input", i)
		}
	}
}

func TestSplitPrefersParagraphBreaks(t *testing.T) {
	first := strings.Repeat("a", 900) + "\n\n"
	text := first + strings.Repeat("b", 1500)

	segments, err := Split(text, domain.ChunkParams{Size: 1250, Overlap: 250})
	if err != nil {
		t.Fatal(err)
	}
	if segments[0].Text != first {
		t.Errorf("first segment should end at the paragraph break, got %d characters", len([]rune(segments[0].Text)))
	}
}

func TestSplitInvalidParams(t *testing.T) {
	_, err := Split("some text", domain.ChunkParams{Size: 0, Overlap: 0})
	if !errors.Is(err, domain.ErrInvalidChunkParams) {
		t.Errorf("expected ErrInvalidChunkParams, got %v", err)
	}
}

func TestSplitEmpty(t *testing.T) {
	segments, err := Split("", domain.ChunkParams{Size: 10})
	if err != nil || segments != nil {
		t.Errorf("Split(\"\") = %v, %v", segments, err)
	}
}

func TestSplitClampsOverlap(t *testing.T) {
	segments, err := Split(strings.Repeat("z", 20), domain.ChunkParams{Size: 5, Overlap: 9})
	if err != nil {
		t.Fatal(err)
	}
	for _, seg := range segments[1:] {
		if seg.OverlapWithPrev != 4 {
			t.Errorf("expected overlap clamped to 4, got %d", seg.OverlapWithPrev)
		}
	}
}
