package analyzer

import (
	"reflect"
	"testing"
)

func TestTokenizer_Tokenize(t *testing.T) {
	tok := NewTokenizer()

	tokens := tok.Tokenize("Como funciona a comissão da Hotmart?")
	want := []string{"funciona", "comissao", "hotmart"}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("got %v, want %v", tokens, want)
	}
}

func TestTokenizer_StopwordRemoval(t *testing.T) {
	tok := NewTokenizer()

	tokens := tok.Tokenize("the quick brown fox")
	for _, token := range tokens {
		if token == "the" {
			t.Error("stopword 'the' should be removed")
		}
	}
	if len(tokens) != 3 {
		t.Errorf("expected 3 tokens, got %v", tokens)
	}
}

func TestTokenizer_Fold(t *testing.T) {
	tok := NewTokenizer()

	if got := tok.Fold("Afiliação É Produção"); got != "afiliacao e producao" {
		t.Errorf("Fold() = %q", got)
	}
}

func TestTokenizer_SkipsSingleCharacters(t *testing.T) {
	tok := NewTokenizer()

	tokens := tok.Tokenize("a b c produto 1 x")
	if !reflect.DeepEqual(tokens, []string{"produto"}) {
		t.Errorf("got %v", tokens)
	}
}
