package analyzer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Tokenizer splits text into lowercase, accent-folded terms with stopwords removed.
type Tokenizer struct {
	stopwords map[string]struct{}
	fold      transform.Transformer
}

// NewTokenizer creates a Tokenizer for mixed Portuguese and English text.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{
		stopwords: defaultStopwords(),
		fold:      transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
	}
}

// Tokenize splits text into tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(t.Fold(text))
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		if len([]rune(word)) < 2 {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// Fold lowercases text and strips diacritics, so "Comissão" and "comissao" match.
func (t *Tokenizer) Fold(text string) string {
	folded, _, err := transform.String(t.fold, strings.ToLower(text))
	if err != nil {
		return strings.ToLower(text)
	}
	return folded
}

// splitWords splits text into words using unicode word boundaries.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

// defaultStopwords returns common Portuguese and English stopwords, already folded.
func defaultStopwords() map[string]struct{} {
	stops := []string{
		// pt
		"de", "da", "do", "das", "dos", "em", "no", "na", "nos", "nas",
		"um", "uma", "uns", "umas", "para", "por", "com", "sem", "que",
		"se", "os", "as", "ao", "aos", "ou", "mas", "como", "mais",
		"sua", "seu", "suas", "seus", "ela", "ele", "eles", "elas",
		"isso", "esta", "este", "essa", "esse", "ja", "nao", "sao",
		"ser", "foi", "tem", "pelo", "pela", "entre", "sobre", "qual",
		// en
		"an", "and", "are", "at", "be", "by", "for", "from", "has",
		"in", "is", "it", "its", "of", "on", "that", "the", "to",
		"was", "were", "will", "with", "this", "or", "what", "how",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
