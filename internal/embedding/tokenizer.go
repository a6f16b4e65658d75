package embedding

import (
	"strings"
	"unicode"
)

// Tokenizer produces token IDs for BERT-style models (input_ids, attention_mask, token_type_ids).
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// SimpleTokenizer is a word-split tokenizer with hash-based token IDs.
type SimpleTokenizer struct{}

// Tokenize splits text into words and produces padded token IDs up to maxTokens.
func (t *SimpleTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	inputIDs[0] = 101 // [CLS]
	attentionMask[0] = 1

	pos := 1
	for _, word := range segment(text) {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = int64(HashString(word)%30000) + 1000
		attentionMask[pos] = 1
		pos++
	}
	if pos < maxTokens {
		inputIDs[pos] = 102 // [SEP]
		attentionMask[pos] = 1
	}
	return inputIDs, attentionMask, tokenTypeIDs
}

// HashString returns a deterministic non-negative hash of s.
func HashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	if h < 0 {
		h = 0
	}
	return h
}

// segment lowercases text and splits it into words. Runs of letters and digits form a
// word; each CJK ideograph or kana/hangul character is its own token.
func segment(text string) []string {
	var tokens []string
	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}
	for _, r := range text {
		switch {
		case isCJK(r):
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r):
			word.WriteRune(unicode.ToLower(r))
		default:
			flush()
		}
	}
	flush()
	return tokens
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}

// Terms returns the content terms of text used by the hash embedder: segmented words
// with single-letter words and common English and German function words removed.
// CJK characters are always kept.
func Terms(text string) []string {
	words := segment(text)
	terms := words[:0]
	for _, w := range words {
		if len([]rune(w)) == 1 && !isCJK([]rune(w)[0]) {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		terms = append(terms, w)
	}
	return terms
}

var stopWords = func() map[string]struct{} {
	list := []string{
		// en
		"the", "is", "are", "was", "were", "be", "been", "an", "and", "or", "of", "to", "in",
		"on", "at", "by", "for", "with", "as", "it", "its", "this", "that", "these", "those",
		"what", "which", "who", "whom", "how", "why", "when", "where", "do", "does", "did",
		"he", "she", "they", "we", "you", "his", "her", "their", "our", "your", "not", "but",
		"from", "into", "than", "then", "so", "such", "can", "all",
		// de
		"der", "die", "das", "den", "dem", "des", "ein", "eine", "einer", "eines", "einem",
		"einen", "und", "oder", "ist", "sind", "war", "zu", "im", "mit", "von", "auf", "aus",
		"dass", "was", "wie", "er", "sie", "es", "nicht", "aber", "zwar", "sein", "kann",
	}
	m := make(map[string]struct{}, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}()
