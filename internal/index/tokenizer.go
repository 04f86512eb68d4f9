// File path: internal/index/tokenizer.go
package index

import (
	"strings"
	"unicode"
)

// Normalize turns free text into the token stream the vocabulary and the
// query path both consume: punctuation is removed (not replaced), whitespace
// runs collapse, everything is lower-cased, stop words drop out, and the
// surviving unigrams are followed by their adjacent-pair bigrams. Empty input
// yields an empty sequence.
func Normalize(text string) []string {
	if text == "" {
		return nil
	}
	var cleaned strings.Builder
	cleaned.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			cleaned.WriteRune(r)
		}
	}
	fields := strings.Fields(strings.ToLower(cleaned.String()))
	if len(fields) == 0 {
		return nil
	}
	unigrams := make([]string, 0, len(fields))
	for _, field := range fields {
		if _, stop := stopWords[field]; stop {
			continue
		}
		unigrams = append(unigrams, field)
	}
	if len(unigrams) == 0 {
		return nil
	}
	tokens := make([]string, 0, 2*len(unigrams)-1)
	tokens = append(tokens, unigrams...)
	// Bigrams pair neighbors of the stop-filtered sequence, so "food for the
	// hungry" yields the bigram "food hungry".
	for i := 0; i+1 < len(unigrams); i++ {
		tokens = append(tokens, unigrams[i]+" "+unigrams[i+1])
	}
	return tokens
}
