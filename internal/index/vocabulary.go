// File path: internal/index/vocabulary.go
package index

import (
	"math"
	"sort"
)

// DefaultMaxVocabulary caps how many terms a build may retain.
const DefaultMaxVocabulary = 5000

// TermInfo carries the per-term state of a built vocabulary.
type TermInfo struct {
	Column int     `json:"column"`
	DF     int     `json:"df"`
	IDF    float64 `json:"idf"`
}

// Vocabulary maps normalized terms to dense column indices and smoothed IDF
// weights. It is immutable once a build completes; queries look terms up but
// never add them.
type Vocabulary struct {
	Terms    map[string]TermInfo `json:"terms"`
	DocCount int                 `json:"doc_count"`
}

// Size returns the number of retained terms, which equals the vector width.
func (v Vocabulary) Size() int {
	return len(v.Terms)
}

// BuildVocabulary computes document frequencies over the tokenized corpus and
// retains terms with 1 <= df <= ceil(0.95 * N), capped at maxTerms. The cap
// keeps the highest-frequency terms, ties broken lexically, and columns are
// assigned in that same order so two builds of one corpus always agree.
func BuildVocabulary(docTokens [][]string, maxTerms int) Vocabulary {
	if maxTerms <= 0 {
		maxTerms = DefaultMaxVocabulary
	}
	total := len(docTokens)
	df := make(map[string]int)
	for _, tokens := range docTokens {
		seen := make(map[string]struct{}, len(tokens))
		for _, term := range tokens {
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	maxDF := int(math.Ceil(0.95 * float64(total)))
	retained := make([]string, 0, len(df))
	for term, count := range df {
		if count >= 1 && count <= maxDF {
			retained = append(retained, term)
		}
	}
	sort.Slice(retained, func(i, j int) bool {
		left, right := retained[i], retained[j]
		if df[left] != df[right] {
			return df[left] > df[right]
		}
		return left < right
	})
	if len(retained) > maxTerms {
		retained = retained[:maxTerms]
	}

	terms := make(map[string]TermInfo, len(retained))
	for col, term := range retained {
		terms[term] = TermInfo{
			Column: col,
			DF:     df[term],
			IDF:    math.Log((1+float64(total))/(1+float64(df[term]))) + 1,
		}
	}
	return Vocabulary{Terms: terms, DocCount: total}
}

// Vectorize projects a token sequence onto the vocabulary: raw term frequency
// times IDF per retained term, then L2-normalized. Unknown terms contribute
// nothing. A sequence with no retained terms yields the zero vector, which
// scores zero against everything.
func (v Vocabulary) Vectorize(tokens []string) []float64 {
	vec := make([]float64, len(v.Terms))
	for _, term := range tokens {
		info, ok := v.Terms[term]
		if !ok {
			continue
		}
		vec[info.Column] += info.IDF
	}
	l2Normalize(vec)
	return vec
}

func l2Normalize(vec []float64) {
	var sum float64
	for _, w := range vec {
		sum += w * w
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
}
