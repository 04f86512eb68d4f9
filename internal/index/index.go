// File path: internal/index/index.go
package index

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/causewaylabs/causeway/internal/corpus"
)

var (
	// ErrBuildFailure marks a build aborted by a malformed or empty corpus.
	// The previously installed index, if any, stays authoritative.
	ErrBuildFailure = errors.New("index build failure")
	// ErrUnavailable marks operations that need an index when none has ever
	// been built. Searches degrade to empty results instead of returning it.
	ErrUnavailable = errors.New("index unavailable")
)

// BuildMeta records when and over how many documents an index was built.
type BuildMeta struct {
	DocumentCount int       `json:"document_count"`
	BuiltAt       time.Time `json:"built_at"`
}

// Index is one immutable build: the vocabulary, one normalized vector per
// record in corpus order, and the records themselves. Instances are shared
// across goroutines without locks, so nothing may mutate them after Build
// returns.
type Index struct {
	Vocabulary Vocabulary
	Vectors    [][]float64
	Records    []corpus.Organization
	Meta       BuildMeta
}

// Result pairs a record with its cosine score for one search.
type Result struct {
	Record corpus.Organization `json:"record"`
	Score  float64             `json:"score"`
}

// BuildOptions tune a build. Zero values select the defaults.
type BuildOptions struct {
	MaxVocabulary int
	Workers       int
}

func (o BuildOptions) workers(jobs int) int {
	w := o.Workers
	if w <= 0 {
		w = 4
	}
	if jobs < w {
		w = jobs
	}
	if w < 1 {
		w = 1
	}
	return w
}

// Build derives document text for every record, builds the vocabulary, and
// vectorizes the whole corpus. All-or-nothing: any failure aborts without a
// partial index. Vectorization fans out over a worker pool; rows are disjoint
// so workers never contend.
func Build(records []corpus.Organization, opts BuildOptions) (*Index, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty corpus", ErrBuildFailure)
	}
	docTokens := make([][]string, len(records))
	for i, org := range records {
		docTokens[i] = Normalize(corpus.DocumentText(org))
	}
	vocab := BuildVocabulary(docTokens, opts.MaxVocabulary)

	vectors := make([][]float64, len(records))
	pool, err := ants.NewPool(opts.workers(len(records)))
	if err != nil {
		return nil, fmt.Errorf("%w: vectorize pool: %w", ErrBuildFailure, err)
	}
	defer pool.Release()
	var wg sync.WaitGroup
	for i := range docTokens {
		row := i
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			vectors[row] = vocab.Vectorize(docTokens[row])
		}); err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("%w: vectorize submit: %w", ErrBuildFailure, err)
		}
	}
	wg.Wait()

	owned := make([]corpus.Organization, len(records))
	copy(owned, records)
	return &Index{
		Vocabulary: vocab,
		Vectors:    vectors,
		Records:    owned,
		Meta:       BuildMeta{DocumentCount: len(owned), BuiltAt: time.Now().UTC()},
	}, nil
}

// Search scores the query against every stored vector and returns the top k,
// descending by score with ties kept in corpus order. k past the corpus size
// returns the whole corpus; a nil or empty index returns an empty list, never
// an error. Queries never grow the vocabulary.
func (idx *Index) Search(query string, k int) []Result {
	if idx == nil || len(idx.Vectors) == 0 || k <= 0 {
		return nil
	}
	qvec := idx.Vocabulary.Vectorize(Normalize(query))
	results := make([]Result, 0, len(idx.Vectors))
	for i, row := range idx.Vectors {
		var dot float64
		for col, weight := range qvec {
			if weight != 0 {
				dot += weight * row[col]
			}
		}
		results = append(results, Result{Record: idx.Records[i], Score: dot})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if k < len(results) {
		results = results[:k]
	}
	return results
}

// Documents returns the number of records this index was built over.
func (idx *Index) Documents() int {
	if idx == nil {
		return 0
	}
	return idx.Meta.DocumentCount
}
