// File path: internal/engine/router.go
package engine

import (
	"sort"
	"strings"

	"github.com/causewaylabs/causeway/internal/index"
)

// RouteMode distinguishes the two retrieval paths.
type RouteMode string

const (
	// RouteSimilarity is the ordinary top-k vector search.
	RouteSimilarity RouteMode = "similarity"
	// RouteMagnitude is the full-corpus revenue sort used for size questions.
	RouteMagnitude RouteMode = "magnitude"
)

// Route is the outcome of query classification plus retrieval.
type Route struct {
	Mode       RouteMode
	Candidates []index.Result
}

// Size questions route on any of these appearing anywhere in the query.
var magnitudeTerms = []string{"largest", "biggest", "major", "top", "leading", "impact"}

const (
	magnitudeCap = 10
	similarityK  = 5
	maxHint      = 25

	// When the corpus itself is unreachable, a broad sweep over the city
	// still gives the revenue sort something to rank.
	fallbackQuery = "Houston"
	fallbackK     = 50
)

// IsMagnitudeQuery reports whether the query asks about organization size or
// impact. This is a substring test over the whole lowered query, not token
// matching, so "topology" matches "top"; similarity ranking is a poor proxy
// for "which organizations are largest", and the loose match errs toward the
// metric sort.
func IsMagnitudeQuery(query string) bool {
	lowered := strings.ToLower(query)
	for _, term := range magnitudeTerms {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}

func (e *Engine) route(query string, hint int) Route {
	if IsMagnitudeQuery(query) {
		candidates := e.corpusCandidates()
		if len(candidates) == 0 {
			candidates = e.index.Search(fallbackQuery, fallbackK)
		}
		sortByRevenue(candidates)
		if len(candidates) > magnitudeCap {
			candidates = candidates[:magnitudeCap]
		}
		return Route{Mode: RouteMagnitude, Candidates: candidates}
	}

	k := similarityK
	if hint > 0 {
		k = hint
		if k > maxHint {
			k = maxHint
		}
	}
	return Route{Mode: RouteSimilarity, Candidates: e.index.Search(query, k)}
}

// corpusCandidates wraps the full record set as unscored results.
func (e *Engine) corpusCandidates() []index.Result {
	records := e.index.Records()
	if len(records) == 0 {
		return nil
	}
	candidates := make([]index.Result, 0, len(records))
	for _, rec := range records {
		candidates = append(candidates, index.Result{Record: rec})
	}
	return candidates
}

// sortByRevenue orders candidates by reported revenue, highest first.
// Missing revenue sorts as zero; ties keep their incoming order.
func sortByRevenue(candidates []index.Result) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Record.RevenueValue() > candidates[j].Record.RevenueValue()
	})
}
