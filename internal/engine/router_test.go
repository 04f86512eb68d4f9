// File path: internal/engine/router_test.go
package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/causewaylabs/causeway/internal/corpus"
	"github.com/causewaylabs/causeway/internal/index"
)

type corpusStub struct {
	orgs []corpus.Organization
}

func (c corpusStub) Corpus(ctx context.Context) ([]corpus.Organization, error) {
	return c.orgs, nil
}

func revenuePtr(v float64) *float64 { return &v }

// sixtyOrgs builds a corpus with distinct revenues in scrambled order.
func sixtyOrgs() []corpus.Organization {
	orgs := make([]corpus.Organization, 0, 60)
	for i := 0; i < 60; i++ {
		revenue := float64((i*37)%60+1) * 25_000
		orgs = append(orgs, corpus.Organization{
			EIN:     fmt.Sprintf("74-%07d", i+1),
			Name:    fmt.Sprintf("Houston Org %02d", i+1),
			Mission: "Serving Houston families with food and shelter programs.",
			City:    "Houston",
			State:   "TX",
			Revenue: revenuePtr(revenue),
		})
	}
	return orgs
}

func builtEngine(t *testing.T, orgs []corpus.Organization, provider *stubProvider) *Engine {
	t.Helper()
	mgr := index.NewManager(corpusStub{orgs: orgs})
	if _, err := mgr.Ensure(context.Background(), false); err != nil {
		t.Fatalf("ensure index: %v", err)
	}
	return New(mgr, provider, Options{})
}

func TestIsMagnitudeQuery(t *testing.T) {
	cases := []struct {
		query string
		want  bool
	}{
		{"What are the largest nonprofits?", true},
		{"the BIGGEST orgs in town", true},
		{"show top performers", true},
		{"leading health charities", true},
		{"major donors", true},
		{"community impact report", true},
		{"food bank hungry feeding people", false},
		{"tell me about literacy programs", false},
	}
	for _, tc := range cases {
		if got := IsMagnitudeQuery(tc.query); got != tc.want {
			t.Errorf("IsMagnitudeQuery(%q) = %v, want %v", tc.query, got, tc.want)
		}
	}
}

func TestMagnitudeMatchIsSubstringNotToken(t *testing.T) {
	// "stopgap" contains "top"; the match is deliberately not word-bounded.
	if !IsMagnitudeQuery("Is there a stopgap for funding shortfalls?") {
		t.Fatalf("expected substring match inside another word")
	}
}

func TestMagnitudeRoutingOverSixtyRecords(t *testing.T) {
	eng := builtEngine(t, sixtyOrgs(), &stubProvider{reply: "ok"})
	route := eng.route("What are the largest nonprofits?", 0)
	if route.Mode != RouteMagnitude {
		t.Fatalf("expected magnitude route, got %s", route.Mode)
	}
	if len(route.Candidates) != 10 {
		t.Fatalf("expected 10 candidates, got %d", len(route.Candidates))
	}
	if got := route.Candidates[0].Record.RevenueValue(); got != 1_500_000 {
		t.Fatalf("expected highest revenue first, got %v", got)
	}
	for i := 1; i < len(route.Candidates); i++ {
		prev := route.Candidates[i-1].Record.RevenueValue()
		cur := route.Candidates[i].Record.RevenueValue()
		if prev <= cur {
			t.Fatalf("revenues not strictly descending at %d: %v then %v", i, prev, cur)
		}
	}
	for _, cand := range route.Candidates {
		if cand.Score != 0 {
			t.Fatalf("magnitude candidates must carry zero scores, got %v", cand.Score)
		}
	}
}

func TestMagnitudeRoutingIgnoresHint(t *testing.T) {
	eng := builtEngine(t, sixtyOrgs(), &stubProvider{reply: "ok"})
	route := eng.route("top organizations", 3)
	if route.Mode != RouteMagnitude {
		t.Fatalf("expected magnitude route, got %s", route.Mode)
	}
	if len(route.Candidates) != 10 {
		t.Fatalf("hint must not shrink the magnitude cap, got %d", len(route.Candidates))
	}
}

func TestSimilarityRoutingCapsAtFive(t *testing.T) {
	eng := builtEngine(t, sixtyOrgs(), &stubProvider{reply: "ok"})
	route := eng.route("food bank hungry feeding people", 0)
	if route.Mode != RouteSimilarity {
		t.Fatalf("expected similarity route, got %s", route.Mode)
	}
	if len(route.Candidates) > 5 {
		t.Fatalf("expected at most 5 candidates, got %d", len(route.Candidates))
	}
}

func TestSimilarityHintClamped(t *testing.T) {
	eng := builtEngine(t, sixtyOrgs(), &stubProvider{reply: "ok"})
	route := eng.route("food and shelter programs", 100)
	if len(route.Candidates) != 25 {
		t.Fatalf("expected hint clamped to 25, got %d", len(route.Candidates))
	}
	route = eng.route("food and shelter programs", 2)
	if len(route.Candidates) != 2 {
		t.Fatalf("expected 2 candidates for hint 2, got %d", len(route.Candidates))
	}
}

func TestSortByRevenueMissingTreatedAsZero(t *testing.T) {
	candidates := []index.Result{
		{Record: corpus.Organization{EIN: "1", Name: "No Revenue"}},
		{Record: corpus.Organization{EIN: "2", Name: "Small", Revenue: revenuePtr(100)}},
		{Record: corpus.Organization{EIN: "3", Name: "Big", Revenue: revenuePtr(9000)}},
	}
	sortByRevenue(candidates)
	if candidates[0].Record.EIN != "3" || candidates[1].Record.EIN != "2" || candidates[2].Record.EIN != "1" {
		t.Fatalf("unexpected order: %v %v %v", candidates[0].Record.EIN, candidates[1].Record.EIN, candidates[2].Record.EIN)
	}
}
