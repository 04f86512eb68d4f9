// File path: internal/engine/assembler.go
package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/causewaylabs/causeway/internal/index"
)

// Source is one structured attribution returned alongside an answer.
type Source struct {
	Name           string  `json:"name"`
	EIN            string  `json:"ein"`
	Category       string  `json:"category"`
	Website        string  `json:"website"`
	RelevanceScore float64 `json:"relevance_score"`
	Revenue        float64 `json:"revenue"`
}

// contextLimit bounds the prompt context; sources are not capped here because
// the router already limits what it hands over.
const contextLimit = 5

// AssembleContext renders at most five candidates into the prompt context
// block. Every field appears in fixed order; absent text renders as "N/A" and
// absent metrics as $0 so the generation prompt keeps a stable shape.
func AssembleContext(candidates []index.Result) string {
	limit := len(candidates)
	if limit > contextLimit {
		limit = contextLimit
	}
	var b strings.Builder
	for i := 0; i < limit; i++ {
		org := candidates[i].Record
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Organization %d: %s\n", i+1, valueOr(org.Name, "Unknown"))
		fmt.Fprintf(&b, "- EIN: %s\n", valueOr(org.EIN, "N/A"))
		fmt.Fprintf(&b, "- Category: %s (%s)\n", valueOr(org.NTEEDescription, "N/A"), valueOr(org.NTEECode, "N/A"))
		fmt.Fprintf(&b, "- Mission: %s\n", valueOr(org.Mission, "N/A"))
		fmt.Fprintf(&b, "- Programs: %s\n", valueOr(org.Programs, "N/A"))
		fmt.Fprintf(&b, "- Activities: %s\n", valueOr(org.Activities, "N/A"))
		fmt.Fprintf(&b, "- Location: %s, %s\n", valueOr(org.City, "N/A"), valueOr(org.State, "N/A"))
		fmt.Fprintf(&b, "- Revenue: %s\n", formatCurrency(org.RevenueValue()))
		fmt.Fprintf(&b, "- Expenses: %s\n", formatCurrency(org.ExpensesValue()))
		fmt.Fprintf(&b, "- Net Assets: %s\n", formatCurrency(org.NetAssetsValue()))
		fmt.Fprintf(&b, "- Website: %s\n", valueOr(org.Website, "N/A"))
	}
	return b.String()
}

// AssembleSources mirrors every routed candidate as a structured attribution.
// Scores round to three decimals; the magnitude path reports zero because it
// never computed a similarity.
func AssembleSources(candidates []index.Result) []Source {
	sources := make([]Source, 0, len(candidates))
	for _, cand := range candidates {
		org := cand.Record
		sources = append(sources, Source{
			Name:           valueOr(org.Name, "Unknown"),
			EIN:            org.EIN,
			Category:       org.NTEEDescription,
			Website:        org.Website,
			RelevanceScore: round3(cand.Score),
			Revenue:        org.RevenueValue(),
		})
	}
	return sources
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// formatCurrency renders whole dollars with thousands grouping, e.g.
// $425,000,000. Negative values render as $-20,000.
func formatCurrency(v float64) string {
	n := int64(math.Round(v))
	negative := n < 0
	if negative {
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	b.WriteString("$")
	if negative {
		b.WriteString("-")
	}
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteString(",")
		}
		b.WriteRune(d)
	}
	return b.String()
}
