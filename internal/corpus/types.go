// File path: internal/corpus/types.go
package corpus

import (
	"fmt"
	"strings"
	"time"
)

// Organization is one nonprofit profile as served by the catalog and indexed
// by the retrieval engine. Financial metrics are pointers so that "not
// reported" stays distinguishable from an actual zero.
type Organization struct {
	EIN             string   `json:"ein"`
	Name            string   `json:"name"`
	NTEECode        string   `json:"ntee_code,omitempty"`
	NTEEDescription string   `json:"ntee_description,omitempty"`
	Mission         string   `json:"mission,omitempty"`
	Programs        string   `json:"programs,omitempty"`
	Activities      string   `json:"activities,omitempty"`
	City            string   `json:"city,omitempty"`
	State           string   `json:"state,omitempty"`
	Revenue         *float64 `json:"revenue,omitempty"`
	Expenses        *float64 `json:"expenses,omitempty"`
	NetAssets       *float64 `json:"net_assets,omitempty"`
	Website         string   `json:"website,omitempty"`
}

// RevenueValue returns the reported revenue, or zero when the filing did not
// include one. Ranking paths treat missing revenue as zero.
func (o Organization) RevenueValue() float64 {
	if o.Revenue == nil {
		return 0
	}
	return *o.Revenue
}

// ExpensesValue returns reported expenses or zero when absent.
func (o Organization) ExpensesValue() float64 {
	if o.Expenses == nil {
		return 0
	}
	return *o.Expenses
}

// NetAssetsValue returns reported net assets or zero when absent.
func (o Organization) NetAssetsValue() float64 {
	if o.NetAssets == nil {
		return 0
	}
	return *o.NetAssets
}

// Validate reports whether the record carries the minimum identity required
// before it may enter the catalog.
func (o Organization) Validate() error {
	if strings.TrimSpace(o.EIN) == "" {
		return fmt.Errorf("organization %q: missing ein", o.Name)
	}
	if strings.TrimSpace(o.Name) == "" {
		return fmt.Errorf("organization %s: missing name", o.EIN)
	}
	return nil
}

// ChunkType labels the origin field of a document chunk.
type ChunkType string

const (
	ChunkMission    ChunkType = "mission"
	ChunkPrograms   ChunkType = "programs"
	ChunkActivities ChunkType = "activities"
	ChunkSummary    ChunkType = "summary"
)

// Valid reports whether t is one of the known chunk types.
func (t ChunkType) Valid() bool {
	switch t {
	case ChunkMission, ChunkPrograms, ChunkActivities, ChunkSummary:
		return true
	}
	return false
}

// DocumentChunk is a content-addressed fragment of an organization's text.
// Insertion is idempotent on (EIN, Type, ContentHash): re-ingesting identical
// text is a no-op at the catalog layer.
type DocumentChunk struct {
	ID          int64     `json:"id,omitempty"`
	EIN         string    `json:"ein"`
	Type        ChunkType `json:"chunk_type"`
	Content     string    `json:"content"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}
