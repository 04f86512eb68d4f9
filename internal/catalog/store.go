// File path: internal/catalog/store.go
package catalog

import (
	"context"
	"time"

	"github.com/causewaylabs/causeway/internal/corpus"
)

// ListOptions narrows an organization listing. Zero values mean "no filter";
// Limit falls back to the implementation default when non-positive.
type ListOptions struct {
	NTEEPrefix string
	Search     string
	Limit      int
	Offset     int
}

// Page is one listing slice together with the total number of rows matching
// the filters, so clients can paginate without a second query.
type Page struct {
	Organizations []corpus.Organization `json:"organizations"`
	Total         int                   `json:"total"`
}

// CategoryCount is one NTEE bucket in the dashboard rollup.
type CategoryCount struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

// DashboardStats backs the dashboard endpoint: corpus size, chunk volume,
// revenue aggregates, and the ten largest category buckets.
type DashboardStats struct {
	Organizations int             `json:"organizations"`
	Chunks        int             `json:"chunks"`
	TotalRevenue  float64         `json:"total_revenue"`
	MedianRevenue float64         `json:"median_revenue"`
	Categories    []CategoryCount `json:"categories"`
}

// FinancialInsights backs the financial insights endpoint. Largest holds the
// top organizations by reported revenue; the aggregates cover every record
// that reported the respective metric.
type FinancialInsights struct {
	Largest        []corpus.Organization `json:"largest"`
	TotalRevenue   float64               `json:"total_revenue"`
	TotalExpenses  float64               `json:"total_expenses"`
	AverageRevenue float64               `json:"average_revenue"`
	SolventShare   float64               `json:"solvent_share"`
}

// IngestAudit is one recorded ingest batch.
type IngestAudit struct {
	BatchID   string    `json:"batch_id"`
	Source    string    `json:"source"`
	Created   int       `json:"created"`
	Updated   int       `json:"updated"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the relational catalog behind the engine and the API. All methods
// are safe for concurrent use. Implementations live elsewhere (sqlite today)
// so callers never bind to a driver.
type Store interface {
	// UpsertOrganization inserts or updates one record keyed by EIN and
	// reports whether a new row was created.
	UpsertOrganization(ctx context.Context, org corpus.Organization) (bool, error)
	// BatchUpsert applies a whole batch in one transaction.
	BatchUpsert(ctx context.Context, orgs []corpus.Organization) (created, updated int, err error)
	// Organization fetches one record by EIN; the bool reports presence.
	Organization(ctx context.Context, ein string) (corpus.Organization, bool, error)
	// List pages through the catalog under the given filters.
	List(ctx context.Context, opts ListOptions) (Page, error)
	// All returns the full corpus ordered by EIN; this ordering is what the
	// index builds over, so it must be stable across calls.
	All(ctx context.Context) ([]corpus.Organization, error)
	// Count reports the number of organizations.
	Count(ctx context.Context) (int, error)

	// InsertChunks stores content-addressed chunks, skipping duplicates, and
	// reports how many rows were actually inserted.
	InsertChunks(ctx context.Context, chunks []corpus.DocumentChunk) (int, error)
	// ChunksFor lists the stored chunks for one organization.
	ChunksFor(ctx context.Context, ein string) ([]corpus.DocumentChunk, error)
	// ChunkCount reports the number of stored chunks.
	ChunkCount(ctx context.Context) (int, error)

	// Dashboard computes the dashboard aggregates.
	Dashboard(ctx context.Context) (DashboardStats, error)
	// FinancialInsights computes the revenue/expense rollups.
	FinancialInsights(ctx context.Context) (FinancialInsights, error)

	// RecordIngest appends one audit row for a finished ingest batch.
	RecordIngest(ctx context.Context, audit IngestAudit) error
	// RecentIngests lists the latest audit rows, newest first.
	RecentIngests(ctx context.Context, limit int) ([]IngestAudit, error)

	Close() error
}
