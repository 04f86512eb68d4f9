// File path: internal/sqlite/queries.go
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/causewaylabs/causeway/internal/catalog"
	"github.com/causewaylabs/causeway/internal/corpus"
)

// Organization fetches a single record by EIN.
func (s *Store) Organization(ctx context.Context, ein string) (corpus.Organization, bool, error) {
	if s == nil || s.db == nil {
		return corpus.Organization{}, false, fmt.Errorf("sqlite store not initialised")
	}
	ein = strings.TrimSpace(ein)
	if ein == "" {
		return corpus.Organization{}, false, fmt.Errorf("ein required")
	}
	var row orgRow
	err := s.db.GetContext(ctx, &row, `SELECT `+orgColumns+` FROM organizations WHERE ein = ?`, ein)
	if errors.Is(err, sql.ErrNoRows) {
		return corpus.Organization{}, false, nil
	}
	if err != nil {
		return corpus.Organization{}, false, fmt.Errorf("select organization: %w", err)
	}
	return row.toDomain(), true, nil
}

// List pages through the catalog applying the requested filters.
func (s *Store) List(ctx context.Context, opts catalog.ListOptions) (catalog.Page, error) {
	if s == nil || s.db == nil {
		return catalog.Page{}, fmt.Errorf("sqlite store not initialised")
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	filters := []string{}
	args := []interface{}{}
	if prefix := strings.TrimSpace(opts.NTEEPrefix); prefix != "" {
		filters = append(filters, "ntee_code LIKE ?")
		args = append(args, prefix+"%")
	}
	if search := strings.TrimSpace(opts.Search); search != "" {
		pattern := "%" + search + "%"
		filters = append(filters, "(name LIKE ? OR mission LIKE ?)")
		args = append(args, pattern, pattern)
	}

	where := ""
	if len(filters) > 0 {
		where = "WHERE " + strings.Join(filters, " AND ")
	}

	query := `
WITH filtered AS (
        SELECT ` + orgColumns + `
        FROM organizations
        %s
)
SELECT *, COUNT(*) OVER() AS total_rows FROM filtered
ORDER BY name, ein
LIMIT ? OFFSET ?`
	query = fmt.Sprintf(query, where)
	args = append(args, limit, offset)

	records := []struct {
		orgRow
		TotalRows int `db:"total_rows"`
	}{}
	if err := s.db.SelectContext(ctx, &records, query, args...); err != nil {
		return catalog.Page{}, fmt.Errorf("query organizations: %w", err)
	}

	page := catalog.Page{Organizations: make([]corpus.Organization, 0, len(records))}
	for _, rec := range records {
		page.Organizations = append(page.Organizations, rec.toDomain())
		page.Total = rec.TotalRows
	}
	if len(records) == 0 {
		// LIMIT/OFFSET past the end drops the window rows, so count separately.
		if err := s.db.GetContext(ctx, &page.Total, fmt.Sprintf(`SELECT COUNT(*) FROM organizations %s`, where), args[:len(args)-2]...); err != nil {
			return catalog.Page{}, fmt.Errorf("count organizations: %w", err)
		}
	}
	return page, nil
}

// All returns every organization ordered by EIN. The index builds over this
// ordering, so it must stay deterministic.
func (s *Store) All(ctx context.Context) ([]corpus.Organization, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlite store not initialised")
	}
	rows := []orgRow{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+orgColumns+` FROM organizations ORDER BY ein`); err != nil {
		return nil, fmt.Errorf("select organizations: %w", err)
	}
	orgs := make([]corpus.Organization, 0, len(rows))
	for _, row := range rows {
		orgs = append(orgs, row.toDomain())
	}
	return orgs, nil
}

// Count reports the number of stored organizations.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlite store not initialised")
	}
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM organizations`); err != nil {
		return 0, fmt.Errorf("count organizations: %w", err)
	}
	return count, nil
}

// ChunksFor lists the stored document chunks for one organization.
func (s *Store) ChunksFor(ctx context.Context, ein string) ([]corpus.DocumentChunk, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlite store not initialised")
	}
	rows := []chunkRow{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM document_chunks WHERE ein = ? ORDER BY id`, strings.TrimSpace(ein)); err != nil {
		return nil, fmt.Errorf("select chunks: %w", err)
	}
	chunks := make([]corpus.DocumentChunk, 0, len(rows))
	for _, row := range rows {
		chunks = append(chunks, row.toDomain())
	}
	return chunks, nil
}

// ChunkCount reports the number of stored document chunks.
func (s *Store) ChunkCount(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlite store not initialised")
	}
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM document_chunks`); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return count, nil
}

// Dashboard assembles the aggregate statistics using the pre-computed views.
func (s *Store) Dashboard(ctx context.Context) (catalog.DashboardStats, error) {
	if s == nil || s.db == nil {
		return catalog.DashboardStats{}, fmt.Errorf("sqlite store not initialised")
	}

	var rollup struct {
		OrgCount     int     `db:"org_count"`
		TotalRevenue float64 `db:"total_revenue"`
	}
	if err := s.db.GetContext(ctx, &rollup, `SELECT org_count, total_revenue FROM financial_rollup_view`); err != nil {
		return catalog.DashboardStats{}, fmt.Errorf("query financial rollup: %w", err)
	}

	chunks, err := s.ChunkCount(ctx)
	if err != nil {
		return catalog.DashboardStats{}, err
	}

	revenues := []float64{}
	if err := s.db.SelectContext(ctx, &revenues, `SELECT revenue FROM organizations WHERE revenue IS NOT NULL ORDER BY revenue`); err != nil {
		return catalog.DashboardStats{}, fmt.Errorf("select revenues: %w", err)
	}

	categories := []struct {
		NTEECode        string         `db:"ntee_code"`
		NTEEDescription sql.NullString `db:"ntee_description"`
		OrgCount        int            `db:"org_count"`
	}{}
	if err := s.db.SelectContext(ctx, &categories, `SELECT ntee_code, ntee_description, org_count
                FROM category_counts_view
                ORDER BY org_count DESC, ntee_code
                LIMIT 10`); err != nil {
		return catalog.DashboardStats{}, fmt.Errorf("query categories: %w", err)
	}

	stats := catalog.DashboardStats{
		Organizations: rollup.OrgCount,
		Chunks:        chunks,
		TotalRevenue:  rollup.TotalRevenue,
		MedianRevenue: median(revenues),
		Categories:    make([]catalog.CategoryCount, 0, len(categories)),
	}
	for _, cat := range categories {
		stats.Categories = append(stats.Categories, catalog.CategoryCount{
			Code:        cat.NTEECode,
			Description: stringValue(cat.NTEEDescription),
			Count:       cat.OrgCount,
		})
	}
	return stats, nil
}

// FinancialInsights computes the revenue rollups and the largest filers.
func (s *Store) FinancialInsights(ctx context.Context) (catalog.FinancialInsights, error) {
	if s == nil || s.db == nil {
		return catalog.FinancialInsights{}, fmt.Errorf("sqlite store not initialised")
	}

	var rollup struct {
		OrgCount       int     `db:"org_count"`
		TotalRevenue   float64 `db:"total_revenue"`
		TotalExpenses  float64 `db:"total_expenses"`
		AverageRevenue float64 `db:"average_revenue"`
		SolventCount   int     `db:"solvent_count"`
		ReportingCount int     `db:"reporting_count"`
	}
	if err := s.db.GetContext(ctx, &rollup, `SELECT * FROM financial_rollup_view`); err != nil {
		return catalog.FinancialInsights{}, fmt.Errorf("query financial rollup: %w", err)
	}

	rows := []orgRow{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+orgColumns+` FROM organizations
                WHERE revenue IS NOT NULL
                ORDER BY revenue DESC, ein
                LIMIT 10`); err != nil {
		return catalog.FinancialInsights{}, fmt.Errorf("select largest filers: %w", err)
	}

	insights := catalog.FinancialInsights{
		Largest:        make([]corpus.Organization, 0, len(rows)),
		TotalRevenue:   rollup.TotalRevenue,
		TotalExpenses:  rollup.TotalExpenses,
		AverageRevenue: rollup.AverageRevenue,
	}
	for _, row := range rows {
		insights.Largest = append(insights.Largest, row.toDomain())
	}
	if rollup.ReportingCount > 0 {
		insights.SolventShare = float64(rollup.SolventCount) / float64(rollup.ReportingCount)
	}
	return insights, nil
}

// RecentIngests lists the latest ingest audit rows, newest first.
func (s *Store) RecentIngests(ctx context.Context, limit int) ([]catalog.IngestAudit, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlite store not initialised")
	}
	if limit <= 0 {
		limit = 20
	}
	rows := []auditRow{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM ingest_audit ORDER BY created_at DESC, id DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("select ingest audit: %w", err)
	}
	audits := make([]catalog.IngestAudit, 0, len(rows))
	for _, row := range rows {
		audits = append(audits, catalog.IngestAudit{
			BatchID:   row.BatchID,
			Source:    row.Source,
			Created:   row.Created,
			Updated:   row.Updated,
			Skipped:   row.Skipped,
			Failed:    row.Failed,
			Detail:    stringValue(row.Detail),
			CreatedAt: row.CreatedAt,
		})
	}
	return audits, nil
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
