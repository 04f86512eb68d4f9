// File path: internal/sqlite/store_test.go
package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/causewaylabs/causeway/internal/archive"
	"github.com/causewaylabs/causeway/internal/catalog"
	"github.com/causewaylabs/causeway/internal/corpus"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func floatPtr(v float64) *float64 { return &v }

func TestOpenMigratesSchema(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty catalog, got %d rows", count)
	}
	audits, err := store.RecentIngests(ctx, 5)
	if err != nil {
		t.Fatalf("recent ingests: %v", err)
	}
	if len(audits) != 1 || audits[0].Source != "schema_created" {
		t.Fatalf("expected bootstrap audit row, got %+v", audits)
	}
}

func TestUpsertOrganizationCreatesAndUpdates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	org := corpus.Organization{
		EIN:     "74-1234567",
		Name:    "Harbor Light Shelter",
		Mission: "Emergency housing for families.",
		City:    "Houston",
		State:   "TX",
		Revenue: floatPtr(1_200_000),
	}
	created, err := store.UpsertOrganization(ctx, org)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !created {
		t.Fatalf("expected first upsert to create")
	}

	// Sparse update: empty strings and nil metrics must not clobber stored values.
	update := corpus.Organization{EIN: org.EIN, Name: "Harbor Light Shelter", Programs: "Overnight beds"}
	created, err = store.UpsertOrganization(ctx, update)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Fatalf("expected second upsert to update")
	}

	got, found, err := store.Organization(ctx, org.EIN)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !found {
		t.Fatalf("expected record present")
	}
	if got.Mission != org.Mission {
		t.Fatalf("mission clobbered: %q", got.Mission)
	}
	if got.Programs != "Overnight beds" {
		t.Fatalf("programs not updated: %q", got.Programs)
	}
	if got.Revenue == nil || *got.Revenue != 1_200_000 {
		t.Fatalf("revenue clobbered: %v", got.Revenue)
	}
}

func TestOrganizationMissing(t *testing.T) {
	store := openTestStore(t)
	_, found, err := store.Organization(context.Background(), "00-0000000")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if found {
		t.Fatalf("expected record absent")
	}
}

func TestBatchUpsertCounts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	first := []corpus.Organization{
		{EIN: "74-0000001", Name: "Alpha Aid"},
		{EIN: "74-0000002", Name: "Bravo Relief"},
		{EIN: "74-0000003", Name: "Charlie Fund"},
	}
	created, updated, err := store.BatchUpsert(ctx, first)
	if err != nil {
		t.Fatalf("batch upsert: %v", err)
	}
	if created != 3 || updated != 0 {
		t.Fatalf("expected 3 created, got created=%d updated=%d", created, updated)
	}

	second := []corpus.Organization{
		{EIN: "74-0000002", Name: "Bravo Relief", Mission: "Disaster response."},
		{EIN: "74-0000004", Name: "Delta Trust"},
	}
	created, updated, err = store.BatchUpsert(ctx, second)
	if err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if created != 1 || updated != 1 {
		t.Fatalf("expected 1 created 1 updated, got created=%d updated=%d", created, updated)
	}

	orgs, err := store.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(orgs) != 4 {
		t.Fatalf("expected 4 records, got %d", len(orgs))
	}
	for i := 1; i < len(orgs); i++ {
		if orgs[i-1].EIN >= orgs[i].EIN {
			t.Fatalf("records not ordered by ein: %s before %s", orgs[i-1].EIN, orgs[i].EIN)
		}
	}
}

func TestListFiltersAndPaging(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seed := []corpus.Organization{
		{EIN: "74-0000001", Name: "Houston Food Bank", NTEECode: "K31", Mission: "Food distribution."},
		{EIN: "74-0000002", Name: "Med Center Clinic", NTEECode: "E32", Mission: "Community health."},
		{EIN: "74-0000003", Name: "Food Rescue League", NTEECode: "K36", Mission: "Surplus food recovery."},
		{EIN: "74-0000004", Name: "Bayou Arts Council", NTEECode: "A26", Mission: "Arts education."},
	}
	if _, _, err := store.BatchUpsert(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	page, err := store.List(ctx, catalog.ListOptions{NTEEPrefix: "K"})
	if err != nil {
		t.Fatalf("list ntee: %v", err)
	}
	if page.Total != 2 || len(page.Organizations) != 2 {
		t.Fatalf("expected 2 K-category rows, got total=%d len=%d", page.Total, len(page.Organizations))
	}

	page, err = store.List(ctx, catalog.ListOptions{Search: "food"})
	if err != nil {
		t.Fatalf("list search: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected 2 food matches, got %d", page.Total)
	}

	page, err = store.List(ctx, catalog.ListOptions{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if page.Total != 4 || len(page.Organizations) != 2 {
		t.Fatalf("expected page 2 of 4, got total=%d len=%d", page.Total, len(page.Organizations))
	}

	page, err = store.List(ctx, catalog.ListOptions{Limit: 2, Offset: 10})
	if err != nil {
		t.Fatalf("list past end: %v", err)
	}
	if page.Total != 4 || len(page.Organizations) != 0 {
		t.Fatalf("expected empty window with total 4, got total=%d len=%d", page.Total, len(page.Organizations))
	}
}

func TestInsertChunksDeduplicates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	org := corpus.Organization{
		EIN:     "74-5555555",
		Name:    "Gulf Coast Literacy",
		Mission: "Adult literacy tutoring.",
	}
	if _, err := store.UpsertOrganization(ctx, org); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	chunks := corpus.BuildChunks(org)
	inserted, err := store.InsertChunks(ctx, chunks)
	if err != nil {
		t.Fatalf("insert chunks: %v", err)
	}
	if inserted != len(chunks) {
		t.Fatalf("expected %d inserts, got %d", len(chunks), inserted)
	}
	inserted, err = store.InsertChunks(ctx, chunks)
	if err != nil {
		t.Fatalf("reinsert chunks: %v", err)
	}
	if inserted != 0 {
		t.Fatalf("expected duplicate chunks skipped, got %d inserts", inserted)
	}
	stored, err := store.ChunksFor(ctx, org.EIN)
	if err != nil {
		t.Fatalf("chunks for: %v", err)
	}
	if len(stored) != len(chunks) {
		t.Fatalf("expected %d stored chunks, got %d", len(chunks), len(stored))
	}
}

func TestDashboardAndFinancialInsights(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seed := []corpus.Organization{
		{EIN: "74-0000001", Name: "Houston Food Bank", NTEECode: "K31", Revenue: floatPtr(425_000_000), Expenses: floatPtr(410_000_000), NetAssets: floatPtr(150_000_000)},
		{EIN: "74-0000002", Name: "Med Center Clinic", NTEECode: "E32", Revenue: floatPtr(8_000_000), NetAssets: floatPtr(-20_000)},
		{EIN: "74-0000003", Name: "Food Rescue League", NTEECode: "K31", Revenue: floatPtr(600_000), NetAssets: floatPtr(90_000)},
		{EIN: "74-0000004", Name: "Bayou Arts Council", NTEECode: "A26"},
	}
	if _, _, err := store.BatchUpsert(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	stats, err := store.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if stats.Organizations != 4 {
		t.Fatalf("expected 4 organizations, got %d", stats.Organizations)
	}
	if stats.TotalRevenue != 433_600_000 {
		t.Fatalf("unexpected total revenue: %v", stats.TotalRevenue)
	}
	if stats.MedianRevenue != 8_000_000 {
		t.Fatalf("expected median of three reported revenues, got %v", stats.MedianRevenue)
	}
	if len(stats.Categories) == 0 || stats.Categories[0].Code != "K31" || stats.Categories[0].Count != 2 {
		t.Fatalf("unexpected category rollup: %+v", stats.Categories)
	}

	insights, err := store.FinancialInsights(ctx)
	if err != nil {
		t.Fatalf("insights: %v", err)
	}
	if len(insights.Largest) != 3 {
		t.Fatalf("expected 3 revenue-reporting orgs, got %d", len(insights.Largest))
	}
	if insights.Largest[0].Name != "Houston Food Bank" {
		t.Fatalf("expected Houston Food Bank largest, got %s", insights.Largest[0].Name)
	}
	if insights.TotalExpenses != 410_000_000 {
		t.Fatalf("unexpected total expenses: %v", insights.TotalExpenses)
	}
	// Two of the three net-asset reporters are solvent.
	if insights.SolventShare <= 0.66 || insights.SolventShare >= 0.67 {
		t.Fatalf("unexpected solvent share: %v", insights.SolventShare)
	}
}

func TestRecordIngestAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if err := store.RecordIngest(ctx, catalog.IngestAudit{BatchID: "batch-1", Source: "api", Created: 5}); err != nil {
		t.Fatalf("record first: %v", err)
	}
	if err := store.RecordIngest(ctx, catalog.IngestAudit{BatchID: "batch-2", Source: "irs990", Created: 2, Skipped: 1}); err != nil {
		t.Fatalf("record second: %v", err)
	}
	audits, err := store.RecentIngests(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(audits) != 2 {
		t.Fatalf("expected 2 audits, got %d", len(audits))
	}
	if audits[0].BatchID != "batch-2" || audits[1].BatchID != "batch-1" {
		t.Fatalf("expected newest first, got %+v", audits)
	}
}

func TestSyncFromArchive(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	arc, err := archive.NewStore(filepath.Join(t.TempDir(), "organizations.jsonl"))
	if err != nil {
		t.Fatalf("new archive: %v", err)
	}
	records := []corpus.Organization{
		{EIN: "74-0000001", Name: "Alpha Aid", Mission: "Rapid response."},
		{EIN: "74-0000002", Name: "Bravo Relief", Programs: "Mobile pantry."},
	}
	if err := arc.Replace(ctx, records); err != nil {
		t.Fatalf("replace archive: %v", err)
	}
	created, updated, err := store.SyncFromArchive(ctx, arc, "boot-1")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if created != 2 || updated != 0 {
		t.Fatalf("expected 2 created, got created=%d updated=%d", created, updated)
	}
	chunkCount, err := store.ChunkCount(ctx)
	if err != nil {
		t.Fatalf("chunk count: %v", err)
	}
	if chunkCount == 0 {
		t.Fatalf("expected derived chunks stored")
	}
	audits, err := store.RecentIngests(ctx, 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(audits) != 1 || audits[0].Source != "archive_sync" {
		t.Fatalf("expected archive_sync audit, got %+v", audits)
	}
}
