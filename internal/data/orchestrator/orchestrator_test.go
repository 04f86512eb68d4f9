// File path: internal/data/orchestrator/orchestrator_test.go
package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CAUSEWAY_ARCHIVE_PATH", "")
	t.Setenv("CAUSEWAY_CATALOG_PATH", "")
	t.Setenv("CAUSEWAY_SNAPSHOT_PATH", "")
	t.Setenv("CAUSEWAY_GENERATION_TIMEOUT", "")
	t.Setenv("CAUSEWAY_INDEX_WORKERS", "")
	t.Setenv("CAUSEWAY_SEED_ON_EMPTY", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	defaults := DefaultConfig()
	if cfg != defaults {
		t.Fatalf("LoadConfig defaults mismatch: %#v", cfg)
	}
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("CAUSEWAY_ARCHIVE_PATH", "/tmp/orgs.jsonl")
	t.Setenv("CAUSEWAY_CATALOG_PATH", "/tmp/catalog.db")
	t.Setenv("CAUSEWAY_SNAPSHOT_PATH", "/tmp/index.db")
	t.Setenv("CAUSEWAY_GENERATION_TIMEOUT", "45s")
	t.Setenv("CAUSEWAY_INDEX_WORKERS", "3")
	t.Setenv("CAUSEWAY_SEED_ON_EMPTY", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ArchivePath != "/tmp/orgs.jsonl" {
		t.Errorf("ArchivePath = %q", cfg.ArchivePath)
	}
	if cfg.SQLitePath != "/tmp/catalog.db" {
		t.Errorf("SQLitePath = %q", cfg.SQLitePath)
	}
	if cfg.SnapshotPath != "/tmp/index.db" {
		t.Errorf("SnapshotPath = %q", cfg.SnapshotPath)
	}
	if cfg.GenerationTimeout != 45*time.Second {
		t.Errorf("GenerationTimeout = %v", cfg.GenerationTimeout)
	}
	if cfg.IndexWorkers != 3 {
		t.Errorf("IndexWorkers = %d", cfg.IndexWorkers)
	}
	if !cfg.SeedOnEmpty {
		t.Error("SeedOnEmpty not applied")
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("CAUSEWAY_GENERATION_TIMEOUT", "soon")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for bad generation timeout")
	}
	t.Setenv("CAUSEWAY_GENERATION_TIMEOUT", "")
	t.Setenv("CAUSEWAY_SEED_ON_EMPTY", "maybe")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for bad seed flag")
	}
}

func TestNewInitializesComponents(t *testing.T) {
	orch := newTestOrchestrator(t, Config{})

	if orch.Archive() == nil {
		t.Fatal("archive store not initialised")
	}
	if orch.Catalog() == nil {
		t.Fatal("catalog store not initialised")
	}
	if orch.Index() == nil {
		t.Fatal("index manager not initialised")
	}
	if orch.Engine() == nil {
		t.Fatal("engine not initialised")
	}
	if orch.Ingest() == nil {
		t.Fatal("ingest manager not initialised")
	}
	if orch.Provider() == nil || orch.Provider().Name() != "stub" {
		t.Fatalf("provider override not applied: %v", orch.Provider())
	}
}

func TestNewReportsStoreFailures(t *testing.T) {
	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg := Config{
		ArchivePath:  filepath.Join(blocked, "orgs.jsonl"),
		SQLitePath:   filepath.Join(dir, "catalog.db"),
		SnapshotPath: filepath.Join(dir, "index.db"),
	}
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatal("expected error when archive directory cannot be created")
	}
}

func TestBootstrapSeedsEmptyCatalog(t *testing.T) {
	ctx := context.Background()
	orch := newTestOrchestrator(t, Config{SeedOnEmpty: true})

	if err := orch.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	count, err := orch.Catalog().Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 60 {
		t.Fatalf("expected 60 seeded records, got %d", count)
	}
	archived, err := orch.Archive().All(ctx)
	if err != nil {
		t.Fatalf("archive All: %v", err)
	}
	if len(archived) != 60 {
		t.Fatalf("expected 60 archived records, got %d", len(archived))
	}
	status := orch.Index().Status()
	if !status.Ready || status.Documents != 60 {
		t.Fatalf("index not built over seed corpus: %+v", status)
	}
	audits, err := orch.Catalog().RecentIngests(ctx, 5)
	if err != nil {
		t.Fatalf("RecentIngests: %v", err)
	}
	if len(audits) != 1 || audits[0].Source != "archive_sync" {
		t.Fatalf("expected one archive_sync audit, got %+v", audits)
	}
	if audits[0].Created != 60 {
		t.Fatalf("audit created = %d", audits[0].Created)
	}

	// A second bootstrap finds a populated catalog and leaves it alone.
	if err := orch.Bootstrap(ctx); err != nil {
		t.Fatalf("second Bootstrap: %v", err)
	}
	count, err = orch.Catalog().Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 60 {
		t.Fatalf("second bootstrap changed catalog: %d records", count)
	}
}

func TestBootstrapRespectsSeedFlag(t *testing.T) {
	ctx := context.Background()
	orch := newTestOrchestrator(t, Config{SeedOnEmpty: false})

	if err := orch.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	count, err := orch.Catalog().Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Fatalf("catalog seeded despite disabled flag: %d records", count)
	}
	if orch.Index().Ready() {
		t.Fatal("index built with nothing to index")
	}
}

func TestBootstrapReplaysExistingArchive(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := Config{
		ArchivePath:  filepath.Join(dir, "orgs.jsonl"),
		SQLitePath:   filepath.Join(dir, "catalog.db"),
		SnapshotPath: filepath.Join(dir, "index.db"),
		SeedOnEmpty:  true,
	}

	first := newTestOrchestratorWithConfig(t, cfg)
	if err := first.Bootstrap(ctx); err != nil {
		t.Fatalf("first Bootstrap: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Remove the catalog but keep the archive; a fresh orchestrator rebuilds
	// the catalog from the records on disk rather than the bundled sample.
	fresh := cfg
	fresh.SQLitePath = filepath.Join(dir, "catalog2.db")
	second := newTestOrchestratorWithConfig(t, fresh)
	if err := second.Bootstrap(ctx); err != nil {
		t.Fatalf("second Bootstrap: %v", err)
	}
	count, err := second.Catalog().Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 60 {
		t.Fatalf("expected 60 replayed records, got %d", count)
	}
}

func TestCloseIsIdempotentOnNil(t *testing.T) {
	var orch *Orchestrator
	if err := orch.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
	if orch.Engine() != nil || orch.Catalog() != nil {
		t.Fatal("nil orchestrator accessors should return nil")
	}
}

func newTestOrchestrator(t *testing.T, cfg Config) *Orchestrator {
	t.Helper()
	dir := t.TempDir()
	if cfg.ArchivePath == "" {
		cfg.ArchivePath = filepath.Join(dir, "orgs.jsonl")
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = filepath.Join(dir, "catalog.db")
	}
	if cfg.SnapshotPath == "" {
		cfg.SnapshotPath = filepath.Join(dir, "index.db")
	}
	return newTestOrchestratorWithConfig(t, cfg)
}

func newTestOrchestratorWithConfig(t *testing.T, cfg Config) *Orchestrator {
	t.Helper()
	orch, err := New(context.Background(), cfg, WithProvider(&stubProvider{reply: "ok"}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = orch.Close() })
	return orch
}

type stubProvider struct {
	reply string
}

func (s *stubProvider) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	return s.reply, nil
}

func (s *stubProvider) Name() string { return "stub" }
