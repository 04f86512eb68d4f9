// File path: internal/archive/store_test.go
package archive

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/causewaylabs/causeway/internal/corpus"
)

func TestReplaceOverwritesExistingContent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "organizations.jsonl"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	initial := []corpus.Organization{{EIN: "74-0000001", Name: "Initial Org"}}
	if err := store.Append(ctx, initial); err != nil {
		t.Fatalf("append: %v", err)
	}
	replacement := []corpus.Organization{{EIN: "74-0000002", Name: "Replacement Org"}}
	if err := store.Replace(ctx, replacement); err != nil {
		t.Fatalf("replace: %v", err)
	}
	orgs, err := store.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(orgs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(orgs))
	}
	if orgs[0].EIN != "74-0000002" || orgs[0].Name != "Replacement Org" {
		t.Fatalf("unexpected record: %+v", orgs[0])
	}
}

func TestReplaceClearsArchiveWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "organizations.jsonl"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if err := store.Append(ctx, []corpus.Organization{{EIN: "74-0000001", Name: "Initial Org"}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Replace(ctx, nil); err != nil {
		t.Fatalf("replace: %v", err)
	}
	orgs, err := store.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(orgs) != 0 {
		t.Fatalf("expected empty archive, got %d records", len(orgs))
	}
}

func TestAllMissingFileYieldsNoRecords(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "organizations.jsonl"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	orgs, err := store.All(context.Background())
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(orgs) != 0 {
		t.Fatalf("expected no records, got %d", len(orgs))
	}
}

func TestAllSkipsBlankLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "organizations.jsonl")
	content := `{"ein":"74-0000001","name":"First Org"}

{"ein":"74-0000002","name":"Second Org"}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	orgs, err := store.All(context.Background())
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(orgs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(orgs))
	}
	if orgs[0].EIN != "74-0000001" || orgs[1].EIN != "74-0000002" {
		t.Fatalf("unexpected records: %+v", orgs)
	}
}

func TestAllHandlesLargeRecords(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "organizations.jsonl"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	mission := strings.Repeat("feeding families across the region ", 1<<12)
	org := corpus.Organization{EIN: "74-0000009", Name: "Large Mission Org", Mission: mission}
	if len(org.Mission) <= 64<<10 {
		t.Fatalf("mission too small for test: %d bytes", len(org.Mission))
	}
	if err := store.Append(ctx, []corpus.Organization{org}); err != nil {
		t.Fatalf("append: %v", err)
	}
	orgs, err := store.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(orgs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(orgs))
	}
	if orgs[0].Mission != mission {
		t.Fatalf("mission mismatch after round trip")
	}
}
