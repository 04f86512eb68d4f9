// File path: internal/index/manager_test.go
package index

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/causewaylabs/causeway/internal/corpus"
)

type stubSource struct {
	mu      sync.Mutex
	records []corpus.Organization
	calls   int
	err     error
}

func (s *stubSource) Corpus(ctx context.Context) ([]corpus.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]corpus.Organization, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *stubSource) set(records []corpus.Organization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
}

type stubStore struct {
	mu      sync.Mutex
	saves   int
	saved   *Index
	loadIdx *Index
	loadErr error
}

func (s *stubStore) Save(ctx context.Context, idx *Index) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.saved = idx
	return nil
}

func (s *stubStore) Load(ctx context.Context) (*Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadIdx, s.loadErr
}

func TestEnsureRebuildIdempotence(t *testing.T) {
	source := &stubSource{records: fixtureCorpus()}
	store := &stubStore{}
	m := NewManager(source, WithSnapshots(store))

	rebuilt, err := m.Ensure(context.Background(), false)
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	if !rebuilt {
		t.Fatalf("first ensure should rebuild")
	}
	rebuilt, err = m.Ensure(context.Background(), false)
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if rebuilt {
		t.Fatalf("second ensure with unchanged corpus should not rebuild")
	}
	if store.saves != 1 {
		t.Fatalf("expected exactly one snapshot save, got %d", store.saves)
	}
}

func TestEnsureIgnoresEqualCountEdits(t *testing.T) {
	source := &stubSource{records: fixtureCorpus()}
	m := NewManager(source)
	if _, err := m.Ensure(context.Background(), false); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	edited := fixtureCorpus()
	edited[0].Mission = "Completely rewritten mission statement"
	source.set(edited)

	rebuilt, err := m.Ensure(context.Background(), false)
	if err != nil {
		t.Fatalf("ensure after edit: %v", err)
	}
	if rebuilt {
		t.Fatalf("equal-count content edit must not trigger a rebuild")
	}

	rebuilt, err = m.Ensure(context.Background(), true)
	if err != nil {
		t.Fatalf("forced ensure: %v", err)
	}
	if !rebuilt {
		t.Fatalf("force should always rebuild")
	}
	if got := m.Current().Records[0].Mission; got != edited[0].Mission {
		t.Fatalf("forced rebuild should pick up the edit, got %q", got)
	}
}

func TestEnsureRebuildOnCountChange(t *testing.T) {
	source := &stubSource{records: fixtureCorpus()}
	m := NewManager(source)
	if _, err := m.Ensure(context.Background(), false); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	grown := append(fixtureCorpus(), orgFixture("01-0000009", "New Arrival", "Recently added"))
	source.set(grown)

	rebuilt, err := m.Ensure(context.Background(), false)
	if err != nil {
		t.Fatalf("ensure after growth: %v", err)
	}
	if !rebuilt {
		t.Fatalf("count change should trigger a rebuild")
	}
	if got := m.Status().Documents; got != len(grown) {
		t.Fatalf("documents = %d, want %d", got, len(grown))
	}
}

func TestEnsureEmptyCorpusFails(t *testing.T) {
	source := &stubSource{}
	m := NewManager(source)
	_, err := m.Ensure(context.Background(), false)
	if !errors.Is(err, ErrBuildFailure) {
		t.Fatalf("empty corpus ensure should surface build failure, got %v", err)
	}
	if m.Ready() {
		t.Fatalf("failed build must not install an index")
	}
}

func TestEnsureSourceErrorKeepsIndex(t *testing.T) {
	source := &stubSource{records: fixtureCorpus()}
	m := NewManager(source)
	if _, err := m.Ensure(context.Background(), false); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	before := m.Current()

	source.mu.Lock()
	source.err = errors.New("catalog offline")
	source.mu.Unlock()

	if _, err := m.Ensure(context.Background(), true); err == nil {
		t.Fatalf("expected error when corpus load fails")
	}
	if m.Current() != before {
		t.Fatalf("failed corpus load must leave the previous index installed")
	}
}

func TestRestoreFromStore(t *testing.T) {
	idx, err := Build(fixtureCorpus(), BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	m := NewManager(&stubSource{records: fixtureCorpus()}, WithSnapshots(&stubStore{loadIdx: idx}))
	if !m.Restore(context.Background()) {
		t.Fatalf("restore should install the stored snapshot")
	}
	if got := m.Status().Documents; got != len(fixtureCorpus()) {
		t.Fatalf("restored documents = %d", got)
	}

	rebuilt, err := m.Ensure(context.Background(), false)
	if err != nil {
		t.Fatalf("ensure after restore: %v", err)
	}
	if rebuilt {
		t.Fatalf("matching stored count should not rebuild")
	}
}

func TestRestoreTreatsErrorAsAbsent(t *testing.T) {
	m := NewManager(&stubSource{}, WithSnapshots(&stubStore{loadErr: errors.New("checksum mismatch")}))
	if m.Restore(context.Background()) {
		t.Fatalf("unreadable snapshot should be treated as absent")
	}
	if m.Ready() {
		t.Fatalf("manager should stay empty after failed restore")
	}
}

func TestManagerSearchWithoutIndex(t *testing.T) {
	m := NewManager(&stubSource{})
	if results := m.Search("anything", 5); len(results) != 0 {
		t.Fatalf("search without index should be empty, got %d results", len(results))
	}
	if m.Records() != nil {
		t.Fatalf("records without index should be nil")
	}
}
