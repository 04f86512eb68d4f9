// File path: internal/index/manager.go
package index

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/causewaylabs/causeway/internal/common"
	"github.com/causewaylabs/causeway/internal/common/telemetry"
	"github.com/causewaylabs/causeway/internal/corpus"
)

// CorpusSource supplies the ordered record sequence a rebuild indexes.
type CorpusSource interface {
	Corpus(ctx context.Context) ([]corpus.Organization, error)
}

// SnapshotStore persists one index as a unit. Load returns (nil, nil) when no
// snapshot exists and an error when the stored one cannot be trusted.
type SnapshotStore interface {
	Save(ctx context.Context, idx *Index) error
	Load(ctx context.Context) (*Index, error)
}

// Status summarizes the currently installed index.
type Status struct {
	Ready          bool      `json:"ready"`
	Documents      int       `json:"documents"`
	VocabularySize int       `json:"vocabulary"`
	BuiltAt        time.Time `json:"built_at"`
}

// Manager owns the swappable index reference. Searches read the current
// pointer without locking; rebuilds construct a fresh Index off to the side,
// install it with one atomic store, and are serialized among themselves by
// buildMu. Readers and the rebuilder never wait on each other.
type Manager struct {
	source CorpusSource
	store  SnapshotStore
	opts   BuildOptions

	current atomic.Pointer[Index]
	buildMu sync.Mutex
}

// ManagerOption configures a Manager at construction.
type ManagerOption func(*Manager)

// WithSnapshots attaches a durable snapshot store to the manager.
func WithSnapshots(store SnapshotStore) ManagerOption {
	return func(m *Manager) { m.store = store }
}

// WithBuildOptions overrides the default build tuning.
func WithBuildOptions(opts BuildOptions) ManagerOption {
	return func(m *Manager) { m.opts = opts }
}

// NewManager builds a manager over the given corpus source. No index is
// installed until Restore or Ensure succeeds.
func NewManager(source CorpusSource, opts ...ManagerOption) *Manager {
	m := &Manager{source: source}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Restore installs the persisted snapshot when one exists. A missing or
// unreadable snapshot is logged and treated as absent; startup never fails
// here.
func (m *Manager) Restore(ctx context.Context) bool {
	logger := common.Logger()
	if m.store == nil {
		return false
	}
	idx, err := m.store.Load(ctx)
	if err != nil {
		logger.Warn("index: stored snapshot unusable, treating as absent", "error", err)
		return false
	}
	if idx == nil {
		logger.Debug("index: no stored snapshot")
		return false
	}
	m.current.Store(idx)
	logger.Info("index: snapshot restored",
		"documents", idx.Meta.DocumentCount,
		"vocabulary", idx.Vocabulary.Size(),
		"built_at", idx.Meta.BuiltAt)
	return true
}

// Ensure rebuilds when the count heuristic demands it, or unconditionally
// when force is set. The heuristic: rebuild iff no index is installed, the
// installed document count is zero, or the incoming corpus size differs from
// it. Content edits that keep the count equal do NOT trigger a rebuild; that
// is long-standing observable behavior, and force exists as the stronger
// trigger. Returns whether a rebuild ran.
func (m *Manager) Ensure(ctx context.Context, force bool) (bool, error) {
	m.buildMu.Lock()
	defer m.buildMu.Unlock()

	logger := common.Logger()
	if m.source == nil {
		return false, fmt.Errorf("index: no corpus source configured")
	}
	records, err := m.source.Corpus(ctx)
	if err != nil {
		return false, fmt.Errorf("index: load corpus: %w", err)
	}
	if !force && !m.needsRebuild(len(records)) {
		logger.Debug("index: rebuild not needed", "documents", len(records))
		return false, nil
	}
	if err := telemetry.CheckMemoryBudget("index-build"); err != nil {
		return false, fmt.Errorf("index: rebuild refused: %w", err)
	}

	start := time.Now()
	idx, err := Build(records, m.opts)
	if err != nil {
		return false, err
	}
	m.current.Store(idx)
	telemetry.RecordIndexBuild(len(records), time.Since(start))
	logger.Info("index: rebuilt",
		"documents", idx.Meta.DocumentCount,
		"vocabulary", idx.Vocabulary.Size(),
		"duration", time.Since(start),
		"forced", force)

	if m.store != nil {
		if err := m.store.Save(ctx, idx); err != nil {
			// The fresh index already serves; the previous snapshot stays on
			// disk until a later save succeeds.
			telemetry.RecordSnapshotFailure()
			logger.Warn("index: snapshot save failed", "error", err)
		}
	}
	return true, nil
}

func (m *Manager) needsRebuild(incoming int) bool {
	cur := m.current.Load()
	if cur == nil {
		return true
	}
	if cur.Meta.DocumentCount == 0 {
		return true
	}
	return incoming != cur.Meta.DocumentCount
}

// Search runs a similarity query against the current index. With no index
// installed it returns an empty list.
func (m *Manager) Search(query string, k int) []Result {
	telemetry.RecordSearch()
	return m.current.Load().Search(query, k)
}

// Records returns a copy of the indexed corpus, or nil when no index is
// installed.
func (m *Manager) Records() []corpus.Organization {
	idx := m.current.Load()
	if idx == nil {
		return nil
	}
	out := make([]corpus.Organization, len(idx.Records))
	copy(out, idx.Records)
	return out
}

// Current exposes the installed index; callers must treat it as read-only.
func (m *Manager) Current() *Index {
	if m == nil {
		return nil
	}
	return m.current.Load()
}

// Ready reports whether any index is installed.
func (m *Manager) Ready() bool {
	return m.Current() != nil
}

// Status reports the installed index's vital numbers for the API surface.
func (m *Manager) Status() Status {
	idx := m.Current()
	if idx == nil {
		return Status{}
	}
	return Status{
		Ready:          true,
		Documents:      idx.Meta.DocumentCount,
		VocabularySize: idx.Vocabulary.Size(),
		BuiltAt:        idx.Meta.BuiltAt,
	}
}
