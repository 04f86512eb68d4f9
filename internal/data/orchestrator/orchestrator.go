// File path: internal/data/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/causewaylabs/causeway/internal/archive"
	"github.com/causewaylabs/causeway/internal/catalog"
	"github.com/causewaylabs/causeway/internal/common"
	"github.com/causewaylabs/causeway/internal/corpus"
	"github.com/causewaylabs/causeway/internal/engine"
	"github.com/causewaylabs/causeway/internal/index"
	"github.com/causewaylabs/causeway/internal/ingest"
	"github.com/causewaylabs/causeway/internal/llm"
	"github.com/causewaylabs/causeway/internal/snapshot"
	"github.com/causewaylabs/causeway/internal/sqlite"
)

type closer interface {
	Close() error
}

// catalogSource adapts the catalog to the corpus source the index rebuilds
// from. The catalog orders records by EIN, so rebuilds are deterministic.
type catalogSource struct {
	store catalog.Store
}

func (s catalogSource) Corpus(ctx context.Context) ([]corpus.Organization, error) {
	return s.store.All(ctx)
}

// Orchestrator wires together the persistent stores, the search index, the
// answer engine, and the ingest manager behind the causeway server, and
// exposes convenience accessors for the API layer.
type Orchestrator struct {
	cfg Config

	archive  *archive.Store
	catalog  *sqlite.Store
	snapshot *snapshot.Store
	provider llm.Provider
	index    *index.Manager
	engine   *engine.Engine
	ingest   *ingest.Manager

	closers []closer
}

// New constructs an orchestrator from the provided configuration and optional
// overrides.
func New(ctx context.Context, cfg Config, opts ...Option) (*Orchestrator, error) {
	cfg = applyDefaults(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	settings := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&settings)
		}
	}

	arc, err := archive.NewStore(cfg.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("init archive store: %w", err)
	}
	cat, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("init catalog store: %w", err)
	}
	snap, err := snapshot.Open(cfg.SnapshotPath)
	if err != nil {
		cat.Close()
		return nil, fmt.Errorf("init snapshot store: %w", err)
	}

	provider := settings.provider
	if provider == nil {
		provider = llm.NewProvider()
	}

	idx := index.NewManager(
		catalogSource{store: cat},
		index.WithSnapshots(snap),
		index.WithBuildOptions(index.BuildOptions{Workers: cfg.IndexWorkers}),
	)
	eng := engine.New(idx, provider, engine.Options{GenerationTimeout: cfg.GenerationTimeout})
	ing := ingest.NewManager(cat, arc, idx)

	orch := &Orchestrator{
		cfg:      cfg,
		archive:  arc,
		catalog:  cat,
		snapshot: snap,
		provider: provider,
		index:    idx,
		engine:   eng,
		ingest:   ing,
	}
	orch.closers = append(orch.closers, cat, snap)
	return orch, nil
}

// Bootstrap prepares the orchestrator for serving: it restores the persisted
// index snapshot when one exists, seeds an empty catalog when configured to,
// and brings the index in line with the catalog. With nothing to index the
// build is deferred until an ingest supplies records; the engine degrades to
// its no-data answer until then.
func (o *Orchestrator) Bootstrap(ctx context.Context) error {
	o.index.Restore(ctx)
	count, err := o.catalog.Count(ctx)
	if err != nil {
		return fmt.Errorf("count catalog: %w", err)
	}
	if count == 0 && o.cfg.SeedOnEmpty {
		if err := o.seed(ctx); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		count, err = o.catalog.Count(ctx)
		if err != nil {
			return fmt.Errorf("count catalog: %w", err)
		}
	}
	if count == 0 {
		common.Logger().Info("orchestrator: catalog empty, index build deferred")
		return nil
	}
	if _, err := o.index.Ensure(ctx, false); err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	return nil
}

// seed fills an empty archive with the bundled sample corpus, then replays
// the archive into the catalog. When the archive already holds records the
// sample step is skipped and the catalog is rebuilt from what is on disk.
func (o *Orchestrator) seed(ctx context.Context) error {
	logger := common.Logger()
	existing, err := o.archive.All(ctx)
	if err != nil {
		return fmt.Errorf("read archive: %w", err)
	}
	if len(existing) == 0 {
		if err := o.archive.Replace(ctx, ingest.SampleOrganizations()); err != nil {
			return fmt.Errorf("write sample archive: %w", err)
		}
		logger.Info("orchestrator: archive seeded with sample records")
	}
	created, updated, err := o.catalog.SyncFromArchive(ctx, o.archive, uuid.NewString())
	if err != nil {
		return fmt.Errorf("sync catalog: %w", err)
	}
	logger.Info("orchestrator: catalog seeded from archive", "created", created, "updated", updated)
	return nil
}

// Archive exposes the JSONL organization archive.
func (o *Orchestrator) Archive() *archive.Store {
	if o == nil {
		return nil
	}
	return o.archive
}

// Catalog exposes the relational catalog interface.
func (o *Orchestrator) Catalog() catalog.Store {
	if o == nil {
		return nil
	}
	return o.catalog
}

// Index exposes the search index manager.
func (o *Orchestrator) Index() *index.Manager {
	if o == nil {
		return nil
	}
	return o.index
}

// Engine exposes the retrieval and generation engine.
func (o *Orchestrator) Engine() *engine.Engine {
	if o == nil {
		return nil
	}
	return o.engine
}

// Ingest exposes the ingest job manager.
func (o *Orchestrator) Ingest() *ingest.Manager {
	if o == nil {
		return nil
	}
	return o.ingest
}

// Provider exposes the configured generation provider.
func (o *Orchestrator) Provider() llm.Provider {
	if o == nil {
		return nil
	}
	return o.provider
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config {
	if o == nil {
		return Config{}
	}
	return o.cfg
}

// Close releases any resources associated with the orchestrator.
func (o *Orchestrator) Close() error {
	if o == nil {
		return nil
	}
	var err error
	for i := len(o.closers) - 1; i >= 0; i-- {
		closer := o.closers[i]
		if closer == nil {
			continue
		}
		if cerr := closer.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	return err
}
