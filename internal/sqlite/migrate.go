// File path: internal/sqlite/migrate.go
package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/causewaylabs/causeway/internal/archive"
	"github.com/causewaylabs/causeway/internal/catalog"
	"github.com/causewaylabs/causeway/internal/corpus"
)

// SyncFromArchive loads every record in the JSONL archive into the catalog,
// rebuilds the derived document chunks, and records an audit row. This is the
// bootstrap path for an empty database.
func (s *Store) SyncFromArchive(ctx context.Context, arc *archive.Store, batchID string) (int, int, error) {
	if s == nil || s.db == nil {
		return 0, 0, errors.New("sqlite store not initialised")
	}
	if arc == nil {
		return 0, 0, errors.New("archive not provided")
	}
	orgs, err := arc.All(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("load archive records: %w", err)
	}
	created, updated, err := s.BatchUpsert(ctx, orgs)
	if err != nil {
		return 0, 0, err
	}
	var chunks []corpus.DocumentChunk
	for _, org := range orgs {
		chunks = append(chunks, corpus.BuildChunks(org)...)
	}
	if _, err := s.InsertChunks(ctx, chunks); err != nil {
		return 0, 0, err
	}
	err = withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return recordIngest(ctx, tx, catalog.IngestAudit{
			BatchID: batchID,
			Source:  "archive_sync",
			Created: created,
			Updated: updated,
			Detail:  fmt.Sprintf("synced %d records", len(orgs)),
		})
	})
	if err != nil {
		return 0, 0, err
	}
	return created, updated, nil
}
