// File path: internal/archive/store.go
package archive

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/causewaylabs/causeway/internal/corpus"
)

// Store is a line-delimited JSON archive of organization records. It backs
// seeding and export and can stand in for the catalog as a corpus source.
type Store struct {
	path string
	mu   sync.RWMutex
}

// NewStore opens (creating parent directories if needed) the archive at path.
func NewStore(path string) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, errors.New("archive path required")
	}
	if dir := filepath.Dir(trimmed); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
	}
	return &Store{path: trimmed}, nil
}

// Path returns the underlying file used for persistence.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Append writes the given records to the end of the archive.
func (s *Store) Append(ctx context.Context, orgs []corpus.Organization) error {
	if s == nil {
		return errors.New("archive not initialised")
	}
	if len(orgs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()
	return encodeRecords(ctx, file, orgs)
}

// Replace overwrites the archive contents with the provided records.
func (s *Store) Replace(ctx context.Context, orgs []corpus.Organization) error {
	if s == nil {
		return errors.New("archive not initialised")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	file, err := os.OpenFile(s.path, os.O_TRUNC|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()
	if len(orgs) == 0 {
		return nil
	}
	return encodeRecords(ctx, file, orgs)
}

// All reads every record in the archive. A missing file yields no records and
// no error; blank lines are skipped.
func (s *Store) All(ctx context.Context) ([]corpus.Organization, error) {
	if s == nil {
		return nil, errors.New("archive not initialised")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64<<10), 8<<20)
	var orgs []corpus.Organization
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var org corpus.Organization
		if err := json.Unmarshal(line, &org); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		orgs = append(orgs, org)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}
	return orgs, nil
}

func encodeRecords(ctx context.Context, file *os.File, orgs []corpus.Organization) error {
	enc := json.NewEncoder(file)
	for _, org := range orgs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := enc.Encode(org); err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
	}
	return nil
}
