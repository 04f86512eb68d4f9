// File path: internal/snapshot/store.go
package snapshot

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"go.etcd.io/bbolt"

	"github.com/causewaylabs/causeway/internal/corpus"
	"github.com/causewaylabs/causeway/internal/index"
)

// ErrCorrupt marks a stored snapshot that fails validation. Callers treat it
// as "no snapshot"; it never aborts startup.
var ErrCorrupt = errors.New("snapshot corrupt")

var (
	bucketVocabulary = []byte("vocabulary")
	bucketVectors    = []byte("vectors")
	bucketRecords    = []byte("records")
	bucketMeta       = []byte("meta")

	metaKey = []byte("build")
)

type metaRecord struct {
	DocumentCount  int       `json:"document_count"`
	VocabularySize int       `json:"vocabulary_size"`
	BuiltAt        time.Time `json:"built_at"`
}

// Store persists one index snapshot in a single bbolt file. Save replaces
// the stored snapshot inside one write transaction, so a reader sees either
// the old build or the new one in full.
type Store struct {
	db   *bbolt.DB
	path string
}

// Open opens (creating if needed) the snapshot file at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close releases the backing file.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save writes the full snapshot: vocabulary table, packed vector rows, the
// aligned record list, and build metadata. The previous contents are dropped
// in the same transaction.
func (s *Store) Save(ctx context.Context, idx *index.Index) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("snapshot: store not open")
	}
	if idx == nil {
		return fmt.Errorf("snapshot: nil index")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketVocabulary, bucketVectors, bucketRecords, bucketMeta} {
			if tx.Bucket(name) != nil {
				if err := tx.DeleteBucket(name); err != nil {
					return fmt.Errorf("reset bucket %s: %w", name, err)
				}
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}

		vocabBucket := tx.Bucket(bucketVocabulary)
		for term, info := range idx.Vocabulary.Terms {
			data, err := json.Marshal(info)
			if err != nil {
				return fmt.Errorf("encode term %q: %w", term, err)
			}
			if err := vocabBucket.Put([]byte(term), data); err != nil {
				return fmt.Errorf("store term %q: %w", term, err)
			}
		}

		vectorBucket := tx.Bucket(bucketVectors)
		for row, vec := range idx.Vectors {
			if err := vectorBucket.Put(rowKey(row), packVector(vec)); err != nil {
				return fmt.Errorf("store vector %d: %w", row, err)
			}
		}

		recordBucket := tx.Bucket(bucketRecords)
		for row, org := range idx.Records {
			data, err := json.Marshal(org)
			if err != nil {
				return fmt.Errorf("encode record %d: %w", row, err)
			}
			if err := recordBucket.Put(rowKey(row), data); err != nil {
				return fmt.Errorf("store record %d: %w", row, err)
			}
		}

		meta := metaRecord{
			DocumentCount:  idx.Meta.DocumentCount,
			VocabularySize: idx.Vocabulary.Size(),
			BuiltAt:        idx.Meta.BuiltAt,
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("encode meta: %w", err)
		}
		return tx.Bucket(bucketMeta).Put(metaKey, data)
	})
}

// Load reads the stored snapshot. It returns (nil, nil) when nothing has ever
// been saved and ErrCorrupt when the stored artifacts disagree with their
// metadata; a partial snapshot is never returned.
func (s *Store) Load(ctx context.Context) (*index.Index, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("snapshot: store not open")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var loaded *index.Index
	err := s.db.View(func(tx *bbolt.Tx) error {
		metaBucket := tx.Bucket(bucketMeta)
		if metaBucket == nil {
			return nil
		}
		rawMeta := metaBucket.Get(metaKey)
		if rawMeta == nil {
			return nil
		}
		var meta metaRecord
		if err := json.Unmarshal(rawMeta, &meta); err != nil {
			return fmt.Errorf("%w: meta: %v", ErrCorrupt, err)
		}
		if meta.DocumentCount < 0 || meta.VocabularySize < 0 {
			return fmt.Errorf("%w: negative counts in meta", ErrCorrupt)
		}

		vocab, err := loadVocabulary(tx, meta)
		if err != nil {
			return err
		}
		vectors, err := loadVectors(tx, meta)
		if err != nil {
			return err
		}
		records, err := loadRecords(tx, meta)
		if err != nil {
			return err
		}

		loaded = &index.Index{
			Vocabulary: vocab,
			Vectors:    vectors,
			Records:    records,
			Meta: index.BuildMeta{
				DocumentCount: meta.DocumentCount,
				BuiltAt:       meta.BuiltAt,
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loaded, nil
}

func loadVocabulary(tx *bbolt.Tx, meta metaRecord) (index.Vocabulary, error) {
	vocab := index.Vocabulary{
		Terms:    make(map[string]index.TermInfo, meta.VocabularySize),
		DocCount: meta.DocumentCount,
	}
	bucket := tx.Bucket(bucketVocabulary)
	if bucket == nil {
		return vocab, fmt.Errorf("%w: vocabulary bucket missing", ErrCorrupt)
	}
	seen := make(map[int]struct{}, meta.VocabularySize)
	err := bucket.ForEach(func(k, v []byte) error {
		var info index.TermInfo
		if err := json.Unmarshal(v, &info); err != nil {
			return fmt.Errorf("%w: term %q: %v", ErrCorrupt, k, err)
		}
		if info.Column < 0 || info.Column >= meta.VocabularySize {
			return fmt.Errorf("%w: term %q column %d outside vocabulary", ErrCorrupt, k, info.Column)
		}
		if _, dup := seen[info.Column]; dup {
			return fmt.Errorf("%w: duplicate column %d", ErrCorrupt, info.Column)
		}
		seen[info.Column] = struct{}{}
		vocab.Terms[string(k)] = info
		return nil
	})
	if err != nil {
		return vocab, err
	}
	if len(vocab.Terms) != meta.VocabularySize {
		return vocab, fmt.Errorf("%w: %d terms stored, meta says %d", ErrCorrupt, len(vocab.Terms), meta.VocabularySize)
	}
	return vocab, nil
}

func loadVectors(tx *bbolt.Tx, meta metaRecord) ([][]float64, error) {
	bucket := tx.Bucket(bucketVectors)
	if bucket == nil {
		return nil, fmt.Errorf("%w: vectors bucket missing", ErrCorrupt)
	}
	vectors := make([][]float64, meta.DocumentCount)
	count := 0
	err := bucket.ForEach(func(k, v []byte) error {
		row, err := parseRowKey(k)
		if err != nil {
			return err
		}
		if row < 0 || row >= meta.DocumentCount {
			return fmt.Errorf("%w: vector row %d outside corpus", ErrCorrupt, row)
		}
		if len(v) != meta.VocabularySize*8 {
			return fmt.Errorf("%w: vector row %d has %d bytes, want %d", ErrCorrupt, row, len(v), meta.VocabularySize*8)
		}
		vectors[row] = unpackVector(v)
		count++
		return nil
	})
	if err != nil {
		return nil, err
	}
	if count != meta.DocumentCount {
		return nil, fmt.Errorf("%w: %d vector rows stored, meta says %d", ErrCorrupt, count, meta.DocumentCount)
	}
	return vectors, nil
}

func loadRecords(tx *bbolt.Tx, meta metaRecord) ([]corpus.Organization, error) {
	bucket := tx.Bucket(bucketRecords)
	if bucket == nil {
		return nil, fmt.Errorf("%w: records bucket missing", ErrCorrupt)
	}
	records := make([]corpus.Organization, meta.DocumentCount)
	count := 0
	err := bucket.ForEach(func(k, v []byte) error {
		row, err := parseRowKey(k)
		if err != nil {
			return err
		}
		if row < 0 || row >= meta.DocumentCount {
			return fmt.Errorf("%w: record row %d outside corpus", ErrCorrupt, row)
		}
		var org corpus.Organization
		if err := json.Unmarshal(v, &org); err != nil {
			return fmt.Errorf("%w: record row %d: %v", ErrCorrupt, row, err)
		}
		records[row] = org
		count++
		return nil
	})
	if err != nil {
		return nil, err
	}
	if count != meta.DocumentCount {
		return nil, fmt.Errorf("%w: %d records stored, meta says %d", ErrCorrupt, count, meta.DocumentCount)
	}
	return records, nil
}

func rowKey(row int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(row))
	return key
}

func parseRowKey(k []byte) (int, error) {
	if len(k) != 8 {
		return 0, fmt.Errorf("%w: row key %x", ErrCorrupt, k)
	}
	return int(binary.BigEndian.Uint64(k)), nil
}

func packVector(vec []float64) []byte {
	buf := make([]byte, 8*len(vec))
	for i, v := range vec {
		binary.BigEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func unpackVector(buf []byte) []float64 {
	vec := make([]float64, len(buf)/8)
	for i := range vec {
		vec[i] = math.Float64frombits(binary.BigEndian.Uint64(buf[i*8:]))
	}
	return vec
}
