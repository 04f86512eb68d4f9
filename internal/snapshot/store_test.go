// File path: internal/snapshot/store_test.go
package snapshot

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/causewaylabs/causeway/internal/corpus"
	"github.com/causewaylabs/causeway/internal/index"
)

func testIndex(t *testing.T) *index.Index {
	t.Helper()
	records := []corpus.Organization{
		{EIN: "74-0000001", Name: "Houston Food Bank", Mission: "Food distribution for hungry families", City: "Houston", State: "TX"},
		{EIN: "74-0000002", Name: "Coastal Shelter Alliance", Mission: "Emergency shelter and housing support", City: "Houston", State: "TX"},
		{EIN: "74-0000003", Name: "Bayou Literacy Project", Mission: "Reading programs for children", City: "Houston", State: "TX"},
	}
	idx, err := index.Build(records, index.BuildOptions{})
	require.NoError(t, err)
	return idx
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestLoadAbsent(t *testing.T) {
	store := openTestStore(t)
	idx, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, idx, "fresh store should report no snapshot")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := openTestStore(t)
	built := testIndex(t)
	require.NoError(t, store.Save(context.Background(), built))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, built.Meta.DocumentCount, loaded.Meta.DocumentCount)
	assert.True(t, built.Meta.BuiltAt.Equal(loaded.Meta.BuiltAt), "build timestamp should round-trip")
	assert.Equal(t, built.Vocabulary.Terms, loaded.Vocabulary.Terms)
	assert.Equal(t, built.Vectors, loaded.Vectors, "vector weights must round-trip bit for bit")
	assert.Equal(t, built.Records, loaded.Records)

	queries := []string{"food for hungry families", "shelter housing", "reading programs", "unrelated"}
	for _, q := range queries {
		before := built.Search(q, 3)
		after := loaded.Search(q, 3)
		require.Equal(t, len(before), len(after), "query %q", q)
		for i := range before {
			assert.Equal(t, before[i].Record.EIN, after[i].Record.EIN, "query %q rank %d", q, i)
			assert.Equal(t, before[i].Score, after[i].Score, "query %q rank %d score", q, i)
		}
	}
}

func TestSaveReplacesPrevious(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Save(context.Background(), testIndex(t)))

	smaller, err := index.Build([]corpus.Organization{
		{EIN: "74-0000009", Name: "Solo Org", Mission: "A single record corpus"},
	}, index.BuildOptions{})
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), smaller))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 1, loaded.Meta.DocumentCount)
	assert.Len(t, loaded.Records, 1)
	assert.Equal(t, "74-0000009", loaded.Records[0].EIN)
}

func TestLoadCorruptMissingBucket(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Save(context.Background(), testIndex(t)))

	require.NoError(t, store.db.Update(func(tx *bbolt.Tx) error {
		return tx.DeleteBucket(bucketRecords)
	}))

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestLoadCorruptTruncatedVector(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Save(context.Background(), testIndex(t)))

	require.NoError(t, store.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketVectors).Put(rowKey(0), []byte{0x01, 0x02})
	}))

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestLoadCorruptCountMismatch(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Save(context.Background(), testIndex(t)))

	require.NoError(t, store.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRecords).Delete(rowKey(2))
	}))

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestManagerRestoreFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	first, err := Open(path)
	require.NoError(t, err)
	built := testIndex(t)
	require.NoError(t, first.Save(context.Background(), built))
	require.NoError(t, first.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	mgr := index.NewManager(nil, index.WithSnapshots(reopened))
	require.True(t, mgr.Restore(context.Background()), "manager should restore the saved snapshot")
	assert.Equal(t, built.Meta.DocumentCount, mgr.Status().Documents)

	results := mgr.Search("food for hungry families", 1)
	require.Len(t, results, 1)
	assert.Equal(t, "74-0000001", results[0].Record.EIN)
}
