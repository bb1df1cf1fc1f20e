package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahirjain10/image-ingest/internal/types"
)

func openRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(filepath.Join(t.TempDir(), "registry"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRegistryRecordAndGet(t *testing.T) {
	r := openRegistry(t)
	now := time.Now().UTC().Truncate(time.Second)

	rec := types.AssetRecord{
		Filename:    "a.png",
		Kind:        types.SourceURL,
		MediaType:   "image/png",
		Size:        123,
		FullPath:    "images/full/a.png",
		PreviewPath: "images/preview/a.png",
		StoredAt:    now,
	}
	require.NoError(t, r.Record(rec))

	got, err := r.Get("a.png")
	require.NoError(t, err)
	assert.Equal(t, rec, *got)
}

func TestRegistryGetMissing(t *testing.T) {
	r := openRegistry(t)
	_, err := r.Get("nope.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistryRejectsEmptyFilename(t *testing.T) {
	r := openRegistry(t)
	assert.Error(t, r.Record(types.AssetRecord{}))
}

func TestRegistryListOldestFirst(t *testing.T) {
	r := openRegistry(t)
	base := time.Now().UTC()

	list, err := r.List()
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, r.Record(types.AssetRecord{Filename: "z.png", StoredAt: base}))
	require.NoError(t, r.Record(types.AssetRecord{Filename: "a.png", StoredAt: base.Add(time.Second)}))
	require.NoError(t, r.Record(types.AssetRecord{Filename: "m.png", StoredAt: base.Add(-time.Second)}))

	list, err = r.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"m.png", "z.png", "a.png"}, []string{list[0].Filename, list[1].Filename, list[2].Filename})
}

func TestRegistryCorruptRecord(t *testing.T) {
	r := openRegistry(t)
	require.NoError(t, r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key("bad.png"), []byte("{not json"))
	}))

	_, err := r.Get("bad.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse JSON")

	_, err = r.List()
	assert.Error(t, err)
}
