package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mahirjain10/image-ingest/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathUtilCreatesParent(t *testing.T) {
	root := t.TempDir()

	p, err := PathUtil(root, filepath.Join("preview", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "preview", "a.png"), p)

	info, err := os.Stat(filepath.Join(root, "preview"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCleanupAll(t *testing.T) {
	root := t.TempDir()
	full := filepath.Join(root, "full.png")
	require.NoError(t, os.WriteFile(full, []byte("x"), 0o644))

	// preview never written
	require.NoError(t, CleanupAll(full, filepath.Join(root, "missing.png")))

	_, err := os.Stat(full)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecodeJSONRejectsTrailingData(t *testing.T) {
	var images []types.Image
	require.NoError(t, DecodeJSON(strings.NewReader(`[{"url": "http://a/b.png"}]`), &images))
	assert.Len(t, images, 1)

	assert.Error(t, DecodeJSON(strings.NewReader(`[] []`), &images))
	assert.Error(t, DecodeJSON(strings.NewReader(`{"url": "http://a"}`), &images))
}

func TestInitAssetEvent(t *testing.T) {
	asset := types.StoredAsset{Filename: "abc.png"}
	ev := InitAssetEvent(InitAssetEventData(asset, types.SourceURL, "image/png", 42))

	assert.Equal(t, "asset", ev.Pattern)
	assert.Equal(t, "abc.png", ev.Data.Filename)
	assert.Equal(t, types.STORED, ev.Data.Status)
	assert.Equal(t, int64(42), ev.Data.Size)
	assert.False(t, ev.Data.StoredAt.IsZero())
}
