package utils

import (
	"time"

	"github.com/mahirjain10/image-ingest/internal/types"
)

const pattern = "asset"

func InitAssetEventData(asset types.StoredAsset, kind types.SourceKind, mediaType string, size int64) *types.AssetEventData {
	return &types.AssetEventData{
		Filename:  asset.Filename,
		Kind:      kind,
		MediaType: mediaType,
		Size:      size,
		Status:    types.STORED,
		StoredAt:  time.Now().UTC(),
	}
}

func InitAssetEvent(data *types.AssetEventData) *types.AssetEvent {
	return &types.AssetEvent{Pattern: pattern, Data: *data}
}
