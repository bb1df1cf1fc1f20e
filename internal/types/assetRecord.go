package types

import "time"

// AssetRecord is the registry entry of a stored image.
type AssetRecord struct {
	Filename    string     `json:"filename"`
	Kind        SourceKind `json:"kind"`
	MediaType   string     `json:"media_type"`
	Size        int64      `json:"size"`
	FullPath    string     `json:"full_path"`
	PreviewPath string     `json:"preview_path"`
	StoredAt    time.Time  `json:"stored_at"`
}
