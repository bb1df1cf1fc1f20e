package types

import "time"

// AssetEventData represents the inner payload
type AssetEventData struct {
	Filename  string     `json:"filename"`
	Kind      SourceKind `json:"kind"`
	MediaType string     `json:"mediaType"`
	Size      int64      `json:"size"`
	Status    string     `json:"status"`
	StoredAt  time.Time  `json:"storedAt"`
}

// AssetEvent represents the full message envelope
type AssetEvent struct {
	Pattern string         `json:"pattern"`
	Data    AssetEventData `json:"data"`
}
