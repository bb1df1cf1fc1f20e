package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// SourceKind names the channel an image arrived through.
type SourceKind string

const (
	SourceMultipart SourceKind = "multipart"
	SourceURL       SourceKind = "url"
	SourceBase64    SourceKind = "base64"
	SourceS3        SourceKind = "s3"
)

var ErrMalformedImage = errors.New("image must carry exactly one of url, base64 or s3")

// Image is one element of a JSON ingestion request. Exactly one field is set;
// UnmarshalJSON enforces that.
type Image struct {
	URL    string `json:"url,omitempty"`
	Base64 string `json:"base64,omitempty"`
	S3Key  string `json:"s3,omitempty"`
}

func (img Image) Kind() SourceKind {
	switch {
	case img.URL != "":
		return SourceURL
	case img.Base64 != "":
		return SourceBase64
	case img.S3Key != "":
		return SourceS3
	}
	return ""
}

func (img *Image) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || len(raw) != 1 {
		keys := make([]string, 0, len(raw))
		for k := range raw {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fmt.Errorf("%w: got keys %v", ErrMalformedImage, keys)
	}

	var out Image
	for key, value := range raw {
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return fmt.Errorf("image field %q must be a string: %w", key, err)
		}
		if s == "" {
			return fmt.Errorf("%w: field %q is empty", ErrMalformedImage, key)
		}
		switch key {
		case "url":
			out.URL = s
		case "base64":
			out.Base64 = s
		case "s3":
			out.S3Key = s
		default:
			return fmt.Errorf("%w: unknown field %q", ErrMalformedImage, key)
		}
	}
	*img = out
	return nil
}

func (img Image) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	var key, value string
	switch img.Kind() {
	case SourceURL:
		key, value = "url", img.URL
	case SourceBase64:
		key, value = "base64", img.Base64
	case SourceS3:
		key, value = "s3", img.S3Key
	default:
		return nil, ErrMalformedImage
	}
	v, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`{"` + key + `":`)
	buf.Write(v)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DataURL is the parsed form of a base64 data URL. Data still holds the
// base64 text; it is decoded when the item is written.
type DataURL struct {
	MimeType string
	Data     []byte
}

// StoredAsset is one persisted image. Only Filename is surfaced to callers.
type StoredAsset struct {
	Filename    string
	FullPath    string
	PreviewPath string
}
