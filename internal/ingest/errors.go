package ingest

import (
	"errors"
	"fmt"
)

// Skips. These end an item without failing it.
var (
	ErrNotImage  = errors.New("content is not an accepted image type")
	ErrNoDataURL = errors.New("value is not a base64 data URL")
)

var (
	ErrDecodeBase64       = errors.New("invalid base64 payload")
	ErrFetch              = errors.New("remote fetch failed")
	ErrTooLarge           = errors.New("image exceeds maximum size")
	ErrWrite              = errors.New("failed to write image")
	ErrThumbnail          = errors.New("failed to generate preview")
	ErrS3Disabled         = errors.New("s3 source is not configured")
	ErrMalformedMultipart = errors.New("malformed multipart body")
)

const (
	StageFetch     = "fetch"
	StageDecode    = "decode"
	StageWrite     = "write"
	StageThumbnail = "thumbnail"
)

// ProcessingError is a hard failure of one item.
type ProcessingError struct {
	Index int
	Stage string
	Err   error
}

func (p ProcessingError) Error() string {
	return fmt.Sprintf("item %d: %s: %v", p.Index, p.Stage, p.Err)
}

func (p ProcessingError) Unwrap() error {
	return p.Err
}

func isSkip(err error) bool {
	return errors.Is(err, ErrNotImage) || errors.Is(err, ErrNoDataURL)
}
