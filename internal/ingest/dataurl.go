package ingest

import (
	"regexp"

	"github.com/mahirjain10/image-ingest/internal/types"
)

// dataURLPattern captures the type up to the first ";base64," and the payload after it.
var dataURLPattern = regexp.MustCompile(`(?s)^data:(.+?);base64,(.*)$`)

// ParseDataURL splits a data URL into its media type and base64 payload. The
// payload is not decoded here. ok is false when the value is not a data URL or
// its type does not parse.
func ParseDataURL(s string) (types.DataURL, bool) {
	m := dataURLPattern.FindStringSubmatch(s)
	if m == nil {
		return types.DataURL{}, false
	}
	if _, ok := ParseMediaType(m[1]); !ok {
		return types.DataURL{}, false
	}
	return types.DataURL{MimeType: m[1], Data: []byte(m[2])}, true
}
