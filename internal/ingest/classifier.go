package ingest

import (
	"fmt"
	"mime"
	"regexp"
	"strings"
)

// MediaType is a classified MIME type without parameters.
type MediaType struct {
	Type    string
	Subtype string
}

func (m MediaType) String() string {
	return m.Type + "/" + m.Subtype
}

func (m MediaType) IsImage() bool {
	return m.Type == "image"
}

// ParseMediaType parses a Content-Type style value. It reports false for an
// empty or unparsable value instead of returning an error.
func ParseMediaType(v string) (MediaType, bool) {
	if strings.TrimSpace(v) == "" {
		return MediaType{}, false
	}
	mediaType, _, err := mime.ParseMediaType(v)
	if err != nil {
		return MediaType{}, false
	}
	typ, sub, ok := strings.Cut(mediaType, "/")
	if !ok || typ == "" || sub == "" {
		return MediaType{}, false
	}
	return MediaType{Type: typ, Subtype: sub}, true
}

var safeSubtype = regexp.MustCompile(`^[a-z0-9][a-z0-9.+-]*$`)

// Classifier decides whether a declared media type is an image this service
// stores. The subtype becomes the file extension, so it is restricted to an
// allow-list, or to a safe character set when the list contains "*".
type Classifier struct {
	allowAny bool
	allowed  map[string]struct{}
}

func NewClassifier(allowedSubtypes []string) *Classifier {
	c := &Classifier{allowed: make(map[string]struct{}, len(allowedSubtypes))}
	for _, s := range allowedSubtypes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "*" {
			c.allowAny = true
			continue
		}
		if s != "" {
			c.allowed[s] = struct{}{}
		}
	}
	return c
}

// Classify returns the media type of an accepted image, or an error wrapping
// ErrNotImage. It never fails hard.
func (c *Classifier) Classify(contentType string) (MediaType, error) {
	mt, ok := ParseMediaType(contentType)
	if !ok {
		return MediaType{}, fmt.Errorf("%w: unparsable content type %q", ErrNotImage, contentType)
	}
	if !mt.IsImage() {
		return mt, fmt.Errorf("%w: %s", ErrNotImage, mt)
	}
	if !safeSubtype.MatchString(mt.Subtype) {
		return mt, fmt.Errorf("%w: unsafe subtype %q", ErrNotImage, mt.Subtype)
	}
	if !c.allowAny {
		if _, ok := c.allowed[mt.Subtype]; !ok {
			return mt, fmt.Errorf("%w: subtype %q not allowed", ErrNotImage, mt.Subtype)
		}
	}
	return mt, nil
}
