package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMediaType(t *testing.T) {
	mt, ok := ParseMediaType("Image/PNG; charset=binary")
	require.True(t, ok)
	assert.Equal(t, MediaType{Type: "image", Subtype: "png"}, mt)
	assert.Equal(t, "image/png", mt.String())

	for _, v := range []string{"", "   ", "image", "image/", "/png", ";;", "image/png/extra"} {
		_, ok := ParseMediaType(v)
		assert.False(t, ok, "value %q", v)
	}
}

func TestClassify(t *testing.T) {
	c := NewClassifier([]string{"jpeg", "png", "webp"})

	tests := []struct {
		contentType string
		accepted    bool
		subtype     string
	}{
		{"image/png", true, "png"},
		{"image/jpeg", true, "jpeg"},
		{"IMAGE/WEBP", true, "webp"},
		{"image/svg+xml", false, ""},
		{"text/plain", false, ""},
		{"application/octet-stream", false, ""},
		{"", false, ""},
		{"not a media type", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			mt, err := c.Classify(tt.contentType)
			if !tt.accepted {
				assert.ErrorIs(t, err, ErrNotImage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.subtype, mt.Subtype)
		})
	}
}

func TestClassifyWildcard(t *testing.T) {
	c := NewClassifier([]string{"*"})

	mt, err := c.Classify("image/svg+xml")
	require.NoError(t, err)
	assert.Equal(t, "svg+xml", mt.Subtype)

	mt, err = c.Classify("image/x-portable-anymap")
	require.NoError(t, err)
	assert.Equal(t, "x-portable-anymap", mt.Subtype)

	_, err = c.Classify("text/html")
	assert.ErrorIs(t, err, ErrNotImage)
}
