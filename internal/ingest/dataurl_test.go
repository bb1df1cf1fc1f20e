package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataURL(t *testing.T) {
	d, ok := ParseDataURL("data:image/jpeg;base64,somedata")
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", d.MimeType)
	assert.Equal(t, []byte("somedata"), d.Data)
}

func TestParseDataURLFirstMarker(t *testing.T) {
	d, ok := ParseDataURL("data:image/png;base64,AAAA;base64,BBBB")
	require.True(t, ok)
	assert.Equal(t, "image/png", d.MimeType)
	assert.Equal(t, []byte("AAAA;base64,BBBB"), d.Data)
}

func TestParseDataURLEmptyPayload(t *testing.T) {
	d, ok := ParseDataURL("data:image/gif;base64,")
	require.True(t, ok)
	assert.Empty(t, d.Data)
}

func TestParseDataURLNoMatch(t *testing.T) {
	for _, v := range []string{
		"",
		"somedata",
		"https://example.com/a.png",
		"data:image/png,rawbytes",
		"data:;base64,AAAA",
		"data:not a type;base64,AAAA",
		" data:image/png;base64,AAAA",
	} {
		_, ok := ParseDataURL(v)
		assert.False(t, ok, "value %q", v)
	}
}
