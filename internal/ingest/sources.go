package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/mahirjain10/image-ingest/internal/types"
)

// ObjectGetter opens an object from a bucket along with its declared content type.
type ObjectGetter interface {
	GetObject(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// payload is what a source yields before classification. open is only called
// once the media type has been accepted.
type payload struct {
	mediaType string
	open      func() (io.Reader, error)
	close     func() error
}

func (p *payload) release() {
	if p.close != nil {
		_ = p.close()
	}
}

// source is one input variant. Adding an input kind means adding a source.
type source interface {
	kind() types.SourceKind
	fetch(ctx context.Context) (*payload, error)
}

type multipartSource struct {
	part *multipart.Part
}

func (s multipartSource) kind() types.SourceKind { return types.SourceMultipart }

func (s multipartSource) fetch(ctx context.Context) (*payload, error) {
	return &payload{
		mediaType: s.part.Header.Get("Content-Type"),
		open:      func() (io.Reader, error) { return s.part, nil },
	}, nil
}

type urlSource struct {
	url    string
	client *http.Client
}

func (s urlSource) kind() types.SourceKind { return types.SourceURL }

func (s urlSource) fetch(ctx context.Context) (*payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: unexpected status code: %d %s", ErrFetch, resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return &payload{
		mediaType: resp.Header.Get("Content-Type"),
		open:      func() (io.Reader, error) { return resp.Body, nil },
		close:     resp.Body.Close,
	}, nil
}

// base64Source decodes its payload in one shot, so the whole decoded image is
// held in memory. Data URLs are expected to be small.
type base64Source struct {
	value    string
	maxBytes int64
}

func (s base64Source) kind() types.SourceKind { return types.SourceBase64 }

func (s base64Source) fetch(ctx context.Context) (*payload, error) {
	d, ok := ParseDataURL(s.value)
	if !ok {
		return nil, ErrNoDataURL
	}
	return &payload{
		mediaType: d.MimeType,
		open: func() (io.Reader, error) {
			// DecodedLen counts up to two padding bytes
			size := base64.StdEncoding.DecodedLen(len(d.Data))
			if s.maxBytes > 0 && int64(size)-2 > s.maxBytes {
				return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, s.maxBytes)
			}
			buf := make([]byte, size)
			n, err := base64.StdEncoding.Decode(buf, d.Data)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrDecodeBase64, err)
			}
			return bytes.NewReader(buf[:n]), nil
		},
	}, nil
}

type s3Source struct {
	key    string
	getter ObjectGetter
}

func (s s3Source) kind() types.SourceKind { return types.SourceS3 }

func (s s3Source) fetch(ctx context.Context) (*payload, error) {
	if s.getter == nil {
		return nil, ErrS3Disabled
	}
	body, contentType, err := s.getter.GetObject(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return &payload{
		mediaType: contentType,
		open:      func() (io.Reader, error) { return body, nil },
		close:     body.Close,
	}, nil
}
