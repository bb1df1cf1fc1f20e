package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const chunkSize = 32 * 1024

// Writer streams item bytes into the full-resolution root.
type Writer struct {
	dir      string
	maxBytes int64
}

func NewWriter(dir string, maxBytes int64) *Writer {
	return &Writer{dir: dir, maxBytes: maxBytes}
}

func (w *Writer) Path(filename string) string {
	return filepath.Join(w.dir, filename)
}

// Write copies r into dir/filename one chunk at a time, so at most one chunk of
// the payload is held in memory. The file is synced before Write returns. On
// any failure the partial file is removed.
func (w *Writer) Write(ctx context.Context, filename string, r io.Reader) (written int64, retErr error) {
	path := w.Path(filename)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("%w: create %s: %v", ErrWrite, filename, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("%w: close %s: %v", ErrWrite, filename, closeErr)
		}
		if retErr != nil {
			_ = os.Remove(path)
		}
	}()

	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, readErr := r.Read(buf)
		if n > 0 {
			if w.maxBytes > 0 && written+int64(n) > w.maxBytes {
				return written, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, w.maxBytes)
			}
			if _, err := f.Write(buf[:n]); err != nil {
				return written, fmt.Errorf("%w: %s: %v", ErrWrite, filename, err)
			}
			written += int64(n)
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return written, readErr
		}
	}

	if err := f.Sync(); err != nil {
		return written, fmt.Errorf("%w: sync %s: %v", ErrWrite, filename, err)
	}
	return written, nil
}
