package transformation

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	// Decoders register themselves with the standard image package.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"

	"github.com/mahirjain10/image-ingest/internal/utils"
)

// PreviewSize is the fixed edge length of every preview, in pixels.
const PreviewSize = 100

// DefaultMaxPixels bounds width*height of a source image before it is decoded.
const DefaultMaxPixels = 1 << 24

var (
	ErrInvalidFilename = errors.New("invalid asset filename")
	ErrTooManyPixels   = errors.New("image dimensions exceed pixel limit")
)

// getFormat maps the string format from image.Decode to the imaging.Format enum.
// Formats imaging cannot encode fall back to PNG.
func getFormat(format string) imaging.Format {
	switch format {
	case "jpeg":
		return imaging.JPEG
	case "png":
		return imaging.PNG
	case "gif":
		return imaging.GIF
	case "bmp":
		return imaging.BMP
	case "tiff":
		return imaging.TIFF
	default:
		slog.Debug("no encoder for format, writing PNG preview", "format", format)
		return imaging.PNG
	}
}

// Thumbnailer derives previews from stored full-resolution images.
type Thumbnailer struct {
	fullDir    string
	previewDir string
	maxPixels  int64
}

func NewThumbnailer(fullDir, previewDir string) *Thumbnailer {
	return &Thumbnailer{fullDir: fullDir, previewDir: previewDir, maxPixels: DefaultMaxPixels}
}

// WithMaxPixels sets the decode limit. n <= 0 keeps the current limit.
func (t *Thumbnailer) WithMaxPixels(n int64) *Thumbnailer {
	if n > 0 {
		t.maxPixels = n
	}
	return t
}

func (t *Thumbnailer) FullPath(filename string) string {
	return filepath.Join(t.fullDir, filename)
}

func (t *Thumbnailer) PreviewPath(filename string) string {
	return filepath.Join(t.previewDir, filename)
}

// Generate decodes fullDir/filename, resizes it to PreviewSize x PreviewSize with
// nearest-neighbour sampling and writes the result to previewDir/filename.
// The aspect ratio is not preserved.
func (t *Thumbnailer) Generate(filename string) (retErr error) {
	if filename == "" || filepath.Base(filename) != filename {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}

	in, err := os.Open(t.FullPath(filename))
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	img, formatStr, err := t.decode(in)
	closeErr := in.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close image: %w", closeErr)
	}

	preview := imaging.Resize(img, PreviewSize, PreviewSize, imaging.NearestNeighbor)

	previewPath, err := utils.PathUtil(t.previewDir, filename)
	if err != nil {
		return err
	}
	out, err := os.OpenFile(previewPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create preview: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil {
			retErr = errors.Join(retErr, closeErr)
		}
		if retErr != nil {
			_ = os.Remove(previewPath)
		}
	}()

	if err := imaging.Encode(out, preview, getFormat(formatStr)); err != nil {
		return fmt.Errorf("error while encoding preview: %w", err)
	}
	return nil
}

// decode reads the header first so oversized images are rejected before any
// pixel buffer is allocated.
func (t *Thumbnailer) decode(in io.ReadSeeker) (image.Image, string, error) {
	cfg, _, err := image.DecodeConfig(in)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > t.maxPixels {
		return nil, "", fmt.Errorf("%w: %dx%d (max %d pixels)", ErrTooManyPixels, cfg.Width, cfg.Height, t.maxPixels)
	}
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return nil, "", fmt.Errorf("failed to rewind image: %w", err)
	}
	img, format, err := image.Decode(in)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}
