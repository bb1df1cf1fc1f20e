package httpapi

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mahirjain10/image-ingest/internal/ingest"
	"github.com/mahirjain10/image-ingest/internal/store"
	"github.com/mahirjain10/image-ingest/internal/types"
	"github.com/mahirjain10/image-ingest/internal/utils"
)

// AssetLister is the read side of the asset registry.
type AssetLister interface {
	List() ([]types.AssetRecord, error)
	Get(filename string) (*types.AssetRecord, error)
}

type Handler struct {
	pipeline     *ingest.Pipeline
	assets       AssetLister
	maxJSONBytes int64
}

// NewHandler builds the handler. maxJSONBytes <= 0 leaves JSON bodies unbounded.
func NewHandler(pipeline *ingest.Pipeline, assets AssetLister, maxJSONBytes int64) *Handler {
	return &Handler{pipeline: pipeline, assets: assets, maxJSONBytes: maxJSONBytes}
}

// JSONBodyLimit is the largest JSON request accepted for a given per-image cap:
// one maximal image as base64 plus room for the other items.
func JSONBodyLimit(maxImageBytes int64) int64 {
	return int64(base64.StdEncoding.EncodedLen(int(maxImageBytes))) + 1<<20
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	render.PlainText(w, r, "index")
}

// Ingest dispatches on the request content type. The response is the ordered
// list of stored filenames, or every item's outcome with ?detail=true.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		render.Render(w, r, ErrUnsupportedMediaType(fmt.Errorf("missing or invalid content type")))
		return
	}

	var batch *ingest.Batch
	switch mediaType {
	case "application/json":
		body := r.Body
		if h.maxJSONBytes > 0 {
			body = http.MaxBytesReader(w, r.Body, h.maxJSONBytes)
		}
		var images []types.Image
		if err := utils.DecodeJSON(body, &images); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				render.Render(w, r, ErrContentTooLarge(err))
				return
			}
			render.Render(w, r, ErrInvalidRequest(err))
			return
		}
		batch, err = h.pipeline.IngestImages(r.Context(), images)
	case "multipart/form-data":
		mr, mErr := r.MultipartReader()
		if mErr != nil {
			render.Render(w, r, ErrInvalidRequest(mErr))
			return
		}
		batch, err = h.pipeline.IngestMultipart(r.Context(), mr)
	default:
		render.Render(w, r, ErrUnsupportedMediaType(fmt.Errorf("content type %q is not accepted", mediaType)))
		return
	}
	if err != nil {
		render.Render(w, r, batchError(err))
		return
	}

	render.Status(r, http.StatusOK)
	if r.URL.Query().Get("detail") == "true" {
		render.JSON(w, r, batch.Outcomes)
		return
	}
	render.JSON(w, r, batch.Filenames())
}

func batchError(err error) render.Renderer {
	switch {
	case errors.Is(err, ingest.ErrMalformedMultipart):
		return ErrInvalidRequest(err)
	case errors.Is(err, ingest.ErrFetch):
		return ErrBadGateway(err)
	case errors.Is(err, context.Canceled):
		return ErrInternalServerError(errors.New("request cancelled"))
	default:
		return ErrInternalServerError(err)
	}
}

func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	records, err := h.assets.List()
	if err != nil {
		render.Render(w, r, ErrInternalServerError(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, records)
}

func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	rec, err := h.assets.Get(filename)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			render.Render(w, r, ErrNotFound(err))
			return
		}
		render.Render(w, r, ErrInternalServerError(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, rec)
}
