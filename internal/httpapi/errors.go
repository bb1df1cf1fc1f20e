package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

type ErrResponse struct {
	Err            error  `json:"-"`
	HTTPStatusCode int    `json:"-"`
	StatusText     string `json:"status"`
	ErrorText      string `json:"error,omitempty"`
}

func (er *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	slog.Warn("request failed", "status", er.HTTPStatusCode, "error", er.ErrorText, "path", r.URL.Path)
	render.Status(r, er.HTTPStatusCode)
	return nil
}

// e.g. malformed JSON, zero or several image keys, broken multipart body
func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest, // 400
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrNotFound(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusNotFound, // 404
		StatusText:     "Resource not found.",
		ErrorText:      err.Error(),
	}
}

func ErrContentTooLarge(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusRequestEntityTooLarge, // 413
		StatusText:     "Content too large.",
		ErrorText:      err.Error(),
	}
}

func ErrUnsupportedMediaType(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusUnsupportedMediaType, // 415
		StatusText:     "Unsupported media type.",
		ErrorText:      err.Error(),
	}
}

func ErrInternalServerError(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError, // 500
		StatusText:     "Server failed to process request.",
		ErrorText:      err.Error(),
	}
}

// remote image could not be fetched
func ErrBadGateway(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadGateway, // 502
		StatusText:     "Upstream fetch failed.",
		ErrorText:      err.Error(),
	}
}
