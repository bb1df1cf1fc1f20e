package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

type RouterOptions struct {
	FullImagesDir      string
	PreviewImagesDir   string
	RateLimitPerMinute int
}

func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if opts.RateLimitPerMinute > 0 {
		r.Use(httprate.Limit(
			opts.RateLimitPerMinute,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/", h.Index)
	r.Post("/", h.Ingest)

	r.Get("/assets", h.ListAssets)
	r.Get("/assets/{filename}", h.GetAsset)

	r.Handle("/full/*", http.StripPrefix("/full/", http.FileServer(http.Dir(opts.FullImagesDir))))
	// previews of formats without an encoder are PNG under the source extension
	r.Handle("/preview/*", sniffContentType(opts.PreviewImagesDir,
		http.StripPrefix("/preview/", http.FileServer(http.Dir(opts.PreviewImagesDir)))))

	return r
}
