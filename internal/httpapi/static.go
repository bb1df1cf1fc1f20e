package httpapi

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// sniffContentType sets Content-Type from the first bytes of the requested
// file so http.FileServer does not derive it from the extension.
func sniffContentType(dir string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "*")
		f, err := http.Dir(dir).Open("/" + name)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		buf := make([]byte, 512)
		n, _ := io.ReadFull(f, buf)
		_ = f.Close()

		if n > 0 {
			if ct := http.DetectContentType(buf[:n]); ct != "application/octet-stream" {
				w.Header().Set("Content-Type", ct)
			}
		}
		next.ServeHTTP(w, r)
	})
}
