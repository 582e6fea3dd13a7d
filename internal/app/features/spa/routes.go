// internal/app/features/spa/routes.go
package spa

import (
	"path/filepath"

	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
)

// Register adds the asset, favicon and client routes to r and makes the
// handler r's 404. Client routes are registered as GET only so other
// features can own other methods on the same path.
func Register(r chi.Router, h *Handler) {
	for _, dir := range AssetDirs {
		prefix := "/" + dir
		r.Handle(prefix+"/*", fileserver.Handler(prefix, filepath.Join(h.Dir, dir)))
	}
	r.Get("/favicon.ico", h.Favicon)

	for _, route := range h.Routes {
		r.Get(route.Path, h.Index)
	}
	r.NotFound(h.NotFound)
}
