// internal/app/features/appconfig/routes.go
package appconfig

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /app-config.json.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	return r
}
