// internal/app/features/chainapi/routes.go
package chainapi

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under the MultiBaas address-label
// collection. Labels can be read and contract methods called; creating,
// linking and deleting labels is left to nftjr-migrate.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	r.Get("/*", h.Serve)
	r.Post("/{label}/contracts/{contract}/methods/{method}", h.Serve)
	return r
}
