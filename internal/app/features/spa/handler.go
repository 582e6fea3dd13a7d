// internal/app/features/spa/handler.go
package spa

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/dalemusser/nftjr/internal/app/system/clientroutes"
	"github.com/dalemusser/nftjr/internal/domain/models"
	"go.uber.org/zap"
)

// AssetDirs are the build output directories served as static files.
var AssetDirs = []string{"js", "css", "img", "fonts"}

// Handler serves the built single-page app. Declared client routes get
// index.html so the router can take over in history mode; anything else
// that is not an asset is a 404.
type Handler struct {
	Dir    string
	Routes []models.Route
	Log    *zap.Logger
}

// NewHandler constructs a Handler serving the frontend build in dir.
func NewHandler(dir string, routes []models.Route, logger *zap.Logger) *Handler {
	return &Handler{Dir: dir, Routes: routes, Log: logger}
}

// CheckDir reports whether dir holds a frontend build.
func CheckDir(dir string) error {
	_, err := os.Stat(filepath.Join(dir, "index.html"))
	return err
}

// Index serves index.html for a declared client route.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if !clientroutes.Has(h.Routes, r.URL.Path) {
		h.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, filepath.Join(h.Dir, "index.html"))
}

// Favicon serves /favicon.ico from the build root.
func (h *Handler) Favicon(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(h.Dir, "favicon.ico"))
}

// NotFound is the fallback for paths outside the route table.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.Log.Debug("spa: undeclared path", zap.String("path", r.URL.Path))
	http.NotFound(w, r)
}
