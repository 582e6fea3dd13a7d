// internal/app/features/chainapi/handler.go
package chainapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Handler forwards the browser's MultiBaas REST calls with the API key
// attached server-side.
type Handler struct {
	Proxy http.Handler
	Log   *zap.Logger
}

// NewHandler creates a chain API handler around a configured reverse proxy.
func NewHandler(proxy http.Handler, logger *zap.Logger) *Handler {
	return &Handler{Proxy: proxy, Log: logger}
}

// Serve forwards one permitted request to MultiBaas.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	h.Log.Debug("chain api request",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	h.Proxy.ServeHTTP(w, r)
}
