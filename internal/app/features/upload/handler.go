// internal/app/features/upload/handler.go
package upload

import (
	"net/http"

	"go.uber.org/zap"
)

// Handler forwards file uploads to the storage service. The storage token
// never reaches the browser.
type Handler struct {
	Proxy    http.Handler // nil when no storage token is configured
	MaxBytes int64        // 0 means unlimited
	Log      *zap.Logger
}

// NewHandler creates an upload handler around a configured reverse proxy.
func NewHandler(proxy http.Handler, maxBytes int64, logger *zap.Logger) *Handler {
	return &Handler{Proxy: proxy, MaxBytes: maxBytes, Log: logger}
}

// Serve handles POST /upload.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	if h.Proxy == nil {
		h.Log.Warn("upload rejected: storage token not configured", zap.String("remote_addr", r.RemoteAddr))
		http.Error(w, "uploads are not configured", http.StatusServiceUnavailable)
		return
	}

	if h.MaxBytes > 0 {
		if r.ContentLength > h.MaxBytes {
			h.Log.Warn("upload rejected: too large",
				zap.String("remote_addr", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.Int64("max_bytes", h.MaxBytes))
			http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	}

	h.Log.Info("upload forwarded",
		zap.String("remote_addr", r.RemoteAddr),
		zap.Int64("content_length", r.ContentLength))
	h.Proxy.ServeHTTP(w, r)
}
