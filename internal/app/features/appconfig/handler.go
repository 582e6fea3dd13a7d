// internal/app/features/appconfig/handler.go
package appconfig

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dalemusser/nftjr/internal/app/system/addressbook"
	"github.com/dalemusser/nftjr/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves the document the single-page app boots from.
type Handler struct {
	Variant string
	Routes  []models.Route
	Theme   models.Theme
	APIBase string // relative path the browser's HTTP client is bound to
	Book    *addressbook.Book
	Log     *zap.Logger
}

// NewHandler constructs an app config Handler.
func NewHandler(variant string, routes []models.Route, theme models.Theme, apiBase string, book *addressbook.Book, logger *zap.Logger) *Handler {
	return &Handler{
		Variant: variant,
		Routes:  routes,
		Theme:   theme,
		APIBase: apiBase,
		Book:    book,
		Log:     logger,
	}
}

type routerConfig struct {
	Mode   string         `json:"mode"`
	Routes []models.Route `json:"routes"`
}

type contractsConfig struct {
	Network   string                    `json:"network"`
	LoadedAt  *time.Time                `json:"loaded_at,omitempty"`
	Addresses map[string]models.Address `json:"addresses"`
}

type response struct {
	Variant   string          `json:"variant"`
	Router    routerConfig    `json:"router"`
	Theme     models.Theme    `json:"theme"`
	APIBase   string          `json:"api_base"`
	Contracts contractsConfig `json:"contracts"`
}

// Serve handles GET /app-config.json.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	resp := response{
		Variant: h.Variant,
		Router:  routerConfig{Mode: "history", Routes: h.Routes},
		Theme:   h.Theme,
		APIBase: h.APIBase,
		Contracts: contractsConfig{
			Network:   h.Book.Network(),
			Addresses: h.Book.Addresses(),
		},
	}
	if at := h.Book.LoadedAt(); !at.IsZero() {
		resp.Contracts.LoadedAt = &at
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.Log.Warn("app config encode failed", zap.Error(err))
	}
}
