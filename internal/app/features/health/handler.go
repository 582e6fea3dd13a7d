package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dalemusser/nftjr/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger is satisfied by *mongo.Client.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// Book is the part of the address book the health check reports on.
type Book interface {
	Network() string
	Len() int
	LoadedAt() time.Time
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client Pinger
	Book   Book
	Log    *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo client, address book and logger.
func NewHandler(client Pinger, book Book, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Book:   book,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status      string       `json:"status"`
	Database    string       `json:"database"`
	Message     string       `json:"message,omitempty"`
	Error       string       `json:"error,omitempty"`
	AddressBook *bookSummary `json:"address_book,omitempty"`
}

type bookSummary struct {
	Network   string     `json:"network"`
	Contracts int        `json:"contracts"`
	LoadedAt  *time.Time `json:"loaded_at,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "address_book":{"network":"development","contracts":3,"loaded_at":"…"} }
//
// On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	if h.Book != nil {
		sum := &bookSummary{Network: h.Book.Network(), Contracts: h.Book.Len()}
		if at := h.Book.LoadedAt(); !at.IsZero() {
			sum.LoadedAt = &at
		}
		resp.AddressBook = sum
	}

	_ = json.NewEncoder(w).Encode(resp)
}
