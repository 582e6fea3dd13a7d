package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/nftjr/internal/app/features/health"
	"github.com/dalemusser/nftjr/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type downPinger struct{}

func (downPinger) Ping(context.Context, *readpref.ReadPref) error {
	return errors.New("server selection error")
}

type stubBook struct{ loaded time.Time }

func (stubBook) Network() string       { return "development" }
func (stubBook) Len() int              { return 3 }
func (b stubBook) LoadedAt() time.Time { return b.loaded }

type healthBody struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	Message     string `json:"message"`
	AddressBook *struct {
		Network   string     `json:"network"`
		Contracts int        `json:"contracts"`
		LoadedAt  *time.Time `json:"loaded_at"`
	} `json:"address_book"`
}

func TestServe_DatabaseConnected(t *testing.T) {
	// Set up a test database to get a connected client
	db := testutil.SetupTestDB(t)
	client := db.Client()
	handler := health.NewHandler(client, stubBook{loaded: time.Now()}, zap.NewNop())

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()

	handler.Serve(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	contentType := rec.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", contentType, "application/json")
	}

	var response healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if response.Status != "ok" {
		t.Errorf("status: got %q, want %q", response.Status, "ok")
	}
	if response.Database != "connected" {
		t.Errorf("database: got %q, want %q", response.Database, "connected")
	}
	if response.AddressBook == nil || response.AddressBook.Contracts != 3 {
		t.Fatalf("address_book: got %+v", response.AddressBook)
	}
	if response.AddressBook.LoadedAt == nil {
		t.Error("address_book.loaded_at missing")
	}
}

func TestServe_DatabaseDown(t *testing.T) {
	handler := health.NewHandler(downPinger{}, stubBook{}, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.Serve(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}

	var response healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response.Status != "error" || response.Database != "disconnected" {
		t.Errorf("got status=%q database=%q", response.Status, response.Database)
	}
	if response.Message != "Database unavailable" {
		t.Errorf("message: got %q", response.Message)
	}
}
