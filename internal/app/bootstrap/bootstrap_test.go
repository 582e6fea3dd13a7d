package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/nftjr/internal/app/system/addressbook"
	"github.com/dalemusser/nftjr/internal/domain/models"
	"github.com/dalemusser/nftjr/internal/testutil"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:           "mongodb://localhost:27017",
		MongoDatabase:      "nftjr",
		Network:            "development",
		FrontendDir:        "../frontend/dist",
		RouteVariant:       "store",
		UploadTarget:       "https://nft.storage/api",
		MultiBaasURL:       "http://localhost:8080",
		MultiBaasAPIKey:    "real-key",
		AddressBookRefresh: time.Minute,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", func(*AppConfig) {}, ""},
		{"blank api key is allowed", func(c *AppConfig) { c.MultiBaasAPIKey = "" }, ""},
		{"placeholder api key", func(c *AppConfig) { c.MultiBaasAPIKey = "REPLACE_WITH_MULTIBAAS_API_KEY" }, "placeholder"},
		{"bad mongo uri", func(c *AppConfig) { c.MongoURI = "postgres://nope" }, "MongoDB URI"},
		{"unknown variant", func(c *AppConfig) { c.RouteVariant = "admin" }, "route variant"},
		{"relative upload target", func(c *AppConfig) { c.UploadTarget = "/api" }, "upload_target"},
		{"relative multibaas url", func(c *AppConfig) { c.MultiBaasURL = "localhost" }, "multibaas_url"},
		{"blank network", func(c *AppConfig) { c.Network = "" }, "network"},
		{"negative refresh", func(c *AppConfig) { c.AddressBookRefresh = -time.Second }, "addressbook_refresh"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(nil, cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

type fakeLedger struct {
	steps map[string]models.MigrationStep
	err   error
}

func (f *fakeLedger) LatestAddresses(context.Context, string) (map[string]models.MigrationStep, error) {
	return f.steps, f.err
}

func fakeDeps(src addressbook.Source) DBDeps {
	return DBDeps{Book: addressbook.New(src, "development", testLogger())}
}

func TestStartup_LoadsAddressBook(t *testing.T) {
	deps := fakeDeps(&fakeLedger{steps: map[string]models.MigrationStep{
		"market": {DeploymentRecord: models.DeploymentRecord{AddressLabel: "market"}, Address: "0xabc"},
	}})
	cfg := validConfig()
	cfg.MultiBaasAPIKey = ""

	if err := Startup(context.Background(), nil, cfg, deps, testLogger()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	if e, ok := deps.Book.Get("market"); !ok || e.Address != "0xabc" {
		t.Errorf("address book not loaded: %+v %v", e, ok)
	}
}

func TestStartup_LedgerFailureAborts(t *testing.T) {
	deps := fakeDeps(&fakeLedger{err: errors.New("no reachable servers")})
	if err := Startup(context.Background(), nil, validConfig(), deps, testLogger()); err == nil {
		t.Fatal("expected Startup to fail")
	}
}

func TestStartup_EmptyLedgerWithMongo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cfg := validConfig()
	cfg.MultiBaasAPIKey = ""
	cfg.AddressBookRefresh = 10 * time.Millisecond
	deps := newDeps(db.Client(), db, cfg, testLogger())

	if err := EnsureSchema(ctx, nil, cfg, deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := Startup(ctx, nil, cfg, deps, testLogger()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	if deps.Book.Len() != 0 {
		t.Errorf("Len = %d, want 0", deps.Book.Len())
	}
	deps.Refresh.Stop()
}

func writeFrontend(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<div id=app></div>"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestBuildHandler(t *testing.T) {
	var uploadAuth string
	storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uploadAuth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer storage.Close()

	deps := fakeDeps(&fakeLedger{steps: map[string]models.MigrationStep{
		"media": {DeploymentRecord: models.DeploymentRecord{AddressLabel: "media"}, Address: "0xmedia"},
	}})
	if err := deps.Book.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	cfg := validConfig()
	cfg.FrontendDir = writeFrontend(t)
	cfg.StorageToken = "storage-token"
	cfg.UploadTarget = storage.URL + "/api"

	h, err := BuildHandler(nil, cfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	do := func(method, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader("body")))
		return rec
	}

	if rec := do(http.MethodGet, "/family"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "id=app") {
		t.Errorf("GET /family: %d %q", rec.Code, rec.Body.String())
	}
	if rec := do(http.MethodGet, "/family/"); rec.Code != http.StatusOK {
		t.Errorf("GET /family/: %d, want the client route", rec.Code)
	}
	if rec := do(http.MethodGet, "/upload"); rec.Code != http.StatusOK {
		t.Errorf("GET /upload: %d, want the client route", rec.Code)
	}
	if rec := do(http.MethodGet, "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("GET /nope: %d, want 404", rec.Code)
	}
	if rec := do(http.MethodDelete, "/api/v0/chains/ethereum/addresses/market"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE address label: %d, want 405", rec.Code)
	}

	if rec := do(http.MethodPost, "/upload"); rec.Code != http.StatusOK {
		t.Errorf("POST /upload: %d", rec.Code)
	}
	if uploadAuth != "Bearer storage-token" {
		t.Errorf("upload Authorization = %q", uploadAuth)
	}

	rec := do(http.MethodGet, "/app-config.json")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /app-config.json: %d", rec.Code)
	}
	var doc struct {
		Variant   string `json:"variant"`
		APIBase   string `json:"api_base"`
		Contracts struct {
			Addresses map[string]string `json:"addresses"`
		} `json:"contracts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode app config: %v", err)
	}
	if doc.Variant != "store" || doc.APIBase != "/api/v0/chains/ethereum/addresses" {
		t.Errorf("app config = %+v", doc)
	}
	if doc.Contracts.Addresses["media"] != "0xmedia" {
		t.Errorf("addresses = %+v", doc.Contracts.Addresses)
	}
}

func TestBuildHandler_LoginVariantWithoutUploads(t *testing.T) {
	deps := fakeDeps(&fakeLedger{})
	cfg := validConfig()
	cfg.FrontendDir = writeFrontend(t)
	cfg.RouteVariant = "login"

	h, err := BuildHandler(nil, cfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	for path, want := range map[string]int{"/login": http.StatusOK, "/": http.StatusNotFound, "/family": http.StatusNotFound} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != want {
			t.Errorf("GET %s: %d, want %d", path, rec.Code, want)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/upload", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("POST /upload without token: %d, want 503", rec.Code)
	}
}

func TestStartup_LoadsLatestRunFromLedger(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	older := time.Now().UTC().Add(-time.Hour)
	fx.CreateRun(ctx, "development", older,
		testutil.Deployed{Label: "market", Address: "0x01"},
		testutil.Deployed{Label: "families", Address: "0x02"},
		testutil.Deployed{Label: "media", Address: "0x03"})
	fx.CreateRun(ctx, "development", older.Add(30*time.Minute),
		testutil.Deployed{Label: "market", Address: "0x11"})
	fx.CreateRun(ctx, "rinkeby", older.Add(40*time.Minute),
		testutil.Deployed{Label: "media", Address: "0x99"})

	cfg := validConfig()
	cfg.MultiBaasAPIKey = ""
	cfg.AddressBookRefresh = 0
	deps := newDeps(db.Client(), db, cfg, testLogger())

	if err := Startup(ctx, nil, cfg, deps, testLogger()); err != nil {
		t.Fatalf("Startup: %v", err)
	}

	want := map[string]models.Address{"market": "0x11", "families": "0x02", "media": "0x03"}
	got := deps.Book.Addresses()
	if len(got) != len(want) {
		t.Fatalf("addresses = %v, want %v", got, want)
	}
	for label, addr := range want {
		if got[label] != addr {
			t.Errorf("%s = %q, want %q", label, got[label], addr)
		}
	}
}

func TestBuildHandler_UploadRateLimitClientIP(t *testing.T) {
	storage := testutil.NewUpstream(t, http.StatusOK, `{"ok":true}`)

	tests := []struct {
		name       string
		trust      bool
		header     string
		wantSecond int
	}{
		{"forwarded header ignored", false, "X-Forwarded-For", http.StatusTooManyRequests},
		{"forwarded header trusted", true, "X-Real-IP", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.FrontendDir = writeFrontend(t)
			cfg.StorageToken = "storage-token"
			cfg.UploadTarget = storage.URL + "/api"
			cfg.UploadRateLimit = 1
			cfg.TrustProxyHeaders = tt.trust

			h, err := BuildHandler(nil, cfg, fakeDeps(&fakeLedger{}), testLogger())
			if err != nil {
				t.Fatalf("BuildHandler: %v", err)
			}

			post := func(client string) int {
				rec := httptest.NewRecorder()
				req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("body"))
				req.RemoteAddr = "10.0.0.1:40000"
				req.Header.Set(tt.header, client)
				h.ServeHTTP(rec, req)
				return rec.Code
			}

			if code := post("198.51.100.1"); code != http.StatusOK {
				t.Fatalf("first upload: %d", code)
			}
			if code := post("198.51.100.2"); code != tt.wantSecond {
				t.Errorf("second upload: %d, want %d", code, tt.wantSecond)
			}
		})
	}
}
