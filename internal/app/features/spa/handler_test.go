package spa_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dalemusser/nftjr/internal/app/features/spa"
	"github.com/dalemusser/nftjr/internal/app/system/clientroutes"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func writeDist(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html":  "<!doctype html><div id=app></div>",
		"favicon.ico": "icon",
		"js/app.js":   "console.log('app')",
	}
	for name, body := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newRouter(t *testing.T, variant clientroutes.Variant) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	spa.Register(r, spa.NewHandler(writeDist(t), clientroutes.Routes(variant), zap.NewNop()))
	return r
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestStoreVariant(t *testing.T) {
	h := newRouter(t, clientroutes.Store)

	for _, p := range []string{"/", "/login", "/family", "/upload"} {
		rec := get(h, p)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: status %d, want 200", p, rec.Code)
			continue
		}
		if !strings.Contains(rec.Body.String(), `id=app`) {
			t.Errorf("GET %s: did not serve index.html", p)
		}
	}

	if rec := get(h, "/admin"); rec.Code != http.StatusNotFound {
		t.Errorf("GET /admin: status %d, want 404", rec.Code)
	}
}

func TestLoginVariant(t *testing.T) {
	h := newRouter(t, clientroutes.Login)

	if rec := get(h, "/login"); rec.Code != http.StatusOK {
		t.Errorf("GET /login: status %d, want 200", rec.Code)
	}
	for _, p := range []string{"/", "/family", "/upload"} {
		if rec := get(h, p); rec.Code != http.StatusNotFound {
			t.Errorf("GET %s: status %d, want 404", p, rec.Code)
		}
	}
}

func TestFavicon(t *testing.T) {
	h := newRouter(t, clientroutes.Login)
	rec := get(h, "/favicon.ico")
	if rec.Code != http.StatusOK || rec.Body.String() != "icon" {
		t.Errorf("GET /favicon.ico: status %d body %q", rec.Code, rec.Body.String())
	}
}

func TestCheckDir(t *testing.T) {
	if err := spa.CheckDir(writeDist(t)); err != nil {
		t.Errorf("CheckDir on a build: %v", err)
	}
	if err := spa.CheckDir(t.TempDir()); err == nil {
		t.Error("CheckDir on an empty dir: want error")
	}
}

func TestAssets(t *testing.T) {
	h := newRouter(t, clientroutes.Login)
	rec := get(h, "/js/app.js")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /js/app.js: status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "console.log") {
		t.Errorf("GET /js/app.js: body %q", rec.Body.String())
	}
}
