package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/learnhub/internal/testutil"
	"github.com/dalemusser/waffle/config"
)

func TestBuildHandler_Routes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	t.Cleanup(stopBackground)

	cfg := validAppConfig()
	deps := DBDeps{LearnHubMongoClient: db.Client(), LearnHubMongoDatabase: db}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := EnsureSchema(ctx, &config.CoreConfig{Env: "dev"}, cfg, deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, cfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{"GET", "/health", "", http.StatusOK},
		{"POST", "/api/user/login", `{}`, http.StatusBadRequest},
		{"POST", "/api/user/logout", "", http.StatusOK},
		{"GET", "/api/user/me", "", http.StatusUnauthorized},
		{"POST", "/api/user/register", `{}`, http.StatusBadRequest},
		{"POST", "/api/user/verify", `{}`, http.StatusBadRequest},
		{"POST", "/api/user/forgot", `{}`, http.StatusBadRequest},
		{"POST", "/api/user/reset", `{}`, http.StatusBadRequest},
		{"GET", "/api/auth/google", "", http.StatusSeeOther},
		{"GET", "/api/admin/users", "", http.StatusUnauthorized},
		{"GET", "/api/admin/audit", "", http.StatusUnauthorized},
		{"PUT", "/api/admin/user/64b7f0c2a1b2c3d4e5f60718", `{"role":"superadmin"}`, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestBuildHandler_CORSPreflight(t *testing.T) {
	db := testutil.SetupTestDB(t)
	t.Cleanup(stopBackground)

	cfg := validAppConfig()
	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, cfg,
		DBDeps{LearnHubMongoClient: db.Client(), LearnHubMongoDatabase: db}, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	req := httptest.NewRequest("OPTIONS", "/api/user/login", nil)
	req.Header.Set("Origin", cfg.FrontendURL)
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != cfg.FrontendURL {
		t.Errorf("Allow-Origin: got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials: got %q", got)
	}
}
