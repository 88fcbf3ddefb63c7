package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"callagent-platform/internal/agents"
	"callagent-platform/internal/audit"
	"callagent-platform/internal/auth"
	"callagent-platform/internal/calls"
	"callagent-platform/internal/config"
	"callagent-platform/internal/leads"
	"callagent-platform/internal/reporting"

	"github.com/gin-gonic/gin"
)

func init() { gin.SetMode(gin.TestMode) }

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	mgr, err := auth.NewManager(config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("auth manager: %v", err)
	}

	callStore := calls.NewMemoryStore()
	leadRepo := leads.NewMemoryRepo()
	auditSvc := audit.NewService(audit.NewMemoryRepo())

	deps := appDeps{
		cfg:         config.Config{},
		authManager: mgr,
		tracker:     calls.NewTracker(callStore, nil, auditSvc),
		callStore:   callStore,
		agents:      agents.NewService(agents.NewMemoryRepo()),
		leads:       leads.NewService(leadRepo, nil, callStore, auditSvc),
		reporting:   reporting.NewService(reporting.NewStoreRepo(callStore, leadRepo)),
		audit:       auditSvc,
	}

	r := gin.New()
	registerRoutes(r, deps)
	return r
}

func TestLoginIsReachableWithoutToken(t *testing.T) {
	r := newTestRouter(t)

	body := bytes.NewBufferString(`{"user_id":"u1","role":"owner"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("login without bearer token: status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{"/v1/me", "/v1/agents", "/v1/calls"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("GET %s without token: status = %d, want 401", path, w.Code)
		}
	}
}

func TestHealthzIsPublic(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", w.Code)
	}
}
