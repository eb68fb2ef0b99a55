package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler(t *testing.T, called *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireInternalJobToken_Unconfigured(t *testing.T) {
	t.Parallel()

	called := false
	handler := RequireInternalJobToken("  ", okHandler(t, &called))

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/refresh", nil)
	req.Header.Set("X-Internal-Job-Token", "anything")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if called {
		t.Fatal("next handler should not run when no token is configured")
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestRequireInternalJobToken_Invalid(t *testing.T) {
	t.Parallel()

	called := false
	handler := RequireInternalJobToken("secret", okHandler(t, &called))

	for _, provided := range []string{"", "wrong"} {
		req := httptest.NewRequest(http.MethodPost, "/v1/internal/refresh", nil)
		if provided != "" {
			req.Header.Set("X-Internal-Job-Token", provided)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if called {
			t.Fatalf("next handler should not run for token %q", provided)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for token %q, got %d", provided, rec.Code)
		}
	}
}

func TestRequireInternalJobToken_Valid(t *testing.T) {
	t.Parallel()

	called := false
	handler := RequireInternalJobToken("secret", okHandler(t, &called))

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/refresh", nil)
	req.Header.Set("X-Internal-Job-Token", " secret ")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatal("next handler should run with a valid token")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCORS_AllowedOrigin(t *testing.T) {
	t.Parallel()

	called := false
	handler := CORS([]string{"https://app.example.com"}, okHandler(t, &called))

	req := httptest.NewRequest(http.MethodGet, "/v1/injuries", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatal("next handler should run for allowed origin")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("unexpected allow-origin header: %q", got)
	}
	if got := rec.Header().Get("Vary"); got != "Origin" {
		t.Fatalf("expected Vary: Origin, got %q", got)
	}
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	t.Parallel()

	called := false
	handler := CORS([]string{"https://app.example.com"}, okHandler(t, &called))

	req := httptest.NewRequest(http.MethodGet, "/v1/injuries", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatal("disallowed origins still reach the handler, just without CORS headers")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("allow-origin should be absent, got %q", got)
	}
}

func TestCORS_Wildcard(t *testing.T) {
	t.Parallel()

	called := false
	handler := CORS([]string{"*"}, okHandler(t, &called))

	req := httptest.NewRequest(http.MethodGet, "/v1/injuries", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard allow-origin, got %q", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	t.Parallel()

	called := false
	handler := CORS([]string{"https://app.example.com"}, okHandler(t, &called))

	req := httptest.NewRequest(http.MethodOptions, "/v1/chat", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if called {
		t.Fatal("preflight requests should short-circuit before the handler")
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Fatal("expected allow-methods header on preflight")
	}
}

func TestShouldTraceRequest(t *testing.T) {
	t.Parallel()

	for path, want := range map[string]bool{
		"/healthz":    false,
		"/HEALTHZ":    false,
		"/readyz":     false,
		"/v1/chat":    true,
		"/v1/teams/1": true,
	} {
		if got := shouldTraceRequest(path); got != want {
			t.Fatalf("shouldTraceRequest(%q) = %v, want %v", path, got, want)
		}
	}
}
