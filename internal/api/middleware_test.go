package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Parallel()

	handler := recoveryMiddleware(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 after panic", w.Code)
	}
}

func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	t.Parallel()

	var seen string
	handler := requestIDMiddleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = requestIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatal("no request ID in context")
	}
	if got := w.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("response header %q != context value %q", got, seen)
	}
}

func TestRequestIDMiddleware_HonorsIncoming(t *testing.T) {
	t.Parallel()

	handler := requestIDMiddleware()(okHandler())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", "upstream-id")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if got := w.Header().Get("X-Request-ID"); got != "upstream-id" {
		t.Errorf("X-Request-ID = %q, want the upstream value preserved", got)
	}
}

func TestCORSMiddleware_AllowedOrigin(t *testing.T) {
	t.Parallel()

	handler := corsMiddleware([]string{"http://localhost:4200"})(okHandler())

	r := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	r.Header.Set("Origin", "http://localhost:4200")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:4200" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q", got)
	}
}

func TestCORSMiddleware_DisallowedOrigin(t *testing.T) {
	t.Parallel()

	handler := corsMiddleware([]string{"http://localhost:4200"})(okHandler())

	r := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	r.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q, want unset for unknown origin", got)
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	t.Parallel()

	handler := corsMiddleware([]string{"http://localhost:4200"})(okHandler())

	r := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	r.Header.Set("Origin", "http://localhost:4200")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); got == "" {
		t.Error("preflight missing Access-Control-Allow-Headers")
	}
}

func TestIdentityMiddleware_MissingHeader(t *testing.T) {
	t.Parallel()

	handler := identityMiddleware()(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/chat", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 without X-User-ID", w.Code)
	}
}

func TestIdentityMiddleware_PropagatesUserID(t *testing.T) {
	t.Parallel()

	var seen string
	handler := identityMiddleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = userIDFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	r.Header.Set("X-User-ID", "  alice  ")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if seen != "alice" {
		t.Errorf("user ID in context = %q, want trimmed %q", seen, "alice")
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		realIP     string
		forwarded  string
		trustProxy bool
		want       string
	}{
		{"direct", "10.0.0.1:12345", "", "", false, "10.0.0.1"},
		{"proxy headers ignored when untrusted", "10.0.0.1:12345", "1.2.3.4", "", false, "10.0.0.1"},
		{"x-real-ip trusted", "10.0.0.1:12345", "1.2.3.4", "", true, "1.2.3.4"},
		{"x-forwarded-for trusted", "10.0.0.1:12345", "", "1.2.3.4, 5.6.7.8", true, "1.2.3.4"},
		{"invalid header falls back", "10.0.0.1:12345", "not-an-ip", "", true, "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
