package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

type mockTokenVerifier struct {
	parseFn func(token string) (*domain.TokenClaims, error)
}

func (m *mockTokenVerifier) GenerateToken(claims *domain.TokenClaims) (string, error) {
	return "token-for-" + claims.Subject, nil
}

func (m *mockTokenVerifier) ParseToken(token string) (*domain.TokenClaims, error) {
	if m.parseFn != nil {
		return m.parseFn(token)
	}
	return nil, domain.ErrTokenInvalid
}

// scopedVerifier accepts "<scope>-token" for the extract and admin scopes
func scopedVerifier() *mockTokenVerifier {
	return &mockTokenVerifier{parseFn: func(token string) (*domain.TokenClaims, error) {
		switch token {
		case "extract-token":
			return &domain.TokenClaims{Subject: "worker", Scopes: []string{domain.ScopeExtract}}, nil
		case "admin-token":
			return &domain.TokenClaims{Subject: "ops", Scopes: []string{domain.ScopeAdmin}}, nil
		case "expired-token":
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{
			name:     "valid bearer token",
			header:   "Bearer abc123",
			expected: "abc123",
		},
		{
			name:     "bearer with extra spaces",
			header:   "Bearer   token-with-spaces   ",
			expected: "token-with-spaces",
		},
		{
			name:     "lowercase bearer",
			header:   "bearer token123",
			expected: "token123",
		},
		{
			name:     "empty header",
			header:   "",
			expected: "",
		},
		{
			name:     "no bearer prefix",
			header:   "token123",
			expected: "",
		},
		{
			name:     "basic auth",
			header:   "Basic dXNlcjpwYXNz",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			result := extractBearerToken(req)
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestGetClaims(t *testing.T) {
	if GetClaims(context.TODO()) != nil {
		t.Error("expected nil for empty context")
	}

	claims := &domain.TokenClaims{Subject: "worker"}
	ctx := context.WithValue(context.Background(), claimsContextKey, claims)
	result := GetClaims(ctx)
	if result == nil {
		t.Fatal("expected claims to be returned")
	}
	if result.Subject != "worker" {
		t.Errorf("expected subject worker, got %s", result.Subject)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	middleware := NewLoggingMiddleware(nil)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()

	middleware.Handler(handler).ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Errorf("expected status 418, got %d", rr.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	middleware := NewRecoveryMiddleware(nil)

	// Handler that panics
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()

	// Should not panic
	middleware.Handler(handler).ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rr.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	middleware := NewCORSMiddleware([]string{"https://example.com"})

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("OPTIONS", "/api/v1/extract", nil)
	req.Header.Set("Origin", "https://example.com")
	rr := httptest.NewRecorder()

	middleware.Handler(handler).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("expected status 204 for preflight, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "https://example.com" {
		t.Error("expected allow-origin header")
	}

	req = httptest.NewRequest("GET", "/api/v1/formats", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = httptest.NewRecorder()
	middleware.Handler(handler).ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("expected no allow-origin header for disallowed origin")
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	middleware := NewAuthMiddleware(nil)

	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	})

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	middleware.Authenticate(middleware.RequireScope(domain.ScopeAdmin)(handler)).ServeHTTP(rr, req)

	if !handlerCalled {
		t.Error("expected handler to be called without a verifier")
	}
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	middleware := NewAuthMiddleware(scopedVerifier())

	tests := []struct {
		name   string
		header string
		scope  string
		status int
	}{
		{"missing token", "", domain.ScopeExtract, http.StatusUnauthorized},
		{"invalid token", "Bearer nope", domain.ScopeExtract, http.StatusUnauthorized},
		{"expired token", "Bearer expired-token", domain.ScopeExtract, http.StatusUnauthorized},
		{"extract scope", "Bearer extract-token", domain.ScopeExtract, http.StatusOK},
		{"extract token on admin route", "Bearer extract-token", domain.ScopeAdmin, http.StatusForbidden},
		{"admin implies extract", "Bearer admin-token", domain.ScopeExtract, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if GetClaims(r.Context()) == nil {
					t.Error("expected claims to be set")
				}
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("GET", "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			middleware.Authenticate(middleware.RequireScope(tt.scope)(handler)).ServeHTTP(rr, req)

			if rr.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rr.Code)
			}
		})
	}
}

func TestResponseWriter(t *testing.T) {
	rr := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rr, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusNotFound)

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("expected captured status 404, got %d", rw.statusCode)
	}
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected recorder status 404, got %d", rr.Code)
	}
}
