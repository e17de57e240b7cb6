package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func echoEmail(w http.ResponseWriter, r *http.Request) {
	email, ok := GetCustomerEmail(r.Context())
	if !ok {
		email = "anonymous"
	}
	_, _ = w.Write([]byte(email))
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "valid", header: "Alice@Example.com", status: http.StatusOK, body: "alice@example.com"},
		{name: "missing", header: "", status: http.StatusUnauthorized},
		{name: "malformed", header: "alice", status: http.StatusUnauthorized},
		{name: "display name", header: "Alice <alice@example.com>", status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(CustomerEmailHeader, tt.header)
			}
			rec := httptest.NewRecorder()

			Auth(http.HandlerFunc(echoEmail)).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	h := OptionalAuth(http.HandlerFunc(echoEmail))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "anonymous", rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CustomerEmailHeader, "bob@example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "bob@example.com", rec.Body.String())
}

func TestAdminToken(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name       string
		configured string
		sent       string
		status     int
	}{
		{name: "match", configured: "s3cret", sent: "s3cret", status: http.StatusNoContent},
		{name: "mismatch", configured: "s3cret", sent: "guess", status: http.StatusForbidden},
		{name: "missing", configured: "s3cret", sent: "", status: http.StatusForbidden},
		{name: "not configured", configured: "", sent: "", status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.sent != "" {
				req.Header.Set(AdminTokenHeader, tt.sent)
			}
			rec := httptest.NewRecorder()

			AdminToken(tt.configured)(ok).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
