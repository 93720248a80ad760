package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSecureHeaders(t *testing.T) {
	for _, prod := range []bool{false, true} {
		rec := httptest.NewRecorder()
		SecureHeaders(prod)(http.HandlerFunc(noContent)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/payslips/x/download", nil))

		if got := rec.Header().Get("Cache-Control"); got != "no-store" {
			t.Fatalf("prod=%v: expected no-store, got %q", prod, got)
		}
		if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
			t.Fatalf("prod=%v: expected nosniff, got %q", prod, got)
		}
		if hsts := rec.Header().Get("Strict-Transport-Security"); (hsts != "") != prod {
			t.Fatalf("prod=%v: unexpected HSTS header %q", prod, hsts)
		}
	}
}
