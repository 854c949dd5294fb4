package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/voyagery/voyagery-api/internal/services"
)

const testSessionSecret = "test-secret-key-for-testing-only"

// TestCookieCodec signs with a fixed secret, so cookies from SessionCookie decode in any test.
func TestCookieCodec() *services.CookieCodec {
	return services.NewCookieCodec(testSessionSecret, 24*time.Hour, false)
}

func SessionCookie(t *testing.T, sessionID uuid.UUID) *http.Cookie {
	t.Helper()
	cookie, err := TestCookieCodec().Cookie(sessionID)
	if err != nil {
		t.Fatalf("failed to sign session cookie: %v", err)
	}
	return cookie
}

// ResponseCookie returns the last cookie named name set on the response, or nil.
func ResponseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			found = c
		}
	}
	return found
}
