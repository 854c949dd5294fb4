package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voyagery/voyagery-api/internal/apperrors"
	"github.com/voyagery/voyagery-api/internal/models"
	"github.com/voyagery/voyagery-api/internal/services"
)

type fakeResolver struct {
	user      *models.User
	err       error
	gotTabID  string
	gotSessID uuid.UUID
}

func (f *fakeResolver) ResolveCurrent(ctx context.Context, sessionID uuid.UUID, tabID string) (*models.User, error) {
	f.gotSessID = sessionID
	f.gotTabID = tabID
	return f.user, f.err
}

func newTestCodec() *services.CookieCodec {
	return services.NewCookieCodec("test-secret-key", time.Hour, false)
}

func sessionCookie(t *testing.T, codec *services.CookieCodec, sessionID uuid.UUID) *http.Cookie {
	t.Helper()
	cookie, err := codec.Cookie(sessionID)
	require.NoError(t, err)
	return cookie
}

func newSessionApp(resolver SessionResolverInterface, codec *services.CookieCodec, extra ...drift.HandlerFunc) http.Handler {
	app := drift.New()
	app.Use(Session(resolver, codec))
	for _, mw := range extra {
		app.Use(mw)
	}
	app.Get("/whoami", func(c *drift.Context) {
		user := GetUser(c)
		name := "anonymous"
		if user != nil {
			name = user.Name
		}
		_ = c.JSON(http.StatusOK, map[string]string{"user": name, "tab": GetTabID(c)})
	})
	return app
}

func TestSession_NoCookieIsAnonymous(t *testing.T) {
	resolver := &fakeResolver{}
	app := newSessionApp(resolver, newTestCodec())

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "anonymous")
	assert.Equal(t, uuid.Nil, resolver.gotSessID)
}

func TestSession_ResolvesUserAndRefreshesCookie(t *testing.T) {
	codec := newTestCodec()
	sessionID := uuid.New()
	resolver := &fakeResolver{user: &models.User{ID: uuid.New(), Name: "Mia", Role: models.RoleMigrant}}
	app := newSessionApp(resolver, codec)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(sessionCookie(t, codec, sessionID))
	req.Header.Set(TabIDHeader, "tab-1")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Mia")
	assert.Equal(t, sessionID, resolver.gotSessID)
	assert.Equal(t, "tab-1", resolver.gotTabID)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), services.SessionCookieName+"=")
}

func TestSession_IgnoresMalformedTabID(t *testing.T) {
	codec := newTestCodec()
	resolver := &fakeResolver{user: &models.User{ID: uuid.New(), Name: "Mia"}}
	app := newSessionApp(resolver, codec)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(sessionCookie(t, codec, uuid.New()))
	req.Header.Set(TabIDHeader, "../../etc/passwd")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", resolver.gotTabID)
}

func TestSession_TamperedCookieIsCleared(t *testing.T) {
	resolver := &fakeResolver{}
	app := newSessionApp(resolver, newTestCodec())

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: services.SessionCookieName, Value: "tampered"})
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "anonymous")
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestSession_ExpiredSessionIsAnonymous(t *testing.T) {
	codec := newTestCodec()
	resolver := &fakeResolver{err: apperrors.NotAuthenticated("session expired")}
	app := newSessionApp(resolver, codec)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(sessionCookie(t, codec, uuid.New()))
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "anonymous")
}

func TestSession_StoreFailureIsInternalError(t *testing.T) {
	codec := newTestCodec()
	resolver := &fakeResolver{err: errors.New("connection refused")}
	app := newSessionApp(resolver, codec)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(sessionCookie(t, codec, uuid.New()))
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestRequireAuth_RejectsAnonymous(t *testing.T) {
	app := newSessionApp(&fakeResolver{}, newTestCodec(), RequireAuth())

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_AUTHENTICATED")
}
