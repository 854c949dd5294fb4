package middleware

import (
	"context"
	"errors"
	"net/http"
	"regexp"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/voyagery/voyagery-api/internal/apperrors"
	"github.com/voyagery/voyagery-api/internal/logging"
	"github.com/voyagery/voyagery-api/internal/models"
	"github.com/voyagery/voyagery-api/internal/services"
)

const (
	UserKey      = "user"
	SessionIDKey = "session_id"
	TabIDKey     = "tab_id"

	TabIDHeader = "X-Tab-ID"
)

var tabIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidTabID reports whether id is acceptable as a tab identifier.
func ValidTabID(id string) bool {
	return tabIDPattern.MatchString(id)
}

// SessionResolverInterface defines what the session middleware needs from the auth service
type SessionResolverInterface interface {
	ResolveCurrent(ctx context.Context, sessionID uuid.UUID, tabID string) (*models.User, error)
}

// Session identifies the caller from the session cookie and the tab header. It never rejects a
// request on its own; RequireAuth and RequireRole do that.
func Session(resolver SessionResolverInterface, codec *services.CookieCodec) drift.HandlerFunc {
	return func(c *drift.Context) {
		tabID := c.GetHeader(TabIDHeader)
		if !tabIDPattern.MatchString(tabID) {
			tabID = ""
		}
		if tabID == "" {
			tabID = c.QueryParam("tabId")
			if !tabIDPattern.MatchString(tabID) {
				tabID = ""
			}
		}
		c.Set(TabIDKey, tabID)

		cookie, err := c.Request.Cookie(services.SessionCookieName)
		if err != nil {
			c.Next()
			return
		}

		sessionID, err := codec.Decode(cookie.Value)
		if err != nil {
			http.SetCookie(c.Response, codec.ClearCookie())
			c.Next()
			return
		}
		c.Set(SessionIDKey, sessionID)

		user, err := resolver.ResolveCurrent(c.Request.Context(), sessionID, tabID)
		switch {
		case err == nil:
			c.Set(UserKey, user)
			if refreshed, err := codec.Cookie(sessionID); err == nil {
				http.SetCookie(c.Response, refreshed)
			}
		case errors.Is(err, apperrors.ErrNotAuthenticated):
		default:
			logging.CaptureError("session resolution failed", err, "session_id", sessionID)
			Abort(c, err)
			return
		}

		c.Next()
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth() drift.HandlerFunc {
	return func(c *drift.Context) {
		if GetUser(c) == nil {
			Abort(c, apperrors.NotAuthenticated(""))
			return
		}
		c.Next()
	}
}

// Abort writes err as a JSON error response and stops the chain.
func Abort(c *drift.Context, err error) {
	httpErr := apperrors.MapErrorToHTTP(err)
	_ = c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
	c.Abort()
}

func GetUser(c *drift.Context) *models.User {
	if v, ok := c.Get(UserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

func GetUserID(c *drift.Context) uuid.UUID {
	if user := GetUser(c); user != nil {
		return user.ID
	}
	return uuid.Nil
}

func GetSessionID(c *drift.Context) (uuid.UUID, bool) {
	if v, ok := c.Get(SessionIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id, true
		}
	}
	return uuid.Nil, false
}

func GetTabID(c *drift.Context) string {
	if v, ok := c.Get(TabIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
