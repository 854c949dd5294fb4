package services

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/voyagery/voyagery-api/internal/apperrors"
)

const (
	SessionCookieName = "voyagery.sid"
	cookieIssuer      = "voyagery-api"
)

// CookieCodec signs and verifies the session cookie. The cookie carries only the session id;
// identity lives server side.
type CookieCodec struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

func NewCookieCodec(secret string, ttl time.Duration, secure bool) *CookieCodec {
	return &CookieCodec{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
	}
}

func (c *CookieCodec) Encode(sessionID uuid.UUID) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    cookieIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session cookie: %w", err)
	}
	return signed, nil
}

// Decode returns the session id of a cookie value. Any tampered, expired or malformed value
// is reported as not authenticated.
func (c *CookieCodec) Decode(value string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(value, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithIssuer(cookieIssuer))
	if err != nil {
		return uuid.Nil, apperrors.NotAuthenticated("invalid session cookie")
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return uuid.Nil, apperrors.NotAuthenticated("invalid session cookie")
	}

	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return uuid.Nil, apperrors.NotAuthenticated("invalid session cookie")
	}
	return sessionID, nil
}

// Cookie builds the session cookie. Every call restarts the expiry window.
func (c *CookieCodec) Cookie(sessionID uuid.UUID) (*http.Cookie, error) {
	value, err := c.Encode(sessionID)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		Expires:  time.Now().Add(c.ttl),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

func (c *CookieCodec) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (c *CookieCodec) TTL() time.Duration {
	return c.ttl
}
