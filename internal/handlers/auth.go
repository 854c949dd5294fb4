package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/voyagery/voyagery-api/internal/access"
	"github.com/voyagery/voyagery-api/internal/apperrors"
	"github.com/voyagery/voyagery-api/internal/config"
	"github.com/voyagery/voyagery-api/internal/middleware"
	"github.com/voyagery/voyagery-api/internal/models"
	"github.com/voyagery/voyagery-api/internal/oauth"
	"github.com/voyagery/voyagery-api/internal/services"
	"github.com/voyagery/voyagery-api/pkg/dto"
)

const (
	stateTTL         = 10 * time.Minute
	oauthExchangeTTL = 30 * time.Second
	loginErrorPath   = "/login"
)

type AuthHandler struct {
	cfg         *config.Config
	providers   map[string]oauth.Provider
	userService UserServiceInterface
	authService AuthServiceInterface
	cookies     *services.CookieCodec
	states      *oauth.StateStore
}

func NewAuthHandler(
	cfg *config.Config,
	userService UserServiceInterface,
	authService AuthServiceInterface,
	cookies *services.CookieCodec,
) *AuthHandler {
	h := &AuthHandler{
		cfg:         cfg,
		providers:   make(map[string]oauth.Provider),
		userService: userService,
		authService: authService,
		cookies:     cookies,
		states:      oauth.NewStateStore(stateTTL),
	}

	if cfg.Google.ClientID != "" {
		h.RegisterProvider(oauth.NewGoogleProvider(cfg.Google))
	}

	return h
}

func (h *AuthHandler) RegisterProvider(p oauth.Provider) {
	h.providers[p.Name()] = p
}

// Providers lists the configured OAuth provider names in a stable order.
func (h *AuthHandler) Providers() []string {
	names := make([]string, 0, len(h.providers))
	for name := range h.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunStateCleanup drops abandoned OAuth states until ctx is done.
func (h *AuthHandler) RunStateCleanup(ctx context.Context) {
	h.states.Run(ctx, time.Minute)
}

func (h *AuthHandler) ListProviders(c *drift.Context) {
	_ = c.JSON(200, dto.ProvidersResponse{
		Providers: h.Providers(),
		DemoLogin: h.cfg.EnableDemoLogin,
	})
}

// Begin sends the browser to the provider's consent page. The requested role and the tab that
// started the login travel with the state, not through the provider.
func (h *AuthHandler) Begin(provider string) drift.HandlerFunc {
	return func(c *drift.Context) {
		p, ok := h.providers[provider]
		if !ok {
			respondError(c, apperrors.NotFound("unsupported provider: "+provider))
			return
		}

		role := models.Role(c.QueryParam("role"))
		if role != "" && !models.IsValidRole(role) {
			respondError(c, apperrors.Validation("invalid role"))
			return
		}

		state, err := h.states.Issue(oauth.PendingLogin{Role: role, TabID: middleware.GetTabID(c)})
		if err != nil {
			respondError(c, err)
			return
		}

		h.redirect(c, p.GetConsentURL(state))
	}
}

func (h *AuthHandler) Callback(provider string) drift.HandlerFunc {
	return func(c *drift.Context) {
		p, ok := h.providers[provider]
		if !ok {
			h.redirectWithError(c, "unsupported provider")
			return
		}

		state := c.QueryParam("state")
		if state == "" {
			h.redirectWithError(c, "missing state parameter")
			return
		}

		pending, ok := h.states.Consume(state)
		if !ok {
			h.redirectWithError(c, "invalid or expired state")
			return
		}

		if providerErr := c.QueryParam("error"); providerErr != "" {
			h.redirectWithError(c, "sign-in was cancelled")
			return
		}

		code := c.QueryParam("code")
		if code == "" {
			h.redirectWithError(c, "missing authorization code")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), oauthExchangeTTL)
		defer cancel()

		userInfo, err := p.ExchangeCode(ctx, code)
		if err != nil {
			slog.Warn("oauth code exchange failed", "provider", provider, "error", err)
			h.redirectWithError(c, "failed to exchange code")
			return
		}

		user, err := h.userService.FindOrCreateFromOAuth(ctx, userInfo, pending.Role)
		if err != nil {
			if apperrors.MapErrorToHTTP(err).IsInternal() {
				slog.Error("oauth user provisioning failed", "provider", provider, "error", err)
			}
			h.redirectWithError(c, "failed to sign in")
			return
		}

		if err := h.startSession(c, user, pending.TabID); err != nil {
			slog.Error("failed to start session", "user_id", user.ID, "error", err)
			h.redirectWithError(c, "failed to start session")
			return
		}

		h.redirect(c, h.cfg.FrontendURL+access.HomePath(user.Role))
	}
}

func (h *AuthHandler) DemoLogin(c *drift.Context) {
	if !h.cfg.EnableDemoLogin {
		respondError(c, apperrors.NotFound("demo login is disabled"))
		return
	}

	var req dto.DemoLoginRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.userService.DemoLogin(c.Request.Context(), models.Role(req.Role))
	if err != nil {
		respondError(c, err)
		return
	}

	h.completeLogin(c, user)
}

// ManualLogin signs in an existing user by email or name. It has no credential check, so it is
// only mounted alongside demo login.
func (h *AuthHandler) ManualLogin(c *drift.Context) {
	if !h.cfg.EnableDemoLogin {
		respondError(c, apperrors.NotFound("manual login is disabled"))
		return
	}

	var req dto.ManualLoginRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.userService.ManualLogin(c.Request.Context(), req.Email, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	h.completeLogin(c, user)
}

func (h *AuthHandler) CurrentUser(c *drift.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		respondError(c, apperrors.NotAuthenticated("Not authenticated"))
		return
	}

	_ = c.JSON(200, toUserResponse(user))
}

func (h *AuthHandler) SetRole(c *drift.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		respondError(c, apperrors.NotAuthenticated("Not authenticated"))
		return
	}

	var req dto.SetRoleRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.userService.AssignRole(c.Request.Context(), user.ID, models.Role(req.Role))
	if err != nil {
		respondError(c, err)
		return
	}

	_ = c.JSON(200, dto.LoginResponse{
		Success:  true,
		User:     toUserResponse(updated),
		Redirect: access.HomePath(updated.Role),
	})
}

// Logout ends the whole session, or with ?scope=tab only the calling tab's login.
func (h *AuthHandler) Logout(c *drift.Context) {
	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		_ = c.JSON(200, dto.MessageResponse{Message: "logged out"})
		return
	}

	if c.QueryParam("scope") == "tab" {
		if err := h.authService.Logout(c.Request.Context(), sessionID, middleware.GetTabID(c), true); err != nil {
			respondError(c, err)
			return
		}
		_ = c.JSON(200, dto.MessageResponse{Message: "logged out of this tab"})
		return
	}

	if err := h.authService.Logout(c.Request.Context(), sessionID, "", false); err != nil {
		respondError(c, err)
		return
	}
	http.SetCookie(c.Response, h.cookies.ClearCookie())
	_ = c.JSON(200, dto.MessageResponse{Message: "logged out"})
}

// ForgetTab is called when a tab closes so its binding does not linger until expiry.
func (h *AuthHandler) ForgetTab(c *drift.Context) {
	tabID := c.Param("tabId")
	if !middleware.ValidTabID(tabID) {
		respondError(c, apperrors.Validation("invalid tab id"))
		return
	}

	if sessionID, ok := middleware.GetSessionID(c); ok {
		if err := h.authService.ForgetTab(c.Request.Context(), sessionID, tabID); err != nil {
			respondError(c, err)
			return
		}
	}

	c.Response.WriteHeader(http.StatusNoContent)
	c.Abort()
}

func (h *AuthHandler) completeLogin(c *drift.Context, user *models.User) {
	if err := h.startSession(c, user, middleware.GetTabID(c)); err != nil {
		respondError(c, err)
		return
	}

	_ = c.JSON(200, dto.LoginResponse{
		Success:  true,
		User:     toUserResponse(user),
		Redirect: access.HomePath(user.Role),
	})
}

func (h *AuthHandler) startSession(c *drift.Context, user *models.User, tabID string) error {
	var existing *uuid.UUID
	if sessionID, ok := middleware.GetSessionID(c); ok {
		existing = &sessionID
	}

	session, err := h.authService.Login(c.Request.Context(), existing, tabID, user.ID)
	if err != nil {
		return err
	}

	cookie, err := h.cookies.Cookie(session.ID)
	if err != nil {
		return err
	}
	http.SetCookie(c.Response, cookie)
	return nil
}

func (h *AuthHandler) redirect(c *drift.Context, location string) {
	http.Redirect(c.Response, c.Request, location, http.StatusFound)
	c.Abort()
}

func (h *AuthHandler) redirectWithError(c *drift.Context, errMsg string) {
	h.redirect(c, h.cfg.FrontendURL+loginErrorPath+"?error="+url.QueryEscape(errMsg))
}
