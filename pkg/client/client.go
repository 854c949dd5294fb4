// Package client is a Go client for the Voyagery API. Beyond plain request helpers it models
// what a browser tab does: it keeps a per-tab identity on top of the shared cookie session,
// guards role-specific views and polls consultation requests.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/voyagery/voyagery-api/pkg/dto"
)

const tabIDHeader = "X-Tab-ID"

var (
	// ErrNotAuthenticated means the server has no identity for this tab.
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrValidation       = errors.New("invalid request")
	// ErrConnection covers transport failures and 5xx answers, so callers can tell an outage
	// apart from bad credentials.
	ErrConnection = errors.New("connection error")
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status   int
	Code     string
	Message  string
	Redirect string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("voyagery: http %d", e.Status)
	}
	return fmt.Sprintf("voyagery: %s (http %d)", e.Message, e.Status)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return ErrNotAuthenticated
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status == http.StatusForbidden:
		return ErrForbidden
	case e.Status == http.StatusBadRequest:
		return ErrValidation
	case e.Status >= http.StatusInternalServerError:
		return ErrConnection
	}
	return nil
}

// Client talks to one Voyagery server. All tabs of one browser share a Client, and with it
// the cookie jar; the tab is named per call.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client. Its Jar must be set for sessions to stick.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Jar: jar, Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) CurrentUser(ctx context.Context, tabID string) (*dto.UserResponse, error) {
	var user dto.UserResponse
	if err := c.do(ctx, http.MethodGet, "/auth/user", tabID, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) DemoLogin(ctx context.Context, tabID, role string) (*dto.LoginResponse, error) {
	var resp dto.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/demo-login", tabID, dto.DemoLoginRequest{Role: role}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ManualLogin(ctx context.Context, tabID, email, name string) (*dto.LoginResponse, error) {
	var resp dto.LoginResponse
	req := dto.ManualLoginRequest{Email: email, Name: name}
	if err := c.do(ctx, http.MethodPost, "/auth/manual-login", tabID, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SetRole(ctx context.Context, tabID, role string) (*dto.LoginResponse, error) {
	var resp dto.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/set-role", tabID, dto.SetRoleRequest{Role: role}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout ends the session for every tab, or with tabOnly just for tabID.
func (c *Client) Logout(ctx context.Context, tabID string, tabOnly bool) error {
	path := "/auth/logout"
	if tabOnly {
		path += "?scope=tab"
	}
	return c.do(ctx, http.MethodGet, path, tabID, nil, nil)
}

func (c *Client) ForgetTab(ctx context.Context, tabID string) error {
	return c.do(ctx, http.MethodDelete, "/auth/tabs/"+url.PathEscape(tabID), tabID, nil, nil)
}

// ListFilter narrows ListGuideSessions. Zero fields are not sent.
type ListFilter struct {
	GuideID       uuid.UUID
	MigrantID     uuid.UUID
	RequestStatus string
}

func (f ListFilter) query() string {
	q := url.Values{}
	if f.GuideID != uuid.Nil {
		q.Set("guideId", f.GuideID.String())
	}
	if f.MigrantID != uuid.Nil {
		q.Set("migrantId", f.MigrantID.String())
	}
	if f.RequestStatus != "" {
		q.Set("requestStatus", f.RequestStatus)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func (c *Client) ListGuideSessions(ctx context.Context, tabID string, filter ListFilter) ([]dto.GuideSessionResponse, error) {
	var out []dto.GuideSessionResponse
	if err := c.do(ctx, http.MethodGet, "/api/guide-sessions"+filter.query(), tabID, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateGuideSession(ctx context.Context, tabID string, req dto.CreateGuideSessionRequest) (*dto.GuideSessionResponse, error) {
	var out dto.GuideSessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/guide-sessions", tabID, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RespondToGuideSession accepts or declines a pending request as its guide.
func (c *Client) RespondToGuideSession(ctx context.Context, tabID string, id uuid.UUID, accept bool) (*dto.RespondResponse, error) {
	action := "decline"
	if accept {
		action = "accept"
	}
	var out dto.RespondResponse
	if err := c.do(ctx, http.MethodPost, "/api/guide-sessions/"+id.String()+"/"+action, tabID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetGuideSession(ctx context.Context, tabID string, id uuid.UUID) (*dto.GuideSessionResponse, error) {
	var out dto.GuideSessionResponse
	if err := c.do(ctx, http.MethodGet, "/api/guide-sessions/"+id.String(), tabID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, tabID string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if tabID != "" {
		req.Header.Set(tabIDHeader, tabID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error    string `json:"error"`
			Code     string `json:"code"`
			Redirect string `json:"redirect"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Message = payload.Error
			apiErr.Code = payload.Code
			apiErr.Redirect = payload.Redirect
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
