package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voyagery/voyagery-api/pkg/dto"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_SendsTabHeaderAndKeepsCookies(t *testing.T) {
	var seenTabs []string
	var seenCookie string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenTabs = append(seenTabs, r.Header.Get(tabIDHeader))
		switch r.URL.Path {
		case "/auth/demo-login":
			var req dto.DemoLoginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "guide", req.Role)
			http.SetCookie(w, &http.Cookie{Name: "voyagery_session", Value: "signed", Path: "/"})
			writeJSON(w, http.StatusOK, dto.LoginResponse{
				Success:  true,
				User:     dto.UserResponse{ID: uuid.New(), Role: "guide"},
				Redirect: "/guide/dashboard",
			})
		case "/auth/user":
			if c, err := r.Cookie("voyagery_session"); err == nil {
				seenCookie = c.Value
			}
			writeJSON(w, http.StatusOK, dto.UserResponse{ID: uuid.New(), Role: "guide"})
		}
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	resp, err := c.DemoLogin(context.Background(), "tab-a", "guide")
	require.NoError(t, err)
	assert.Equal(t, "/guide/dashboard", resp.Redirect)

	_, err = c.CurrentUser(context.Background(), "tab-b")
	require.NoError(t, err)

	assert.Equal(t, []string{"tab-a", "tab-b"}, seenTabs)
	assert.Equal(t, "signed", seenCookie)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     map[string]string
		sentinel error
		redirect string
	}{
		{"unauthenticated", http.StatusUnauthorized, map[string]string{"error": "Not authenticated", "code": "NOT_AUTHENTICATED"}, ErrNotAuthenticated, ""},
		{"wrong role", http.StatusForbidden, map[string]string{"error": "forbidden", "code": "FORBIDDEN", "redirect": "/guide/dashboard"}, ErrForbidden, "/guide/dashboard"},
		{"missing", http.StatusNotFound, map[string]string{"error": "guide session not found"}, ErrNotFound, ""},
		{"invalid", http.StatusBadRequest, map[string]string{"error": "purpose is required"}, ErrValidation, ""},
		{"server failure", http.StatusInternalServerError, map[string]string{"error": "internal server error"}, ErrConnection, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}))
			defer srv.Close()

			c, err := New(srv.URL)
			require.NoError(t, err)

			_, err = c.GetGuideSession(context.Background(), "tab", uuid.New())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.body["error"], apiErr.Message)
			assert.Equal(t, tt.redirect, apiErr.Redirect)
		})
	}
}

func TestClient_TransportFailureIsConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(url)
	require.NoError(t, err)

	_, err = c.CurrentUser(context.Background(), "tab")
	assert.ErrorIs(t, err, ErrConnection)
	assert.NotErrorIs(t, err, ErrNotAuthenticated)
}

func TestClient_ListGuideSessionsQuery(t *testing.T) {
	guideID := uuid.New()
	var query string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/guide-sessions", r.URL.Path)
		query = r.URL.RawQuery
		writeJSON(w, http.StatusOK, []dto.GuideSessionResponse{{ID: uuid.New(), GuideID: guideID, RequestStatus: "pending"}})
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	sessions, err := c.ListGuideSessions(context.Background(), "tab", ListFilter{GuideID: guideID, RequestStatus: "pending"})
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
	assert.Equal(t, "guideId="+guideID.String()+"&requestStatus=pending", query)
}

func TestClient_RespondAndLogoutPaths(t *testing.T) {
	id := uuid.New()
	var calls []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.RequestURI())
		switch {
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/auth/logout":
			writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
		default:
			writeJSON(w, http.StatusOK, dto.RespondResponse{RequestStatus: "declined"})
		}
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	resp, err := c.RespondToGuideSession(ctx, "tab", id, false)
	require.NoError(t, err)
	assert.Equal(t, "declined", resp.RequestStatus)

	_, err = c.RespondToGuideSession(ctx, "tab", id, true)
	require.NoError(t, err)
	require.NoError(t, c.Logout(ctx, "tab", true))
	require.NoError(t, c.Logout(ctx, "tab", false))
	require.NoError(t, c.ForgetTab(ctx, "tab"))

	assert.Equal(t, []string{
		"POST /api/guide-sessions/" + id.String() + "/decline",
		"POST /api/guide-sessions/" + id.String() + "/accept",
		"GET /auth/logout?scope=tab",
		"GET /auth/logout",
		"DELETE /auth/tabs/tab",
	}, calls)
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New("not a url")
	assert.Error(t, err)
}
