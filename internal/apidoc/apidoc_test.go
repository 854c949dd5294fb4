package apidoc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// routes mirrors the router in internal/server.
var routes = []struct {
	method string
	path   string
}{
	{http.MethodGet, "/auth/providers"},
	{http.MethodGet, "/auth/google"},
	{http.MethodGet, "/auth/google/callback"},
	{http.MethodPost, "/auth/demo-login"},
	{http.MethodPost, "/auth/manual-login"},
	{http.MethodGet, "/auth/user"},
	{http.MethodPost, "/auth/set-role"},
	{http.MethodGet, "/auth/logout"},
	{http.MethodDelete, "/auth/tabs/{tabId}"},
	{http.MethodGet, "/api/health"},
	{http.MethodGet, "/api/openapi.json"},
	{http.MethodGet, "/api/guide-sessions"},
	{http.MethodPost, "/api/guide-sessions"},
	{http.MethodGet, "/api/guide-sessions/{id}"},
	{http.MethodPatch, "/api/guide-sessions/{id}"},
	{http.MethodDelete, "/api/guide-sessions/{id}"},
	{http.MethodPost, "/api/guide-sessions/{id}/accept"},
	{http.MethodPost, "/api/guide-sessions/{id}/decline"},
	{http.MethodPost, "/api/guide-sessions/{id}/complete"},
	{http.MethodPost, "/api/documents/upload"},
	{http.MethodGet, "/api/documents"},
	{http.MethodGet, "/api/documents/download/{fileId}"},
	{http.MethodDelete, "/api/documents/{id}"},
	{http.MethodGet, "/api/profiles/{userId}"},
	{http.MethodPatch, "/api/profiles/me"},
	{http.MethodGet, "/api/guides"},
	{http.MethodGet, "/api/notifications"},
	{http.MethodPatch, "/api/notifications/{id}"},
	{http.MethodPost, "/api/notifications/read-all"},
	{http.MethodGet, "/api/reviews"},
	{http.MethodPost, "/api/reviews"},
	{http.MethodGet, "/api/messages"},
	{http.MethodPost, "/api/messages"},
	{http.MethodGet, "/api/dashboard/stats"},
}

func TestLoad(t *testing.T) {
	doc, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Voyagery API", doc.Info.Title)
}

func TestDocumentCoversRoutes(t *testing.T) {
	doc, err := Load(context.Background())
	require.NoError(t, err)

	for _, r := range routes {
		item := doc.Paths.Value(r.path)
		if !assert.NotNil(t, item, "missing path %s", r.path) {
			continue
		}
		assert.NotNil(t, item.GetOperation(r.method), "missing %s %s", r.method, r.path)
	}
	assert.Equal(t, len(doc.Paths.Map()), countPaths(), "document lists paths the router does not serve")
}

func TestLoginRoutesReturnWrappedUser(t *testing.T) {
	doc, err := Load(context.Background())
	require.NoError(t, err)

	for _, path := range []string{"/auth/demo-login", "/auth/manual-login", "/auth/set-role"} {
		resp := doc.Paths.Value(path).Post.Responses.Status(http.StatusOK)
		require.NotNil(t, resp, path)
		media := resp.Value.Content.Get("application/json")
		require.NotNil(t, media, path)
		assert.Equal(t, "#/components/schemas/LoginResponse", media.Schema.Ref, path)
	}

	login := doc.Components.Schemas["LoginResponse"].Value
	assert.Contains(t, login.Properties, "user")
	assert.Contains(t, login.Properties, "redirect")
}

func countPaths() int {
	seen := make(map[string]struct{})
	for _, r := range routes {
		seen[r.path] = struct{}{}
	}
	return len(seen)
}

func TestHandler(t *testing.T) {
	app := drift.New()
	app.Get("/api/openapi.json", Handler(MustLoad()))

	req := httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "3.0.3", body["openapi"])
	assert.Contains(t, body["paths"], "/api/guide-sessions/{id}/accept")
}
