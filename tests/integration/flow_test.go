package integration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/voyagery/voyagery-api/internal/access"
	"github.com/voyagery/voyagery-api/internal/models"
	"github.com/voyagery/voyagery-api/pkg/client"
	"github.com/voyagery/voyagery-api/pkg/dto"
	"github.com/voyagery/voyagery-api/tests/testutil"
)

func TestFlow_Integration_TabsKeepTheirOwnIdentity(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv := testServer(t, setupTest(t))
	b := newBrowser(t, srv.URL)
	ctx := context.Background()

	migrantTab := b.openTab()
	guideTab := b.openTab()

	migrant, err := migrantTab.DemoLogin(ctx, "migrant")
	require.NoError(t, err)
	guide, err := guideTab.DemoLogin(ctx, "guide")
	require.NoError(t, err)
	require.NotEqual(t, migrant.ID, guide.ID)

	// the server itself keeps the tabs apart, not only the client overlay
	fromServer, err := b.api.CurrentUser(ctx, migrantTab.TabID())
	require.NoError(t, err)
	assert.Equal(t, migrant.ID, fromServer.ID)

	fromServer, err = b.api.CurrentUser(ctx, guideTab.TabID())
	require.NoError(t, err)
	assert.Equal(t, guide.ID, fromServer.ID)

	// a fresh tab inherits the most recent login
	newTab := b.openTab()
	inherited, err := newTab.Resolve(ctx)
	require.NoError(t, err)
	require.NotNil(t, inherited)
	assert.Equal(t, guide.ID, inherited.ID)

	// logging out one tab leaves the others signed in
	require.NoError(t, migrantTab.Logout(ctx))
	_, err = b.api.CurrentUser(ctx, migrantTab.TabID())
	assert.ErrorIs(t, err, client.ErrNotAuthenticated)

	still, err := b.api.CurrentUser(ctx, guideTab.TabID())
	require.NoError(t, err)
	assert.Equal(t, guide.ID, still.ID)
}

func TestFlow_Integration_RepeatedDemoLoginIsSameUser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv := testServer(t, setupTest(t))
	ctx := context.Background()

	first, err := newBrowser(t, srv.URL).openTab().DemoLogin(ctx, "guide")
	require.NoError(t, err)
	second, err := newBrowser(t, srv.URL).openTab().DemoLogin(ctx, "guide")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "guide", second.Role)
}

func TestFlow_Integration_RequestAcceptedThroughPolling(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv := testServer(t, setupTest(t))
	ctx := context.Background()

	migrantBrowser := newBrowser(t, srv.URL)
	migrantTab := migrantBrowser.openTab()
	_, err := migrantTab.DemoLogin(ctx, "migrant")
	require.NoError(t, err)

	guideBrowser := newBrowser(t, srv.URL)
	guideTab := guideBrowser.openTab()
	guide, err := guideTab.DemoLogin(ctx, "guide")
	require.NoError(t, err)

	created, err := migrantBrowser.api.CreateGuideSession(ctx, migrantTab.TabID(), dto.CreateGuideSessionRequest{
		GuideID:  guide.ID,
		Purpose:  "Study permit application review",
		Timeline: "3 months",
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", created.RequestStatus)
	assert.Equal(t, "pending", created.Status)

	// one poll from the guide's dashboard sees the new request
	var seen []dto.GuideSessionResponse
	poller := client.NewPoller(guideBrowser.api, guideTab, client.ListFilter{GuideID: guide.ID, RequestStatus: "pending"}, 0)
	pollCtx, cancel := context.WithCancel(ctx)
	poller.OnUpdate = func(s []dto.GuideSessionResponse) {
		seen = s
		cancel()
	}
	_ = poller.Run(pollCtx)
	require.Len(t, seen, 1)
	assert.Equal(t, created.ID, seen[0].ID)

	resp, err := guideBrowser.api.RespondToGuideSession(ctx, guideTab.TabID(), created.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "accepted", resp.RequestStatus)
	require.NotNil(t, resp.Session)
	assert.Equal(t, "scheduled", resp.Session.Status)

	mine, err := migrantBrowser.api.GetGuideSession(ctx, migrantTab.TabID(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "accepted", mine.RequestStatus)
	assert.Equal(t, "scheduled", mine.Status)

	// answering twice is not possible
	_, err = guideBrowser.api.RespondToGuideSession(ctx, guideTab.TabID(), created.ID, false)
	assert.ErrorIs(t, err, client.ErrNotFound)
}

func TestFlow_Integration_DeclinedRequestDisappears(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv := testServer(t, setupTest(t))
	ctx := context.Background()

	migrantBrowser := newBrowser(t, srv.URL)
	migrantTab := migrantBrowser.openTab()
	_, err := migrantTab.DemoLogin(ctx, "migrant")
	require.NoError(t, err)

	guideBrowser := newBrowser(t, srv.URL)
	guideTab := guideBrowser.openTab()
	guide, err := guideTab.DemoLogin(ctx, "guide")
	require.NoError(t, err)

	created, err := migrantBrowser.api.CreateGuideSession(ctx, migrantTab.TabID(), dto.CreateGuideSessionRequest{
		GuideID: guide.ID,
		Purpose: "Work visa question",
	})
	require.NoError(t, err)

	resp, err := guideBrowser.api.RespondToGuideSession(ctx, guideTab.TabID(), created.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "declined", resp.RequestStatus)
	assert.Nil(t, resp.Session)

	_, err = migrantBrowser.api.GetGuideSession(ctx, migrantTab.TabID(), created.ID)
	assert.ErrorIs(t, err, client.ErrNotFound)

	list, err := guideBrowser.api.ListGuideSessions(ctx, guideTab.TabID(), client.ListFilter{GuideID: guide.ID})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFlow_Integration_CrossRoleRedirects(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv := testServer(t, setupTest(t))
	ctx := context.Background()

	b := newBrowser(t, srv.URL)
	migrantTab := b.openTab()
	guideTab := b.openTab()
	_, err := migrantTab.DemoLogin(ctx, "migrant")
	require.NoError(t, err)
	guide, err := guideTab.DemoLogin(ctx, "guide")
	require.NoError(t, err)

	// the server answers a wrong-role call with the caller's own dashboard
	_, err = b.api.RespondToGuideSession(ctx, migrantTab.TabID(), uuid.New(), true)
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, access.MigrantDashboardPath, apiErr.Redirect)

	_, err = b.api.CreateGuideSession(ctx, guideTab.TabID(), dto.CreateGuideSessionRequest{GuideID: guide.ID, Purpose: "x"})
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, access.GuideDashboardPath, apiErr.Redirect)

	// the client guard reaches the same verdicts without a request
	guideDashboard := access.Route{Path: access.GuideDashboardPath, RequiredRole: models.RoleGuide}
	migrantDashboard := access.Route{Path: access.MigrantDashboardPath, RequiredRole: models.RoleMigrant}

	d := client.NewGuard(migrantTab).Check(guideDashboard)
	assert.Equal(t, access.Redirect, d.Outcome)
	assert.Equal(t, access.MigrantDashboardPath, d.Location)

	d = client.NewGuard(guideTab).Check(migrantDashboard)
	assert.Equal(t, access.Redirect, d.Outcome)
	assert.Equal(t, access.GuideDashboardPath, d.Location)
}

func TestFlow_Integration_AnonymousCallsAreRejected(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv := testServer(t, setupTest(t))
	ctx := context.Background()

	tab := newBrowser(t, srv.URL).openTab()
	user, err := tab.Resolve(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)

	state, _ := tab.Snapshot()
	assert.Equal(t, client.Anonymous, state)

	d := client.NewGuard(tab).Check(access.Route{Path: access.GuideDashboardPath, RequiredRole: models.RoleGuide})
	assert.Equal(t, access.SelectRolePath, d.Location)
}

func TestFlow_Integration_ManualLoginThenRole(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	srv := testServer(t, tdb)
	ctx := context.Background()

	// an account that has not picked a role yet
	_, err := tdb.DB.Pool.Exec(ctx, `
		INSERT INTO users (email, name, provider, provider_id) VALUES ('ana@example.com', 'Ana Silva', 'google', 'g-1')
	`)
	require.NoError(t, err)

	tab := newBrowser(t, srv.URL).openTab()

	_, err = tab.ManualLogin(ctx, "", "nobody at all")
	assert.ErrorIs(t, err, client.ErrNotFound)

	user, err := tab.ManualLogin(ctx, "", "ana")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Empty(t, user.Role)

	d := client.NewGuard(tab).Check(access.Route{Path: access.MigrantDashboardPath, RequiredRole: models.RoleMigrant})
	assert.Equal(t, access.SelectRolePath, d.Location)

	user, err = tab.SetRole(ctx, "migrant")
	require.NoError(t, err)
	assert.Equal(t, "migrant", user.Role)

	_, err = tab.SetRole(ctx, "guide")
	assert.ErrorIs(t, err, client.ErrValidation)
}

func TestFlow_Integration_OAuthGuideSignup(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	var state string
	provider := new(testutil.MockOAuthProvider)
	provider.On("Name").Return("google")
	provider.On("GetConsentURL", mock.MatchedBy(func(s string) bool {
		state = s
		return s != ""
	})).Return("https://accounts.example.com/consent")
	provider.On("ExchangeCode", mock.Anything, "code-1").
		Return(testutil.OAuthUserInfo("ana@example.com", "Ana", "google", "google-ana"), nil)

	tdb := setupTest(t)
	srv := testServer(t, tdb, provider)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	httpClient := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	get := func(path string) *http.Response {
		req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
		require.NoError(t, err)
		req.Header.Set("X-Tab-ID", "tab-oauth")
		resp, err := httpClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := get("/auth/google?role=guide")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://accounts.example.com/consent", resp.Header.Get("Location"))
	require.NotEmpty(t, state)

	resp = get("/auth/google/callback?state=" + state + "&code=code-1")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000/guide/dashboard", resp.Header.Get("Location"))

	resp = get("/auth/user")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var user dto.UserResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, "guide", user.Role)
	assert.Equal(t, "google", user.Provider)

	assert.Equal(t, 1, testutil.NewFixtures(tdb.DB).CountProfiles(t, user.ID))

	// a replayed callback cannot sign in again
	resp = get("/auth/google/callback?state=" + state + "&code=code-1")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "error=")
	provider.AssertNumberOfCalls(t, "ExchangeCode", 1)
}
