package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voyagery/voyagery-api/internal/apperrors"
	"github.com/voyagery/voyagery-api/internal/models"
)

type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.Session
	tabs     map[string]*models.TabBinding
	touches  int
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{
		sessions: map[uuid.UUID]*models.Session{},
		tabs:     map[string]*models.TabBinding{},
	}
}

func memTabKey(sessionID uuid.UUID, tabID string) string {
	return sessionID.String() + "/" + tabID
}

func (m *memorySessionStore) Create(ctx context.Context) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &models.Session{ID: uuid.New(), CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
	m.sessions[s.ID] = s
	copied := *s
	return &copied, nil
}

func (m *memorySessionStore) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, apperrors.NotAuthenticated("session expired")
	}
	copied := *s
	return &copied, nil
}

func (m *memorySessionStore) Touch(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touches++
	return nil
}

func (m *memorySessionStore) SetUser(ctx context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return apperrors.NotAuthenticated("session expired")
	}
	s.UserID = &userID
	return nil
}

func (m *memorySessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	for key, b := range m.tabs {
		if b.SessionID == id {
			delete(m.tabs, key)
		}
	}
	return nil
}

func (m *memorySessionStore) BindTab(ctx context.Context, sessionID uuid.UUID, tabID string, userID *uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return apperrors.NotAuthenticated("session expired")
	}
	m.tabs[memTabKey(sessionID, tabID)] = &models.TabBinding{SessionID: sessionID, TabID: tabID, UserID: userID}
	return nil
}

func (m *memorySessionStore) GetTab(ctx context.Context, sessionID uuid.UUID, tabID string) (*models.TabBinding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.tabs[memTabKey(sessionID, tabID)]
	if !ok {
		return nil, apperrors.NotFound("tab binding not found")
	}
	copied := *b
	return &copied, nil
}

func (m *memorySessionStore) DeleteTab(ctx context.Context, sessionID uuid.UUID, tabID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tabs, memTabKey(sessionID, tabID))
	return nil
}

func (m *memorySessionStore) CleanupExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

type memoryUsers map[uuid.UUID]*models.User

func (m memoryUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, apperrors.NotFound("user not found")
}

func newUser(name string, role models.Role) *models.User {
	return &models.User{ID: uuid.New(), Name: name, Email: name + "@example.com", Role: role}
}

func setupAuthService(users ...*models.User) (*AuthService, *memorySessionStore) {
	store := newMemorySessionStore()
	lookup := memoryUsers{}
	for _, u := range users {
		lookup[u.ID] = u
	}
	return NewAuthService(lookup, store), store
}

func TestAuthService_Login_CreatesSession(t *testing.T) {
	migrant := newUser("mia", models.RoleMigrant)
	svc, _ := setupAuthService(migrant)
	ctx := context.Background()

	session, err := svc.Login(ctx, nil, "tab-a", migrant.ID)
	require.NoError(t, err)
	require.NotNil(t, session.UserID)
	assert.Equal(t, migrant.ID, *session.UserID)

	current, err := svc.ResolveCurrent(ctx, session.ID, "tab-a")
	require.NoError(t, err)
	assert.Equal(t, migrant.ID, current.ID)
}

func TestAuthService_Login_ReplacesStaleSession(t *testing.T) {
	migrant := newUser("mia", models.RoleMigrant)
	svc, _ := setupAuthService(migrant)
	stale := uuid.New()

	session, err := svc.Login(context.Background(), &stale, "", migrant.ID)

	require.NoError(t, err)
	assert.NotEqual(t, stale, session.ID)
}

func TestAuthService_ResolveCurrent_NoSession(t *testing.T) {
	svc, _ := setupAuthService()

	user, err := svc.ResolveCurrent(context.Background(), uuid.New(), "tab-a")

	assert.Nil(t, user)
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}

func TestAuthService_ResolveCurrent_SessionWithoutUser(t *testing.T) {
	svc, store := setupAuthService()
	session, err := store.Create(context.Background())
	require.NoError(t, err)

	user, err := svc.ResolveCurrent(context.Background(), session.ID, "")

	assert.Nil(t, user)
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}

func TestAuthService_TabsKeepTheirOwnIdentity(t *testing.T) {
	migrant := newUser("mia", models.RoleMigrant)
	guide := newUser("gus", models.RoleGuide)
	svc, _ := setupAuthService(migrant, guide)
	ctx := context.Background()

	session, err := svc.Login(ctx, nil, "tab-a", migrant.ID)
	require.NoError(t, err)
	_, err = svc.Login(ctx, &session.ID, "tab-b", guide.ID)
	require.NoError(t, err)

	a, err := svc.ResolveCurrent(ctx, session.ID, "tab-a")
	require.NoError(t, err)
	b, err := svc.ResolveCurrent(ctx, session.ID, "tab-b")
	require.NoError(t, err)

	assert.Equal(t, migrant.ID, a.ID)
	assert.Equal(t, guide.ID, b.ID)
}

func TestAuthService_NewTabSnapshotsDefaultUser(t *testing.T) {
	migrant := newUser("mia", models.RoleMigrant)
	guide := newUser("gus", models.RoleGuide)
	svc, _ := setupAuthService(migrant, guide)
	ctx := context.Background()

	session, err := svc.Login(ctx, nil, "tab-a", migrant.ID)
	require.NoError(t, err)

	c, err := svc.ResolveCurrent(ctx, session.ID, "tab-c")
	require.NoError(t, err)
	assert.Equal(t, migrant.ID, c.ID)

	// a later login elsewhere moves the default but not the pinned tab
	_, err = svc.Login(ctx, &session.ID, "tab-b", guide.ID)
	require.NoError(t, err)

	c, err = svc.ResolveCurrent(ctx, session.ID, "tab-c")
	require.NoError(t, err)
	assert.Equal(t, migrant.ID, c.ID)

	d, err := svc.ResolveCurrent(ctx, session.ID, "tab-d")
	require.NoError(t, err)
	assert.Equal(t, guide.ID, d.ID)
}

func TestAuthService_TabLogoutLeavesOtherTabs(t *testing.T) {
	migrant := newUser("mia", models.RoleMigrant)
	guide := newUser("gus", models.RoleGuide)
	svc, _ := setupAuthService(migrant, guide)
	ctx := context.Background()

	session, err := svc.Login(ctx, nil, "tab-a", migrant.ID)
	require.NoError(t, err)
	_, err = svc.Login(ctx, &session.ID, "tab-b", guide.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, session.ID, "tab-a", true))

	_, err = svc.ResolveCurrent(ctx, session.ID, "tab-a")
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)

	b, err := svc.ResolveCurrent(ctx, session.ID, "tab-b")
	require.NoError(t, err)
	assert.Equal(t, guide.ID, b.ID)
}

func TestAuthService_TabLogoutRequiresTab(t *testing.T) {
	svc, _ := setupAuthService()

	err := svc.Logout(context.Background(), uuid.New(), "", true)

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAuthService_FullLogoutEndsEveryTab(t *testing.T) {
	migrant := newUser("mia", models.RoleMigrant)
	svc, _ := setupAuthService(migrant)
	ctx := context.Background()

	session, err := svc.Login(ctx, nil, "tab-a", migrant.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, session.ID, "tab-a", false))

	_, err = svc.ResolveCurrent(ctx, session.ID, "tab-a")
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	_, err = svc.ResolveCurrent(ctx, session.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}

func TestAuthService_ForgetTabFallsBackToDefault(t *testing.T) {
	migrant := newUser("mia", models.RoleMigrant)
	guide := newUser("gus", models.RoleGuide)
	svc, store := setupAuthService(migrant, guide)
	ctx := context.Background()

	session, err := svc.Login(ctx, nil, "tab-a", migrant.ID)
	require.NoError(t, err)
	_, err = svc.Login(ctx, &session.ID, "tab-b", guide.ID)
	require.NoError(t, err)

	require.NoError(t, svc.ForgetTab(ctx, session.ID, "tab-a"))

	_, err = store.GetTab(ctx, session.ID, "tab-a")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	a, err := svc.ResolveCurrent(ctx, session.ID, "tab-a")
	require.NoError(t, err)
	assert.Equal(t, guide.ID, a.ID)
}

func TestAuthService_DeletedUserIsNotAuthenticated(t *testing.T) {
	migrant := newUser("mia", models.RoleMigrant)
	svc, store := setupAuthService(migrant)
	ctx := context.Background()
	ghost := uuid.New()

	session, err := svc.Login(ctx, nil, "", migrant.ID)
	require.NoError(t, err)
	require.NoError(t, store.BindTab(ctx, session.ID, "tab-x", &ghost))

	_, err = svc.ResolveCurrent(ctx, session.ID, "tab-x")

	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	_, err = store.GetTab(ctx, session.ID, "tab-x")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAuthService_ResolveCurrent_ExtendsSession(t *testing.T) {
	migrant := newUser("mia", models.RoleMigrant)
	svc, store := setupAuthService(migrant)
	ctx := context.Background()

	session, err := svc.Login(ctx, nil, "", migrant.ID)
	require.NoError(t, err)

	_, err = svc.ResolveCurrent(ctx, session.ID, "")
	require.NoError(t, err)

	assert.Equal(t, 1, store.touches)
}
