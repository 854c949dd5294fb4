package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/voyagery/voyagery-api/pkg/dto"
)

// DefaultOverlayTTL matches the server session lifetime.
const DefaultOverlayTTL = 24 * time.Hour

type State int

const (
	Uninitialized State = iota
	Resolving
	Overlaid
	Anonymous
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Resolving:
		return "resolving"
	case Overlaid:
		return "overlaid"
	case Anonymous:
		return "anonymous"
	}
	return "unknown"
}

// IdentityAPI is the part of Client a TabSession needs.
type IdentityAPI interface {
	CurrentUser(ctx context.Context, tabID string) (*dto.UserResponse, error)
	DemoLogin(ctx context.Context, tabID, role string) (*dto.LoginResponse, error)
	ManualLogin(ctx context.Context, tabID, email, name string) (*dto.LoginResponse, error)
	SetRole(ctx context.Context, tabID, role string) (*dto.LoginResponse, error)
	Logout(ctx context.Context, tabID string, tabOnly bool) error
	ForgetTab(ctx context.Context, tabID string) error
}

// TabSession tracks who is signed in within one tab. The identity snapshot is kept in shared
// storage under voyagery:tab:<tabId>, so it survives reloads of the same tab, while the tab id
// itself lives in storage only this tab can see.
type TabSession struct {
	mu sync.Mutex

	api        IdentityAPI
	tab        TabStorage
	shared     SharedStorage
	overlayTTL time.Duration

	tabID    string
	state    State
	identity *dto.UserResponse
}

type TabSessionOption func(*TabSession)

func WithOverlayTTL(ttl time.Duration) TabSessionOption {
	return func(s *TabSession) {
		s.overlayTTL = ttl
	}
}

func NewTabSession(api IdentityAPI, tab TabStorage, shared SharedStorage, opts ...TabSessionOption) *TabSession {
	s := &TabSession{
		api:        api,
		tab:        tab,
		shared:     shared,
		overlayTTL: DefaultOverlayTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TabID returns this tab's id, creating and persisting one on first use.
func (s *TabSession) TabID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureTabID()
}

func (s *TabSession) ensureTabID() string {
	if s.tabID != "" {
		return s.tabID
	}
	if id, ok := s.tab.Get(tabIDStorageKey); ok && id != "" {
		s.tabID = id
		return id
	}
	s.tabID = uuid.NewString()
	s.tab.Set(tabIDStorageKey, s.tabID)
	return s.tabID
}

// Snapshot returns the current state and identity without any I/O.
func (s *TabSession) Snapshot() (State, *dto.UserResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.identity
}

// Resolve determines this tab's identity. An overlay wins over the server; without one the
// server is asked and its answer becomes the overlay. A nil identity with a nil error means
// nobody is signed in here. Transport failures are returned and leave the state untouched.
func (s *TabSession) Resolve(ctx context.Context) (*dto.UserResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tabID := s.ensureTabID()
	previous := s.state
	s.state = Resolving

	overlay, err := s.loadOverlay(ctx, tabID)
	if err != nil {
		s.state = previous
		return nil, err
	}
	if overlay != nil {
		s.state = Overlaid
		s.identity = overlay
		return overlay, nil
	}

	user, err := s.api.CurrentUser(ctx, tabID)
	switch {
	case err == nil:
		if err := s.storeOverlay(ctx, tabID, user); err != nil {
			s.state = previous
			return nil, err
		}
		s.state = Overlaid
		s.identity = user
		return user, nil
	case errors.Is(err, ErrNotAuthenticated):
		s.state = Anonymous
		s.identity = nil
		return nil, nil
	default:
		s.state = previous
		return nil, err
	}
}

// DemoLogin signs this tab in as the demo user of role.
func (s *TabSession) DemoLogin(ctx context.Context, role string) (*dto.UserResponse, error) {
	return s.login(ctx, func(tabID string) (*dto.LoginResponse, error) {
		return s.api.DemoLogin(ctx, tabID, role)
	})
}

func (s *TabSession) ManualLogin(ctx context.Context, email, name string) (*dto.UserResponse, error) {
	return s.login(ctx, func(tabID string) (*dto.LoginResponse, error) {
		return s.api.ManualLogin(ctx, tabID, email, name)
	})
}

// SetRole picks a role for the signed-in user and refreshes this tab's snapshot.
func (s *TabSession) SetRole(ctx context.Context, role string) (*dto.UserResponse, error) {
	return s.login(ctx, func(tabID string) (*dto.LoginResponse, error) {
		return s.api.SetRole(ctx, tabID, role)
	})
}

func (s *TabSession) login(ctx context.Context, call func(tabID string) (*dto.LoginResponse, error)) (*dto.UserResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tabID := s.ensureTabID()
	resp, err := call(tabID)
	if err != nil {
		return nil, err
	}

	user := resp.User
	if err := s.storeOverlay(ctx, tabID, &user); err != nil {
		return nil, err
	}
	s.state = Overlaid
	s.identity = &user
	return &user, nil
}

// Logout signs out this tab only. Other tabs keep their identities.
func (s *TabSession) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tabID := s.ensureTabID()
	if err := s.api.Logout(ctx, tabID, true); err != nil && !errors.Is(err, ErrNotAuthenticated) {
		return err
	}
	return s.evictLocked(ctx, tabID)
}

// Evict drops the local snapshot without telling the server, for example after the server
// rejected the session. The next Resolve asks the server again.
func (s *TabSession) Evict(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictLocked(ctx, s.ensureTabID())
}

func (s *TabSession) evictLocked(ctx context.Context, tabID string) error {
	if err := s.shared.Delete(ctx, overlayKey(tabID)); err != nil {
		return fmt.Errorf("failed to clear tab identity: %w", err)
	}
	s.state = Anonymous
	s.identity = nil
	return nil
}

// Revalidate checks the snapshot against the server and evicts it when the server no longer
// knows this tab.
func (s *TabSession) Revalidate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Overlaid {
		return nil
	}
	tabID := s.ensureTabID()
	user, err := s.api.CurrentUser(ctx, tabID)
	switch {
	case err == nil:
		s.identity = user
		return s.storeOverlay(ctx, tabID, user)
	case errors.Is(err, ErrNotAuthenticated):
		return s.evictLocked(ctx, tabID)
	default:
		return err
	}
}

// Close is the tab-close hook: the server forgets the tab and the snapshot is removed.
func (s *TabSession) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tabID := s.ensureTabID()
	if err := s.api.ForgetTab(ctx, tabID); err != nil && !errors.Is(err, ErrNotAuthenticated) {
		return err
	}
	if err := s.shared.Delete(ctx, overlayKey(tabID)); err != nil {
		return fmt.Errorf("failed to clear tab identity: %w", err)
	}
	s.state = Uninitialized
	s.identity = nil
	return nil
}

func (s *TabSession) loadOverlay(ctx context.Context, tabID string) (*dto.UserResponse, error) {
	raw, ok, err := s.shared.Get(ctx, overlayKey(tabID))
	if err != nil {
		return nil, fmt.Errorf("failed to read tab identity: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var user dto.UserResponse
	if err := json.Unmarshal(raw, &user); err != nil || user.ID == uuid.Nil {
		// unreadable snapshot: forget it and fall back to the server
		_ = s.shared.Delete(ctx, overlayKey(tabID))
		return nil, nil
	}
	return &user, nil
}

func (s *TabSession) storeOverlay(ctx context.Context, tabID string, user *dto.UserResponse) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.shared.Set(ctx, overlayKey(tabID), raw, s.overlayTTL); err != nil {
		return fmt.Errorf("failed to store tab identity: %w", err)
	}
	return nil
}
