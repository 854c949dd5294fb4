package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/voyagery/voyagery-api/internal/models"
)

// UserInfo is the identity asserted by an external provider.
type UserInfo struct {
	Provider  string
	ID        string
	Email     string
	Name      string
	AvatarURL string
}

type Provider interface {
	Name() string
	GetConsentURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*UserInfo, error)
}

// PendingLogin is what a login started in one tab needs once the provider sends the browser back.
// Role is empty when the user did not pick one before signing in.
type PendingLogin struct {
	Role  models.Role
	TabID string
}

type pendingEntry struct {
	login     PendingLogin
	expiresAt time.Time
}

// StateStore binds OAuth state values to pending logins. Each state can be consumed once.
type StateStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	pending map[string]pendingEntry
}

func NewStateStore(ttl time.Duration) *StateStore {
	return &StateStore{
		ttl:     ttl,
		now:     time.Now,
		pending: make(map[string]pendingEntry),
	}
}

// Issue returns a fresh state bound to login.
func (s *StateStore) Issue(login PendingLogin) (string, error) {
	state, err := GenerateState()
	if err != nil {
		return "", err
	}
	s.Save(state, login)
	return state, nil
}

// Save binds a caller-chosen state, replacing any earlier binding.
func (s *StateStore) Save(state string, login PendingLogin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[state] = pendingEntry{login: login, expiresAt: s.now().Add(s.ttl)}
}

// Consume returns the login bound to state and forgets the state. Unknown and expired states
// report false.
func (s *StateStore) Consume(state string) (PendingLogin, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pending[state]
	if !ok {
		return PendingLogin{}, false
	}
	delete(s.pending, state)
	if !s.now().Before(entry.expiresAt) {
		return PendingLogin{}, false
	}
	return entry.login, true
}

// Purge drops expired states and reports how many went.
func (s *StateStore) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	purged := 0
	for state, entry := range s.pending {
		if !now.Before(entry.expiresAt) {
			delete(s.pending, state)
			purged++
		}
	}
	return purged
}

func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Run purges abandoned states every interval until ctx is done.
func (s *StateStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Purge()
		}
	}
}

// GenerateState returns 32 random bytes, URL-safe base64 encoded.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
