package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	tabIDStorageKey = "voyagery.tabId"
	overlayPrefix   = "voyagery:tab:"
)

// TabStorage is private to one tab and dies with it.
type TabStorage interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// SharedStorage is visible to every tab of one browser profile. Entries carry their own TTL.
type SharedStorage interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

func overlayKey(tabID string) string {
	return overlayPrefix + tabID
}

type MemoryTabStorage struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryTabStorage() *MemoryTabStorage {
	return &MemoryTabStorage{values: make(map[string]string)}
}

func (s *MemoryTabStorage) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemoryTabStorage) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemorySharedStorage keeps entries in process. Expired entries are dropped on read.
type MemorySharedStorage struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemorySharedStorage() *MemorySharedStorage {
	return &MemorySharedStorage{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemorySharedStorage) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (s *MemorySharedStorage) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

func (s *MemorySharedStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Len reports how many entries are held, expired ones included.
func (s *MemorySharedStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// RedisSharedStorage backs the overlays with Redis, for clients that run as several processes.
type RedisSharedStorage struct {
	client *redis.Client
}

func NewRedisSharedStorage(client *redis.Client) *RedisSharedStorage {
	return &RedisSharedStorage{client: client}
}

func (s *RedisSharedStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (s *RedisSharedStorage) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisSharedStorage) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
