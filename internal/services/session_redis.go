package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/voyagery/voyagery-api/internal/apperrors"
	"github.com/voyagery/voyagery-api/internal/models"
)

const redisKeyPrefix = "voyagery:sess:"

// RedisSessionStore keeps sessions in Redis. Expiry is delegated to key TTLs, so stored values may
// predate the current schema and are validated on every read.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl, now: time.Now}
}

func sessionKey(id uuid.UUID) string {
	return redisKeyPrefix + id.String()
}

func tabsKey(id uuid.UUID) string {
	return redisKeyPrefix + id.String() + ":tabs"
}

func tabKey(id uuid.UUID, tabID string) string {
	return redisKeyPrefix + id.String() + ":tab:" + tabID
}

func (s *RedisSessionStore) Create(ctx context.Context) (*models.Session, error) {
	now := s.now()
	session := &models.Session{ID: uuid.New(), CreatedAt: now, ExpiresAt: now.Add(s.ttl)}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, sessionKey(session.ID),
			"user_id", "",
			"created_at", now.Unix(),
			"expires_at", session.ExpiresAt.Unix(),
		)
		pipe.Expire(ctx, sessionKey(session.ID), s.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

func (s *RedisSessionStore) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	fields, err := s.client.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, apperrors.NotAuthenticated("session expired")
	}

	session := &models.Session{ID: id}
	if raw := fields["user_id"]; raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperrors.NotAuthenticated("malformed session")
		}
		session.UserID = &userID
	}
	session.CreatedAt = unixField(fields["created_at"])
	session.ExpiresAt = unixField(fields["expires_at"])
	return session, nil
}

func unixField(raw string) time.Time {
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(secs, 0)
}

func (s *RedisSessionStore) Touch(ctx context.Context, id uuid.UUID) error {
	tabIDs, err := s.client.SMembers(ctx, tabsKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to list tabs: %w", err)
	}

	expiresAt := s.now().Add(s.ttl)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, sessionKey(id), "expires_at", expiresAt.Unix())
		pipe.Expire(ctx, sessionKey(id), s.ttl)
		pipe.Expire(ctx, tabsKey(id), s.ttl)
		for _, tabID := range tabIDs {
			pipe.Expire(ctx, tabKey(id, tabID), s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) exists(ctx context.Context, id uuid.UUID) error {
	n, err := s.client.Exists(ctx, sessionKey(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.NotAuthenticated("session expired")
	}
	return nil
}

func (s *RedisSessionStore) SetUser(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.exists(ctx, id); err != nil {
		return err
	}
	if err := s.client.HSet(ctx, sessionKey(id), "user_id", userID.String()).Err(); err != nil {
		return fmt.Errorf("failed to bind session user: %w", err)
	}
	return s.Touch(ctx, id)
}

func (s *RedisSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	tabIDs, err := s.client.SMembers(ctx, tabsKey(id)).Result()
	if err != nil {
		return err
	}

	keys := []string{sessionKey(id), tabsKey(id)}
	for _, tabID := range tabIDs {
		keys = append(keys, tabKey(id, tabID))
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *RedisSessionStore) BindTab(ctx context.Context, sessionID uuid.UUID, tabID string, userID *uuid.UUID) error {
	if err := s.exists(ctx, sessionID); err != nil {
		return err
	}

	value := ""
	if userID != nil {
		value = userID.String()
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, tabKey(sessionID, tabID), value, s.ttl)
		pipe.SAdd(ctx, tabsKey(sessionID), tabID)
		pipe.Expire(ctx, tabsKey(sessionID), s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to bind tab: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) GetTab(ctx context.Context, sessionID uuid.UUID, tabID string) (*models.TabBinding, error) {
	raw, err := s.client.Get(ctx, tabKey(sessionID, tabID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.NotFound("tab binding not found")
	}
	if err != nil {
		return nil, err
	}

	var userID *uuid.UUID
	if raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			_ = s.DeleteTab(ctx, sessionID, tabID)
			return nil, apperrors.NotFound("tab binding not found")
		}
		userID = &parsed
	}

	ttl, err := s.client.PTTL(ctx, tabKey(sessionID, tabID)).Result()
	if err != nil {
		return nil, err
	}
	return &models.TabBinding{
		SessionID: sessionID,
		TabID:     tabID,
		UserID:    userID,
		ExpiresAt: s.now().Add(ttl),
	}, nil
}

func (s *RedisSessionStore) DeleteTab(ctx context.Context, sessionID uuid.UUID, tabID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, tabKey(sessionID, tabID))
		pipe.SRem(ctx, tabsKey(sessionID), tabID)
		return nil
	})
	return err
}

// CleanupExpired is a no-op: Redis expires keys on its own.
func (s *RedisSessionStore) CleanupExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

var _ SessionStore = (*RedisSessionStore)(nil)
