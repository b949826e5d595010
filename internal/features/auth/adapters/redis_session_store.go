package adapters

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"pixelpanic/internal/core/cache"
	"pixelpanic/internal/features/auth/ports"

	"github.com/google/uuid"
)

const sessionKeyPrefix = "session:"

// RedisSessionStore implements ports.SessionStore on the cache port.
type RedisSessionStore struct {
	cache cache.Cache
}

// NewRedisSessionStore creates a new RedisSessionStore.
func NewRedisSessionStore(c cache.Cache) *RedisSessionStore {
	return &RedisSessionStore{cache: c}
}

// Create issues a 256-bit random token bound to userID.
func (s *RedisSessionStore) Create(ctx context.Context, userID uuid.UUID, ttl time.Duration) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := s.cache.Set(ctx, sessionKeyPrefix+token, []byte(userID.String()), ttl); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	return token, nil
}

// Lookup returns the user bound to token, or ports.ErrSessionNotFound.
func (s *RedisSessionStore) Lookup(ctx context.Context, token string) (uuid.UUID, error) {
	data, err := s.cache.Get(ctx, sessionKeyPrefix+token)
	if errors.Is(err, cache.ErrMiss) {
		return uuid.Nil, ports.ErrSessionNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to get session: %w", err)
	}

	id, err := uuid.ParseBytes(data)
	if err != nil {
		return uuid.Nil, ports.ErrSessionNotFound
	}
	return id, nil
}

// Delete removes the session.
func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	if err := s.cache.Delete(ctx, sessionKeyPrefix+token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
