package adapters

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"pixelpanic/internal/core/cache"
	"pixelpanic/internal/features/technicians/ports"

	"github.com/google/uuid"
)

const (
	codeKeyPrefix     = "gig:code:"
	codeAttemptPrefix = "gig:attempts:"
)

// RedisCodeStore implements ports.CodeStore on the cache port.
type RedisCodeStore struct {
	cache cache.Cache
}

// NewRedisCodeStore creates a new RedisCodeStore.
func NewRedisCodeStore(c cache.Cache) *RedisCodeStore {
	return &RedisCodeStore{cache: c}
}

// Save stores a fresh code hash and resets the attempt counter.
func (s *RedisCodeStore) Save(ctx context.Context, orderID uuid.UUID, hash []byte, ttl time.Duration) error {
	if err := s.cache.Set(ctx, codeKeyPrefix+orderID.String(), hash, ttl); err != nil {
		return fmt.Errorf("failed to save completion code: %w", err)
	}
	if err := s.cache.Delete(ctx, codeAttemptPrefix+orderID.String()); err != nil {
		return fmt.Errorf("failed to reset attempts: %w", err)
	}
	return nil
}

func (s *RedisCodeStore) Get(ctx context.Context, orderID uuid.UUID) ([]byte, error) {
	hash, err := s.cache.Get(ctx, codeKeyPrefix+orderID.String())
	if errors.Is(err, cache.ErrMiss) {
		return nil, ports.ErrCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get completion code: %w", err)
	}
	return hash, nil
}

func (s *RedisCodeStore) Delete(ctx context.Context, orderID uuid.UUID) error {
	if err := s.cache.Delete(ctx, codeKeyPrefix+orderID.String()); err != nil {
		return fmt.Errorf("failed to delete completion code: %w", err)
	}
	return s.cache.Delete(ctx, codeAttemptPrefix+orderID.String())
}

func (s *RedisCodeStore) RecordFailure(ctx context.Context, orderID uuid.UUID, ttl time.Duration) (int64, error) {
	return s.cache.Incr(ctx, codeAttemptPrefix+orderID.String(), ttl)
}

func (s *RedisCodeStore) Failures(ctx context.Context, orderID uuid.UUID) (int64, error) {
	data, err := s.cache.Get(ctx, codeAttemptPrefix+orderID.String())
	if errors.Is(err, cache.ErrMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get attempts: %w", err)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse attempts: %w", err)
	}
	return n, nil
}
