package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"pixelpanic/internal/core/cache"
	"pixelpanic/internal/features/auth/domain"
	"pixelpanic/internal/features/auth/ports"
)

const (
	challengeKeyPrefix = "otp:challenge:"
	attemptsKeyPrefix  = "otp:attempts:"
)

// RedisChallengeStore implements ports.ChallengeStore on the cache port.
type RedisChallengeStore struct {
	cache cache.Cache
}

// NewRedisChallengeStore creates a new RedisChallengeStore.
func NewRedisChallengeStore(c cache.Cache) *RedisChallengeStore {
	return &RedisChallengeStore{cache: c}
}

func (s *RedisChallengeStore) Save(ctx context.Context, challenge *domain.OTPChallenge, ttl time.Duration) error {
	data, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("failed to marshal challenge: %w", err)
	}
	if err := s.cache.Set(ctx, challengeKeyPrefix+challenge.VerificationID, data, ttl); err != nil {
		return fmt.Errorf("failed to save challenge: %w", err)
	}
	return nil
}

func (s *RedisChallengeStore) Get(ctx context.Context, verificationID string) (*domain.OTPChallenge, error) {
	data, err := s.cache.Get(ctx, challengeKeyPrefix+verificationID)
	if errors.Is(err, cache.ErrMiss) {
		return nil, ports.ErrChallengeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	var challenge domain.OTPChallenge
	if err := json.Unmarshal(data, &challenge); err != nil {
		return nil, fmt.Errorf("failed to unmarshal challenge: %w", err)
	}
	return &challenge, nil
}

// Delete removes the challenge and its attempt counter.
func (s *RedisChallengeStore) Delete(ctx context.Context, verificationID string) error {
	if err := s.cache.Delete(ctx, challengeKeyPrefix+verificationID); err != nil {
		return fmt.Errorf("failed to delete challenge: %w", err)
	}
	if err := s.cache.Delete(ctx, attemptsKeyPrefix+verificationID); err != nil {
		return fmt.Errorf("failed to delete attempts: %w", err)
	}
	return nil
}

func (s *RedisChallengeStore) RecordFailure(ctx context.Context, verificationID string, ttl time.Duration) (int64, error) {
	return s.cache.Incr(ctx, attemptsKeyPrefix+verificationID, ttl)
}

func (s *RedisChallengeStore) Failures(ctx context.Context, verificationID string) (int64, error) {
	data, err := s.cache.Get(ctx, attemptsKeyPrefix+verificationID)
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
