package ports

import (
	"context"
	"errors"
	"time"

	"pixelpanic/internal/features/auth/domain"

	"github.com/google/uuid"
)

// ErrSessionNotFound means the token is unknown or expired. It is an expected outcome.
var ErrSessionNotFound = errors.New("session not found")

// ErrChallengeNotFound means the verification id is unknown, used or expired.
var ErrChallengeNotFound = errors.New("otp challenge not found")

// UserRepository is the secondary port for user persistence.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	// FindOrCreateByPhone returns the user owning phone, creating a customer if none exists.
	FindOrCreateByPhone(ctx context.Context, phone string) (*domain.User, error)
	SetRole(ctx context.Context, id uuid.UUID, role domain.Role) error
}

// SessionStore maps opaque session tokens to user ids.
type SessionStore interface {
	Create(ctx context.Context, userID uuid.UUID, ttl time.Duration) (string, error)
	Lookup(ctx context.Context, token string) (uuid.UUID, error)
	Delete(ctx context.Context, token string) error
}

// ChallengeStore holds pending OTP challenges and their failed-attempt counters.
type ChallengeStore interface {
	Save(ctx context.Context, challenge *domain.OTPChallenge, ttl time.Duration) error
	Get(ctx context.Context, verificationID string) (*domain.OTPChallenge, error)
	Delete(ctx context.Context, verificationID string) error
	// RecordFailure increments and returns the failed-attempt count.
	RecordFailure(ctx context.Context, verificationID string, ttl time.Duration) (int64, error)
	// Failures returns the failed-attempt count without changing it.
	Failures(ctx context.Context, verificationID string) (int64, error)
}

// SMSSender delivers a text message to a phone number.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

// Resolver turns a session token into the acting user. A nil user with a nil error means anonymous.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*domain.User, error)
}
