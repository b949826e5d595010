package ports

import (
	"context"
	"errors"
	"io"
	"time"

	"pixelpanic/internal/features/technicians/domain"

	"github.com/google/uuid"
)

// ErrCodeNotFound is returned by CodeStore.Get when no completion code is pending.
var ErrCodeNotFound = errors.New("completion code not found")

// InviteRepository persists technician invites. This is a Secondary Port (Driven Port).
type InviteRepository interface {
	List(ctx context.Context) ([]domain.Invite, error)
	Create(ctx context.Context, invite domain.Invite) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invite, error)
	GetByToken(ctx context.Context, token string) (*domain.Invite, error)
	// Revoke marks an unused invite revoked. Used invites yield domain.ErrInviteAlreadyUsed.
	Revoke(ctx context.Context, id uuid.UUID, at time.Time) error
	// Accept consumes the invite for phone and promotes userID to technician in one transaction.
	// A used, revoked, expired or mismatched invite yields domain.ErrInviteUnavailable.
	Accept(ctx context.Context, token, phone string, userID uuid.UUID, at time.Time) error
}

// CompletionRepository records finished gigs.
type CompletionRepository interface {
	// Complete stores the completion and moves the order to completed in one transaction.
	Complete(ctx context.Context, orderID, technicianID uuid.UUID, notes string, photos []string) error
}

// CodeStore keeps the hashed completion code of a started gig.
type CodeStore interface {
	Save(ctx context.Context, orderID uuid.UUID, hash []byte, ttl time.Duration) error
	Get(ctx context.Context, orderID uuid.UUID) ([]byte, error)
	Delete(ctx context.Context, orderID uuid.UUID) error
	// RecordFailure counts a wrong code and returns the attempts so far.
	RecordFailure(ctx context.Context, orderID uuid.UUID, ttl time.Duration) (int64, error)
	// Failures returns the attempts so far without counting a new one.
	Failures(ctx context.Context, orderID uuid.UUID) (int64, error)
}

// PhotoStorage writes uploaded photos and answers their public URL.
type PhotoStorage interface {
	Save(ctx context.Context, folder, name string, r io.Reader) (url string, err error)
	Exists(ctx context.Context, url string) bool
}
