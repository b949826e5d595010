package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pixelpanic/internal/core/apperr"
	"pixelpanic/internal/core/logger"
	authdomain "pixelpanic/internal/features/auth/domain"
	"pixelpanic/internal/features/technicians/domain"
	"pixelpanic/internal/features/technicians/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InviteService issues and redeems technician invites.
type InviteService struct {
	invites ports.InviteRepository
	ttl     time.Duration
	now     func() time.Time
	log     *zap.Logger
}

// NewInviteService creates a new instance of InviteService.
func NewInviteService(invites ports.InviteRepository, ttl time.Duration) *InviteService {
	return &InviteService{
		invites: invites,
		ttl:     ttl,
		now:     time.Now,
		log:     logger.Named("invites"),
	}
}

// List returns every invite with its derived status.
func (s *InviteService) List(ctx context.Context) ([]domain.InviteRow, error) {
	invites, err := s.invites.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list invites: %w", err)
	}

	now := s.now()
	rows := make([]domain.InviteRow, 0, len(invites))
	for _, inv := range invites {
		rows = append(rows, domain.InviteRow{Invite: inv, Status: inv.Status(now)})
	}
	return rows, nil
}

// Create issues a new invite for phone.
func (s *InviteService) Create(ctx context.Context, rawPhone, name string) (*domain.Invite, error) {
	phone, err := authdomain.NormalizePhone(rawPhone)
	if err != nil {
		return nil, apperr.Invalid("phoneNumber", "enter a valid mobile number")
	}

	now := s.now()
	invite := domain.Invite{
		ID:          uuid.New(),
		PhoneNumber: phone,
		Name:        strings.TrimSpace(name),
		Token:       uuid.NewString(),
		ExpiresAt:   now.Add(s.ttl),
		CreatedAt:   now,
	}
	if err := s.invites.Create(ctx, invite); err != nil {
		return nil, fmt.Errorf("service: failed to create invite: %w", err)
	}

	s.log.Info("Invite created", zap.String("invite_id", invite.ID.String()))
	return &invite, nil
}

// Revoke disables an unused invite.
func (s *InviteService) Revoke(ctx context.Context, id uuid.UUID) error {
	return s.invites.Revoke(ctx, id, s.now())
}

// GetActive returns the invite for token only while it can still be accepted.
func (s *InviteService) GetActive(ctx context.Context, token string) (*domain.Invite, error) {
	invite, err := s.invites.GetByToken(ctx, token)
	if err != nil {
		var nf *apperr.NotFoundError
		if errors.As(err, &nf) {
			return nil, domain.ErrInviteUnavailable
		}
		return nil, fmt.Errorf("service: failed to load invite: %w", err)
	}

	if invite.Status(s.now()) != domain.InviteStatusActive {
		return nil, domain.ErrInviteUnavailable
	}
	return invite, nil
}

// Accept redeems token for user. phone is the number the client verified and must equal,
// byte for byte, both the session phone and the invited phone.
func (s *InviteService) Accept(ctx context.Context, token string, user *authdomain.User, phone string) error {
	if user == nil {
		return apperr.Invalid("session", "verify your phone number first")
	}
	if phone != user.PhoneNumber {
		return domain.ErrPhoneMismatch
	}

	invite, err := s.GetActive(ctx, token)
	if err != nil {
		return err
	}
	if !invite.MatchesPhone(user.PhoneNumber) {
		s.log.Warn("Invite phone mismatch", zap.String("invite_id", invite.ID.String()))
		return domain.ErrPhoneMismatch
	}

	if err := s.invites.Accept(ctx, token, user.PhoneNumber, user.ID, s.now()); err != nil {
		return err
	}

	s.log.Info("Invite accepted",
		zap.String("invite_id", invite.ID.String()),
		zap.String("user_id", user.ID.String()),
	)
	return nil
}
