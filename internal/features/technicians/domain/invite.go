package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// InviteStatus is derived from the invite timestamps, never stored.
type InviteStatus string

const (
	InviteStatusActive  InviteStatus = "active"
	InviteStatusUsed    InviteStatus = "used"
	InviteStatusExpired InviteStatus = "expired"
)

var (
	// ErrInviteUnavailable is returned when the invite is unknown, used, revoked or expired.
	ErrInviteUnavailable = errors.New("invite is invalid or has expired")
	// ErrInviteAlreadyUsed is returned when revoking an invite that was already accepted.
	ErrInviteAlreadyUsed = errors.New("invite has already been used")
	// ErrPhoneMismatch is returned when the verified phone differs from the invited phone.
	ErrPhoneMismatch = errors.New("this invite was issued to a different phone number")
)

// Invite is a single-use onboarding credential bound to a phone number.
type Invite struct {
	ID          uuid.UUID  `json:"id"`
	PhoneNumber string     `json:"phoneNumber"`
	Name        string     `json:"name,omitempty"`
	Token       string     `json:"token"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	UsedAt      *time.Time `json:"usedAt,omitempty"`
	RevokedAt   *time.Time `json:"revokedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Status returns used when consumed, expired when revoked or past expiry, else active.
func (i *Invite) Status(now time.Time) InviteStatus {
	switch {
	case i.UsedAt != nil:
		return InviteStatusUsed
	case i.RevokedAt != nil, !now.Before(i.ExpiresAt):
		return InviteStatusExpired
	default:
		return InviteStatusActive
	}
}

// MatchesPhone compares byte-for-byte. No normalisation happens here.
func (i *Invite) MatchesPhone(phone string) bool {
	return i.PhoneNumber == phone
}

// InviteRow is an invite with its derived status, as listed to admins.
type InviteRow struct {
	Invite
	Status InviteStatus `json:"status"`
}
