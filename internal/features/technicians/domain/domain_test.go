package domain

import (
	"testing"
	"time"

	checkout "pixelpanic/internal/features/checkout/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvite_Status(t *testing.T) {
	now := time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)

	tests := []struct {
		name   string
		invite Invite
		want   InviteStatus
	}{
		{name: "active", invite: Invite{ExpiresAt: now.Add(time.Hour)}, want: InviteStatusActive},
		{name: "expired", invite: Invite{ExpiresAt: earlier}, want: InviteStatusExpired},
		{name: "expires exactly now", invite: Invite{ExpiresAt: now}, want: InviteStatusExpired},
		{name: "used wins over expiry", invite: Invite{ExpiresAt: earlier, UsedAt: &earlier}, want: InviteStatusUsed},
		{name: "revoked reports expired", invite: Invite{ExpiresAt: now.Add(time.Hour), RevokedAt: &earlier}, want: InviteStatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.invite.Status(now))
		})
	}
}

func TestInvite_MatchesPhone(t *testing.T) {
	inv := Invite{PhoneNumber: "+919876543210"}
	assert.True(t, inv.MatchesPhone("+919876543210"))
	assert.False(t, inv.MatchesPhone("919876543210"))
	assert.False(t, inv.MatchesPhone("+91 9876543210"))
}

func TestCompletionRequest_Validate(t *testing.T) {
	photos := []string{"/uploads/gigs/a.jpg", "/uploads/gigs/b.jpg", "/uploads/gigs/c.jpg", "/uploads/gigs/d.jpg", "/uploads/gigs/e.jpg"}

	assert.NoError(t, CompletionRequest{OTP: "1234"}.Validate())
	assert.NoError(t, CompletionRequest{OTP: "1234", Photos: photos}.Validate())
	assert.Error(t, CompletionRequest{Photos: photos[:1]}.Validate())
	assert.Error(t, CompletionRequest{OTP: "12a4"}.Validate())
	assert.Error(t, CompletionRequest{OTP: "1234", Photos: append(photos, "/uploads/gigs/f.jpg")}.Validate())
	assert.Error(t, CompletionRequest{OTP: "1234", Photos: []string{"https://evil.example/x.jpg"}}.Validate())
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterActive, f)
	assert.Len(t, f.Statuses(), 2)

	f, err = ParseFilter("ALL")
	require.NoError(t, err)
	assert.Nil(t, f.Statuses())

	_, err = ParseFilter("done")
	assert.Error(t, err)
}

func TestSanitizeFolder(t *testing.T) {
	f, err := SanitizeFolder("")
	require.NoError(t, err)
	assert.Equal(t, "gigs", f)

	f, err = SanitizeFolder(" Gig_Photos ")
	require.NoError(t, err)
	assert.Equal(t, "gig_photos", f)

	for _, bad := range []string{"../etc", "a/b", ".hidden", "with space"} {
		_, err := SanitizeFolder(bad)
		assert.Error(t, err, bad)
	}
}

func TestImageExtension(t *testing.T) {
	ext, ok := ImageExtension("image/jpeg")
	assert.True(t, ok)
	assert.Equal(t, ".jpg", ext)

	_, ok = ImageExtension("image/gif")
	assert.False(t, ok)
}

func TestNewGig(t *testing.T) {
	order := &checkout.Order{
		ID:          uuid.New(),
		OrderNumber: "PP-2025-0001",
		Status:      checkout.OrderStatusConfirmed,
		TotalAmount: decimal.NewFromInt(1500),
		Items:       []checkout.OrderItem{{ID: uuid.New(), Price: decimal.NewFromInt(1500)}},
	}
	gig := NewGig(order)
	assert.Equal(t, order.ID.String(), gig.ID)
	assert.Equal(t, "1500.00", gig.TotalAmount)
	assert.Len(t, gig.Items, 1)
}
