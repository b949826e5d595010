package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrCouponInactive is returned for disabled or expired coupons.
	ErrCouponInactive = errors.New("coupon is no longer valid")
	// ErrCouponMinimum is returned when the subtotal is below the coupon minimum.
	ErrCouponMinimum = errors.New("order total is below the coupon minimum")
)

// Coupon is a flat discount code.
type Coupon struct {
	ID             uuid.UUID
	Code           string
	DiscountAmount decimal.Decimal
	MinOrderAmount decimal.Decimal
	IsActive       bool
	ExpiresAt      *time.Time
}

// CheckApplicable reports why the coupon cannot be used on subtotal at now, if at all.
func (c *Coupon) CheckApplicable(subtotal decimal.Decimal, now time.Time) error {
	if !c.IsActive || (c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)) {
		return ErrCouponInactive
	}
	if subtotal.LessThan(c.MinOrderAmount) {
		return ErrCouponMinimum
	}
	return nil
}

// Applied converts the coupon to its cart representation.
func (c *Coupon) Applied() AppliedCoupon {
	return AppliedCoupon{CouponID: c.ID, Code: c.Code, DiscountAmount: c.DiscountAmount}
}
