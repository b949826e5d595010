package adapters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pixelpanic/internal/core/apperr"
	"pixelpanic/internal/features/checkout/domain"
)

// PostgresCouponRepository implements ports.CouponRepository with lib/pq.
type PostgresCouponRepository struct {
	db *sql.DB
}

// NewPostgresCouponRepository creates a new PostgresCouponRepository.
func NewPostgresCouponRepository(db *sql.DB) *PostgresCouponRepository {
	return &PostgresCouponRepository{db: db}
}

// GetByCode looks up a coupon case-insensitively.
func (r *PostgresCouponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var (
		c         domain.Coupon
		expiresAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, code, discount_amount, min_order_amount, is_active, expires_at
		FROM coupons WHERE upper(code) = upper($1)`, code,
	).Scan(&c.ID, &c.Code, &c.DiscountAmount, &c.MinOrderAmount, &c.IsActive, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperr.NotFoundError{Resource: "coupon", ID: code}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load coupon: %w", err)
	}
	if expiresAt.Valid {
		c.ExpiresAt = &expiresAt.Time
	}
	return &c, nil
}
