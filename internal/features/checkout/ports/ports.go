package ports

import (
	"context"
	"time"

	"pixelpanic/internal/features/checkout/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NumberFunc formats the order number for the given yearly sequence.
type NumberFunc func(seq int) (string, error)

// NewOrder is everything needed to insert an order, its address and its lines.
type NewOrder struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Address     domain.Address
	Items       []domain.OrderItem
	ServiceMode domain.ServiceMode
	TimeSlot    string
	CouponID    *uuid.UUID
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
	CreatedAt   time.Time
}

// OrderFilter narrows List. Zero values mean no restriction.
type OrderFilter struct {
	Statuses     []domain.OrderStatus
	UserID       *uuid.UUID
	TechnicianID *uuid.UUID
	Limit        int
	Offset       int
}

// OrderRepository persists orders. This is a Secondary Port (Driven Port).
type OrderRepository interface {
	// Create counts this year's orders, formats the number and inserts the order,
	// its address, its items and an order_created event in one transaction.
	Create(ctx context.Context, order NewOrder, number NumberFunc) (*domain.Order, error)

	// GetByID returns the order with items, address and customer.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)

	// List returns orders newest first, with items, address and customer.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, error)

	// Transition moves the order to status to and records an event, validating the move.
	Transition(ctx context.Context, id uuid.UUID, to domain.OrderStatus, event string, data map[string]any) error

	// AssignTechnician links a confirmed order to a technician.
	AssignTechnician(ctx context.Context, id, technicianID uuid.UUID) error
}

// CouponRepository looks up discount codes.
type CouponRepository interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
}

// PaymentGateway captures the order total.
type PaymentGateway interface {
	Capture(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal) (reference string, err error)
}
