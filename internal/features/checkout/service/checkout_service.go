package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pixelpanic/internal/core/apperr"
	"pixelpanic/internal/core/logger"
	"pixelpanic/internal/features/checkout/domain"
	"pixelpanic/internal/features/checkout/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrOrderNotFound is returned when the order does not exist or is not visible to the viewer.
	ErrOrderNotFound = errors.New("order not found")
	// ErrPaymentFailed is returned when the order was stored but payment capture failed.
	ErrPaymentFailed = errors.New("payment could not be captured")
	// ErrCouponNotFound is returned for unknown coupon codes.
	ErrCouponNotFound = errors.New("coupon not found")
)

// Viewer is who is reading an order.
type Viewer struct {
	UserID uuid.UUID
	Admin  bool
}

// CheckoutService turns submitted carts into persisted orders.
type CheckoutService struct {
	orders   ports.OrderRepository
	coupons  ports.CouponRepository
	payments ports.PaymentGateway
	scheme   domain.OrderNumberScheme
	now      func() time.Time
	log      *zap.Logger
}

// NewCheckoutService creates a new instance of CheckoutService.
func NewCheckoutService(orders ports.OrderRepository, coupons ports.CouponRepository, payments ports.PaymentGateway, scheme domain.OrderNumberScheme) *CheckoutService {
	return &CheckoutService{
		orders:   orders,
		coupons:  coupons,
		payments: payments,
		scheme:   scheme,
		now:      time.Now,
		log:      logger.Named("checkout"),
	}
}

// CreateOrder validates req, stores the order as pending_payment, captures payment
// and confirms it. The returned order reflects the final status.
func (s *CheckoutService) CreateOrder(ctx context.Context, customerID uuid.UUID, req domain.CreateOrderRequest) (*domain.Order, error) {
	items, err := req.Lines()
	if err != nil {
		return nil, err
	}
	if err := req.ServiceDetails.Validate(); err != nil {
		return nil, err
	}
	if err := req.CustomerInfo.Validate(); err != nil {
		return nil, err
	}
	details := req.ServiceDetails.Normalized()

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Price)
	}

	now := s.now()
	discount := decimal.Zero
	var couponID *uuid.UUID
	if code := strings.TrimSpace(req.CouponCode); code != "" {
		applied, err := s.ApplyCoupon(ctx, code, subtotal)
		if err != nil {
			return nil, err
		}
		discount = applied.DiscountAmount
		couponID = &applied.CouponID
	}

	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	for i := range items {
		items[i].ID = uuid.New()
	}
	info := req.CustomerInfo
	draft := ports.NewOrder{
		ID:     uuid.New(),
		UserID: customerID,
		Address: domain.Address{
			ID:       uuid.New(),
			FullName: strings.TrimSpace(info.FullName),
			Phone:    strings.TrimSpace(info.Phone),
			Email:    strings.TrimSpace(info.Email),
			Line1:    strings.TrimSpace(info.Line1),
			Line2:    strings.TrimSpace(info.Line2),
			City:     strings.TrimSpace(info.City),
			State:    strings.TrimSpace(info.State),
			Pincode:  strings.TrimSpace(info.Pincode),
		},
		Items:       items,
		ServiceMode: details.ServiceMode,
		TimeSlot:    details.TimeSlot,
		CouponID:    couponID,
		Subtotal:    subtotal,
		Discount:    discount,
		Total:       total,
		CreatedAt:   now,
	}

	order, err := s.orders.Create(ctx, draft, func(seq int) (string, error) {
		return domain.NewOrderNumber(s.scheme, seq, now)
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	ref, err := s.payments.Capture(ctx, order.ID, order.TotalAmount)
	if err != nil {
		s.log.Error("Payment capture failed", zap.String("order_id", order.ID.String()), zap.Error(err))
		return order, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	if err := s.orders.Transition(ctx, order.ID, domain.OrderStatusConfirmed, "payment_captured", map[string]any{
		"reference": ref,
		"amount":    order.TotalAmount.StringFixed(2),
	}); err != nil {
		return order, fmt.Errorf("service: failed to confirm order: %w", err)
	}
	order.Status = domain.OrderStatusConfirmed

	s.log.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.TotalAmount.StringFixed(2)),
	)
	return order, nil
}

// GetOrder returns the full order when viewer owns it or is an admin.
func (s *CheckoutService) GetOrder(ctx context.Context, viewer Viewer, id uuid.UUID) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		var nf *apperr.NotFoundError
		if errors.As(err, &nf) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("service: failed to load order: %w", err)
	}

	if !viewer.Admin && order.UserID != viewer.UserID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ApplyCoupon checks code against subtotal and returns the discount to apply.
func (s *CheckoutService) ApplyCoupon(ctx context.Context, code string, subtotal decimal.Decimal) (*domain.AppliedCoupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperr.Invalid("code", "enter a coupon code")
	}

	coupon, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		var nf *apperr.NotFoundError
		if errors.As(err, &nf) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("service: failed to load coupon: %w", err)
	}

	if err := coupon.CheckApplicable(subtotal, s.now()); err != nil {
		return nil, err
	}

	applied := coupon.Applied()
	return &applied, nil
}
