package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pixelpanic/internal/core/apperr"
	"pixelpanic/internal/core/logger"
	authdomain "pixelpanic/internal/features/auth/domain"
	authports "pixelpanic/internal/features/auth/ports"
	checkout "pixelpanic/internal/features/checkout/domain"
	checkoutports "pixelpanic/internal/features/checkout/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

var (
	// ErrOrderNotFound is returned for unknown order ids.
	ErrOrderNotFound = errors.New("order not found")
	// ErrNotTechnician is returned when assigning an order to a user without the technician role.
	ErrNotTechnician = errors.New("user is not a technician")
)

// ListQuery is the admin order list filter as received from the query string.
type ListQuery struct {
	Statuses []string
	Limit    int
	Offset   int
}

// AdminService runs back-office operations on orders.
type AdminService struct {
	orders checkoutports.OrderRepository
	users  authports.UserRepository
	log    *zap.Logger
}

// NewAdminService creates a new instance of AdminService.
func NewAdminService(orders checkoutports.OrderRepository, users authports.UserRepository) *AdminService {
	return &AdminService{
		orders: orders,
		users:  users,
		log:    logger.Named("admin"),
	}
}

// ListOrders returns orders newest first.
func (s *AdminService) ListOrders(ctx context.Context, q ListQuery) ([]checkout.Order, error) {
	filter := checkoutports.OrderFilter{Limit: q.Limit, Offset: q.Offset}
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		return nil, apperr.Invalid("offset", "offset must not be negative")
	}

	for _, raw := range q.Statuses {
		if raw = strings.TrimSpace(raw); raw == "" {
			continue
		}
		st, err := checkout.ParseOrderStatus(raw)
		if err != nil {
			return nil, apperr.Invalid("status", err.Error())
		}
		filter.Statuses = append(filter.Statuses, st)
	}

	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}
	return orders, nil
}

// AssignTechnician hands a confirmed order to a technician.
func (s *AdminService) AssignTechnician(ctx context.Context, orderID, technicianID uuid.UUID) error {
	user, err := s.users.GetByID(ctx, technicianID)
	if err != nil {
		var nf *apperr.NotFoundError
		if errors.As(err, &nf) {
			return ErrNotTechnician
		}
		return fmt.Errorf("service: failed to load technician: %w", err)
	}
	if !user.Is(authdomain.RoleTechnician) {
		return ErrNotTechnician
	}

	if err := s.orders.AssignTechnician(ctx, orderID, technicianID); err != nil {
		return s.orderErr(err)
	}

	s.log.Info("Technician assigned",
		zap.String("order_id", orderID.String()),
		zap.String("technician_id", technicianID.String()),
	)
	return nil
}

// Cancel moves a non-terminal order to cancelled.
func (s *AdminService) Cancel(ctx context.Context, adminID, orderID uuid.UUID, reason string) error {
	data := map[string]any{"admin_id": adminID.String()}
	if reason = strings.TrimSpace(reason); reason != "" {
		data["reason"] = reason
	}

	if err := s.orders.Transition(ctx, orderID, checkout.OrderStatusCancelled, "order_cancelled", data); err != nil {
		return s.orderErr(err)
	}

	s.log.Info("Order cancelled", zap.String("order_id", orderID.String()))
	return nil
}

func (s *AdminService) orderErr(err error) error {
	var nf *apperr.NotFoundError
	if errors.As(err, &nf) {
		return ErrOrderNotFound
	}
	return err
}
