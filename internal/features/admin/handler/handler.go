package handler

import (
	"context"
	"errors"
	"strings"

	"pixelpanic/internal/core/apperr"
	"pixelpanic/internal/core/logger"
	"pixelpanic/internal/core/server"
	"pixelpanic/internal/features/admin/service"
	"pixelpanic/internal/features/auth/middleware"
	checkout "pixelpanic/internal/features/checkout/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdminService is the primary port for back-office order operations.
type AdminService interface {
	ListOrders(ctx context.Context, q service.ListQuery) ([]checkout.Order, error)
	AssignTechnician(ctx context.Context, orderID, technicianID uuid.UUID) error
	Cancel(ctx context.Context, adminID, orderID uuid.UUID, reason string) error
}

// AdminHandler serves /admin/orders. The admin gate runs in front of it.
type AdminHandler struct {
	service AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(s AdminService) *AdminHandler {
	return &AdminHandler{service: s}
}

// ErrorResponse represents the structure of an error response.
type ErrorResponse struct {
	Message string `json:"message"`
	RayID   string `json:"ray_id"`
}

// OrdersResponse wraps an order page.
type OrdersResponse struct {
	Data []checkout.OrderView `json:"data"`
}

// AssignRequest is the body of POST /admin/orders/:id/assign.
type AssignRequest struct {
	TechnicianID string `json:"technicianId"`
}

// CancelRequest is the optional body of POST /admin/orders/:id/cancel.
type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// ListOrders handles GET /admin/orders.
// @Summary List orders
// @Tags admin
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param limit query int false "Page size (max 200)"
// @Param offset query int false "Offset"
// @Success 200 {object} OrdersResponse
// @Failure 400 {object} ErrorResponse
// @Router /admin/orders [get]
func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	var statuses []string
	if raw := c.Query("status"); raw != "" {
		statuses = strings.Split(raw, ",")
	}

	orders, err := h.service.ListOrders(c.UserContext(), service.ListQuery{
		Statuses: statuses,
		Limit:    c.QueryInt("limit"),
		Offset:   c.QueryInt("offset"),
	})
	if err != nil {
		return h.mapError(c, err, "Failed to list orders")
	}

	views := make([]checkout.OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, checkout.NewOrderView(&orders[i]))
	}
	return c.JSON(OrdersResponse{Data: views})
}

// AssignTechnician handles POST /admin/orders/:id/assign.
// @Summary Assign a confirmed order to a technician
// @Tags admin
// @Accept json
// @Param id path string true "Order ID"
// @Param body body AssignRequest true "Technician"
// @Success 200
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/orders/{id}/assign [post]
func (h *AdminHandler) AssignTechnician(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.fail(c, fiber.StatusNotFound, service.ErrOrderNotFound.Error())
	}

	var req AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	techID, err := uuid.Parse(req.TechnicianID)
	if err != nil {
		return h.fail(c, fiber.StatusBadRequest, "technicianId must be a valid id")
	}

	if err := h.service.AssignTechnician(c.UserContext(), orderID, techID); err != nil {
		return h.mapError(c, err, "Failed to assign technician")
	}
	return c.JSON(fiber.Map{"ok": true})
}

// Cancel handles POST /admin/orders/:id/cancel.
// @Summary Cancel an order
// @Tags admin
// @Accept json
// @Param id path string true "Order ID"
// @Param body body CancelRequest false "Reason"
// @Success 200
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/orders/{id}/cancel [post]
func (h *AdminHandler) Cancel(c *fiber.Ctx) error {
	admin := middleware.CurrentUser(c)
	if admin == nil {
		return h.fail(c, fiber.StatusUnauthorized, "Not authenticated")
	}
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.fail(c, fiber.StatusNotFound, service.ErrOrderNotFound.Error())
	}

	var req CancelRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return h.fail(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}

	if err := h.service.Cancel(c.UserContext(), admin.ID, orderID, req.Reason); err != nil {
		return h.mapError(c, err, "Failed to cancel order")
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *AdminHandler) mapError(c *fiber.Ctx, err error, fallback string) error {
	var (
		ve  *apperr.ValidationError
		ite *apperr.InvalidTransitionError
	)
	switch {
	case errors.As(err, &ve):
		return h.fail(c, fiber.StatusBadRequest, ve.Message)
	case errors.As(err, &ite):
		return h.fail(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrOrderNotFound):
		return h.fail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotTechnician):
		return h.fail(c, fiber.StatusBadRequest, err.Error())
	}

	logger.Get().Error(fallback, zap.String("ray_id", server.RayID(c)), zap.Error(err))
	return h.fail(c, fiber.StatusInternalServerError, fallback)
}

func (h *AdminHandler) fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Message: msg, RayID: server.RayID(c)})
}
