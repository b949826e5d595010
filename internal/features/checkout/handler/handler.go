package handler

import (
	"context"
	"errors"

	"pixelpanic/internal/core/apperr"
	"pixelpanic/internal/core/logger"
	"pixelpanic/internal/core/server"
	authdomain "pixelpanic/internal/features/auth/domain"
	"pixelpanic/internal/features/auth/middleware"
	"pixelpanic/internal/features/checkout/domain"
	"pixelpanic/internal/features/checkout/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CheckoutService is the primary port the handler drives.
type CheckoutService interface {
	CreateOrder(ctx context.Context, customerID uuid.UUID, req domain.CreateOrderRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, viewer service.Viewer, id uuid.UUID) (*domain.Order, error)
	ApplyCoupon(ctx context.Context, code string, subtotal decimal.Decimal) (*domain.AppliedCoupon, error)
}

// CheckoutHandler handles HTTP requests for checkout and order confirmation.
type CheckoutHandler struct {
	service CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(s CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{service: s}
}

// ErrorResponse represents the structure of an error response.
type ErrorResponse struct {
	Message string `json:"message"`
	RayID   string `json:"ray_id"`
}

// CreateOrderResult is the payload of a successful create-order call.
type CreateOrderResult struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}

// CreateOrderResponse wraps CreateOrderResult.
type CreateOrderResponse struct {
	Data CreateOrderResult `json:"data"`
}

// OrderResponse wraps a full order.
type OrderResponse struct {
	Data domain.OrderView `json:"data"`
}

// ApplyCouponRequest is the body of POST /api/checkout/apply-coupon.
type ApplyCouponRequest struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// ApplyCouponResponse wraps the accepted coupon.
type ApplyCouponResponse struct {
	Data domain.AppliedCoupon `json:"data"`
}

// CreateOrder handles POST /api/checkout/create-order.
// @Summary Submit the cart as an order
// @Tags checkout
// @Accept json
// @Produce json
// @Param body body domain.CreateOrderRequest true "Cart, customer info and service details"
// @Success 200 {object} CreateOrderResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 402 {object} ErrorResponse
// @Router /api/checkout/create-order [post]
func (h *CheckoutHandler) CreateOrder(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return h.fail(c, fiber.StatusUnauthorized, "Please sign in to place an order")
	}

	var req domain.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	order, err := h.service.CreateOrder(c.UserContext(), user.ID, req)
	if err != nil {
		return h.mapError(c, err, "Failed to create order")
	}

	return c.JSON(CreateOrderResponse{Data: CreateOrderResult{
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
	}})
}

// GetOrder handles GET /api/orders/:id.
// @Summary Fetch an order for the confirmation page
// @Tags checkout
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} OrderResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/orders/{id} [get]
func (h *CheckoutHandler) GetOrder(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return h.fail(c, fiber.StatusUnauthorized, "Not authenticated")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.fail(c, fiber.StatusNotFound, service.ErrOrderNotFound.Error())
	}

	order, err := h.service.GetOrder(c.UserContext(), service.Viewer{
		UserID: user.ID,
		Admin:  user.Is(authdomain.RoleAdmin),
	}, id)
	if err != nil {
		return h.mapError(c, err, "Failed to load order")
	}

	return c.JSON(OrderResponse{Data: domain.NewOrderView(order)})
}

// ApplyCoupon handles POST /api/checkout/apply-coupon.
// @Summary Validate a coupon against a subtotal
// @Tags checkout
// @Accept json
// @Produce json
// @Param body body ApplyCouponRequest true "Coupon"
// @Success 200 {object} ApplyCouponResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/checkout/apply-coupon [post]
func (h *CheckoutHandler) ApplyCoupon(c *fiber.Ctx) error {
	var req ApplyCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	applied, err := h.service.ApplyCoupon(c.UserContext(), req.Code, req.Subtotal)
	if err != nil {
		return h.mapError(c, err, "Failed to apply coupon")
	}

	return c.JSON(ApplyCouponResponse{Data: *applied})
}

func (h *CheckoutHandler) mapError(c *fiber.Ctx, err error, fallback string) error {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		return h.fail(c, fiber.StatusBadRequest, ve.Message)
	case errors.Is(err, service.ErrOrderNotFound):
		return h.fail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrCouponNotFound),
		errors.Is(err, domain.ErrCouponInactive),
		errors.Is(err, domain.ErrCouponMinimum):
		return h.fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPaymentFailed):
		return h.fail(c, fiber.StatusPaymentRequired, "Payment failed, please try again")
	}

	logger.Get().Error(fallback, zap.String("ray_id", server.RayID(c)), zap.Error(err))
	return h.fail(c, fiber.StatusInternalServerError, fallback)
}

func (h *CheckoutHandler) fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Message: msg, RayID: server.RayID(c)})
}
