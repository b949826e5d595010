package handler

import (
	"context"
	"errors"

	"pixelpanic/internal/core/apperr"
	"pixelpanic/internal/core/logger"
	"pixelpanic/internal/core/server"
	authdomain "pixelpanic/internal/features/auth/domain"
	"pixelpanic/internal/features/auth/middleware"
	"pixelpanic/internal/features/technicians/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InviteService is the primary port for invite management and redemption.
type InviteService interface {
	List(ctx context.Context) ([]domain.InviteRow, error)
	Create(ctx context.Context, rawPhone, name string) (*domain.Invite, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	GetActive(ctx context.Context, token string) (*domain.Invite, error)
	Accept(ctx context.Context, token string, user *authdomain.User, phone string) error
}

// InviteHandler serves the admin invite screens and the public acceptance flow.
type InviteHandler struct {
	service InviteService
}

// NewInviteHandler creates a new InviteHandler.
func NewInviteHandler(s InviteService) *InviteHandler {
	return &InviteHandler{service: s}
}

// ErrorResponse represents the structure of an error response.
type ErrorResponse struct {
	Message string `json:"message"`
	RayID   string `json:"ray_id"`
}

// CreateInviteRequest is the body of POST /admin/technician-invites.
type CreateInviteRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Name        string `json:"name,omitempty"`
}

// PublicInvite is what an invitee sees before accepting.
type PublicInvite struct {
	PhoneNumber string `json:"phoneNumber"`
	Name        string `json:"name,omitempty"`
}

// InviteLookupResponse answers GET /api/technicians/invites/:token.
type InviteLookupResponse struct {
	OK     bool          `json:"ok"`
	Invite *PublicInvite `json:"invite,omitempty"`
}

// AcceptInviteRequest is the body of POST /api/technicians/invites/:token/complete.
type AcceptInviteRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

// List handles GET /admin/technician-invites.
// @Summary List technician invites
// @Tags technicians
// @Produce json
// @Success 200 {array} domain.InviteRow
// @Router /admin/technician-invites [get]
func (h *InviteHandler) List(c *fiber.Ctx) error {
	rows, err := h.service.List(c.UserContext())
	if err != nil {
		logger.Get().Error("Failed to list invites", zap.String("ray_id", server.RayID(c)), zap.Error(err))
		return h.fail(c, fiber.StatusInternalServerError, "Failed to list invites")
	}
	return c.JSON(rows)
}

// Create handles POST /admin/technician-invites.
// @Summary Invite a technician by phone number
// @Tags technicians
// @Accept json
// @Produce json
// @Param body body CreateInviteRequest true "Invitee"
// @Success 200 {object} domain.Invite
// @Failure 422 {object} ErrorResponse
// @Router /admin/technician-invites [post]
func (h *InviteHandler) Create(c *fiber.Ctx) error {
	var req CreateInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusUnprocessableEntity, "Invalid request body")
	}

	invite, err := h.service.Create(c.UserContext(), req.PhoneNumber, req.Name)
	if err != nil {
		var ve *apperr.ValidationError
		if errors.As(err, &ve) {
			return h.fail(c, fiber.StatusUnprocessableEntity, ve.Message)
		}
		logger.Get().Error("Failed to create invite", zap.String("ray_id", server.RayID(c)), zap.Error(err))
		return h.fail(c, fiber.StatusInternalServerError, "Failed to create invite")
	}
	return c.JSON(invite)
}

// Revoke handles POST /admin/technician-invites/:id/revoke.
// @Summary Revoke an unused invite
// @Tags technicians
// @Param id path string true "Invite ID"
// @Success 200
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/technician-invites/{id}/revoke [post]
func (h *InviteHandler) Revoke(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.fail(c, fiber.StatusNotFound, "Invite not found")
	}

	err = h.service.Revoke(c.UserContext(), id)
	var nf *apperr.NotFoundError
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"ok": true})
	case errors.As(err, &nf):
		return h.fail(c, fiber.StatusNotFound, "Invite not found")
	case errors.Is(err, domain.ErrInviteAlreadyUsed):
		return h.fail(c, fiber.StatusConflict, err.Error())
	}

	logger.Get().Error("Failed to revoke invite", zap.String("ray_id", server.RayID(c)), zap.Error(err))
	return h.fail(c, fiber.StatusInternalServerError, "Failed to revoke invite")
}

// Lookup handles GET /api/technicians/invites/:token.
// @Summary Check an invite link
// @Tags technicians
// @Produce json
// @Param token path string true "Invite token"
// @Success 200 {object} InviteLookupResponse
// @Failure 404 {object} InviteLookupResponse
// @Router /api/technicians/invites/{token} [get]
func (h *InviteHandler) Lookup(c *fiber.Ctx) error {
	invite, err := h.service.GetActive(c.UserContext(), c.Params("token"))
	if err != nil {
		if !errors.Is(err, domain.ErrInviteUnavailable) {
			logger.Get().Error("Failed to load invite", zap.String("ray_id", server.RayID(c)), zap.Error(err))
		}
		return c.Status(fiber.StatusNotFound).JSON(InviteLookupResponse{OK: false})
	}

	return c.JSON(InviteLookupResponse{OK: true, Invite: &PublicInvite{
		PhoneNumber: invite.PhoneNumber,
		Name:        invite.Name,
	}})
}

// Accept handles POST /api/technicians/invites/:token/complete.
// @Summary Accept an invite with the verified phone number
// @Tags technicians
// @Accept json
// @Produce plain
// @Param token path string true "Invite token"
// @Param body body AcceptInviteRequest true "Verified phone"
// @Success 200
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Failure 403 {string} string
// @Router /api/technicians/invites/{token}/complete [post]
func (h *InviteHandler) Accept(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).SendString("Verify your phone number first")
	}

	var req AcceptInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid request body")
	}

	if err := h.service.Accept(c.UserContext(), c.Params("token"), user, req.PhoneNumber); err != nil {
		return textError(c, err, "Failed to accept invite")
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *InviteHandler) fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Message: msg, RayID: server.RayID(c)})
}
