package handler

import (
	"context"
	"errors"
	"io"

	"pixelpanic/internal/core/apperr"
	"pixelpanic/internal/core/logger"
	"pixelpanic/internal/core/server"
	"pixelpanic/internal/features/auth/middleware"
	"pixelpanic/internal/features/technicians/domain"
	"pixelpanic/internal/features/technicians/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GigService is the primary port for the technician work queue.
type GigService interface {
	ListMine(ctx context.Context, technicianID uuid.UUID, filter domain.Filter) ([]domain.Gig, error)
	ChangeStatus(ctx context.Context, technicianID, orderID uuid.UUID, to string) error
	ResendCode(ctx context.Context, technicianID, orderID uuid.UUID) error
	Complete(ctx context.Context, technicianID, orderID uuid.UUID, req domain.CompletionRequest) error
	UploadPhoto(ctx context.Context, folder string, size int64, r io.Reader) (string, error)
}

// GigHandler serves /api/technicians. Errors are answered as plain text.
type GigHandler struct {
	service GigService
}

// NewGigHandler creates a new GigHandler.
func NewGigHandler(s GigService) *GigHandler {
	return &GigHandler{service: s}
}

// GigsResponse answers GET /api/technicians/me/gigs.
type GigsResponse struct {
	Gigs []domain.Gig `json:"gigs"`
}

// StatusRequest is the body of POST /api/technicians/gigs/:id/status.
type StatusRequest struct {
	To string `json:"to"`
}

// UploadResponse answers POST /api/technicians/upload.
type UploadResponse struct {
	URL string `json:"url"`
}

// ListMine handles GET /api/technicians/me/gigs.
// @Summary List gigs assigned to the signed-in technician
// @Tags technicians
// @Produce json
// @Param status query string false "active (default) or all"
// @Success 200 {object} GigsResponse
// @Failure 400 {string} string
// @Router /api/technicians/me/gigs [get]
func (h *GigHandler) ListMine(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).SendString("Not authenticated")
	}

	filter, err := domain.ParseFilter(c.Query("status"))
	if err != nil {
		return textError(c, err, "")
	}

	gigs, err := h.service.ListMine(c.UserContext(), user.ID, filter)
	if err != nil {
		return textError(c, err, "Failed to load gigs")
	}
	return c.JSON(GigsResponse{Gigs: gigs})
}

// ChangeStatus handles POST /api/technicians/gigs/:id/status.
// @Summary Start a gig
// @Tags technicians
// @Accept json
// @Produce plain
// @Param id path string true "Order ID"
// @Param body body StatusRequest true "Target status"
// @Success 200
// @Failure 404 {string} string
// @Failure 409 {string} string
// @Router /api/technicians/gigs/{id}/status [post]
func (h *GigHandler) ChangeStatus(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).SendString("Not authenticated")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString(service.ErrGigNotFound.Error())
	}

	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid request body")
	}

	if err := h.service.ChangeStatus(c.UserContext(), user.ID, id, req.To); err != nil {
		return textError(c, err, "Failed to update gig")
	}
	return c.JSON(fiber.Map{"ok": true})
}

// ResendCode handles POST /api/technicians/gigs/:id/resend-code.
// @Summary Text the customer a fresh completion code
// @Tags technicians
// @Param id path string true "Order ID"
// @Success 200
// @Failure 409 {string} string
// @Router /api/technicians/gigs/{id}/resend-code [post]
func (h *GigHandler) ResendCode(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).SendString("Not authenticated")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString(service.ErrGigNotFound.Error())
	}

	if err := h.service.ResendCode(c.UserContext(), user.ID, id); err != nil {
		return textError(c, err, "Failed to send code")
	}
	return c.JSON(fiber.Map{"ok": true})
}

// Complete handles POST /api/technicians/gigs/:id/complete.
// @Summary Complete a gig with the customer code
// @Tags technicians
// @Accept json
// @Produce plain
// @Param id path string true "Order ID"
// @Param body body domain.CompletionRequest true "Code, notes and photos"
// @Success 200
// @Failure 400 {string} string
// @Failure 409 {string} string
// @Failure 429 {string} string
// @Router /api/technicians/gigs/{id}/complete [post]
func (h *GigHandler) Complete(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).SendString("Not authenticated")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString(service.ErrGigNotFound.Error())
	}

	var req domain.CompletionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid request body")
	}

	if err := h.service.Complete(c.UserContext(), user.ID, id, req); err != nil {
		return textError(c, err, "Failed to complete gig")
	}
	return c.JSON(fiber.Map{"ok": true})
}

// Upload handles POST /api/technicians/upload.
// @Summary Upload a completion photo
// @Tags technicians
// @Accept mpfd
// @Produce json
// @Param file formData file true "Photo"
// @Param folder formData string false "Target folder"
// @Success 200 {object} UploadResponse
// @Failure 400 {string} string
// @Router /api/technicians/upload [post]
func (h *GigHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("No file uploaded")
	}

	f, err := fh.Open()
	if err != nil {
		return textError(c, err, "Failed to read upload")
	}
	defer f.Close()

	url, err := h.service.UploadPhoto(c.UserContext(), c.FormValue("folder"), fh.Size, f)
	if err != nil {
		return textError(c, err, "Failed to store photo")
	}
	return c.JSON(UploadResponse{URL: url})
}

func textError(c *fiber.Ctx, err error, fallback string) error {
	var (
		ve  *apperr.ValidationError
		ite *apperr.InvalidTransitionError
	)
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).SendString(ve.Message)
	case errors.As(err, &ite):
		return c.Status(fiber.StatusConflict).SendString("This gig cannot move from " + ite.From + " to " + ite.To)
	case errors.Is(err, service.ErrGigNotFound):
		return c.Status(fiber.StatusNotFound).SendString(err.Error())
	case errors.Is(err, domain.ErrPhoneMismatch):
		return c.Status(fiber.StatusForbidden).SendString(err.Error())
	case errors.Is(err, domain.ErrInviteUnavailable),
		errors.Is(err, domain.ErrCodeExpired):
		return c.Status(fiber.StatusGone).SendString(err.Error())
	case errors.Is(err, domain.ErrCodeMismatch):
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	case errors.Is(err, domain.ErrTooManyAttempts):
		return c.Status(fiber.StatusTooManyRequests).SendString(err.Error())
	}

	logger.Get().Error(fallback, zap.String("ray_id", server.RayID(c)), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).SendString(fallback)
}
