package handler

import (
	"context"
	"errors"
	"time"

	"pixelpanic/internal/core/apperr"
	"pixelpanic/internal/core/logger"
	"pixelpanic/internal/core/server"
	"pixelpanic/internal/features/auth/domain"
	"pixelpanic/internal/features/auth/middleware"
	"pixelpanic/internal/features/auth/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthService is the primary port the handler drives.
type AuthService interface {
	SendOTP(ctx context.Context, phone string) (string, error)
	VerifyOTP(ctx context.Context, phone, code, verificationID string) (*domain.User, string, error)
	Logout(ctx context.Context, token string)
}

// CookieSettings describes the session cookie.
type CookieSettings struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// AuthHandler handles HTTP requests under /api/auth.
type AuthHandler struct {
	service AuthService
	cookie  CookieSettings
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(s AuthService, cookie CookieSettings) *AuthHandler {
	return &AuthHandler{service: s, cookie: cookie}
}

// ErrorResponse represents the structure of an error response.
type ErrorResponse struct {
	Message string `json:"message"`
	RayID   string `json:"ray_id"`
}

// MeResponse wraps the resolved user.
type MeResponse struct {
	User *domain.User `json:"user"`
}

// SendOTPRequest is the body of POST /api/auth/send-otp.
type SendOTPRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

// SendOTPResponse carries the id the client must echo back when verifying.
type SendOTPResponse struct {
	VerificationID string `json:"verificationId"`
}

// VerifyOTPRequest is the body of POST /api/auth/verify-otp.
type VerifyOTPRequest struct {
	PhoneNumber    string `json:"phoneNumber"`
	OTPCode        string `json:"otpCode"`
	VerificationID string `json:"verificationId"`
}

// Me handles GET /api/auth/me.
// @Summary Resolve the current session
// @Tags auth
// @Produce json
// @Success 200 {object} MeResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Message: "Not authenticated",
			RayID:   server.RayID(c),
		})
	}
	return c.JSON(MeResponse{User: user})
}

// SendOTP handles POST /api/auth/send-otp.
// @Summary Send a login OTP
// @Tags auth
// @Accept json
// @Produce json
// @Param body body SendOTPRequest true "Phone number"
// @Success 200 {object} SendOTPResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/auth/send-otp [post]
func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var req SendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	id, err := h.service.SendOTP(c.UserContext(), req.PhoneNumber)
	if err != nil {
		return h.mapError(c, err, "Failed to send OTP")
	}

	return c.JSON(SendOTPResponse{VerificationID: id})
}

// VerifyOTP handles POST /api/auth/verify-otp.
// @Summary Verify a login OTP and start a session
// @Tags auth
// @Accept json
// @Produce json
// @Param body body VerifyOTPRequest true "Verification"
// @Success 200 {object} MeResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/auth/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	user, token, err := h.service.VerifyOTP(c.UserContext(), req.PhoneNumber, req.OTPCode, req.VerificationID)
	if err != nil {
		return h.mapError(c, err, "Failed to verify OTP")
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cookie.TTL),
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.JSON(MeResponse{User: user})
}

// Logout handles POST /api/auth/logout. It always answers 200.
// @Summary End the current session
// @Tags auth
// @Success 200
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.service.Logout(c.UserContext(), c.Cookies(h.cookie.Name))
	c.ClearCookie(h.cookie.Name)
	return c.JSON(fiber.Map{"ok": true})
}

func (h *AuthHandler) mapError(c *fiber.Ctx, err error, fallback string) error {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		return h.fail(c, fiber.StatusBadRequest, ve.Message)
	case errors.Is(err, service.ErrCodeMismatch),
		errors.Is(err, service.ErrChallengeExpired):
		return h.fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrTooManyAttempts):
		return h.fail(c, fiber.StatusTooManyRequests, err.Error())
	}

	logger.Get().Error(fallback, zap.String("ray_id", server.RayID(c)), zap.Error(err))
	return h.fail(c, fiber.StatusInternalServerError, fallback)
}

func (h *AuthHandler) fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Message: msg, RayID: server.RayID(c)})
}
