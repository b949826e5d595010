package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pixelpanic/internal/core/apperr"
	"pixelpanic/internal/features/auth/domain"
	"pixelpanic/internal/features/auth/middleware"
	"pixelpanic/internal/features/auth/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAuthService is a mock implementation of AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) SendOTP(ctx context.Context, phone string) (string, error) {
	args := m.Called(ctx, phone)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) VerifyOTP(ctx context.Context, phone, code, verificationID string) (*domain.User, string, error) {
	args := m.Called(ctx, phone, code, verificationID)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*domain.User), args.String(1), args.Error(2)
}

func (m *MockAuthService) Logout(ctx context.Context, token string) {
	m.Called(ctx, token)
}

type staticResolver struct {
	user *domain.User
}

func (r staticResolver) Resolve(_ context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, nil
	}
	return r.user, nil
}

func setupApp(svc *MockAuthService, resolved *domain.User) *fiber.App {
	app := fiber.New()
	app.Use(middleware.Session(staticResolver{user: resolved}, "pp_session"))
	h := NewAuthHandler(svc, CookieSettings{Name: "pp_session", TTL: time.Hour})
	app.Get("/api/auth/me", h.Me)
	app.Post("/api/auth/send-otp", h.SendOTP)
	app.Post("/api/auth/verify-otp", h.VerifyOTP)
	app.Post("/api/auth/logout", h.Logout)
	return app
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAuthHandler_Me(t *testing.T) {
	t.Run("Authenticated", func(t *testing.T) {
		user := &domain.User{ID: uuid.New(), PhoneNumber: "+919876543210", Role: domain.RoleTechnician}
		app := setupApp(new(MockAuthService), user)

		req := httptest.NewRequest("GET", "/api/auth/me", nil)
		req.Header.Set("Cookie", "pp_session=abc")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			User struct {
				ID          string `json:"id"`
				PhoneNumber string `json:"phoneNumber"`
				Role        string `json:"role"`
			} `json:"user"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, user.ID.String(), body.User.ID)
		assert.Equal(t, "+919876543210", body.User.PhoneNumber)
		assert.Equal(t, "technician", body.User.Role)
	})

	t.Run("Anonymous", func(t *testing.T) {
		app := setupApp(new(MockAuthService), nil)

		resp, err := app.Test(httptest.NewRequest("GET", "/api/auth/me", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var body ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "Not authenticated", body.Message)
	})
}

func TestAuthHandler_SendOTP(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := new(MockAuthService)
		app := setupApp(svc, nil)
		svc.On("SendOTP", mock.Anything, "+919876543210").Return("ver-1", nil).Once()

		resp, err := app.Test(jsonRequest("POST", "/api/auth/send-otp", SendOTPRequest{PhoneNumber: "+919876543210"}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body SendOTPResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "ver-1", body.VerificationID)
		svc.AssertExpectations(t)
	})

	t.Run("InvalidPhone", func(t *testing.T) {
		svc := new(MockAuthService)
		app := setupApp(svc, nil)
		svc.On("SendOTP", mock.Anything, "12").Return("", apperr.Invalid("phoneNumber", "enter a valid mobile number")).Once()

		resp, err := app.Test(jsonRequest("POST", "/api/auth/send-otp", SendOTPRequest{PhoneNumber: "12"}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "enter a valid mobile number", body.Message)
	})

	t.Run("GatewayFailure", func(t *testing.T) {
		svc := new(MockAuthService)
		app := setupApp(svc, nil)
		svc.On("SendOTP", mock.Anything, "+919876543210").Return("", errors.New("gateway down")).Once()

		resp, err := app.Test(jsonRequest("POST", "/api/auth/send-otp", SendOTPRequest{PhoneNumber: "+919876543210"}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestAuthHandler_VerifyOTP(t *testing.T) {
	t.Run("SetsSessionCookie", func(t *testing.T) {
		svc := new(MockAuthService)
		app := setupApp(svc, nil)
		user := &domain.User{ID: uuid.New(), PhoneNumber: "+919876543210", Role: domain.RoleCustomer}
		svc.On("VerifyOTP", mock.Anything, "+919876543210", "123456", "ver-1").Return(user, "tok", nil).Once()

		resp, err := app.Test(jsonRequest("POST", "/api/auth/verify-otp", VerifyOTPRequest{
			PhoneNumber: "+919876543210", OTPCode: "123456", VerificationID: "ver-1",
		}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		cookie := resp.Header.Get("Set-Cookie")
		assert.Contains(t, cookie, "pp_session=tok")
		assert.Contains(t, cookie, "HttpOnly")
		assert.Contains(t, cookie, "SameSite=Lax")
	})

	t.Run("WrongCode", func(t *testing.T) {
		svc := new(MockAuthService)
		app := setupApp(svc, nil)
		svc.On("VerifyOTP", mock.Anything, "+919876543210", "000000", "ver-1").Return(nil, "", service.ErrCodeMismatch).Once()

		resp, err := app.Test(jsonRequest("POST", "/api/auth/verify-otp", VerifyOTPRequest{
			PhoneNumber: "+919876543210", OTPCode: "000000", VerificationID: "ver-1",
		}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("Set-Cookie"))
	})

	t.Run("TooManyAttempts", func(t *testing.T) {
		svc := new(MockAuthService)
		app := setupApp(svc, nil)
		svc.On("VerifyOTP", mock.Anything, "+919876543210", "000000", "ver-1").Return(nil, "", service.ErrTooManyAttempts).Once()

		resp, err := app.Test(jsonRequest("POST", "/api/auth/verify-otp", VerifyOTPRequest{
			PhoneNumber: "+919876543210", OTPCode: "000000", VerificationID: "ver-1",
		}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	svc := new(MockAuthService)
	app := setupApp(svc, nil)
	svc.On("Logout", mock.Anything, "tok").Once()

	req := httptest.NewRequest("POST", "/api/auth/logout", nil)
	req.Header.Set("Cookie", "pp_session=tok")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Set-Cookie"), "pp_session=")
	svc.AssertExpectations(t)
}
