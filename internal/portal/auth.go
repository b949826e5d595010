package portal

import (
	"context"
	"net/http"

	"pixelpanic/internal/core/apperr"
	authdomain "pixelpanic/internal/features/auth/domain"

	"go.uber.org/zap"
)

// SendOTP texts a login code to phone and returns the verification id.
// A malformed number is rejected before any request.
func (c *Client) SendOTP(ctx context.Context, phone string) (string, error) {
	phone, err := authdomain.NormalizePhone(phone)
	if err != nil {
		return "", apperr.Invalid("phoneNumber", "enter a valid mobile number")
	}

	var out struct {
		VerificationID string `json:"verificationId"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/send-otp", map[string]string{"phoneNumber": phone}, &out); err != nil {
		return "", err
	}
	return out.VerificationID, nil
}

// VerifyOTP redeems the code. On success the session cookie lands in the client jar.
func (c *Client) VerifyOTP(ctx context.Context, phone, code, verificationID string) error {
	if err := authdomain.ValidateLoginCode(code); err != nil {
		return apperr.Invalid("otpCode", err.Error())
	}
	return c.do(ctx, http.MethodPost, "/api/auth/verify-otp", map[string]string{
		"phoneNumber":    phone,
		"otpCode":        code,
		"verificationId": verificationID,
	}, nil)
}

// Logout is best effort. The outcome is logged and otherwise ignored.
func (c *Client) Logout(ctx context.Context) {
	if err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
		c.log.Debug("Logout request failed", zap.Error(err))
	}
}
