package domain

import (
	"errors"
	"regexp"
)

// LoginCodeLength is the number of digits in a login OTP.
const LoginCodeLength = 6

// ErrInvalidCode is returned for codes that are not exactly LoginCodeLength digits.
var ErrInvalidCode = errors.New("otp code must be 6 digits")

var loginCodePattern = regexp.MustCompile(`^[0-9]{6}$`)

// OTPChallenge is a pending login verification. CodeHash is a bcrypt hash; the code itself is never stored.
type OTPChallenge struct {
	VerificationID string `json:"verificationId"`
	PhoneNumber    string `json:"phoneNumber"`
	CodeHash       string `json:"codeHash"`
}

// ValidateLoginCode checks the shape of a login code before any lookup happens.
func ValidateLoginCode(code string) error {
	if !loginCodePattern.MatchString(code) {
		return ErrInvalidCode
	}
	return nil
}
