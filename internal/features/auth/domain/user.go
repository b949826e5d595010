package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of actor roles. It is decoded once at the session boundary.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleTechnician Role = "technician"
	RoleAdmin      Role = "admin"
)

// ErrUnknownRole is returned by ParseRole for anything outside the closed set.
var ErrUnknownRole = errors.New("unknown role")

// ErrInvalidPhone is returned when a phone number is not a plausible E.164 number.
var ErrInvalidPhone = errors.New("invalid phone number")

var phonePattern = regexp.MustCompile(`^\+?[1-9][0-9]{9,14}$`)

// ParseRole decodes a stored role string.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleCustomer, RoleTechnician, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// User is an authenticated actor. Role is authoritative only when read from the database.
type User struct {
	ID          uuid.UUID `json:"id"`
	PhoneNumber string    `json:"phoneNumber"`
	Name        string    `json:"name,omitempty"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// Is reports whether the user holds exactly the given role. A nil user holds none.
func (u *User) Is(role Role) bool {
	return u != nil && u.Role == role
}

// NormalizePhone trims surrounding whitespace and validates the number.
// Numbers are otherwise kept byte-for-byte so later comparisons stay exact.
func NormalizePhone(raw string) (string, error) {
	phone := strings.TrimSpace(raw)
	if !phonePattern.MatchString(phone) {
		return "", ErrInvalidPhone
	}
	return phone, nil
}
