package service

import (
	"context"
	"fmt"

	"pixelpanic/internal/core/config"
	"pixelpanic/internal/features/auth/domain"

	"github.com/google/uuid"
)

var devUsers = map[domain.Role]domain.User{
	domain.RoleCustomer: {
		ID:          uuid.MustParse("00000000-0000-4000-8000-000000000001"),
		PhoneNumber: "+919000000001",
		Name:        "Dev Customer",
		Role:        domain.RoleCustomer,
	},
	domain.RoleTechnician: {
		ID:          uuid.MustParse("00000000-0000-4000-8000-000000000002"),
		PhoneNumber: "+919000000002",
		Name:        "Dev Technician",
		Role:        domain.RoleTechnician,
	},
	domain.RoleAdmin: {
		ID:          uuid.MustParse("00000000-0000-4000-8000-000000000003"),
		PhoneNumber: "+919000000003",
		Name:        "Dev Admin",
		Role:        domain.RoleAdmin,
	},
}

// DevResolver returns a fixed user for every request without consulting any store.
type DevResolver struct {
	user domain.User
}

// NewDevResolver builds the development identity bypass. It refuses to exist outside development.
func NewDevResolver(environment, role string) (*DevResolver, error) {
	if environment != config.EnvDevelopment {
		return nil, fmt.Errorf("dev auth bypass requested in %q environment", environment)
	}
	r, err := domain.ParseRole(role)
	if err != nil {
		return nil, err
	}
	return &DevResolver{user: devUsers[r]}, nil
}

// Resolve implements ports.Resolver.
func (d *DevResolver) Resolve(_ context.Context, _ string) (*domain.User, error) {
	u := d.user
	return &u, nil
}
