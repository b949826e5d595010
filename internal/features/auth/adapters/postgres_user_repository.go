package adapters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pixelpanic/internal/core/apperr"
	"pixelpanic/internal/features/auth/domain"

	"github.com/google/uuid"
)

// PostgresUserRepository implements ports.UserRepository with lib/pq.
type PostgresUserRepository struct {
	db *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = `id, phone_number, COALESCE(name, ''), role, created_at, updated_at`

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperr.NotFoundError{Resource: "user", ID: id.String()}
	}
	return user, err
}

func (r *PostgresUserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number = $1`, phone)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperr.NotFoundError{Resource: "user", ID: phone}
	}
	return user, err
}

// FindOrCreateByPhone inserts a customer row unless the phone already exists.
// The no-op DO UPDATE makes RETURNING yield the existing row too.
func (r *PostgresUserRepository) FindOrCreateByPhone(ctx context.Context, phone string) (*domain.User, error) {
	now := time.Now()
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, phone_number, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (phone_number) DO UPDATE SET phone_number = EXCLUDED.phone_number
		RETURNING `+userColumns,
		uuid.New(), phone, domain.RoleCustomer, now,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepository) SetRole(ctx context.Context, id uuid.UUID, role domain.Role) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = $2, updated_at = $3 WHERE id = $1`, id, role, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &apperr.NotFoundError{Resource: "user", ID: id.String()}
	}
	return nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		user domain.User
		role string
	)
	if err := row.Scan(&user.ID, &user.PhoneNumber, &user.Name, &role, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}
	parsed, err := domain.ParseRole(role)
	if err != nil {
		return nil, err
	}
	user.Role = parsed
	return &user, nil
}
