package adapters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pixelpanic/internal/core/apperr"
	"pixelpanic/internal/core/database"
	"pixelpanic/internal/features/technicians/domain"

	"github.com/google/uuid"
)

// PostgresInviteRepository implements ports.InviteRepository with lib/pq.
type PostgresInviteRepository struct {
	db *sql.DB
}

// NewPostgresInviteRepository creates a new PostgresInviteRepository.
func NewPostgresInviteRepository(db *sql.DB) *PostgresInviteRepository {
	return &PostgresInviteRepository{db: db}
}

const inviteColumns = `id, phone_number, COALESCE(name, ''), token, expires_at, used_at, revoked_at, created_at`

func (r *PostgresInviteRepository) List(ctx context.Context) ([]domain.Invite, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+inviteColumns+` FROM technician_invites ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	defer rows.Close()

	var invites []domain.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		invites = append(invites, *inv)
	}
	return invites, rows.Err()
}

func (r *PostgresInviteRepository) Create(ctx context.Context, inv domain.Invite) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO technician_invites (id, phone_number, name, token, expires_at, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)`,
		inv.ID, inv.PhoneNumber, inv.Name, inv.Token, inv.ExpiresAt, inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert invite: %w", err)
	}
	return nil
}

func (r *PostgresInviteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invite, error) {
	inv, err := scanInvite(r.db.QueryRowContext(ctx, `SELECT `+inviteColumns+` FROM technician_invites WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperr.NotFoundError{Resource: "invite", ID: id.String()}
	}
	return inv, err
}

func (r *PostgresInviteRepository) GetByToken(ctx context.Context, token string) (*domain.Invite, error) {
	inv, err := scanInvite(r.db.QueryRowContext(ctx, `SELECT `+inviteColumns+` FROM technician_invites WHERE token = $1`, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperr.NotFoundError{Resource: "invite", ID: "token"}
	}
	return inv, err
}

// Revoke sets revoked_at on an unused invite. Revoking twice is a no-op.
func (r *PostgresInviteRepository) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var usedAt sql.NullTime
		err := tx.QueryRowContext(ctx, `SELECT used_at FROM technician_invites WHERE id = $1 FOR UPDATE`, id).Scan(&usedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return &apperr.NotFoundError{Resource: "invite", ID: id.String()}
		}
		if err != nil {
			return fmt.Errorf("failed to lock invite: %w", err)
		}
		if usedAt.Valid {
			return domain.ErrInviteAlreadyUsed
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE technician_invites SET revoked_at = COALESCE(revoked_at, $2) WHERE id = $1`, id, at,
		); err != nil {
			return fmt.Errorf("failed to revoke invite: %w", err)
		}
		return nil
	})
}

// Accept consumes the invite with a conditional update, then promotes the user.
// Admins keep their role.
func (r *PostgresInviteRepository) Accept(ctx context.Context, token, phone string, userID uuid.UUID, at time.Time) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE technician_invites SET used_at = $3
			WHERE token = $1 AND phone_number = $2
				AND used_at IS NULL AND revoked_at IS NULL AND expires_at > $3`,
			token, phone, at,
		)
		if err != nil {
			return fmt.Errorf("failed to consume invite: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrInviteUnavailable
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET role = 'technician', updated_at = $2 WHERE id = $1 AND role <> 'admin'`,
			userID, at,
		); err != nil {
			return fmt.Errorf("failed to promote user: %w", err)
		}
		return nil
	})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvite(row scanner) (*domain.Invite, error) {
	var (
		inv       domain.Invite
		usedAt    sql.NullTime
		revokedAt sql.NullTime
	)
	if err := row.Scan(&inv.ID, &inv.PhoneNumber, &inv.Name, &inv.Token, &inv.ExpiresAt, &usedAt, &revokedAt, &inv.CreatedAt); err != nil {
		return nil, err
	}
	if usedAt.Valid {
		inv.UsedAt = &usedAt.Time
	}
	if revokedAt.Valid {
		inv.RevokedAt = &revokedAt.Time
	}
	return &inv, nil
}
