package adapters

import (
	"context"
	"database/sql"
	"fmt"

	"pixelpanic/internal/core/database"
	checkoutadapters "pixelpanic/internal/features/checkout/adapters"
	checkout "pixelpanic/internal/features/checkout/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresCompletionRepository implements ports.CompletionRepository with lib/pq.
type PostgresCompletionRepository struct {
	db *sql.DB
}

// NewPostgresCompletionRepository creates a new PostgresCompletionRepository.
func NewPostgresCompletionRepository(db *sql.DB) *PostgresCompletionRepository {
	return &PostgresCompletionRepository{db: db}
}

func (r *PostgresCompletionRepository) Complete(ctx context.Context, orderID, technicianID uuid.UUID, notes string, photos []string) error {
	if photos == nil {
		photos = []string{}
	}
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := checkoutadapters.TransitionTx(ctx, tx, orderID, checkout.OrderStatusCompleted, "gig_completed", map[string]any{
			"technician_id": technicianID.String(),
			"photos":        len(photos),
		}); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO gig_completions (id, order_id, technician_id, notes, photos)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5)`,
			uuid.New(), orderID, technicianID, notes, pq.Array(photos),
		); err != nil {
			return fmt.Errorf("failed to record completion: %w", err)
		}
		return nil
	})
}
