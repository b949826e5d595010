package adapters

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pixelpanic/internal/core/apperr"
	"pixelpanic/internal/core/database"
	"pixelpanic/internal/features/checkout/domain"
	"pixelpanic/internal/features/checkout/ports"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresOrderRepository implements ports.OrderRepository with lib/pq.
type PostgresOrderRepository struct {
	db *sql.DB
}

// NewPostgresOrderRepository creates a new PostgresOrderRepository.
func NewPostgresOrderRepository(db *sql.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

// Create runs the yearly count and every insert inside one transaction.
// The table lock keeps two concurrent submissions from drawing the same sequence.
func (r *PostgresOrderRepository) Create(ctx context.Context, o ports.NewOrder, number ports.NumberFunc) (*domain.Order, error) {
	var orderNumber string

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `LOCK TABLE orders IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("failed to lock orders: %w", err)
		}

		yearStart := time.Date(o.CreatedAt.Year(), time.January, 1, 0, 0, 0, 0, o.CreatedAt.Location())
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM orders WHERE created_at >= $1 AND created_at < $2`,
			yearStart, yearStart.AddDate(1, 0, 0),
		).Scan(&count); err != nil {
			return fmt.Errorf("failed to count orders: %w", err)
		}

		var err error
		orderNumber, err = number(count + 1)
		if err != nil {
			return err
		}

		a := o.Address
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO addresses (id, user_id, full_name, phone, email, line1, line2, city, state, pincode, created_at)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, NULLIF($7, ''), $8, NULLIF($9, ''), $10, $11)`,
			a.ID, o.UserID, a.FullName, a.Phone, a.Email, a.Line1, a.Line2, a.City, a.State, a.Pincode, o.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert address: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO orders (id, order_number, user_id, address_id, coupon_id, status, service_mode, time_slot,
				subtotal_amount, discount_amount, total_amount, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $11, $12, $12)`,
			o.ID, orderNumber, o.UserID, a.ID, o.CouponID, domain.OrderStatusPendingPayment, o.ServiceMode, o.TimeSlot,
			o.Subtotal, o.Discount, o.Total, o.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for _, item := range o.Items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (id, order_id, product_id, issue_name, brand, model_name, grade, price, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				item.ID, o.ID, item.ProductID, item.IssueName, item.Brand, item.ModelName, item.Grade, item.Price, o.CreatedAt,
			); err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
		}

		return insertEvent(ctx, tx, o.ID, "order_created", map[string]any{
			"order_number": orderNumber,
			"total":        o.Total.StringFixed(2),
		})
	})
	if err != nil {
		return nil, err
	}

	address := o.Address
	return &domain.Order{
		ID:             o.ID,
		OrderNumber:    orderNumber,
		UserID:         o.UserID,
		CouponID:       o.CouponID,
		Status:         domain.OrderStatusPendingPayment,
		ServiceMode:    o.ServiceMode,
		TimeSlot:       o.TimeSlot,
		SubtotalAmount: o.Subtotal,
		DiscountAmount: o.Discount,
		TotalAmount:    o.Total,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.CreatedAt,
		Address:        &address,
		Items:          o.Items,
	}, nil
}

const orderSelect = `
	SELECT o.id, o.order_number, o.user_id, o.technician_id, o.coupon_id, o.status, o.service_mode,
		COALESCE(o.time_slot, ''), o.subtotal_amount, o.discount_amount, o.total_amount, o.created_at, o.updated_at,
		a.id, a.full_name, a.phone, COALESCE(a.email, ''), a.line1, COALESCE(a.line2, ''), a.city,
		COALESCE(a.state, ''), a.pincode,
		u.phone_number, COALESCE(u.name, '')
	FROM orders o
	JOIN addresses a ON a.id = o.address_id
	JOIN users u ON u.id = o.user_id`

func (r *PostgresOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, orderSelect+` WHERE o.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperr.NotFoundError{Resource: "order", ID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	items, err := r.loadItems(ctx, []uuid.UUID{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	return order, nil
}

func (r *PostgresOrderRepository) List(ctx context.Context, f ports.OrderFilter) ([]domain.Order, error) {
	var (
		where []string
		args  []any
	)
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		where = append(where, fmt.Sprintf("o.status = ANY($%d)", len(args)))
	}
	if f.UserID != nil {
		args = append(args, *f.UserID)
		where = append(where, fmt.Sprintf("o.user_id = $%d", len(args)))
	}
	if f.TechnicianID != nil {
		args = append(args, *f.TechnicianID)
		where = append(where, fmt.Sprintf("o.technician_id = $%d", len(args)))
	}

	query := orderSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY o.created_at DESC"

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, f.Offset)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var (
		orders []domain.Order
		ids    []uuid.UUID
	)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (r *PostgresOrderRepository) Transition(ctx context.Context, id uuid.UUID, to domain.OrderStatus, event string, data map[string]any) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return TransitionTx(ctx, tx, id, to, event, data)
	})
}

// AssignTechnician links the technician to a confirmed order.
func (r *PostgresOrderRepository) AssignTechnician(ctx context.Context, id, technicianID uuid.UUID) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := lockStatus(ctx, tx, id)
		if err != nil {
			return err
		}
		if current != domain.OrderStatusConfirmed {
			return &apperr.InvalidTransitionError{From: string(current), To: "assigned"}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET technician_id = $2, updated_at = now() WHERE id = $1`, id, technicianID,
		); err != nil {
			return fmt.Errorf("failed to assign technician: %w", err)
		}
		return insertEvent(ctx, tx, id, "technician_assigned", map[string]any{"technician_id": technicianID.String()})
	})
}

// TransitionTx validates and applies a status change inside tx, recording event.
// Other features reuse it to combine the change with their own writes.
func TransitionTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, to domain.OrderStatus, event string, data map[string]any) error {
	current, err := lockStatus(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := current.Transition(to); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, id, to,
	); err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if data == nil {
		data = map[string]any{}
	}
	data["from"] = string(current)
	data["to"] = string(to)
	return insertEvent(ctx, tx, id, event, data)
}

func lockStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID) (domain.OrderStatus, error) {
	var raw string
	err := tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &apperr.NotFoundError{Resource: "order", ID: id.String()}
	}
	if err != nil {
		return "", fmt.Errorf("failed to lock order: %w", err)
	}
	return domain.ParseOrderStatus(raw)
}

func insertEvent(ctx context.Context, q database.Querier, orderID uuid.UUID, eventType string, data map[string]any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode order event: %w", err)
	}
	if _, err := q.ExecContext(ctx,
		`INSERT INTO order_events (id, order_id, event_type, event_data) VALUES ($1, $2, $3, $4)`,
		uuid.New(), orderID, eventType, payload,
	); err != nil {
		return fmt.Errorf("failed to insert order event: %w", err)
	}
	return nil
}

func (r *PostgresOrderRepository) loadItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]domain.OrderItem, error) {
	ids := make([]string, len(orderIDs))
	for i, id := range orderIDs {
		ids[i] = id.String()
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, id, product_id, issue_name, brand, model_name, grade, price
		FROM order_items WHERE order_id = ANY($1::uuid[])
		ORDER BY created_at, id`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var (
			orderID uuid.UUID
			item    domain.OrderItem
			grade   string
		)
		if err := rows.Scan(&orderID, &item.ID, &item.ProductID, &item.IssueName, &item.Brand, &item.ModelName, &grade, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if item.Grade, err = domain.ParseGrade(grade); err != nil {
			return nil, err
		}
		items[orderID] = append(items[orderID], item)
	}
	return items, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*domain.Order, error) {
	var (
		o            domain.Order
		a            domain.Address
		c            domain.Customer
		technicianID uuid.NullUUID
		couponID     uuid.NullUUID
		status, mode string
	)
	if err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &technicianID, &couponID, &status, &mode,
		&o.TimeSlot, &o.SubtotalAmount, &o.DiscountAmount, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt,
		&a.ID, &a.FullName, &a.Phone, &a.Email, &a.Line1, &a.Line2, &a.City, &a.State, &a.Pincode,
		&c.PhoneNumber, &c.Name,
	); err != nil {
		return nil, err
	}

	var err error
	if o.Status, err = domain.ParseOrderStatus(status); err != nil {
		return nil, err
	}
	if o.ServiceMode, err = domain.ParseServiceMode(mode); err != nil {
		return nil, err
	}
	if technicianID.Valid {
		o.TechnicianID = &technicianID.UUID
	}
	if couponID.Valid {
		o.CouponID = &couponID.UUID
	}
	c.ID = o.UserID
	o.Address = &a
	o.Customer = &c
	return &o, nil
}
