package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doughlab/pizzeria/internal/domain/order"
)

const (
	orderColumns = `id, user_id, number, items, total, status, payment_status,
		payment_ref, address, estimated_delivery, note, created_at, updated_at`

	createOrderSQL = `INSERT INTO orders
		(id, user_id, number, items, total, status, payment_status, payment_ref, address, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersByUserSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	countOrdersSQL = `SELECT COUNT(*) FROM orders WHERE ($1 = '' OR status = $1)`

	nextOrderNumberSQL = `SELECT nextval('order_number_seq')`

	// Guarded by the expected current status: a concurrent transition on
	// the same order leaves exactly one winner.
	updateOrderStatusSQL = `UPDATE orders
		SET status = $3,
		    payment_status = CASE WHEN $4 <> '' THEN $4 ELSE payment_status END,
		    payment_ref = CASE WHEN $5 <> '' THEN $5 ELSE payment_ref END,
		    estimated_delivery = COALESCE($6, estimated_delivery),
		    updated_at = now()
		WHERE id = $1 AND status = $2`

	orderExistsSQL = `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Line
// items and the address snapshot live in JSONB columns; everything the
// back office filters on is a plain column.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	var addressJSON []byte
	if o.Address != nil {
		addressJSON, err = json.Marshal(o.Address)
		if err != nil {
			return fmt.Errorf("marshaling order address: %w", err)
		}
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, o.Number, itemsJSON, o.Total,
		string(o.Status), string(o.PaymentStatus), o.PaymentRef,
		addressJSON, o.Note,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns a single order.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// ListByUser returns a user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// List pages through all orders with an optional status filter and returns
// the total count for the filter.
func (r *OrderRepository) List(ctx context.Context, page order.ListPage) ([]order.Order, int, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.pool.Query(ctx, listOrdersSQL, string(page.Status), limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countOrdersSQL, string(page.Status)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}
	return orders, total, nil
}

// NextNumber reserves the next order-sequence value.
func (r *OrderRepository) NextNumber(ctx context.Context) (int64, error) {
	var seq int64
	if err := r.pool.QueryRow(ctx, nextOrderNumberSQL).Scan(&seq); err != nil {
		return 0, fmt.Errorf("reserving order number: %w", err)
	}
	return seq, nil
}

// UpdateStatus applies a guarded lifecycle transition. It distinguishes a
// missing order from a lost status race.
func (r *OrderRepository) UpdateStatus(ctx context.Context, upd order.StatusUpdate) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL,
		upd.OrderID, string(upd.From), string(upd.To),
		string(upd.PaymentStatus), upd.PaymentRef, upd.EstimatedDelivery,
	)
	if err != nil {
		return fmt.Errorf("updating order %q status: %w", upd.OrderID, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, orderExistsSQL, upd.OrderID).Scan(&exists); err != nil {
		return fmt.Errorf("checking order %q: %w", upd.OrderID, err)
	}
	if !exists {
		return order.ErrNotFound
	}
	return order.ErrStatusConflict
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o             order.Order
		status        string
		paymentStatus string
		itemsJSON     []byte
		addressJSON   []byte
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.Number, &itemsJSON, &o.Total,
		&status, &paymentStatus, &o.PaymentRef,
		&addressJSON, &o.EstimatedDelivery, &o.Note,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return o, err
	}
	return decodeOrderJSON(o, status, paymentStatus, itemsJSON, addressJSON)
}

func decodeOrderJSON(o order.Order, status, paymentStatus string, itemsJSON, addressJSON []byte) (order.Order, error) {
	o.Status = order.Status(status)
	o.PaymentStatus = order.PaymentStatus(paymentStatus)

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling order items: %w", err)
	}
	if len(addressJSON) > 0 {
		o.Address = &order.Address{}
		if err := json.Unmarshal(addressJSON, o.Address); err != nil {
			return o, fmt.Errorf("unmarshaling order address: %w", err)
		}
	}
	return o, nil
}
