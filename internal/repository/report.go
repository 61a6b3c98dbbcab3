package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/doughlab/pizzeria/internal/domain/order"
	"github.com/doughlab/pizzeria/internal/domain/report"
)

const (
	statusCountsSQL = `SELECT status, COUNT(*) FROM orders GROUP BY status`

	revenueSQL = `SELECT COALESCE(SUM(total), 0) FROM orders WHERE payment_status = 'paid'`

	recentOrdersSQL = `SELECT o.id, o.user_id, o.number, o.items, o.total, o.status,
			o.payment_status, o.payment_ref, o.address, o.estimated_delivery, o.note,
			o.created_at, o.updated_at,
			u.name, u.email, u.phone
		FROM orders o
		JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC
		LIMIT $1`
)

var _ report.Repository = (*ReportRepository)(nil)

// ReportRepository implements the dashboard aggregation queries.
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository returns a ReportRepository that uses the given pool.
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// StatusCounts returns the number of orders in each lifecycle state.
func (r *ReportRepository) StatusCounts(ctx context.Context) (map[order.Status]int, error) {
	rows, err := r.pool.Query(ctx, statusCountsSQL)
	if err != nil {
		return nil, fmt.Errorf("counting orders by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[order.Status]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		counts[order.Status(status)] = n
	}
	return counts, rows.Err()
}

// Revenue sums totals over paid orders.
func (r *ReportRepository) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var revenue decimal.Decimal
	if err := r.pool.QueryRow(ctx, revenueSQL).Scan(&revenue); err != nil {
		return decimal.Zero, fmt.Errorf("summing revenue: %w", err)
	}
	return revenue, nil
}

// Recent returns the most recent orders with their owners resolved.
func (r *ReportRepository) Recent(ctx context.Context, limit int) ([]report.RecentOrder, error) {
	rows, err := r.pool.Query(ctx, recentOrdersSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent orders: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.RecentOrder, error) {
		var ro report.RecentOrder
		o, err := scanOrderWithUser(row, &ro.UserName, &ro.UserEmail, &ro.UserPhone)
		ro.Order = o
		return ro, err
	})
}

func scanOrderWithUser(row pgx.CollectableRow, name, email, phone *string) (order.Order, error) {
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
		name, email, phone,
	)
	if err != nil {
		return o, err
	}
	return decodeOrderJSON(o, status, paymentStatus, itemsJSON, addressJSON)
}
