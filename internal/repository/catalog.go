package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doughlab/pizzeria/internal/domain/catalog"
)

const (
	catalogColumns = `id, name, description, price, category, available, stock, threshold`

	listCatalogSQL = `SELECT ` + catalogColumns + ` FROM catalog_items
		WHERE ($1 = '' OR category = $1)
		  AND (NOT $2 OR (available AND stock > 0))
		ORDER BY name`

	getCatalogByIDSQL = `SELECT ` + catalogColumns + ` FROM catalog_items WHERE id = $1`

	getCatalogByIDsSQL = `SELECT ` + catalogColumns + ` FROM catalog_items WHERE id = ANY($1)`

	createCatalogSQL = `INSERT INTO catalog_items (id, name, description, price, category, available, stock, threshold)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	updateCatalogSQL = `UPDATE catalog_items
		SET name = $2, description = $3, price = $4, category = $5,
		    available = $6, stock = $7, threshold = $8, updated_at = now()
		WHERE id = $1`

	deleteCatalogSQL = `DELETE FROM catalog_items WHERE id = $1`

	setStockSQL = `UPDATE catalog_items SET stock = $2, updated_at = now() WHERE id = $1`

	// Guarded delta: refuses to take stock below zero within the statement
	// itself, so concurrent confirmations cannot lose updates or underflow.
	adjustStockSQL = `UPDATE catalog_items
		SET stock = stock + $2, updated_at = now()
		WHERE id = $1 AND stock + $2 >= 0`

	itemExistsSQL = `SELECT EXISTS (SELECT 1 FROM catalog_items WHERE id = $1)`

	lowStockSQL = `SELECT ` + catalogColumns + ` FROM catalog_items
		WHERE available AND stock <= threshold
		ORDER BY stock, name`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// List returns catalog items sorted by name, optionally filtered to one
// category and to the customer-selectable subset.
func (r *CatalogRepository) List(ctx context.Context, filter catalog.ListFilter) ([]catalog.Item, error) {
	rows, err := r.pool.Query(ctx, listCatalogSQL, string(filter.Category), filter.SelectableOnly)
	if err != nil {
		return nil, fmt.Errorf("listing catalog items: %w", err)
	}
	return pgx.CollectRows(rows, scanItem)
}

// GetByID returns a single catalog item.
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*catalog.Item, error) {
	rows, err := r.pool.Query(ctx, getCatalogByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting catalog item %q: %w", id, err)
	}

	item, err := pgx.CollectExactlyOneRow(rows, scanItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting catalog item %q: %w", id, err)
	}
	return &item, nil
}

// GetByIDs returns items matching any of the given IDs. Missing ids are
// simply absent from the result.
func (r *CatalogRepository) GetByIDs(ctx context.Context, ids []string) ([]catalog.Item, error) {
	rows, err := r.pool.Query(ctx, getCatalogByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting catalog items by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanItem)
}

// Create persists a new catalog item.
func (r *CatalogRepository) Create(ctx context.Context, item *catalog.Item) error {
	_, err := r.pool.Exec(ctx, createCatalogSQL,
		item.ID, item.Name, item.Description, item.Price, string(item.Category),
		item.Available, item.Stock, item.Threshold,
	)
	if err != nil {
		return fmt.Errorf("creating catalog item %q: %w", item.ID, err)
	}
	return nil
}

// Update replaces every mutable field of an item.
func (r *CatalogRepository) Update(ctx context.Context, item *catalog.Item) error {
	tag, err := r.pool.Exec(ctx, updateCatalogSQL,
		item.ID, item.Name, item.Description, item.Price, string(item.Category),
		item.Available, item.Stock, item.Threshold,
	)
	if err != nil {
		return fmt.Errorf("updating catalog item %q: %w", item.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// Delete removes an item from the catalog.
func (r *CatalogRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCatalogSQL, id)
	if err != nil {
		return fmt.Errorf("deleting catalog item %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// SetStock replaces an item's stock level.
func (r *CatalogRepository) SetStock(ctx context.Context, id string, stock int) error {
	if stock < 0 {
		return catalog.ErrNegativeStock
	}
	tag, err := r.pool.Exec(ctx, setStockSQL, id, stock)
	if err != nil {
		return fmt.Errorf("setting stock for %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// AdjustStock applies the batch inside one transaction. A delta that would
// take an existing item below zero rolls the whole batch back with
// catalog.ErrInsufficientStock. References to items that no longer exist
// are skipped, matching the permissive resolution at pricing time.
func (r *CatalogRepository) AdjustStock(ctx context.Context, adjustments []catalog.StockAdjustment) error {
	if len(adjustments) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning stock adjustment: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	for _, adj := range adjustments {
		tag, err := tx.Exec(ctx, adjustStockSQL, adj.ItemID, adj.Delta)
		if err != nil {
			return fmt.Errorf("adjusting stock for %q: %w", adj.ItemID, err)
		}
		if tag.RowsAffected() > 0 {
			continue
		}

		var exists bool
		if err := tx.QueryRow(ctx, itemExistsSQL, adj.ItemID).Scan(&exists); err != nil {
			return fmt.Errorf("checking catalog item %q: %w", adj.ItemID, err)
		}
		if exists {
			return catalog.ErrInsufficientStock
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing stock adjustment: %w", err)
	}
	return nil
}

// LowStock returns available items at or below their threshold, lowest
// stock first.
func (r *CatalogRepository) LowStock(ctx context.Context) ([]catalog.Item, error) {
	rows, err := r.pool.Query(ctx, lowStockSQL)
	if err != nil {
		return nil, fmt.Errorf("listing low stock items: %w", err)
	}
	return pgx.CollectRows(rows, scanItem)
}

func scanItem(row pgx.CollectableRow) (catalog.Item, error) {
	var (
		item     catalog.Item
		category string
	)
	err := row.Scan(
		&item.ID, &item.Name, &item.Description, &item.Price, &category,
		&item.Available, &item.Stock, &item.Threshold,
	)
	item.Category = catalog.Category(category)
	return item, err
}
