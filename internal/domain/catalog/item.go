package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for catalog operations.
var (
	ErrNotFound          = errors.New("catalog item not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNegativeStock     = errors.New("stock cannot be negative")
)

// Category classifies a catalog item within the pizza builder.
type Category string

const (
	CategoryBase      Category = "base"
	CategorySauce     Category = "sauce"
	CategoryCheese    Category = "cheese"
	CategoryVegetable Category = "vegetable"
	CategoryMeat      Category = "meat"
)

// Categories lists every valid category in builder order.
func Categories() []Category {
	return []Category{CategoryBase, CategorySauce, CategoryCheese, CategoryVegetable, CategoryMeat}
}

// InvalidCategoryError indicates an unrecognized category value.
type InvalidCategoryError struct {
	Value string
}

func (e *InvalidCategoryError) Error() string {
	return "invalid category: " + e.Value
}

// ParseCategory validates a raw category string.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryBase, CategorySauce, CategoryCheese, CategoryVegetable, CategoryMeat:
		return c, nil
	default:
		return "", &InvalidCategoryError{Value: s}
	}
}

// Item is a purchasable ingredient record. All five ingredient kinds share
// this one shape, distinguished by Category.
type Item struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    Category
	Available   bool
	Stock       int
	Threshold   int
}

// LowStock reports whether the item is at or below its restock threshold.
func (i Item) LowStock() bool {
	return i.Available && i.Stock <= i.Threshold
}

// ListFilter narrows catalog listings.
type ListFilter struct {
	// Category restricts results to one category when non-empty.
	Category Category
	// SelectableOnly keeps only items a customer may order from:
	// available and with stock remaining.
	SelectableOnly bool
}

// StockAdjustment is a single stock delta applied to one item.
type StockAdjustment struct {
	ItemID string
	Delta  int
}

// Repository defines persistence operations for the ingredient catalog.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Item, error)
	GetByID(ctx context.Context, id string) (*Item, error)
	GetByIDs(ctx context.Context, ids []string) ([]Item, error)
	Create(ctx context.Context, item *Item) error
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id string) error
	// SetStock replaces an item's stock level. Negative values are rejected
	// with ErrNegativeStock.
	SetStock(ctx context.Context, id string, stock int) error
	// AdjustStock applies every adjustment atomically. A negative delta that
	// would take stock below zero fails the whole batch with
	// ErrInsufficientStock and no item is modified.
	AdjustStock(ctx context.Context, adjustments []StockAdjustment) error
	// LowStock returns available items at or below their threshold, lowest
	// stock first.
	LowStock(ctx context.Context) ([]Item, error)
}

// GroupByCategory buckets items for the builder and admin inventory views.
func GroupByCategory(items []Item) map[Category][]Item {
	grouped := make(map[Category][]Item, len(Categories()))
	for _, item := range items {
		grouped[item.Category] = append(grouped[item.Category], item)
	}
	return grouped
}
