// Package pricing computes server-side prices for pizza builder selections.
// A selection is a set of catalog references; the engine resolves each
// against the current catalog and produces an itemized quote. Prices are
// never trusted from the client.
package pricing

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/doughlab/pizzeria/internal/domain/catalog"
)

// Selection identifies the components of one pizza: at most one base, sauce
// and cheese, plus any number of vegetables and meats.
type Selection struct {
	Base       string   `json:"base,omitempty"`
	Sauce      string   `json:"sauce,omitempty"`
	Cheese     string   `json:"cheese,omitempty"`
	Vegetables []string `json:"vegetables,omitempty"`
	Meats      []string `json:"meats,omitempty"`
}

// ComponentIDs returns every non-empty reference in builder order.
func (s Selection) ComponentIDs() []string {
	ids := make([]string, 0, 3+len(s.Vegetables)+len(s.Meats))
	for _, id := range []string{s.Base, s.Sauce, s.Cheese} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	ids = append(ids, s.Vegetables...)
	ids = append(ids, s.Meats...)
	return ids
}

// Empty reports whether the selection references no components at all.
func (s Selection) Empty() bool {
	return len(s.ComponentIDs()) == 0
}

// Component is one resolved line of a quote.
type Component struct {
	ID       string
	Name     string
	Category catalog.Category
	Price    decimal.Decimal
}

// Quote is the itemized result of pricing a selection.
type Quote struct {
	Components []Component
	// UnitPrice is the sum of all resolved component prices.
	UnitPrice decimal.Decimal
	Quantity  int
	// Total = UnitPrice × Quantity.
	Total decimal.Decimal
}

// Engine resolves selections against the catalog.
type Engine struct {
	catalog catalog.Repository
}

// NewEngine creates a pricing Engine backed by the given catalog.
func NewEngine(repo catalog.Repository) *Engine {
	return &Engine{catalog: repo}
}

// Quote prices a selection at the given quantity. References that do not
// resolve to a catalog item are skipped without error; this permissive
// policy is inherited from the source storefront and must not be hardened
// without product sign-off. Quantities below 1 are clamped to 1. No stock
// check happens here; stock is enforced at order confirmation.
func (e *Engine) Quote(ctx context.Context, sel Selection, quantity int) (*Quote, error) {
	if quantity < 1 {
		quantity = 1
	}

	q := &Quote{
		UnitPrice: decimal.Zero,
		Quantity:  quantity,
		Total:     decimal.Zero,
	}

	ids := sel.ComponentIDs()
	if len(ids) == 0 {
		return q, nil
	}

	items, err := e.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "resolve components")
	}

	byID := make(map[string]catalog.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	// Keep the caller's component ordering in the breakdown.
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			continue
		}
		q.Components = append(q.Components, Component{
			ID:       item.ID,
			Name:     item.Name,
			Category: item.Category,
			Price:    item.Price,
		})
		q.UnitPrice = q.UnitPrice.Add(item.Price)
	}

	q.Total = q.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	return q, nil
}
