// Package payment is the boundary to the external payment processor.
// Order totals are registered as payment intents denominated in minor
// units; a later client callback is verified cryptographically before the
// order may confirm.
package payment

import (
	"context"
	"fmt"
	"time"
)

// Intent is a registered payment awaiting completion on the client side.
type Intent struct {
	ID          string
	AmountMinor int64
	Currency    string
	// Receipt carries the order number and doubles as the idempotency key.
	Receipt   string
	CreatedAt time.Time
}

// CreateIntentParams describes the payment to register.
type CreateIntentParams struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	OrderID     string
	UserID      string
}

// Gateway registers payment intents with the processor.
type Gateway interface {
	CreateIntent(ctx context.Context, params CreateIntentParams) (*Intent, error)
}

// MockGateway mints local intents without calling out. Used in test mode
// and whenever no processor credentials are configured.
type MockGateway struct {
	now func() time.Time
}

// NewMockGateway creates a MockGateway using the wall clock.
func NewMockGateway() *MockGateway {
	return &MockGateway{now: time.Now}
}

// CreateIntent returns a synthetic intent with a deterministic id shape.
func (g *MockGateway) CreateIntent(_ context.Context, params CreateIntentParams) (*Intent, error) {
	now := g.now()
	return &Intent{
		ID:          fmt.Sprintf("order_test_%d", now.UnixMilli()),
		AmountMinor: params.AmountMinor,
		Currency:    params.Currency,
		Receipt:     params.Receipt,
		CreatedAt:   now,
	}, nil
}
