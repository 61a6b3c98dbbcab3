package order

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/doughlab/pizzeria/internal/domain/pricing"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusInKitchen      Status = "in_kitchen"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// transitions encodes the forward path of the lifecycle. Delivered and
// cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusInKitchen, StatusCancelled},
	StatusInKitchen:      {StatusOutForDelivery},
	StatusOutForDelivery: {StatusDelivered},
}

// ParseStatus validates a raw status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusConfirmed, StatusInKitchen,
		StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return st, nil
	default:
		return "", &InvalidStatusError{Value: s}
	}
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Cancellable reports whether a user may still cancel an order in this state.
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Human returns the status with underscores replaced for notification text.
func (s Status) Human() string {
	switch s {
	case StatusInKitchen:
		return "in kitchen"
	case StatusOutForDelivery:
		return "out for delivery"
	default:
		return string(s)
	}
}

// PaymentStatus tracks the payment leg independently of the lifecycle.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Address is the delivery address snapshot captured at order creation.
// Later changes to the user's stored address do not affect it.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
	Phone  string `json:"phone"`
}

// LineItem is one pizza within an order: a representative catalog reference
// for display, the full customization selection, and server-computed prices.
type LineItem struct {
	ItemID        string            `json:"item_id"`
	Quantity      int               `json:"quantity"`
	Customization pricing.Selection `json:"customization"`
	UnitPrice     decimal.Decimal   `json:"unit_price"`
	LineTotal     decimal.Decimal   `json:"line_total"`
}

// Order is a placed order. Orders are never deleted; cancellation is a
// terminal status.
type Order struct {
	ID                string
	UserID            string
	Number            string
	Items             []LineItem
	Total             decimal.Decimal
	Status            Status
	PaymentStatus     PaymentStatus
	PaymentRef        string
	Address           *Address
	EstimatedDelivery *time.Time
	Note              string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OwnedBy reports whether userID owns the order.
func (o *Order) OwnedBy(userID string) bool {
	return o.UserID == userID
}

// FormatNumber renders a sequence value as a human-readable order number,
// e.g. 1 → PZ000001.
func FormatNumber(seq int64) string {
	return fmt.Sprintf("PZ%06d", seq)
}

// ListPage narrows admin order listings.
type ListPage struct {
	Status Status // optional filter
	Limit  int
	Offset int
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	List(ctx context.Context, page ListPage) ([]Order, int, error)
	// NextNumber reserves the next value of the global order sequence.
	// Values are unique under concurrent creation.
	NextNumber(ctx context.Context) (int64, error)
	// UpdateStatus persists a lifecycle transition together with the
	// optional payment fields and delivery estimate. The update is guarded
	// by the expected current status so concurrent transitions pick one
	// deterministic winner; a lost race returns ErrStatusConflict.
	UpdateStatus(ctx context.Context, upd StatusUpdate) error
}

// StatusUpdate is the persisted effect of one lifecycle transition.
type StatusUpdate struct {
	OrderID           string
	From              Status
	To                Status
	PaymentStatus     PaymentStatus // empty = unchanged
	PaymentRef        string        // empty = unchanged
	EstimatedDelivery *time.Time    // nil = unchanged
}
