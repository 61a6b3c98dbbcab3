package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Sentinel errors for order workflow operations.
var (
	ErrEmptyItems     = errors.New("order items are required")
	ErrNotFound       = errors.New("order not found")
	ErrForbidden      = errors.New("order belongs to another user")
	ErrNotCancellable = errors.New("order can no longer be cancelled")
	// ErrStatusConflict is returned when a guarded status update loses a
	// race against a concurrent transition on the same order.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// InvalidQuantityError indicates a line item with a non-positive quantity.
type InvalidQuantityError struct {
	Index int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for item %d", e.Index)
}

// EmptySelectionError indicates a line whose customization resolved to no
// catalog components, leaving nothing to price.
type EmptySelectionError struct {
	Index int
}

func (e *EmptySelectionError) Error() string {
	return fmt.Sprintf("item %d has no resolvable components", e.Index)
}

// InvalidStatusError indicates an unrecognized status value.
type InvalidStatusError struct {
	Value string
}

func (e *InvalidStatusError) Error() string {
	return "invalid status: " + e.Value
}

// InvalidTransitionError indicates a lifecycle transition the state machine
// forbids.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}
