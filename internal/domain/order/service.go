package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/doughlab/pizzeria/internal/domain/catalog"
	"github.com/doughlab/pizzeria/internal/domain/pricing"
	"github.com/doughlab/pizzeria/internal/domain/user"
	"github.com/doughlab/pizzeria/internal/payment"
)

// Event is an order status notification delivered to the owning user.
type Event struct {
	OrderID string `json:"order_id"`
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// Publisher delivers events to a user's notification channel. Delivery is
// best-effort: a failed publish never rolls back an order state change.
type Publisher interface {
	Publish(ctx context.Context, userID string, ev Event) error
}

// Config holds the payment operating mode, decided once at startup.
type Config struct {
	// PaymentsEnabled selects the external-gateway path. When false, orders
	// confirm immediately with a synthetic payment reference.
	PaymentsEnabled bool
	// Currency for payment intents, in ISO 4217.
	Currency string
}

// Service orchestrates the order workflow: creation, payment verification,
// confirmation with stock reservation, cancellation, and admin transitions.
type Service struct {
	orders   Repository
	catalog  catalog.Repository
	users    user.Repository
	engine   *pricing.Engine
	gateway  payment.Gateway
	verifier *payment.Verifier
	events   Publisher
	cfg      Config
	now      func() time.Time
}

// NewService creates an order Service with the required collaborators.
func NewService(
	orders Repository,
	catalogRepo catalog.Repository,
	users user.Repository,
	engine *pricing.Engine,
	gateway payment.Gateway,
	verifier *payment.Verifier,
	events Publisher,
	cfg Config,
) *Service {
	return &Service{
		orders:   orders,
		catalog:  catalogRepo,
		users:    users,
		engine:   engine,
		gateway:  gateway,
		verifier: verifier,
		events:   events,
		cfg:      cfg,
		now:      time.Now,
	}
}

// CreateLineItem is one requested pizza in a new order.
type CreateLineItem struct {
	Quantity      int
	Customization pricing.Selection
}

// CreateRequest holds the input for placing an order.
type CreateRequest struct {
	Items []CreateLineItem
	// Address overrides the user's stored default address when set.
	Address *Address
	Note    string
}

// CreateResult is the outcome of order creation. Intent is set only when
// payments are enabled; the order then stays pending until the payment
// callback is verified.
type CreateResult struct {
	Order  *Order
	Intent *payment.Intent
}

// Create prices every line server-side, snapshots the delivery address,
// assigns the next order number, and persists the order as pending. With
// payments disabled the order confirms immediately, reserving stock and
// notifying the user; otherwise a payment intent is registered and returned.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*CreateResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	items := make([]LineItem, len(req.Items))
	total := decimal.Zero
	for i, reqItem := range req.Items {
		if reqItem.Quantity <= 0 {
			return nil, &InvalidQuantityError{Index: i}
		}

		quote, err := s.engine.Quote(ctx, reqItem.Customization, reqItem.Quantity)
		if err != nil {
			return nil, errors.Wrap(err, "price line item")
		}
		if len(quote.Components) == 0 {
			return nil, &EmptySelectionError{Index: i}
		}

		items[i] = LineItem{
			// First resolved component (base before sauce before cheese)
			// serves as the representative reference for display.
			ItemID:        quote.Components[0].ID,
			Quantity:      reqItem.Quantity,
			Customization: reqItem.Customization,
			UnitPrice:     quote.UnitPrice,
			LineTotal:     quote.Total,
		}
		total = total.Add(quote.Total)
	}

	address, err := s.resolveAddress(ctx, userID, req.Address)
	if err != nil {
		return nil, err
	}

	seq, err := s.orders.NextNumber(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "assign order number")
	}

	o := &Order{
		ID:            uuid.New().String(),
		UserID:        userID,
		Number:        FormatNumber(seq),
		Items:         items,
		Total:         total,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		Address:       address,
		Note:          req.Note,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	if !s.cfg.PaymentsEnabled {
		ref := fmt.Sprintf("pay_mock_%d", s.now().UnixMilli())
		if err := s.confirm(ctx, o, ref, "Order confirmed (payment disabled mode)"); err != nil {
			return nil, err
		}
		return &CreateResult{Order: o}, nil
	}

	intent, err := s.gateway.CreateIntent(ctx, payment.CreateIntentParams{
		AmountMinor: total.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency:    s.cfg.Currency,
		Receipt:     o.Number,
		OrderID:     o.ID,
		UserID:      userID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "register payment intent")
	}

	return &CreateResult{Order: o, Intent: intent}, nil
}

// resolveAddress snapshots the override, or falls back to the user's stored
// address. An order may proceed with no address at all; the admin then has
// to contact the customer.
func (s *Service) resolveAddress(ctx context.Context, userID string, override *Address) (*Address, error) {
	if override != nil {
		return override, nil
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "load user address")
	}
	if !u.HasAddress() {
		return nil, nil
	}
	return &Address{
		Street: u.Address.Street,
		City:   u.Address.City,
		State:  u.Address.State,
		Zip:    u.Address.Zip,
		Phone:  u.Phone,
	}, nil
}

// VerifyPayment validates a payment-gateway callback and confirms the
// order. A signature mismatch leaves the order untouched. Verifying an
// already-confirmed order is a no-op, so gateway retries stay idempotent.
func (s *Service) VerifyPayment(ctx context.Context, userID, orderID, paymentID, signature string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.OwnedBy(userID) {
		return nil, ErrForbidden
	}

	if err := s.verifier.Verify(orderID, paymentID, signature); err != nil {
		return nil, err
	}

	if o.Status == StatusConfirmed && o.PaymentStatus == PaymentPaid {
		return o, nil
	}
	if o.Status != StatusPending {
		return nil, &InvalidTransitionError{From: o.Status, To: StatusConfirmed}
	}

	ref := paymentID
	if ref == "" {
		ref = fmt.Sprintf("pay_test_%d", s.now().UnixMilli())
	}
	if err := s.confirm(ctx, o, ref, "Order confirmed and payment successful!"); err != nil {
		return nil, err
	}
	return o, nil
}

// confirm reserves stock for every resolved component across all lines,
// then marks the order paid and confirmed with a 30-minute delivery
// estimate. Insufficient stock fails the confirmation with no decrement
// applied; a lost status race releases the reservation again.
func (s *Service) confirm(ctx context.Context, o *Order, paymentRef, message string) error {
	decrements := stockAdjustments(o.Items, -1)
	if err := s.catalog.AdjustStock(ctx, decrements); err != nil {
		return errors.Wrap(err, "reserve stock")
	}

	eta := s.now().Add(30 * time.Minute)
	upd := StatusUpdate{
		OrderID:           o.ID,
		From:              o.Status,
		To:                StatusConfirmed,
		PaymentStatus:     PaymentPaid,
		PaymentRef:        paymentRef,
		EstimatedDelivery: &eta,
	}
	if err := s.orders.UpdateStatus(ctx, upd); err != nil {
		if restoreErr := s.catalog.AdjustStock(ctx, stockAdjustments(o.Items, 1)); restoreErr != nil {
			zctx.From(ctx).Error("Stock release after failed confirmation",
				zap.String("order_id", o.ID), zap.Error(restoreErr))
		}
		return errors.Wrap(err, "confirm order")
	}

	o.Status = StatusConfirmed
	o.PaymentStatus = PaymentPaid
	o.PaymentRef = paymentRef
	o.EstimatedDelivery = &eta

	s.notify(ctx, o.UserID, Event{OrderID: o.ID, Status: StatusConfirmed, Message: message})
	return nil
}

// Cancel sets a cancellable order to cancelled. Stock is restored only for
// orders that had reached confirmed, and then for exactly the components
// that were decremented.
func (s *Service) Cancel(ctx context.Context, userID, orderID string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.OwnedBy(userID) {
		return nil, ErrForbidden
	}

	if err := s.cancel(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) cancel(ctx context.Context, o *Order) error {
	if !o.Status.Cancellable() {
		return ErrNotCancellable
	}

	wasConfirmed := o.Status == StatusConfirmed
	upd := StatusUpdate{
		OrderID: o.ID,
		From:    o.Status,
		To:      StatusCancelled,
	}
	if err := s.orders.UpdateStatus(ctx, upd); err != nil {
		return errors.Wrap(err, "cancel order")
	}
	o.Status = StatusCancelled

	if wasConfirmed {
		if err := s.catalog.AdjustStock(ctx, stockAdjustments(o.Items, 1)); err != nil {
			return errors.Wrap(err, "restore stock")
		}
	}
	return nil
}

// UpdateStatus performs an admin-driven lifecycle transition, adjusting the
// delivery estimate for kitchen and delivery stages and notifying the
// owning user. Admin cancellation routes through the same stock-restoring
// path as user cancellation.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, next Status) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if next == StatusCancelled {
		if !o.Status.Cancellable() {
			return nil, &InvalidTransitionError{From: o.Status, To: next}
		}
		if err := s.cancel(ctx, o); err != nil {
			return nil, err
		}
		s.notify(ctx, o.UserID, statusEvent(o.ID, next))
		return o, nil
	}

	if !o.Status.CanTransitionTo(next) {
		return nil, &InvalidTransitionError{From: o.Status, To: next}
	}

	upd := StatusUpdate{
		OrderID: o.ID,
		From:    o.Status,
		To:      next,
	}
	switch next {
	case StatusInKitchen:
		eta := s.now().Add(20 * time.Minute)
		upd.EstimatedDelivery = &eta
	case StatusOutForDelivery:
		eta := s.now().Add(10 * time.Minute)
		upd.EstimatedDelivery = &eta
	}

	if err := s.orders.UpdateStatus(ctx, upd); err != nil {
		return nil, errors.Wrap(err, "update order status")
	}

	o.Status = next
	if upd.EstimatedDelivery != nil {
		o.EstimatedDelivery = upd.EstimatedDelivery
	}

	s.notify(ctx, o.UserID, statusEvent(o.ID, next))
	return o, nil
}

// Get returns an order, enforcing ownership for non-admin callers.
func (s *Service) Get(ctx context.Context, userID, orderID string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.OwnedBy(userID) {
		return nil, ErrForbidden
	}
	return o, nil
}

// ListByUser returns the user's orders, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// List pages through all orders for the back office.
func (s *Service) List(ctx context.Context, page ListPage) ([]Order, int, error) {
	return s.orders.List(ctx, page)
}

// notify publishes fire-and-forget: failures are logged and swallowed.
func (s *Service) notify(ctx context.Context, userID string, ev Event) {
	if err := s.events.Publish(ctx, userID, ev); err != nil {
		zctx.From(ctx).Warn("Notification delivery failed",
			zap.String("order_id", ev.OrderID),
			zap.String("user_id", userID),
			zap.Error(err))
	}
}

func statusEvent(orderID string, st Status) Event {
	return Event{
		OrderID: orderID,
		Status:  st,
		Message: "Order status updated to: " + st.Human(),
	}
}

// stockAdjustments folds every resolved component of every line into one
// delta per catalog item, so the repository can apply the batch atomically.
func stockAdjustments(items []LineItem, sign int) []catalog.StockAdjustment {
	deltas := make(map[string]int)
	var ids []string
	for _, line := range items {
		for _, id := range line.Customization.ComponentIDs() {
			if _, seen := deltas[id]; !seen {
				ids = append(ids, id)
			}
			deltas[id] += sign * line.Quantity
		}
	}

	adjustments := make([]catalog.StockAdjustment, 0, len(ids))
	for _, id := range ids {
		adjustments = append(adjustments, catalog.StockAdjustment{ItemID: id, Delta: deltas[id]})
	}
	return adjustments
}
