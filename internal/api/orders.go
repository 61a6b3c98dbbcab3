package api

import (
	"net/http"

	"github.com/doughlab/pizzeria/internal/domain/order"
	"github.com/doughlab/pizzeria/internal/domain/pricing"
)

type createOrderItem struct {
	Quantity      int               `json:"quantity"`
	Customization pricing.Selection `json:"customization"`
}

type createOrderRequest struct {
	Items   []createOrderItem `json:"items"`
	Address *order.Address    `json:"address"`
	Note    string            `json:"note"`
}

type createOrderResponse struct {
	Order   orderView   `json:"order"`
	Payment *intentView `json:"payment,omitempty"`
}

// createOrder places an order for the authenticated user. All prices are
// computed server-side; the response includes a payment intent when the
// external gateway path is active.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !readJSON(w, r, &req) {
		return
	}

	items := make([]order.CreateLineItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.CreateLineItem{
			Quantity:      it.Quantity,
			Customization: it.Customization,
		}
	}

	id := IdentityFromContext(r.Context())
	result, err := h.orders.Create(r.Context(), id.User.ID, order.CreateRequest{
		Items:   items,
		Address: req.Address,
		Note:    req.Note,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createOrderResponse{
		Order:   toOrderView(result.Order),
		Payment: toIntentView(result.Intent),
	})
}

// listOrders returns the authenticated user's orders, newest first.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	orders, err := h.orders.ListByUser(r.Context(), id.User.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": toOrderViews(orders)})
}

// getOrder returns one of the user's orders; other users' orders yield 403.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	o, err := h.orders.Get(r.Context(), id.User.ID, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderView(o))
}

type verifyPaymentRequest struct {
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// verifyPayment completes the payment leg: the gateway callback signature
// is checked and, on success, the order confirms and stock is reserved.
func (h *Handler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if !readJSON(w, r, &req) {
		return
	}

	id := IdentityFromContext(r.Context())
	o, err := h.orders.VerifyPayment(r.Context(), id.User.ID, r.PathValue("id"), req.PaymentID, req.Signature)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderView(o))
}

// cancelOrder cancels a pending or confirmed order owned by the user.
func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	o, err := h.orders.Cancel(r.Context(), id.User.ID, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderView(o))
}

// orderConfig exposes the payment operating mode so clients know whether a
// checkout flow is required.
func (h *Handler) orderConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"payments_enabled": h.orderCfg.PaymentsEnabled,
		"currency":         h.orderCfg.Currency,
	})
}
