// Package api exposes the storefront and back-office HTTP surface. Handlers
// stay thin: decode, delegate to domain services, map errors, encode.
package api

import (
	"net/http"

	"github.com/doughlab/pizzeria/internal/domain/catalog"
	"github.com/doughlab/pizzeria/internal/domain/order"
	"github.com/doughlab/pizzeria/internal/domain/pricing"
	"github.com/doughlab/pizzeria/internal/domain/report"
	"github.com/doughlab/pizzeria/internal/domain/user"
)

// Handler serves the JSON API, delegating business logic to the domain
// services.
type Handler struct {
	catalog  catalog.Repository
	engine   *pricing.Engine
	orders   *order.Service
	users    user.Repository
	reports  *report.Service
	orderCfg order.Config
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	catalogRepo catalog.Repository,
	engine *pricing.Engine,
	orders *order.Service,
	users user.Repository,
	reports *report.Service,
	orderCfg order.Config,
) *Handler {
	return &Handler{
		catalog:  catalogRepo,
		engine:   engine,
		orders:   orders,
		users:    users,
		reports:  reports,
		orderCfg: orderCfg,
	}
}

// Register wires all routes onto mux. Catalog browsing and quoting are
// public; order operations require a valid API key; admin routes require
// the admin role on top.
func (h *Handler) Register(mux *http.ServeMux, auth *Authenticator) {
	mux.HandleFunc("GET /api/catalog", h.listCatalog)
	mux.HandleFunc("GET /api/catalog/varieties", h.listVarieties)
	mux.HandleFunc("POST /api/pricing/quote", h.quote)
	mux.HandleFunc("GET /api/orders/config", h.orderConfig)

	authed := func(fn http.HandlerFunc) http.Handler { return auth.Require(fn) }
	mux.Handle("POST /api/orders", authed(h.createOrder))
	mux.Handle("GET /api/orders", authed(h.listOrders))
	mux.Handle("GET /api/orders/{id}", authed(h.getOrder))
	mux.Handle("POST /api/orders/{id}/verify-payment", authed(h.verifyPayment))
	mux.Handle("POST /api/orders/{id}/cancel", authed(h.cancelOrder))

	admin := func(fn http.HandlerFunc) http.Handler { return auth.RequireAdmin(fn) }
	mux.Handle("GET /api/admin/dashboard", admin(h.dashboard))
	mux.Handle("GET /api/admin/orders", admin(h.adminListOrders))
	mux.Handle("PUT /api/admin/orders/{id}/status", admin(h.adminUpdateOrderStatus))
	mux.Handle("GET /api/admin/users", admin(h.adminListUsers))
	mux.Handle("PUT /api/admin/users/{id}/status", admin(h.adminUpdateUserStatus))
	mux.Handle("GET /api/admin/inventory", admin(h.adminListInventory))
	mux.Handle("POST /api/admin/inventory", admin(h.adminCreateItem))
	mux.Handle("PUT /api/admin/inventory/{id}", admin(h.adminUpdateItem))
	mux.Handle("DELETE /api/admin/inventory/{id}", admin(h.adminDeleteItem))
	mux.Handle("PUT /api/admin/inventory/{id}/stock", admin(h.adminSetStock))
	mux.Handle("GET /api/admin/inventory/low-stock", admin(h.adminLowStock))
}
