package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/doughlab/pizzeria/internal/domain/catalog"
	"github.com/doughlab/pizzeria/internal/domain/order"
	"github.com/doughlab/pizzeria/internal/domain/user"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func pageParams(r *http.Request) (limit, offset int) {
	limit = defaultPageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = min(n, maxPageLimit)
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// dashboard returns the aggregated admin landing page.
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.reports.Dashboard(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardView(d))
}

// adminListOrders pages through all orders, optionally filtered by status.
func (h *Handler) adminListOrders(w http.ResponseWriter, r *http.Request) {
	page := order.ListPage{}
	page.Limit, page.Offset = pageParams(r)
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := order.ParseStatus(raw)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		page.Status = status
	}

	orders, total, err := h.orders.List(r.Context(), page)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orders": toOrderViews(orders),
		"total":  total,
	})
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// adminUpdateOrderStatus drives the order lifecycle from the back office.
func (h *Handler) adminUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateOrderStatusRequest
	if !readJSON(w, r, &req) {
		return
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderView(o))
}

// adminListUsers pages through accounts, optionally filtered by role.
func (h *Handler) adminListUsers(w http.ResponseWriter, r *http.Request) {
	page := user.ListPage{Role: user.Role(r.URL.Query().Get("role"))}
	page.Limit, page.Offset = pageParams(r)

	users, total, err := h.users.List(r.Context(), page)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	views := make([]userView, len(users))
	for i, u := range users {
		views[i] = toUserView(u)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users": views,
		"total": total,
	})
}

type updateUserStatusRequest struct {
	Active bool `json:"active"`
}

// adminUpdateUserStatus toggles an account, e.g. to suspend abuse.
func (h *Handler) adminUpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	var req updateUserStatusRequest
	if !readJSON(w, r, &req) {
		return
	}
	if err := h.users.SetActive(r.Context(), r.PathValue("id"), req.Active); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": r.PathValue("id"), "active": req.Active})
}

// adminListInventory lists the full catalog, including unavailable and
// out-of-stock items.
func (h *Handler) adminListInventory(w http.ResponseWriter, r *http.Request) {
	filter := catalog.ListFilter{}
	if raw := r.URL.Query().Get("category"); raw != "" {
		category, err := catalog.ParseCategory(raw)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		filter.Category = category
	}

	items, err := h.catalog.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": toItemViews(items)})
}

type itemRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Available   bool            `json:"available"`
	Stock       int             `json:"stock"`
	Threshold   int             `json:"threshold"`
}

func (req *itemRequest) validate(w http.ResponseWriter) (*catalog.Item, bool) {
	category, err := catalog.ParseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	switch {
	case req.Name == "":
		writeError(w, http.StatusBadRequest, "name is required")
		return nil, false
	case req.Price.IsNegative():
		writeError(w, http.StatusBadRequest, "price must not be negative")
		return nil, false
	case req.Stock < 0 || req.Threshold < 0:
		writeError(w, http.StatusBadRequest, "stock and threshold must not be negative")
		return nil, false
	}
	return &catalog.Item{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    category,
		Available:   req.Available,
		Stock:       req.Stock,
		Threshold:   req.Threshold,
	}, true
}

// adminCreateItem adds a catalog item.
func (h *Handler) adminCreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !readJSON(w, r, &req) {
		return
	}
	item, ok := req.validate(w)
	if !ok {
		return
	}
	item.ID = uuid.New().String()

	if err := h.catalog.Create(r.Context(), item); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemView(*item))
}

// adminUpdateItem replaces a catalog item's attributes.
func (h *Handler) adminUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !readJSON(w, r, &req) {
		return
	}
	item, ok := req.validate(w)
	if !ok {
		return
	}
	item.ID = r.PathValue("id")

	if err := h.catalog.Update(r.Context(), item); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemView(*item))
}

// adminDeleteItem removes a catalog item. Existing orders keep their
// snapshots, so deletion never rewrites history.
func (h *Handler) adminDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setStockRequest struct {
	Stock int `json:"stock"`
}

// adminSetStock replaces an item's stock level after a physical recount.
func (h *Handler) adminSetStock(w http.ResponseWriter, r *http.Request) {
	var req setStockRequest
	if !readJSON(w, r, &req) {
		return
	}
	id := r.PathValue("id")
	if err := h.catalog.SetStock(r.Context(), id, req.Stock); err != nil {
		writeDomainError(w, r, err)
		return
	}

	item, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemView(*item))
}

// adminLowStock lists items at or below their restock threshold.
func (h *Handler) adminLowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.reports.LowStock(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": toItemViews(items)})
}
