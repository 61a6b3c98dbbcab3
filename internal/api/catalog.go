package api

import (
	"net/http"

	"github.com/doughlab/pizzeria/internal/domain/catalog"
	"github.com/doughlab/pizzeria/internal/domain/pricing"
)

// listCatalog returns selectable ingredients, optionally narrowed by the
// category query parameter.
func (h *Handler) listCatalog(w http.ResponseWriter, r *http.Request) {
	filter := catalog.ListFilter{SelectableOnly: true}
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

// listVarieties returns selectable ingredients grouped per category, the
// shape the pizza builder consumes directly.
func (h *Handler) listVarieties(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.List(r.Context(), catalog.ListFilter{SelectableOnly: true})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	grouped := catalog.GroupByCategory(items)
	resp := make(map[string][]itemView, len(grouped))
	for _, category := range catalog.Categories() {
		resp[string(category)] = toItemViews(grouped[category])
	}
	writeJSON(w, http.StatusOK, resp)
}

type quoteRequest struct {
	Customization pricing.Selection `json:"customization"`
	Quantity      int               `json:"quantity"`
}

// quote prices a selection without placing an order.
func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !readJSON(w, r, &req) {
		return
	}

	q, err := h.engine.Quote(r.Context(), req.Customization, req.Quantity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteView(q))
}
