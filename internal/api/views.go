package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/doughlab/pizzeria/internal/domain/catalog"
	"github.com/doughlab/pizzeria/internal/domain/order"
	"github.com/doughlab/pizzeria/internal/domain/pricing"
	"github.com/doughlab/pizzeria/internal/domain/report"
	"github.com/doughlab/pizzeria/internal/domain/user"
	"github.com/doughlab/pizzeria/internal/payment"
)

type itemView struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Available   bool            `json:"available"`
	Stock       int             `json:"stock"`
	Threshold   int             `json:"threshold"`
}

func toItemView(i catalog.Item) itemView {
	return itemView{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Price:       i.Price,
		Category:    string(i.Category),
		Available:   i.Available,
		Stock:       i.Stock,
		Threshold:   i.Threshold,
	}
}

func toItemViews(items []catalog.Item) []itemView {
	views := make([]itemView, len(items))
	for i, item := range items {
		views[i] = toItemView(item)
	}
	return views
}

type quoteComponentView struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
}

type quoteView struct {
	Components []quoteComponentView `json:"components"`
	UnitPrice  decimal.Decimal      `json:"unit_price"`
	Quantity   int                  `json:"quantity"`
	Total      decimal.Decimal      `json:"total"`
}

func toQuoteView(q *pricing.Quote) quoteView {
	components := make([]quoteComponentView, len(q.Components))
	for i, c := range q.Components {
		components[i] = quoteComponentView{
			ID:       c.ID,
			Name:     c.Name,
			Category: string(c.Category),
			Price:    c.Price,
		}
	}
	return quoteView{
		Components: components,
		UnitPrice:  q.UnitPrice,
		Quantity:   q.Quantity,
		Total:      q.Total,
	}
}

type orderView struct {
	ID                string           `json:"id"`
	Number            string           `json:"number"`
	Items             []order.LineItem `json:"items"`
	Total             decimal.Decimal  `json:"total"`
	Status            string           `json:"status"`
	PaymentStatus     string           `json:"payment_status"`
	PaymentRef        string           `json:"payment_ref,omitempty"`
	Address           *order.Address   `json:"address,omitempty"`
	EstimatedDelivery *time.Time       `json:"estimated_delivery,omitempty"`
	Note              string           `json:"note,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func toOrderView(o *order.Order) orderView {
	return orderView{
		ID:                o.ID,
		Number:            o.Number,
		Items:             o.Items,
		Total:             o.Total,
		Status:            string(o.Status),
		PaymentStatus:     string(o.PaymentStatus),
		PaymentRef:        o.PaymentRef,
		Address:           o.Address,
		EstimatedDelivery: o.EstimatedDelivery,
		Note:              o.Note,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

func toOrderViews(orders []order.Order) []orderView {
	views := make([]orderView, len(orders))
	for i := range orders {
		views[i] = toOrderView(&orders[i])
	}
	return views
}

type intentView struct {
	ID          string `json:"id"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
}

func toIntentView(in *payment.Intent) *intentView {
	if in == nil {
		return nil
	}
	return &intentView{
		ID:          in.ID,
		AmountMinor: in.AmountMinor,
		Currency:    in.Currency,
		Receipt:     in.Receipt,
	}
}

type userView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone,omitempty"`
	Role   string `json:"role"`
	Active bool   `json:"active"`
}

func toUserView(u user.User) userView {
	return userView{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Phone:  u.Phone,
		Role:   string(u.Role),
		Active: u.Active,
	}
}

type recentOrderView struct {
	orderView
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
	UserPhone string `json:"user_phone,omitempty"`
}

type dashboardView struct {
	TotalOrders  int               `json:"total_orders"`
	ByStatus     map[string]int    `json:"by_status"`
	Revenue      decimal.Decimal   `json:"revenue"`
	RecentOrders []recentOrderView `json:"recent_orders"`
	LowStock     []itemView        `json:"low_stock"`
}

func toDashboardView(d *report.Dashboard) dashboardView {
	byStatus := make(map[string]int, len(d.Stats.ByStatus))
	for status, n := range d.Stats.ByStatus {
		byStatus[string(status)] = n
	}
	recent := make([]recentOrderView, len(d.RecentOrders))
	for i, ro := range d.RecentOrders {
		recent[i] = recentOrderView{
			orderView: toOrderView(&ro.Order),
			UserName:  ro.UserName,
			UserEmail: ro.UserEmail,
			UserPhone: ro.UserPhone,
		}
	}
	return dashboardView{
		TotalOrders:  d.Stats.TotalOrders,
		ByStatus:     byStatus,
		Revenue:      d.Stats.Revenue,
		RecentOrders: recent,
		LowStock:     toItemViews(d.LowStock),
	}
}
