package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doughlab/pizzeria/internal/domain/catalog"
	"github.com/doughlab/pizzeria/internal/domain/order"
	"github.com/doughlab/pizzeria/internal/domain/pricing"
	"github.com/doughlab/pizzeria/internal/domain/report"
	"github.com/doughlab/pizzeria/internal/domain/user"
	"github.com/doughlab/pizzeria/internal/notify"
	"github.com/doughlab/pizzeria/internal/payment"
	"github.com/doughlab/pizzeria/internal/repository"
)

type stubCatalog struct {
	items map[string]catalog.Item
}

func (s *stubCatalog) List(_ context.Context, filter catalog.ListFilter) ([]catalog.Item, error) {
	var out []catalog.Item
	for _, item := range s.items {
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		if filter.SelectableOnly && (!item.Available || item.Stock <= 0) {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *stubCatalog) GetByID(_ context.Context, id string) (*catalog.Item, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &item, nil
}

func (s *stubCatalog) GetByIDs(_ context.Context, ids []string) ([]catalog.Item, error) {
	var out []catalog.Item
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *stubCatalog) Create(_ context.Context, item *catalog.Item) error {
	s.items[item.ID] = *item
	return nil
}

func (s *stubCatalog) Update(_ context.Context, item *catalog.Item) error {
	if _, ok := s.items[item.ID]; !ok {
		return catalog.ErrNotFound
	}
	s.items[item.ID] = *item
	return nil
}

func (s *stubCatalog) Delete(_ context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *stubCatalog) SetStock(_ context.Context, id string, stock int) error {
	if stock < 0 {
		return catalog.ErrNegativeStock
	}
	item, ok := s.items[id]
	if !ok {
		return catalog.ErrNotFound
	}
	item.Stock = stock
	s.items[id] = item
	return nil
}

func (s *stubCatalog) AdjustStock(_ context.Context, adjustments []catalog.StockAdjustment) error {
	for _, adj := range adjustments {
		if item, ok := s.items[adj.ItemID]; ok && item.Stock+adj.Delta < 0 {
			return catalog.ErrInsufficientStock
		}
	}
	for _, adj := range adjustments {
		if item, ok := s.items[adj.ItemID]; ok {
			item.Stock += adj.Delta
			s.items[adj.ItemID] = item
		}
	}
	return nil
}

func (s *stubCatalog) LowStock(context.Context) ([]catalog.Item, error) {
	var out []catalog.Item
	for _, item := range s.items {
		if item.LowStock() {
			out = append(out, item)
		}
	}
	return out, nil
}

type stubOrders struct {
	orders map[string]*order.Order
	seq    int64
}

func (s *stubOrders) Create(_ context.Context, o *order.Order) error {
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *stubOrders) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *stubOrders) ListByUser(_ context.Context, userID string) ([]order.Order, error) {
	var out []order.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *stubOrders) List(_ context.Context, page order.ListPage) ([]order.Order, int, error) {
	var out []order.Order
	for _, o := range s.orders {
		if page.Status != "" && o.Status != page.Status {
			continue
		}
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (s *stubOrders) NextNumber(context.Context) (int64, error) {
	s.seq++
	return s.seq, nil
}

func (s *stubOrders) UpdateStatus(_ context.Context, upd order.StatusUpdate) error {
	o, ok := s.orders[upd.OrderID]
	if !ok {
		return order.ErrNotFound
	}
	if o.Status != upd.From {
		return order.ErrStatusConflict
	}
	o.Status = upd.To
	if upd.PaymentStatus != "" {
		o.PaymentStatus = upd.PaymentStatus
	}
	if upd.PaymentRef != "" {
		o.PaymentRef = upd.PaymentRef
	}
	if upd.EstimatedDelivery != nil {
		o.EstimatedDelivery = upd.EstimatedDelivery
	}
	return nil
}

type stubUsers struct {
	users map[string]*user.User
}

func (s *stubUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *stubUsers) List(_ context.Context, page user.ListPage) ([]user.User, int, error) {
	var out []user.User
	for _, u := range s.users {
		if page.Role != "" && u.Role != page.Role {
			continue
		}
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (s *stubUsers) SetActive(_ context.Context, id string, active bool) error {
	u, ok := s.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.Active = active
	return nil
}

type stubReports struct{}

func (stubReports) StatusCounts(context.Context) (map[order.Status]int, error) {
	return map[order.Status]int{order.StatusPending: 2, order.StatusDelivered: 5}, nil
}

func (stubReports) Revenue(context.Context) (decimal.Decimal, error) {
	return decimal.NewFromInt(1250), nil
}

func (stubReports) Recent(context.Context, int) ([]report.RecentOrder, error) {
	return nil, nil
}

type fixture struct {
	handler  http.Handler
	catalog  *stubCatalog
	orders   *stubOrders
	custKey  string
	adminKey string
}

func price(n int) decimal.Decimal { return decimal.NewFromInt(int64(n)) }

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cat := &stubCatalog{items: map[string]catalog.Item{
		"thin":   {ID: "thin", Name: "Thin Crust", Price: price(150), Category: catalog.CategoryBase, Available: true, Stock: 10, Threshold: 3},
		"tomato": {ID: "tomato", Name: "Tomato", Price: price(40), Category: catalog.CategorySauce, Available: true, Stock: 10, Threshold: 3},
		"mozza":  {ID: "mozza", Name: "Mozzarella", Price: price(60), Category: catalog.CategoryCheese, Available: true, Stock: 2, Threshold: 3},
		"basil":  {ID: "basil", Name: "Basil", Price: price(20), Category: catalog.CategoryVegetable, Available: true, Stock: 0, Threshold: 1},
	}}
	ords := &stubOrders{orders: make(map[string]*order.Order)}
	users := &stubUsers{users: map[string]*user.User{
		"u1": {ID: "u1", Name: "Asha", Email: "asha@example.com", Role: user.RoleCustomer, Active: true,
			Address: user.Address{Street: "1 Main St", City: "Pune", State: "MH", Zip: "411001"}},
		"u2":    {ID: "u2", Name: "Ravi", Email: "ravi@example.com", Role: user.RoleCustomer, Active: true},
		"admin": {ID: "admin", Name: "Root", Email: "root@example.com", Role: user.RoleAdmin, Active: true},
	}}

	engine := pricing.NewEngine(cat)
	orderSvc := order.NewService(
		ords, cat, users, engine,
		payment.NewMockGateway(),
		payment.NewVerifier([]byte("secret"), true),
		notify.NopPublisher{},
		order.Config{PaymentsEnabled: false, Currency: "INR"},
	)
	reportSvc := report.NewService(stubReports{}, cat, 10)

	auth := NewAuthenticator(keyStore{}, users, []byte("pepper"))
	custKey, adminKey := "cust-key", "admin-key"
	keys := keyStore{
		auth.HashKey(custKey):  {ID: "k1", UserID: "u1", Name: "asha"},
		auth.HashKey(adminKey): {ID: "k2", UserID: "admin", Name: "root"},
	}
	for hash, key := range keys {
		key.KeyHash = hash
		keys[hash] = key
	}
	auth = NewAuthenticator(keys, users, []byte("pepper"))

	h := NewHandler(cat, engine, orderSvc, users, reportSvc, order.Config{PaymentsEnabled: false, Currency: "INR"})
	mux := http.NewServeMux()
	h.Register(mux, auth)

	return &fixture{handler: mux, catalog: cat, orders: ords, custKey: custKey, adminKey: adminKey}
}

type keyStore map[string]repository.APIKey

func (s keyStore) FindByHash(_ context.Context, hash string) (*repository.APIKey, error) {
	key, ok := s[hash]
	if !ok {
		return nil, repository.ErrAPIKeyNotFound
	}
	return &key, nil
}

func (f *fixture) do(t *testing.T, method, path, apiKey string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if apiKey != "" {
		req.Header.Set(APIKeyHeader, apiKey)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}

func TestListCatalog(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/catalog", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []itemView `json:"items"`
	}
	decodeBody(t, rec, &resp)

	// basil is out of stock and must not be offered.
	names := make([]string, len(resp.Items))
	for i, item := range resp.Items {
		names[i] = item.Name
	}
	assert.ElementsMatch(t, []string{"Thin Crust", "Tomato", "Mozzarella"}, names)
}

func TestListCatalogByCategory(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/catalog?category=base", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []itemView `json:"items"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Thin Crust", resp.Items[0].Name)

	rec = f.do(t, http.MethodGet, "/api/catalog?category=dessert", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListVarieties(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/catalog/varieties", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string][]itemView
	decodeBody(t, rec, &resp)

	assert.Len(t, resp["base"], 1)
	assert.Len(t, resp["sauce"], 1)
	assert.Empty(t, resp["vegetable"], "out-of-stock items are excluded")
	assert.Contains(t, resp, "meat", "every category key is present")
}

func TestQuote(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/pricing/quote", "", quoteRequest{
		Customization: pricing.Selection{Base: "thin", Sauce: "tomato", Cheese: "mozza"},
		Quantity:      2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp quoteView
	decodeBody(t, rec, &resp)
	assert.True(t, resp.UnitPrice.Equal(price(250)), "unit price %s", resp.UnitPrice)
	assert.True(t, resp.Total.Equal(price(500)), "total %s", resp.Total)
	assert.Len(t, resp.Components, 3)
}

func TestOrderConfig(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/orders/config", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	decodeBody(t, rec, &resp)
	assert.Equal(t, false, resp["payments_enabled"])
	assert.Equal(t, "INR", resp["currency"])
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/orders", "wrong-key", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoleRequired(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/admin/dashboard", f.custKey, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/admin/dashboard", f.adminKey, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/orders", f.custKey, createOrderRequest{
		Items: []createOrderItem{{
			Quantity:      1,
			Customization: pricing.Selection{Base: "thin", Sauce: "tomato"},
		}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp createOrderResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "PZ000001", resp.Order.Number)
	assert.Equal(t, string(order.StatusConfirmed), resp.Order.Status)
	assert.True(t, resp.Order.Total.Equal(price(190)))
	assert.Nil(t, resp.Payment, "payments disabled yields no intent")
	require.NotNil(t, resp.Order.Address)
	assert.Equal(t, "1 Main St", resp.Order.Address.Street)

	// Stock was reserved on confirmation.
	assert.Equal(t, 9, f.catalog.items["thin"].Stock)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/orders", f.custKey, createOrderRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/orders", f.custKey, createOrderRequest{
		Items: []createOrderItem{{Quantity: 0, Customization: pricing.Selection{Base: "thin"}}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOrderOwnership(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/orders", f.custKey, createOrderRequest{
		Items: []createOrderItem{{Quantity: 1, Customization: pricing.Selection{Base: "thin"}}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created createOrderResponse
	decodeBody(t, rec, &created)

	rec = f.do(t, http.MethodGet, "/api/orders/"+created.Order.ID, f.custKey, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/orders/missing", f.custKey, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/orders", f.custKey, createOrderRequest{
		Items: []createOrderItem{{Quantity: 1, Customization: pricing.Selection{Base: "thin"}}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created createOrderResponse
	decodeBody(t, rec, &created)
	require.Equal(t, 9, f.catalog.items["thin"].Stock)

	rec = f.do(t, http.MethodPost, "/api/orders/"+created.Order.ID+"/cancel", f.custKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cancelled orderView
	decodeBody(t, rec, &cancelled)
	assert.Equal(t, string(order.StatusCancelled), cancelled.Status)
	assert.Equal(t, 10, f.catalog.items["thin"].Stock, "confirmed cancel restores stock")

	// A second cancel hits a terminal order.
	rec = f.do(t, http.MethodPost, "/api/orders/"+created.Order.ID+"/cancel", f.custKey, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdminUpdateOrderStatus(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/orders", f.custKey, createOrderRequest{
		Items: []createOrderItem{{Quantity: 1, Customization: pricing.Selection{Base: "thin"}}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created createOrderResponse
	decodeBody(t, rec, &created)

	rec = f.do(t, http.MethodPut, "/api/admin/orders/"+created.Order.ID+"/status", f.adminKey,
		updateOrderStatusRequest{Status: "in_kitchen"})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated orderView
	decodeBody(t, rec, &updated)
	assert.Equal(t, "in_kitchen", updated.Status)

	// delivered is not reachable from in_kitchen.
	rec = f.do(t, http.MethodPut, "/api/admin/orders/"+created.Order.ID+"/status", f.adminKey,
		updateOrderStatusRequest{Status: "delivered"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/admin/orders/"+created.Order.ID+"/status", f.adminKey,
		updateOrderStatusRequest{Status: "bogus"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminInventory(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/admin/inventory", f.adminKey, itemRequest{
		Name: "Jalapeno", Price: price(25), Category: "vegetable", Available: true, Stock: 50, Threshold: 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created itemView
	decodeBody(t, rec, &created)
	require.NotEmpty(t, created.ID)

	rec = f.do(t, http.MethodPut, "/api/admin/inventory/"+created.ID+"/stock", f.adminKey, setStockRequest{Stock: 7})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated itemView
	decodeBody(t, rec, &updated)
	assert.Equal(t, 7, updated.Stock)

	rec = f.do(t, http.MethodPost, "/api/admin/inventory", f.adminKey, itemRequest{
		Name: "Mystery", Price: price(10), Category: "dessert",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/admin/inventory/"+created.ID, f.adminKey, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/admin/inventory/"+created.ID, f.adminKey, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminLowStock(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/admin/inventory/low-stock", f.adminKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []itemView `json:"items"`
	}
	decodeBody(t, rec, &resp)
	names := make([]string, len(resp.Items))
	for i, item := range resp.Items {
		names[i] = item.Name
	}
	assert.ElementsMatch(t, []string{"Mozzarella", "Basil"}, names)
}

func TestAdminUsers(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/admin/users?role=customer", f.adminKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Users []userView `json:"users"`
		Total int        `json:"total"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, 2, resp.Total)

	rec = f.do(t, http.MethodPut, "/api/admin/users/u2/status", f.adminKey, updateUserStatusRequest{Active: false})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/admin/users/ghost/status", f.adminKey, updateUserStatusRequest{Active: false})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
