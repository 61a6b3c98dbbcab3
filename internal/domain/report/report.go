// Package report computes read-only back-office aggregates. Nothing here
// mutates state.
package report

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/doughlab/pizzeria/internal/domain/catalog"
	"github.com/doughlab/pizzeria/internal/domain/order"
)

// Stats summarizes order volume and revenue.
type Stats struct {
	TotalOrders int
	ByStatus    map[order.Status]int
	// Revenue is the sum of totals over orders with paymentStatus=paid.
	Revenue decimal.Decimal
}

// RecentOrder pairs an order with its resolved owner details.
type RecentOrder struct {
	Order     order.Order
	UserName  string
	UserEmail string
	UserPhone string
}

// Dashboard is the admin landing-page aggregate.
type Dashboard struct {
	Stats        Stats
	RecentOrders []RecentOrder
	LowStock     []catalog.Item
}

// Repository defines the aggregation queries behind the dashboard.
type Repository interface {
	StatusCounts(ctx context.Context) (map[order.Status]int, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)
	Recent(ctx context.Context, limit int) ([]RecentOrder, error)
}

// Service assembles dashboard data on demand.
type Service struct {
	repo        Repository
	catalog     catalog.Repository
	recentLimit int
}

// NewService creates a reporting Service. recentLimit bounds the recent
// orders section; values below 1 fall back to 10.
func NewService(repo Repository, catalogRepo catalog.Repository, recentLimit int) *Service {
	if recentLimit < 1 {
		recentLimit = 10
	}
	return &Service{repo: repo, catalog: catalogRepo, recentLimit: recentLimit}
}

// Dashboard runs the four independent aggregations concurrently and merges
// the results.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		counts   map[order.Status]int
		revenue  decimal.Decimal
		recent   []RecentOrder
		lowStock []catalog.Item
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		counts, err = s.repo.StatusCounts(gctx)
		return errors.Wrap(err, "status counts")
	})
	g.Go(func() (err error) {
		revenue, err = s.repo.Revenue(gctx)
		return errors.Wrap(err, "revenue")
	})
	g.Go(func() (err error) {
		recent, err = s.repo.Recent(gctx, s.recentLimit)
		return errors.Wrap(err, "recent orders")
	})
	g.Go(func() (err error) {
		lowStock, err = s.catalog.LowStock(gctx)
		return errors.Wrap(err, "low stock")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	return &Dashboard{
		Stats: Stats{
			TotalOrders: total,
			ByStatus:    counts,
			Revenue:     revenue,
		},
		RecentOrders: recent,
		LowStock:     lowStock,
	}, nil
}

// LowStock returns available items at or below their restock threshold.
func (s *Service) LowStock(ctx context.Context) ([]catalog.Item, error) {
	return s.catalog.LowStock(ctx)
}
