package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/vbonduro/dikaadmin/internal/domain"
	"github.com/vbonduro/dikaadmin/internal/order"
)

const recentActivityLimit = 10

// Dashboard summarises the shop for the landing page.
type Dashboard struct {
	Counts    map[domain.OrderStatus]int
	Revenue   decimal.Decimal
	Products  int
	Customers int
	Recent    []*domain.Activity
}

type DashboardService struct {
	orders    orderAPI
	products  productAPI
	customers customerAPI
	activity  activityRepository
	logger    *slog.Logger
}

func NewDashboardService(orders orderAPI, products productAPI, customers customerAPI, activity activityRepository, logger *slog.Logger) *DashboardService {
	return &DashboardService{
		orders:    orders,
		products:  products,
		customers: customers,
		activity:  activity,
		logger:    logger,
	}
}

// Summary fetches orders, products and customers concurrently. Revenue is
// the total of completed orders.
func (s *DashboardService) Summary(ctx context.Context, token string) (*Dashboard, error) {
	var (
		orders    []domain.Order
		products  []domain.Product
		customers []domain.Customer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.orders.ListOrders(gctx, token)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = s.products.ListProducts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		customers, err = s.customers.ListCustomers(gctx, token)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load dashboard: %w", err)
	}

	d := &Dashboard{
		Counts:    order.CountByStatus(orders),
		Revenue:   decimal.Zero,
		Products:  len(products),
		Customers: len(customers),
	}
	for _, o := range order.Filter(orders, domain.StatusCompleted) {
		d.Revenue = d.Revenue.Add(o.Total())
	}

	recent, err := s.activity.Recent(ctx, recentActivityLimit)
	if err != nil {
		// The summary is still useful without the activity feed.
		s.logger.Error("failed to load recent activity", "error", err)
	}
	d.Recent = recent
	return d, nil
}
