package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vbonduro/dikaadmin/internal/api"
	"github.com/vbonduro/dikaadmin/internal/customer"
	"github.com/vbonduro/dikaadmin/internal/domain"
)

// customerAPI is the subset of api.Client that CustomerService requires.
type customerAPI interface {
	ListCustomers(ctx context.Context, token string) ([]domain.Customer, error)
	UpdateCustomer(ctx context.Context, token, id string, upd api.CustomerUpdate) (*domain.Customer, error)
}

type CustomerService struct {
	api    customerAPI
	views  *views[domain.Customer]
	logger *slog.Logger
}

func NewCustomerService(api customerAPI, logger *slog.Logger) *CustomerService {
	return &CustomerService{api: api, views: newViews[domain.Customer](), logger: logger}
}

// Load fetches the customers and makes them the session's list.
func (s *CustomerService) Load(ctx context.Context, sid, token string) ([]domain.Customer, error) {
	list, err := s.api.ListCustomers(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	s.views.set(sid, list)
	return list, nil
}

// Search filters the session's list by WhatsApp number, fetching it first
// if the session has none.
func (s *CustomerService) Search(ctx context.Context, sid, token, query string) ([]domain.Customer, error) {
	list, ok := s.views.get(sid)
	if !ok {
		var err error
		if list, err = s.Load(ctx, sid, token); err != nil {
			return nil, err
		}
	}
	return customer.FilterByWhatsApp(list, query), nil
}

// Get returns customer id from the session's list.
func (s *CustomerService) Get(ctx context.Context, sid, token, id string) (domain.Customer, bool, error) {
	list, ok := s.views.get(sid)
	if !ok {
		var err error
		if list, err = s.Load(ctx, sid, token); err != nil {
			return domain.Customer{}, false, err
		}
	}
	c, found := customer.Find(list, id)
	return c, found, nil
}

// Update saves the edit and replaces the customer in the session's list.
func (s *CustomerService) Update(ctx context.Context, sid, token, id string, upd api.CustomerUpdate) (*domain.Customer, error) {
	updated, err := s.api.UpdateCustomer(ctx, token, id, upd)
	if err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	s.views.update(sid, func(list []domain.Customer) []domain.Customer {
		return customer.ApplyUpdate(list, *updated)
	})
	s.logger.Info("customer updated", "customer_id", id, "password_changed", upd.Password != "")
	return updated, nil
}

// Forget drops the session's list.
func (s *CustomerService) Forget(sid string) {
	s.views.forget(sid)
}

// Evict drops the lists of sessions idle for longer than idle.
func (s *CustomerService) Evict(idle time.Duration) int {
	return s.views.evict(idle)
}
