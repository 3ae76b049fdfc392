package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vbonduro/dikaadmin/internal/domain"
	"github.com/vbonduro/dikaadmin/internal/events"
	"github.com/vbonduro/dikaadmin/internal/order"
)

// ErrOrderNotFound is returned when an order is not in the fetched list.
var ErrOrderNotFound = errors.New("order not found")

// orderAPI is the subset of api.Client that OrderService requires.
type orderAPI interface {
	ListOrders(ctx context.Context, token string) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, token, id string, status domain.OrderStatus) (*domain.Order, error)
	DeleteOrder(ctx context.Context, token, id string) error
}

// activityRepository is the subset of store.ActivityStore the services require.
type activityRepository interface {
	Record(ctx context.Context, a domain.Activity) (*domain.Activity, error)
	Recent(ctx context.Context, limit int) ([]*domain.Activity, error)
}

// OrderBoard is the order screen: the orders matching the active filter plus
// a count per status over the whole fetched list.
type OrderBoard struct {
	Filter domain.OrderStatus
	Orders []domain.Order
	Counts map[domain.OrderStatus]int
}

type OrderService struct {
	api         orderAPI
	transitions order.Transitions
	guard       order.Guard
	activity    activityRepository
	publisher   events.Publisher
	views       *views[domain.Order]
	logger      *slog.Logger
	now         func() time.Time
}

func NewOrderService(
	api orderAPI,
	transitions order.Transitions,
	activity activityRepository,
	publisher events.Publisher,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		api:         api,
		transitions: transitions,
		activity:    activity,
		publisher:   publisher,
		views:       newViews[domain.Order](),
		logger:      logger,
		now:         time.Now,
	}
}

// Targets lists the statuses offered in the status control of o.
func (s *OrderService) Targets(o domain.Order) []domain.OrderStatus {
	if !order.CanUpdate(o) {
		return nil
	}
	return s.transitions.Targets(o.Status)
}

// Load fetches the orders for the session and makes them its current list.
func (s *OrderService) Load(ctx context.Context, sid, token string) ([]domain.Order, error) {
	orders, err := s.api.ListOrders(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	s.views.set(sid, orders)
	return orders, nil
}

// Board filters the session's current list, fetching it first if the
// session has none.
func (s *OrderService) Board(ctx context.Context, sid, token string, filter domain.OrderStatus) (*OrderBoard, error) {
	list, ok := s.views.get(sid)
	if !ok {
		var err error
		if list, err = s.Load(ctx, sid, token); err != nil {
			return nil, err
		}
	}
	return &OrderBoard{
		Filter: filter,
		Orders: order.Filter(list, filter),
		Counts: order.CountByStatus(list),
	}, nil
}

func (s *OrderService) current(ctx context.Context, sid, token, id string) (domain.Order, error) {
	list, ok := s.views.get(sid)
	if !ok {
		var err error
		if list, err = s.Load(ctx, sid, token); err != nil {
			return domain.Order{}, err
		}
	}
	o, found := order.Find(list, id)
	if !found {
		return domain.Order{}, ErrOrderNotFound
	}
	return o, nil
}

// UpdateStatus changes the status of order id. Illegal transitions are
// rejected before the API is called. The session's list is reconciled only
// after the API confirms the change.
func (s *OrderService) UpdateStatus(ctx context.Context, sid, token, actor, id string, to domain.OrderStatus) (*domain.Order, error) {
	cur, err := s.current(ctx, sid, token, id)
	if err != nil {
		return nil, err
	}
	if !order.CanUpdate(cur) {
		return nil, fmt.Errorf("%w: order is %s", order.ErrIllegalTransition, cur.Status)
	}
	if err := s.transitions.Check(cur.Status, to); err != nil {
		return nil, err
	}

	updated, ran, err := s.guard.Do(ctx, order.UpdateKey(sid, id, to), func(ctx context.Context) (*domain.Order, error) {
		return s.api.UpdateOrderStatus(ctx, token, id, to)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	s.views.update(sid, func(list []domain.Order) []domain.Order {
		return order.ApplyUpdate(list, *updated)
	})
	if !ran {
		s.logger.Info("duplicate order update collapsed", "order_id", id, "to", to)
		return updated, nil
	}
	s.logger.Info("order status updated", "order_id", id, "from", cur.Status, "to", updated.Status)
	s.record(ctx, events.OrderEvent{
		Type: events.TypeStatusChanged, OrderID: id, From: cur.Status, To: updated.Status, Actor: actor,
	})
	return updated, nil
}

// Delete removes a completed or cancelled order.
func (s *OrderService) Delete(ctx context.Context, sid, token, actor, id string) error {
	cur, err := s.current(ctx, sid, token, id)
	if err != nil {
		return err
	}
	if !order.CanDelete(cur) {
		return order.ErrNotDeletable
	}

	_, ran, err := s.guard.Do(ctx, order.DeleteKey(sid, id), func(ctx context.Context) (*domain.Order, error) {
		return nil, s.api.DeleteOrder(ctx, token, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	s.views.update(sid, func(list []domain.Order) []domain.Order {
		return order.ApplyDelete(list, id)
	})
	if !ran {
		s.logger.Info("duplicate order delete collapsed", "order_id", id)
		return nil
	}
	s.logger.Info("order deleted", "order_id", id, "status", cur.Status)
	s.record(ctx, events.OrderEvent{Type: events.TypeDeleted, OrderID: id, From: cur.Status, Actor: actor})
	return nil
}

// Forget drops the session's list.
func (s *OrderService) Forget(sid string) {
	s.views.forget(sid)
}

// Evict drops the lists of sessions idle for longer than idle.
func (s *OrderService) Evict(idle time.Duration) int {
	return s.views.evict(idle)
}

// record logs the change locally and publishes it. Failures here never undo
// a change the API already made.
func (s *OrderService) record(ctx context.Context, e events.OrderEvent) {
	e.Occurred = s.now().UTC()
	action := "status_changed"
	if e.Type == events.TypeDeleted {
		action = "deleted"
	}
	if _, err := s.activity.Record(ctx, domain.Activity{
		OrderID: e.OrderID, Action: action, FromState: e.From, ToState: e.To, Actor: e.Actor,
	}); err != nil {
		s.logger.Error("failed to record order activity", "order_id", e.OrderID, "error", err)
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Error("failed to publish order event", "order_id", e.OrderID, "type", e.Type, "error", err)
	}
}
