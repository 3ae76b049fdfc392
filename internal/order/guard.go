package order

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/vbonduro/dikaadmin/internal/domain"
)

// Guard collapses concurrent duplicate mutations of the same order. While a
// call for a key is in flight, later callers wait for it and receive its
// result instead of issuing their own request.
type Guard struct {
	group singleflight.Group
}

// Do runs fn once per key at a time. ran is true only for the caller whose
// fn was executed; callers that joined an in-flight call get its result with
// ran false.
func (g *Guard) Do(ctx context.Context, key string, fn func(context.Context) (*domain.Order, error)) (o *domain.Order, ran bool, err error) {
	executed := false
	ch := g.group.DoChan(key, func() (any, error) {
		executed = true
		// Detached so a caller that gives up does not cancel the mutation
		// for everyone else waiting on it.
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, executed, res.Err
		}
		o, _ := res.Val.(*domain.Order)
		return o, executed, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// UpdateKey and DeleteKey name the in-flight slot for a mutation. Only the
// same request from the same session shares a slot, so a different target
// status or another admin's token always reaches the API.
func UpdateKey(sid, id string, to domain.OrderStatus) string {
	return "update:" + sid + ":" + id + ":" + string(to)
}

func DeleteKey(sid, id string) string { return "delete:" + sid + ":" + id }
