// Package order holds the order lifecycle rules: which controls an order
// exposes, which status changes are legal, and how a fetched order list is
// reconciled after a confirmed mutation.
package order

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vbonduro/dikaadmin/internal/domain"
)

// DefaultFilter is the status shown when no filter is selected.
const DefaultFilter = domain.StatusAwaiting

var (
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrNotDeletable      = errors.New("order can only be deleted once completed or cancelled")
	ErrUnknownStatus     = errors.New("unknown order status")
)

// Transitions maps a current status to the statuses it may be changed to.
type Transitions map[domain.OrderStatus][]domain.OrderStatus

// Unrestricted lets a non-terminal order move to any status, including
// backwards or to itself.
var Unrestricted = Transitions{
	domain.StatusAwaiting:   domain.Statuses,
	domain.StatusProcessing: domain.Statuses,
}

// ForwardOnly only allows moving an order forward through the lifecycle.
var ForwardOnly = Transitions{
	domain.StatusAwaiting:   {domain.StatusProcessing, domain.StatusCancelled},
	domain.StatusProcessing: {domain.StatusCompleted, domain.StatusCancelled},
}

// TransitionsByName resolves the ORDER_TRANSITIONS setting.
func TransitionsByName(name string) (Transitions, error) {
	switch name {
	case "", "unrestricted":
		return Unrestricted, nil
	case "forward", "forward-only":
		return ForwardOnly, nil
	default:
		return nil, fmt.Errorf("unknown transition policy %q", name)
	}
}

// Targets returns the statuses an order in status from may be set to.
func (t Transitions) Targets(from domain.OrderStatus) []domain.OrderStatus {
	return t[from]
}

// Check returns nil when moving from -> to is allowed.
func (t Transitions) Check(from, to domain.OrderStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	if !slices.Contains(t[from], to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return nil
}

// CanUpdate reports whether the status control is shown for o.
func CanUpdate(o domain.Order) bool {
	return o.Status.Valid() && !o.Status.Terminal()
}

// CanDelete reports whether the delete control is shown for o.
func CanDelete(o domain.Order) bool {
	return o.Status.Terminal()
}

// ParseFilter returns the status to filter by, falling back to DefaultFilter
// for empty or unknown values.
func ParseFilter(s string) domain.OrderStatus {
	st := domain.OrderStatus(s)
	if !st.Valid() {
		return DefaultFilter
	}
	return st
}

// Filter returns the orders whose status equals status. The input is not
// modified.
func Filter(list []domain.Order, status domain.OrderStatus) []domain.Order {
	out := make([]domain.Order, 0, len(list))
	for _, o := range list {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}

// CountByStatus tallies orders per status.
func CountByStatus(list []domain.Order) map[domain.OrderStatus]int {
	counts := make(map[domain.OrderStatus]int, len(domain.Statuses))
	for _, st := range domain.Statuses {
		counts[st] = 0
	}
	for _, o := range list {
		counts[o.Status]++
	}
	return counts
}

// ApplyUpdate returns a copy of list with the entry matching updated.ID
// replaced. Unknown IDs leave the list as it was.
func ApplyUpdate(list []domain.Order, updated domain.Order) []domain.Order {
	out := slices.Clone(list)
	for i := range out {
		if out[i].ID == updated.ID {
			out[i] = updated
		}
	}
	return out
}

// ApplyDelete returns a copy of list without the entry whose ID is id.
func ApplyDelete(list []domain.Order, id string) []domain.Order {
	out := make([]domain.Order, 0, len(list))
	for _, o := range list {
		if o.ID != id {
			out = append(out, o)
		}
	}
	return out
}

// Find returns the order with the given id.
func Find(list []domain.Order, id string) (domain.Order, bool) {
	for _, o := range list {
		if o.ID == id {
			return o, true
		}
	}
	return domain.Order{}, false
}
