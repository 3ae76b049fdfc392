package service

import (
	"sync"
	"time"
)

// views holds the list each browser session last fetched for one screen.
// Mutations reconcile it in place of refetching. Lists untouched for a while
// are evicted; the next read fetches them again.
type views[T any] struct {
	mu    sync.Mutex
	lists map[string]*view[T]
	now   func() time.Time
}

type view[T any] struct {
	list []T
	used time.Time
}

func newViews[T any]() *views[T] {
	return &views[T]{lists: make(map[string]*view[T]), now: time.Now}
}

func (v *views[T]) get(sid string) ([]T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	e, ok := v.lists[sid]
	if !ok {
		return nil, false
	}
	e.used = v.now()
	return e.list, true
}

func (v *views[T]) set(sid string, list []T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lists[sid] = &view[T]{list: list, used: v.now()}
}

// update replaces the session's list with fn applied to it and returns the
// result. A session without a list is left alone and ok is false. fn must not
// modify its argument.
func (v *views[T]) update(sid string, fn func([]T) []T) (next []T, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	e, ok := v.lists[sid]
	if !ok {
		return nil, false
	}
	e.list = fn(e.list)
	e.used = v.now()
	return e.list, true
}

func (v *views[T]) forget(sid string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.lists, sid)
}

// evict drops lists not read or written for longer than idle and returns how
// many were dropped.
func (v *views[T]) evict(idle time.Duration) int {
	cutoff := v.now().Add(-idle)
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for sid, e := range v.lists {
		if e.used.Before(cutoff) {
			delete(v.lists, sid)
			n++
		}
	}
	return n
}
