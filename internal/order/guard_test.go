package order

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/dikaadmin/internal/domain"
)

func TestGuardCollapsesDuplicates(t *testing.T) {
	var g Guard
	var calls atomic.Int32
	release := make(chan struct{})

	fn := func(context.Context) (*domain.Order, error) {
		calls.Add(1)
		<-release
		return &domain.Order{ID: "1", Status: domain.StatusCompleted}, nil
	}

	const callers = 5
	var wg sync.WaitGroup
	var ran atomic.Int32
	results := make([]*domain.Order, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			o, executed, err := g.Do(context.Background(), UpdateKey("s1", "1", domain.StatusCompleted), fn)
			assert.NoError(t, err)
			if executed {
				ran.Add(1)
			}
			results[i] = o
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(1), ran.Load(), "only the caller that ran fn reports it")
	for _, o := range results {
		require.NotNil(t, o)
		assert.Equal(t, domain.StatusCompleted, o.Status)
	}
}

func TestGuardSequentialCallsRunAgain(t *testing.T) {
	var g Guard
	calls := 0
	fn := func(context.Context) (*domain.Order, error) {
		calls++
		return &domain.Order{ID: "1"}, nil
	}

	_, ran, err := g.Do(context.Background(), DeleteKey("s1", "1"), fn)
	require.NoError(t, err)
	assert.True(t, ran)
	_, ran, err = g.Do(context.Background(), DeleteKey("s1", "1"), fn)
	require.NoError(t, err)
	assert.True(t, ran)

	assert.Equal(t, 2, calls)
}

func TestGuardPropagatesError(t *testing.T) {
	var g Guard
	boom := errors.New("boom")

	_, _, err := g.Do(context.Background(), UpdateKey("s1", "9", domain.StatusProcessing), func(context.Context) (*domain.Order, error) {
		return nil, boom
	})

	assert.ErrorIs(t, err, boom)
}

func TestGuardCallerCancelled(t *testing.T) {
	var g Guard
	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := g.Do(ctx, UpdateKey("s1", "2", domain.StatusProcessing), func(context.Context) (*domain.Order, error) {
		<-release
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGuardKeysSeparateTargetsAndSessions(t *testing.T) {
	assert.NotEqual(t,
		UpdateKey("s1", "7", domain.StatusProcessing),
		UpdateKey("s1", "7", domain.StatusCancelled))
	assert.NotEqual(t,
		UpdateKey("s1", "7", domain.StatusProcessing),
		UpdateKey("s2", "7", domain.StatusProcessing))
	assert.NotEqual(t, DeleteKey("s1", "7"), DeleteKey("s2", "7"))
}

func TestGuardDifferentKeysBothRun(t *testing.T) {
	var g Guard
	var calls atomic.Int32
	release := make(chan struct{})

	run := func(to domain.OrderStatus) func(context.Context) (*domain.Order, error) {
		return func(context.Context) (*domain.Order, error) {
			calls.Add(1)
			<-release
			return &domain.Order{ID: "7", Status: to}, nil
		}
	}

	var wg sync.WaitGroup
	got := make([]*domain.Order, 2)
	targets := []domain.OrderStatus{domain.StatusProcessing, domain.StatusCancelled}
	for i, to := range targets {
		wg.Add(1)
		go func(i int, to domain.OrderStatus) {
			defer wg.Done()
			o, ran, err := g.Do(context.Background(), UpdateKey("s1", "7", to), run(to))
			assert.NoError(t, err)
			assert.True(t, ran)
			got[i] = o
		}(i, to)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(2), calls.Load())
	for i, to := range targets {
		require.NotNil(t, got[i])
		assert.Equal(t, to, got[i].Status)
	}
}
