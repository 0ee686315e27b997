package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"fabric/domain"
	"fabric/interfaces/mock"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// newMapBreakerStore returns a BreakerStoreMock backed by a map, serialized by one mutex.
func newMapBreakerStore() *mock.BreakerStoreMock {
	var mu sync.Mutex
	states := map[string]domain.BreakerState{}
	get := func(address string) domain.BreakerState {
		if s, ok := states[address]; ok {
			return s
		}
		return domain.NewBreakerState(address)
	}
	return &mock.BreakerStoreMock{
		LoadFunc: func(_ context.Context, address string) (domain.BreakerState, error) {
			mu.Lock()
			defer mu.Unlock()
			return get(address), nil
		},
		UpdateFunc: func(_ context.Context, address string, mutate func(*domain.BreakerState) bool) (domain.BreakerState, error) {
			mu.Lock()
			defer mu.Unlock()
			s := get(address)
			if mutate(&s) {
				states[address] = s
			}
			return s, nil
		},
	}
}

func newTestBreaker(t *testing.T, threshold int, open, cacheTTL time.Duration) (*CircuitBreaker, *mock.BreakerStoreMock, *fakeClock, *Metrics) {
	t.Helper()
	store := newMapBreakerStore()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	metrics := NewMetrics(prometheus.NewRegistry())
	cb := NewCircuitBreaker(store, domain.BreakerPolicy{FailureThreshold: threshold, OpenStateDuration: open}, clock, cacheTTL, metrics, log.NewNopLogger())
	return cb, store, clock, metrics
}

func TestNewCircuitBreaker_Panics(t *testing.T) {
	clock := &fakeClock{}
	assert.PanicsWithValue(t, "service.circuit_breaker.go: store is required", func() {
		NewCircuitBreaker(nil, domain.BreakerPolicy{}, clock, 0, nil, log.NewNopLogger())
	})
	assert.PanicsWithValue(t, "service.circuit_breaker.go: clock is required", func() {
		NewCircuitBreaker(newMapBreakerStore(), domain.BreakerPolicy{}, nil, 0, nil, log.NewNopLogger())
	})
}

func TestCircuitBreaker_Lifecycle(t *testing.T) {
	ctx := context.Background()
	cb, _, clock, metrics := newTestBreaker(t, 3, 10*time.Second, 0)
	const addr = "10.0.0.1:3000"

	for i := 0; i < 2; i++ {
		status, err := cb.RecordFailure(ctx, addr)
		require.NoError(t, err)
		assert.Equal(t, domain.BreakerClosed, status)
	}
	allow, status, err := cb.ShouldAllow(ctx, addr)
	require.NoError(t, err)
	assert.True(t, allow)
	assert.Equal(t, domain.BreakerClosed, status)

	status, err = cb.RecordFailure(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, domain.BreakerOpen, status)

	clock.Advance(9 * time.Second)
	allow, status, err = cb.ShouldAllow(ctx, addr)
	require.NoError(t, err)
	assert.False(t, allow)
	assert.Equal(t, domain.BreakerOpen, status)

	clock.Advance(time.Second)
	allow, status, err = cb.ShouldAllow(ctx, addr)
	require.NoError(t, err)
	assert.True(t, allow, "first caller after cooldown gets the probe")
	assert.Equal(t, domain.BreakerHalfOpen, status)

	allow, status, err = cb.ShouldAllow(ctx, addr)
	require.NoError(t, err)
	assert.False(t, allow, "probe already taken")
	assert.Equal(t, domain.BreakerHalfOpen, status)

	require.NoError(t, cb.RecordSuccess(ctx, addr))
	allow, status, err = cb.ShouldAllow(ctx, addr)
	require.NoError(t, err)
	assert.True(t, allow)
	assert.Equal(t, domain.BreakerClosed, status)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BreakerTransitions.WithLabelValues("open")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BreakerTransitions.WithLabelValues("half_open")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BreakerTransitions.WithLabelValues("closed")))
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	ctx := context.Background()
	cb, store, clock, _ := newTestBreaker(t, 1, time.Second, 0)

	_, err := cb.RecordFailure(ctx, "a")
	require.NoError(t, err)
	clock.Advance(time.Second)
	allow, _, err := cb.ShouldAllow(ctx, "a")
	require.NoError(t, err)
	require.True(t, allow)

	status, err := cb.RecordFailure(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.BreakerOpen, status)

	state, _ := store.Load(ctx, "a")
	assert.Equal(t, 0, state.FailureCount)
	assert.Equal(t, clock.Now(), state.LastStateChangedTime)

	allow, _, err = cb.ShouldAllow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, allow, "new cooldown starts from the failed probe")
}

func TestCircuitBreaker_ConcurrentProbe(t *testing.T) {
	ctx := context.Background()
	cb, _, clock, _ := newTestBreaker(t, 1, time.Second, 0)
	_, err := cb.RecordFailure(ctx, "a")
	require.NoError(t, err)
	clock.Advance(2 * time.Second)

	var mu sync.Mutex
	allowed := 0
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _, err := cb.ShouldAllow(ctx, "a")
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, allowed)
}

func TestCircuitBreaker_SuccessOnCleanStateSkipsLock(t *testing.T) {
	cb, store, _, _ := newTestBreaker(t, 3, time.Second, 0)

	require.NoError(t, cb.RecordSuccess(context.Background(), "a"))
	assert.Empty(t, store.UpdateCalls())

	_, _ = cb.RecordFailure(context.Background(), "a")
	require.NoError(t, cb.RecordSuccess(context.Background(), "a"))
	assert.Len(t, store.UpdateCalls(), 2)
	state, _ := store.Load(context.Background(), "a")
	assert.Equal(t, 0, state.FailureCount)
}

func TestCircuitBreaker_StoreErrors(t *testing.T) {
	store := &mock.BreakerStoreMock{
		LoadFunc: func(context.Context, string) (domain.BreakerState, error) {
			return domain.BreakerState{}, NewInternalServerError("Redis read error", assert.AnError)
		},
		UpdateFunc: func(context.Context, string, func(*domain.BreakerState) bool) (domain.BreakerState, error) {
			return domain.BreakerState{}, NewInternalServerError("Redis lock error", assert.AnError)
		},
	}
	cb := NewCircuitBreaker(store, domain.BreakerPolicy{FailureThreshold: 1}, &fakeClock{}, 0, nil, log.NewNopLogger())

	_, _, err := cb.ShouldAllow(context.Background(), "a")
	assert.True(t, IsInternalServerError(err))
	_, err = cb.RecordFailure(context.Background(), "a")
	assert.True(t, IsInternalServerError(err))
	assert.True(t, IsInternalServerError(cb.RecordSuccess(context.Background(), "a")))
}

func TestCircuitBreaker_LocalCache(t *testing.T) {
	ctx := context.Background()
	cb, store, clock, _ := newTestBreaker(t, 1, 5*time.Second, time.Minute)

	for i := 0; i < 3; i++ {
		allow, _, err := cb.ShouldAllow(ctx, "a")
		require.NoError(t, err)
		assert.True(t, allow)
	}
	assert.Len(t, store.LoadCalls(), 1, "closed state served from cache")

	_, err := cb.RecordFailure(ctx, "a")
	require.NoError(t, err)
	allow, status, err := cb.ShouldAllow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, allow, "own write refreshes the cached entry")
	assert.Equal(t, domain.BreakerOpen, status)

	clock.Advance(5 * time.Second)
	allow, _, err = cb.ShouldAllow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, allow, "probe decision goes through the store")
	assert.Len(t, store.LoadCalls(), 1)
}

func TestCircuitBreaker_SuccessClearsFailuresOfOtherReplicas(t *testing.T) {
	ctx := context.Background()
	local, store, clock, _ := newTestBreaker(t, 3, time.Second, time.Minute)
	remote := NewCircuitBreaker(store, domain.BreakerPolicy{FailureThreshold: 3, OpenStateDuration: time.Second}, clock, time.Minute, nil, log.NewNopLogger())

	allow, _, err := local.ShouldAllow(ctx, "a")
	require.NoError(t, err)
	require.True(t, allow)

	for i := 0; i < 2; i++ {
		_, err = remote.RecordFailure(ctx, "a")
		require.NoError(t, err)
	}
	require.NoError(t, local.RecordSuccess(ctx, "a"))

	state, _ := store.Load(ctx, "a")
	assert.Equal(t, 0, state.FailureCount)
	assert.Equal(t, domain.BreakerClosed, state.Status)

	_, err = remote.RecordFailure(ctx, "a")
	require.NoError(t, err)
	state, _ = store.Load(ctx, "a")
	assert.Equal(t, domain.BreakerClosed, state.Status, "count restarted after the success")
}
