package service

import (
	"context"
	"time"

	"fabric/domain"
	"fabric/helpers"
	"fabric/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const breakerCacheSize = 4096

// CircuitBreaker implements interfaces.CircuitBreaker on top of a shared interfaces.BreakerStore.
// Reads may be served from a short-lived local cache; every transition goes through store.Update so that
// replicas agree on who owns the half-open probe.
type CircuitBreaker struct {
	store   interfaces.BreakerStore
	policy  domain.BreakerPolicy
	clock   interfaces.TimeProvider
	cache   *expirable.LRU[string, domain.BreakerState]
	metrics *Metrics
	logger  log.Logger
}

// NewCircuitBreaker creates the breaker. cacheTTL of zero disables the local read cache.
// Panics on nil store, clock or logger.
func NewCircuitBreaker(
	store interfaces.BreakerStore,
	policy domain.BreakerPolicy,
	clock interfaces.TimeProvider,
	cacheTTL time.Duration,
	metrics *Metrics,
	logger log.Logger,
) *CircuitBreaker {
	cb := &CircuitBreaker{
		store:   helpers.NilPanic(store, "service.circuit_breaker.go: store is required"),
		policy:  policy,
		clock:   helpers.NilPanic(clock, "service.circuit_breaker.go: clock is required"),
		metrics: metrics,
		logger:  log.With(helpers.NilPanic(logger, "service.circuit_breaker.go: logger is required"), "component", "CircuitBreaker"),
	}
	if cacheTTL > 0 {
		cb.cache = expirable.NewLRU[string, domain.BreakerState](breakerCacheSize, nil, cacheTTL)
	}
	return cb
}

// ShouldAllow reports whether a call to address may be made now. Once the cooldown of an open breaker
// is over, exactly one caller across all replicas claims the half-open probe and gets true.
func (cb *CircuitBreaker) ShouldAllow(ctx context.Context, address string) (bool, domain.BreakerStatus, error) {
	state, err := cb.load(ctx, address)
	if err != nil {
		return false, "", err
	}

	now := cb.clock.Now()
	switch cb.policy.Decide(state, now) {
	case domain.DecisionAllow:
		return true, state.Status, nil
	case domain.DecisionReject:
		return false, state.Status, nil
	}

	claimed := false
	after, err := cb.store.Update(ctx, address, func(s *domain.BreakerState) bool {
		claimed = cb.policy.TryProbe(s, now)
		return claimed
	})
	if err != nil {
		return false, "", err
	}
	cb.remember(address, after)
	if claimed {
		cb.metrics.transition(string(domain.BreakerHalfOpen))
		level.Info(cb.logger).Log("msg", "circuit half-open, probing", "address", address)
	}

	return claimed, after.Status, nil
}

// RecordSuccess resets the failure count of address. The shared store is read directly, since failures
// recorded by other replicas may not be in the local cache yet.
func (cb *CircuitBreaker) RecordSuccess(ctx context.Context, address string) error {
	state, err := cb.store.Load(ctx, address)
	if err != nil {
		return err
	}
	if state.Status == domain.BreakerClosed && state.FailureCount == 0 {
		cb.remember(address, state)
		return nil
	}

	now := cb.clock.Now()
	var from domain.BreakerStatus
	after, err := cb.store.Update(ctx, address, func(s *domain.BreakerState) bool {
		from = s.Status
		return cb.policy.OnSuccess(s, now)
	})
	if err != nil {
		return err
	}
	cb.remember(address, after)
	cb.logTransition(address, from, after)

	return nil
}

func (cb *CircuitBreaker) RecordFailure(ctx context.Context, address string) (domain.BreakerStatus, error) {
	now := cb.clock.Now()
	var from domain.BreakerStatus
	after, err := cb.store.Update(ctx, address, func(s *domain.BreakerState) bool {
		from = s.Status
		return cb.policy.OnFailure(s, now)
	})
	if err != nil {
		return "", err
	}
	cb.remember(address, after)
	cb.logTransition(address, from, after)

	return after.Status, nil
}

func (cb *CircuitBreaker) load(ctx context.Context, address string) (domain.BreakerState, error) {
	if cb.cache != nil {
		if state, ok := cb.cache.Get(address); ok {
			return state, nil
		}
	}
	state, err := cb.store.Load(ctx, address)
	if err != nil {
		return domain.BreakerState{}, err
	}
	cb.remember(address, state)
	return state, nil
}

func (cb *CircuitBreaker) remember(address string, state domain.BreakerState) {
	if cb.cache != nil {
		cb.cache.Add(address, state)
	}
}

func (cb *CircuitBreaker) logTransition(address string, from domain.BreakerStatus, after domain.BreakerState) {
	if from == after.Status {
		return
	}
	cb.metrics.transition(string(after.Status))
	switch after.Status {
	case domain.BreakerOpen:
		level.Warn(cb.logger).Log("msg", "circuit opened", "address", address, "from", from, "failures", after.FailureCount)
	default:
		level.Info(cb.logger).Log("msg", "circuit state changed", "address", address, "from", from, "to", after.Status)
	}
}
