package myredis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fabric/domain"
	"fabric/helpers"
	"fabric/service"

	"github.com/go-redis/redis/v8"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v8"
)

const (
	// DefaultBreakerPrefix is the key prefix of breaker states.
	DefaultBreakerPrefix = "circuit-breaker"
	// DefaultBreakerLockPrefix is the key prefix of the per-address locks.
	DefaultBreakerLockPrefix = "circuit-breaker-lock"
)

// LockOptions configures the per-address lock.
type LockOptions struct {
	// Expiry bounds how long a crashed holder can block an address.
	Expiry time.Duration
	// Tries is the number of acquisition attempts before Update fails.
	Tries int
	// RetryDelay is the pause between attempts.
	RetryDelay time.Duration
}

// DefaultLockOptions suits the breaker critical section: one GET and at most one SET.
func DefaultLockOptions() LockOptions {
	return LockOptions{
		Expiry:     2 * time.Second,
		Tries:      40,
		RetryDelay: 25 * time.Millisecond,
	}
}

// breakerStore keeps one JSON document per address and serializes updates with a redsync mutex.
type breakerStore struct {
	client     redis.UniversalClient
	redsync    *redsync.Redsync
	prefix     string
	lockPrefix string
	lockOpts   LockOptions
}

// NewBreakerStore creates the redis implementation of interfaces.BreakerStore.
func NewBreakerStore(client redis.UniversalClient, prefix, lockPrefix string, lockOpts LockOptions) *breakerStore {
	client = helpers.NilPanic(client, "myredis.breaker_store.go: client is required")
	return &breakerStore{
		client:     client,
		redsync:    redsync.New(goredis.NewPool(client)),
		prefix:     helpers.StrPanic(prefix, "myredis.breaker_store.go: prefix is required"),
		lockPrefix: helpers.StrPanic(lockPrefix, "myredis.breaker_store.go: lockPrefix is required"),
		lockOpts:   lockOpts,
	}
}

func (s *breakerStore) Load(ctx context.Context, address string) (domain.BreakerState, error) {
	key := s.prefix + ":" + address
	bytes, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.NewBreakerState(address), nil
	}
	if err != nil {
		return domain.BreakerState{}, service.NewInternalServerError("Redis read error", fmt.Errorf("can't read breaker state (key='%s'), err: %w", key, err))
	}

	var state domain.BreakerState
	if err := json.Unmarshal(bytes, &state); err != nil {
		return domain.BreakerState{}, service.NewInternalServerError("Redis unmarshal error", fmt.Errorf("can't unmarshal breaker state (key='%s'), err: %w", key, err))
	}
	if state.Address == "" {
		state.Address = address
	}
	if state.Status == "" {
		state.Status = domain.BreakerClosed
	}

	return state, nil
}

func (s *breakerStore) Update(ctx context.Context, address string, mutate func(state *domain.BreakerState) bool) (domain.BreakerState, error) {
	lockKey := s.lockPrefix + ":" + address
	mutex := s.redsync.NewMutex(
		lockKey,
		redsync.WithExpiry(s.lockOpts.Expiry),
		redsync.WithTries(s.lockOpts.Tries),
		redsync.WithRetryDelay(s.lockOpts.RetryDelay),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return domain.BreakerState{}, service.NewInternalServerError("Redis lock error", fmt.Errorf("can't acquire lock %s, err: %w", lockKey, err))
	}
	defer func() {
		// release even when the caller's context is already done
		_, _ = mutex.UnlockContext(context.WithoutCancel(ctx))
	}()

	state, err := s.Load(ctx, address)
	if err != nil {
		return domain.BreakerState{}, err
	}
	if !mutate(&state) {
		return state, nil
	}

	bytes, err := json.Marshal(state)
	if err != nil {
		return domain.BreakerState{}, service.NewInternalServerError("Redis marshal error", fmt.Errorf("can't marshal breaker state of %s, err: %w", address, err))
	}
	key := s.prefix + ":" + address
	if err := s.client.Set(ctx, key, bytes, 0).Err(); err != nil {
		return domain.BreakerState{}, service.NewInternalServerError("Redis write error", fmt.Errorf("can't write breaker state (key='%s'), err: %w", key, err))
	}

	return state, nil
}
