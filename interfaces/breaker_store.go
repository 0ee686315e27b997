package interfaces

import (
	"context"

	"fabric/domain"
)

// BreakerStore persists circuit breaker state shared by every gateway replica.
//
// Implemented by adapters/myredis (Redis + redsync lock) and adapters/memstore.
//
//go:generate moq -stub -out mock/breaker_store.go -pkg mock . BreakerStore
type BreakerStore interface {
	// Load returns the stored state of address, or domain.NewBreakerState(address) when none is stored.
	Load(ctx context.Context, address string) (domain.BreakerState, error)

	// Update runs mutate on the current state of address while holding the per-address lock and writes the
	// result back when mutate returns true. Returns the state as it is after the call.
	Update(ctx context.Context, address string, mutate func(state *domain.BreakerState) bool) (domain.BreakerState, error)
}
