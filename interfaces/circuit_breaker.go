package interfaces

import (
	"context"

	"fabric/domain"
)

// CircuitBreaker tracks downstream failures per address.
// Implemented by service.CircuitBreaker; used by service.Router.
//
//go:generate moq -stub -out mock/circuit_breaker.go -pkg mock . CircuitBreaker
type CircuitBreaker interface {
	// ShouldAllow reports whether a call to address may be attempted. An open breaker past its cooldown is
	// moved to half-open and only the caller that moved it is allowed.
	ShouldAllow(ctx context.Context, address string) (bool, domain.BreakerStatus, error)

	// RecordSuccess records a successful call to address.
	RecordSuccess(ctx context.Context, address string) error

	// RecordFailure records a failed call to address and returns the resulting status.
	RecordFailure(ctx context.Context, address string) (domain.BreakerStatus, error)
}
