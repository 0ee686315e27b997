package service

import (
	"time"

	"fabric/helpers"
	"fabric/interfaces"
)

// timeProvider implements interfaces.TimeProvider over an injected clock.
// The circuit breaker reads it for every transition, tests pin it to a fixed instant.
type timeProvider struct {
	now func() time.Time
}

// NewTimeProvider creates a TimeProvider that returns time via the given now func. Panics on nil now.
func NewTimeProvider(now func() time.Time) interfaces.TimeProvider {
	return &timeProvider{now: helpers.NilPanic(now, "service.time_provider.go: now is required")}
}

func (t *timeProvider) Now() time.Time {
	return t.now()
}
