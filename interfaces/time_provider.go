package interfaces

import "time"

// TimeProvider supplies the current time for breaker cooldowns.
// Injected so tests can move the clock instead of sleeping.
type TimeProvider interface {
	Now() time.Time
}
