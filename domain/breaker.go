package domain

import "time"

// BreakerStatus is the state of one downstream address's circuit breaker.
type BreakerStatus string

const (
	BreakerClosed   BreakerStatus = "closed"
	BreakerOpen     BreakerStatus = "open"
	BreakerHalfOpen BreakerStatus = "half_open"
)

// BreakerState is the persisted breaker record for one address (key circuit-breaker:{address}).
type BreakerState struct {
	Address              string        `json:"address"`
	Status               BreakerStatus `json:"status"`
	FailureCount         int           `json:"failureCount"`
	LastStateChangedTime time.Time     `json:"lastStateChangedTime"`
}

// NewBreakerState returns the state of an address that has never been seen: closed, no failures.
func NewBreakerState(address string) BreakerState {
	return BreakerState{Address: address, Status: BreakerClosed}
}

// BreakerDecision is what a read of the state says about the next call.
type BreakerDecision int

const (
	// DecisionAllow lets the call through without touching the store.
	DecisionAllow BreakerDecision = iota
	// DecisionReject excludes the address.
	DecisionReject
	// DecisionProbe means the cooldown is over and the caller must try to claim the probe under the lock.
	DecisionProbe
)

// BreakerPolicy holds the configured thresholds and implements the state transitions.
// Transition methods mutate the state in place and report whether it has to be written back.
type BreakerPolicy struct {
	FailureThreshold  int
	OpenStateDuration time.Duration
}

func (p BreakerPolicy) threshold() int {
	if p.FailureThreshold < 1 {
		return 1
	}
	return p.FailureThreshold
}

// CooldownElapsed reports whether OpenStateDuration has passed since the last state change.
func (p BreakerPolicy) CooldownElapsed(s BreakerState, now time.Time) bool {
	return now.Sub(s.LastStateChangedTime) >= p.OpenStateDuration
}

// Decide classifies s without changing it.
// A half-open breaker whose probe never reported back is re-armed after another cooldown.
func (p BreakerPolicy) Decide(s BreakerState, now time.Time) BreakerDecision {
	switch s.Status {
	case BreakerOpen, BreakerHalfOpen:
		if p.CooldownElapsed(s, now) {
			return DecisionProbe
		}
		return DecisionReject
	default:
		return DecisionAllow
	}
}

// TryProbe moves s to half-open when its cooldown is over. It returns true only for the caller that
// performed the transition; that caller owns the single probe.
func (p BreakerPolicy) TryProbe(s *BreakerState, now time.Time) bool {
	if p.Decide(*s, now) != DecisionProbe {
		return false
	}
	s.Status = BreakerHalfOpen
	s.FailureCount = 0
	s.LastStateChangedTime = now
	return true
}

// OnSuccess records a successful call.
func (p BreakerPolicy) OnSuccess(s *BreakerState, now time.Time) bool {
	switch s.Status {
	case BreakerHalfOpen:
		s.Status = BreakerClosed
		s.FailureCount = 0
		s.LastStateChangedTime = now
		return true
	case BreakerOpen:
		// late result of a call started before the breaker opened
		return false
	default:
		if s.Status == "" {
			s.Status = BreakerClosed
		}
		if s.FailureCount == 0 {
			return false
		}
		s.FailureCount = 0
		return true
	}
}

// OnFailure records a failed call.
func (p BreakerPolicy) OnFailure(s *BreakerState, now time.Time) bool {
	switch s.Status {
	case BreakerHalfOpen:
		s.Status = BreakerOpen
		s.FailureCount = 0
		s.LastStateChangedTime = now
		return true
	case BreakerOpen:
		return false
	default:
		s.Status = BreakerClosed
		s.FailureCount++
		if s.FailureCount >= p.threshold() {
			s.Status = BreakerOpen
			s.LastStateChangedTime = now
		}
		return true
	}
}
