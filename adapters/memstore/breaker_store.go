package memstore

import (
	"context"
	"sync"

	"fabric/domain"
)

type breakerStore struct {
	mu     sync.Mutex
	states map[string]domain.BreakerState
}

// NewBreakerStore creates an in-memory interfaces.BreakerStore.
// All addresses share one mutex; mutate functions never block.
func NewBreakerStore() *breakerStore {
	return &breakerStore{states: make(map[string]domain.BreakerState)}
}

func (s *breakerStore) Load(_ context.Context, address string) (domain.BreakerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(address), nil
}

func (s *breakerStore) Update(ctx context.Context, address string, mutate func(state *domain.BreakerState) bool) (domain.BreakerState, error) {
	if err := ctx.Err(); err != nil {
		return domain.BreakerState{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.get(address)
	if mutate(&state) {
		s.states[address] = state
	}
	return state, nil
}

func (s *breakerStore) get(address string) domain.BreakerState {
	if state, ok := s.states[address]; ok {
		return state
	}
	return domain.NewBreakerState(address)
}
