// Package memstore keeps registry and breaker state in process memory, for single-node runs and tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"fabric/domain"
	"fabric/helpers"
	"fabric/interfaces"
	"fabric/service"

	"github.com/google/uuid"
)

type serviceEntries struct {
	addresses map[string]string // instanceId -> address
	expiresAt time.Time
}

type registry struct {
	mu       sync.RWMutex
	services map[string]*serviceEntries
	ttl      time.Duration
	clock    interfaces.TimeProvider
	newID    func(address string) string
}

// NewRegistry creates an in-memory interfaces.Registry. ttl behaves like the redis key expiry.
func NewRegistry(ttl time.Duration, clock interfaces.TimeProvider) *registry {
	return &registry{
		services: make(map[string]*serviceEntries),
		ttl:      ttl,
		clock:    helpers.NilPanic(clock, "memstore.registry.go: clock is required"),
		newID: func(address string) string {
			return address + "-" + uuid.NewString()
		},
	}
}

func (r *registry) Register(_ context.Context, serviceName, address string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.live(serviceName)
	if entries == nil {
		entries = &serviceEntries{addresses: make(map[string]string)}
		r.services[serviceName] = entries
	}
	instanceID := r.newID(address)
	entries.addresses[instanceID] = address
	if r.ttl > 0 {
		entries.expiresAt = r.clock.Now().Add(r.ttl)
	}

	return instanceID, nil
}

func (r *registry) Deregister(_ context.Context, serviceName, address string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.live(serviceName)
	if entries == nil {
		return false, nil
	}
	for _, id := range sortedIDs(entries.addresses) {
		if entries.addresses[id] == address {
			delete(entries.addresses, id)
			if len(entries.addresses) == 0 {
				delete(r.services, serviceName)
			}
			return true, nil
		}
	}

	return false, nil
}

func (r *registry) Resolve(_ context.Context, serviceName string) ([]domain.ServiceInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.live(serviceName)
	if entries == nil || len(entries.addresses) == 0 {
		return nil, service.NewEntityNotFoundError("Service not found", nil)
	}

	ids := sortedIDs(entries.addresses)
	instances := make([]domain.ServiceInstance, 0, len(ids))
	for _, id := range ids {
		instances = append(instances, domain.ServiceInstance{ServiceName: serviceName, InstanceID: id, Address: entries.addresses[id]})
	}
	return instances, nil
}

// live returns the entries of serviceName, dropping them first when expired. Callers hold mu.
func (r *registry) live(serviceName string) *serviceEntries {
	entries, ok := r.services[serviceName]
	if !ok {
		return nil
	}
	if !entries.expiresAt.IsZero() && !r.clock.Now().Before(entries.expiresAt) {
		delete(r.services, serviceName)
		return nil
	}
	return entries
}

func sortedIDs(addresses map[string]string) []string {
	ids := make([]string, 0, len(addresses))
	for id := range addresses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
