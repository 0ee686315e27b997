package myredis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"fabric/domain"
	"fabric/helpers"
	"fabric/service"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// DefaultRegistryPrefix is the key prefix of the per-service hashes.
const DefaultRegistryPrefix = "service-registry"

// registry stores every service as one hash: field instanceId, value address.
type registry struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	newID  func(address string) string
}

// NewRegistry creates the redis implementation of interfaces.Registry.
// A positive ttl is re-applied to the service hash on every Register; zero keeps entries forever.
func NewRegistry(client redis.UniversalClient, prefix string, ttl time.Duration) *registry {
	return &registry{
		client: helpers.NilPanic(client, "myredis.registry.go: client is required"),
		prefix: helpers.StrPanic(prefix, "myredis.registry.go: prefix is required"),
		ttl:    ttl,
		newID:  newInstanceID,
	}
}

func newInstanceID(address string) string {
	return address + "-" + uuid.NewString()
}

func (r *registry) Register(ctx context.Context, serviceName, address string) (string, error) {
	instanceID := r.newID(address)
	key := r.generateKey(serviceName)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, instanceID, address)
		if r.ttl > 0 {
			pipe.PExpire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return "", service.NewInternalServerError("Redis register error", fmt.Errorf("can't register %s at %s (key='%s'), err: %w", serviceName, address, key, err))
	}

	return instanceID, nil
}

// maxDeregisterAttempts bounds the optimistic transaction retries of Deregister.
const maxDeregisterAttempts = 16

// Deregister removes the entry with the smallest instance id registered at address. The read and the delete
// run in a WATCH transaction, so concurrent calls for a duplicated address each remove a different entry.
func (r *registry) Deregister(ctx context.Context, serviceName, address string) (bool, error) {
	key := r.generateKey(serviceName)
	for attempt := 0; attempt < maxDeregisterAttempts; attempt++ {
		removed := false
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			entries, err := tx.HGetAll(ctx, key).Result()
			if err != nil {
				return err
			}
			instanceID, ok := firstMatching(entries, address)
			if !ok {
				return nil
			}
			if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HDel(ctx, key, instanceID)
				return nil
			}); err != nil {
				return err
			}
			removed = true
			return nil
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return false, service.NewInternalServerError("Redis delete error", fmt.Errorf("can't deregister %s at %s (key='%s'), err: %w", serviceName, address, key, err))
		}
		return removed, nil
	}

	return false, service.NewInternalServerError("Redis delete error", fmt.Errorf("can't deregister %s at %s (key='%s'): too many concurrent changes", serviceName, address, key))
}

func (r *registry) Resolve(ctx context.Context, serviceName string) ([]domain.ServiceInstance, error) {
	key := r.generateKey(serviceName)
	entries, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, service.NewInternalServerError("Redis read error", fmt.Errorf("can't read instances (key='%s'), err: %w", key, err))
	}
	if len(entries) == 0 {
		return nil, service.NewEntityNotFoundError("Service not found", nil)
	}

	return toInstances(serviceName, entries), nil
}

func (r *registry) generateKey(serviceName string) string {
	return r.prefix + ":" + serviceName
}

// firstMatching returns the smallest instance id whose address equals address.
func firstMatching(entries map[string]string, address string) (string, bool) {
	ids := sortedIDs(entries)
	for _, id := range ids {
		if entries[id] == address {
			return id, true
		}
	}
	return "", false
}

func toInstances(serviceName string, entries map[string]string) []domain.ServiceInstance {
	ids := sortedIDs(entries)
	instances := make([]domain.ServiceInstance, 0, len(ids))
	for _, id := range ids {
		instances = append(instances, domain.ServiceInstance{
			ServiceName: serviceName,
			InstanceID:  id,
			Address:     entries[id],
		})
	}
	return instances
}

func sortedIDs(entries map[string]string) []string {
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
