package interfaces

import (
	"context"

	"fabric/domain"
)

// InstanceResolver returns the live instances of a logical service.
//
// Implemented by adapters/myredis, adapters/memstore (direct storage access) and adapters.RegistryHTTP
// (remote registry). Called from service.Router for every proxied request and from service.SagaOrchestrator
// for every saga step.
//
//go:generate moq -stub -out mock/instance_resolver.go -pkg mock . InstanceResolver
type InstanceResolver interface {
	// Resolve returns all registered instances of serviceName in no particular order.
	// Returns: (instances, nil) when at least one instance exists; (nil, entity_not_found) when none;
	// (nil, internal_server_error) when the backing store is unavailable.
	Resolve(ctx context.Context, serviceName string) ([]domain.ServiceInstance, error)
}

// Registry is the durable mapping from service name to live instances.
//
// Served over HTTP by handlers.RegistryServer.
//
//go:generate moq -stub -out mock/registry.go -pkg mock . Registry
type Registry interface {
	InstanceResolver

	// Register stores a new instance of serviceName at address and returns its freshly generated instance id.
	// Registering the same address twice yields two entries with different ids.
	Register(ctx context.Context, serviceName, address string) (string, error)

	// Deregister removes the first entry of serviceName (ordered by instance id) whose address equals address.
	// Returns: (true, nil) when an entry was removed; (false, nil) when nothing matched; (false, err) on store failure.
	Deregister(ctx context.Context, serviceName, address string) (bool, error)
}
