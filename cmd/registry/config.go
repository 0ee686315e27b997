package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"fabric/helpers"
)

// Env variable names.
const (
	envHTTPPort  = "SERVICE_PORT_HTTP"
	envGRPCPort  = "SERVICE_PORT_GRPC"
	envRedisAddr = "REDIS_ADDR"
	envStore     = "REGISTRY_STORE"
	envTTLMs     = "REGISTRY_TTL_MS"
)

// Registry backends.
const (
	storeRedis  = "redis"
	storeMemory = "memory"
)

type RegistryConfig struct {
	HTTPPort int
	// GRPCPort is 0 when the gRPC health endpoint is disabled.
	GRPCPort  int
	Store     string
	RedisAddr string
	// TTL is 0 when registrations never expire.
	TTL time.Duration
}

// LoadConfig loads configuration from environment variables.
// SERVICE_PORT_HTTP is required; REDIS_ADDR is required unless REGISTRY_STORE=memory.
func LoadConfig() (*RegistryConfig, error) {
	httpPort, err := helpers.EnvPort(envHTTPPort, true)
	if err != nil {
		return nil, err
	}
	grpcPort, err := helpers.EnvPort(envGRPCPort, false)
	if err != nil {
		return nil, err
	}
	store, err := helpers.EnvOneOf(envStore, storeRedis, storeRedis, storeMemory)
	if err != nil {
		return nil, err
	}
	redisAddr := strings.TrimSpace(os.Getenv(envRedisAddr))
	if store == storeRedis && redisAddr == "" {
		return nil, fmt.Errorf("%s is required", envRedisAddr)
	}
	ttl, err := helpers.EnvMillis(envTTLMs, 0)
	if err != nil {
		return nil, err
	}
	return &RegistryConfig{
		HTTPPort:  httpPort,
		GRPCPort:  grpcPort,
		Store:     store,
		RedisAddr: redisAddr,
		TTL:       ttl,
	}, nil
}
