package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fabric/helpers"

	"gopkg.in/yaml.v3"
)

// Env variable names.
const (
	envHTTPPort          = "SERVICE_PORT_HTTP"
	envGRPCPort          = "SERVICE_PORT_GRPC"
	envConfigPath        = "CONFIG_PATH"
	envRedisAddr         = "REDIS_ADDR"
	envRegistryURL       = "REGISTRY_URL"
	envBreakerStore      = "BREAKER_STORE"
	envFailureThreshold  = "BREAKER_FAILURE_THRESHOLD"
	envOpenDurationMs    = "BREAKER_OPEN_DURATION_MS"
	envBreakerCacheTTLMs = "BREAKER_CACHE_TTL_MS"
	envRetryCount        = "RETRY_COUNT"
	envRetryTimeoutMs    = "RETRY_TIMEOUT_MS"
	envRetryBackoffMs    = "RETRY_BACKOFF_MS"
	envMaxConcurrent     = "MAX_CONCURRENT_REQUESTS"
	envRateLimitRPS      = "RATE_LIMIT_RPS"
	envRateLimitBurst    = "RATE_LIMIT_BURST"
	envSagaOrderService  = "SAGA_ORDER_SERVICE"
	envSagaUserService   = "SAGA_USER_SERVICE"
)

// Breaker store backends.
const (
	storeRedis  = "redis"
	storeMemory = "memory"
)

// Config holds the gateway configuration. Values come from the YAML file at CONFIG_PATH when set,
// then environment variables override them.
type Config struct {
	HTTPPort int
	// GRPCPort is 0 when the gRPC health endpoint is disabled.
	GRPCPort int
	// RedisAddr is empty only with the memory breaker store and an HTTP registry.
	RedisAddr string
	// RegistryURL switches registry lookups from Redis to the registry's HTTP API.
	RegistryURL string

	BreakerStore      string
	FailureThreshold  int
	OpenStateDuration time.Duration
	BreakerCacheTTL   time.Duration

	RetryCount   int
	RetryTimeout time.Duration
	RetryBackoff time.Duration

	// MaxConcurrentRequests of 0 disables the concurrency limit.
	MaxConcurrentRequests int
	// RateLimitRPS of 0 disables rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int

	SagaOrderService string
	SagaUserService  string
}

// yamlConfig is the root of the optional config file.
type yamlConfig struct {
	HTTPPort    int         `yaml:"http_port"`
	GRPCPort    int         `yaml:"grpc_port"`
	RedisAddr   string      `yaml:"redis_addr"`
	RegistryURL string      `yaml:"registry_url"`
	Breaker     yamlBreaker `yaml:"breaker"`
	Retry       yamlRetry   `yaml:"retry"`
	Limits      yamlLimits  `yaml:"limits"`
	Saga        yamlSaga    `yaml:"saga"`
}

type yamlBreaker struct {
	Store            string `yaml:"store"`
	FailureThreshold int    `yaml:"failure_threshold"`
	OpenDurationMs   int    `yaml:"open_duration_ms"`
	CacheTTLMs       int    `yaml:"cache_ttl_ms"`
}

type yamlRetry struct {
	Count     int `yaml:"count"`
	TimeoutMs int `yaml:"timeout_ms"`
	BackoffMs int `yaml:"backoff_ms"`
}

type yamlLimits struct {
	MaxConcurrentRequests int     `yaml:"max_concurrent_requests"`
	RateLimitRPS          float64 `yaml:"rate_limit_rps"`
	RateLimitBurst        int     `yaml:"rate_limit_burst"`
}

type yamlSaga struct {
	OrderService string `yaml:"order_service"`
	UserService  string `yaml:"user_service"`
}

func defaultConfig() Config {
	return Config{
		BreakerStore:      storeRedis,
		FailureThreshold:  3,
		OpenStateDuration: 10 * time.Second,
		RetryCount:        1,
		RetryTimeout:      5 * time.Second,
		RateLimitBurst:    1,
		SagaOrderService:  "ticketorder",
		SagaUserService:   "user",
	}
}

func loadYAMLConfig(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out yamlConfig
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// apply copies the non-zero file values over cfg.
func (y *yamlConfig) apply(cfg *Config) {
	if y.HTTPPort != 0 {
		cfg.HTTPPort = y.HTTPPort
	}
	if y.GRPCPort != 0 {
		cfg.GRPCPort = y.GRPCPort
	}
	if v := strings.TrimSpace(y.RedisAddr); v != "" {
		cfg.RedisAddr = v
	}
	if v := strings.TrimSpace(y.RegistryURL); v != "" {
		cfg.RegistryURL = v
	}
	if v := strings.TrimSpace(y.Breaker.Store); v != "" {
		cfg.BreakerStore = v
	}
	if y.Breaker.FailureThreshold != 0 {
		cfg.FailureThreshold = y.Breaker.FailureThreshold
	}
	if y.Breaker.OpenDurationMs != 0 {
		cfg.OpenStateDuration = time.Duration(y.Breaker.OpenDurationMs) * time.Millisecond
	}
	if y.Breaker.CacheTTLMs != 0 {
		cfg.BreakerCacheTTL = time.Duration(y.Breaker.CacheTTLMs) * time.Millisecond
	}
	if y.Retry.Count != 0 {
		cfg.RetryCount = y.Retry.Count
	}
	if y.Retry.TimeoutMs != 0 {
		cfg.RetryTimeout = time.Duration(y.Retry.TimeoutMs) * time.Millisecond
	}
	if y.Retry.BackoffMs != 0 {
		cfg.RetryBackoff = time.Duration(y.Retry.BackoffMs) * time.Millisecond
	}
	if y.Limits.MaxConcurrentRequests != 0 {
		cfg.MaxConcurrentRequests = y.Limits.MaxConcurrentRequests
	}
	if y.Limits.RateLimitRPS != 0 {
		cfg.RateLimitRPS = y.Limits.RateLimitRPS
	}
	if y.Limits.RateLimitBurst != 0 {
		cfg.RateLimitBurst = y.Limits.RateLimitBurst
	}
	if v := strings.TrimSpace(y.Saga.OrderService); v != "" {
		cfg.SagaOrderService = v
	}
	if v := strings.TrimSpace(y.Saga.UserService); v != "" {
		cfg.SagaUserService = v
	}
}

// envPort overrides port with env var name when it is set.
func envPort(name string, port int) (int, error) {
	if strings.TrimSpace(os.Getenv(name)) == "" {
		return port, nil
	}
	return helpers.EnvPort(name, true)
}

func envString(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

// LoadConfig builds the gateway config from defaults, the YAML file at CONFIG_PATH (optional) and
// environment variables, in that order of precedence from lowest to highest.
// SERVICE_PORT_HTTP is required (env or http_port); REDIS_ADDR is required unless BREAKER_STORE=memory
// and REGISTRY_URL is set.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	if configPath := strings.TrimSpace(os.Getenv(envConfigPath)); configPath != "" {
		if !filepath.IsAbs(configPath) {
			abs, absErr := filepath.Abs(configPath)
			if absErr != nil {
				return nil, absErr
			}
			configPath = abs
		}
		raw, err := loadYAMLConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", configPath, err)
		}
		raw.apply(&cfg)
	}

	var err error
	if cfg.HTTPPort, err = envPort(envHTTPPort, cfg.HTTPPort); err != nil {
		return nil, err
	}
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("%s is required (1-65535)", envHTTPPort)
	}
	if cfg.GRPCPort, err = envPort(envGRPCPort, cfg.GRPCPort); err != nil {
		return nil, err
	}
	if cfg.GRPCPort < 0 || cfg.GRPCPort > 65535 {
		return nil, fmt.Errorf("%s must be 1-65535, got %d", envGRPCPort, cfg.GRPCPort)
	}

	cfg.RedisAddr = envString(envRedisAddr, cfg.RedisAddr)
	cfg.RegistryURL = envString(envRegistryURL, cfg.RegistryURL)
	cfg.SagaOrderService = envString(envSagaOrderService, cfg.SagaOrderService)
	cfg.SagaUserService = envString(envSagaUserService, cfg.SagaUserService)

	if cfg.BreakerStore, err = helpers.EnvOneOf(envBreakerStore, cfg.BreakerStore, storeRedis, storeMemory); err != nil {
		return nil, err
	}
	if cfg.BreakerStore != storeRedis && cfg.BreakerStore != storeMemory {
		return nil, fmt.Errorf("breaker store must be %s|%s, got %q", storeRedis, storeMemory, cfg.BreakerStore)
	}
	if cfg.RedisAddr == "" && (cfg.BreakerStore == storeRedis || cfg.RegistryURL == "") {
		return nil, fmt.Errorf("%s is required unless %s=memory and %s is set", envRedisAddr, envBreakerStore, envRegistryURL)
	}

	if cfg.FailureThreshold, err = helpers.EnvInt(envFailureThreshold, cfg.FailureThreshold); err != nil {
		return nil, err
	}
	if cfg.FailureThreshold < 1 {
		return nil, fmt.Errorf("%s must be a positive integer, got %d", envFailureThreshold, cfg.FailureThreshold)
	}
	if cfg.OpenStateDuration, err = helpers.EnvMillis(envOpenDurationMs, cfg.OpenStateDuration); err != nil {
		return nil, err
	}
	if cfg.BreakerCacheTTL, err = helpers.EnvMillis(envBreakerCacheTTLMs, cfg.BreakerCacheTTL); err != nil {
		return nil, err
	}

	if cfg.RetryCount, err = helpers.EnvInt(envRetryCount, cfg.RetryCount); err != nil {
		return nil, err
	}
	if cfg.RetryCount < 1 {
		return nil, fmt.Errorf("%s must be a positive integer, got %d", envRetryCount, cfg.RetryCount)
	}
	if cfg.RetryTimeout, err = helpers.EnvMillis(envRetryTimeoutMs, cfg.RetryTimeout); err != nil {
		return nil, err
	}
	if cfg.RetryTimeout <= 0 {
		return nil, fmt.Errorf("%s must be a positive integer (ms)", envRetryTimeoutMs)
	}
	if cfg.RetryBackoff, err = helpers.EnvMillis(envRetryBackoffMs, cfg.RetryBackoff); err != nil {
		return nil, err
	}

	if cfg.MaxConcurrentRequests, err = helpers.EnvInt(envMaxConcurrent, cfg.MaxConcurrentRequests); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = helpers.EnvFloat(envRateLimitRPS, cfg.RateLimitRPS); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = helpers.EnvInt(envRateLimitBurst, cfg.RateLimitBurst); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrentRequests < 0 || cfg.RateLimitRPS < 0 || cfg.RateLimitBurst < 0 {
		return nil, fmt.Errorf("limits must not be negative")
	}
	return &cfg, nil
}
