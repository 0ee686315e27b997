package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fabric/adapters"
	"fabric/adapters/memstore"
	"fabric/adapters/myredis"
	"fabric/domain"
	"fabric/handlers"
	"fabric/interfaces"
	"fabric/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

func main() {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.WithPrefix(logger, "ts", log.DefaultTimestampUTC)
	logger = log.WithPrefix(logger, "caller", log.DefaultCaller)

	level.Info(logger).Log("msg", "Starting gateway")

	config, err := LoadConfig()
	if err != nil {
		level.Error(logger).Log("msg", "Failed to load configuration", "err", err)
		os.Exit(1)
	}
	level.Info(logger).Log(
		"msg", "Configuration loaded",
		"service_port_http", config.HTTPPort,
		"service_port_grpc", config.GRPCPort,
		"redis_addr", config.RedisAddr,
		"registry_url", config.RegistryURL,
		"breaker_store", config.BreakerStore,
		"failure_threshold", config.FailureThreshold,
		"open_state_duration", config.OpenStateDuration,
		"retry_count", config.RetryCount,
		"retry_timeout", config.RetryTimeout,
	)

	var redisClient redis.UniversalClient
	if config.RedisAddr != "" {
		redisClient, err = myredis.NewRedisUniversalClient(config.RedisAddr, myredis.WithTimeouts(3*time.Second))
		if err != nil {
			level.Error(logger).Log("msg", "Failed to create Redis client", "err", err)
			os.Exit(1)
		}
		defer redisClient.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			level.Error(logger).Log("msg", "Failed to connect to Redis", "err", err)
			os.Exit(1)
		}
		level.Info(logger).Log("msg", "Connected to Redis")
	}

	var registry interfaces.InstanceResolver
	if config.RegistryURL != "" {
		registry = adapters.RegistryHTTP(config.RegistryURL, &http.Client{Timeout: config.RetryTimeout})
	} else {
		registry = myredis.NewRegistry(redisClient, myredis.DefaultRegistryPrefix, 0)
	}

	var breakerStore interfaces.BreakerStore
	if config.BreakerStore == storeMemory {
		breakerStore = memstore.NewBreakerStore()
	} else {
		breakerStore = myredis.NewBreakerStore(
			redisClient,
			myredis.DefaultBreakerPrefix,
			myredis.DefaultBreakerLockPrefix,
			myredis.DefaultLockOptions(),
		)
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := service.NewMetrics(promRegistry)

	// Downstream redirects are relayed to the client instead of being followed.
	downstream := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}

	var gateway *handlers.GatewayServer
	{
		breaker := service.NewCircuitBreaker(
			breakerStore,
			domain.BreakerPolicy{
				FailureThreshold:  config.FailureThreshold,
				OpenStateDuration: config.OpenStateDuration,
			},
			service.NewTimeProvider(time.Now),
			config.BreakerCacheTTL,
			metrics,
			logger,
		)
		router := service.NewRouter(registry, breaker, downstream, service.RouterConfig{
			MaxRetriesPerInstance: config.RetryCount,
			AttemptTimeout:        config.RetryTimeout,
			RetryBackoff:          config.RetryBackoff,
		}, metrics, logger)
		saga := service.NewSagaOrchestrator(registry, downstream, service.SagaConfig{
			OrderService: config.SagaOrderService,
			UserService:  config.SagaUserService,
			StepTimeout:  config.RetryTimeout,
		}, metrics, logger)
		gateway = handlers.NewGatewayServer(router, saga, logger)
	}

	var e *echo.Echo
	{
		e = echo.New()
		e.HideBanner = true
		service.RegisterErrorHandler(e, logger)
		handlers.RegisterGatewayHandlers(e, gateway, handlers.GatewayOptions{
			Gatherer: promRegistry,
			Limits: []echo.MiddlewareFunc{
				handlers.RateLimit(config.RateLimitRPS, config.RateLimitBurst),
				handlers.ConcurrencyLimit(int64(config.MaxConcurrentRequests)),
			},
		})
	}

	var (
		grpcServer   *grpc.Server
		healthServer *health.Server
	)
	if config.GRPCPort != 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", config.GRPCPort))
		if err != nil {
			level.Error(logger).Log("msg", "Failed to listen", "err", err)
			os.Exit(1)
		}
		grpcServer, healthServer = handlers.NewHealthGRPCServer("gateway")
		go func() {
			level.Info(logger).Log("msg", "Starting gRPC health server", "addr", lis.Addr())
			if err := grpcServer.Serve(lis); err != nil {
				level.Error(logger).Log("msg", "gRPC server error", "err", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf(":%d", config.HTTPPort)
		level.Info(logger).Log("msg", "Starting HTTP server", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			level.Error(logger).Log("msg", "HTTP server error", "err", err)
		}
	}()

	<-quit
	level.Info(logger).Log("msg", "Shutting down server...")

	if grpcServer != nil {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		level.Error(logger).Log("msg", "Error during server shutdown", "err", err)
	}

	level.Info(logger).Log("msg", "Server stopped")
}
