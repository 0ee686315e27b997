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

	"fabric/adapters/memstore"
	"fabric/adapters/myredis"
	"fabric/api"
	"fabric/handlers"
	"fabric/interfaces"
	"fabric/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

func main() {
	// Initialize logger
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.WithPrefix(logger, "ts", log.DefaultTimestampUTC)
	logger = log.WithPrefix(logger, "caller", log.DefaultCaller)

	level.Info(logger).Log("msg", "Starting service registry")

	config, err := LoadConfig()
	if err != nil {
		level.Error(logger).Log("msg", "Failed to load configuration", "err", err)
		os.Exit(1)
	}
	level.Info(logger).Log(
		"msg", "Configuration loaded",
		"service_port_http", config.HTTPPort,
		"service_port_grpc", config.GRPCPort,
		"store", config.Store,
		"redis_addr", config.RedisAddr,
		"ttl", config.TTL,
	)

	var registry interfaces.Registry
	switch config.Store {
	case storeMemory:
		registry = memstore.NewRegistry(config.TTL, service.NewTimeProvider(time.Now))
	default:
		redisClient, err := myredis.NewRedisUniversalClient(config.RedisAddr, myredis.WithTimeouts(3*time.Second))
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

		registry = myredis.NewRegistry(redisClient, myredis.DefaultRegistryPrefix, config.TTL)
	}

	var e *echo.Echo
	{
		validator, err := handlers.OpenAPIValidator(api.RegistrySpec)
		if err != nil {
			level.Error(logger).Log("msg", "Failed to load OpenAPI spec", "err", err)
			os.Exit(1)
		}
		e = echo.New()
		e.HideBanner = true
		e.Use(validator)
		service.RegisterErrorHandler(e, logger)
		handlers.RegisterHandlers(e, handlers.NewRegistryServer(registry, logger))
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
		grpcServer, healthServer = handlers.NewHealthGRPCServer("registry")
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
