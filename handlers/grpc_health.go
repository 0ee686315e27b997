package handlers

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// NewHealthGRPCServer creates a gRPC server exposing only the standard health service.
// Both the overall status ("") and serviceName report SERVING until the returned health server is shut down.
func NewHealthGRPCServer(serviceName string) (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	if serviceName != "" {
		healthServer.SetServingStatus(serviceName, grpc_health_v1.HealthCheckResponse_SERVING)
	}
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	return grpcServer, healthServer
}
