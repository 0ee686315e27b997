package handlers

import (
	"fmt"
	"net/http"

	"fabric/helpers"
	"fabric/interfaces"
	"fabric/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
)

// RegistryStatus is the GET /status message of the registry.
const RegistryStatus = "Service Registry is up and running!"

// RegistryServer implements ServerInterface over an interfaces.Registry.
type RegistryServer struct {
	registry interfaces.Registry
	logger   log.Logger
}

// NewRegistryServer creates a new RegistryServer.
func NewRegistryServer(registry interfaces.Registry, logger log.Logger) *RegistryServer {
	return &RegistryServer{
		registry: helpers.NilPanic(registry, "handlers.registry_http.go: registry is required"),
		logger:   log.With(logger, "component", "RegistryServer"),
	}
}

// Register (POST /register) stores a new instance and returns its id. 400 on missing fields, 500 on store error.
func (h *RegistryServer) Register(ectx echo.Context) error {
	var req RegistrationRequest
	if err := ectx.Bind(&req); err != nil {
		return service.NewBadParameterError("invalid request body", err)
	}
	serviceName, address, err := fromRegistrationRequest(req)
	if err != nil {
		return err
	}

	instanceID, err := h.registry.Register(ectx.Request().Context(), serviceName, address)
	if err != nil {
		return fmt.Errorf("register failed to store instance, err: %w", err)
	}
	level.Info(h.logger).Log("msg", "instance registered", "service", serviceName, "address", address, "instance_id", instanceID)

	return ectx.JSON(http.StatusOK, RegisterResponse{
		InstanceId: instanceID,
		Message:    "Service registered successfully",
	})
}

// Deregister (DELETE /deregister) removes the first instance of the service at the address.
// A request that matches nothing still answers 200.
func (h *RegistryServer) Deregister(ectx echo.Context) error {
	var req RegistrationRequest
	if err := ectx.Bind(&req); err != nil {
		return service.NewBadParameterError("invalid request body", err)
	}
	serviceName, address, err := fromRegistrationRequest(req)
	if err != nil {
		return err
	}

	removed, err := h.registry.Deregister(ectx.Request().Context(), serviceName, address)
	if err != nil {
		return fmt.Errorf("deregister failed to remove instance, err: %w", err)
	}
	if !removed {
		level.Info(h.logger).Log("msg", "deregister matched no instance", "service", serviceName, "address", address)
	}

	return ectx.JSON(http.StatusOK, DeregisterResponse{
		Message: "Service deregistered successfully",
		Removed: removed,
	})
}

// GetService (GET /service/{serviceName}) lists the instances of a service; 404 when there are none.
func (h *RegistryServer) GetService(ectx echo.Context, serviceName string) error {
	instances, err := h.registry.Resolve(ectx.Request().Context(), serviceName)
	if err != nil {
		return fmt.Errorf("getService failed to resolve %s, err: %w", serviceName, err)
	}

	return ectx.JSON(http.StatusOK, toInstancesResponse(instances))
}

// GetStatus (GET /status) is the liveness probe.
func (h *RegistryServer) GetStatus(ectx echo.Context) error {
	return ectx.JSON(http.StatusOK, StatusResponse{Status: RegistryStatus})
}
