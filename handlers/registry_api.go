// Package handlers contains the HTTP surfaces of the registry and the gateway, plus the gRPC health server.
package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RegistrationRequest is the body of POST /register and DELETE /deregister.
type RegistrationRequest struct {
	ServiceName string `json:"serviceName"`
	Address     string `json:"address"`
}

// RegisterResponse is the body of a successful POST /register.
type RegisterResponse struct {
	InstanceId string `json:"instanceId"`
	Message    string `json:"message"`
}

// DeregisterResponse is the body of DELETE /deregister.
type DeregisterResponse struct {
	Message string `json:"message"`
	Removed bool   `json:"removed"`
}

// InstanceResponse is one element of GET /service/{serviceName}.
type InstanceResponse struct {
	InstanceId string `json:"instanceId"`
	Address    string `json:"address"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Status string `json:"status"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ServerInterface represents all server handlers of the registry API.
type ServerInterface interface {
	// (POST /register)
	Register(ctx echo.Context) error
	// (DELETE /deregister)
	Deregister(ctx echo.Context) error
	// (GET /service/{serviceName})
	GetService(ctx echo.Context, serviceName string) error
	// (GET /status)
	GetStatus(ctx echo.Context) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func (w *ServerInterfaceWrapper) Register(ctx echo.Context) error {
	return w.Handler.Register(ctx)
}

func (w *ServerInterfaceWrapper) Deregister(ctx echo.Context) error {
	return w.Handler.Deregister(ctx)
}

func (w *ServerInterfaceWrapper) GetService(ctx echo.Context) error {
	serviceName := ctx.Param("serviceName")
	if serviceName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid format for parameter serviceName")
	}
	return w.Handler.GetService(ctx, serviceName)
}

func (w *ServerInterfaceWrapper) GetStatus(ctx echo.Context) error {
	return w.Handler.GetStatus(ctx)
}

// EchoRouter is implemented by both echo.Echo and echo.Group.
type EchoRouter interface {
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each registry route to the router.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	wrapper := ServerInterfaceWrapper{Handler: si}

	router.POST("/register", wrapper.Register)
	router.DELETE("/deregister", wrapper.Deregister)
	router.GET("/service/:serviceName", wrapper.GetService)
	router.GET("/status", wrapper.GetStatus)
}
