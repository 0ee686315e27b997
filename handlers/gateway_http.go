package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"fabric/domain"
	"fabric/helpers"
	"fabric/interfaces"
	"fabric/service"

	"github.com/go-kit/log"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// GatewayStatus is the GET /status message of the gateway.
	GatewayStatus = "Gateway is up and running!"
	// SagaSucceeded is the POST /saga success message.
	SagaSucceeded = "Saga executed successfully."
)

// hopHeaders are connection-level headers that are not copied from downstream responses.
var hopHeaders = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
	"Content-Length":      {},
}

// GatewayServer serves the gateway: the proxy routes, the saga endpoint, status and metrics.
type GatewayServer struct {
	router interfaces.RequestRouter
	saga   interfaces.SagaExecutor
	logger log.Logger
}

// NewGatewayServer creates a new GatewayServer.
func NewGatewayServer(router interfaces.RequestRouter, saga interfaces.SagaExecutor, logger log.Logger) *GatewayServer {
	return &GatewayServer{
		router: helpers.NilPanic(router, "handlers.gateway_http.go: router is required"),
		saga:   helpers.NilPanic(saga, "handlers.gateway_http.go: saga is required"),
		logger: log.With(logger, "component", "GatewayServer"),
	}
}

// GatewayOptions configures RegisterGatewayHandlers.
type GatewayOptions struct {
	// Gatherer backs GET /metrics; nil leaves the route out.
	Gatherer prometheus.Gatherer
	// Limits wrap the proxy and saga routes.
	Limits []echo.MiddlewareFunc
}

// RegisterGatewayHandlers adds the gateway routes to e. status, saga and metrics are reserved
// and can't be used as service names.
func RegisterGatewayHandlers(e *echo.Echo, h *GatewayServer, opts GatewayOptions) {
	e.Validator = NewRequestValidator()

	e.GET("/status", h.GetStatus)
	if opts.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}
	e.POST("/saga", h.ExecuteSaga, opts.Limits...)
	e.Any("/:service", h.Proxy, opts.Limits...)
	e.Any("/:service/*", h.Proxy, opts.Limits...)
}

// GetStatus (GET /status) is the liveness probe.
func (h *GatewayServer) GetStatus(ectx echo.Context) error {
	return ectx.JSON(http.StatusOK, StatusResponse{Status: GatewayStatus})
}

// ExecuteSaga (POST /saga) validates the order and runs the saga. 400 on invalid payload, 500 on saga failure.
func (h *GatewayServer) ExecuteSaga(ectx echo.Context) error {
	body, err := io.ReadAll(ectx.Request().Body)
	if err != nil {
		return service.NewBadParameterError("can't read request body", err)
	}
	var req domain.OrderSagaRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return service.NewBadParameterError("invalid request body", err)
	}
	if err := ectx.Validate(&req); err != nil {
		return err
	}
	req.Raw = body

	if err := h.saga.Execute(ectx.Request().Context(), req); err != nil {
		return err
	}
	return ectx.JSON(http.StatusOK, MessageResponse{Message: SagaSucceeded})
}

// Proxy (ANY /{service} and /{service}/*) forwards the request and relays the downstream response as is.
func (h *GatewayServer) Proxy(ectx echo.Context) error {
	req := ectx.Request()
	path := ""
	if isWildcardRoute(ectx) {
		path = "/" + ectx.Param("*")
	}

	resp, err := h.router.Route(req.Context(), domain.ProxyRequest{
		Method:      req.Method,
		ServiceName: ectx.Param("service"),
		Path:        path,
		RawQuery:    req.URL.RawQuery,
		Header:      req.Header,
		Body:        req.Body,
	})
	if err != nil {
		return err
	}

	header := ectx.Response().Header()
	for k, vv := range resp.Header {
		if _, hop := hopHeaders[http.CanonicalHeaderKey(k)]; hop {
			continue
		}
		header[k] = append([]string(nil), vv...)
	}
	ectx.Response().WriteHeader(resp.StatusCode)
	if req.Method == http.MethodHead || len(resp.Body) == 0 {
		return nil
	}
	_, err = ectx.Response().Write(resp.Body)
	return err
}

func isWildcardRoute(ectx echo.Context) bool {
	p := ectx.Path()
	return len(p) > 0 && p[len(p)-1] == '*'
}
