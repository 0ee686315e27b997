package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fabric/adapters"
	"fabric/adapters/myredis"
	"fabric/api"
	"fabric/domain"
	"fabric/handlers"
	"fabric/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-kit/log"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	failureThreshold = 2
	openDuration     = time.Minute
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fabric is one registry plus one gateway sharing a miniredis.
type fabric struct {
	redis    *miniredis.Miniredis
	registry *httptest.Server
	gateway  *httptest.Server
	clock    *fakeClock
	client   *http.Client
}

func startFabric(t *testing.T) *fabric {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient, err := myredis.NewRedisUniversalClient("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisClient.Close() })

	logger := log.NewNopLogger()

	registryEcho := echo.New()
	validator, err := handlers.OpenAPIValidator(api.RegistrySpec)
	require.NoError(t, err)
	registryEcho.Use(validator)
	service.RegisterErrorHandler(registryEcho, logger)
	handlers.RegisterHandlers(registryEcho, handlers.NewRegistryServer(
		myredis.NewRegistry(redisClient, myredis.DefaultRegistryPrefix, 0), logger))
	registrySrv := httptest.NewServer(registryEcho)
	t.Cleanup(registrySrv.Close)

	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	resolver := adapters.RegistryHTTP(registrySrv.URL, &http.Client{Timeout: 2 * time.Second})
	promRegistry := prometheus.NewRegistry()
	metrics := service.NewMetrics(promRegistry)
	breaker := service.NewCircuitBreaker(
		myredis.NewBreakerStore(redisClient, myredis.DefaultBreakerPrefix, myredis.DefaultBreakerLockPrefix, myredis.DefaultLockOptions()),
		domain.BreakerPolicy{FailureThreshold: failureThreshold, OpenStateDuration: openDuration},
		clock,
		0,
		metrics,
		logger,
	)
	downstream := &http.Client{}
	router := service.NewRouter(resolver, breaker, downstream, service.RouterConfig{
		MaxRetriesPerInstance: 1,
		AttemptTimeout:        2 * time.Second,
	}, metrics, logger)
	saga := service.NewSagaOrchestrator(resolver, downstream, service.SagaConfig{
		OrderService: "ticketorder",
		UserService:  "user",
		StepTimeout:  2 * time.Second,
	}, metrics, logger)

	gatewayEcho := echo.New()
	service.RegisterErrorHandler(gatewayEcho, logger)
	handlers.RegisterGatewayHandlers(gatewayEcho, handlers.NewGatewayServer(router, saga, logger), handlers.GatewayOptions{
		Gatherer: promRegistry,
	})
	gatewaySrv := httptest.NewServer(gatewayEcho)
	t.Cleanup(gatewaySrv.Close)

	return &fabric{
		redis:    mr,
		registry: registrySrv,
		gateway:  gatewaySrv,
		clock:    clock,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// do sends a JSON request and returns the status and the raw body.
func (f *fabric) do(t *testing.T, method, url string, payload any) (int, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func (f *fabric) register(t *testing.T, serviceName, address string) string {
	t.Helper()
	status, body := f.do(t, http.MethodPost, f.registry.URL+"/register",
		handlers.RegistrationRequest{ServiceName: serviceName, Address: address})
	require.Equal(t, http.StatusOK, status, string(body))
	var resp handlers.RegisterResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotEmpty(t, resp.InstanceId)
	return resp.InstanceId
}

func (f *fabric) deregister(t *testing.T, serviceName, address string) handlers.DeregisterResponse {
	t.Helper()
	status, body := f.do(t, http.MethodDelete, f.registry.URL+"/deregister",
		handlers.RegistrationRequest{ServiceName: serviceName, Address: address})
	require.Equal(t, http.StatusOK, status, string(body))
	var resp handlers.DeregisterResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

// breakerState reads the persisted breaker of address; an address never written is closed.
func (f *fabric) breakerState(t *testing.T, address string) domain.BreakerState {
	t.Helper()
	key := myredis.DefaultBreakerPrefix + ":" + address
	if !f.redis.Exists(key) {
		return domain.NewBreakerState(address)
	}
	raw, err := f.redis.Get(key)
	require.NoError(t, err)
	var state domain.BreakerState
	require.NoError(t, json.Unmarshal([]byte(raw), &state))
	return state
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var resp service.ErrResponse
	require.NoError(t, json.Unmarshal(body, &resp), string(body))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

// backend is a downstream service instance whose status can be switched at runtime.
type backend struct {
	name   string
	srv    *httptest.Server
	status atomic.Int32
	calls  atomic.Int32

	mu    sync.Mutex
	paths []string
}

func newBackend(t *testing.T, name string) *backend {
	t.Helper()
	b := &backend{name: name}
	b.status.Store(http.StatusOK)
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.calls.Add(1)
		b.mu.Lock()
		b.paths = append(b.paths, r.Method+" "+r.URL.RequestURI())
		b.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Backend", b.name)
		code := int(b.status.Load())
		w.WriteHeader(code)
		switch {
		case code >= 300:
			_, _ = io.WriteString(w, `{"error":"failing"}`)
		case r.URL.Path == "/order-saga":
			_, _ = io.WriteString(w, `{"_id":"order-42"}`)
		default:
			_, _ = io.WriteString(w, `{"served_by":"`+b.name+`"}`)
		}
	}))
	t.Cleanup(b.srv.Close)
	return b
}

// address is host:port, the form services register with.
func (b *backend) address() string {
	return b.srv.Listener.Addr().String()
}

func (b *backend) setStatus(code int) {
	b.status.Store(int32(code))
}

func (b *backend) requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.paths...)
}
