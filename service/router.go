package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"fabric/domain"
	"fabric/helpers"
	"fabric/interfaces"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// RouterConfig holds the retry parameters of the Router.
type RouterConfig struct {
	// MaxRetriesPerInstance is the number of attempts per candidate instance; below 1 means 1.
	MaxRetriesPerInstance int
	// AttemptTimeout bounds one outbound attempt including reading the response body.
	AttemptTimeout time.Duration
	// RetryBackoff is the initial exponential backoff between attempts on the same instance; zero retries at once.
	RetryBackoff time.Duration
}

// Router forwards a request to one healthy instance of the target service.
// Instances come from the registry, open breakers are skipped, the rest are tried in random order
// with per-instance retries. Every attempt outcome is recorded on the breaker of that address.
type Router struct {
	registry interfaces.InstanceResolver
	breaker  interfaces.CircuitBreaker
	client   *http.Client
	cfg      RouterConfig
	shuffle  func([]domain.ServiceInstance)
	metrics  *Metrics
	logger   log.Logger
}

// NewRouter creates the Router. Panics on nil registry, breaker, client or logger.
func NewRouter(
	registry interfaces.InstanceResolver,
	breaker interfaces.CircuitBreaker,
	client *http.Client,
	cfg RouterConfig,
	metrics *Metrics,
	logger log.Logger,
) *Router {
	return &Router{
		registry: helpers.NilPanic(registry, "service.router.go: registry is required"),
		breaker:  helpers.NilPanic(breaker, "service.router.go: breaker is required"),
		client:   helpers.NilPanic(client, "service.router.go: http client is required"),
		cfg:      cfg,
		shuffle:  shuffleInstances,
		metrics:  metrics,
		logger:   log.With(helpers.NilPanic(logger, "service.router.go: logger is required"), "component", "Router"),
	}
}

// WithShuffle replaces the candidate ordering; tests use it to make the order deterministic.
func (r *Router) WithShuffle(shuffle func([]domain.ServiceInstance)) *Router {
	r.shuffle = helpers.NilPanic(shuffle, "service.router.go: shuffle is required")
	return r
}

func shuffleInstances(instances []domain.ServiceInstance) {
	rand.Shuffle(len(instances), func(i, j int) {
		instances[i], instances[j] = instances[j], instances[i]
	})
}

// Route returns the first downstream response with a status below 500.
// Returns service_not_found when the registry knows no instance, service_unavailable when every
// candidate is open or failed all its attempts, bad_parameter when the request body can't be read.
func (r *Router) Route(ctx context.Context, req domain.ProxyRequest) (*domain.ProxyResponse, error) {
	resp, err := r.route(ctx, req)
	serviceLabel, result := req.ServiceName, "ok"
	if err != nil {
		result = ToFabricErrorCode(err)
	}
	if IsServiceNotFoundError(err) {
		serviceLabel = UnknownService
	}
	r.metrics.request(serviceLabel, result)
	return resp, err
}

func (r *Router) route(ctx context.Context, req domain.ProxyRequest) (*domain.ProxyResponse, error) {
	instances, err := r.registry.Resolve(ctx, req.ServiceName)
	if err != nil && !IsEntityNotFoundError(err) {
		level.Warn(r.logger).Log("msg", "registry lookup failed", "service", req.ServiceName, "err", err)
	}
	if err != nil || len(instances) == 0 {
		return nil, NewServiceNotFoundError(fmt.Sprintf("Service %s not found", req.ServiceName), err)
	}

	candidates := r.filter(ctx, instances)
	if len(candidates) == 0 {
		level.Warn(r.logger).Log("msg", "all instances are open", "service", req.ServiceName, "instances", len(instances))
		return nil, NewServiceUnavailableError(fmt.Sprintf("No instances available for %s", req.ServiceName), nil)
	}
	r.shuffle(candidates)

	var body []byte
	if req.Body != nil {
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, NewBadParameterError("can't read request body", err)
		}
	}

	var lastErr error
	for _, inst := range candidates {
		resp, err := r.tryInstance(ctx, inst, req, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	level.Error(r.logger).Log("msg", "all instances failed", "service", req.ServiceName, "candidates", len(candidates), "err", lastErr)
	return nil, NewServiceUnavailableError(fmt.Sprintf("No instances available for %s", req.ServiceName), lastErr)
}

// filter keeps the instances whose breaker allows a call. A breaker store failure lets the instance through.
func (r *Router) filter(ctx context.Context, instances []domain.ServiceInstance) []domain.ServiceInstance {
	candidates := make([]domain.ServiceInstance, 0, len(instances))
	for _, inst := range instances {
		allow, status, err := r.breaker.ShouldAllow(ctx, inst.Address)
		if err != nil {
			level.Warn(r.logger).Log("msg", "breaker unavailable, allowing instance", "address", inst.Address, "err", err)
			allow = true
		}
		if !allow {
			level.Debug(r.logger).Log("msg", "instance skipped", "address", inst.Address, "status", status)
			continue
		}
		candidates = append(candidates, inst)
	}
	return candidates
}

// tryInstance runs up to MaxRetriesPerInstance attempts against inst and stops early once its breaker is open.
func (r *Router) tryInstance(ctx context.Context, inst domain.ServiceInstance, req domain.ProxyRequest, body []byte) (*domain.ProxyResponse, error) {
	tries := helpers.PositiveOr(r.cfg.MaxRetriesPerInstance, 1)

	return backoff.Retry(ctx, func() (*domain.ProxyResponse, error) {
		resp, err := r.attempt(ctx, inst, req, body)
		if err == nil {
			r.metrics.attempt(req.ServiceName, OutcomeSuccess)
			if recErr := r.breaker.RecordSuccess(ctx, inst.Address); recErr != nil {
				level.Warn(r.logger).Log("msg", "can't record success", "address", inst.Address, "err", recErr)
			}
			return resp, nil
		}

		r.metrics.attempt(req.ServiceName, OutcomeFailure)
		level.Warn(r.logger).Log("msg", "attempt failed", "service", req.ServiceName, "address", inst.Address, "err", err)
		status, recErr := r.breaker.RecordFailure(ctx, inst.Address)
		if recErr != nil {
			level.Warn(r.logger).Log("msg", "can't record failure", "address", inst.Address, "err", recErr)
		}
		if status == domain.BreakerOpen {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}, backoff.WithBackOff(r.newBackOff()), backoff.WithMaxTries(uint(tries)))
}

func (r *Router) newBackOff() backoff.BackOff {
	if r.cfg.RetryBackoff <= 0 {
		return &backoff.ZeroBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.RetryBackoff
	b.MaxInterval = 10 * r.cfg.RetryBackoff
	return b
}

var errUpstream = errors.New("upstream error")

// attempt performs one outbound call. Transport errors, timeouts and 5xx responses are failures.
func (r *Router) attempt(ctx context.Context, inst domain.ServiceInstance, req domain.ProxyRequest, body []byte) (*domain.ProxyResponse, error) {
	if r.cfg.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.AttemptTimeout)
		defer cancel()
	}

	var reqBody io.Reader
	if domain.MethodCarriesBody(req.Method) && len(body) > 0 {
		reqBody = bytes.NewReader(body)
	}
	outReq, err := http.NewRequestWithContext(ctx, req.Method, TargetURL(inst.Address, req.Path, req.RawQuery), reqBody)
	if err != nil {
		return nil, err
	}
	if req.Header != nil {
		outReq.Header = req.Header.Clone()
	}

	resp, err := r.client.Do(outReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: %s returned %d", errUpstream, inst.Address, resp.StatusCode)
	}

	return &domain.ProxyResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: respBody}, nil
}

// TargetURL joins an instance address with the request remainder. Addresses without a scheme are plain http.
func TargetURL(address, path, rawQuery string) string {
	base := address
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	base = strings.TrimRight(base, "/")
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	target := base + path
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	return target
}
