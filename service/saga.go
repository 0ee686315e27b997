package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"fabric/domain"
	"fabric/helpers"
	"fabric/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// SagaConfig names the services taking part in the order saga.
type SagaConfig struct {
	OrderService string
	UserService  string
	// StepTimeout bounds every forward and compensating call.
	StepTimeout time.Duration
}

// SagaOrchestrator runs the create-order saga: create the order, then increase the user's order count.
// When a step fails the completed steps are compensated in reverse order.
type SagaOrchestrator struct {
	registry interfaces.InstanceResolver
	client   *http.Client
	cfg      SagaConfig
	pick     func([]domain.ServiceInstance) domain.ServiceInstance
	metrics  *Metrics
	logger   log.Logger
}

// NewSagaOrchestrator creates the orchestrator. Panics on nil registry, client or logger and on empty service names.
func NewSagaOrchestrator(registry interfaces.InstanceResolver, client *http.Client, cfg SagaConfig, metrics *Metrics, logger log.Logger) *SagaOrchestrator {
	helpers.StrPanic(cfg.OrderService, "service.saga.go: order service is required")
	helpers.StrPanic(cfg.UserService, "service.saga.go: user service is required")
	return &SagaOrchestrator{
		registry: helpers.NilPanic(registry, "service.saga.go: registry is required"),
		client:   helpers.NilPanic(client, "service.saga.go: http client is required"),
		cfg:      cfg,
		pick:     pickRandom,
		metrics:  metrics,
		logger:   log.With(helpers.NilPanic(logger, "service.saga.go: logger is required"), "component", "SagaOrchestrator"),
	}
}

// WithPicker replaces the random instance choice.
func (s *SagaOrchestrator) WithPicker(pick func([]domain.ServiceInstance) domain.ServiceInstance) *SagaOrchestrator {
	s.pick = helpers.NilPanic(pick, "service.saga.go: pick is required")
	return s
}

func pickRandom(instances []domain.ServiceInstance) domain.ServiceInstance {
	return instances[rand.Intn(len(instances))]
}

type sagaStep struct {
	name       string
	forward    func(ctx context.Context) error
	compensate func(ctx context.Context) error
	completed  bool
}

// orderSaga carries the identifiers captured while the saga runs.
type orderSaga struct {
	request domain.OrderSagaRequest
	orderID string
}

// Execute runs the saga. It returns nil when every step succeeded, otherwise a saga_failed error wrapping
// the error of the failed step. Compensation failures are logged and never change the result.
func (s *SagaOrchestrator) Execute(ctx context.Context, req domain.OrderSagaRequest) error {
	saga := &orderSaga{request: req}
	steps := []*sagaStep{
		{
			name:       domain.SagaStepCreateOrder,
			forward:    func(ctx context.Context) error { return s.createOrder(ctx, saga) },
			compensate: func(ctx context.Context) error { return s.deleteOrder(ctx, saga) },
		},
		{
			name:       domain.SagaStepIncreaseUserOrders,
			forward:    func(ctx context.Context) error { return s.changeUserOrders(ctx, saga, "/user/increase-for-saga") },
			compensate: func(ctx context.Context) error { return s.changeUserOrders(ctx, saga, "/user/decrease-for-saga") },
		},
	}

	for _, step := range steps {
		if err := step.forward(ctx); err != nil {
			level.Error(s.logger).Log("msg", "saga step failed", "step", step.name, "user_id", req.UserID, "err", err)
			s.compensate(ctx, steps)
			s.metrics.saga(OutcomeFailure)
			return NewSagaFailedError(fmt.Sprintf("Saga failed at step %s", step.name), err)
		}
		step.completed = true
	}

	level.Info(s.logger).Log("msg", "saga completed", "user_id", req.UserID, "order_id", saga.orderID)
	s.metrics.saga(OutcomeSuccess)
	return nil
}

// compensate undoes the completed steps in reverse order. It keeps going after a failure and
// outlives the caller's cancellation.
func (s *SagaOrchestrator) compensate(ctx context.Context, steps []*sagaStep) {
	ctx = context.WithoutCancel(ctx)
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		if !step.completed {
			continue
		}
		if err := step.compensate(ctx); err != nil {
			s.metrics.compensation(step.name, OutcomeFailure)
			level.Error(s.logger).Log("msg", "compensation failed", "step", step.name, "err", err)
			continue
		}
		s.metrics.compensation(step.name, OutcomeSuccess)
		level.Info(s.logger).Log("msg", "step compensated", "step", step.name)
	}
}

func (s *SagaOrchestrator) createOrder(ctx context.Context, saga *orderSaga) error {
	var created map[string]any
	if err := s.call(ctx, s.cfg.OrderService, "/order-saga", saga.request.OrderPayload(), &created); err != nil {
		return err
	}
	id := entityID(created)
	if id == "" {
		return fmt.Errorf("order service returned no order id")
	}
	saga.orderID = id
	return nil
}

func (s *SagaOrchestrator) deleteOrder(ctx context.Context, saga *orderSaga) error {
	return s.call(ctx, s.cfg.OrderService, "/delete-order-saga", domain.SagaEntityRef{ID: saga.orderID}, nil)
}

func (s *SagaOrchestrator) changeUserOrders(ctx context.Context, saga *orderSaga, path string) error {
	return s.call(ctx, s.cfg.UserService, path, domain.SagaEntityRef{ID: saga.request.UserID}, nil)
}

// entityID reads "_id" or "id" from a created entity; numeric ids are formatted as integers.
func entityID(entity map[string]any) string {
	for _, key := range []string{"_id", "id"} {
		switch v := entity[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}

// call posts payload to a random instance of serviceName. Any non-2xx status is an error.
func (s *SagaOrchestrator) call(ctx context.Context, serviceName, path string, payload, out any) error {
	instances, err := s.registry.Resolve(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", serviceName, err)
	}
	if len(instances) == 0 {
		return NewEntityNotFoundError(fmt.Sprintf("no instances of %s", serviceName), nil)
	}
	inst := s.pick(instances)

	if s.cfg.StepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.StepTimeout)
		defer cancel()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, TargetURL(inst.Address, path, ""), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s%s: %w", serviceName, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("POST %s%s returned %d", serviceName, path, resp.StatusCode)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s%s response: %w", serviceName, path, err)
	}
	return nil
}
