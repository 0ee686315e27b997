package interfaces

import (
	"context"

	"fabric/domain"
)

// RequestRouter forwards a client request to an instance of the named service.
// Implemented by service.Router; used by handlers.GatewayServer.
//
//go:generate moq -stub -out mock/request_router.go -pkg mock . RequestRouter
type RequestRouter interface {
	// Route returns the downstream response, or service_not_found / service_unavailable.
	Route(ctx context.Context, req domain.ProxyRequest) (*domain.ProxyResponse, error)
}

// SagaExecutor runs the order saga.
// Implemented by service.SagaOrchestrator; used by handlers.GatewayServer.
//
//go:generate moq -stub -out mock/saga_executor.go -pkg mock . SagaExecutor
type SagaExecutor interface {
	// Execute returns nil when every step succeeded, saga_failed otherwise.
	Execute(ctx context.Context, req domain.OrderSagaRequest) error
}
