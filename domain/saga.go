package domain

import "encoding/json"

// Saga step names, used in logs and metrics.
const (
	SagaStepCreateOrder        = "create_order"
	SagaStepIncreaseUserOrders = "increase_user_orders"
)

// PaymentDetails is the optional payment block of an order.
type PaymentDetails struct {
	Method string `json:"method,omitempty"`
	Status string `json:"status,omitempty"`
}

// OrderSagaRequest is the payload of POST /saga. The typed fields are what gets validated; Raw holds the
// body as received and is what the order service gets, so fields unknown here are kept.
type OrderSagaRequest struct {
	UserID         string          `json:"user_id" validate:"required"`
	EventID        string          `json:"event_id,omitempty"`
	Quantity       int             `json:"quantity,omitempty" validate:"omitempty,gte=1"`
	TotalPrice     float64         `json:"total_price,omitempty" validate:"gte=0"`
	OrderStatus    string          `json:"order_status,omitempty"`
	PaymentDetails *PaymentDetails `json:"payment_details,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// OrderPayload is the create order body: Raw when set, the typed fields otherwise.
func (r OrderSagaRequest) OrderPayload() any {
	if len(r.Raw) > 0 {
		return r.Raw
	}
	return r
}

// SagaEntityRef is the {"id": ...} body sent to the saga endpoints of downstream services.
type SagaEntityRef struct {
	ID string `json:"id"`
}
