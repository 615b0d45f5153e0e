package payments

import "context"

type CreateGatewayOrderRequest struct {
	AmountPaise int
	Currency    string
	Receipt     string // our order number
	Notes       map[string]string
}

type GatewayOrder struct {
	ID          string // gateway-assigned order id ("order_...")
	AmountPaise int
	Currency    string
	Receipt     string
	Status      string
}

// Gateway creates payment-gateway orders. Signature verification is not
// part of the interface; it is a pure function over the configured
// secrets (see signature.go).
type Gateway interface {
	Name() string
	CreateOrder(ctx context.Context, req CreateGatewayOrderRequest) (GatewayOrder, error)
}
