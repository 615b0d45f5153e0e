package payments

import "errors"

var (
	ErrInvalidSignature = errors.New("invalid payment signature")
	ErrOrderNotFound    = errors.New("order not found")
	ErrGateway          = errors.New("payment gateway error")
)
