package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured        = errors.New("Payment service is not configured")
	ErrInvalidOrder         = errors.New("invalid order")
	ErrMissingTransactionID = errors.New("Transaction ID is required")
	ErrInvalidFlow          = errors.New("no transaction to track")
	ErrNoTransaction        = errors.New("no transaction stored")
	ErrNilTransaction       = errors.New("transaction is nil")
)

// GatewayError is a non-success response from the payment gateway.
// StatusCode carries the upstream HTTP status so handlers can propagate it.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("payment failed with status %d", e.StatusCode)
}

// ProtocolError is an upstream response body that could not be parsed as
// JSON. The raw body is kept for diagnosis.
type ProtocolError struct {
	Body string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("invalid response from payment service: %s", e.Body)
}
