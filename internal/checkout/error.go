package checkout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAttemptInFlight  = errors.New("a checkout attempt is already in flight")
	ErrCartEmpty        = errors.New("cart is empty")
	ErrPaymentAbandoned = errors.New("payment postponed; order remains pending")
)

// PreconditionError: the attempt cannot start. Recovered locally by routing
// the user to the remedial screen; never sent to the backend.
type PreconditionError struct {
	Reason string
	Remedy Route
}

func (e *PreconditionError) Error() string {
	return "checkout precondition failed: " + e.Reason
}

// ConfigurationError: the gateway params are unusable. Fatal to the current
// attempt; the order stays pending server-side for a later retry.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing payment gateway params: %s", strings.Join(e.Missing, ", "))
}

// GatewayDeclinedError: the gateway reported a declined transaction. The
// cart stays intact; the user may retry.
type GatewayDeclinedError struct {
	TransactionID string
}

func (e *GatewayDeclinedError) Error() string {
	return "payment declined by the gateway"
}
