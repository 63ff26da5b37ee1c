// Package gateway implements the network boundary to the remote system
// of record. All failures it reports are transient and retryable; the
// sync manager converts them into retry bookkeeping.
package gateway

import "fmt"

// GatewayError is a transient network or remote failure. Operations
// that return it are always safe to retry from the caller's point of
// view, though the create calls may duplicate remote records when the
// backend ignores the idempotency key.
type GatewayError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway %s: remote returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
