package gateway

import "errors"

// Sentinel errors for gateway operations.
var (
	// ErrTimeout indicates the gateway did not answer within the
	// configured request timeout.
	ErrTimeout = errors.New("gateway: request timed out")

	// ErrRequestFailed indicates the gateway answered with a failure.
	ErrRequestFailed = errors.New("gateway: request failed")

	// ErrNotConnected indicates the underlying MQTT session is down.
	ErrNotConnected = errors.New("gateway: not connected")
)
