package gateway

import "time"

// MQTT message types for communication between Zeo Core and the washer
// gateway. The gateway bridges MQTT to the vendor cloud/local link and
// answers request/response pairs correlated by request ID.

// Request actions understood by the gateway.
const (
	// ActionQuery reads the current values of one or more protocols.
	ActionQuery = "query"

	// ActionSet writes a value to a single protocol.
	ActionSet = "set"
)

// RequestMessage is sent from Core to the gateway.
// Topic: zeocore/request/{protocol_family}/{request_id}
type RequestMessage struct {
	// RequestID uniquely identifies this request for correlation.
	RequestID string `json:"request_id"`

	// Timestamp is when the request was issued (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Action is the requested operation: "query" or "set".
	Action string `json:"action"`

	// DUID is the target device identifier.
	DUID string `json:"duid"`

	// Protocols lists the attribute keys to read (query only).
	Protocols []string `json:"protocols,omitempty"`

	// Protocol is the attribute key to write (set only).
	Protocol string `json:"protocol,omitempty"`

	// Value is the value to write (set only).
	Value any `json:"value,omitempty"`
}

// ResponseMessage is sent from the gateway back to Core.
// Topic: zeocore/response/{protocol_family}/{request_id}
type ResponseMessage struct {
	// RequestID is the ID from the original request.
	RequestID string `json:"request_id"`

	// Timestamp is when the response was generated (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Success indicates whether the request succeeded.
	Success bool `json:"success"`

	// Values contains the query results keyed by protocol. The gateway
	// may also answer single-key queries with a bare scalar or a
	// one-element list here; normalization downstream handles all three.
	Values any `json:"values,omitempty"`

	// Error contains error details when Success is false.
	Error *ResponseError `json:"error,omitempty"`
}

// ResponseError contains error details for failed requests.
type ResponseError struct {
	// Code is the error code (e.g., "DEVICE_UNREACHABLE", "TIMEOUT").
	Code string `json:"code"`

	// Message is a human-readable error description.
	Message string `json:"message"`
}

// Error codes reported by the gateway.
const (
	ErrCodeDeviceUnreachable = "DEVICE_UNREACHABLE"
	ErrCodeInvalidProtocol   = "INVALID_PROTOCOL"
	ErrCodeInvalidValue      = "INVALID_VALUE"
	ErrCodeTimeout           = "TIMEOUT"
	ErrCodeGatewayError      = "GATEWAY_ERROR"
)
