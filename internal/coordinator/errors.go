package coordinator

import "errors"

// ErrCommandFailed indicates a write reached the transport and failed
// there. Command failures are user-visible and are never swallowed or
// retried locally.
var ErrCommandFailed = errors.New("coordinator: command failed")

// ErrEmptyResult indicates the gateway answered a query but the response
// held no usable value for the requested attribute.
var ErrEmptyResult = errors.New("coordinator: empty query result")
