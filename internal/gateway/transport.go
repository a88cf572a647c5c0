package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/washtower/zeo-core/internal/zeo"
)

// PubSub is the slice of the MQTT client the transport needs.
type PubSub interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error
	Unsubscribe(topic string) error
}

// Topics builds the request and response topic names.
type Topics interface {
	GatewayRequest(family, requestID string) string
	GatewayResponse(family, requestID string) string
}

// Logger defines the logging interface used by the Transport.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Transport talks to the washer gateway over MQTT request/response.
//
// Each request gets a unique ID; the transport subscribes to the matching
// response topic before publishing, waits for the correlated answer, then
// tears the subscription down. Requests are independent; concurrent calls
// never cross-talk because topics embed the request ID.
type Transport struct {
	pubsub PubSub
	topics Topics
	logger Logger

	family  string
	duid    string
	qos     byte
	timeout time.Duration
}

// NewTransport creates a gateway transport for one device.
//
// family is the gateway's protocol family segment in topic names (e.g.
// "zeo"); timeout bounds how long a single request may wait for its
// response.
func NewTransport(pubsub PubSub, topics Topics, family, duid string, qos byte, timeout time.Duration) *Transport {
	return &Transport{
		pubsub:  pubsub,
		topics:  topics,
		logger:  noopLogger{},
		family:  family,
		duid:    duid,
		qos:     qos,
		timeout: timeout,
	}
}

// SetLogger sets the logger for the transport.
func (t *Transport) SetLogger(logger Logger) {
	t.logger = logger
}

// QueryValues reads the current values of the given protocols.
//
// The returned value is whatever shape the gateway put in the response's
// values field; callers normalize it.
func (t *Transport) QueryValues(ctx context.Context, protocols []zeo.Protocol) (any, error) {
	keys := make([]string, len(protocols))
	for i, p := range protocols {
		keys[i] = string(p)
	}

	req := RequestMessage{
		RequestID: uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Action:    ActionQuery,
		DUID:      t.duid,
		Protocols: keys,
	}

	resp, err := t.roundTrip(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// SetValue writes a value to a single protocol.
func (t *Transport) SetValue(ctx context.Context, protocol zeo.Protocol, value any) error {
	req := RequestMessage{
		RequestID: uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Action:    ActionSet,
		DUID:      t.duid,
		Protocol:  string(protocol),
		Value:     value,
	}

	_, err := t.roundTrip(ctx, req)
	return err
}

// roundTrip publishes one request and waits for its correlated response.
func (t *Transport) roundTrip(ctx context.Context, req RequestMessage) (*ResponseMessage, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	respTopic := t.topics.GatewayResponse(t.family, req.RequestID)
	respCh := make(chan *ResponseMessage, 1)

	handler := func(_ string, data []byte) error {
		var resp ResponseMessage
		if err := json.Unmarshal(data, &resp); err != nil {
			t.logger.Warn("malformed gateway response",
				"request_id", req.RequestID,
				"error", err)
			return nil
		}
		if resp.RequestID != req.RequestID {
			return nil
		}
		select {
		case respCh <- &resp:
		default:
		}
		return nil
	}

	if err := t.pubsub.Subscribe(respTopic, t.qos, handler); err != nil {
		return nil, fmt.Errorf("%w: subscribe response topic: %w", ErrNotConnected, err)
	}
	defer func() {
		if err := t.pubsub.Unsubscribe(respTopic); err != nil {
			t.logger.Warn("unsubscribe response topic failed",
				"topic", respTopic,
				"error", err)
		}
	}()

	reqTopic := t.topics.GatewayRequest(t.family, req.RequestID)
	if err := t.pubsub.Publish(reqTopic, payload, t.qos, false); err != nil {
		return nil, fmt.Errorf("%w: publish request: %w", ErrNotConnected, err)
	}

	t.logger.Debug("gateway request sent",
		"request_id", req.RequestID,
		"action", req.Action)

	timer := time.NewTimer(t.timeout)
	defer timer.Stop()

	select {
	case resp := <-respCh:
		if !resp.Success {
			if resp.Error != nil {
				return nil, fmt.Errorf("%w: %s: %s", ErrRequestFailed, resp.Error.Code, resp.Error.Message)
			}
			return nil, ErrRequestFailed
		}
		return resp, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, req.Action, t.timeout)
	case <-ctx.Done():
		return nil, fmt.Errorf("gateway request abandoned: %w", ctx.Err())
	}
}
