package zeo

import "context"

// Protocol identifies a single washer attribute on the wire.
//
// Keys are lowercase and stable; they appear verbatim in MQTT topics,
// API paths and the history table.
type Protocol string

// Known washer protocols.
const (
	// Frequent tier: volatile run-state attributes.
	ProtocolState       Protocol = "state"
	ProtocolWashingLeft Protocol = "washing_left"
	ProtocolCountdown   Protocol = "countdown"

	// Infrequent tier: slow-moving diagnostics.
	ProtocolError           Protocol = "error"
	ProtocolTimesAfterClean Protocol = "times_after_clean"
	ProtocolDetergentEmpty  Protocol = "detergent_empty"

	// Manual tier: settings and one-shot commands.
	ProtocolStart         Protocol = "start"
	ProtocolPause         Protocol = "pause"
	ProtocolShutdown      Protocol = "shutdown"
	ProtocolMode          Protocol = "mode"
	ProtocolProgram       Protocol = "program"
	ProtocolTemp          Protocol = "temp"
	ProtocolRinseTimes    Protocol = "rinse_times"
	ProtocolSpinLevel     Protocol = "spin_level"
	ProtocolDryingMode    Protocol = "drying_mode"
	ProtocolDetergentType Protocol = "detergent_type"
	ProtocolSoundSet      Protocol = "sound_set"
)

// Tier classifies how often a protocol is polled.
type Tier int

const (
	// TierFrequent protocols are polled on every scheduler tick.
	TierFrequent Tier = iota

	// TierInfrequent protocols are polled on a much longer cadence.
	TierInfrequent

	// TierManual protocols are never polled by the scheduler. They are
	// refreshed only on the initial load or by explicit request.
	TierManual
)

// String returns the tier name for logging and API payloads.
func (t Tier) String() string {
	switch t {
	case TierFrequent:
		return "frequent"
	case TierInfrequent:
		return "infrequent"
	case TierManual:
		return "manual"
	default:
		return "unknown"
	}
}

// Transport is the device-facing side of the coordinator.
//
// Implementations talk to the washer gateway. Both methods must honour
// context cancellation. QueryValues is free to return any of the shapes
// the gateway produces: a bare scalar, a one-element slice, or a map
// keyed by protocol. The coordinator normalizes the result at a single
// boundary before anything touches the cache.
type Transport interface {
	// QueryValues reads the current values of the given protocols.
	QueryValues(ctx context.Context, protocols []Protocol) (any, error)

	// SetValue writes a value to a single protocol. Integer coercion
	// happens before this call; the value arrives wire-ready.
	SetValue(ctx context.Context, protocol Protocol, value any) error
}
