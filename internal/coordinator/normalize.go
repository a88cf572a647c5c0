package coordinator

import (
	"strconv"
	"strings"

	"github.com/washtower/zeo-core/internal/zeo"
)

// normalizeValues reduces a raw transport result to one scalar per queried
// protocol. The gateway is free to answer with a map keyed by protocol, a
// one-element slice, or a bare scalar depending on batch size; this is the
// single boundary where those shapes collapse.
//
// Protocols absent from a keyed result are omitted from the output so the
// merge leaves their cached values untouched. Boolean-coerced attributes
// are converted here, before the cache ever sees them.
func normalizeValues(raw any, protocols []zeo.Protocol) map[zeo.Protocol]any {
	out := make(map[zeo.Protocol]any, len(protocols))

	switch typed := raw.(type) {
	case map[zeo.Protocol]any:
		for _, p := range protocols {
			if v, ok := typed[p]; ok {
				out[p] = normalizeScalar(v, p)
			}
		}
	case map[string]any:
		for _, p := range protocols {
			if v, ok := typed[string(p)]; ok {
				out[p] = normalizeScalar(v, p)
			}
		}
	default:
		// Scalar or slice shapes only make sense for a single-key query.
		if len(protocols) == 1 {
			out[protocols[0]] = normalizeScalar(raw, protocols[0])
		}
	}

	return out
}

// normalizeScalar unwraps a single protocol's raw value and applies boolean
// coercion where the catalog calls for it. Unrecognized shapes are stored
// as-is rather than dropped.
func normalizeScalar(raw any, protocol zeo.Protocol) any {
	value := unwrap(raw, protocol)

	attr, err := zeo.Lookup(string(protocol))
	if err == nil && attr.Boolean {
		if b, ok := coerceBool(value); ok {
			return b
		}
	}
	return value
}

// unwrap peels off the container shapes the gateway may use for one value:
// a map keyed by the protocol, or a one-element slice. Anything else is
// returned unchanged.
func unwrap(raw any, protocol zeo.Protocol) any {
	switch typed := raw.(type) {
	case map[zeo.Protocol]any:
		if v, ok := typed[protocol]; ok {
			return unwrap(v, protocol)
		}
	case map[string]any:
		if v, ok := typed[string(protocol)]; ok {
			return unwrap(v, protocol)
		}
	case []any:
		if len(typed) == 1 {
			return unwrap(typed[0], protocol)
		}
	}
	return raw
}

// coerceBool converts the wire representations of a boolean attribute.
// "1", 1 and true map to true; "0", 0 and false map to false. Anything
// else is left alone.
func coerceBool(value any) (bool, bool) {
	switch typed := value.(type) {
	case bool:
		return typed, true
	case int:
		return typed != 0, true
	case int64:
		return typed != 0, true
	case float64:
		return typed != 0, true
	case string:
		switch strings.ToLower(typed) {
		case "1", "true":
			return true, true
		case "0", "false":
			return false, true
		}
		if n, err := strconv.Atoi(typed); err == nil {
			return n != 0, true
		}
	}
	return false, false
}

// coerceInt converts a command value to the integer the wire format
// requires. Booleans become 1/0; numeric strings parse to their value;
// floats truncate. Anything else fails.
func coerceInt(value any) (int, error) {
	switch typed := value.(type) {
	case int:
		return typed, nil
	case int64:
		return int(typed), nil
	case float64:
		return int(typed), nil
	case bool:
		if typed {
			return 1, nil
		}
		return 0, nil
	case string:
		n, err := strconv.Atoi(typed)
		if err != nil {
			return 0, zeo.ErrInvalidValue
		}
		return n, nil
	default:
		return 0, zeo.ErrInvalidValue
	}
}
