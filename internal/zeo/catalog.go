package zeo

import "strings"

// Attribute describes one catalog entry: the protocol key plus the
// behavioural flags that drive polling, coercion and command handling.
type Attribute struct {
	Protocol Protocol
	Tier     Tier

	// Boolean marks attributes whose raw values coerce to true/false
	// when merged into the cache.
	Boolean bool

	// WriteOnly marks command triggers that have no readable state.
	// They are skipped during the initial load and never polled.
	WriteOnly bool

	// Writable marks attributes that accept commands.
	Writable bool

	// Integer marks attributes whose command values are coerced to an
	// integer before hitting the transport (bool to 1/0, numeric string
	// to its parsed value).
	Integer bool
}

// catalog lists every supported protocol in declaration order. Order is
// load-bearing: snapshots and API listings iterate it so output is stable.
var catalog = []Attribute{
	{Protocol: ProtocolState, Tier: TierFrequent},
	{Protocol: ProtocolWashingLeft, Tier: TierFrequent},
	{Protocol: ProtocolCountdown, Tier: TierFrequent},

	{Protocol: ProtocolError, Tier: TierInfrequent},
	{Protocol: ProtocolTimesAfterClean, Tier: TierInfrequent},
	{Protocol: ProtocolDetergentEmpty, Tier: TierInfrequent},

	{Protocol: ProtocolStart, Tier: TierManual, WriteOnly: true, Writable: true, Integer: true},
	{Protocol: ProtocolPause, Tier: TierManual, WriteOnly: true, Writable: true, Integer: true},
	{Protocol: ProtocolShutdown, Tier: TierManual, WriteOnly: true, Writable: true, Integer: true},
	{Protocol: ProtocolMode, Tier: TierManual, Writable: true},
	{Protocol: ProtocolProgram, Tier: TierManual, Writable: true},
	{Protocol: ProtocolTemp, Tier: TierManual, Writable: true},
	{Protocol: ProtocolRinseTimes, Tier: TierManual, Writable: true},
	{Protocol: ProtocolSpinLevel, Tier: TierManual, Writable: true},
	{Protocol: ProtocolDryingMode, Tier: TierManual, Writable: true},
	{Protocol: ProtocolDetergentType, Tier: TierManual, Writable: true},
	{Protocol: ProtocolSoundSet, Tier: TierManual, Boolean: true, Writable: true, Integer: true},
}

// index provides case-normalized lookup into the catalog.
var index = func() map[Protocol]Attribute {
	m := make(map[Protocol]Attribute, len(catalog))
	for _, attr := range catalog {
		m[attr.Protocol] = attr
	}
	return m
}()

// Lookup resolves a protocol key to its catalog entry.
//
// Keys are matched case-insensitively; "State" and "state" resolve to
// the same attribute. Unknown keys return ErrUnknownProtocol.
func Lookup(key string) (Attribute, error) {
	attr, ok := index[Protocol(strings.ToLower(key))]
	if !ok {
		return Attribute{}, ErrUnknownProtocol
	}
	return attr, nil
}

// All returns every catalog entry in declaration order.
//
// The returned slice is a copy; callers may reorder it freely.
func All() []Attribute {
	out := make([]Attribute, len(catalog))
	copy(out, catalog)
	return out
}

// ByTier returns the protocols belonging to the given tier, in
// declaration order.
func ByTier(tier Tier) []Protocol {
	var out []Protocol
	for _, attr := range catalog {
		if attr.Tier == tier {
			out = append(out, attr.Protocol)
		}
	}
	return out
}

// Readable returns every protocol with readable state, in declaration
// order. Write-only command triggers are excluded.
func Readable() []Protocol {
	var out []Protocol
	for _, attr := range catalog {
		if !attr.WriteOnly {
			out = append(out, attr.Protocol)
		}
	}
	return out
}
