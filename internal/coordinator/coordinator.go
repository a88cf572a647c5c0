package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/washtower/zeo-core/internal/zeo"
)

// Logger defines the logging interface used by the Coordinator.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Listener receives the merged attribute values after every successful
// cache merge. Listeners run synchronously on the merging goroutine and
// must not block.
type Listener func(changed map[zeo.Protocol]any)

// RefreshObserver receives the outcome of each refresh pass: how many
// protocols were queried and whether the pass completed without a
// transport failure. Used to feed refresh metrics.
type RefreshObserver func(queried int, succeeded bool)

// Coordinator keeps the state cache fresh by polling the washer on a
// tiered cadence and serves cached reads to consumers without touching
// the device.
//
// Lifecycle: the first Refresh runs the initial load, which queries every
// readable attribute once. Every Refresh after that is a steady-state
// tick that re-queries only the frequent and infrequent attributes whose
// interval has elapsed. The transition is one-way; the initial load never
// runs twice.
//
// All public methods are thread-safe. Refresh calls are serialized, so a
// command-triggered refresh and a scheduler tick never interleave their
// merges.
type Coordinator struct {
	transport zeo.Transport
	cache     *StateCache
	logger    Logger

	frequentInterval   time.Duration
	infrequentInterval time.Duration

	// now is swappable for due-time tests.
	now func() time.Time

	// refreshMu serializes whole ticks so the initial load runs at most
	// once and concurrent refreshes never interleave merges.
	refreshMu sync.Mutex

	// flagMu guards the state flags; they are only written while
	// refreshMu is held.
	flagMu          sync.RWMutex
	initialLoadDone bool
	lastUpdateOK    bool

	listenerMu sync.RWMutex
	listeners  []Listener

	// observer is invoked at the end of every refresh pass; set before
	// Run, never swapped afterwards.
	observer RefreshObserver
}

// New creates a coordinator for one device.
//
// frequent and infrequent are the tier intervals; an attribute is due
// when at least that much time has passed since its last refresh.
func New(transport zeo.Transport, frequent, infrequent time.Duration) *Coordinator {
	return &Coordinator{
		transport:          transport,
		cache:              NewStateCache(),
		logger:             noopLogger{},
		frequentInterval:   frequent,
		infrequentInterval: infrequent,
		now:                time.Now,
		lastUpdateOK:       true,
	}
}

// SetLogger sets the logger for the coordinator.
func (c *Coordinator) SetLogger(logger Logger) {
	c.logger = logger
}

// SetRefreshObserver registers a callback fired after every refresh pass
// with that pass's query count and outcome.
func (c *Coordinator) SetRefreshObserver(fn RefreshObserver) {
	c.observer = fn
}

// AddListener registers a callback fired after every successful merge.
func (c *Coordinator) AddListener(fn Listener) {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// GetCachedValue returns the last known value for a protocol without
// touching the device.
func (c *Coordinator) GetCachedValue(protocol zeo.Protocol) (any, bool) {
	return c.cache.Get(protocol)
}

// Snapshot returns a copy of every cached attribute value.
func (c *Coordinator) Snapshot() map[zeo.Protocol]any {
	return c.cache.Snapshot()
}

// LastRefreshed returns when a protocol was last merged.
func (c *Coordinator) LastRefreshed(protocol zeo.Protocol) (time.Time, bool) {
	return c.cache.LastRefreshed(protocol)
}

// LastUpdateSucceeded reports whether the most recent refresh completed
// without a transport failure. Stale cache contents remain readable
// either way; this flag is the only signal that they may be out of date.
func (c *Coordinator) LastUpdateSucceeded() bool {
	c.flagMu.RLock()
	defer c.flagMu.RUnlock()
	return c.lastUpdateOK
}

// InitialLoadDone reports whether the one-time startup pass has run.
func (c *Coordinator) InitialLoadDone() bool {
	c.flagMu.RLock()
	defer c.flagMu.RUnlock()
	return c.initialLoadDone
}

// Refresh runs one refresh pass and returns the resulting cache snapshot.
//
// The first call performs the initial load; subsequent calls perform a
// steady-state tick. Refresh never returns an error: transport failures
// leave the previous values in place and lower the LastUpdateSucceeded
// flag. A pass that queries nothing still returns the full snapshot, so
// callers always see the current cache contents.
func (c *Coordinator) Refresh(ctx context.Context) map[zeo.Protocol]any {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if !c.initialLoadDoneLocked() {
		c.runInitialLoad(ctx)
	} else {
		c.runTick(ctx)
	}

	return c.cache.Snapshot()
}

func (c *Coordinator) initialLoadDoneLocked() bool {
	c.flagMu.RLock()
	defer c.flagMu.RUnlock()
	return c.initialLoadDone
}

// runInitialLoad queries every readable attribute once, in catalog order,
// one key at a time. A single key's failure is logged and skipped; the
// pass always completes and the coordinator never re-enters this state.
func (c *Coordinator) runInitialLoad(ctx context.Context) {
	c.logger.Info("starting initial attribute load")

	ok := true
	loaded := 0
	queried := 0
	for _, protocol := range zeo.Readable() {
		if ctx.Err() != nil {
			c.logger.Warn("initial load abandoned", "error", ctx.Err())
			ok = false
			break
		}

		queried++
		raw, err := c.transport.QueryValues(ctx, []zeo.Protocol{protocol})
		if err != nil {
			c.logger.Warn("initial load query failed",
				"protocol", protocol,
				"error", err)
			ok = false
			continue
		}

		values := normalizeValues(raw, []zeo.Protocol{protocol})
		if len(values) == 0 {
			continue
		}

		// Merge per key so later queries in the pass see a partially
		// populated cache.
		c.cache.Merge(values, c.now())
		c.notify(values)
		loaded++
	}

	c.flagMu.Lock()
	c.initialLoadDone = true
	c.lastUpdateOK = ok
	c.flagMu.Unlock()

	if c.observer != nil {
		c.observer(queried, ok)
	}

	c.logger.Info("initial attribute load complete",
		"loaded", loaded,
		"total", len(zeo.Readable()))
}

// runTick executes one steady-state pass: for the frequent and then the
// infrequent tier, batch-query every attribute whose interval has elapsed
// and merge the results with the tick's timestamp. A failed batch falls
// back to per-key queries so one bad attribute does not starve its tier.
// Manual-tier attributes are never queried here.
func (c *Coordinator) runTick(ctx context.Context) {
	tickTime := c.now()
	ok := true
	queried := 0

	tiers := []struct {
		tier     zeo.Tier
		interval time.Duration
	}{
		{zeo.TierFrequent, c.frequentInterval},
		{zeo.TierInfrequent, c.infrequentInterval},
	}

	for _, t := range tiers {
		due := c.dueProtocols(t.tier, t.interval, tickTime)
		if len(due) == 0 {
			continue
		}
		queried += len(due)

		raw, err := c.transport.QueryValues(ctx, due)
		if err != nil {
			c.logger.Warn("tier query failed",
				"tier", t.tier.String(),
				"protocols", len(due),
				"error", err)
			if !c.retryTierPerKey(ctx, due, tickTime) {
				ok = false
			}
			continue
		}

		values := normalizeValues(raw, due)
		if len(values) == 0 {
			continue
		}

		c.cache.Merge(values, tickTime)
		c.notify(values)
	}

	c.flagMu.Lock()
	c.lastUpdateOK = ok
	c.flagMu.Unlock()

	if c.observer != nil {
		c.observer(queried, ok)
	}
}

// retryTierPerKey re-queries a failed tier batch one key at a time so a
// single bad attribute only costs itself, not its whole tier. Returns
// whether every key was recovered.
func (c *Coordinator) retryTierPerKey(ctx context.Context, due []zeo.Protocol, tickTime time.Time) bool {
	// A one-key batch already was a per-key query; retrying it would
	// just repeat the same request.
	if len(due) <= 1 {
		return false
	}

	ok := true
	for _, protocol := range due {
		if ctx.Err() != nil {
			return false
		}

		raw, err := c.transport.QueryValues(ctx, []zeo.Protocol{protocol})
		if err != nil {
			c.logger.Warn("per-key retry failed",
				"protocol", protocol,
				"error", err)
			ok = false
			continue
		}

		values := normalizeValues(raw, []zeo.Protocol{protocol})
		if len(values) == 0 {
			continue
		}

		c.cache.Merge(values, tickTime)
		c.notify(values)
	}
	return ok
}

// dueProtocols returns the tier's attributes whose interval has elapsed,
// or which have never been refreshed, in catalog order.
func (c *Coordinator) dueProtocols(tier zeo.Tier, interval time.Duration, now time.Time) []zeo.Protocol {
	var due []zeo.Protocol
	for _, protocol := range zeo.ByTier(tier) {
		last, ok := c.cache.LastRefreshed(protocol)
		if !ok || now.Sub(last) >= interval {
			due = append(due, protocol)
		}
	}
	return due
}

// SendCommand writes a value to a writable attribute.
//
// The value is coerced to an integer for integer-coded attributes before
// the transport call; coercion failure returns zeo.ErrInvalidValue and
// the device is never contacted. A transport failure is returned as
// ErrCommandFailed. On success a full refresh runs best-effort so
// dependent reads observe the effect without waiting for the next tick.
func (c *Coordinator) SendCommand(ctx context.Context, key string, value any) error {
	attr, err := zeo.Lookup(key)
	if err != nil {
		return fmt.Errorf("send command %q: %w", key, err)
	}
	if !attr.Writable {
		return fmt.Errorf("send command %q: %w", key, zeo.ErrNotWritable)
	}

	if attr.Integer {
		n, err := coerceInt(value)
		if err != nil {
			return fmt.Errorf("send command %q: coerce %v: %w", key, value, zeo.ErrInvalidValue)
		}
		value = n
	}

	if err := c.transport.SetValue(ctx, attr.Protocol, value); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCommandFailed, key, err)
	}

	c.logger.Debug("command sent", "protocol", attr.Protocol, "value", value)

	// Best effort: a failed follow-up refresh is already reflected in
	// the success flag and must not fail the command.
	c.Refresh(ctx)

	return nil
}

// QueryProtocol queries one attribute immediately, bypassing tier timing.
//
// The result is normalized, merged into the cache and announced to
// listeners before this returns, so a read-after-write sees fresh data.
func (c *Coordinator) QueryProtocol(ctx context.Context, key string) (any, error) {
	attr, err := zeo.Lookup(key)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", key, err)
	}

	raw, err := c.transport.QueryValues(ctx, []zeo.Protocol{attr.Protocol})
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", key, err)
	}

	values := normalizeValues(raw, []zeo.Protocol{attr.Protocol})
	if len(values) == 0 {
		return nil, fmt.Errorf("query %q: %w", key, ErrEmptyResult)
	}

	c.cache.Merge(values, c.now())
	c.notify(values)

	return values[attr.Protocol], nil
}

// Run drives the scheduler loop until ctx is cancelled.
//
// It refreshes immediately, then once per frequent interval. Individual
// refresh failures never stop the loop.
func (c *Coordinator) Run(ctx context.Context) {
	c.logger.Info("scheduler loop started",
		"frequent_interval", c.frequentInterval,
		"infrequent_interval", c.infrequentInterval)

	c.Refresh(ctx)

	ticker := time.NewTicker(c.frequentInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("scheduler loop stopped")
			return
		case <-ticker.C:
			c.Refresh(ctx)
		}
	}
}

// notify fans a merge out to all registered listeners.
func (c *Coordinator) notify(changed map[zeo.Protocol]any) {
	c.listenerMu.RLock()
	listeners := make([]Listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.listenerMu.RUnlock()

	for _, fn := range listeners {
		fn(changed)
	}
}
