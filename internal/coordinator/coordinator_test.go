package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/washtower/zeo-core/internal/zeo"
)

// mockTransport records every query and write for assertions.
type mockTransport struct {
	mu      sync.Mutex
	queries [][]zeo.Protocol
	sets    []setCall

	// queryFn overrides the default echo behavior when set.
	queryFn func(protocols []zeo.Protocol) (any, error)
	setFn   func(protocol zeo.Protocol, value any) error
}

type setCall struct {
	protocol zeo.Protocol
	value    any
}

func (m *mockTransport) QueryValues(_ context.Context, protocols []zeo.Protocol) (any, error) {
	m.mu.Lock()
	cp := make([]zeo.Protocol, len(protocols))
	copy(cp, protocols)
	m.queries = append(m.queries, cp)
	fn := m.queryFn
	m.mu.Unlock()

	if fn != nil {
		return fn(protocols)
	}

	// Default: answer with a map of placeholder values.
	out := make(map[zeo.Protocol]any, len(protocols))
	for _, p := range protocols {
		out[p] = "value-" + string(p)
	}
	return out, nil
}

func (m *mockTransport) SetValue(_ context.Context, protocol zeo.Protocol, value any) error {
	m.mu.Lock()
	m.sets = append(m.sets, setCall{protocol: protocol, value: value})
	fn := m.setFn
	m.mu.Unlock()

	if fn != nil {
		return fn(protocol, value)
	}
	return nil
}

func (m *mockTransport) queryLog() [][]zeo.Protocol {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]zeo.Protocol, len(m.queries))
	copy(out, m.queries)
	return out
}

func (m *mockTransport) queriedProtocols() map[zeo.Protocol]int {
	counts := make(map[zeo.Protocol]int)
	for _, batch := range m.queryLog() {
		for _, p := range batch {
			counts[p]++
		}
	}
	return counts
}

func (m *mockTransport) setLog() []setCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]setCall, len(m.sets))
	copy(out, m.sets)
	return out
}

// fakeClock lets tests control due-time arithmetic.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func newTestCoordinator(transport *mockTransport, clock *fakeClock) *Coordinator {
	c := New(transport, time.Minute, 6*time.Hour)
	c.now = clock.Now
	return c
}

func TestRefresh_InitialLoad(t *testing.T) {
	transport := &mockTransport{}
	clock := newFakeClock()
	c := newTestCoordinator(transport, clock)

	snap := c.Refresh(context.Background())

	if !c.InitialLoadDone() {
		t.Fatal("initial load did not complete")
	}
	if !c.LastUpdateSucceeded() {
		t.Error("LastUpdateSucceeded() = false after clean initial load")
	}

	counts := transport.queriedProtocols()
	for _, p := range zeo.Readable() {
		if counts[p] != 1 {
			t.Errorf("protocol %q queried %d times during initial load, want 1", p, counts[p])
		}
	}
	for _, p := range []zeo.Protocol{zeo.ProtocolStart, zeo.ProtocolPause, zeo.ProtocolShutdown} {
		if counts[p] != 0 {
			t.Errorf("write-only protocol %q was queried during initial load", p)
		}
	}

	// Every query in the pass is single-key.
	for i, batch := range transport.queryLog() {
		if len(batch) != 1 {
			t.Errorf("initial load query %d batched %d keys, want 1", i, len(batch))
		}
	}

	if snap[zeo.ProtocolState] != "value-state" {
		t.Errorf("snapshot state = %v, want \"value-state\"", snap[zeo.ProtocolState])
	}
}

func TestRefresh_InitialLoadContinuesPastFailures(t *testing.T) {
	transport := &mockTransport{}
	transport.queryFn = func(protocols []zeo.Protocol) (any, error) {
		if len(protocols) == 1 && protocols[0] == zeo.ProtocolError {
			return nil, errors.New("device busy")
		}
		out := make(map[zeo.Protocol]any, len(protocols))
		for _, p := range protocols {
			out[p] = "ok"
		}
		return out, nil
	}
	clock := newFakeClock()
	c := newTestCoordinator(transport, clock)

	c.Refresh(context.Background())

	if !c.InitialLoadDone() {
		t.Fatal("one key's failure prevented the initial load transition")
	}

	// Every readable key was still attempted exactly once.
	counts := transport.queriedProtocols()
	for _, p := range zeo.Readable() {
		if counts[p] != 1 {
			t.Errorf("protocol %q queried %d times, want 1", p, counts[p])
		}
	}

	if _, ok := c.GetCachedValue(zeo.ProtocolError); ok {
		t.Error("failed key ended up in the cache")
	}
	if v, ok := c.GetCachedValue(zeo.ProtocolState); !ok || v != "ok" {
		t.Errorf("GetCachedValue(state) = %v, %v, want \"ok\", true", v, ok)
	}

	// A second refresh is a steady-state tick, never a second load.
	before := len(transport.queryLog())
	clock.Advance(30 * time.Second)
	c.Refresh(context.Background())
	if got := len(transport.queryLog()); got != before {
		t.Errorf("tick at +30s issued %d queries, want 0 (nothing due)", got-before)
	}
}

func TestRefresh_DueTiming(t *testing.T) {
	transport := &mockTransport{}
	clock := newFakeClock()
	c := newTestCoordinator(transport, clock)
	ctx := context.Background()

	c.Refresh(ctx)
	loadQueries := len(transport.queryLog())

	// +30s: frequent interval is 60s, nothing due.
	clock.Advance(30 * time.Second)
	c.Refresh(ctx)
	if got := len(transport.queryLog()); got != loadQueries {
		t.Fatalf("tick at +30s issued %d queries, want 0", got-loadQueries)
	}

	// +65s: frequent tier due, infrequent (6h) still fresh.
	clock.Advance(35 * time.Second)
	c.Refresh(ctx)
	log := transport.queryLog()
	if len(log) != loadQueries+1 {
		t.Fatalf("tick at +65s issued %d batches, want 1", len(log)-loadQueries)
	}

	due := log[len(log)-1]
	wantDue := map[zeo.Protocol]bool{
		zeo.ProtocolState:       true,
		zeo.ProtocolWashingLeft: true,
		zeo.ProtocolCountdown:   true,
	}
	for _, p := range due {
		if !wantDue[p] {
			t.Errorf("tick at +65s queried %q, want frequent tier only", p)
		}
	}
	if len(due) != len(wantDue) {
		t.Errorf("tick at +65s queried %d protocols, want %d", len(due), len(wantDue))
	}

	// Infrequent value survives untouched.
	if v, ok := c.GetCachedValue(zeo.ProtocolError); !ok || v != "value-error" {
		t.Errorf("GetCachedValue(error) = %v, %v, want initial value retained", v, ok)
	}
}

func TestRefresh_ManualTierNeverPolled(t *testing.T) {
	transport := &mockTransport{}
	clock := newFakeClock()
	c := newTestCoordinator(transport, clock)
	ctx := context.Background()

	c.Refresh(ctx)
	loadQueries := len(transport.queryLog())

	for i := 0; i < 5; i++ {
		clock.Advance(time.Hour)
		c.Refresh(ctx)
	}

	for _, batch := range transport.queryLog()[loadQueries:] {
		for _, p := range batch {
			attr, err := zeo.Lookup(string(p))
			if err != nil {
				t.Fatalf("Lookup(%q) failed: %v", p, err)
			}
			if attr.Tier == zeo.TierManual {
				t.Errorf("steady-state tick queried manual protocol %q", p)
			}
		}
	}
}

func TestRefresh_FailureKeepsStaleValues(t *testing.T) {
	transport := &mockTransport{}
	clock := newFakeClock()
	c := newTestCoordinator(transport, clock)
	ctx := context.Background()

	c.Refresh(ctx)

	transport.mu.Lock()
	transport.queryFn = func([]zeo.Protocol) (any, error) {
		return nil, errors.New("transport down")
	}
	transport.mu.Unlock()

	for i := 0; i < 3; i++ {
		clock.Advance(2 * time.Minute)
		snap := c.Refresh(ctx)

		if c.LastUpdateSucceeded() {
			t.Errorf("tick %d: LastUpdateSucceeded() = true during outage", i+1)
		}
		if snap[zeo.ProtocolState] != "value-state" {
			t.Errorf("tick %d: snapshot lost stale value, got %v", i+1, snap[zeo.ProtocolState])
		}
		if v, ok := c.GetCachedValue(zeo.ProtocolState); !ok || v != "value-state" {
			t.Errorf("tick %d: GetCachedValue(state) = %v, %v", i+1, v, ok)
		}
	}

	// Recovery flips the flag back.
	transport.mu.Lock()
	transport.queryFn = nil
	transport.mu.Unlock()

	clock.Advance(2 * time.Minute)
	c.Refresh(ctx)
	if !c.LastUpdateSucceeded() {
		t.Error("LastUpdateSucceeded() = false after recovery")
	}
}

func TestRefresh_BatchFailureFallsBackPerKey(t *testing.T) {
	transport := &mockTransport{}
	clock := newFakeClock()
	c := newTestCoordinator(transport, clock)
	ctx := context.Background()

	c.Refresh(ctx)

	// Batches fail; single-key queries succeed except washing_left.
	transport.mu.Lock()
	transport.queryFn = func(protocols []zeo.Protocol) (any, error) {
		if len(protocols) > 1 {
			return nil, errors.New("batch too large")
		}
		if protocols[0] == zeo.ProtocolWashingLeft {
			return nil, errors.New("device busy")
		}
		return map[zeo.Protocol]any{protocols[0]: "retried"}, nil
	}
	transport.mu.Unlock()

	clock.Advance(2 * time.Minute)
	c.Refresh(ctx)

	// The healthy keys of the failed batch still got fresh values.
	if v, _ := c.GetCachedValue(zeo.ProtocolState); v != "retried" {
		t.Errorf("GetCachedValue(state) = %v, want per-key retry value", v)
	}
	if v, _ := c.GetCachedValue(zeo.ProtocolCountdown); v != "retried" {
		t.Errorf("GetCachedValue(countdown) = %v, want per-key retry value", v)
	}

	// The failing key keeps its stale value and lowers the flag.
	if v, _ := c.GetCachedValue(zeo.ProtocolWashingLeft); v != "value-washing_left" {
		t.Errorf("GetCachedValue(washing_left) = %v, want stale value retained", v)
	}
	if c.LastUpdateSucceeded() {
		t.Error("LastUpdateSucceeded() = true with one key still failing")
	}
}

func TestRefresh_BatchFailureRecoveredPerKey(t *testing.T) {
	transport := &mockTransport{}
	clock := newFakeClock()
	c := newTestCoordinator(transport, clock)
	ctx := context.Background()

	c.Refresh(ctx)

	transport.mu.Lock()
	transport.queryFn = func(protocols []zeo.Protocol) (any, error) {
		if len(protocols) > 1 {
			return nil, errors.New("batch too large")
		}
		return map[zeo.Protocol]any{protocols[0]: "retried"}, nil
	}
	transport.mu.Unlock()

	clock.Advance(2 * time.Minute)
	c.Refresh(ctx)

	// Every key recovered per key, so the pass counts as a success.
	if !c.LastUpdateSucceeded() {
		t.Error("LastUpdateSucceeded() = false after full per-key recovery")
	}
	for _, p := range []zeo.Protocol{zeo.ProtocolState, zeo.ProtocolWashingLeft, zeo.ProtocolCountdown} {
		if v, _ := c.GetCachedValue(p); v != "retried" {
			t.Errorf("GetCachedValue(%q) = %v, want per-key retry value", p, v)
		}
	}
}

func TestRefresh_NothingDueReturnsSnapshot(t *testing.T) {
	transport := &mockTransport{}
	clock := newFakeClock()
	c := newTestCoordinator(transport, clock)
	ctx := context.Background()

	first := c.Refresh(ctx)
	second := c.Refresh(ctx) // immediately after, nothing due

	if len(second) != len(first) {
		t.Errorf("idle tick returned %d entries, want %d", len(second), len(first))
	}
	if !c.LastUpdateSucceeded() {
		t.Error("idle tick lowered the success flag")
	}
}

func TestSendCommand_UnknownProtocol(t *testing.T) {
	transport := &mockTransport{}
	c := newTestCoordinator(transport, newFakeClock())

	err := c.SendCommand(context.Background(), "spin_cycle", 1)
	if !errors.Is(err, zeo.ErrUnknownProtocol) {
		t.Errorf("SendCommand(unknown) error = %v, want ErrUnknownProtocol", err)
	}
	if len(transport.setLog()) != 0 {
		t.Error("transport written despite unknown protocol")
	}
}

func TestSendCommand_NotWritable(t *testing.T) {
	transport := &mockTransport{}
	c := newTestCoordinator(transport, newFakeClock())

	err := c.SendCommand(context.Background(), "state", 1)
	if !errors.Is(err, zeo.ErrNotWritable) {
		t.Errorf("SendCommand(state) error = %v, want ErrNotWritable", err)
	}
}

func TestSendCommand_IntegerCoercion(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		want  any
	}{
		{"bool true to one", "sound_set", true, 1},
		{"bool false to zero", "sound_set", false, 0},
		{"numeric string", "start", "2", 2},
		{"int passthrough", "pause", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &mockTransport{}
			c := newTestCoordinator(transport, newFakeClock())

			if err := c.SendCommand(context.Background(), tt.key, tt.value); err != nil {
				t.Fatalf("SendCommand failed: %v", err)
			}

			sets := transport.setLog()
			if len(sets) != 1 {
				t.Fatalf("transport received %d writes, want 1", len(sets))
			}
			if sets[0].value != tt.want {
				t.Errorf("transport received %v (%T), want %v", sets[0].value, sets[0].value, tt.want)
			}
		})
	}
}

func TestSendCommand_InvalidValueNeverReachesTransport(t *testing.T) {
	transport := &mockTransport{}
	c := newTestCoordinator(transport, newFakeClock())

	err := c.SendCommand(context.Background(), "start", "abc")
	if !errors.Is(err, zeo.ErrInvalidValue) {
		t.Fatalf("SendCommand(start, \"abc\") error = %v, want ErrInvalidValue", err)
	}
	if len(transport.setLog()) != 0 {
		t.Error("invalid value reached the transport")
	}
	if len(transport.queryLog()) != 0 {
		t.Error("failed command still triggered a refresh")
	}
}

func TestSendCommand_TransportFailure(t *testing.T) {
	transport := &mockTransport{}
	transport.setFn = func(zeo.Protocol, any) error {
		return errors.New("write rejected")
	}
	c := newTestCoordinator(transport, newFakeClock())

	err := c.SendCommand(context.Background(), "temp", 40)
	if !errors.Is(err, ErrCommandFailed) {
		t.Errorf("SendCommand error = %v, want ErrCommandFailed", err)
	}
	if len(transport.queryLog()) != 0 {
		t.Error("failed command still triggered a refresh")
	}
}

func TestSendCommand_TriggersRefresh(t *testing.T) {
	transport := &mockTransport{}
	c := newTestCoordinator(transport, newFakeClock())

	if err := c.SendCommand(context.Background(), "temp", 40); err != nil {
		t.Fatalf("SendCommand failed: %v", err)
	}

	// The follow-up refresh is the initial load here: one query per
	// readable key.
	if got := len(transport.queryLog()); got != len(zeo.Readable()) {
		t.Errorf("follow-up refresh issued %d queries, want %d", got, len(zeo.Readable()))
	}
	if !c.InitialLoadDone() {
		t.Error("command's follow-up refresh did not run the initial load")
	}
}

func TestQueryProtocol_BypassesTiering(t *testing.T) {
	transport := &mockTransport{}
	clock := newFakeClock()
	c := newTestCoordinator(transport, clock)
	ctx := context.Background()

	c.Refresh(ctx)
	before := len(transport.queryLog())

	var notified map[zeo.Protocol]any
	c.AddListener(func(changed map[zeo.Protocol]any) {
		notified = changed
	})

	// Freshly refreshed and not due, yet the query still goes out.
	v, err := c.QueryProtocol(ctx, "state")
	if err != nil {
		t.Fatalf("QueryProtocol failed: %v", err)
	}
	if v != "value-state" {
		t.Errorf("QueryProtocol(state) = %v, want \"value-state\"", v)
	}
	if len(transport.queryLog()) != before+1 {
		t.Error("QueryProtocol did not issue a transport query")
	}
	if notified == nil || notified[zeo.ProtocolState] != "value-state" {
		t.Errorf("listener not notified with merged value, got %v", notified)
	}
}

func TestQueryProtocol_UnknownKey(t *testing.T) {
	c := newTestCoordinator(&mockTransport{}, newFakeClock())

	if _, err := c.QueryProtocol(context.Background(), "bogus"); !errors.Is(err, zeo.ErrUnknownProtocol) {
		t.Errorf("QueryProtocol(bogus) error = %v, want ErrUnknownProtocol", err)
	}
}

func TestQueryProtocol_EmptyResult(t *testing.T) {
	transport := &mockTransport{}
	transport.queryFn = func([]zeo.Protocol) (any, error) {
		// Keyed response without the requested attribute.
		return map[zeo.Protocol]any{}, nil
	}
	c := newTestCoordinator(transport, newFakeClock())

	_, err := c.QueryProtocol(context.Background(), "state")
	if !errors.Is(err, ErrEmptyResult) {
		t.Errorf("QueryProtocol(state) error = %v, want ErrEmptyResult", err)
	}
	if _, ok := c.GetCachedValue(zeo.ProtocolState); ok {
		t.Error("empty result still reached the cache")
	}
}

func TestRefreshObserver_ReportsPassStats(t *testing.T) {
	transport := &mockTransport{}
	clock := newFakeClock()
	c := newTestCoordinator(transport, clock)
	ctx := context.Background()

	type passStats struct {
		queried   int
		succeeded bool
	}
	var mu sync.Mutex
	var passes []passStats
	c.SetRefreshObserver(func(queried int, succeeded bool) {
		mu.Lock()
		passes = append(passes, passStats{queried, succeeded})
		mu.Unlock()
	})

	c.Refresh(ctx)

	if len(passes) != 1 {
		t.Fatalf("observer fired %d times after initial load, want 1", len(passes))
	}
	if passes[0].queried != len(zeo.Readable()) || !passes[0].succeeded {
		t.Errorf("initial load stats = %+v, want %d queried and success", passes[0], len(zeo.Readable()))
	}

	// Frequent tier due: three protocols in one pass.
	clock.Advance(2 * time.Minute)
	c.Refresh(ctx)
	if len(passes) != 2 {
		t.Fatalf("observer fired %d times after tick, want 2", len(passes))
	}
	if passes[1].queried != 3 || !passes[1].succeeded {
		t.Errorf("tick stats = %+v, want 3 queried and success", passes[1])
	}

	// Outage tick reports failure.
	transport.mu.Lock()
	transport.queryFn = func([]zeo.Protocol) (any, error) {
		return nil, errors.New("transport down")
	}
	transport.mu.Unlock()

	clock.Advance(2 * time.Minute)
	c.Refresh(ctx)
	if last := passes[len(passes)-1]; last.succeeded {
		t.Errorf("outage tick stats = %+v, want failure", last)
	}
}

func TestListeners_FiredPerMerge(t *testing.T) {
	transport := &mockTransport{}
	clock := newFakeClock()
	c := newTestCoordinator(transport, clock)

	var mu sync.Mutex
	merges := 0
	c.AddListener(func(map[zeo.Protocol]any) {
		mu.Lock()
		merges++
		mu.Unlock()
	})

	c.Refresh(context.Background())

	// Initial load merges key-by-key.
	if merges != len(zeo.Readable()) {
		t.Errorf("listener fired %d times during initial load, want %d", merges, len(zeo.Readable()))
	}
}
