package gateway

import (
	"testing"
)

type healthTopicsStub struct{}

func (healthTopicsStub) GatewayHealth(family string) string {
	return "zeocore/gateway/" + family + "/health"
}

func TestHealthMonitor_HeartbeatMarksOnline(t *testing.T) {
	ps := newRecordingPubSub()
	monitor := NewHealthMonitor(ps, healthTopicsStub{}, "zeo", 1)

	if err := monitor.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if monitor.Online() {
		t.Error("monitor online before any health message")
	}

	handler := ps.handlers["zeocore/gateway/zeo/health"]
	if handler == nil {
		t.Fatal("monitor did not subscribe to the health topic")
	}

	if err := handler("zeocore/gateway/zeo/health", []byte(`{"status":"online"}`)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !monitor.Online() {
		t.Error("monitor offline after online status")
	}
	if _, ok := monitor.LastSeen(); !ok {
		t.Error("LastSeen not recorded")
	}
}

func TestHealthMonitor_OfflineStatus(t *testing.T) {
	ps := newRecordingPubSub()
	monitor := NewHealthMonitor(ps, healthTopicsStub{}, "zeo", 1)

	if err := monitor.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	handler := ps.handlers["zeocore/gateway/zeo/health"]

	if err := handler("zeocore/gateway/zeo/health", []byte(`{"status":"online"}`)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if err := handler("zeocore/gateway/zeo/health", []byte(`{"status":"offline"}`)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if monitor.Online() {
		t.Error("monitor still online after offline status")
	}
}

func TestHealthMonitor_NonJSONPayloadIsHeartbeat(t *testing.T) {
	ps := newRecordingPubSub()
	monitor := NewHealthMonitor(ps, healthTopicsStub{}, "zeo", 1)

	if err := monitor.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	handler := ps.handlers["zeocore/gateway/zeo/health"]

	if err := handler("zeocore/gateway/zeo/health", []byte("alive")); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !monitor.Online() {
		t.Error("non-JSON heartbeat did not mark the gateway online")
	}
}
