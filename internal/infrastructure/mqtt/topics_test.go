package mqtt

import "testing"

func TestTopics(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"attribute state", topics.AttributeState("zeo", "countdown"), "zeocore/state/zeo/countdown"},
		{"command", topics.Command("zeo", "temp"), "zeocore/command/zeo/temp"},
		{"all commands wildcard", topics.AllCommands("zeo"), "zeocore/command/zeo/+"},
		{"gateway request", topics.GatewayRequest("zeo", "req-abc123"), "zeocore/request/zeo/req-abc123"},
		{"gateway response", topics.GatewayResponse("zeo", "req-abc123"), "zeocore/response/zeo/req-abc123"},
		{"gateway health", topics.GatewayHealth("zeo"), "zeocore/health/zeo"},
		{"system status", topics.SystemStatus(), "zeocore/system/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestPublish_Validation(t *testing.T) {
	// A zero-value client is never connected; validation errors must fire
	// before any broker interaction.
	c := &Client{}

	if err := c.Publish("", []byte("x"), 1, false); err != ErrInvalidTopic {
		t.Errorf("Publish(empty topic) error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Publish("zeocore/state/zeo/state", []byte("x"), 3, false); err != ErrInvalidQoS {
		t.Errorf("Publish(qos 3) error = %v, want ErrInvalidQoS", err)
	}
	if err := c.Publish("zeocore/state/zeo/state", []byte("x"), 1, false); err != ErrNotConnected {
		t.Errorf("Publish(disconnected) error = %v, want ErrNotConnected", err)
	}
}

func TestSubscribe_Validation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	if err := c.Subscribe("", 1, func(string, []byte) error { return nil }); err != ErrInvalidTopic {
		t.Errorf("Subscribe(empty topic) error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Subscribe("zeocore/command/zeo/+", 1, nil); err == nil {
		t.Error("Subscribe(nil handler) expected error, got nil")
	}
	if err := c.Subscribe("zeocore/command/zeo/+", 1, func(string, []byte) error { return nil }); err != ErrNotConnected {
		t.Errorf("Subscribe(disconnected) error = %v, want ErrNotConnected", err)
	}
	if got := c.SubscriptionCount(); got != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0 after failed subscribes", got)
	}
}
