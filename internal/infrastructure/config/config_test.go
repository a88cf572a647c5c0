package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
device:
  duid: "zeo-test-01"
  name: "Utility Room Washer"
  model: "roborock.wm.a102"
coordinator:
  frequent_interval: 60
  infrequent_interval: 21600
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8090
`
	cfg, err := Load(writeTestConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.DUID != "zeo-test-01" {
		t.Errorf("Device.DUID = %q, want %q", cfg.Device.DUID, "zeo-test-01")
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}

	if got := cfg.GetFrequentInterval(); got != time.Minute {
		t.Errorf("GetFrequentInterval() = %v, want %v", got, time.Minute)
	}

	if got := cfg.GetInfrequentInterval(); got != 6*time.Hour {
		t.Errorf("GetInfrequentInterval() = %v, want %v", got, 6*time.Hour)
	}
}

func TestLoad_Defaults(t *testing.T) {
	// Only the required fields; everything else should come from defaults.
	content := `
device:
  duid: "zeo-defaults"
`
	cfg, err := Load(writeTestConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Coordinator.FrequentInterval != 60 {
		t.Errorf("Coordinator.FrequentInterval = %d, want 60", cfg.Coordinator.FrequentInterval)
	}
	if cfg.Coordinator.InfrequentInterval != 21600 {
		t.Errorf("Coordinator.InfrequentInterval = %d, want 21600", cfg.Coordinator.InfrequentInterval)
	}
	if cfg.Gateway.Protocol != "zeo" {
		t.Errorf("Gateway.Protocol = %q, want %q", cfg.Gateway.Protocol, "zeo")
	}
	if cfg.MQTT.Broker.ClientID != "zeocore" {
		t.Errorf("MQTT.Broker.ClientID = %q, want %q", cfg.MQTT.Broker.ClientID, "zeocore")
	}
	if cfg.History.RetentionDays != 90 {
		t.Errorf("History.RetentionDays = %d, want 90", cfg.History.RetentionDays)
	}
	if got := cfg.GetHistoryRetention(); got != 90*24*time.Hour {
		t.Errorf("GetHistoryRetention() = %v, want 90 days", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeTestConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing duid",
			content: `
device:
  duid: ""
`,
		},
		{
			name: "infrequent shorter than frequent",
			content: `
device:
  duid: "zeo-test"
coordinator:
  frequent_interval: 120
  infrequent_interval: 60
`,
		},
		{
			name: "invalid qos",
			content: `
device:
  duid: "zeo-test"
mqtt:
  qos: 3
`,
		},
		{
			name: "negative retention",
			content: `
device:
  duid: "zeo-test"
history:
  retention_days: -1
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeTestConfig(t, tt.content))
			if err == nil {
				t.Error("Load() expected validation error, got nil")
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	content := `
device:
  duid: "zeo-from-file"
`
	t.Setenv("ZEOCORE_DEVICE_DUID", "zeo-from-env")
	t.Setenv("ZEOCORE_COORDINATOR_FREQUENT_INTERVAL", "30")

	cfg, err := Load(writeTestConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.DUID != "zeo-from-env" {
		t.Errorf("Device.DUID = %q, want env override %q", cfg.Device.DUID, "zeo-from-env")
	}
	if cfg.Coordinator.FrequentInterval != 30 {
		t.Errorf("Coordinator.FrequentInterval = %d, want 30", cfg.Coordinator.FrequentInterval)
	}
}
