package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Zeo Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device      DeviceConfig      `yaml:"device"`
	Coordinator CoordinatorConfig `yaml:"coordinator"`
	Gateway     GatewayConfig     `yaml:"gateway"`
	Database    DatabaseConfig    `yaml:"database"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	API         APIConfig         `yaml:"api"`
	WebSocket   WebSocketConfig   `yaml:"websocket"`
	InfluxDB    InfluxDBConfig    `yaml:"influxdb"`
	History     HistoryConfig     `yaml:"history"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// DeviceConfig identifies the washer this instance coordinates.
// One Zeo Core process owns exactly one device.
type DeviceConfig struct {
	// DUID is the device unique identifier assigned by the vendor cloud.
	DUID string `yaml:"duid"`

	// Name is the human-readable device name.
	Name string `yaml:"name"`

	// Model is the device model string (e.g. "roborock.wm.a102").
	Model string `yaml:"model"`

	// FirmwareVersion is the reported firmware version, if known.
	FirmwareVersion string `yaml:"firmware_version"`
}

// CoordinatorConfig contains refresh scheduling settings.
//
// Intervals are expressed in seconds and apply process-wide; they are not
// tunable per attribute.
type CoordinatorConfig struct {
	// FrequentInterval is the minimum age before a frequent-tier attribute
	// is re-queried (seconds). Default: 60.
	FrequentInterval int `yaml:"frequent_interval"`

	// InfrequentInterval is the minimum age before an infrequent-tier
	// attribute is re-queried (seconds). Default: 21600 (6 hours).
	InfrequentInterval int `yaml:"infrequent_interval"`
}

// GatewayConfig contains settings for the MQTT gateway transport.
type GatewayConfig struct {
	// Protocol is the gateway protocol segment used in request/response
	// topics. Default: "zeo".
	Protocol string `yaml:"protocol"`

	// RequestTimeout is the maximum time to wait for a gateway response
	// to a single query or set request (seconds). Default: 10.
	RequestTimeout int `yaml:"request_timeout"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// HistoryConfig contains attribute history settings.
type HistoryConfig struct {
	// Enabled controls whether merges are recorded to the history table.
	Enabled bool `yaml:"enabled"`

	// RetentionDays prunes history rows older than this many days.
	// Zero disables pruning and keeps rows forever. Default: 90.
	RetentionDays int `yaml:"retention_days"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: ZEOCORE_SECTION_KEY
// For example: ZEOCORE_DATABASE_PATH, ZEOCORE_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Name:  "Zeo Washer",
			Model: "unknown",
		},
		Coordinator: CoordinatorConfig{
			FrequentInterval:   60,
			InfrequentInterval: 21600,
		},
		Gateway: GatewayConfig{
			Protocol:       "zeo",
			RequestTimeout: 10,
		},
		Database: DatabaseConfig{
			Path:        "./data/zeocore.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "zeocore",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		History: HistoryConfig{
			Enabled:       true,
			RetentionDays: 90,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: ZEOCORE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Device
	if v := os.Getenv("ZEOCORE_DEVICE_DUID"); v != "" {
		cfg.Device.DUID = v
	}

	// Coordinator
	if v := os.Getenv("ZEOCORE_COORDINATOR_FREQUENT_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Coordinator.FrequentInterval = n
		}
	}
	if v := os.Getenv("ZEOCORE_COORDINATOR_INFREQUENT_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Coordinator.InfrequentInterval = n
		}
	}

	// Database
	if v := os.Getenv("ZEOCORE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("ZEOCORE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("ZEOCORE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("ZEOCORE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("ZEOCORE_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("ZEOCORE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Device validation
	if c.Device.DUID == "" {
		errs = append(errs, "device.duid is required")
	}

	// Coordinator validation
	if c.Coordinator.FrequentInterval < 1 {
		errs = append(errs, "coordinator.frequent_interval must be at least 1 second")
	}
	if c.Coordinator.InfrequentInterval < c.Coordinator.FrequentInterval {
		errs = append(errs, "coordinator.infrequent_interval must not be shorter than coordinator.frequent_interval")
	}

	// Gateway validation
	if c.Gateway.RequestTimeout < 1 {
		errs = append(errs, "gateway.request_timeout must be at least 1 second")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// History validation
	if c.History.RetentionDays < 0 {
		errs = append(errs, "history.retention_days must not be negative")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetFrequentInterval returns the frequent-tier refresh interval as a Duration.
func (c *Config) GetFrequentInterval() time.Duration {
	return time.Duration(c.Coordinator.FrequentInterval) * time.Second
}

// GetInfrequentInterval returns the infrequent-tier refresh interval as a Duration.
func (c *Config) GetInfrequentInterval() time.Duration {
	return time.Duration(c.Coordinator.InfrequentInterval) * time.Second
}

// GetRequestTimeout returns the gateway request timeout as a Duration.
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.Gateway.RequestTimeout) * time.Second
}

// GetHistoryRetention returns the history retention window as a Duration.
// Zero means pruning is disabled.
func (c *Config) GetHistoryRetention() time.Duration {
	return time.Duration(c.History.RetentionDays) * 24 * time.Hour
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
