package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for mqttcore.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Journal   JournalConfig   `yaml:"journal"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker  MQTTBrokerConfig  `yaml:"broker"`
	Auth    MQTTAuthConfig    `yaml:"auth"`
	Options MQTTOptionsConfig `yaml:"options"`
	QoS     int               `yaml:"qos"`
	Topics  []string          `yaml:"topics"`
	Consume MQTTConsumeConfig `yaml:"consume"`
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

// MQTTOptionsConfig contains connection behaviour settings.
//
// Absent keys keep the defaults: keep-alive 60s, clean session on,
// auto-reconnect on, connect timeout 10s.
type MQTTOptionsConfig struct {
	KeepAlive      int  `yaml:"keep_alive"`
	CleanSession   bool `yaml:"clean_session"`
	AutoReconnect  bool `yaml:"auto_reconnect"`
	ConnectTimeout int  `yaml:"connect_timeout"`
}

// MQTTConsumeConfig contains message consumption settings.
type MQTTConsumeConfig struct {
	// BufferSize is the maximum number of arrived messages held for
	// consumption. Arrivals beyond this are dropped with a warning.
	BufferSize int `yaml:"buffer_size"`
}

// JournalConfig contains the SQLite message journal settings.
type JournalConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// TelemetryConfig contains InfluxDB event telemetry settings.
type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
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
// Environment variables follow the pattern: MQTTCORE_SECTION_KEY
// For example: MQTTCORE_BROKER_HOST, MQTTCORE_AUTH_PASSWORD
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := Default()

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

// Default returns a Config with sensible defaults. The MQTT option
// defaults match the facade's documented behaviour: keep-alive 60s,
// clean session, automatic reconnect, 10s connect timeout, QoS 1.
func Default() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "mqttcore",
			},
			Options: MQTTOptionsConfig{
				KeepAlive:      60,
				CleanSession:   true,
				AutoReconnect:  true,
				ConnectTimeout: 10,
			},
			QoS: 1,
			Consume: MQTTConsumeConfig{
				BufferSize: 1024,
			},
		},
		Journal: JournalConfig{
			Path:        "./data/mqttcore.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Telemetry: TelemetryConfig{
			URL:           "http://localhost:8086",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: MQTTCORE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Broker
	if v := os.Getenv("MQTTCORE_BROKER_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("MQTTCORE_BROKER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("MQTTCORE_BROKER_CLIENT_ID"); v != "" {
		cfg.MQTT.Broker.ClientID = v
	}

	// Auth
	if v := os.Getenv("MQTTCORE_AUTH_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("MQTTCORE_AUTH_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Journal
	if v := os.Getenv("MQTTCORE_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}

	// Telemetry
	if v := os.Getenv("MQTTCORE_TELEMETRY_TOKEN"); v != "" {
		cfg.Telemetry.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Broker validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port <= 0 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.Broker.ClientID == "" {
		errs = append(errs, "mqtt.broker.client_id is required")
	}

	// Connection option validation
	if c.MQTT.Options.KeepAlive <= 0 {
		errs = append(errs, "mqtt.options.keep_alive must be positive")
	}
	if c.MQTT.Options.ConnectTimeout <= 0 {
		errs = append(errs, "mqtt.options.connect_timeout must be positive")
	}

	// QoS validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Consumption validation
	if c.MQTT.Consume.BufferSize <= 0 {
		errs = append(errs, "mqtt.consume.buffer_size must be positive")
	}

	// Journal validation
	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, "journal.path is required when journal is enabled")
	}

	// Telemetry validation
	if c.Telemetry.Enabled {
		if c.Telemetry.URL == "" {
			errs = append(errs, "telemetry.url is required when telemetry is enabled")
		}
		if c.Telemetry.Org == "" {
			errs = append(errs, "telemetry.org is required when telemetry is enabled")
		}
		if c.Telemetry.Bucket == "" {
			errs = append(errs, "telemetry.bucket is required when telemetry is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}
