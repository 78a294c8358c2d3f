package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
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
mqtt:
  broker:
    host: "broker.local"
    port: 8883
    tls: true
    client_id: "test-client"
  qos: 2
journal:
  enabled: true
  path: "/tmp/test.db"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker.Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.QoS != 2 {
		t.Errorf("MQTT.QoS = %d, want 2", cfg.MQTT.QoS)
	}
	if !cfg.Journal.Enabled {
		t.Error("Journal.Enabled = false, want true")
	}
}

func TestLoad_DefaultsPreserved(t *testing.T) {
	// A minimal file must keep the documented option defaults.
	content := `
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "c1"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Options.KeepAlive != 60 {
		t.Errorf("Options.KeepAlive = %d, want 60", cfg.MQTT.Options.KeepAlive)
	}
	if !cfg.MQTT.Options.CleanSession {
		t.Error("Options.CleanSession = false, want true")
	}
	if !cfg.MQTT.Options.AutoReconnect {
		t.Error("Options.AutoReconnect = false, want true")
	}
	if cfg.MQTT.Options.ConnectTimeout != 10 {
		t.Errorf("Options.ConnectTimeout = %d, want 10", cfg.MQTT.Options.ConnectTimeout)
	}
	if cfg.MQTT.QoS != 1 {
		t.Errorf("QoS = %d, want 1", cfg.MQTT.QoS)
	}
	if cfg.MQTT.Consume.BufferSize != 1024 {
		t.Errorf("Consume.BufferSize = %d, want 1024", cfg.MQTT.Consume.BufferSize)
	}
}

func TestLoad_ExplicitFalseOverridesDefault(t *testing.T) {
	content := `
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "c1"
  options:
    keep_alive: 30
    clean_session: false
    auto_reconnect: false
    connect_timeout: 5
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Options.CleanSession {
		t.Error("Options.CleanSession = true, want false")
	}
	if cfg.MQTT.Options.AutoReconnect {
		t.Error("Options.AutoReconnect = true, want false")
	}
	if cfg.MQTT.Options.KeepAlive != 30 {
		t.Errorf("Options.KeepAlive = %d, want 30", cfg.MQTT.Options.KeepAlive)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "mqtt: [not a mapping"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MQTTCORE_BROKER_HOST", "env-broker")
	t.Setenv("MQTTCORE_BROKER_PORT", "2883")
	t.Setenv("MQTTCORE_AUTH_PASSWORD", "env-secret")

	content := `
mqtt:
  broker:
    host: "file-broker"
    port: 1883
    client_id: "c1"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "env-broker" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "env-broker")
	}
	if cfg.MQTT.Broker.Port != 2883 {
		t.Errorf("MQTT.Broker.Port = %d, want 2883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.Auth.Password != "env-secret" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "env-secret")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "empty broker host",
			mutate:  func(c *Config) { c.MQTT.Broker.Host = "" },
			wantErr: "mqtt.broker.host",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.MQTT.Broker.Port = 70000 },
			wantErr: "mqtt.broker.port",
		},
		{
			name:    "empty client id",
			mutate:  func(c *Config) { c.MQTT.Broker.ClientID = "" },
			wantErr: "mqtt.broker.client_id",
		},
		{
			name:    "qos out of range",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "zero consume buffer",
			mutate:  func(c *Config) { c.MQTT.Consume.BufferSize = 0 },
			wantErr: "mqtt.consume.buffer_size",
		},
		{
			name: "journal enabled without path",
			mutate: func(c *Config) {
				c.Journal.Enabled = true
				c.Journal.Path = ""
			},
			wantErr: "journal.path",
		},
		{
			name: "telemetry enabled without org",
			mutate: func(c *Config) {
				c.Telemetry.Enabled = true
				c.Telemetry.Bucket = "events"
			},
			wantErr: "telemetry.org",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
