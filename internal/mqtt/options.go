package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/duyld15/mqttcore/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultQoS is the quality-of-service level used when config does
	// not supply one.
	defaultQoS = 1

	// maxQoS is the maximum QoS level the protocol defines.
	maxQoS = 2

	// defaultDisconnectQuiesce is how long a local disconnect lets
	// in-flight work settle before the network loop stops.
	defaultDisconnectQuiesce = 5 * time.Second

	// defaultConsumeBuffer bounds the consumption queue when config does
	// not supply a size.
	defaultConsumeBuffer = 1024

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// MQTT reason codes surfaced through DisconnectInfo and ProtocolError.
const (
	// ReasonNormalDisconnection is the reason code attached to the
	// Disconnected event synthesized for a local disconnect.
	ReasonNormalDisconnection = 0x00

	// ReasonQoSNotSupported is the reason code recorded when a
	// subscribe or publish names a QoS outside {0, 1, 2}.
	ReasonQoSNotSupported = 0x9B
)

// buildClientOptions creates paho MQTT options from mqttcore config.
//
// This configures:
//   - Broker URL (tcp:// or ssl:// based on TLS setting)
//   - Client ID for identification
//   - Authentication credentials (if provided)
//   - Keep-alive, clean session, auto-reconnect, connect timeout
//   - TLS configuration (if enabled)
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	// Broker URL
	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	brokerURL := fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port)
	opts.AddBroker(brokerURL)

	// Client identification
	opts.SetClientID(cfg.Broker.ClientID)

	// Authentication (if credentials provided)
	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	// Connection behaviour. Validate() guarantees the durations are
	// positive, so zero-value configs fall back to Default() upstream.
	opts.SetKeepAlive(time.Duration(cfg.Options.KeepAlive) * time.Second)
	opts.SetCleanSession(cfg.Options.CleanSession)
	opts.SetAutoReconnect(cfg.Options.AutoReconnect)
	opts.SetConnectTimeout(time.Duration(cfg.Options.ConnectTimeout) * time.Second)

	// TLS configuration if enabled
	if cfg.Broker.TLS {
		tlsConfig := &tls.Config{
			MinVersion: tlsMinVersion,
		}
		opts.SetTLSConfig(tlsConfig)
	}

	return opts
}
