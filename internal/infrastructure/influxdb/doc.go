// Package influxdb provides InfluxDB connectivity for mqttcore.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, event telemetry writing, and health monitoring.
//
// # Purpose
//
// This package records one time-series point per dispatched callback
// event, giving an out-of-band view of broker traffic: connect and
// disconnect churn, arrival rates, payload sizes, action failures.
//
// # Usage
//
//	cfg := config.TelemetryConfig{
//	    Enabled: true,
//	    URL:     "http://localhost:8086",
//	    Token:   "your-token",
//	    Org:     "mqttcore",
//	    Bucket:  "events",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	facade.SetEventSink(client)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered via
// SetOnError. Connection and health check errors are returned directly.
package influxdb
