package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// eventMeasurement is the measurement name for per-dispatch points.
const eventMeasurement = "mqtt_events"

// RecordEvent writes one observation for a dispatched callback event.
//
// This is the method behind the facade's telemetry sink: one point per
// dispatch, tagged with the event kind, carrying the message payload
// size (zero for non-message events). The write is non-blocking; data
// is batched and sent asynchronously.
//
// Parameters:
//   - event: The callback event name (e.g., "MESSAGE_ARRIVED")
//   - payloadBytes: Message payload size for arrivals, zero otherwise
func (c *Client) RecordEvent(event string, payloadBytes int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		eventMeasurement,
		map[string]string{
			"event": event,
		},
		map[string]interface{}{
			"count":         1,
			"payload_bytes": payloadBytes,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit RecordEvent.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("consumption",
//	    map[string]string{"client_id": "mqttcore-01"},
//	    map[string]interface{}{"queued": 12})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
