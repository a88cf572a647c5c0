package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteAttributeMetric writes a single numeric attribute observation.
//
// This is the primary method for recording washer telemetry. The write is
// non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - duid: Device unique identifier
//   - attribute: The attribute key (e.g. "countdown", "washing_left")
//   - value: The numeric value observed
//
// Example:
//
//	client.WriteAttributeMetric("zeo-01", "washing_left", 42)
func (c *Client) WriteAttributeMetric(duid string, attribute string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"washer_attributes",
		map[string]string{
			"duid":      duid,
			"attribute": attribute,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteRefreshMetric records the outcome of one scheduler tick.
//
// Used to track refresh health over time: how many attributes were queried
// and whether the tick completed without a tick-wide failure.
//
// Parameters:
//   - duid: Device unique identifier
//   - queried: Number of attributes queried during the tick
//   - succeeded: Whether the tick completed successfully
func (c *Client) WriteRefreshMetric(duid string, queried int, succeeded bool) {
	if !c.IsConnected() {
		return
	}

	success := 0.0
	if succeeded {
		success = 1.0
	}

	point := write.NewPoint(
		"refresh_ticks",
		map[string]string{
			"duid": duid,
		},
		map[string]interface{}{
			"queried": queried,
			"success": success,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
