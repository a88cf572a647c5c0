// Package influxdb provides time-series metric storage for Zeo Core.
//
// Numeric washer attributes (remaining time, countdown, cycle counters) are
// written to InfluxDB on every merge so dashboards can chart them over time.
// The integration is optional and config-gated; when disabled the rest of
// the system operates unchanged.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteAttributeMetric("zeo-01", "countdown", 1800)
//
// # Reliability
//
// Writes are batched and asynchronous; failures surface through the
// SetOnError callback rather than blocking the coordinator.
package influxdb
