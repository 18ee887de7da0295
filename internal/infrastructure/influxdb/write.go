package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteMetric writes one telemetry sample to InfluxDB.
//
// This is the primary method used by irtransform: one point per
// metric in a converted blob. The write is non-blocking; data is
// batched and sent asynchronously.
//
// Parameters:
//   - appID: Resolved application identifier owning the metric
//   - metric: Sanitized metric name (e.g. "Reactive_Power_kVAR_")
//   - value: The sample value
//   - timestamp: The sample time from the message payload
//
// Example:
//
//	client.WriteMetric("42", "temperature", 21.5, sampleTime)
func (c *Client) WriteMetric(appID string, metric string, value float64, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"telemetry",
		map[string]string{
			"app_id": appID,
			"metric": metric,
		},
		map[string]interface{}{
			"value": value,
		},
		timestamp,
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit WriteMetric, such as blob
// metadata written alongside the samples.
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//   - timestamp: The exact time for this data point
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
