package convert

import (
	"fmt"
	"sort"

	"github.com/fathomgrid/ingest-relay/internal/message"
)

// Entry is a single name/value attribute inside a blob section.
type Entry struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Blob is one ingestion envelope: a single metric sample with its
// static and dynamic attributes.
type Blob struct {
	Metrics []Entry `json:"metrics"`
	Static  []Entry `json:"static"`
	Dynamic []Entry `json:"dynamic"`
}

// MetricName builds the fully qualified name carried in a blob:
// "m.<app_id>.<metric>".
func MetricName(appID int64, metric string) string {
	return fmt.Sprintf("m.%d.%s", appID, metric)
}

// ToBlobs converts an authenticated payload into one blob per payload
// field.
//
// Metadata entries are shared across every blob as static attributes,
// joined by the field's display name and unit. The dynamic section
// carries the sample timestamp. Blobs are emitted in sorted field-name
// order so the output is deterministic.
//
// Parameters:
//   - appID: The resolved application id from the outbound message
//   - data: The sanitized payload
//
// Returns:
//   - []Blob: One blob per payload field, empty for a fieldless payload
func ToBlobs(appID int64, data message.Payload) []Blob {
	staticBase := make([]Entry, 0, len(data.Metadata))
	for _, key := range sortedKeys(data.Metadata) {
		staticBase = append(staticBase, Entry{Name: key, Value: data.Metadata[key]})
	}

	dynamic := []Entry{
		{Name: "timeStamp", Value: data.Time},
	}

	blobs := make([]Blob, 0, len(data.PayloadFields))
	for _, metric := range sortedFieldNames(data.PayloadFields) {
		field := data.PayloadFields[metric]

		static := make([]Entry, 0, len(staticBase)+2)
		static = append(static, staticBase...)
		static = append(static,
			Entry{Name: "displayName", Value: field.DisplayName},
			Entry{Name: "unit", Value: field.Unit},
		)

		blobs = append(blobs, Blob{
			Metrics: []Entry{
				{Name: MetricName(appID, metric), Value: field.Value},
			},
			Static:  static,
			Dynamic: dynamic,
		})
	}

	return blobs
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedFieldNames(m map[string]message.Field) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
