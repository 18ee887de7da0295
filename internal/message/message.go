package message

import (
	"encoding/json"
	"fmt"
)

// Field is one telemetry reading inside a payload.
//
// Value is a number for most metrics but string-valued readings do
// occur (status fields), so it stays loosely typed through the relay.
type Field struct {
	Value       any    `json:"value"`
	DisplayName string `json:"displayName"`
	Unit        string `json:"unit"`
}

// Payload is the telemetry body of a message.
//
// The same shape is used before and after sanitization; transformation
// rewrites metadata values and field keys but never adds or removes
// structure.
type Payload struct {
	AppName       string            `json:"app_name,omitempty"`
	Time          string            `json:"time"`
	Metadata      map[string]string `json:"metadata"`
	PayloadFields map[string]Field  `json:"payload_fields"`
}

// Inbound is a credentialed message from the public ingest topic.
type Inbound struct {
	AppName string  `json:"app_name"`
	Token   string  `json:"token"`
	Data    Payload `json:"data"`
}

// Outbound is an authenticated message for the downstream topic. The
// credential pair is replaced by the resolved application id.
type Outbound struct {
	AppID int64   `json:"app_id"`
	Data  Payload `json:"data"`
}

// inboundWire mirrors Inbound but keeps data raw so a missing data
// object can be told apart from an empty one.
type inboundWire struct {
	AppName string          `json:"app_name"`
	Token   string          `json:"token"`
	Data    json.RawMessage `json:"data"`
}

// Parse deserializes an inbound ingest payload.
//
// The required fields are app_name, token, and data. Anything that
// fails to decode or lacks one of them is reported as a wrapped
// ErrMalformedMessage.
//
// Parameters:
//   - raw: The JSON payload as received from the broker
//
// Returns:
//   - *Inbound: The parsed message
//   - error: Wrapped ErrMalformedMessage on any parse failure
func Parse(raw []byte) (*Inbound, error) {
	var wire inboundWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	if wire.AppName == "" {
		return nil, fmt.Errorf("%w: missing app_name", ErrMalformedMessage)
	}
	if wire.Token == "" {
		return nil, fmt.Errorf("%w: missing token", ErrMalformedMessage)
	}
	if len(wire.Data) == 0 {
		return nil, fmt.Errorf("%w: missing data", ErrMalformedMessage)
	}

	in := &Inbound{
		AppName: wire.AppName,
		Token:   wire.Token,
	}
	if err := json.Unmarshal(wire.Data, &in.Data); err != nil {
		return nil, fmt.Errorf("%w: invalid data: %w", ErrMalformedMessage, err)
	}

	return in, nil
}

// Clone returns a deep copy of the payload. Transformers operate on
// the copy so the original message is never mutated.
func (p Payload) Clone() Payload {
	out := Payload{
		AppName: p.AppName,
		Time:    p.Time,
	}
	if p.Metadata != nil {
		out.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			out.Metadata[k] = v
		}
	}
	if p.PayloadFields != nil {
		out.PayloadFields = make(map[string]Field, len(p.PayloadFields))
		for k, v := range p.PayloadFields {
			out.PayloadFields[k] = v
		}
	}
	return out
}

// FieldNames returns the payload field keys. Order is unspecified.
func (p Payload) FieldNames() []string {
	names := make([]string, 0, len(p.PayloadFields))
	for name := range p.PayloadFields {
		names = append(names, name)
	}
	return names
}
