package message_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/fathomgrid/ingest-relay/internal/message"
)

const validRaw = `{
	"app_name": "dev1",
	"token": "tok-abc",
	"data": {
		"time": "2024-01-01T00:00:00Z",
		"metadata": {"loc": "bldg-1"},
		"payload_fields": {
			"power (kW)": {"value": 4.17, "displayName": "power", "unit": "kW"}
		}
	}
}`

func TestParse(t *testing.T) {
	in, err := message.Parse([]byte(validRaw))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if in.AppName != "dev1" {
		t.Errorf("AppName = %q, want %q", in.AppName, "dev1")
	}
	if in.Token != "tok-abc" {
		t.Errorf("Token = %q, want %q", in.Token, "tok-abc")
	}
	if in.Data.Time != "2024-01-01T00:00:00Z" {
		t.Errorf("Data.Time = %q", in.Data.Time)
	}
	if in.Data.Metadata["loc"] != "bldg-1" {
		t.Errorf("Metadata[loc] = %q", in.Data.Metadata["loc"])
	}

	field, ok := in.Data.PayloadFields["power (kW)"]
	if !ok {
		t.Fatal("PayloadFields missing 'power (kW)'")
	}
	if field.Value != 4.17 {
		t.Errorf("field.Value = %v, want 4.17", field.Value)
	}
	if field.DisplayName != "power" || field.Unit != "kW" {
		t.Errorf("field = %+v", field)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"invalid json", `{not json`},
		{"missing app_name", `{"token":"t","data":{"time":"2024-01-01T00:00:00Z"}}`},
		{"missing token", `{"app_name":"dev1","data":{"time":"2024-01-01T00:00:00Z"}}`},
		{"missing data", `{"app_name":"dev1","token":"t"}`},
		{"data wrong type", `{"app_name":"dev1","token":"t","data":"nope"}`},
		{"empty object", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := message.Parse([]byte(tt.raw))
			if !errors.Is(err, message.ErrMalformedMessage) {
				t.Errorf("Parse() error = %v, want ErrMalformedMessage", err)
			}
		})
	}
}

func TestParse_StringValue(t *testing.T) {
	raw := `{"app_name":"dev1","token":"t","data":{
		"time":"2024-01-01T00:00:00Z",
		"payload_fields":{"status":{"value":"running","displayName":"status","unit":""}}
	}}`

	in, err := message.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if in.Data.PayloadFields["status"].Value != "running" {
		t.Errorf("Value = %v, want %q", in.Data.PayloadFields["status"].Value, "running")
	}
}

func TestPayload_Clone(t *testing.T) {
	in, err := message.Parse([]byte(validRaw))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	clone := in.Data.Clone()
	clone.Metadata["loc"] = "changed"
	clone.PayloadFields["extra"] = message.Field{Value: 1.0}

	if in.Data.Metadata["loc"] != "bldg-1" {
		t.Error("Clone() shares metadata map with original")
	}
	if _, ok := in.Data.PayloadFields["extra"]; ok {
		t.Error("Clone() shares payload fields map with original")
	}
}

func TestOutbound_JSON(t *testing.T) {
	out := message.Outbound{
		AppID: 42,
		Data: message.Payload{
			AppName: "dev1",
			Time:    "2024-01-01T00:00:00Z",
		},
	}

	raw, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded["app_id"] != float64(42) {
		t.Errorf("app_id = %v, want 42", decoded["app_id"])
	}
}

func TestFieldNames(t *testing.T) {
	in, err := message.Parse([]byte(validRaw))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	names := in.Data.FieldNames()
	if len(names) != 1 || names[0] != "power (kW)" {
		t.Errorf("FieldNames() = %v", names)
	}
}
