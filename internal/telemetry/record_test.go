package telemetry

import (
	"errors"
	"testing"
)

func TestParseRecordRoundTripsFormatPayload(t *testing.T) {
	for _, field := range []string{"", "alarm_led"} {
		payload, err := FormatPayload(sampleRecord(), field)
		if err != nil {
			t.Fatalf("FormatPayload: %v", err)
		}
		got, err := ParseRecord(payload, field)
		if err != nil {
			t.Fatalf("ParseRecord(%q): %v", field, err)
		}
		if got != sampleRecord() {
			t.Errorf("alarm field %q: got %+v, want %+v", field, got, sampleRecord())
		}
	}
}

func TestParseRecordOptionalFlags(t *testing.T) {
	rec, err := ParseRecord([]byte(`{"temperature":22.5,"humidity":40,"light_intensity":800,"extra":"ignored"}`), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Temperature != 22.5 || rec.LightIntensity != 800 {
		t.Errorf("got %+v", rec)
	}
	if rec.Fan || rec.Buzzer || rec.AlarmLED {
		t.Errorf("missing flags should read false, got %+v", rec)
	}
}

func TestParseRecordInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `temperature=20`},
		{"array", `[1,2,3]`},
		{"missing temperature", `{"humidity":40,"light_intensity":800}`},
		{"missing light", `{"temperature":20,"humidity":40}`},
		{"null temperature", `{"temperature":null,"humidity":40,"light_intensity":800}`},
		{"null humidity", `{"temperature":20,"humidity":null,"light_intensity":800}`},
		{"null light", `{"temperature":20,"humidity":40,"light_intensity":null}`},
		{"all null", `{"temperature":null,"humidity":null,"light_intensity":null}`},
		{"string temperature", `{"temperature":"hot","humidity":40,"light_intensity":800}`},
		{"fractional light", `{"temperature":20,"humidity":40,"light_intensity":1.5}`},
		{"non-bool fan", `{"temperature":20,"humidity":40,"light_intensity":1,"fan":"yes"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecord([]byte(tt.body), "")
			if !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("got %v, want ErrInvalidRecord", err)
			}
		})
	}
}

func TestParseRecordUsesConfiguredAlarmField(t *testing.T) {
	body := []byte(`{"temperature":20,"humidity":40,"light_intensity":1,"alram_led":true,"alarm_led":false}`)

	rec, _ := ParseRecord(body, "")
	if !rec.AlarmLED {
		t.Error("default field alram_led should be read")
	}
	rec, _ = ParseRecord(body, "alarm_led")
	if rec.AlarmLED {
		t.Error("configured field alarm_led should be read instead")
	}
}
