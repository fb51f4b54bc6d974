package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sweeney/enviro-monitor/internal/logic"
)

// DefaultAlarmField is the alarm LED column name of the deployed ingestion
// schema, misspelling included.
const DefaultAlarmField = "alram_led"

// ErrInvalidRecord is returned by ParseRecord for malformed bodies.
var ErrInvalidRecord = errors.New("invalid record")

// Record is one telemetry row as sent to the ingestion endpoint.
// The server assigns id and created_at.
type Record struct {
	Temperature    float64
	Humidity       float64
	LightIntensity int
	Fan            bool
	FanLED         bool
	Light          bool
	LightLED       bool
	AlarmLED       bool
	Buzzer         bool
}

// NewRecord builds a record from a reading and the state applied for it.
func NewRecord(r logic.SensorReading, s logic.ActuatorState) Record {
	return Record{
		Temperature:    r.Temperature,
		Humidity:       r.Humidity,
		LightIntensity: r.LightLevel,
		Fan:            s.Fan,
		FanLED:         s.FanIndicator,
		Light:          s.Light,
		LightLED:       s.LightIndicator,
		AlarmLED:       s.AlarmIndicator,
		Buzzer:         s.Buzzer,
	}
}

// FormatPayload creates the JSON body for a record. alarmField names the
// alarm LED key; empty means DefaultAlarmField.
func FormatPayload(rec Record, alarmField string) ([]byte, error) {
	if alarmField == "" {
		alarmField = DefaultAlarmField
	}
	return json.Marshal(map[string]any{
		"temperature":     rec.Temperature,
		"humidity":        rec.Humidity,
		"light_intensity": rec.LightIntensity,
		"fan":             rec.Fan,
		"fan_led":         rec.FanLED,
		"light":           rec.Light,
		"light_led":       rec.LightLED,
		alarmField:        rec.AlarmLED,
		"buzzer":          rec.Buzzer,
	})
}

// ParseRecord decodes a JSON body produced by FormatPayload. The numeric
// fields are required and must not be null; light_intensity is a whole ADC
// count. Missing flags read as false and unknown keys are ignored.
func ParseRecord(data []byte, alarmField string) (Record, error) {
	if alarmField == "" {
		alarmField = DefaultAlarmField
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	var rec Record
	fields := []struct {
		key      string
		dst      any
		required bool
	}{
		{"temperature", &rec.Temperature, true},
		{"humidity", &rec.Humidity, true},
		{"light_intensity", &rec.LightIntensity, true},
		{"fan", &rec.Fan, false},
		{"fan_led", &rec.FanLED, false},
		{"light", &rec.Light, false},
		{"light_led", &rec.LightLED, false},
		{alarmField, &rec.AlarmLED, false},
		{"buzzer", &rec.Buzzer, false},
	}
	for _, f := range fields {
		v, ok := raw[f.key]
		if !ok {
			if f.required {
				return Record{}, fmt.Errorf("%w: missing %s", ErrInvalidRecord, f.key)
			}
			continue
		}
		if f.required && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return Record{}, fmt.Errorf("%w: %s is null", ErrInvalidRecord, f.key)
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			return Record{}, fmt.Errorf("%w: %s: %v", ErrInvalidRecord, f.key, err)
		}
	}
	return rec, nil
}
