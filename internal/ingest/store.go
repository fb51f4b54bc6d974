// Package ingest is the server side of the telemetry contract: it accepts
// POST /sensor-data rows, stores them and serves them back.
package ingest

import (
	"context"
	"time"

	"github.com/sweeney/enviro-monitor/internal/telemetry"
)

// Row is a stored telemetry record with its server-assigned fields.
type Row struct {
	ID        string
	CreatedAt time.Time
	telemetry.Record
}

// Store persists rows.
type Store interface {
	Insert(ctx context.Context, rec telemetry.Record) (Row, error)
	List(ctx context.Context) ([]Row, error)
}

// LatestCache keeps the most recently inserted row.
type LatestCache interface {
	Put(ctx context.Context, row Row) error
	Latest(ctx context.Context) (Row, bool, error)
}

// encodeRow returns the JSON object for a row, naming the alarm LED column
// alarmField.
func encodeRow(row Row, alarmField string) map[string]any {
	return map[string]any{
		"id":              row.ID,
		"created_at":      row.CreatedAt.UTC().Format(time.RFC3339Nano),
		"temperature":     row.Temperature,
		"humidity":        row.Humidity,
		"light_intensity": row.LightIntensity,
		"fan":             row.Fan,
		"fan_led":         row.FanLED,
		"light":           row.Light,
		"light_led":       row.LightLED,
		alarmField:        row.AlarmLED,
		"buzzer":          row.Buzzer,
	}
}
