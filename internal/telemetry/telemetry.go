// Package telemetry uploads the latest valid reading and actuator state to
// the remote ingestion endpoint, at most once per configured interval.
package telemetry

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/enviro-monitor/internal/logic"
)

// Outcome is the result of a MaybeSend call.
type Outcome int

const (
	Skipped Outcome = iota
	Sent
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Sent:
		return "sent"
	case Failed:
		return "failed"
	default:
		return "skipped"
	}
}

// Indicator returns the display glyph for the outcome, or 0 when nothing
// should be shown.
func (o Outcome) Indicator() byte {
	switch o {
	case Sent:
		return '*'
	case Failed:
		return 'X'
	default:
		return 0
	}
}

// Transport delivers one record to the remote store.
type Transport interface {
	Send(ctx context.Context, rec Record) error
}

// Cursor is the upload timing state. LastSend is zero until the first attempt.
type Cursor struct {
	LastSend time.Time
}

// Due reports whether an attempt is allowed at now.
func (c Cursor) Due(now time.Time, interval time.Duration) bool {
	if c.LastSend.IsZero() {
		return true
	}
	return now.Sub(c.LastSend) >= interval
}

// Uploader rate-limits and sends telemetry. Not safe for concurrent use;
// it is owned by the control loop.
type Uploader struct {
	transport Transport
	interval  time.Duration
	timeout   time.Duration
	cursor    Cursor
	logger    *zap.Logger
}

// NewUploader creates an Uploader. timeout bounds every transport call.
func NewUploader(transport Transport, interval, timeout time.Duration, logger *zap.Logger) *Uploader {
	return &Uploader{
		transport: transport,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
	}
}

// MaybeSend transmits the reading and state if the interval has elapsed.
// The cursor advances on every attempt, successful or not; a failed upload
// is not retried before the next interval boundary.
func (u *Uploader) MaybeSend(ctx context.Context, reading logic.SensorReading, state logic.ActuatorState, now time.Time) Outcome {
	if !reading.Valid {
		return Skipped
	}
	if !u.cursor.Due(now, u.interval) {
		return Skipped
	}

	sendCtx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	err := u.transport.Send(sendCtx, NewRecord(reading, state))
	u.cursor.LastSend = now

	if err != nil {
		u.logger.Warn("telemetry upload failed", zap.Error(err))
		return Failed
	}
	u.logger.Debug("telemetry uploaded",
		zap.Float64("temperature", reading.Temperature),
		zap.Float64("humidity", reading.Humidity),
		zap.Int("light", reading.LightLevel))
	return Sent
}

// Cursor returns a copy of the upload cursor.
func (u *Uploader) Cursor() Cursor {
	return u.cursor
}
