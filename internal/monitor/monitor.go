// Package monitor runs one control tick at a time: sample, decide, actuate,
// display, upload. A tick depends only on the reading taken during it.
package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/enviro-monitor/internal/display"
	"github.com/sweeney/enviro-monitor/internal/logic"
	"github.com/sweeney/enviro-monitor/internal/metrics"
	"github.com/sweeney/enviro-monitor/internal/mqtt"
	"github.com/sweeney/enviro-monitor/internal/status"
	"github.com/sweeney/enviro-monitor/internal/telemetry"
)

// Sampler produces one reading per call.
type Sampler interface {
	Read() logic.SensorReading
}

// Actuators applies a computed state to the outputs.
type Actuators interface {
	Apply(state logic.ActuatorState) error
}

// Uploader rate-limits and sends telemetry.
type Uploader interface {
	MaybeSend(ctx context.Context, reading logic.SensorReading, state logic.ActuatorState, now time.Time) telemetry.Outcome
}

// Deps are the collaborators of a Monitor. Publisher, Tracker and Metrics
// are optional side channels; a nil value disables them.
type Deps struct {
	Sensor    Sampler
	Actuators Actuators
	Display   display.Presenter
	Uploader  Uploader

	Publisher mqtt.Publisher
	Tracker   *status.Tracker
	Metrics   *metrics.Metrics

	Now    func() time.Time
	Logger *zap.Logger
}

// Monitor owns the per-tick orchestration.
type Monitor struct {
	d        Deps
	detector *logic.Detector
	logger   *zap.Logger
}

// New creates a Monitor. Now defaults to time.Now and Logger to a no-op.
func New(d Deps) *Monitor {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Monitor{
		d:        d,
		detector: logic.NewDetector(d.Now()),
		logger:   d.Logger,
	}
}

// Init drives every output to its logical-off level and shows the ready screen.
func (m *Monitor) Init() error {
	if err := m.d.Actuators.Apply(logic.ActuatorState{}); err != nil {
		return err
	}
	m.present("System Ready", "")
	return nil
}

// Tick performs one control cycle and returns the resulting mode.
// An invalid reading presents the error screen and skips actuation and
// telemetry entirely.
func (m *Monitor) Tick(ctx context.Context) logic.Mode {
	start := m.d.Now()
	r := m.d.Sensor.Read()
	mode := logic.ModeOf(r)

	if mode == logic.ModeError {
		m.present(display.ErrorLines())
		m.logger.Warn("sensor read failed, skipping tick")
		if m.d.Tracker != nil {
			m.d.Tracker.UpdateError(start)
		}
		m.observeTick(mode, start)
		return mode
	}

	m.logger.Info("reading",
		zap.Float64("temperature", r.Temperature),
		zap.Float64("humidity", r.Humidity),
		zap.Int("light", r.LightLevel))

	state := logic.Decide(r)
	if err := m.d.Actuators.Apply(state); err != nil {
		m.logger.Error("apply actuators", zap.Error(err))
		if m.d.Metrics != nil {
			m.d.Metrics.ApplyError()
		}
	}

	m.present(display.ReadingLines(r))

	outcome := m.d.Uploader.MaybeSend(ctx, r, state, start)
	if glyph := outcome.Indicator(); glyph != 0 {
		if err := m.d.Display.Mark(display.IndicatorColumn, glyph); err != nil {
			m.logger.Debug("display mark", zap.Error(err))
		}
	}

	m.sideChannels(r, state, outcome, start)
	m.observeTick(mode, start)
	return mode
}

// sideChannels feeds transition events, status and metrics. None of it
// influences the next tick.
func (m *Monitor) sideChannels(r logic.SensorReading, state logic.ActuatorState, outcome telemetry.Outcome, now time.Time) {
	events := m.detector.Process(r, state, now)
	for _, event := range events {
		m.logger.Info("transition", zap.String("event", string(event.Type)))
		if m.d.Metrics != nil {
			m.d.Metrics.Transition(event.Type)
		}
		if m.d.Publisher != nil {
			if err := m.d.Publisher.Publish(event); err != nil {
				m.logger.Warn("publish transition", zap.String("event", string(event.Type)), zap.Error(err))
			}
		}
	}

	if m.d.Tracker != nil {
		m.d.Tracker.UpdateActive(r, state, m.detector.EventCountsSnapshot())
		m.d.Tracker.RecordSend(outcome.String(), now)
	}
	if m.d.Metrics != nil {
		m.d.Metrics.Reading(r, state)
		if outcome != telemetry.Skipped {
			m.d.Metrics.Send(outcome.String())
		}
	}
}

func (m *Monitor) observeTick(mode logic.Mode, start time.Time) {
	if m.d.Metrics != nil {
		m.d.Metrics.Tick(string(mode), start, m.d.Now())
	}
}

func (m *Monitor) present(line1, line2 string) {
	if err := m.d.Display.Present(line1, line2); err != nil {
		m.logger.Debug("display present", zap.Error(err))
	}
}

// Run ticks on every value from tick until ctx is cancelled or tick closes.
func (m *Monitor) Run(ctx context.Context, tick <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-tick:
			if !ok {
				return nil
			}
			m.Tick(ctx)
		}
	}
}

// CheckHeartbeat reports heartbeat data when the interval has elapsed.
func (m *Monitor) CheckHeartbeat(now time.Time, interval time.Duration) *logic.HeartbeatData {
	return m.detector.CheckHeartbeat(now, interval)
}

// Counts returns the transition counts since startup.
func (m *Monitor) Counts() logic.EventCounts {
	return m.detector.EventCountsSnapshot()
}
