package monitor

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sweeney/enviro-monitor/internal/actuator"
	"github.com/sweeney/enviro-monitor/internal/display"
	"github.com/sweeney/enviro-monitor/internal/gpio"
	"github.com/sweeney/enviro-monitor/internal/logic"
	"github.com/sweeney/enviro-monitor/internal/metrics"
	"github.com/sweeney/enviro-monitor/internal/mqtt"
	"github.com/sweeney/enviro-monitor/internal/sensor"
	"github.com/sweeney/enviro-monitor/internal/status"
	"github.com/sweeney/enviro-monitor/internal/telemetry"
)

// clock is a manually advanced time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type harness struct {
	clock     *clock
	climate   *gpio.FakeClimate
	analog    *gpio.FakeAnalog
	outputs   *gpio.FakeOutputs
	transport *telemetry.FakeTransport
	display   *display.Fake
	publisher *mqtt.FakePublisher
	tracker   *status.Tracker
	registry  *prometheus.Registry
	logs      *observer.ObservedLogs
	monitor   *Monitor
}

func newHarness(t *testing.T, sendInterval time.Duration, samples []gpio.ClimateSample, light ...int) *harness {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	h := &harness{
		clock:     &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)},
		climate:   gpio.NewFakeClimate(samples...),
		analog:    gpio.NewFakeAnalog(light...),
		outputs:   gpio.NewFakeOutputs(),
		transport: telemetry.NewFakeTransport(),
		display:   display.NewFake(),
		publisher: mqtt.NewFakePublisher(),
		registry:  prometheus.NewRegistry(),
		logs:      logs,
	}
	h.tracker = status.NewTracker(h.clock.Now(), status.Config{})

	h.monitor = New(Deps{
		Sensor:    sensor.NewReader(h.climate, h.analog, gpio.DefaultLightChannel, h.clock.Now, logger),
		Actuators: actuator.NewDriver(h.outputs, actuator.DefaultPins(), logger),
		Display:   h.display,
		Uploader:  telemetry.NewUploader(h.transport, sendInterval, time.Second, logger),
		Publisher: h.publisher,
		Tracker:   h.tracker,
		Metrics:   metrics.New(h.registry),
		Now:       h.clock.Now,
		Logger:    logger,
	})
	return h
}

func sample(temp, hum float64) gpio.ClimateSample {
	return gpio.ClimateSample{Temperature: temp, Humidity: hum}
}

// logical returns the logical value of an output given its polarity.
func logical(out *gpio.FakeOutputs, p actuator.Pin) bool {
	return out.Levels[p.Line] != p.ActiveLow
}

func TestTickDrivesOutputs(t *testing.T) {
	tests := []struct {
		name      string
		temp, hum float64
		light     int
		wantFan   bool
		wantLight bool
		wantAlarm bool
	}{
		{"hot bright", 31.0, 40.0, 600, true, false, false},
		{"cool dark", 25.0, 40.0, 400, false, true, false},
		{"hot humid dark", 31.0, 75.0, 300, true, true, true},
	}

	pins := actuator.DefaultPins()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 30*time.Second, []gpio.ClimateSample{sample(tt.temp, tt.hum)}, tt.light)

			if mode := h.monitor.Tick(context.Background()); mode != logic.ModeActive {
				t.Fatalf("mode: got %s, want ACTIVE", mode)
			}

			if got := logical(h.outputs, pins.FanRelay); got != tt.wantFan {
				t.Errorf("fan relay: got %v, want %v", got, tt.wantFan)
			}
			if got := logical(h.outputs, pins.FanLED); got != tt.wantFan {
				t.Errorf("fan LED: got %v, want %v", got, tt.wantFan)
			}
			if got := logical(h.outputs, pins.LightRelay); got != tt.wantLight {
				t.Errorf("light relay: got %v, want %v", got, tt.wantLight)
			}
			if got := logical(h.outputs, pins.AlarmLED); got != tt.wantAlarm {
				t.Errorf("alarm LED: got %v, want %v", got, tt.wantAlarm)
			}
			if got := logical(h.outputs, pins.Buzzer); got != tt.wantAlarm {
				t.Errorf("buzzer: got %v, want %v", got, tt.wantAlarm)
			}

			line1, line2 := display.ReadingLines(logic.SensorReading{Temperature: tt.temp, Humidity: tt.hum, LightLevel: tt.light})
			if last := h.display.Last(); last.Line1 != line1 || last.Line2 != line2 {
				t.Errorf("display: got %+v", last)
			}

			if h.transport.Attempts() != 1 {
				t.Fatalf("expected first tick to upload, got %d attempts", h.transport.Attempts())
			}
			rec := h.transport.Records[0]
			if rec.Fan != tt.wantFan || rec.Light != tt.wantLight || rec.Buzzer != tt.wantAlarm {
				t.Errorf("record: got %+v", rec)
			}
		})
	}
}

func TestTickInvalidReadingSkipsActuation(t *testing.T) {
	h := newHarness(t, 30*time.Second, []gpio.ClimateSample{sample(math.NaN(), 50.0)}, 200)

	if mode := h.monitor.Tick(context.Background()); mode != logic.ModeError {
		t.Fatalf("mode: got %s, want ERROR", mode)
	}

	if len(h.outputs.Writes) != 0 {
		t.Errorf("expected no actuator writes, got %d", len(h.outputs.Writes))
	}
	if h.transport.Attempts() != 0 {
		t.Errorf("expected no upload attempt, got %d", h.transport.Attempts())
	}
	if len(h.analog.Channels) != 0 {
		t.Error("light should not be sampled after a failed climate read")
	}

	l1, l2 := display.ErrorLines()
	if last := h.display.Last(); last.Line1 != l1 || last.Line2 != l2 {
		t.Errorf("display: got %+v, want error screen", last)
	}
	if len(h.display.Marks) != 0 {
		t.Error("no indicator expected on error screen")
	}

	snap := h.tracker.Snapshot()
	if snap.Mode != logic.ModeError || snap.ReadFailures != 1 {
		t.Errorf("tracker: mode=%s failures=%d", snap.Mode, snap.ReadFailures)
	}
	if got := h.ticks(t, "ERROR"); got != 1 {
		t.Errorf("error ticks: got %v, want 1", got)
	}
}

func TestTickUploadRateLimited(t *testing.T) {
	h := newHarness(t, 2000*time.Millisecond, []gpio.ClimateSample{sample(25.0, 40.0)}, 600)

	h.monitor.Tick(context.Background())
	h.clock.Advance(500 * time.Millisecond)
	h.monitor.Tick(context.Background())

	if h.transport.Attempts() != 1 {
		t.Errorf("expected exactly one upload, got %d", h.transport.Attempts())
	}
	if len(h.display.Marks) != 1 {
		t.Errorf("expected one indicator mark, got %d", len(h.display.Marks))
	}

	h.clock.Advance(1500 * time.Millisecond)
	h.monitor.Tick(context.Background())
	if h.transport.Attempts() != 2 {
		t.Errorf("expected upload at the interval boundary, got %d", h.transport.Attempts())
	}
}

func TestTickIndicatorGlyphs(t *testing.T) {
	h := newHarness(t, 2*time.Second, []gpio.ClimateSample{sample(25.0, 40.0)}, 600)

	h.monitor.Tick(context.Background())
	h.transport.SendError = errors.New("connection refused")
	h.clock.Advance(2 * time.Second)
	h.monitor.Tick(context.Background())

	want := []display.Mark{
		{Col: display.IndicatorColumn, Ch: '*'},
		{Col: display.IndicatorColumn, Ch: 'X'},
	}
	if len(h.display.Marks) != len(want) {
		t.Fatalf("marks: got %v", h.display.Marks)
	}
	for i := range want {
		if h.display.Marks[i] != want[i] {
			t.Errorf("mark %d: got %+v, want %+v", i, h.display.Marks[i], want[i])
		}
	}

	snap := h.tracker.Snapshot()
	if snap.Sends.Sent != 1 || snap.Sends.Failed != 1 {
		t.Errorf("tracker sends: got %+v", snap.Sends)
	}
}

func TestTickMemoryless(t *testing.T) {
	samples := []gpio.ClimateSample{
		sample(31.0, 75.0),
		sample(math.NaN(), 50.0),
		sample(25.0, 40.0),
	}
	h := newHarness(t, time.Minute, samples, 300, 600)

	modes := []logic.Mode{}
	for i := 0; i < 3; i++ {
		modes = append(modes, h.monitor.Tick(context.Background()))
		h.clock.Advance(logic.SensorReadInterval)
	}

	want := []logic.Mode{logic.ModeActive, logic.ModeError, logic.ModeActive}
	for i := range want {
		if modes[i] != want[i] {
			t.Errorf("tick %d: got %s, want %s", i, modes[i], want[i])
		}
	}

	// Third tick reads light=600 and T=25, so everything is off again.
	pins := actuator.DefaultPins()
	if logical(h.outputs, pins.FanRelay) || logical(h.outputs, pins.LightRelay) || logical(h.outputs, pins.Buzzer) {
		t.Errorf("outputs after recovery: %v", h.outputs.Levels)
	}
}

func TestTickPublishesTransitions(t *testing.T) {
	samples := []gpio.ClimateSample{sample(25.0, 40.0), sample(31.0, 75.0)}
	h := newHarness(t, time.Minute, samples, 600, 300)

	h.monitor.Tick(context.Background())
	if len(h.publisher.Events) != 0 {
		t.Fatalf("baseline tick should not publish, got %d", len(h.publisher.Events))
	}

	h.clock.Advance(logic.SensorReadInterval)
	h.monitor.Tick(context.Background())

	want := []logic.EventType{logic.EventFanOn, logic.EventLightOn, logic.EventAlarmOn}
	if len(h.publisher.Events) != len(want) {
		t.Fatalf("events: got %d, want %d", len(h.publisher.Events), len(want))
	}
	for i, w := range want {
		if h.publisher.Events[i].Type != w {
			t.Errorf("event %d: got %s, want %s", i, h.publisher.Events[i].Type, w)
		}
	}

	counts := h.monitor.Counts()
	if counts.FanOn != 1 || counts.LightOn != 1 || counts.AlarmOn != 1 {
		t.Errorf("counts: got %+v", counts)
	}
	if got := h.tracker.Snapshot().Counts; got != counts {
		t.Errorf("tracker counts: got %+v, want %+v", got, counts)
	}
}

func TestTickPublishErrorDoesNotAffectControl(t *testing.T) {
	samples := []gpio.ClimateSample{sample(25.0, 40.0), sample(31.0, 40.0)}
	h := newHarness(t, time.Minute, samples, 600)
	h.publisher.PublishError = errors.New("broker down")

	h.monitor.Tick(context.Background())
	h.clock.Advance(logic.SensorReadInterval)
	if mode := h.monitor.Tick(context.Background()); mode != logic.ModeActive {
		t.Errorf("mode: got %s, want ACTIVE", mode)
	}
	if !logical(h.outputs, actuator.DefaultPins().FanRelay) {
		t.Error("fan should be on despite publish failure")
	}
	if h.logs.FilterMessage("publish transition").Len() != 1 {
		t.Error("expected publish failure to be logged")
	}
}

func TestTickApplyErrorCounted(t *testing.T) {
	h := newHarness(t, time.Minute, []gpio.ClimateSample{sample(31.0, 40.0)}, 600)
	h.outputs.WriteError = errors.New("line busy")

	if mode := h.monitor.Tick(context.Background()); mode != logic.ModeActive {
		t.Errorf("mode: got %s, want ACTIVE", mode)
	}
	if h.logs.FilterMessage("apply actuators").Len() != 1 {
		t.Error("expected apply error to be logged")
	}
	if h.transport.Attempts() != 1 {
		t.Error("telemetry should still be attempted after an apply error")
	}
}

func TestTickLogsReading(t *testing.T) {
	h := newHarness(t, time.Minute, []gpio.ClimateSample{sample(31.0, 75.0)}, 300)
	h.monitor.Tick(context.Background())

	entries := h.logs.FilterMessage("reading").All()
	if len(entries) != 1 {
		t.Fatalf("expected one reading log line, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["temperature"] != 31.0 || fields["light"] != int64(300) {
		t.Errorf("reading fields: %v", fields)
	}
}

func TestInit(t *testing.T) {
	h := newHarness(t, time.Minute, nil)

	if err := h.monitor.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	off := actuator.DefaultPins().OffLevels()
	for line, level := range off {
		if h.outputs.Levels[line] != level {
			t.Errorf("line %d: got %v, want %v", line, h.outputs.Levels[line], level)
		}
	}
	if h.display.Last().Line1 != "System Ready" {
		t.Errorf("display: got %+v", h.display.Last())
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	h := newHarness(t, time.Minute, []gpio.ClimateSample{sample(25.0, 40.0)}, 600)

	ctx, cancel := context.WithCancel(context.Background())
	tick := make(chan time.Time)
	done := make(chan error, 1)
	go func() { done <- h.monitor.Run(ctx, tick) }()

	tick <- time.Now()
	tick <- time.Now()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run: got %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if h.climate.Calls != 2 {
		t.Errorf("expected 2 ticks, got %d", h.climate.Calls)
	}
}

func TestRunStopsWhenTickCloses(t *testing.T) {
	h := newHarness(t, time.Minute, []gpio.ClimateSample{sample(25.0, 40.0)}, 600)

	tick := make(chan time.Time, 1)
	tick <- time.Now()
	close(tick)

	if err := h.monitor.Run(context.Background(), tick); err != nil {
		t.Errorf("Run: %v", err)
	}
	if h.climate.Calls != 1 {
		t.Errorf("expected 1 tick, got %d", h.climate.Calls)
	}
}

func TestNewDefaults(t *testing.T) {
	m := New(Deps{
		Sensor:    sensor.NewReader(gpio.NewFakeClimate(), gpio.NewFakeAnalog(), 0, time.Now, zap.NewNop()),
		Actuators: actuator.NewDriver(gpio.NewFakeOutputs(), actuator.DefaultPins(), zap.NewNop()),
		Display:   display.NewFake(),
		Uploader:  telemetry.NewUploader(telemetry.NewFakeTransport(), time.Minute, time.Second, zap.NewNop()),
	})

	// No side channels configured: an error tick must not panic.
	if mode := m.Tick(context.Background()); mode != logic.ModeError {
		t.Errorf("mode: got %s, want ERROR", mode)
	}
}

// ticks returns the ticks_total counter value for mode.
func (h *harness) ticks(t *testing.T, mode string) float64 {
	t.Helper()
	mfs, err := h.registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != "enviro_ticks_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "mode" && lp.GetValue() == mode {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
