// Package actuator applies an ActuatorState to the physical outputs.
package actuator

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sweeney/enviro-monitor/internal/gpio"
	"github.com/sweeney/enviro-monitor/internal/logic"
)

// Pin is one output line and its polarity.
// ActiveLow means logical ON is driven as electrical LOW (relay modules).
type Pin struct {
	Line      int  `yaml:"line"`
	ActiveLow bool `yaml:"active_low"`
}

// level returns the electrical level for a logical value.
func (p Pin) level(on bool) bool {
	return on != p.ActiveLow
}

// Pins maps every actuator to its output line.
type Pins struct {
	FanRelay   Pin `yaml:"fan_relay"`
	FanLED     Pin `yaml:"fan_led"`
	LightRelay Pin `yaml:"light_relay"`
	LightLED   Pin `yaml:"light_led"`
	Buzzer     Pin `yaml:"buzzer"`
	AlarmLED   Pin `yaml:"alarm_led"`
}

// DefaultPins returns the standard wiring: active-low relay modules,
// active-high LEDs and buzzer.
func DefaultPins() Pins {
	return Pins{
		FanRelay:   Pin{Line: gpio.DefaultPinFanRelay, ActiveLow: true},
		FanLED:     Pin{Line: gpio.DefaultPinFanLED},
		LightRelay: Pin{Line: gpio.DefaultPinLightRelay, ActiveLow: true},
		LightLED:   Pin{Line: gpio.DefaultPinLightLED},
		Buzzer:     Pin{Line: gpio.DefaultPinBuzzer},
		AlarmLED:   Pin{Line: gpio.DefaultPinAlarmLED},
	}
}

func (p Pins) all() []Pin {
	return []Pin{p.FanRelay, p.FanLED, p.LightRelay, p.LightLED, p.Buzzer, p.AlarmLED}
}

// Validate rejects wiring where two actuators share a line.
func (p Pins) Validate() error {
	seen := make(map[int]bool)
	for _, pin := range p.all() {
		if pin.Line < 0 {
			return fmt.Errorf("invalid line %d", pin.Line)
		}
		if seen[pin.Line] {
			return fmt.Errorf("line %d assigned to more than one actuator", pin.Line)
		}
		seen[pin.Line] = true
	}
	return nil
}

// OffLevels returns the electrical level of every line in the logical-off
// state, suitable for requesting the lines as outputs.
func (p Pins) OffLevels() map[int]bool {
	levels := make(map[int]bool)
	for _, pin := range p.all() {
		levels[pin.Line] = pin.level(false)
	}
	return levels
}

// Driver writes actuator states to hardware outputs.
type Driver struct {
	out    gpio.Output
	pins   Pins
	logger *zap.Logger
}

// NewDriver creates a Driver over the given outputs.
func NewDriver(out gpio.Output, pins Pins, logger *zap.Logger) *Driver {
	return &Driver{out: out, pins: pins, logger: logger}
}

// Apply drives every output to match state. Every line is written even if an
// earlier write fails; the errors are joined. Applying the same state twice
// leaves the outputs unchanged and only repeats the log lines.
func (d *Driver) Apply(state logic.ActuatorState) error {
	var errs []error
	errs = append(errs, d.set("FAN", state.Fan, state.FanIndicator, d.pins.FanRelay, d.pins.FanLED))
	errs = append(errs, d.set("LIGHT", state.Light, state.LightIndicator, d.pins.LightRelay, d.pins.LightLED))
	errs = append(errs, d.set("BUZZER", state.Buzzer, state.AlarmIndicator, d.pins.Buzzer, d.pins.AlarmLED))
	return errors.Join(errs...)
}

// set writes an actuator and its indicator, then logs the actuator value.
func (d *Driver) set(name string, on, indicator bool, actuator, led Pin) error {
	var errs []error
	if err := d.out.SetOutput(actuator.Line, actuator.level(on)); err != nil {
		errs = append(errs, fmt.Errorf("set %s: %w", name, err))
	}
	if err := d.out.SetOutput(led.Line, led.level(indicator)); err != nil {
		errs = append(errs, fmt.Errorf("set %s indicator: %w", name, err))
	}
	d.logger.Info("actuator", zap.String("name", name), zap.Bool("on", on))
	return errors.Join(errs...)
}

// Off drives every output to its logical-off level.
func (d *Driver) Off() error {
	return d.Apply(logic.ActuatorState{})
}

// Close switches everything off and releases the outputs.
func (d *Driver) Close() error {
	return errors.Join(d.Off(), d.out.Close())
}
