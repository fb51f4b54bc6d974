//go:build linux

package gpio

import (
	"fmt"
	"sort"

	"github.com/warthog618/go-gpiocdev"
)

// RealOutputs drives output lines on actual hardware using the Linux GPIO
// character device.
type RealOutputs struct {
	chip  *gpiocdev.Chip
	lines map[int]*gpiocdev.Line
	off   map[int]bool
}

// NewRealOutputs requests every pin in initial as an output, starting at the
// given electrical level. The initial levels are also the off levels that
// Close biases each line toward.
func NewRealOutputs(chipName string, initial map[int]bool) (*RealOutputs, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealOutputs{
		chip:  chip,
		lines: make(map[int]*gpiocdev.Line, len(initial)),
		off:   make(map[int]bool, len(initial)),
	}

	pins := make([]int, 0, len(initial))
	for pin := range initial {
		pins = append(pins, pin)
	}
	sort.Ints(pins)

	for _, pin := range pins {
		line, err := chip.RequestLine(pin, gpiocdev.AsOutput(levelValue(initial[pin])))
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request output pin %d: %w", pin, err)
		}
		r.lines[pin] = line
		r.off[pin] = initial[pin]
	}

	return r, nil
}

// SetOutput writes the electrical level of a requested line.
func (r *RealOutputs) SetOutput(channel int, level bool) error {
	line, ok := r.lines[channel]
	if !ok {
		return fmt.Errorf("pin %d not requested as output", channel)
	}
	if err := line.SetValue(levelValue(level)); err != nil {
		return fmt.Errorf("set pin %d: %w", channel, err)
	}
	return nil
}

// Close releases GPIO resources. Each line is held at its off level, then
// reconfigured as an input biased toward that level so a relay stays
// de-energized after the process exits.
func (r *RealOutputs) Close() error {
	var errs []error

	for pin, line := range r.lines {
		if err := line.SetValue(levelValue(r.off[pin])); err != nil {
			errs = append(errs, fmt.Errorf("set pin %d off: %w", pin, err))
		}
		if err := line.Reconfigure(gpiocdev.AsInput, biasOption(ReleaseBias(r.off[pin]))); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", pin, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
		}
	}
	r.lines = nil

	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		r.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func biasOption(b Bias) gpiocdev.LineConfigOption {
	if b == BiasPullUp {
		return gpiocdev.WithPullUp
	}
	return gpiocdev.WithPullDown
}

func levelValue(level bool) int {
	if level {
		return 1
	}
	return 0
}
