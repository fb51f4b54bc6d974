package gpio

import (
	"errors"
	"math"
)

// ClimateSample is a scripted temperature/humidity reading.
// Use math.NaN() to script a failed read.
type ClimateSample struct {
	Temperature float64
	Humidity    float64
}

// FakeClimate is a test double that returns scripted climate values.
type FakeClimate struct {
	// Samples contains scripted values to return.
	// Each call to ReadSensor() consumes the next sample.
	Samples []ClimateSample

	// index tracks current position in Samples
	index int

	// Calls counts ReadSensor invocations.
	Calls int
}

// NewFakeClimate creates a FakeClimate with the given samples.
func NewFakeClimate(samples ...ClimateSample) *FakeClimate {
	return &FakeClimate{Samples: samples}
}

// ReadSensor returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeClimate) ReadSensor() (float64, float64, bool) {
	f.Calls++
	if len(f.Samples) == 0 {
		return math.NaN(), math.NaN(), false
	}

	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	ok := !math.IsNaN(s.Temperature) && !math.IsNaN(s.Humidity)
	return s.Temperature, s.Humidity, ok
}

// FakeAnalog is a test double that returns scripted ADC values.
type FakeAnalog struct {
	Values []int
	index  int

	// Channels records the channel of every read.
	Channels []int

	// ReadError, if set, will be returned by ReadAnalog().
	ReadError error
}

// NewFakeAnalog creates a FakeAnalog with the given values.
func NewFakeAnalog(values ...int) *FakeAnalog {
	return &FakeAnalog{Values: values}
}

// ReadAnalog returns the next scripted value, repeating the last one.
func (f *FakeAnalog) ReadAnalog(channel int) (int, error) {
	f.Channels = append(f.Channels, channel)
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Values) == 0 {
		return 0, errors.New("no values configured")
	}

	v := f.Values[f.index]
	if f.index < len(f.Values)-1 {
		f.index++
	}
	return v, nil
}

// Write is a single recorded SetOutput call.
type Write struct {
	Channel int
	Level   bool
}

// FakeOutputs records output writes for test assertions.
type FakeOutputs struct {
	// Levels is the current electrical level of every written channel.
	Levels map[int]bool

	// Writes contains every SetOutput call in order.
	Writes []Write

	// WriteError, if set, will be returned by SetOutput().
	WriteError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeOutputs creates an empty FakeOutputs.
func NewFakeOutputs() *FakeOutputs {
	return &FakeOutputs{Levels: make(map[int]bool)}
}

// SetOutput records the write and updates the channel level.
func (f *FakeOutputs) SetOutput(channel int, level bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Writes = append(f.Writes, Write{Channel: channel, Level: level})
	f.Levels[channel] = level
	return nil
}

// Close marks the outputs as closed.
func (f *FakeOutputs) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded writes and levels.
func (f *FakeOutputs) Reset() {
	f.Levels = make(map[int]bool)
	f.Writes = nil
	f.Closed = false
	f.WriteError = nil
}
