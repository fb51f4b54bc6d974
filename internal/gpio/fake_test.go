package gpio

import (
	"errors"
	"math"
	"testing"
)

func TestFakeClimateRead(t *testing.T) {
	f := NewFakeClimate(
		ClimateSample{Temperature: 21.5, Humidity: 40},
		ClimateSample{Temperature: math.NaN(), Humidity: 50},
		ClimateSample{Temperature: 31, Humidity: 75},
	)

	temp, hum, ok := f.ReadSensor()
	if !ok || temp != 21.5 || hum != 40 {
		t.Errorf("sample 0: got (%v, %v, %v)", temp, hum, ok)
	}

	temp, hum, ok = f.ReadSensor()
	if ok || !math.IsNaN(temp) || hum != 50 {
		t.Errorf("sample 1: expected NaN failure, got (%v, %v, %v)", temp, hum, ok)
	}

	temp, hum, ok = f.ReadSensor()
	if !ok || temp != 31 || hum != 75 {
		t.Errorf("sample 2: got (%v, %v, %v)", temp, hum, ok)
	}

	// Fourth read should repeat last sample
	temp, _, ok = f.ReadSensor()
	if !ok || temp != 31 {
		t.Errorf("sample 3 (repeat): got (%v, %v)", temp, ok)
	}

	if f.Calls != 4 {
		t.Errorf("Calls: got %d, want 4", f.Calls)
	}
}

func TestFakeClimateNoSamples(t *testing.T) {
	f := NewFakeClimate()

	temp, hum, ok := f.ReadSensor()
	if ok {
		t.Error("expected failure with no samples")
	}
	if !math.IsNaN(temp) || !math.IsNaN(hum) {
		t.Errorf("expected NaN values, got (%v, %v)", temp, hum)
	}
}

func TestFakeAnalog(t *testing.T) {
	f := NewFakeAnalog(600, 400)

	v, err := f.ReadAnalog(3)
	if err != nil || v != 600 {
		t.Errorf("read 0: got (%d, %v)", v, err)
	}
	v, _ = f.ReadAnalog(3)
	if v != 400 {
		t.Errorf("read 1: got %d", v)
	}
	v, _ = f.ReadAnalog(3)
	if v != 400 {
		t.Errorf("read 2 (repeat): got %d", v)
	}
	if len(f.Channels) != 3 || f.Channels[0] != 3 {
		t.Errorf("Channels: got %v", f.Channels)
	}
}

func TestFakeAnalogError(t *testing.T) {
	f := NewFakeAnalog(600)
	f.ReadError = errors.New("simulated error")

	_, err := f.ReadAnalog(0)
	if err == nil || err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeOutputs(t *testing.T) {
	f := NewFakeOutputs()

	if err := f.SetOutput(26, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.SetOutput(5, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Writes) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(f.Writes))
	}
	if f.Levels[26] != false || f.Levels[5] != true {
		t.Errorf("unexpected levels: %v", f.Levels)
	}

	f.WriteError = errors.New("bus error")
	if err := f.SetOutput(26, true); err == nil {
		t.Error("expected write error")
	}
	if f.Levels[26] {
		t.Error("failed write must not change level")
	}
}

func TestFakeOutputsCloseAndReset(t *testing.T) {
	f := NewFakeOutputs()
	f.SetOutput(1, true)

	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}

	f.Reset()
	if f.Closed || len(f.Writes) != 0 || len(f.Levels) != 0 {
		t.Errorf("Reset did not clear state: %+v", f)
	}
}
