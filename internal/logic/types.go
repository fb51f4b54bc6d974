// Package logic contains the pure decision logic for the enclosure controller.
// This package has NO external dependencies (no GPIO, HTTP, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Fixed control thresholds.
const (
	TempHigh     = 30.0 // °C, fan and alarm trigger
	HumidityHigh = 70.0 // % relative, alarm trigger
	LightLow     = 500  // sensor-native units, below = dark
)

// SensorReadInterval is the fixed tick cadence of the control loop.
const SensorReadInterval = 2000 * time.Millisecond

// SensorReading is one sample of the enclosure sensors.
// LightLevel is meaningless when Valid is false.
type SensorReading struct {
	Temperature float64
	Humidity    float64
	LightLevel  int
	Valid       bool
	SampledAt   time.Time
}

// ActuatorState is the desired state of every physical output for one tick.
type ActuatorState struct {
	Fan            bool
	FanIndicator   bool
	Light          bool
	LightIndicator bool
	AlarmIndicator bool
	Buzzer         bool
}

// State is the display form of a boolean output.
type State string

const (
	StateOn  State = "ON"
	StateOff State = "OFF"
)

// StateOf converts a logical output value to its display form.
func StateOf(on bool) State {
	if on {
		return StateOn
	}
	return StateOff
}

// Mode is the controller state after a tick. The transition depends only on
// the current read: a valid reading yields ModeActive, an invalid one ModeError.
type Mode string

const (
	ModeActive Mode = "ACTIVE"
	ModeError  Mode = "ERROR"
)

// ModeOf returns the mode a reading leads to.
func ModeOf(r SensorReading) Mode {
	if r.Valid {
		return ModeActive
	}
	return ModeError
}

// EventType represents an actuator transition.
type EventType string

const (
	EventFanOn    EventType = "FAN_ON"
	EventFanOff   EventType = "FAN_OFF"
	EventLightOn  EventType = "LIGHT_ON"
	EventLightOff EventType = "LIGHT_OFF"
	EventAlarmOn  EventType = "ALARM_ON"
	EventAlarmOff EventType = "ALARM_OFF"
)

// Event represents an actuator transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Reading   SensorReading
	State     ActuatorState
}

// EventCounts tracks the number of each transition since startup.
type EventCounts struct {
	FanOn    int
	FanOff   int
	LightOn  int
	LightOff int
	AlarmOn  int
	AlarmOff int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
