package logic

import "time"

// Detector tracks the last applied actuator state and reports transitions.
// It does not influence control decisions; it only feeds event publishing
// and the status page.
type Detector struct {
	current       ActuatorState
	baselined     bool
	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewDetector creates a transition detector.
// The startTime is used for calculating uptime in heartbeat events.
func NewDetector(startTime time.Time) *Detector {
	return &Detector{
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process records the state applied on this tick and returns the transitions
// relative to the previously applied state. The first call establishes the
// baseline and returns no events.
func (d *Detector) Process(reading SensorReading, state ActuatorState, now time.Time) []Event {
	if !d.baselined {
		d.current = state
		d.baselined = true
		return nil
	}

	var events []Event
	emit := func(t EventType) {
		events = append(events, Event{
			Timestamp: now,
			Type:      t,
			Reading:   reading,
			State:     state,
		})
	}

	// Order: fan, light, alarm
	if state.Fan != d.current.Fan {
		if state.Fan {
			emit(EventFanOn)
			d.eventCounts.FanOn++
		} else {
			emit(EventFanOff)
			d.eventCounts.FanOff++
		}
	}
	if state.Light != d.current.Light {
		if state.Light {
			emit(EventLightOn)
			d.eventCounts.LightOn++
		} else {
			emit(EventLightOff)
			d.eventCounts.LightOff++
		}
	}
	if state.Buzzer != d.current.Buzzer {
		if state.Buzzer {
			emit(EventAlarmOn)
			d.eventCounts.AlarmOn++
		} else {
			emit(EventAlarmOff)
			d.eventCounts.AlarmOff++
		}
	}

	d.current = state
	return events
}

// IsBaselined returns whether at least one state has been recorded.
func (d *Detector) IsBaselined() bool {
	return d.baselined
}

// CurrentState returns the last applied actuator state.
func (d *Detector) CurrentState() ActuatorState {
	return d.current
}

// EventCountsSnapshot returns a copy of the transition counts.
func (d *Detector) EventCountsSnapshot() EventCounts {
	return d.eventCounts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled). Unlike transitions, heartbeats do not
// wait for a baseline: a sensor stuck in error must still report liveness.
func (d *Detector) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(d.lastHeartbeat) < interval {
		return nil
	}

	d.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(d.startTime),
		Counts:    d.eventCounts,
	}
}
