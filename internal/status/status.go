// Package status provides a thread-safe status tracker for the controller daemon.
// It is written by the control loop and read by HTTP handlers and MQTT
// lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/enviro-monitor/internal/logic"
)

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	TickMs         int64
	SendIntervalMs int64
	HeartbeatMs    int64
	Endpoint       string
	AlarmField     string
	Broker         string
	HTTPPort       string
}

// SendCounts tracks telemetry attempts by outcome.
type SendCounts struct {
	Sent   int
	Failed int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Mode          logic.Mode
	Reading       logic.SensorReading // last valid reading
	State         logic.ActuatorState // state applied for Reading
	Ready         bool                // at least one valid reading seen
	ReadFailures  int
	LastFailure   time.Time
	LastSend      time.Time
	LastOutcome   string
	Sends         SendCounts
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// UpdateActive records a valid tick.
func (t *Tracker) UpdateActive(r logic.SensorReading, s logic.ActuatorState, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.Mode = logic.ModeActive
	t.snap.Reading = r
	t.snap.State = s
	t.snap.Ready = true
	t.snap.Counts = counts
	t.mu.Unlock()
}

// UpdateError records a tick whose sensor read failed. The last valid
// reading is kept for display.
func (t *Tracker) UpdateError(at time.Time) {
	t.mu.Lock()
	t.snap.Mode = logic.ModeError
	t.snap.ReadFailures++
	t.snap.LastFailure = at
	t.mu.Unlock()
}

// RecordSend records a telemetry attempt. Skipped calls are not attempts.
func (t *Tracker) RecordSend(outcome string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch outcome {
	case "sent":
		t.snap.Sends.Sent++
	case "failed":
		t.snap.Sends.Failed++
	default:
		return
	}
	t.snap.LastSend = at
	t.snap.LastOutcome = outcome
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
