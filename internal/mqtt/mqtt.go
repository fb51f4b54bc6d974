// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/enviro-monitor/internal/logic"
)

// Topic is the MQTT topic for actuator transition events.
const Topic = "enclosure/enviro/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "enclosure/enviro/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an actuator transition event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Enclosure EnclosurePayload `json:"enclosure"`
}

// EnclosurePayload contains the transition details together with the
// reading and full actuator state that caused it.
type EnclosurePayload struct {
	Timestamp string         `json:"timestamp"`
	Event     string         `json:"event"`
	Reading   ReadingPayload `json:"reading"`
	Fan       ActuatorState  `json:"fan"`
	Light     ActuatorState  `json:"light"`
	Alarm     ActuatorState  `json:"alarm"`
}

// ReadingPayload is the sensor sample attached to a transition.
type ReadingPayload struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Light       int     `json:"light"`
}

// ActuatorState represents a single actuator's state.
type ActuatorState struct {
	State string `json:"state"`
}

// FormatPayload creates the JSON payload for an actuator event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Enclosure: EnclosurePayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Reading: ReadingPayload{
				Temperature: event.Reading.Temperature,
				Humidity:    event.Reading.Humidity,
				Light:       event.Reading.LightLevel,
			},
			Fan:   ActuatorState{State: string(logic.StateOf(event.State.Fan))},
			Light: ActuatorState{State: string(logic.StateOf(event.State.Light))},
			Alarm: ActuatorState{State: string(logic.StateOf(event.State.Buzzer))},
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
