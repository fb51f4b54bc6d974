package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Mode          string        `json:"mode"`
	Ready         bool          `json:"ready"`
	Reading       *ReadingJSON  `json:"reading,omitempty"`
	Actuators     ActuatorsJSON `json:"actuators"`
	ReadFailures  int           `json:"read_failures"`
	Telemetry     TelemetryJSON `json:"telemetry"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Counts        CountsJSON    `json:"event_counts"`
	Network       *NetworkJSON  `json:"network,omitempty"`
	Config        ConfigJSON    `json:"config"`
}

// ReadingJSON is the last valid reading.
type ReadingJSON struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Light       int     `json:"light"`
	SampledAt   string  `json:"sampled_at"`
}

// ActuatorsJSON reports each actuator as ON, OFF or UNKNOWN (before the
// first valid reading).
type ActuatorsJSON struct {
	Fan    string `json:"fan"`
	Light  string `json:"light"`
	Alarm  string `json:"alarm"`
	Buzzer string `json:"buzzer"`
}

// TelemetryJSON reports upload activity.
type TelemetryJSON struct {
	Endpoint    string `json:"endpoint"`
	Sent        int    `json:"sent"`
	Failed      int    `json:"failed"`
	LastOutcome string `json:"last_outcome,omitempty"`
	LastAttempt string `json:"last_attempt,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of transition counts.
type CountsJSON struct {
	FanOn    int `json:"fan_on"`
	FanOff   int `json:"fan_off"`
	LightOn  int `json:"light_on"`
	LightOff int `json:"light_off"`
	AlarmOn  int `json:"alarm_on"`
	AlarmOff int `json:"alarm_off"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs         int64  `json:"tick_ms"`
	SendIntervalMs int64  `json:"send_interval_ms"`
	HeartbeatMs    int64  `json:"heartbeat_ms"`
	AlarmField     string `json:"alarm_field"`
	Broker         string `json:"broker"`
	HTTPPort       string `json:"http_port"`
}

func actuatorString(ready, on bool) string {
	if !ready {
		return "UNKNOWN"
	}
	if on {
		return "ON"
	}
	return "OFF"
}

func modeString(snap Snapshot) string {
	if snap.Mode == "" {
		return "STARTING"
	}
	return string(snap.Mode)
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Mode:  modeString(snap),
		Ready: snap.Ready,
		Actuators: ActuatorsJSON{
			Fan:    actuatorString(snap.Ready, snap.State.Fan),
			Light:  actuatorString(snap.Ready, snap.State.Light),
			Alarm:  actuatorString(snap.Ready, snap.State.AlarmIndicator),
			Buzzer: actuatorString(snap.Ready, snap.State.Buzzer),
		},
		ReadFailures: snap.ReadFailures,
		Telemetry: TelemetryJSON{
			Endpoint:    snap.Config.Endpoint,
			Sent:        snap.Sends.Sent,
			Failed:      snap.Sends.Failed,
			LastOutcome: snap.LastOutcome,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			FanOn:    snap.Counts.FanOn,
			FanOff:   snap.Counts.FanOff,
			LightOn:  snap.Counts.LightOn,
			LightOff: snap.Counts.LightOff,
			AlarmOn:  snap.Counts.AlarmOn,
			AlarmOff: snap.Counts.AlarmOff,
		},
		Config: ConfigJSON{
			TickMs:         snap.Config.TickMs,
			SendIntervalMs: snap.Config.SendIntervalMs,
			HeartbeatMs:    snap.Config.HeartbeatMs,
			AlarmField:     snap.Config.AlarmField,
			Broker:         snap.Config.Broker,
			HTTPPort:       snap.Config.HTTPPort,
		},
	}

	if snap.Ready {
		inner.Reading = &ReadingJSON{
			Temperature: snap.Reading.Temperature,
			Humidity:    snap.Reading.Humidity,
			Light:       snap.Reading.LightLevel,
			SampledAt:   snap.Reading.SampledAt.UTC().Format(time.RFC3339),
		}
	}
	if !snap.LastSend.IsZero() {
		inner.Telemetry.LastAttempt = snap.LastSend.UTC().Format(time.RFC3339)
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
