package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/enviro-monitor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"onOff": func(ready, on bool) string {
		switch {
		case !ready:
			return "UNKNOWN"
		case on:
			return "ON"
		default:
			return "OFF"
		}
	},
	"rfc3339": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return t.UTC().Format(time.RFC3339)
	},
	"lower": func(s string) string {
		switch s {
		case "ON":
			return "on"
		case "OFF":
			return "off"
		}
		return "unknown"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Enviro Monitor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.mode-ERROR { color: red; font-weight: bold; }
</style>
</head>
<body>
<h1>Enviro Monitor</h1>

<h2>Reading</h2>
<table>
<tr><th>Mode</th><td id="mode" class="mode-{{.Mode}}">{{if .Mode}}{{.Mode}}{{else}}STARTING{{end}}</td></tr>
{{if .Ready}}<tr><th>Temperature</th><td id="temperature">{{printf "%.1f" .Reading.Temperature}} &deg;C</td></tr>
<tr><th>Humidity</th><td id="humidity">{{printf "%.1f" .Reading.Humidity}} %</td></tr>
<tr><th>Light</th><td id="light">{{.Reading.LightLevel}}</td></tr>
<tr><th>Sampled</th><td>{{rfc3339 .Reading.SampledAt}}</td></tr>{{else}}<tr><th>Temperature</th><td class="unknown">no valid reading yet</td></tr>{{end}}
<tr><th>Read failures</th><td>{{.ReadFailures}}{{if .ReadFailures}} (last {{rfc3339 .LastFailure}}){{end}}</td></tr>
</table>

<h2>Actuators</h2>
<table>
{{$fan := onOff .Ready .State.Fan}}{{$light := onOff .Ready .State.Light}}{{$alarm := onOff .Ready .State.AlarmIndicator}}{{$buzzer := onOff .Ready .State.Buzzer}}
<tr><th>Fan</th><td id="fan-state" class="{{lower $fan}}">{{$fan}}</td></tr>
<tr><th>Light</th><td id="light-state" class="{{lower $light}}">{{$light}}</td></tr>
<tr><th>Alarm</th><td id="alarm-state" class="{{lower $alarm}}">{{$alarm}}</td></tr>
<tr><th>Buzzer</th><td id="buzzer-state" class="{{lower $buzzer}}">{{$buzzer}}</td></tr>
</table>

<h2>Telemetry</h2>
<table>
<tr><th>Endpoint</th><td>{{.Config.Endpoint}}</td></tr>
<tr><th>Interval</th><td>{{.Config.SendIntervalMs}}ms</td></tr>
<tr><th>Sent</th><td>{{.Sends.Sent}}</td></tr>
<tr><th>Failed</th><td>{{.Sends.Failed}}</td></tr>
<tr><th>Last attempt</th><td>{{rfc3339 .LastSend}}{{if .LastOutcome}} ({{.LastOutcome}}){{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>FAN ON</th><td>{{.Counts.FanOn}}</td></tr>
<tr><th>FAN OFF</th><td>{{.Counts.FanOff}}</td></tr>
<tr><th>LIGHT ON</th><td>{{.Counts.LightOn}}</td></tr>
<tr><th>LIGHT OFF</th><td>{{.Counts.LightOff}}</td></tr>
<tr><th>ALARM ON</th><td>{{.Counts.AlarmOn}}</td></tr>
<tr><th>ALARM OFF</th><td>{{.Counts.AlarmOff}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Alarm field</th><td>{{.Config.AlarmField}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
