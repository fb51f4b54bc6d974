// Package metrics exposes controller counters and gauges to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/enviro-monitor/internal/logic"
)

const namespace = "enviro"

// Metrics holds the controller collectors.
type Metrics struct {
	gatherer prometheus.Gatherer

	ticks       *prometheus.CounterVec
	sends       *prometheus.CounterVec
	applyErrors prometheus.Counter
	tickTiming  prometheus.Summary
	temperature prometheus.Gauge
	humidity    prometheus.Gauge
	light       prometheus.Gauge
	actuatorOn  *prometheus.GaugeVec
	transitions *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Control loop ticks by resulting mode.",
		}, []string{"mode"}),
		sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_attempts_total",
			Help:      "Telemetry upload attempts by outcome.",
		}, []string{"outcome"}),
		applyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actuator_apply_errors_total",
			Help:      "Ticks where at least one output write failed.",
		}),
		tickTiming: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace:  namespace,
			Name:       "tick_duration_seconds",
			Help:       "Wall time of one control loop tick.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_celsius",
			Help:      "Last valid temperature reading.",
		}),
		humidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "humidity_percent",
			Help:      "Last valid relative humidity reading.",
		}),
		light: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "light_level",
			Help:      "Last valid raw light sensor reading.",
		}),
		actuatorOn: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "actuator_on",
			Help:      "Logical actuator state applied on the last valid tick (1 = on).",
		}, []string{"actuator"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actuator_transitions_total",
			Help:      "Actuator transitions by event type.",
		}, []string{"event"}),
	}

	reg.MustRegister(m.ticks, m.sends, m.applyErrors, m.tickTiming,
		m.temperature, m.humidity, m.light, m.actuatorOn, m.transitions)
	return m
}

// Tick counts one tick in the given mode and records its duration.
func (m *Metrics) Tick(mode string, start, end time.Time) {
	m.ticks.WithLabelValues(mode).Inc()
	m.tickTiming.Observe(end.Sub(start).Seconds())
}

// Reading records a valid reading and the state applied for it.
func (m *Metrics) Reading(r logic.SensorReading, s logic.ActuatorState) {
	m.temperature.Set(r.Temperature)
	m.humidity.Set(r.Humidity)
	m.light.Set(float64(r.LightLevel))
	m.actuatorOn.WithLabelValues("fan").Set(boolGauge(s.Fan))
	m.actuatorOn.WithLabelValues("light").Set(boolGauge(s.Light))
	m.actuatorOn.WithLabelValues("buzzer").Set(boolGauge(s.Buzzer))
}

// Send counts a telemetry attempt.
func (m *Metrics) Send(outcome string) {
	m.sends.WithLabelValues(outcome).Inc()
}

// ApplyError counts a failed actuator apply.
func (m *Metrics) ApplyError() {
	m.applyErrors.Inc()
}

// Transition counts an actuator transition event.
func (m *Metrics) Transition(t logic.EventType) {
	m.transitions.WithLabelValues(string(t)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
