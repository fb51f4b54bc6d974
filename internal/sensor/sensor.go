// Package sensor acquires one SensorReading per tick from the climate sensor
// and the light ADC.
package sensor

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/enviro-monitor/internal/gpio"
	"github.com/sweeney/enviro-monitor/internal/logic"
)

// Reader samples the enclosure sensors.
type Reader struct {
	climate      gpio.Climate
	analog       gpio.Analog
	lightChannel int
	now          func() time.Time
	logger       *zap.Logger
}

// NewReader creates a Reader. now supplies the sample timestamp.
func NewReader(climate gpio.Climate, analog gpio.Analog, lightChannel int, now func() time.Time, logger *zap.Logger) *Reader {
	return &Reader{
		climate:      climate,
		analog:       analog,
		lightChannel: lightChannel,
		now:          now,
		logger:       logger,
	}
}

// Read takes one sample. It never retries; an invalid reading is returned
// and the next tick resamples. The light level is only sampled after a
// successful climate read and is zero on invalid readings.
func (r *Reader) Read() logic.SensorReading {
	reading := logic.SensorReading{SampledAt: r.now()}

	temp, hum, ok := r.climate.ReadSensor()
	if !ok || math.IsNaN(temp) || math.IsNaN(hum) {
		r.logger.Warn("failed to read climate sensor",
			zap.Float64("temperature", temp),
			zap.Float64("humidity", hum))
		return reading
	}

	light, err := r.analog.ReadAnalog(r.lightChannel)
	if err != nil {
		r.logger.Warn("failed to read light level", zap.Int("channel", r.lightChannel), zap.Error(err))
		return reading
	}

	reading.Temperature = temp
	reading.Humidity = hum
	reading.LightLevel = light
	reading.Valid = true
	return reading
}
