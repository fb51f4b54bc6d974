package logic

// Decide maps a valid reading to the actuator state for this tick.
// Each rule is evaluated independently; only the alarm combines inputs.
// There is no dead-band, so a value sitting on a threshold flips every tick.
// Must not be called with an invalid reading.
func Decide(r SensorReading) ActuatorState {
	hot := r.Temperature >= TempHigh
	humid := r.Humidity >= HumidityHigh
	dark := r.LightLevel < LightLow

	alarm := (hot || humid) && dark

	return ActuatorState{
		Fan:            hot,
		FanIndicator:   hot,
		Light:          dark,
		LightIndicator: dark,
		AlarmIndicator: alarm,
		Buzzer:         alarm,
	}
}
