// Package gpio provides the hardware capability seam for the controller.
// Relay, LED and buzzer outputs use the Linux GPIO character device.
// The DHT22 and the light sensor ADC are read through the kernel IIO sysfs
// interface. The fake implementations allow testing without hardware.
package gpio

// Output drives digital output lines.
type Output interface {
	// SetOutput sets the electrical level of a line: true = HIGH.
	// Polarity (active-low relays) is the caller's concern.
	SetOutput(channel int, level bool) error

	// Close releases GPIO resources.
	Close() error
}

// Analog reads raw samples from an ADC channel.
type Analog interface {
	ReadAnalog(channel int) (int, error)
}

// Climate reads a combined temperature/humidity sensor.
type Climate interface {
	// ReadSensor returns temperature (°C) and relative humidity (%).
	// A failed read reports NaN values and ok=false.
	ReadSensor() (temperature, humidity float64, ok bool)
}

// Pin definitions (BCM numbering)
const (
	DefaultPinFanRelay   = 26
	DefaultPinLightRelay = 27
	DefaultPinBuzzer     = 25
	DefaultPinFanLED     = 5
	DefaultPinLightLED   = 6
	DefaultPinAlarmLED   = 13
)

// DefaultLightChannel is the ADC channel of the light-dependent resistor.
const DefaultLightChannel = 0
