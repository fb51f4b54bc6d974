package gpio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// IIOClimate reads a DHT-class sensor bound to the kernel dht11 driver
// (which also serves the DHT22), e.g. /sys/bus/iio/devices/iio:device0.
// The driver reports milli-degrees Celsius and milli-percent.
type IIOClimate struct {
	Dir string
}

// ReadSensor reads humidity then temperature. Any failure (the driver returns
// EIO on checksum or timing errors) is reported as NaN with ok=false.
func (c IIOClimate) ReadSensor() (float64, float64, bool) {
	hum, err := readMilli(filepath.Join(c.Dir, "in_humidityrelative_input"))
	if err != nil {
		return math.NaN(), math.NaN(), false
	}
	temp, err := readMilli(filepath.Join(c.Dir, "in_temp_input"))
	if err != nil {
		return math.NaN(), hum, false
	}
	return temp, hum, true
}

// IIOAnalog reads raw ADC samples from an IIO device, e.g. an ADS1115 or
// MCP3008 bound to its kernel driver.
type IIOAnalog struct {
	Dir string
}

// ReadAnalog returns the raw value of in_voltage<channel>_raw.
func (a IIOAnalog) ReadAnalog(channel int) (int, error) {
	path := filepath.Join(a.Dir, fmt.Sprintf("in_voltage%d_raw", channel))
	v, err := readInt(path)
	if err != nil {
		return 0, fmt.Errorf("read adc channel %d: %w", channel, err)
	}
	return int(v), nil
}

func readMilli(path string) (float64, error) {
	v, err := readInt(path)
	if err != nil {
		return math.NaN(), err
	}
	return float64(v) / 1000, nil
}

func readInt(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}
