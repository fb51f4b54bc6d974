// Package config loads daemon and ingestion service settings from an
// optional YAML file with environment overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sweeney/enviro-monitor/internal/actuator"
	"github.com/sweeney/enviro-monitor/internal/gpio"
	"github.com/sweeney/enviro-monitor/internal/telemetry"
)

// EnvPrefix prefixes every generated daemon environment key.
const EnvPrefix = "ENVIRO"

// Daemon is the enviro-monitor configuration.
type Daemon struct {
	Telemetry Telemetry     `yaml:"telemetry"`
	GPIO      GPIO          `yaml:"gpio"`
	Pins      actuator.Pins `yaml:"pins"`
	MQTT      MQTT          `yaml:"mqtt"`
	HTTP      HTTP          `yaml:"http"`
	LogLevel  string        `yaml:"log_level" env:"LOG_LEVEL"`
}

// Telemetry configures uploads to the ingestion service.
type Telemetry struct {
	Endpoint   string        `yaml:"endpoint"`
	Interval   time.Duration `yaml:"interval"`
	Timeout    time.Duration `yaml:"timeout"`
	AlarmField string        `yaml:"alarm_field" env:"ENVIRO_TELEMETRY_ALARM_FIELD"`
}

// GPIO locates the output chip and the IIO sensor devices.
type GPIO struct {
	Chip         string `yaml:"chip"`
	ClimateDir   string `yaml:"climate_dir" env:"ENVIRO_GPIO_CLIMATE_DIR"`
	ADCDir       string `yaml:"adc_dir" env:"ENVIRO_GPIO_ADC_DIR"`
	LightChannel int    `yaml:"light_channel" env:"ENVIRO_GPIO_LIGHT_CHANNEL"`
}

// MQTT configures the event publisher. An empty broker disables it.
type MQTT struct {
	Broker    string        `yaml:"broker"`
	ClientID  string        `yaml:"client_id" env:"ENVIRO_MQTT_CLIENT_ID"`
	Heartbeat time.Duration `yaml:"heartbeat"`
}

// HTTP configures the local status server. An empty address disables it.
type HTTP struct {
	Addr string `yaml:"addr"`
}

// DefaultDaemon returns the configuration used when nothing is overridden.
func DefaultDaemon() Daemon {
	return Daemon{
		Telemetry: Telemetry{
			Endpoint:   "http://localhost:3000",
			Interval:   30 * time.Second,
			Timeout:    5 * time.Second,
			AlarmField: telemetry.DefaultAlarmField,
		},
		GPIO: GPIO{
			Chip:         "gpiochip0",
			ClimateDir:   "/sys/bus/iio/devices/iio:device0",
			ADCDir:       "/sys/bus/iio/devices/iio:device1",
			LightChannel: gpio.DefaultLightChannel,
		},
		Pins: actuator.DefaultPins(),
		MQTT: MQTT{
			Broker:    "tcp://192.168.1.200:1883",
			ClientID:  "enviro-monitor",
			Heartbeat: 15 * time.Minute,
		},
		HTTP:     HTTP{Addr: ":80"},
		LogLevel: "info",
	}
}

// LoadDaemon reads the daemon configuration over DefaultDaemon. It does not
// validate: command-line overrides are applied first, then Validate.
func LoadDaemon(path string) (*Daemon, error) {
	cfg := DefaultDaemon()
	if err := Load(path, EnvPrefix, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the daemon cannot run with.
func (c *Daemon) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Telemetry.Endpoint) == "" {
		errs = append(errs, errors.New("telemetry endpoint required"))
	} else if u, err := url.Parse(c.Telemetry.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("telemetry endpoint %q is not an absolute URL", c.Telemetry.Endpoint))
	}
	if c.Telemetry.Interval <= 0 {
		errs = append(errs, errors.New("telemetry interval must be positive"))
	}
	if c.Telemetry.Timeout <= 0 {
		errs = append(errs, errors.New("telemetry timeout must be positive"))
	}
	if strings.TrimSpace(c.Telemetry.AlarmField) == "" {
		errs = append(errs, errors.New("telemetry alarm field required"))
	}
	if c.GPIO.LightChannel < 0 {
		errs = append(errs, errors.New("light channel must not be negative"))
	}
	if c.MQTT.Heartbeat < 0 {
		errs = append(errs, errors.New("heartbeat must not be negative"))
	}
	if err := c.Pins.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Ingest is the enviro-ingest configuration.
type Ingest struct {
	HTTP struct {
		Port string `yaml:"port" env:"INGEST_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"INGEST_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr string `yaml:"addr" env:"INGEST_REDIS_ADDR"`
	} `yaml:"redis"`
	AlarmField  string   `yaml:"alarm_field" env:"INGEST_ALARM_FIELD"`
	CORSOrigins []string `yaml:"cors_origins" env:"-"`
	LogLevel    string   `yaml:"log_level" env:"LOG_LEVEL"`
}

// LoadIngest reads the ingestion service configuration.
func LoadIngest(path string) (*Ingest, error) {
	cfg := &Ingest{AlarmField: telemetry.DefaultAlarmField}
	cfg.HTTP.Port = "3000"

	if err := Load(path, "INGEST", cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.AlarmField) == "" {
		return nil, errors.New("config: alarm field required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Ingest) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "3000"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
