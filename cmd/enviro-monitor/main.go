// Command enviro-monitor samples enclosure temperature, humidity and light,
// drives the fan, light and alarm outputs, and uploads telemetry.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/sweeney/enviro-monitor/internal/actuator"
	"github.com/sweeney/enviro-monitor/internal/config"
	"github.com/sweeney/enviro-monitor/internal/display"
	"github.com/sweeney/enviro-monitor/internal/gpio"
	"github.com/sweeney/enviro-monitor/internal/logging"
	"github.com/sweeney/enviro-monitor/internal/logic"
	"github.com/sweeney/enviro-monitor/internal/metrics"
	"github.com/sweeney/enviro-monitor/internal/monitor"
	"github.com/sweeney/enviro-monitor/internal/mqtt"
	"github.com/sweeney/enviro-monitor/internal/sensor"
	"github.com/sweeney/enviro-monitor/internal/status"
	"github.com/sweeney/enviro-monitor/internal/telemetry"
	"github.com/sweeney/enviro-monitor/internal/web"
)

func main() {
	cfg, printState, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, printState, logger); err != nil {
		logger.Fatal("fatal", zap.Error(err))
	}
}

// loadConfig parses flags, loads file and environment settings, applies the
// flags that were given explicitly and validates the result.
func loadConfig(args []string) (*config.Daemon, bool, error) {
	fs := flag.NewFlagSet("enviro-monitor", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file (optional)")
	broker := fs.String("broker", "", "MQTT broker address (empty string disables MQTT)")
	heartbeat := fs.Duration("heartbeat", 0, "Heartbeat interval (0 to disable)")
	httpAddr := fs.String("http", "", "HTTP status address (empty string disables)")
	endpoint := fs.String("endpoint", "", "Telemetry base URL")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	printState := fs.Bool("print-state", false, "Print one reading and the decided outputs, then exit")

	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}

	cfg, err := config.LoadDaemon(*configPath)
	if err != nil {
		return nil, false, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "broker":
			cfg.MQTT.Broker = *broker
		case "heartbeat":
			cfg.MQTT.Heartbeat = *heartbeat
		case "http":
			cfg.HTTP.Addr = *httpAddr
		case "endpoint":
			cfg.Telemetry.Endpoint = *endpoint
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	return cfg, *printState, nil
}

func run(cfg *config.Daemon, printState bool, logger *zap.Logger) error {
	reader := sensor.NewReader(
		gpio.IIOClimate{Dir: cfg.GPIO.ClimateDir},
		gpio.IIOAnalog{Dir: cfg.GPIO.ADCDir},
		cfg.GPIO.LightChannel,
		time.Now,
		logger.Named("sensor"),
	)

	// Print state mode never touches the outputs.
	if printState {
		r := reader.Read()
		if !r.Valid {
			return errors.New("sensor read failed")
		}
		s := logic.Decide(r)
		fmt.Printf("T: %.1fC, H: %.1f%%, Light: %d\n", r.Temperature, r.Humidity, r.LightLevel)
		fmt.Printf("Fan: %s, Light: %s, Alarm: %s\n", logic.StateOf(s.Fan), logic.StateOf(s.Light), logic.StateOf(s.Buzzer))
		return nil
	}

	outputs, err := gpio.NewRealOutputs(cfg.GPIO.Chip, cfg.Pins.OffLevels())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	driver := actuator.NewDriver(outputs, cfg.Pins, logger.Named("actuator"))
	// Close switches every output off before releasing the lines.
	defer driver.Close()

	transport := telemetry.NewHTTPTransport(cfg.Telemetry.Endpoint, cfg.Telemetry.AlarmField, cfg.Telemetry.Timeout)
	uploader := telemetry.NewUploader(transport, cfg.Telemetry.Interval, cfg.Telemetry.Timeout, logger.Named("telemetry"))

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		TickMs:         logic.SensorReadInterval.Milliseconds(),
		SendIntervalMs: cfg.Telemetry.Interval.Milliseconds(),
		HeartbeatMs:    cfg.MQTT.Heartbeat.Milliseconds(),
		Endpoint:       cfg.Telemetry.Endpoint,
		AlarmField:     cfg.Telemetry.AlarmField,
		Broker:         cfg.MQTT.Broker,
		HTTPPort:       cfg.HTTP.Addr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	var (
		publisher  mqtt.Publisher
		mqttStatus mqtt.ConnectionStatus
	)
	if cfg.MQTT.Broker != "" {
		rp, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID, logger.Named("mqtt"))
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer rp.Close()
		publisher, mqttStatus = rp, rp
		tracker.SetMQTTConnected(rp.IsConnected())

		snap := tracker.Snapshot()
		startup := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startup); err != nil {
			logger.Warn("failed to publish startup event", zap.Error(err))
		} else {
			logger.Info("published startup event")
		}
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, m.Handler())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("http server error", zap.Error(err))
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Info("http status server listening", zap.String("addr", cfg.HTTP.Addr))
	}

	mon := monitor.New(monitor.Deps{
		Sensor:    reader,
		Actuators: driver,
		Display:   display.NewConsole(os.Stdout),
		Uploader:  uploader,
		Publisher: publisher,
		Tracker:   tracker,
		Metrics:   m,
		Logger:    logger.Named("monitor"),
	})
	if err := mon.Init(); err != nil {
		return fmt.Errorf("init outputs: %w", err)
	}

	logger.Info("started",
		zap.Duration("tick", logic.SensorReadInterval),
		zap.String("endpoint", cfg.Telemetry.Endpoint),
		zap.Duration("send_interval", cfg.Telemetry.Interval),
		zap.String("broker", cfg.MQTT.Broker),
		zap.Duration("heartbeat", cfg.MQTT.Heartbeat))

	ticker := time.NewTicker(logic.SensorReadInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(mon, publisher, mqttStatus, tracker, cfg.MQTT.Heartbeat, time.Now, ticker.C, sigCh, logger)
}

// runLoop ticks the monitor until a signal arrives. publisher and mqttStatus
// may be nil when MQTT is disabled.
func runLoop(mon *monitor.Monitor, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for {
		select {
		case s := <-sig:
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			logger.Info("shutting down", zap.String("signal", signalName))
			if publisher == nil {
				return nil
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				refreshMQTT(tracker, mqttStatus)
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				logger.Warn("failed to publish shutdown event", zap.Error(err))
			} else {
				logger.Info("published shutdown event")
			}
			return nil

		case <-tick:
			mon.Tick(ctx)
			t := now()

			if hb := mon.CheckHeartbeat(t, heartbeat); hb != nil && publisher != nil {
				logger.Info("heartbeat",
					zap.Duration("uptime", hb.Uptime),
					zap.Int("fan_on", hb.Counts.FanOn),
					zap.Int("light_on", hb.Counts.LightOn),
					zap.Int("alarm_on", hb.Counts.AlarmOn))

				hbEvent := mqtt.SystemEvent{
					Timestamp: hb.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					refreshMQTT(tracker, mqttStatus)
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					logger.Warn("heartbeat publish error", zap.Error(err))
				}
			}

			if tracker != nil {
				refreshMQTT(tracker, mqttStatus)
			}
		}
	}
}

func refreshMQTT(tracker *status.Tracker, mqttStatus mqtt.ConnectionStatus) {
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
