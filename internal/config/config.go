// Package config loads the yaml configuration of both binaries. The
// monitor's file is also written back, so the sensor address chosen at
// runtime survives a restart. Environment variables override file values
// for quick field tweaks.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/5TUM8L3/vigia-fogo/internal/severity"
)

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// Sensor configures the sensord node.
type Sensor struct {
	Listen      string              `yaml:"listen"`       // HTTP bind address
	ADCPath     string              `yaml:"adc_path"`     // IIO raw channel file
	GPSDevice   string              `yaml:"gps_device"`   // serial stream of NMEA sentences
	FallbackLat float64             `yaml:"fallback_lat"` // reported while the fix is stale/absent
	FallbackLng float64             `yaml:"fallback_lng"`
	GPSMaxAge   time.Duration       `yaml:"gps_max_age"` // fix freshness bound
	Thresholds  severity.Thresholds `yaml:"thresholds"`
}

// DefaultSensor is the stock field-unit configuration.
func DefaultSensor() Sensor {
	return Sensor{
		Listen:     ":8180",
		ADCPath:    "/sys/bus/iio/devices/iio:device0/in_voltage0_raw",
		GPSDevice:  "/dev/serial0",
		GPSMaxAge:  2000 * time.Millisecond,
		Thresholds: severity.DefaultThresholds,
	}
}

func (c Sensor) Validate() error {
	if c.Listen == "" {
		return errors.New("listen cannot be empty")
	}
	if !c.Thresholds.Valid() {
		return fmt.Errorf("thresholds must be strictly increasing: %+v", c.Thresholds)
	}
	if c.FallbackLat < -90 || c.FallbackLat > 90 {
		return fmt.Errorf("fallback_lat out of range: %v", c.FallbackLat)
	}
	if c.FallbackLng < -180 || c.FallbackLng > 180 {
		return fmt.Errorf("fallback_lng out of range: %v", c.FallbackLng)
	}
	if c.GPSMaxAge <= 0 {
		return errors.New("gps_max_age must be positive")
	}
	return nil
}

// LoadSensor reads the sensord configuration; a missing file yields the
// defaults. SENSOR_LISTEN and GPS_DEVICE override the file.
func LoadSensor(path string) (Sensor, error) {
	c := DefaultSensor()
	if b, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return c, err
	}
	c.Listen = getenv("SENSOR_LISTEN", c.Listen)
	c.GPSDevice = getenv("GPS_DEVICE", c.GPSDevice)
	c.ADCPath = getenv("ADC_PATH", c.ADCPath)
	return c, c.Validate()
}

// Monitor configures the monitoring client.
type Monitor struct {
	SensorAddr   string        `yaml:"sensor_addr"` // host:port of the sensor node
	PollInterval time.Duration `yaml:"poll_interval"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	NtfyURL      string        `yaml:"ntfy_url"`
	NtfyTopic    string        `yaml:"ntfy_topic"`
	MetricsAddr  string        `yaml:"metrics_addr"`
}

func DefaultMonitor() Monitor {
	return Monitor{
		SensorAddr:   "192.168.4.1:8180",
		PollInterval: 1000 * time.Millisecond,
		FetchTimeout: 2000 * time.Millisecond,
		NtfyURL:      "https://ntfy.sh",
		NtfyTopic:    "vigia-fogo",
		MetricsAddr:  ":2112",
	}
}

func (c Monitor) Validate() error {
	if c.SensorAddr == "" {
		return errors.New("sensor_addr cannot be empty")
	}
	if c.PollInterval <= 0 || c.FetchTimeout <= 0 {
		return errors.New("poll_interval and fetch_timeout must be positive")
	}
	return nil
}

// SnapshotURL is the poll target derived from the sensor address.
func (c Monitor) SnapshotURL() string {
	addr := c.SensorAddr
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return strings.TrimRight(addr, "/") + "/fire-alert"
}

// LoadMonitor reads the monitor configuration; a missing file yields the
// defaults. SENSOR_ADDR, NTFY_URL and NTFY_TOPIC override the file.
func LoadMonitor(path string) (Monitor, error) {
	c := DefaultMonitor()
	if b, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return c, err
	}
	c.SensorAddr = getenv("SENSOR_ADDR", c.SensorAddr)
	c.NtfyURL = getenv("NTFY_URL", c.NtfyURL)
	c.NtfyTopic = getenv("NTFY_TOPIC", c.NtfyTopic)
	return c, c.Validate()
}

// SaveMonitor persists the monitor configuration (notably a sensor
// address changed at runtime).
func SaveMonitor(path string, c Monitor) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
