// Package config loads simulator settings from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/ahu-sim/internal/logger"
)

// Config holds the settings shared by the simulator commands. Fields left
// out of the file keep their defaults.
type Config struct {
	DeviceID   string  `yaml:"device_id"`
	BuildingID string  `yaml:"building_id"`
	Setpoint   float64 `yaml:"setpoint"`

	PIDKp float64 `yaml:"pid_kp"`
	PIDKi float64 `yaml:"pid_ki"`
	PIDKd float64 `yaml:"pid_kd"`

	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`

	MQTTBroker string `yaml:"mqtt_broker"`
	MQTTPort   int    `yaml:"mqtt_port"`
	MQTTTopic  string `yaml:"mqtt_topic"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		DeviceID:   "ahu1",
		BuildingID: "demo_building",
		Setpoint:   18.0,
		PIDKp:      2.0,
		PIDKi:      0.1,
		PIDKd:      0.05,
		Latitude:   40.7128,
		Longitude:  -74.0060,
		MQTTBroker: "localhost",
		MQTTPort:   1883,
		MQTTTopic:  "building/ahu1/telemetry",
	}
}

// Load reads path and overlays it on the defaults. A missing file is not an
// error: the defaults let the simulator start without any configuration.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logger.Warn("config file %s not found, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks for values outside their physical or protocol ranges.
func (c Config) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %g", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %g", c.Longitude)
	}
	if c.MQTTPort < 1 || c.MQTTPort > 65535 {
		return fmt.Errorf("mqtt_port must be between 1 and 65535, got %d", c.MQTTPort)
	}
	return nil
}

// BrokerURL returns the broker address in the form the MQTT client expects.
func (c Config) BrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}
