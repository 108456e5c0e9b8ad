// Package config loads the YAML configuration shared by the robot and
// controller binaries. A missing file is not an error; it yields the
// defaults so a freshly flashed robot still comes up.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the binaries look when no path is given.
const DefaultPath = "minsky.yaml"

var (
	ErrInvalidBrokerPort    = errors.New("broker port must be between 1 and 65535")
	ErrInvalidTickPeriod    = errors.New("tick period must be positive")
	ErrInvalidTelemetryRate = errors.New("telemetry rate must be positive")
	ErrInvalidLoopSleep     = errors.New("loop sleep must not be negative")
)

// Config holds the settings for the robot runtime and its bus
// connection.
type Config struct {
	// DebugOn enables debug level logging.
	DebugOn bool `yaml:"debug_on"`

	// ClientID identifies this node on the bus. Empty means a random
	// ID is generated at connect time.
	ClientID string `yaml:"client_id"`

	// BrokerHost and BrokerPort locate the message broker. An empty
	// host means discover the broker via mDNS.
	BrokerHost string `yaml:"broker_host"`
	BrokerPort int    `yaml:"broker_port"`

	// UseBus controls whether the robot connects to the broker at
	// all. Off means the robot runs standalone.
	UseBus bool `yaml:"use_bus"`

	// UseDiscovery controls mDNS advertisement and lookup.
	UseDiscovery bool `yaml:"use_discovery"`

	// TickPeriodMS is the heartbeat timer period in milliseconds.
	TickPeriodMS int64 `yaml:"tick_period_ms"`

	// LoopSleepMS paces the run loop. Every iteration yields for this
	// long so an idle robot does not burn a full core. Zero disables
	// the pause.
	LoopSleepMS int64 `yaml:"loop_sleep_ms"`

	// TelemetryPerSecond caps how many telemetry reports are
	// published per second.
	TelemetryPerSecond float64 `yaml:"telemetry_per_second"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		BrokerPort:         4452,
		UseBus:             true,
		UseDiscovery:       true,
		TickPeriodMS:       5000,
		LoopSleepMS:        10,
		TelemetryPerSecond: 2,
	}
}

// Load reads the configuration at path. A missing file returns
// Default(); a malformed or invalid file returns an error.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the runtime cannot
// work with.
func (c Config) Validate() error {
	if c.BrokerPort < 1 || c.BrokerPort > 65535 {
		return fmt.Errorf("%w: got %d", ErrInvalidBrokerPort, c.BrokerPort)
	}
	if c.TickPeriodMS <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidTickPeriod, c.TickPeriodMS)
	}
	if c.LoopSleepMS < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidLoopSleep, c.LoopSleepMS)
	}
	if c.TelemetryPerSecond <= 0 {
		return fmt.Errorf("%w: got %g", ErrInvalidTelemetryRate, c.TelemetryPerSecond)
	}
	return nil
}

// BrokerAddr returns the host:port string for dialing the broker.
func (c Config) BrokerAddr() string {
	return fmt.Sprintf("%s:%d", c.BrokerHost, c.BrokerPort)
}
