package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/itohio/trainspeed/pkg/topology"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidTopology is returned for an unknown detector topology.
	ErrInvalidTopology = errors.New("invalid topology")
	// ErrInvalidDistance is returned when a required distance is missing or below 1mm.
	ErrInvalidDistance = errors.New("invalid distance")
	// ErrInvalidScale is returned when the scale is below 1.
	ErrInvalidScale = errors.New("invalid scale")
	// ErrInvalidPins is returned when the pin list does not match the detector count.
	ErrInvalidPins = errors.New("invalid detector pins")
)

// Config represents the application configuration.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	Measurement MeasurementConfig `yaml:"measurement"`
	Detectors   DetectorsConfig   `yaml:"detectors"`
	Mock        MockConfig        `yaml:"mock"`
	Display     DisplayConfig     `yaml:"display"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// MeasurementConfig describes the track installation. It is fixed for the
// lifetime of a timing machine.
type MeasurementConfig struct {
	Topology        topology.Topology `yaml:"topology"`
	Scale           int               `yaml:"scale"`             // 1:Scale
	Distances       []int             `yaml:"distances"`         // mm, distance_0 and distance_1
	InterTrainDelay time.Duration     `yaml:"inter_train_delay"` // all clear time before arming
	PassageTimeout  time.Duration     `yaml:"passage_timeout"`   // 0 waits forever
	TestMode        bool              `yaml:"test_mode"`         // report detector changes instead of timing
}

// DetectorsConfig maps detectors to GPIO pins on the host runner.
type DetectorsConfig struct {
	Pins      []string `yaml:"pins"`       // periph pin names, detector 0 first
	ActiveLow bool     `yaml:"active_low"` // occupied reads low (typical for IR receivers)
}

// MockConfig contains the simulated train used by the mock device.
type MockConfig struct {
	Velocity       float64       `yaml:"velocity"`         // m/s at the first detector
	Acceleration   float64       `yaml:"acceleration"`     // m/s²
	TrainLength    int           `yaml:"train_length"`     // mm
	Approach       int           `yaml:"approach"`         // mm of track before the first detector
	EndBlockLength int           `yaml:"end_block_length"` // mm, length of entry/exit blocks
	Period         time.Duration `yaml:"period"`           // time between trains
	Reverse        bool          `yaml:"reverse"`          // alternate direction every train
	PollRate       time.Duration `yaml:"poll_rate"`        // timing loop poll interval
}

// DisplayConfig controls how the viewer presents readings.
type DisplayConfig struct {
	Window  time.Duration `yaml:"window"`  // readings older than this are dropped from the chart
	Average int           `yaml:"average"` // readings in the rolling average (0 = disabled)
	Mph     bool          `yaml:"mph"`     // show mph instead of km/h
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "COM3", // Default for Windows, should be "/dev/ttyACM0" on Linux/Mac
			BaudRate: 115200,
		},
		Measurement: MeasurementConfig{
			Topology:        topology.GatesAcceleration,
			Scale:           148,
			Distances:       []int{100, 100},
			InterTrainDelay: 3 * time.Second,
		},
		Detectors: DetectorsConfig{
			ActiveLow: true,
		},
		Mock: MockConfig{
			Velocity:       0.4,
			Acceleration:   0.0,
			TrainLength:    300,
			Approach:       200,
			EndBlockLength: 200,
			Period:         10 * time.Second,
			Reverse:        true,
			PollRate:       time.Millisecond,
		},
		Display: DisplayConfig{
			Window:  10 * time.Minute,
			Average: 5,
			Mph:     true,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the whole configuration. Pins are only checked when set.
func (c *Config) Validate() error {
	if err := c.Measurement.Validate(); err != nil {
		return err
	}
	if n := len(c.Detectors.Pins); n > 0 && n != c.Measurement.Topology.Detectors() {
		return fmt.Errorf("%w: %s needs %d pins, got %d", ErrInvalidPins, c.Measurement.Topology, c.Measurement.Topology.Detectors(), n)
	}
	return nil
}

// Validate checks that the distances and scale suit the topology.
func (m *MeasurementConfig) Validate() error {
	if !m.Topology.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidTopology, int(m.Topology))
	}
	if m.Scale < 1 {
		return fmt.Errorf("%w: 1:%d", ErrInvalidScale, m.Scale)
	}
	need := m.Topology.Distances()
	if len(m.Distances) < need {
		return fmt.Errorf("%w: %s needs %d distances, got %d", ErrInvalidDistance, m.Topology, need, len(m.Distances))
	}
	for i := 0; i < need; i++ {
		if m.Distances[i] < 1 {
			return fmt.Errorf("%w: distance_%d is %dmm", ErrInvalidDistance, i, m.Distances[i])
		}
	}
	return nil
}

// Distance returns distance i in mm, or 0 when it is not configured.
func (m *MeasurementConfig) Distance(i int) int {
	if i < 0 || i >= len(m.Distances) {
		return 0
	}
	return m.Distances[i]
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Measurement.Scale == 0 {
		c.Measurement.Scale = def.Measurement.Scale
	}
	if len(c.Measurement.Distances) == 0 {
		c.Measurement.Distances = def.Measurement.Distances
	}

	if c.Mock.Velocity == 0 {
		c.Mock.Velocity = def.Mock.Velocity
	}
	if c.Mock.TrainLength == 0 {
		c.Mock.TrainLength = def.Mock.TrainLength
	}
	if c.Mock.Approach == 0 {
		c.Mock.Approach = def.Mock.Approach
	}
	if c.Mock.EndBlockLength == 0 {
		c.Mock.EndBlockLength = def.Mock.EndBlockLength
	}
	if c.Mock.Period == 0 {
		c.Mock.Period = def.Mock.Period
	}
	if c.Mock.PollRate == 0 {
		c.Mock.PollRate = def.Mock.PollRate
	}

	if c.Display.Window == 0 {
		c.Display.Window = def.Display.Window
	}
}
