package config

import (
	"os"
	"testing"
	"time"

	"github.com/itohio/trainspeed/pkg/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, topology.GatesAcceleration, cfg.Measurement.Topology)
	assert.Equal(t, 148, cfg.Measurement.Scale)
	assert.Equal(t, []int{100, 100}, cfg.Measurement.Distances)
	assert.Equal(t, 3*time.Second, cfg.Measurement.InterTrainDelay)
	assert.Zero(t, cfg.Measurement.PassageTimeout)
	assert.Empty(t, cfg.Detectors.Pins)
	assert.Equal(t, 0.4, cfg.Mock.Velocity)
	assert.Equal(t, 10*time.Minute, cfg.Display.Window)
	assert.Equal(t, 5, cfg.Display.Average)
	assert.True(t, cfg.Display.Mph)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyACM0"
  baud_rate: 9600

measurement:
  topology: blocks_acceleration
  scale: 87
  distances: [250, 300]
  inter_train_delay: 5s
  passage_timeout: 1m

detectors:
  pins: ["GPIO5", "GPIO6", "GPIO13", "GPIO19"]
  active_low: false

mock:
  velocity: 0.8
  acceleration: -0.1
  train_length: 450
  period: 30s
  reverse: false

display:
  window: 1h
  average: 0
  mph: false
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, topology.BlocksAcceleration, cfg.Measurement.Topology)
	assert.Equal(t, 87, cfg.Measurement.Scale)
	assert.Equal(t, []int{250, 300}, cfg.Measurement.Distances)
	assert.Equal(t, 5*time.Second, cfg.Measurement.InterTrainDelay)
	assert.Equal(t, time.Minute, cfg.Measurement.PassageTimeout)
	assert.Equal(t, []string{"GPIO5", "GPIO6", "GPIO13", "GPIO19"}, cfg.Detectors.Pins)
	assert.False(t, cfg.Detectors.ActiveLow)
	assert.Equal(t, 0.8, cfg.Mock.Velocity)
	assert.Equal(t, -0.1, cfg.Mock.Acceleration)
	assert.Equal(t, 450, cfg.Mock.TrainLength)
	assert.Equal(t, 30*time.Second, cfg.Mock.Period)
	assert.False(t, cfg.Mock.Reverse)
	assert.Equal(t, time.Hour, cfg.Display.Window)
	assert.Zero(t, cfg.Display.Average)
	assert.False(t, cfg.Display.Mph)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_UnknownTopology(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("measurement:\n  topology: gates_9\n")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyACM0"
measurement:
  topology: gates_velocity
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Should use defaults for missing fields
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, topology.GatesVelocity, cfg.Measurement.Topology)
	assert.Equal(t, 148, cfg.Measurement.Scale)                     // default
	assert.Equal(t, 3*time.Second, cfg.Measurement.InterTrainDelay) // default
	assert.Equal(t, 10*time.Second, cfg.Mock.Period)                // default
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Measurement.Topology = topology.BlocksVelocity3
	cfg.Measurement.Distances = []int{420}

	tmpfile, err := os.CreateTemp("", "test_save_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	err = cfg.Save(tmpfile.Name())
	require.NoError(t, err)

	loaded, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", loaded.Serial.Port)
	assert.Equal(t, topology.BlocksVelocity3, loaded.Measurement.Topology)
	assert.Equal(t, []int{420}, loaded.Measurement.Distances)
	assert.Equal(t, cfg.Measurement.InterTrainDelay, loaded.Measurement.InterTrainDelay)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr error
	}{
		{
			name:   "defaults",
			modify: func(c *Config) {},
		},
		{
			name: "velocity only with one distance",
			modify: func(c *Config) {
				c.Measurement.Topology = topology.GatesVelocity
				c.Measurement.Distances = []int{100}
			},
		},
		{
			name: "velocity only ignores zero second distance",
			modify: func(c *Config) {
				c.Measurement.Topology = topology.BlocksVelocity2
				c.Measurement.Distances = []int{100, 0}
			},
		},
		{
			name: "unknown topology",
			modify: func(c *Config) {
				c.Measurement.Topology = topology.Topology(99)
			},
			wantErr: ErrInvalidTopology,
		},
		{
			name: "acceleration missing second distance",
			modify: func(c *Config) {
				c.Measurement.Distances = []int{100}
			},
			wantErr: ErrInvalidDistance,
		},
		{
			name: "acceleration zero second distance",
			modify: func(c *Config) {
				c.Measurement.Distances = []int{100, 0}
			},
			wantErr: ErrInvalidDistance,
		},
		{
			name: "zero first distance",
			modify: func(c *Config) {
				c.Measurement.Topology = topology.GatesVelocity
				c.Measurement.Distances = []int{0}
			},
			wantErr: ErrInvalidDistance,
		},
		{
			name: "zero scale",
			modify: func(c *Config) {
				c.Measurement.Scale = 0
			},
			wantErr: ErrInvalidScale,
		},
		{
			name: "pins do not match detectors",
			modify: func(c *Config) {
				c.Detectors.Pins = []string{"GPIO17", "GPIO27"}
			},
			wantErr: ErrInvalidPins,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestMeasurementConfig_Distance(t *testing.T) {
	m := MeasurementConfig{Distances: []int{120}}
	assert.Equal(t, 120, m.Distance(0))
	assert.Equal(t, 0, m.Distance(1))
	assert.Equal(t, 0, m.Distance(-1))
}
