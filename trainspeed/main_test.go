package main

import (
	"testing"

	"github.com/itohio/trainspeed/pkg/config"
	"github.com/itohio/trainspeed/pkg/detector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDetectors_Mock(t *testing.T) {
	cfg := config.Default()

	array, err := openDetectors(cfg, true)
	require.NoError(t, err)
	assert.IsType(t, &detector.Sim{}, array)
	assert.Equal(t, cfg.Measurement.Topology.Detectors(), array.Len())
}

func TestOpenDetectors_NoPins(t *testing.T) {
	cfg := config.Default()
	cfg.Detectors.Pins = nil

	_, err := openDetectors(cfg, false)
	assert.Error(t, err)
}
