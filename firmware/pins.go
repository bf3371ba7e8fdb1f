//go:build tinygo

package main

import (
	"machine"
	"time"

	"github.com/itohio/trainspeed/pkg/topology"
)

const (
	// Installation, fixed at build time
	TOPOLOGY          = topology.GatesAcceleration
	SCALE             = 148 // 1:148, N gauge (UK)
	DISTANCE_0        = 100 // mm between the first two timing points
	DISTANCE_1        = 100 // mm between the second and third timing points
	INTER_TRAIN_DELAY = 3 * time.Second
	PASSAGE_TIMEOUT   = 0 // 0 waits forever for a stalled train
	TEST_MODE         = false

	// IR receivers pull the line low while the beam is broken
	DETECTOR_ACTIVE_LOW = true

	// Main loop poll interval
	POLL_INTERVAL = 100 * time.Microsecond

	// Serial configuration
	// Longest line is VA_DATA at ~130 bytes, a few lines per passage.
	// 115200 baud is far beyond what is needed and matches the host default.
	UART_BAUD_RATE = 115200
)

var (
	// Detector inputs, detector 0 first. Only the first TOPOLOGY.Detectors() are used.
	PIN_DETECTORS = [...]machine.Pin{machine.D0, machine.D1, machine.D2, machine.D3}

	// One LED per detector, lit once the detector has fired during a passage
	PIN_LEDS = [...]machine.Pin{machine.D7, machine.D8, machine.D9, machine.D10}

	// Blinks while waiting for the track to clear and after a fatal error
	PIN_STATUS_LED = machine.LED
)
