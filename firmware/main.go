//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"time"

	"github.com/itohio/trainspeed/pkg/config"
	"github.com/itohio/trainspeed/pkg/detector"
	"github.com/itohio/trainspeed/pkg/kinematics"
	"github.com/itohio/trainspeed/pkg/report"
	"github.com/itohio/trainspeed/pkg/timing"
)

var uart = machine.UART0

// pinArray reads detectors from MCU input pins.
type pinArray struct {
	pins []machine.Pin
}

func (a pinArray) Len() int {
	return len(a.pins)
}

func (a pinArray) IsOccupied(index int) bool {
	if index < 0 || index >= len(a.pins) {
		return false
	}
	return a.pins[index].Get() != DETECTOR_ACTIVE_LOW
}

func (a pinArray) AnyOccupied() bool {
	return detector.AnyOf(a)
}

// leds mirrors passage progress on one LED per detector.
type leds struct {
	pins []machine.Pin
}

func (l leds) set(states []bool) {
	for i, p := range l.pins {
		p.Set(i < len(states) && states[i])
	}
}

func (l leds) off() {
	l.set(nil)
}

func (l leds) Ready(config.MeasurementConfig) {}

func (l leds) Status(msg string) {
	if msg == timing.StatusWaiting {
		l.off()
	}
}

func (l leds) Error(error) {}

// Clearing blinks the status LED once per remaining second.
func (l leds) Clearing(remaining time.Duration) {
	PIN_STATUS_LED.Set(!PIN_STATUS_LED.Get())
}

func (l leds) Progress(p *timing.Passage) {
	l.set(p.Seen)
}

func (l leds) Abandoned(error) {
	l.off()
}

func (l leds) Result(kinematics.Result) {}

func main() {
	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})
	serial := report.NewSerial(uart)

	cfg := config.MeasurementConfig{
		Topology:        TOPOLOGY,
		Scale:           SCALE,
		Distances:       []int{DISTANCE_0, DISTANCE_1},
		InterTrainDelay: INTER_TRAIN_DELAY,
		PassageTimeout:  PASSAGE_TIMEOUT,
		TestMode:        TEST_MODE,
	}

	n := cfg.Topology.Detectors()
	if n > len(PIN_DETECTORS) {
		n = len(PIN_DETECTORS)
	}
	array := pinArray{pins: PIN_DETECTORS[:n]}
	for _, p := range array.pins {
		p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	}
	indicators := leds{pins: PIN_LEDS[:n]}
	for _, p := range indicators.pins {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	}
	PIN_STATUS_LED.Configure(machine.PinConfig{Mode: machine.PinOutput})

	reporter := timing.Multi{serial, indicators}

	if cfg.TestMode {
		test := timing.NewSelfTest(array, reporter, 0)
		for {
			test.Step()
			indicators.set(detector.Snapshot(array))
			time.Sleep(POLL_INTERVAL)
		}
	}

	m, err := timing.New(cfg, array, timing.SystemClock{}, reporter)
	if err != nil {
		serial.Error(err)
		halt()
	}

	// Status LED is lit while a passage is being timed
	m.OnTransition(func(from, to timing.State) {
		PIN_STATUS_LED.Set(to.Timing())
	})

	for {
		m.Step()
		time.Sleep(POLL_INTERVAL)
	}
}

// halt blinks the status LED forever. Nothing else is written to the UART.
func halt() {
	for {
		PIN_STATUS_LED.High()
		time.Sleep(100 * time.Millisecond)
		PIN_STATUS_LED.Low()
		time.Sleep(100 * time.Millisecond)
	}
}
