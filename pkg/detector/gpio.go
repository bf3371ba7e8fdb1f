package detector

import (
	"fmt"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

// GPIO reads detectors wired to host GPIO pins, e.g. on a Raspberry Pi.
type GPIO struct {
	pins      []gpio.PinIn
	activeLow bool
}

// OpenGPIO initializes the host drivers and configures the named pins as
// inputs. Names are in the format expected by gpioreg.ByName; for a
// Raspberry Pi that is the BCM pin name, e.g. "GPIO17".
func OpenGPIO(names []string, activeLow bool) (*GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize host drivers: %w", err)
	}

	pins := make([]gpio.PinIn, 0, len(names))
	for i, name := range names {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("no GPIO pin named %s for detector %d", name, i)
		}
		pins = append(pins, p)
	}

	return NewGPIO(pins, activeLow)
}

// NewGPIO wraps already resolved pins. Pins are configured as floating
// inputs; the detector electronics drive the line.
func NewGPIO(pins []gpio.PinIn, activeLow bool) (*GPIO, error) {
	for i, p := range pins {
		if err := p.In(gpio.Float, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("failed to configure detector %d on %s: %w", i, p.Name(), err)
		}
	}
	return &GPIO{pins: pins, activeLow: activeLow}, nil
}

func (g *GPIO) Len() int {
	return len(g.pins)
}

func (g *GPIO) IsOccupied(index int) bool {
	if index < 0 || index >= len(g.pins) {
		return false
	}
	return g.pins[index].Read() != gpio.Level(g.activeLow)
}

func (g *GPIO) AnyOccupied() bool {
	return AnyOf(g)
}
