package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/itohio/trainspeed/pkg/config"
	"github.com/itohio/trainspeed/pkg/detector"
	"github.com/itohio/trainspeed/pkg/report"
	"github.com/itohio/trainspeed/pkg/timing"
	"golang.org/x/sync/errgroup"
)

// Mock runs the timing machine against simulated trains and feeds its serial
// output back through the line parser, exactly as a real speed trap would.
type Mock struct {
	cfg *config.Config

	events    chan report.Event
	mu        sync.RWMutex
	cancel    context.CancelFunc
	group     *errgroup.Group
	connected bool
	closed    bool
}

// NewMock creates a new mocked device. A nil cfg uses the defaults.
func NewMock(cfg *config.Config) *Mock {
	if cfg == nil {
		cfg = config.Default()
	}

	return &Mock{
		cfg:    cfg,
		events: make(chan report.Event, DefaultBufferSize),
	}
}

// Connect starts the simulation. The first train is released once the
// inter-train delay has passed.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}
	if m.closed {
		return fmt.Errorf("device closed")
	}

	meas := m.cfg.Measurement
	if err := meas.Validate(); err != nil {
		return fmt.Errorf("invalid measurement configuration: %w", err)
	}

	sim := detector.NewSim(meas, m.cfg.Mock, time.Now().Add(meas.InterTrainDelay), nil)
	pr, pw := io.Pipe()
	reporter := report.NewSerial(pw)

	var run func(ctx context.Context) error
	if meas.TestMode {
		run = timing.NewSelfTest(sim, reporter, m.cfg.Mock.PollRate).Run
	} else {
		machine, err := timing.New(meas, sim, timing.SystemClock{}, reporter)
		if err != nil {
			return fmt.Errorf("failed to create timing machine: %w", err)
		}
		machine.SetPollInterval(m.cfg.Mock.PollRate)
		run = machine.Run
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer pw.Close()
		if err := run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// Unblock the writer if the reader stops first.
		defer pr.Close()
		readEvents(ctx, pr, m.events)
		return nil
	})

	m.cancel = cancel
	m.group = g
	m.connected = true

	return nil
}

// Close stops the simulation and closes the events channel.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	err := m.group.Wait()
	m.connected = false
	m.closed = true
	close(m.events)

	return err
}

// Events returns the channel of parsed events.
func (m *Mock) Events() <-chan report.Event {
	return m.events
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}
