// Package timing implements the train detection and timing state machine.
//
// The machine is driven by a single control loop. Each call to Step polls the
// detector array once and moves through
//
//	Idle -> WaitForClear -> WaitForEntry -> [Armed] -> TimingLeg1 -> [TimingLeg2] -> Computing -> WaitForClear
//
// Armed is only visited by topologies whose entry block does not stamp, and
// TimingLeg2 only by topologies that measure acceleration. Exactly one passage
// is timed at a time, and a new one can only begin after every detector has
// read clear for the inter-train delay.
//
// A passage either yields a complete Result or nothing at all.
package timing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/itohio/trainspeed/pkg/config"
	"github.com/itohio/trainspeed/pkg/detector"
	"github.com/itohio/trainspeed/pkg/kinematics"
	"github.com/itohio/trainspeed/pkg/topology"
)

var (
	// ErrSensorsNotClear is reported when a detector is occupied at startup.
	ErrSensorsNotClear = errors.New("sensors not clear")
	// ErrPassageTimeout is reported when a started passage exceeds the passage timeout.
	ErrPassageTimeout = errors.New("passage timed out")
	// ErrAmbiguousEntry is passed to Reporter.Abandoned when both entry detectors fire together.
	ErrAmbiguousEntry = topology.ErrAmbiguousEntry
	// ErrDetectorCount is returned when the array does not match the topology.
	ErrDetectorCount = errors.New("detector count does not match topology")
)

// Clock provides the current time. Only differences between readings matter.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock, which carries Go's monotonic reading.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Machine times one passage after another. It is owned by a single
// goroutine and is not safe for concurrent use.
type Machine struct {
	cfg      config.MeasurementConfig
	desc     topology.Descriptor
	array    detector.Array
	clock    Clock
	reporter Reporter

	poll        time.Duration
	transitions []func(from, to State)

	state     State
	passage   *Passage
	since     time.Time // start of the current clear period
	countdown int64     // last reported whole seconds, -1 when none

	results   int
	abandoned int
}

// New creates a Machine. The configuration is validated here; an invalid
// configuration cannot be recovered from at runtime.
func New(cfg config.MeasurementConfig, array detector.Array, clock Clock, reporter Reporter) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	desc, err := cfg.Topology.Describe()
	if err != nil {
		return nil, err
	}
	if array.Len() != desc.Detectors {
		return nil, fmt.Errorf("%w: %s needs %d, got %d", ErrDetectorCount, cfg.Topology, desc.Detectors, array.Len())
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if reporter == nil {
		reporter = Multi(nil)
	}

	return &Machine{
		cfg:       cfg,
		desc:      desc,
		array:     array,
		clock:     clock,
		reporter:  reporter,
		state:     Idle,
		countdown: -1,
	}, nil
}

// SetPollInterval makes Run sleep between polls. Zero (default) busy-polls.
func (m *Machine) SetPollInterval(d time.Duration) {
	m.poll = d
}

// OnTransition registers a callback invoked on every state change. It can
// serve as a watchdog hook.
func (m *Machine) OnTransition(cb func(from, to State)) {
	m.transitions = append(m.transitions, cb)
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Passage returns the passage being timed, or nil.
func (m *Machine) Passage() *Passage {
	return m.passage
}

// Results returns the number of results produced so far.
func (m *Machine) Results() int {
	return m.results
}

// Abandoned returns the number of passages dropped without a result.
func (m *Machine) Abandoned() int {
	return m.abandoned
}

// Config returns the measurement configuration.
func (m *Machine) Config() config.MeasurementConfig {
	return m.cfg
}

// Run polls until ctx is done.
func (m *Machine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		m.Step()

		if m.poll > 0 {
			time.Sleep(m.poll)
		}
	}
}

// Step polls the detectors once and performs at most one state's work.
func (m *Machine) Step() State {
	now := m.clock.Now()

	switch m.state {
	case Idle:
		m.start(now)
	case WaitForClear:
		m.waitForClear(now)
	case WaitForEntry:
		m.waitForEntry(now)
	case Armed, TimingLeg1, TimingLeg2:
		m.timing(now)
	case Computing:
		m.compute(now)
	}

	return m.state
}

// start announces the configuration and runs the initial self-check.
func (m *Machine) start(now time.Time) {
	m.reporter.Ready(m.cfg)
	if m.array.AnyOccupied() {
		m.reporter.Error(ErrSensorsNotClear)
	}
	m.toWaitForClear(now)
}

func (m *Machine) waitForClear(now time.Time) {
	if m.array.AnyOccupied() {
		m.since = now
		m.countdown = -1
		return
	}

	remaining := m.cfg.InterTrainDelay - now.Sub(m.since)
	if remaining <= 0 {
		m.enter(WaitForEntry)
		m.reporter.Status(StatusWaiting)
		return
	}

	secs := int64((remaining + time.Second - 1) / time.Second)
	if secs != m.countdown {
		m.countdown = secs
		m.reporter.Clearing(remaining)
	}
}

func (m *Machine) waitForEntry(now time.Time) {
	fwd, rev := m.desc.Entries()
	plan, err := m.desc.Resolve(m.array.IsOccupied(fwd), m.array.IsOccupied(rev), m.cfg.Distances)
	switch {
	case errors.Is(err, topology.ErrNoEntry):
		return
	case err != nil:
		m.abandoned++
		m.reporter.Abandoned(err)
		m.toWaitForClear(now)
		return
	}

	m.passage = newPassage(plan, m.array.Len(), now)
	m.passage.advance(m.array, now)
	m.passage.observe(m.array)
	m.reporter.Status(StatusTiming)
	m.reporter.Progress(m.passage)
	m.enter(m.passage.state())
}

func (m *Machine) timing(now time.Time) {
	if m.cfg.PassageTimeout > 0 && now.Sub(m.passage.Started) > m.cfg.PassageTimeout {
		m.abandoned++
		m.passage = nil
		m.reporter.Error(ErrPassageTimeout)
		m.toWaitForClear(now)
		return
	}

	m.passage.observe(m.array)
	if m.passage.advance(m.array, now) {
		m.reporter.Progress(m.passage)
		m.enter(m.passage.state())
	}
}

func (m *Machine) compute(now time.Time) {
	m.reporter.Status(StatusCalculating)

	res, err := kinematics.Calculate(kinematics.Input{
		Timestamps: m.passage.Timestamps,
		Distances:  m.passage.Distances,
		Scale:      m.cfg.Scale,
	})
	m.passage = nil
	if err != nil {
		m.abandoned++
		m.reporter.Error(err)
	} else {
		m.results++
		m.reporter.Result(res)
	}

	m.toWaitForClear(now)
}

func (m *Machine) toWaitForClear(now time.Time) {
	m.since = now
	m.countdown = -1
	m.enter(WaitForClear)
}

func (m *Machine) enter(s State) {
	if s == m.state {
		return
	}
	from := m.state
	m.state = s
	for _, cb := range m.transitions {
		if cb != nil {
			cb(from, s)
		}
	}
}
