package timing

import (
	"time"

	"github.com/itohio/trainspeed/pkg/detector"
	"github.com/itohio/trainspeed/pkg/topology"
)

// State of the timing machine.
type State int

const (
	Idle State = iota
	// WaitForClear holds until every detector reads clear for the inter-train delay.
	WaitForClear
	// WaitForEntry waits for either entry detector.
	WaitForEntry
	// Armed means the direction is known but nothing is stamped yet (block entry).
	Armed
	TimingLeg1
	TimingLeg2
	Computing
)

var stateNames = [...]string{
	Idle:         "idle",
	WaitForClear: "wait for clear",
	WaitForEntry: "wait for entry",
	Armed:        "armed",
	TimingLeg1:   "timing leg 1",
	TimingLeg2:   "timing leg 2",
	Computing:    "computing",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Timing reports whether a passage is in progress.
func (s State) Timing() bool {
	return s == Armed || s == TimingLeg1 || s == TimingLeg2
}

// Passage is the train currently being timed.
type Passage struct {
	Direction topology.Direction
	Started   time.Time // first trigger
	// Timestamps are milliseconds since Started, in the order events occurred.
	Timestamps []int64
	// Distances in mm; Distances[i] belongs to the interval after Timestamps[i].
	Distances []int
	// Seen marks detectors that were occupied at some point during the passage.
	Seen []bool

	steps  []topology.Step
	cursor int
}

func newPassage(plan topology.Plan, detectors int, now time.Time) *Passage {
	return &Passage{
		Direction:  plan.Direction,
		Started:    now,
		Timestamps: make([]int64, 0, plan.Stamps()),
		Distances:  plan.Distances,
		Seen:       make([]bool, detectors),
		steps:      plan.Steps,
	}
}

// Complete reports whether every expected detector has fired.
func (p *Passage) Complete() bool {
	return p.cursor >= len(p.steps)
}

// Next returns the detector the passage is waiting for, or -1 when complete.
func (p *Passage) Next() int {
	if p.Complete() {
		return -1
	}
	return p.steps[p.cursor].Detector
}

// observe marks occupied detectors as seen.
func (p *Passage) observe(a detector.Array) {
	for i := range p.Seen {
		if !p.Seen[i] && a.IsOccupied(i) {
			p.Seen[i] = true
		}
	}
}

// advance consumes every expected detector that reads occupied now. It
// returns true when at least one step was consumed.
func (p *Passage) advance(a detector.Array, now time.Time) bool {
	progressed := false
	for !p.Complete() {
		step := p.steps[p.cursor]
		if !a.IsOccupied(step.Detector) {
			break
		}
		p.Seen[step.Detector] = true
		if step.Stamp {
			p.Timestamps = append(p.Timestamps, now.Sub(p.Started).Milliseconds())
		}
		p.cursor++
		progressed = true
	}
	return progressed
}

// state maps the progress of the passage onto the machine state.
func (p *Passage) state() State {
	if p.Complete() {
		return Computing
	}
	switch len(p.Timestamps) {
	case 0:
		return Armed
	case 1:
		return TimingLeg1
	default:
		return TimingLeg2
	}
}
