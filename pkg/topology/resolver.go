package topology

import "errors"

// Direction of travel across the detector array.
type Direction int

const (
	// Forward travel enters at detector 0.
	Forward Direction = iota
	// Reverse travel enters at the last detector.
	Reverse
)

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

var (
	// ErrAmbiguousEntry is returned when both entry detectors are occupied at
	// the moment entry is checked.
	ErrAmbiguousEntry = errors.New("ambiguous entry")
	// ErrNoEntry is returned when neither entry detector is occupied.
	ErrNoEntry = errors.New("no entry")
)

// Plan is the resolved course of one passage.
type Plan struct {
	Direction Direction
	// Steps lists the detectors to wait for, entry first.
	Steps []Step
	// Distances holds the leg distances in millimetres, ordered so that
	// Distances[0] belongs to the first time interval observed.
	Distances []int
}

// Stamps returns the number of timestamps the plan produces.
func (p Plan) Stamps() int {
	n := 0
	for _, s := range p.Steps {
		if s.Stamp {
			n++
		}
	}
	return n
}

// Entries returns the entry detector for each direction.
func (d Descriptor) Entries() (forward, reverse int) {
	return d.Steps[Forward][0].Detector, d.Steps[Reverse][0].Detector
}

// Resolve decides the direction from the entry detector states and assigns
// the configured distances to legs. It never blocks.
func (d Descriptor) Resolve(forwardOccupied, reverseOccupied bool, distances []int) (Plan, error) {
	var dir Direction
	switch {
	case forwardOccupied && reverseOccupied:
		return Plan{}, ErrAmbiguousEntry
	case forwardOccupied:
		dir = Forward
	case reverseOccupied:
		dir = Reverse
	default:
		return Plan{}, ErrNoEntry
	}

	legs := make([]int, len(d.DistanceOrder[dir]))
	for i, idx := range d.DistanceOrder[dir] {
		if idx < len(distances) {
			legs[i] = distances[idx]
		}
	}

	return Plan{
		Direction: dir,
		Steps:     d.Steps[dir],
		Distances: legs,
	}, nil
}
