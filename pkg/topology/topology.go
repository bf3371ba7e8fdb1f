package topology

import (
	"fmt"
	"strings"
)

// Topology identifies the detector arrangement installed on the track.
type Topology int

const (
	// GatesVelocity uses 2 point detectors and 1 distance.
	GatesVelocity Topology = iota
	// GatesAcceleration uses 3 point detectors and 2 distances.
	GatesAcceleration
	// BlocksAcceleration uses 4 occupancy blocks and 2 distances.
	BlocksAcceleration
	// BlocksVelocity2 uses 2 occupancy blocks and 1 distance. The measured zone
	// differs with the direction of travel.
	BlocksVelocity2
	// BlocksVelocity3 uses 3 occupancy blocks and 1 distance (the middle block).
	BlocksVelocity3
)

// Kind tells point detectors from zone detectors.
type Kind int

const (
	Gates Kind = iota
	Blocks
)

func (k Kind) String() string {
	if k == Blocks {
		return "BLOCKS"
	}
	return "GATES"
}

// Step is one detector the passage waits for. Stamp is false for an entry
// block that only fixes the direction.
type Step struct {
	Detector int
	Stamp    bool
}

// Descriptor is the static description of a topology. Steps and
// DistanceOrder are indexed by Direction.
type Descriptor struct {
	Name      string
	Kind      Kind
	Detectors int
	Distances int
	Steps     [2][]Step
	// DistanceOrder maps leg index to configured distance index.
	DistanceOrder [2][]int
}

var descriptors = map[Topology]Descriptor{
	GatesVelocity: {
		Name:      "gates_velocity",
		Kind:      Gates,
		Detectors: 2,
		Distances: 1,
		Steps: [2][]Step{
			Forward: {{0, true}, {1, true}},
			Reverse: {{1, true}, {0, true}},
		},
		DistanceOrder: [2][]int{Forward: {0}, Reverse: {0}},
	},
	GatesAcceleration: {
		Name:      "gates_acceleration",
		Kind:      Gates,
		Detectors: 3,
		Distances: 2,
		Steps: [2][]Step{
			Forward: {{0, true}, {1, true}, {2, true}},
			Reverse: {{2, true}, {1, true}, {0, true}},
		},
		DistanceOrder: [2][]int{Forward: {0, 1}, Reverse: {1, 0}},
	},
	BlocksAcceleration: {
		Name:      "blocks_acceleration",
		Kind:      Blocks,
		Detectors: 4,
		Distances: 2,
		Steps: [2][]Step{
			Forward: {{0, false}, {1, true}, {2, true}, {3, true}},
			Reverse: {{3, false}, {2, true}, {1, true}, {0, true}},
		},
		DistanceOrder: [2][]int{Forward: {0, 1}, Reverse: {1, 0}},
	},
	BlocksVelocity2: {
		Name:      "blocks_velocity_2",
		Kind:      Blocks,
		Detectors: 2,
		Distances: 1,
		Steps: [2][]Step{
			Forward: {{0, true}, {1, true}},
			Reverse: {{1, true}, {0, true}},
		},
		DistanceOrder: [2][]int{Forward: {0}, Reverse: {0}},
	},
	BlocksVelocity3: {
		Name:      "blocks_velocity_3",
		Kind:      Blocks,
		Detectors: 3,
		Distances: 1,
		Steps: [2][]Step{
			Forward: {{0, false}, {1, true}, {2, true}},
			Reverse: {{2, false}, {1, true}, {0, true}},
		},
		DistanceOrder: [2][]int{Forward: {0}, Reverse: {0}},
	},
}

// All returns every supported topology in declaration order.
func All() []Topology {
	return []Topology{GatesVelocity, GatesAcceleration, BlocksAcceleration, BlocksVelocity2, BlocksVelocity3}
}

// Describe returns the descriptor of t.
func (t Topology) Describe() (Descriptor, error) {
	d, ok := descriptors[t]
	if !ok {
		return Descriptor{}, fmt.Errorf("unknown topology %d", int(t))
	}
	return d, nil
}

// Valid reports whether t is a known topology.
func (t Topology) Valid() bool {
	_, ok := descriptors[t]
	return ok
}

// Detectors returns the number of detectors t requires (0 when unknown).
func (t Topology) Detectors() int {
	return descriptors[t].Detectors
}

// Distances returns the number of configured distances t uses (0 when unknown).
func (t Topology) Distances() int {
	return descriptors[t].Distances
}

// MeasuresAcceleration reports whether a passage yields three timestamps.
func (t Topology) MeasuresAcceleration() bool {
	return descriptors[t].Distances == 2
}

// Kind returns whether t is built from gates or blocks.
func (t Topology) Kind() Kind {
	return descriptors[t].Kind
}

func (t Topology) String() string {
	if d, ok := descriptors[t]; ok {
		return d.Name
	}
	return fmt.Sprintf("Topology(%d)", int(t))
}

// Parse resolves a topology name as used in configuration files.
func Parse(s string) (Topology, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t, d := range descriptors {
		if d.Name == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown topology %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Topology) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown topology %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Topology) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
