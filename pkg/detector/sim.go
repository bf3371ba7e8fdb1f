package detector

import (
	"math"
	"time"

	"github.com/itohio/trainspeed/pkg/config"
	"github.com/itohio/trainspeed/pkg/topology"
)

// Zone is the stretch of track a detector covers, in mm. Gates have Start == End.
type Zone struct {
	Start float64
	End   float64
}

// Sim simulates trains running over the detectors. A new train starts every
// Period; with Reverse set, every second train runs in reverse. Trains move
// with constant acceleration and stop when their velocity reaches zero.
//
// Sim keeps no mutable state, the occupancy is derived from the clock alone.
type Sim struct {
	zones  []Zone
	length float64 // train length, mm
	start  float64 // forward start position, mm
	end    float64 // reverse start position, mm

	velocity     float64 // m/s
	acceleration float64 // m/s²
	period       time.Duration
	reverse      bool

	epoch time.Time
	now   func() time.Time
}

// NewSim lays out detectors along the track from the measurement distances.
// The first train starts at epoch.
func NewSim(m config.MeasurementConfig, mock config.MockConfig, epoch time.Time, now func() time.Time) *Sim {
	if now == nil {
		now = time.Now
	}
	zones := Layout(m.Topology, m.Distances, float64(mock.EndBlockLength))

	var first, last float64
	if len(zones) > 0 {
		first, last = zones[0].Start, zones[len(zones)-1].End
	}
	return &Sim{
		zones:        zones,
		length:       float64(mock.TrainLength),
		start:        first - float64(mock.Approach),
		end:          last + float64(mock.Approach),
		velocity:     mock.Velocity,
		acceleration: mock.Acceleration,
		period:       mock.Period,
		reverse:      mock.Reverse,
		epoch:        epoch,
		now:          now,
	}
}

// Layout places the detectors of a topology on the track. Position 0 is the
// first timing point. endBlock is the length of entry and exit blocks that
// do not take part in timing.
func Layout(t topology.Topology, distances []int, endBlock float64) []Zone {
	d := func(i int) float64 {
		if i < len(distances) {
			return float64(distances[i])
		}
		return 0
	}
	d0, d1 := d(0), d(1)

	switch t {
	case topology.GatesVelocity:
		return []Zone{{0, 0}, {d0, d0}}
	case topology.GatesAcceleration:
		return []Zone{{0, 0}, {d0, d0}, {d0 + d1, d0 + d1}}
	case topology.BlocksAcceleration:
		return []Zone{{-endBlock, 0}, {0, d0}, {d0, d0 + d1}, {d0 + d1, d0 + d1 + endBlock}}
	case topology.BlocksVelocity2:
		// Forward times block 0, reverse times block 1.
		return []Zone{{0, d0}, {d0, 2 * d0}}
	case topology.BlocksVelocity3:
		return []Zone{{-endBlock, 0}, {0, d0}, {d0, d0 + endBlock}}
	}
	return nil
}

// Zones returns the detector layout.
func (s *Sim) Zones() []Zone {
	zones := make([]Zone, len(s.zones))
	copy(zones, s.zones)
	return zones
}

func (s *Sim) Len() int {
	return len(s.zones)
}

func (s *Sim) IsOccupied(index int) bool {
	if index < 0 || index >= len(s.zones) {
		return false
	}
	lo, hi, ok := s.train(s.now())
	if !ok {
		return false
	}
	z := s.zones[index]
	return lo <= z.End && hi >= z.Start
}

func (s *Sim) AnyOccupied() bool {
	lo, hi, ok := s.train(s.now())
	if !ok {
		return false
	}
	for _, z := range s.zones {
		if lo <= z.End && hi >= z.Start {
			return true
		}
	}
	return false
}

// train returns the stretch of track the current train covers.
func (s *Sim) train(now time.Time) (lo, hi float64, ok bool) {
	elapsed := now.Sub(s.epoch)
	if elapsed < 0 || s.period <= 0 {
		return 0, 0, false
	}
	n := int64(elapsed / s.period)
	t := (elapsed - time.Duration(n)*s.period).Seconds()

	travelled := Travelled(s.velocity, s.acceleration, t) * 1000
	if s.reverse && n%2 == 1 {
		head := s.end - travelled
		return head, head + s.length, true
	}
	head := s.start + travelled
	return head - s.length, head, true
}

// Travelled returns the distance in metres covered after t seconds starting
// at v m/s with constant acceleration a. A decelerating train stops rather
// than reversing.
func Travelled(v, a, t float64) float64 {
	if a < 0 {
		stop := -v / a
		if t > stop {
			t = stop
		}
	}
	return math.Max(0, v*t+0.5*a*t*t)
}
