package timing

import (
	"context"
	"fmt"
	"time"

	"github.com/itohio/trainspeed/pkg/detector"
)

// SelfTest reports detector changes instead of timing trains. It is used to
// align gates and check block wiring on the layout.
type SelfTest struct {
	array    detector.Array
	reporter Reporter
	poll     time.Duration

	started bool
	last    []bool
}

// NewSelfTest creates a SelfTest polling every poll (zero busy-polls).
func NewSelfTest(array detector.Array, reporter Reporter, poll time.Duration) *SelfTest {
	return &SelfTest{
		array:    array,
		reporter: reporter,
		poll:     poll,
	}
}

// Step polls once. The first call announces test mode and reports every
// occupied detector.
func (s *SelfTest) Step() {
	if !s.started {
		s.started = true
		s.last = make([]bool, s.array.Len())
		s.reporter.Status(StatusTestMode)
	}

	for i := range s.last {
		occupied := s.array.IsOccupied(i)
		if occupied == s.last[i] {
			continue
		}
		s.last[i] = occupied
		state := "clear"
		if occupied {
			state = "occupied"
		}
		s.reporter.Status(fmt.Sprintf("%s detector %d %s", StatusTestMode, i, state))
	}
}

// Run polls until ctx is done.
func (s *SelfTest) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.Step()

		if s.poll > 0 {
			time.Sleep(s.poll)
		}
	}
}
