// Package detector abstracts the track-mounted gates or blocks.
package detector

import "sync"

// Array is a set of binary detectors indexed 0..Len()-1. Reads have no side
// effects and may be polled as fast as the caller likes.
type Array interface {
	Len() int
	IsOccupied(index int) bool
	AnyOccupied() bool
}

var (
	_ Array = (*Static)(nil)
	_ Array = (*Sim)(nil)
	_ Array = (*GPIO)(nil)
)

// AnyOf implements AnyOccupied for arrays that only know IsOccupied.
func AnyOf(a Array) bool {
	for i, n := 0, a.Len(); i < n; i++ {
		if a.IsOccupied(i) {
			return true
		}
	}
	return false
}

// Snapshot reads every detector once.
func Snapshot(a Array) []bool {
	states := make([]bool, a.Len())
	for i := range states {
		states[i] = a.IsOccupied(i)
	}
	return states
}

// Static is an array whose states are set explicitly.
type Static struct {
	mu     sync.RWMutex
	states []bool
}

// NewStatic creates n clear detectors.
func NewStatic(n int) *Static {
	return &Static{states: make([]bool, n)}
}

// Set changes the state of one detector. Out of range indices are ignored.
func (s *Static) Set(index int, occupied bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index >= 0 && index < len(s.states) {
		s.states[index] = occupied
	}
}

// Clear marks every detector clear.
func (s *Static) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.states {
		s.states[i] = false
	}
}

func (s *Static) Len() int {
	return len(s.states)
}

func (s *Static) IsOccupied(index int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.states) {
		return false
	}
	return s.states[index]
}

func (s *Static) AnyOccupied() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, occupied := range s.states {
		if occupied {
			return true
		}
	}
	return false
}
