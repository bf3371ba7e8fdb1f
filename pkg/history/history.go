package history

import (
	"sync"
	"time"

	"github.com/itohio/trainspeed/pkg/config"
	"github.com/itohio/trainspeed/pkg/kinematics"
	"github.com/itohio/trainspeed/pkg/report"
	"github.com/itohio/trainspeed/pkg/timing"
)

var _ Recorder = (*History)(nil)

// Entry is one timed passage.
type Entry struct {
	Time    time.Time
	Reading kinematics.Result
}

// Snapshot is a consistent copy of everything the history knows.
type Snapshot struct {
	Ready     *report.Ready
	Status    string
	Error     string
	Entries   []Entry // oldest first
	Detectors []bool  // last known occupancy from test mode, nil outside test mode
	Average   float64 // rolling average of scale speed, see Average
}

// Last returns the most recent entry.
func (s Snapshot) Last() (Entry, bool) {
	if len(s.Entries) == 0 {
		return Entry{}, false
	}
	return s.Entries[len(s.Entries)-1], true
}

// Recorder consumes device events and keeps recent readings.
type Recorder interface {
	ProcessEvents(input <-chan report.Event)
	Snapshot() Snapshot
	OnUpdate(func(Snapshot)) // Register callback for updates
}

// History keeps readings received within a time window.
type History struct {
	window  time.Duration
	average int
	mph     bool

	mu        sync.RWMutex
	ready     *report.Ready
	status    string
	lastErr   string
	entries   []Entry
	detectors []bool

	callbacks []func(Snapshot)
	cbMu      sync.RWMutex

	// Set when the input channel closes, prevents further callbacks
	shutdown bool
}

// New creates a History from the display configuration.
func New(cfg config.DisplayConfig) *History {
	return &History{
		window:  cfg.Window,
		average: cfg.Average,
		mph:     cfg.Mph,
		entries: make([]Entry, 0),
	}
}

// ProcessEvents consumes events until the input channel closes.
func (h *History) ProcessEvents(input <-chan report.Event) {
	for ev := range input {
		h.process(ev)
	}
	h.mu.Lock()
	h.shutdown = true
	h.mu.Unlock()
}

func (h *History) process(ev report.Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	h.mu.Lock()
	switch ev.Kind {
	case report.KindReady:
		h.ready = ev.Ready
		h.status = ""
		h.lastErr = ""
		h.detectors = nil
	case report.KindStatus:
		h.status = ev.Message
		if i, occupied, ok := report.ParseDetectorStatus(ev.Message); ok {
			h.setDetector(i, occupied)
		} else if ev.Message == timing.StatusTestMode && h.detectors == nil {
			h.detectors = make([]bool, h.detectorCount())
		}
	case report.KindError:
		h.lastErr = ev.Message
	case report.KindReading:
		if ev.Reading != nil {
			h.entries = append(h.entries, Entry{Time: ev.Time, Reading: *ev.Reading})
			h.lastErr = ""
		}
	}
	h.prune(ev.Time)
	shouldNotify := !h.shutdown
	h.mu.Unlock()

	if shouldNotify {
		h.notifyCallbacks()
	}
}

func (h *History) detectorCount() int {
	if h.ready == nil {
		return 0
	}
	return h.ready.Detectors
}

func (h *History) setDetector(i int, occupied bool) {
	if i >= len(h.detectors) {
		grown := make([]bool, i+1)
		copy(grown, h.detectors)
		h.detectors = grown
	}
	h.detectors[i] = occupied
}

// prune drops entries that fell out of the window.
func (h *History) prune(now time.Time) {
	if h.window <= 0 {
		return
	}
	cutoff := now.Add(-h.window)
	n := 0
	for n < len(h.entries) && h.entries[n].Time.Before(cutoff) {
		n++
	}
	if n > 0 {
		h.entries = h.entries[n:]
	}
}

// Snapshot returns a copy of the current state.
func (h *History) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snapshot()
}

func (h *History) snapshot() Snapshot {
	s := Snapshot{
		Ready:   h.ready,
		Status:  h.status,
		Error:   h.lastErr,
		Entries: make([]Entry, len(h.entries)),
	}
	copy(s.Entries, h.entries)
	if h.detectors != nil {
		s.Detectors = make([]bool, len(h.detectors))
		copy(s.Detectors, h.detectors)
	}
	s.Average = Average(s.Entries, h.average, h.mph)
	return s
}

// OnUpdate registers a callback invoked after every event.
// The callback should return as fast as possible.
func (h *History) OnUpdate(callback func(Snapshot)) {
	h.cbMu.Lock()
	defer h.cbMu.Unlock()
	h.callbacks = append(h.callbacks, callback)
}

// ResetShutdown allows callbacks again before a new device is attached.
func (h *History) ResetShutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shutdown = false
}

// SetMph selects the unit of the rolling average.
func (h *History) SetMph(mph bool) {
	h.mu.Lock()
	h.mph = mph
	h.mu.Unlock()
	h.notifyCallbacks()
}

// Clear forgets all readings.
func (h *History) Clear() {
	h.mu.Lock()
	h.entries = h.entries[:0]
	h.mu.Unlock()
	h.notifyCallbacks()
}

func (h *History) notifyCallbacks() {
	snap := h.Snapshot()

	h.cbMu.RLock()
	callbacks := make([]func(Snapshot), len(h.callbacks))
	copy(callbacks, h.callbacks)
	h.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(snap)
		}
	}
}
