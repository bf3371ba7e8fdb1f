package timing

import (
	"log"
	"time"

	"github.com/itohio/trainspeed/pkg/config"
	"github.com/itohio/trainspeed/pkg/kinematics"
)

// Status messages.
const (
	StatusWaiting     = "Waiting for train"
	StatusTiming      = "Timing train"
	StatusCalculating = "Calculating"
	StatusTestMode    = "Test mode"
)

// Reporter consumes everything the timing machine has to say. Display,
// LED and serial sinks implement it. Calls happen on the control loop and
// should return quickly.
type Reporter interface {
	// Ready is called once at startup with the active configuration.
	Ready(cfg config.MeasurementConfig)
	Status(msg string)
	Error(err error)
	// Clearing is called while waiting for the track to clear, whenever the
	// remaining whole seconds change.
	Clearing(remaining time.Duration)
	// Progress is called after each detector the passage was waiting for fires.
	Progress(p *Passage)
	// Abandoned is called when a passage attempt is dropped without a result
	// and without an error report, e.g. on ambiguous entry.
	Abandoned(err error)
	Result(r kinematics.Result)
}

// Multi fans every event out to several reporters.
type Multi []Reporter

var (
	_ Reporter = Multi(nil)
	_ Reporter = (*LogReporter)(nil)
)

func (m Multi) Ready(cfg config.MeasurementConfig) {
	for _, r := range m {
		r.Ready(cfg)
	}
}

func (m Multi) Status(msg string) {
	for _, r := range m {
		r.Status(msg)
	}
}

func (m Multi) Error(err error) {
	for _, r := range m {
		r.Error(err)
	}
}

func (m Multi) Clearing(remaining time.Duration) {
	for _, r := range m {
		r.Clearing(remaining)
	}
}

func (m Multi) Progress(p *Passage) {
	for _, r := range m {
		r.Progress(p)
	}
}

func (m Multi) Abandoned(err error) {
	for _, r := range m {
		r.Abandoned(err)
	}
}

func (m Multi) Result(res kinematics.Result) {
	for _, r := range m {
		r.Result(res)
	}
}

// LogReporter writes diagnostics to the standard logger.
type LogReporter struct {
	Verbose bool // also log status, countdown and progress
}

func (l *LogReporter) Ready(cfg config.MeasurementConfig) {
	log.Printf("Ready: %s, scale 1:%d, distances %v mm, inter-train delay %s", cfg.Topology, cfg.Scale, cfg.Distances, cfg.InterTrainDelay)
}

func (l *LogReporter) Status(msg string) {
	if l.Verbose {
		log.Printf("Status: %s", msg)
	}
}

func (l *LogReporter) Error(err error) {
	log.Printf("Error: %v", err)
}

func (l *LogReporter) Clearing(remaining time.Duration) {
	if l.Verbose {
		log.Printf("Waiting for clear track: %s", remaining.Round(time.Second))
	}
}

func (l *LogReporter) Progress(p *Passage) {
	if l.Verbose {
		log.Printf("Passage %s: timestamps %v ms", p.Direction, p.Timestamps)
	}
}

func (l *LogReporter) Abandoned(err error) {
	log.Printf("Passage abandoned: %v", err)
}

func (l *LogReporter) Result(r kinematics.Result) {
	log.Printf("Result: %dmm in %dms, %.3f m/s, %.1f km/h, %.1f mph", r.Distance, r.Time, r.Velocity, r.ScaleKmh, r.ScaleMph)
}
