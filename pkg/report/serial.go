// Package report renders timing events as serial lines and parses them back.
//
// Line format, one event per line:
//
//	READY: SCALE:1:<n> DISTANCE_0:<n>mm DISTANCE_1:<n>mm INTER_TRAIN_DELAY:<n>ms MEASURING:<VELOCITY|ACCELERATION_VELOCITY> TRIGGERS:<n>_<GATES|BLOCKS>
//	STATUS: <message>.
//	ERROR: <message>.
//	V_DATA: 1:<scale> <distance>mm <time>ms <v>m/s <v>km/h <v>mph
//	VA_DATA: 1:<scale> <d1>mm <d2>mm <t>ms <t1>ms <t2>ms <v>m/s <v1>m/s <v2>m/s <a>m/s/s <v>km/h <a>km/h/s <v>mph <a>mph/s
//
// Velocities and accelerations carry two decimals.
package report

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/itohio/trainspeed/pkg/config"
	"github.com/itohio/trainspeed/pkg/kinematics"
	"github.com/itohio/trainspeed/pkg/timing"
)

// Line tags.
const (
	TagReady  = "READY"
	TagStatus = "STATUS"
	TagError  = "ERROR"
	TagV      = "V_DATA"
	TagVA     = "VA_DATA"
)

const (
	measuringVelocity     = "VELOCITY"
	measuringAcceleration = "ACCELERATION_VELOCITY"
)

var messages = map[error]string{
	timing.ErrSensorsNotClear:  "Sensors not clear",
	timing.ErrPassageTimeout:   "Passage timed out",
	kinematics.ErrZeroInterval: "Zero time interval",
	kinematics.ErrMismatch:     "Timestamps and distances mismatch",
}

// Serial writes one line per event. Clearing, Progress and Abandoned are not
// part of the line protocol and are ignored.
type Serial struct {
	mu sync.Mutex
	w  io.Writer
}

var _ timing.Reporter = (*Serial)(nil)

// NewSerial creates a Serial reporter writing to w.
func NewSerial(w io.Writer) *Serial {
	return &Serial{w: w}
}

func (s *Serial) Ready(cfg config.MeasurementConfig) {
	s.writeLine(FormatReady(cfg))
}

func (s *Serial) Status(msg string) {
	s.writeLine(TagStatus + ": " + msg + ".")
}

func (s *Serial) Error(err error) {
	s.writeLine(TagError + ": " + Message(err) + ".")
}

func (s *Serial) Clearing(time.Duration) {}

func (s *Serial) Progress(*timing.Passage) {}

func (s *Serial) Abandoned(error) {}

func (s *Serial) Result(r kinematics.Result) {
	s.writeLine(FormatResult(r))
}

func (s *Serial) writeLine(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, line+"\n"); err != nil {
		log.Printf("Failed to write line '%s': %v", line, err)
	}
}

// FormatReady renders the READY line.
func FormatReady(cfg config.MeasurementConfig) string {
	measuring := measuringVelocity
	if cfg.Topology.MeasuresAcceleration() {
		measuring = measuringAcceleration
	}
	return fmt.Sprintf("%s: SCALE:1:%d DISTANCE_0:%dmm DISTANCE_1:%dmm INTER_TRAIN_DELAY:%dms MEASURING:%s TRIGGERS:%d_%s",
		TagReady,
		cfg.Scale,
		cfg.Distance(0),
		cfg.Distance(1),
		cfg.InterTrainDelay.Milliseconds(),
		measuring,
		cfg.Topology.Detectors(),
		cfg.Topology.Kind(),
	)
}

// FormatResult renders a V_DATA or VA_DATA line.
func FormatResult(r kinematics.Result) string {
	var b strings.Builder
	if r.HasAcceleration && len(r.LegTimes) == 2 && len(r.LegVelocities) == 2 {
		b.WriteString(TagVA)
		fmt.Fprintf(&b, ": 1:%d", r.Scale)
		fmt.Fprintf(&b, " %dmm %dmm", r.LegDistances[0], r.LegDistances[1])
		fmt.Fprintf(&b, " %dms %dms %dms", r.Time, r.LegTimes[0], r.LegTimes[1])
		b.WriteString(" " + Fixed2(r.Velocity) + "m/s")
		b.WriteString(" " + Fixed2(r.LegVelocities[0]) + "m/s")
		b.WriteString(" " + Fixed2(r.LegVelocities[1]) + "m/s")
		b.WriteString(" " + Fixed2(r.Acceleration) + "m/s/s")
		b.WriteString(" " + Fixed2(r.ScaleKmh) + "km/h")
		b.WriteString(" " + Fixed2(r.ScaleKmhPerSec) + "km/h/s")
		b.WriteString(" " + Fixed2(r.ScaleMph) + "mph")
		b.WriteString(" " + Fixed2(r.ScaleMphPerSec) + "mph/s")
		return b.String()
	}

	b.WriteString(TagV)
	fmt.Fprintf(&b, ": 1:%d %dmm %dms", r.Scale, r.Distance, r.Time)
	b.WriteString(" " + Fixed2(r.Velocity) + "m/s")
	b.WriteString(" " + Fixed2(r.ScaleKmh) + "km/h")
	b.WriteString(" " + Fixed2(r.ScaleMph) + "mph")
	return b.String()
}

// Fixed2 formats v with two decimals.
func Fixed2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Message returns the operator facing text of err, without a trailing period.
func Message(err error) string {
	if err == nil {
		return ""
	}
	for sentinel, msg := range messages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	msg := strings.TrimSuffix(err.Error(), ".")
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}
