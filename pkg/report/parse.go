package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/itohio/trainspeed/pkg/kinematics"
	"github.com/itohio/trainspeed/pkg/topology"
)

const testModeDetector = "Test mode detector "

// Kind of a parsed line.
type Kind int

const (
	KindReady Kind = iota
	KindStatus
	KindError
	KindReading
)

func (k Kind) String() string {
	switch k {
	case KindReady:
		return TagReady
	case KindStatus:
		return TagStatus
	case KindError:
		return TagError
	case KindReading:
		return "DATA"
	}
	return "UNKNOWN"
}

// Ready is the configuration announced by a READY line.
type Ready struct {
	Scale           int
	Distances       [2]int // mm
	InterTrainDelay time.Duration
	Acceleration    bool
	Detectors       int
	Kind            topology.Kind
}

// Event is one parsed line.
type Event struct {
	Kind    Kind
	Time    time.Time          // set by the receiver, ParseLine leaves it zero
	Message string             // STATUS and ERROR text, without the trailing period
	Ready   *Ready             // KindReady
	Reading *kinematics.Result // KindReading, values have two decimals
}

// ParseLine parses one line of device output.
func ParseLine(line string) (Event, error) {
	tag, body, ok := strings.Cut(strings.TrimSpace(line), ": ")
	if !ok {
		return Event{}, fmt.Errorf("invalid line format: missing tag")
	}

	switch tag {
	case TagStatus:
		return Event{Kind: KindStatus, Message: strings.TrimSuffix(body, ".")}, nil
	case TagError:
		return Event{Kind: KindError, Message: strings.TrimSuffix(body, ".")}, nil
	case TagReady:
		ready, err := parseReady(body)
		if err != nil {
			return Event{}, err
		}
		return Event{Kind: KindReady, Ready: ready}, nil
	case TagV:
		r, err := parseVelocity(strings.Fields(body))
		if err != nil {
			return Event{}, err
		}
		return Event{Kind: KindReading, Reading: r}, nil
	case TagVA:
		r, err := parseAcceleration(strings.Fields(body))
		if err != nil {
			return Event{}, err
		}
		return Event{Kind: KindReading, Reading: r}, nil
	}

	return Event{}, fmt.Errorf("unknown tag %q", tag)
}

func parseReady(body string) (*Ready, error) {
	values := map[string]string{}
	for _, field := range strings.Fields(body) {
		key, value, ok := strings.Cut(field, ":")
		if !ok {
			return nil, fmt.Errorf("invalid READY field %q", field)
		}
		values[key] = value
	}

	var (
		ready Ready
		err   error
	)
	if ready.Scale, err = parseScale(values["SCALE"]); err != nil {
		return nil, err
	}
	for i := range ready.Distances {
		if ready.Distances[i], err = parseInt(values[fmt.Sprintf("DISTANCE_%d", i)], "mm"); err != nil {
			return nil, err
		}
	}
	delay, err := parseInt(values["INTER_TRAIN_DELAY"], "ms")
	if err != nil {
		return nil, err
	}
	ready.InterTrainDelay = time.Duration(delay) * time.Millisecond

	switch values["MEASURING"] {
	case measuringVelocity:
	case measuringAcceleration:
		ready.Acceleration = true
	default:
		return nil, fmt.Errorf("invalid MEASURING %q", values["MEASURING"])
	}

	count, kind, ok := strings.Cut(values["TRIGGERS"], "_")
	if !ok {
		return nil, fmt.Errorf("invalid TRIGGERS %q", values["TRIGGERS"])
	}
	if ready.Detectors, err = strconv.Atoi(count); err != nil {
		return nil, fmt.Errorf("invalid TRIGGERS count: %w", err)
	}
	switch kind {
	case topology.Gates.String():
		ready.Kind = topology.Gates
	case topology.Blocks.String():
		ready.Kind = topology.Blocks
	default:
		return nil, fmt.Errorf("invalid TRIGGERS kind %q", kind)
	}

	return &ready, nil
}

func parseVelocity(fields []string) (*kinematics.Result, error) {
	if len(fields) != 6 {
		return nil, fmt.Errorf("invalid %s: expected 6 fields, got %d", TagV, len(fields))
	}

	var (
		r   kinematics.Result
		err error
		d   int
	)
	if r.Scale, err = parseScale(fields[0]); err != nil {
		return nil, err
	}
	if d, err = parseInt(fields[1], "mm"); err != nil {
		return nil, err
	}
	if r.Time, err = parseInt64(fields[2], "ms"); err != nil {
		return nil, err
	}
	r.Distance = d
	r.LegDistances = []int{d}
	r.LegTimes = []int64{r.Time}

	floats := []struct {
		dst    *float64
		suffix string
	}{
		{&r.Velocity, "m/s"},
		{&r.ScaleKmh, "km/h"},
		{&r.ScaleMph, "mph"},
	}
	for i, f := range floats {
		if *f.dst, err = parseFloat(fields[3+i], f.suffix); err != nil {
			return nil, err
		}
	}

	return &r, nil
}

func parseAcceleration(fields []string) (*kinematics.Result, error) {
	if len(fields) != 14 {
		return nil, fmt.Errorf("invalid %s: expected 14 fields, got %d", TagVA, len(fields))
	}

	r := kinematics.Result{
		LegDistances:    make([]int, 2),
		LegTimes:        make([]int64, 2),
		LegVelocities:   make([]float64, 2),
		HasAcceleration: true,
	}
	var err error
	if r.Scale, err = parseScale(fields[0]); err != nil {
		return nil, err
	}
	for i := 0; i < 2; i++ {
		if r.LegDistances[i], err = parseInt(fields[1+i], "mm"); err != nil {
			return nil, err
		}
	}
	r.Distance = r.LegDistances[0] + r.LegDistances[1]
	if r.Time, err = parseInt64(fields[3], "ms"); err != nil {
		return nil, err
	}
	for i := 0; i < 2; i++ {
		if r.LegTimes[i], err = parseInt64(fields[4+i], "ms"); err != nil {
			return nil, err
		}
	}

	floats := []struct {
		dst    *float64
		suffix string
	}{
		{&r.Velocity, "m/s"},
		{&r.LegVelocities[0], "m/s"},
		{&r.LegVelocities[1], "m/s"},
		{&r.Acceleration, "m/s/s"},
		{&r.ScaleKmh, "km/h"},
		{&r.ScaleKmhPerSec, "km/h/s"},
		{&r.ScaleMph, "mph"},
		{&r.ScaleMphPerSec, "mph/s"},
	}
	for i, f := range floats {
		if *f.dst, err = parseFloat(fields[6+i], f.suffix); err != nil {
			return nil, err
		}
	}

	return &r, nil
}

func parseScale(field string) (int, error) {
	rest, ok := strings.CutPrefix(field, "1:")
	if !ok {
		return 0, fmt.Errorf("invalid scale %q", field)
	}
	scale, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("invalid scale: %w", err)
	}
	return scale, nil
}

func parseInt(field, suffix string) (int, error) {
	v, err := parseInt64(field, suffix)
	return int(v), err
}

func parseInt64(field, suffix string) (int64, error) {
	num, ok := strings.CutSuffix(field, suffix)
	if !ok {
		return 0, fmt.Errorf("invalid value %q: expected unit %s", field, suffix)
	}
	v, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", field, err)
	}
	return v, nil
}

func parseFloat(field, suffix string) (float64, error) {
	num, ok := strings.CutSuffix(field, suffix)
	if !ok {
		return 0, fmt.Errorf("invalid value %q: expected unit %s", field, suffix)
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", field, err)
	}
	return v, nil
}

// ParseDetectorStatus extracts the detector change from a test mode status
// message such as "Test mode detector 2 occupied".
func ParseDetectorStatus(msg string) (index int, occupied bool, ok bool) {
	rest, found := strings.CutPrefix(msg, testModeDetector)
	if !found {
		return 0, false, false
	}
	num, state, found := strings.Cut(rest, " ")
	if !found {
		return 0, false, false
	}
	index, err := strconv.Atoi(num)
	if err != nil || index < 0 {
		return 0, false, false
	}
	switch state {
	case "occupied":
		return index, true, true
	case "clear":
		return index, false, true
	}
	return 0, false, false
}
