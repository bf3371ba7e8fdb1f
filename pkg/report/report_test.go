package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/itohio/trainspeed/pkg/config"
	"github.com/itohio/trainspeed/pkg/kinematics"
	"github.com/itohio/trainspeed/pkg/timing"
	"github.com/itohio/trainspeed/pkg/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accelerationResult(t *testing.T) kinematics.Result {
	t.Helper()
	res, err := kinematics.Calculate(kinematics.Input{
		Timestamps: []int64{1000, 1200, 1500},
		Distances:  []int{100, 100},
		Scale:      148,
	})
	require.NoError(t, err)
	return res
}

func velocityResult(t *testing.T) kinematics.Result {
	t.Helper()
	res, err := kinematics.Calculate(kinematics.Input{
		Timestamps: []int64{4000, 4500},
		Distances:  []int{100},
		Scale:      148,
	})
	require.NoError(t, err)
	return res
}

func TestFormatReady(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.MeasurementConfig
		want string
	}{
		{
			name: "gates acceleration",
			cfg: config.MeasurementConfig{
				Topology:        topology.GatesAcceleration,
				Scale:           148,
				Distances:       []int{100, 100},
				InterTrainDelay: 3 * time.Second,
			},
			want: "READY: SCALE:1:148 DISTANCE_0:100mm DISTANCE_1:100mm INTER_TRAIN_DELAY:3000ms MEASURING:ACCELERATION_VELOCITY TRIGGERS:3_GATES",
		},
		{
			name: "blocks acceleration",
			cfg: config.MeasurementConfig{
				Topology:        topology.BlocksAcceleration,
				Scale:           87,
				Distances:       []int{250, 300},
				InterTrainDelay: 1500 * time.Millisecond,
			},
			want: "READY: SCALE:1:87 DISTANCE_0:250mm DISTANCE_1:300mm INTER_TRAIN_DELAY:1500ms MEASURING:ACCELERATION_VELOCITY TRIGGERS:4_BLOCKS",
		},
		{
			name: "gates velocity with one distance",
			cfg: config.MeasurementConfig{
				Topology:        topology.GatesVelocity,
				Scale:           160,
				Distances:       []int{120},
				InterTrainDelay: 2 * time.Second,
			},
			want: "READY: SCALE:1:160 DISTANCE_0:120mm DISTANCE_1:0mm INTER_TRAIN_DELAY:2000ms MEASURING:VELOCITY TRIGGERS:2_GATES",
		},
		{
			name: "three blocks velocity",
			cfg: config.MeasurementConfig{
				Topology:  topology.BlocksVelocity3,
				Scale:     148,
				Distances: []int{100, 100},
			},
			want: "READY: SCALE:1:148 DISTANCE_0:100mm DISTANCE_1:100mm INTER_TRAIN_DELAY:0ms MEASURING:VELOCITY TRIGGERS:3_BLOCKS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatReady(tt.cfg))
		})
	}
}

func TestFormatResult_Acceleration(t *testing.T) {
	line := FormatResult(accelerationResult(t))
	assert.Equal(t,
		"VA_DATA: 1:148 100mm 100mm 500ms 200ms 300ms 0.40m/s 0.50m/s 0.33m/s -0.67m/s/s 213.12km/h -355.20km/h/s 132.43mph -220.71mph/s",
		line)
}

func TestFormatResult_Velocity(t *testing.T) {
	line := FormatResult(velocityResult(t))
	assert.Equal(t, "V_DATA: 1:148 100mm 500ms 0.20m/s 106.56km/h 66.21mph", line)
}

func TestSerial_Lines(t *testing.T) {
	var buf bytes.Buffer
	s := NewSerial(&buf)

	s.Ready(config.MeasurementConfig{
		Topology:        topology.GatesVelocity,
		Scale:           148,
		Distances:       []int{100},
		InterTrainDelay: time.Second,
	})
	s.Error(timing.ErrSensorsNotClear)
	s.Status(timing.StatusWaiting)
	s.Clearing(2 * time.Second)
	s.Progress(&timing.Passage{})
	s.Abandoned(timing.ErrAmbiguousEntry)
	s.Status(timing.StatusTiming)
	s.Status(timing.StatusCalculating)
	s.Result(velocityResult(t))
	s.Error(fmt.Errorf("leg 1: %w", kinematics.ErrZeroInterval))
	s.Error(timing.ErrPassageTimeout)

	want := []string{
		"READY: SCALE:1:148 DISTANCE_0:100mm DISTANCE_1:0mm INTER_TRAIN_DELAY:1000ms MEASURING:VELOCITY TRIGGERS:2_GATES",
		"ERROR: Sensors not clear.",
		"STATUS: Waiting for train.",
		"STATUS: Timing train.",
		"STATUS: Calculating.",
		"V_DATA: 1:148 100mm 500ms 0.20m/s 106.56km/h 66.21mph",
		"ERROR: Zero time interval.",
		"ERROR: Passage timed out.",
	}
	got := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Equal(t, want, got)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disconnected") }

func TestSerial_WriteErrorDoesNotPanic(t *testing.T) {
	s := NewSerial(failingWriter{})
	assert.NotPanics(t, func() {
		s.Status(timing.StatusWaiting)
	})
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"sensors not clear", timing.ErrSensorsNotClear, "Sensors not clear"},
		{"wrapped zero interval", fmt.Errorf("leg 2 took 0ms: %w", kinematics.ErrZeroInterval), "Zero time interval"},
		{"timeout", timing.ErrPassageTimeout, "Passage timed out"},
		{"other error is capitalised", errors.New("detector 3 failed."), "Detector 3 failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.err))
		})
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Event
		wantErr bool
	}{
		{
			name: "status",
			line: "STATUS: Waiting for train.",
			want: Event{Kind: KindStatus, Message: "Waiting for train"},
		},
		{
			name: "error with trailing whitespace",
			line: "ERROR: Sensors not clear.\r\n",
			want: Event{Kind: KindError, Message: "Sensors not clear"},
		},
		{
			name: "ready",
			line: "READY: SCALE:1:148 DISTANCE_0:100mm DISTANCE_1:100mm INTER_TRAIN_DELAY:3000ms MEASURING:ACCELERATION_VELOCITY TRIGGERS:3_GATES",
			want: Event{Kind: KindReady, Ready: &Ready{
				Scale:           148,
				Distances:       [2]int{100, 100},
				InterTrainDelay: 3 * time.Second,
				Acceleration:    true,
				Detectors:       3,
				Kind:            topology.Gates,
			}},
		},
		{
			name: "ready blocks velocity",
			line: "READY: SCALE:1:87 DISTANCE_0:250mm DISTANCE_1:0mm INTER_TRAIN_DELAY:500ms MEASURING:VELOCITY TRIGGERS:2_BLOCKS",
			want: Event{Kind: KindReady, Ready: &Ready{
				Scale:           87,
				Distances:       [2]int{250, 0},
				InterTrainDelay: 500 * time.Millisecond,
				Detectors:       2,
				Kind:            topology.Blocks,
			}},
		},
		{
			name: "velocity",
			line: "V_DATA: 1:148 100mm 500ms 0.20m/s 106.56km/h 66.21mph",
			want: Event{Kind: KindReading, Reading: &kinematics.Result{
				Scale:        148,
				Time:         500,
				LegTimes:     []int64{500},
				Distance:     100,
				LegDistances: []int{100},
				Velocity:     0.2,
				ScaleKmh:     106.56,
				ScaleMph:     66.21,
			}},
		},
		{
			name: "acceleration",
			line: "VA_DATA: 1:148 100mm 100mm 500ms 200ms 300ms 0.40m/s 0.50m/s 0.33m/s -0.67m/s/s 213.12km/h -355.20km/h/s 132.43mph -220.71mph/s",
			want: Event{Kind: KindReading, Reading: &kinematics.Result{
				Scale:           148,
				Time:            500,
				LegTimes:        []int64{200, 300},
				Distance:        200,
				LegDistances:    []int{100, 100},
				Velocity:        0.4,
				LegVelocities:   []float64{0.5, 0.33},
				HasAcceleration: true,
				Acceleration:    -0.67,
				ScaleKmh:        213.12,
				ScaleKmhPerSec:  -355.2,
				ScaleMph:        132.43,
				ScaleMphPerSec:  -220.71,
			}},
		},
		{name: "no tag", line: "hello", wantErr: true},
		{name: "unknown tag", line: "DEBUG: something", wantErr: true},
		{name: "short velocity", line: "V_DATA: 1:148 100mm 500ms", wantErr: true},
		{name: "bad unit", line: "V_DATA: 1:148 100cm 500ms 0.20m/s 106.56km/h 66.21mph", wantErr: true},
		{name: "bad scale", line: "V_DATA: 148 100mm 500ms 0.20m/s 106.56km/h 66.21mph", wantErr: true},
		{name: "bad number", line: "V_DATA: 1:148 100mm 500ms fast/s 106.56km/h 66.21mph", wantErr: true},
		{name: "ready missing field", line: "READY: SCALE:1:148 DISTANCE_0:100mm", wantErr: true},
		{name: "ready bad kind", line: "READY: SCALE:1:148 DISTANCE_0:100mm DISTANCE_1:100mm INTER_TRAIN_DELAY:3000ms MEASURING:VELOCITY TRIGGERS:3_LOOPS", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLine_RoundTripsSerialOutput(t *testing.T) {
	var buf bytes.Buffer
	s := NewSerial(&buf)
	cfg := config.MeasurementConfig{
		Topology:        topology.BlocksAcceleration,
		Scale:           148,
		Distances:       []int{100, 100},
		InterTrainDelay: 3 * time.Second,
	}
	s.Ready(cfg)
	s.Status(timing.StatusWaiting)
	s.Result(accelerationResult(t))

	var kinds []Kind
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		ev, err := ParseLine(line)
		require.NoError(t, err, line)
		kinds = append(kinds, ev.Kind)
		if ev.Kind == KindReading {
			assert.InDelta(t, 132.43, ev.Reading.ScaleMph, 1e-9)
			assert.True(t, ev.Reading.HasAcceleration)
		}
		if ev.Kind == KindReady {
			assert.Equal(t, 4, ev.Ready.Detectors)
			assert.Equal(t, topology.Blocks, ev.Ready.Kind)
		}
	}
	assert.Equal(t, []Kind{KindReady, KindStatus, KindReading}, kinds)
}

func TestDisplayText(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{0, "0.0"},
		{0.44, "0.4"},
		{9.94, "9.9"},
		{-0.67, "-0.7"},
		{-0.04, "0.0"},
		{10, "10"},
		{66.21, "66"},
		{132.43, "132"},
		{-355.2, "-355"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayText(tt.v))
		})
	}
}

func TestHeadline(t *testing.T) {
	speed, accel := Headline(accelerationResult(t), true)
	assert.Equal(t, "132 mph", speed)
	assert.Equal(t, "-221 mph/s", accel)

	speed, accel = Headline(velocityResult(t), false)
	assert.Equal(t, "107 km/h", speed)
	assert.Empty(t, accel)
}

func TestParseDetectorStatus(t *testing.T) {
	tests := []struct {
		msg          string
		wantIndex    int
		wantOccupied bool
		wantOK       bool
	}{
		{"Test mode detector 0 occupied", 0, true, true},
		{"Test mode detector 3 clear", 3, false, true},
		{"Test mode", 0, false, false},
		{"Waiting for train", 0, false, false},
		{"Test mode detector x clear", 0, false, false},
		{"Test mode detector 1 flickering", 0, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			index, occupied, ok := ParseDetectorStatus(tt.msg)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantIndex, index)
			assert.Equal(t, tt.wantOccupied, occupied)
		})
	}
}
