// Package kinematics converts the timestamps of one passage into velocities,
// acceleration and their scale equivalents.
//
// Times are in milliseconds, distances in millimetres, velocities in m/s and
// acceleration in m/s². Values are kept at full precision; rounding is left to
// whoever presents them.
package kinematics

import (
	"errors"
	"fmt"
)

const (
	// KmhPerMs converts m/s to km/h.
	KmhPerMs = 3.6
	// MphPerMs converts m/s to mph.
	MphPerMs = 2.236936
)

var (
	// ErrZeroInterval is returned when a leg took no measurable time.
	ErrZeroInterval = errors.New("zero time interval")
	// ErrMismatch is returned when timestamps and distances do not describe
	// the same number of legs.
	ErrMismatch = errors.New("timestamps and distances mismatch")
)

// Input describes one measured passage.
type Input struct {
	Timestamps []int64 // ms, in the order the events occurred
	Distances  []int   // mm, Distances[i] belongs to the interval after Timestamps[i]
	Scale      int     // 1:Scale
}

// Result is the outcome of one passage.
type Result struct {
	Scale int

	Time     int64   // total time, ms
	LegTimes []int64 // ms

	Distance     int   // total distance, mm
	LegDistances []int // mm

	Velocity      float64   // whole-span average, m/s
	LegVelocities []float64 // m/s, only for acceleration measurements

	HasAcceleration bool
	Acceleration    float64 // m/s²

	ScaleKmh       float64
	ScaleMph       float64
	ScaleKmhPerSec float64
	ScaleMphPerSec float64
}

// Calculate computes a Result from 2 or 3 timestamps.
func Calculate(in Input) (Result, error) {
	legs := len(in.Timestamps) - 1
	if legs < 1 || legs > 2 || len(in.Distances) != legs {
		return Result{}, fmt.Errorf("%w: %d timestamps, %d distances", ErrMismatch, len(in.Timestamps), len(in.Distances))
	}

	res := Result{
		Scale:        in.Scale,
		LegTimes:     make([]int64, legs),
		LegDistances: make([]int, legs),
	}
	for i := 0; i < legs; i++ {
		dt := in.Timestamps[i+1] - in.Timestamps[i]
		if dt <= 0 {
			return Result{}, fmt.Errorf("%w: leg %d took %dms", ErrZeroInterval, i+1, dt)
		}
		res.LegTimes[i] = dt
		res.LegDistances[i] = in.Distances[i]
		res.Time += dt
		res.Distance += in.Distances[i]
	}

	scale := float64(in.Scale)

	if legs == 1 {
		res.Velocity = Velocity(res.Distance, res.Time)
	} else {
		t1, t2 := res.LegTimes[0], res.LegTimes[1]
		d1, d2 := res.LegDistances[0], res.LegDistances[1]

		res.Velocity = (float64(d1+d2) / 1000) / (float64(t1+t2) / 1000)
		v1 := Velocity(d1, t1)
		v2 := Velocity(d2, t2)
		res.LegVelocities = []float64{v1, v2}
		res.HasAcceleration = true
		res.Acceleration = Acceleration(v1, v2, res.Time)
		res.ScaleKmhPerSec = res.Acceleration * KmhPerMs * scale
		res.ScaleMphPerSec = res.Acceleration * MphPerMs * scale
	}

	res.ScaleKmh = res.Velocity * KmhPerMs * scale
	res.ScaleMph = res.Velocity * MphPerMs * scale

	return res, nil
}

// Velocity returns the average velocity in m/s over d millimetres in t milliseconds.
func Velocity(d int, t int64) float64 {
	return (float64(d) / 1000) / (float64(t) / 1000)
}

// Acceleration assumes constant acceleration, so the leg velocities are taken
// half the total time apart. t is the total time in milliseconds.
func Acceleration(v1, v2 float64, t int64) float64 {
	return (v2 - v1) / (float64(t) / 2000)
}
