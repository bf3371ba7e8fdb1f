package report

import (
	"strconv"

	"github.com/chewxy/math32"
	"github.com/itohio/trainspeed/pkg/kinematics"
)

// DisplayText formats v for a small display: one decimal below 10, none above.
func DisplayText(v float64) string {
	f := float32(v)
	prec := 0
	if math32.Abs(f) < 10 {
		prec = 1
	}
	scale := math32.Pow(10, float32(prec))
	r := math32.Round(f*scale) / scale
	if r == 0 {
		r = 0 // drop the sign of negative zero
	}
	return strconv.FormatFloat(float64(r), 'f', prec, 32)
}

// Headline returns the scale speed and, for acceleration measurements, the
// scale acceleration as short display strings.
func Headline(r kinematics.Result, mph bool) (speed, accel string) {
	v, a, vu, au := r.ScaleKmh, r.ScaleKmhPerSec, "km/h", "km/h/s"
	if mph {
		v, a, vu, au = r.ScaleMph, r.ScaleMphPerSec, "mph", "mph/s"
	}
	speed = DisplayText(v) + " " + vu
	if r.HasAcceleration {
		accel = DisplayText(a) + " " + au
	}
	return speed, accel
}
