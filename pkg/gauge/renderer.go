package gauge

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/itohio/trainspeed/pkg/history"
	"github.com/itohio/trainspeed/pkg/report"
)

var (
	colorGrid     = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	colorAxis     = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	colorSpeed    = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	colorAverage  = color.RGBA{R: 100, G: 200, B: 255, A: 255}
	colorText     = color.RGBA{R: 230, G: 230, B: 230, A: 255}
	colorError    = color.RGBA{R: 255, G: 80, B: 80, A: 255}
	colorOccupied = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	colorClear    = color.RGBA{R: 60, G: 60, B: 60, A: 255}
)

// gaugeRenderer renders the gauge widget.
type gaugeRenderer struct {
	gauge *Gauge

	background *canvas.Rectangle
	objects    []fyne.CanvasObject
	lastSize   fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *gaugeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *gaugeRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.gauge.BaseWidget.Refresh()
	}
}

// Refresh rebuilds every canvas object from the current data.
func (r *gaugeRenderer) Refresh() {
	g := r.gauge
	g.mu.RLock()
	snap := g.snap
	entries := g.displayEntries
	yMin, yMax := g.yMin, g.yMax
	xMin, xMax := g.xMin, g.xMax
	mph := g.cfg.Mph
	g.mu.RUnlock()

	size := g.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.background}

	headerHeight := float32(110)
	marginLeft := float32(60)
	marginRight := float32(20)
	marginBottom := float32(40)

	plotX := marginLeft
	plotY := headerHeight
	plotWidth := size.Width - marginLeft - marginRight
	plotHeight := size.Height - headerHeight - marginBottom
	if plotWidth <= 0 || plotHeight <= 0 {
		return
	}

	r.drawHeader(size, snap, mph)
	r.drawDetectors(size, snap.Detectors)
	r.drawGrid(plotX, plotY, plotWidth, plotHeight, yMin, yMax, xMin, xMax)
	r.drawSpeeds(plotX, plotY, plotWidth, plotHeight, entries, mph, yMin, yMax, xMin, xMax)
	if snap.Average > 0 {
		r.drawAverage(plotX, plotY, plotWidth, plotHeight, snap.Average, yMin, yMax)
	}
}

// drawHeader draws the latest reading, the status line and the last error.
func (r *gaugeRenderer) drawHeader(size fyne.Size, snap history.Snapshot, mph bool) {
	speed, accel := "---", ""
	if last, ok := snap.Last(); ok {
		speed, accel = report.Headline(last.Reading, mph)
	}

	big := canvas.NewText(speed, colorSpeed)
	big.TextSize = 48
	big.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	big.Move(fyne.NewPos(20, 10))
	r.objects = append(r.objects, big)

	if accel != "" {
		a := canvas.NewText(accel, colorAverage)
		a.TextSize = 20
		a.TextStyle = fyne.TextStyle{Monospace: true}
		a.Move(fyne.NewPos(size.Width/2, 30))
		r.objects = append(r.objects, a)
	}

	status := snap.Status
	if snap.Ready != nil {
		status = fmt.Sprintf("1:%d  %d %s  %s", snap.Ready.Scale, snap.Ready.Detectors, snap.Ready.Kind, status)
	}
	st := canvas.NewText(status, colorText)
	st.TextSize = 12
	st.Move(fyne.NewPos(20, 72))
	r.objects = append(r.objects, st)

	if snap.Error != "" {
		e := canvas.NewText(snap.Error, colorError)
		e.TextSize = 12
		e.TextStyle = fyne.TextStyle{Bold: true}
		e.Move(fyne.NewPos(20, 88))
		r.objects = append(r.objects, e)
	}
}

// drawDetectors draws one indicator per detector while in test mode.
func (r *gaugeRenderer) drawDetectors(size fyne.Size, detectors []bool) {
	const side, gap = float32(18), float32(6)
	x := size.Width - float32(len(detectors))*(side+gap) - 20
	for _, occupied := range detectors {
		fill := colorClear
		if occupied {
			fill = colorOccupied
		}
		rect := canvas.NewRectangle(fill)
		rect.Resize(fyne.NewSize(side, side))
		rect.Move(fyne.NewPos(x, 20))
		r.objects = append(r.objects, rect)
		x += side + gap
	}
}

// drawGrid draws the chart grid with speed and time labels.
func (r *gaugeRenderer) drawGrid(plotX, plotY, plotWidth, plotHeight float32, yMin, yMax float64, xMin, xMax time.Time) {
	const hLines, vLines = 5, 6

	for i := 0; i < hLines+1; i++ {
		y := plotY + float32(i)*plotHeight/hLines
		r.addLine(colorGrid, 1, fyne.NewPos(plotX, y), fyne.NewPos(plotX+plotWidth, y))

		value := yMax - float64(i)*(yMax-yMin)/hLines
		text := canvas.NewText(report.DisplayText(value), colorAxis)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(plotX-5, y-6))
		r.objects = append(r.objects, text)
	}

	span := xMax.Sub(xMin)
	for i := 0; i < vLines+1; i++ {
		x := plotX + float32(i)*plotWidth/vLines
		r.addLine(colorGrid, 1, fyne.NewPos(x, plotY), fyne.NewPos(x, plotY+plotHeight))

		ago := span - time.Duration(float64(span)*float64(i)/vLines)
		text := canvas.NewText(formatAgo(ago), colorAxis)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, plotY+plotHeight+5))
		r.objects = append(r.objects, text)
	}
}

// drawSpeeds draws a marker per passage joined by a line.
func (r *gaugeRenderer) drawSpeeds(plotX, plotY, plotWidth, plotHeight float32, entries []history.Entry, mph bool, yMin, yMax float64, xMin, xMax time.Time) {
	span := xMax.Sub(xMin).Seconds()
	if len(entries) == 0 || span <= 0 || yMax <= yMin {
		return
	}

	points := make([]fyne.Position, 0, len(entries))
	for _, e := range entries {
		x := plotX + float32(e.Time.Sub(xMin).Seconds()/span)*plotWidth
		y := plotY + plotHeight - float32((history.Speed(e, mph)-yMin)/(yMax-yMin))*plotHeight
		points = append(points, fyne.NewPos(x, y))
	}

	for i, n := 0, len(points)-1; i < n; i++ {
		r.addLine(colorSpeed, 1.5, points[i], points[i+1])
	}
	for _, p := range points {
		dot := canvas.NewCircle(colorSpeed)
		dot.Resize(fyne.NewSize(6, 6))
		dot.Move(fyne.NewPos(p.X-3, p.Y-3))
		r.objects = append(r.objects, dot)
	}
}

// drawAverage draws the rolling average as a horizontal line.
func (r *gaugeRenderer) drawAverage(plotX, plotY, plotWidth, plotHeight float32, average, yMin, yMax float64) {
	if yMax <= yMin {
		return
	}
	y := plotY + plotHeight - float32((average-yMin)/(yMax-yMin))*plotHeight
	r.addLine(colorAverage, 1, fyne.NewPos(plotX, y), fyne.NewPos(plotX+plotWidth, y))

	text := canvas.NewText("avg "+report.DisplayText(average), colorAverage)
	text.TextSize = 11
	text.Move(fyne.NewPos(plotX+5, y-16))
	r.objects = append(r.objects, text)
}

func (r *gaugeRenderer) addLine(c color.Color, width float32, from, to fyne.Position) {
	line := canvas.NewLine(c)
	line.Position1 = from
	line.Position2 = to
	line.StrokeWidth = width
	r.objects = append(r.objects, line)
}

// Objects returns all canvas objects for rendering.
func (r *gaugeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *gaugeRenderer) Destroy() {}

func formatAgo(d time.Duration) string {
	if d <= 0 {
		return "now"
	}
	if d < time.Minute {
		return fmt.Sprintf("-%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("-%dm", int(d.Minutes()))
}
