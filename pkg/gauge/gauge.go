package gauge

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/trainspeed/pkg/config"
	"github.com/itohio/trainspeed/pkg/history"
)

// Gauge is a custom Fyne widget that shows the latest scale speed in large
// digits over a chart of recent passages.
type Gauge struct {
	widget.BaseWidget

	cfg *config.DisplayConfig

	// Data (protected by mu)
	mu   sync.RWMutex
	snap history.Snapshot

	// Display buffer (reused for downsampling)
	displayEntries []history.Entry

	// Auto-scaling
	yMin, yMax float64
	xMin, xMax time.Time

	maxDisplayPoints int
}

// New creates a new Gauge instance. A nil cfg uses the defaults.
func New(cfg *config.DisplayConfig) *Gauge {
	if cfg == nil {
		cfg = &config.Default().Display
	}
	g := &Gauge{
		cfg:              cfg,
		displayEntries:   make([]history.Entry, 0, 200),
		maxDisplayPoints: 200,
	}
	g.ExtendBaseWidget(g)
	g.updateAutoScale()
	g.Refresh()
	return g
}

// UpdateData updates the widget with a new history snapshot.
// This should be called from the history callback using fyne.Do().
func (g *Gauge) UpdateData(snap history.Snapshot) {
	g.mu.Lock()
	g.displayEntries = history.Downsample(g.displayEntries, snap.Entries, g.maxDisplayPoints)
	g.snap = snap
	g.updateAutoScale()
	g.mu.Unlock()

	g.Refresh()
}

// updateAutoScale calculates the axes from the displayed entries.
func (g *Gauge) updateAutoScale() {
	if len(g.displayEntries) == 0 {
		g.yMin = 0
		g.yMax = 100
		g.xMax = time.Now()
		g.xMin = g.xMax.Add(-g.cfg.Window)
		return
	}

	g.yMin = 0
	g.yMax = 0
	for _, e := range g.displayEntries {
		v := history.Speed(e, g.cfg.Mph)
		if v > g.yMax {
			g.yMax = v
		}
		if v < g.yMin {
			g.yMin = v
		}
	}
	if g.yMax-g.yMin < 10 {
		g.yMax = g.yMin + 10
	}
	g.yMax += (g.yMax - g.yMin) * 0.1

	g.xMin = g.displayEntries[0].Time
	g.xMax = g.displayEntries[len(g.displayEntries)-1].Time
	// Ensure minimum window
	if minSpan := time.Minute; g.xMax.Sub(g.xMin) < minSpan {
		g.xMin = g.xMax.Add(-minSpan)
	}
}

// CreateRenderer creates the widget renderer.
func (g *Gauge) CreateRenderer() fyne.WidgetRenderer {
	background := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255})
	return &gaugeRenderer{
		gauge:      g,
		background: background,
		objects:    []fyne.CanvasObject{background},
	}
}
