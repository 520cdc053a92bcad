// Package scope implements the oscilloscope-style Fyne widget that draws the
// live signal trace.
package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/vabhinavrao/cortexkey/pkg/config"
	"github.com/vabhinavrao/cortexkey/pkg/cortex"
	"github.com/vabhinavrao/cortexkey/pkg/trace"
)

// ScopeWidget is a custom Fyne widget that displays the rolling signal trace
// with an oscilloscope-style grid.
type ScopeWidget struct {
	widget.BaseWidget

	cfg *config.Config

	// Data (protected by mu)
	mu         sync.RWMutex
	samples    []cortex.Sample
	stats      trace.Stats
	annotation string // mode/profile line drawn in the plot corner

	// Display buffer (reused for downsampling)
	displaySamples []cortex.Sample

	// Auto-scaling
	yMin, yMax float64
	xMin, xMax time.Duration

	maxDisplayPoints int
}

// New creates a new ScopeWidget instance.
func New(cfg *config.Config) *ScopeWidget {
	maxPoints := cfg.Display.MaxPoints
	if maxPoints <= 0 {
		maxPoints = 1000
	}
	s := &ScopeWidget{
		cfg:              cfg,
		samples:          make([]cortex.Sample, 0),
		displaySamples:   make([]cortex.Sample, 0, maxPoints),
		maxDisplayPoints: maxPoints,
	}
	s.ExtendBaseWidget(s)
	// Trigger initial refresh to display empty scope
	s.Refresh()
	return s
}

// UpdateData updates the widget with a new window of samples.
// This should be called from the trace callback using fyne.Do().
func (s *ScopeWidget) UpdateData(samples []cortex.Sample, stats trace.Stats) {
	s.mu.Lock()

	// Downsample for display (reuse buffer)
	s.displaySamples = trace.Downsample(s.displaySamples, samples, s.maxDisplayPoints)

	s.samples = samples
	s.stats = stats

	s.updateAutoScale()

	s.mu.Unlock()

	// Refresh the widget (must be outside lock to avoid potential deadlock)
	s.Refresh()
}

// SetAnnotation sets the mode/profile line drawn in the plot corner.
func (s *ScopeWidget) SetAnnotation(text string) {
	s.mu.Lock()
	s.annotation = text
	s.mu.Unlock()
	s.Refresh()
}

// updateAutoScale calculates the axis ranges from the current data.
func (s *ScopeWidget) updateAutoScale() {
	window := time.Duration(s.cfg.Display.WindowSeconds * float64(time.Second))

	if len(s.displaySamples) == 0 {
		s.yMin = -50.0
		s.yMax = 50.0
		s.xMin = 0
		s.xMax = window
		return
	}

	s.yMin = s.displaySamples[0].Value
	s.yMax = s.displaySamples[0].Value
	for _, smp := range s.displaySamples {
		if smp.Value < s.yMin {
			s.yMin = smp.Value
		}
		if smp.Value > s.yMax {
			s.yMax = smp.Value
		}
	}

	// Add 10% margin
	span := s.yMax - s.yMin
	if span == 0 {
		span = 1.0
	}
	margin := span * 0.1
	s.yMin -= margin
	s.yMax += margin

	s.xMin = s.displaySamples[0].Elapsed
	s.xMax = s.displaySamples[len(s.displaySamples)-1].Elapsed
	// Ensure minimum window
	if s.xMax-s.xMin < window {
		s.xMax = s.xMin + window
	}
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	grid := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &scopeRenderer{
		scope:    s,
		grid:     grid,
		objects:  []fyne.CanvasObject{grid},
		lastSize: fyne.Size{Width: 0, Height: 0},
	}
}
