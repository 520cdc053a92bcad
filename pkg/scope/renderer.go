package scope

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"github.com/vabhinavrao/cortexkey/pkg/cortex"
	"github.com/vabhinavrao/cortexkey/pkg/trace"
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	// Background
	grid *canvas.Rectangle

	// Grid lines and axis labels
	gridLines []*canvas.Line
	gridTexts []*canvas.Text

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	// Background fills entire widget
	r.grid.Resize(size)

	if r.lastSize.Width != size.Width || r.lastSize.Height != size.Height {
		r.lastSize = size
		// Size changed, redraw with the new dimensions
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh updates the widget display.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	samples := r.scope.displaySamples
	stats := r.scope.stats
	annotation := r.scope.annotation
	yMin := r.scope.yMin
	yMax := r.scope.yMax
	xMin := r.scope.xMin
	xMax := r.scope.xMax
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	// Clear old objects (but keep grid)
	r.objects = []fyne.CanvasObject{r.grid}
	r.gridLines = r.gridLines[:0]
	r.gridTexts = r.gridTexts[:0]

	marginLeft := float32(60.0)
	marginRight := float32(20.0)
	marginTop := float32(20.0)
	marginBottom := float32(40.0)

	plotWidth := size.Width - marginLeft - marginRight
	plotHeight := size.Height - marginTop - marginBottom
	plotX := marginLeft
	plotY := marginTop

	r.drawGrid(plotX, plotY, plotWidth, plotHeight, yMin, yMax, xMin, xMax)

	if len(samples) > 1 {
		r.drawSignalLine(plotX, plotY, plotWidth, plotHeight, samples, yMin, yMax, xMin, xMax)
	}

	r.drawAnnotations(plotX, plotY, annotation, stats)
}

// drawGrid draws the oscilloscope-style grid.
func (r *scopeRenderer) drawGrid(plotX, plotY, plotWidth, plotHeight float32, yMin, yMax float64, xMin, xMax time.Duration) {
	// Horizontal grid lines (amplitude)
	numHLines := 8
	for i := 0; i <= numHLines; i++ {
		y := plotY + float32(i)*plotHeight/float32(numHLines)
		line := canvas.NewLine(color.RGBA{R: 40, G: 40, B: 40, A: 255})
		line.Position1 = fyne.NewPos(plotX, y)
		line.Position2 = fyne.NewPos(plotX+plotWidth, y)
		line.StrokeWidth = 1
		r.gridLines = append(r.gridLines, line)
		r.objects = append(r.objects, line)

		// Y-axis label
		value := yMax - float64(i)*(yMax-yMin)/float64(numHLines)
		text := canvas.NewText(formatAmplitude(value), color.RGBA{R: 150, G: 150, B: 150, A: 255})
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(plotX-5, y-6))
		r.gridTexts = append(r.gridTexts, text)
		r.objects = append(r.objects, text)
	}

	// Vertical grid lines (elapsed run time)
	numVLines := 10
	for i := 0; i <= numVLines; i++ {
		x := plotX + float32(i)*plotWidth/float32(numVLines)
		line := canvas.NewLine(color.RGBA{R: 40, G: 40, B: 40, A: 255})
		line.Position1 = fyne.NewPos(x, plotY)
		line.Position2 = fyne.NewPos(x, plotY+plotHeight)
		line.StrokeWidth = 1
		r.gridLines = append(r.gridLines, line)
		r.objects = append(r.objects, line)

		// X-axis label
		t := xMin + time.Duration(float64(i)*float64(xMax-xMin)/float64(numVLines))
		text := canvas.NewText(formatElapsed(t), color.RGBA{R: 150, G: 150, B: 150, A: 255})
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, plotY+plotHeight+5))
		r.gridTexts = append(r.gridTexts, text)
		r.objects = append(r.objects, text)
	}
}

// drawSignalLine draws the signal trace (orange).
func (r *scopeRenderer) drawSignalLine(plotX, plotY, plotWidth, plotHeight float32, samples []cortex.Sample, yMin, yMax float64, xMin, xMax time.Duration) {
	if len(samples) < 2 {
		return
	}

	xSpan := (xMax - xMin).Seconds()
	if xSpan <= 0 {
		return
	}

	points := make([]fyne.Position, 0, len(samples))
	for _, s := range samples {
		x := plotX + float32((s.Elapsed-xMin).Seconds()/xSpan)*plotWidth
		y := plotY + plotHeight - float32((s.Value-yMin)/(yMax-yMin))*plotHeight
		points = append(points, fyne.NewPos(x, y))
	}

	// Draw connected line segments
	for i := 0; i < len(points)-1; i++ {
		line := canvas.NewLine(color.RGBA{R: 255, G: 165, B: 0, A: 255}) // Orange
		line.Position1 = points[i]
		line.Position2 = points[i+1]
		line.StrokeWidth = 1.5
		r.objects = append(r.objects, line)
	}
}

// drawAnnotations draws the mode/profile line and the measured rate in the
// top-left plot corner.
func (r *scopeRenderer) drawAnnotations(plotX, plotY float32, annotation string, stats trace.Stats) {
	if annotation != "" {
		text := canvas.NewText(annotation, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		text.TextSize = 11
		text.Alignment = fyne.TextAlignLeading
		text.Move(fyne.NewPos(plotX+10, plotY+10))
		r.objects = append(r.objects, text)
	}

	if stats.Count > 0 {
		rateText := fmt.Sprintf("%.1f Hz, %d pts", stats.Rate, stats.Count)
		text := canvas.NewText(rateText, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		text.TextSize = 11
		text.Alignment = fyne.TextAlignLeading
		text.Move(fyne.NewPos(plotX+10, plotY+26))
		r.objects = append(r.objects, text)
	}
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {
	// Cleanup handled by Fyne
}

func formatAmplitude(v float64) string {
	return fmt.Sprintf("%.1fuV", v)
}

func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
