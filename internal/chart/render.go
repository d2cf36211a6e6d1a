package chart

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"flowviewer/internal/flow"
)

const (
	DefaultWidth  = 640
	DefaultHeight = 480

	tickFontSize  = 10
	labelFontSize = 12
	titleFontSize = 14.4

	marginLeft  = 72.0
	marginRight = 24.0
	marginTop   = 40.0
	tickLength  = 4.0
	labelGap    = 6.0

	rotatedLabelAngle = 30.0

	// minPlotHeight is the smallest data area kept before the bottom labels
	// are given up to make room.
	minPlotHeight = 16.0
)

var (
	regularFont = mustParseFont(goregular.TTF)
	boldFont    = mustParseFont(gobold.TTF)

	backgroundColor = color.White
	frameColor      = color.Black
	gridColor       = color.NRGBA{0, 0, 0, 160}
	lineColor       = color.NRGBA{31, 119, 180, 255}
	textColor       = color.Black
)

func mustParseFont(ttf []byte) *truetype.Font {
	f, err := truetype.Parse(ttf)
	if err != nil {
		panic(fmt.Sprintf("chart: parse embedded font: %v", err))
	}
	return f
}

// faces are created per render call; a truetype face caches glyphs and must
// not be shared between goroutines.
type faces struct {
	tick  font.Face
	label font.Face
	title font.Face
}

func newFaces() faces {
	return faces{
		tick:  truetype.NewFace(regularFont, &truetype.Options{Size: tickFontSize}),
		label: truetype.NewFace(boldFont, &truetype.Options{Size: labelFontSize}),
		title: truetype.NewFace(boldFont, &truetype.Options{Size: titleFontSize}),
	}
}

// Renderer draws flow charts as PNG images. A Renderer holds no mutable state
// and may be used from several goroutines at once.
type Renderer struct {
	Width  int
	Height int
}

// NewRenderer returns a renderer for images of the given size, falling back
// to the defaults for non-positive dimensions.
func NewRenderer(width, height int) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Renderer{Width: width, Height: height}
}

// Render lays out readings according to spec and returns the encoded PNG.
// An empty readings slice produces an empty set of axes.
func (r *Renderer) Render(readings []flow.Reading, spec Spec) ([]byte, error) {
	return r.RenderPlot(Build(readings, spec))
}

// RenderPlot draws an already built plot on a fresh canvas.
func (r *Renderer) RenderPlot(plot Plot) ([]byte, error) {
	dc := gg.NewContext(r.Width, r.Height)
	f := newFaces()

	logrus.Debug("Drawing background")
	dc.SetColor(backgroundColor)
	dc.Clear()

	xTicks, rotate := fitTimeTicks(dc, f.tick, plot.XTicks, float64(r.Width)-marginLeft-marginRight)
	layout := bottomLayout{ticks: xTicks, rotate: rotate, tickLabels: true, axisLabel: true}
	area := r.plotArea(dc, f, layout)
	if area.h < minPlotHeight {
		logrus.Debugf("Plot height %.0f too small - dropping time tick labels", area.h)
		layout.tickLabels = false
		area = r.plotArea(dc, f, layout)
	}
	if area.h < minPlotHeight {
		logrus.Debugf("Plot height %.0f still too small - dropping time axis label", area.h)
		layout.axisLabel = false
		area = r.plotArea(dc, f, layout)
	}
	if area.w <= 0 || area.h <= 0 {
		return nil, fmt.Errorf("%w: image %dx%d too small for chart", flow.ErrRenderFailure, r.Width, r.Height)
	}
	tr := transform{plot: plot, area: area}

	logrus.Debug("Drawing grid")
	dc.SetColor(gridColor)
	dc.SetLineWidth(0.8)
	dc.SetDash(4, 3)
	for _, t := range plot.YTicks {
		y := tr.y(t.Value)
		dc.DrawLine(area.x, y, area.x+area.w, y)
		dc.Stroke()
	}
	for _, t := range xTicks {
		x := tr.x(t.Value)
		dc.DrawLine(x, area.y, x, area.y+area.h)
		dc.Stroke()
	}
	dc.SetDash()

	logrus.Debug("Drawing line")
	drawSeries(dc, tr, plot.Points)

	logrus.Debug("Drawing frame and ticks")
	dc.SetColor(frameColor)
	dc.SetLineWidth(1)
	dc.DrawRectangle(area.x, area.y, area.w, area.h)
	dc.Stroke()

	dc.SetColor(textColor)
	dc.SetFontFace(f.tick)
	for _, t := range plot.YTicks {
		y := tr.y(t.Value)
		dc.DrawLine(area.x-tickLength, y, area.x, y)
		dc.Stroke()
		dc.DrawStringAnchored(t.Label, area.x-tickLength-labelGap/2, y, 1, 0.5)
	}
	bottom := area.y + area.h
	for _, t := range xTicks {
		x := tr.x(t.Value)
		dc.DrawLine(x, bottom, x, bottom+tickLength)
		dc.Stroke()
		if !layout.tickLabels {
			continue
		}
		if rotate {
			// right-aligned, rotated about the tick so the label ends under it
			dc.Push()
			dc.RotateAbout(gg.Radians(-rotatedLabelAngle), x, bottom+tickLength+labelGap)
			dc.DrawStringAnchored(t.Label, x, bottom+tickLength+labelGap, 1, 0.5)
			dc.Pop()
		} else {
			dc.DrawStringAnchored(t.Label, x, bottom+tickLength+labelGap, 0.5, 1)
		}
	}

	logrus.Debug("Drawing labels and title")
	dc.SetFontFace(f.label)
	if layout.axisLabel {
		dc.DrawStringAnchored(plot.XLabel, area.x+area.w/2, float64(r.Height)-labelGap, 0.5, 0)
	}
	dc.Push()
	dc.RotateAbout(gg.Radians(-90), labelGap*3, area.y+area.h/2)
	dc.DrawStringAnchored(plot.YLabel, labelGap*3, area.y+area.h/2, 0.5, 0.5)
	dc.Pop()

	dc.SetFontFace(f.title)
	dc.DrawStringAnchored(plot.Title, area.x+area.w/2, marginTop/2, 0.5, 0.5)

	logrus.Debug("Encoding PNG")
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		logrus.Warnf("Failed to encode PNG: %v", err)
		return nil, fmt.Errorf("%w: encode png: %w", flow.ErrRenderFailure, err)
	}
	return buf.Bytes(), nil
}

type rect struct {
	x, y, w, h float64
}

// bottomLayout records which of the elements below the plot are drawn.
type bottomLayout struct {
	ticks      []Tick
	rotate     bool
	tickLabels bool
	axisLabel  bool
}

func (r *Renderer) plotArea(dc *gg.Context, f faces, layout bottomLayout) rect {
	bottom := tickLength + labelGap
	if layout.tickLabels {
		dc.SetFontFace(f.tick)
		labelW, labelH := 0.0, 0.0
		for _, t := range layout.ticks {
			w, h := dc.MeasureString(t.Label)
			labelW = math.Max(labelW, w)
			labelH = math.Max(labelH, h)
		}
		tickArea := labelH
		if layout.rotate {
			a := gg.Radians(rotatedLabelAngle)
			tickArea = labelW*math.Sin(a) + labelH*math.Cos(a)
		}
		bottom += tickArea + labelGap
	}
	if layout.axisLabel {
		dc.SetFontFace(f.label)
		_, xLabelH := dc.MeasureString("Time")
		bottom += xLabelH + labelGap*2
	}

	return rect{
		x: marginLeft,
		y: marginTop,
		w: float64(r.Width) - marginLeft - marginRight,
		h: float64(r.Height) - marginTop - bottom,
	}
}

// fitTimeTicks rotates the time labels when they would overlap side by side
// and drops every other tick while even rotated labels collide.
func fitTimeTicks(dc *gg.Context, face font.Face, ticks []Tick, width float64) ([]Tick, bool) {
	if len(ticks) < 2 {
		return ticks, false
	}
	dc.SetFontFace(face)
	labelW, labelH := 0.0, 0.0
	for _, t := range ticks {
		w, h := dc.MeasureString(t.Label)
		labelW = math.Max(labelW, w)
		labelH = math.Max(labelH, h)
	}
	spacing := width / float64(len(ticks))
	if labelW+labelGap <= spacing {
		return ticks, false
	}

	// rotated labels are parallel; they collide when the perpendicular
	// distance between neighbouring baselines is below the text height
	perp := math.Sin(gg.Radians(rotatedLabelAngle))
	for len(ticks) > 1 && spacing*perp < labelH+2 {
		thinned := make([]Tick, 0, (len(ticks)+1)/2)
		for i := 0; i < len(ticks); i += 2 {
			thinned = append(thinned, ticks[i])
		}
		logrus.Tracef("Thinning time ticks from %d to %d", len(ticks), len(thinned))
		ticks = thinned
		spacing *= 2
	}
	return ticks, true
}

type transform struct {
	plot Plot
	area rect
}

func (t transform) x(v float64) float64 {
	return t.area.x + (v-t.plot.XMin)/(t.plot.XMax-t.plot.XMin)*t.area.w
}

func (t transform) y(v float64) float64 {
	return t.area.y + t.area.h - (v-t.plot.YMin)/(t.plot.YMax-t.plot.YMin)*t.area.h
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// drawSeries connects the points in order. A non-finite value breaks the
// line, leaving a gap.
func drawSeries(dc *gg.Context, tr transform, points []Point) {
	if len(points) < 2 {
		logrus.Debugf("Not enough data to draw line (%d points)", len(points))
		return
	}
	dc.Push()
	dc.DrawRectangle(tr.area.x, tr.area.y, tr.area.w, tr.area.h)
	dc.Clip()
	dc.SetColor(lineColor)
	dc.SetLineWidth(1.5)
	penDown := false
	for _, p := range points {
		if !finite(p.Y) {
			logrus.Tracef("Skipping non-finite value at %.0f", p.X)
			penDown = false
			continue
		}
		if penDown {
			dc.LineTo(tr.x(p.X), tr.y(p.Y))
		} else {
			dc.MoveTo(tr.x(p.X), tr.y(p.Y))
			penDown = true
		}
	}
	dc.Stroke()
	dc.ResetClip()
	dc.Pop()
}
