package chart

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"flowviewer/internal/flow"
)

const (
	axisMargin = 0.05
	maxXTicks  = 8
	maxYTicks  = 8
)

// timeSteps are the candidate spacings, in seconds, between time axis ticks.
var timeSteps = []int64{
	1, 2, 5, 10, 15, 30,
	60, 2 * 60, 5 * 60, 10 * 60, 15 * 60, 30 * 60,
	3600, 2 * 3600, 3 * 3600, 6 * 3600, 12 * 3600,
	86400, 2 * 86400, 7 * 86400, 14 * 86400, 28 * 86400,
}

// Point is a reading placed on the chart. X is the shifted timestamp in epoch
// seconds, Y the raw value.
type Point struct {
	X float64
	Y float64
}

// Tick is a labelled axis position in data coordinates.
type Tick struct {
	Value float64
	Label string
}

// Plot is everything needed to draw a chart, in data coordinates.
type Plot struct {
	Title  string
	XLabel string
	YLabel string

	Points []Point

	XMin, XMax float64
	YMin, YMax float64

	XTicks []Tick
	YTicks []Tick
}

// Empty reports whether the plot has no data points.
func (p Plot) Empty() bool {
	return len(p.Points) == 0
}

// Build sorts the readings by timestamp, applies the timezone shift and works
// out axis limits and ticks. The input slice is not modified.
func Build(readings []flow.Reading, spec Spec) Plot {
	sorted := make([]flow.Reading, len(readings))
	copy(sorted, readings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	shift := int64(spec.TZOffset / time.Second)
	points := make([]Point, len(sorted))
	for i, r := range sorted {
		points[i] = Point{X: float64(r.Timestamp + shift), Y: r.Value}
	}

	plot := Plot{
		Title:  spec.Title,
		XLabel: spec.XLabel,
		YLabel: spec.YLabel,
		Points: points,
	}

	if len(points) == 0 {
		logrus.Debug("No points to plot - building empty axes")
		plot.XMin, plot.XMax = 0, 1
		plot.YMin, plot.YMax = 0, 1
		plot.YTicks = valueTicks(0, 1, maxYTicks)
		return plot
	}

	plot.XMin, plot.XMax = timeLimits(points)
	plot.YMin, plot.YMax = valueLimits(points)
	plot.XTicks = timeTicks(plot.XMin, plot.XMax, maxXTicks, spec.TimeFormat)
	plot.YTicks = valueTicks(plot.YMin, plot.YMax, maxYTicks)
	logrus.Debugf("Built plot with %d points, x=[%.0f, %.0f], y=[%.3f, %.3f]",
		len(points), plot.XMin, plot.XMax, plot.YMin, plot.YMax)
	return plot
}

func timeLimits(points []Point) (float64, float64) {
	lo, hi := points[0].X, points[len(points)-1].X
	if lo == hi {
		return lo - 1, hi + 1
	}
	pad := (hi - lo) * axisMargin
	return lo - pad, hi + pad
}

// valueLimits pads the data range the way an auto-scaling axis would and then
// pins the bottom at zero. Non-finite values do not take part in scaling.
func valueLimits(points []Point) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		if !finite(p.Y) {
			continue
		}
		lo = math.Min(lo, p.Y)
		hi = math.Max(hi, p.Y)
	}
	if lo > hi {
		logrus.Debug("No finite values to scale - using unit axis")
		return 0, 1
	}
	if lo == hi {
		expand := math.Abs(hi) * axisMargin
		if expand == 0 {
			expand = 1
		}
		lo, hi = lo-expand, hi+expand
	}
	hi += (hi - lo) * axisMargin
	if hi <= 0 {
		// all readings at or below zero; keep a drawable axis above the clamp
		hi = 1
	}
	return 0, hi
}

// niceStep rounds span/maxTicks up to 1, 2 or 5 times a power of ten.
func niceStep(span float64, maxTicks int) float64 {
	raw := span / float64(maxTicks)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, m := range []float64{1, 2, 5, 10} {
		if raw <= m*mag {
			return m * mag
		}
	}
	return 10 * mag
}

func valueTicks(lo, hi float64, maxTicks int) []Tick {
	step := niceStep(hi-lo, maxTicks)
	decimals := 0
	if step < 1 {
		decimals = int(math.Ceil(-math.Log10(step)))
	}
	ticks := make([]Tick, 0, maxTicks+1)
	for i := math.Ceil(lo / step); i*step <= hi+step*1e-9; i++ {
		v := i * step
		ticks = append(ticks, Tick{Value: v, Label: strconv.FormatFloat(v, 'f', decimals, 64)})
	}
	return ticks
}

// timeTicks picks the smallest step from timeSteps yielding at most maxTicks
// ticks. Ticks sit on whole multiples of the step so labels land on round
// clock values.
func timeTicks(lo, hi float64, maxTicks int, format string) []Tick {
	span := hi - lo
	step := float64(timeSteps[len(timeSteps)-1])
	for _, s := range timeSteps {
		if span/float64(s) <= float64(maxTicks) {
			step = float64(s)
			break
		}
	}
	ticks := make([]Tick, 0, maxTicks+1)
	for v := math.Ceil(lo/step) * step; v <= hi; v += step {
		t := time.Unix(int64(v), 0).UTC()
		ticks = append(ticks, Tick{Value: v, Label: formatTime(t, format)})
	}
	return ticks
}
