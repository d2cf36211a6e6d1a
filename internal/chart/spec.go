package chart

import (
	"strings"
	"time"

	"flowviewer/internal/flow"
)

const (
	// YLabel is the fixed y-axis label of every flow chart.
	YLabel = "Flow Rate (L/Min)"

	// DefaultTZOffset is the fixed shift applied to reading timestamps before
	// they are placed on the time axis. It is not derived from any zone
	// database and ignores daylight saving.
	DefaultTZOffset = -8 * time.Hour

	titlePrefix = "Flow Rate Over The Past "
)

// Spec describes the labels and time axis of a chart.
type Spec struct {
	Title      string
	XLabel     string
	YLabel     string
	TimeFormat string
	TZOffset   time.Duration
}

// NewSpec builds the chart description for a period name and strftime-style
// tick format.
func NewSpec(periodName, timeFormat string, offset time.Duration) Spec {
	return Spec{
		Title:      titlePrefix + periodName,
		XLabel:     "Time (" + ExpandFormat(timeFormat) + ")",
		YLabel:     YLabel,
		TimeFormat: timeFormat,
		TZOffset:   offset,
	}
}

// ForPeriod is NewSpec for one of the retention windows.
func ForPeriod(p flow.Period, offset time.Duration) Spec {
	return NewSpec(p.Name(), p.TimeFormat(), offset)
}

// formatWords is applied top to bottom; "%" must go first.
var formatWords = []struct {
	token string
	word  string
}{
	{"%", ""},
	{"H", "Hour"},
	{"M", "Minute"},
	{"S", "Second"},
	{"a", "Day"},
}

// ExpandFormat turns a tick format such as "%H:%M:%S" into readable text
// ("Hour:Minute:Second") by plain substitution. Characters that are not in the
// table are kept as they are.
func ExpandFormat(format string) string {
	out := format
	for _, w := range formatWords {
		out = strings.ReplaceAll(out, w.token, w.word)
	}
	return out
}
