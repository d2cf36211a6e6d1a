package chart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"flowviewer/internal/flow"
)

func TestExpandFormat(t *testing.T) {
	require.Equal(t, "Hour:Minute:Second", ExpandFormat("%H:%M:%S"))
	require.Equal(t, "Day-Hour", ExpandFormat("%a-%H"))
	require.Equal(t, "", ExpandFormat(""))
	require.Equal(t, "Y-m-d", ExpandFormat("%Y-%m-%d"))
}

func TestForPeriodLabels(t *testing.T) {
	spec := ForPeriod(flow.Minute, DefaultTZOffset)
	require.Equal(t, "Flow Rate Over The Past Minute", spec.Title)
	require.Equal(t, "Time (Hour:Minute:Second)", spec.XLabel)
	require.Equal(t, "Flow Rate (L/Min)", spec.YLabel)
	require.Equal(t, "%H:%M:%S", spec.TimeFormat)
	require.Equal(t, -8*time.Hour, spec.TZOffset)

	spec = ForPeriod(flow.Week, time.Hour)
	require.Equal(t, "Flow Rate Over The Past Week", spec.Title)
	require.Equal(t, "Time (Day-Hour)", spec.XLabel)
	require.Equal(t, time.Hour, spec.TZOffset)
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2024, 5, 7, 9, 4, 3, 0, time.UTC)
	require.Equal(t, "09:04:03", formatTime(ts, "%H:%M:%S"))
	require.Equal(t, "Tue-09", formatTime(ts, "%a-%H"))
	require.Equal(t, "2024-05-07", formatTime(ts, "%Y-%m-%d"))
	require.Equal(t, "100% %q", formatTime(ts, "100%% %q"))
	require.Equal(t, "trailing %", formatTime(ts, "trailing %"))
}
