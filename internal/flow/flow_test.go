package flow

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSelectRangeSpansPeriod(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 30, 15, 0, time.UTC)
	for _, p := range Periods() {
		r := SelectRange(p, now)
		require.Equal(t, now.Unix(), r.End, p.String())
		require.Equal(t, p.Seconds(), r.End-r.Start, p.String())
		require.LessOrEqual(t, r.Start, r.End)
	}
}

func TestSelectRangeInvalidPeriodPanics(t *testing.T) {
	require.Panics(t, func() {
		SelectRange(Period(42), time.Now())
	})
}

func TestPeriodTable(t *testing.T) {
	cases := []struct {
		p       Period
		name    string
		seconds int64
		format  string
	}{
		{Minute, "Minute", 60, "%H:%M:%S"},
		{Hour, "Hour", 3600, "%H:%M:%S"},
		{Day, "Day", 86400, "%a-%H"},
		{Week, "Week", 604800, "%a-%H"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.name, tc.p.Name())
		require.Equal(t, tc.seconds, tc.p.Seconds())
		require.Equal(t, time.Duration(tc.seconds)*time.Second, tc.p.Duration())
		require.Equal(t, tc.format, tc.p.TimeFormat())
	}
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("hour")
	require.NoError(t, err)
	require.Equal(t, Hour, p)

	p, err = ParsePeriod("WEEK")
	require.NoError(t, err)
	require.Equal(t, Week, p)

	_, err = ParsePeriod("fortnight")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidPeriod))
}

func TestMaxValue(t *testing.T) {
	_, ok := MaxValue(nil)
	require.False(t, ok)

	readings := []Reading{{Timestamp: 10, Value: 5}, {Timestamp: 20, Value: 9}, {Timestamp: 30, Value: 3}}
	orders := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 0, 2}, {2, 0, 1}}
	for _, order := range orders {
		shuffled := make([]Reading, 0, len(order))
		for _, i := range order {
			shuffled = append(shuffled, readings[i])
		}
		max, ok := MaxValue(shuffled)
		require.True(t, ok)
		require.Equal(t, 9.0, max)
	}
}

func TestMaxValueNegative(t *testing.T) {
	max, ok := MaxValue([]Reading{{Timestamp: 1, Value: -4}, {Timestamp: 2, Value: -2}})
	require.True(t, ok)
	require.Equal(t, -2.0, max)
}

func TestTimeRangeContains(t *testing.T) {
	r := TimeRange{Start: 100, End: 160}
	require.True(t, r.Contains(100))
	require.True(t, r.Contains(160))
	require.False(t, r.Contains(99))
	require.False(t, r.Contains(161))
}

func TestMaxValueSkipsNonFinite(t *testing.T) {
	nan := math.NaN()
	cases := [][]Reading{
		{{Timestamp: 0, Value: nan}, {Timestamp: 10, Value: 3}},
		{{Timestamp: 10, Value: 3}, {Timestamp: 0, Value: nan}},
		{{Timestamp: 0, Value: math.Inf(1)}, {Timestamp: 10, Value: 3}},
		{{Timestamp: 10, Value: 3}, {Timestamp: 0, Value: math.Inf(-1)}},
	}
	for _, readings := range cases {
		v, ok := MaxValue(readings)
		require.True(t, ok)
		require.Equal(t, 3.0, v)
	}

	_, ok := MaxValue([]Reading{{Timestamp: 0, Value: nan}, {Timestamp: 1, Value: math.Inf(1)}})
	require.False(t, ok)
}
