package flow

import (
	"fmt"
	"strings"
	"time"
)

// Period is a named retention window.
type Period int

const (
	Minute Period = iota
	Hour
	Day
	Week
)

type periodInfo struct {
	name    string
	seconds int64
	format  string
}

var periods = [...]periodInfo{
	Minute: {"Minute", 60, "%H:%M:%S"},
	Hour:   {"Hour", 3600, "%H:%M:%S"},
	Day:    {"Day", 86400, "%a-%H"},
	Week:   {"Week", 604800, "%a-%H"},
}

// Periods lists every period from shortest to longest.
func Periods() []Period {
	return []Period{Minute, Hour, Day, Week}
}

// ParsePeriod maps a route name such as "hour" to its Period.
func ParsePeriod(s string) (Period, error) {
	for _, p := range Periods() {
		if strings.EqualFold(s, periods[p].name) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

func (p Period) info() periodInfo {
	if p < Minute || p > Week {
		panic(fmt.Sprintf("flow: invalid period %d", int(p)))
	}
	return periods[p]
}

// Seconds is the length of the window in seconds.
func (p Period) Seconds() int64 {
	return p.info().seconds
}

func (p Period) Duration() time.Duration {
	return time.Duration(p.Seconds()) * time.Second
}

// Name is the human readable name used in chart titles.
func (p Period) Name() string {
	return p.info().name
}

// TimeFormat is the strftime-style pattern used for time axis ticks.
func (p Period) TimeFormat() string {
	return p.info().format
}

func (p Period) String() string {
	if p < Minute || p > Week {
		return fmt.Sprintf("Period(%d)", int(p))
	}
	return strings.ToLower(periods[p].name)
}
