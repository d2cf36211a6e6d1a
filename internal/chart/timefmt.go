package chart

import (
	"strings"
	"time"
)

var strftimeLayouts = map[byte]string{
	'H': "15",
	'M': "04",
	'S': "05",
	'a': "Mon",
	'A': "Monday",
	'b': "Jan",
	'd': "02",
	'm': "01",
	'y': "06",
	'Y': "2006",
	'p': "PM",
}

// formatTime renders t using the strftime directives listed in
// strftimeLayouts. Unknown directives are written out verbatim.
func formatTime(t time.Time, format string) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i == len(format)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		if format[i] == '%' {
			b.WriteByte('%')
			continue
		}
		if layout, ok := strftimeLayouts[format[i]]; ok {
			b.WriteString(t.Format(layout))
			continue
		}
		b.WriteByte('%')
		b.WriteByte(format[i])
	}
	return b.String()
}
