package engine

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Formatter renders the shared primitives every handler answer is built
// from: currency, dates, percentages, proportional bars, row lists.
type Formatter struct {
	CurrencySymbol string
	Location       *time.Location
}

// NewFormatter returns a formatter with the given currency symbol ("₹" when
// empty) rendering dates in loc (UTC when nil).
func NewFormatter(symbol string, loc *time.Location) *Formatter {
	if symbol == "" {
		symbol = "₹"
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{CurrencySymbol: symbol, Location: loc}
}

// Money renders a whole-unit amount with thousands grouping: ₹12,345.
func (f *Formatter) Money(v float64) string {
	neg := v < 0
	n := int64(math.Round(math.Abs(v)))
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, d := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	sign := ""
	if neg {
		sign = "-"
	}
	return sign + f.CurrencySymbol + b.String()
}

// Percent renders a ratio difference as "12.3%".
func (f *Formatter) Percent(v float64) string {
	return fmt.Sprintf("%.1f%%", math.Abs(v))
}

// Date renders an epoch-second timestamp as "02 Jan".
func (f *Formatter) Date(ts int64) string {
	return time.Unix(ts, 0).In(f.Location).Format("02 Jan")
}

// DateTime renders an epoch-second timestamp as "02 Jan 15:04".
func (f *Formatter) DateTime(ts int64) string {
	return time.Unix(ts, 0).In(f.Location).Format("02 Jan 15:04")
}

// Bar renders a proportional bar scaled so max fills width. Any non-zero
// value gets at least one unit.
func (f *Formatter) Bar(value, max float64, width int) string {
	if max <= 0 || value <= 0 {
		return ""
	}
	n := int(math.Round(value / max * float64(width)))
	if n < 1 {
		n = 1
	}
	if n > width {
		n = width
	}
	return strings.Repeat("█", n)
}

// Plural appends "s" for counts other than one.
func (f *Formatter) Plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// Truncate renders up to limit lines plus an explicit "...and N more" suffix
// when rows were cut.
func (f *Formatter) Truncate(lines []string, limit int) []string {
	if limit <= 0 || len(lines) <= limit {
		return lines
	}
	out := make([]string, 0, limit+1)
	out = append(out, lines[:limit]...)
	out = append(out, fmt.Sprintf("...and %d more", len(lines)-limit))
	return out
}

// Duration renders seconds as "2h 15m" or "45m".
func (f *Formatter) Duration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
