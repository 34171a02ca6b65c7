package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimeRange is a half-open [Start, End) interval in epoch seconds. For
// open-ended ranges End is "now" and should be treated as inclusive.
type TimeRange struct {
	Start int64
	End   int64
}

// Period is one calendar-aligned window of a multi-period comparison.
type Period struct {
	Start int64
	End   int64
	Label string
}

var (
	lastNUnitRe   = regexp.MustCompile(`(?i)\blast\s+(\d+)\s+(day|week|month|year)s?\b`)
	thisUnitRe    = regexp.MustCompile(`(?i)\bthis\s+(week|month|year)\b`)
	lastUnitRe    = regexp.MustCompile(`(?i)\blast\s+(week|month|year)\b`)
	todayRe       = regexp.MustCompile(`(?i)\btoday\b`)
	yesterdayRe   = regexp.MustCompile(`(?i)\byesterday\b`)
	monthNameRes    []monthPattern
	monthShortNames = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}
)

type monthPattern struct {
	re    *regexp.Regexp
	month time.Month
}

func init() {
	for i, short := range monthShortNames {
		full := strings.ToLower(time.Month(i + 1).String())
		// full name or bare abbreviation, whole word only
		re := regexp.MustCompile(fmt.Sprintf(`(?i)\b(?:%s|%s)\b`, full, short))
		monthNameRes = append(monthNameRes, monthPattern{re: re, month: time.Month(i + 1)})
	}
}

// ParseTimeRange resolves a relative or absolute date phrase to a concrete
// interval, evaluated against now. Returns nil when no form matches; callers
// supply their own default window.
func ParseTimeRange(now time.Time, text string) *TimeRange {
	// 1. "last N days/weeks/months/years"
	if m := lastNUnitRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		var start time.Time
		switch strings.ToLower(m[2]) {
		case "day":
			start = now.AddDate(0, 0, -n)
		case "week":
			start = now.AddDate(0, 0, -7*n)
		case "month":
			start = now.AddDate(0, -n, 0)
		case "year":
			start = now.AddDate(-n, 0, 0)
		}
		return &TimeRange{Start: start.Unix(), End: now.Unix()}
	}

	// 2. "this week/month/year"
	if m := thisUnitRe.FindStringSubmatch(text); m != nil {
		var start time.Time
		switch strings.ToLower(m[1]) {
		case "week":
			start = startOfWeek(now)
		case "month":
			start = startOfMonth(now)
		case "year":
			start = startOfYear(now)
		}
		return &TimeRange{Start: start.Unix(), End: now.Unix()}
	}

	// 3. "last week/month/year": the preceding full calendar unit
	if m := lastUnitRe.FindStringSubmatch(text); m != nil {
		var start, end time.Time
		switch strings.ToLower(m[1]) {
		case "week":
			end = startOfWeek(now)
			start = end.AddDate(0, 0, -7)
		case "month":
			end = startOfMonth(now)
			start = end.AddDate(0, -1, 0)
		case "year":
			end = startOfYear(now)
			start = end.AddDate(-1, 0, 0)
		}
		return &TimeRange{Start: start.Unix(), End: end.Unix()}
	}

	// 4. "today"
	if todayRe.MatchString(text) {
		return &TimeRange{Start: startOfDay(now).Unix(), End: now.Unix()}
	}

	// 5. "yesterday": the full previous day
	if yesterdayRe.MatchString(text) {
		end := startOfDay(now)
		return &TimeRange{Start: end.AddDate(0, 0, -1).Unix(), End: end.Unix()}
	}

	// 6. bare month name, resolved to its most recent past occurrence
	for _, mp := range monthNameRes {
		if !mp.re.MatchString(text) {
			continue
		}
		year := now.Year()
		if mp.month > now.Month() {
			year--
		}
		start := time.Date(year, mp.month, 1, 0, 0, 0, 0, now.Location())
		return &TimeRange{Start: start.Unix(), End: start.AddDate(0, 1, 0).Unix()}
	}

	return nil
}

// BuildPeriods returns n consecutive calendar-aligned windows of unit
// ("month" or "week") ending at the current period, oldest first.
func BuildPeriods(now time.Time, n int, unit string) []Period {
	periods := make([]Period, 0, n)
	switch unit {
	case "week":
		cur := startOfWeek(now)
		for i := n - 1; i >= 0; i-- {
			start := cur.AddDate(0, 0, -7*i)
			periods = append(periods, Period{
				Start: start.Unix(),
				End:   start.AddDate(0, 0, 7).Unix(),
				Label: start.Format("02 Jan"),
			})
		}
	default: // month
		cur := startOfMonth(now)
		for i := n - 1; i >= 0; i-- {
			start := cur.AddDate(0, -i, 0)
			periods = append(periods, Period{
				Start: start.Unix(),
				End:   start.AddDate(0, 1, 0).Unix(),
				Label: start.Format("Jan '06"),
			})
		}
	}
	return periods
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek returns the most recent Monday midnight.
func startOfWeek(t time.Time) time.Time {
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	return startOfDay(t).AddDate(0, 0, -daysSinceMonday)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func startOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
}
