// Package dates normalizes calendar dates and merges holiday and custom
// labels into a day-keyed map used by the planner pages.
package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// KeyLayout is the strict day key format used throughout the engine.
const KeyLayout = "2006-01-02"

// Entry is a labelled calendar day. Date may be any ISO-like string; only
// its YYYY-MM-DD prefix is significant.
type Entry struct {
	Date string `json:"date" yaml:"date"`
	Name string `json:"name" yaml:"name"`
}

// ErrInvalidDate is returned when a string does not start with a calendar date.
var ErrInvalidDate = errors.New("invalid date")

var keyPattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})(?:$|[T ])`)

// NormalizeKey extracts the YYYY-MM-DD portion of an ISO-like string.
// It reports false when the input does not start with a real calendar date.
// No timezone conversion is applied: "2026-12-24T23:30:00-05:00" keys to
// "2026-12-24".
func NormalizeKey(raw string) (string, bool) {
	m := keyPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
		return "", false
	}
	return t.Format(KeyLayout), true
}

// Merge combines holiday and custom entries into one map keyed by day.
// Holidays are applied first and custom dates second, so a custom label
// overwrites a holiday on the same day. Within one list the later entry
// wins. Entries whose date cannot be normalized are dropped.
func Merge(holidays, custom []Entry) map[string]string {
	merged := make(map[string]string, len(holidays)+len(custom))
	for _, list := range [][]Entry{holidays, custom} {
		for _, e := range list {
			key, ok := NormalizeKey(e.Date)
			if !ok {
				continue
			}
			merged[key] = e.Name
		}
	}
	return merged
}

// Dropped returns the entries Merge would discard.
func Dropped(entries []Entry) []Entry {
	var out []Entry
	for _, e := range entries {
		if _, ok := NormalizeKey(e.Date); !ok {
			out = append(out, e)
		}
	}
	return out
}

// ParseDay parses an ISO-like string into a UTC midnight time.
func ParseDay(raw string) (time.Time, error) {
	key, ok := NormalizeKey(raw)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return time.Parse(KeyLayout, key)
}

// Truncate returns UTC midnight of t's calendar date.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Key formats t as a day key.
func Key(t time.Time) string {
	return t.Format(KeyLayout)
}

// Monday returns the Monday of the ISO week containing t.
func Monday(t time.Time) time.Time {
	day := Truncate(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// WeekDays returns Monday through Friday of the week containing t.
func WeekDays(t time.Time) [5]time.Time {
	var days [5]time.Time
	mon := Monday(t)
	for i := range days {
		days[i] = mon.AddDate(0, 0, i)
	}
	return days
}

// FormatDayLabel renders a day as DD.MM.
func FormatDayLabel(t time.Time) string {
	return t.Format("02.01")
}

// YearSpan renders the cover's period label: "2026" when start and end fall
// in the same year (or end is nil), "2026/2027" otherwise.
func YearSpan(start time.Time, end *time.Time) string {
	from := strconv.Itoa(start.Year())
	if end == nil || end.Year() == start.Year() {
		return from
	}
	return from + "/" + strconv.Itoa(end.Year())
}
