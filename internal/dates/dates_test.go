package dates

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"plain date", "2026-08-24", "2026-08-24", true},
		{"timestamp", "2026-08-24T10:20:30.000Z", "2026-08-24", true},
		{"offset keeps calendar date", "2026-12-24T23:30:00-05:00", "2026-12-24", true},
		{"space separated time", "2026-08-24 10:20", "2026-08-24", true},
		{"slashes", "2026/08/24", "", false},
		{"impossible day", "2026-02-30", "", false},
		{"month 13", "2026-13-01", "", false},
		{"garbage", "tomorrow", "", false},
		{"empty", "", "", false},
		{"trailing junk", "2026-08-24x", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeKey(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("NormalizeKey(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	holidays := []Entry{
		{Date: "2026-10-03", Name: "Tag der Deutschen Einheit"},
		{Date: "2026-12-25T00:00:00Z", Name: "1. Weihnachtstag"},
		{Date: "not-a-date", Name: "dropped"},
	}
	custom := []Entry{
		{Date: "2026-10-03", Name: "Birthday"},
		{Date: "2026/05/01", Name: "dropped too"},
		{Date: "2026-06-01", Name: "first"},
		{Date: "2026-06-01", Name: "second"},
	}

	got := Merge(holidays, custom)

	want := map[string]string{
		"2026-10-03": "Birthday",
		"2026-12-25": "1. Weihnachtstag",
		"2026-06-01": "second",
	}
	if len(got) != len(want) {
		t.Fatalf("Merge() returned %d entries, want %d: %v", len(got), len(want), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Merge()[%q] = %q, want %q", k, got[k], v)
		}
	}
	for k := range got {
		if _, ok := NormalizeKey(k); !ok || len(k) != len(KeyLayout) {
			t.Errorf("Merge() key %q is not a strict day key", k)
		}
	}
}

func TestMergeEmpty(t *testing.T) {
	if got := Merge(nil, nil); len(got) != 0 {
		t.Errorf("Merge(nil, nil) = %v, want empty", got)
	}
}

func TestDropped(t *testing.T) {
	got := Dropped([]Entry{{Date: "2026-01-01"}, {Date: "nope"}})
	if len(got) != 1 || got[0].Date != "nope" {
		t.Errorf("Dropped() = %v", got)
	}
}

func TestWeekDays(t *testing.T) {
	// Thursday 1 January 2026
	days := WeekDays(time.Date(2026, 1, 1, 15, 0, 0, 0, time.UTC))
	want := []string{"2025-12-29", "2025-12-30", "2025-12-31", "2026-01-01", "2026-01-02"}
	for i, d := range days {
		if Key(d) != want[i] {
			t.Errorf("day %d = %s, want %s", i, Key(d), want[i])
		}
	}
}

func TestMonday(t *testing.T) {
	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), "2026-03-02"},  // Monday
		{time.Date(2026, 3, 8, 23, 0, 0, 0, time.UTC), "2026-03-02"}, // Sunday
		{time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), "2026-03-02"},  // Wednesday
	}
	for _, tt := range tests {
		if got := Key(Monday(tt.in)); got != tt.want {
			t.Errorf("Monday(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestFormatDayLabel(t *testing.T) {
	if got := FormatDayLabel(time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC)); got != "04.08" {
		t.Errorf("FormatDayLabel() = %q, want 04.08", got)
	}
}

func TestYearSpan(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	sameYear := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	nextYear := time.Date(2027, 7, 31, 0, 0, 0, 0, time.UTC)

	if got := YearSpan(start, nil); got != "2026" {
		t.Errorf("YearSpan(nil end) = %q", got)
	}
	if got := YearSpan(start, &sameYear); got != "2026" {
		t.Errorf("YearSpan(same year) = %q", got)
	}
	if got := YearSpan(start, &nextYear); got != "2026/2027" {
		t.Errorf("YearSpan(next year) = %q", got)
	}
}

func TestParseDay(t *testing.T) {
	got, err := ParseDay("2026-08-24T08:00:00Z")
	if err != nil {
		t.Fatalf("ParseDay() error = %v", err)
	}
	if !got.Equal(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseDay() = %v", got)
	}

	if _, err := ParseDay("24.08.2026"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("ParseDay(invalid) error = %v, want ErrInvalidDate", err)
	}
}

func TestDayJSON(t *testing.T) {
	var v struct {
		Start Day  `json:"start"`
		End   *Day `json:"end,omitempty"`
	}
	if err := json.Unmarshal([]byte(`{"start":"2026-09-01T12:00:00Z"}`), &v); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if v.Start.String() != "2026-09-01" {
		t.Errorf("Start = %s", v.Start)
	}
	if v.End != nil {
		t.Errorf("End = %v, want nil", v.End)
	}

	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != `{"start":"2026-09-01"}` {
		t.Errorf("Marshal() = %s", out)
	}

	if err := json.Unmarshal([]byte(`{"start":"01.09.2026"}`), &v); err == nil {
		t.Error("Unmarshal() accepted a non-ISO date")
	}
}
