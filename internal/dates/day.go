package dates

import (
	"encoding/json"
	"time"
)

// Day is a calendar day at UTC midnight. It marshals as YYYY-MM-DD and
// accepts any ISO-like timestamp on input.
type Day struct {
	time.Time
}

// NewDay truncates t to its calendar day.
func NewDay(t time.Time) Day {
	return Day{Truncate(t)}
}

func (d Day) String() string {
	return Key(d.Time)
}

func (d Day) MarshalText() ([]byte, error) {
	return []byte(Key(d.Time)), nil
}

func (d *Day) UnmarshalText(b []byte) error {
	t, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(Key(d.Time))
}

func (d *Day) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}
