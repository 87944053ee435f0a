package progress

import (
	"fmt"
	"time"
)

// Window is a daily reading-goal window defined by "HH:MM" open and
// close times in the reader's local day. The interval is half-open
// [open, close): the window is open at the open minute and closed at
// the close minute exactly. A close before the open wraps past
// midnight (22:00-04:00 covers late evening through early morning).
type Window struct {
	Open  string `yaml:"open" json:"open"`
	Close string `yaml:"close" json:"close"`
}

// minuteOfDay parses "HH:MM" into minutes since midnight.
func minuteOfDay(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return h*60 + m, nil
}

// Contains reports whether t falls inside the window. An equal open and
// close is the empty interval and never contains anything.
func (w Window) Contains(t time.Time) (bool, error) {
	open, err := minuteOfDay(w.Open)
	if err != nil {
		return false, err
	}
	closeAt, err := minuteOfDay(w.Close)
	if err != nil {
		return false, err
	}

	now := t.Hour()*60 + t.Minute()
	if open < closeAt {
		return now >= open && now < closeAt, nil
	}
	if open > closeAt {
		// Overnight wrap
		return now >= open || now < closeAt, nil
	}
	return false, nil
}
