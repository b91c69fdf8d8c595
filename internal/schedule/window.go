package schedule

import "time"

// Window is an inclusive instant range.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// MaterializationWindow covers the calendar week containing now and the week
// after it. Weeks start on Sunday in now's location.
func MaterializationWindow(now time.Time) Window {
	start := StartOfWeek(now)
	return Window{
		Start: start,
		End:   start.AddDate(0, 0, 14).Add(-time.Nanosecond),
	}
}

func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// DayWindow spans the calendar day containing t.
func DayWindow(t time.Time) Window {
	start := StartOfDay(t)
	return Window{
		Start: start,
		End:   start.AddDate(0, 0, 1).Add(-time.Nanosecond),
	}
}
