package domain

import "time"

// WeekMask marks the weekdays a course meets, indexed by time.Weekday
// (Sunday=0 .. Saturday=6).
type WeekMask [7]bool

func (m WeekMask) Meets(weekday time.Weekday) bool {
	if weekday < time.Sunday || weekday > time.Saturday {
		return false
	}
	return m[weekday]
}

// Weekdays lists the meeting days in Sunday-first order.
func (m WeekMask) Weekdays() []time.Weekday {
	days := make([]time.Weekday, 0, len(m))
	for i, meets := range m {
		if meets {
			days = append(days, time.Weekday(i))
		}
	}
	return days
}

func (m WeekMask) IsEmpty() bool {
	return len(m.Weekdays()) == 0
}

type Course struct {
	ID         int64
	Code       string
	Title      string
	Instructor string
	// ClassStart and ClassEnd hold the catalog's raw time-of-day text
	// ("15:04" or "15:04:05"). nil means the course has no schedule data.
	ClassStart *string
	ClassEnd   *string
	WeekMask   WeekMask
}

func (c Course) HasSchedule() bool {
	return c.ClassStart != nil && c.ClassEnd != nil
}

type CatalogEntry struct {
	Course   Course
	Enrolled bool
}
