package schedule

import (
	"fmt"
	"iter"
	"strconv"
	"time"

	"github.com/teambition/rrule-go"

	"service-schedule/internal/domain"
	"service-schedule/internal/logger"
)

const isoDate = "2006-01-02"

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// Projector derives concrete class meetings from a course's weekly pattern.
// It holds no state besides its logger.
type Projector struct {
	log *logger.Logger
}

func NewProjector(log *logger.Logger) *Projector {
	return &Projector{log: log}
}

// SyntheticID identifies the meeting of a course on a calendar day. Calendar
// clients key rendering on it, so the format must stay stable.
func SyntheticID(courseID int64, day time.Time) string {
	return "course-" + strconv.FormatInt(courseID, 10) + "-" + day.Format(isoDate)
}

// Project yields one occurrence per day from the day of rangeStart through the
// day of rangeEnd (inclusive) on which the course meets. Days are evaluated in
// rangeStart's location. Courses without schedule data yield nothing, and a
// day whose time of day cannot be parsed is logged and skipped.
func (p *Projector) Project(course domain.Course, rangeStart, rangeEnd time.Time) iter.Seq[domain.ProjectedOccurrence] {
	return func(yield func(domain.ProjectedOccurrence) bool) {
		if !course.HasSchedule() || course.WeekMask.IsEmpty() {
			return
		}

		first := StartOfDay(rangeStart)
		last := StartOfDay(rangeEnd.In(rangeStart.Location()))
		if last.Before(first) {
			return
		}

		next, err := meetingDays(course.WeekMask, first, last)
		if err != nil {
			p.log.Error("build meeting rule", err, "course_id", course.ID)
			return
		}

		for day, ok := next(); ok; day, ok = next() {
			occurrence, err := occurrenceOn(course, day)
			if err != nil {
				p.log.Error("skip course occurrence", err, "course_id", course.ID, "date", day.Format(isoDate))
				continue
			}
			if !yield(occurrence) {
				return
			}
		}
	}
}

// Collect drains a projection into a slice.
func (p *Projector) Collect(course domain.Course, rangeStart, rangeEnd time.Time) []domain.ProjectedOccurrence {
	var out []domain.ProjectedOccurrence
	for occurrence := range p.Project(course, rangeStart, rangeEnd) {
		out = append(out, occurrence)
	}
	return out
}

func meetingDays(mask domain.WeekMask, first, last time.Time) (rrule.Next, error) {
	weekdays := mask.Weekdays()
	byDay := make([]rrule.Weekday, 0, len(weekdays))
	for _, weekday := range weekdays {
		byDay = append(byDay, rruleWeekdays[weekday])
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: byDay,
		Dtstart:   first,
		Until:     last,
	})
	if err != nil {
		return nil, err
	}
	return rule.Iterator(), nil
}

func occurrenceOn(course domain.Course, day time.Time) (domain.ProjectedOccurrence, error) {
	start, err := domain.ParseTimeOfDay(*course.ClassStart)
	if err != nil {
		return domain.ProjectedOccurrence{}, err
	}
	end, err := domain.ParseTimeOfDay(*course.ClassEnd)
	if err != nil {
		return domain.ProjectedOccurrence{}, err
	}

	startAt, endAt := start.On(day), end.On(day)
	if endAt.Before(startAt) {
		return domain.ProjectedOccurrence{}, fmt.Errorf("class end %s before start %s", end, start)
	}

	return domain.ProjectedOccurrence{
		SyntheticID: SyntheticID(course.ID, day),
		Title:       course.Title,
		Start:       startAt,
		End:         endAt,
		CourseID:    course.ID,
	}, nil
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
