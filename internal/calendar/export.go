// Package calendar renders merged schedule events as an iCalendar feed.
package calendar

import (
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"

	"service-schedule/internal/domain"
)

const productID = "-//service-schedule//schedule feed//EN"

const propertyCourseID = ical.ComponentProperty("X-COURSE-ID")

const (
	categoryCourse = "COURSE"
	categoryEvent  = "PERSONAL"
)

// Export serializes events into a VCALENDAR. Event UIDs are the merged ids,
// so re-imports update existing entries instead of duplicating them.
func Export(name string, events []domain.MergedEvent, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(name)

	for _, event := range events {
		vevent := cal.AddEvent(uid(event))
		vevent.SetDtStampTime(stamp)
		vevent.SetStartAt(event.Start)
		vevent.SetEndAt(event.End)
		vevent.SetSummary(event.Title)
		if event.IsCourseEvent {
			vevent.SetProperty(ical.ComponentPropertyCategories, categoryCourse)
			if event.CourseID != nil {
				vevent.SetProperty(propertyCourseID, strconv.FormatInt(*event.CourseID, 10))
			}
		} else {
			vevent.SetProperty(ical.ComponentPropertyCategories, categoryEvent)
		}
	}

	return cal.Serialize()
}

func uid(event domain.MergedEvent) string {
	return event.ID + "@service-schedule"
}
