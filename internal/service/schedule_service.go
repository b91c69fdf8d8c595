package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"service-schedule/internal/domain"
	"service-schedule/internal/logger"
	"service-schedule/internal/repository"
	"service-schedule/internal/schedule"
)

// DefaultRangeDays bounds a range query that names no bounds.
const DefaultRangeDays = 180

// MaxRangeDays caps the span of a single range query. It admits the default
// range, which covers today plus DefaultRangeDays either side.
const MaxRangeDays = 2*DefaultRangeDays + 1

// ScheduleService answers schedule reads. Course occurrences are always
// projected live; only freeform events are read from the store.
type ScheduleService struct {
	txManager repository.TxManager
	projector *schedule.Projector
	loc       *time.Location
	log       *logger.Logger
	clock     func() time.Time
}

func NewScheduleService(txManager repository.TxManager, projector *schedule.Projector, loc *time.Location, log *logger.Logger) *ScheduleService {
	return &ScheduleService{
		txManager: txManager,
		projector: projector,
		loc:       loc,
		log:       log,
		clock:     time.Now,
	}
}

func (s *ScheduleService) Location() *time.Location {
	return s.loc
}

// Today is the current instant in the schedule timezone.
func (s *ScheduleService) Today() time.Time {
	return s.clock().In(s.loc)
}

// DefaultRange spans DefaultRangeDays either side of today.
func (s *ScheduleService) DefaultRange() (time.Time, time.Time) {
	today := schedule.StartOfDay(s.Today())
	from := today.AddDate(0, 0, -DefaultRangeDays)
	to := today.AddDate(0, 0, DefaultRangeDays+1).Add(-time.Nanosecond)
	return from, to
}

// Events merges the user's freeform events intersecting [from, to] with the
// live projection of every enrolled course over the same range. A failed
// enrollment lookup degrades to freeform events only.
func (s *ScheduleService) Events(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.MergedEvent, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	from, to = from.In(s.loc), to.In(s.loc)
	if to.Before(from) {
		return nil, NewValidationError("invalid range", FieldError{Field: "to", Error: "to must not be before from"})
	}
	if to.After(from.AddDate(0, 0, MaxRangeDays)) {
		return nil, NewValidationError("invalid range", FieldError{
			Field: "to",
			Error: fmt.Sprintf("range must not exceed %d days", MaxRangeDays),
		})
	}

	var freeform []domain.PersistedEvent
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		freeform, err = repos.Events.QueryFreeform(ctx, repository.FreeformQuery{UserID: userID, From: from, To: to})
		return err
	})
	if err != nil {
		return nil, err
	}

	var courses []domain.Course
	err = s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		courses, err = repos.Enrollments.ListCourses(ctx, userID)
		return err
	})
	if err != nil {
		s.log.Error("list enrolled courses, serving freeform events only", err, "user_id", userID)
		return schedule.Merge(freeform, nil), nil
	}

	var projected []domain.ProjectedOccurrence
	window := schedule.Window{Start: from, End: to}
	for _, course := range courses {
		for occurrence := range s.projector.Project(course, from, to) {
			if overlaps(window, occurrence) {
				projected = append(projected, occurrence)
			}
		}
	}

	return schedule.Merge(freeform, projected), nil
}

// EventsForDay covers the calendar day of date in the schedule timezone.
func (s *ScheduleService) EventsForDay(ctx context.Context, userID uuid.UUID, date time.Time) ([]domain.MergedEvent, error) {
	day := schedule.DayWindow(date.In(s.loc))
	return s.Events(ctx, userID, day.Start, day.End)
}

// Catalog lists every course ordered by code, flagging the user's enrollments.
func (s *ScheduleService) Catalog(ctx context.Context, userID uuid.UUID) ([]domain.CatalogEntry, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	var all, enrolled []domain.Course
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		if all, err = repos.Courses.ListAll(ctx); err != nil {
			return err
		}
		enrolled, err = repos.Enrollments.ListCourses(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	enrolledIDs := make(map[int64]struct{}, len(enrolled))
	for _, course := range enrolled {
		enrolledIDs[course.ID] = struct{}{}
	}

	entries := make([]domain.CatalogEntry, 0, len(all))
	for _, course := range all {
		_, ok := enrolledIDs[course.ID]
		entries = append(entries, domain.CatalogEntry{Course: course, Enrolled: ok})
	}
	return entries, nil
}

func overlaps(w schedule.Window, occurrence domain.ProjectedOccurrence) bool {
	return !occurrence.Start.After(w.End) && !occurrence.End.Before(w.Start)
}
