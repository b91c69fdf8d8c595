package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"service-schedule/internal/domain"
	"service-schedule/internal/logger"
	"service-schedule/internal/repository"
	"service-schedule/internal/repository/memory"
	"service-schedule/internal/schedule"
)

// Manila does not observe DST, so a fixed zone matches Asia/Manila.
var testLoc = time.FixedZone("PHT", 8*60*60)

// Wednesday; the materialization window runs Sun 2026-10-11 to Sat 2026-10-24.
var testNow = time.Date(2026, 10, 14, 10, 0, 0, 0, testLoc)

func at(day, hour, minute int) time.Time {
	return time.Date(2026, 10, day, hour, minute, 0, 0, testLoc)
}

func strPtr(s string) *string { return &s }

func mwfCourse() domain.Course {
	return domain.Course{
		ID:         42,
		Code:       "CS201",
		Title:      "Data Structures",
		Instructor: "R. Santos",
		ClassStart: strPtr("09:00"),
		ClassEnd:   strPtr("10:30:00"),
		WeekMask:   domain.WeekMask{time.Monday: true, time.Wednesday: true, time.Friday: true},
	}
}

func unscheduledCourse() domain.Course {
	return domain.Course{
		ID:       7,
		Code:     "PE101",
		Title:    "Physical Education",
		WeekMask: domain.WeekMask{time.Tuesday: true},
	}
}

type fakeIdentity struct {
	users map[uuid.UUID]IdentityUser
}

func (f fakeIdentity) GetMe(_ context.Context, userID uuid.UUID) (IdentityUser, error) {
	user, ok := f.users[userID]
	if !ok {
		return IdentityUser{}, ErrNotFound
	}
	return user, nil
}

// faultyTx hands out the wrapped store's repositories with some calls failing.
type faultyTx struct {
	inner       repository.TxManager
	events      *failingEvents
	enrollments *failingEnrollments
}

func (f *faultyTx) WithTx(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepositories) error) error {
	return f.inner.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		if f.events != nil {
			wrapped := *f.events
			wrapped.EventRepository = repos.Events
			repos.Events = wrapped
		}
		if f.enrollments != nil {
			wrapped := *f.enrollments
			wrapped.EnrollmentRepository = repos.Enrollments
			repos.Enrollments = wrapped
		}
		return fn(ctx, repos)
	})
}

type failingEvents struct {
	repository.EventRepository
	insertErr error
	deleteErr error
	queryErr  error
}

func (f failingEvents) InsertBatch(ctx context.Context, events []domain.PersistedEvent) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	return f.EventRepository.InsertBatch(ctx, events)
}

func (f failingEvents) DeleteMaterialized(ctx context.Context, filter repository.MaterializedFilter) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return f.EventRepository.DeleteMaterialized(ctx, filter)
}

func (f failingEvents) QueryFreeform(ctx context.Context, query repository.FreeformQuery) ([]domain.PersistedEvent, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.EventRepository.QueryFreeform(ctx, query)
}

type failingEnrollments struct {
	repository.EnrollmentRepository
	listErr error
}

func (f failingEnrollments) ListCourses(ctx context.Context, studentID uuid.UUID) ([]domain.Course, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.EnrollmentRepository.ListCourses(ctx, studentID)
}

func newEnrollmentService(tx repository.TxManager, identity IdentityClient) *EnrollmentService {
	svc := NewEnrollmentService(tx, identity, schedule.NewProjector(logger.Discard()), testLoc, logger.Discard())
	svc.clock = func() time.Time { return testNow }
	return svc
}

func newScheduleService(tx repository.TxManager) *ScheduleService {
	svc := NewScheduleService(tx, schedule.NewProjector(logger.Discard()), testLoc, logger.Discard())
	svc.clock = func() time.Time { return testNow }
	return svc
}

func seededStore(courses ...domain.Course) *memory.Store {
	store := memory.NewStore()
	for _, course := range courses {
		store.AddCourse(course)
	}
	return store
}

func seedEvents(store *memory.Store, events ...domain.PersistedEvent) {
	_ = store.WithTx(context.Background(), func(ctx context.Context, repos repository.TxRepositories) error {
		_, err := repos.Events.InsertBatch(ctx, events)
		return err
	})
}
