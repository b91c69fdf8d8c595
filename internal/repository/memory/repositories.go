package memory

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/google/uuid"

	"service-schedule/internal/domain"
	"service-schedule/internal/repository"
)

// errEndBeforeStart mirrors the events table check constraint.
var errEndBeforeStart = errors.New("events: end_time before start_time")

type courseRepository struct {
	state *state
}

func (r courseRepository) GetByID(_ context.Context, id int64) (domain.Course, error) {
	course, ok := r.state.courses[id]
	if !ok {
		return domain.Course{}, repository.ErrNotFound
	}
	return course, nil
}

func (r courseRepository) ListAll(_ context.Context) ([]domain.Course, error) {
	return sortedCourses(slices.Collect(maps.Values(r.state.courses))), nil
}

type enrollmentRepository struct {
	state *state
}

func (r enrollmentRepository) Insert(_ context.Context, enrollment domain.Enrollment) error {
	key := enrollmentKey{studentID: enrollment.StudentID, courseID: enrollment.CourseID}
	if _, exists := r.state.enrollments[key]; exists {
		return repository.ErrDuplicate
	}
	if _, ok := r.state.courses[enrollment.CourseID]; !ok {
		return errors.New("student_courses: course does not exist")
	}
	r.state.enrollments[key] = enrollment
	return nil
}

func (r enrollmentRepository) Delete(_ context.Context, studentID uuid.UUID, courseID int64) error {
	key := enrollmentKey{studentID: studentID, courseID: courseID}
	if _, exists := r.state.enrollments[key]; !exists {
		return repository.ErrNotFound
	}
	delete(r.state.enrollments, key)
	return nil
}

func (r enrollmentRepository) ListCourses(_ context.Context, studentID uuid.UUID) ([]domain.Course, error) {
	var courses []domain.Course
	for key := range r.state.enrollments {
		if key.studentID != studentID {
			continue
		}
		if course, ok := r.state.courses[key.courseID]; ok {
			courses = append(courses, course)
		}
	}
	return sortedCourses(courses), nil
}

func (r enrollmentRepository) ListAll(_ context.Context) ([]domain.Enrollment, error) {
	return sortedEnrollments(slices.Collect(maps.Values(r.state.enrollments))), nil
}

type eventRepository struct {
	state *state
}

func (r eventRepository) InsertBatch(_ context.Context, events []domain.PersistedEvent) (int64, error) {
	for _, event := range events {
		if event.End.Before(event.Start) {
			return 0, errEndBeforeStart
		}
	}

	var inserted int64
	for _, event := range events {
		if _, exists := r.state.events[event.ID]; exists {
			continue
		}
		r.state.events[event.ID] = event
		inserted++
	}
	return inserted, nil
}

func (r eventRepository) DeleteMaterialized(_ context.Context, filter repository.MaterializedFilter) (int64, error) {
	var deleted int64
	for id, event := range r.state.events {
		if event.UserID != filter.UserID || event.CourseID == nil || *event.CourseID != filter.CourseID {
			continue
		}
		if event.Start.Before(filter.From) || event.Start.After(filter.To) {
			continue
		}
		delete(r.state.events, id)
		deleted++
	}
	return deleted, nil
}

func (r eventRepository) QueryFreeform(_ context.Context, q repository.FreeformQuery) ([]domain.PersistedEvent, error) {
	events := make([]domain.PersistedEvent, 0)
	for _, event := range r.state.events {
		if event.UserID != q.UserID || !event.IsFreeform() {
			continue
		}
		if event.Start.After(q.To) || event.End.Before(q.From) {
			continue
		}
		events = append(events, event)
	}
	return sortedEvents(events), nil
}

func (r eventRepository) Create(_ context.Context, event domain.PersistedEvent) error {
	if event.End.Before(event.Start) {
		return errEndBeforeStart
	}
	if _, exists := r.state.events[event.ID]; exists {
		return repository.ErrDuplicate
	}
	r.state.events[event.ID] = event
	return nil
}

func (r eventRepository) UpdateFreeform(_ context.Context, event domain.PersistedEvent) (domain.PersistedEvent, error) {
	current, ok := r.ownedFreeform(event.UserID, event.ID)
	if !ok {
		return domain.PersistedEvent{}, repository.ErrNotFound
	}
	if event.End.Before(event.Start) {
		return domain.PersistedEvent{}, errEndBeforeStart
	}

	current.Title = event.Title
	current.Start = event.Start
	current.End = event.End
	r.state.events[current.ID] = current
	return current, nil
}

func (r eventRepository) DeleteFreeform(_ context.Context, userID, eventID uuid.UUID) error {
	if _, ok := r.ownedFreeform(userID, eventID); !ok {
		return repository.ErrNotFound
	}
	delete(r.state.events, eventID)
	return nil
}

func (r eventRepository) ownedFreeform(userID, eventID uuid.UUID) (domain.PersistedEvent, bool) {
	event, ok := r.state.events[eventID]
	if !ok || event.UserID != userID || !event.IsFreeform() {
		return domain.PersistedEvent{}, false
	}
	return event, true
}
