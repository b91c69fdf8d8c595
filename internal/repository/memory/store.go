// Package memory keeps the repository interfaces in process memory. It backs
// service and handler tests and local runs without Postgres.
package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"service-schedule/internal/domain"
	"service-schedule/internal/repository"
)

type enrollmentKey struct {
	studentID uuid.UUID
	courseID  int64
}

type state struct {
	courses     map[int64]domain.Course
	enrollments map[enrollmentKey]domain.Enrollment
	events      map[uuid.UUID]domain.PersistedEvent
}

func (s state) clone() state {
	return state{
		courses:     maps.Clone(s.courses),
		enrollments: maps.Clone(s.enrollments),
		events:      maps.Clone(s.events),
	}
}

// Store implements repository.TxManager. A transaction holds the store lock
// for its whole duration and is rolled back to a snapshot when fn fails.
type Store struct {
	mu    sync.Mutex
	state state
}

var _ repository.TxManager = (*Store)(nil)

func NewStore() *Store {
	return &Store{state: state{
		courses:     make(map[int64]domain.Course),
		enrollments: make(map[enrollmentKey]domain.Enrollment),
		events:      make(map[uuid.UUID]domain.PersistedEvent),
	}}
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	repos := repository.TxRepositories{
		Courses:     courseRepository{state: &s.state},
		Enrollments: enrollmentRepository{state: &s.state},
		Events:      eventRepository{state: &s.state},
	}

	if err := fn(ctx, repos); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// AddCourse seeds the catalog.
func (s *Store) AddCourse(course domain.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.courses[course.ID] = course
}

// Events returns every stored event ordered by start then id.
func (s *Store) Events() []domain.PersistedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedEvents(slices.Collect(maps.Values(s.state.events)))
}

func (s *Store) Enrollments() []domain.Enrollment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedEnrollments(slices.Collect(maps.Values(s.state.enrollments)))
}

func sortedEvents(events []domain.PersistedEvent) []domain.PersistedEvent {
	slices.SortFunc(events, func(a, b domain.PersistedEvent) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return events
}

func sortedEnrollments(enrollments []domain.Enrollment) []domain.Enrollment {
	slices.SortFunc(enrollments, func(a, b domain.Enrollment) int {
		if c := cmp.Compare(a.StudentID.String(), b.StudentID.String()); c != 0 {
			return c
		}
		return cmp.Compare(a.CourseID, b.CourseID)
	})
	return enrollments
}

func sortedCourses(courses []domain.Course) []domain.Course {
	slices.SortFunc(courses, func(a, b domain.Course) int {
		if c := cmp.Compare(a.Code, b.Code); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return courses
}
