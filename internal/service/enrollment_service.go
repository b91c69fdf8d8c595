package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"service-schedule/internal/domain"
	"service-schedule/internal/logger"
	"service-schedule/internal/repository"
	"service-schedule/internal/schedule"
)

var errNoClassTimes = errors.New("course has no class times")

type EnrollResult struct {
	CourseID     int64
	Scheduled    bool
	Materialized int64
	// Warning holds a *ScheduleIncompleteError when the enrollment stands but
	// its occurrences were not written.
	Warning error
}

type UnenrollResult struct {
	CourseID int64
	Removed  int64
	Warning  error
}

type RematerializeSummary struct {
	Users        int
	Courses      int
	Materialized int64
	Warnings     []error
}

// EnrollmentService owns enrollment changes and keeps each student's
// materialized window of course occurrences in line with them.
type EnrollmentService struct {
	txManager repository.TxManager
	identity  IdentityClient
	projector *schedule.Projector
	loc       *time.Location
	log       *logger.Logger
	clock     func() time.Time
}

func NewEnrollmentService(
	txManager repository.TxManager,
	identity IdentityClient,
	projector *schedule.Projector,
	loc *time.Location,
	log *logger.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		txManager: txManager,
		identity:  identity,
		projector: projector,
		loc:       loc,
		log:       log,
		clock:     time.Now,
	}
}

func (s *EnrollmentService) Enroll(ctx context.Context, userID uuid.UUID, courseID int64) (EnrollResult, error) {
	if userID == uuid.Nil {
		return EnrollResult{}, ErrUnauthorized
	}
	if courseID <= 0 {
		return EnrollResult{}, invalidCourseID()
	}

	var course domain.Course
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		course, err = repos.Courses.GetByID(ctx, courseID)
		if err != nil {
			return err
		}
		return repos.Enrollments.Insert(ctx, domain.Enrollment{
			StudentID: userID,
			CourseID:  courseID,
			CreatedAt: s.clock().UTC(),
		})
	})
	if err != nil {
		return EnrollResult{}, mapRepositoryError(err)
	}

	result := EnrollResult{CourseID: courseID}
	window := s.window()
	result.Materialized, result.Warning = s.materialize(ctx, userID, course, window)
	result.Scheduled = result.Warning == nil && course.HasSchedule()

	s.log.Info("enrolled",
		"user_id", userID,
		"course_id", courseID,
		"materialized", result.Materialized,
		"window_start", window.Start.Format(time.RFC3339),
	)
	return result, nil
}

func (s *EnrollmentService) Unenroll(ctx context.Context, userID uuid.UUID, courseID int64) (UnenrollResult, error) {
	if userID == uuid.Nil {
		return UnenrollResult{}, ErrUnauthorized
	}
	if courseID <= 0 {
		return UnenrollResult{}, invalidCourseID()
	}

	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		return repos.Enrollments.Delete(ctx, userID, courseID)
	})
	if err != nil {
		return UnenrollResult{}, mapRepositoryError(err)
	}

	result := UnenrollResult{CourseID: courseID}
	window := s.window()
	err = s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		result.Removed, err = repos.Events.DeleteMaterialized(ctx, repository.MaterializedFilter{
			UserID:   userID,
			CourseID: courseID,
			From:     window.Start,
			To:       window.End,
		})
		return err
	})
	if err != nil {
		s.log.Warn("remove materialized occurrences", err, "user_id", userID, "course_id", courseID)
		result.Warning = &ScheduleIncompleteError{CourseID: courseID, Err: err}
	}

	s.log.Info("unenrolled", "user_id", userID, "course_id", courseID, "removed", result.Removed)
	return result, nil
}

// RematerializeUser rewrites the current window for every course userID is
// enrolled in. Only admins may trigger it for a user.
func (s *EnrollmentService) RematerializeUser(ctx context.Context, requesterID, userID uuid.UUID) (RematerializeSummary, error) {
	if userID == uuid.Nil {
		return RematerializeSummary{}, NewValidationError("invalid user", FieldError{Field: "user_id", Error: requiredText})
	}

	requester, err := s.identity.GetMe(ctx, requesterID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnauthorized) {
			return RematerializeSummary{}, ErrUnauthorized
		}
		return RematerializeSummary{}, err
	}
	if !requester.HasRole(RoleAdmin) {
		return RematerializeSummary{}, ErrForbidden
	}

	var courses []domain.Course
	err = s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		courses, err = repos.Enrollments.ListCourses(ctx, userID)
		return err
	})
	if err != nil {
		return RematerializeSummary{}, err
	}

	summary := RematerializeSummary{Users: 1}
	window := s.window()
	for _, course := range courses {
		s.collect(ctx, &summary, userID, course, window)
	}

	s.log.Info("rematerialized user",
		"requester_id", requesterID,
		"user_id", userID,
		"courses", summary.Courses,
		"materialized", summary.Materialized,
	)
	return summary, nil
}

// RematerializeAll rolls the materialized window forward for every
// enrollment in the store.
func (s *EnrollmentService) RematerializeAll(ctx context.Context) (RematerializeSummary, error) {
	var (
		enrollments []domain.Enrollment
		catalog     []domain.Course
	)
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		if catalog, err = repos.Courses.ListAll(ctx); err != nil {
			return err
		}
		enrollments, err = repos.Enrollments.ListAll(ctx)
		return err
	})
	if err != nil {
		return RematerializeSummary{}, err
	}

	byID := make(map[int64]domain.Course, len(catalog))
	for _, course := range catalog {
		byID[course.ID] = course
	}

	var summary RematerializeSummary
	users := make(map[uuid.UUID]struct{})
	window := s.window()
	for _, enrollment := range enrollments {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		course, ok := byID[enrollment.CourseID]
		if !ok {
			continue
		}
		users[enrollment.StudentID] = struct{}{}
		s.collect(ctx, &summary, enrollment.StudentID, course, window)
	}
	summary.Users = len(users)

	s.log.Info("rematerialized all",
		"users", summary.Users,
		"courses", summary.Courses,
		"materialized", summary.Materialized,
		"warnings", len(summary.Warnings),
	)
	return summary, nil
}

func (s *EnrollmentService) collect(ctx context.Context, summary *RematerializeSummary, userID uuid.UUID, course domain.Course, window schedule.Window) {
	summary.Courses++
	inserted, warning := s.materialize(ctx, userID, course, window)
	summary.Materialized += inserted
	if warning != nil {
		summary.Warnings = append(summary.Warnings, warning)
	}
}

// materialize writes the user's occurrences of course inside window. Any
// failure comes back as a *ScheduleIncompleteError to be reported, not
// returned.
func (s *EnrollmentService) materialize(ctx context.Context, userID uuid.UUID, course domain.Course, window schedule.Window) (int64, error) {
	if !course.HasSchedule() {
		return 0, &ScheduleIncompleteError{CourseID: course.ID, Err: errNoClassTimes}
	}

	var events []domain.PersistedEvent
	for occurrence := range s.projector.Project(course, window.Start, window.End) {
		events = append(events, schedule.Materialize(userID, occurrence))
	}
	if len(events) == 0 {
		return 0, nil
	}

	var inserted int64
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		inserted, err = repos.Events.InsertBatch(ctx, events)
		return err
	})
	if err != nil {
		s.log.Warn("materialize occurrences", err, "user_id", userID, "course_id", course.ID)
		return 0, &ScheduleIncompleteError{CourseID: course.ID, Err: err}
	}
	return inserted, nil
}

func (s *EnrollmentService) window() schedule.Window {
	return schedule.MaterializationWindow(s.clock().In(s.loc))
}

func invalidCourseID() error {
	return NewValidationError("invalid course", FieldError{Field: "course_id", Error: "course_id must be a positive integer"})
}

func mapRepositoryError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrConflict
	default:
		return err
	}
}
