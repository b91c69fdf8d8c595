package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"service-schedule/internal/domain"
)

type EnrollmentRepository interface {
	// Insert returns ErrDuplicate when the student is already enrolled.
	Insert(ctx context.Context, enrollment domain.Enrollment) error
	// Delete returns ErrNotFound when no enrollment matched.
	Delete(ctx context.Context, studentID uuid.UUID, courseID int64) error
	ListCourses(ctx context.Context, studentID uuid.UUID) ([]domain.Course, error)
	ListAll(ctx context.Context) ([]domain.Enrollment, error)
}

type enrollmentRow struct {
	StudentID uuid.UUID `db:"student_id"`
	CourseID  int64     `db:"course_id"`
	CreatedAt time.Time `db:"created_at"`
}

type EnrollmentPostgresRepository struct {
	execer Execer
}

func NewEnrollmentPostgresRepository(execer Execer) *EnrollmentPostgresRepository {
	return &EnrollmentPostgresRepository{execer: execer}
}

func (r *EnrollmentPostgresRepository) Insert(ctx context.Context, enrollment domain.Enrollment) error {
	const query = `
INSERT INTO schedule.student_courses (student_id, course_id, created_at)
VALUES ($1, $2, $3)
`

	_, err := r.execer.ExecContext(ctx, query, enrollment.StudentID, enrollment.CourseID, enrollment.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return errors.Wrap(err, "insert enrollment")
	}
	return nil
}

func (r *EnrollmentPostgresRepository) Delete(ctx context.Context, studentID uuid.UUID, courseID int64) error {
	const query = `
DELETE FROM schedule.student_courses
WHERE student_id = $1 AND course_id = $2
`

	result, err := r.execer.ExecContext(ctx, query, studentID, courseID)
	if err != nil {
		return errors.Wrap(err, "delete enrollment")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete enrollment")
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *EnrollmentPostgresRepository) ListCourses(ctx context.Context, studentID uuid.UUID) ([]domain.Course, error) {
	query := `SELECT` + courseColumns + `
FROM schedule.student_courses sc
JOIN schedule.courses c ON c.id = sc.course_id
WHERE sc.student_id = $1
ORDER BY c.course_code ASC, c.id ASC
`

	var rows []courseRow
	if err := sqlx.SelectContext(ctx, r.execer, &rows, query, studentID); err != nil {
		return nil, errors.Wrap(err, "list enrolled courses")
	}
	return toCourses(rows), nil
}

func (r *EnrollmentPostgresRepository) ListAll(ctx context.Context) ([]domain.Enrollment, error) {
	const query = `
SELECT student_id, course_id, created_at
FROM schedule.student_courses
ORDER BY student_id, course_id
`

	var rows []enrollmentRow
	if err := sqlx.SelectContext(ctx, r.execer, &rows, query); err != nil {
		return nil, errors.Wrap(err, "list enrollments")
	}

	enrollments := make([]domain.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrollments = append(enrollments, domain.Enrollment{
			StudentID: row.StudentID,
			CourseID:  row.CourseID,
			CreatedAt: row.CreatedAt,
		})
	}
	return enrollments, nil
}
