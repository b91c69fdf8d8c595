package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"service-schedule/internal/domain"
)

type CourseRepository interface {
	GetByID(ctx context.Context, id int64) (domain.Course, error)
	ListAll(ctx context.Context) ([]domain.Course, error)
}

const courseColumns = `
	c.id,
	c.course_code,
	c.course_name,
	c.instructor,
	c.class_start_time::text AS class_start_time,
	c.class_end_time::text AS class_end_time,
	c.meets_sunday,
	c.meets_monday,
	c.meets_tuesday,
	c.meets_wednesday,
	c.meets_thursday,
	c.meets_friday,
	c.meets_saturday`

// courseRow is the flat catalog row; toDomain is the only place it turns
// into a domain.Course.
type courseRow struct {
	ID             int64          `db:"id"`
	Code           string         `db:"course_code"`
	Title          string         `db:"course_name"`
	Instructor     sql.NullString `db:"instructor"`
	ClassStart     sql.NullString `db:"class_start_time"`
	ClassEnd       sql.NullString `db:"class_end_time"`
	MeetsSunday    bool           `db:"meets_sunday"`
	MeetsMonday    bool           `db:"meets_monday"`
	MeetsTuesday   bool           `db:"meets_tuesday"`
	MeetsWednesday bool           `db:"meets_wednesday"`
	MeetsThursday  bool           `db:"meets_thursday"`
	MeetsFriday    bool           `db:"meets_friday"`
	MeetsSaturday  bool           `db:"meets_saturday"`
}

func (r courseRow) toDomain() domain.Course {
	course := domain.Course{
		ID:         r.ID,
		Code:       r.Code,
		Title:      r.Title,
		Instructor: r.Instructor.String,
		WeekMask: domain.WeekMask{
			r.MeetsSunday,
			r.MeetsMonday,
			r.MeetsTuesday,
			r.MeetsWednesday,
			r.MeetsThursday,
			r.MeetsFriday,
			r.MeetsSaturday,
		},
	}
	if r.ClassStart.Valid {
		start := r.ClassStart.String
		course.ClassStart = &start
	}
	if r.ClassEnd.Valid {
		end := r.ClassEnd.String
		course.ClassEnd = &end
	}
	return course
}

func toCourses(rows []courseRow) []domain.Course {
	courses := make([]domain.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.toDomain())
	}
	return courses
}

type CoursePostgresRepository struct {
	execer Execer
}

func NewCoursePostgresRepository(execer Execer) *CoursePostgresRepository {
	return &CoursePostgresRepository{execer: execer}
}

func (r *CoursePostgresRepository) GetByID(ctx context.Context, id int64) (domain.Course, error) {
	query := `SELECT` + courseColumns + `
FROM schedule.courses c
WHERE c.id = $1
`

	var row courseRow
	if err := sqlx.GetContext(ctx, r.execer, &row, query, id); err != nil {
		if isNoRows(err) {
			return domain.Course{}, ErrNotFound
		}
		return domain.Course{}, errors.Wrapf(err, "get course %d", id)
	}
	return row.toDomain(), nil
}

func (r *CoursePostgresRepository) ListAll(ctx context.Context) ([]domain.Course, error) {
	query := `SELECT` + courseColumns + `
FROM schedule.courses c
ORDER BY c.course_code ASC, c.id ASC
`

	var rows []courseRow
	if err := sqlx.SelectContext(ctx, r.execer, &rows, query); err != nil {
		return nil, errors.Wrap(err, "list courses")
	}
	return toCourses(rows), nil
}
