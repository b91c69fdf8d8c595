package domain

import (
	"time"

	"github.com/google/uuid"
)

// PersistedEvent is a row of the event store. CourseID is nil for freeform
// events a user created; materialized course occurrences carry the course
// and the synthetic id of the occurrence they were derived from.
type PersistedEvent struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	CourseID    *int64
	InstanceKey string
	Title       string
	Start       time.Time
	End         time.Time
}

func (e PersistedEvent) IsFreeform() bool {
	return e.CourseID == nil
}

// ProjectedOccurrence is one meeting of a course derived from its weekly
// pattern. It is never stored as is.
type ProjectedOccurrence struct {
	SyntheticID string
	Title       string
	Start       time.Time
	End         time.Time
	CourseID    int64
}

type MergedEvent struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	IsCourseEvent bool      `json:"is_course_event"`
	CourseID      *int64    `json:"course_id,omitempty"`
}
