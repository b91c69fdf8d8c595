package domain

import (
	"time"

	"github.com/google/uuid"
)

type Enrollment struct {
	StudentID uuid.UUID
	CourseID  int64
	CreatedAt time.Time
}
