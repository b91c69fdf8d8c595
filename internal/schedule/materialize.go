package schedule

import (
	"github.com/google/uuid"

	"service-schedule/internal/domain"
)

var materializedNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("service-schedule/materialized-events"))

// MaterializedID is the row id a user's copy of an occurrence is stored under.
// It is a pure function of user and occurrence so re-materializing a window
// collides with the rows already written instead of duplicating them.
func MaterializedID(userID uuid.UUID, syntheticID string) uuid.UUID {
	return uuid.NewSHA1(materializedNamespace, []byte(userID.String()+"/"+syntheticID))
}

func Materialize(userID uuid.UUID, occurrence domain.ProjectedOccurrence) domain.PersistedEvent {
	courseID := occurrence.CourseID
	return domain.PersistedEvent{
		ID:          MaterializedID(userID, occurrence.SyntheticID),
		UserID:      userID,
		CourseID:    &courseID,
		InstanceKey: occurrence.SyntheticID,
		Title:       occurrence.Title,
		Start:       occurrence.Start,
		End:         occurrence.End,
	}
}
