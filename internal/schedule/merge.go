package schedule

import (
	"cmp"
	"slices"

	"service-schedule/internal/domain"
)

// Merge combines freeform rows and projected course meetings into one stream
// sorted by start, then id. When two entries share an id the first one wins,
// freeform rows before projections.
func Merge(freeform []domain.PersistedEvent, projected []domain.ProjectedOccurrence) []domain.MergedEvent {
	merged := make([]domain.MergedEvent, 0, len(freeform)+len(projected))
	seen := make(map[string]struct{}, len(freeform)+len(projected))

	add := func(event domain.MergedEvent) {
		if _, ok := seen[event.ID]; ok {
			return
		}
		seen[event.ID] = struct{}{}
		merged = append(merged, event)
	}

	for _, event := range freeform {
		add(fromPersisted(event))
	}
	for _, occurrence := range projected {
		add(fromProjected(occurrence))
	}

	slices.SortStableFunc(merged, func(a, b domain.MergedEvent) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return merged
}

func fromPersisted(event domain.PersistedEvent) domain.MergedEvent {
	return domain.MergedEvent{
		ID:            event.ID.String(),
		Title:         event.Title,
		Start:         event.Start,
		End:           event.End,
		IsCourseEvent: event.CourseID != nil,
		CourseID:      event.CourseID,
	}
}

func fromProjected(occurrence domain.ProjectedOccurrence) domain.MergedEvent {
	courseID := occurrence.CourseID
	return domain.MergedEvent{
		ID:            occurrence.SyntheticID,
		Title:         occurrence.Title,
		Start:         occurrence.Start,
		End:           occurrence.End,
		IsCourseEvent: true,
		CourseID:      &courseID,
	}
}
