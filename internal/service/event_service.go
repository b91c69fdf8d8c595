package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"service-schedule/internal/domain"
	"service-schedule/internal/logger"
	"service-schedule/internal/repository"
)

type NewEvent struct {
	Title string    `json:"title" validate:"required,max=200"`
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required,gtefield=Start"`
}

type UpdateEvent struct {
	Title string    `json:"title" validate:"required,max=200"`
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required,gtefield=Start"`
}

// EventService is the only write path for freeform events. Materialized
// course rows are never reachable through it.
type EventService struct {
	txManager repository.TxManager
	log       *logger.Logger
	newID     func() uuid.UUID
}

func NewEventService(txManager repository.TxManager, log *logger.Logger) *EventService {
	return &EventService{
		txManager: txManager,
		log:       log,
		newID:     uuid.New,
	}
}

func (s *EventService) Create(ctx context.Context, userID uuid.UUID, input NewEvent) (domain.PersistedEvent, error) {
	if userID == uuid.Nil {
		return domain.PersistedEvent{}, ErrUnauthorized
	}
	input.Title = strings.TrimSpace(input.Title)
	if err := validateStruct("invalid event", input); err != nil {
		return domain.PersistedEvent{}, err
	}

	event := domain.PersistedEvent{
		ID:     s.newID(),
		UserID: userID,
		Title:  input.Title,
		Start:  input.Start,
		End:    input.End,
	}

	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		return repos.Events.Create(ctx, event)
	})
	if err != nil {
		return domain.PersistedEvent{}, mapRepositoryError(err)
	}

	s.log.Debug("event created", "user_id", userID, "event_id", event.ID)
	return event, nil
}

func (s *EventService) Update(ctx context.Context, userID, eventID uuid.UUID, input UpdateEvent) (domain.PersistedEvent, error) {
	if userID == uuid.Nil {
		return domain.PersistedEvent{}, ErrUnauthorized
	}
	input.Title = strings.TrimSpace(input.Title)
	if err := validateStruct("invalid event", input); err != nil {
		return domain.PersistedEvent{}, err
	}
	if eventID == uuid.Nil {
		return domain.PersistedEvent{}, ErrNotFound
	}

	var updated domain.PersistedEvent
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		updated, err = repos.Events.UpdateFreeform(ctx, domain.PersistedEvent{
			ID:     eventID,
			UserID: userID,
			Title:  input.Title,
			Start:  input.Start,
			End:    input.End,
		})
		return err
	})
	if err != nil {
		return domain.PersistedEvent{}, mapRepositoryError(err)
	}

	s.log.Debug("event updated", "user_id", userID, "event_id", eventID)
	return updated, nil
}

func (s *EventService) Delete(ctx context.Context, userID, eventID uuid.UUID) error {
	if userID == uuid.Nil {
		return ErrUnauthorized
	}
	if eventID == uuid.Nil {
		return ErrNotFound
	}

	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		return repos.Events.DeleteFreeform(ctx, userID, eventID)
	})
	if err != nil {
		return mapRepositoryError(err)
	}

	s.log.Debug("event deleted", "user_id", userID, "event_id", eventID)
	return nil
}
