package app

import (
	"context"
	"net/http"
	"time"

	transport "service-schedule/internal/http"
	"service-schedule/internal/http/handlers"
	"service-schedule/internal/logger"
	"service-schedule/internal/repository"
	"service-schedule/internal/schedule"
	"service-schedule/internal/service"
)

type Options struct {
	Timezone        *time.Location
	MaterializeCron string
}

type App struct {
	handler     http.Handler
	enrollments *service.EnrollmentService
	options     Options
	log         *logger.Logger
}

func New(txManager repository.TxManager, identity service.IdentityClient, options Options, log *logger.Logger) *App {
	projector := schedule.NewProjector(log)
	enrollmentService := service.NewEnrollmentService(txManager, identity, projector, options.Timezone, log)
	scheduleService := service.NewScheduleService(txManager, projector, options.Timezone, log)
	eventService := service.NewEventService(txManager, log)

	router := transport.NewRouter(
		handlers.NewScheduleHandler(scheduleService, log),
		handlers.NewEnrollmentHandler(enrollmentService, log),
		handlers.NewEventHandler(eventService, log),
		handlers.NewAdminHandler(enrollmentService, log),
	)

	return &App{
		handler:     router.Handler(),
		enrollments: enrollmentService,
		options:     options,
		log:         log,
	}
}

func (a *App) Handler() http.Handler {
	return a.handler
}

// Rematerialize rolls every enrollment's materialized window forward.
func (a *App) Rematerialize(ctx context.Context) error {
	_, err := a.enrollments.RematerializeAll(ctx)
	return err
}
