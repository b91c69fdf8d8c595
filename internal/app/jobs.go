package app

import (
	"context"

	"github.com/robfig/cron/v3"

	"service-schedule/internal/logger"
)

// StartMaterializer runs Rematerialize once right away, then on the
// configured cron spec in the schedule timezone until ctx is done.
func (a *App) StartMaterializer(ctx context.Context) (*cron.Cron, error) {
	cronLog := cronLogger{log: a.log}
	scheduler := cron.New(
		cron.WithLocation(a.options.Timezone),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	job := a.materializeJob(ctx)
	if _, err := scheduler.AddFunc(a.options.MaterializeCron, job); err != nil {
		return nil, err
	}

	go job()
	scheduler.Start()

	go func() {
		<-ctx.Done()
		<-scheduler.Stop().Done()
	}()

	return scheduler, nil
}

func (a *App) materializeJob(ctx context.Context) func() {
	return func() {
		if ctx.Err() != nil {
			return
		}
		if err := a.Rematerialize(ctx); err != nil {
			a.log.Error("rematerialize tick", err)
		}
	}
}

// cronLogger adapts the service logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

var _ cron.Logger = cronLogger{}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, err, keysAndValues...)
}
