package logger

import (
	"github.com/rollbar/rollbar-go"
	rollbarerrors "github.com/rollbar/rollbar-go/errors"
)

type RollbarReporter struct{}

var _ Reporter = RollbarReporter{}

func NewRollbarReporter(token, environment, serverHost string) RollbarReporter {
	rollbar.SetToken(token)
	rollbar.SetEnvironment(environment)
	rollbar.SetServerHost(serverHost)
	rollbar.SetStackTracer(rollbarerrors.StackTracer)
	return RollbarReporter{}
}

func (RollbarReporter) Report(level Level, msg string, err error, fields map[string]any) {
	extras := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		extras[k] = v
	}
	extras["message"] = msg

	args := []interface{}{msg, extras}
	if err != nil {
		args = []interface{}{err, extras}
	}

	if level >= LevelError {
		rollbar.Error(args...)
		return
	}
	rollbar.Warning(args...)
}

// Flush blocks until queued reports are sent.
func (RollbarReporter) Flush() {
	rollbar.Wait()
}
