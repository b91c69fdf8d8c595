package logger

import (
	"fmt"
	"io"
	"log"
	"strings"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseLevel maps LOG_LEVEL values onto a Level. Unknown values fall back to info.
func ParseLevel(value string) Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Reporter forwards warn and error entries to an external error tracker.
type Reporter interface {
	Report(level Level, msg string, err error, fields map[string]any)
}

// Logger writes leveled "msg key=value" lines to a standard library logger.
type Logger struct {
	std      *log.Logger
	level    Level
	reporter Reporter
}

func New(std *log.Logger, level Level) *Logger {
	return &Logger{std: std, level: level}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return New(log.New(io.Discard, "", 0), LevelError+1)
}

func (l *Logger) WithReporter(reporter Reporter) *Logger {
	clone := *l
	clone.reporter = reporter
	return &clone
}

func (l *Logger) Enabled(level Level) bool {
	return level >= l.level
}

func (l *Logger) Debug(msg string, kv ...any) {
	l.log(LevelDebug, msg, nil, kv)
}

func (l *Logger) Info(msg string, kv ...any) {
	l.log(LevelInfo, msg, nil, kv)
}

func (l *Logger) Warn(msg string, err error, kv ...any) {
	l.log(LevelWarn, msg, err, kv)
}

func (l *Logger) Error(msg string, err error, kv ...any) {
	l.log(LevelError, msg, err, kv)
}

func (l *Logger) log(level Level, msg string, err error, kv []any) {
	if l == nil {
		return
	}
	if l.Enabled(level) {
		var line strings.Builder
		line.WriteString("[" + level.String() + "] " + msg)
		if err != nil {
			line.WriteString(" err=" + err.Error())
		}
		line.WriteString(formatKVs(kv))
		l.std.Println(line.String())
	}
	if l.reporter != nil && level >= LevelWarn {
		l.reporter.Report(level, msg, err, fields(kv))
	}
}

// formatKVs renders key/value pairs; a trailing key without value is dropped.
func formatKVs(kv []any) string {
	var out strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		out.WriteString(" " + key + "=" + fmt.Sprint(kv[i+1]))
	}
	return out.String()
}

func fields(kv []any) map[string]any {
	out := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			out[key] = kv[i+1]
		}
	}
	return out
}
