// Package logging is the structured logger of billify: leveled records with bound
// fields, written to environment dependent sinks, with per-request child loggers that
// pick up the identifiers of the active request context.
package logging

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"billify.site/pkg/billify/apperror"
)

// Fields are key/value pairs attached to a record. Passed as a log argument they are
// merged into the record instead of becoming part of the message.
type Fields map[string]any

// Logger represents a logging interface.
type Logger interface {
	Debug(args ...any)
	Debugf(format string, args ...any)
	Log(args ...any)
	Logf(format string, args ...any)
	Info(args ...any)
	Infof(format string, args ...any)
	Notice(args ...any)
	Noticef(format string, args ...any)
	Warn(args ...any)
	Warnf(format string, args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	ChangeLevel(level Level)
	WithFields(fields Fields) Logger
}

type entry struct {
	Level   Level
	Time    time.Time
	Message any
	Fields  Fields
}

// core is shared by a logger and every logger derived from it through WithFields.
type core struct {
	level      atomic.Int32
	sinks      []sink
	serializer ErrorSerializer
	redact     bool
}

type logger struct {
	core   *core
	fields Fields
}

func (c *core) enabled(level Level) bool {
	return int32(level) >= c.level.Load()
}

func (c *core) write(e *entry) {
	if len(c.sinks) == 0 {
		return
	}

	for k, v := range e.Fields {
		if isFailure(v) {
			e.Fields[k] = c.serializer(v)
		}
	}

	line, err := encode(e, c.redact)
	if err != nil {
		line, _ = encode(&entry{Level: e.Level, Time: e.Time, Message: fmt.Sprint(e.Message)}, c.redact)
	}

	for _, s := range c.sinks {
		s.write(e, line)
	}
}

func (c *core) close() error {
	var firstErr error

	for _, s := range c.sinks {
		if err := s.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func isFailure(v any) bool {
	switch v.(type) {
	case error, *apperror.Panic:
		return true
	default:
		return false
	}
}

func (l *logger) logf(level Level, format string, args ...any) {
	if !l.core.enabled(level) {
		return
	}

	e := entry{
		Level:  level,
		Time:   time.Now(),
		Fields: make(Fields, len(l.fields)+2),
	}

	for k, v := range l.fields {
		e.Fields[k] = v
	}

	filteredArgs := make([]any, 0, len(args))

	for _, arg := range args {
		if f, ok := arg.(Fields); ok {
			for k, v := range f {
				e.Fields[k] = v
			}

			continue
		}

		filteredArgs = append(filteredArgs, arg)
	}

	switch {
	case len(filteredArgs) == 1 && format == "":
		e.Message = filteredArgs[0]
	case len(filteredArgs) != 1 && format == "":
		e.Message = filteredArgs
	case format != "":
		e.Message = fmt.Sprintf(format, filteredArgs...)
	}

	if err, ok := e.Message.(error); ok {
		if _, exists := e.Fields["err"]; !exists {
			e.Fields["err"] = err
		}

		e.Message = err.Error()
	}

	l.core.write(&e)
}

func (l *logger) Debug(args ...any) {
	l.logf(DEBUG, "", args...)
}

func (l *logger) Debugf(format string, args ...any) {
	l.logf(DEBUG, format, args...)
}

func (l *logger) Info(args ...any) {
	l.logf(INFO, "", args...)
}

func (l *logger) Infof(format string, args ...any) {
	l.logf(INFO, format, args...)
}

func (l *logger) Notice(args ...any) {
	l.logf(NOTICE, "", args...)
}

func (l *logger) Noticef(format string, args ...any) {
	l.logf(NOTICE, format, args...)
}

func (l *logger) Warn(args ...any) {
	l.logf(WARN, "", args...)
}

func (l *logger) Warnf(format string, args ...any) {
	l.logf(WARN, format, args...)
}

func (l *logger) Log(args ...any) {
	l.logf(INFO, "", args...)
}

func (l *logger) Logf(format string, args ...any) {
	l.logf(INFO, format, args...)
}

func (l *logger) Error(args ...any) {
	l.logf(ERROR, "", args...)
}

func (l *logger) Errorf(format string, args ...any) {
	l.logf(ERROR, format, args...)
}

func (l *logger) Fatal(args ...any) {
	l.logf(FATAL, "", args...)

	_ = l.core.close()

	//nolint:revive // exit status is 1 as it denotes failure as signified by Fatal log
	os.Exit(1)
}

func (l *logger) Fatalf(format string, args ...any) {
	l.logf(FATAL, format, args...)

	_ = l.core.close()

	//nolint:revive // exit status is 1 as it denotes failure as signified by Fatal log
	os.Exit(1)
}

// ChangeLevel applies to this logger and to every logger sharing its sinks.
func (l *logger) ChangeLevel(level Level) {
	l.core.level.Store(int32(level))
}

func (l *logger) WithFields(fields Fields) Logger {
	merged := make(Fields, len(l.fields)+len(fields))

	for k, v := range l.fields {
		merged[k] = v
	}

	for k, v := range fields {
		merged[k] = v
	}

	return &logger{core: l.core, fields: merged}
}

// LogLevelResponder is an interface that provides a method to get the log level.
type LogLevelResponder interface {
	LogLevel() Level
}

// GetLogLevelForError returns the log level for the given error.
// If the error implements [LogLevelResponder], its log level is returned. Otherwise
// client errors are logged at WARN and everything else at ERROR.
func GetLogLevelForError(err error) Level {
	if e, ok := err.(LogLevelResponder); ok {
		return e.LogLevel()
	}

	return LevelForFailure(apperror.Normalize(err))
}

// LevelForFailure logs operational client errors at WARN and everything else at ERROR.
func LevelForFailure(info apperror.Info) Level {
	if info.Status == apperror.StatusWarn {
		return WARN
	}

	return ERROR
}

// LevelForStatus picks the level of a completed request from its status code.
func LevelForStatus(statusCode int) Level {
	switch {
	case statusCode >= 500:
		return ERROR
	case statusCode >= 400:
		return WARN
	default:
		return INFO
	}
}
