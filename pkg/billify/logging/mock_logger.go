package logging

import (
	"fmt"
	"sync"
)

// MockEntry is a record captured by MockLogger.
type MockEntry struct {
	Level   Level
	Message string
	Fields  Fields
}

type mockRecorder struct {
	mu      sync.Mutex
	level   Level
	entries []MockEntry
}

// MockLogger records log calls in memory. Loggers derived through WithFields record into
// the same buffer.
type MockLogger struct {
	rec    *mockRecorder
	fields Fields
}

func NewMockLogger(level Level) *MockLogger {
	return &MockLogger{rec: &mockRecorder{level: level}}
}

// Entries returns a copy of everything recorded so far.
func (m *MockLogger) Entries() []MockEntry {
	m.rec.mu.Lock()
	defer m.rec.mu.Unlock()

	out := make([]MockEntry, len(m.rec.entries))
	copy(out, m.rec.entries)

	return out
}

func (m *MockLogger) logf(level Level, format string, args ...any) {
	m.rec.mu.Lock()
	defer m.rec.mu.Unlock()

	if level < m.rec.level {
		return
	}

	fields := make(Fields, len(m.fields))

	for k, v := range m.fields {
		fields[k] = v
	}

	filtered := make([]any, 0, len(args))

	for _, arg := range args {
		if f, ok := arg.(Fields); ok {
			for k, v := range f {
				fields[k] = v
			}

			continue
		}

		filtered = append(filtered, arg)
	}

	var message string

	switch {
	case format != "":
		message = fmt.Sprintf(format, filtered...)
	case len(filtered) == 1:
		message = fmt.Sprint(filtered[0])
	default:
		message = fmt.Sprint(filtered...)
	}

	m.rec.entries = append(m.rec.entries, MockEntry{Level: level, Message: message, Fields: fields})
}

func (m *MockLogger) Debug(args ...any)                  { m.logf(DEBUG, "", args...) }
func (m *MockLogger) Debugf(format string, args ...any)  { m.logf(DEBUG, format, args...) }
func (m *MockLogger) Log(args ...any)                    { m.logf(INFO, "", args...) }
func (m *MockLogger) Logf(format string, args ...any)    { m.logf(INFO, format, args...) }
func (m *MockLogger) Info(args ...any)                   { m.logf(INFO, "", args...) }
func (m *MockLogger) Infof(format string, args ...any)   { m.logf(INFO, format, args...) }
func (m *MockLogger) Notice(args ...any)                 { m.logf(NOTICE, "", args...) }
func (m *MockLogger) Noticef(format string, args ...any) { m.logf(NOTICE, format, args...) }
func (m *MockLogger) Warn(args ...any)                   { m.logf(WARN, "", args...) }
func (m *MockLogger) Warnf(format string, args ...any)   { m.logf(WARN, format, args...) }
func (m *MockLogger) Error(args ...any)                  { m.logf(ERROR, "", args...) }
func (m *MockLogger) Errorf(format string, args ...any)  { m.logf(ERROR, format, args...) }
func (m *MockLogger) Fatal(args ...any)                  { m.logf(FATAL, "", args...) }
func (m *MockLogger) Fatalf(format string, args ...any)  { m.logf(FATAL, format, args...) }

func (m *MockLogger) ChangeLevel(level Level) {
	m.rec.mu.Lock()
	m.rec.level = level
	m.rec.mu.Unlock()
}

func (m *MockLogger) WithFields(fields Fields) Logger {
	merged := make(Fields, len(m.fields)+len(fields))

	for k, v := range m.fields {
		merged[k] = v
	}

	for k, v := range fields {
		merged[k] = v
	}

	return &MockLogger{rec: m.rec, fields: merged}
}
