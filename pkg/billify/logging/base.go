package logging

import "sync"

//nolint:gochecknoglobals // process-wide base logger
var (
	baseMu sync.RWMutex
	base   Logger
)

// Init installs the process-wide base logger, closing the previous one.
func Init(cfg Config) Logger {
	l := New(cfg)

	baseMu.Lock()
	old := base
	base = l
	baseMu.Unlock()

	if old != nil {
		_ = Close(old)
	}

	return l
}

// Base returns the process-wide logger. Before Init it is a development console logger
// without a file sink.
func Base() Logger {
	baseMu.RLock()
	l := base
	baseMu.RUnlock()

	if l != nil {
		return l
	}

	baseMu.Lock()
	defer baseMu.Unlock()

	if base == nil {
		base = New(Config{Environment: EnvDevelopment, DisableFile: true})
	}

	return base
}

// Shutdown closes the sinks of the base logger. A later Base call creates a fresh one.
func Shutdown() error {
	baseMu.Lock()
	l := base
	base = nil
	baseMu.Unlock()

	if l == nil {
		return nil
	}

	return Close(l)
}
