package logging

import (
	"io"
	"os"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	defaultDirectory  = "logs"
	defaultMaxBackups = 14
	defaultMaxAgeDays = 14
	defaultMaxSizeMB  = 50
)

// Config selects the sinks and policies of a logger.
//
// development: pretty console (colored on a TTY) and a rolling JSON file.
// production: JSON on stdout and a rolling JSON file, with sensitive keys redacted.
// test: no output at all.
type Config struct {
	Environment string
	Level       Level
	Directory   string
	MaxSizeMB   int
	MaxBackups  int
	MaxAgeDays  int
	DisableFile bool

	// Stdout and Stderr default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// New creates a logger for cfg. Loggers derived from it through WithFields share its
// sinks.
func New(cfg Config) Logger {
	return newLogger(cfg)
}

func newLogger(cfg Config) *logger {
	cfg = withDefaults(cfg)

	c := &core{serializer: DevErrorSerializer}
	c.level.Store(int32(cfg.Level))

	switch cfg.Environment {
	case EnvTest:
		return &logger{core: c}
	case EnvProduction:
		c.serializer = ProdErrorSerializer
		c.redact = true
		c.sinks = append(c.sinks, newConsoleSink(cfg.Stdout, cfg.Stdout, false))
	default:
		c.sinks = append(c.sinks, newConsoleSink(cfg.Stdout, cfg.Stderr, true))
	}

	if !cfg.DisableFile {
		c.sinks = append(c.sinks,
			newFileSink(cfg.Directory, cfg.Environment, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays))
	}

	return &logger{core: c}
}

func withDefaults(cfg Config) Config {
	switch cfg.Environment {
	case EnvProduction, EnvTest:
	default:
		cfg.Environment = EnvDevelopment
	}

	if cfg.Level == 0 {
		cfg.Level = INFO
	}

	if cfg.Directory == "" {
		cfg.Directory = defaultDirectory
	}

	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = defaultMaxSizeMB
	}

	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = defaultMaxBackups
	}

	if cfg.MaxAgeDays == 0 {
		cfg.MaxAgeDays = defaultMaxAgeDays
	}

	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}

	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}

	return cfg
}

// Close flushes and closes the sinks of a logger created by New.
func Close(l Logger) error {
	if lg, ok := l.(*logger); ok {
		return lg.core.close()
	}

	return nil
}
