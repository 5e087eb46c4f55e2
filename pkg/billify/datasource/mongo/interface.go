package mongo

import "context"

type Logger interface {
	Debug(args ...any)
	Logf(format string, args ...any)
}

type Metrics interface {
	RecordHistogram(ctx context.Context, name string, value float64, labels ...string)
	SetGauge(name string, value float64, labels ...string)
}
