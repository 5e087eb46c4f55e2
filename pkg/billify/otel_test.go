package billify

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"billify.site/pkg/billify/logging"
)

type mapConfig map[string]string

func (m mapConfig) Get(key string) string { return m[key] }

func (m mapConfig) GetOrDefault(key, def string) string {
	if v, ok := m[key]; ok {
		return v
	}

	return def
}

func TestInitTracer(t *testing.T) {
	tests := []struct {
		desc    string
		conf    mapConfig
		message string
	}{
		{"tracing disabled", mapConfig{}, "tracing is disabled, as TRACER_URL is not provided"},
		{"zipkin exporter", mapConfig{"TRACER_URL": "http://localhost:9411/api/v2/spans"},
			"exporting traces to zipkin at http://localhost:9411/api/v2/spans"},
		{"invalid ratio", mapConfig{"TRACER_RATIO": "half"}, "invalid TRACER_RATIO"},
	}

	for i, tc := range tests {
		logger := logging.NewMockLogger(logging.DEBUG)

		tp := initTracer(tc.conf, logger)

		require.NotNil(t, tp, "TEST[%d], Failed.\n%s", i, tc.desc)
		assert.Equal(t, tp, otel.GetTracerProvider(), "TEST[%d], Failed.\n%s", i, tc.desc)

		var messages []string
		for _, e := range logger.Entries() {
			messages = append(messages, e.Message)
		}

		assert.Contains(t, strings.Join(messages, "\n"), tc.message, "TEST[%d], Failed.\n%s", i, tc.desc)
		assert.NoError(t, shutdownTracer(context.Background(), tp), "TEST[%d], Failed.\n%s", i, tc.desc)
	}
}
