package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billify.site/pkg/billify/apperror"
	"billify.site/pkg/billify/testutil"
)

func newProductionLogger(buf *bytes.Buffer, level Level) Logger {
	return New(Config{Environment: EnvProduction, Level: level, Stdout: buf, DisableFile: true})
}

func decodeLines(t *testing.T, out string) []map[string]any {
	t.Helper()

	var records []map[string]any

	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}

		var record map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &record), line)

		records = append(records, record)
	}

	return records
}

func TestLogger_JSONRecord(t *testing.T) {
	var buf bytes.Buffer

	l := newProductionLogger(&buf, DEBUG)
	l.WithFields(Fields{"service": "auth"}).Info("user registered", Fields{"userId": "u-1"})

	records := decodeLines(t, buf.String())
	require.Len(t, records, 1)

	assert.Equal(t, "INFO", records[0]["level"])
	assert.Equal(t, "user registered", records[0]["message"])
	assert.Equal(t, "auth", records[0]["service"])
	assert.Equal(t, "u-1", records[0]["userId"])
	assert.NotEmpty(t, records[0]["time"])
}

func TestLogger_Formatting(t *testing.T) {
	var buf bytes.Buffer

	l := newProductionLogger(&buf, DEBUG)
	l.Logf("%d users", 3)
	l.Debug("a", "b")

	records := decodeLines(t, buf.String())
	require.Len(t, records, 2)

	assert.Equal(t, "3 users", records[0]["message"])
	assert.Equal(t, []any{"a", "b"}, records[1]["message"])
	assert.Equal(t, "DEBUG", records[1]["level"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	l := newProductionLogger(&buf, WARN)
	child := l.WithFields(Fields{"k": "v"})

	l.Info("dropped")
	l.Warn("kept")

	l.ChangeLevel(ERROR)
	child.Warn("dropped too")
	child.Error("kept too")

	records := decodeLines(t, buf.String())
	require.Len(t, records, 2)

	assert.Equal(t, "kept", records[0]["message"])
	assert.Equal(t, "kept too", records[1]["message"])
}

func TestLogger_ErrorMessageBecomesField(t *testing.T) {
	var buf bytes.Buffer

	l := newProductionLogger(&buf, DEBUG)
	l.Error(errors.New("disk full"))

	records := decodeLines(t, buf.String())
	require.Len(t, records, 1)

	assert.Equal(t, "disk full", records[0]["message"])

	errField, ok := records[0]["err"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", errField["errorCode"])
}

func TestLogger_ProductionErrorSerialization(t *testing.T) {
	var buf bytes.Buffer

	l := newProductionLogger(&buf, DEBUG)

	l.Warn("client failure", Fields{"err": apperror.NewNotFound("no such user", map[string]any{"id": "7"},
		apperror.WithCause(errors.New("no documents")))})
	l.Error("server failure", Fields{"err": apperror.NewServiceUnavailable("db offline", nil,
		apperror.WithCause(errors.New("dial tcp")))})

	records := decodeLines(t, buf.String())
	require.Len(t, records, 2)

	clientErr := records[0]["err"].(map[string]any)
	assert.Equal(t, "NotFoundError", clientErr["type"])
	assert.Equal(t, map[string]any{"id": "7"}, clientErr["details"])
	assert.NotContains(t, clientErr, "stack")
	assert.NotContains(t, clientErr, "cause")

	serverErr := records[1]["err"].(map[string]any)
	assert.Contains(t, serverErr, "stack")
	assert.Contains(t, serverErr, "cause")
}

func TestLogger_ProductionRedaction(t *testing.T) {
	var buf bytes.Buffer

	l := newProductionLogger(&buf, DEBUG)
	l.Info("request", Fields{
		"req": map[string]any{
			"body":    map[string]any{"password": "secret123", "email": "a@b.c"},
			"headers": map[string][]string{"Authorization": {"Bearer abc"}, "Accept": {"*/*"}},
		},
		"items": []any{map[string]any{"apiKey": "k-1"}},
	})

	out := buf.String()
	assert.NotContains(t, out, "secret123")
	assert.NotContains(t, out, "Bearer abc")
	assert.NotContains(t, out, "k-1")

	record := decodeLines(t, out)[0]
	req := record["req"].(map[string]any)

	assert.Equal(t, Redacted, req["body"].(map[string]any)["password"])
	assert.Equal(t, "a@b.c", req["body"].(map[string]any)["email"])
	assert.Equal(t, Redacted, req["headers"].(map[string]any)["Authorization"])
	assert.Equal(t, []any{"*/*"}, req["headers"].(map[string]any)["Accept"])
}

func TestLogger_DevelopmentKeepsSensitiveValues(t *testing.T) {
	var stdout bytes.Buffer

	l := New(Config{Environment: EnvDevelopment, Level: DEBUG, Stdout: &stdout, Stderr: &stdout, DisableFile: true})
	l.Info("request", Fields{"password": "visible"})

	assert.Contains(t, stdout.String(), "visible")
}

func TestLogger_TestEnvironmentIsSilent(t *testing.T) {
	output := testutil.StdoutOutputForFunc(func() {
		l := New(Config{Environment: EnvTest, Level: DEBUG})
		l.Info("nothing")
		l.Error("still nothing")
	})

	assert.Empty(t, output)
}

func TestLogger_PrettyOutput(t *testing.T) {
	var stdout, stderr bytes.Buffer

	l := New(Config{Environment: EnvDevelopment, Level: DEBUG, Stdout: &stdout, Stderr: &stderr, DisableFile: true})

	l.WithFields(Fields{"requestId": "req-42"}).Notice("→ GET /api/v1/test", Fields{"durationMs": 3})
	l.Error("boom", Fields{"err": apperror.NewInternalServer("boom", nil)})

	out := stdout.String()
	assert.Contains(t, out, "NOTI [")
	assert.Contains(t, out, "req-42 → GET /api/v1/test")
	assert.Contains(t, out, "durationMs: 3")
	assert.NotContains(t, out, "\u001B[")

	errOut := stderr.String()
	assert.Contains(t, errOut, "ERRO [")
	assert.Contains(t, errOut, "InternalServerError: boom")
}

func TestLogger_DefaultStreams(t *testing.T) {
	output := testutil.StdoutOutputForFunc(func() {
		l := New(Config{Environment: EnvProduction, DisableFile: true})
		l.Info("to stdout")
	})

	assert.Contains(t, output, `"message":"to stdout"`)
}

func TestLogger_FileSink(t *testing.T) {
	dir := t.TempDir()

	l := New(Config{Environment: EnvProduction, Directory: dir, Stdout: &bytes.Buffer{}})
	l.Info("persisted", Fields{"token": "abc"})

	require.NoError(t, Close(l))

	content, err := os.ReadFile(filepath.Join(dir, "production.log"))
	require.NoError(t, err)

	records := decodeLines(t, string(content))
	require.Len(t, records, 1)

	assert.Equal(t, "persisted", records[0]["message"])
	assert.Equal(t, Redacted, records[0]["token"])

	// writes after close are dropped
	l.Info("lost")
	assert.NoError(t, Close(l))
}

func TestUntilMidnight(t *testing.T) {
	now := time.Date(2024, 3, 10, 22, 30, 0, 0, time.UTC)

	assert.Equal(t, 90*time.Minute, untilMidnight(now))
}

func TestGetLogLevelForError(t *testing.T) {
	tests := []struct {
		desc  string
		err   error
		level Level
	}{
		{"client error", apperror.NewBadRequest("bad", nil), WARN},
		{"server error", apperror.NewBadGateway("upstream", nil), ERROR},
		{"plain error", errors.New("x"), ERROR},
		{"responder", levelErr{}, NOTICE},
	}

	for i, tc := range tests {
		assert.Equal(t, tc.level, GetLogLevelForError(tc.err), "TEST[%d], Failed.\n%s", i, tc.desc)
	}
}

type levelErr struct{}

func (levelErr) Error() string   { return "custom" }
func (levelErr) LogLevel() Level { return NOTICE }

func TestLevelForStatus(t *testing.T) {
	assert.Equal(t, INFO, LevelForStatus(200))
	assert.Equal(t, WARN, LevelForStatus(404))
	assert.Equal(t, ERROR, LevelForStatus(503))
}

func TestLevelForFailure(t *testing.T) {
	tests := []struct {
		desc    string
		failure any
		want    Level
	}{
		{"not found", apperror.NewNotFound("widget missing", nil), WARN},
		{"too many requests", apperror.NewTooManyRequests("slow down", nil), WARN},
		{"bad gateway", apperror.NewBadGateway("upstream", nil), ERROR},
		{"plain error", errors.New("boom"), ERROR},
		{"panic value", apperror.Recovered("boom"), ERROR},
	}

	for i, tc := range tests {
		assert.Equal(t, tc.want, LevelForFailure(apperror.Normalize(tc.failure)), "TEST[%d], Failed.\n%s", i, tc.desc)
	}
}

func TestLogPanic(t *testing.T) {
	m := NewMockLogger(DEBUG)

	func() {
		defer func() {
			LogPanic(recover(), m)
		}()

		panic("worker crashed")
	}()

	entries := m.Entries()
	require.Len(t, entries, 1)

	assert.Equal(t, ERROR, entries[0].Level)
	assert.IsType(t, &apperror.Panic{}, entries[0].Fields["err"])

	LogPanic(nil, m)
	assert.Len(t, m.Entries(), 1)
}
