package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captured(t *testing.T, l *Logger) (*Logger, func() map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	out := &Logger{l.Output(&buf)}

	return out, func() map[string]any {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		return entry
	}
}

func TestNewLogger_Fields(t *testing.T) {
	l, entry := captured(t, NewLogger("dev-server"))

	l.Info().Msg("hello")

	e := entry()
	assert.Equal(t, "dev-server", e["role"])
	assert.Contains(t, e, "time")
	assert.Contains(t, e["func"], "logger.TestNewLogger_Fields")
	assert.Equal(t, "func", zerolog.CallerFieldName)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestNewClientLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")

	l := NewClientLogger("repcue-client", path)
	l.Info().Str("table", "workouts").Msg("harvested")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var e map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &e))
	assert.Equal(t, "repcue-client", e["role"])
	assert.Equal(t, "workouts", e["table"])
}

func TestNewClientLogger_EmptyPath(t *testing.T) {
	l, entry := captured(t, NewClientLogger("repcue-client", ""))
	l.Warn().Msg("stdout")
	assert.Equal(t, "warn", entry()["level"])
}

func TestLogger_WithDevice(t *testing.T) {
	l, entry := captured(t, NewLogger("client"))

	child := l.WithDevice("dev-1")
	child.Info().Msg("synced")

	e := entry()
	assert.Equal(t, "dev-1", e["device_id"])
	assert.Equal(t, "client", e["role"])
}

func TestNop_DiscardsOutput(t *testing.T) {
	var buf bytes.Buffer
	l := Nop()
	l.Logger = l.Output(&buf)

	l.Info().Msg("should be discarded")

	assert.Empty(t, buf.String())
}

func TestGetChildLogger(t *testing.T) {
	parent, entry := captured(t, NewLogger("inherited-role"))

	child := parent.GetChildLogger()
	assert.NotSame(t, parent, child)

	child.Info().Msg("child message")
	assert.Equal(t, "inherited-role", entry()["role"])
}

func TestFromContext(t *testing.T) {
	// без логгера в контексте возвращается логгер по умолчанию
	require.NotNil(t, FromContext(context.Background()))

	var buf bytes.Buffer
	zl := zerolog.New(&buf).With().Str("trace_id", "t-1").Logger()

	FromContext(zl.WithContext(context.Background())).Info().Msg("from context")

	var e map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &e))
	assert.Equal(t, "t-1", e["trace_id"])
}

func TestFromRequest(t *testing.T) {
	require.NotNil(t, FromRequest(httptest.NewRequest(http.MethodGet, "/", nil)))

	var buf bytes.Buffer
	zl := zerolog.New(&buf).With().Str("trace_id", "t-2").Logger()
	req := httptest.NewRequest(http.MethodPost, "/functions/v1/sync", nil)
	req = req.WithContext(zl.WithContext(req.Context()))

	FromRequest(req).Info().Msg("from request")

	var e map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &e))
	assert.Equal(t, "t-2", e["trace_id"])
}
