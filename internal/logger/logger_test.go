package logger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFunctions(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { InitLogging("") })

	InfoLog(context.Background(), "exported %d rows", 12)
	ErrorLog(context.Background(), "failed: %s", "boom")

	out := buf.String()
	assert.Contains(t, out, `"level":"info"`)
	assert.Contains(t, out, "exported 12 rows")
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, "failed: boom")
}

func TestContextLogger(t *testing.T) {
	var global, scoped bytes.Buffer
	SetOutput(&global)
	t.Cleanup(func() { InitLogging("") })

	ctx := WithContext(context.Background(), zerolog.New(&scoped).With().Str("report", "datasets").Logger())
	InfoLog(ctx, "scoped")

	assert.Empty(t, global.String())
	assert.Contains(t, scoped.String(), `"report":"datasets"`)
}

func TestInitLoggingToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	InitLogging(path)
	t.Cleanup(func() { InitLogging("") })

	InfoLog(context.Background(), "to file")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.DebugLevel) })

	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { InitLogging("") })

	SetLevel("warn")
	InfoLog(context.Background(), "hidden")
	WarnLog(context.Background(), "shown")
	SetLevel("nonsense")
	DebugLog(context.Background(), "still hidden")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
