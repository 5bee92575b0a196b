package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestNewLoggerFansOut(t *testing.T) {
	var console, file bytes.Buffer
	logger := NewLogger(&console, &file, "info")

	logger.Debug("hidden")
	logger.Info("Annotation added", "kind", "line")

	for _, out := range []string{console.String(), file.String()} {
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "Annotation added")
		assert.Contains(t, out, "kind=line")
		assert.Regexp(t, `time=\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z`, out)
	}
}

func TestMultiHandlerWithAttrsAndGroup(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(slog.NewTextHandler(&a, nil), nil, slog.NewTextHandler(&b, nil))
	logger := slog.New(h).With("session", 7).WithGroup("export")

	logger.Info("done", "format", "png")

	for _, out := range []string{a.String(), b.String()} {
		assert.Contains(t, out, "session=7")
		assert.Contains(t, out, "export.format=png")
	}
}

func TestSetupWritesLogFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "dentalceph.log")
	logger, closer, err := Setup("debug", path)
	require.NoError(t, err)
	logger.Debug("Image loaded", "width", 640)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.Contains(out, "Logging initialized"))
	assert.Contains(t, out, "width=640")
}

func TestSetupBadLogFile(t *testing.T) {
	_, _, err := Setup("info", filepath.Join(t.TempDir(), "missing", "x.log"))
	assert.Error(t, err)
}
