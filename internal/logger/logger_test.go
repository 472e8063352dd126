package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"anomalydash/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesAllLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Debug("debug %d", 1)
	l.Info("info %s", "two")
	l.Warning("warn")
	l.Error("error %v", 4)

	out := buf.String()
	assert.Contains(t, out, "DEBUG")
	assert.Contains(t, out, "info two")
	assert.Contains(t, out, "WARNING")
	assert.Contains(t, out, "error 4")
}

func TestNewLogger_CreatesLevelFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l := NewLogger(&config.Config{LogDirectory: dir})

	l.Info("hello")
	l.Error("boom")

	info, err := os.ReadFile(filepath.Join(dir, "info.log"))
	require.NoError(t, err)
	assert.Contains(t, string(info), "hello")

	errLog, err := os.ReadFile(filepath.Join(dir, "error.log"))
	require.NoError(t, err)
	assert.Contains(t, string(errLog), "boom")

	require.NoError(t, l.CleanLogs("error.log"))
	errLog, err = os.ReadFile(filepath.Join(dir, "error.log"))
	require.NoError(t, err)
	assert.Empty(t, errLog)
}

func TestCleanLogs_WriterLoggerIsNoop(t *testing.T) {
	assert.NoError(t, Discard().CleanLogs("info.log"))
}
