package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anomalydash/internal/logger"
)

func TestBufferFlushWritesFrames(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "anomalies")
	buffer := NewBufferService(dir, 2, logger.Discard())

	assert.True(t, buffer.AddImage("a.jpg", []byte("one")))
	assert.True(t, buffer.AddImage("../b.jpg", []byte("two")))
	assert.False(t, buffer.AddImage("c.jpg", []byte("three")), "buffer is full")
	assert.Equal(t, 2, buffer.Len())

	assert.Equal(t, 2, buffer.FlushImages())
	assert.Equal(t, 0, buffer.Len())

	data, err := os.ReadFile(filepath.Join(dir, "b.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files are left behind")

	assert.Equal(t, 0, buffer.FlushImages())
}

func TestBufferRunFlushesOnStop(t *testing.T) {
	dir := t.TempDir()
	buffer := NewBufferService(dir, 5, logger.Discard())
	buffer.AddImage("late.jpg", []byte("x"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		buffer.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()
	<-done

	_, err := os.Stat(filepath.Join(dir, "late.jpg"))
	assert.NoError(t, err)
}
