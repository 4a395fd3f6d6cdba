package filesync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedWriteDoesNotTouchDiskUntilFlush(t *testing.T) {
	b := NewBuffered(0, 0)
	path := filepath.Join(t.TempDir(), "bucket-a.dat")

	require.NoError(t, b.Write([]byte("hello"), path))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, b.Flush(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestBufferedFlushWithNoPendingWriteIsNoop(t *testing.T) {
	b := NewBuffered(0, 0)
	assert.NoError(t, b.Flush(filepath.Join(t.TempDir(), "bucket-a.dat")))
}

func TestBufferedEmptyWriteDeletesOnFlush(t *testing.T) {
	b := NewBuffered(0, 0)
	path := filepath.Join(t.TempDir(), "bucket-a.dat")

	require.NoError(t, b.Write([]byte("hello"), path))
	require.NoError(t, b.Flush(path))

	require.NoError(t, b.Write(nil, path))
	require.NoError(t, b.Flush(path))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestBufferedPurgeTruncatesRatherThanDeletes(t *testing.T) {
	b := NewBuffered(0, 0)
	path := filepath.Join(t.TempDir(), "bucket-a.dat")

	require.NoError(t, b.Write([]byte("hello"), path))
	require.NoError(t, b.Flush(path))

	require.NoError(t, b.Purge(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size())
}

func TestBufferedPurgeOnNeverWrittenPathIsNotError(t *testing.T) {
	b := NewBuffered(0, 0)
	path := filepath.Join(t.TempDir(), "never-written.dat")
	assert.NoError(t, b.Purge(path))
}

func TestBufferedWriteAfterPurgeReopensSlot(t *testing.T) {
	b := NewBuffered(0, 0)
	path := filepath.Join(t.TempDir(), "bucket-a.dat")

	require.NoError(t, b.Write([]byte("first"), path))
	require.NoError(t, b.Flush(path))
	require.NoError(t, b.Purge(path))

	require.NoError(t, b.Write([]byte("second"), path))
	require.NoError(t, b.Flush(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestBufferedStopFlushesPendingWrites(t *testing.T) {
	b := NewBuffered(0, 0)
	path := filepath.Join(t.TempDir(), "bucket-a.dat")

	require.NoError(t, b.Write([]byte("hello"), path))
	b.Stop()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}
