package bucketstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/cachebarn/fcstore/pkg/bucketstore/filesync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToStreamFromStreamRoundTrip(t *testing.T) {
	ctx := context.Background()

	src, err := New(t.TempDir(), filesync.NewPerWrite(0, 0), nil, nil)
	require.NoError(t, err)
	defer src.Stop()

	for _, id := range []string{"b1", "b2"} {
		require.NoError(t, src.UpdateBucket(ctx, id, func(b *Bucket) error {
			b.Put(&Entry{Key: "k", Value: []byte("value-" + id)})
			return nil
		}))
	}

	var buf bytes.Buffer
	n, err := src.ToStream(ctx, &buf)
	require.NoError(t, err)
	assert.Positive(t, n)

	dst, err := New(t.TempDir(), filesync.NewPerWrite(0, 0), nil, nil)
	require.NoError(t, err)
	defer dst.Stop()

	read, err := dst.FromStream(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, n, read)

	for _, id := range []string{"b1", "b2"} {
		bucket, err := dst.LoadBucket(ctx, id)
		require.NoError(t, err)
		require.Contains(t, bucket.Entries, "k")
		assert.Equal(t, []byte("value-"+id), bucket.Entries["k"].Value)
	}
}

func TestToStreamEmptyStoreWritesOnlyCount(t *testing.T) {
	s, err := New(t.TempDir(), filesync.NewPerWrite(0, 0), nil, nil)
	require.NoError(t, err)
	defer s.Stop()

	var buf bytes.Buffer
	n, err := s.ToStream(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.Equal(t, 4, buf.Len()) // just the int32 file count
}

func TestFromStreamSkipsTempAndHiddenEntries(t *testing.T) {
	s, err := New(t.TempDir(), filesync.NewPerWrite(0, 0), nil, nil)
	require.NoError(t, err)
	defer s.Stop()

	var buf bytes.Buffer
	// Two entries whose names are excluded from the bucket namespace: a
	// leftover ".tmp" from a racing write, and a dotfile.
	require.NoError(t, binary.Write(&buf, binary.BigEndian, int32(2)))
	require.NoError(t, writeFileEntry(&buf, "b1.tmp", []byte("ignored")))
	require.NoError(t, writeFileEntry(&buf, ".hidden", []byte("also-ignored")))

	n, err := s.FromStream(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len("ignored")+len("also-ignored")), n)

	ids, err := s.bucketIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
}
