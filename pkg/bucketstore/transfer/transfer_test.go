package transfer

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cachebarn/fcstore/pkg/bucketstore"
	"github.com/cachebarn/fcstore/pkg/bucketstore/filesync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *bucketstore.Store {
	t.Helper()
	s, err := bucketstore.New(t.TempDir(), filesync.NewPerWrite(0, 0), nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Stop() })
	return s
}

func TestExportWritesBulkStream(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.UpdateBucket(context.Background(), "b1", func(b *bucketstore.Bucket) error {
		b.Put(&bucketstore.Entry{Key: "k", Value: []byte("v")})
		return nil
	}))

	h := New(store)
	req := httptest.NewRequest(http.MethodGet, "/transfer/export", nil)
	rec := httptest.NewRecorder()

	h.Export(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeStream, rec.Header().Get("Content-Type"))
	assert.Positive(t, rec.Body.Len())
}

func TestImportLoadsBulkStreamIntoStore(t *testing.T) {
	src := newTestStore(t)
	require.NoError(t, src.UpdateBucket(context.Background(), "b1", func(b *bucketstore.Bucket) error {
		b.Put(&bucketstore.Entry{Key: "k", Value: []byte("v")})
		return nil
	}))

	var buf bytes.Buffer
	_, err := src.ToStream(context.Background(), &buf)
	require.NoError(t, err)

	dst := newTestStore(t)
	h := New(dst)
	req := httptest.NewRequest(http.MethodPost, "/transfer/import", &buf)
	rec := httptest.NewRecorder()

	h.Import(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	bucket, err := dst.LoadBucket(context.Background(), "b1")
	require.NoError(t, err)
	assert.Contains(t, bucket.Entries, "k")
}

func TestImportWithMalformedBodyReturnsBadGateway(t *testing.T) {
	dst := newTestStore(t)
	h := New(dst)

	req := httptest.NewRequest(http.MethodPost, "/transfer/import", bytes.NewReader([]byte{0x00, 0x01}))
	rec := httptest.NewRecorder()

	h.Import(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
