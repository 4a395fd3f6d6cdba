package adminapi

import (
	"context"
	"encoding/json"
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

func TestHealthLiveness(t *testing.T) {
	store := newTestStore(t)
	r := NewRouter(store, 1)

	req := httptest.NewRequest(http.MethodGet, "/health/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthReadiness(t *testing.T) {
	store := newTestStore(t)
	r := NewRouter(store, 1)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBucketsListAndGet(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.UpdateBucket(context.Background(), "b1", func(b *bucketstore.Bucket) error {
		b.Put(&bucketstore.Entry{Key: "k", Value: []byte("v")})
		return nil
	}))

	r := NewRouter(store, 1)

	t.Run("List", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/buckets/", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var summaries []bucketSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
		require.Len(t, summaries, 1)
		assert.Equal(t, "b1", summaries[0].ID)
		assert.Equal(t, 1, summaries[0].EntryCount)
	})

	t.Run("GetFound", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/buckets/b1", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("GetMissing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/buckets/nope", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestBucketsPurgeAndClear(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.UpdateBucket(context.Background(), "b1", func(b *bucketstore.Bucket) error {
		b.Put(&bucketstore.Entry{Key: "k", Value: []byte("v")})
		return nil
	}))

	r := NewRouter(store, 1)

	t.Run("Purge", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/buckets/purge", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Clear", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/buckets/", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		_, err := store.LoadBucket(context.Background(), "b1")
		assert.ErrorIs(t, err, bucketstore.ErrBucketNotFound)
	})
}

func TestIsHealthPath(t *testing.T) {
	assert.True(t, isHealthPath("/health"))
	assert.True(t, isHealthPath("/health/"))
	assert.True(t, isHealthPath("/health/ready"))
	assert.False(t, isHealthPath("/buckets"))
}
