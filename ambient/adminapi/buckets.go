package adminapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cachebarn/fcstore/internal/logger"
	"github.com/cachebarn/fcstore/pkg/bucketstore"
)

type bucketHandler struct {
	store        *bucketstore.Store
	purgeWorkers int
}

func newBucketHandler(store *bucketstore.Store, purgeWorkers int) *bucketHandler {
	return &bucketHandler{store: store, purgeWorkers: purgeWorkers}
}

type bucketSummary struct {
	ID         string `json:"id"`
	EntryCount int    `json:"entry_count"`
}

// List returns every bucket id currently on disk along with its entry
// count.
func (h *bucketHandler) List(w http.ResponseWriter, r *http.Request) {
	var summaries []bucketSummary
	err := h.store.LoopOverBuckets(r.Context(), func(id string, b *bucketstore.Bucket) bool {
		summaries = append(summaries, bucketSummary{ID: id, EntryCount: len(b.Entries)})
		return true
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// Get loads a single bucket by id.
func (h *bucketHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	bucket, err := h.store.LoadBucket(r.Context(), id)
	if errors.Is(err, bucketstore.ErrBucketNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "bucket not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, bucket)
}

// Purge runs an expiry sweep across every bucket, parallel if
// purgeWorkers > 1.
func (h *bucketHandler) Purge(w http.ResponseWriter, r *http.Request) {
	var removed int
	var err error
	if h.purgeWorkers > 1 {
		removed, err = h.store.PurgeExpiredParallel(r.Context(), h.purgeWorkers)
	} else {
		removed, err = h.store.PurgeExpired(r.Context())
	}
	if err != nil {
		logger.ErrorCtx(r.Context(), "admin purge failed", logger.KeyError, err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// Clear removes every bucket file.
func (h *bucketHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
