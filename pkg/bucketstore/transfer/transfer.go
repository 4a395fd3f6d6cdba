// Package transfer exposes bucketstore.Store's bulk ToStream/FromStream
// over HTTP, so the store can be backed up or seeded from a remote host
// without going through the individual bucket operations.
package transfer

import (
	"encoding/json"
	"net/http"

	"github.com/cachebarn/fcstore/internal/logger"
	"github.com/cachebarn/fcstore/pkg/bucketstore"
)

const contentTypeStream = "application/octet-stream"

// Handler adapts a Store's streaming operations to HTTP.
type Handler struct {
	store *bucketstore.Store
}

// New returns a transfer Handler backed by store.
func New(store *bucketstore.Store) *Handler {
	return &Handler{store: store}
}

// Export writes every bucket file in the store to the response body in the
// bulk stream wire format. Suitable for `curl -o` style retrieval or piping
// straight into another store's Import.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", contentTypeStream)

	n, err := h.store.ToStream(r.Context(), w)
	if err != nil {
		logger.ErrorCtx(r.Context(), "transfer export failed", logger.KeyError, err.Error())
		// The stream may already be partially written; we can't change the
		// status code at this point, only stop and let the client observe
		// a truncated body.
		return
	}
	logger.InfoCtx(r.Context(), "transfer export complete", logger.KeyBytesWrite, n)
}

// Import reads a bulk stream body and writes every entry into the store.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.FromStream(r.Context(), r.Body)
	if err != nil {
		logger.ErrorCtx(r.Context(), "transfer import failed", logger.KeyError, err.Error())
		writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}

	logger.InfoCtx(r.Context(), "transfer import complete", logger.KeyBytesRead, n)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]int64{"bytes_read": n})
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
