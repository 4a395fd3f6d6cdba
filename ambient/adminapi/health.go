package adminapi

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/cachebarn/fcstore/pkg/bucketstore"
)

type healthHandler struct {
	store *bucketstore.Store
}

func newHealthHandler(store *bucketstore.Store) *healthHandler {
	return &healthHandler{store: store}
}

// Liveness always reports ok: the process is up and serving requests.
func (h *healthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness reports ok only if the store's root directory is still
// reachable.
func (h *healthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	info, err := os.Stat(h.store.Root())
	if err != nil || !info.IsDir() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"root":   h.store.Root(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
