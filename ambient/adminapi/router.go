// Package adminapi exposes a bucketstore.Store over HTTP: health probes,
// bucket introspection, expiry sweeps, and bulk transfer.
package adminapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cachebarn/fcstore/internal/logger"
	"github.com/cachebarn/fcstore/pkg/bucketstore"
	"github.com/cachebarn/fcstore/pkg/bucketstore/transfer"
)

// NewRouter builds the admin HTTP surface for store.
//
// Routes:
//   - GET  /health       - liveness probe
//   - GET  /health/ready - readiness probe
//   - GET  /buckets      - list bucket ids and entry counts
//   - GET  /buckets/{id} - load a single bucket
//   - POST /buckets/purge - run an expiry sweep
//   - DELETE /buckets    - clear every bucket
//   - GET  /transfer/export - bulk stream export
//   - POST /transfer/import - bulk stream import
//   - GET  /metrics      - Prometheus scrape endpoint
func NewRouter(store *bucketstore.Store, purgeWorkers int) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	health := newHealthHandler(store)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", health.Liveness)
		r.Get("/ready", health.Readiness)
	})

	bh := newBucketHandler(store, purgeWorkers)
	r.Route("/buckets", func(r chi.Router) {
		r.Get("/", bh.List)
		r.Get("/{id}", bh.Get)
		r.Post("/purge", bh.Purge)
		r.Delete("/", bh.Clear)
	})

	th := transfer.New(store)
	r.Route("/transfer", func(r chi.Router) {
		r.Get("/export", th.Export)
		r.Post("/import", th.Import)
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

// requestLogger logs each request once, on completion, at INFO, with
// healthchecks demoted to DEBUG to avoid polluting logs under a liveness
// probe. Request start is not logged. Grounded on the corpus's own custom
// chi request logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		if isHealthPath(r.URL.Path) {
			logger.Debug("admin API request completed",
				logger.KeyRequestID, requestID,
				logger.KeyHTTPMethod, r.Method,
				logger.KeyHTTPPath, r.URL.Path,
				logger.KeyHTTPStatus, ww.Status(),
				logger.KeyDuration, duration.String(),
			)
			return
		}
		logger.Info("admin API request completed",
			logger.KeyRequestID, requestID,
			logger.KeyHTTPMethod, r.Method,
			logger.KeyHTTPPath, r.URL.Path,
			logger.KeyHTTPStatus, ww.Status(),
			logger.KeyDuration, duration.String(),
		)
	})
}

func isHealthPath(path string) bool {
	return path == "/health" || path == "/health/" || path == "/health/ready"
}
