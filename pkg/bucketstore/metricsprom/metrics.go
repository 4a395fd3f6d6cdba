// Package metricsprom is the Prometheus-backed implementation of
// bucketstore.Metrics.
package metricsprom

import (
	"time"

	"github.com/cachebarn/fcstore/pkg/bucketstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics is the Prometheus implementation of bucketstore.Metrics.
type metrics struct {
	writeOperations *prometheus.CounterVec
	writeDuration   prometheus.Histogram
	writeBytes      prometheus.Histogram

	readOperations *prometheus.CounterVec
	readDuration   prometheus.Histogram
	readBytes      prometheus.Histogram

	purgeOperations prometheus.Counter
	purgeDuration    prometheus.Histogram
	purgeRemoved     prometheus.Counter

	bucketCount prometheus.Gauge
	flushErrors *prometheus.CounterVec
}

var durationBuckets = []float64{
	0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000,
}

var byteBuckets = []float64{
	4096, 32768, 131072, 524288, 1048576, 4194304, 10485760,
}

// New returns a Prometheus-backed bucketstore.Metrics registered against
// reg. Passing a nil registry returns nil, matching bucketstore's nil-safe
// Metrics convention: hosts that disable metrics in ambient/config never
// pay for label churn.
func New(reg prometheus.Registerer) bucketstore.Metrics {
	if reg == nil {
		return nil
	}

	return &metrics{
		writeOperations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "fcstore_bucketstore_write_operations_total",
				Help: "Total number of bucket write operations.",
			},
			[]string{"bucket_id"},
		),
		writeDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fcstore_bucketstore_write_duration_milliseconds",
				Help:    "Duration of bucket write operations in milliseconds.",
				Buckets: durationBuckets,
			},
		),
		writeBytes: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fcstore_bucketstore_write_size",
				Help:    "Distribution of the size value passed to ObserveWrite (entry count on UpdateBucket).",
				Buckets: byteBuckets,
			},
		),
		readOperations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "fcstore_bucketstore_read_operations_total",
				Help: "Total number of bucket read operations.",
			},
			[]string{"bucket_id"},
		),
		readDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fcstore_bucketstore_read_duration_milliseconds",
				Help:    "Duration of bucket read operations in milliseconds.",
				Buckets: durationBuckets,
			},
		),
		readBytes: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fcstore_bucketstore_read_bytes",
				Help:    "Distribution of on-disk bytes read per bucket load.",
				Buckets: byteBuckets,
			},
		),
		purgeOperations: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "fcstore_bucketstore_purge_operations_total",
				Help: "Total number of expiry sweeps run.",
			},
		),
		purgeDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fcstore_bucketstore_purge_duration_milliseconds",
				Help:    "Duration of expiry sweeps in milliseconds.",
				Buckets: durationBuckets,
			},
		),
		purgeRemoved: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "fcstore_bucketstore_purge_entries_removed_total",
				Help: "Total number of entries removed by expiry sweeps.",
			},
		),
		bucketCount: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "fcstore_bucketstore_bucket_count",
				Help: "Current number of bucket files on disk.",
			},
		),
		flushErrors: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "fcstore_bucketstore_flush_errors_total",
				Help: "Total number of deferred flush errors surfaced by path.",
			},
			[]string{"path"},
		),
	}
}

func (m *metrics) ObserveWrite(bucketID string, bytes int64, duration time.Duration) {
	m.writeOperations.WithLabelValues(bucketID).Inc()
	m.writeDuration.Observe(float64(duration.Milliseconds()))
	if bytes > 0 {
		m.writeBytes.Observe(float64(bytes))
	}
}

func (m *metrics) ObserveRead(bucketID string, bytes int64, duration time.Duration) {
	m.readOperations.WithLabelValues(bucketID).Inc()
	m.readDuration.Observe(float64(duration.Milliseconds()))
	if bytes > 0 {
		m.readBytes.Observe(float64(bytes))
	}
}

func (m *metrics) ObservePurge(bucketID string, removed int, duration time.Duration) {
	m.purgeOperations.Inc()
	m.purgeDuration.Observe(float64(duration.Milliseconds()))
	if removed > 0 {
		m.purgeRemoved.Add(float64(removed))
	}
}

func (m *metrics) RecordBucketCount(n int) {
	m.bucketCount.Set(float64(n))
}

func (m *metrics) RecordFlushError(path string) {
	m.flushErrors.WithLabelValues(path).Inc()
}
