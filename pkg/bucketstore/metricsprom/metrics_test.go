package metricsprom

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReturnsNilForNilRegistry(t *testing.T) {
	assert.Nil(t, New(nil))
}

func TestObserveWriteIncrementsCounterAndHistograms(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NotNil(t, m)

	m.ObserveWrite("b1", 3, 5*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	counter := findMetric(t, families, "fcstore_bucketstore_write_operations_total")
	require.NotNil(t, counter)
	assert.Equal(t, float64(1), counter.GetCounter().GetValue())

	duration := findMetric(t, families, "fcstore_bucketstore_write_duration_milliseconds")
	require.NotNil(t, duration)
	assert.Equal(t, uint64(1), duration.GetHistogram().GetSampleCount())

	size := findMetric(t, families, "fcstore_bucketstore_write_size")
	require.NotNil(t, size)
	assert.Equal(t, uint64(1), size.GetHistogram().GetSampleCount())
}

func TestObserveReadSkipsHistogramOnZeroBytes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NotNil(t, m)

	m.ObserveRead("b1", 0, time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	hist := findMetric(t, families, "fcstore_bucketstore_read_bytes")
	require.NotNil(t, hist)
	assert.Equal(t, uint64(0), hist.GetHistogram().GetSampleCount())
}

func TestObservePurgeAccumulatesRemoved(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NotNil(t, m)

	m.ObservePurge("", 3, time.Millisecond)
	m.ObservePurge("", 4, time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	counter := findMetric(t, families, "fcstore_bucketstore_purge_entries_removed_total")
	require.NotNil(t, counter)
	assert.Equal(t, float64(7), counter.GetCounter().GetValue())
}

func TestRecordBucketCountSetsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NotNil(t, m)

	m.RecordBucketCount(42)

	families, err := reg.Gather()
	require.NoError(t, err)

	gauge := findMetric(t, families, "fcstore_bucketstore_bucket_count")
	require.NotNil(t, gauge)
	assert.Equal(t, float64(42), gauge.GetGauge().GetValue())
}

func TestRecordFlushErrorIncrementsByPath(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NotNil(t, m)

	m.RecordFlushError("/tmp/bucket-a.dat")

	families, err := reg.Gather()
	require.NoError(t, err)

	counter := findMetric(t, families, "fcstore_bucketstore_flush_errors_total")
	require.NotNil(t, counter)
	assert.Equal(t, float64(1), counter.GetCounter().GetValue())
}

func findMetric(t *testing.T, families []*dto.MetricFamily, name string) *dto.Metric {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() == name && len(fam.GetMetric()) > 0 {
			return fam.GetMetric()[0]
		}
	}
	return nil
}
