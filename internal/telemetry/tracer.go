package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for bucket store spans. These follow OpenTelemetry semantic
// convention style (dotted, lower-case namespaces) adapted from the corpus's
// protocol-agnostic "fs.*" keys to this domain's "cache.*" namespace.
const (
	AttrBucketID    = "cache.bucket_id"
	AttrRoot        = "cache.root"
	AttrEntryCount  = "cache.entry_count"
	AttrRemoved     = "cache.removed"
	AttrSize        = "cache.size"
	AttrBytesRead   = "cache.bytes_read"
	AttrBytesWrite  = "cache.bytes_written"
	AttrFileCount   = "cache.file_count"
	AttrFsyncMode   = "cache.fsync_mode"
	AttrWorkerCount = "cache.worker_count"
	AttrOutcome     = "cache.outcome" // "ok", "error", "interrupted"
)

// Span names for bucket store operations.
const (
	SpanUpdateBucket = "bucketstore.UpdateBucket"
	SpanLoadBucket   = "bucketstore.LoadBucket"
	SpanClear        = "bucketstore.Clear"
	SpanPurgeExpired = "bucketstore.PurgeExpired"
	SpanToStream     = "bucketstore.ToStream"
	SpanFromStream   = "bucketstore.FromStream"
)

// BucketID returns an attribute for the bucket identifier involved in a span.
func BucketID(id string) attribute.KeyValue {
	return attribute.String(AttrBucketID, id)
}

// Root returns an attribute for the store's root directory.
func Root(root string) attribute.KeyValue {
	return attribute.String(AttrRoot, root)
}

// EntryCount returns an attribute for a bucket's entry count.
func EntryCount(n int) attribute.KeyValue {
	return attribute.Int(AttrEntryCount, n)
}

// Removed returns an attribute for a purge's removed-entry count.
func Removed(n int) attribute.KeyValue {
	return attribute.Int(AttrRemoved, n)
}

// Size returns an attribute for a size in bytes.
func Size(n int64) attribute.KeyValue {
	return attribute.Int64(AttrSize, n)
}

// BytesRead returns an attribute for bytes read during a transfer.
func BytesRead(n int64) attribute.KeyValue {
	return attribute.Int64(AttrBytesRead, n)
}

// BytesWritten returns an attribute for bytes written during a transfer.
func BytesWritten(n int64) attribute.KeyValue {
	return attribute.Int64(AttrBytesWrite, n)
}

// FileCount returns an attribute for a bulk stream's file count.
func FileCount(n int) attribute.KeyValue {
	return attribute.Int(AttrFileCount, n)
}

// FsyncMode returns an attribute for the active FileSync mode.
func FsyncMode(mode string) attribute.KeyValue {
	return attribute.String(AttrFsyncMode, mode)
}

// WorkerCount returns an attribute for a purge worker pool size.
func WorkerCount(n int) attribute.KeyValue {
	return attribute.Int(AttrWorkerCount, n)
}

// Outcome returns an attribute describing how an operation concluded.
func Outcome(outcome string) attribute.KeyValue {
	return attribute.String(AttrOutcome, outcome)
}

// StartBucketSpan starts a span for a bucket store operation, tagging it
// with the bucket id when known.
func StartBucketSpan(ctx context.Context, spanName, bucketID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	if bucketID != "" {
		allAttrs = append(allAttrs, BucketID(bucketID))
	}
	allAttrs = append(allAttrs, attrs...)
	return StartSpan(ctx, spanName, trace.WithAttributes(allAttrs...))
}
