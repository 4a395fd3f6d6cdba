package logger

import (
	"log/slog"
)

// Structured logging field keys used across the bucket store, its FileSync
// backends, the transfer package, and the admin API.
const (
	// Tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// Operation metadata
	KeyOperation = "operation" // UpdateBucket, LoadBucket, PurgeExpired, ToStream, FromStream, Clear
	KeyDuration  = "duration_ms"
	KeyError     = "error"

	// Bucket / store domain
	KeyBucketID    = "bucket_id"
	KeyRoot        = "root"
	KeyPath        = "path"
	KeyEntryCount  = "entry_count"
	KeyRemoved     = "removed"
	KeySize        = "size_bytes"
	KeyBytesRead   = "bytes_read"
	KeyBytesWrite  = "bytes_written"
	KeyFileCount   = "file_count"
	KeyFsyncMode   = "fsync_mode"
	KeyWorkerCount = "worker_count"

	// HTTP admin surface
	KeyHTTPMethod = "method"
	KeyHTTPPath   = "http_path"
	KeyHTTPStatus = "status"
	KeyRequestID  = "request_id"
	KeyRemoteAddr = "remote_addr"
)

// TraceID returns an slog.Attr for the trace id
func TraceID(id string) slog.Attr { return slog.String(KeyTraceID, id) }

// SpanID returns an slog.Attr for the span id
func SpanID(id string) slog.Attr { return slog.String(KeySpanID, id) }

// Operation returns an slog.Attr for the operation name
func Operation(op string) slog.Attr { return slog.String(KeyOperation, op) }

// BucketID returns an slog.Attr for the bucket id
func BucketID(id string) slog.Attr { return slog.String(KeyBucketID, id) }

// Path returns an slog.Attr for a filesystem path
func Path(path string) slog.Attr { return slog.String(KeyPath, path) }

// Root returns an slog.Attr for the store's root directory
func Root(root string) slog.Attr { return slog.String(KeyRoot, root) }

// EntryCount returns an slog.Attr for a bucket's entry count
func EntryCount(n int) slog.Attr { return slog.Int(KeyEntryCount, n) }

// Removed returns an slog.Attr for a purge's removed-entry count
func Removed(n int) slog.Attr { return slog.Int(KeyRemoved, n) }

// Size returns an slog.Attr for a size in bytes
func Size(n int64) slog.Attr { return slog.Int64(KeySize, n) }

// BytesRead returns an slog.Attr for bytes read during a transfer
func BytesRead(n int64) slog.Attr { return slog.Int64(KeyBytesRead, n) }

// BytesWritten returns an slog.Attr for bytes written during a transfer
func BytesWritten(n int64) slog.Attr { return slog.Int64(KeyBytesWrite, n) }

// FileCount returns an slog.Attr for a bulk stream's file count
func FileCount(n int) slog.Attr { return slog.Int(KeyFileCount, n) }

// FsyncMode returns an slog.Attr for the active FileSync mode
func FsyncMode(mode string) slog.Attr { return slog.String(KeyFsyncMode, mode) }

// WorkerCount returns an slog.Attr for a purge worker pool size
func WorkerCount(n int) slog.Attr { return slog.Int(KeyWorkerCount, n) }

// Err returns an slog.Attr for an error value, or a no-op attr if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// DurationAttr returns an slog.Attr for a duration in milliseconds
func DurationAttr(ms float64) slog.Attr { return slog.Float64(KeyDuration, ms) }

// RequestID returns an slog.Attr for an HTTP request id
func RequestID(id string) slog.Attr { return slog.String(KeyRequestID, id) }

// RemoteAddr returns an slog.Attr for an HTTP client address
func RemoteAddr(addr string) slog.Attr { return slog.String(KeyRemoteAddr, addr) }

// HTTPStatus returns an slog.Attr for an HTTP response status code
func HTTPStatus(code int) slog.Attr { return slog.Int(KeyHTTPStatus, code) }

// HTTPMethod returns an slog.Attr for an HTTP request method
func HTTPMethod(method string) slog.Attr { return slog.String(KeyHTTPMethod, method) }
