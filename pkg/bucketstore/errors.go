package bucketstore

import (
	"errors"
	"fmt"

	"github.com/cachebarn/fcstore/pkg/bucketstore/filesync"
)

// Sentinel errors returned by Store operations. errInterrupted is
// unexported and no Store operation returns it: on cancellation
// UpdateBucket, ToStream and FromStream return the context's own error,
// while LoadBucket, LoopOverBuckets and the purge sweeps return a nil error.
var (
	// ErrBucketNotFound indicates the requested bucket has no on-disk file.
	ErrBucketNotFound = errors.New("bucketstore: bucket not found")

	// ErrStoreClosed indicates an operation was attempted after Stop.
	ErrStoreClosed = errors.New("bucketstore: store is closed")

	// errInterrupted is a cancellation marker for an operation that
	// observed context cancellation mid-flight. No Store operation uses it.
	errInterrupted = errors.New("bucketstore: operation interrupted")
)

// ConfigurationError indicates the store's root directory could not be
// established (missing, not a directory, or inaccessible).
type ConfigurationError struct {
	Root string
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("bucketstore: invalid root %q: %s", e.Root, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// LoaderIOError wraps any I/O failure encountered while reading, writing,
// listing or (un)marshalling a bucket. Modeled on the corpus's own
// PayloadError: an operation-tagged wrapper that stays errors.Is/As
// compatible with the underlying cause.
type LoaderIOError struct {
	// Op names the failing operation: "read", "write", "list", "marshal",
	// "unmarshal", "stream", "purge".
	Op string

	// Path is the bucket file path involved, if any.
	Path string

	// BucketID is the bucket identifier involved, if any.
	BucketID string

	// Err is the underlying cause.
	Err error
}

func (e *LoaderIOError) Error() string {
	return fmt.Sprintf("bucketstore: %s failed for bucket %q (%s): %s", e.Op, e.BucketID, e.Path, e.Err)
}

func (e *LoaderIOError) Unwrap() error { return e.Err }

// NewLoaderIOError wraps err with operational context.
func NewLoaderIOError(op, bucketID, path string, err error) *LoaderIOError {
	return &LoaderIOError{Op: op, BucketID: bucketID, Path: path, Err: err}
}

// DeferredFlushError is raised synchronously from the next Write on a path
// whose previous background flush (Periodic FileSync) failed. It carries
// the original error and is cleared from the flush-error table once
// surfaced to a caller. The flush-error table itself lives in filesync,
// the only layer with enough state to know a background flush happened.
type DeferredFlushError = filesync.DeferredFlushError
