// Package bucketstore implements a bucketed, file-system-backed key/value
// store: each bucket is a single on-disk file holding a JSON- (or
// host-supplied-codec-) encoded snapshot of its entries, written through a
// pluggable FileSync durability strategy. One file per bucket, no
// cross-bucket transactions, no compaction, no replication — a local,
// durable cache tier, not a database.
package bucketstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cachebarn/fcstore/internal/logger"
	"github.com/cachebarn/fcstore/internal/telemetry"
	"github.com/cachebarn/fcstore/pkg/bucketstore/filesync"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// Store is a bucketed file-system cache store rooted at a single
// directory. It is safe for concurrent use: distinct buckets never
// contend, and a given bucket is serialized through its own RWMutex.
type Store struct {
	root       string
	fileSync   filesync.FileSync
	marshaller Marshaller
	metrics    Metrics

	locks sync.Map // bucketID -> *sync.RWMutex

	mu     sync.Mutex
	closed bool
}

// New creates a Store rooted at root, creating the directory if it does
// not already exist. fileSync selects the durability strategy (PerWrite,
// Buffered or Periodic); marshaller may be nil, in which case
// JSONMarshaller is used; metrics may be nil for zero overhead.
func New(root string, fs filesync.FileSync, marshaller Marshaller, metrics Metrics) (*Store, error) {
	if root == "" {
		return nil, &ConfigurationError{Root: root, Err: fmt.Errorf("root directory must not be empty")}
	}
	if fs == nil {
		return nil, &ConfigurationError{Root: root, Err: fmt.Errorf("a FileSync backend is required")}
	}

	info, err := os.Stat(root)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(root, 0o755); mkErr != nil {
			return nil, &ConfigurationError{Root: root, Err: mkErr}
		}
	case err != nil:
		return nil, &ConfigurationError{Root: root, Err: err}
	case !info.IsDir():
		return nil, &ConfigurationError{Root: root, Err: fmt.Errorf("not a directory")}
	}

	if marshaller == nil {
		marshaller = JSONMarshaller{}
	}

	return &Store{
		root:       root,
		fileSync:   fs,
		marshaller: marshaller,
		metrics:    metricsOrNoop(metrics),
	}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

// bucketPath returns the file a bucket lives at: {root}/{bucketId}, with no
// subdirectories and no index files, matching the external interface
// contract — bucketId is the file name.
func (s *Store) bucketPath(id string) string {
	return filepath.Join(s.root, id)
}

// bucketIDFromFilename reports whether name is a bucket file and, if so,
// its id. Names ending in ".tmp" are excluded: that's the suffix the
// filesync backends use for their temp-then-rename writes, so a listing
// racing a write must not mistake a half-written temp file for a bucket.
func bucketIDFromFilename(name string) (string, bool) {
	if name == "" || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".tmp") {
		return "", false
	}
	return name, true
}

func (s *Store) lockFor(id string) *sync.RWMutex {
	v, _ := s.locks.LoadOrStore(id, &sync.RWMutex{})
	return v.(*sync.RWMutex)
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Start brings the store into a usable state. It is idempotent-in-spirit:
// a Store constructed via New is already usable for reads/writes, Start
// exists to match the corpus's lifecycle convention (a component created,
// then started, then eventually stopped) and to hook up at a predictable
// point for hosts wiring tracing/metrics initialization around the store.
func (s *Store) Start(ctx context.Context) error {
	if s.isClosed() {
		return ErrStoreClosed
	}
	logger.InfoCtx(ctx, "bucketstore started", logger.KeyRoot, s.root)
	return nil
}

// Stop flushes and releases the FileSync backend and marks the store
// closed. Subsequent operations return ErrStoreClosed.
func (s *Store) Stop() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.fileSync.Stop()
	logger.Info("bucketstore stopped", logger.KeyRoot, s.root)
	return nil
}

// UpdateBucket loads bucket id (or starts a fresh one if it has no file
// yet), applies fn, and persists the result. If fn leaves the bucket
// empty, the on-disk file is purged instead of rewritten as an empty
// shell. A context cancelled after fn returns but before the write is
// issued aborts the update: the write never happens and ctx.Err() is
// returned (Open Question #2 in the design notes).
func (s *Store) UpdateBucket(ctx context.Context, id string, fn func(b *Bucket) error) error {
	if s.isClosed() {
		return ErrStoreClosed
	}

	ctx, span := telemetry.StartBucketSpan(ctx, telemetry.SpanUpdateBucket, id)
	defer span.End()
	start := time.Now()

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	path := s.bucketPath(id)
	bucket, err := s.readBucketLocked(id, path)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return err
	}

	if err := fn(bucket); err != nil {
		telemetry.RecordError(ctx, err)
		return err
	}

	// Open Question #2: a context cancelled during fn (marshalling included
	// below) aborts the update rather than racing a write against a caller
	// who has already given up.
	if err := ctx.Err(); err != nil {
		logger.DebugCtx(ctx, "bucketstore update interrupted", logger.KeyBucketID, id)
		return err
	}

	var writeErr error
	if bucket.Empty() {
		writeErr = s.fileSync.Purge(path)
	} else {
		data, mErr := s.marshaller.Marshal(bucket)
		if mErr != nil {
			writeErr = NewLoaderIOError("marshal", id, path, mErr)
		} else if err := ctx.Err(); err != nil {
			return err
		} else {
			writeErr = s.fileSync.Write(data, path)
		}
	}

	if writeErr != nil {
		var deferredErr *filesync.DeferredFlushError
		if !asDeferredFlush(writeErr, &deferredErr) {
			telemetry.RecordError(ctx, writeErr)
			return NewLoaderIOError("write", id, path, writeErr)
		}
		s.metrics.RecordFlushError(deferredErr.Path)
		logger.WarnCtx(ctx, "bucketstore deferred flush error surfaced", logger.KeyPath, deferredErr.Path, logger.KeyError, deferredErr.Err.Error())
		writeErr = deferredErr
	}

	s.metrics.ObserveWrite(id, int64(len(bucket.Entries)), time.Since(start))
	telemetry.SetAttributes(ctx, telemetry.EntryCount(len(bucket.Entries)))
	return writeErr
}

// asDeferredFlush reports whether err is (or wraps) a
// *filesync.DeferredFlushError, writing it into target on success.
func asDeferredFlush(err error, target **filesync.DeferredFlushError) bool {
	d, ok := err.(*filesync.DeferredFlushError)
	if ok {
		*target = d
	}
	return ok
}

// flushAndRead requests a flush of path through the active FileSync
// backend, then reads it. A Buffered/Periodic backend only updates its
// in-memory slot on Write; without this flush a reader can run before the
// bytes ever reach disk. A file flushed down to zero length (a purge-clear
// truncates rather than unlinks) is reported the same as an absent file,
// matching loadBucket's "short-circuit if length is zero" contract.
func (s *Store) flushAndRead(path string) ([]byte, error) {
	if err := s.fileSync.Flush(path); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return nil, os.ErrNotExist
	}
	return os.ReadFile(path)
}

// readBucketLocked loads the bucket at path, returning a fresh empty
// bucket if no file exists yet. Caller must hold the bucket's lock.
func (s *Store) readBucketLocked(id, path string) (*Bucket, error) {
	data, err := s.flushAndRead(path)
	if os.IsNotExist(err) {
		return NewBucket(id), nil
	}
	if err != nil {
		return nil, NewLoaderIOError("read", id, path, err)
	}

	bucket := NewBucket(id)
	if err := s.marshaller.Unmarshal(data, bucket); err != nil {
		return nil, NewLoaderIOError("unmarshal", id, path, err)
	}
	if bucket.Entries == nil {
		bucket.Entries = make(map[string]*Entry)
	}
	return bucket, nil
}

// LoadBucket returns a read-only snapshot of bucket id. A missing bucket
// file returns ErrBucketNotFound, not an empty Bucket — unlike
// UpdateBucket, a read has no reason to materialize an absent bucket.
// LoadBucket is interruption-aware: a context already cancelled when the
// call is made aborts with a soft (nil, nil) result rather than an error,
// the same as loopOverBuckets and purgeExpired.
func (s *Store) LoadBucket(ctx context.Context, id string) (*Bucket, error) {
	if s.isClosed() {
		return nil, ErrStoreClosed
	}

	if err := ctx.Err(); err != nil {
		logger.DebugCtx(ctx, "bucketstore load interrupted", logger.KeyBucketID, id)
		return nil, nil
	}

	ctx, span := telemetry.StartBucketSpan(ctx, telemetry.SpanLoadBucket, id)
	defer span.End()
	start := time.Now()

	lock := s.lockFor(id)
	lock.RLock()
	defer lock.RUnlock()

	path := s.bucketPath(id)
	data, err := s.flushAndRead(path)
	if os.IsNotExist(err) {
		return nil, ErrBucketNotFound
	}
	if err != nil {
		wrapped := NewLoaderIOError("read", id, path, err)
		telemetry.RecordError(ctx, wrapped)
		return nil, wrapped
	}

	bucket := NewBucket(id)
	if err := s.marshaller.Unmarshal(data, bucket); err != nil {
		wrapped := NewLoaderIOError("unmarshal", id, path, err)
		telemetry.RecordError(ctx, wrapped)
		return nil, wrapped
	}

	s.metrics.ObserveRead(id, int64(len(data)), time.Since(start))
	telemetry.SetAttributes(ctx, telemetry.Size(int64(len(data))))
	return bucket, nil
}

// Clear removes every bucket file in the store.
func (s *Store) Clear(ctx context.Context) error {
	if s.isClosed() {
		return ErrStoreClosed
	}

	_, span := telemetry.StartBucketSpan(ctx, telemetry.SpanClear, "")
	defer span.End()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		wrapped := NewLoaderIOError("list", "", s.root, err)
		telemetry.RecordError(ctx, wrapped)
		return wrapped
	}

	var firstErr error
	for _, entry := range entries {
		id, ok := bucketIDFromFilename(entry.Name())
		if !ok {
			continue
		}
		lock := s.lockFor(id)
		lock.Lock()
		path := s.bucketPath(id)
		if err := s.fileSync.Purge(path); err != nil {
			wrapped := NewLoaderIOError("purge", id, path, err)
			logger.WarnCtx(ctx, "bucketstore clear failed for bucket", logger.KeyBucketID, id, logger.KeyError, err.Error())
			if firstErr == nil {
				firstErr = wrapped
			}
		}
		lock.Unlock()
	}

	s.metrics.RecordBucketCount(0)
	if firstErr != nil {
		telemetry.RecordError(ctx, firstErr)
	}
	return firstErr
}

// LoopOverBuckets visits every bucket in the store, stopping early if fn
// returns false. Buckets are visited in file-name order (os.ReadDir returns
// directory entries sorted by name). LoopOverBuckets is
// interruption-aware: a context cancellation mid-loop aborts the sweep and
// returns nil, not the cancellation error — it is logged at debug, not
// surfaced as a failure. A single bucket's load failure is logged and
// skipped rather than aborting the rest of the sweep.
func (s *Store) LoopOverBuckets(ctx context.Context, fn func(id string, b *Bucket) bool) error {
	if s.isClosed() {
		return ErrStoreClosed
	}

	ids, err := s.bucketIDs()
	if err != nil {
		return err
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			logger.DebugCtx(ctx, "bucketstore loop interrupted", logger.KeyBucketID, id)
			return nil
		}

		bucket, err := s.LoadBucket(ctx, id)
		if err == ErrBucketNotFound {
			continue // purged between listing and load
		}
		if err != nil {
			logger.WarnCtx(ctx, "bucketstore loop failed to load bucket", logger.KeyBucketID, id, logger.KeyError, err.Error())
			continue
		}
		if bucket == nil {
			// LoadBucket observed the same interruption between our check
			// above and its own; stop the sweep the same way.
			return nil
		}
		if !fn(id, bucket) {
			break
		}
	}
	return nil
}

func (s *Store) bucketIDs() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, NewLoaderIOError("list", "", s.root, err)
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if id, ok := bucketIDFromFilename(entry.Name()); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// PurgeExpired sweeps every bucket, removing expired entries, and returns
// the total number of entries removed. Buckets left empty by the sweep are
// purged from disk rather than rewritten empty.
func (s *Store) PurgeExpired(ctx context.Context) (int, error) {
	return s.purgeExpired(ctx, 1)
}

// PurgeExpiredParallel is PurgeExpired run across workers goroutines, one
// per bucket at a time, bounded by a worker pool. A workers value <= 1
// behaves exactly like PurgeExpired.
func (s *Store) PurgeExpiredParallel(ctx context.Context, workers int) (int, error) {
	return s.purgeExpired(ctx, workers)
}

func (s *Store) purgeExpired(ctx context.Context, workers int) (int, error) {
	if s.isClosed() {
		return 0, ErrStoreClosed
	}

	ctx, span := telemetry.StartBucketSpan(ctx, telemetry.SpanPurgeExpired, "")
	defer span.End()
	start := time.Now()

	ids, err := s.bucketIDs()
	if err != nil {
		telemetry.RecordError(ctx, err)
		return 0, err
	}

	if workers < 1 {
		workers = 1
	}

	// One goroutine per bucket, bounded by workers via errgroup.SetLimit —
	// the same bounded-fan-out shape the corpus reaches for whenever it
	// needs a worker pool rather than unbounded goroutines per item.
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	var (
		mu           sync.Mutex
		totalRemoved int
	)

	for _, id := range ids {
		id := id
		group.Go(func() error {
			// Only the caller's own cancellation stops the sweep early — a
			// sibling bucket's failure below is logged and never returned
			// to the group, so it can't cancel gctx and skip buckets that
			// haven't started yet.
			if err := gctx.Err(); err != nil {
				return err
			}
			removed, err := s.purgeOne(ctx, id)
			mu.Lock()
			totalRemoved += removed
			mu.Unlock()
			if err != nil {
				logger.WarnCtx(ctx, "bucketstore purge failed for bucket", logger.KeyBucketID, id, logger.KeyError, err.Error())
			}
			return nil
		})
	}

	firstErr := group.Wait()

	// purgeExpired is interruption-aware (spec): a cancellation propagated
	// through the group's derived context aborts the sweep with whatever
	// was removed before the cancellation, not an error visible to the
	// caller. Per-bucket failures never reach here — they're logged above
	// and the sweep continues.
	if errors.Is(firstErr, context.Canceled) || errors.Is(firstErr, context.DeadlineExceeded) {
		logger.DebugCtx(ctx, "bucketstore purge interrupted")
		firstErr = nil
	}

	s.metrics.ObservePurge("", totalRemoved, time.Since(start))
	telemetry.SetAttributes(ctx, telemetry.Removed(totalRemoved))
	if firstErr != nil {
		telemetry.RecordError(ctx, firstErr)
		telemetry.SetStatus(ctx, codes.Error, firstErr.Error())
	}
	return totalRemoved, firstErr
}

// purgeOne sweeps a single bucket for expired entries. The per-bucket lock
// is always released in the same call that took it (Open Question #3): no
// code path anywhere unlocks without having locked first.
func (s *Store) purgeOne(ctx context.Context, id string) (int, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	path := s.bucketPath(id)
	bucket, err := s.readBucketLocked(id, path)
	if err != nil {
		return 0, err
	}

	removed := bucket.PurgeExpired(time.Now())
	if removed == 0 {
		return 0, nil
	}

	if bucket.Empty() {
		if err := s.fileSync.Purge(path); err != nil {
			// The file on disk still holds the pre-purge entries; report
			// nothing removed rather than a count the persisted state
			// doesn't back up.
			return 0, NewLoaderIOError("purge", id, path, err)
		}
		return removed, nil
	}

	data, err := s.marshaller.Marshal(bucket)
	if err != nil {
		return 0, NewLoaderIOError("marshal", id, path, err)
	}
	if err := s.fileSync.Write(data, path); err != nil {
		var deferredErr *filesync.DeferredFlushError
		if asDeferredFlush(err, &deferredErr) {
			// The write itself succeeded (buffered); the error is about an
			// earlier, unrelated flush. This purge's removals did land.
			s.metrics.RecordFlushError(deferredErr.Path)
			logger.Warn("bucketstore deferred flush error during purge", logger.KeyPath, deferredErr.Path, logger.KeyError, deferredErr.Err.Error())
			return removed, nil
		}
		return 0, NewLoaderIOError("write", id, path, err)
	}
	return removed, nil
}
