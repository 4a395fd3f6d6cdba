package bucketstore

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cachebarn/fcstore/internal/logger"
	"github.com/cachebarn/fcstore/internal/telemetry"
	"github.com/cachebarn/fcstore/pkg/bucketstore/filesync"
)

// defaultStreamBufferSize sizes the buffered writer and reader ToStream and
// FromStream wrap around their io.Writer/io.Reader. It is fixed: the Store
// does not take ambient/config's StreamBufferSize.
const defaultStreamBufferSize = 64 * 1024

// Bulk stream wire format: a big-endian int32 file count, followed by that
// many {name, size, bytes} entries:
//
//	int32   fileCount
//	repeat fileCount times:
//	  uint16  nameLen
//	  []byte  name (UTF-8, nameLen bytes)
//	  int32   size
//	  []byte  data (size bytes)
//
// This is the format ToStream/FromStream exchange directly, and the same
// format the HTTP transfer handlers (pkg/bucketstore/transfer) stream over
// a request/response body.

// ToStream writes every bucket file in the store to w in the bulk stream
// format. It returns the total number of bytes written (file contents
// only, not framing overhead).
func (s *Store) ToStream(ctx context.Context, w io.Writer) (int64, error) {
	if s.isClosed() {
		return 0, ErrStoreClosed
	}

	ctx, span := telemetry.StartBucketSpan(ctx, telemetry.SpanToStream, "")
	defer span.End()

	ids, err := s.bucketIDs()
	if err != nil {
		telemetry.RecordError(ctx, err)
		return 0, err
	}

	bw := bufio.NewWriterSize(w, defaultStreamBufferSize)
	defer bw.Flush()
	w = bw

	if err := binary.Write(w, binary.BigEndian, int32(len(ids))); err != nil {
		wrapped := NewLoaderIOError("stream", "", "", err)
		telemetry.RecordError(ctx, wrapped)
		return 0, wrapped
	}

	var totalBytesWritten int64
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return totalBytesWritten, err
		}

		lock := s.lockFor(id)
		lock.RLock()
		path := s.bucketPath(id)
		data, readErr := s.flushAndRead(path)
		lock.RUnlock()

		if os.IsNotExist(readErr) {
			// Purged (or flushed down to zero length) between listing and
			// read. The file count is already written, so the file still
			// gets an entry, with size 0; importing it leaves no bucket.
			data, readErr = nil, nil
		}
		if readErr != nil {
			return totalBytesWritten, NewLoaderIOError("read", id, path, readErr)
		}

		name := filepath.Base(path)
		if err := writeFileEntry(w, name, data); err != nil {
			return totalBytesWritten, NewLoaderIOError("stream", id, path, err)
		}
		totalBytesWritten += int64(len(data))
	}

	if err := bw.Flush(); err != nil {
		wrapped := NewLoaderIOError("stream", "", "", err)
		telemetry.RecordError(ctx, wrapped)
		return totalBytesWritten, wrapped
	}

	telemetry.SetAttributes(ctx, telemetry.FileCount(len(ids)), telemetry.BytesWritten(totalBytesWritten))
	logger.InfoCtx(ctx, "bucketstore export complete", logger.KeyFileCount, len(ids), logger.KeyBytesWrite, totalBytesWritten)
	return totalBytesWritten, nil
}

func writeFileEntry(w io.Writer, name string, data []byte) error {
	nameBytes := []byte(name)
	if len(nameBytes) > 0xFFFF {
		return fmt.Errorf("file name %q too long for wire format", name)
	}
	if err := binary.Write(w, binary.BigEndian, uint16(len(nameBytes))); err != nil {
		return err
	}
	if _, err := w.Write(nameBytes); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, int32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// FromStream reads the bulk stream format from r and writes each file
// into the store's root directory through the active FileSync backend. It
// returns the total number of bytes read (file contents only).
//
// Open Question #1 (design notes): the per-file byte counter is a local
// variable scoped to each loop iteration, not a running accumulator
// reused across files — a short read or error on file N can never leak
// its partial count into file N+1's budget.
func (s *Store) FromStream(ctx context.Context, r io.Reader) (int64, error) {
	if s.isClosed() {
		return 0, ErrStoreClosed
	}

	ctx, span := telemetry.StartBucketSpan(ctx, telemetry.SpanFromStream, "")
	defer span.End()

	r = bufio.NewReaderSize(r, defaultStreamBufferSize)

	var fileCount int32
	if err := binary.Read(r, binary.BigEndian, &fileCount); err != nil {
		wrapped := NewLoaderIOError("stream", "", "", err)
		telemetry.RecordError(ctx, wrapped)
		return 0, wrapped
	}

	var totalBytesRead int64
	for i := int32(0); i < fileCount; i++ {
		if err := ctx.Err(); err != nil {
			return totalBytesRead, err
		}

		name, data, fileBytesRead, err := readFileEntry(r)
		totalBytesRead += fileBytesRead
		if err != nil {
			return totalBytesRead, NewLoaderIOError("stream", "", name, err)
		}

		id, ok := bucketIDFromFilename(name)
		if !ok {
			// Not a bucket file; ignore rather than fail the whole import.
			continue
		}

		lock := s.lockFor(id)
		lock.Lock()
		writeErr := s.fileSync.Write(data, s.bucketPath(id))
		lock.Unlock()

		if writeErr != nil {
			var deferredErr *filesync.DeferredFlushError
			if !asDeferredFlush(writeErr, &deferredErr) {
				return totalBytesRead, NewLoaderIOError("write", id, s.bucketPath(id), writeErr)
			}
			s.metrics.RecordFlushError(deferredErr.Path)
			logger.WarnCtx(ctx, "bucketstore deferred flush error during import", logger.KeyPath, deferredErr.Path, logger.KeyError, deferredErr.Err.Error())
		}
	}

	telemetry.SetAttributes(ctx, telemetry.FileCount(int(fileCount)), telemetry.BytesRead(totalBytesRead))
	logger.InfoCtx(ctx, "bucketstore import complete", logger.KeyFileCount, fileCount, logger.KeyBytesRead, totalBytesRead)
	return totalBytesRead, nil
}

// readFileEntry reads one {name, size, data} entry, returning the number
// of content bytes actually read even on a short-read error, so the
// caller's per-file counter (see FromStream) reflects partial progress.
func readFileEntry(r io.Reader) (name string, data []byte, bytesRead int64, err error) {
	var nameLen uint16
	if err = binary.Read(r, binary.BigEndian, &nameLen); err != nil {
		return "", nil, 0, err
	}

	nameBytes := make([]byte, nameLen)
	if _, err = io.ReadFull(r, nameBytes); err != nil {
		return "", nil, 0, err
	}
	name = string(nameBytes)

	var size int32
	if err = binary.Read(r, binary.BigEndian, &size); err != nil {
		return name, nil, 0, err
	}

	data = make([]byte, size)
	n, readErr := io.ReadFull(r, data)
	bytesRead = int64(n)
	if readErr != nil {
		return name, nil, bytesRead, readErr
	}
	return name, data, bytesRead, nil
}
