package filesync

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// bufferedFile is one path's slot in the open-channel table: the bytes
// written since the last Flush, plus enough state to make Purge and Stop
// safe against a concurrent Write for the same path.
type bufferedFile struct {
	mu      sync.Mutex
	data    []byte
	dirty   bool
	deleted bool
	closed  bool // set by Purge/Stop; a Write racing past this recreates the slot
}

// Buffered accumulates writes in memory per path and only touches disk on
// Flush, trading durability for write throughput. The open-channel table
// (here a sync.Map keyed by path) uses insert-if-absent on first Write for
// a path and a compare-and-swap style replace if the slot was closed out
// from under a racing writer — the same shape as the corpus's
// sync.Map-backed lock tables (pkg/store/metadata/badger/locks.go,
// internal/adapter/smb/session/manager.go GetOrCreateSession).
type Buffered struct {
	table    sync.Map // path -> *bufferedFile
	dirMode  os.FileMode
	fileMode os.FileMode
}

// NewBuffered returns a Buffered backend. dirMode/fileMode default to
// 0755/0644 when zero.
func NewBuffered(dirMode, fileMode os.FileMode) *Buffered {
	if dirMode == 0 {
		dirMode = 0o755
	}
	if fileMode == 0 {
		fileMode = 0o644
	}
	return &Buffered{dirMode: dirMode, fileMode: fileMode}
}

// slotFor returns the bufferedFile for path, creating one if absent or if
// the previously stored slot was closed (Purge/Stop raced ahead of us).
func (b *Buffered) slotFor(path string) *bufferedFile {
	for {
		v, loaded := b.table.LoadOrStore(path, &bufferedFile{})
		slot := v.(*bufferedFile)
		if !loaded {
			return slot
		}

		slot.mu.Lock()
		closed := slot.closed
		slot.mu.Unlock()
		if !closed {
			return slot
		}

		// The stored slot was torn down; replace it with a fresh one only
		// if nobody else has already done so.
		fresh := &bufferedFile{}
		if b.table.CompareAndSwap(path, slot, fresh) {
			return fresh
		}
		// Someone else replaced it first; loop and read whatever is there now.
	}
}

func (b *Buffered) Write(data []byte, path string) error {
	slot := b.slotFor(path)

	slot.mu.Lock()
	defer slot.mu.Unlock()
	slot.data = append([]byte(nil), data...)
	slot.dirty = true
	slot.deleted = len(data) == 0
	return nil
}

// Flush writes whatever is currently buffered for path to disk. Flushing a
// path with no pending writes (nothing buffered since the last flush) is a
// no-op, not an error.
func (b *Buffered) Flush(path string) error {
	v, ok := b.table.Load(path)
	if !ok {
		return nil
	}
	slot := v.(*bufferedFile)

	slot.mu.Lock()
	defer slot.mu.Unlock()

	if !slot.dirty {
		return nil
	}

	if slot.deleted {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("filesync: remove %q: %w", path, err)
		}
		slot.dirty = false
		return nil
	}

	if err := writeAtomic(path, slot.data, b.dirMode, b.fileMode); err != nil {
		return err
	}
	slot.dirty = false
	return nil
}

// Purge truncates the on-disk file to empty rather than unlinking it, so a
// channel table entry that outlives the purge (a racing Write) never
// observes a missing file where the table still thinks one exists.
func (b *Buffered) Purge(path string) error {
	v, loaded := b.table.LoadOrStore(path, &bufferedFile{})
	slot := v.(*bufferedFile)

	slot.mu.Lock()
	slot.data = nil
	slot.dirty = false
	slot.deleted = false
	slot.closed = true
	slot.mu.Unlock()

	if !loaded {
		// A fresh slot never had a file written for it.
	}

	if err := os.Truncate(path, 0); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("filesync: truncate %q: %w", path, err)
	}
	return nil
}

// Stop flushes every outstanding buffer and tears down the channel table.
func (b *Buffered) Stop() {
	b.table.Range(func(key, value any) bool {
		path := key.(string)
		slot := value.(*bufferedFile)

		slot.mu.Lock()
		dirty, deleted, data := slot.dirty, slot.deleted, slot.data
		slot.closed = true
		slot.mu.Unlock()

		if dirty {
			if deleted {
				os.Remove(path)
			} else {
				writeAtomic(path, data, b.dirMode, b.fileMode)
			}
		}
		return true
	})
}

// writeAtomic writes data to path via a temp-file-then-rename, the same
// pattern as PerWrite and the corpus's pkg/payload/store/fs/store.go
// WriteBlock.
func writeAtomic(path string, data []byte, dirMode, fileMode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return fmt.Errorf("filesync: mkdir %q: %w", filepath.Dir(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, fileMode); err != nil {
		return fmt.Errorf("filesync: write %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("filesync: rename %q to %q: %w", tmp, path, err)
	}
	return nil
}
