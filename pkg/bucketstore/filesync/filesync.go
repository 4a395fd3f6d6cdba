// Package filesync implements the three durability back-ends a bucket store
// can be configured with: PerWrite, Buffered and Periodic. Each trades
// durability for throughput differently; all three present the same
// FileSync contract so the store never needs to know which one is active.
package filesync

// FileSync is the durability contract a bucket store writes through. Write
// with an empty data slice deletes the file at path — there is no separate
// delete method, mirroring the corpus's own "empty write is a delete"
// convention for small on-disk records.
type FileSync interface {
	// Write persists data at path. An empty data deletes the file.
	Write(data []byte, path string) error

	// Flush forces any buffered write for path to reach disk. PerWrite's
	// Flush is a no-op since every Write already reached disk.
	Flush(path string) error

	// Purge discards any buffered content for path and clears the on-disk
	// file ahead of Write ever being called again for that path. PerWrite
	// deletes the file; Buffered (and Periodic, which embeds it) truncates
	// it to zero length and keeps the path's channel table slot, marked
	// closed.
	Purge(path string) error

	// Stop releases background resources (tickers, goroutines). Safe to
	// call more than once.
	Stop()
}
