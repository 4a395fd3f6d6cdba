package config

import (
	"fmt"

	"github.com/cachebarn/fcstore/pkg/bucketstore/filesync"
)

// BuildFileSync constructs the filesync.FileSync backend selected by
// cfg.FsyncMode, the same factory-from-config shape the corpus uses for
// its own pluggable stores (CreateBlockStore, createMetadataStore).
func BuildFileSync(cfg *Config) (filesync.FileSync, error) {
	switch cfg.FsyncMode {
	case FsyncBuffered, "":
		return filesync.NewBuffered(0, 0), nil
	case FsyncPerWrite:
		return filesync.NewPerWrite(0, 0), nil
	case FsyncPeriodic:
		return filesync.NewPeriodic(cfg.FsyncInterval, 0, 0), nil
	default:
		return nil, fmt.Errorf("fcstore: unknown fsync_mode %q", cfg.FsyncMode)
	}
}
