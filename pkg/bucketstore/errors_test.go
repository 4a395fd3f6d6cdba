package bucketstore

import (
	"errors"
	"testing"

	"github.com/cachebarn/fcstore/pkg/bucketstore/filesync"
	"github.com/stretchr/testify/assert"
)

func TestConfigurationErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &ConfigurationError{Root: "/tmp/x", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "/tmp/x")
}

func TestLoaderIOErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewLoaderIOError("write", "b1", "/tmp/b1.dat", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "write")
	assert.Contains(t, err.Error(), "b1")
}

func TestDeferredFlushErrorIsFilesyncType(t *testing.T) {
	cause := errors.New("flush failed")
	var err error = &filesync.DeferredFlushError{Path: "/tmp/b1.dat", Err: cause}

	var target *DeferredFlushError
	assert.True(t, errors.As(err, &target))
	assert.ErrorIs(t, err, cause)
}
