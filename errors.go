package filecache

import platformerrors "github.com/jmgilman/go/errors"

// ErrNotFound is returned when a key has no cached file.
var ErrNotFound = platformerrors.New(platformerrors.CodeNotFound, "cache entry not found")

// ErrClosed is returned when writing to a cache after Close.
var ErrClosed = platformerrors.New(platformerrors.CodeUnavailable, "cache is closed")

// ErrWriterClosed is returned when writing to a Writer after Close or Abort.
var ErrWriterClosed = platformerrors.New(platformerrors.CodeInvalidInput, "cache writer is closed")
