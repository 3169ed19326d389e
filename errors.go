package audiotag

import (
	"github.com/simonhull/audiotag/internal/types"
)

// TruncatedError is returned when a structurally required region runs past
// the end of the stream.
type TruncatedError = types.TruncatedError

// MalformedError is returned when a structure fails validation.
type MalformedError = types.MalformedError

// DependencyViolationError is returned when an ID3v2 frame mutation would
// leave a dependent frame without the frame it requires.
type DependencyViolationError = types.DependencyViolationError

// UnsupportedWriteError is returned when a tag cannot be written.
type UnsupportedWriteError = types.UnsupportedWriteError

// Warning is a non-fatal issue recorded while reading.
type Warning = types.Warning

// Sentinels for errors.Is.
var (
	ErrTruncated  = types.ErrTruncated
	ErrMalformed  = types.ErrMalformed
	ErrDependency = types.ErrDependency
)
