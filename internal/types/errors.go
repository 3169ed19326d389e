package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is matching across the typed errors below.
var (
	ErrTruncated  = errors.New("truncated")
	ErrMalformed  = errors.New("malformed")
	ErrDependency = errors.New("frame dependency violation")
)

// TruncatedError is returned when the stream is shorter than a structurally
// required region.
type TruncatedError struct {
	Path   string
	What   string
	Offset int64
	Length int
	Size   int64
}

func (e *TruncatedError) Error() string {
	var msg string
	switch {
	case e.Offset < 0:
		msg = fmt.Sprintf("%s of %d bytes would start %d bytes before the stream", e.What, e.Length, -e.Offset)
	case e.Offset >= e.Size:
		msg = fmt.Sprintf("offset %d out of bounds (stream size: %d) while reading %s", e.Offset, e.Size, e.What)
	default:
		msg = fmt.Sprintf("read of %d bytes at offset %d would exceed stream size %d while reading %s",
			e.Length, e.Offset, e.Size, e.What)
	}
	return withPath(e.Path, msg)
}

// withPath prefixes msg with path when there is one.
func withPath(path, msg string) string {
	if path == "" {
		return msg
	}
	return path + ": " + msg
}

// Unwrap lets errors.Is(err, ErrTruncated) match.
func (e *TruncatedError) Unwrap() error { return ErrTruncated }

// MalformedError is returned when a structure fails validation: bad reserved
// bytes, out-of-range sizes, invalid keys, undefined flag bits.
type MalformedError struct {
	Path   string
	Format Format
	Reason string
	Offset int64
}

func (e *MalformedError) Error() string {
	return withPath(e.Path, fmt.Sprintf("malformed %s at offset %d: %s", e.Format, e.Offset, e.Reason))
}

// Unwrap lets errors.Is(err, ErrMalformed) match.
func (e *MalformedError) Unwrap() error { return ErrMalformed }

// DependencyViolationError is returned when a frame mutation would leave a
// dependent frame without the frame it requires.
type DependencyViolationError struct {
	Op        string // "add", "remove" or "replace"
	Dependent string
	Required  string
}

func (e *DependencyViolationError) Error() string {
	if e.Op == "remove" {
		return fmt.Sprintf("cannot remove %s: %s depends on it", e.Required, e.Dependent)
	}
	return fmt.Sprintf("cannot %s %s: requires %s", e.Op, e.Dependent, e.Required)
}

// Unwrap lets errors.Is(err, ErrDependency) match.
func (e *DependencyViolationError) Unwrap() error { return ErrDependency }

// Warning represents a non-fatal issue encountered during parsing.
//
// In lenient mode truncated or malformed structures are reported as
// warnings and whatever could be recovered is kept. Examples include:
//   - A tag whose declared size runs past the end of the stream
//   - An APE item whose value size had to be corrected
//   - An ID3v2 frame with an invalid identifier
//
// Warnings are collected in File.Warnings during parsing.
type Warning struct {
	// Stage where the warning occurred
	Stage string // "locate", "items", "frames", "text"

	// Warning message
	Message string

	// Stream offset where the issue occurred (0 if not applicable)
	Offset int64
}

// String returns a human-readable warning message.
func (w Warning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("%s (at offset %d): %s", w.Stage, w.Offset, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}

// UnsupportedWriteError indicates write is not supported for this format.
type UnsupportedWriteError struct {
	Reason string
	Format Format
}

func (e *UnsupportedWriteError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("write not supported for %s: %s", e.Format, e.Reason)
	}
	return fmt.Sprintf("write not supported for %s", e.Format)
}
