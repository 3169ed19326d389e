// Package binary provides bounds-checked binary reading primitives over a
// seekable stream, plus the identifier scanner shared by the tag locators.
package binary

import (
	"errors"
	"fmt"
	"io"

	"github.com/simonhull/audiotag/internal/types"
)

// cacheSize is the read-ahead window kept by a Cursor.
const cacheSize = 4096

// Cursor is a seekable read/seek/position abstraction over an
// io.ReadSeeker with bounds checking and helpful error messages.
//
// The logical position is tracked by the Cursor itself; the underlying
// stream is always repositioned before it is read. Small reads are served
// from a read-ahead window so byte-at-a-time scanners stay cheap.
type Cursor struct {
	r       io.ReadSeeker
	path    string
	cache   []byte
	size    int64
	pos     int64
	cacheAt int64
}

// NewCursor creates a Cursor positioned at offset 0. The stream length is
// determined by seeking to its end.
func NewCursor(r io.ReadSeeker, path string) (*Cursor, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("%s: determine stream size: %w", path, err)
	}
	return &Cursor{r: r, path: path, size: size}, nil
}

// Path returns the path associated with this cursor (may be empty).
func (c *Cursor) Path() string {
	return c.path
}

// Length returns the stream length in bytes.
func (c *Cursor) Length() int64 {
	return c.size
}

// Position returns the current logical offset.
func (c *Cursor) Position() int64 {
	return c.pos
}

// Seek moves the cursor to an absolute offset in [0, Length()].
func (c *Cursor) Seek(off int64) error {
	if off < 0 || off > c.size {
		return &types.TruncatedError{Path: c.path, What: "seek target", Offset: off, Size: c.size}
	}
	c.pos = off
	return nil
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int64) error {
	return c.Seek(c.pos + n)
}

// Read fills b from the current position and advances past it.
func (c *Cursor) Read(b []byte, what string) error {
	if err := c.ReadAt(b, c.pos, what); err != nil {
		return err
	}
	c.pos += int64(len(b))
	return nil
}

// ReadAt fills b from the given offset without moving the cursor.
func (c *Cursor) ReadAt(b []byte, off int64, what string) error {
	if off < 0 || off >= c.size {
		if len(b) == 0 && off == c.size {
			return nil
		}
		return &types.TruncatedError{Path: c.path, What: what, Offset: off, Length: len(b), Size: c.size}
	}
	if off+int64(len(b)) > c.size {
		return &types.TruncatedError{Path: c.path, What: what, Offset: off, Length: len(b), Size: c.size}
	}

	if c.cache != nil && off >= c.cacheAt && off+int64(len(b)) <= c.cacheAt+int64(len(c.cache)) {
		copy(b, c.cache[off-c.cacheAt:])
		return nil
	}

	if len(b) >= cacheSize {
		return c.readDirect(b, off, what)
	}

	n := int64(cacheSize)
	if off+n > c.size {
		n = c.size - off
	}
	buf := make([]byte, n)
	if err := c.readDirect(buf, off, what); err != nil {
		return err
	}
	c.cache, c.cacheAt = buf, off
	copy(b, buf)
	return nil
}

func (c *Cursor) readDirect(b []byte, off int64, what string) error {
	if _, err := c.r.Seek(off, io.SeekStart); err != nil {
		return fmt.Errorf("%s: seek to %d for %s: %w", c.path, off, what, err)
	}
	n, err := io.ReadFull(c.r, b)
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: short read for %s at offset %d: got %d bytes, expected %d",
			c.path, what, off, n, len(b))
	}
	if err != nil {
		return fmt.Errorf("%s: failed to read %s at offset %d: %w", c.path, what, off, err)
	}
	return nil
}

// ReadByte reads one byte and advances. It returns io.EOF at the end of the
// stream so byte scanners can use it as their loop guard.
func (c *Cursor) ReadByte() (byte, error) {
	if c.pos >= c.size {
		return 0, io.EOF
	}
	var b [1]byte
	if err := c.ReadAt(b[:], c.pos, "byte"); err != nil {
		return 0, err
	}
	c.pos++
	return b[0], nil
}

// Bytes reads n bytes at the current position and advances.
func (c *Cursor) Bytes(n int, what string) ([]byte, error) {
	if n < 0 {
		return nil, &types.TruncatedError{Path: c.path, What: what, Offset: c.pos, Length: n, Size: c.size}
	}
	buf := make([]byte, n)
	if err := c.Read(buf, what); err != nil {
		return nil, err
	}
	return buf, nil
}

// Read reads a big-endian value of type T at the given offset.
// T must be uint8, uint16, uint32, or uint64.
func Read[T uint8 | uint16 | uint32 | uint64](c *Cursor, off int64, what string) (T, error) {
	return ReadEndian[T](c, off, what, BigEndian)
}

// ChainReader allows chaining multiple sequential reads with deferred error
// checking. This avoids repetitive "if err != nil" checks when decoding
// fixed-layout headers.
type ChainReader struct {
	c      *Cursor
	err    error
	endian Endianness
}

// NewChainReader creates a ChainReader reading from the cursor position.
func NewChainReader(c *Cursor, endian Endianness) *ChainReader {
	return &ChainReader{c: c, endian: endian}
}

// ReadChained reads a value with deferred error checking.
// If a previous read failed, returns zero value without attempting read.
func ReadChained[T uint8 | uint16 | uint32 | uint64](cr *ChainReader, what string) T {
	if cr.err != nil {
		var zero T
		return zero
	}

	off := cr.c.Position()
	val, err := ReadEndian[T](cr.c, off, what, cr.endian)
	if err != nil {
		cr.err = err
		var zero T
		return zero
	}
	cr.err = cr.c.Seek(off + int64(sizeOf[T]()))
	return val
}

// Bytes reads n raw bytes, accumulating any error.
func (cr *ChainReader) Bytes(n int, what string) []byte {
	if cr.err != nil {
		return nil
	}

	b, err := cr.c.Bytes(n, what)
	if err != nil {
		cr.err = err
		return nil
	}
	return b
}

// Error returns the accumulated error, if any.
func (cr *ChainReader) Error() error {
	return cr.err
}
