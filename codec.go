package audiotag

import (
	"io"

	"github.com/simonhull/audiotag/internal/ape"
	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/synchsafe"
)

// EncodeSynchsafe spreads n over four 7-bit bytes. n must be below 1<<28.
func EncodeSynchsafe(n uint32) uint32 { return synchsafe.Encode(n) }

// DecodeSynchsafe reverses EncodeSynchsafe.
func DecodeSynchsafe(v uint32) uint32 { return synchsafe.Decode(v) }

// Unsynchronize inserts a zero byte after every 0xFF that is followed by a
// byte >= 0xE0 or a zero byte, and after a trailing 0xFF.
func Unsynchronize(data []byte) []byte { return synchsafe.Unsynchronize(data) }

// Resynchronize drops the zero byte following every 0xFF.
func Resynchronize(data []byte) []byte { return synchsafe.Resynchronize(data) }

// LocateAPE finds and decodes an APE tag adjacent to anchor: starting at
// it for OriginStart, ending at it for OriginEnd.
func LocateAPE(rs io.ReadSeeker, origin Origin, anchor int64, opts ...Option) (TagOffset, bool, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	c, err := binary.NewCursor(rs, "")
	if err != nil {
		return TagOffset{}, false, err
	}
	return ape.Read(c, origin, anchor, options.readOptions())
}

// FindNextAPEItem scans rs from offset for the next valid APE item record
// that starts before bound, returning its distance from offset.
func FindNextAPEItem(rs io.ReadSeeker, offset, bound int64, opts ...Option) (extra int64, found bool, err error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	c, err := binary.NewCursor(rs, "")
	if err != nil {
		return 0, false, err
	}
	if err := c.Seek(offset); err != nil {
		return 0, false, err
	}
	return ape.FindNextRecordOffset(c, bound, options.readOptions().Cap())
}
