package ape

import (
	"errors"
	"io"

	"github.com/simonhull/audiotag/internal/binary"
)

// minRecordLen is size(4) + flags(4) + a two-byte key + terminator.
const minRecordLen = 11

// Item scanner states.
const (
	scanSize = iota
	scanFlags
	scanKey
)

// FindNextRecordOffset scans forward from the cursor for the next byte
// offset at which a structurally valid item record begins, searching no
// further than bound.
//
// A record is valid when its declared value size is in [1, maxSize), its
// flags use only defined bits with a defined item type, and its key is a
// valid item key followed by a 0x00 terminator. Every failed attempt
// restarts one byte after the attempt's start, so a record that begins
// inside the previous attempt's bytes is still found.
//
// On success extra is the distance from the original position to the
// record, and the cursor is left at the record. Otherwise the cursor is
// restored.
func FindNextRecordOffset(c *binary.Cursor, bound, maxSize int64) (extra int64, found bool, err error) {
	origin := c.Position()
	bound = min(bound, c.Length())

	for start := origin; start+minRecordLen <= bound; start++ {
		if err := c.Seek(start); err != nil {
			return 0, false, err
		}
		ok, err := scanRecord(c, bound, maxSize)
		if err != nil {
			_ = c.Seek(origin) //nolint:errcheck // origin was valid when read
			return 0, false, err
		}
		if ok {
			return start - origin, true, c.Seek(start)
		}
	}

	return 0, false, c.Seek(origin)
}

// scanRecord runs the size/flags/key state machine from the cursor. It
// stops as soon as the bytes seen so far cannot begin a valid record.
func scanRecord(c *binary.Cursor, bound, maxSize int64) (bool, error) {
	var (
		size, flags uint32
		key         []byte
		n           uint
	)
	state := scanSize

	for c.Position() < bound {
		b, err := c.ReadByte()
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, err
		}

		switch state {
		case scanSize:
			size |= uint32(b) << (8 * n)
			n++
			if n == 4 {
				if size < 1 || int64(size) >= maxSize {
					return false, nil
				}
				state, n = scanFlags, 0
			}
		case scanFlags:
			flags |= uint32(b) << (8 * n)
			n++
			if n == 4 {
				if !validItemFlags(Flags(flags)) {
					return false, nil
				}
				state = scanKey
			}
		case scanKey:
			if b == 0 {
				return ValidKey(key) == nil, nil
			}
			key = append(key, b)
			if len(key) > MaxKeyLen {
				return false, nil
			}
		}
	}

	return false, nil
}

func validItemFlags(f Flags) bool {
	return f&^itemFlagsMask == 0 && f.Type() != itemReserved
}
