// Package ape reads and writes APEv1 and APEv2 tags.
//
// An APE tag is a sequence of key/value items framed by a 32-byte footer
// and, in version 2, an optional 32-byte header of the same layout. Both
// records declare the size of items plus footer; the header itself is not
// counted. All integers are little-endian.
package ape

import (
	"bytes"
	"fmt"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/boundary"
	"github.com/simonhull/audiotag/internal/types"
)

// Record layout constants.
const (
	HeaderSize = 32
	Version1   = 1000
	Version2   = 2000
)

// Magic opens every APE header and footer.
var Magic = []byte("APETAGEX")

var recordSpec = boundary.Spec{Magic: Magic, Size: HeaderSize}

// Flags holds tag or item flags.
type Flags uint32

// Flag bits. Bits 1-2 hold the item type.
const (
	FlagReadOnly    Flags = 1 << 0
	FlagIsHeader    Flags = 1 << 29
	FlagHasNoFooter Flags = 1 << 30
	FlagHasHeader   Flags = 1 << 31

	itemTypeMask    Flags = 3 << 1
	recordFlagsMask Flags = FlagReadOnly | FlagIsHeader | FlagHasNoFooter | FlagHasHeader
	itemFlagsMask   Flags = FlagReadOnly | itemTypeMask | FlagIsHeader | FlagHasNoFooter | FlagHasHeader
)

// ItemType is the content type stored in bits 1-2 of the item flags.
type ItemType uint8

// Item types.
const (
	ItemText ItemType = iota
	ItemBinary
	ItemLocator
	itemReserved
)

func (t ItemType) String() string {
	switch t {
	case ItemText:
		return "text"
	case ItemBinary:
		return "binary"
	case ItemLocator:
		return "locator"
	default:
		return "reserved"
	}
}

// Type returns the item type encoded in f.
func (f Flags) Type() ItemType {
	return ItemType((f & itemTypeMask) >> 1)
}

// WithType returns f with its item type replaced.
func (f Flags) WithType(t ItemType) Flags {
	return f&^itemTypeMask | Flags(t)<<1&itemTypeMask
}

// Header is a decoded header or footer record.
type Header struct {
	Position  int64
	Version   uint32
	Size      uint32
	ItemCount uint32
	Flags     Flags
}

// IsHeader reports whether the record is flagged as a header.
func (h Header) IsHeader() bool {
	return h.Version == Version2 && h.Flags&FlagIsHeader != 0
}

// HasHeader reports whether the tag declares a header record.
func (h Header) HasHeader() bool {
	return h.Version == Version2 && h.Flags&FlagHasHeader != 0
}

// HasFooter reports whether the tag declares a footer record.
func (h Header) HasFooter() bool {
	return h.Version != Version2 || h.Flags&FlagHasNoFooter == 0
}

func (h Header) String() string {
	kind := "footer"
	if h.IsHeader() {
		kind = "header"
	}
	return fmt.Sprintf("APE %s v%d at %d: size=%d items=%d flags=%#08x",
		kind, h.Version, h.Position, h.Size, h.ItemCount, uint32(h.Flags))
}

// parseRecord decodes and validates the 32-byte record at off. The cursor
// is not moved.
func parseRecord(c *binary.Cursor, off int64) (Header, error) {
	var raw [HeaderSize]byte
	if err := c.ReadAt(raw[:], off, "APE header"); err != nil {
		return Header{}, err
	}

	malformed := func(format string, args ...any) (Header, error) {
		return Header{}, &types.MalformedError{
			Path:   c.Path(),
			Format: types.FormatAPE,
			Offset: off,
			Reason: fmt.Sprintf(format, args...),
		}
	}

	if !bytes.Equal(raw[:8], Magic) {
		return malformed("missing APETAGEX identifier")
	}
	h := Header{
		Position:  off,
		Version:   binary.Decode[uint32](raw[8:], binary.LittleEndian),
		Size:      binary.Decode[uint32](raw[12:], binary.LittleEndian),
		ItemCount: binary.Decode[uint32](raw[16:], binary.LittleEndian),
		Flags:     Flags(binary.Decode[uint32](raw[20:], binary.LittleEndian)),
	}
	if !isZero(raw[24:]) {
		return malformed("reserved bytes are not zero")
	}

	switch h.Version {
	case Version1:
		// APEv1 has no flags; writers leave whatever was there.
		h.Flags = 0
	case Version2:
		if h.Flags&^recordFlagsMask != 0 {
			return malformed("undefined flag bits %#08x", uint32(h.Flags&^recordFlagsMask))
		}
	default:
		return malformed("unsupported version %d", h.Version)
	}

	if h.Size < 1 {
		return malformed("declared size is zero")
	}
	return h, nil
}

// checkSize fails a record whose declared size exceeds maxSize.
func checkSize(c *binary.Cursor, h Header, maxSize int64) error {
	if int64(h.Size) <= maxSize {
		return nil
	}
	return &types.MalformedError{
		Path:   c.Path(),
		Format: types.FormatAPE,
		Offset: h.Position,
		Reason: fmt.Sprintf("declared size %d exceeds limit %d", h.Size, maxSize),
	}
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// headerProbe accepts a record flagged as a header, or a footer-shaped
// record that declares a header (some writers leave IsHeader clear).
func headerProbe(c *binary.Cursor, off int64) (Header, error) {
	h, err := parseRecord(c, off)
	if err != nil {
		return h, err
	}
	if !h.IsHeader() && !h.HasHeader() {
		return Header{}, &types.MalformedError{Path: c.Path(), Format: types.FormatAPE, Offset: off, Reason: "record is a footer"}
	}
	return h, nil
}

// footerProbe accepts only records without the IsHeader flag.
func footerProbe(c *binary.Cursor, off int64) (Header, error) {
	h, err := parseRecord(c, off)
	if err != nil {
		return h, err
	}
	if h.IsHeader() {
		return Header{}, &types.MalformedError{Path: c.Path(), Format: types.FormatAPE, Offset: off, Reason: "record is a header"}
	}
	return h, nil
}
