// Package id3v2 reads and writes ID3v2.2, 2.3 and 2.4 tags.
//
// A tag is a 10-byte header, an optional extended header, a sequence of
// frames, optional padding and, in 2.4 only, an optional 10-byte footer
// that mirrors the header with the identifier "3DI". Every size in the
// header is a synchsafe integer so the tag cannot contain a false MPEG
// sync.
package id3v2

import (
	"bytes"
	"fmt"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/boundary"
	"github.com/simonhull/audiotag/internal/synchsafe"
	"github.com/simonhull/audiotag/internal/types"
)

// HeaderSize is the size of the header and of the footer.
const HeaderSize = 10

var (
	headerMagic = []byte("ID3")
	footerMagic = []byte("3DI")

	headerSpec = boundary.Spec{Magic: headerMagic, Size: HeaderSize}
	footerSpec = boundary.Spec{Magic: footerMagic, Size: HeaderSize}
)

// Header flags.
const (
	FlagUnsynchronisation byte = 0x80
	// FlagExtendedHeader means compression in ID3v2.2.
	FlagExtendedHeader byte = 0x40
	FlagExperimental   byte = 0x20
	FlagFooter         byte = 0x10
)

// definedFlags lists the header flag bits each major version defines.
var definedFlags = [5]byte{2: 0xC0, 3: 0xE0, 4: 0xF0}

// Header is a decoded tag header or footer.
type Header struct {
	Position int64
	Major    byte
	Revision byte
	Flags    byte
	// Size excludes the header and the footer.
	Size uint32
}

// HasFooter reports whether a footer follows the tag body.
func (h Header) HasFooter() bool {
	return h.Major == 4 && h.Flags&FlagFooter != 0
}

// TagSize returns the number of bytes the whole tag occupies.
func (h Header) TagSize() int64 {
	n := int64(HeaderSize) + int64(h.Size)
	if h.HasFooter() {
		n += HeaderSize
	}
	return n
}

func (h Header) String() string {
	return fmt.Sprintf("ID3v2.%d.%d at %d: size=%d flags=%#02x", h.Major, h.Revision, h.Position, h.Size, h.Flags)
}

// parseHeader decodes and validates the header or footer record at off.
// The cursor is not moved.
func parseHeader(c *binary.Cursor, off int64, magic []byte) (Header, error) {
	var raw [HeaderSize]byte
	if err := c.ReadAt(raw[:], off, "ID3v2 header"); err != nil {
		return Header{}, err
	}

	malformed := func(format string, args ...any) (Header, error) {
		return Header{}, &types.MalformedError{
			Path:   c.Path(),
			Format: types.FormatID3v2,
			Offset: off,
			Reason: fmt.Sprintf(format, args...),
		}
	}

	if !bytes.Equal(raw[:3], magic) {
		return malformed("missing %s identifier", magic)
	}
	h := Header{Position: off, Major: raw[3], Revision: raw[4], Flags: raw[5]}
	if h.Major < 2 || h.Major > 4 || h.Revision == 0xFF {
		return malformed("unsupported version 2.%d.%d", h.Major, h.Revision)
	}
	if undefined := h.Flags &^ definedFlags[h.Major]; undefined != 0 {
		return malformed("undefined flag bits %#02x", undefined)
	}
	if !synchsafe.Valid(raw[6:10]) {
		return malformed("size is not synchsafe")
	}
	h.Size = uint32(synchsafe.DecodeBytes(raw[6:10]))
	if h.Size < 1 {
		return malformed("declared size is zero")
	}
	return h, nil
}

func headerProbe(c *binary.Cursor, off int64) (Header, error) {
	return parseHeader(c, off, headerMagic)
}

func footerProbe(c *binary.Cursor, off int64) (Header, error) {
	h, err := parseHeader(c, off, footerMagic)
	if err != nil {
		return h, err
	}
	if !h.HasFooter() {
		return Header{}, &types.MalformedError{Path: c.Path(), Format: types.FormatID3v2, Offset: off, Reason: "footer without footer flag"}
	}
	return h, nil
}
