package ogg

import (
	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

// Magic starts every Ogg page.
const Magic = "OggS"

// Page header flags
const (
	FlagContinued = 0x01
	FlagBOS       = 0x02
	FlagEOS       = 0x04
)

const pageHeaderSize = 27

// Page is an Ogg page.
//
// An Ogg page is the fundamental unit of the Ogg container format. Its
// payload is split into segments of at most 255 bytes; a segment shorter
// than 255 ends a packet.
type Page struct {
	Offset          int64
	HeaderType      byte   // Bit flags: 0x01=continued, 0x02=BOS, 0x04=EOS
	GranulePosition int64  // Position in samples
	SerialNumber    uint32 // Logical bitstream identifier
	SequenceNumber  uint32
	Segments        []byte
	Data            []byte
}

// DataOffset returns the stream offset of the page payload.
func (p *Page) DataOffset() int64 {
	return p.Offset + pageHeaderSize + int64(len(p.Segments))
}

// End returns the offset of the next page.
func (p *Page) End() int64 {
	return p.DataOffset() + int64(len(p.Data))
}

// readPage reads the Ogg page at offset.
func readPage(c *binary.Cursor, offset int64) (*Page, error) {
	header := make([]byte, pageHeaderSize)
	if err := c.ReadAt(header, offset, "Ogg page header"); err != nil {
		return nil, err
	}
	if string(header[:4]) != Magic {
		return nil, &types.MalformedError{Path: c.Path(), Format: types.FormatVorbis, Offset: offset, Reason: "missing OggS capture pattern"}
	}
	if header[4] != 0 {
		return nil, &types.MalformedError{Path: c.Path(), Format: types.FormatVorbis, Offset: offset + 4, Reason: "unsupported Ogg version"}
	}

	p := &Page{
		Offset:          offset,
		HeaderType:      header[5],
		GranulePosition: int64(binary.Decode[uint64](header[6:], binary.LittleEndian)),
		SerialNumber:    binary.Decode[uint32](header[14:], binary.LittleEndian),
		SequenceNumber:  binary.Decode[uint32](header[18:], binary.LittleEndian),
		Segments:        make([]byte, header[26]),
	}
	if err := c.ReadAt(p.Segments, offset+pageHeaderSize, "segment table"); err != nil {
		return nil, err
	}

	size := 0
	for _, seg := range p.Segments {
		size += int(seg)
	}
	p.Data = make([]byte, size)
	if err := c.ReadAt(p.Data, p.DataOffset(), "page data"); err != nil {
		return nil, err
	}
	return p, nil
}
