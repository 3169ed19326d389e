// Package ogg locates the comment header of an Ogg Vorbis, Opus or FLAC
// logical stream.
package ogg

import (
	"bytes"
	"fmt"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
	"github.com/simonhull/audiotag/internal/vorbis"
)

// Codec names
const (
	CodecVorbis = "vorbis"
	CodecOpus   = "opus"
	CodecFLAC   = "flac"
)

// maxHeaderPages bounds the page walk looking for the comment packet.
const maxHeaderPages = 256

// Tag is the Vorbis comment of an Ogg stream.
type Tag struct {
	*vorbis.Comment
	Codec string
}

func (t *Tag) String() string {
	return fmt.Sprintf("Ogg %s: %v", t.Codec, t.Comment)
}

// packet is a reassembled packet with the page range it was carried in.
type packet struct {
	data      []byte
	dataStart int64 // stream offset of the first payload byte
	pageStart int64
	pageEnd   int64
}

// detectCodec identifies the codec from the first packet of a stream.
func detectCodec(first []byte) string {
	switch {
	case bytes.HasPrefix(first, []byte("\x01vorbis")):
		return CodecVorbis
	case bytes.HasPrefix(first, []byte("OpusHead")):
		return CodecOpus
	case bytes.HasPrefix(first, []byte("\x7fFLAC")):
		return CodecFLAC
	}
	return ""
}

// commentPrefix returns the bytes preceding the comment body in the second
// packet of a codec.
func commentPrefix(codec string, p []byte) (int, bool) {
	switch codec {
	case CodecVorbis:
		return 7, bytes.HasPrefix(p, []byte("\x03vorbis"))
	case CodecOpus:
		return 8, bytes.HasPrefix(p, []byte("OpusTags"))
	case CodecFLAC:
		// A FLAC metadata block header of type VORBIS_COMMENT.
		return 4, len(p) >= 4 && p[0]&0x7F == 4
	}
	return 0, false
}

// Read locates the comment header of the Ogg stream starting at anchor.
// The returned range covers the pages that carry the comment packet.
// Pages of other logical streams are skipped.
func Read(c *binary.Cursor, anchor int64, opts *types.ReadOptions) (types.TagOffset, bool, error) {
	magic := make([]byte, len(Magic))
	if c.ReadAt(magic, anchor, "Ogg magic") != nil || string(magic) != Magic {
		return types.TagOffset{}, false, nil
	}

	first, err := readPage(c, anchor)
	if err != nil {
		return types.TagOffset{}, false, opts.Fail("pages", anchor, err)
	}
	if first.HeaderType&FlagBOS == 0 {
		opts.Warn("pages", anchor, "first page lacks the beginning-of-stream flag")
	}

	packets, err := collect(c, first, 2, opts)
	if err != nil {
		return types.TagOffset{}, false, opts.Fail("pages", anchor, err)
	}
	if len(packets) == 0 {
		return types.TagOffset{}, false, nil
	}

	codec := detectCodec(packets[0].data)
	if codec == "" {
		opts.Debug("ogg stream codec carries no comment header", "offset", anchor)
		return types.TagOffset{}, false, nil
	}
	if len(packets) < 2 {
		terr := &types.TruncatedError{Path: c.Path(), What: "Ogg comment packet", Offset: packets[0].pageEnd, Size: c.Length()}
		return types.TagOffset{}, false, opts.Fail("pages", anchor, terr)
	}

	p := packets[1]
	skip, ok := commentPrefix(codec, p.data)
	if !ok {
		merr := &types.MalformedError{Path: c.Path(), Format: types.FormatVorbis, Offset: p.dataStart, Reason: codec + " comment header not found"}
		return types.TagOffset{}, false, opts.Fail("pages", p.dataStart, merr)
	}
	body := p.data[skip:]
	if codec == CodecFLAC {
		body = body[:min(len(body), int(binary.Decode[uint32](p.data, binary.BigEndian)&0xFFFFFF))]
	}

	vc, err := vorbis.Parse(body, c.Path(), p.dataStart+int64(skip), opts)
	if err != nil {
		return types.TagOffset{}, false, err
	}
	if codec == CodecVorbis && !vc.Framed {
		opts.Warn("comments", p.dataStart, "Vorbis comment header framing bit not set")
	}

	return types.TagOffset{
		Tag:    &Tag{Comment: vc, Codec: codec},
		Origin: types.OriginStart,
		Format: types.FormatVorbis,
		Start:  p.pageStart,
		End:    p.pageEnd,
	}, true, nil
}

// collect reassembles the first n packets of the logical stream that first
// belongs to. A short read ends the walk; the packets found so far are
// returned.
func collect(c *binary.Cursor, first *Page, n int, opts *types.ReadOptions) ([]packet, error) {
	var (
		packets []packet
		cur     *packet
		size    int64
	)
	page := first
	for i := 0; ; i++ {
		pos := 0
		for _, seg := range page.Segments {
			if cur == nil {
				cur = &packet{dataStart: page.DataOffset() + int64(pos), pageStart: page.Offset}
			}
			cur.data = append(cur.data, page.Data[pos:pos+int(seg)]...)
			pos += int(seg)
			size += int64(seg)
			if size > opts.Cap() {
				return packets, &types.MalformedError{
					Path:   c.Path(),
					Format: types.FormatVorbis,
					Offset: page.Offset,
					Reason: fmt.Sprintf("header packets exceed limit %d", opts.Cap()),
				}
			}
			if seg == 255 {
				continue
			}
			cur.pageEnd = page.End()
			packets = append(packets, *cur)
			cur = nil
			if len(packets) == n {
				return packets, nil
			}
		}
		if page.HeaderType&FlagEOS != 0 || i >= maxHeaderPages {
			return packets, nil
		}

		next, err := nextPage(c, page.End(), first.SerialNumber)
		if err != nil {
			if len(packets) > 0 {
				opts.Debug("ogg page walk stopped", "offset", page.End(), "error", err)
				return packets, nil
			}
			return nil, err
		}
		if cur != nil && next.HeaderType&FlagContinued == 0 {
			opts.Warn("pages", next.Offset, "unterminated packet dropped")
			cur = nil
		}
		page = next
	}
}

// nextPage returns the next page at or after offset belonging to serial.
func nextPage(c *binary.Cursor, offset int64, serial uint32) (*Page, error) {
	for {
		p, err := readPage(c, offset)
		if err != nil {
			return nil, err
		}
		if p.SerialNumber == serial {
			return p, nil
		}
		offset = p.End()
	}
}
