package id3v2

import (
	"fmt"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/boundary"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/synchsafe"
	"github.com/simonhull/audiotag/internal/types"
)

func init() {
	registry.Register(&reader{origin: types.OriginStart})
	registry.Register(&reader{origin: types.OriginEnd})
	registry.RegisterWriter(&writer{})
}

type reader struct {
	origin types.Origin
}

func (r *reader) Format() types.Format { return types.FormatID3v2 }
func (r *reader) Origin() types.Origin { return r.origin }

func (r *reader) Read(c *binary.Cursor, anchor int64, opts *types.ReadOptions) (types.TagOffset, bool, error) {
	return Read(c, r.origin, anchor, opts)
}

// Read locates an ID3v2 tag adjacent to anchor and decodes its frames.
// From OriginStart it searches for the header; from OriginEnd for an
// ID3v2.4 footer, whose header must then be present.
func Read(c *binary.Cursor, origin types.Origin, anchor int64, opts *types.ReadOptions) (types.TagOffset, bool, error) {
	h, found, err := locate(c, origin, anchor, opts)
	if err != nil || !found {
		return types.TagOffset{}, false, err
	}

	if int64(h.Size) > opts.Cap() {
		merr := &types.MalformedError{
			Path:   c.Path(),
			Format: types.FormatID3v2,
			Offset: h.Position,
			Reason: fmt.Sprintf("declared size %d exceeds limit %d", h.Size, opts.Cap()),
		}
		return types.TagOffset{}, false, opts.Fail("locate", h.Position, merr)
	}

	end := h.Position + h.TagSize()
	bodyEnd := h.Position + HeaderSize + int64(h.Size)
	if end > c.Length() {
		terr := &types.TruncatedError{
			Path:   c.Path(),
			What:   "ID3v2 tag",
			Offset: h.Position,
			Length: int(h.TagSize()),
			Size:   c.Length(),
		}
		if ferr := opts.Fail("locate", h.Position, terr); ferr != nil {
			return types.TagOffset{}, false, ferr
		}
		end = c.Length()
		bodyEnd = min(bodyEnd, end)
	}

	body := make([]byte, bodyEnd-h.Position-HeaderSize)
	if err := c.ReadAt(body, h.Position+HeaderSize, "ID3v2 tag body"); err != nil {
		return types.TagOffset{}, false, err
	}

	tag, err := Decode(h, body, c.Path(), opts)
	if err != nil {
		return types.TagOffset{}, false, err
	}

	return types.TagOffset{
		Tag:    tag,
		Origin: origin,
		Format: types.FormatID3v2,
		Start:  h.Position,
		End:    end,
	}, true, nil
}

// locate finds the tag header. A candidate the search turned down is
// reported at debug level only; a footer whose header is missing or lies
// before the stream start is a damaged tag.
func locate(c *binary.Cursor, origin types.Origin, anchor int64, opts *types.ReadOptions) (Header, bool, error) {
	if origin == types.OriginStart {
		m, ok, err := boundary.Find(c, headerSpec, origin, anchor, headerProbe)
		if !ok {
			m.Log(opts, "ID3v2 header")
			return Header{}, false, err
		}
		return m.Record, true, nil
	}

	m, ok, err := boundary.Find(c, footerSpec, origin, anchor, footerProbe)
	if !ok {
		m.Log(opts, "ID3v2 footer")
		return Header{}, false, err
	}
	f := m.Record
	start := f.Position - int64(f.Size) - HeaderSize
	if start < 0 {
		terr := &types.TruncatedError{
			Path:   c.Path(),
			What:   "ID3v2 tag",
			Offset: start,
			Length: int(f.TagSize()),
			Size:   c.Length(),
		}
		return Header{}, false, opts.Fail("locate", f.Position, terr)
	}
	h, err := parseHeader(c, start, headerMagic)
	if err != nil {
		return Header{}, false, opts.Fail("locate", start, err)
	}
	if h.Size != f.Size || h.Major != f.Major {
		opts.Warn("locate", start, "ID3v2 header and footer disagree: %v / %v", h, f)
	}
	h.Size = f.Size
	h.Flags |= FlagFooter
	return h, true, nil
}

// Decode parses the tag body that follows header h. base offsets are used
// only for error reporting.
func Decode(h Header, body []byte, path string, opts *types.ReadOptions) (*Tag, error) {
	tag := &Tag{Header: h}
	base := h.Position + HeaderSize

	if h.Major == 2 && h.Flags&FlagExtendedHeader != 0 {
		opts.Warn("frames", h.Position, "ID3v2.2 compression is not supported; frames skipped")
		return tag, nil
	}

	// Before 2.4 unsynchronisation covers the whole tag body.
	if h.Major < 4 && h.Flags&FlagUnsynchronisation != 0 {
		body = synchsafe.Resynchronize(body)
	}

	pos := 0
	if h.Major >= 3 && h.Flags&FlagExtendedHeader != 0 {
		n, err := extendedHeaderSize(h, body)
		if err != nil {
			merr := &types.MalformedError{Path: path, Format: types.FormatID3v2, Offset: base, Reason: err.Error()}
			if ferr := opts.Fail("frames", base, merr); ferr != nil {
				return nil, ferr
			}
			return tag, nil
		}
		pos = n
	}

	fr := &frameReader{
		opts:      opts,
		path:      path,
		body:      body,
		base:      base,
		major:     h.Major,
		unsyncAll: h.Major == 4 && h.Flags&FlagUnsynchronisation != 0,
	}
	for pos < len(body) {
		f, end, done, err := fr.next(pos)
		if err != nil {
			if ferr := opts.Fail("frames", base+int64(pos), err); ferr != nil {
				return nil, ferr
			}
			if done {
				break
			}
			pos = end
			continue
		}
		if done {
			break
		}
		tag.load(f)
		pos = end
	}

	if err := tag.Validate(); err != nil {
		opts.Warn("frames", h.Position, "%v", err)
	}
	return tag, nil
}

// extendedHeaderSize returns the bytes to skip for the extended header.
// The 2.3 size excludes its own four bytes; the 2.4 size is synchsafe and
// includes them.
func extendedHeaderSize(h Header, body []byte) (int, error) {
	if len(body) < 4 {
		return 0, fmt.Errorf("extended header truncated")
	}
	var n int
	if h.Major == 3 {
		n = int(binary.Decode[uint32](body, binary.BigEndian)) + 4
	} else {
		if !synchsafe.Valid(body[:4]) {
			return 0, fmt.Errorf("extended header size is not synchsafe")
		}
		n = int(synchsafe.DecodeBytes(body[:4]))
	}
	if n < 6 || n > len(body) {
		return 0, fmt.Errorf("extended header size %d outside [6, %d]", n, len(body))
	}
	return n, nil
}
