package lyrics3

import (
	"fmt"
	"slices"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/boundary"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/types"
)

func init() {
	registry.Register(&reader{format: types.FormatLyrics3v2})
	registry.Register(&reader{format: types.FormatLyrics3})
	registry.RegisterWriter(&writer{format: types.FormatLyrics3v2})
	registry.RegisterWriter(&writer{format: types.FormatLyrics3})
}

var (
	v2FooterSpec = boundary.Spec{Magic: []byte(endV2Marker), MagicOffset: 6, Size: int64(footerSize)}
	v1FooterSpec = boundary.Spec{Magic: []byte(endV1Marker), Size: int64(len(endV1Marker))}
)

type reader struct {
	format types.Format
}

func (r *reader) Format() types.Format { return r.format }
func (r *reader) Origin() types.Origin { return types.OriginEnd }

func (r *reader) Read(c *binary.Cursor, anchor int64, opts *types.ReadOptions) (types.TagOffset, bool, error) {
	if r.format == types.FormatLyrics3 {
		return ReadV1(c, anchor, opts)
	}
	return ReadV2(c, anchor, opts)
}

// footer is a validated end marker and the start of its tag. Damage is
// set for a footer whose declared size is unusable.
type footer struct {
	Position int64
	Start    int64
	Damage   error
}

// ReadV2 looks for a Lyrics3v2 tag ending at anchor.
func ReadV2(c *binary.Cursor, anchor int64, opts *types.ReadOptions) (types.TagOffset, bool, error) {
	anchor = min(anchor, c.Length())
	m, ok, err := boundary.Find(c, v2FooterSpec, types.OriginEnd, anchor, v2Probe(opts.Cap()))
	if !ok {
		m.Log(opts, "Lyrics3v2 footer")
		return types.TagOffset{}, false, err
	}

	f := m.Record
	if f.Damage != nil {
		return types.TagOffset{}, false, opts.Fail("locate", f.Position, f.Damage)
	}
	fieldsStart := f.Start + int64(len(beginMarker))
	body := make([]byte, f.Position-fieldsStart)
	if err := c.ReadAt(body, fieldsStart, "Lyrics3v2 fields"); err != nil {
		return types.TagOffset{}, false, err
	}

	tag, err := decodeFields(body, fieldsStart, c.Path(), opts)
	if err != nil {
		return types.TagOffset{}, false, err
	}
	return types.TagOffset{
		Tag:    tag,
		Origin: types.OriginEnd,
		Format: types.FormatLyrics3v2,
		Start:  f.Start,
		End:    f.Position + int64(footerSize),
	}, true, nil
}

// v2Probe accepts a footer whose size is six digits and whose tag opens
// with LYRICSBEGIN. A size over maxSize or reaching before the stream start
// is accepted as a damaged footer.
func v2Probe(maxSize int64) boundary.Probe[footer] {
	return func(c *binary.Cursor, off int64) (footer, error) {
		digits := make([]byte, 6)
		if err := c.ReadAt(digits, off, "Lyrics3v2 size"); err != nil {
			return footer{}, err
		}
		size, ok := parseDigits(digits)
		if !ok || size < len(beginMarker) {
			return footer{}, &types.MalformedError{
				Path:   c.Path(),
				Format: types.FormatLyrics3v2,
				Offset: off,
				Reason: fmt.Sprintf("invalid tag size %q", digits),
			}
		}

		start := off - int64(size)
		switch {
		case int64(size) > maxSize:
			return footer{Position: off, Start: start, Damage: &types.MalformedError{
				Path:   c.Path(),
				Format: types.FormatLyrics3v2,
				Offset: off,
				Reason: fmt.Sprintf("tag size %d exceeds limit %d", size, maxSize),
			}}, nil
		case start < 0:
			return footer{Position: off, Start: start, Damage: &types.TruncatedError{
				Path:   c.Path(),
				What:   "Lyrics3v2 tag",
				Offset: start,
				Length: size,
				Size:   c.Length(),
			}}, nil
		}
		if !hasMarker(c, start, beginMarker) {
			return footer{}, &types.MalformedError{
				Path:   c.Path(),
				Format: types.FormatLyrics3v2,
				Offset: start,
				Reason: "missing " + beginMarker,
			}
		}
		return footer{Position: off, Start: start}, nil
	}
}

// decodeFields splits body into fields. A field whose declared size does
// not end on another field header or on the end of body is corrected by
// scanning forward for the next field header.
func decodeFields(body []byte, base int64, path string, opts *types.ReadOptions) (*Tag, error) {
	tag := &Tag{Version: 2}
	pos := 0
	for pos < len(body) {
		if !validFieldHeader(body[pos:]) {
			merr := &types.MalformedError{
				Path:   path,
				Format: types.FormatLyrics3v2,
				Offset: base + int64(pos),
				Reason: fmt.Sprintf("invalid field header %q", clip(body[pos:], fieldHeaderSize)),
			}
			if ferr := opts.Fail("fields", base+int64(pos), merr); ferr != nil {
				return nil, ferr
			}
			next := nextField(body, pos+1)
			if next < 0 {
				break
			}
			pos = next
			continue
		}

		id := string(body[pos : pos+3])
		size, _ := parseDigits(body[pos+3 : pos+fieldHeaderSize])
		dataStart := pos + fieldHeaderSize
		end := dataStart + size
		if end != len(body) && (end > len(body) || !validFieldHeader(body[end:])) {
			next := nextField(body, dataStart)
			if next < 0 {
				next = len(body)
			}
			opts.Warn("fields", base+int64(pos), "Lyrics3v2 field %s declares %d bytes, found %d", id, size, next-dataStart)
			end = next
		}

		tag.Fields = append(tag.Fields, Field{ID: id, Data: slices.Clone(body[dataStart:end])})
		pos = end
	}
	return tag, nil
}

// ReadV1 looks for a Lyrics3v1 tag ending at anchor.
func ReadV1(c *binary.Cursor, anchor int64, opts *types.ReadOptions) (types.TagOffset, bool, error) {
	anchor = min(anchor, c.Length())
	m, ok, err := boundary.Find(c, v1FooterSpec, types.OriginEnd, anchor, v1Probe)
	if !ok {
		m.Log(opts, "Lyrics3 end marker")
		return types.TagOffset{}, false, err
	}

	f := m.Record
	lyricsStart := f.Start + int64(len(beginMarker))
	lyrics := make([]byte, f.Position-lyricsStart)
	if err := c.ReadAt(lyrics, lyricsStart, "Lyrics3v1 lyrics"); err != nil {
		return types.TagOffset{}, false, err
	}
	return types.TagOffset{
		Tag:    &Tag{Version: 1, Fields: []Field{{ID: FieldLyrics, Data: lyrics}}},
		Origin: types.OriginEnd,
		Format: types.FormatLyrics3,
		Start:  f.Start,
		End:    f.Position + int64(len(endV1Marker)),
	}, true, nil
}

// v1Probe accepts a LYRICSEND marker preceded by a LYRICSBEGIN marker at
// most MaxV1Lyrics bytes before it.
func v1Probe(c *binary.Cursor, off int64) (footer, error) {
	lo := max(off-MaxV1Lyrics-int64(len(beginMarker)), 0)
	hi := off - int64(len(beginMarker)) + 1
	if hi > lo {
		at, ok, err := binary.FindIdentifier(c, []byte(beginMarker), lo, hi)
		if err != nil {
			return footer{}, err
		}
		if ok {
			return footer{Position: off, Start: at}, nil
		}
	}
	return footer{}, &types.MalformedError{
		Path:   c.Path(),
		Format: types.FormatLyrics3,
		Offset: off,
		Reason: fmt.Sprintf("no %s within %d bytes", beginMarker, MaxV1Lyrics),
	}
}

func hasMarker(c *binary.Cursor, off int64, marker string) bool {
	b := make([]byte, len(marker))
	if err := c.ReadAt(b, off, marker); err != nil {
		return false
	}
	return string(b) == marker
}

// validFieldHeader reports whether b starts with three upper-case letters
// followed by five digits.
func validFieldHeader(b []byte) bool {
	if len(b) < fieldHeaderSize {
		return false
	}
	for _, ch := range b[:3] {
		if ch < 'A' || ch > 'Z' {
			return false
		}
	}
	_, ok := parseDigits(b[3:fieldHeaderSize])
	return ok
}

// nextField returns the offset of the first known field header at or after
// from, or -1.
func nextField(body []byte, from int) int {
	for i := from; i+fieldHeaderSize <= len(body); i++ {
		if knownFields[string(body[i:i+3])] && validFieldHeader(body[i:]) {
			return i
		}
	}
	return -1
}

func parseDigits(b []byte) (int, bool) {
	if len(b) == 0 {
		return 0, false
	}
	n := 0
	for _, ch := range b {
		if ch < '0' || ch > '9' {
			return 0, false
		}
		n = n*10 + int(ch-'0')
	}
	return n, true
}

func clip(b []byte, n int) []byte {
	return b[:min(len(b), n)]
}
