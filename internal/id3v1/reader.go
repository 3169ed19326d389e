package id3v1

import (
	"bytes"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/boundary"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/types"
)

func init() {
	registry.Register(&reader{})
	registry.RegisterWriter(&writer{})
}

var recordSpec = boundary.Spec{Magic: magic, Size: Size}

type reader struct{}

func (r *reader) Format() types.Format { return types.FormatID3v1 }
func (r *reader) Origin() types.Origin { return types.OriginEnd }

func (r *reader) Read(c *binary.Cursor, anchor int64, opts *types.ReadOptions) (types.TagOffset, bool, error) {
	return Read(c, anchor, opts)
}

// Read looks for an ID3v1 record ending exactly at anchor, together with
// a TAG+ block directly before it. ID3v1 carries no size field, so a "TAG"
// anywhere else in the search windows is not a tag.
func Read(c *binary.Cursor, anchor int64, opts *types.ReadOptions) (types.TagOffset, bool, error) {
	anchor = min(anchor, c.Length())
	probe := func(c *binary.Cursor, off int64) (*Tag, error) {
		if off+Size != anchor {
			return nil, &types.MalformedError{
				Path:   c.Path(),
				Format: types.FormatID3v1,
				Offset: off,
				Reason: "record does not end at the tag boundary",
			}
		}
		return parse(c, off)
	}

	m, ok, err := boundary.Find(c, recordSpec, types.OriginEnd, anchor, probe)
	if !ok {
		m.Log(opts, "ID3v1")
		return types.TagOffset{}, false, err
	}

	start := m.Offset
	if m.Record.Extended != nil {
		start -= ExtendedSize
	}
	return types.TagOffset{
		Tag:    m.Record,
		Origin: types.OriginEnd,
		Format: types.FormatID3v1,
		Start:  start,
		End:    m.Offset + Size,
	}, true, nil
}

func parse(c *binary.Cursor, off int64) (*Tag, error) {
	rec := make([]byte, Size)
	if err := c.ReadAt(rec, off, "ID3v1 tag"); err != nil {
		return nil, err
	}

	title, artist, album := rec[3:33], rec[33:63], rec[63:93]
	comment := rec[97:127]
	t := &Tag{
		Year:  decodeField(rec[93:97]),
		Genre: rec[127],
	}
	if comment[28] == 0 && comment[29] != 0 {
		t.Track = comment[29]
		comment = comment[:28]
	}
	t.Comment = decodeField(comment)

	if ext, ok := readExtended(c, off-ExtendedSize); ok {
		title = concat(title, ext[4:64])
		artist = concat(artist, ext[64:124])
		album = concat(album, ext[124:184])
		t.Extended = &Extended{
			Speed: ext[184],
			Genre: decodeField(ext[185:215]),
			Start: decodeField(ext[215:221]),
			End:   decodeField(ext[221:227]),
		}
	}
	t.Title = decodeField(title)
	t.Artist = decodeField(artist)
	t.Album = decodeField(album)
	return t, nil
}

func readExtended(c *binary.Cursor, off int64) ([]byte, bool) {
	if off < 0 {
		return nil, false
	}
	ext := make([]byte, ExtendedSize)
	if err := c.ReadAt(ext, off, "ID3v1 TAG+ block"); err != nil {
		return nil, false
	}
	return ext, bytes.HasPrefix(ext, extendedMagic)
}

func concat(a, b []byte) []byte {
	out := make([]byte, 0, len(a)+len(b))
	return append(append(out, a...), b...)
}
