// Package musicmatch locates MusicMatch Jukebox tags and reads their
// leading text fields and embedded image.
//
// A tag is laid out as
//
//	[header 256] image-extension(4) image(4+n) unused(4) version(256)
//	metadata(7868 or 7936) data-offsets(20) footer(48)
//
// The data offsets are absolute positions from when the tag was written,
// so only their differences are meaningful.
package musicmatch

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/boundary"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/types"
)

// Section sizes.
const (
	FooterSize      = 48
	OffsetsSize     = 20
	VersionSize     = 256
	HeaderSize      = 256
	imageHeaderSize = 8
	unusedSize      = 4
)

// MetadataSizes are the two metadata section sizes writers produce.
var MetadataSizes = [2]int64{7868, 7936}

var (
	footerMagic = []byte("Brava Software Inc.")
	versionSync = []byte("18273645")
	footerSpec  = boundary.Spec{Magic: footerMagic, Size: FooterSize}
)

// fieldNames are the leading length-prefixed text fields of the metadata
// section, in order.
var fieldNames = [...]string{"Title", "Album", "Artist", "Genre", "Tempo", "Mood", "Situation", "Preference"}

func init() {
	registry.Register(&reader{})
}

// Tag is a MusicMatch tag.
type Tag struct {
	// Fields holds the leading metadata fields by name (Title, Album,
	// Artist, Genre, Tempo, Mood, Situation, Preference).
	Fields map[string]string
	// Image is nil when the tag has no picture.
	Image *types.Artwork
	// Version is the footer version string, e.g. "3.00".
	Version string
	// HasHeader reports whether the optional 256-byte header is present.
	HasHeader bool
}

// Get returns the named field.
func (t *Tag) Get(name string) string {
	return t.Fields[name]
}

// TagFields returns the non-empty fields in their stored order.
func (t *Tag) TagFields() *types.Tags {
	tags := &types.Tags{}
	for _, name := range fieldNames {
		if v := t.Fields[name]; v != "" {
			tags.Add(name, v)
		}
	}
	return tags
}

// Artwork returns the embedded image, if any.
func (t *Tag) Artwork() []types.Artwork {
	if t.Image == nil {
		return nil
	}
	return []types.Artwork{*t.Image}
}

func (t *Tag) String() string {
	return fmt.Sprintf("MusicMatch %s %q", t.Version, t.Fields["Title"])
}

type reader struct{}

func (r *reader) Format() types.Format { return types.FormatMusicMatch }
func (r *reader) Origin() types.Origin { return types.OriginEnd }

func (r *reader) Read(c *binary.Cursor, anchor int64, opts *types.ReadOptions) (types.TagOffset, bool, error) {
	return Read(c, anchor, opts)
}

type footer struct {
	Position int64
	Version  string
}

// Read looks for a MusicMatch tag ending at anchor.
func Read(c *binary.Cursor, anchor int64, opts *types.ReadOptions) (types.TagOffset, bool, error) {
	anchor = min(anchor, c.Length())
	m, ok, err := boundary.Find(c, footerSpec, types.OriginEnd, anchor, footerProbe)
	if !ok {
		m.Log(opts, "MusicMatch footer")
		return types.TagOffset{}, false, err
	}
	f := m.Record

	offsetsPos := f.Position - OffsetsSize
	if offsetsPos < 0 {
		return types.TagOffset{}, false, opts.Fail("locate", f.Position, truncated(c, "MusicMatch data offsets", offsetsPos, OffsetsSize))
	}
	origPos := c.Position()
	defer func() { _ = c.Seek(origPos) }() //nolint:errcheck // origPos was valid when read

	cr := binary.NewChainReader(c, binary.LittleEndian)
	if err := c.Seek(offsetsPos); err != nil {
		return types.TagOffset{}, false, err
	}
	imageExtOffset := binary.ReadChained[uint32](cr, "image extension offset")
	_ = binary.ReadChained[uint32](cr, "image offset")
	_ = binary.ReadChained[uint32](cr, "unused offset")
	versionOffset := binary.ReadChained[uint32](cr, "version offset")
	metadataOffset := binary.ReadChained[uint32](cr, "metadata offset")
	if err := cr.Error(); err != nil {
		return types.TagOffset{}, false, err
	}

	versionPos, metaSize, ok := findVersion(c, offsetsPos)
	if !ok {
		return types.TagOffset{}, false, opts.Fail("locate", offsetsPos, malformed(c, offsetsPos, "version block not found"))
	}
	if metadataOffset-versionOffset != VersionSize {
		opts.Warn("locate", versionPos, "MusicMatch offsets disagree with version block position")
	}

	dataSize := int64(versionOffset) - int64(imageExtOffset)
	if dataSize < imageHeaderSize+unusedSize || dataSize > opts.Cap() {
		return types.TagOffset{}, false, opts.Fail("locate", offsetsPos, malformed(c, offsetsPos, fmt.Sprintf("image section size %d", dataSize)))
	}
	dataStart := versionPos - dataSize
	if dataStart < 0 {
		return types.TagOffset{}, false, opts.Fail("locate", versionPos, truncated(c, "MusicMatch image section", dataStart, int(dataSize)))
	}

	tag := &Tag{Version: f.Version, Fields: make(map[string]string)}
	start := dataStart
	if dataStart >= HeaderSize && hasHeader(c, dataStart-HeaderSize) {
		tag.HasHeader = true
		start -= HeaderSize
	}

	if err := readImage(c, tag, dataStart, dataSize, opts); err != nil {
		return types.TagOffset{}, false, err
	}
	if err := readFields(c, tag, versionPos+VersionSize, metaSize, opts); err != nil {
		return types.TagOffset{}, false, err
	}

	return types.TagOffset{
		Tag:    tag,
		Origin: types.OriginEnd,
		Format: types.FormatMusicMatch,
		Start:  start,
		End:    f.Position + FooterSize,
	}, true, nil
}

func footerProbe(c *binary.Cursor, off int64) (footer, error) {
	rec := make([]byte, FooterSize)
	if err := c.ReadAt(rec, off, "MusicMatch footer"); err != nil {
		return footer{}, err
	}
	pad := rec[len(footerMagic):32]
	version := rec[32:36]
	if len(bytes.Trim(pad, " \x00")) != 0 || !validVersion(version) {
		return footer{}, malformed(c, off, fmt.Sprintf("invalid footer %q", rec[len(footerMagic):]))
	}
	return footer{Position: off, Version: string(version)}, nil
}

// validVersion accepts "d.dd".
func validVersion(v []byte) bool {
	isDigit := func(b byte) bool { return b >= '0' && b <= '9' }
	return len(v) == 4 && isDigit(v[0]) && v[1] == '.' && isDigit(v[2]) && isDigit(v[3])
}

// findVersion returns the version block that precedes a metadata section
// ending at metaEnd, trying each known metadata size.
func findVersion(c *binary.Cursor, metaEnd int64) (int64, int64, bool) {
	for _, size := range MetadataSizes {
		pos := metaEnd - size - VersionSize
		if pos >= 0 && hasSync(c, pos) {
			return pos, size, true
		}
	}
	return 0, 0, false
}

func hasSync(c *binary.Cursor, off int64) bool {
	b := make([]byte, len(versionSync))
	if err := c.ReadAt(b, off, "MusicMatch version sync"); err != nil {
		return false
	}
	return bytes.Equal(b, versionSync)
}

// hasHeader reports whether the optional header starts at off. The header
// repeats the version sync near its start.
func hasHeader(c *binary.Cursor, off int64) bool {
	b := make([]byte, 16+len(versionSync))
	if err := c.ReadAt(b, off, "MusicMatch header"); err != nil {
		return false
	}
	return bytes.Contains(b, versionSync)
}

// readImage decodes the image extension and image sections, which occupy
// size bytes from off.
func readImage(c *binary.Cursor, tag *Tag, off, size int64, opts *types.ReadOptions) error {
	ext := make([]byte, 4)
	if err := c.ReadAt(ext, off, "MusicMatch image extension"); err != nil {
		return err
	}
	n, err := binary.ReadLE[uint32](c, off+4, "MusicMatch image size")
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	if int64(n) > size-imageHeaderSize-unusedSize {
		return opts.Fail("image", off, malformed(c, off, fmt.Sprintf("image size %d exceeds section", n)))
	}
	data := make([]byte, n)
	if err := c.ReadAt(data, off+imageHeaderSize, "MusicMatch image"); err != nil {
		return err
	}
	tag.Image = &types.Artwork{
		MIMEType: types.MIMEFromExtension(strings.ToLower(strings.TrimSpace(string(ext)))),
		Data:     data,
		Type:     types.ArtworkFrontCover,
		Source:   types.FormatMusicMatch,
	}
	return nil
}

// readFields decodes the leading uint16-length-prefixed text fields.
func readFields(c *binary.Cursor, tag *Tag, off, size int64, opts *types.ReadOptions) error {
	end := off + size
	pos := off
	for _, name := range fieldNames {
		if pos+2 > end {
			return opts.Fail("fields", pos, truncated(c, "MusicMatch "+name, pos, 2))
		}
		n, err := binary.ReadLE[uint16](c, pos, "MusicMatch field length")
		if err != nil {
			return err
		}
		pos += 2
		if pos+int64(n) > end {
			return opts.Fail("fields", pos, truncated(c, "MusicMatch "+name, pos, int(n)))
		}
		raw := make([]byte, n)
		if err := c.ReadAt(raw, pos, "MusicMatch "+name); err != nil {
			return err
		}
		pos += int64(n)
		tag.Fields[name] = decodeText(raw)
	}
	return nil
}

func decodeText(b []byte) string {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

func malformed(c *binary.Cursor, off int64, reason string) error {
	return &types.MalformedError{Path: c.Path(), Format: types.FormatMusicMatch, Offset: off, Reason: reason}
}

func truncated(c *binary.Cursor, what string, off int64, n int) error {
	return &types.TruncatedError{Path: c.Path(), What: what, Offset: off, Length: n, Size: c.Length()}
}
