// Package vorbis parses and encodes Vorbis comment packets.
//
// Vorbis comments are used by FLAC, Ogg Vorbis and Opus. The layout is
// the same everywhere: a length-prefixed vendor string, a count, and
// length-prefixed UTF-8 "KEY=VALUE" strings, all lengths little-endian.
package vorbis

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

// PictureKey is the field holding base64-encoded FLAC picture blocks.
const PictureKey = "METADATA_BLOCK_PICTURE"

// Comment is a decoded Vorbis comment packet.
type Comment struct {
	Fields *types.Tags
	Vendor string
	// Framed reports whether the packet ends with a set framing bit, as
	// Ogg Vorbis comment headers do.
	Framed bool
}

// New returns an empty comment with the given vendor string.
func New(vendor string) *Comment {
	return &Comment{Vendor: vendor, Fields: &types.Tags{}}
}

// Parse decodes a comment packet. base is the stream offset of data and is
// used only for error reporting. Comments that are not "KEY=VALUE" and
// lengths running past the packet go through opts.Fail.
func Parse(data []byte, path string, base int64, opts *types.ReadOptions) (*Comment, error) {
	malformed := func(off int, reason string) error {
		return &types.MalformedError{Path: path, Format: types.FormatVorbis, Offset: base + int64(off), Reason: reason}
	}

	if len(data) < 8 {
		return nil, &types.TruncatedError{Path: path, What: "Vorbis comment header", Offset: base, Length: 8, Size: base + int64(len(data))}
	}
	vendorLen := int(binary.Decode[uint32](data, binary.LittleEndian))
	if vendorLen > len(data)-8 {
		return nil, malformed(0, fmt.Sprintf("vendor length %d exceeds packet", vendorLen))
	}
	c := New(string(data[4 : 4+vendorLen]))
	pos := 4 + vendorLen

	count := int(binary.Decode[uint32](data[pos:], binary.LittleEndian))
	pos += 4
	if count > (len(data)-pos)/4 {
		return nil, malformed(pos-4, fmt.Sprintf("comment count %d exceeds packet", count))
	}

	for i := range count {
		if pos+4 > len(data) {
			return c, opts.Fail("comments", base+int64(pos), malformed(pos, fmt.Sprintf("comment %d length truncated", i)))
		}
		n := int(binary.Decode[uint32](data[pos:], binary.LittleEndian))
		pos += 4
		if n > len(data)-pos {
			return c, opts.Fail("comments", base+int64(pos), malformed(pos, fmt.Sprintf("comment %d length %d exceeds packet", i, n)))
		}
		key, value, err := ParseComment(string(data[pos : pos+n]))
		if err != nil {
			if ferr := opts.Fail("comments", base+int64(pos), malformed(pos, err.Error())); ferr != nil {
				return nil, ferr
			}
		} else {
			c.Fields.Add(key, value)
		}
		pos += n
	}

	if pos < len(data) {
		c.Framed = data[pos]&1 != 0
	}
	return c, nil
}

// ParseComment splits a "KEY=VALUE" comment.
func ParseComment(comment string) (key, value string, err error) {
	eq := strings.IndexByte(comment, '=')
	if eq < 0 {
		return "", "", fmt.Errorf("missing '=' in comment %q", comment)
	}
	key = comment[:eq]
	if err := ValidKey(key); err != nil {
		return "", "", err
	}
	return key, comment[eq+1:], nil
}

// ValidKey checks a field name: non-empty printable ASCII without '='.
func ValidKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty field name")
	}
	for i := range len(key) {
		if key[i] < 0x20 || key[i] > 0x7D || key[i] == '=' {
			return fmt.Errorf("invalid field name %q", key)
		}
	}
	return nil
}

// Encode serializes c. With framing a trailing framing bit is written.
func Encode(c *Comment, framing bool) ([]byte, error) {
	var comments [][]byte
	if c.Fields != nil {
		for key, values := range c.Fields.All() {
			if err := ValidKey(key); err != nil {
				return nil, &types.MalformedError{Format: types.FormatVorbis, Reason: err.Error()}
			}
			for _, v := range values {
				comments = append(comments, []byte(key+"="+v))
			}
		}
	}

	var buf bytes.Buffer
	sw := binary.NewSafeWriter(&buf)
	_ = binary.WriteLE(sw, uint32(len(c.Vendor)))
	_ = sw.WriteString(c.Vendor)
	_ = binary.WriteLE(sw, uint32(len(comments)))
	for _, cm := range comments {
		_ = binary.WriteLE(sw, uint32(len(cm)))
		_ = sw.WriteBytes(cm)
	}
	if framing {
		_ = binary.Write(sw, uint8(1))
	}
	if err := sw.Err(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Artwork decodes the pictures stored in METADATA_BLOCK_PICTURE fields.
// Values that fail to decode are skipped.
func (c *Comment) Artwork() []types.Artwork {
	var out []types.Artwork
	for _, v := range c.Fields.Get(PictureKey) {
		data, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			continue
		}
		art, err := ParsePicture(data)
		if err != nil {
			continue
		}
		out = append(out, art)
	}
	return out
}

// AddArtwork stores art as a METADATA_BLOCK_PICTURE field.
func (c *Comment) AddArtwork(art types.Artwork) {
	c.Fields.Add(PictureKey, base64.StdEncoding.EncodeToString(EncodePicture(art)))
}

// TagFields returns the comment fields.
func (c *Comment) TagFields() *types.Tags {
	return c.Fields
}

func (c *Comment) String() string {
	return fmt.Sprintf("Vorbis comment %q (%d fields)", c.Vendor, c.Fields.Len())
}
