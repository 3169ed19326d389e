package id3v1

import (
	"bytes"
	"fmt"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/types"
)

type writer struct{}

func (w *writer) Format() types.Format { return types.FormatID3v1 }
func (w *writer) Origin() types.Origin { return types.OriginEnd }

func (w *writer) Encode(tag any, _ registry.EncodeOptions) ([]byte, error) {
	t, ok := tag.(*Tag)
	if !ok {
		return nil, fmt.Errorf("id3v1: cannot encode %T", tag)
	}
	return Encode(t)
}

// Encode serializes t. A TAG+ block is written before the record when t
// has extended fields or a title, artist or album longer than 30 bytes.
// Longer values are cut to fit.
func Encode(t *Tag) ([]byte, error) {
	title, artist, album := encodeField(t.Title), encodeField(t.Artist), encodeField(t.Album)
	extended := t.Extended != nil || len(title) > 30 || len(artist) > 30 || len(album) > 30

	var buf bytes.Buffer
	sw := binary.NewSafeWriter(&buf)
	if extended {
		ext := t.Extended
		if ext == nil {
			ext = &Extended{}
		}
		_ = sw.WriteBytes(extendedMagic)
		_ = sw.WriteBytes(fixed(tail(title, 30), 60))
		_ = sw.WriteBytes(fixed(tail(artist, 30), 60))
		_ = sw.WriteBytes(fixed(tail(album, 30), 60))
		_ = binary.Write(sw, ext.Speed)
		_ = sw.WriteBytes(fixed(encodeField(ext.Genre), 30))
		_ = sw.WriteBytes(fixed(encodeField(ext.Start), 6))
		_ = sw.WriteBytes(fixed(encodeField(ext.End), 6))
	}

	_ = sw.WriteBytes(magic)
	_ = sw.WriteBytes(fixed(title, 30))
	_ = sw.WriteBytes(fixed(artist, 30))
	_ = sw.WriteBytes(fixed(album, 30))
	_ = sw.WriteBytes(fixed(encodeField(t.Year), 4))
	if t.Track != 0 {
		_ = sw.WriteBytes(fixed(encodeField(t.Comment), 28))
		_ = sw.Pad(1)
		_ = binary.Write(sw, t.Track)
	} else {
		_ = sw.WriteBytes(fixed(encodeField(t.Comment), 30))
	}
	_ = binary.Write(sw, t.Genre)

	if err := sw.Err(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fixed returns b cut or zero-padded to n bytes.
func fixed(b []byte, n int) []byte {
	out := make([]byte, n)
	copy(out, b)
	return out
}

func tail(b []byte, from int) []byte {
	if len(b) <= from {
		return nil
	}
	return b[from:]
}
