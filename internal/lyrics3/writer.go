package lyrics3

import (
	"bytes"
	"fmt"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/types"
)

type writer struct {
	format types.Format
}

func (w *writer) Format() types.Format { return w.format }
func (w *writer) Origin() types.Origin { return types.OriginEnd }

func (w *writer) Encode(tag any, _ registry.EncodeOptions) ([]byte, error) {
	t, ok := tag.(*Tag)
	if !ok {
		return nil, fmt.Errorf("lyrics3: cannot encode %T", tag)
	}
	if w.format == types.FormatLyrics3 {
		return EncodeV1(t)
	}
	return Encode(t)
}

// Encode serializes t as a Lyrics3v2 tag.
func Encode(t *Tag) ([]byte, error) {
	var buf bytes.Buffer
	sw := binary.NewSafeWriter(&buf)
	_ = sw.WriteString(beginMarker)
	for _, f := range t.Fields {
		if len(f.ID) != 3 || !validFieldHeader([]byte(f.ID+"00000")) {
			return nil, &types.MalformedError{Format: types.FormatLyrics3v2, Reason: fmt.Sprintf("invalid field ID %q", f.ID)}
		}
		if len(f.Data) > MaxFieldSize {
			return nil, fmt.Errorf("lyrics3: field %s is %d bytes, limit %d", f.ID, len(f.Data), MaxFieldSize)
		}
		_ = sw.WriteString(fmt.Sprintf("%s%05d", f.ID, len(f.Data)))
		_ = sw.WriteBytes(f.Data)
	}
	if err := sw.Err(); err != nil {
		return nil, err
	}

	size := buf.Len()
	if size > MaxTagSize {
		return nil, fmt.Errorf("lyrics3: tag is %d bytes, limit %d", size, MaxTagSize)
	}
	_ = sw.WriteString(fmt.Sprintf("%06d", size))
	_ = sw.WriteString(endV2Marker)
	if err := sw.Err(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeV1 serializes the lyrics of t as a Lyrics3v1 tag.
func EncodeV1(t *Tag) ([]byte, error) {
	var lyrics []byte
	if i := t.index(FieldLyrics); i >= 0 {
		lyrics = t.Fields[i].Data
	}
	if len(lyrics) > MaxV1Lyrics {
		return nil, &types.UnsupportedWriteError{
			Format: types.FormatLyrics3,
			Reason: fmt.Sprintf("lyrics are %d bytes, limit %d", len(lyrics), MaxV1Lyrics),
		}
	}
	if bytes.Contains(lyrics, []byte(endV1Marker)) {
		return nil, &types.UnsupportedWriteError{Format: types.FormatLyrics3, Reason: "lyrics contain " + endV1Marker}
	}

	out := make([]byte, 0, len(beginMarker)+len(lyrics)+len(endV1Marker))
	out = append(out, beginMarker...)
	out = append(out, lyrics...)
	return append(out, endV1Marker...), nil
}
