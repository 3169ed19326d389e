package id3v2

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/simonhull/audiotag/internal/types"
)

// Text encodings, stored as the first byte of text frames.
const (
	EncodingISO8859_1 byte = 0
	EncodingUTF16     byte = 1
	EncodingUTF16BE   byte = 2
	EncodingUTF8      byte = 3
)

func textEncoding(enc byte) encoding.Encoding {
	switch enc {
	case EncodingUTF16:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case EncodingUTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	case EncodingUTF8:
		return unicode.UTF8
	default:
		return charmap.ISO8859_1
	}
}

// decodeText converts b from enc to UTF-8. UTF-16 input without a BOM is
// read as big-endian.
func decodeText(b []byte, enc byte) string {
	if len(b) == 0 {
		return ""
	}
	switch enc {
	case EncodingUTF8:
		if utf8.Valid(b) {
			return string(b)
		}
		return strings.ToValidUTF8(string(b), "\uFFFD")
	case EncodingUTF16:
		if len(b) < 2 || (b[0] != 0xFF && b[0] != 0xFE) {
			enc = EncodingUTF16BE
		}
	}
	if len(b)%2 != 0 && (enc == EncodingUTF16 || enc == EncodingUTF16BE) {
		b = b[:len(b)-1]
	}
	out, err := textEncoding(enc).NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// encodeText converts s to enc. Characters ISO-8859-1 cannot represent are
// replaced.
func encodeText(s string, enc byte) ([]byte, error) {
	if enc == EncodingUTF8 {
		return []byte(s), nil
	}
	e := textEncoding(enc).NewEncoder()
	if enc == EncodingISO8859_1 {
		e = encoding.ReplaceUnsupported(e)
	}
	return e.Bytes([]byte(s))
}

// terminator returns the string terminator for enc.
func terminator(enc byte) []byte {
	if enc == EncodingUTF16 || enc == EncodingUTF16BE {
		return []byte{0, 0}
	}
	return []byte{0}
}

// cutTerminated splits b at the first terminator for enc. UTF-16
// terminators are only matched on even offsets.
func cutTerminated(b []byte, enc byte) (head, rest []byte, found bool) {
	term := terminator(enc)
	if len(term) == 1 {
		return bytes.Cut(b, term)
	}
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			return b[:i], b[i+2:], true
		}
	}
	return b, nil, false
}

// representable reports whether s survives ISO-8859-1.
func representable(s string) bool {
	for _, r := range s {
		if r > 0xFF {
			return false
		}
	}
	return true
}

// preferredEncoding picks the text encoding the writer uses for s.
func preferredEncoding(s string, major byte) byte {
	switch {
	case representable(s):
		return EncodingISO8859_1
	case major == 4:
		return EncodingUTF8
	default:
		return EncodingUTF16
	}
}

// TextValues returns the values of a text frame. ID3v2.4 separates values
// with terminators; earlier versions hold one value.
func (t *Tag) TextValues(id string) []string {
	f, ok := t.Frame(id)
	if !ok || len(f.Data) == 0 || !strings.HasPrefix(id, "T") {
		return nil
	}
	return splitText(f.Data)
}

func splitText(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	enc, rest := data[0], data[1:]
	var values []string
	for len(rest) > 0 {
		head, tail, found := cutTerminated(rest, enc)
		values = append(values, decodeText(head, enc))
		if !found {
			break
		}
		rest = tail
	}
	return values
}

// Text returns the first value of a text frame, or "".
func (t *Tag) Text(id string) string {
	if v := t.TextValues(id); len(v) > 0 {
		return v[0]
	}
	return ""
}

// SetText stores values in the text frame id, replacing an existing frame
// in place. With no values the frame is removed.
func (t *Tag) SetText(id string, values ...string) error {
	if len(values) == 0 {
		_, err := t.RemoveID(id)
		return err
	}
	joined := strings.Join(values, "\x00")
	enc := preferredEncoding(joined, t.Major())
	data, err := textFrameData(enc, values)
	if err != nil {
		return err
	}

	f := Frame{ID: id, Data: data}
	if i := t.Index(id); i >= 0 {
		return t.Replace(i, f)
	}
	return t.Add(f)
}

func textFrameData(enc byte, values []string) ([]byte, error) {
	data := []byte{enc}
	for i, v := range values {
		if i > 0 {
			data = append(data, terminator(enc)...)
		}
		b, err := encodeText(v, enc)
		if err != nil {
			return nil, err
		}
		data = append(data, b...)
	}
	return data, nil
}

// UserText returns the value of the TXXX frame with description desc.
func (t *Tag) UserText(desc string) string {
	id, _ := IDOf(KindUserText, t.Major())
	for _, f := range t.FramesByID(id) {
		d, v, ok := splitDescribed(f.Data)
		if ok && strings.EqualFold(d, desc) {
			return v
		}
	}
	return ""
}

// Comment returns the text of the first comment frame.
func (t *Tag) Comment() string {
	id, _ := IDOf(KindComment, t.Major())
	f, ok := t.Frame(id)
	if !ok || len(f.Data) < 4 {
		return ""
	}
	// Skip the three-byte language code.
	_, v, _ := splitDescribed(append([]byte{f.Data[0]}, f.Data[4:]...))
	return v
}

// splitDescribed decodes an "encoding, description, value" payload.
func splitDescribed(data []byte) (desc, value string, ok bool) {
	if len(data) < 1 {
		return "", "", false
	}
	enc := data[0]
	head, rest, found := cutTerminated(data[1:], enc)
	if !found {
		return "", decodeText(head, enc), true
	}
	if tail, _, _ := cutTerminated(rest, enc); len(tail) != len(rest) {
		rest = tail
	}
	return decodeText(head, enc), decodeText(rest, enc), true
}

// Fields returns the text frames keyed by frame ID, user text frames keyed
// by description and the first comment as "COMMENT".
func (t *Tag) Fields() *types.Tags {
	out := &types.Tags{}
	userID, _ := IDOf(KindUserText, t.Major())
	for _, f := range t.frames {
		switch {
		case f.ID == userID:
			if d, v, ok := splitDescribed(f.Data); ok && d != "" {
				out.Add(d, v)
			}
		case f.ID[0] == 'T' && f.Flags&FrameEncrypted == 0:
			for _, v := range splitText(f.Data) {
				out.Add(f.ID, v)
			}
		}
	}
	if c := t.Comment(); c != "" {
		out.Add("COMMENT", c)
	}
	return out
}
