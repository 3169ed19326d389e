package binary

import (
	"bytes"
	"errors"
	"testing"
)

func TestSafeWriter(t *testing.T) {
	var buf bytes.Buffer
	sw := NewSafeWriter(&buf)

	_ = sw.WriteString("APETAGEX")
	_ = WriteLE(sw, uint32(2000))
	_ = Write(sw, uint16(0x0102))
	_ = WriteEndian(sw, uint8(9), LittleEndian)
	_ = sw.Pad(3)
	_ = sw.Pad(0)
	_ = WriteEndian(sw, uint64(1), BigEndian)
	if err := sw.Err(); err != nil {
		t.Fatal(err)
	}

	want := []byte("APETAGEX\xd0\x07\x00\x00\x01\x02\x09\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x01")
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got %x\nwant %x", buf.Bytes(), want)
	}
	if sw.Offset() != int64(len(want)) {
		t.Errorf("offset = %d, want %d", sw.Offset(), len(want))
	}
}

type failWriter struct{ left int }

var errFull = errors.New("disk full")

func (f *failWriter) Write(p []byte) (int, error) {
	if len(p) > f.left {
		n := f.left
		f.left = 0
		return n, errFull
	}
	f.left -= len(p)
	return len(p), nil
}

func TestSafeWriter_StickyError(t *testing.T) {
	sw := NewSafeWriter(&failWriter{left: 6})

	_ = sw.WriteString("LYRICS")
	if err := WriteLE(sw, uint32(1)); !errors.Is(err, errFull) {
		t.Fatalf("err = %v", err)
	}
	if err := sw.WriteBytes([]byte{1}); !errors.Is(err, errFull) {
		t.Errorf("write after failure = %v", err)
	}
	if sw.Offset() != 6 || !errors.Is(sw.Err(), errFull) {
		t.Errorf("offset = %d err = %v", sw.Offset(), sw.Err())
	}
}
