package binary

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/simonhull/audiotag/internal/types"
)

func newTestCursor(tb testing.TB, data []byte) *Cursor {
	tb.Helper()
	c, err := NewCursor(bytes.NewReader(data), "test.mp3")
	if err != nil {
		tb.Fatalf("NewCursor: %v", err)
	}
	return c
}

func TestCursor_ReadAt(t *testing.T) {
	c := newTestCursor(t, []byte{0x01, 0x02, 0x03, 0x04})
	if c.Length() != 4 || c.Path() != "test.mp3" {
		t.Fatalf("length = %d path = %q", c.Length(), c.Path())
	}

	buf := make([]byte, 2)
	if err := c.ReadAt(buf, 1, "pair"); err != nil {
		t.Fatal(err)
	}
	if buf[0] != 0x02 || buf[1] != 0x03 {
		t.Errorf("got %v", buf)
	}
	if err := c.ReadAt(nil, 4, "empty at end"); err != nil {
		t.Errorf("empty read at end: %v", err)
	}
}

func TestCursor_ReadAt_OutOfBounds(t *testing.T) {
	c := newTestCursor(t, []byte{0x01, 0x02, 0x03, 0x04})

	tests := []struct {
		name string
		off  int64
		n    int
	}{
		{"past end", 10, 2},
		{"straddles end", 3, 2},
		{"negative", -1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.ReadAt(make([]byte, tt.n), tt.off, "footer")
			if !errors.Is(err, types.ErrTruncated) {
				t.Fatalf("err = %v, want ErrTruncated", err)
			}
			if msg := err.Error(); !strings.Contains(msg, "test.mp3") || !strings.Contains(msg, "footer") {
				t.Errorf("error lacks context: %v", msg)
			}
		})
	}
}

func TestCursor_Sequential(t *testing.T) {
	c := newTestCursor(t, []byte("APETAGEX\x01\x02"))

	b, err := c.Bytes(8, "preamble")
	if err != nil || string(b) != "APETAGEX" {
		t.Fatalf("Bytes = %q, %v", b, err)
	}
	if c.Position() != 8 {
		t.Errorf("position = %d", c.Position())
	}
	v, err := c.ReadByte()
	if err != nil || v != 0x01 {
		t.Errorf("ReadByte = %#x, %v", v, err)
	}
	if err := c.Skip(1); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ReadByte(); err != io.EOF {
		t.Errorf("ReadByte at end = %v, want io.EOF", err)
	}
	if err := c.Seek(11); !errors.Is(err, types.ErrTruncated) {
		t.Errorf("Seek past end = %v", err)
	}
	if err := c.Seek(0); err != nil || c.Position() != 0 {
		t.Errorf("Seek(0) = %v, position %d", err, c.Position())
	}
}

func TestCursor_LargeRead(t *testing.T) {
	data := make([]byte, cacheSize*3)
	for i := range data {
		data[i] = byte(i)
	}
	c := newTestCursor(t, data)

	// Prime the cache, then read across and beyond it.
	if _, err := c.ReadByte(); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, cacheSize*2)
	if err := c.ReadAt(buf, 100, "block"); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, data[100:100+len(buf)]) {
		t.Error("large read mismatch")
	}
	small := make([]byte, 16)
	if err := c.ReadAt(small, cacheSize-8, "straddle"); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(small, data[cacheSize-8:cacheSize+8]) {
		t.Error("cache straddle mismatch")
	}
}

func TestChainReader(t *testing.T) {
	data := []byte{0x01, 0x02, 0x00, 0x03, 0x00, 0x00, 0x00, 'a', 'b'}
	c := newTestCursor(t, data)

	cr := NewChainReader(c, LittleEndian)
	u16 := ReadChained[uint16](cr, "u16")
	u32 := ReadChained[uint32](cr, "u32")
	u8 := ReadChained[uint8](cr, "u8")
	rest := cr.Bytes(2, "rest")
	if err := cr.Error(); err != nil {
		t.Fatal(err)
	}
	if u16 != 0x0201 || u32 != 0x00000300 || u8 != 0 || string(rest) != "ab" {
		t.Errorf("got %#x %#x %#x %q", u16, u32, u8, rest)
	}
}

func TestChainReader_ErrorAccumulation(t *testing.T) {
	c := newTestCursor(t, []byte{0x01, 0x02})

	cr := NewChainReader(c, BigEndian)
	v1 := ReadChained[uint16](cr, "first")
	v2 := ReadChained[uint32](cr, "second")
	v3 := ReadChained[uint8](cr, "third")
	if b := cr.Bytes(1, "bytes"); b != nil {
		t.Errorf("Bytes after error = %v", b)
	}

	if v1 != 0x0102 || v2 != 0 || v3 != 0 {
		t.Errorf("got %#x %#x %#x", v1, v2, v3)
	}
	if err := cr.Error(); !errors.Is(err, types.ErrTruncated) || !strings.Contains(err.Error(), "second") {
		t.Errorf("Error() = %v", err)
	}
}

func BenchmarkCursor_ReadByte(b *testing.B) {
	c := newTestCursor(b, make([]byte, 1<<16))
	b.ResetTimer()
	for b.Loop() {
		if _, err := c.ReadByte(); err != nil {
			_ = c.Seek(0)
		}
	}
}
