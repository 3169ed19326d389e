package binary

import (
	"bytes"
	"testing"
)

func TestReadLE(t *testing.T) {
	// APE footer fields: version 2000, tag size 0x1234.
	data := []byte{0xD0, 0x07, 0x00, 0x00, 0x34, 0x12, 0x00, 0x00, 1, 2, 3, 4, 5, 6, 7, 8}
	c := newTestCursor(t, data)

	tests := []struct {
		read func() (uint64, error)
		name string
		want uint64
	}{
		{name: "uint16", want: 2000, read: func() (uint64, error) {
			v, err := ReadLE[uint16](c, 0, "version")
			return uint64(v), err
		}},
		{name: "uint32", want: 0x1234, read: func() (uint64, error) {
			v, err := ReadLE[uint32](c, 4, "tag size")
			return uint64(v), err
		}},
		{name: "uint64", want: 0x0807060504030201, read: func() (uint64, error) {
			v, err := ReadLE[uint64](c, 8, "granule")
			return uint64(v), err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.read()
			if err != nil {
				t.Fatalf("ReadLE failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadLE() = %#x, want %#x", got, tt.want)
			}
		})
	}
	if c.Position() != 0 {
		t.Errorf("position moved to %d", c.Position())
	}
}

func TestReadBE(t *testing.T) {
	// FLAC VORBIS_COMMENT block header: type 4, length 0x28.
	data := []byte{0x04, 0x00, 0x00, 0x28, 0x01, 0x02}
	c := newTestCursor(t, data)

	header, err := ReadBE[uint32](c, 0, "block header")
	if err != nil {
		t.Fatal(err)
	}
	if header != 0x04000028 {
		t.Errorf("ReadBE() = %#x", header)
	}
	v, err := Read[uint16](c, 4, "pair")
	if err != nil || v != 0x0102 {
		t.Errorf("Read() = %#x, %v", v, err)
	}
	if _, err := ReadBE[uint32](c, 4, "past end"); err == nil {
		t.Error("expected error reading past end")
	}
}

func TestReadEndian_Uint8(t *testing.T) {
	c := newTestCursor(t, []byte{0x42})
	be, err := ReadEndian[uint8](c, 0, "byte", BigEndian)
	if err != nil {
		t.Fatal(err)
	}
	le, err := ReadEndian[uint8](c, 0, "byte", LittleEndian)
	if err != nil {
		t.Fatal(err)
	}
	if be != 0x42 || le != 0x42 {
		t.Errorf("BE=%#x LE=%#x", be, le)
	}
}

func TestDecode(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04}
	if got := Decode[uint32](buf, BigEndian); got != 0x01020304 {
		t.Errorf("BE = %#x", got)
	}
	if got := Decode[uint32](buf, LittleEndian); got != 0x04030201 {
		t.Errorf("LE = %#x", got)
	}
	if got := Decode[uint16](buf[2:], LittleEndian); got != 0x0403 {
		t.Errorf("uint16 LE = %#x", got)
	}
}

func TestAppend(t *testing.T) {
	tests := []struct {
		name string
		got  []byte
		want []byte
	}{
		{"BE uint32", AppendBE([]byte{0xAA}, uint32(0x01020304)), []byte{0xAA, 1, 2, 3, 4}},
		{"LE uint32", AppendLE(nil, uint32(0x01020304)), []byte{4, 3, 2, 1}},
		{"LE uint16", AppendLE(nil, uint16(0x0102)), []byte{2, 1}},
		{"BE uint64", AppendBE(nil, uint64(1)), []byte{0, 0, 0, 0, 0, 0, 0, 1}},
		{"uint8", AppendEndian(nil, uint8(7), LittleEndian), []byte{7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !bytes.Equal(tt.got, tt.want) {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func BenchmarkReadLE_Uint32(b *testing.B) {
	c, _ := NewCursor(bytes.NewReader([]byte{0x01, 0x02, 0x03, 0x04}), "bench")
	b.ResetTimer()
	for b.Loop() {
		_, _ = ReadLE[uint32](c, 0, "uint32")
	}
}
