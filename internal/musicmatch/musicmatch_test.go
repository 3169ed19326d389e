package musicmatch

import (
	"bytes"
	"errors"
	"testing"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

func cursor(t *testing.T, data []byte) *binary.Cursor {
	t.Helper()
	c, err := binary.NewCursor(bytes.NewReader(data), "test.mp3")
	if err != nil {
		t.Fatalf("NewCursor: %v", err)
	}
	return c
}

func strict() *types.ReadOptions {
	o := types.NewReadOptions()
	o.Strict = true
	return o
}

type fixture struct {
	header   bool
	metaSize int64
	image    []byte
	fields   []string
}

// build lays out a MusicMatch tag as written at absolute offset base.
func (f fixture) build(base uint32) []byte {
	var b []byte
	if f.header {
		h := make([]byte, HeaderSize)
		copy(h[10:], versionSync)
		b = append(b, h...)
		base += HeaderSize
	}

	imageExt := base
	b = append(b, "png "...)
	imageOff := base + 4
	b = binary.AppendLE(b, uint32(len(f.image)))
	b = append(b, f.image...)
	unusedOff := imageOff + 4 + uint32(len(f.image))
	b = append(b, 0, 0, 0, 0)
	versionOff := unusedOff + unusedSize

	version := make([]byte, VersionSize)
	copy(version, versionSync)
	b = append(b, version...)
	metaOff := versionOff + VersionSize

	meta := make([]byte, 0, f.metaSize)
	for _, s := range f.fields {
		meta = binary.AppendLE(meta, uint16(len(s)))
		meta = append(meta, s...)
	}
	b = append(b, meta...)
	b = append(b, make([]byte, f.metaSize-int64(len(meta)))...)

	for _, off := range []uint32{imageExt, imageOff, unusedOff, versionOff, metaOff} {
		b = binary.AppendLE(b, off)
	}
	b = append(b, "Brava Software Inc.             3.00            "...)
	return b
}

var fields = []string{"Song", "Album", "Art\xefst", "Rock", "Fast", "Happy", "Party", "Great"}

func TestRead(t *testing.T) {
	tests := []struct {
		name string
		fx   fixture
	}{
		{"7868 no header", fixture{metaSize: 7868, fields: fields}},
		{"7936 with header", fixture{header: true, metaSize: 7936, fields: fields}},
		{"with image", fixture{metaSize: 7868, fields: fields, image: []byte{0x89, 'P', 'N', 'G', 1, 2, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audio := bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x64}, 100)
			tag := tt.fx.build(uint32(len(audio)) + 5000)
			data := append(append([]byte{}, audio...), tag...)

			off, found, err := Read(cursor(t, data), int64(len(data)), strict())
			if err != nil || !found {
				t.Fatalf("found=%v err=%v", found, err)
			}
			if off.Start != int64(len(audio)) || off.End != int64(len(data)) {
				t.Errorf("range = [%d, %d), want [%d, %d)", off.Start, off.End, len(audio), len(data))
			}
			got := off.Tag.(*Tag)
			if got.HasHeader != tt.fx.header || got.Version != "3.00" {
				t.Errorf("header = %v version = %q", got.HasHeader, got.Version)
			}
			if got.Get("Title") != "Song" || got.Get("Artist") != "Artïst" || got.Get("Preference") != "Great" {
				t.Errorf("fields = %v", got.Fields)
			}
			if got.TagFields().Len() != 8 {
				t.Errorf("TagFields = %d keys", got.TagFields().Len())
			}
			art := got.Artwork()
			if len(tt.fx.image) == 0 {
				if art != nil {
					t.Errorf("artwork = %v", art)
				}
			} else if len(art) != 1 || !bytes.Equal(art[0].Data, tt.fx.image) || art[0].MIMEType != "image/png" {
				t.Errorf("artwork = %v", art)
			}
		})
	}
}

func TestRead_BeforeID3v1(t *testing.T) {
	tag := fixture{metaSize: 7868, fields: fields}.build(0)
	data := append(tag, append([]byte("TAG"), make([]byte, 125)...)...)

	off, found, err := Read(cursor(t, data), int64(len(tag)), strict())
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if off.Start != 0 || off.End != int64(len(tag)) {
		t.Errorf("range = [%d, %d)", off.Start, off.End)
	}
}

func TestRead_NotFound(t *testing.T) {
	good := fixture{metaSize: 7868, fields: fields}.build(0)

	noSync := bytes.Clone(good)
	copy(noSync[12:], "00000000")

	badFooter := bytes.Clone(good)
	copy(badFooter[len(badFooter)-16:], "x.yz")

	shortField := fixture{metaSize: 7868, fields: []string{"Song"}}.build(0)
	n := 12 + VersionSize
	shortField[n+6] = 0xFF
	shortField[n+7] = 0xFF

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"no tag", bytes.Repeat([]byte{0}, 100), nil},
		{"no version sync", noSync, types.ErrMalformed},
		{"bad footer version", badFooter, nil},
		{"field past metadata", shortField, types.ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, found, err := Read(cursor(t, tt.data), int64(len(tt.data)), strict())
			if tt.wantErr == nil {
				if err != nil || found {
					t.Errorf("found=%v err=%v", found, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("strict err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
