package container

import (
	"bytes"
	"errors"
	"testing"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/flac"
	"github.com/simonhull/audiotag/internal/ogg"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/types"
	"github.com/simonhull/audiotag/internal/vorbis"
)

func cursor(t *testing.T, data []byte) *binary.Cursor {
	t.Helper()
	c, err := binary.NewCursor(bytes.NewReader(data), "test")
	if err != nil {
		t.Fatalf("NewCursor: %v", err)
	}
	return c
}

func flacStream(t *testing.T) []byte {
	t.Helper()
	c := vorbis.New("v")
	c.Fields.Add("TITLE", "Song")
	block, err := flac.EncodeBlock(&flac.Tag{Comment: c, Last: true})
	if err != nil {
		t.Fatal(err)
	}
	info := binary.AppendBE(nil, uint32(flac.BlockStreamInfo)<<24|34)
	info = append(info, make([]byte, 34)...)
	return append(append([]byte(flac.Magic), info...), block...)
}

func TestRead_Dispatch(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		wantFound bool
	}{
		{"flac", flacStream(t), true},
		{"ogg without pages", []byte("OggS"), false},
		{"mp3 frame", []byte{0xFF, 0xFB, 0x90, 0x64, 0, 0}, false},
		{"short", []byte("fL"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			off, found, err := Read(cursor(t, tt.data), 0, types.NewReadOptions())
			if err != nil || found != tt.wantFound {
				t.Fatalf("found=%v err=%v", found, err)
			}
			if found && off.Format != types.FormatVorbis {
				t.Errorf("format = %v", off.Format)
			}
		})
	}
}

func TestRegistered(t *testing.T) {
	r := registry.Get(types.FormatVorbis, types.OriginStart)
	if r == nil {
		t.Fatal("no Vorbis reader registered")
	}
	off, found, err := r.Read(cursor(t, flacStream(t)), 0, types.NewReadOptions())
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}

	w := registry.GetWriter(types.FormatVorbis)
	if w == nil {
		t.Fatal("no Vorbis writer registered")
	}
	enc, err := w.Encode(off.Tag, registry.EncodeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if int64(len(enc)) != off.Len() {
		t.Errorf("encoded %d bytes, tag spans %d", len(enc), off.Len())
	}
}

func TestEncode_Ogg(t *testing.T) {
	_, err := (&writer{}).Encode(&ogg.Tag{Comment: vorbis.New(""), Codec: ogg.CodecOpus}, registry.EncodeOptions{})
	var uerr *types.UnsupportedWriteError
	if !errors.As(err, &uerr) {
		t.Errorf("err = %v, want UnsupportedWriteError", err)
	}
	if _, err := (&writer{}).Encode("nope", registry.EncodeOptions{}); err == nil {
		t.Error("expected error for foreign type")
	}
}
