package ogg

import (
	"bytes"
	"errors"
	"testing"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
	"github.com/simonhull/audiotag/internal/vorbis"
)

func cursor(t *testing.T, data []byte) *binary.Cursor {
	t.Helper()
	c, err := binary.NewCursor(bytes.NewReader(data), "test.ogg")
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

// page builds an Ogg page. The checksum is left zero.
func page(headerType byte, serial, sequence uint32, segments []byte, data []byte) []byte {
	b := append([]byte(Magic), 0, headerType)
	b = binary.AppendLE(b, uint64(0))
	b = binary.AppendLE(b, serial)
	b = binary.AppendLE(b, sequence)
	b = binary.AppendLE(b, uint32(0))
	b = append(b, byte(len(segments)))
	b = append(b, segments...)
	return append(b, data...)
}

// lacing returns the segment table for a single packet.
func lacing(n int) []byte {
	var segs []byte
	for n >= 255 {
		segs = append(segs, 255)
		n -= 255
	}
	return append(segs, byte(n))
}

func vorbisID() []byte {
	b := append([]byte("\x01vorbis"), make([]byte, 4)...)
	b = append(b, 2)
	b = binary.AppendLE(b, uint32(44100))
	return append(b, make([]byte, 13)...)
}

func commentPacket(t *testing.T, prefix string, framing bool, fields ...string) []byte {
	t.Helper()
	c := vorbis.New("Xiph.Org libVorbis I 20200704")
	for i := 0; i+1 < len(fields); i += 2 {
		c.Fields.Add(fields[i], fields[i+1])
	}
	data, err := vorbis.Encode(c, framing)
	if err != nil {
		t.Fatal(err)
	}
	return append([]byte(prefix), data...)
}

func TestRead_Vorbis(t *testing.T) {
	id := page(FlagBOS, 7, 0, lacing(len(vorbisID())), vorbisID())
	comment := commentPacket(t, "\x03vorbis", true, "TITLE", "Song", "ARTIST", "Artist")
	setup := []byte("\x05vorbis setup")
	// Comment and setup packets share the second page.
	second := page(0, 7, 1, append(lacing(len(comment)), lacing(len(setup))...), append(bytes.Clone(comment), setup...))
	audio := page(FlagEOS, 7, 2, lacing(100), make([]byte, 100))
	data := append(append(bytes.Clone(id), second...), audio...)

	opts := strict()
	off, found, err := Read(cursor(t, data), 0, opts)
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if off.Start != int64(len(id)) || off.End != int64(len(id)+len(second)) {
		t.Errorf("range = [%d, %d)", off.Start, off.End)
	}
	tag := off.Tag.(*Tag)
	if tag.Codec != CodecVorbis || !tag.Framed {
		t.Errorf("codec = %q framed = %v", tag.Codec, tag.Framed)
	}
	if tag.Fields.GetFirst("title") != "Song" || tag.Fields.GetFirst("artist") != "Artist" {
		t.Errorf("fields = %v", tag.Fields)
	}
	if len(opts.Warnings) != 0 {
		t.Errorf("warnings = %v", opts.Warnings)
	}
}

func TestRead_Opus(t *testing.T) {
	head := append([]byte("OpusHead"), 1, 2, 0, 0, 0x80, 0xBB, 0, 0, 0, 0, 0)
	tags := commentPacket(t, "OpusTags", false, "ALBUM", "Album")
	data := page(FlagBOS, 1, 0, lacing(len(head)), head)
	data = append(data, page(0, 1, 1, lacing(len(tags)), tags)...)

	off, found, err := Read(cursor(t, data), 0, strict())
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	tag := off.Tag.(*Tag)
	if tag.Codec != CodecOpus || tag.Fields.GetFirst("ALBUM") != "Album" {
		t.Errorf("codec = %q fields = %v", tag.Codec, tag.Fields)
	}
}

func TestRead_PacketSpansPages(t *testing.T) {
	long := string(bytes.Repeat([]byte("x"), 600))
	comment := commentPacket(t, "\x03vorbis", true, "COMMENT", long)
	split := 510 // two full segments on the first page

	id := page(FlagBOS, 3, 0, lacing(len(vorbisID())), vorbisID())
	p1 := page(0, 3, 1, []byte{255, 255}, comment[:split])
	// A page of another logical stream sits between the halves.
	other := page(FlagBOS, 99, 0, lacing(5), []byte("other"))
	p2 := page(FlagContinued, 3, 2, lacing(len(comment)-split), comment[split:])
	data := append(append(append(bytes.Clone(id), p1...), other...), p2...)

	off, found, err := Read(cursor(t, data), 0, strict())
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if off.Start != int64(len(id)) || off.End != int64(len(data)) {
		t.Errorf("range = [%d, %d), want [%d, %d)", off.Start, off.End, len(id), len(data))
	}
	if got := off.Tag.(*Tag).Fields.GetFirst("COMMENT"); got != long {
		t.Errorf("COMMENT length = %d", len(got))
	}
}

func TestRead_OggFLAC(t *testing.T) {
	head := append([]byte("\x7fFLAC\x01\x00\x00\x01fLaC"), make([]byte, 38)...)
	body := commentPacket(t, "", false, "GENRE", "Jazz")
	block := append(binary.AppendBE(nil, uint32(4)<<24|uint32(len(body))), body...)
	data := page(FlagBOS, 5, 0, lacing(len(head)), head)
	data = append(data, page(0, 5, 1, lacing(len(block)), block)...)

	off, found, err := Read(cursor(t, data), 0, strict())
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if tag := off.Tag.(*Tag); tag.Codec != CodecFLAC || tag.Fields.GetFirst("GENRE") != "Jazz" {
		t.Errorf("codec = %q fields = %v", tag.Codec, tag.Fields)
	}
}

func TestRead_NotFound(t *testing.T) {
	speex := []byte("Speex   ")
	tests := []struct {
		name string
		data []byte
	}{
		{"not ogg", []byte("fLaC\x00\x00\x00\x22")},
		{"empty", nil},
		{"unknown codec", page(FlagBOS, 1, 0, lacing(len(speex)), speex)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, found, err := Read(cursor(t, tt.data), 0, strict())
			if err != nil || found {
				t.Errorf("found=%v err=%v", found, err)
			}
		})
	}
}

func TestRead_Errors(t *testing.T) {
	id := page(FlagBOS, 7, 0, lacing(len(vorbisID())), vorbisID())
	bad := []byte("\x05vorbis not a comment")
	wrongHeader := append(bytes.Clone(id), page(0, 7, 1, lacing(len(bad)), bad)...)

	comment := commentPacket(t, "\x03vorbis", true, "TITLE", "Song")
	full := page(0, 7, 1, lacing(len(comment)), comment)
	cut := append(bytes.Clone(id), full[:len(full)-10]...)

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"wrong second packet", wrongHeader, types.ErrMalformed},
		{"comment page truncated", cut, types.ErrTruncated},
		{"id page only", id, types.ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Read(cursor(t, tt.data), 0, strict()); !errors.Is(err, tt.wantErr) {
				t.Errorf("strict err = %v, want %v", err, tt.wantErr)
			}

			opts := types.NewReadOptions()
			_, found, err := Read(cursor(t, tt.data), 0, opts)
			if err != nil || found {
				t.Errorf("lenient found=%v err=%v", found, err)
			}
			if len(opts.Warnings) == 0 {
				t.Error("expected a warning")
			}
		})
	}
}

func TestRead_UnframedVorbisWarns(t *testing.T) {
	id := page(FlagBOS, 7, 0, lacing(len(vorbisID())), vorbisID())
	comment := commentPacket(t, "\x03vorbis", false, "TITLE", "Song")
	data := append(bytes.Clone(id), page(0, 7, 1, lacing(len(comment)), comment)...)

	opts := types.NewReadOptions()
	_, found, err := Read(cursor(t, data), 0, opts)
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if len(opts.Warnings) != 1 {
		t.Errorf("warnings = %v", opts.Warnings)
	}
}
