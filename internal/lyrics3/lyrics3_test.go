package lyrics3

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
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

// rawV2 builds a Lyrics3v2 tag from already formatted field bytes.
func rawV2(fields ...string) []byte {
	body := beginMarker + strings.Join(fields, "")
	return []byte(body + fmt.Sprintf("%06d", len(body)) + endV2Marker)
}

var (
	audio  = bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x44}, 32)
	id3v1  = append([]byte("TAG"), make([]byte, 125)...)
	fields = []string{"IND00002" + "10", "LYR00011" + "Hello world", "ETT00005" + "Title"}
)

// withAudio places tag between audio and an ID3v1 record and returns the
// stream and the anchor.
func withAudio(tag []byte) ([]byte, int64) {
	data := append(append([]byte{}, audio...), tag...)
	anchor := int64(len(data))
	return append(data, id3v1...), anchor
}

func TestReadV2(t *testing.T) {
	tag := rawV2(fields...)
	data, anchor := withAudio(tag)

	off, found, err := ReadV2(cursor(t, data), anchor, strict())
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if off.Start != int64(len(audio)) || off.End != anchor {
		t.Errorf("range = [%d, %d), want [%d, %d)", off.Start, off.End, len(audio), anchor)
	}
	got := off.Tag.(*Tag)
	if len(got.Fields) != 3 || got.Lyrics() != "Hello world" || got.Get(FieldTitle) != "Title" {
		t.Errorf("tag = %v %q", got, got.Fields)
	}
	if tf := got.TagFields(); tf.GetFirst("Title") != "Title" || tf.GetFirst("Lyrics") != "Hello world" {
		t.Errorf("TagFields = %v", tf)
	}
}

func TestReadV2_FieldResync(t *testing.T) {
	tests := []struct {
		name   string
		fields []string
	}{
		{"declared short", []string{"LYR00005Hello world", "ETT00005Title"}},
		{"declared long", []string{"LYR00042Hello world", "ETT00005Title"}},
		{"last field past end", []string{"LYR00011Hello world", "ETT00090Title"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, anchor := withAudio(rawV2(tt.fields...))
			opts := types.NewReadOptions()
			off, found, err := ReadV2(cursor(t, data), anchor, opts)
			if err != nil || !found {
				t.Fatalf("found=%v err=%v", found, err)
			}
			got := off.Tag.(*Tag)
			if got.Lyrics() != "Hello world" || got.Get(FieldTitle) != "Title" {
				t.Errorf("fields = %q", got.Fields)
			}
			if len(opts.Warnings) != 1 {
				t.Errorf("warnings = %v, want one correction", opts.Warnings)
			}
		})
	}
}

func TestReadV2_InvalidFieldHeader(t *testing.T) {
	data, anchor := withAudio(rawV2("lyr00003abc", "ETT00005Title"))

	_, _, err := ReadV2(cursor(t, data), anchor, strict())
	if !errors.Is(err, types.ErrMalformed) {
		t.Errorf("strict err = %v, want ErrMalformed", err)
	}

	opts := types.NewReadOptions()
	off, found, err := ReadV2(cursor(t, data), anchor, opts)
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	got := off.Tag.(*Tag)
	if len(got.Fields) != 1 || got.Get(FieldTitle) != "Title" {
		t.Errorf("fields = %q", got.Fields)
	}
}

func TestReadV2_NotFound(t *testing.T) {
	missingBegin := rawV2(fields...)
	copy(missingBegin, "XXXXXX")
	badSize := rawV2(fields...)
	copy(badSize[len(badSize)-15:], "00x053")
	tooLong := []byte("LYR00003abc999999" + endV2Marker)

	tests := []struct {
		name    string
		tag     []byte
		wantErr error
	}{
		{"no tag", nil, nil},
		{"missing LYRICSBEGIN", missingBegin, nil},
		{"non-digit size", badSize, nil},
		{"size before stream start", tooLong, types.ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := append(append([]byte{}, tt.tag...), id3v1...)
			anchor := int64(len(tt.tag))

			lenient := types.NewReadOptions()
			_, found, err := ReadV2(cursor(t, data), anchor, lenient)
			if err != nil || found {
				t.Errorf("lenient: found=%v err=%v", found, err)
			}
			if tt.wantErr == nil && len(lenient.Warnings) != 0 {
				t.Errorf("lenient: warnings = %v, want none", lenient.Warnings)
			}
			_, _, err = ReadV2(cursor(t, data), anchor, strict())
			if tt.wantErr == nil && err != nil || tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("strict: err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestReadV2_OversizeStrict(t *testing.T) {
	data, anchor := withAudio(rawV2(fields...))

	opts := strict()
	opts.MaxTagSize = 20
	if _, _, err := ReadV2(cursor(t, data), anchor, opts); !errors.Is(err, types.ErrMalformed) {
		t.Errorf("strict err = %v, want ErrMalformed", err)
	}

	lenient := types.NewReadOptions()
	lenient.MaxTagSize = 20
	_, found, err := ReadV2(cursor(t, data), anchor, lenient)
	if err != nil || found {
		t.Errorf("lenient: found=%v err=%v", found, err)
	}
	if len(lenient.Warnings) != 1 {
		t.Errorf("lenient: warnings = %v, want one", lenient.Warnings)
	}
}

func TestReadV1(t *testing.T) {
	tag := []byte(beginMarker + "Some lyrics\r\nline two" + endV1Marker)
	data, anchor := withAudio(tag)

	off, found, err := ReadV1(cursor(t, data), anchor, strict())
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if off.Start != int64(len(audio)) || off.End != anchor || off.Format != types.FormatLyrics3 {
		t.Errorf("offset = %v", off)
	}
	if got := off.Tag.(*Tag).Lyrics(); got != "Some lyrics\r\nline two" {
		t.Errorf("lyrics = %q", got)
	}
}

func TestReadV1_BeginOutOfRange(t *testing.T) {
	tag := []byte(beginMarker + strings.Repeat("a", MaxV1Lyrics+1) + endV1Marker)
	data, anchor := withAudio(tag)

	for _, opts := range []*types.ReadOptions{types.NewReadOptions(), strict()} {
		_, found, err := ReadV1(cursor(t, data), anchor, opts)
		if err != nil || found {
			t.Errorf("strict=%v: found=%v err=%v", opts.Strict, found, err)
		}
		if len(opts.Warnings) != 0 {
			t.Errorf("strict=%v: warnings = %v", opts.Strict, opts.Warnings)
		}
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	tag := NewTag()
	tag.Set(FieldIndications, "10")
	tag.Set(FieldLyrics, "[00:01]Première ligne")
	tag.Set(FieldArtist, "Artist")
	tag.Set(FieldImage, "cover.png||Front||[00:00]\r\nback.jpg||||")

	data, err := Encode(tag)
	if err != nil {
		t.Fatal(err)
	}
	stream, anchor := withAudio(data)
	off, found, err := ReadV2(cursor(t, stream), anchor, strict())
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	got := off.Tag.(*Tag)
	if got.Lyrics() != "[00:01]Première ligne" || got.Get(FieldArtist) != "Artist" {
		t.Errorf("fields = %q", got.Fields)
	}

	art := got.Artwork()
	if len(art) != 2 {
		t.Fatalf("artwork = %v", art)
	}
	if art[0].Description != "Front" || art[0].MIMEType != "image/png" || art[0].Data != nil {
		t.Errorf("art[0] = %+v", art[0])
	}
	if art[1].Description != "back.jpg" || art[1].MIMEType != "image/jpeg" {
		t.Errorf("art[1] = %+v", art[1])
	}
}

func TestEncodeV1_RoundTrip(t *testing.T) {
	tag := &Tag{Version: 1}
	tag.Set(FieldLyrics, "la la la")
	data, err := EncodeV1(tag)
	if err != nil {
		t.Fatal(err)
	}
	stream, anchor := withAudio(data)
	off, found, err := ReadV1(cursor(t, stream), anchor, strict())
	if err != nil || !found || off.Tag.(*Tag).Lyrics() != "la la la" {
		t.Fatalf("found=%v err=%v", found, err)
	}

	tag.Set(FieldLyrics, strings.Repeat("x", MaxV1Lyrics+1))
	var uerr *types.UnsupportedWriteError
	if _, err := EncodeV1(tag); !errors.As(err, &uerr) {
		t.Errorf("oversized lyrics err = %v", err)
	}
}

func TestEncode_InvalidFieldID(t *testing.T) {
	tag := &Tag{Version: 2, Fields: []Field{{ID: "ly", Data: []byte("x")}}}
	if _, err := Encode(tag); !errors.Is(err, types.ErrMalformed) {
		t.Errorf("err = %v", err)
	}
}

func TestSet_RemovesEmpty(t *testing.T) {
	tag := NewTag()
	tag.Set(FieldTitle, "x")
	tag.Set(FieldTitle, "")
	if len(tag.Fields) != 0 {
		t.Errorf("fields = %q", tag.Fields)
	}
}
