package vorbis

import (
	"bytes"
	"errors"
	"testing"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

func strict() *types.ReadOptions {
	o := types.NewReadOptions()
	o.Strict = true
	return o
}

// packet builds a comment packet from raw comment strings.
func packet(vendor string, comments ...string) []byte {
	b := binary.AppendLE(nil, uint32(len(vendor)))
	b = append(b, vendor...)
	b = binary.AppendLE(b, uint32(len(comments)))
	for _, c := range comments {
		b = binary.AppendLE(b, uint32(len(c)))
		b = append(b, c...)
	}
	return b
}

func TestParseComment(t *testing.T) {
	tests := []struct {
		comment   string
		wantKey   string
		wantValue string
		wantErr   bool
	}{
		{"TITLE=Test Song", "TITLE", "Test Song", false},
		{"title=lower", "title", "lower", false},
		{"COMMENT=x=y=z", "COMMENT", "x=y=z", false},
		{"TITLE=", "TITLE", "", false},
		{"NOEQUALSIGN", "", "", true},
		{"=value", "", "", true},
		{"BAD\x01KEY=v", "", "", true},
		{"BAD~KEY=v", "", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.comment, func(t *testing.T) {
			key, value, err := ParseComment(tc.comment)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseComment(%q) error = %v, wantErr %v", tc.comment, err, tc.wantErr)
			}
			if key != tc.wantKey || value != tc.wantValue {
				t.Errorf("ParseComment(%q) = %q, %q", tc.comment, key, value)
			}
		})
	}
}

func TestParse(t *testing.T) {
	data := append(packet("reference libFLAC 1.4.3", "TITLE=Song", "ARTIST=One", "artist=Two"), 1)

	c, err := Parse(data, "test.flac", 0, strict())
	if err != nil {
		t.Fatal(err)
	}
	if c.Vendor != "reference libFLAC 1.4.3" || !c.Framed {
		t.Errorf("vendor = %q framed = %v", c.Vendor, c.Framed)
	}
	if c.Fields.GetFirst("title") != "Song" {
		t.Errorf("TITLE = %q", c.Fields.GetFirst("title"))
	}
	if got := c.Fields.Get("ARTIST"); len(got) != 2 || got[0] != "One" || got[1] != "Two" {
		t.Errorf("ARTIST = %v", got)
	}
}

func TestParse_InvalidComment(t *testing.T) {
	data := packet("v", "TITLE=Song", "garbage", "ALBUM=Album")

	if _, err := Parse(data, "test.flac", 100, strict()); !errors.Is(err, types.ErrMalformed) {
		t.Errorf("strict err = %v, want ErrMalformed", err)
	}

	opts := types.NewReadOptions()
	c, err := Parse(data, "test.flac", 100, opts)
	if err != nil {
		t.Fatal(err)
	}
	if c.Fields.Len() != 2 || len(opts.Warnings) != 1 {
		t.Errorf("fields = %d warnings = %v", c.Fields.Len(), opts.Warnings)
	}
}

func TestParse_Truncated(t *testing.T) {
	full := packet("v", "TITLE=Song", "ALBUM=Album")
	cut := full[:len(full)-3]

	opts := types.NewReadOptions()
	c, err := Parse(cut, "test.flac", 0, opts)
	if err != nil {
		t.Fatal(err)
	}
	if c.Fields.GetFirst("TITLE") != "Song" || c.Fields.GetFirst("ALBUM") != "" || len(opts.Warnings) != 1 {
		t.Errorf("fields = %v warnings = %v", c.Fields, opts.Warnings)
	}

	if _, err := Parse(cut, "test.flac", 0, strict()); !errors.Is(err, types.ErrMalformed) {
		t.Errorf("strict err = %v", err)
	}
}

func TestParse_BadHeader(t *testing.T) {
	hugeVendor := binary.AppendLE(nil, uint32(1000))
	hugeVendor = append(hugeVendor, make([]byte, 10)...)
	hugeCount := append(packet("v"), 0)
	copy(hugeCount[5:], []byte{0xFF, 0xFF, 0xFF, 0x7F})

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"short", []byte{1, 0, 0}, types.ErrTruncated},
		{"vendor past packet", hugeVendor, types.ErrMalformed},
		{"count past packet", hugeCount, types.ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.data, "test.flac", 0, types.NewReadOptions()); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	c := New("audiotag")
	c.Fields.Add("TITLE", "Ünïcödé")
	c.Fields.Add("ARTIST", "One")
	c.Fields.Add("ARTIST", "Two")
	c.AddArtwork(types.Artwork{MIMEType: "image/png", Description: "cover", Data: []byte{1, 2, 3}, Type: types.ArtworkFrontCover})

	for _, framing := range []bool{false, true} {
		data, err := Encode(c, framing)
		if err != nil {
			t.Fatal(err)
		}
		got, err := Parse(data, "", 0, strict())
		if err != nil {
			t.Fatal(err)
		}
		if got.Framed != framing || got.Vendor != "audiotag" {
			t.Errorf("framed = %v vendor = %q", got.Framed, got.Vendor)
		}
		if got.Fields.GetFirst("TITLE") != "Ünïcödé" || len(got.Fields.Get("ARTIST")) != 2 {
			t.Errorf("fields = %v", got.Fields)
		}
		art := got.Artwork()
		if len(art) != 1 || art[0].Description != "cover" || !bytes.Equal(art[0].Data, []byte{1, 2, 3}) || art[0].Type != types.ArtworkFrontCover {
			t.Errorf("artwork = %v", art)
		}
	}
}

func TestEncode_InvalidKey(t *testing.T) {
	c := New("")
	c.Fields.Add("A=B", "x")
	if _, err := Encode(c, false); !errors.Is(err, types.ErrMalformed) {
		t.Errorf("err = %v", err)
	}
}

func TestParsePicture_Errors(t *testing.T) {
	good := EncodePicture(types.Artwork{MIMEType: "image/jpeg", Description: "d", Data: []byte{9, 9}})
	badMime := bytes.Clone(good)
	copy(badMime[4:], []byte{0xFF, 0xFF, 0xFF, 0xFF})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"cut in data", good[:len(good)-1]},
		{"cut in dimensions", good[:30]},
		{"MIME length", badMime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePicture(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}

	art, err := ParsePicture(good)
	if err != nil || art.MIMEType != "image/jpeg" || art.Type != types.ArtworkOther {
		t.Errorf("ParsePicture = %v, %v", art, err)
	}
}

func TestArtwork_SkipsInvalid(t *testing.T) {
	c := New("")
	c.Fields.Add(PictureKey, "!!not base64!!")
	c.Fields.Add(PictureKey, "AAAA")
	if art := c.Artwork(); len(art) != 0 {
		t.Errorf("artwork = %v", art)
	}
}
