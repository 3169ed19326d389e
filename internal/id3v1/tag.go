// Package id3v1 reads and writes ID3v1 and ID3v1.1 tags and the enhanced
// "TAG+" extension block that may precede them.
package id3v1

import (
	"bytes"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/simonhull/audiotag/internal/types"
)

// Record sizes.
const (
	Size         = 128
	ExtendedSize = 227
)

var (
	magic         = []byte("TAG")
	extendedMagic = []byte("TAG+")
)

// Tag is an ID3v1 tag. Text fields hold the decoded, trimmed values; the
// enhanced block, when present, extends Title, Artist and Album to 90
// bytes each.
type Tag struct {
	Title   string
	Artist  string
	Album   string
	Year    string
	Comment string
	// Track is the ID3v1.1 track number, 0 when absent.
	Track byte
	// Genre is an index into the genre list, GenreNone when unset.
	Genre byte

	Extended *Extended
}

// Extended holds the TAG+ fields that have no place in the base record.
type Extended struct {
	// Speed is 0 (unset) or 1 to 4 (slow to hardcore).
	Speed byte
	// Genre is a free-form genre name.
	Genre string
	// Start and End are "mmm:ss" play positions.
	Start string
	End   string
}

// NewTag returns an empty tag with no genre.
func NewTag() *Tag {
	return &Tag{Genre: GenreNone}
}

// GenreName returns the genre, preferring the free-form TAG+ genre.
func (t *Tag) GenreName() string {
	if t.Extended != nil && t.Extended.Genre != "" {
		return t.Extended.Genre
	}
	return GenreName(t.Genre)
}

// Fields returns the tag as a key/value list using APE-style keys.
func (t *Tag) Fields() *types.Tags {
	tags := &types.Tags{}
	add := func(key, value string) {
		if value != "" {
			tags.Add(key, value)
		}
	}
	add("Title", t.Title)
	add("Artist", t.Artist)
	add("Album", t.Album)
	add("Year", t.Year)
	add("Comment", t.Comment)
	if t.Track != 0 {
		add("Track", strconv.Itoa(int(t.Track)))
	}
	add("Genre", t.GenreName())
	return tags
}

func (t *Tag) String() string {
	var b strings.Builder
	b.WriteString("ID3v1")
	if t.Track != 0 {
		b.WriteString(".1")
	}
	if t.Extended != nil {
		b.WriteString("+TAG+")
	}
	if t.Title != "" {
		b.WriteString(" ")
		b.WriteString(strconv.Quote(t.Title))
	}
	return b.String()
}

// decodeField converts an ISO-8859-1 field to UTF-8, dropping everything
// after the first NUL and trailing spaces.
func decodeField(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	b = bytes.TrimRight(b, " ")
	if len(b) == 0 {
		return ""
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// encodeField converts s to ISO-8859-1, replacing what the charset cannot
// hold.
func encodeField(s string) []byte {
	out, err := encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return out
}
