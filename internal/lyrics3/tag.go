// Package lyrics3 reads and writes Lyrics3 tags. Both versions sit between
// the audio and a trailing ID3v1 tag: version 1 holds a single block of
// lyrics, version 2 a list of size-prefixed fields.
package lyrics3

import (
	"path"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/simonhull/audiotag/internal/types"
)

// Markers and limits.
const (
	beginMarker = "LYRICSBEGIN"
	endV1Marker = "LYRICSEND"
	endV2Marker = "LYRICS200"

	// MaxV1Lyrics is the longest Lyrics3v1 lyrics block.
	MaxV1Lyrics = 5100
	// MaxFieldSize is the largest value a 5-digit field size can hold.
	MaxFieldSize = 99999
	// MaxTagSize is the largest value the 6-digit tag size can hold.
	MaxTagSize = 999999

	fieldHeaderSize = 8
	footerSize      = 6 + len(endV2Marker)
)

// Field IDs.
const (
	FieldIndications = "IND"
	FieldLyrics      = "LYR"
	FieldInformation = "INF"
	FieldAuthor      = "AUT"
	FieldAlbum       = "EAL"
	FieldArtist      = "EAR"
	FieldTitle       = "ETT"
	FieldImage       = "IMG"
)

var knownFields = map[string]bool{
	FieldIndications: true,
	FieldLyrics:      true,
	FieldInformation: true,
	FieldAuthor:      true,
	FieldAlbum:       true,
	FieldArtist:      true,
	FieldTitle:       true,
	FieldImage:       true,
}

// fieldKeys maps field IDs to the common key names used by Fields.
var fieldKeys = map[string]string{
	FieldLyrics:      "Lyrics",
	FieldInformation: "Comment",
	FieldAuthor:      "Lyricist",
	FieldAlbum:       "Album",
	FieldArtist:      "Artist",
	FieldTitle:       "Title",
}

// Field is one Lyrics3v2 field. Data is the raw ISO-8859-1 value.
type Field struct {
	ID   string
	Data []byte
}

// Tag is a Lyrics3 tag. A version 1 tag has exactly one LYR field.
type Tag struct {
	Fields  []Field
	Version int
}

// NewTag returns an empty Lyrics3v2 tag.
func NewTag() *Tag {
	return &Tag{Version: 2}
}

// Get returns the decoded value of the first field with id, or "".
func (t *Tag) Get(id string) string {
	for _, f := range t.Fields {
		if f.ID == id {
			return decodeText(f.Data)
		}
	}
	return ""
}

// Set replaces the value of field id, appending the field when absent.
// An empty value removes the field.
func (t *Tag) Set(id, value string) {
	i := t.index(id)
	if value == "" {
		if i >= 0 {
			t.Fields = append(t.Fields[:i], t.Fields[i+1:]...)
		}
		return
	}
	f := Field{ID: id, Data: encodeText(value)}
	if i >= 0 {
		t.Fields[i] = f
		return
	}
	t.Fields = append(t.Fields, f)
}

func (t *Tag) index(id string) int {
	for i, f := range t.Fields {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// Lyrics returns the lyrics text.
func (t *Tag) Lyrics() string {
	return t.Get(FieldLyrics)
}

// TagFields returns the text fields under common key names.
func (t *Tag) TagFields() *types.Tags {
	tags := &types.Tags{}
	for _, f := range t.Fields {
		if key, ok := fieldKeys[f.ID]; ok {
			tags.Add(key, decodeText(f.Data))
		}
	}
	return tags
}

// Artwork returns the image links of the IMG field. Each line holds
// "filename||description||timestamp"; the images themselves are not
// stored in the tag.
func (t *Tag) Artwork() []types.Artwork {
	var out []types.Artwork
	for line := range strings.Lines(t.Get(FieldImage)) {
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		parts := strings.Split(line, "||")
		art := types.Artwork{
			MIMEType: types.MIMEFromExtension(strings.ToLower(path.Ext(parts[0]))),
			Type:     types.ArtworkOther,
			Source:   types.FormatLyrics3v2,
		}
		art.Description = parts[0]
		if len(parts) > 1 && parts[1] != "" {
			art.Description = parts[1]
		}
		out = append(out, art)
	}
	return out
}

func (t *Tag) String() string {
	if t.Version == 1 {
		return "Lyrics3v1"
	}
	ids := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		ids[i] = f.ID
	}
	return "Lyrics3v2 [" + strings.Join(ids, " ") + "]"
}

func decodeText(b []byte) string {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

func encodeText(s string) []byte {
	out, err := encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return out
}
