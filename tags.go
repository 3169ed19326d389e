package audiotag

import (
	"github.com/simonhull/audiotag/internal/ape"
	"github.com/simonhull/audiotag/internal/flac"
	"github.com/simonhull/audiotag/internal/id3v1"
	"github.com/simonhull/audiotag/internal/id3v2"
	"github.com/simonhull/audiotag/internal/lyrics3"
	"github.com/simonhull/audiotag/internal/musicmatch"
	"github.com/simonhull/audiotag/internal/ogg"
	"github.com/simonhull/audiotag/internal/types"
	"github.com/simonhull/audiotag/internal/vorbis"
)

// Tags is an ordered, case-insensitive multi-value field list.
type Tags = types.Tags

// Format-specific tag values held in TagOffset.Tag.
type (
	APETag        = ape.Tag
	APEItem       = ape.Item
	ID3v1Tag      = id3v1.Tag
	ID3v2Tag      = id3v2.Tag
	ID3v2Frame    = id3v2.Frame
	ID3v2Kind     = id3v2.Kind
	Lyrics3Tag    = lyrics3.Tag
	MusicMatchTag = musicmatch.Tag
	VorbisComment = vorbis.Comment
	FLACTag       = flac.Tag
	OggTag        = ogg.Tag
)

// NewAPETag returns an empty APEv2 tag.
func NewAPETag() *APETag { return ape.NewTag() }

// NewAPETextItem returns a UTF-8 text item.
func NewAPETextItem(key string, values ...string) APEItem {
	return ape.NewTextItem(key, values...)
}

// NewID3v1Tag returns an empty ID3v1 tag.
func NewID3v1Tag() *ID3v1Tag { return id3v1.NewTag() }

// NewID3v2Tag returns an empty ID3v2 tag of the given major version.
func NewID3v2Tag(major byte) *ID3v2Tag { return id3v2.NewTag(major) }

// NewLyrics3Tag returns an empty Lyrics3v2 tag.
func NewLyrics3Tag() *Lyrics3Tag { return lyrics3.NewTag() }

type fieldsMethod interface {
	Fields() *types.Tags
}

type tagFieldsMethod interface {
	TagFields() *types.Tags
}

// FieldsOf returns the text fields of a tag value, or nil when the value
// has none.
func FieldsOf(tag any) *Tags {
	switch t := tag.(type) {
	case fieldsMethod:
		return t.Fields()
	case tagFieldsMethod:
		return t.TagFields()
	}
	return nil
}

// Fields merges the text fields of every tag. Where two tags share a key
// the tag with the lower Format value wins.
func (f *File) Fields() *Tags {
	merged := &Tags{}
	for _, format := range formatsByPriority(f.Tags) {
		for _, t := range f.Tags {
			if t.Format == format {
				merged.Merge(FieldsOf(t.Tag))
			}
		}
	}
	return merged
}

func formatsByPriority(tags []TagOffset) []Format {
	var out []Format
	for format := FormatID3v2; format <= FormatVorbis; format++ {
		for _, t := range tags {
			if t.Format == format {
				out = append(out, format)
				break
			}
		}
	}
	return out
}
