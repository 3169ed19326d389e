// Package types provides the data structures shared by the tag format
// packages: formats, tag offsets, field lists, artwork, read options and
// the typed errors.
package types

// Format identifies a tag format.
//
// The numeric order is also the probing priority used when several readers
// share an origin: lower values are tried first.
type Format int

const (
	// FormatUnknown represents an unknown tag format.
	FormatUnknown Format = iota // Unknown
	// FormatID3v2 represents ID3v2.2, ID3v2.3 and ID3v2.4 tags.
	FormatID3v2 // ID3v2
	// FormatID3v1 represents ID3v1 and ID3v1.1 tags, with optional TAG+ extension.
	FormatID3v1 // ID3v1
	// FormatLyrics3v2 represents Lyrics3 version 2 tags.
	FormatLyrics3v2 // Lyrics3v2
	// FormatLyrics3 represents Lyrics3 version 1 tags.
	FormatLyrics3 // Lyrics3
	// FormatMusicMatch represents MusicMatch Jukebox tags.
	FormatMusicMatch // MusicMatch
	// FormatAPE represents APEv1 and APEv2 tags.
	FormatAPE // APE
	// FormatVorbis represents Vorbis comments in FLAC metadata blocks or Ogg
	// header packets.
	FormatVorbis // Vorbis
)

var formatNames = [...]string{
	FormatUnknown:    "Unknown",
	FormatID3v2:      "ID3v2",
	FormatID3v1:      "ID3v1",
	FormatLyrics3v2:  "Lyrics3v2",
	FormatLyrics3:    "Lyrics3",
	FormatMusicMatch: "MusicMatch",
	FormatAPE:        "APE",
	FormatVorbis:     "Vorbis",
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return "Unknown"
	}
	return formatNames[f]
}

// Appended reports whether tags of this format sit before or after the
// audio payload rather than inside a container structure.
func (f Format) Appended() bool {
	switch f {
	case FormatID3v2, FormatID3v1, FormatLyrics3v2, FormatLyrics3, FormatMusicMatch, FormatAPE:
		return true
	case FormatVorbis, FormatUnknown:
		return false
	default:
		return false
	}
}
