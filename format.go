package audiotag

import (
	"github.com/simonhull/audiotag/internal/types"
)

// Format identifies a tag format.
type Format = types.Format

// Re-export all format constants.
const (
	FormatUnknown    = types.FormatUnknown
	FormatID3v2      = types.FormatID3v2
	FormatID3v1      = types.FormatID3v1
	FormatLyrics3v2  = types.FormatLyrics3v2
	FormatLyrics3    = types.FormatLyrics3
	FormatMusicMatch = types.FormatMusicMatch
	FormatAPE        = types.FormatAPE
	FormatVorbis     = types.FormatVorbis
)

// Origin tells which end of the stream a tag was located from.
type Origin = types.Origin

const (
	OriginStart = types.OriginStart
	OriginEnd   = types.OriginEnd
)

// TagOffset is a located tag: its decoded value and the byte range
// [Start, End) it occupies.
type TagOffset = types.TagOffset
