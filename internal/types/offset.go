package types

import "fmt"

// Origin tells which end of the stream a tag was located from.
type Origin int

const (
	// OriginStart means the tag was found scanning forward from an anchor.
	OriginStart Origin = iota
	// OriginEnd means the tag was found scanning backward from an anchor.
	OriginEnd
)

func (o Origin) String() string {
	if o == OriginEnd {
		return "end"
	}
	return "start"
}

// TagOffset is the immutable result of a successful tag parse.
//
// Start and End delimit the half-open byte range [Start, End) the tag
// occupies in the stream, including any header and footer. Tag holds the
// format-specific tag value (*ape.Tag, *id3v2.Tag, ...).
type TagOffset struct {
	Tag    any
	Origin Origin
	Format Format
	Start  int64
	End    int64
}

// Len returns the number of bytes the tag occupies.
func (o TagOffset) Len() int64 {
	return o.End - o.Start
}

func (o TagOffset) String() string {
	return fmt.Sprintf("%s [%d, %d) from %s", o.Format, o.Start, o.End, o.Origin)
}
