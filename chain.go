package audiotag

import (
	"slices"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/types"

	// Format packages register their readers and writers.
	_ "github.com/simonhull/audiotag/internal/ape"
	_ "github.com/simonhull/audiotag/internal/container"
	_ "github.com/simonhull/audiotag/internal/id3v1"
	_ "github.com/simonhull/audiotag/internal/id3v2"
	_ "github.com/simonhull/audiotag/internal/lyrics3"
	_ "github.com/simonhull/audiotag/internal/musicmatch"
)

// maxChainLength bounds the number of tags taken from either end.
const maxChainLength = 32

// locate enumerates the tags of a stream.
//
// The start chain tries the appended formats in priority order at offset
// 0, re-anchoring at the end of every tag found, and then the container
// readers at the final anchor. The end chain does the same backwards from
// the stream length, re-anchoring at the start of every tag found, and
// stops at the end of the start chain.
//
// prepended is the number of leading tags that belong to the start chain
// and lie before the audio.
func locate(c *binary.Cursor, opts *types.ReadOptions) (tags []TagOffset, prepended int, err error) {
	head, headEnd, err := startChain(c, opts)
	if err != nil {
		return nil, 0, err
	}
	for _, t := range head {
		if t.Format.Appended() {
			prepended++
		}
	}
	tail, err := endChain(c, headEnd, opts)
	if err != nil {
		return nil, 0, err
	}

	// The tail was collected outside-in.
	slices.Reverse(tail)
	return append(head, tail...), prepended, nil
}

func startChain(c *binary.Cursor, opts *types.ReadOptions) ([]TagOffset, int64, error) {
	var (
		found  []TagOffset
		anchor int64
	)
	readers := registry.Readers(types.OriginStart)

	for len(found) < maxChainLength {
		next, ok, err := firstMatch(c, readers, anchor, true, opts)
		if err != nil {
			return nil, 0, err
		}
		if !ok || next.End <= anchor {
			break
		}
		opts.Debug("tag located", "format", next.Format, "start", next.Start, "end", next.End)
		found = append(found, next)
		anchor = next.End
	}

	inner, ok, err := firstMatch(c, readers, anchor, false, opts)
	if err != nil {
		return nil, 0, err
	}
	if ok {
		found = append(found, inner)
	}
	return found, anchor, nil
}

func endChain(c *binary.Cursor, floor int64, opts *types.ReadOptions) ([]TagOffset, error) {
	var found []TagOffset
	anchor := c.Length()
	readers := registry.Readers(types.OriginEnd)

	for len(found) < maxChainLength && anchor > floor {
		next, ok, err := firstMatch(c, readers, anchor, true, opts)
		if err != nil {
			return nil, err
		}
		if !ok || next.Start >= anchor || next.Start < floor {
			break
		}
		opts.Debug("tag located", "format", next.Format, "start", next.Start, "end", next.End)
		found = append(found, next)
		anchor = next.Start
	}
	return found, nil
}

// firstMatch returns the first tag found by readers whose format is or is
// not an appended one.
func firstMatch(c *binary.Cursor, readers []registry.TagReader, anchor int64, appended bool, opts *types.ReadOptions) (TagOffset, bool, error) {
	for _, r := range readers {
		if r.Format().Appended() != appended {
			continue
		}
		off, ok, err := r.Read(c, anchor, opts)
		if err != nil {
			return TagOffset{}, false, err
		}
		if ok {
			return off, true, nil
		}
	}
	return TagOffset{}, false, nil
}
