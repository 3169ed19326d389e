// Package boundary implements the two-window header/footer search shared by
// the tag locators.
//
// A tag starts either exactly at the anchor or after one padding block, so
// the search inspects exactly two fixed windows rather than scanning the
// whole stream. Every identifier match is handed to a format probe; when
// the probe rejects it, the scan resumes one byte after the match so that
// identifiers reoccurring inside payload data are retried rather than
// skipped.
package boundary

import (
	"errors"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

// Spec describes a fixed-size header or footer record.
type Spec struct {
	// Magic identifies the record.
	Magic []byte
	// MagicOffset is the position of Magic inside the record.
	MagicOffset int64
	// Size is the record length in bytes.
	Size int64
}

// Probe parses and validates a candidate record starting at off. A non-nil
// error rejects the candidate.
type Probe[H any] func(c *binary.Cursor, off int64) (H, error)

// Match is a validated record and its stream offset.
type Match[H any] struct {
	Record H
	Offset int64

	// Rejected lists the candidates turned down during the search.
	Rejected []Rejection
}

// Rejection is an identifier match that did not yield a record.
type Rejection struct {
	Offset int64
	Reason error
}

// Log reports each rejected candidate through opts at debug level.
func (m Match[H]) Log(opts *types.ReadOptions, what string) {
	for _, r := range m.Rejected {
		opts.Debug("candidate rejected", "record", what, "offset", r.Offset, "reason", r.Reason)
	}
}

// Windows returns the two record-start windows searched around anchor.
func Windows(spec Spec, origin types.Origin, anchor int64) [2][2]int64 {
	if origin == types.OriginEnd {
		return [2][2]int64{
			{anchor - spec.Size, anchor},
			{anchor - 2*spec.Size, anchor - spec.Size},
		}
	}
	return [2][2]int64{
		{anchor, anchor + spec.Size},
		{anchor + spec.Size, anchor + 2*spec.Size},
	}
}

// Find searches the two windows around anchor for a record accepted by
// probe.
//
// For OriginEnd a record must end at or before anchor. A rejected
// candidate is not an error: it is recorded in Match.Rejected and the scan
// goes on, so found == false with a nil error means no tag. err is set
// only when the stream cannot be read. The cursor is restored to its
// original position before returning.
func Find[H any](c *binary.Cursor, spec Spec, origin types.Origin, anchor int64, probe Probe[H]) (Match[H], bool, error) {
	origPos := c.Position()
	defer func() { _ = c.Seek(origPos) }() //nolint:errcheck // origPos was valid when read

	var rejected []Rejection
	for _, w := range Windows(spec, origin, anchor) {
		lo, hi := w[0], w[1]
		if lo < 0 {
			lo = 0
		}
		for lo < hi {
			at, ok, err := binary.FindIdentifier(c, spec.Magic, lo+spec.MagicOffset, hi+spec.MagicOffset)
			if err != nil {
				return Match[H]{Rejected: rejected}, false, err
			}
			if !ok {
				break
			}

			start := at - spec.MagicOffset
			rec, perr := check(c, spec, origin, anchor, start, probe)
			if perr == nil {
				return Match[H]{Record: rec, Offset: start, Rejected: rejected}, true, nil
			}
			rejected = append(rejected, Rejection{Offset: start, Reason: perr})
			lo = start + 1
		}
	}

	return Match[H]{Rejected: rejected}, false, nil
}

// Placement errors for candidates whose record cannot sit at start.
var (
	errBeforeStart = errors.New("record starts before the stream")
	errPastEnd     = errors.New("record runs past the end of the stream")
	errPastAnchor  = errors.New("record runs past the anchor")
)

func check[H any](c *binary.Cursor, spec Spec, origin types.Origin, anchor, start int64, probe Probe[H]) (H, error) {
	var zero H
	switch {
	case start < 0:
		return zero, errBeforeStart
	case start+spec.Size > c.Length():
		return zero, errPastEnd
	case origin == types.OriginEnd && start+spec.Size > anchor:
		return zero, errPastAnchor
	}
	return probe(c, start)
}
