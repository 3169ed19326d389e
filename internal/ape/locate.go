package ape

import (
	"fmt"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/boundary"
	"github.com/simonhull/audiotag/internal/types"
)

// Bounds is the reconciled extent of an APE tag.
type Bounds struct {
	// Header and Footer are nil when the record is absent.
	Header *Header
	Footer *Header

	// Start and End delimit the whole tag including header and footer.
	Start int64
	End   int64

	// ItemsStart and ItemsEnd delimit the item region.
	ItemsStart int64
	ItemsEnd   int64

	// Size is the reconciled item-plus-footer size.
	Size int64
}

// Version returns the tag version, preferring the footer.
func (b Bounds) Version() uint32 {
	if b.Footer != nil {
		return b.Footer.Version
	}
	if b.Header != nil {
		return b.Header.Version
	}
	return 0
}

// ItemCount returns the declared item count, preferring the footer.
func (b Bounds) ItemCount() uint32 {
	if b.Footer != nil {
		return b.Footer.ItemCount
	}
	if b.Header != nil {
		return b.Header.ItemCount
	}
	return 0
}

// Flags returns the tag flags, preferring the footer.
func (b Bounds) Flags() Flags {
	if b.Footer != nil {
		return b.Footer.Flags
	}
	if b.Header != nil {
		return b.Header.Flags
	}
	return 0
}

// Locate finds an APE tag adjacent to anchor and reconciles its header and
// footer. With OriginStart the tag must begin at anchor or within one
// record length after it; with OriginEnd it must end at anchor or within
// one record length before it.
//
// A missing tag yields found == false with a nil error; candidates the
// search turned down are logged at debug level. A record that was found but
// declares a size over the cap, or an extent the stream cannot hold, is
// reported through opts: as the returned error in strict mode, or as a
// warning otherwise.
func Locate(c *binary.Cursor, origin types.Origin, anchor int64, opts *types.ReadOptions) (Bounds, bool, error) {
	if origin == types.OriginEnd {
		return locateFromEnd(c, anchor, opts)
	}
	return locateFromStart(c, anchor, opts)
}

func locateFromStart(c *binary.Cursor, anchor int64, opts *types.ReadOptions) (Bounds, bool, error) {
	m, ok, err := boundary.Find(c, recordSpec, types.OriginStart, anchor, headerProbe)
	if !ok {
		m.Log(opts, "APE header")
		return Bounds{}, false, err
	}

	h := m.Record
	if err := checkSize(c, h, opts.Cap()); err != nil {
		return Bounds{}, false, opts.Fail("locate", h.Position, err)
	}
	b := Bounds{Header: &h, Start: h.Position, ItemsStart: h.Position + HeaderSize}
	declaredEnd := b.ItemsStart + int64(h.Size)
	end := min(declaredEnd, c.Length())

	if h.HasFooter() && end-HeaderSize >= b.ItemsStart {
		if f, ferr := footerProbe(c, end-HeaderSize); ferr == nil {
			b.Footer = &f
		} else {
			opts.Debug("APE footer not at declared end, rescanning", "offset", end-HeaderSize)
			fm, found, _ := boundary.Find(c, recordSpec, types.OriginEnd, end, footerProbe)
			if found && fm.Offset >= b.ItemsStart {
				b.Footer = &fm.Record
			}
		}
	}

	if b.Footer != nil {
		b.ItemsEnd = b.Footer.Position
		b.End = b.Footer.Position + HeaderSize
	} else {
		if h.HasFooter() {
			opts.Warn("locate", h.Position, "APE footer missing")
		}
		b.ItemsEnd = end
		b.End = end
	}

	if declaredEnd > c.Length() && b.Footer == nil {
		terr := &types.TruncatedError{
			Path:   c.Path(),
			What:   "APE tag",
			Offset: b.ItemsStart,
			Length: int(h.Size),
			Size:   c.Length(),
		}
		if ferr := opts.Fail("locate", b.ItemsStart, terr); ferr != nil {
			return Bounds{}, false, ferr
		}
	}

	declared := int64(h.Size)
	if b.Footer != nil {
		declared = max(declared, int64(b.Footer.Size))
	}
	return reconcile(c, b, declared, c.Length()-b.ItemsStart, opts)
}

func locateFromEnd(c *binary.Cursor, anchor int64, opts *types.ReadOptions) (Bounds, bool, error) {
	m, ok, err := boundary.Find(c, recordSpec, types.OriginEnd, anchor, footerProbe)
	if !ok {
		m.Log(opts, "APE footer")
		return Bounds{}, false, err
	}

	f := m.Record
	if err := checkSize(c, f, opts.Cap()); err != nil {
		return Bounds{}, false, opts.Fail("locate", f.Position, err)
	}
	b := Bounds{Footer: &f, ItemsEnd: f.Position, End: f.Position + HeaderSize}

	itemsStart := b.End - int64(f.Size)
	switch {
	case itemsStart < 0:
		terr := &types.TruncatedError{
			Path:   c.Path(),
			What:   "APE tag",
			Offset: itemsStart,
			Length: int(f.Size),
			Size:   c.Length(),
		}
		if ferr := opts.Fail("locate", f.Position, terr); ferr != nil {
			return Bounds{}, false, ferr
		}
		itemsStart = 0
	case itemsStart > b.ItemsEnd:
		merr := &types.MalformedError{
			Path:   c.Path(),
			Format: types.FormatAPE,
			Offset: f.Position,
			Reason: fmt.Sprintf("declared size %d smaller than footer", f.Size),
		}
		if ferr := opts.Fail("locate", f.Position, merr); ferr != nil {
			return Bounds{}, false, ferr
		}
		itemsStart = b.ItemsEnd
	}
	b.ItemsStart = itemsStart
	b.Start = itemsStart

	declared := int64(f.Size)
	if f.HasHeader() && itemsStart >= HeaderSize {
		pos := itemsStart - HeaderSize
		// A header normally; a footer-shaped record at the same place is
		// accepted as the header when the footer says one exists.
		h, herr := parseRecord(c, pos)
		if herr == nil {
			herr = checkSize(c, h, opts.Cap())
		}
		if herr == nil {
			b.Header = &h
			b.Start = pos
			declared = max(declared, int64(h.Size))
		} else {
			opts.Warn("locate", pos, "APE header declared but not found: %v", herr)
		}
	}

	return reconcile(c, b, declared, b.End-b.ItemsStart, opts)
}

// reconcile settles the tag size as the larger of the measured and declared
// sizes, clamped to what the stream can hold.
func reconcile(c *binary.Cursor, b Bounds, declared, available int64, opts *types.ReadOptions) (Bounds, bool, error) {
	size := max(b.End-b.ItemsStart, declared)
	size = min(size, max(available, 0))
	if size > opts.Cap() {
		merr := &types.MalformedError{
			Path:   c.Path(),
			Format: types.FormatAPE,
			Offset: b.Start,
			Reason: fmt.Sprintf("tag size %d exceeds limit %d", size, opts.Cap()),
		}
		return Bounds{}, false, opts.Fail("locate", b.Start, merr)
	}
	b.Size = size
	return b, true, nil
}
